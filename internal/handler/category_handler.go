package handler

import (
	"net/http"

	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryRequest is the body of category writes
type CategoryRequest struct {
	ID   looseString `json:"id"`
	Name string      `json:"name"`
}

// CategoryHandler serves /categories
type CategoryHandler struct {
	errorWriter
	catalog *service.CatalogService
}

// NewCategoryHandler creates a CategoryHandler
func NewCategoryHandler(catalog *service.CatalogService, production bool) *CategoryHandler {
	return &CategoryHandler{errorWriter: errorWriter{exposeDetails: !production}, catalog: catalog}
}

// ListCategories returns every category, oldest first
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return h.write(c, err, nil)
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory adds a category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	category, err := h.catalog.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Category created", zap.Uint("category_id", category.ID))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory renames a category
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	category, err := h.catalog.UpdateCategory(c.Request().Context(), string(req.ID), req.Name)
	if err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Category updated", zap.Uint("category_id", category.ID))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes the category named by ?id=
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id := c.QueryParam("id")
	if err := h.catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Category deleted", zap.String("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}
