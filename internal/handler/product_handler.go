package handler

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductRequest is the body of product writes. price and category_id may be
// sent as numbers or strings; images wins over image_url when both are set.
type ProductRequest struct {
	ID          looseString `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	Price       looseString `json:"price"`
	ImageURL    *string     `json:"image_url"`
	Images      []string    `json:"images"`
	CategoryID  looseString `json:"category_id"`
	Status      string      `json:"status"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		ID:          string(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Price:       string(r.Price),
		ImageURL:    r.ImageURL,
		Images:      r.Images,
		CategoryID:  string(r.CategoryID),
		Status:      r.Status,
	}
}

// ProductHandler serves /products
type ProductHandler struct {
	errorWriter
	catalog *service.CatalogService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(catalog *service.CatalogService, production bool) *ProductHandler {
	return &ProductHandler{errorWriter: errorWriter{exposeDetails: !production}, catalog: catalog}
}

// ListProducts returns products filtered by ?categoryId and ?status (default active)
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context(), service.ProductQuery{
		CategoryID: c.QueryParam("categoryId"),
		Status:     c.QueryParam("status"),
	})
	if err != nil {
		return h.write(c, err, nil)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns one product; inactive ones need a session
func (h *ProductHandler) GetProduct(c echo.Context) error {
	_, signedIn := middleware.CurrentUser(c)
	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"), signedIn)
	if err != nil {
		return h.write(c, err, nil)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), req.input())
	if err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.Uint("category_id", product.CategoryID),
	)
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.catalog.UpdateProduct(c.Request().Context(), req.input())
	if err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Product updated", zap.Uint("product_id", product.ID))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes the product named by ?id=
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id := c.QueryParam("id")
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("Product deleted", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
