package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/prometheus"
)

// ProductInput carries product fields as received from clients. Numeric
// fields are kept as text so they can be coerced and validated here.
type ProductInput struct {
	ID          string
	Name        string
	Description *string
	Price       string
	ImageURL    *string
	Images      []string
	CategoryID  string
	Status      string
}

// ProductQuery filters product listings. An empty status means active.
type ProductQuery struct {
	CategoryID string
	Status     string
}

// CatalogService manages categories and products
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	metrics    *prometheus.Metrics
}

// NewCatalogService creates a CatalogService
func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository, metrics *prometheus.Metrics) *CatalogService {
	return &CatalogService{categories: categories, products: products, metrics: metrics}
}

// ParseID coerces a client-supplied identifier into a positive integer
func ParseID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(uint32(f)) && f > 0 {
		return uint(f), true
	}
	return 0, false
}

// ListCategories returns every category, oldest first
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	defer s.metrics.TrackDBOperation("query")(time.Now())
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeFailure("Failed to retrieve categories", err)
	}
	return categories, nil
}

// CreateCategory adds a category named name
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("Category name is required")
	}

	defer s.metrics.TrackDBOperation("insert")(time.Now())
	category := &model.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storeFailure("Failed to create category", err)
	}
	s.metrics.RecordCategoryOperation("create")
	return category, nil
}

// UpdateCategory renames the category with the given id
func (s *CatalogService) UpdateCategory(ctx context.Context, rawID, name string) (*model.Category, error) {
	id, ok := ParseID(rawID)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, validation("ID and name are required")
	}

	defer s.metrics.TrackDBOperation("update")(time.Now())
	category, err := s.categories.UpdateName(ctx, id, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Category not found", nil)
	}
	if err != nil {
		return nil, storeFailure("Failed to update category", err)
	}
	s.metrics.RecordCategoryOperation("update")
	return category, nil
}

// DeleteCategory removes a category. Categories still holding products are
// kept and ErrConflict is returned.
func (s *CatalogService) DeleteCategory(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return validation("Category ID is required")
	}

	defer s.metrics.TrackDBOperation("delete")(time.Now())
	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return storeFailure("Failed to delete category", err)
	}
	if count > 0 {
		return newError(ErrConflict, "Category still has products", nil)
	}

	// a product may land between the count and the delete; the foreign key catches it
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return newError(ErrConflict, "Category still has products", err)
		}
		return storeFailure("Failed to delete category", err)
	}
	s.metrics.RecordCategoryOperation("delete")
	return nil
}

// ListProducts returns products with their category names, newest first
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	filter := repository.ProductFilter{Status: strings.TrimSpace(q.Status)}
	if filter.Status == "" {
		filter.Status = model.StatusActive
	}
	if strings.TrimSpace(q.CategoryID) != "" {
		id, ok := ParseID(q.CategoryID)
		if !ok {
			return nil, validation("Category ID must be a positive integer")
		}
		filter.CategoryID = &id
	}

	defer s.metrics.TrackDBOperation("query")(time.Now())
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, storeFailure("Failed to retrieve products", err)
	}
	return products, nil
}

// GetProduct returns one product. Inactive products are only visible when
// includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, rawID string, includeInactive bool) (*model.Product, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, validation("Product ID is required")
	}

	defer s.metrics.TrackDBOperation("query")(time.Now())
	product, err := s.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, storeFailure("Failed to retrieve product", err)
	}
	if product.Status != model.StatusActive && !includeInactive {
		return nil, newError(ErrNotFound, "Product not found", nil)
	}
	s.metrics.RecordProductView(strconv.FormatUint(uint64(product.ID), 10))
	return product, nil
}

// CreateProduct validates in and inserts a product
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	product, err := buildProduct(in, "Name, price, and category are required")
	if err != nil {
		return nil, err
	}

	defer s.metrics.TrackDBOperation("insert")(time.Now())
	if err := s.products.Create(ctx, product); err != nil {
		return nil, storeFailure("Failed to create product", err)
	}
	s.metrics.RecordProductOperation("create")
	return s.reload(ctx, product)
}

// UpdateProduct replaces every editable field of the product in.ID
func (s *CatalogService) UpdateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	const required = "ID, name, price, and category are required"
	id, ok := ParseID(in.ID)
	if !ok {
		return nil, validation(required)
	}
	product, err := buildProduct(in, required)
	if err != nil {
		return nil, err
	}
	product.ID = id

	defer s.metrics.TrackDBOperation("update")(time.Now())
	err = s.products.Update(ctx, product)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, storeFailure("Failed to update product", err)
	}
	s.metrics.RecordProductOperation("update")
	return s.reload(ctx, product)
}

// DeleteProduct removes a product. Stored images are left in place.
func (s *CatalogService) DeleteProduct(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return validation("Product ID is required")
	}

	defer s.metrics.TrackDBOperation("delete")(time.Now())
	if err := s.products.Delete(ctx, id); err != nil {
		return storeFailure("Failed to delete product", err)
	}
	s.metrics.RecordProductOperation("delete")
	return nil
}

// reload reads the written row back with its category name
func (s *CatalogService) reload(ctx context.Context, product *model.Product) (*model.Product, error) {
	stored, err := s.products.Get(ctx, product.ID)
	if err != nil {
		return nil, storeFailure("Failed to retrieve product", err)
	}
	return stored, nil
}

func buildProduct(in ProductInput, requiredMsg string) (*model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Price) == "" || strings.TrimSpace(in.CategoryID) == "" {
		return nil, validation(requiredMsg)
	}

	price, err := model.ParsePrice(in.Price)
	if err != nil {
		return nil, validation("Price must be a non-negative number up to 9999999999.99")
	}

	categoryID, ok := ParseID(in.CategoryID)
	if !ok {
		return nil, validation("Category ID must be a positive integer")
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.StatusActive
	}
	if !model.ValidStatus(status) {
		return nil, validation("Status must be active or inactive")
	}

	var description *string
	if in.Description != nil {
		if d := strings.TrimSpace(*in.Description); d != "" {
			description = &d
		}
	}

	images := model.ImageRefs{}
	switch {
	case in.Images != nil:
		images = model.ImageRefs(in.Images).Normalize()
	case in.ImageURL != nil:
		images = model.ParseImageRefs(*in.ImageURL)
	}

	return &model.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Images:      images,
		CategoryID:  categoryID,
		Status:      status,
	}, nil
}
