package repository

import (
	"context"
	"time"

	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID *uint
	Status     string
}

// ProductRepository persists products
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	UpdateImages(ctx context.Context, id uint, images model.ImageRefs) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct{ db *gorm.DB }

// NewProductRepository returns a gorm-backed ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// every read carries the owning category's name
func (r *productRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("products.*, categories.name AS category_name").
		Joins("JOIN categories ON categories.id = products.category_id")
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := r.joined(ctx)
	if filter.Status != "" {
		q = q.Where("products.status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("products.category_id = ?", *filter.CategoryID)
	}

	products := []model.Product{}
	err := q.Order("products.created_at DESC, products.id DESC").Find(&products).Error
	return products, classify(err)
}

func (r *productRepository) Get(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.joined(ctx).Where("products.id = ?", id).Take(&product).Error; err != nil {
		return nil, classify(err)
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return classify(r.db.WithContext(ctx).Omit("Category").Create(product).Error)
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Product{ID: product.ID}).
		Select("name", "description", "price", "images", "category_id", "status", "updated_at").
		Updates(product)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) UpdateImages(ctx context.Context, id uint, images model.ImageRefs) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{ID: id}).
		Select("images", "updated_at").
		Updates(&model.Product{Images: images, UpdatedAt: time.Now()})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return classify(r.db.WithContext(ctx).Delete(&model.Product{}, id).Error)
}
