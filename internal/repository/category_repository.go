package repository

import (
	"context"

	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// CategoryRepository persists categories
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	UpdateName(ctx context.Context, id uint, name string) (*model.Category, error)
	Delete(ctx context.Context, id uint) error
	CountProducts(ctx context.Context, id uint) (int64, error)
}

type categoryRepository struct{ db *gorm.DB }

// NewCategoryRepository returns a gorm-backed CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&categories).Error
	return categories, classify(err)
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return classify(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) UpdateName(ctx context.Context, id uint, name string) (*model.Category, error) {
	result := r.db.WithContext(ctx).Model(&model.Category{ID: id}).Update("name", name)
	if result.Error != nil {
		return nil, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, classify(err)
	}
	return &category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return classify(r.db.WithContext(ctx).Delete(&model.Category{}, id).Error)
}

func (r *categoryRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, classify(err)
}
