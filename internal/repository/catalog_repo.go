package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/model"
)

type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *model.PriceCategory) error
	UpdateCategory(ctx context.Context, category *model.PriceCategory) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceCategory, error)
	ListCategories(ctx context.Context) ([]model.PriceCategory, error)

	CreateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error
	UpdateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error
	DeleteSubcategory(ctx context.Context, id uuid.UUID) error
	FindSubcategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceSubcategory, error)

	// PriceListTree loads the full category→subcategory→product tree
	PriceListTree(ctx context.Context) ([]model.PriceCategory, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *model.PriceCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *catalogRepository) UpdateCategory(ctx context.Context, category *model.PriceCategory) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *catalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PriceCategory{}).Error
}

func (r *catalogRepository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceCategory, error) {
	var category model.PriceCategory
	if err := GetDB(ctx, r.db).Preload("Subcategories").First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]model.PriceCategory, error) {
	var categories []model.PriceCategory
	if err := GetDB(ctx, r.db).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *catalogRepository) CreateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *catalogRepository) UpdateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error {
	return GetDB(ctx, r.db).Save(sub).Error
}

func (r *catalogRepository) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PriceSubcategory{}).Error
}

func (r *catalogRepository) FindSubcategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceSubcategory, error) {
	var sub model.PriceSubcategory
	if err := GetDB(ctx, r.db).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *catalogRepository) PriceListTree(ctx context.Context) ([]model.PriceCategory, error) {
	var categories []model.PriceCategory
	if err := GetDB(ctx, r.db).
		Preload("Subcategories").
		Preload("Subcategories.Products").
		Order("name asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
