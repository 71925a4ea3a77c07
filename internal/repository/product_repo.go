package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	// FindByIDForUpdate locks the product row for the enclosing transaction.
	// Every stock reservation/release reads the product through this method.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)

	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateSubCategory(ctx context.Context, sub *model.SubCategory) error
	UpdateSubCategory(ctx context.Context, sub *model.SubCategory) error
	DeleteSubCategory(ctx context.Context, id uuid.UUID) error
	FindSubCategoryByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error)
	ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]model.SubCategory, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("SubCategory").Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *productRepository) UpdateCategory(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *productRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *productRepository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Preload("SubCategories").First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := GetDB(ctx, r.db).Preload("SubCategories").Order("created_at desc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *productRepository) CreateSubCategory(ctx context.Context, sub *model.SubCategory) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *productRepository) UpdateSubCategory(ctx context.Context, sub *model.SubCategory) error {
	return GetDB(ctx, r.db).Save(sub).Error
}

func (r *productRepository) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SubCategory{}).Error
}

func (r *productRepository) FindSubCategoryByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error) {
	var sub model.SubCategory
	if err := GetDB(ctx, r.db).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *productRepository) ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]model.SubCategory, error) {
	var subs []model.SubCategory
	db := GetDB(ctx, r.db)
	if categoryID != nil {
		db = db.Where("category_id = ?", *categoryID)
	}
	if err := db.Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
