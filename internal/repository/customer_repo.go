package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	// FindByIDForUpdate locks the customer row for the enclosing transaction.
	// Every credit-ledger adjustment reads the customer through this method.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Customer{}).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Customer{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").Order("created_at desc").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *customerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
