package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillFilter narrows bill listings.
type BillFilter struct {
	CustomerID *uuid.UUID
	Status     string
	Page       int
	Limit      int
}

type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	Update(ctx context.Context, bill *model.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	// FindByIDForUpdate locks the bill row; all amount-due mutations read the
	// bill through this method so concurrent payments serialize per bill.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	List(ctx context.Context, filter BillFilter) ([]model.Bill, int64, error)
	// UpdateStatus writes only the status column (used by the lazy overdue
	// transition, which must not clobber concurrent amount updates).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
}

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Create(bill).Error
}

func (r *billRepository) Update(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Save(bill).Error
}

func (r *billRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Preload("Customer").Preload("Orders").First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filter BillFilter) ([]model.Bill, int64, error) {
	var bills []model.Bill
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Bill{})
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := db.Preload("Customer").Order("created_at desc").Offset(offset).Limit(limit).Find(&bills).Error; err != nil {
		return nil, 0, err
	}

	return bills, total, nil
}

func (r *billRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	return GetDB(ctx, r.db).Model(&model.Bill{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to).Error
}
