package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentFilter narrows settlement listings across the three pipeline tables.
type PaymentFilter struct {
	BillID      *uuid.UUID
	CustomerID  *uuid.UUID
	RecipientID *uuid.UUID
	Status      string
	Page        int
	Limit       int
}

// PaymentRepository persists the three cooperating settlement machines:
// PaymentRequest, BillTransaction and BillAdminRequest.
type PaymentRepository interface {
	CreateRequest(ctx context.Context, req *model.PaymentRequest) error
	UpdateRequest(ctx context.Context, req *model.PaymentRequest) error
	FindRequestByID(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error)
	FindRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error)
	ListRequests(ctx context.Context, filter PaymentFilter) ([]model.PaymentRequest, int64, error)

	CreateTransaction(ctx context.Context, tx *model.BillTransaction) error
	UpdateTransaction(ctx context.Context, tx *model.BillTransaction) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*model.BillTransaction, error)
	FindTransactionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillTransaction, error)
	ListTransactions(ctx context.Context, holderID *uuid.UUID, status string, page, limit int) ([]model.BillTransaction, int64, error)

	CreateAdminRequest(ctx context.Context, req *model.BillAdminRequest) error
	UpdateAdminRequest(ctx context.Context, req *model.BillAdminRequest) error
	FindAdminRequestByID(ctx context.Context, id uuid.UUID) (*model.BillAdminRequest, error)
	FindAdminRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillAdminRequest, error)
	FindOpenAdminRequestByTransaction(ctx context.Context, billTxID uuid.UUID) (*model.BillAdminRequest, error)
	ListAdminRequests(ctx context.Context, status string, page, limit int) ([]model.BillAdminRequest, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateRequest(ctx context.Context, req *model.PaymentRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *paymentRepository) UpdateRequest(ctx context.Context, req *model.PaymentRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *paymentRepository) FindRequestByID(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	if err := GetDB(ctx, r.db).Preload("Bill").Preload("Customer").Preload("Recipient").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) FindRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) ListRequests(ctx context.Context, filter PaymentFilter) ([]model.PaymentRequest, int64, error) {
	var requests []model.PaymentRequest
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PaymentRequest{})
	if filter.BillID != nil {
		db = db.Where("bill_id = ?", *filter.BillID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.RecipientID != nil {
		db = db.Where("recipient_id = ?", *filter.RecipientID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := db.Preload("Bill").Preload("Customer").Preload("Recipient").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *paymentRepository) CreateTransaction(ctx context.Context, tx *model.BillTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *paymentRepository) UpdateTransaction(ctx context.Context, tx *model.BillTransaction) error {
	return GetDB(ctx, r.db).Save(tx).Error
}

func (r *paymentRepository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*model.BillTransaction, error) {
	var tx model.BillTransaction
	if err := GetDB(ctx, r.db).Preload("PaymentRequest").Preload("Holder").
		First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *paymentRepository) FindTransactionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillTransaction, error) {
	var tx model.BillTransaction
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *paymentRepository) ListTransactions(ctx context.Context, holderID *uuid.UUID, status string, page, limit int) ([]model.BillTransaction, int64, error) {
	var txs []model.BillTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.BillTransaction{})
	if holderID != nil {
		db = db.Where("holder_id = ?", *holderID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := db.Preload("Holder").Order("created_at desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *paymentRepository) CreateAdminRequest(ctx context.Context, req *model.BillAdminRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *paymentRepository) UpdateAdminRequest(ctx context.Context, req *model.BillAdminRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *paymentRepository) FindAdminRequestByID(ctx context.Context, id uuid.UUID) (*model.BillAdminRequest, error) {
	var req model.BillAdminRequest
	if err := GetDB(ctx, r.db).Preload("BillTransaction").Preload("Requester").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) FindAdminRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillAdminRequest, error) {
	var req model.BillAdminRequest
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) FindOpenAdminRequestByTransaction(ctx context.Context, billTxID uuid.UUID) (*model.BillAdminRequest, error) {
	var req model.BillAdminRequest
	if err := GetDB(ctx, r.db).
		Where("bill_transaction_id = ? AND status = ?", billTxID, model.AdminRequestPending).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) ListAdminRequests(ctx context.Context, status string, page, limit int) ([]model.BillAdminRequest, int64, error) {
	var requests []model.BillAdminRequest
	var total int64

	db := GetDB(ctx, r.db).Model(&model.BillAdminRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := db.Preload("BillTransaction").Preload("Requester").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
