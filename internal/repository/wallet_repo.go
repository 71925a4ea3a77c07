package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository persists order-scoped PaymentTransactions — the cash a
// delivery agent personally holds, tracked outside the bill pipeline.
type WalletRepository interface {
	Create(ctx context.Context, tx *model.PaymentTransaction) error
	Update(ctx context.Context, tx *model.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.PaymentTransaction, error)
	List(ctx context.Context, agentID *uuid.UUID, status string, page, limit int) ([]model.PaymentTransaction, int64, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, tx *model.PaymentTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *walletRepository) Update(ctx context.Context, tx *model.PaymentTransaction) error {
	return GetDB(ctx, r.db).Save(tx).Error
}

func (r *walletRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	if err := GetDB(ctx, r.db).Preload("Order").Preload("Agent").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *walletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *walletRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *walletRepository) List(ctx context.Context, agentID *uuid.UUID, status string, page, limit int) ([]model.PaymentTransaction, int64, error) {
	var txs []model.PaymentTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PaymentTransaction{})
	if agentID != nil {
		db = db.Where("agent_id = ?", *agentID)
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

	if err := db.Preload("Order").Preload("Agent").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
