package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID *uuid.UUID
	AssignedTo *uuid.UUID
	Status     string
	Payment    string
	Page       int
	Limit      int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	// FindUnbilledCredit returns credit orders for the customer inside the
	// window that no bill has picked up yet, locked for the enclosing
	// transaction so a concurrent generator cannot double-bill them.
	FindUnbilledCredit(ctx context.Context, customerID uuid.UUID, start, end time.Time) ([]model.Order, error)
	MarkBilled(ctx context.Context, orderIDs []uuid.UUID, billID uuid.UUID) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Order{}).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Customer").Preload("Product").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.AssignedTo != nil {
		db = db.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Payment != "" {
		db = db.Where("payment = ?", filter.Payment)
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

	if err := db.Preload("Customer").Preload("Product").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) FindUnbilledCredit(ctx context.Context, customerID uuid.UUID, start, end time.Time) ([]model.Order, error) {
	var orders []model.Order
	// A cancelled order already had its undelivered credit released; it stays
	// billable only for the portion that was delivered before cancellation.
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND payment = ? AND bill_id IS NULL AND order_date >= ? AND order_date <= ?",
			customerID, model.PaymentTypeCredit, start, end).
		Where("status <> ? OR delivered_quantity > 0", model.OrderStatusCancelled).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) MarkBilled(ctx context.Context, orderIDs []uuid.UUID, billID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id IN ?", orderIDs).
		Update("bill_id", billID).Error
}
