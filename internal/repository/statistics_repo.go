package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	// GetReceivables ranks customers by outstanding amount due across open bills.
	GetReceivables(ctx context.Context, limit int) ([]model.CustomerReceivable, error)
	// GetAgentCollections sums funds each field agent holds or has forwarded.
	GetAgentCollections(ctx context.Context, start, end time.Time) ([]model.AgentCollection, error)
	// GetOrderVolume returns order count and summed total amount over a window.
	GetOrderVolume(ctx context.Context, payment, status string, start, end time.Time) (value string, count int, err error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetReceivables(ctx context.Context, limit int) ([]model.CustomerReceivable, error) {
	var receivables []model.CustomerReceivable
	if err := r.db.WithContext(ctx).Table("bills").
		Select("customers.id as customer_id, customers.name as customer_name, CAST(SUM(bills.amount_due) AS TEXT) as total_due, COUNT(bills.id) as bill_count").
		Joins("JOIN customers ON customers.id = bills.customer_id").
		Where("bills.status <> ?", model.BillStatusPaid).
		Group("customers.id, customers.name").
		Order("SUM(bills.amount_due) DESC").
		Limit(limit).
		Scan(&receivables).Error; err != nil {
		return nil, fmt.Errorf("failed to query receivables: %w", err)
	}
	return receivables, nil
}

func (r *statisticsRepository) GetAgentCollections(ctx context.Context, start, end time.Time) ([]model.AgentCollection, error) {
	var collections []model.AgentCollection
	if err := r.db.WithContext(ctx).Table("bill_transactions").
		Select(`users.id as agent_id, users.username as agent_name,
			COALESCE(CAST(SUM(bill_transactions.amount) AS TEXT), '0') as total_collected,
			COALESCE(CAST(SUM(CASE WHEN bill_transactions.status = 'paid_to_admin' THEN bill_transactions.amount ELSE 0 END) AS TEXT), '0') as total_forwarded,
			COUNT(bill_transactions.id) as tx_count`).
		Joins("JOIN users ON users.id = bill_transactions.holder_id").
		Where("bill_transactions.created_at >= ? AND bill_transactions.created_at <= ?", start, end).
		Group("users.id, users.username").
		Order("SUM(bill_transactions.amount) DESC").
		Scan(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to query agent collections: %w", err)
	}
	return collections, nil
}

func (r *statisticsRepository) GetOrderVolume(ctx context.Context, payment, status string, start, end time.Time) (string, int, error) {
	var result struct {
		Value string
		Count int
	}
	db := r.db.WithContext(ctx).Table("orders").
		Select("COALESCE(CAST(SUM(orders.total_amount) AS TEXT), '0') as value, COUNT(orders.id) as count").
		Where("orders.order_date >= ? AND orders.order_date <= ?", start, end)
	if payment != "" {
		db = db.Where("orders.payment = ?", payment)
	}
	if status != "" {
		db = db.Where("orders.status = ?", status)
	}
	if err := db.Scan(&result).Error; err != nil {
		return "0", 0, fmt.Errorf("failed to query order volume: %w", err)
	}
	return result.Value, result.Count, nil
}
