package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// DashboardStatistics aggregates the admin dashboard numbers over a window.
type DashboardStatistics struct {
	TimeRangeStartDate time.Time                  `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time                  `json:"time_range_end_date"`
	CreditOrderValue   string                     `json:"credit_order_value"`
	CreditOrderCount   int                        `json:"credit_order_count"`
	CashOrderValue     string                     `json:"cash_order_value"`
	CashOrderCount     int                        `json:"cash_order_count"`
	TopReceivables     []model.CustomerReceivable `json:"top_receivables"`
	AgentCollections   []model.AgentCollection    `json:"agent_collections"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error)
	GetReceivables(ctx context.Context, limit int) ([]model.CustomerReceivable, error)
	GetAgentCollections(ctx context.Context, start, end time.Time) ([]model.AgentCollection, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

// GetStatistics builds the full dashboard payload in one call.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error) {
	stats := DashboardStatistics{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	creditValue, creditCount, err := s.statsRepo.GetOrderVolume(ctx, model.PaymentTypeCredit, "", startDate, endDate)
	if err != nil {
		return stats, err
	}
	stats.CreditOrderValue = creditValue
	stats.CreditOrderCount = creditCount

	cashValue, cashCount, err := s.statsRepo.GetOrderVolume(ctx, model.PaymentTypeCash, "", startDate, endDate)
	if err != nil {
		return stats, err
	}
	stats.CashOrderValue = cashValue
	stats.CashOrderCount = cashCount

	receivables, err := s.statsRepo.GetReceivables(ctx, 5)
	if err != nil {
		return stats, err
	}
	stats.TopReceivables = receivables

	collections, err := s.statsRepo.GetAgentCollections(ctx, startDate, endDate)
	if err != nil {
		return stats, err
	}
	stats.AgentCollections = collections

	return stats, nil
}

func (s *statisticsService) GetReceivables(ctx context.Context, limit int) ([]model.CustomerReceivable, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.statsRepo.GetReceivables(ctx, limit)
}

func (s *statisticsService) GetAgentCollections(ctx context.Context, start, end time.Time) ([]model.AgentCollection, error) {
	return s.statsRepo.GetAgentCollections(ctx, start, end)
}
