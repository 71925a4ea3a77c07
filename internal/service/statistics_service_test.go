package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepo struct {
	receivables    []model.CustomerReceivable
	collections    []model.AgentCollection
	receivableArgs []int
	volumes        map[string]struct {
		value string
		count int
	}
}

func (f *fakeStatsRepo) GetReceivables(_ context.Context, limit int) ([]model.CustomerReceivable, error) {
	f.receivableArgs = append(f.receivableArgs, limit)
	if limit < len(f.receivables) {
		return f.receivables[:limit], nil
	}
	return f.receivables, nil
}

func (f *fakeStatsRepo) GetAgentCollections(_ context.Context, _, _ time.Time) ([]model.AgentCollection, error) {
	return f.collections, nil
}

func (f *fakeStatsRepo) GetOrderVolume(_ context.Context, payment, _ string, _, _ time.Time) (string, int, error) {
	v, ok := f.volumes[payment]
	if !ok {
		return "0", 0, nil
	}
	return v.value, v.count, nil
}

func TestGetStatistics(t *testing.T) {
	repo := &fakeStatsRepo{
		receivables: []model.CustomerReceivable{
			{CustomerID: "c1", CustomerName: "Acme Traders", TotalDue: "700", BillCount: 2},
		},
		collections: []model.AgentCollection{
			{AgentID: "a1", AgentName: "runner", TotalCollected: "300", TotalForwarded: "100", TxCount: 3},
		},
		volumes: map[string]struct {
			value string
			count int
		}{
			model.PaymentTypeCredit: {value: "1500", count: 4},
			model.PaymentTypeCash:   {value: "600", count: 2},
		},
	}
	svc := service.NewStatisticsService(repo)

	start := time.Now().AddDate(0, -1, 0)
	end := time.Now()
	stats, err := svc.GetStatistics(context.Background(), start, end)

	require.NoError(t, err)
	assert.Equal(t, "1500", stats.CreditOrderValue)
	assert.Equal(t, 4, stats.CreditOrderCount)
	assert.Equal(t, "600", stats.CashOrderValue)
	assert.Equal(t, 2, stats.CashOrderCount)
	require.Len(t, stats.TopReceivables, 1)
	assert.Equal(t, "700", stats.TopReceivables[0].TotalDue)
	require.Len(t, stats.AgentCollections, 1)
	// The dashboard asks for the top five receivables.
	assert.Equal(t, []int{5}, repo.receivableArgs)
}

func TestGetReceivablesDefaultLimit(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc := service.NewStatisticsService(repo)

	_, err := svc.GetReceivables(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, []int{10}, repo.receivableArgs)
}
