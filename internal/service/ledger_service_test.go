package service_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture() (service.LedgerService, *fakeCustomerRepo, *fakeProductRepo) {
	customerRepo := newFakeCustomerRepo()
	productRepo := newFakeProductRepo()
	return service.NewLedgerService(customerRepo, productRepo), customerRepo, productRepo
}

func TestLedgerReserveCredit(t *testing.T) {
	tests := []struct {
		name     string
		limit    string
		balance  string
		amount   string
		wantKind apperr.Kind
		wantLeft string
	}{
		{
			name:     "reserves within balance",
			limit:    "1000",
			balance:  "1000",
			amount:   "400",
			wantLeft: "600",
		},
		{
			name:     "reserves the entire balance",
			limit:    "1000",
			balance:  "250",
			amount:   "250",
			wantLeft: "0",
		},
		{
			name:     "rejects amount above balance",
			limit:    "1000",
			balance:  "100",
			amount:   "100.01",
			wantKind: apperr.KindInsufficientResource,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger, customerRepo, _ := newLedgerFixture()
			customer := customerRepo.add(&model.Customer{
				UserID:             uuid.New(),
				Name:               "Acme Traders",
				CreditLimit:        decimal.RequireFromString(tc.limit),
				BalanceCreditLimit: decimal.RequireFromString(tc.balance),
			})

			err := ledger.ReserveCredit(context.Background(), customer.ID, decimal.RequireFromString(tc.amount))

			if tc.wantKind != apperr.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, apperr.KindOf(err))
				assert.True(t, customer.BalanceCreditLimit.Equal(decimal.RequireFromString(tc.balance)),
					"balance must be untouched on failure")
				return
			}
			require.NoError(t, err)
			assert.True(t, customer.BalanceCreditLimit.Equal(decimal.RequireFromString(tc.wantLeft)),
				"balance = %s, want %s", customer.BalanceCreditLimit, tc.wantLeft)
		})
	}
}

func TestLedgerReserveCreditUnknownCustomer(t *testing.T) {
	ledger, _, _ := newLedgerFixture()

	err := ledger.ReserveCredit(context.Background(), uuid.New(), decimal.NewFromInt(10))

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLedgerReleaseCredit(t *testing.T) {
	tests := []struct {
		name    string
		limit   string
		balance string
		amount  string
		want    string
	}{
		{
			name:    "restores a previous reservation",
			limit:   "1000",
			balance: "600",
			amount:  "400",
			want:    "1000",
		},
		{
			name:    "clamps at the credit limit",
			limit:   "1000",
			balance: "900",
			amount:  "400",
			want:    "1000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger, customerRepo, _ := newLedgerFixture()
			customer := customerRepo.add(&model.Customer{
				UserID:             uuid.New(),
				Name:               "Acme Traders",
				CreditLimit:        decimal.RequireFromString(tc.limit),
				BalanceCreditLimit: decimal.RequireFromString(tc.balance),
			})

			err := ledger.ReleaseCredit(context.Background(), customer.ID, decimal.RequireFromString(tc.amount))

			require.NoError(t, err)
			assert.True(t, customer.BalanceCreditLimit.Equal(decimal.RequireFromString(tc.want)),
				"balance = %s, want %s", customer.BalanceCreditLimit, tc.want)
		})
	}
}

func TestLedgerReserveStock(t *testing.T) {
	tests := []struct {
		name     string
		onHand   int
		qty      int
		wantKind apperr.Kind
		wantLeft int
	}{
		{name: "reserves within stock", onHand: 10, qty: 4, wantLeft: 6},
		{name: "reserves the last unit", onHand: 1, qty: 1, wantLeft: 0},
		{name: "rejects quantity above stock", onHand: 3, qty: 4, wantKind: apperr.KindInsufficientResource},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger, _, productRepo := newLedgerFixture()
			product := productRepo.add(&model.Product{
				SKU:      "SKU-001",
				Name:     "Steel Rod",
				Price:    decimal.NewFromInt(50),
				Quantity: tc.onHand,
			})

			err := ledger.ReserveStock(context.Background(), product.ID, tc.qty)

			if tc.wantKind != apperr.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, apperr.KindOf(err))
				assert.Equal(t, tc.onHand, product.Quantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLeft, product.Quantity)
		})
	}
}

func TestLedgerReleaseStock(t *testing.T) {
	ledger, _, productRepo := newLedgerFixture()
	product := productRepo.add(&model.Product{
		SKU:      "SKU-001",
		Name:     "Steel Rod",
		Price:    decimal.NewFromInt(50),
		Quantity: 2,
	})

	require.NoError(t, ledger.ReleaseStock(context.Background(), product.ID, 5))
	assert.Equal(t, 7, product.Quantity)
}

func TestLedgerStockUnknownProduct(t *testing.T) {
	ledger, _, _ := newLedgerFixture()

	err := ledger.ReserveStock(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = ledger.ReleaseStock(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
