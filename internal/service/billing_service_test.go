package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type billingFixture struct {
	svc       service.BillingService
	bills     *fakeBillRepo
	orders    *fakeOrderRepo
	customers *fakeCustomerRepo
	audit     *fakeAuditRepo

	customer *model.Customer
	admin    service.Actor
	buyer    service.Actor
}

func newBillingFixture() *billingFixture {
	f := &billingFixture{
		bills:     newFakeBillRepo(),
		orders:    newFakeOrderRepo(),
		customers: newFakeCustomerRepo(),
		audit:     &fakeAuditRepo{},
	}

	buyerUserID := uuid.New()
	f.customer = f.customers.add(&model.Customer{
		UserID:             buyerUserID,
		Name:               "Acme Traders",
		CreditLimit:        decimal.NewFromInt(2000),
		BalanceCreditLimit: decimal.NewFromInt(1000),
		BillingType:        model.BillingTypeImmediate,
	})
	f.admin = service.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	f.buyer = service.Actor{UserID: buyerUserID, Role: model.RoleCustomer}

	products := newFakeProductRepo()
	ledger := service.NewLedgerService(f.customers, products)
	f.svc = service.NewBillingService(f.bills, f.orders, f.customers, f.audit, ledger, fakeTxManager{}, nil)
	return f
}

func (f *billingFixture) seedCreditOrder(total int64, orderDate time.Time, mutate func(*model.Order)) *model.Order {
	order := &model.Order{
		CustomerID:      f.customer.ID,
		ProductID:       uuid.New(),
		OrderedQuantity: 1,
		Price:           decimal.NewFromInt(total),
		TotalAmount:     decimal.NewFromInt(total),
		Payment:         model.PaymentTypeCredit,
		Status:          model.OrderStatusPending,
		OrderDate:       orderDate,
	}
	if mutate != nil {
		mutate(order)
	}
	return f.orders.add(order)
}

func cycleWindow() (time.Time, time.Time) {
	end := time.Now().Truncate(time.Hour)
	return end.AddDate(0, -1, 0), end
}

func TestGenerateBill(t *testing.T) {
	t.Run("aggregates unbilled credit orders in the window", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()
		inWindow := start.Add(24 * time.Hour)

		a := f.seedCreditOrder(500, inWindow, nil)
		b := f.seedCreditOrder(500, inWindow, nil)
		f.seedCreditOrder(300, inWindow, func(o *model.Order) { o.Payment = model.PaymentTypeCash })
		f.seedCreditOrder(300, start.Add(-24*time.Hour), nil) // outside the window

		res, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		})

		require.NoError(t, err)
		assert.Equal(t, "1000", res.TotalUsed)
		assert.Equal(t, "1000", res.AmountDue)
		assert.Equal(t, "0", res.PaidAmount)
		assert.Equal(t, model.BillStatusPending, res.Status)

		billID, parseErr := uuid.Parse(res.ID)
		require.NoError(t, parseErr)
		require.NotNil(t, a.BillID)
		require.NotNil(t, b.BillID)
		assert.Equal(t, billID, *a.BillID)
		assert.Equal(t, billID, *b.BillID)
	})

	t.Run("cancelled orders are not billed", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()
		inWindow := start.Add(24 * time.Hour)

		f.seedCreditOrder(500, inWindow, func(o *model.Order) { o.Status = model.OrderStatusCancelled })

		_, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

		kept := f.seedCreditOrder(500, inWindow, nil)
		cancelled := f.seedCreditOrder(300, inWindow, func(o *model.Order) { o.Status = model.OrderStatusCancelled })

		res, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		})

		require.NoError(t, err)
		assert.Equal(t, "500", res.TotalUsed)
		assert.NotNil(t, kept.BillID)
		assert.Nil(t, cancelled.BillID)
	})

	t.Run("cancelled order is billed for its delivered portion", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()

		// 5 units at 100, two delivered before the cancellation. Only the two
		// delivered units still hold credit, so only they are owed.
		order := f.seedCreditOrder(500, start.Add(24*time.Hour), func(o *model.Order) {
			o.OrderedQuantity = 5
			o.DeliveredQuantity = 2
			o.Price = decimal.NewFromInt(100)
			o.Status = model.OrderStatusCancelled
		})

		res, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		})

		require.NoError(t, err)
		assert.Equal(t, "200", res.TotalUsed)
		assert.Equal(t, "200", res.AmountDue)
		require.NotNil(t, order.BillID)
	})

	t.Run("no eligible orders is an error", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()

		_, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("second run over the same window finds nothing", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()
		f.seedCreditOrder(500, start.Add(24*time.Hour), nil)

		req := service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: start.Format(time.RFC3339),
			CycleEnd:   end.Format(time.RFC3339),
		}

		_, err := f.svc.GenerateBill(context.Background(), f.admin, req)
		require.NoError(t, err)

		_, err = f.svc.GenerateBill(context.Background(), f.admin, req)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("due date follows the billing type", func(t *testing.T) {
		tests := []struct {
			name        string
			billingType string
			wantGrace   time.Duration
		}{
			{name: "immediate gets one day", billingType: model.BillingTypeImmediate, wantGrace: 24 * time.Hour},
			{name: "creditcard gets thirty days", billingType: model.BillingTypeCreditCard, wantGrace: 30 * 24 * time.Hour},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				f := newBillingFixture()
				f.customer.BillingType = tc.billingType
				start, end := cycleWindow()
				f.seedCreditOrder(500, start.Add(24*time.Hour), nil)

				res, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
					CustomerID: f.customer.ID.String(),
					CycleStart: start.Format(time.RFC3339),
					CycleEnd:   end.Format(time.RFC3339),
				})

				require.NoError(t, err)
				assert.True(t, res.DueDate.Equal(end.Add(tc.wantGrace)),
					"due date = %s, want %s", res.DueDate, end.Add(tc.wantGrace))
			})
		}
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		f := newBillingFixture()
		start, end := cycleWindow()

		_, err := f.svc.GenerateBill(context.Background(), f.admin, service.GenerateBillRequest{
			CustomerID: f.customer.ID.String(),
			CycleStart: end.Format(time.RFC3339),
			CycleEnd:   start.Format(time.RFC3339),
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestPayBill(t *testing.T) {
	seedBill := func(f *billingFixture, due int64) *model.Bill {
		return f.bills.add(&model.Bill{
			CustomerID: f.customer.ID,
			CycleStart: time.Now().AddDate(0, -1, 0),
			CycleEnd:   time.Now(),
			TotalUsed:  decimal.NewFromInt(due),
			AmountDue:  decimal.NewFromInt(due),
			PaidAmount: decimal.Zero,
			DueDate:    time.Now().Add(24 * time.Hour),
			Status:     model.BillStatusPending,
		})
	}

	t.Run("partial payment", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedBill(f, 500)

		res, err := f.svc.PayBill(context.Background(), f.buyer, bill.ID.String(), service.PayBillRequest{
			Amount: "200",
			Method: model.PaymentMethodCash,
		})

		require.NoError(t, err)
		assert.Equal(t, model.BillStatusPartial, res.Status)
		assert.Equal(t, "300", res.AmountDue)
		assert.Equal(t, "200", res.PaidAmount)
		// Paying down the bill frees spendable credit.
		assert.True(t, f.customer.BalanceCreditLimit.Equal(decimal.NewFromInt(1200)),
			"balance = %s", f.customer.BalanceCreditLimit)
	})

	t.Run("overpayment is capped at the amount due", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedBill(f, 500)
		bill.AmountDue = decimal.NewFromInt(200)
		bill.PaidAmount = decimal.NewFromInt(300)
		bill.Status = model.BillStatusPartial

		res, err := f.svc.PayBill(context.Background(), f.buyer, bill.ID.String(), service.PayBillRequest{
			Amount: "400",
			Method: model.PaymentMethodCash,
		})

		require.NoError(t, err)
		assert.Equal(t, model.BillStatusPaid, res.Status)
		assert.Equal(t, "0", res.AmountDue)
		assert.Equal(t, "500", res.PaidAmount)
		// Only the applied 200 comes back as credit.
		assert.True(t, f.customer.BalanceCreditLimit.Equal(decimal.NewFromInt(1200)),
			"balance = %s", f.customer.BalanceCreditLimit)
	})

	t.Run("paid bill rejects further payment", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedBill(f, 500)
		bill.AmountDue = decimal.Zero
		bill.PaidAmount = decimal.NewFromInt(500)
		bill.Status = model.BillStatusPaid

		_, err := f.svc.PayBill(context.Background(), f.buyer, bill.ID.String(), service.PayBillRequest{
			Amount: "100",
			Method: model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedBill(f, 500)

		_, err := f.svc.PayBill(context.Background(), f.buyer, bill.ID.String(), service.PayBillRequest{
			Amount: "-50",
			Method: model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	})

	t.Run("stranger cannot pay another customer's bill", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedBill(f, 500)
		stranger := service.Actor{UserID: uuid.New(), Role: model.RoleCustomer}

		_, err := f.svc.PayBill(context.Background(), stranger, bill.ID.String(), service.PayBillRequest{
			Amount: "100",
			Method: model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})
}

func TestBillOverdueTransition(t *testing.T) {
	seedOverdueBill := func(f *billingFixture, status string) *model.Bill {
		return f.bills.add(&model.Bill{
			CustomerID: f.customer.ID,
			CycleStart: time.Now().AddDate(0, -2, 0),
			CycleEnd:   time.Now().AddDate(0, -1, 0),
			TotalUsed:  decimal.NewFromInt(500),
			AmountDue:  decimal.NewFromInt(500),
			PaidAmount: decimal.Zero,
			DueDate:    time.Now().Add(-time.Hour),
			Status:     status,
		})
	}

	t.Run("pending bill past due flips on read", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedOverdueBill(f, model.BillStatusPending)

		res, err := f.svc.Get(context.Background(), f.admin, bill.ID.String())

		require.NoError(t, err)
		assert.Equal(t, model.BillStatusOverdue, res.Status)
		assert.Equal(t, model.BillStatusOverdue, bill.Status)
	})

	t.Run("repeated reads stay overdue", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedOverdueBill(f, model.BillStatusPending)

		for i := 0; i < 3; i++ {
			res, err := f.svc.Get(context.Background(), f.admin, bill.ID.String())
			require.NoError(t, err)
			assert.Equal(t, model.BillStatusOverdue, res.Status)
		}
	})

	t.Run("partial bill past due is left alone", func(t *testing.T) {
		f := newBillingFixture()
		bill := seedOverdueBill(f, model.BillStatusPartial)

		res, err := f.svc.Get(context.Background(), f.admin, bill.ID.String())

		require.NoError(t, err)
		assert.Equal(t, model.BillStatusPartial, res.Status)
	})
}

func TestBillList(t *testing.T) {
	f := newBillingFixture()
	f.bills.add(&model.Bill{
		CustomerID: f.customer.ID,
		TotalUsed:  decimal.NewFromInt(100),
		AmountDue:  decimal.NewFromInt(100),
		DueDate:    time.Now().Add(24 * time.Hour),
		Status:     model.BillStatusPending,
	})
	f.bills.add(&model.Bill{
		CustomerID: uuid.New(),
		TotalUsed:  decimal.NewFromInt(300),
		AmountDue:  decimal.NewFromInt(300),
		DueDate:    time.Now().Add(24 * time.Hour),
		Status:     model.BillStatusPending,
	})

	t.Run("customer sees only their own bills", func(t *testing.T) {
		res, total, err := f.svc.List(context.Background(), f.buyer, "", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, res, 1)
		assert.Equal(t, f.customer.ID.String(), res[0].CustomerID)
	})

	t.Run("admin sees all bills", func(t *testing.T) {
		_, total, err := f.svc.List(context.Background(), f.admin, "", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})
}
