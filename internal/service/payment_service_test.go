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

type paymentFixture struct {
	svc       service.PaymentService
	payments  *fakePaymentRepo
	bills     *fakeBillRepo
	customers *fakeCustomerRepo
	users     *fakeUserRepo
	audit     *fakeAuditRepo

	customer *model.Customer
	agent    *model.User
	bill     *model.Bill

	buyer      service.Actor
	agentActor service.Actor
	admin      service.Actor
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments:  newFakePaymentRepo(),
		bills:     newFakeBillRepo(),
		customers: newFakeCustomerRepo(),
		users:     newFakeUserRepo(),
		audit:     &fakeAuditRepo{},
	}

	buyerUser := f.users.add(&model.User{Username: "buyer", Role: model.RoleCustomer})
	f.customer = f.customers.add(&model.Customer{
		UserID:             buyerUser.ID,
		Name:               "Acme Traders",
		CreditLimit:        decimal.NewFromInt(2000),
		BalanceCreditLimit: decimal.NewFromInt(1000),
	})
	f.agent = f.users.add(&model.User{Username: "runner", Role: model.RoleDeliveryMan})
	adminUser := f.users.add(&model.User{Username: "boss", Role: model.RoleAdmin})

	f.bill = f.bills.add(&model.Bill{
		CustomerID: f.customer.ID,
		TotalUsed:  decimal.NewFromInt(500),
		AmountDue:  decimal.NewFromInt(500),
		PaidAmount: decimal.Zero,
		DueDate:    time.Now().Add(24 * time.Hour),
		Status:     model.BillStatusPending,
	})

	f.buyer = service.Actor{UserID: buyerUser.ID, Role: model.RoleCustomer}
	f.agentActor = service.Actor{UserID: f.agent.ID, Role: model.RoleDeliveryMan}
	f.admin = service.Actor{UserID: adminUser.ID, Role: model.RoleAdmin}

	f.svc = service.NewPaymentService(f.payments, f.bills, f.customers, f.users, f.audit, fakeTxManager{}, nil)
	return f
}

func (f *paymentFixture) createRequest(t *testing.T, amount string) service.PaymentRequestResponse {
	t.Helper()
	res, err := f.svc.CreateRequest(context.Background(), f.buyer, service.CreatePaymentRequestDTO{
		BillID:        f.bill.ID.String(),
		RecipientID:   f.agent.ID.String(),
		RecipientType: model.RecipientTypeDelivery,
		Amount:        amount,
		Method:        model.PaymentMethodCash,
	})
	require.NoError(t, err)
	return res
}

func TestCreatePaymentRequest(t *testing.T) {
	t.Run("creates and parks the bill in pending_payment", func(t *testing.T) {
		f := newPaymentFixture()

		res := f.createRequest(t, "300")

		assert.Equal(t, model.PaymentRequestPending, res.Status)
		assert.Equal(t, "300", res.Amount)
		assert.Equal(t, model.BillStatusPendingPayment, f.bill.Status)
	})

	t.Run("amount above the due is rejected", func(t *testing.T) {
		f := newPaymentFixture()

		_, err := f.svc.CreateRequest(context.Background(), f.buyer, service.CreatePaymentRequestDTO{
			BillID:        f.bill.ID.String(),
			RecipientID:   f.agent.ID.String(),
			RecipientType: model.RecipientTypeDelivery,
			Amount:        "500.01",
			Method:        model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	})

	t.Run("recipient role must match recipient type", func(t *testing.T) {
		f := newPaymentFixture()

		_, err := f.svc.CreateRequest(context.Background(), f.buyer, service.CreatePaymentRequestDTO{
			BillID:        f.bill.ID.String(),
			RecipientID:   f.agent.ID.String(), // delivery_man
			RecipientType: model.RecipientTypeSales,
			Amount:        "100",
			Method:        model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("stranger's bill is off limits", func(t *testing.T) {
		f := newPaymentFixture()
		otherUser := f.users.add(&model.User{Username: "other", Role: model.RoleCustomer})
		f.customers.add(&model.Customer{
			UserID:             otherUser.ID,
			Name:               "Other Co",
			CreditLimit:        decimal.NewFromInt(100),
			BalanceCreditLimit: decimal.NewFromInt(100),
		})

		_, err := f.svc.CreateRequest(context.Background(), service.Actor{UserID: otherUser.ID, Role: model.RoleCustomer},
			service.CreatePaymentRequestDTO{
				BillID:        f.bill.ID.String(),
				RecipientID:   f.agent.ID.String(),
				RecipientType: model.RecipientTypeDelivery,
				Amount:        "100",
				Method:        model.PaymentMethodCash,
			})

		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("paid bill accepts no further requests", func(t *testing.T) {
		f := newPaymentFixture()
		f.bill.AmountDue = decimal.Zero
		f.bill.Status = model.BillStatusPaid

		_, err := f.svc.CreateRequest(context.Background(), f.buyer, service.CreatePaymentRequestDTO{
			BillID:        f.bill.ID.String(),
			RecipientID:   f.agent.ID.String(),
			RecipientType: model.RecipientTypeDelivery,
			Amount:        "100",
			Method:        model.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})
}

func TestAcceptPaymentRequest(t *testing.T) {
	t.Run("applies the amount and hands the agent the funds", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "300")

		billTx, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)

		require.NoError(t, err)
		assert.Equal(t, model.BillTxReceived, billTx.Status)
		assert.Equal(t, "300", billTx.Amount)
		assert.Equal(t, f.agent.ID.String(), billTx.HolderID)

		assert.True(t, f.bill.AmountDue.Equal(decimal.NewFromInt(200)))
		assert.True(t, f.bill.PaidAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, model.BillStatusPartial, f.bill.Status)

		stored, findErr := f.payments.FindRequestByID(context.Background(), uuid.MustParse(req.ID))
		require.NoError(t, findErr)
		assert.Equal(t, model.PaymentRequestAccepted, stored.Status)
	})

	t.Run("full amount settles the bill", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "500")

		_, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)

		require.NoError(t, err)
		assert.Equal(t, model.BillStatusPaid, f.bill.Status)
		assert.True(t, f.bill.AmountDue.IsZero())
	})

	t.Run("stale request is capped against the shrunken due", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "300")

		// The due drops to 100 before the agent gets around to accepting.
		f.bill.AmountDue = decimal.NewFromInt(100)
		f.bill.PaidAmount = decimal.NewFromInt(400)

		billTx, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)

		require.NoError(t, err)
		assert.Equal(t, "100", billTx.Amount)
		assert.True(t, f.bill.AmountDue.IsZero())
		assert.True(t, f.bill.PaidAmount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, model.BillStatusPaid, f.bill.Status)
	})

	t.Run("zero applicable amount still records a transaction", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "300")

		f.bill.AmountDue = decimal.Zero
		f.bill.PaidAmount = decimal.NewFromInt(500)

		billTx, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)

		require.NoError(t, err)
		assert.Equal(t, "0", billTx.Amount)
		assert.Equal(t, model.BillTxReceived, billTx.Status)
	})

	t.Run("only the addressed recipient may accept", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "300")
		other := service.Actor{UserID: uuid.New(), Role: model.RoleDeliveryMan}

		_, err := f.svc.AcceptRequest(context.Background(), other, req.ID)

		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("accepted request cannot be accepted twice", func(t *testing.T) {
		f := newPaymentFixture()
		req := f.createRequest(t, "100")

		_, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)
		require.NoError(t, err)

		_, err = f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})
}

func TestRejectPaymentRequest(t *testing.T) {
	f := newPaymentFixture()
	req := f.createRequest(t, "300")
	require.Equal(t, model.BillStatusPendingPayment, f.bill.Status)

	res, err := f.svc.RejectRequest(context.Background(), f.agentActor, req.ID)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentRequestRejected, res.Status)
	// The bill reverts and no amounts move.
	assert.Equal(t, model.BillStatusPending, f.bill.Status)
	assert.True(t, f.bill.AmountDue.Equal(decimal.NewFromInt(500)))
	assert.True(t, f.bill.PaidAmount.IsZero())

	// Terminal: cannot be rejected again.
	_, err = f.svc.RejectRequest(context.Background(), f.agentActor, req.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestPayToAdmin(t *testing.T) {
	acceptedTx := func(t *testing.T, f *paymentFixture) service.BillTransactionResponse {
		t.Helper()
		req := f.createRequest(t, "300")
		billTx, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)
		require.NoError(t, err)
		return billTx
	}

	t.Run("forwards held funds to the admin", func(t *testing.T) {
		f := newPaymentFixture()
		billTx := acceptedTx(t, f)

		adminReq, err := f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)

		require.NoError(t, err)
		assert.Equal(t, model.AdminRequestPending, adminReq.Status)
		assert.Equal(t, "300", adminReq.Amount)
		assert.Equal(t, f.agent.ID.String(), adminReq.RequestedBy)

		stored, findErr := f.payments.FindTransactionByID(context.Background(), uuid.MustParse(billTx.ID))
		require.NoError(t, findErr)
		assert.Equal(t, model.BillTxPending, stored.Status)
	})

	t.Run("only the holder may forward", func(t *testing.T) {
		f := newPaymentFixture()
		billTx := acceptedTx(t, f)
		other := service.Actor{UserID: uuid.New(), Role: model.RoleDeliveryMan}

		_, err := f.svc.PayToAdmin(context.Background(), other, billTx.ID)

		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("forwarded transaction cannot be forwarded again", func(t *testing.T) {
		f := newPaymentFixture()
		billTx := acceptedTx(t, f)

		_, err := f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.NoError(t, err)

		_, err = f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("at most one open admin request per transaction", func(t *testing.T) {
		f := newPaymentFixture()
		billTx := acceptedTx(t, f)

		_, err := f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.NoError(t, err)

		// Even with the transaction back in received, the still-open admin
		// request blocks a second forward.
		stored, findErr := f.payments.FindTransactionByID(context.Background(), uuid.MustParse(billTx.ID))
		require.NoError(t, findErr)
		stored.Status = model.BillTxReceived

		_, err = f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})
}

func TestAdminDecision(t *testing.T) {
	forwarded := func(t *testing.T, f *paymentFixture) (service.BillTransactionResponse, service.BillAdminRequestResponse) {
		t.Helper()
		req := f.createRequest(t, "300")
		billTx, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)
		require.NoError(t, err)
		adminReq, err := f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.NoError(t, err)
		return billTx, adminReq
	}

	t.Run("accept finalizes both machines", func(t *testing.T) {
		f := newPaymentFixture()
		billTx, adminReq := forwarded(t, f)

		res, err := f.svc.AdminAccept(context.Background(), f.admin, adminReq.ID)

		require.NoError(t, err)
		assert.Equal(t, model.AdminRequestAccepted, res.Status)
		require.NotNil(t, res.DecidedBy)
		assert.Equal(t, f.admin.UserID.String(), *res.DecidedBy)
		assert.NotNil(t, res.DecidedAt)

		stored, findErr := f.payments.FindTransactionByID(context.Background(), uuid.MustParse(billTx.ID))
		require.NoError(t, findErr)
		assert.Equal(t, model.BillTxPaidToAdmin, stored.Status)
	})

	t.Run("reject returns the transaction to the agent", func(t *testing.T) {
		f := newPaymentFixture()
		billTx, adminReq := forwarded(t, f)

		res, err := f.svc.AdminReject(context.Background(), f.admin, adminReq.ID)

		require.NoError(t, err)
		assert.Equal(t, model.AdminRequestRejected, res.Status)

		stored, findErr := f.payments.FindTransactionByID(context.Background(), uuid.MustParse(billTx.ID))
		require.NoError(t, findErr)
		assert.Equal(t, model.BillTxReceived, stored.Status)

		// The agent may forward again after a rejection.
		again, err := f.svc.PayToAdmin(context.Background(), f.agentActor, billTx.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AdminRequestPending, again.Status)
	})

	t.Run("decided request cannot be decided again", func(t *testing.T) {
		f := newPaymentFixture()
		_, adminReq := forwarded(t, f)

		_, err := f.svc.AdminAccept(context.Background(), f.admin, adminReq.ID)
		require.NoError(t, err)

		_, err = f.svc.AdminReject(context.Background(), f.admin, adminReq.ID)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})
}

func TestListPaymentScopes(t *testing.T) {
	f := newPaymentFixture()
	req := f.createRequest(t, "300")
	_, err := f.svc.AcceptRequest(context.Background(), f.agentActor, req.ID)
	require.NoError(t, err)

	t.Run("customer sees their requests", func(t *testing.T) {
		res, total, err := f.svc.ListRequests(context.Background(), f.buyer, "", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, res, 1)
		assert.Equal(t, f.customer.ID.String(), res[0].CustomerID)
	})

	t.Run("agent sees held transactions", func(t *testing.T) {
		res, total, err := f.svc.ListTransactions(context.Background(), f.agentActor, "", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, res, 1)
		assert.Equal(t, f.agent.ID.String(), res[0].HolderID)
	})

	t.Run("other agents see nothing", func(t *testing.T) {
		other := service.Actor{UserID: uuid.New(), Role: model.RoleDeliveryMan}
		_, total, err := f.svc.ListTransactions(context.Background(), other, "", 1, 20)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("status filter narrows admin requests", func(t *testing.T) {
		_, total, err := f.svc.ListAdminRequests(context.Background(), model.AdminRequestPending, 1, 20)
		require.NoError(t, err)
		assert.Zero(t, total) // nothing forwarded yet
	})
}
