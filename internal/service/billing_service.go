package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Due-date grace periods by billing type.
const (
	creditCardGrace = 30 * 24 * time.Hour
	immediateGrace  = 24 * time.Hour
)

// --- DTOs ---

type GenerateBillRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	CycleStart string `json:"cycle_start" binding:"required"` // RFC 3339 date
	CycleEnd   string `json:"cycle_end" binding:"required"`
}

type PayBillRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required,oneof=cash cheque"`
}

type BillResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	CycleStart   time.Time `json:"cycle_start"`
	CycleEnd     time.Time `json:"cycle_end"`
	TotalUsed    string    `json:"total_used"`
	AmountDue    string    `json:"amount_due"`
	PaidAmount   string    `json:"paid_amount"`
	DueDate      time.Time `json:"due_date"`
	Status       string    `json:"status"`
	OrderCount   int       `json:"order_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// --- Interface ---

type BillingService interface {
	GenerateBill(ctx context.Context, actor Actor, req GenerateBillRequest) (BillResponse, error)
	Get(ctx context.Context, actor Actor, id string) (BillResponse, error)
	List(ctx context.Context, actor Actor, status string, page, limit int) ([]BillResponse, int64, error)
	PayBill(ctx context.Context, actor Actor, id string, req PayBillRequest) (BillResponse, error)
}

type billingService struct {
	billRepo     repository.BillRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	ledger       LedgerService
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewBillingService(
	billRepo repository.BillRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) BillingService {
	return &billingService{
		billRepo:     billRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
		hub:          hub,
	}
}

func toBillResponse(b *model.Bill) BillResponse {
	res := BillResponse{
		ID:         b.ID.String(),
		CustomerID: b.CustomerID.String(),
		CycleStart: b.CycleStart,
		CycleEnd:   b.CycleEnd,
		TotalUsed:  b.TotalUsed.String(),
		AmountDue:  b.AmountDue.String(),
		PaidAmount: b.PaidAmount.String(),
		DueDate:    b.DueDate,
		Status:     b.Status,
		OrderCount: len(b.Orders),
		CreatedAt:  b.CreatedAt,
	}
	if b.Customer != nil {
		res.CustomerName = b.Customer.Name
	}
	return res
}

// applyPaymentToBill caps the requested amount against the bill's current due,
// applies it, and recomputes the status. Returns the amount actually applied.
// The caller must hold the bill row lock.
func applyPaymentToBill(bill *model.Bill, requested decimal.Decimal) decimal.Decimal {
	actual := requested
	if actual.GreaterThan(bill.AmountDue) {
		actual = bill.AmountDue
	}

	bill.PaidAmount = bill.PaidAmount.Add(actual)
	bill.AmountDue = bill.AmountDue.Sub(actual)
	if bill.AmountDue.IsNegative() {
		bill.AmountDue = decimal.Zero
	}
	if bill.AmountDue.IsZero() {
		bill.Status = model.BillStatusPaid
	} else {
		bill.Status = model.BillStatusPartial
	}
	return actual
}

func (s *billingService) GenerateBill(ctx context.Context, actor Actor, req GenerateBillRequest) (BillResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid customer_id: %v", err)
	}
	cycleStart, err := time.Parse(time.RFC3339, req.CycleStart)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid cycle_start: %v", err)
	}
	cycleEnd, err := time.Parse(time.RFC3339, req.CycleEnd)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid cycle_end: %v", err)
	}
	if !cycleEnd.After(cycleStart) {
		return BillResponse{}, apperr.Validation("cycle_end must be after cycle_start")
	}

	var bill model.Bill
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, findErr := s.customerRepo.FindByID(txCtx, customerID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer %s not found", req.CustomerID)
			}
			return fmt.Errorf("failed to find customer: %w", findErr)
		}

		// The eligible orders are locked here, and marked billed below in the
		// same transaction — a concurrent generator for the same window blocks
		// and then finds nothing left to bill.
		orders, ordersErr := s.orderRepo.FindUnbilledCredit(txCtx, customer.ID, cycleStart, cycleEnd)
		if ordersErr != nil {
			return fmt.Errorf("failed to select unbilled orders: %w", ordersErr)
		}
		if len(orders) == 0 {
			return apperr.InvalidState("no eligible orders for customer in the cycle window")
		}

		totalUsed := decimal.Zero
		orderIDs := make([]uuid.UUID, 0, len(orders))
		for i := range orders {
			// Cancellation released the undelivered remainder's credit, so a
			// cancelled order is billed for its delivered portion only.
			amount := orders[i].TotalAmount
			if orders[i].Status == model.OrderStatusCancelled {
				amount = orders[i].Price.Mul(decimal.NewFromInt(int64(orders[i].DeliveredQuantity)))
			}
			totalUsed = totalUsed.Add(amount)
			orderIDs = append(orderIDs, orders[i].ID)
		}

		grace := immediateGrace
		if customer.BillingType == model.BillingTypeCreditCard {
			grace = creditCardGrace
		}

		bill = model.Bill{
			CustomerID: customer.ID,
			CycleStart: cycleStart,
			CycleEnd:   cycleEnd,
			TotalUsed:  totalUsed,
			AmountDue:  totalUsed,
			PaidAmount: decimal.Zero,
			DueDate:    cycleEnd.Add(grace),
			Status:     model.BillStatusPending,
		}
		if createErr := s.billRepo.Create(txCtx, &bill); createErr != nil {
			return fmt.Errorf("failed to create bill: %w", createErr)
		}
		if markErr := s.orderRepo.MarkBilled(txCtx, orderIDs, bill.ID); markErr != nil {
			return fmt.Errorf("failed to mark orders billed: %w", markErr)
		}

		return s.audit(txCtx, actor, model.ActionGenerateBill, bill.ID.String(), customer.Name, map[string]interface{}{
			"total_used":  totalUsed.String(),
			"order_count": len(orders),
			"due_date":    bill.DueDate,
		})
	})
	if err != nil {
		return BillResponse{}, err
	}

	s.broadcast("bill.generated", map[string]interface{}{"bill_id": bill.ID.String()})

	return s.reload(ctx, bill.ID)
}

// checkOverdue performs the lazy overdue transition: a pending bill read past
// its due date flips to overdue. The conditional status write makes repeated
// reads idempotent.
func (s *billingService) checkOverdue(ctx context.Context, bill *model.Bill) {
	if bill.Status != model.BillStatusPending || !time.Now().After(bill.DueDate) {
		return
	}
	if err := s.billRepo.UpdateStatus(ctx, bill.ID, model.BillStatusPending, model.BillStatusOverdue); err == nil {
		bill.Status = model.BillStatusOverdue
	}
}

func (s *billingService) ownsBill(ctx context.Context, actor Actor, bill *model.Bill) error {
	if actor.Role == model.RoleAdmin || actor.Role == model.RoleDeliveryMan || actor.Role == model.RoleSalesMan {
		return nil
	}
	customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
	if err == nil && customer.ID == bill.CustomerID {
		return nil
	}
	return apperr.Forbidden("bill does not belong to the acting user")
}

func (s *billingService) Get(ctx context.Context, actor Actor, id string) (BillResponse, error) {
	billID, err := uuid.Parse(id)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid bill id: %v", err)
	}
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BillResponse{}, apperr.NotFound("bill %s not found", id)
		}
		return BillResponse{}, fmt.Errorf("failed to find bill: %w", err)
	}
	if ownErr := s.ownsBill(ctx, actor, bill); ownErr != nil {
		return BillResponse{}, ownErr
	}

	s.checkOverdue(ctx, bill)
	return toBillResponse(bill), nil
}

func (s *billingService) List(ctx context.Context, actor Actor, status string, page, limit int) ([]BillResponse, int64, error) {
	filter := repository.BillFilter{Status: status, Page: page, Limit: limit}

	if actor.Role == model.RoleCustomer {
		customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, apperr.NotFound("customer record not found for user")
			}
			return nil, 0, fmt.Errorf("failed to resolve customer: %w", err)
		}
		filter.CustomerID = &customer.ID
	}

	bills, total, err := s.billRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}

	res := make([]BillResponse, 0, len(bills))
	for i := range bills {
		s.checkOverdue(ctx, &bills[i])
		res = append(res, toBillResponse(&bills[i]))
	}
	return res, total, nil
}

// PayBill is the direct payment path bypassing the agent chain. It applies
// the same capping rules as agent acceptance and additionally restores the
// customer's spendable credit by the amount paid.
func (s *billingService) PayBill(ctx context.Context, actor Actor, id string, req PayBillRequest) (BillResponse, error) {
	billID, err := uuid.Parse(id)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid bill id: %v", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return BillResponse{}, apperr.Validation("invalid amount: %v", err)
	}
	if !amount.IsPositive() {
		return BillResponse{}, apperr.InvalidAmount("payment amount must be positive")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		bill, findErr := s.billRepo.FindByIDForUpdate(txCtx, billID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("bill %s not found", id)
			}
			return fmt.Errorf("failed to lock bill: %w", findErr)
		}
		if ownErr := s.ownsBill(txCtx, actor, bill); ownErr != nil {
			return ownErr
		}
		if bill.Status == model.BillStatusPaid {
			return apperr.InvalidState("bill is already paid")
		}

		actual := applyPaymentToBill(bill, amount)
		if saveErr := s.billRepo.Update(txCtx, bill); saveErr != nil {
			return fmt.Errorf("failed to update bill: %w", saveErr)
		}

		// Paying down the bill frees future credit.
		if actual.IsPositive() {
			if relErr := s.ledger.ReleaseCredit(txCtx, bill.CustomerID, actual); relErr != nil {
				return relErr
			}
		}

		return s.audit(txCtx, actor, model.ActionPayBill, bill.ID.String(), "", map[string]interface{}{
			"requested": amount.String(),
			"applied":   actual.String(),
			"method":    req.Method,
			"status":    bill.Status,
		})
	})
	if err != nil {
		return BillResponse{}, err
	}

	res, err := s.reload(ctx, billID)
	if err == nil && res.Status == model.BillStatusPaid {
		s.broadcast("bill.settled", map[string]interface{}{"bill_id": res.ID})
	}
	return res, err
}

func (s *billingService) reload(ctx context.Context, id uuid.UUID) (BillResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		return BillResponse{}, fmt.Errorf("failed to reload bill: %w", err)
	}
	return toBillResponse(bill), nil
}

func (s *billingService) audit(ctx context.Context, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	uid := actor.UserID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *billingService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"event": event, "data": data})
	s.hub.Broadcast <- payload
}
