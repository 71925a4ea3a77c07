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

// --- DTOs ---

type CreatePaymentRequestDTO struct {
	BillID        string `json:"bill_id" binding:"required"`
	RecipientID   string `json:"recipient_id" binding:"required"`
	RecipientType string `json:"recipient_type" binding:"required,oneof=delivery sales"`
	Amount        string `json:"amount" binding:"required"`
	Method        string `json:"method" binding:"required,oneof=cash cheque"`
}

type PaymentRequestResponse struct {
	ID            string    `json:"id"`
	BillID        string    `json:"bill_id"`
	CustomerID    string    `json:"customer_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientType string    `json:"recipient_type"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type BillTransactionResponse struct {
	ID               string    `json:"id"`
	PaymentRequestID string    `json:"payment_request_id"`
	BillID           string    `json:"bill_id"`
	HolderID         string    `json:"holder_id"`
	Amount           string    `json:"amount"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type BillAdminRequestResponse struct {
	ID                string     `json:"id"`
	BillTransactionID string     `json:"bill_transaction_id"`
	RequestedBy       string     `json:"requested_by"`
	RequesterName     string     `json:"requester_name,omitempty"`
	Amount            string     `json:"amount"`
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	DecidedBy         *string    `json:"decided_by"`
	DecidedAt         *time.Time `json:"decided_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// --- Interface ---

// PaymentService drives the settlement pipeline: a customer's payment moves
// through a field agent to the administrator as three cooperating state
// machines (PaymentRequest, BillTransaction, BillAdminRequest), mutating the
// bill's amount due along the way.
type PaymentService interface {
	CreateRequest(ctx context.Context, actor Actor, req CreatePaymentRequestDTO) (PaymentRequestResponse, error)
	AcceptRequest(ctx context.Context, actor Actor, id string) (BillTransactionResponse, error)
	RejectRequest(ctx context.Context, actor Actor, id string) (PaymentRequestResponse, error)
	ListRequests(ctx context.Context, actor Actor, status string, page, limit int) ([]PaymentRequestResponse, int64, error)

	PayToAdmin(ctx context.Context, actor Actor, billTxID string) (BillAdminRequestResponse, error)
	ListTransactions(ctx context.Context, actor Actor, status string, page, limit int) ([]BillTransactionResponse, int64, error)

	AdminAccept(ctx context.Context, actor Actor, adminReqID string) (BillAdminRequestResponse, error)
	AdminReject(ctx context.Context, actor Actor, adminReqID string) (BillAdminRequestResponse, error)
	ListAdminRequests(ctx context.Context, status string, page, limit int) ([]BillAdminRequestResponse, int64, error)
}

type paymentService struct {
	paymentRepo  repository.PaymentRepository
	billRepo     repository.BillRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	billRepo repository.BillRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PaymentService {
	return &paymentService{
		paymentRepo:  paymentRepo,
		billRepo:     billRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toPaymentRequestResponse(r *model.PaymentRequest) PaymentRequestResponse {
	return PaymentRequestResponse{
		ID:            r.ID.String(),
		BillID:        r.BillID.String(),
		CustomerID:    r.CustomerID.String(),
		RecipientID:   r.RecipientID.String(),
		RecipientType: r.RecipientType,
		Amount:        r.Amount.String(),
		Method:        r.Method,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
}

func toBillTransactionResponse(t *model.BillTransaction) BillTransactionResponse {
	return BillTransactionResponse{
		ID:               t.ID.String(),
		PaymentRequestID: t.PaymentRequestID.String(),
		BillID:           t.BillID.String(),
		HolderID:         t.HolderID.String(),
		Amount:           t.Amount.String(),
		Method:           t.Method,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
	}
}

func toAdminRequestResponse(r *model.BillAdminRequest) BillAdminRequestResponse {
	res := BillAdminRequestResponse{
		ID:                r.ID.String(),
		BillTransactionID: r.BillTransactionID.String(),
		RequestedBy:       r.RequestedBy.String(),
		Amount:            r.Amount.String(),
		Method:            r.Method,
		Status:            r.Status,
		DecidedAt:         r.DecidedAt,
		CreatedAt:         r.CreatedAt,
	}
	if r.Requester != nil {
		res.RequesterName = r.Requester.Username
	}
	if r.DecidedBy != nil {
		s := r.DecidedBy.String()
		res.DecidedBy = &s
	}
	return res
}

// roleForRecipientType maps a recipient type onto the role the recipient must
// carry.
func roleForRecipientType(recipientType string) string {
	if recipientType == model.RecipientTypeSales {
		return model.RoleSalesMan
	}
	return model.RoleDeliveryMan
}

func (s *paymentService) CreateRequest(ctx context.Context, actor Actor, req CreatePaymentRequestDTO) (PaymentRequestResponse, error) {
	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		return PaymentRequestResponse{}, apperr.Validation("invalid bill_id: %v", err)
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return PaymentRequestResponse{}, apperr.Validation("invalid recipient_id: %v", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return PaymentRequestResponse{}, apperr.Validation("invalid amount: %v", err)
	}
	if !amount.IsPositive() {
		return PaymentRequestResponse{}, apperr.InvalidAmount("payment amount must be positive")
	}

	var request model.PaymentRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, custErr := s.customerRepo.FindByUserID(txCtx, actor.UserID)
		if custErr != nil {
			if errors.Is(custErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer record not found for user")
			}
			return fmt.Errorf("failed to resolve customer: %w", custErr)
		}

		bill, billErr := s.billRepo.FindByIDForUpdate(txCtx, billID)
		if billErr != nil {
			if errors.Is(billErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("bill %s not found", req.BillID)
			}
			return fmt.Errorf("failed to lock bill: %w", billErr)
		}
		if bill.CustomerID != customer.ID {
			return apperr.Forbidden("bill does not belong to the acting customer")
		}
		if bill.Status == model.BillStatusPaid {
			return apperr.InvalidState("bill is already paid")
		}
		if amount.GreaterThan(bill.AmountDue) {
			return apperr.InvalidAmount("amount %s exceeds amount due %s", amount.String(), bill.AmountDue.String())
		}

		recipient, recErr := s.userRepo.FindByID(txCtx, recipientID)
		if recErr != nil {
			if errors.Is(recErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("recipient %s not found", req.RecipientID)
			}
			return fmt.Errorf("failed to find recipient: %w", recErr)
		}
		if recipient.Role != roleForRecipientType(req.RecipientType) {
			return apperr.Validation("recipient role %s does not match recipient_type %s", recipient.Role, req.RecipientType)
		}

		request = model.PaymentRequest{
			BillID:        bill.ID,
			CustomerID:    customer.ID,
			RecipientID:   recipient.ID,
			RecipientType: req.RecipientType,
			Amount:        amount,
			Method:        req.Method,
			Status:        model.PaymentRequestPending,
		}
		if createErr := s.paymentRepo.CreateRequest(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create payment request: %w", createErr)
		}

		bill.Status = model.BillStatusPendingPayment
		if saveErr := s.billRepo.Update(txCtx, bill); saveErr != nil {
			return fmt.Errorf("failed to update bill: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionCreatePaymentRequest, request.ID.String(), "", map[string]interface{}{
			"bill_id":   bill.ID.String(),
			"amount":    amount.String(),
			"recipient": recipient.ID.String(),
		})
	})
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	return toPaymentRequestResponse(&request), nil
}

// AcceptRequest is step 2 of the pipeline. The applied amount is capped
// against the bill's current due so a stale request cannot over-apply, and a
// BillTransaction is created even when the cap reduces it to zero so the
// audit chain stays complete.
func (s *paymentService) AcceptRequest(ctx context.Context, actor Actor, id string) (BillTransactionResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return BillTransactionResponse{}, apperr.Validation("invalid payment request id: %v", err)
	}

	var billTx model.BillTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.paymentRepo.FindRequestByIDForUpdate(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("payment request %s not found", id)
			}
			return fmt.Errorf("failed to lock payment request: %w", findErr)
		}
		if request.RecipientID != actor.UserID {
			return apperr.Forbidden("payment request is not addressed to the acting user")
		}
		if request.Status != model.PaymentRequestPending {
			return apperr.InvalidState("payment request is %s; only pending requests can be accepted", request.Status)
		}

		bill, billErr := s.billRepo.FindByIDForUpdate(txCtx, request.BillID)
		if billErr != nil {
			return fmt.Errorf("failed to lock bill: %w", billErr)
		}

		actual := applyPaymentToBill(bill, request.Amount)
		if saveErr := s.billRepo.Update(txCtx, bill); saveErr != nil {
			return fmt.Errorf("failed to update bill: %w", saveErr)
		}

		billTx = model.BillTransaction{
			PaymentRequestID: request.ID,
			BillID:           bill.ID,
			HolderID:         request.RecipientID,
			Amount:           actual,
			Method:           request.Method,
			Status:           model.BillTxReceived,
		}
		if createErr := s.paymentRepo.CreateTransaction(txCtx, &billTx); createErr != nil {
			return fmt.Errorf("failed to create bill transaction: %w", createErr)
		}

		request.Status = model.PaymentRequestAccepted
		if saveErr := s.paymentRepo.UpdateRequest(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update payment request: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionAcceptPaymentRequest, request.ID.String(), "", map[string]interface{}{
			"requested": request.Amount.String(),
			"applied":   actual.String(),
			"bill_id":   bill.ID.String(),
			"status":    bill.Status,
		})
	})
	if err != nil {
		return BillTransactionResponse{}, err
	}

	s.broadcast("payment_request.accepted", map[string]interface{}{
		"payment_request_id":  requestID.String(),
		"bill_transaction_id": billTx.ID.String(),
	})

	return toBillTransactionResponse(&billTx), nil
}

func (s *paymentService) RejectRequest(ctx context.Context, actor Actor, id string) (PaymentRequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return PaymentRequestResponse{}, apperr.Validation("invalid payment request id: %v", err)
	}

	var request *model.PaymentRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		request, findErr = s.paymentRepo.FindRequestByIDForUpdate(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("payment request %s not found", id)
			}
			return fmt.Errorf("failed to lock payment request: %w", findErr)
		}
		if request.RecipientID != actor.UserID {
			return apperr.Forbidden("payment request is not addressed to the acting user")
		}
		if request.Status != model.PaymentRequestPending {
			return apperr.InvalidState("payment request is %s; only pending requests can be rejected", request.Status)
		}

		// No amount changes on rejection; the bill just leaves pending_payment.
		if updErr := s.billRepo.UpdateStatus(txCtx, request.BillID, model.BillStatusPendingPayment, model.BillStatusPending); updErr != nil {
			return fmt.Errorf("failed to revert bill status: %w", updErr)
		}

		request.Status = model.PaymentRequestRejected
		if saveErr := s.paymentRepo.UpdateRequest(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update payment request: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionRejectPaymentRequest, request.ID.String(), "", map[string]interface{}{
			"bill_id": request.BillID.String(),
		})
	})
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	return toPaymentRequestResponse(request), nil
}

func (s *paymentService) ListRequests(ctx context.Context, actor Actor, status string, page, limit int) ([]PaymentRequestResponse, int64, error) {
	filter := repository.PaymentFilter{Status: status, Page: page, Limit: limit}

	switch actor.Role {
	case model.RoleCustomer:
		customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, apperr.NotFound("customer record not found for user")
			}
			return nil, 0, fmt.Errorf("failed to resolve customer: %w", err)
		}
		filter.CustomerID = &customer.ID
	case model.RoleDeliveryMan, model.RoleSalesMan:
		uid := actor.UserID
		filter.RecipientID = &uid
	}

	requests, total, err := s.paymentRepo.ListRequests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment requests: %w", err)
	}

	res := make([]PaymentRequestResponse, 0, len(requests))
	for i := range requests {
		res = append(res, toPaymentRequestResponse(&requests[i]))
	}
	return res, total, nil
}

// PayToAdmin is step 4: the agent forwards a held transaction to the
// administrator. The transaction must be in received; forwarding parks it in
// pending until the admin decides.
func (s *paymentService) PayToAdmin(ctx context.Context, actor Actor, billTxID string) (BillAdminRequestResponse, error) {
	txID, err := uuid.Parse(billTxID)
	if err != nil {
		return BillAdminRequestResponse{}, apperr.Validation("invalid bill transaction id: %v", err)
	}

	var adminReq model.BillAdminRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		billTx, findErr := s.paymentRepo.FindTransactionByIDForUpdate(txCtx, txID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("bill transaction %s not found", billTxID)
			}
			return fmt.Errorf("failed to lock bill transaction: %w", findErr)
		}
		if billTx.HolderID != actor.UserID {
			return apperr.Forbidden("bill transaction is not held by the acting user")
		}
		if billTx.Status != model.BillTxReceived {
			return apperr.InvalidState("bill transaction is %s; only received transactions can be forwarded", billTx.Status)
		}

		// At most one open admin request per transaction.
		if _, openErr := s.paymentRepo.FindOpenAdminRequestByTransaction(txCtx, billTx.ID); openErr == nil {
			return apperr.InvalidState("bill transaction already has a pending admin request")
		} else if !errors.Is(openErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check open admin requests: %w", openErr)
		}

		adminReq = model.BillAdminRequest{
			BillTransactionID: billTx.ID,
			RequestedBy:       actor.UserID,
			Amount:            billTx.Amount,
			Method:            billTx.Method,
			Status:            model.AdminRequestPending,
		}
		if createErr := s.paymentRepo.CreateAdminRequest(txCtx, &adminReq); createErr != nil {
			return fmt.Errorf("failed to create admin request: %w", createErr)
		}

		billTx.Status = model.BillTxPending
		if saveErr := s.paymentRepo.UpdateTransaction(txCtx, billTx); saveErr != nil {
			return fmt.Errorf("failed to update bill transaction: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionForwardToAdmin, adminReq.ID.String(), "", map[string]interface{}{
			"bill_transaction_id": billTx.ID.String(),
			"amount":              billTx.Amount.String(),
		})
	})
	if err != nil {
		return BillAdminRequestResponse{}, err
	}

	return s.reloadAdminRequest(ctx, adminReq.ID)
}

func (s *paymentService) ListTransactions(ctx context.Context, actor Actor, status string, page, limit int) ([]BillTransactionResponse, int64, error) {
	var holderID *uuid.UUID
	if actor.Role == model.RoleDeliveryMan || actor.Role == model.RoleSalesMan {
		uid := actor.UserID
		holderID = &uid
	}

	txs, total, err := s.paymentRepo.ListTransactions(ctx, holderID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bill transactions: %w", err)
	}

	res := make([]BillTransactionResponse, 0, len(txs))
	for i := range txs {
		res = append(res, toBillTransactionResponse(&txs[i]))
	}
	return res, total, nil
}

// AdminAccept finalizes both machines: the admin request and the matched
// transaction move to their terminal states together.
func (s *paymentService) AdminAccept(ctx context.Context, actor Actor, adminReqID string) (BillAdminRequestResponse, error) {
	return s.decideAdminRequest(ctx, actor, adminReqID, true)
}

// AdminReject is symmetric: the admin request terminates rejected and the
// transaction reverts to received, from where the agent may forward it again.
func (s *paymentService) AdminReject(ctx context.Context, actor Actor, adminReqID string) (BillAdminRequestResponse, error) {
	return s.decideAdminRequest(ctx, actor, adminReqID, false)
}

func (s *paymentService) decideAdminRequest(ctx context.Context, actor Actor, adminReqID string, accept bool) (BillAdminRequestResponse, error) {
	reqID, err := uuid.Parse(adminReqID)
	if err != nil {
		return BillAdminRequestResponse{}, apperr.Validation("invalid admin request id: %v", err)
	}

	var adminReq *model.BillAdminRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		adminReq, findErr = s.paymentRepo.FindAdminRequestByIDForUpdate(txCtx, reqID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("admin request %s not found", adminReqID)
			}
			return fmt.Errorf("failed to lock admin request: %w", findErr)
		}
		if adminReq.Status != model.AdminRequestPending {
			return apperr.InvalidState("admin request is %s; only pending requests can be decided", adminReq.Status)
		}

		billTx, txErr := s.paymentRepo.FindTransactionByIDForUpdate(txCtx, adminReq.BillTransactionID)
		if txErr != nil {
			return fmt.Errorf("failed to lock bill transaction: %w", txErr)
		}
		if billTx.Status != model.BillTxPending {
			return apperr.InvalidState("bill transaction is %s; expected %s", billTx.Status, model.BillTxPending)
		}

		now := time.Now()
		uid := actor.UserID
		adminReq.DecidedBy = &uid
		adminReq.DecidedAt = &now

		action := model.ActionAdminAccept
		if accept {
			adminReq.Status = model.AdminRequestAccepted
			billTx.Status = model.BillTxPaidToAdmin
		} else {
			adminReq.Status = model.AdminRequestRejected
			billTx.Status = model.BillTxReceived
			action = model.ActionAdminReject
		}

		if saveErr := s.paymentRepo.UpdateAdminRequest(txCtx, adminReq); saveErr != nil {
			return fmt.Errorf("failed to update admin request: %w", saveErr)
		}
		if saveErr := s.paymentRepo.UpdateTransaction(txCtx, billTx); saveErr != nil {
			return fmt.Errorf("failed to update bill transaction: %w", saveErr)
		}

		return s.audit(txCtx, actor, action, adminReq.ID.String(), "", map[string]interface{}{
			"bill_transaction_id": billTx.ID.String(),
			"amount":              adminReq.Amount.String(),
		})
	})
	if err != nil {
		return BillAdminRequestResponse{}, err
	}

	return s.reloadAdminRequest(ctx, adminReq.ID)
}

// reloadAdminRequest re-reads an admin request with its transaction and
// requester preloaded for the response.
func (s *paymentService) reloadAdminRequest(ctx context.Context, id uuid.UUID) (BillAdminRequestResponse, error) {
	adminReq, err := s.paymentRepo.FindAdminRequestByID(ctx, id)
	if err != nil {
		return BillAdminRequestResponse{}, fmt.Errorf("failed to reload admin request: %w", err)
	}
	return toAdminRequestResponse(adminReq), nil
}

func (s *paymentService) ListAdminRequests(ctx context.Context, status string, page, limit int) ([]BillAdminRequestResponse, int64, error) {
	requests, total, err := s.paymentRepo.ListAdminRequests(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list admin requests: %w", err)
	}

	res := make([]BillAdminRequestResponse, 0, len(requests))
	for i := range requests {
		res = append(res, toAdminRequestResponse(&requests[i]))
	}
	return res, total, nil
}

func (s *paymentService) audit(ctx context.Context, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
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

func (s *paymentService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"event": event, "data": data})
	s.hub.Broadcast <- payload
}
