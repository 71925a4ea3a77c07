package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CollectPaymentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
	Method  string `json:"method" binding:"required,oneof=cash cheque"`
}

type WalletTransactionResponse struct {
	ID        string     `json:"id"`
	OrderID   string     `json:"order_id"`
	AgentID   string     `json:"agent_id"`
	Amount    string     `json:"amount"`
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	DecidedBy *string    `json:"decided_by"`
	DecidedAt *time.Time `json:"decided_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// --- Interface ---

// WalletService tracks cash a delivery agent personally holds against
// individual orders, independent of the bill settlement pipeline. The chain is
// collect -> forward -> admin accept/reject; a rejected record may be
// forwarded again once the discrepancy is sorted out.
type WalletService interface {
	Collect(ctx context.Context, actor Actor, req CollectPaymentRequest) (WalletTransactionResponse, error)
	ForwardToAdmin(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error)
	AdminAccept(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error)
	AdminReject(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error)
	List(ctx context.Context, actor Actor, status string, page, limit int) ([]WalletTransactionResponse, int64, error)
}

type walletService struct {
	walletRepo repository.WalletRepository
	orderRepo  repository.OrderRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewWalletService(
	walletRepo repository.WalletRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) WalletService {
	return &walletService{
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

func toWalletResponse(t *model.PaymentTransaction) WalletTransactionResponse {
	res := WalletTransactionResponse{
		ID:        t.ID.String(),
		OrderID:   t.OrderID.String(),
		AgentID:   t.AgentID.String(),
		Amount:    t.Amount.String(),
		Method:    t.Method,
		Status:    t.Status,
		DecidedAt: t.DecidedAt,
		CreatedAt: t.CreatedAt,
	}
	if t.DecidedBy != nil {
		s := t.DecidedBy.String()
		res.DecidedBy = &s
	}
	return res
}

func (s *walletService) Collect(ctx context.Context, actor Actor, req CollectPaymentRequest) (WalletTransactionResponse, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return WalletTransactionResponse{}, apperr.Validation("invalid order_id: %v", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return WalletTransactionResponse{}, apperr.Validation("invalid amount: %v", err)
	}
	if !amount.IsPositive() {
		return WalletTransactionResponse{}, apperr.InvalidAmount("collected amount must be positive")
	}

	var walletTx model.PaymentTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", req.OrderID)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if order.AssignedTo == nil || *order.AssignedTo != actor.UserID {
			return apperr.Forbidden("order is not assigned to the acting agent")
		}
		if amount.GreaterThan(order.TotalAmount) {
			return apperr.InvalidAmount("amount %s exceeds order total %s", amount.String(), order.TotalAmount.String())
		}

		// One wallet record per order.
		if _, dupErr := s.walletRepo.FindByOrderID(txCtx, orderID); dupErr == nil {
			return apperr.InvalidState("a wallet transaction already exists for this order")
		}

		walletTx = model.PaymentTransaction{
			OrderID: order.ID,
			AgentID: actor.UserID,
			Amount:  amount,
			Method:  req.Method,
			Status:  model.WalletTxReceived,
		}
		if createErr := s.walletRepo.Create(txCtx, &walletTx); createErr != nil {
			return fmt.Errorf("failed to create wallet transaction: %w", createErr)
		}

		return s.audit(txCtx, actor, model.ActionWalletCollect, walletTx.ID.String(), map[string]interface{}{
			"order_id": order.ID.String(),
			"amount":   amount.String(),
		})
	})
	if err != nil {
		return WalletTransactionResponse{}, err
	}

	return toWalletResponse(&walletTx), nil
}

func (s *walletService) ForwardToAdmin(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return WalletTransactionResponse{}, apperr.Validation("invalid wallet transaction id: %v", err)
	}

	var walletTx *model.PaymentTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		walletTx, findErr = s.walletRepo.FindByIDForUpdate(txCtx, txID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("wallet transaction %s not found", id)
			}
			return fmt.Errorf("failed to lock wallet transaction: %w", findErr)
		}
		if walletTx.AgentID != actor.UserID {
			return apperr.Forbidden("wallet transaction is not held by the acting agent")
		}
		if walletTx.Status != model.WalletTxReceived && walletTx.Status != model.WalletTxRejected {
			return apperr.InvalidState("wallet transaction is %s; cannot forward", walletTx.Status)
		}

		walletTx.Status = model.WalletTxPending
		walletTx.DecidedBy = nil
		walletTx.DecidedAt = nil
		if saveErr := s.walletRepo.Update(txCtx, walletTx); saveErr != nil {
			return fmt.Errorf("failed to update wallet transaction: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionWalletForward, walletTx.ID.String(), map[string]interface{}{
			"amount": walletTx.Amount.String(),
		})
	})
	if err != nil {
		return WalletTransactionResponse{}, err
	}

	return toWalletResponse(walletTx), nil
}

func (s *walletService) AdminAccept(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error) {
	return s.decide(ctx, actor, id, model.WalletTxPaidToAdmin)
}

func (s *walletService) AdminReject(ctx context.Context, actor Actor, id string) (WalletTransactionResponse, error) {
	return s.decide(ctx, actor, id, model.WalletTxRejected)
}

func (s *walletService) decide(ctx context.Context, actor Actor, id, decision string) (WalletTransactionResponse, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return WalletTransactionResponse{}, apperr.Validation("invalid wallet transaction id: %v", err)
	}

	var walletTx *model.PaymentTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		walletTx, findErr = s.walletRepo.FindByIDForUpdate(txCtx, txID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("wallet transaction %s not found", id)
			}
			return fmt.Errorf("failed to lock wallet transaction: %w", findErr)
		}
		if walletTx.Status != model.WalletTxPending {
			return apperr.InvalidState("wallet transaction is %s; only pending transactions can be decided", walletTx.Status)
		}

		now := time.Now()
		uid := actor.UserID
		walletTx.Status = decision
		walletTx.DecidedBy = &uid
		walletTx.DecidedAt = &now
		if saveErr := s.walletRepo.Update(txCtx, walletTx); saveErr != nil {
			return fmt.Errorf("failed to update wallet transaction: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionWalletSettle, walletTx.ID.String(), map[string]interface{}{
			"decision": decision,
			"amount":   walletTx.Amount.String(),
		})
	})
	if err != nil {
		return WalletTransactionResponse{}, err
	}

	return toWalletResponse(walletTx), nil
}

func (s *walletService) List(ctx context.Context, actor Actor, status string, page, limit int) ([]WalletTransactionResponse, int64, error) {
	var agentID *uuid.UUID
	if actor.Role == model.RoleDeliveryMan {
		uid := actor.UserID
		agentID = &uid
	}

	txs, total, err := s.walletRepo.List(ctx, agentID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallet transactions: %w", err)
	}

	res := make([]WalletTransactionResponse, 0, len(txs))
	for i := range txs {
		res = append(res, toWalletResponse(&txs[i]))
	}
	return res, total, nil
}

func (s *walletService) audit(ctx context.Context, actor Actor, action, entityID string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	uid := actor.UserID
	entry := &model.AuditLog{
		UserID:   &uid,
		Action:   action,
		EntityID: entityID,
		Details:  string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
