package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the credit ledger: the pair of numeric balances (customer
// spendable credit, product stock) adjusted in lockstep with order lifecycle
// transitions. Its methods expect to run inside a transactional context
// supplied by the caller's TransactionManager.RunInTx so the reservation and
// the order write commit or fail as one unit; each method row-locks the
// entity it adjusts.
type LedgerService interface {
	ReserveCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) error
	ReleaseCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) error
	ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error
	ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type ledgerService struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
}

func NewLedgerService(customerRepo repository.CustomerRepository, productRepo repository.ProductRepository) LedgerService {
	return &ledgerService{customerRepo: customerRepo, productRepo: productRepo}
}

func (s *ledgerService) ReserveCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) error {
	customer, err := s.customerRepo.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer %s not found", customerID)
		}
		return fmt.Errorf("failed to lock customer: %w", err)
	}

	if customer.BalanceCreditLimit.LessThan(amount) {
		return apperr.InsufficientResource("insufficient credit: balance %s, requested %s",
			customer.BalanceCreditLimit.String(), amount.String())
	}

	customer.BalanceCreditLimit = customer.BalanceCreditLimit.Sub(amount)
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return fmt.Errorf("failed to reserve credit: %w", err)
	}
	return nil
}

func (s *ledgerService) ReleaseCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) error {
	customer, err := s.customerRepo.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer %s not found", customerID)
		}
		return fmt.Errorf("failed to lock customer: %w", err)
	}

	// Callers only release amounts they previously reserved, but clamp at the
	// credit limit anyway so the balance invariant survives a misbehaving caller.
	balance := customer.BalanceCreditLimit.Add(amount)
	if balance.GreaterThan(customer.CreditLimit) {
		balance = customer.CreditLimit
	}

	customer.BalanceCreditLimit = balance
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return fmt.Errorf("failed to release credit: %w", err)
	}
	return nil
}

func (s *ledgerService) ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error {
	product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product %s not found", productID)
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if product.Quantity < qty {
		return apperr.InsufficientResource("insufficient stock for product %s (current: %d, requested: %d)",
			product.Name, product.Quantity, qty)
	}

	if err := s.productRepo.UpdateQuantity(ctx, productID, product.Quantity-qty); err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	return nil
}

func (s *ledgerService) ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product %s not found", productID)
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if err := s.productRepo.UpdateQuantity(ctx, productID, product.Quantity+qty); err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

// releaseOrderRemainder gives back the stock and, for credit orders, the
// credit still held by the undelivered remainder of an order. Shared by
// cancel and delete.
func releaseOrderRemainder(ctx context.Context, ledger LedgerService, order *model.Order) error {
	remainder := order.RemainingQuantity()
	if remainder <= 0 {
		return nil
	}

	if err := ledger.ReleaseStock(ctx, order.ProductID, remainder); err != nil {
		return err
	}

	if order.Payment == model.PaymentTypeCredit {
		amount := order.Price.Mul(decimal.NewFromInt(int64(remainder)))
		if err := ledger.ReleaseCredit(ctx, order.CustomerID, amount); err != nil {
			return err
		}
	}
	return nil
}
