package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCustomerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	CreditLimit string `json:"credit_limit" binding:"required"`
	BillingType string `json:"billing_type" binding:"required,oneof=creditcard immediate"`
}

type UpdateCreditLimitRequest struct {
	CreditLimit string `json:"credit_limit" binding:"required"`
}

type CustomerResponse struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	CreditLimit        string `json:"credit_limit"`
	BalanceCreditLimit string `json:"balance_credit_limit"`
	BillingType        string `json:"billing_type"`
	Email              string `json:"email,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// --- Interface ---

type CustomerService interface {
	// Create makes the login identity and the customer record in one
	// transaction; they live and die together.
	Create(ctx context.Context, actor Actor, req CreateCustomerRequest) (CustomerResponse, error)
	Get(ctx context.Context, id string) (CustomerResponse, error)
	GetByActor(ctx context.Context, actor Actor) (CustomerResponse, error)
	List(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error)
	// UpdateCreditLimit is the explicit admin edit of the credit ceiling. The
	// spendable balance shifts by the same delta, floored at zero.
	UpdateCreditLimit(ctx context.Context, actor Actor, id string, req UpdateCreditLimitRequest) (CustomerResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func toCustomerResponse(c *model.Customer) CustomerResponse {
	res := CustomerResponse{
		ID:                 c.ID.String(),
		UserID:             c.UserID.String(),
		Name:               c.Name,
		Address:            c.Address,
		CreditLimit:        c.CreditLimit.String(),
		BalanceCreditLimit: c.BalanceCreditLimit.String(),
		BillingType:        c.BillingType,
		CreatedAt:          c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if c.User != nil {
		res.Email = c.User.Email
	}
	return res
}

func (s *customerService) Create(ctx context.Context, actor Actor, req CreateCustomerRequest) (CustomerResponse, error) {
	limit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil {
		return CustomerResponse{}, apperr.Validation("invalid credit_limit: %v", err)
	}
	if limit.IsNegative() {
		return CustomerResponse{}, apperr.InvalidAmount("credit_limit must not be negative")
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return CustomerResponse{}, apperr.Validation("username already exists")
	}
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return CustomerResponse{}, apperr.Validation("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var customer model.Customer
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user := &model.User{
			Username: req.Username,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: string(hashed),
			Role:     model.RoleCustomer,
		}
		if createErr := s.userRepo.Create(txCtx, user); createErr != nil {
			return fmt.Errorf("failed to create user: %w", createErr)
		}

		customer = model.Customer{
			UserID:             user.ID,
			Name:               req.Name,
			Address:            req.Address,
			CreditLimit:        limit,
			BalanceCreditLimit: limit,
			BillingType:        req.BillingType,
		}
		if createErr := s.customerRepo.Create(txCtx, &customer); createErr != nil {
			return fmt.Errorf("failed to create customer: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"credit_limit": limit.String(),
			"billing_type": req.BillingType,
		})
		uid := actor.UserID
		audit := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionCreateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(&customer), nil
}

func (s *customerService) Get(ctx context.Context, id string) (CustomerResponse, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, apperr.Validation("invalid customer id: %v", err)
	}
	customer, err := s.customerRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CustomerResponse{}, apperr.NotFound("customer %s not found", id)
		}
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) GetByActor(ctx context.Context, actor Actor) (CustomerResponse, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CustomerResponse{}, apperr.NotFound("customer record not found for user")
		}
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) List(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	customers, total, err := s.customerRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		res = append(res, toCustomerResponse(&customers[i]))
	}
	return res, total, nil
}

func (s *customerService) UpdateCreditLimit(ctx context.Context, actor Actor, id string, req UpdateCreditLimitRequest) (CustomerResponse, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, apperr.Validation("invalid customer id: %v", err)
	}
	newLimit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil {
		return CustomerResponse{}, apperr.Validation("invalid credit_limit: %v", err)
	}
	if newLimit.IsNegative() {
		return CustomerResponse{}, apperr.InvalidAmount("credit_limit must not be negative")
	}

	var customer *model.Customer
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		customer, findErr = s.customerRepo.FindByIDForUpdate(txCtx, cid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer %s not found", id)
			}
			return fmt.Errorf("failed to lock customer: %w", findErr)
		}

		delta := newLimit.Sub(customer.CreditLimit)
		balance := customer.BalanceCreditLimit.Add(delta)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if balance.GreaterThan(newLimit) {
			balance = newLimit
		}

		oldLimit := customer.CreditLimit
		customer.CreditLimit = newLimit
		customer.BalanceCreditLimit = balance
		if saveErr := s.customerRepo.Update(txCtx, customer); saveErr != nil {
			return fmt.Errorf("failed to update customer: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"old_limit": oldLimit.String(),
			"new_limit": newLimit.String(),
		})
		uid := actor.UserID
		audit := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionEditCreditLimit,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(customer), nil
}

func (s *customerService) Delete(ctx context.Context, actor Actor, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid customer id: %v", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, findErr := s.customerRepo.FindByID(txCtx, cid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer %s not found", id)
			}
			return fmt.Errorf("failed to find customer: %w", findErr)
		}

		// Customer and login identity are destroyed together.
		if delErr := s.customerRepo.Delete(txCtx, cid); delErr != nil {
			return fmt.Errorf("failed to delete customer: %w", delErr)
		}
		if delErr := s.userRepo.Delete(txCtx, customer.UserID); delErr != nil {
			return fmt.Errorf("failed to delete user: %w", delErr)
		}

		uid := actor.UserID
		audit := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionDeleteCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}
