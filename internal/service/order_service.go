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

// Actor is the authenticated principal acting on the core. Role is trusted as
// supplied by the auth middleware.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// --- DTOs ---

type CreateOrderRequest struct {
	CustomerID string `json:"customer_id"` // Admin only; customers order for themselves
	ProductID  string `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Payment    string `json:"payment" binding:"required,oneof=credit cash"`
}

type UpdateOrderRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Payment  string `json:"payment" binding:"required,oneof=credit cash"`
}

type DeliverOrderRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type AssignOrderRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

type OrderResponse struct {
	ID                string     `json:"id"`
	CustomerID        string     `json:"customer_id"`
	CustomerName      string     `json:"customer_name,omitempty"`
	ProductID         string     `json:"product_id"`
	ProductName       string     `json:"product_name,omitempty"`
	OrderedQuantity   int        `json:"ordered_quantity"`
	DeliveredQuantity int        `json:"delivered_quantity"`
	Price             string     `json:"price"`
	TotalAmount       string     `json:"total_amount"`
	Payment           string     `json:"payment"`
	Status            string     `json:"status"`
	AssignmentStatus  string     `json:"assignment_status"`
	AssignedTo        *string    `json:"assigned_to"`
	BillID            *string    `json:"bill_id"`
	OrderDate         time.Time  `json:"order_date"`
	CreatedAt         time.Time  `json:"created_at"`
}

// InvoiceTuple is what the invoice-rendering collaborator consumes. The
// delivered view carries the actually delivered quantity, the pending view the
// undelivered remainder at the original unit price. Building one never
// mutates the underlying order.
type InvoiceTuple struct {
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    string    `json:"unit_price"`
	TotalAmount  string    `json:"total_amount"`
	Payment      string    `json:"payment"`
	OrderDate    time.Time `json:"order_date"`
	View         string    `json:"view"` // delivered, pending
}

const (
	InvoiceViewDelivered = "delivered"
	InvoiceViewPending   = "pending"
)

// --- Interface ---

type OrderService interface {
	Create(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error)
	Deliver(ctx context.Context, actor Actor, id string, req DeliverOrderRequest) (OrderResponse, error)
	Cancel(ctx context.Context, actor Actor, id string) (OrderResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Assign(ctx context.Context, actor Actor, id string, req AssignOrderRequest) (OrderResponse, error)
	AcceptAssignment(ctx context.Context, actor Actor, id string) (OrderResponse, error)
	RejectAssignment(ctx context.Context, actor Actor, id string) (OrderResponse, error)
	Get(ctx context.Context, actor Actor, id string) (OrderResponse, error)
	List(ctx context.Context, actor Actor, status, payment string, page, limit int) ([]OrderResponse, int64, error)
	Invoice(ctx context.Context, actor Actor, id, view string) (InvoiceTuple, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	ledger       LedgerService
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
		hub:          hub,
	}
}

func toOrderResponse(o *model.Order) OrderResponse {
	res := OrderResponse{
		ID:                o.ID.String(),
		CustomerID:        o.CustomerID.String(),
		ProductID:         o.ProductID.String(),
		OrderedQuantity:   o.OrderedQuantity,
		DeliveredQuantity: o.DeliveredQuantity,
		Price:             o.Price.String(),
		TotalAmount:       o.TotalAmount.String(),
		Payment:           o.Payment,
		Status:            o.Status,
		AssignmentStatus:  o.AssignmentStatus,
		OrderDate:         o.OrderDate,
		CreatedAt:         o.CreatedAt,
	}
	if o.Customer != nil {
		res.CustomerName = o.Customer.Name
	}
	if o.Product != nil {
		res.ProductName = o.Product.Name
	}
	if o.AssignedTo != nil {
		s := o.AssignedTo.String()
		res.AssignedTo = &s
	}
	if o.BillID != nil {
		s := o.BillID.String()
		res.BillID = &s
	}
	return res
}

// resolveCustomer maps the acting principal to the customer the operation
// targets. Customers always act on their own record; admins may name any.
func (s *orderService) resolveCustomer(ctx context.Context, actor Actor, customerID string) (*model.Customer, error) {
	if actor.Role == model.RoleCustomer {
		customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("customer record not found for user")
			}
			return nil, fmt.Errorf("failed to resolve customer: %w", err)
		}
		return customer, nil
	}

	if customerID == "" {
		return nil, apperr.Validation("customer_id is required")
	}
	cid, err := uuid.Parse(customerID)
	if err != nil {
		return nil, apperr.Validation("invalid customer_id: %v", err)
	}
	customer, err := s.customerRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("customer %s not found", customerID)
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

// ownsOrder reports whether the actor may touch the order. Admins always may;
// customers only their own orders.
func (s *orderService) ownsOrder(ctx context.Context, actor Actor, order *model.Order) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role == model.RoleCustomer {
		customer, err := s.customerRepo.FindByUserID(ctx, actor.UserID)
		if err == nil && customer.ID == order.CustomerID {
			return nil
		}
	}
	return apperr.Forbidden("order does not belong to the acting user")
}

func (s *orderService) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error) {
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid product_id: %v", err)
	}

	var order model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, resolveErr := s.resolveCustomer(txCtx, actor, req.CustomerID)
		if resolveErr != nil {
			return resolveErr
		}

		product, findErr := s.productRepo.FindByID(txCtx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product %s not found", req.ProductID)
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

		// Stock is always reserved; credit only for credit orders. Both go
		// through the row-locking ledger inside this transaction.
		if reserveErr := s.ledger.ReserveStock(txCtx, product.ID, req.Quantity); reserveErr != nil {
			return reserveErr
		}
		if req.Payment == model.PaymentTypeCredit {
			if reserveErr := s.ledger.ReserveCredit(txCtx, customer.ID, total); reserveErr != nil {
				return reserveErr
			}
		}

		order = model.Order{
			CustomerID:       customer.ID,
			ProductID:        product.ID,
			OrderedQuantity:  req.Quantity,
			Price:            product.Price,
			TotalAmount:      total,
			Payment:          req.Payment,
			Status:           model.OrderStatusPending,
			AssignmentStatus: model.AssignmentPending,
			OrderDate:        time.Now(),
		}
		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		return s.audit(txCtx, actor, model.ActionCreateOrder, order.ID.String(), product.Name, map[string]interface{}{
			"product_id": product.ID.String(),
			"quantity":   req.Quantity,
			"payment":    req.Payment,
			"total":      total.String(),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.broadcast("order.created", map[string]interface{}{"order_id": order.ID.String()})

	return s.reload(ctx, order.ID)
}

// Update changes quantity/payment while the order is still pending. The old
// reservation is fully reversed, then the new one attempted; both legs run in
// one transaction so a failed re-reservation rolls the reversal back too.
func (s *orderService) Update(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if ownErr := s.ownsOrder(txCtx, actor, order); ownErr != nil {
			return ownErr
		}
		if order.Status != model.OrderStatusPending {
			return apperr.InvalidState("order is %s; only pending orders can be updated", order.Status)
		}

		// Reverse the old reservation in full.
		if relErr := s.ledger.ReleaseStock(txCtx, order.ProductID, order.OrderedQuantity); relErr != nil {
			return relErr
		}
		if order.Payment == model.PaymentTypeCredit {
			if relErr := s.ledger.ReleaseCredit(txCtx, order.CustomerID, order.TotalAmount); relErr != nil {
				return relErr
			}
		}

		newTotal := order.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

		// Attempt the new reservation. Any failure aborts the transaction and
		// the reversal above never becomes visible.
		if resErr := s.ledger.ReserveStock(txCtx, order.ProductID, req.Quantity); resErr != nil {
			return resErr
		}
		if req.Payment == model.PaymentTypeCredit {
			if resErr := s.ledger.ReserveCredit(txCtx, order.CustomerID, newTotal); resErr != nil {
				return resErr
			}
		}

		if req.Quantity < order.DeliveredQuantity {
			return apperr.InvalidAmount("new quantity %d is below already delivered %d", req.Quantity, order.DeliveredQuantity)
		}

		order.OrderedQuantity = req.Quantity
		order.Payment = req.Payment
		order.TotalAmount = newTotal
		if saveErr := s.orderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionUpdateOrder, order.ID.String(), "", map[string]interface{}{
			"quantity": req.Quantity,
			"payment":  req.Payment,
			"total":    newTotal.String(),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.reload(ctx, orderID)
}

func (s *orderService) Deliver(ctx context.Context, actor Actor, id string, req DeliverOrderRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if order.Status != model.OrderStatusPending {
			return apperr.InvalidState("order is %s; only pending orders can be delivered", order.Status)
		}
		if req.Quantity <= 0 || req.Quantity > order.RemainingQuantity() {
			return apperr.InvalidAmount("delivery quantity %d outside remaining %d", req.Quantity, order.RemainingQuantity())
		}

		// Partial delivery releases nothing: the reservation modeled
		// "committed" at creation, not "in transit".
		order.DeliveredQuantity += req.Quantity
		if order.DeliveredQuantity == order.OrderedQuantity {
			order.Status = model.OrderStatusDelivered
		}
		if saveErr := s.orderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionDeliverOrder, order.ID.String(), "", map[string]interface{}{
			"delivered": req.Quantity,
			"status":    order.Status,
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.reload(ctx, orderID)
}

func (s *orderService) Cancel(ctx context.Context, actor Actor, id string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if ownErr := s.ownsOrder(txCtx, actor, order); ownErr != nil {
			return ownErr
		}
		if order.Status != model.OrderStatusPending {
			return apperr.InvalidState("order is %s; only pending orders can be cancelled", order.Status)
		}

		if relErr := releaseOrderRemainder(txCtx, s.ledger, order); relErr != nil {
			return relErr
		}

		order.Status = model.OrderStatusCancelled
		order.AssignmentStatus = model.AssignmentCancelled
		if saveErr := s.orderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionCancelOrder, order.ID.String(), "", map[string]interface{}{
			"released_quantity": order.RemainingQuantity(),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.reload(ctx, orderID)
}

func (s *orderService) Delete(ctx context.Context, actor Actor, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid order id: %v", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if ownErr := s.ownsOrder(txCtx, actor, order); ownErr != nil {
			return ownErr
		}

		// A record still holding reserved stock/credit is never removed
		// without reversing the reservation first.
		if order.Status == model.OrderStatusPending {
			if relErr := releaseOrderRemainder(txCtx, s.ledger, order); relErr != nil {
				return relErr
			}
		}

		if delErr := s.orderRepo.Delete(txCtx, orderID); delErr != nil {
			return fmt.Errorf("failed to delete order: %w", delErr)
		}

		return s.audit(txCtx, actor, model.ActionDeleteOrder, order.ID.String(), "", map[string]interface{}{
			"status": order.Status,
		})
	})
}

func (s *orderService) Assign(ctx context.Context, actor Actor, id string, req AssignOrderRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}
	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid assignee_id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		// A rejected assignment has no automatic way back; an explicit admin
		// re-assign is the manual intervention that clears it.
		if order.AssignmentStatus != model.AssignmentPending && order.AssignmentStatus != model.AssignmentRejected {
			return apperr.InvalidState("order assignment is %s; cannot assign", order.AssignmentStatus)
		}

		assignee, userErr := s.userRepo.FindByID(txCtx, assigneeID)
		if userErr != nil {
			if errors.Is(userErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assignee %s not found", req.AssigneeID)
			}
			return fmt.Errorf("failed to find assignee: %w", userErr)
		}
		if assignee.Role != model.RoleDeliveryMan {
			return apperr.Validation("assignee must have role %s", model.RoleDeliveryMan)
		}

		order.AssignedTo = &assigneeID
		order.AssignmentStatus = model.AssignmentAssigned
		if saveErr := s.orderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}

		return s.audit(txCtx, actor, model.ActionAssignOrder, order.ID.String(), assignee.Username, map[string]interface{}{
			"assignee_id": assigneeID.String(),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.reload(ctx, orderID)
}

func (s *orderService) AcceptAssignment(ctx context.Context, actor Actor, id string) (OrderResponse, error) {
	return s.decideAssignment(ctx, actor, id, model.AssignmentAccepted)
}

func (s *orderService) RejectAssignment(ctx context.Context, actor Actor, id string) (OrderResponse, error) {
	return s.decideAssignment(ctx, actor, id, model.AssignmentRejected)
}

func (s *orderService) decideAssignment(ctx context.Context, actor Actor, id, decision string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", id)
			}
			return fmt.Errorf("failed to lock order: %w", findErr)
		}
		if order.AssignmentStatus != model.AssignmentAssigned {
			return apperr.InvalidState("order assignment is %s; expected %s", order.AssignmentStatus, model.AssignmentAssigned)
		}
		if order.AssignedTo == nil || *order.AssignedTo != actor.UserID {
			return apperr.Forbidden("order is not assigned to the acting user")
		}

		order.AssignmentStatus = decision
		if saveErr := s.orderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return s.reload(ctx, orderID)
}

func (s *orderService) Get(ctx context.Context, actor Actor, id string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id: %v", err)
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order %s not found", id)
		}
		return OrderResponse{}, fmt.Errorf("failed to find order: %w", err)
	}
	if ownErr := s.ownsOrder(ctx, actor, order); ownErr != nil && actor.Role != model.RoleDeliveryMan && actor.Role != model.RoleSalesMan {
		return OrderResponse{}, ownErr
	}
	return toOrderResponse(order), nil
}

func (s *orderService) List(ctx context.Context, actor Actor, status, payment string, page, limit int) ([]OrderResponse, int64, error) {
	filter := repository.OrderFilter{Status: status, Payment: payment, Page: page, Limit: limit}

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
	case model.RoleDeliveryMan:
		uid := actor.UserID
		filter.AssignedTo = &uid
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *orderService) Invoice(ctx context.Context, actor Actor, id, view string) (InvoiceTuple, error) {
	if view != InvoiceViewDelivered && view != InvoiceViewPending {
		return InvoiceTuple{}, apperr.Validation("view must be %s or %s", InvoiceViewDelivered, InvoiceViewPending)
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceTuple{}, apperr.Validation("invalid order id: %v", err)
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceTuple{}, apperr.NotFound("order %s not found", id)
		}
		return InvoiceTuple{}, fmt.Errorf("failed to find order: %w", err)
	}
	if ownErr := s.ownsOrder(ctx, actor, order); ownErr != nil {
		return InvoiceTuple{}, ownErr
	}

	qty := order.DeliveredQuantity
	if view == InvoiceViewPending {
		qty = order.RemainingQuantity()
	}

	tuple := InvoiceTuple{
		OrderID:     order.ID.String(),
		Quantity:    qty,
		UnitPrice:   order.Price.String(),
		TotalAmount: order.Price.Mul(decimal.NewFromInt(int64(qty))).String(),
		Payment:     order.Payment,
		OrderDate:   order.OrderDate,
		View:        view,
	}
	if order.Customer != nil {
		tuple.CustomerName = order.Customer.Name
	}
	if order.Product != nil {
		tuple.ProductName = order.Product.Name
	}
	return tuple, nil
}

func (s *orderService) reload(ctx context.Context, id uuid.UUID) (OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("failed to reload order: %w", err)
	}
	return toOrderResponse(order), nil
}

func (s *orderService) audit(ctx context.Context, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
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

func (s *orderService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"event": event, "data": data})
	s.hub.Broadcast <- payload
}
