package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType enum constants
const (
	PaymentTypeCredit = "credit"
	PaymentTypeCash   = "cash"
)

// OrderStatus enum constants. delivered and cancelled are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// AssignmentStatus enum constants — an orthogonal sub-state machine tracking
// delivery-agent handling of an order. A rejected assignment stays rejected
// until an admin assigns the order again.
const (
	AssignmentPending   = "pending_assignment"
	AssignmentAssigned  = "assigned"
	AssignmentAccepted  = "accepted"
	AssignmentRejected  = "rejected"
	AssignmentCancelled = "cancelled"
)

// Order links one Customer and one Product. Price is a snapshot of the
// product's unit price at creation time and TotalAmount = Price *
// OrderedQuantity. Stock (and credit, for credit orders) is reserved at
// creation and released when the order is cancelled or deleted; delivery
// consumes the reservation without touching the ledgers.
type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OrderedQuantity   int             `gorm:"type:int;not null" json:"ordered_quantity"`
	DeliveredQuantity int             `gorm:"type:int;not null;default:0" json:"delivered_quantity"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Payment           string          `gorm:"type:varchar(20);not null" json:"payment"` // credit, cash
	Status            string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AssignmentStatus  string          `gorm:"type:varchar(30);not null;default:'pending_assignment'" json:"assignment_status"`
	AssignedTo        *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to"`
	Assignee          *User           `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	BillID            *uuid.UUID      `gorm:"type:uuid;index" json:"bill_id"` // Set when a billing cycle picks the order up
	OrderDate         time.Time       `gorm:"not null;index" json:"order_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RemainingQuantity is the undelivered remainder of the order.
func (o *Order) RemainingQuantity() int {
	return o.OrderedQuantity - o.DeliveredQuantity
}
