package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCheque = "cheque"
)

// RecipientType enum constants — which kind of field agent a payment request
// is addressed to. delivery maps to role delivery_man, sales to sales_man.
const (
	RecipientTypeDelivery = "delivery"
	RecipientTypeSales    = "sales"
)

// PaymentRequestStatus enum constants. accepted and rejected are terminal.
const (
	PaymentRequestPending  = "pending"
	PaymentRequestAccepted = "accepted"
	PaymentRequestRejected = "rejected"
)

// BillTransactionStatus enum constants. received means the agent holds the
// cash, pending means it was forwarded to the admin and awaits a decision,
// paid_to_admin is terminal.
const (
	BillTxReceived    = "received"
	BillTxPending     = "pending"
	BillTxPaidToAdmin = "paid_to_admin"
)

// AdminRequestStatus enum constants
const (
	AdminRequestPending  = "pending"
	AdminRequestAccepted = "accepted"
	AdminRequestRejected = "rejected"
)

// PaymentRequest is a customer's declaration of intent to pay Amount toward a
// Bill, addressed to a specific field agent. Creating one moves the bill to
// pending_payment; the agent either accepts (creating a BillTransaction) or
// rejects (reverting the bill to pending).
type PaymentRequest struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	Bill          *Bill           `gorm:"foreignKey:BillID" json:"bill,omitempty"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	RecipientID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient     *User           `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	RecipientType string          `gorm:"type:varchar(20);not null" json:"recipient_type"` // delivery, sales
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method        string          `gorm:"type:varchar(20);not null" json:"method"` // cash, cheque
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BillTransaction records funds an agent actually holds after accepting a
// PaymentRequest. Amount is the capped amount applied to the bill, which may
// be less than the requested amount if the bill's due shrank in between.
type BillTransaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentRequestID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"payment_request_id"`
	PaymentRequest   *PaymentRequest `gorm:"foreignKey:PaymentRequestID" json:"payment_request,omitempty"`
	BillID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	HolderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"holder_id"` // The agent holding the funds
	Holder           *User           `gorm:"foreignKey:HolderID" json:"holder,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method           string          `gorm:"type:varchar(20);not null" json:"method"`
	Status           string          `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BillAdminRequest is created when an agent forwards a BillTransaction to the
// administrator. At most one open request exists per transaction; a rejected
// request leaves the transaction re-forwardable.
type BillAdminRequest struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillTransactionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"bill_transaction_id"`
	BillTransaction   *BillTransaction `gorm:"foreignKey:BillTransactionID" json:"bill_transaction,omitempty"`
	RequestedBy       uuid.UUID        `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester         *User            `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	Amount            decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method            string           `gorm:"type:varchar(20);not null" json:"method"`
	Status            string           `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DecidedBy         *uuid.UUID       `gorm:"type:uuid" json:"decided_by"`
	DecidedAt         *time.Time       `json:"decided_at"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// WalletTransactionStatus enum constants for order-scoped agent wallets.
const (
	WalletTxReceived    = "received"
	WalletTxPending     = "pending"
	WalletTxPaidToAdmin = "paid_to_admin"
	WalletTxRejected    = "rejected"
)

// PaymentTransaction is an order-scoped cash record held by a delivery agent,
// independent of the bill settlement chain. It tracks cash the agent collected
// directly against an order until the admin confirms receipt.
type PaymentTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order     *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	AgentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent     *User           `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null;default:'cash'" json:"method"`
	Status    string          `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	DecidedBy *uuid.UUID      `gorm:"type:uuid" json:"decided_by"`
	DecidedAt *time.Time      `json:"decided_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
