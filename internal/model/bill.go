package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus enum constants
const (
	BillStatusPending        = "pending"
	BillStatusPendingPayment = "pending_payment"
	BillStatusPartial        = "partial"
	BillStatusPaid           = "paid"
	BillStatusOverdue        = "overdue"
)

// Bill aggregates the unbilled credit orders of one customer over the cycle
// window [CycleStart, CycleEnd]. TotalUsed is fixed at generation;
// PaidAmount + AmountDue == TotalUsed holds at all times and AmountDue never
// increases. Overdue detection is lazy: a pending bill read past its due date
// is flipped to overdue as a side effect of the read.
type Bill struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Orders     []Order         `gorm:"foreignKey:BillID" json:"orders,omitempty"`
	CycleStart time.Time       `gorm:"not null" json:"cycle_start"`
	CycleEnd   time.Time       `gorm:"not null" json:"cycle_end"`
	TotalUsed  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_used"`
	AmountDue  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount_due"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	DueDate    time.Time       `gorm:"not null;index" json:"due_date"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
