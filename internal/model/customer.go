package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillingType enum constants — controls the grace period applied to a bill's
// due date at generation time.
const (
	BillingTypeCreditCard = "creditcard"
	BillingTypeImmediate  = "immediate"
)

// Customer is the credit-side counterpart of a User with role customer.
// BalanceCreditLimit is the spendable remainder of CreditLimit; the two are
// adjusted only through the credit ledger so 0 <= balance <= limit holds.
// A Customer is created together with its login User and destroyed with it.
type Customer struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User               *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Name               string          `gorm:"type:varchar(255);not null" json:"name"`
	Address            string          `gorm:"type:text" json:"address"`
	CreditLimit        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"credit_limit"`
	BalanceCreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balance_credit_limit"`
	BillingType        string          `gorm:"type:varchar(20);not null;default:'immediate'" json:"billing_type"` // creditcard, immediate
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}
