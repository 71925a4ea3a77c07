package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder  = "CREATE_ORDER"
	ActionUpdateOrder  = "UPDATE_ORDER"
	ActionDeliverOrder = "DELIVER_ORDER"
	ActionCancelOrder  = "CANCEL_ORDER"
	ActionDeleteOrder  = "DELETE_ORDER"
	ActionAssignOrder  = "ASSIGN_ORDER"

	ActionGenerateBill = "GENERATE_BILL"
	ActionPayBill      = "PAY_BILL"

	// Settlement pipeline actions
	ActionCreatePaymentRequest = "CREATE_PAYMENT_REQUEST"
	ActionAcceptPaymentRequest = "ACCEPT_PAYMENT_REQUEST"
	ActionRejectPaymentRequest = "REJECT_PAYMENT_REQUEST"
	ActionForwardToAdmin       = "FORWARD_TO_ADMIN"
	ActionAdminAccept          = "ADMIN_ACCEPT"
	ActionAdminReject          = "ADMIN_REJECT"

	// Wallet actions
	ActionWalletCollect = "WALLET_COLLECT"
	ActionWalletForward = "WALLET_FORWARD"
	ActionWalletSettle  = "WALLET_SETTLE"

	ActionCreateCustomer   = "CREATE_CUSTOMER"
	ActionEditCreditLimit  = "EDIT_CREDIT_LIMIT"
	ActionDeleteCustomer   = "DELETE_CUSTOMER"
	ActionCreateProduct    = "CREATE_PRODUCT"
	ActionUpdateProduct    = "UPDATE_PRODUCT"
	ActionDeleteProduct    = "DELETE_PRODUCT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
