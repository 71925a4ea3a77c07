package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "bills.read"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "orders", "bills", "payments"...
}

// AdminPermissions is the fixed grant set for the admin role. Admin never
// consults the role_permissions table.
var AdminPermissions = []string{
	"users.read", "users.write",
	"customers.read", "customers.write",
	"catalog.read", "catalog.write",
	"orders.read", "orders.write", "orders.assign",
	"bills.read", "bills.write",
	"payments.read", "payments.write", "payments.settle",
	"wallet.read", "wallet.settle",
	"audit.read",
	"statistics.read",
	"roles.read", "roles.write",
}

// ExpandPermissions resolves the effective permission set for a role name.
// Admin is a fixed-table special case; every other role gets exactly its
// stored permission codes.
func ExpandPermissions(roleName string, stored []Permission) map[string]bool {
	set := make(map[string]bool, len(stored))
	if roleName == RoleAdmin {
		for _, code := range AdminPermissions {
			set[code] = true
		}
		return set
	}
	for _, p := range stored {
		set[p.Code] = true
	}
	return set
}
