package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups sub-categories of sellable products
type Category struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	SubCategories []SubCategory  `gorm:"foreignKey:CategoryID" json:"sub_categories,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubCategory groups products under a Category
type SubCategory struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID uuid.UUID      `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product represents a sellable item. Quantity is on-hand stock: it is
// decremented when an order reserves it and incremented when the order
// releases it. Price is the current unit price; orders snapshot it at
// creation so later price edits never touch existing orders.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubCategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sub_category_id"`
	SubCategory   *SubCategory    `gorm:"foreignKey:SubCategoryID" json:"sub_category,omitempty"`
	SKU           string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Quantity      int             `gorm:"type:int;default:0;not null" json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
