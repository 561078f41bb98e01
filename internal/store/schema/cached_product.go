package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CachedProduct represents the cached_products table - add-on products sold
// alongside plans
type CachedProduct struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Slug        string `gorm:"column:slug" json:"slug"`
	Description string `gorm:"column:description" json:"description"`
	Status      int    `gorm:"column:status" json:"status"`
	// MonthlyPrice is the monthly cycle price, falling back to the second
	// then first listed price
	MonthlyPrice float64        `gorm:"column:monthly_price;default:0" json:"monthly_price"`
	Prices       datatypes.JSON `gorm:"column:prices" json:"prices"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedProduct model
func (CachedProduct) TableName() string {
	return "cached_products"
}
