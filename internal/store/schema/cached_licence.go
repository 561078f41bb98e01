package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CachedLicence represents the cached_licences table
type CachedLicence struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Slug        string `gorm:"column:slug" json:"slug"`
	PricingUnit string `gorm:"column:pricing_unit" json:"pricing_unit"`
	Status      int    `gorm:"column:status" json:"status"`
	// MonthlyPrice is the first listed price; licences carry the value in
	// "price" rather than "amount"
	MonthlyPrice float64        `gorm:"column:monthly_price;default:0" json:"monthly_price"`
	Prices       datatypes.JSON `gorm:"column:prices" json:"prices"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedLicence model
func (CachedLicence) TableName() string {
	return "cached_licences"
}
