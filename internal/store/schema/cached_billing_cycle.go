package schema

import (
	"time"
)

// CachedBillingCycle represents the cached_billing_cycles table
type CachedBillingCycle struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Duration    int       `gorm:"column:duration" json:"duration"`
	Unit        string    `gorm:"column:unit" json:"unit"`
	IsEnabled   int       `gorm:"column:is_enabled;default:1" json:"is_enabled"`
	SortOrder   int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedBillingCycle model
func (CachedBillingCycle) TableName() string {
	return "cached_billing_cycles"
}
