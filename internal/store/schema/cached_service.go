package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/cloud4india/cloud-pricing/internal/domain"
)

// CachedService represents the cached_services table - a local copy of one
// upstream service, enriched with the locally derived category
type CachedService struct {
	// ID is the upstream service id
	ID int64 `gorm:"column:id;primaryKey" json:"id"`
	// Name is the upstream display name; plans reference services by name
	Name string `gorm:"column:name;not null" json:"name"`
	Slug string `gorm:"column:slug" json:"slug"`
	// Status is 1 for active services, 0 otherwise
	Status int `gorm:"column:status" json:"status"`
	// Category is the locally derived grouping (compute, storage, ...)
	Category     domain.Category `gorm:"column:category" json:"category"`
	CategoryName string          `gorm:"column:category_name" json:"category_name"`
	BillingRule  string          `gorm:"column:billing_rule" json:"billing_rule"`
	// Config is the upstream service config object, stored verbatim
	Config datatypes.JSON `gorm:"column:config" json:"config"`
	// PlanCount is filled in after plans are synced
	PlanCount int       `gorm:"column:plan_count;default:0" json:"plan_count"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedService model
func (CachedService) TableName() string {
	return "cached_services"
}
