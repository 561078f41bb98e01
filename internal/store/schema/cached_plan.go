package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CachedPlan represents the cached_plans table - a local copy of one upstream
// plan with its sizing attributes flattened into numeric columns
type CachedPlan struct {
	// ID is the upstream plan id
	ID int64 `gorm:"column:id;primaryKey" json:"id"`
	// ServiceName links the plan to its parent service by display name
	ServiceName string `gorm:"column:service_name;not null;index:idx_cached_plans_service_name" json:"service_name"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Slug        string `gorm:"column:slug" json:"slug"`
	Status      int    `gorm:"column:status" json:"status"`

	// Sizing columns, coerced from the free-form attribute object
	CPU             int `gorm:"column:cpu;default:0" json:"cpu"`
	Memory          int `gorm:"column:memory;default:0" json:"memory"`
	Storage         int `gorm:"column:storage;default:0" json:"storage"`
	Size            int `gorm:"column:size;default:0" json:"size"`
	Bandwidth       int `gorm:"column:bandwidth;default:0" json:"bandwidth"`
	BucketLimit     int `gorm:"column:bucket_limit;default:0" json:"bucket_limit"`
	NetworkRate     int `gorm:"column:network_rate;default:0" json:"network_rate"`
	DataTransferOut int `gorm:"column:data_transfer_out;default:0" json:"data_transfer_out"`

	HourlyPrice  float64 `gorm:"column:hourly_price;default:0" json:"hourly_price"`
	MonthlyPrice float64 `gorm:"column:monthly_price;default:0" json:"monthly_price"`
	// YearlyPrice comes from the upstream yearly cycle price when present,
	// otherwise monthly x 12 with a 10% discount
	YearlyPrice float64 `gorm:"column:yearly_price;default:0" json:"yearly_price"`

	PlanCategoryID      *int64  `gorm:"column:plan_category_id" json:"plan_category_id"`
	PlanCategoryName    *string `gorm:"column:plan_category_name" json:"plan_category_name"`
	StorageCategoryID   *int64  `gorm:"column:storage_category_id" json:"storage_category_id"`
	StorageCategoryName string  `gorm:"column:storage_category_name" json:"storage_category_name"`

	// Attribute and Prices hold the upstream objects verbatim
	Attribute datatypes.JSON `gorm:"column:attribute" json:"attribute"`
	Prices    datatypes.JSON `gorm:"column:prices" json:"prices"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedPlan model
func (CachedPlan) TableName() string {
	return "cached_plans"
}
