package schema

import (
	"time"
)

// SyncOutcome records how the last refresh of one cache table went
type SyncOutcome string

const (
	// SyncPending means the table has never been refreshed
	SyncPending SyncOutcome = "pending"
	// SyncSuccess means the last refresh replaced the table
	SyncSuccess SyncOutcome = "success"
	// SyncError means the last refresh failed and the table was left untouched
	SyncError SyncOutcome = "error"
)

// Cache keys, one per cached collection
const (
	CacheKeyServices          = "services"
	CacheKeyPlans             = "plans"
	CacheKeyRateCards         = "rate_cards"
	CacheKeyBillingCycles     = "billing_cycles"
	CacheKeyProducts          = "products"
	CacheKeyLicences          = "licences"
	CacheKeyOperatingSystems  = "operating_systems"
	CacheKeyTemplates         = "templates"
	CacheKeyStorageCategories = "storage_categories"
	CacheKeyPlanCategories    = "plan_categories"
	CacheKeyUnitPricings      = "unit_pricings"
)

// CacheMetadata represents the api_cache_metadata table - one row per cached
// collection tracking when and how it was last refreshed
type CacheMetadata struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	// CacheKey identifies the cached collection (services, plans, ...)
	CacheKey string `gorm:"column:cache_key;not null;uniqueIndex" json:"cache_key"`
	// LastSyncedAt is when the collection was last refreshed successfully or not
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
	// SyncStatus is the outcome of the last refresh
	SyncStatus SyncOutcome `gorm:"column:sync_status;default:pending" json:"sync_status"`
	// RecordCount is the number of rows written by the last successful refresh
	RecordCount int `gorm:"column:record_count;default:0" json:"record_count"`
	// ErrorMessage carries the failure reason when SyncStatus is error
	ErrorMessage *string `gorm:"column:error_message" json:"error_message"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CacheMetadata model
func (CacheMetadata) TableName() string {
	return "api_cache_metadata"
}
