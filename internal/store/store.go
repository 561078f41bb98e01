package store

import (
	"context"
	"time"

	"github.com/cloud4india/cloud-pricing/internal/store/schema"
)

// Store defines the interface for cache storage operations
type Store interface {
	// Migrate creates or updates the cache tables
	Migrate(ctx context.Context) error

	// ReplaceServices atomically replaces the cached services table.
	// It returns the number of rows written; rows that fail to insert are
	// skipped, not fatal.
	ReplaceServices(ctx context.Context, rows []schema.CachedService) (int, error)
	// ReplacePlans atomically replaces the cached plans table
	ReplacePlans(ctx context.Context, rows []schema.CachedPlan) (int, error)
	// ReplaceRateCards atomically replaces the cached rate cards table
	ReplaceRateCards(ctx context.Context, rows []schema.CachedRateCard) (int, error)
	// ReplaceBillingCycles atomically replaces the cached billing cycles table
	ReplaceBillingCycles(ctx context.Context, rows []schema.CachedBillingCycle) (int, error)
	// ReplaceProducts atomically replaces the cached products table
	ReplaceProducts(ctx context.Context, rows []schema.CachedProduct) (int, error)
	// ReplaceLicences atomically replaces the cached licences table
	ReplaceLicences(ctx context.Context, rows []schema.CachedLicence) (int, error)
	// ReplaceOperatingSystems atomically replaces the cached operating systems table
	ReplaceOperatingSystems(ctx context.Context, rows []schema.CachedOperatingSystem) (int, error)
	// ReplaceTemplates atomically replaces the cached templates table
	ReplaceTemplates(ctx context.Context, rows []schema.CachedTemplate) (int, error)
	// ReplaceStorageCategories atomically replaces the cached storage categories table
	ReplaceStorageCategories(ctx context.Context, rows []schema.CachedStorageCategory) (int, error)
	// ReplacePlanCategories atomically replaces the cached plan categories table
	ReplacePlanCategories(ctx context.Context, rows []schema.CachedPlanCategory) (int, error)
	// ReplaceUnitPricings atomically replaces the cached unit pricings table
	ReplaceUnitPricings(ctx context.Context, rows []schema.CachedUnitPricing) (int, error)

	// UpdateServicePlanCounts writes per-service plan counts after plans sync
	UpdateServicePlanCounts(ctx context.Context, counts map[int64]int) error

	// UpsertCacheMetadata records the outcome of one collection refresh
	UpsertCacheMetadata(ctx context.Context, cacheKey string, outcome schema.SyncOutcome, recordCount int, errorMessage *string, syncedAt time.Time) error
	// GetCacheMetadata returns all metadata rows ordered by cache key
	GetCacheMetadata(ctx context.Context) ([]schema.CacheMetadata, error)
	// GetLastSyncedAt returns when a cache key was last refreshed, nil if never
	GetLastSyncedAt(ctx context.Context, cacheKey string) (*time.Time, error)

	// ListServices returns cached services ordered by name
	ListServices(ctx context.Context) ([]schema.CachedService, error)
	// ListPlans returns all cached plans ordered by service name then name
	ListPlans(ctx context.Context) ([]schema.CachedPlan, error)
	// ListPlansByService returns the cached plans of one service ordered by name
	ListPlansByService(ctx context.Context, serviceName string) ([]schema.CachedPlan, error)
	// ListRateCards returns cached rate cards ordered by name
	ListRateCards(ctx context.Context) ([]schema.CachedRateCard, error)
	// ListBillingCycles returns cached billing cycles ordered by sort order
	ListBillingCycles(ctx context.Context) ([]schema.CachedBillingCycle, error)
	// ListProducts returns cached products ordered by name
	ListProducts(ctx context.Context) ([]schema.CachedProduct, error)
	// ListLicences returns cached licences ordered by name
	ListLicences(ctx context.Context) ([]schema.CachedLicence, error)
	// ListOperatingSystems returns cached operating systems ordered by name
	ListOperatingSystems(ctx context.Context) ([]schema.CachedOperatingSystem, error)
	// ListTemplates returns cached templates ordered by name
	ListTemplates(ctx context.Context) ([]schema.CachedTemplate, error)
	// ListStorageCategories returns cached storage categories ordered by name
	ListStorageCategories(ctx context.Context) ([]schema.CachedStorageCategory, error)
	// ListPlanCategories returns cached plan categories ordered by sort order
	ListPlanCategories(ctx context.Context) ([]schema.CachedPlanCategory, error)
	// ListUnitPricings returns cached unit pricings ordered by provider name
	ListUnitPricings(ctx context.Context) ([]schema.CachedUnitPricing, error)

	// TableCounts returns the row count of every cache table keyed by cache key
	TableCounts(ctx context.Context) (map[string]int64, error)

	// GetAPIConfiguration returns the singleton upstream configuration row,
	// nil when none has been saved
	GetAPIConfiguration(ctx context.Context) (*schema.APIConfiguration, error)
	// SaveAPIConfiguration creates or updates the singleton configuration row
	SaveAPIConfiguration(ctx context.Context, cfg *schema.APIConfiguration) error
	// UpdateAPIConfigTestStatus records the outcome of a connection test
	UpdateAPIConfigTestStatus(ctx context.Context, status string, testedAt time.Time) error
}
