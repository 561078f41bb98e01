package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cloud4india/cloud-pricing/internal/logger"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(db *gorm.DB) Store {
	return &sqliteStore{db: db}
}

// OpenDB opens the SQLite database at path, creating parent directories as
// needed. The busy timeout keeps concurrent read requests from failing while
// a sync transaction holds the write lock.
func OpenDB(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the cache tables
func (s *sqliteStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&schema.CacheMetadata{},
		&schema.APIConfiguration{},
		&schema.CachedService{},
		&schema.CachedPlan{},
		&schema.CachedRateCard{},
		&schema.CachedBillingCycle{},
		&schema.CachedProduct{},
		&schema.CachedLicence{},
		&schema.CachedOperatingSystem{},
		&schema.CachedTemplate{},
		&schema.CachedStorageCategory{},
		&schema.CachedPlanCategory{},
		&schema.CachedUnitPricing{},
	)
}

// replaceRows replaces the whole table backing T inside one transaction.
// A row that fails to insert is logged and skipped so one malformed record
// cannot sink the rest of the batch.
func replaceRows[T any](ctx context.Context, db *gorm.DB, rows []T) (int, error) {
	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model T
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				logger.WarnCtx(ctx, "failed to insert cached row, skipping",
					zap.String("table", tableNameOf(tx, &model)),
					zap.Error(err))
				continue
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func tableNameOf(db *gorm.DB, model interface{}) string {
	if namer, ok := model.(interface{ TableName() string }); ok {
		return namer.TableName()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err == nil {
		return stmt.Schema.Table
	}
	return "unknown"
}

// ReplaceServices atomically replaces the cached services table
func (s *sqliteStore) ReplaceServices(ctx context.Context, rows []schema.CachedService) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplacePlans atomically replaces the cached plans table
func (s *sqliteStore) ReplacePlans(ctx context.Context, rows []schema.CachedPlan) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceRateCards atomically replaces the cached rate cards table
func (s *sqliteStore) ReplaceRateCards(ctx context.Context, rows []schema.CachedRateCard) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceBillingCycles atomically replaces the cached billing cycles table
func (s *sqliteStore) ReplaceBillingCycles(ctx context.Context, rows []schema.CachedBillingCycle) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceProducts atomically replaces the cached products table
func (s *sqliteStore) ReplaceProducts(ctx context.Context, rows []schema.CachedProduct) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceLicences atomically replaces the cached licences table
func (s *sqliteStore) ReplaceLicences(ctx context.Context, rows []schema.CachedLicence) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceOperatingSystems atomically replaces the cached operating systems table
func (s *sqliteStore) ReplaceOperatingSystems(ctx context.Context, rows []schema.CachedOperatingSystem) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceTemplates atomically replaces the cached templates table
func (s *sqliteStore) ReplaceTemplates(ctx context.Context, rows []schema.CachedTemplate) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceStorageCategories atomically replaces the cached storage categories table
func (s *sqliteStore) ReplaceStorageCategories(ctx context.Context, rows []schema.CachedStorageCategory) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplacePlanCategories atomically replaces the cached plan categories table
func (s *sqliteStore) ReplacePlanCategories(ctx context.Context, rows []schema.CachedPlanCategory) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// ReplaceUnitPricings atomically replaces the cached unit pricings table
func (s *sqliteStore) ReplaceUnitPricings(ctx context.Context, rows []schema.CachedUnitPricing) (int, error) {
	return replaceRows(ctx, s.db, rows)
}

// UpdateServicePlanCounts writes per-service plan counts after plans sync
func (s *sqliteStore) UpdateServicePlanCounts(ctx context.Context, counts map[int64]int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, count := range counts {
			if err := tx.Model(&schema.CachedService{}).
				Where("id = ?", id).
				Update("plan_count", count).Error; err != nil {
				return fmt.Errorf("failed to update plan count for service %d: %w", id, err)
			}
		}
		return nil
	})
}

// UpsertCacheMetadata records the outcome of one collection refresh
func (s *sqliteStore) UpsertCacheMetadata(ctx context.Context, cacheKey string, outcome schema.SyncOutcome, recordCount int, errorMessage *string, syncedAt time.Time) error {
	row := schema.CacheMetadata{
		CacheKey:     cacheKey,
		LastSyncedAt: &syncedAt,
		SyncStatus:   outcome,
		RecordCount:  recordCount,
		ErrorMessage: errorMessage,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_synced_at", "sync_status", "record_count", "error_message", "updated_at",
		}),
	}).Create(&row).Error
}

// GetCacheMetadata returns all metadata rows ordered by cache key
func (s *sqliteStore) GetCacheMetadata(ctx context.Context) ([]schema.CacheMetadata, error) {
	var rows []schema.CacheMetadata
	if err := s.db.WithContext(ctx).Order("cache_key").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetLastSyncedAt returns when a cache key was last refreshed, nil if never
func (s *sqliteStore) GetLastSyncedAt(ctx context.Context, cacheKey string) (*time.Time, error) {
	var row schema.CacheMetadata
	err := s.db.WithContext(ctx).Where("cache_key = ?", cacheKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.LastSyncedAt, nil
}

// ListServices returns cached services ordered by name
func (s *sqliteStore) ListServices(ctx context.Context) ([]schema.CachedService, error) {
	var rows []schema.CachedService
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPlans returns all cached plans ordered by service name then name
func (s *sqliteStore) ListPlans(ctx context.Context) ([]schema.CachedPlan, error) {
	var rows []schema.CachedPlan
	if err := s.db.WithContext(ctx).Order("service_name, name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPlansByService returns the cached plans of one service ordered by name
func (s *sqliteStore) ListPlansByService(ctx context.Context, serviceName string) ([]schema.CachedPlan, error) {
	var rows []schema.CachedPlan
	if err := s.db.WithContext(ctx).
		Where("service_name = ?", serviceName).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRateCards returns cached rate cards ordered by name
func (s *sqliteStore) ListRateCards(ctx context.Context) ([]schema.CachedRateCard, error) {
	var rows []schema.CachedRateCard
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBillingCycles returns cached billing cycles ordered by sort order
func (s *sqliteStore) ListBillingCycles(ctx context.Context) ([]schema.CachedBillingCycle, error) {
	var rows []schema.CachedBillingCycle
	if err := s.db.WithContext(ctx).Order("sort_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListProducts returns cached products ordered by name
func (s *sqliteStore) ListProducts(ctx context.Context) ([]schema.CachedProduct, error) {
	var rows []schema.CachedProduct
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLicences returns cached licences ordered by name
func (s *sqliteStore) ListLicences(ctx context.Context) ([]schema.CachedLicence, error) {
	var rows []schema.CachedLicence
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOperatingSystems returns cached operating systems ordered by name
func (s *sqliteStore) ListOperatingSystems(ctx context.Context) ([]schema.CachedOperatingSystem, error) {
	var rows []schema.CachedOperatingSystem
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListTemplates returns cached templates ordered by name
func (s *sqliteStore) ListTemplates(ctx context.Context) ([]schema.CachedTemplate, error) {
	var rows []schema.CachedTemplate
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStorageCategories returns cached storage categories ordered by name
func (s *sqliteStore) ListStorageCategories(ctx context.Context) ([]schema.CachedStorageCategory, error) {
	var rows []schema.CachedStorageCategory
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPlanCategories returns cached plan categories ordered by sort order
func (s *sqliteStore) ListPlanCategories(ctx context.Context) ([]schema.CachedPlanCategory, error) {
	var rows []schema.CachedPlanCategory
	if err := s.db.WithContext(ctx).Order("sort_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUnitPricings returns cached unit pricings ordered by provider name
func (s *sqliteStore) ListUnitPricings(ctx context.Context) ([]schema.CachedUnitPricing, error) {
	var rows []schema.CachedUnitPricing
	if err := s.db.WithContext(ctx).Order("cloud_provider_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TableCounts returns the row count of every cache table keyed by cache key
func (s *sqliteStore) TableCounts(ctx context.Context) (map[string]int64, error) {
	models := map[string]interface{}{
		schema.CacheKeyServices:          &schema.CachedService{},
		schema.CacheKeyPlans:             &schema.CachedPlan{},
		schema.CacheKeyRateCards:         &schema.CachedRateCard{},
		schema.CacheKeyBillingCycles:     &schema.CachedBillingCycle{},
		schema.CacheKeyProducts:          &schema.CachedProduct{},
		schema.CacheKeyLicences:          &schema.CachedLicence{},
		schema.CacheKeyOperatingSystems:  &schema.CachedOperatingSystem{},
		schema.CacheKeyTemplates:         &schema.CachedTemplate{},
		schema.CacheKeyStorageCategories: &schema.CachedStorageCategory{},
		schema.CacheKeyPlanCategories:    &schema.CachedPlanCategory{},
		schema.CacheKeyUnitPricings:      &schema.CachedUnitPricing{},
	}

	counts := make(map[string]int64, len(models))
	for key, model := range models {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", key, err)
		}
		counts[key] = count
	}
	return counts, nil
}

// GetAPIConfiguration returns the singleton upstream configuration row
func (s *sqliteStore) GetAPIConfiguration(ctx context.Context) (*schema.APIConfiguration, error) {
	var row schema.APIConfiguration
	err := s.db.WithContext(ctx).Where("id = ?", schema.APIConfigurationID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveAPIConfiguration creates or updates the singleton configuration row
func (s *sqliteStore) SaveAPIConfiguration(ctx context.Context, cfg *schema.APIConfiguration) error {
	cfg.ID = schema.APIConfigurationID
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "api_base_url", "api_key", "default_rate_card",
			"sync_interval_minutes", "is_enabled", "updated_at",
		}),
	}).Create(cfg).Error
}

// UpdateAPIConfigTestStatus records the outcome of a connection test
func (s *sqliteStore) UpdateAPIConfigTestStatus(ctx context.Context, status string, testedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&schema.APIConfiguration{}).
		Where("id = ?", schema.APIConfigurationID).
		Updates(map[string]interface{}{
			"test_status":    status,
			"last_tested_at": testedAt,
		}).Error
}
