// Package sync refreshes the local pricing cache from the upstream catalog
// API. A run replaces each cache table wholesale inside its own transaction;
// a collection that fails to fetch leaves its table untouched and records
// the failure in the per-table metadata.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/config"
	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/logger"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/types"
	"github.com/cloud4india/cloud-pricing/internal/upstream"
)

// fetchWorkers bounds the concurrent upstream fetches for independent
// collections.
const fetchWorkers = 7

// EffectiveConfig is the upstream connection configuration a run actually
// uses: the admin-saved database row merged over the environment defaults,
// field by field.
type EffectiveConfig struct {
	BaseURL             string
	APIKey              string
	RateCard            string
	SyncIntervalMinutes int
	Enabled             bool
}

// SyncInterval returns the effective interval as a duration.
func (c EffectiveConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// Result summarizes one completed sync run.
type Result struct {
	RunID    string            `json:"run_id"`
	Duration time.Duration     `json:"duration"`
	Counts   domain.SyncCounts `json:"counts"`
	// Errors lists per-collection failures; empty on a clean run
	Errors []string `json:"errors,omitempty"`
}

// Syncer coordinates cache refresh runs. At most one run is in flight at a
// time; concurrent triggers are rejected with ErrSyncInProgress.
type Syncer struct {
	store      store.Store
	httpClient adapter.HTTPClient
	clock      adapter.Clock
	envCfg     config.UpstreamConfig

	running atomic.Bool

	mu     gosync.Mutex
	status domain.SyncStatus
}

// New creates a syncer. The HTTP client is shared across runs; the upstream
// client itself is rebuilt per run because the admin configuration can
// change between runs.
func New(s store.Store, httpClient adapter.HTTPClient, clock adapter.Clock, envCfg config.UpstreamConfig) *Syncer {
	return &Syncer{
		store:      s,
		httpClient: httpClient,
		clock:      clock,
		envCfg:     envCfg,
		status:     domain.SyncStatus{State: domain.SyncStateIdle},
	}
}

// Status returns a snapshot of the in-memory run state.
func (s *Syncer) Status() domain.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// EffectiveConfig resolves the configuration for the next run. A database
// row saved from the admin endpoints wins field by field over the
// environment defaults; an unreadable row falls back to the environment.
func (s *Syncer) EffectiveConfig(ctx context.Context) EffectiveConfig {
	cfg := EffectiveConfig{
		BaseURL:             s.envCfg.BaseURL,
		APIKey:              s.envCfg.APIKey,
		RateCard:            s.envCfg.DefaultRateCard,
		SyncIntervalMinutes: s.envCfg.SyncIntervalMinutes,
		Enabled:             true,
	}

	row, err := s.store.GetAPIConfiguration(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read upstream configuration, using environment defaults", zap.Error(err))
		return cfg
	}
	if row == nil {
		return cfg
	}

	if row.APIBaseURL != "" {
		cfg.BaseURL = row.APIBaseURL
	}
	if row.APIKey != "" {
		cfg.APIKey = row.APIKey
	}
	if row.DefaultRateCard != "" {
		cfg.RateCard = row.DefaultRateCard
	}
	if row.SyncIntervalMinutes > 0 {
		cfg.SyncIntervalMinutes = row.SyncIntervalMinutes
	}
	cfg.Enabled = row.IsEnabled
	return cfg
}

// ShouldSync reports whether the cache is stale. Freshness is judged from
// the services collection alone: it is the anchor collection every run
// refreshes, so its timestamp tracks the run cadence.
func (s *Syncer) ShouldSync(ctx context.Context, maxAge time.Duration) bool {
	last, err := s.store.GetLastSyncedAt(ctx, schema.CacheKeyServices)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read last sync time, assuming stale", zap.Error(err))
		return true
	}
	if last == nil {
		return true
	}
	return s.clock.Since(*last) >= maxAge
}

// runState accumulates per-collection outcomes across the worker pool.
type runState struct {
	mu     gosync.Mutex
	counts domain.SyncCounts
	errs   []string
}

func (r *runState) fail(cacheKey string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, fmt.Sprintf("%s: %v", cacheKey, err))
}

// SyncAll performs one full cache refresh. Category collections are
// refreshed first because plans resolve category names through them, then
// the independent collections are fetched concurrently, then services and
// finally plans, which need the service list.
func (s *Syncer) SyncAll(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSyncInProgress
	}
	defer s.running.Store(false)

	cfg := s.EffectiveConfig(ctx)
	if !cfg.Enabled {
		logger.InfoCtx(ctx, "catalog sync is disabled, skipping run")
		return nil, domain.ErrSyncDisabled
	}

	runID := uuid.NewString()
	start := s.clock.Now()

	if cfg.APIKey == "" {
		s.markNoAPIKey(ctx, runID, start)
		return nil, domain.ErrNoAPIKey
	}

	s.setRunning(runID, start)
	logger.InfoCtx(ctx, "starting catalog sync",
		zap.String("run_id", runID),
		zap.String("base_url", cfg.BaseURL),
		zap.String("rate_card", cfg.RateCard))

	client := upstream.NewClient(s.httpClient, cfg.BaseURL, cfg.APIKey)
	state := &runState{}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("catalog sync panicked: %v", r), zap.String("run_id", runID))
			s.finish(runID, start, state, false, fmt.Sprintf("panic: %v", r))
		}
	}()

	// Categories first: plans resolve names through them.
	storageCategories := s.syncStorageCategories(ctx, client, state)
	planCategories := s.syncPlanCategories(ctx, client, state)

	// Independent collections in parallel.
	pool := pond.NewPool(fetchWorkers, pond.WithContext(ctx))
	pool.Submit(func() { s.syncRateCards(ctx, client, state) })
	pool.Submit(func() { s.syncBillingCycles(ctx, client, state) })
	pool.Submit(func() { s.syncProducts(ctx, client, cfg.RateCard, state) })
	pool.Submit(func() { s.syncLicences(ctx, client, cfg.RateCard, state) })
	pool.Submit(func() { s.syncOperatingSystems(ctx, client, state) })
	pool.Submit(func() { s.syncTemplates(ctx, client, state) })
	pool.Submit(func() { s.syncUnitPricings(ctx, client, cfg.RateCard, state) })
	pool.StopAndWait()

	// Services, then the plans that hang off them.
	services := s.syncServices(ctx, client, state)
	s.syncPlans(ctx, client, cfg.RateCard, services, storageCategories, planCategories, state)

	ok := len(state.errs) == 0
	lastError := ""
	if !ok {
		lastError = fmt.Sprintf("%d of %d collections failed", len(state.errs), 11)
	}
	s.finish(runID, start, state, ok, lastError)

	result := &Result{
		RunID:    runID,
		Duration: s.clock.Since(start),
		Counts:   state.counts,
		Errors:   state.errs,
	}
	logger.InfoCtx(ctx, "catalog sync finished",
		zap.String("run_id", runID),
		zap.Duration("duration", result.Duration),
		zap.Int("failed_collections", len(state.errs)))
	return result, nil
}

func (s *Syncer) setRunning(runID string, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = domain.SyncStateRunning
	s.status.RunID = runID
	s.status.StartedAt = &start
	s.status.FinishedAt = nil
	s.status.LastError = ""
}

func (s *Syncer) finish(runID string, start time.Time, state *runState, ok bool, lastError string) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.RunID = runID
	s.status.StartedAt = &start
	s.status.FinishedAt = &now
	s.status.Counts = state.counts
	if ok {
		s.status.State = domain.SyncStateSucceeded
		s.status.LastSuccessAt = &now
		s.status.LastError = ""
	} else {
		s.status.State = domain.SyncStateFailed
		s.status.LastError = lastError
	}
}

// markNoAPIKey records the missing credential against every collection so
// the sync status endpoint explains why nothing is refreshing. Cache tables
// are left untouched.
func (s *Syncer) markNoAPIKey(ctx context.Context, runID string, start time.Time) {
	logger.WarnCtx(ctx, "no upstream API key configured, skipping catalog sync", zap.String("run_id", runID))

	msg := domain.ErrNoAPIKey.Error()
	now := s.clock.Now()
	for _, key := range []string{
		schema.CacheKeyServices, schema.CacheKeyPlans, schema.CacheKeyRateCards,
		schema.CacheKeyBillingCycles, schema.CacheKeyProducts, schema.CacheKeyLicences,
		schema.CacheKeyOperatingSystems, schema.CacheKeyTemplates,
		schema.CacheKeyStorageCategories, schema.CacheKeyPlanCategories,
		schema.CacheKeyUnitPricings,
	} {
		if err := s.store.UpsertCacheMetadata(ctx, key, schema.SyncError, 0, &msg, now); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("cache_key", key))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = domain.SyncStateFailed
	s.status.RunID = runID
	s.status.StartedAt = &start
	s.status.FinishedAt = &now
	s.status.LastError = msg
	s.status.Counts = domain.SyncCounts{}
}

// recordFailure marks one collection failed without touching its cache
// table.
func (s *Syncer) recordFailure(ctx context.Context, state *runState, cacheKey string, err error) {
	logger.ErrorCtx(ctx, err, zap.String("cache_key", cacheKey))
	state.fail(cacheKey, err)

	msg := err.Error()
	if metaErr := s.store.UpsertCacheMetadata(ctx, cacheKey, schema.SyncError, 0, &msg, s.clock.Now()); metaErr != nil {
		logger.ErrorCtx(ctx, metaErr, zap.String("cache_key", cacheKey))
	}
}

func (s *Syncer) recordSuccess(ctx context.Context, cacheKey string, count int) {
	logger.InfoCtx(ctx, "collection synced", zap.String("cache_key", cacheKey), zap.Int("records", count))
	if err := s.store.UpsertCacheMetadata(ctx, cacheKey, schema.SyncSuccess, count, nil, s.clock.Now()); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("cache_key", cacheKey))
	}
}

// syncStorageCategories refreshes the storage categories table and returns
// an id->name lookup for the plans sync.
func (s *Syncer) syncStorageCategories(ctx context.Context, client upstream.Client, state *runState) map[int64]string {
	categories, err := client.ListStorageCategories(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyStorageCategories, err)
		return map[int64]string{}
	}

	rows := storageCategoryRows(categories)
	n, err := s.store.ReplaceStorageCategories(ctx, rows)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyStorageCategories, err)
		return map[int64]string{}
	}
	s.recordSuccess(ctx, schema.CacheKeyStorageCategories, n)
	state.counts.StorageCategories = n

	lookup := make(map[int64]string, len(rows))
	for _, row := range rows {
		lookup[row.ID] = row.Name
	}
	return lookup
}

// syncPlanCategories refreshes the plan categories table and returns an
// id->name lookup for the plans sync.
func (s *Syncer) syncPlanCategories(ctx context.Context, client upstream.Client, state *runState) map[int64]string {
	categories, err := client.ListPlanCategories(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyPlanCategories, err)
		return map[int64]string{}
	}

	rows := planCategoryRows(categories)
	n, err := s.store.ReplacePlanCategories(ctx, rows)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyPlanCategories, err)
		return map[int64]string{}
	}
	s.recordSuccess(ctx, schema.CacheKeyPlanCategories, n)
	state.counts.PlanCategories = n

	lookup := make(map[int64]string, len(rows))
	for _, row := range rows {
		lookup[row.ID] = row.Name
	}
	return lookup
}

func (s *Syncer) syncRateCards(ctx context.Context, client upstream.Client, state *runState) {
	cards, err := client.ListRateCards(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyRateCards, err)
		return
	}
	n, err := s.store.ReplaceRateCards(ctx, rateCardRows(cards))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyRateCards, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyRateCards, n)
	state.counts.RateCards = n
}

func (s *Syncer) syncBillingCycles(ctx context.Context, client upstream.Client, state *runState) {
	cycles, err := client.ListBillingCycles(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyBillingCycles, err)
		return
	}
	n, err := s.store.ReplaceBillingCycles(ctx, billingCycleRows(cycles))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyBillingCycles, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyBillingCycles, n)
	state.counts.BillingCycles = n
}

func (s *Syncer) syncProducts(ctx context.Context, client upstream.Client, rateCard string, state *runState) {
	products, err := client.ListProducts(ctx, rateCard)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyProducts, err)
		return
	}
	n, err := s.store.ReplaceProducts(ctx, productRows(products))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyProducts, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyProducts, n)
	state.counts.Products = n
}

func (s *Syncer) syncLicences(ctx context.Context, client upstream.Client, rateCard string, state *runState) {
	licences, err := client.ListLicences(ctx, rateCard)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyLicences, err)
		return
	}
	n, err := s.store.ReplaceLicences(ctx, licenceRows(licences))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyLicences, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyLicences, n)
	state.counts.Licences = n
}

func (s *Syncer) syncOperatingSystems(ctx context.Context, client upstream.Client, state *runState) {
	oses, err := client.ListOperatingSystems(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyOperatingSystems, err)
		return
	}
	n, err := s.store.ReplaceOperatingSystems(ctx, operatingSystemRows(oses))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyOperatingSystems, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyOperatingSystems, n)
	state.counts.OperatingSystems = n
}

func (s *Syncer) syncTemplates(ctx context.Context, client upstream.Client, state *runState) {
	templates, err := client.ListTemplates(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyTemplates, err)
		return
	}
	n, err := s.store.ReplaceTemplates(ctx, templateRows(templates))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyTemplates, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyTemplates, n)
	state.counts.Templates = n
}

func (s *Syncer) syncUnitPricings(ctx context.Context, client upstream.Client, rateCard string, state *runState) {
	unitPricings, err := client.ListUnitPricings(ctx, rateCard)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyUnitPricings, err)
		return
	}
	n, err := s.store.ReplaceUnitPricings(ctx, unitPricingRows(unitPricings))
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyUnitPricings, err)
		return
	}
	s.recordSuccess(ctx, schema.CacheKeyUnitPricings, n)
	state.counts.UnitPricings = n
}

// syncServices refreshes the services table and returns the written rows;
// the plans sync iterates them.
func (s *Syncer) syncServices(ctx context.Context, client upstream.Client, state *runState) []schema.CachedService {
	services, err := client.ListServices(ctx)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyServices, err)
		return nil
	}

	rows := serviceRows(services)
	n, err := s.store.ReplaceServices(ctx, rows)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyServices, err)
		return nil
	}
	s.recordSuccess(ctx, schema.CacheKeyServices, n)
	state.counts.Services = n
	return rows
}

// syncPlans fetches every service's plans under the run's rate card, then
// replaces the plans table and backfills per-service plan counts. A fetch
// failure for any service aborts the replacement so the table is never left
// partially refreshed.
func (s *Syncer) syncPlans(ctx context.Context, client upstream.Client, rateCard string, services []schema.CachedService, storageCategories, planCategories map[int64]string, state *runState) {
	if services == nil {
		s.recordFailure(ctx, state, schema.CacheKeyPlans, fmt.Errorf("services sync failed, plans skipped"))
		return
	}

	var allPlans []schema.CachedPlan
	planCounts := make(map[int64]int, len(services))

	for _, svc := range services {
		plans, err := client.ListPlans(ctx, svc.Name, rateCard)
		if err != nil {
			s.recordFailure(ctx, state, schema.CacheKeyPlans, fmt.Errorf("service %q: %w", svc.Name, err))
			return
		}

		count := 0
		for _, plan := range plans {
			if !types.Truthy(plan.Status) {
				continue
			}
			allPlans = append(allPlans, planRow(svc.Name, plan, storageCategories, planCategories))
			count++
		}
		planCounts[svc.ID] = count
	}

	n, err := s.store.ReplacePlans(ctx, allPlans)
	if err != nil {
		s.recordFailure(ctx, state, schema.CacheKeyPlans, err)
		return
	}
	if err := s.store.UpdateServicePlanCounts(ctx, planCounts); err != nil {
		logger.ErrorCtx(ctx, err)
	}
	s.recordSuccess(ctx, schema.CacheKeyPlans, n)
	state.counts.Plans = n
}
