package sync_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/config"
	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/sync"
)

const testAPIKey = "test-key"

// fakePortal serves a small but complete catalog in the upstream wire
// format.
type fakePortal struct {
	t *testing.T
	// failPaths maps URL paths to forced HTTP status codes
	failPaths map[string]int
	// block, when non-nil, stalls the storage categories endpoint until closed
	block chan struct{}
}

func (f *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("Authorization"); got != "Bearer "+testAPIKey {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "unauthenticated"}`)
		return
	}

	if code, ok := f.failPaths[r.URL.Path]; ok {
		w.WriteHeader(code)
		fmt.Fprint(w, `{"message": "forced failure"}`)
		return
	}

	var body string
	switch r.URL.Path {
	case "/admin/cloud-provider-services":
		body = `[
			{"id": 1, "name": "Virtual Machine", "slug": "virtual-machine", "status": true, "billing_rule": "hourly", "config": {"region": "in-west"}},
			{"id": 2, "name": "Object Storage", "slug": "object-storage", "status": 1}
		]`
	case "/admin/plans/service/Virtual Machine":
		body = `[
			{"id": 10, "name": "VM-2", "slug": "vm-2", "status": true, "monthly_price": 100,
			 "attribute": {"cpu": "2 vCPU", "memory": 4, "storage": "80GB"},
			 "prices": [{"id": 1, "amount": "100", "billing_cycle": {"id": 1, "slug": "monthly"}}]},
			{"id": 11, "name": "VM-4", "slug": "vm-4", "status": true, "monthly_price": "200",
			 "attribute": {"cpu": 4, "memory": 8},
			 "prices": [{"id": 2, "amount": "2000", "billing_cycle": {"id": 2, "slug": "yearly"}}]},
			{"id": 12, "name": "VM-8 retired", "slug": "vm-8", "status": false, "monthly_price": 400}
		]`
	case "/admin/plans/service/Object Storage":
		body = `[
			{"id": 20, "name": "100GB", "slug": "100gb", "status": true, "monthly_price": 50,
			 "storage_category_id": 7, "attribute": {}}
		]`
	case "/admin/rate-cards":
		body = `[{"id": 1, "name": "Default", "slug": "default", "status": true, "default": true, "card_type": "public"}]`
	case "/admin/billing-cycles":
		body = `[
			{"id": 1, "name": "Monthly", "slug": "monthly", "duration": 1, "unit": "month", "is_enabled": true, "sort_order": 1},
			{"id": 2, "name": "Yearly", "slug": "yearly", "duration": 12, "unit": "month", "is_enabled": true, "sort_order": 2}
		]`
	case "/admin/products":
		body = `[{"id": 1, "name": "Monitoring Agent", "slug": "monitoring-agent", "status": true,
			"prices": [{"id": 3, "amount": "75", "billing_cycle": {"id": 1, "slug": "monthly"}}]}]`
	case "/admin/licences":
		body = `[{"id": 1, "name": "Windows Server", "slug": "windows-server", "pricing_unit": "per_core",
			"status": true, "prices": [{"id": 4, "price": "450"}]}]`
	case "/admin/operating-systems":
		body = `[{"id": 1, "name": "Ubuntu", "slug": "ubuntu", "status": true}]`
	case "/admin/templates":
		body = `[{"id": 1, "name": "Ubuntu 24.04", "slug": "ubuntu-2404", "os_type": "linux",
			"image_type": "os", "operating_system_id": 1, "operating_system": {"id": 1, "name": "Ubuntu"}, "status": true}]`
	case "/admin/storage-categories":
		if f.block != nil {
			<-f.block
		}
		body = `[{"id": 7, "name": "SSD", "slug": "ssd", "status": true}]`
	case "/admin/plan-categories":
		body = `[{"id": 3, "name": "General Purpose", "slug": "general-purpose", "short_name": "GP", "status": true, "sort_order": 1}]`
	case "/admin/unit-pricings":
		body = `[{"id": "up-1", "cloud_provider_id": 4, "region_id": 2,
			"cloud_provider": {"id": 4, "name": "Cloud4India"},
			"region": {"id": 2, "name": "Mumbai"},
			"unit_pricing_currencies": [{"cpu": "350", "memory": "120", "storage": "8",
				"currency": {"id": 1, "code": "INR", "name": "Indian Rupee"}}]}]`
	default:
		f.t.Errorf("unexpected request path: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data": %s}`, body)
}

type testEnv struct {
	store  store.Store
	syncer *sync.Syncer
	server *httptest.Server
}

func newTestEnv(t *testing.T, portal *fakePortal) *testEnv {
	t.Helper()
	portal.t = t

	server := httptest.NewServer(portal)
	t.Cleanup(server.Close)

	db, err := store.OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	s := store.NewSQLiteStore(db)
	require.NoError(t, s.Migrate(context.Background()))

	envCfg := config.UpstreamConfig{
		BaseURL:             server.URL,
		APIKey:              testAPIKey,
		DefaultRateCard:     "default",
		SyncIntervalMinutes: 15,
		HTTPTimeout:         5 * time.Second,
	}

	syncer := sync.New(s, adapter.NewHTTPClient(envCfg.HTTPTimeout), adapter.NewClock(), envCfg)
	return &testEnv{store: s, syncer: syncer, server: server}
}

func TestSyncAllEndToEnd(t *testing.T) {
	env := newTestEnv(t, &fakePortal{})
	ctx := context.Background()

	result, err := env.syncer.SyncAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, domain.SyncCounts{
		Services:          2,
		Plans:             3,
		RateCards:         1,
		BillingCycles:     2,
		Products:          1,
		Licences:          1,
		OperatingSystems:  1,
		Templates:         1,
		StorageCategories: 1,
		PlanCategories:    1,
		UnitPricings:      1,
	}, result.Counts)

	// Plan counts are backfilled onto services
	services, err := env.store.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Object Storage", services[0].Name)
	assert.Equal(t, 1, services[0].PlanCount)
	assert.Equal(t, 2, services[1].PlanCount)
	assert.Equal(t, "compute", string(services[1].Category))

	// The inactive plan was filtered, the yearly fallback applied
	plans, err := env.store.ListPlansByService(ctx, "Virtual Machine")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "VM-2", plans[0].Name)
	assert.Equal(t, 2, plans[0].CPU)
	assert.InDelta(t, 1080.0, plans[0].YearlyPrice, 0.001)
	assert.InDelta(t, 2000.0, plans[1].YearlyPrice, 0.001)

	// Category names resolved through the lookup, defaulting when unknown
	osPlans, err := env.store.ListPlansByService(ctx, "Object Storage")
	require.NoError(t, err)
	require.Len(t, osPlans, 1)
	assert.Equal(t, "SSD", osPlans[0].StorageCategoryName)

	unitPricings, err := env.store.ListUnitPricings(ctx)
	require.NoError(t, err)
	require.Len(t, unitPricings, 1)
	assert.Equal(t, "up-1", unitPricings[0].ID)
	assert.Equal(t, 350.0, unitPricings[0].CPUPrice)

	// Every collection recorded a success
	metadata, err := env.store.GetCacheMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metadata, 11)
	for _, m := range metadata {
		assert.Equal(t, schema.SyncSuccess, m.SyncStatus, m.CacheKey)
	}

	status := env.syncer.Status()
	assert.Equal(t, domain.SyncStateSucceeded, status.State)
	assert.NotNil(t, status.LastSuccessAt)
	assert.False(t, status.IsRunning())

	// Cache is fresh now
	assert.False(t, env.syncer.ShouldSync(ctx, 15*time.Minute))

	// A second run replaces everything without duplicating rows
	result, err = env.syncer.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Counts.Services)

	services, err = env.store.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestSyncAllPartialFailureLeavesOtherTablesAlone(t *testing.T) {
	env := newTestEnv(t, &fakePortal{
		failPaths: map[string]int{"/admin/storage-categories": http.StatusInternalServerError},
	})
	ctx := context.Background()

	result, err := env.syncer.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], schema.CacheKeyStorageCategories)

	// The failed collection stays empty, everything else synced
	counts, err := env.store.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[schema.CacheKeyStorageCategories])
	assert.Equal(t, int64(2), counts[schema.CacheKeyServices])
	assert.Equal(t, int64(3), counts[schema.CacheKeyPlans])

	// Plans fall back to the default storage category name
	plans, err := env.store.ListPlansByService(ctx, "Object Storage")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "NVMe", plans[0].StorageCategoryName)

	metadata, err := env.store.GetCacheMetadata(ctx)
	require.NoError(t, err)
	outcomes := map[string]schema.SyncOutcome{}
	for _, m := range metadata {
		outcomes[m.CacheKey] = m.SyncStatus
	}
	assert.Equal(t, schema.SyncError, outcomes[schema.CacheKeyStorageCategories])
	assert.Equal(t, schema.SyncSuccess, outcomes[schema.CacheKeyPlans])

	assert.Equal(t, domain.SyncStateFailed, env.syncer.Status().State)
}

func TestSyncAllServicesFailureSkipsPlans(t *testing.T) {
	env := newTestEnv(t, &fakePortal{
		failPaths: map[string]int{"/admin/cloud-provider-services": http.StatusBadGateway},
	})
	ctx := context.Background()

	result, err := env.syncer.SyncAll(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Errors, 2)

	counts, err := env.store.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[schema.CacheKeyServices])
	assert.Equal(t, int64(0), counts[schema.CacheKeyPlans])
	assert.Equal(t, int64(1), counts[schema.CacheKeyRateCards])
}

func TestSyncAllRejectsConcurrentRuns(t *testing.T) {
	portal := &fakePortal{block: make(chan struct{})}
	env := newTestEnv(t, portal)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := env.syncer.SyncAll(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return env.syncer.Status().IsRunning()
	}, 2*time.Second, 5*time.Millisecond)

	_, err := env.syncer.SyncAll(ctx)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(portal.block)
	require.NoError(t, <-done)

	// The lock is released after the run finishes
	_, err = env.syncer.SyncAll(ctx)
	require.NoError(t, err)
}

func TestSyncAllNoAPIKeyDegradesGracefully(t *testing.T) {
	env := newTestEnv(t, &fakePortal{})
	ctx := context.Background()

	// Seed the cache, then wipe the credential via the admin configuration
	_, err := env.syncer.SyncAll(ctx)
	require.NoError(t, err)

	// A keyless environment whose credential comes from the admin row alone.
	emptyEnvSyncer := sync.New(env.store, adapter.NewHTTPClient(time.Second), adapter.NewClock(), config.UpstreamConfig{
		BaseURL:             env.server.URL,
		APIKey:              "",
		DefaultRateCard:     "default",
		SyncIntervalMinutes: 15,
	})

	require.NoError(t, env.store.SaveAPIConfiguration(ctx, &schema.APIConfiguration{
		APIBaseURL: env.server.URL,
		APIKey:     testAPIKey,
		IsEnabled:  true,
	}))
	_, err = emptyEnvSyncer.SyncAll(ctx)
	require.NoError(t, err)
	require.NotZero(t, emptyEnvSyncer.Status().Counts.Services)

	// Wipe the credential; the env has none to fall back to.
	require.NoError(t, env.store.SaveAPIConfiguration(ctx, &schema.APIConfiguration{
		APIBaseURL: env.server.URL,
		APIKey:     "",
		IsEnabled:  true,
	}))

	_, err = emptyEnvSyncer.SyncAll(ctx)
	assert.ErrorIs(t, err, domain.ErrNoAPIKey)

	// Cached rows survive, metadata flags the missing key everywhere
	counts, err := env.store.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[schema.CacheKeyServices])

	metadata, err := env.store.GetCacheMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metadata, 11)
	for _, m := range metadata {
		assert.Equal(t, schema.SyncError, m.SyncStatus, m.CacheKey)
		require.NotNil(t, m.ErrorMessage)
	}

	status := emptyEnvSyncer.Status()
	assert.Equal(t, domain.SyncStateFailed, status.State)
	assert.Equal(t, domain.ErrNoAPIKey.Error(), status.LastError)
	// The earlier run's counts must not linger on the failed snapshot.
	assert.Equal(t, domain.SyncCounts{}, status.Counts)
}

func TestSyncAllDisabledConfiguration(t *testing.T) {
	env := newTestEnv(t, &fakePortal{})
	ctx := context.Background()

	require.NoError(t, env.store.SaveAPIConfiguration(ctx, &schema.APIConfiguration{
		IsEnabled: false,
	}))

	_, err := env.syncer.SyncAll(ctx)
	assert.ErrorIs(t, err, domain.ErrSyncDisabled)

	counts, err := env.store.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[schema.CacheKeyServices])
}

func TestEffectiveConfigMergesDatabaseOverEnvironment(t *testing.T) {
	env := newTestEnv(t, &fakePortal{})
	ctx := context.Background()

	cfg := env.syncer.EffectiveConfig(ctx)
	assert.Equal(t, env.server.URL, cfg.BaseURL)
	assert.Equal(t, testAPIKey, cfg.APIKey)
	assert.Equal(t, "default", cfg.RateCard)
	assert.True(t, cfg.Enabled)

	require.NoError(t, env.store.SaveAPIConfiguration(ctx, &schema.APIConfiguration{
		APIBaseURL:          "https://other.example.com/api",
		DefaultRateCard:     "enterprise",
		SyncIntervalMinutes: 30,
		IsEnabled:           true,
	}))

	cfg = env.syncer.EffectiveConfig(ctx)
	assert.Equal(t, "https://other.example.com/api", cfg.BaseURL)
	// Empty DB fields fall back to the environment
	assert.Equal(t, testAPIKey, cfg.APIKey)
	assert.Equal(t, "enterprise", cfg.RateCard)
	assert.Equal(t, 30, cfg.SyncIntervalMinutes)
	assert.Equal(t, 30*time.Minute, cfg.SyncInterval())
}

func TestShouldSync(t *testing.T) {
	env := newTestEnv(t, &fakePortal{})
	ctx := context.Background()

	// Never synced
	assert.True(t, env.syncer.ShouldSync(ctx, 15*time.Minute))

	// Stale timestamp
	old := time.Now().Add(-time.Hour)
	require.NoError(t, env.store.UpsertCacheMetadata(ctx, schema.CacheKeyServices, schema.SyncSuccess, 5, nil, old))
	assert.True(t, env.syncer.ShouldSync(ctx, 15*time.Minute))

	// Fresh timestamp
	require.NoError(t, env.store.UpsertCacheMetadata(ctx, schema.CacheKeyServices, schema.SyncSuccess, 5, nil, time.Now()))
	assert.False(t, env.syncer.ShouldSync(ctx, 15*time.Minute))

	// Staleness is judged from the services key alone
	require.NoError(t, env.store.UpsertCacheMetadata(ctx, schema.CacheKeyPlans, schema.SyncSuccess, 5, nil, old))
	assert.False(t, env.syncer.ShouldSync(ctx, 15*time.Minute))
}
