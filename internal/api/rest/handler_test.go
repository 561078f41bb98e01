package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/api/middleware"
	"github.com/cloud4india/cloud-pricing/internal/api/rest"
	"github.com/cloud4india/cloud-pricing/internal/config"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/sync"
)

const testAdminKey = "admin-secret"

type testEnv struct {
	router *gin.Engine
	store  store.Store
	syncer *sync.Syncer
}

// newTestEnv wires a router against a file-backed store and the given
// upstream base URL.
func newTestEnv(t *testing.T, upstreamURL, upstreamKey string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	s := store.NewSQLiteStore(db)
	require.NoError(t, s.Migrate(context.Background()))

	httpClient := adapter.NewHTTPClient(5 * time.Second)
	clock := adapter.NewClock()
	syncer := sync.New(s, httpClient, clock, config.UpstreamConfig{
		BaseURL:             upstreamURL,
		APIKey:              upstreamKey,
		DefaultRateCard:     "default",
		SyncIntervalMinutes: 15,
	})

	router := gin.New()
	handler := rest.NewHandler(s, syncer, httpClient, clock)
	rest.SetupRoutes(router, handler, middleware.AuthConfig{APIKeys: []string{testAdminKey}})

	return &testEnv{router: router, store: s, syncer: syncer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+apiKey)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func seedCatalog(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.ReplaceServices(ctx, []schema.CachedService{
		{ID: 1, Name: "Virtual Machine", Slug: "virtual-machine", Category: "compute", Status: 1, PlanCount: 2},
		{ID: 2, Name: "Object Storage", Slug: "object-storage", Category: "storage", Status: 1},
	})
	require.NoError(t, err)

	_, err = s.ReplacePlans(ctx, []schema.CachedPlan{
		{ID: 11, ServiceName: "Virtual Machine", Name: "VM-2", Slug: "vm-2", CPU: 2, Memory: 4, MonthlyPrice: 100},
		{ID: 12, ServiceName: "Virtual Machine", Name: "VM-4", Slug: "vm-4", CPU: 4, Memory: 8, MonthlyPrice: 200},
	})
	require.NoError(t, err)

	syncedAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertCacheMetadata(ctx, schema.CacheKeyServices, schema.SyncSuccess, 2, nil, syncedAt))
	require.NoError(t, s.UpsertCacheMetadata(ctx, schema.CacheKeyPlans, schema.SyncSuccess, 2, nil, syncedAt.Add(time.Minute)))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestListServices(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")
	seedCatalog(t, env.store)

	w := env.do(t, http.MethodGet, "/api/v1/pricing/services", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var services []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &services))
	require.Len(t, services, 2)
	// Ordered by name.
	assert.Equal(t, "Object Storage", services[0]["name"])
	assert.Equal(t, "Virtual Machine", services[1]["name"])
	assert.Equal(t, float64(2), services[1]["plan_count"])
}

func TestListPlansByService(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")
	seedCatalog(t, env.store)

	w := env.do(t, http.MethodGet, "/api/v1/pricing/plans/Virtual%20Machine", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var plans []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "VM-2", plans[0]["name"])
	assert.Equal(t, "VM-4", plans[1]["name"])
}

func TestListPlansByServiceUnknownServiceReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")
	seedCatalog(t, env.store)

	w := env.do(t, http.MethodGet, "/api/v1/pricing/plans/Nonexistent", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetAllDataServesCache(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")
	seedCatalog(t, env.store)

	w := env.do(t, http.MethodGet, "/api/v1/pricing/data", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	services, ok := body["services"].([]any)
	require.True(t, ok)
	assert.Len(t, services, 2)

	plans, ok := body["plans"].(map[string]any)
	require.True(t, ok)
	vmPlans, ok := plans["Virtual Machine"].([]any)
	require.True(t, ok)
	assert.Len(t, vmPlans, 2)

	// Most recent metadata timestamp wins.
	assert.Equal(t, "2026-08-29T10:01:00Z", body["last_fetched"])
}

func TestGetAllDataEmptyCacheSyncFailureReturns503(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL, "some-key")

	w := env.do(t, http.MethodGet, "/api/v1/pricing/data", nil, "")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody(t, w)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "service_unavailable", errBody["code"])
}

func TestGetSyncStatus(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")
	seedCatalog(t, env.store)

	w := env.do(t, http.MethodGet, "/api/v1/pricing/sync-status", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["is_running"])
	assert.Equal(t, true, body["is_enabled"])
	assert.Equal(t, float64(15), body["sync_interval_minutes"])

	tables, ok := body["tables"].(map[string]any)
	require.True(t, ok)
	require.Len(t, tables, 11)

	servicesTable, ok := tables["services"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), servicesTable["count"])
	assert.Equal(t, "success", servicesTable["status"])

	// Collections without metadata report pending.
	productsTable, ok := tables["products"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), productsTable["count"])
	assert.Equal(t, "pending", productsTable["status"])
}

func TestTriggerSyncRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPost, "/api/v1/pricing/sync", nil, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unauthorized", errBody["code"])
}

func TestTriggerSyncWithoutUpstreamKeyReturns503(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPost, "/api/v1/pricing/sync", nil, testAdminKey)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminConfigRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodGet, "/api/v1/admin/upstream-config", nil, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminConfigRoundTrip(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	update := map[string]any{
		"api_base_url":          "https://portal.example.com/api",
		"api_key":               "secret-key-9876",
		"sync_interval_minutes": 30,
		"is_enabled":            false,
	}
	w := env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", update, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/admin/upstream-config", nil, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	assert.Equal(t, "https://portal.example.com/api", body["api_base_url"])
	assert.Equal(t, "****9876", body["api_key_masked"])
	assert.Equal(t, true, body["has_api_key"])
	assert.Equal(t, float64(30), body["sync_interval_minutes"])
	assert.Equal(t, false, body["is_enabled"])

	// The raw key never leaves the server.
	assert.NotContains(t, w.Body.String(), "secret-key-9876")
}

func TestUpdateUpstreamConfigPartialUpdateKeepsOtherFields(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", map[string]any{
		"api_key":               "secret-key-9876",
		"sync_interval_minutes": 30,
	}, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", map[string]any{
		"is_enabled": false,
	}, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/upstream-config", nil, testAdminKey)
	body := decodeBody(t, w)
	assert.Equal(t, "****9876", body["api_key_masked"])
	assert.Equal(t, float64(30), body["sync_interval_minutes"])
	assert.Equal(t, false, body["is_enabled"])
}

func TestUpdateUpstreamConfigRejectsEmptyBody(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", map[string]any{}, testAdminKey)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "No fields to update", errBody["message"])
}

func TestUpdateUpstreamConfigRejectsNonPositiveInterval(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", map[string]any{
		"sync_interval_minutes": 0,
	}, testAdminKey)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestUpstreamConnectionSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer probe-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/admin/cloud-provider-services", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"id": 1, "name": "Virtual Machine"}]}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPost, "/api/v1/admin/upstream-config/test", map[string]any{
		"api_base_url": upstream.URL,
		"api_key":      "probe-key",
	}, testAdminKey)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["service_count"])

	row, err := env.store.GetAPIConfiguration(context.Background())
	require.NoError(t, err)
	if row != nil && row.TestStatus != nil {
		assert.Equal(t, "success", *row.TestStatus)
	}
}

func TestTestUpstreamConnectionFailureIsRecorded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL, "bad-key")

	// Save a config row so the test outcome has somewhere to land.
	w := env.do(t, http.MethodPut, "/api/v1/admin/upstream-config", map[string]any{
		"api_key": "bad-key",
	}, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/upstream-config/test", nil, testAdminKey)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	row, err := env.store.GetAPIConfiguration(context.Background())
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotNil(t, row.TestStatus)
	assert.Equal(t, "failed", *row.TestStatus)
	assert.NotNil(t, row.LastTestedAt)
}

func TestTestUpstreamConnectionWithoutKey(t *testing.T) {
	env := newTestEnv(t, "http://unused", "")

	w := env.do(t, http.MethodPost, "/api/v1/admin/upstream-config/test", nil, testAdminKey)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "no API key configured", body["error"])
}
