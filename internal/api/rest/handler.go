package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/logger"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/sync"
	"github.com/cloud4india/cloud-pricing/internal/upstream"
)

// Handler defines the HTTP handlers for the pricing API
type Handler interface {
	HealthCheck(c *gin.Context)

	GetAllData(c *gin.Context)
	ListServices(c *gin.Context)
	ListPlansByService(c *gin.Context)
	ListRateCards(c *gin.Context)
	ListBillingCycles(c *gin.Context)
	ListProducts(c *gin.Context)
	ListLicences(c *gin.Context)
	ListOperatingSystems(c *gin.Context)
	ListTemplates(c *gin.Context)
	ListStorageCategories(c *gin.Context)
	ListPlanCategories(c *gin.Context)
	ListUnitPricings(c *gin.Context)

	GetSyncStatus(c *gin.Context)
	TriggerSync(c *gin.Context)

	GetUpstreamConfig(c *gin.Context)
	UpdateUpstreamConfig(c *gin.Context)
	TestUpstreamConnection(c *gin.Context)
}

type handler struct {
	store      store.Store
	syncer     *sync.Syncer
	httpClient adapter.HTTPClient
	clock      adapter.Clock
}

// NewHandler creates a new API handler
func NewHandler(s store.Store, syncer *sync.Syncer, httpClient adapter.HTTPClient, clock adapter.Clock) Handler {
	return &handler{
		store:      s,
		syncer:     syncer,
		httpClient: httpClient,
		clock:      clock,
	}
}

// HealthCheck returns the service health status
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetAllData returns the entire cached catalog in one payload. An empty
// services table triggers a synchronous refresh first so a cold start can
// still serve data.
func (h *handler) GetAllData(c *gin.Context) {
	ctx := c.Request.Context()

	services, err := h.store.ListServices(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	if len(services) == 0 {
		logger.InfoCtx(ctx, "catalog cache is empty, syncing before serving")
		if _, err := h.syncer.SyncAll(ctx); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
			respondServiceUnavailable(c, "Catalog data is not available yet", err.Error())
			return
		}
		if services, err = h.store.ListServices(ctx); err != nil {
			respondDatabaseError(c, err)
			return
		}
		if len(services) == 0 {
			respondServiceUnavailable(c, "Catalog data is not available yet")
			return
		}
	}

	plans, err := h.store.ListPlans(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	plansByService := make(map[string][]schema.CachedPlan, len(services))
	for _, plan := range plans {
		plansByService[plan.ServiceName] = append(plansByService[plan.ServiceName], plan)
	}

	rateCards, err := h.store.ListRateCards(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	billingCycles, err := h.store.ListBillingCycles(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	licences, err := h.store.ListLicences(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	operatingSystems, err := h.store.ListOperatingSystems(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	templates, err := h.store.ListTemplates(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	storageCategories, err := h.store.ListStorageCategories(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	planCategories, err := h.store.ListPlanCategories(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	unitPricings, err := h.store.ListUnitPricings(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	metadata, err := h.store.GetCacheMetadata(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	var lastFetched *time.Time
	for _, meta := range metadata {
		if meta.LastSyncedAt == nil {
			continue
		}
		if lastFetched == nil || meta.LastSyncedAt.After(*lastFetched) {
			lastFetched = meta.LastSyncedAt
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"services":           services,
		"plans":              plansByService,
		"rate_cards":         rateCards,
		"billing_cycles":     billingCycles,
		"products":           products,
		"licences":           licences,
		"operating_systems":  operatingSystems,
		"templates":          templates,
		"storage_categories": storageCategories,
		"plan_categories":    planCategories,
		"unit_pricings":      unitPricings,
		"last_fetched":       lastFetched,
	})
}

// ListServices returns the cached services
func (h *handler) ListServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// ListPlansByService returns the cached plans of one service
func (h *handler) ListPlansByService(c *gin.Context) {
	serviceName := c.Param("service")
	if serviceName == "" {
		respondBadRequest(c, "Missing service name")
		return
	}

	plans, err := h.store.ListPlansByService(c.Request.Context(), serviceName)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if plans == nil {
		plans = []schema.CachedPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// ListRateCards returns the cached rate cards
func (h *handler) ListRateCards(c *gin.Context) {
	cards, err := h.store.ListRateCards(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// ListBillingCycles returns the cached billing cycles
func (h *handler) ListBillingCycles(c *gin.Context) {
	cycles, err := h.store.ListBillingCycles(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, cycles)
}

// ListProducts returns the cached products
func (h *handler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListLicences returns the cached licences
func (h *handler) ListLicences(c *gin.Context) {
	licences, err := h.store.ListLicences(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, licences)
}

// ListOperatingSystems returns the cached operating systems
func (h *handler) ListOperatingSystems(c *gin.Context) {
	oses, err := h.store.ListOperatingSystems(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, oses)
}

// ListTemplates returns the cached templates
func (h *handler) ListTemplates(c *gin.Context) {
	templates, err := h.store.ListTemplates(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// ListStorageCategories returns the cached storage categories
func (h *handler) ListStorageCategories(c *gin.Context) {
	categories, err := h.store.ListStorageCategories(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListPlanCategories returns the cached plan categories
func (h *handler) ListPlanCategories(c *gin.Context) {
	categories, err := h.store.ListPlanCategories(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListUnitPricings returns the cached unit pricings
func (h *handler) ListUnitPricings(c *gin.Context) {
	pricings, err := h.store.ListUnitPricings(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricings)
}

// tableStatus describes one cache table in the sync status payload
type tableStatus struct {
	Count       int64      `json:"count"`
	LastUpdated *time.Time `json:"last_updated"`
	Status      string     `json:"status"`
	Error       *string    `json:"error,omitempty"`
}

// GetSyncStatus returns the in-memory run state plus the durable per-table
// sync metadata.
func (h *handler) GetSyncStatus(c *gin.Context) {
	ctx := c.Request.Context()

	status := h.syncer.Status()
	cfg := h.syncer.EffectiveConfig(ctx)

	counts, err := h.store.TableCounts(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	metadata, err := h.store.GetCacheMetadata(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	metaByKey := make(map[string]schema.CacheMetadata, len(metadata))
	for _, meta := range metadata {
		metaByKey[meta.CacheKey] = meta
	}

	tables := make(map[string]tableStatus, len(counts))
	for key, count := range counts {
		ts := tableStatus{Count: count, Status: string(schema.SyncPending)}
		if meta, ok := metaByKey[key]; ok {
			ts.LastUpdated = meta.LastSyncedAt
			ts.Status = string(meta.SyncStatus)
			ts.Error = meta.ErrorMessage
		}
		tables[key] = ts
	}

	var nextSyncAt *time.Time
	if status.LastSuccessAt != nil && cfg.Enabled {
		next := status.LastSuccessAt.Add(cfg.SyncInterval())
		nextSyncAt = &next
	}

	c.JSON(http.StatusOK, gin.H{
		"state":                 status.State,
		"is_running":            status.IsRunning(),
		"run_id":                status.RunID,
		"started_at":            status.StartedAt,
		"finished_at":           status.FinishedAt,
		"last_sync_at":          status.LastSuccessAt,
		"next_sync_at":          nextSyncAt,
		"last_error":            status.LastError,
		"counts":                status.Counts,
		"tables":                tables,
		"sync_interval_minutes": cfg.SyncIntervalMinutes,
		"api_url":               cfg.BaseURL,
		"is_enabled":            cfg.Enabled,
	})
}

// TriggerSync starts a cache refresh and waits for it to finish
func (h *handler) TriggerSync(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.syncer.SyncAll(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		respondConflict(c, "A sync is already in progress")
		return
	case errors.Is(err, domain.ErrSyncDisabled):
		respondServiceUnavailable(c, "Catalog sync is disabled")
		return
	case errors.Is(err, domain.ErrNoAPIKey):
		respondServiceUnavailable(c, "No upstream API key configured")
		return
	case err != nil:
		logger.ErrorCtx(ctx, err)
		respondWithError(c, http.StatusInternalServerError, errCodeInternalError, "Sync failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": len(result.Errors) == 0,
		"result":  result,
	})
}

// GetUpstreamConfig returns the admin-visible upstream configuration with
// the API key masked.
func (h *handler) GetUpstreamConfig(c *gin.Context) {
	ctx := c.Request.Context()

	row, err := h.store.GetAPIConfiguration(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	cfg := h.syncer.EffectiveConfig(ctx)

	name := "Cloud4India API"
	masked := ""
	var lastTestedAt *time.Time
	var testStatus *string
	if row != nil {
		name = row.Name
		masked = row.MaskedAPIKey()
		lastTestedAt = row.LastTestedAt
		testStatus = row.TestStatus
	}
	if masked == "" && cfg.APIKey != "" {
		// Environment-supplied key, mask it the same way.
		fallback := schema.APIConfiguration{APIKey: cfg.APIKey}
		masked = fallback.MaskedAPIKey()
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                  name,
		"api_base_url":          cfg.BaseURL,
		"api_key_masked":        masked,
		"has_api_key":           cfg.APIKey != "",
		"default_rate_card":     cfg.RateCard,
		"sync_interval_minutes": cfg.SyncIntervalMinutes,
		"is_enabled":            cfg.Enabled,
		"last_tested_at":        lastTestedAt,
		"test_status":           testStatus,
	})
}

// updateUpstreamConfigRequest is the partial-update payload; absent fields
// are left unchanged.
type updateUpstreamConfigRequest struct {
	Name                *string `json:"name"`
	APIBaseURL          *string `json:"api_base_url"`
	APIKey              *string `json:"api_key"`
	DefaultRateCard     *string `json:"default_rate_card"`
	SyncIntervalMinutes *int    `json:"sync_interval_minutes"`
	IsEnabled           *bool   `json:"is_enabled"`
}

func (r updateUpstreamConfigRequest) empty() bool {
	return r.Name == nil && r.APIBaseURL == nil && r.APIKey == nil &&
		r.DefaultRateCard == nil && r.SyncIntervalMinutes == nil && r.IsEnabled == nil
}

// UpdateUpstreamConfig applies a partial update to the upstream
// configuration row, creating it on first write.
func (h *handler) UpdateUpstreamConfig(c *gin.Context) {
	ctx := c.Request.Context()

	var req updateUpstreamConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if req.empty() {
		respondBadRequest(c, "No fields to update")
		return
	}
	if req.SyncIntervalMinutes != nil && *req.SyncIntervalMinutes <= 0 {
		respondBadRequest(c, "sync_interval_minutes must be positive")
		return
	}

	row, err := h.store.GetAPIConfiguration(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if row == nil {
		row = &schema.APIConfiguration{
			ID:                  schema.APIConfigurationID,
			Name:                "Cloud4India API",
			DefaultRateCard:     "default",
			SyncIntervalMinutes: 15,
			IsEnabled:           true,
		}
	}

	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.APIBaseURL != nil {
		row.APIBaseURL = *req.APIBaseURL
	}
	if req.APIKey != nil {
		row.APIKey = *req.APIKey
	}
	if req.DefaultRateCard != nil {
		row.DefaultRateCard = *req.DefaultRateCard
	}
	if req.SyncIntervalMinutes != nil {
		row.SyncIntervalMinutes = *req.SyncIntervalMinutes
	}
	if req.IsEnabled != nil {
		row.IsEnabled = *req.IsEnabled
	}

	if err := h.store.SaveAPIConfiguration(ctx, row); err != nil {
		respondDatabaseError(c, err)
		return
	}

	logger.InfoCtx(ctx, "upstream configuration updated",
		zap.String("base_url", row.APIBaseURL),
		zap.Bool("enabled", row.IsEnabled))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// testUpstreamConnectionRequest optionally overrides the stored settings so
// an admin can test credentials before saving them.
type testUpstreamConnectionRequest struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`
}

// TestUpstreamConnection performs a minimal authenticated request against
// the upstream API and records the outcome.
func (h *handler) TestUpstreamConnection(c *gin.Context) {
	ctx := c.Request.Context()

	var req testUpstreamConnectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request body", err.Error())
			return
		}
	}

	cfg := h.syncer.EffectiveConfig(ctx)
	baseURL := cfg.BaseURL
	apiKey := cfg.APIKey
	if req.APIBaseURL != "" {
		baseURL = req.APIBaseURL
	}
	if req.APIKey != "" {
		apiKey = req.APIKey
	}

	if apiKey == "" {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   domain.ErrNoAPIKey.Error(),
		})
		return
	}

	client := upstream.NewClient(h.httpClient, baseURL, apiKey)
	serviceCount, err := client.TestConnection(ctx)
	testedAt := h.clock.Now()

	if err != nil {
		logger.WarnCtx(ctx, "upstream connection test failed", zap.Error(err))
		if statusErr := h.store.UpdateAPIConfigTestStatus(ctx, "failed", testedAt); statusErr != nil {
			logger.ErrorCtx(ctx, statusErr)
		}
		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"error":     err.Error(),
			"tested_at": testedAt,
		})
		return
	}

	if statusErr := h.store.UpdateAPIConfigTestStatus(ctx, "success", testedAt); statusErr != nil {
		logger.ErrorCtx(ctx, statusErr)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"service_count": serviceCount,
		"tested_at":     testedAt,
	})
}
