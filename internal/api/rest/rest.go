package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/cloud4india/cloud-pricing/internal/api/middleware"
)

// SetupRoutes registers the API routes. Read endpoints are public; the sync
// trigger and the admin configuration endpoints require an API key.
func SetupRoutes(router *gin.Engine, h Handler, authCfg middleware.AuthConfig) {
	router.GET("/health", h.HealthCheck)

	pricing := router.Group("/api/v1/pricing")
	{
		pricing.GET("/data", h.GetAllData)
		pricing.GET("/sync-status", h.GetSyncStatus)

		pricing.GET("/services", h.ListServices)
		pricing.GET("/plans/:service", h.ListPlansByService)
		pricing.GET("/rate-cards", h.ListRateCards)
		pricing.GET("/billing-cycles", h.ListBillingCycles)
		pricing.GET("/products", h.ListProducts)
		pricing.GET("/licences", h.ListLicences)
		pricing.GET("/operating-systems", h.ListOperatingSystems)
		pricing.GET("/templates", h.ListTemplates)
		pricing.GET("/storage-categories", h.ListStorageCategories)
		pricing.GET("/plan-categories", h.ListPlanCategories)
		pricing.GET("/unit-pricings", h.ListUnitPricings)

		pricing.POST("/sync", middleware.APIKeyAuth(authCfg), h.TriggerSync)
	}

	admin := router.Group("/api/v1/admin", middleware.APIKeyAuth(authCfg))
	{
		admin.GET("/upstream-config", h.GetUpstreamConfig)
		admin.PUT("/upstream-config", h.UpdateUpstreamConfig)
		admin.POST("/upstream-config/test", h.TestUpstreamConnection)
	}
}
