package api

import (
	"github.com/gin-gonic/gin"

	"github.com/quantpulse/optionsengine/internal/api/handlers"
)

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(router *gin.Engine, h *handlers.Handler) {
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		calls := v1.Group("/calls")
		{
			calls.GET("/:symbol", h.GetCalls)
		}

		v1.GET("/export/calls.csv", h.ExportCSV)

		analysis := v1.Group("/analysis")
		{
			analysis.GET("/indicators/:symbol", h.GetIndicators)
			analysis.GET("/history/:symbol", h.GetHistory)
		}

		v1.POST("/scan", h.TriggerScan)
	}
}
