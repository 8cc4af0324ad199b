package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantpulse/optionsengine/internal/monitor"
)

// HealthResponse reports service liveness and current load.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Stats     monitor.Stats `json:"stats"`
}

// Health returns liveness plus a performance sample.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Stats:     h.monitor.Sample(c.Request.Context()),
	})
}
