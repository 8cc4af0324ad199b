package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCalls returns the latest ranked calls for one symbol. Cached
// results are served when fresh; otherwise a live scan runs.
func (h *Handler) GetCalls(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.knownSymbol(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	ctx := c.Request.Context()
	if h.signals != nil {
		if calls, ok := h.signals.Get(ctx, symbol); ok {
			c.JSON(http.StatusOK, gin.H{"symbol": symbol, "calls": calls, "cached": true})
			return
		}
	}

	calls, err := h.pipeline.ScanSymbol(ctx, symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("On-demand scan failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "scan failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "calls": calls, "cached": false})
}

// TriggerScan runs a full scan across every configured symbol.
func (h *Handler) TriggerScan(c *gin.Context) {
	results, err := h.pipeline.Scan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
