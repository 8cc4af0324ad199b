package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetIndicators computes the indicator report from the symbol's cached
// history.
func (h *Handler) GetIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.knownSymbol(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	report := h.indicators.Analyze(symbol, h.history.Prices(symbol), h.history.Volumes(symbol))
	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"samples": h.history.Len(symbol),
		"report":  report,
	})
}

// GetHistory returns the cached snapshot window for a symbol.
func (h *Handler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.knownSymbol(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"snapshots": h.history.Snapshot(symbol),
	})
}
