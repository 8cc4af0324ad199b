package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantpulse/optionsengine/internal/export"
	"github.com/quantpulse/optionsengine/internal/models"
)

// ExportCSV streams every symbol's latest calls as CSV. Symbols without
// cached results are scanned on demand.
func (h *Handler) ExportCSV(c *gin.Context) {
	ctx := c.Request.Context()

	var all []models.RankedCall
	for _, symbol := range h.cfg.MarketData.Symbols {
		if h.signals != nil {
			if calls, ok := h.signals.Get(ctx, symbol); ok {
				all = append(all, calls...)
				continue
			}
		}

		calls, err := h.pipeline.ScanSymbol(ctx, symbol)
		if err != nil {
			h.logger.WithError(err).WithField("symbol", symbol).Warn("Skipping symbol in CSV export")
			continue
		}
		all = append(all, calls...)
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="calls.csv"`)
	if err := export.WriteCSV(c.Writer, all); err != nil {
		h.logger.WithError(err).Error("CSV export failed")
		c.Status(http.StatusInternalServerError)
	}
}
