package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/cache"
	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/engine"
	"github.com/quantpulse/optionsengine/internal/indicators"
	"github.com/quantpulse/optionsengine/internal/monitor"
)

// Handler carries the wired components every endpoint draws from.
type Handler struct {
	cfg        *config.Config
	pipeline   *engine.Pipeline
	history    *cache.HistoryCache
	indicators *indicators.Engine
	signals    *cache.RedisSignalCache
	monitor    *monitor.Monitor
	logger     *logrus.Logger
}

// New creates the API handler set. The signal cache may be nil when
// Redis is disabled; endpoints fall back to live scans.
func New(cfg *config.Config, pipeline *engine.Pipeline, history *cache.HistoryCache, ind *indicators.Engine, signals *cache.RedisSignalCache, mon *monitor.Monitor, logger *logrus.Logger) *Handler {
	return &Handler{
		cfg:        cfg,
		pipeline:   pipeline,
		history:    history,
		indicators: ind,
		signals:    signals,
		monitor:    mon,
		logger:     logger,
	}
}

func (h *Handler) knownSymbol(symbol string) bool {
	for _, s := range h.cfg.MarketData.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}
