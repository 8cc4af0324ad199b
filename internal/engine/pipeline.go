package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quantpulse/optionsengine/internal/cache"
	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/indicators"
	"github.com/quantpulse/optionsengine/internal/marketdata"
	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/monitor"
)

const tracerName = "optionsengine/engine"

// Notifier delivers accepted calls to an external channel.
type Notifier interface {
	NotifyCalls(ctx context.Context, symbol string, calls []models.RankedCall) error
}

// Pipeline runs the full scan for every configured symbol: fetch quote,
// update history, analyze, generate, assess, dedupe and deliver.
type Pipeline struct {
	cfg        *config.Config
	fetcher    marketdata.Fetcher
	history    *cache.HistoryCache
	indicators *indicators.Engine
	generator  *Generator
	risk       *RiskManager
	signals    *cache.RedisSignalCache
	notifier   Notifier
	perf       *monitor.Monitor
	logger     *logrus.Logger
	now        func() time.Time
}

// NewPipeline wires the scan pipeline. The signal cache, notifier and
// performance monitor are optional; a nil value disables that path.
func NewPipeline(cfg *config.Config, fetcher marketdata.Fetcher, history *cache.HistoryCache, ind *indicators.Engine, gen *Generator, risk *RiskManager, signals *cache.RedisSignalCache, notifier Notifier, perf *monitor.Monitor, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		history:    history,
		indicators: ind,
		generator:  gen,
		risk:       risk,
		signals:    signals,
		notifier:   notifier,
		perf:       perf,
		logger:     logger,
		now:        time.Now,
	}
}

// Scan runs every configured symbol concurrently. A symbol failure is
// logged and skipped; it never poisons the other symbols.
func (p *Pipeline) Scan(ctx context.Context) (map[string][]models.RankedCall, error) {
	start := time.Now()
	defer func() {
		if p.perf != nil {
			p.perf.RecordScan(time.Since(start))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string][]models.RankedCall)

	for _, symbol := range p.cfg.MarketData.Symbols {
		symbol := symbol
		g.Go(func() error {
			calls, err := p.ScanSymbol(ctx, symbol)
			if err != nil {
				p.logger.WithError(err).WithField("symbol", symbol).Warn("Symbol scan failed")
				return nil
			}
			mu.Lock()
			results[symbol] = calls
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScanSymbol runs the pipeline for one underlying. The result carries
// at most one accepted call and one accepted put, followed by the best
// rejected candidate per side so downstream consumers see why a side
// produced nothing.
func (p *Pipeline) ScanSymbol(ctx context.Context, symbol string) ([]models.RankedCall, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.scan_symbol",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	snap, err := p.fetcher.Fetch(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if err := p.history.Append(snap); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("history append failed: %w", err)
	}

	prices := p.history.Prices(symbol)
	volumes := p.history.Volumes(symbol)
	report := p.indicators.Analyze(symbol, prices, volumes)

	spot := snap.PriceF()
	step := p.cfg.MarketData.StrikeStep(symbol)
	strikes := marketdata.StrikeLadder(spot, step, 2)
	expiries := marketdata.NextExpiries(p.now(), p.cfg.MarketData.ExpiryCount)

	candidates := p.generator.Generate(symbol, spot, step, report, prices, strikes, expiries)

	var accepted, rejected []models.RankedCall
	for _, cand := range candidates {
		assessment := p.risk.Assess(cand, report)
		rc := models.RankedCall{Candidate: cand, Risk: assessment}
		if assessment.Accepted {
			accepted = append(accepted, rc)
		} else {
			rejected = append(rejected, rc)
		}
	}

	calls := dedupeBestPerSide(accepted)
	calls = p.enforcePortfolio(calls)
	calls = append(calls, dedupeBestPerSide(rejected)...)

	p.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"candidates": len(candidates),
		"accepted":   len(accepted),
		"delivered":  len(calls),
	}).Info("Scan completed")

	span.SetAttributes(
		attribute.Int("scan.candidates", len(candidates)),
		attribute.Int("scan.accepted", len(accepted)),
	)

	p.deliver(ctx, symbol, calls)
	return calls, nil
}

// dedupeBestPerSide keeps the highest-scoring call and the highest-
// scoring put, best first.
func dedupeBestPerSide(calls []models.RankedCall) []models.RankedCall {
	best := make(map[models.OptionType]models.RankedCall, 2)
	for _, c := range calls {
		side := c.Candidate.Option.Contract.Type
		if cur, ok := best[side]; !ok || c.Score() > cur.Score() {
			best[side] = c
		}
	}

	out := make([]models.RankedCall, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}

// enforcePortfolio applies the aggregate Greek budget. A breach rejects
// the whole set: every call is downgraded to rejected with the budget
// error recorded as its reason.
func (p *Pipeline) enforcePortfolio(calls []models.RankedCall) []models.RankedCall {
	err := p.risk.CheckPortfolio(calls)
	if err == nil {
		return calls
	}

	p.logger.WithError(err).Warn("Portfolio budget exceeded, rejecting candidate set")
	for i := range calls {
		calls[i].Risk.Accepted = false
		calls[i].Risk.Reasons = append(calls[i].Risk.Reasons, err.Error())
	}
	return calls
}

func (p *Pipeline) deliver(ctx context.Context, symbol string, calls []models.RankedCall) {
	if p.signals != nil {
		if err := p.signals.Set(ctx, symbol, calls); err != nil {
			p.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache signals")
		}
	}

	// Only actionable calls go out to the chat.
	actionable := acceptedOnly(calls)
	if p.notifier != nil && len(actionable) > 0 {
		if err := p.notifier.NotifyCalls(ctx, symbol, actionable); err != nil {
			p.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to send notification")
		}
	}
}

func acceptedOnly(calls []models.RankedCall) []models.RankedCall {
	var out []models.RankedCall
	for _, c := range calls {
		if c.Risk.Accepted {
			out = append(out, c)
		}
	}
	return out
}

// Run executes scans on the configured interval until the context is
// canceled. The first scan runs immediately.
func (p *Pipeline) Run(ctx context.Context) error {
	interval := p.cfg.MarketData.ScanIntervalDuration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := p.Scan(ctx); err != nil {
		p.logger.WithError(err).Error("Initial scan failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Scan(ctx); err != nil {
				p.logger.WithError(err).Error("Scheduled scan failed")
			}
			if p.signals != nil {
				p.signals.LogStats()
			}
		}
	}
}
