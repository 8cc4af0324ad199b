package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpulse/optionsengine/internal/api/handlers"
	"github.com/quantpulse/optionsengine/internal/cache"
	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/engine"
	"github.com/quantpulse/optionsengine/internal/indicators"
	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/monitor"
	"github.com/quantpulse/optionsengine/internal/volatility"
)

type stubFetcher struct{ price float64 }

func (s *stubFetcher) Fetch(_ context.Context, symbol string) (models.MarketSnapshot, error) {
	return models.MarketSnapshot{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(s.price),
		High:      decimal.NewFromFloat(s.price + 50),
		Low:       decimal.NewFromFloat(s.price - 50),
		Volume:    decimal.NewFromInt(100000),
		Timestamp: time.Now(),
	}, nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		MarketData: config.MarketDataConfig{
			Symbols:      []string{"NIFTY"},
			ScanInterval: "5m",
			Timeout:      "15s",
			HistoryCap:   200,
			StrikeSteps:  map[string]float64{"NIFTY": 50},
			DefaultStep:  50,
			ExpiryCount:  4,
		},
		Indicators: config.IndicatorConfig{
			RSIPeriod: 14, MACDFastPeriod: 12, MACDSlowPeriod: 26,
			ShortMAPeriod: 9, LongMAPeriod: 21, BollingerPeriod: 20,
			StochasticPeriod: 14, WilliamsPeriod: 14, TrendPeriod: 14,
			MomentumPeriod: 10, VolumeShort: 5, VolumeLong: 20,
		},
		Volatility: config.VolatilityConfig{
			MinImpliedVol: 0.08, MaxImpliedVol: 0.60,
			SolverFloor: 0.01, SolverCeiling: 5.0,
			RiskFreeRate: 0.065, SmileMaxFactor: 1.10,
			DefaultTypical: 0.20,
		},
		Scoring: config.ScoringConfig{
			TechnicalWeight: 0.25, GreeksWeight: 0.20, VolumeWeight: 0.15,
			SentimentWeight: 0.15, ModelWeight: 0.25,
			DirectionTechnical: 0.4, DirectionSentiment: 0.3, DirectionModel: 0.3,
			DirectionThreshold: 0.1,
			RSIExtremeWeight: 0.3, RSILeanWeight: 0.1,
			MACDWeight: 0.2, MomentumWeight: 0.2,
			MinConfidence: 75,
			MinExpiryDays: 7, MaxExpiryDays: 45,
		},
		Risk: config.RiskConfig{
			AccountValue: 1000000, MaxRiskPct: 0.05, MinRiskReward: 1.5,
			MaxDeltaExposure: 0.85, MaxVegaExposure: 50,
			MaxMoneynessDist: 0.15, MaxImpliedVol: 0.40,
			ThetaShortDays: 3, ThetaPremiumFrac: 0.15,
			SellerBaseProb: 65, ProbabilityFloor: 20, ProbabilityCeiling: 90,
			ExpectedMoveCap: 0.03,
		},
	}

	vol := volatility.NewEstimator(cfg.Volatility, logger)
	gen := engine.NewGenerator(cfg, vol, nil, nil, logger)
	ind := indicators.NewEngine(cfg.Indicators, logger)
	risk := engine.NewRiskManager(cfg.Risk, cfg.Scoring.MinConfidence, logger)
	history := cache.NewHistoryCache(cfg.MarketData.HistoryCap)
	mon := monitor.NewMonitor(logger)
	pipeline := engine.NewPipeline(cfg, &stubFetcher{price: 24500}, history, ind, gen, risk, nil, nil, mon, logger)

	h := handlers.New(cfg, pipeline, history, ind, nil, mon, logger)

	router := gin.New()
	SetupRoutes(router, h)
	return router
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)
	w := doRequest(router, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotNil(t, resp["stats"])
}

func TestGetCallsUnknownSymbol(t *testing.T) {
	router := testRouter(t)
	w := doRequest(router, http.MethodGet, "/api/v1/calls/DOGE")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCallsLiveScan(t *testing.T) {
	router := testRouter(t)
	w := doRequest(router, http.MethodGet, "/api/v1/calls/NIFTY")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Symbol string              `json:"symbol"`
		Calls  []models.RankedCall `json:"calls"`
		Cached bool                `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NIFTY", resp.Symbol)
	assert.False(t, resp.Cached)
}

func TestGetIndicators(t *testing.T) {
	router := testRouter(t)

	// Seed some history through a scan first.
	doRequest(router, http.MethodGet, "/api/v1/calls/NIFTY")

	w := doRequest(router, http.MethodGet, "/api/v1/analysis/indicators/NIFTY")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Symbol  string                 `json:"symbol"`
		Samples int                    `json:"samples"`
		Report  models.IndicatorReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NIFTY", resp.Symbol)
	assert.Equal(t, 1, resp.Samples)
	assert.InDelta(t, 50, resp.Report.RSI, 1e-9)
}

func TestGetHistory(t *testing.T) {
	router := testRouter(t)
	doRequest(router, http.MethodGet, "/api/v1/calls/NIFTY")

	w := doRequest(router, http.MethodGet, "/api/v1/analysis/history/NIFTY")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Snapshots []models.MarketSnapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Snapshots, 1)
	assert.Equal(t, "NIFTY", resp.Snapshots[0].Symbol)
}

func TestTriggerScan(t *testing.T) {
	router := testRouter(t)
	w := doRequest(router, http.MethodPost, "/api/v1/scan")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results map[string][]models.RankedCall `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Results, "NIFTY")
}

func TestExportCSV(t *testing.T) {
	router := testRouter(t)
	w := doRequest(router, http.MethodGet, "/api/v1/export/calls.csv")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "symbol,optionType,strike")
}
