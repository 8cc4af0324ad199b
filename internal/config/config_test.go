package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 12, cfg.Indicators.MACDFastPeriod)
	assert.Equal(t, 26, cfg.Indicators.MACDSlowPeriod)
	assert.Equal(t, 20, cfg.Indicators.BollingerPeriod)

	assert.InDelta(t, 0.08, cfg.Volatility.MinImpliedVol, 1e-9)
	assert.InDelta(t, 0.60, cfg.Volatility.MaxImpliedVol, 1e-9)
	assert.InDelta(t, 0.065, cfg.Volatility.RiskFreeRate, 1e-9)

	assert.InDelta(t, 75.0, cfg.Scoring.MinConfidence, 1e-9)
	assert.Equal(t, 7, cfg.Scoring.MinExpiryDays)
	assert.Equal(t, 45, cfg.Scoring.MaxExpiryDays)
	assert.InDelta(t, 0.3, cfg.Scoring.RSIExtremeWeight, 1e-9)
	assert.InDelta(t, 0.1, cfg.Scoring.RSILeanWeight, 1e-9)
	assert.InDelta(t, 0.2, cfg.Scoring.MACDWeight, 1e-9)
	assert.InDelta(t, 0.2, cfg.Scoring.MomentumWeight, 1e-9)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 0.2, cfg.Telemetry.SampleRate, 1e-9)

	assert.InDelta(t, 1.5, cfg.Risk.MinRiskReward, 1e-9)
	assert.Equal(t, 200, cfg.MarketData.HistoryCap)
}

func TestScoringWeightsSumToOne(t *testing.T) {
	cfg := loadDefaults(t)
	sum := cfg.Scoring.TechnicalWeight + cfg.Scoring.GreeksWeight +
		cfg.Scoring.VolumeWeight + cfg.Scoring.SentimentWeight + cfg.Scoring.ModelWeight
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestStrikeStep(t *testing.T) {
	cfg := loadDefaults(t)
	assert.InDelta(t, 50, cfg.MarketData.StrikeStep("NIFTY"), 1e-9)
	assert.InDelta(t, 100, cfg.MarketData.StrikeStep("BANKNIFTY"), 1e-9)
	assert.InDelta(t, 50, cfg.MarketData.StrikeStep("UNKNOWN"), 1e-9)
}

func TestTypicalVolFor(t *testing.T) {
	cfg := loadDefaults(t)
	assert.InDelta(t, 0.185, cfg.Volatility.TypicalVolFor("NIFTY"), 1e-9)
	assert.InDelta(t, 0.20, cfg.Volatility.TypicalVolFor("UNKNOWN"), 1e-9)
}

func TestDurations(t *testing.T) {
	cfg := loadDefaults(t)
	assert.Equal(t, 5*time.Minute, cfg.MarketData.ScanIntervalDuration())
	assert.Equal(t, 15*time.Second, cfg.MarketData.TimeoutDuration())
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cfg := loadDefaults(t)

	bad := *cfg
	bad.Volatility.MaxImpliedVol = bad.Volatility.MinImpliedVol
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Risk.AccountValue = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Risk.MaxRiskPct = 1.5
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Scoring.MaxExpiryDays = bad.Scoring.MinExpiryDays
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.MarketData.ScanInterval = "often"
	assert.Error(t, bad.Validate())
}

func TestEnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("ENVIRONMENT", "Production")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
