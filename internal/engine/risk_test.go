package engine

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		AccountValue:       1000000,
		MaxRiskPct:         0.05,
		MinRiskReward:      1.5,
		MaxDeltaExposure:   0.85,
		MaxVegaExposure:    50,
		MaxMoneynessDist:   0.15,
		MaxImpliedVol:      0.40,
		ThetaShortDays:     3,
		ThetaPremiumFrac:   0.15,
		SellerBaseProb:     65,
		ProbabilityFloor:   20,
		ProbabilityCeiling: 90,
		ExpectedMoveCap:    0.03,
	}
}

func testRiskManager() *RiskManager {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRiskManager(testRiskConfig(), 75, logger)
}

// buyCall builds a well-formed ATM bought call ten days out.
func buyCall(confidence, premium, expectedProfit float64) models.StrategyCandidate {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	return models.StrategyCandidate{
		ID:     "test",
		Action: models.ActionBuy,
		Option: models.PricedOption{
			Contract: models.OptionContract{
				Symbol: "NIFTY",
				Type:   models.Call,
				Strike: 24500,
				Expiry: now.AddDate(0, 0, 10),
			},
			Spot:       24500,
			Premium:    premium,
			ImpliedVol: 0.18,
			Greeks:     models.Greeks{Delta: 0.52, Gamma: 0.001, Theta: -8, Vega: 13},
		},
		Confidence:     confidence,
		DirectionScore: 0.4,
		ExpectedProfit: expectedProfit,
		GeneratedAt:    now,
	}
}

func TestAssessAcceptsStrongCandidate(t *testing.T) {
	m := testRiskManager()
	a := m.Assess(buyCall(85, 100, 200), nil)

	assert.True(t, a.Accepted, "reasons: %v", a.Reasons)
	assert.InDelta(t, 100, a.MaxLoss, 1e-9)
	assert.False(t, a.MaxLossUnbounded)
	assert.InDelta(t, 24600, a.Breakeven, 1e-9)
	assert.InDelta(t, 2.0, a.RiskRewardRatio, 1e-9)
}

func TestAssessRejectsLowConfidence(t *testing.T) {
	m := testRiskManager()
	a := m.Assess(buyCall(60, 100, 200), nil)

	assert.False(t, a.Accepted)
	require.NotEmpty(t, a.Reasons)
	assert.Contains(t, a.Reasons[0], "confidence")
}

func TestAssessRejectsThinRiskReward(t *testing.T) {
	m := testRiskManager()
	a := m.Assess(buyCall(85, 100, 120), nil)

	assert.False(t, a.Accepted)
	require.NotEmpty(t, a.Reasons)
	assert.Contains(t, a.Reasons[0], "risk/reward")
	assert.InDelta(t, 1.2, a.RiskRewardRatio, 1e-9)
}

func TestAssessRejectsFarStrike(t *testing.T) {
	m := testRiskManager()
	cand := buyCall(85, 100, 200)
	cand.Option.Contract.Strike = 29000 // >15% from spot
	a := m.Assess(cand, nil)

	assert.False(t, a.Accepted)
}

func TestAssessRejectsRichVol(t *testing.T) {
	m := testRiskManager()
	cand := buyCall(85, 100, 200)
	cand.Option.ImpliedVol = 0.45
	a := m.Assess(cand, nil)

	assert.False(t, a.Accepted)
}

func TestAssessRejectsSteepShortDatedTheta(t *testing.T) {
	m := testRiskManager()
	cand := buyCall(85, 100, 200)
	cand.Option.Contract.Expiry = cand.GeneratedAt.AddDate(0, 0, 2)
	cand.Option.Greeks.Theta = -20 // 20% of premium per day
	a := m.Assess(cand, nil)

	assert.False(t, a.Accepted)
}

func TestNakedPutExposure(t *testing.T) {
	m := testRiskManager()
	cand := buyCall(85, 100, 200)
	cand.Action = models.ActionSell
	cand.Option.Contract.Type = models.Put
	a := m.Assess(cand, nil)

	assert.InDelta(t, 24400, a.MaxLoss, 1e-9)
	assert.False(t, a.MaxLossUnbounded)
	assert.InDelta(t, 24400, a.Breakeven, 1e-9)
}

func TestNakedCallIsUnboundedAndVeryHigh(t *testing.T) {
	m := testRiskManager()
	cand := buyCall(85, 100, 200)
	cand.Action = models.ActionSell
	a := m.Assess(cand, nil)

	assert.True(t, a.MaxLossUnbounded)
	assert.Equal(t, models.RiskVeryHigh, a.RiskLevel)
	// No lot count without a finite worst case.
	assert.Equal(t, 0, a.PositionSize)
}

func TestBoundedPositionsAreSized(t *testing.T) {
	m := testRiskManager()

	a := m.Assess(buyCall(85, 100, 200), nil)
	assert.Greater(t, a.PositionSize, 0)

	put := buyCall(85, 100, 200)
	put.Action = models.ActionSell
	put.Option.Contract.Type = models.Put
	a = m.Assess(put, nil)
	assert.Greater(t, a.PositionSize, 0)
}

func TestProbabilityOfProfit(t *testing.T) {
	m := testRiskManager()

	// Seller starts from the decay base rate.
	seller := buyCall(85, 100, 200)
	seller.Action = models.ActionSell
	seller.Option.Contract.Type = models.Put
	a := m.Assess(seller, nil)
	assert.InDelta(t, 65, a.ProbabilityOfProfit, 1e-9)

	// Buyer starts from 50 plus the directional lean.
	buyer := buyCall(85, 100, 200)
	a = m.Assess(buyer, nil)
	assert.InDelta(t, 58, a.ProbabilityOfProfit, 1e-9)

	// Volume and trend alignment add their bonuses.
	report := &models.IndicatorReport{VolumeRatio: 1.8, Trend: models.TrendStrongUp}
	a = m.Assess(buyer, report)
	assert.InDelta(t, 73, a.ProbabilityOfProfit, 1e-9)
}

func TestProbabilityBounds(t *testing.T) {
	m := testRiskManager()

	bearish := buyCall(85, 100, 200)
	bearish.DirectionScore = -1 // fully against the bought call
	a := m.Assess(bearish, nil)
	assert.GreaterOrEqual(t, a.ProbabilityOfProfit, 20.0)
	assert.LessOrEqual(t, a.ProbabilityOfProfit, 90.0)
}

func TestRiskLevels(t *testing.T) {
	m := testRiskManager()

	tests := []struct {
		pop      float64
		rr       float64
		expected models.RiskLevel
	}{
		{75, 2.5, models.RiskLow},
		{65, 1.8, models.RiskMedium},
		{55, 1.2, models.RiskHigh},
		{45, 0.8, models.RiskVeryHigh},
	}

	for _, tt := range tests {
		got := m.riskLevel(models.RiskAssessment{ProbabilityOfProfit: tt.pop, RiskRewardRatio: tt.rr})
		assert.Equal(t, tt.expected, got, "pop=%v rr=%v", tt.pop, tt.rr)
	}
}

func TestPositionSize(t *testing.T) {
	m := testRiskManager()

	// Budget 50000, maxLoss 100, confidence 80 -> full scale.
	assert.Equal(t, 500, m.positionSize(80, 100))
	// Confidence 40 halves the size.
	assert.Equal(t, 250, m.positionSize(40, 100))
	// Huge loss floors at one lot.
	assert.Equal(t, 1, m.positionSize(80, 1e9))
	assert.Equal(t, 1, m.positionSize(80, 0))
}

func TestCheckPortfolio(t *testing.T) {
	m := testRiskManager()

	ok := []models.RankedCall{
		{Candidate: buyCall(85, 100, 200)},
		{Candidate: buyCall(85, 100, 200)},
	}
	assert.NoError(t, m.CheckPortfolio(ok))

	hot := buyCall(85, 100, 200)
	hot.Option.Greeks.Vega = 200
	assert.Error(t, m.CheckPortfolio([]models.RankedCall{{Candidate: hot}}))

	assert.NoError(t, m.CheckPortfolio(nil))
}
