package engine

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
)

// RiskManager sizes candidates, estimates their worst case and
// probability of profit, and gates everything through the acceptance
// rules. It never mutates the candidate.
type RiskManager struct {
	cfg           config.RiskConfig
	minConfidence float64
	logger        *logrus.Logger
}

// NewRiskManager creates a risk manager using the risk section plus the
// scoring confidence floor.
func NewRiskManager(cfg config.RiskConfig, minConfidence float64, logger *logrus.Logger) *RiskManager {
	return &RiskManager{cfg: cfg, minConfidence: minConfidence, logger: logger}
}

// Assess produces the full risk verdict for one candidate.
func (m *RiskManager) Assess(cand models.StrategyCandidate, report *models.IndicatorReport) models.RiskAssessment {
	assessment := m.exposure(cand)
	assessment.ExpectedProfit = cand.ExpectedProfit

	if assessment.MaxLoss > 0 {
		assessment.RiskRewardRatio = assessment.ExpectedProfit / assessment.MaxLoss
	}

	assessment.ProbabilityOfProfit = m.probabilityOfProfit(cand, report)
	assessment.RiskLevel = m.riskLevel(assessment)
	assessment.Reasons = m.gate(cand, assessment)
	assessment.Accepted = len(assessment.Reasons) == 0

	// Sizing needs a finite worst case; an unbounded position reports 0.
	if !assessment.MaxLossUnbounded {
		assessment.PositionSize = m.positionSize(cand.Confidence, assessment.MaxLoss)
	}

	m.logger.WithFields(logrus.Fields{
		"id":         cand.ID,
		"symbol":     cand.Option.Contract.Symbol,
		"action":     cand.Action,
		"max_loss":   assessment.MaxLoss,
		"rr":         assessment.RiskRewardRatio,
		"pop":        assessment.ProbabilityOfProfit,
		"risk_level": assessment.RiskLevel,
		"accepted":   assessment.Accepted,
	}).Debug("Assessed candidate risk")

	return assessment
}

// exposure computes the worst case and breakeven for the position.
// Buyers risk the premium. A naked put seller risks the strike less the
// premium; a naked call seller has no bound, so the strike stands in as
// a margin proxy.
func (m *RiskManager) exposure(cand models.StrategyCandidate) models.RiskAssessment {
	opt := cand.Option
	strike := opt.Contract.Strike
	premium := opt.Premium

	var a models.RiskAssessment
	if cand.Action == models.ActionBuy {
		a.MaxLoss = premium
	} else if opt.Contract.Type == models.Put {
		a.MaxLoss = strike - premium
	} else {
		a.MaxLossUnbounded = true
		a.MaxLoss = strike
	}

	if opt.Contract.Type == models.Call {
		a.Breakeven = strike + premium
	} else {
		a.Breakeven = strike - premium
	}

	return a
}

// probabilityOfProfit starts from a base rate per side and adjusts for
// directional lean, trend alignment and volume, bounded to [floor,
// ceiling].
func (m *RiskManager) probabilityOfProfit(cand models.StrategyCandidate, report *models.IndicatorReport) float64 {
	var pop float64
	if cand.Action == models.ActionSell {
		// Sellers win on time decay in the common case.
		pop = m.cfg.SellerBaseProb
	} else {
		pop = 50 + alignedDirection(cand)*20
	}

	if report != nil {
		if report.VolumeRatio > 1.5 {
			pop += 5
		}
		if trendAligned(cand, report.Trend) {
			pop += 10
		}
	}

	return clamp(pop, m.cfg.ProbabilityFloor, m.cfg.ProbabilityCeiling)
}

func (m *RiskManager) riskLevel(a models.RiskAssessment) models.RiskLevel {
	if a.MaxLossUnbounded {
		return models.RiskVeryHigh
	}

	pop := a.ProbabilityOfProfit
	rr := a.RiskRewardRatio
	switch {
	case pop > 70 && rr > 2.0:
		return models.RiskLow
	case pop > 60 && rr > 1.5:
		return models.RiskMedium
	case pop > 50 && rr > 1.0:
		return models.RiskHigh
	default:
		return models.RiskVeryHigh
	}
}

// gate returns the rejection reasons; an empty slice means accepted.
func (m *RiskManager) gate(cand models.StrategyCandidate, a models.RiskAssessment) []string {
	var reasons []string
	opt := cand.Option

	if cand.Confidence < m.minConfidence {
		reasons = append(reasons, fmt.Sprintf("confidence %.1f below threshold %.1f", cand.Confidence, m.minConfidence))
	}
	if a.RiskRewardRatio < m.cfg.MinRiskReward {
		reasons = append(reasons, fmt.Sprintf("risk/reward %.2f below minimum %.2f", a.RiskRewardRatio, m.cfg.MinRiskReward))
	}
	if math.Abs(opt.Greeks.Delta) > m.cfg.MaxDeltaExposure {
		reasons = append(reasons, fmt.Sprintf("delta %.2f exceeds cap %.2f", opt.Greeks.Delta, m.cfg.MaxDeltaExposure))
	}
	if math.Abs(opt.Greeks.Vega) > m.cfg.MaxVegaExposure {
		reasons = append(reasons, fmt.Sprintf("vega %.2f exceeds cap %.2f", opt.Greeks.Vega, m.cfg.MaxVegaExposure))
	}

	if cand.Action == models.ActionBuy {
		days := opt.Contract.DaysToExpiry(cand.GeneratedAt)
		if days <= m.cfg.ThetaShortDays && opt.Premium > 0 &&
			opt.Greeks.Theta < -m.cfg.ThetaPremiumFrac*opt.Premium {
			reasons = append(reasons, fmt.Sprintf("theta %.2f too steep for %d days to expiry", opt.Greeks.Theta, days))
		}
	}

	if opt.Spot > 0 {
		dist := math.Abs(opt.Contract.Strike/opt.Spot - 1)
		if dist > m.cfg.MaxMoneynessDist {
			reasons = append(reasons, fmt.Sprintf("strike %.0f is %.1f%% from spot", opt.Contract.Strike, dist*100))
		}
	}

	if opt.ImpliedVol > m.cfg.MaxImpliedVol {
		reasons = append(reasons, fmt.Sprintf("implied vol %.1f%% above ceiling %.1f%%", opt.ImpliedVol*100, m.cfg.MaxImpliedVol*100))
	}

	return reasons
}

// positionSize scales the per-trade risk budget by confidence, never
// below one lot.
func (m *RiskManager) positionSize(confidence, maxLoss float64) int {
	if maxLoss <= 0 {
		return 1
	}

	budget := m.cfg.AccountValue * m.cfg.MaxRiskPct / maxLoss
	scale := confidence / 80
	if scale > 1 {
		scale = 1
	}

	size := int(math.Floor(budget * scale))
	if size < 1 {
		return 1
	}
	return size
}

// CheckPortfolio verifies the aggregate Greek exposure of an accepted
// set stays within the per-position caps scaled by count.
func (m *RiskManager) CheckPortfolio(calls []models.RankedCall) error {
	if len(calls) == 0 {
		return nil
	}

	var totalDelta, totalVega float64
	for _, c := range calls {
		totalDelta += math.Abs(c.Candidate.Option.Greeks.Delta)
		totalVega += math.Abs(c.Candidate.Option.Greeks.Vega)
	}

	n := float64(len(calls))
	if totalDelta > m.cfg.MaxDeltaExposure*n {
		return fmt.Errorf("portfolio delta %.2f exceeds budget %.2f", totalDelta, m.cfg.MaxDeltaExposure*n)
	}
	if totalVega > m.cfg.MaxVegaExposure*n {
		return fmt.Errorf("portfolio vega %.2f exceeds budget %.2f", totalVega, m.cfg.MaxVegaExposure*n)
	}
	return nil
}

// alignedDirection returns the candidate's directional score signed so
// positive always means favorable for the position.
func alignedDirection(cand models.StrategyCandidate) float64 {
	wantsUp := (cand.Option.Contract.Type == models.Call) == (cand.Action == models.ActionBuy)
	if wantsUp {
		return cand.DirectionScore
	}
	return -cand.DirectionScore
}

func trendAligned(cand models.StrategyCandidate, trend models.TrendType) bool {
	up := trend == models.TrendUp || trend == models.TrendStrongUp
	down := trend == models.TrendDown || trend == models.TrendStrongDown

	wantsUp := (cand.Option.Contract.Type == models.Call) == (cand.Action == models.ActionBuy)
	return (wantsUp && up) || (!wantsUp && down)
}
