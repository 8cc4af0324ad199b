package models

import "time"

// StrategyCandidate is one proposed option trade with the scores that
// produced it.
type StrategyCandidate struct {
	ID             string       `json:"id"`
	Option         PricedOption `json:"option"`
	Action         Action       `json:"action"`
	Confidence     float64      `json:"confidence"`
	DirectionScore float64      `json:"direction_score"`
	ExpectedProfit float64      `json:"expected_profit"`
	Rationale      []string     `json:"rationale,omitempty"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// RiskLevel buckets a candidate by probability of profit and reward
// ratio. Unbounded-loss positions are always VeryHigh.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// RiskAssessment is the risk manager's verdict on a candidate. When
// MaxLossUnbounded is set, MaxLoss holds a margin proxy rather than a
// true worst case.
type RiskAssessment struct {
	MaxLoss             float64   `json:"max_loss"`
	MaxLossUnbounded    bool      `json:"max_loss_unbounded"`
	Breakeven           float64   `json:"breakeven"`
	ExpectedProfit      float64   `json:"expected_profit"`
	RiskRewardRatio     float64   `json:"risk_reward_ratio"`
	ProbabilityOfProfit float64   `json:"probability_of_profit"`
	RiskLevel           RiskLevel `json:"risk_level"`
	PositionSize        int       `json:"position_size"`
	Accepted            bool      `json:"accepted"`
	Reasons             []string  `json:"reasons,omitempty"`
}

// RankedCall is a candidate paired with its risk assessment, ready for
// delivery.
type RankedCall struct {
	Candidate StrategyCandidate `json:"candidate"`
	Risk      RiskAssessment    `json:"risk"`
}

// Score is the ranking key: confidence weighted by profit potential.
func (r *RankedCall) Score() float64 {
	return r.Candidate.Confidence * r.Candidate.ExpectedProfit
}
