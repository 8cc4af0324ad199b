package models

// TrendType classifies the underlying's recent price action.
type TrendType string

const (
	TrendStrongUp   TrendType = "STRONG_UPTREND"
	TrendUp         TrendType = "UPTREND"
	TrendSideways   TrendType = "SIDEWAYS"
	TrendDown       TrendType = "DOWNTREND"
	TrendStrongDown TrendType = "STRONG_DOWNTREND"
)

// IndicatorReport is the full technical picture for one underlying,
// computed from its price/volume history. Every field degrades to a
// neutral value when history is too short rather than erroring.
type IndicatorReport struct {
	Symbol string `json:"symbol"`

	RSI                 float64 `json:"rsi"`
	MACD                float64 `json:"macd"`
	ShortMA             float64 `json:"short_ma"`
	LongMA              float64 `json:"long_ma"`
	BollingerZ          float64 `json:"bollinger_z"`
	StochasticK         float64 `json:"stochastic_k"`
	WilliamsR           float64 `json:"williams_r"`
	DirectionalStrength float64 `json:"directional_strength"`
	VolumeRatio         float64 `json:"volume_ratio"`
	Momentum            float64 `json:"momentum"`
	Support             float64 `json:"support"`
	Resistance          float64 `json:"resistance"`

	Trend   TrendType `json:"trend"`
	Signals []string  `json:"signals"`

	BullScore float64 `json:"bull_score"`
	BearScore float64 `json:"bear_score"`
}

// Bias returns the net bullish bias in [-1, 1].
func (r *IndicatorReport) Bias() float64 {
	total := r.BullScore + r.BearScore
	if total == 0 {
		return 0
	}
	return (r.BullScore - r.BearScore) / total
}
