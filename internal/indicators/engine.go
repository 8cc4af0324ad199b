package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
)

// Neutral fallbacks for windows the history cannot fill yet. The engine
// never errors on short history; it degrades per indicator.
const (
	neutralRSI        = 50.0
	neutralStochastic = 50.0
	neutralWilliams   = -50.0
	neutralVolume     = 1.0
)

// Engine computes the technical picture for an underlying from its
// price and volume history.
type Engine struct {
	cfg    config.IndicatorConfig
	logger *logrus.Logger
}

// NewEngine creates an indicator engine with the configured windows.
func NewEngine(cfg config.IndicatorConfig, logger *logrus.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// Analyze computes the full indicator report for a symbol. History may
// be any length, including empty: indicators without enough data report
// their neutral value.
func (e *Engine) Analyze(symbol string, prices, volumes []float64) *models.IndicatorReport {
	report := &models.IndicatorReport{
		Symbol:      symbol,
		RSI:         RSI(prices, e.cfg.RSIPeriod),
		MACD:        MACD(prices, e.cfg.MACDFastPeriod, e.cfg.MACDSlowPeriod),
		ShortMA:     SMA(prices, e.cfg.ShortMAPeriod),
		LongMA:      SMA(prices, e.cfg.LongMAPeriod),
		BollingerZ:  BollingerZ(prices, e.cfg.BollingerPeriod),
		StochasticK: StochasticK(prices, e.cfg.StochasticPeriod),
		WilliamsR:   WilliamsR(prices, e.cfg.WilliamsPeriod),
		VolumeRatio: VolumeRatio(volumes, e.cfg.VolumeShort, e.cfg.VolumeLong),
		Momentum:    Momentum(prices, e.cfg.MomentumPeriod),
	}
	report.DirectionalStrength = DirectionalStrength(prices, e.cfg.TrendPeriod)
	report.Support, report.Resistance = SupportResistance(prices, e.cfg.TrendPeriod)
	report.Trend = classifyTrend(report.Momentum, report.ShortMA, report.LongMA)

	e.tagSignals(report)

	e.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"samples":    len(prices),
		"rsi":        report.RSI,
		"trend":      report.Trend,
		"bull_score": report.BullScore,
		"bear_score": report.BearScore,
	}).Debug("Computed indicator report")

	return report
}

// SMA returns the simple moving average of the last period prices, or
// the last price when history is shorter than the window.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}

	ind := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ind.Compute(helper.SliceToChan(prices)))
	if len(out) == 0 {
		return prices[len(prices)-1]
	}
	return out[len(out)-1]
}

// EMA returns the exponential moving average seeded with the SMA of the
// first period prices, or the last price on short history.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}

	ind := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ind.Compute(helper.SliceToChan(prices)))
	if len(out) == 0 {
		return prices[len(prices)-1]
	}
	return out[len(out)-1]
}

// MACD returns the fast EMA minus the slow EMA. Histories shorter than
// the slow window report 0.
func MACD(prices []float64, fastPeriod, slowPeriod int) float64 {
	if len(prices) < slowPeriod || fastPeriod <= 0 || slowPeriod <= fastPeriod {
		return 0
	}
	return EMA(prices, fastPeriod) - EMA(prices, slowPeriod)
}

// RSI computes the relative strength index from simple averages of the
// last period gains and losses. All-gain windows report 100; short
// history reports the 50 midpoint.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return neutralRSI
	}

	var gains, losses float64
	start := len(prices) - period
	for i := start; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerZ returns how many population standard deviations the last
// price sits from its moving average. Flat or short windows report 0.
func BollingerZ(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}

	window := prices[len(prices)-period:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(period)

	variance := 0.0
	for _, p := range window {
		variance += (p - mean) * (p - mean)
	}
	stddev := math.Sqrt(variance / float64(period))
	if stddev == 0 {
		return 0
	}

	return (prices[len(prices)-1] - mean) / stddev
}

// StochasticK places the last price within its recent range on a 0-100
// scale. A zero range or short history reports the 50 midpoint.
func StochasticK(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return neutralStochastic
	}

	window := prices[len(prices)-period:]
	low, high := rangeOf(window)
	if high == low {
		return neutralStochastic
	}

	return (prices[len(prices)-1] - low) / (high - low) * 100
}

// WilliamsR is the inverted range position on a 0 to -100 scale. A zero
// range or short history reports the -50 midpoint.
func WilliamsR(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return neutralWilliams
	}

	window := prices[len(prices)-period:]
	low, high := rangeOf(window)
	if high == low {
		return neutralWilliams
	}

	return (high - prices[len(prices)-1]) / (high - low) * -100
}

// DirectionalStrength measures how one-sided recent movement was: net
// movement over total movement, scaled to 0-100. This is a trend proxy,
// not Wilder's ADX; it needs no high/low series and suits close-only
// history.
func DirectionalStrength(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 0
	}

	var total float64
	start := len(prices) - period
	for i := start; i < len(prices); i++ {
		total += math.Abs(prices[i] - prices[i-1])
	}
	if total == 0 {
		return 0
	}

	net := math.Abs(prices[len(prices)-1] - prices[start-1])
	return net / total * 100
}

// SupportResistance returns the low and high of the recent window,
// the levels the neutral-market strike selection anchors to. Histories
// shorter than the window use whatever is available; empty history
// reports zero for both.
func SupportResistance(prices []float64, period int) (support, resistance float64) {
	if len(prices) == 0 {
		return 0, 0
	}

	window := prices
	if period > 0 && len(prices) > period {
		window = prices[len(prices)-period:]
	}
	return rangeOf(window)
}

// VolumeRatio compares recent volume to the longer baseline. Short
// history or a zero baseline reports 1.0.
func VolumeRatio(volumes []float64, shortPeriod, longPeriod int) float64 {
	if shortPeriod <= 0 || longPeriod <= shortPeriod || len(volumes) < longPeriod {
		return neutralVolume
	}

	avg := func(window []float64) float64 {
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		return sum / float64(len(window))
	}

	long := avg(volumes[len(volumes)-longPeriod:])
	if long == 0 {
		return neutralVolume
	}

	return avg(volumes[len(volumes)-shortPeriod:]) / long
}

// Momentum is the fractional price change over the lookback window.
func Momentum(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 0
	}

	past := prices[len(prices)-1-period]
	if past == 0 {
		return 0
	}

	return (prices[len(prices)-1] - past) / past
}

func classifyTrend(momentum, shortMA, longMA float64) models.TrendType {
	maBullish := shortMA > longMA
	maBearish := shortMA < longMA

	switch {
	case momentum > 0.02 && maBullish:
		return models.TrendStrongUp
	case momentum > 0.005 && maBullish:
		return models.TrendUp
	case momentum < -0.02 && maBearish:
		return models.TrendStrongDown
	case momentum < -0.005 && maBearish:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// tagSignals derives discrete signal tags from the numeric indicators
// and accumulates the bull/bear tallies used for direction scoring.
func (e *Engine) tagSignals(r *models.IndicatorReport) {
	bull := func(tag string) {
		r.Signals = append(r.Signals, tag)
		r.BullScore++
	}
	bear := func(tag string) {
		r.Signals = append(r.Signals, tag)
		r.BearScore++
	}

	switch {
	case r.RSI < 30:
		bull("RSI_OVERSOLD")
	case r.RSI > 70:
		bear("RSI_OVERBOUGHT")
	}

	switch {
	case r.MACD > 0:
		bull("MACD_BULLISH")
	case r.MACD < 0:
		bear("MACD_BEARISH")
	}

	switch {
	case r.StochasticK < 20:
		bull("STOCHASTIC_OVERSOLD")
	case r.StochasticK > 80:
		bear("STOCHASTIC_OVERBOUGHT")
	}

	switch {
	case r.WilliamsR < -80:
		bull("WILLIAMS_OVERSOLD")
	case r.WilliamsR > -20:
		bear("WILLIAMS_OVERBOUGHT")
	}

	switch {
	case r.BollingerZ < -2:
		bull("BELOW_LOWER_BAND")
	case r.BollingerZ > 2:
		bear("ABOVE_UPPER_BAND")
	}

	switch r.Trend {
	case models.TrendStrongUp, models.TrendUp:
		bull("TREND_" + string(r.Trend))
	case models.TrendStrongDown, models.TrendDown:
		bear("TREND_" + string(r.Trend))
	}

	if r.VolumeRatio > 1.5 {
		r.Signals = append(r.Signals, "VOLUME_SURGE")
	}
}

func rangeOf(window []float64) (low, high float64) {
	low, high = window[0], window[0]
	for _, p := range window[1:] {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	return low, high
}
