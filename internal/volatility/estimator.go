package volatility

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/pricing"
)

const (
	// TradingDaysPerYear annualizes daily log-return deviation.
	TradingDaysPerYear = 252.0

	// minHistoricalSamples is the smallest history that produces a
	// usable realized-vol estimate; anything shorter falls back to the
	// configured typical vol.
	minHistoricalSamples = 21

	solverStartVol  = 0.20
	solverMaxIters  = 100
	solverTolerance = 1e-4
	solverVegaFloor = 1e-10

	// smileFullWidth is the moneyness distance at which the smile
	// factor reaches its configured maximum.
	smileFullWidth = 0.10
)

// Estimator produces volatility figures for the pricing layer: realized
// vol from history, implied vol from quoted premiums, and a per-index
// typical fallback when neither is available.
type Estimator struct {
	cfg    config.VolatilityConfig
	logger *logrus.Logger
}

// NewEstimator creates a volatility estimator.
func NewEstimator(cfg config.VolatilityConfig, logger *logrus.Logger) *Estimator {
	return &Estimator{cfg: cfg, logger: logger}
}

// Historical returns the annualized standard deviation of log returns.
// The second return is false when history is too short to trust.
func (e *Estimator) Historical(prices []float64) (float64, bool) {
	if len(prices) < minHistoricalSamples {
		return 0, false
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			return 0, false
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear), true
}

// Estimate returns the best available volatility for a symbol: realized
// vol when history allows, the configured typical vol otherwise, always
// clamped into the plausible band.
func (e *Estimator) Estimate(symbol string, prices []float64) float64 {
	if vol, ok := e.Historical(prices); ok {
		return e.clampBand(vol)
	}

	typical := e.cfg.TypicalVolFor(symbol)
	e.logger.WithFields(logrus.Fields{
		"symbol":  symbol,
		"samples": len(prices),
		"typical": typical,
	}).Debug("History too short for realized vol, using typical")
	return e.clampBand(typical)
}

// Implied solves Black-Scholes for the volatility matching a quoted
// premium via Newton-Raphson. Quotes below intrinsic value are
// unsolvable and return the solver floor as a sentinel; converged
// results are clamped into the plausible band.
func (e *Estimator) Implied(optType models.OptionType, marketPrice float64, in pricing.Inputs) float64 {
	if marketPrice <= 0 || in.TimeToExp <= 0 {
		return e.cfg.SolverFloor
	}

	intrinsic := 0.0
	if optType == models.Call {
		intrinsic = math.Max(in.Spot-in.Strike*math.Exp(-in.RiskFree*in.TimeToExp), 0)
	} else {
		intrinsic = math.Max(in.Strike*math.Exp(-in.RiskFree*in.TimeToExp)-in.Spot, 0)
	}
	if marketPrice < intrinsic {
		return e.cfg.SolverFloor
	}

	vol := solverStartVol
	for i := 0; i < solverMaxIters; i++ {
		in.Volatility = vol
		price, err := pricing.Price(optType, in)
		if err != nil {
			return e.cfg.SolverFloor
		}

		diff := price - marketPrice
		if math.Abs(diff) < solverTolerance {
			return e.clampBand(vol)
		}

		vega := pricing.Vega(in)
		if vega < solverVegaFloor {
			break
		}

		vol -= diff / vega
		if vol < e.cfg.SolverFloor {
			vol = e.cfg.SolverFloor
		} else if vol > e.cfg.SolverCeiling {
			vol = e.cfg.SolverCeiling
		}
	}

	return e.clampBand(vol)
}

// SmileFactor scales a base volatility for strike distance: 1.0 at the
// money, rising linearly to the configured maximum at smileFullWidth
// moneyness and beyond.
func (e *Estimator) SmileFactor(spot, strike float64) float64 {
	if spot <= 0 || strike <= 0 {
		return 1.0
	}

	dist := math.Abs(strike/spot - 1)
	if dist > smileFullWidth {
		dist = smileFullWidth
	}

	return 1 + dist/smileFullWidth*(e.cfg.SmileMaxFactor-1)
}

// ForStrike returns the smile-adjusted volatility for one strike,
// clamped into the plausible band.
func (e *Estimator) ForStrike(baseVol, spot, strike float64) float64 {
	return e.clampBand(baseVol * e.SmileFactor(spot, strike))
}

// Level labels for where an implied vol sits within the configured band.
const (
	LevelVeryLow  = "VERY_LOW"
	LevelLow      = "LOW"
	LevelNormal   = "NORMAL"
	LevelHigh     = "HIGH"
	LevelVeryHigh = "VERY_HIGH"
)

// Classify buckets an implied vol by its percentile of the configured
// [min, max] band in 20% slices.
func (e *Estimator) Classify(iv float64) string {
	span := e.cfg.MaxImpliedVol - e.cfg.MinImpliedVol
	if span <= 0 {
		return LevelNormal
	}

	pct := (iv - e.cfg.MinImpliedVol) / span
	switch {
	case pct < 0.2:
		return LevelVeryLow
	case pct < 0.4:
		return LevelLow
	case pct < 0.6:
		return LevelNormal
	case pct < 0.8:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

func (e *Estimator) clampBand(vol float64) float64 {
	if vol < e.cfg.MinImpliedVol {
		return e.cfg.MinImpliedVol
	}
	if vol > e.cfg.MaxImpliedVol {
		return e.cfg.MaxImpliedVol
	}
	return vol
}
