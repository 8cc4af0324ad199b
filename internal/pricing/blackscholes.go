package pricing

import (
	"math"

	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/utils"
)

// Abramowitz & Stegun 7.1.26 rational approximation coefficients for
// erf. Absolute error stays under 1.5e-7, which is far below the premium
// tolerances the solver works to.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// DaysPerYear converts calendar-day theta; vega and rho are reported per
// one percentage point of vol and rate.
const DaysPerYear = 365.0

// Inputs bundles the Black-Scholes parameters for one valuation.
type Inputs struct {
	Spot       float64
	Strike     float64
	TimeToExp  float64 // year fraction
	RiskFree   float64
	Volatility float64
}

func (in Inputs) validate() error {
	if in.Spot <= 0 {
		return utils.NewInvalidInputErrorf("spot must be positive, got %f", in.Spot)
	}
	if in.Strike <= 0 {
		return utils.NewInvalidInputErrorf("strike must be positive, got %f", in.Strike)
	}
	if in.Volatility < 0 {
		return utils.NewInvalidInputErrorf("volatility must be non-negative, got %f", in.Volatility)
	}
	return nil
}

// Price returns the Black-Scholes value of a European option. Expired
// or zero-time contracts price at intrinsic value.
func Price(optType models.OptionType, in Inputs) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	if in.TimeToExp <= 0 || in.Volatility == 0 {
		return intrinsic(optType, in.Spot, in.Strike), nil
	}

	d1, d2 := dValues(in)
	if optType == models.Call {
		return in.Spot*normCDF(d1) - in.Strike*math.Exp(-in.RiskFree*in.TimeToExp)*normCDF(d2), nil
	}
	return in.Strike*math.Exp(-in.RiskFree*in.TimeToExp)*normCDF(-d2) - in.Spot*normCDF(-d1), nil
}

// ComputeGreeks returns the sensitivities for a European option. Theta
// is per calendar day; vega and rho are per one percentage point. At or
// past expiry, delta collapses to its in-the-money indicator and every
// other sensitivity is zero.
func ComputeGreeks(optType models.OptionType, in Inputs) (models.Greeks, error) {
	if err := in.validate(); err != nil {
		return models.Greeks{}, err
	}

	if in.TimeToExp <= 0 || in.Volatility == 0 {
		return expiryGreeks(optType, in.Spot, in.Strike), nil
	}

	d1, d2 := dValues(in)
	pdf := normPDF(d1)
	sqrtT := math.Sqrt(in.TimeToExp)
	discount := math.Exp(-in.RiskFree * in.TimeToExp)

	var g models.Greeks
	if optType == models.Call {
		g.Delta = normCDF(d1)
		g.Rho = in.Strike * in.TimeToExp * discount * normCDF(d2) / 100
	} else {
		g.Delta = normCDF(d1) - 1
		g.Rho = -in.Strike * in.TimeToExp * discount * normCDF(-d2) / 100
	}

	g.Gamma = pdf / (in.Spot * in.Volatility * sqrtT)
	g.Vega = in.Spot * pdf * sqrtT / 100

	thetaAnnual := -in.Spot * pdf * in.Volatility / (2 * sqrtT)
	if optType == models.Call {
		thetaAnnual -= in.RiskFree * in.Strike * discount * normCDF(d2)
	} else {
		thetaAnnual += in.RiskFree * in.Strike * discount * normCDF(-d2)
	}
	g.Theta = thetaAnnual / DaysPerYear

	return g, nil
}

// PriceAndGreeks values the option and computes its sensitivities in
// one call.
func PriceAndGreeks(optType models.OptionType, in Inputs) (float64, models.Greeks, error) {
	price, err := Price(optType, in)
	if err != nil {
		return 0, models.Greeks{}, err
	}
	greeks, err := ComputeGreeks(optType, in)
	if err != nil {
		return 0, models.Greeks{}, err
	}
	return price, greeks, nil
}

// Vega returns the raw (per unit vol) vega used by the implied-vol
// solver's Newton step.
func Vega(in Inputs) float64 {
	if in.TimeToExp <= 0 || in.Volatility <= 0 {
		return 0
	}
	d1, _ := dValues(in)
	return in.Spot * normPDF(d1) * math.Sqrt(in.TimeToExp)
}

func dValues(in Inputs) (d1, d2 float64) {
	sqrtT := math.Sqrt(in.TimeToExp)
	d1 = (math.Log(in.Spot/in.Strike) + (in.RiskFree+in.Volatility*in.Volatility/2)*in.TimeToExp) /
		(in.Volatility * sqrtT)
	d2 = d1 - in.Volatility*sqrtT
	return d1, d2
}

func intrinsic(optType models.OptionType, spot, strike float64) float64 {
	if optType == models.Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

func expiryGreeks(optType models.OptionType, spot, strike float64) models.Greeks {
	var g models.Greeks
	if optType == models.Call {
		if spot > strike {
			g.Delta = 1
		}
	} else {
		if spot < strike {
			g.Delta = -1
		}
	}
	return g
}

// normCDF is the standard normal CDF via the Abramowitz & Stegun erf
// approximation.
func normCDF(x float64) float64 {
	return 0.5 * (1 + erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	t := 1 / (1 + erfP*x)
	y := 1 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}
