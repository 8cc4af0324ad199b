package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/utils"
)

// Weekly ATM NIFTY contract used across the pricing tests.
var atmWeekly = Inputs{
	Spot:       24500,
	Strike:     24500,
	TimeToExp:  7.0 / 365.0,
	RiskFree:   0.065,
	Volatility: 0.18,
}

func TestATMCallDelta(t *testing.T) {
	greeks, err := ComputeGreeks(models.Call, atmWeekly)
	require.NoError(t, err)

	// ATM call delta sits just above 0.5; the drift term nudges it up.
	assert.Greater(t, greeks.Delta, 0.50)
	assert.Less(t, greeks.Delta, 0.55)
}

func TestPutCallParity(t *testing.T) {
	inputs := []Inputs{
		atmWeekly,
		{Spot: 24500, Strike: 24000, TimeToExp: 30.0 / 365.0, RiskFree: 0.065, Volatility: 0.22},
		{Spot: 52000, Strike: 53000, TimeToExp: 14.0 / 365.0, RiskFree: 0.065, Volatility: 0.25},
		{Spot: 81000, Strike: 80000, TimeToExp: 45.0 / 365.0, RiskFree: 0.065, Volatility: 0.16},
	}

	for _, in := range inputs {
		call, err := Price(models.Call, in)
		require.NoError(t, err)
		put, err := Price(models.Put, in)
		require.NoError(t, err)

		parity := in.Spot - in.Strike*math.Exp(-in.RiskFree*in.TimeToExp)
		assert.InDelta(t, parity, call-put, math.Abs(parity)*1e-6+1e-6)
	}
}

func TestExpiredOptionPricesAtIntrinsic(t *testing.T) {
	in := atmWeekly
	in.TimeToExp = 0
	in.Spot = 24700

	call, err := Price(models.Call, in)
	require.NoError(t, err)
	assert.InDelta(t, 200, call, 1e-9)

	put, err := Price(models.Put, in)
	require.NoError(t, err)
	assert.Zero(t, put)
}

func TestExpiredGreeks(t *testing.T) {
	in := atmWeekly
	in.TimeToExp = 0

	in.Spot = 24700 // ITM call
	g, err := ComputeGreeks(models.Call, in)
	require.NoError(t, err)
	assert.Equal(t, models.Greeks{Delta: 1}, g)

	in.Spot = 24300 // OTM call, ITM put
	g, err = ComputeGreeks(models.Call, in)
	require.NoError(t, err)
	assert.Equal(t, models.Greeks{}, g)

	g, err = ComputeGreeks(models.Put, in)
	require.NoError(t, err)
	assert.Equal(t, models.Greeks{Delta: -1}, g)
}

func TestGreeksSigns(t *testing.T) {
	callGreeks, err := ComputeGreeks(models.Call, atmWeekly)
	require.NoError(t, err)
	putGreeks, err := ComputeGreeks(models.Put, atmWeekly)
	require.NoError(t, err)

	assert.Greater(t, callGreeks.Gamma, 0.0)
	assert.Greater(t, callGreeks.Vega, 0.0)
	assert.Less(t, callGreeks.Theta, 0.0)
	assert.Greater(t, callGreeks.Rho, 0.0)

	assert.Less(t, putGreeks.Delta, 0.0)
	assert.Less(t, putGreeks.Rho, 0.0)
	// Gamma and vega are shared across sides.
	assert.InDelta(t, callGreeks.Gamma, putGreeks.Gamma, 1e-12)
	assert.InDelta(t, callGreeks.Vega, putGreeks.Vega, 1e-12)
}

func TestDeltaRelation(t *testing.T) {
	callGreeks, err := ComputeGreeks(models.Call, atmWeekly)
	require.NoError(t, err)
	putGreeks, err := ComputeGreeks(models.Put, atmWeekly)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, callGreeks.Delta-putGreeks.Delta, 1e-9)
}

func TestInvalidInputs(t *testing.T) {
	bad := atmWeekly
	bad.Spot = 0
	_, err := Price(models.Call, bad)
	assert.True(t, utils.IsInvalidInput(err))

	bad = atmWeekly
	bad.Strike = -100
	_, err = ComputeGreeks(models.Put, bad)
	assert.True(t, utils.IsInvalidInput(err))

	bad = atmWeekly
	bad.Volatility = -0.1
	_, err = Price(models.Call, bad)
	assert.True(t, utils.IsInvalidInput(err))
}

func TestPriceMonotoneInVol(t *testing.T) {
	low := atmWeekly
	low.Volatility = 0.12
	high := atmWeekly
	high.Volatility = 0.30

	lowPrice, err := Price(models.Call, low)
	require.NoError(t, err)
	highPrice, err := Price(models.Call, high)
	require.NoError(t, err)

	assert.Greater(t, highPrice, lowPrice)
}

func TestVegaMatchesFiniteDifference(t *testing.T) {
	const bump = 1e-5

	base, err := Price(models.Call, atmWeekly)
	require.NoError(t, err)

	bumped := atmWeekly
	bumped.Volatility += bump
	bumpedPrice, err := Price(models.Call, bumped)
	require.NoError(t, err)

	fd := (bumpedPrice - base) / bump
	assert.InDelta(t, fd, Vega(atmWeekly), math.Abs(fd)*1e-3)
}

func TestNormCDFBounds(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-9)
	assert.InDelta(t, 1.0, normCDF(8), 1e-7)
	assert.InDelta(t, 0.0, normCDF(-8), 1e-7)
	assert.InDelta(t, 0.8413, normCDF(1), 2e-4)
}
