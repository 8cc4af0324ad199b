package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantpulse/optionsengine/internal/utils"
)

// MarketSnapshot is one observation of an underlying index: last traded
// price, session range and traded volume at a point in time.
type MarketSnapshot struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate rejects snapshots the analytics core cannot use.
func (s *MarketSnapshot) Validate() error {
	if s.Symbol == "" {
		return utils.NewInvalidInputError("snapshot symbol is empty")
	}
	if !s.Price.IsPositive() {
		return utils.NewInvalidInputErrorf("snapshot price must be positive, got %s", s.Price)
	}
	if s.Volume.IsNegative() {
		return utils.NewInvalidInputErrorf("snapshot volume must be non-negative, got %s", s.Volume)
	}
	if s.Timestamp.IsZero() {
		return utils.NewInvalidInputError("snapshot timestamp is zero")
	}
	return nil
}

// PriceF returns the price as float64 for the analytics math.
func (s *MarketSnapshot) PriceF() float64 {
	return s.Price.InexactFloat64()
}

// VolumeF returns the volume as float64 for the analytics math.
func (s *MarketSnapshot) VolumeF() float64 {
	return s.Volume.InexactFloat64()
}
