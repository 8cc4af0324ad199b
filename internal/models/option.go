package models

import (
	"encoding/json"
	"time"

	"github.com/quantpulse/optionsengine/internal/utils"
)

// OptionType is the option side. The zero value is Call; there is no
// third state, and parsing anything else is an error.
type OptionType int

const (
	Call OptionType = iota
	Put
)

// String returns the exchange-style name for the option type.
func (t OptionType) String() string {
	if t == Put {
		return "PUT"
	}
	return "CALL"
}

// ParseOptionType converts "CALL" or "PUT" into an OptionType.
func ParseOptionType(s string) (OptionType, error) {
	switch s {
	case "CALL", "CE", "call":
		return Call, nil
	case "PUT", "PE", "put":
		return Put, nil
	default:
		return Call, utils.NewInvalidInputErrorf("unknown option type %q", s)
	}
}

// MarshalJSON encodes the option type as its string name.
func (t OptionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "CALL" or "PUT".
func (t *OptionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOptionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Action is the trade side for a candidate.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// OptionContract identifies a single listed index option.
type OptionContract struct {
	Symbol  string     `json:"symbol"`
	Type    OptionType `json:"option_type"`
	Strike  float64    `json:"strike"`
	Expiry  time.Time  `json:"expiry"`
	LotSize int        `json:"lot_size"`
}

// DaysToExpiry returns whole calendar days until expiry, never negative.
func (c *OptionContract) DaysToExpiry(now time.Time) int {
	d := int(c.Expiry.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// TimeToExpiry returns the year fraction until expiry, never negative.
func (c *OptionContract) TimeToExpiry(now time.Time) float64 {
	t := c.Expiry.Sub(now).Hours() / 24 / 365
	if t < 0 {
		return 0
	}
	return t
}

// Greeks holds the Black-Scholes sensitivities. Theta is per calendar
// day; vega and rho are per one percentage point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// PricedOption is a contract with its model valuation attached.
type PricedOption struct {
	Contract   OptionContract `json:"contract"`
	Spot       float64        `json:"spot"`
	Premium    float64        `json:"premium"`
	ImpliedVol float64        `json:"implied_vol"`
	Greeks     Greeks         `json:"greeks"`
}

// IntrinsicValue returns the exercise value of the contract at spot.
func (p *PricedOption) IntrinsicValue() float64 {
	if p.Contract.Type == Call {
		if v := p.Spot - p.Contract.Strike; v > 0 {
			return v
		}
		return 0
	}
	if v := p.Contract.Strike - p.Spot; v > 0 {
		return v
	}
	return 0
}
