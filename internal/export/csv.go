package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantpulse/optionsengine/internal/models"
)

// csvHeader is the stable column order consumers depend on. Never
// reorder; append only.
var csvHeader = []string{
	"symbol",
	"optionType",
	"strike",
	"expiry",
	"action",
	"confidence",
	"spot",
	"premium",
	"impliedVol",
	"delta",
	"gamma",
	"theta",
	"vega",
	"maxLoss",
	"expectedProfit",
	"riskRewardRatio",
	"riskLevel",
	"accepted",
	"reasons",
}

// WriteCSV renders ranked calls as CSV with the stable header.
func WriteCSV(w io.Writer, calls []models.RankedCall) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, c := range calls {
		if err := cw.Write(record(c)); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func record(c models.RankedCall) []string {
	opt := c.Candidate.Option

	maxLoss := money(c.Risk.MaxLoss)
	if c.Risk.MaxLossUnbounded {
		maxLoss = "UNBOUNDED"
	}

	return []string{
		opt.Contract.Symbol,
		opt.Contract.Type.String(),
		money(opt.Contract.Strike),
		opt.Contract.Expiry.Format("2006-01-02"),
		string(c.Candidate.Action),
		money(c.Candidate.Confidence),
		money(opt.Spot),
		money(opt.Premium),
		ratio(opt.ImpliedVol),
		ratio(opt.Greeks.Delta),
		ratio(opt.Greeks.Gamma),
		ratio(opt.Greeks.Theta),
		ratio(opt.Greeks.Vega),
		maxLoss,
		money(c.Candidate.ExpectedProfit),
		ratio(c.Risk.RiskRewardRatio),
		string(c.Risk.RiskLevel),
		strconv.FormatBool(c.Risk.Accepted),
		strings.Join(c.Risk.Reasons, "; "),
	}
}

// money renders price-like figures with two fixed decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ratio renders Greeks and ratios with four decimals.
func ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}
