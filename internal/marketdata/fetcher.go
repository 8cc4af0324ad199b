package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/models"
)

// Fetcher returns the latest snapshot for an underlying index.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (models.MarketSnapshot, error)
}

// quoteSymbols maps index names to their chart API tickers.
var quoteSymbols = map[string]string{
	"NIFTY":     "^NSEI",
	"BANKNIFTY": "^NSEBANK",
	"SENSEX":    "^BSESN",
	"FINNIFTY":  "NIFTY_FIN_SERVICE.NS",
}

// chartResponse mirrors the chart API payload down to the fields the
// engine needs. Prices decode straight into decimals.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice   decimal.Decimal `json:"regularMarketPrice"`
				RegularMarketDayHigh decimal.Decimal `json:"regularMarketDayHigh"`
				RegularMarketDayLow  decimal.Decimal `json:"regularMarketDayLow"`
				RegularMarketVolume  decimal.Decimal `json:"regularMarketVolume"`
				RegularMarketTime    int64           `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// HTTPFetcher pulls index quotes from a chart-style quote API.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewHTTPFetcher creates a quote fetcher against baseURL with the given
// request timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch retrieves the current snapshot for an index symbol.
func (f *HTTPFetcher) Fetch(ctx context.Context, symbol string) (models.MarketSnapshot, error) {
	ticker, ok := quoteSymbols[symbol]
	if !ok {
		ticker = symbol
	}

	url := fmt.Sprintf("%s/%s?interval=1m&range=1d", f.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("failed to build quote request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "optionsengine/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("quote request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.MarketSnapshot{}, fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return models.MarketSnapshot{}, fmt.Errorf("quote API error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return models.MarketSnapshot{}, fmt.Errorf("quote response for %s has no result", symbol)
	}

	meta := payload.Chart.Result[0].Meta
	snap := models.MarketSnapshot{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		High:      meta.RegularMarketDayHigh,
		Low:       meta.RegularMarketDayLow,
		Volume:    meta.RegularMarketVolume,
		Timestamp: time.Unix(meta.RegularMarketTime, 0),
	}
	if meta.RegularMarketTime == 0 {
		snap.Timestamp = time.Now()
	}

	if err := snap.Validate(); err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("quote for %s failed validation: %w", symbol, err)
	}

	f.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  snap.Price,
	}).Debug("Fetched market snapshot")

	return snap, nil
}

// StrikeLadder returns strikes centered on the ATM strike: steps below
// and above in step increments, plus the ATM strike itself.
func StrikeLadder(spot, step float64, width int) []float64 {
	if step <= 0 || spot <= 0 {
		return nil
	}

	atm := roundToStep(spot, step)
	out := make([]float64, 0, 2*width+1)
	for i := -width; i <= width; i++ {
		out = append(out, atm+float64(i)*step)
	}
	return out
}

func roundToStep(v, step float64) float64 {
	n := int64(v/step + 0.5)
	return float64(n) * step
}
