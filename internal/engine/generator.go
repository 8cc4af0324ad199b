package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
	"github.com/quantpulse/optionsengine/internal/pricing"
	"github.com/quantpulse/optionsengine/internal/volatility"
)

// SentimentSource scores market sentiment for a symbol in [-1, 1].
type SentimentSource interface {
	Score(symbol string) float64
}

// ModelSource scores a directional model forecast for a symbol in
// [-1, 1].
type ModelSource interface {
	Score(symbol string) float64
}

// NeutralSource is the default sentiment and model provider: it always
// reports zero, so candidates lean only on what the engine can measure.
type NeutralSource struct{}

// Score always returns 0.
func (NeutralSource) Score(string) float64 { return 0 }

// Generator turns an indicator report and a volatility estimate into
// priced, scored strategy candidates across the strike ladder and
// expiry window.
type Generator struct {
	cfg       *config.Config
	vol       *volatility.Estimator
	sentiment SentimentSource
	model     ModelSource
	logger    *logrus.Logger
	now       func() time.Time
}

// NewGenerator creates a candidate generator. Nil sentiment or model
// sources fall back to the neutral provider.
func NewGenerator(cfg *config.Config, vol *volatility.Estimator, sentiment SentimentSource, model ModelSource, logger *logrus.Logger) *Generator {
	if sentiment == nil {
		sentiment = NeutralSource{}
	}
	if model == nil {
		model = NeutralSource{}
	}
	return &Generator{
		cfg:       cfg,
		vol:       vol,
		sentiment: sentiment,
		model:     model,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate builds candidates for one underlying. Strikes come from the
// ladder around spot, expiries from the given list filtered to the
// configured day window. The direction read picks the side of the
// ladder: bullish buys calls at and above the money, bearish buys puts
// at and below, and a flat read sells premium only at strikes pinned to
// support or resistance.
func (g *Generator) Generate(symbol string, spot, step float64, report *models.IndicatorReport, prices []float64, strikes []float64, expiries []time.Time) []models.StrategyCandidate {
	now := g.now()
	baseVol := g.vol.Estimate(symbol, prices)
	sentiment := clamp(g.sentiment.Score(symbol), -1, 1)
	model := clamp(g.model.Score(symbol), -1, 1)
	direction := g.directionScore(report, sentiment, model)
	atm := nearestStrike(strikes, spot)

	var out []models.StrategyCandidate
	for _, expiry := range expiries {
		days := int(expiry.Sub(now).Hours() / 24)
		if days < g.cfg.Scoring.MinExpiryDays || days > g.cfg.Scoring.MaxExpiryDays {
			continue
		}

		for _, strike := range strikes {
			for _, optType := range g.sidesFor(strike, atm, step, direction, report) {
				action := g.actionFor(optType, direction)
				cand, ok := g.buildCandidate(symbol, spot, strike, expiry, optType, action,
					baseVol, direction, sentiment, model, report, now)
				if ok {
					out = append(out, cand)
				}
			}
		}
	}

	g.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"direction":  direction,
		"base_vol":   baseVol,
		"candidates": len(out),
	}).Debug("Generated strategy candidates")

	return out
}

// sidesFor picks the option types worth pricing at one strike. A
// bullish read works calls at the money and above, a bearish read puts
// at the money and below. A flat read is selective: puts pinned to
// support, calls pinned to resistance, "pinned" meaning within one
// strike step or stretched past the Bollinger band on that side.
func (g *Generator) sidesFor(strike, atm, step, direction float64, report *models.IndicatorReport) []models.OptionType {
	threshold := g.cfg.Scoring.DirectionThreshold

	switch {
	case direction > threshold:
		if strike >= atm {
			return []models.OptionType{models.Call}
		}
		return nil
	case direction < -threshold:
		if strike <= atm {
			return []models.OptionType{models.Put}
		}
		return nil
	}

	var sides []models.OptionType
	if strike <= atm && (nearLevel(strike, report.Support, step) || report.BollingerZ < -2) {
		sides = append(sides, models.Put)
	}
	if strike >= atm && (nearLevel(strike, report.Resistance, step) || report.BollingerZ > 2) {
		sides = append(sides, models.Call)
	}
	return sides
}

// nearestStrike returns the ladder strike closest to spot, the anchor
// for "at the money and beyond" selection.
func nearestStrike(strikes []float64, spot float64) float64 {
	if len(strikes) == 0 {
		return spot
	}

	best := strikes[0]
	for _, s := range strikes[1:] {
		if math.Abs(s-spot) < math.Abs(best-spot) {
			best = s
		}
	}
	return best
}

func nearLevel(strike, level, step float64) bool {
	return level > 0 && math.Abs(strike-level) < step
}

// directionScore blends the technical read with sentiment and model
// forecasts into a single [-1, 1] lean.
func (g *Generator) directionScore(report *models.IndicatorReport, sentiment, model float64) float64 {
	s := g.cfg.Scoring
	technical := 0.0

	switch {
	case report.RSI > 70:
		technical -= s.RSIExtremeWeight
	case report.RSI < 30:
		technical += s.RSIExtremeWeight
	case report.RSI > 50:
		technical += s.RSILeanWeight
	default:
		technical -= s.RSILeanWeight
	}

	switch {
	case report.MACD > 0:
		technical += s.MACDWeight
	case report.MACD < 0:
		technical -= s.MACDWeight
	}

	// Momentum contributes in percent terms.
	technical += report.Momentum * 100 * s.MomentumWeight
	technical = clamp(technical, -1, 1)

	return clamp(technical*s.DirectionTechnical+sentiment*s.DirectionSentiment+model*s.DirectionModel, -1, 1)
}

func (g *Generator) actionFor(optType models.OptionType, direction float64) models.Action {
	threshold := g.cfg.Scoring.DirectionThreshold

	if direction > threshold {
		if optType == models.Call {
			return models.ActionBuy
		}
		return models.ActionSell
	}
	if direction < -threshold {
		if optType == models.Put {
			return models.ActionBuy
		}
		return models.ActionSell
	}
	// No directional edge: collect premium on both sides.
	return models.ActionSell
}

func (g *Generator) buildCandidate(symbol string, spot, strike float64, expiry time.Time, optType models.OptionType, action models.Action, baseVol, direction, sentiment, model float64, report *models.IndicatorReport, now time.Time) (models.StrategyCandidate, bool) {
	contract := models.OptionContract{
		Symbol: symbol,
		Type:   optType,
		Strike: strike,
		Expiry: expiry,
	}

	iv := g.vol.ForStrike(baseVol, spot, strike)
	in := pricing.Inputs{
		Spot:       spot,
		Strike:     strike,
		TimeToExp:  contract.TimeToExpiry(now),
		RiskFree:   g.cfg.Volatility.RiskFreeRate,
		Volatility: iv,
	}

	premium, greeks, err := pricing.PriceAndGreeks(optType, in)
	if err != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{
			"symbol": symbol,
			"strike": strike,
		}).Warn("Skipping unpriceable candidate")
		return models.StrategyCandidate{}, false
	}
	if premium <= 0 {
		return models.StrategyCandidate{}, false
	}

	priced := models.PricedOption{
		Contract:   contract,
		Spot:       spot,
		Premium:    premium,
		ImpliedVol: iv,
		Greeks:     greeks,
	}

	confidence, rationale := g.confidence(optType, action, direction, sentiment, model, greeks, report)
	rationale = append(rationale, "IV_"+g.vol.Classify(iv))
	expectedProfit := g.expectedProfit(priced, action, in)

	return models.StrategyCandidate{
		ID:             uuid.NewString(),
		Option:         priced,
		Action:         action,
		Confidence:     confidence,
		DirectionScore: direction,
		ExpectedProfit: expectedProfit,
		Rationale:      rationale,
		GeneratedAt:    now,
	}, true
}

// confidence blends five component scores, each on a 0-100 scale, with
// the configured weights.
func (g *Generator) confidence(optType models.OptionType, action models.Action, direction, sentiment, model float64, greeks models.Greeks, report *models.IndicatorReport) (float64, []string) {
	// A bought call and a sold put both want the market up.
	wantsUp := (optType == models.Call) == (action == models.ActionBuy)
	align := func(score float64) float64 {
		if wantsUp {
			return score
		}
		return -score
	}

	techScore := clamp(50+align(direction)*50, 0, 100)
	sentScore := clamp(50+align(sentiment)*50, 0, 100)
	modelScore := clamp(50+align(model)*50, 0, 100)

	// Delta magnitude near 0.5 prices the most responsive contracts.
	greekScore := clamp(100-math.Abs(0.5-math.Abs(greeks.Delta))*200, 0, 100)

	volumeScore := clamp(report.VolumeRatio/2*100, 0, 100)

	s := g.cfg.Scoring
	confidence := techScore*s.TechnicalWeight +
		greekScore*s.GreeksWeight +
		volumeScore*s.VolumeWeight +
		sentScore*s.SentimentWeight +
		modelScore*s.ModelWeight

	var rationale []string
	if techScore >= 60 {
		rationale = append(rationale, "technical alignment")
	}
	if greekScore >= 60 {
		rationale = append(rationale, "responsive delta")
	}
	if report.VolumeRatio > 1.5 {
		rationale = append(rationale, "volume surge")
	}
	rationale = append(rationale, report.Signals...)

	return clamp(confidence, 0, 100), rationale
}

// expectedProfit estimates the payoff of the capped expected move. A
// seller's best case is the premium collected.
func (g *Generator) expectedProfit(opt models.PricedOption, action models.Action, in pricing.Inputs) float64 {
	if action == models.ActionSell {
		return opt.Premium
	}

	move := in.Volatility * math.Sqrt(in.TimeToExp)
	if moveCap := g.cfg.Risk.ExpectedMoveCap; move > moveCap {
		move = moveCap
	}

	var spotAtMove float64
	if opt.Contract.Type == models.Call {
		spotAtMove = opt.Spot * (1 + move)
	} else {
		spotAtMove = opt.Spot * (1 - move)
	}

	moved := opt
	moved.Spot = spotAtMove
	profit := moved.IntrinsicValue() - opt.Premium
	if profit < 0 {
		return 0
	}
	return profit
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
