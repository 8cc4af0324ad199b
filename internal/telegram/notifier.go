package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/models"
)

// Notifier delivers ranked calls to a Telegram chat. A missing token
// disables delivery without failing the pipeline.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

// NewNotifier creates the Telegram notifier. With an empty token it
// returns a disabled notifier that drops messages silently.
func NewNotifier(cfg config.TelegramConfig, logger *logrus.Logger) (*Notifier, error) {
	n := &Notifier{logger: logger}
	if cfg.BotToken == "" {
		logger.Info("Telegram token not configured, notifications disabled")
		return n, nil
	}

	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat ID %q: %w", cfg.ChatID, err)
	}

	b, err := bot.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	n.bot = b
	n.chatID = chatID
	return n, nil
}

// Enabled reports whether the notifier can actually deliver.
func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// NotifyCalls sends the formatted scan result for one symbol.
func (n *Notifier) NotifyCalls(ctx context.Context, symbol string, calls []models.RankedCall) error {
	if !n.Enabled() || len(calls) == 0 {
		return nil
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatCallsMessage(symbol, calls),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"calls":  len(calls),
	}).Info("Sent call alert")
	return nil
}

// FormatCallsMessage renders the alert body for one symbol's calls.
func FormatCallsMessage(symbol string, calls []models.RankedCall) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s Options Calls*\n\n", symbol)

	for i, c := range calls {
		opt := c.Candidate.Option
		fmt.Fprintf(&b, "*%d. %s %s %.0f* (exp %s)\n",
			i+1, c.Candidate.Action, opt.Contract.Type, opt.Contract.Strike,
			opt.Contract.Expiry.Format("02 Jan"))
		fmt.Fprintf(&b, "   Premium: %.2f | IV: %.1f%%\n", opt.Premium, opt.ImpliedVol*100)
		fmt.Fprintf(&b, "   Confidence: %.0f%% | PoP: %.0f%%\n",
			c.Candidate.Confidence, c.Risk.ProbabilityOfProfit)

		if c.Risk.MaxLossUnbounded {
			b.WriteString("   Max loss: UNBOUNDED\n")
		} else {
			fmt.Fprintf(&b, "   Max loss: %.2f | R:R %.2f\n", c.Risk.MaxLoss, c.Risk.RiskRewardRatio)
		}
		fmt.Fprintf(&b, "   Breakeven: %.2f | Risk: %s", c.Risk.Breakeven, c.Risk.RiskLevel)
		if c.Risk.PositionSize > 0 {
			fmt.Fprintf(&b, " | Lots: %d", c.Risk.PositionSize)
		}
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
