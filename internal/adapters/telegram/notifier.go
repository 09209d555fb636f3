package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Notifier pushes trading notifications to a single operator chat.
// Outbound messages are rate limited to stay under Telegram API limits.
type Notifier struct {
	api         *tgbotapi.BotAPI
	chatID      int64
	rateLimiter *rate.Limiter
	log         *logger.Logger
}

// Config contains Telegram notifier configuration
type Config struct {
	Token       string
	ChatID      int64
	HTTPTimeout time.Duration
}

// NewNotifier creates a new Telegram notifier
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	return &Notifier{
		api:    api,
		chatID: cfg.ChatID,
		// Telegram allows ~30 msg/sec, stay conservative
		rateLimiter: rate.NewLimiter(rate.Limit(20), 30),
		log:         logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// NotifyOrderProposed announces a new trade proposal awaiting approval
func (n *Notifier) NotifyOrderProposed(ctx context.Context, symbol string, side string, quantity int, price float64, confidence float64) error {
	text := fmt.Sprintf(
		"📋 *Trade Proposal*\n\n%s %d %s @ $%s\nConfidence: %.0f%%\n\nApprove or reject in the dashboard.",
		side, quantity, symbol, humanize.CommafWithDigits(price, 2), confidence*100,
	)
	return n.send(ctx, text)
}

// NotifyOrderFilled announces an executed order
func (n *Notifier) NotifyOrderFilled(ctx context.Context, symbol string, side string, quantity int, price float64) error {
	text := fmt.Sprintf(
		"✅ *Order Filled*\n\n%s %d %s @ $%s",
		side, quantity, symbol, humanize.CommafWithDigits(price, 2),
	)
	return n.send(ctx, text)
}

// NotifyPilotRun summarizes a completed autonomous pilot cycle
func (n *Notifier) NotifyPilotRun(ctx context.Context, runID string, decisions int, trades int, equity float64) error {
	text := fmt.Sprintf(
		"🤖 *Pilot Run Complete*\n\nRun: `%s`\nDecisions: %d\nTrades executed: %d\nEquity: $%s",
		runID, decisions, trades, humanize.CommafWithDigits(equity, 2),
	)
	return n.send(ctx, text)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if err := n.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		n.log.Errorf("Failed to send telegram message: %v", err)
		return errors.Wrap(err, "telegram send failed")
	}
	return nil
}
