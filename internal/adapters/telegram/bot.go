// Package telegram connects the report service to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cryptoPulseBot/internal/ports"
)

// maxMessageLength is the Telegram limit for a text message.
const maxMessageLength = 4096

// Handler processes the text of one incoming message.
type Handler func(ctx context.Context, chatID int64, text string) error

// Bot receives updates by long polling and implements ports.Messenger.
type Bot struct {
	api         *tgbotapi.BotAPI
	logger      ports.Logger
	pollTimeout int
	wg          sync.WaitGroup
}

var _ ports.Messenger = (*Bot)(nil)

// Config holds configuration for the Telegram bot.
type Config struct {
	Token       string
	APIEndpoint string        // Optional, defaults to the public Bot API
	PollTimeout time.Duration // Long polling timeout, defaults to 30s
	HTTPTimeout time.Duration // Extra time allowed on top of PollTimeout, defaults to 10s
	Logger      ports.Logger
}

// New creates a bot and verifies the token with getMe.
func New(cfg Config) (*Bot, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for telegram bot")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: telegram token is required", ports.ErrConfigurationError)
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	client := &http.Client{Timeout: cfg.PollTimeout + cfg.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, client)
	if err != nil {
		err = classifyError(err, "getMe")
		cfg.Logger.Error(context.Background(), err, "Telegram bot initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Telegram bot authorized", map[string]interface{}{"username": api.Self.UserName})

	return &Bot{
		api:         api,
		logger:      cfg.Logger,
		pollTimeout: int(cfg.PollTimeout / time.Second),
	}, nil
}

// Username returns the bot's Telegram username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Send posts a new text message and returns its message ID.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
	}
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	msg.DisableWebPagePreview = true
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, classifyError(err, "sendMessage")
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a message sent earlier. Editing to identical
// text is not an error.
func (b *Bot) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, truncate(text))
	edit.DisableWebPagePreview = true
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return classifyError(err, "editMessageText")
	}
	return nil
}

// Run receives updates until ctx is canceled, handing each text message to
// handler in its own goroutine. It waits for running handlers before returning.
func (b *Bot) Run(ctx context.Context, handler Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info(ctx, "Listening for Telegram updates", map[string]interface{}{"username": b.Username()})

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info(context.Background(), "Telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, update, handler)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update, handler Handler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	text := msg.Text

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error(ctx, fmt.Errorf("panic: %v", r), "Update handler panicked", map[string]interface{}{"chatID": chatID})
			}
		}()
		if err := handler(ctx, chatID, text); err != nil {
			b.logger.Error(ctx, err, "Failed to handle message", map[string]interface{}{"chatID": chatID, "text": text})
		}
	}()
}

// classifyError maps Bot API failures to the sentinel errors in ports.
func classifyError(err error, operation string) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("telegram %s failed: %w: retry after %ds: %w", operation, ports.ErrRateLimited, apiErr.RetryAfter, err)
		case apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrAuthenticationFailed, err)
		case apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrInvalidRequest, err)
		}
		return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrUnexpectedUpstreamRes, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrTimeout, err)
		}
		return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	}
	return fmt.Errorf("telegram %s failed: %w: %w", operation, ports.ErrUnknown, err)
}

// truncate shortens text to the Telegram limit without splitting a rune.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return text
	}
	return string(runes[:maxMessageLength-1]) + "…"
}
