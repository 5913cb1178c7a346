package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"golang.org/x/time/rate"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// maxKlinesPerRequest is the spot API page size limit.
	maxKlinesPerRequest = 1000
)

// Client implements ports.MarketDataClient over the Binance spot REST API.
type Client struct {
	spot          *binance.Client
	logger        ports.Logger
	limiter       *rate.Limiter
	maxRetries    int
	retryMinDelay time.Duration
	retryMaxDelay time.Duration
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	// BaseURL overrides the production/testnet URL when set.
	BaseURL string
	Logger  ports.Logger

	HTTPTimeout       time.Duration // Per request timeout (default 10s)
	MaxRetries        int           // Retries after the first attempt for transient failures
	RetryMinDelay     time.Duration // First backoff delay (default 500ms)
	RetryMaxDelay     time.Duration // Backoff cap (default 10s)
	RequestsPerSecond float64       // Client-side rate limit, <= 0 disables it
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}

	minDelay := cfg.RetryMinDelay
	if minDelay <= 0 {
		minDelay = 500 * time.Millisecond
	}
	maxDelay := cfg.RetryMaxDelay
	if maxDelay < minDelay {
		maxDelay = 10 * time.Second
		if maxDelay < minDelay {
			maxDelay = minDelay
		}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if b := int(cfg.RequestsPerSecond); b > 1 {
			burst = b
		}
	}

	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{
		"baseURL":    client.BaseURL,
		"maxRetries": maxRetries,
		"rps":        cfg.RequestsPerSecond,
	})

	return &Client{
		spot:          client,
		logger:        cfg.Logger,
		limiter:       rate.NewLimiter(limit, burst),
		maxRetries:    maxRetries,
		retryMinDelay: minDelay,
		retryMaxDelay: maxDelay,
	}, nil
}

// classifyError translates Binance and transport errors into standardized ports errors.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		var mappedErr error
		switch apiErr.Code {
		case -1000, -1001, -1008, -1016: // Unknown, disconnected, overloaded, service shutting down
			mappedErr = ports.ErrExchangeUnavailable
		case -1003, -1015: // Too many requests / orders
			mappedErr = ports.ErrRateLimited
		case -1007, -1021: // Backend timeout, timestamp outside recvWindow
			mappedErr = ports.ErrTimeout
		case -1002, -1022, -2014, -2015: // Unauthorized, bad signature, bad key
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}
}

// handleError classifies err and logs it with its API details.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	fields := map[string]interface{}{"operation": operation}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
	}
	finalErr := classifyError(err, operation)
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks connectivity to the REST API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	return c.withRetry(ctx, op, func(ctx context.Context) error {
		return c.spot.NewPingService().Do(ctx)
	})
}

// GetKlines retrieves the latest limit klines for symbol and interval, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	if limit <= 0 || limit > maxKlinesPerRequest {
		return nil, fmt.Errorf("%s failed: %w: limit must be between 1 and %d, got %d", op, ports.ErrInvalidRequest, maxKlinesPerRequest, limit)
	}

	var raw []*binance.Kline
	err := c.withRetry(ctx, op, func(ctx context.Context) error {
		var err error
		raw, err = c.spot.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	klines, err := translateKlines(raw, symbol, interval, time.Now())
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, "Fetched klines", map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(klines)})
	return klines, nil
}

// GetKlinesRange fetches all klines for a symbol/interval between start and end time.
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	op := "GetKlinesRange"
	var all []*domain.Kline
	from := start

	for from.Before(end) {
		var page []*binance.Kline
		err := c.withRetry(ctx, op, func(ctx context.Context) error {
			var err error
			page, err = c.spot.NewKlinesService().
				Symbol(symbol).
				Interval(interval).
				StartTime(from.UnixMilli()).
				EndTime(end.UnixMilli()).
				Limit(maxKlinesPerRequest).
				Do(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		klines, err := translateKlines(page, symbol, interval, time.Now())
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		all = append(all, klines...)

		from = time.UnixMilli(page[len(page)-1].CloseTime + 1)
		if len(page) < maxKlinesPerRequest {
			break
		}
	}
	return all, nil
}

// Get24hTicker retrieves rolling 24h statistics for symbol.
func (c *Client) Get24hTicker(ctx context.Context, symbol string) (*domain.Ticker24h, error) {
	op := "Get24hTicker"
	var stats []*binance.PriceChangeStats
	err := c.withRetry(ctx, op, func(ctx context.Context) error {
		var err error
		stats, err = c.spot.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 || stats[0] == nil {
		return nil, fmt.Errorf("%s failed: %w: no ticker returned for %s", op, ports.ErrNotFound, symbol)
	}
	ticker, err := translateTicker(stats[0])
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return ticker, nil
}

func translateKlines(raw []*binance.Kline, symbol, interval string, now time.Time) ([]*domain.Kline, error) {
	out := make([]*domain.Kline, 0, len(raw))
	for i, bk := range raw {
		dk, err := translateBinanceKline(bk, symbol, interval, now)
		if err != nil {
			return nil, fmt.Errorf("translating kline %d: %w", i, err)
		}
		out = append(out, dk)
	}
	return out, nil
}

// translateBinanceKline converts a REST kline. A kline whose close time is
// still in the future is the forming candle and is marked non-final.
func translateBinanceKline(bk *binance.Kline, symbol, interval string, now time.Time) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil kline")
	}
	values, err := parseFloats(
		"open price", bk.Open,
		"high price", bk.High,
		"low price", bk.Low,
		"close price", bk.Close,
		"volume", bk.Volume,
	)
	if err != nil {
		return nil, err
	}

	closeTime := time.UnixMilli(bk.CloseTime)
	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: closeTime,
		Symbol:    symbol,
		Interval:  interval,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		IsFinal:   !closeTime.After(now),
	}, nil
}

func translateTicker(s *binance.PriceChangeStats) (*domain.Ticker24h, error) {
	values, err := parseFloats(
		"last price", s.LastPrice,
		"price change", s.PriceChange,
		"price change percent", s.PriceChangePercent,
		"high price", s.HighPrice,
		"low price", s.LowPrice,
		"volume", s.Volume,
		"quote volume", s.QuoteVolume,
	)
	if err != nil {
		return nil, err
	}
	return &domain.Ticker24h{
		Symbol:             s.Symbol,
		LastPrice:          values[0],
		PriceChange:        values[1],
		PriceChangePercent: values[2],
		HighPrice:          values[3],
		LowPrice:           values[4],
		Volume:             values[5],
		QuoteVolume:        values[6],
		OpenTime:           time.UnixMilli(s.OpenTime),
		CloseTime:          time.UnixMilli(s.CloseTime),
	}, nil
}

// parseFloats parses alternating name, value pairs.
func parseFloats(pairs ...string) ([]float64, error) {
	out := make([]float64, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		v, err := strconv.ParseFloat(pairs[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s '%s': %w", pairs[i], pairs[i+1], err)
		}
		out = append(out, v)
	}
	return out, nil
}
