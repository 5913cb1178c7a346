// Package whalealert lists large on-chain transfers from the Whale Alert REST API.
package whalealert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

const (
	defaultBaseURL = "https://api.whale-alert.io/v1"
	// pageSize is the largest page the transactions endpoint returns.
	pageSize = 100
	maxPages = 50
)

// Client implements ports.WhaleSource.
type Client struct {
	baseURL    string
	apiKey     string
	minUSD     int64
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the Whale Alert client.
type Config struct {
	APIKey  string
	BaseURL string        // Defaults to the public v1 API
	MinUSD  int64         // Minimum transfer value in USD (API minimum is 500000)
	Timeout time.Duration // Defaults to 15s
	Logger  ports.Logger
}

type owner struct {
	Address   string `json:"address"`
	Owner     string `json:"owner"`
	OwnerType string `json:"owner_type"`
}

type transaction struct {
	Blockchain string  `json:"blockchain"`
	Symbol     string  `json:"symbol"`
	Hash       string  `json:"hash"`
	From       owner   `json:"from"`
	To         owner   `json:"to"`
	Timestamp  int64   `json:"timestamp"`
	Amount     float64 `json:"amount"`
	AmountUSD  float64 `json:"amount_usd"`
}

type transactionsResponse struct {
	Result       string        `json:"result"`
	Message      string        `json:"message"`
	Cursor       string        `json:"cursor"`
	Count        int           `json:"count"`
	Transactions []transaction `json:"transactions"`
}

// New creates a Whale Alert client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for whale alert client")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: whale alert API key is empty", ports.ErrConfigurationError)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MinUSD <= 0 {
		cfg.MinUSD = 500000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		minUSD:     cfg.MinUSD,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}, nil
}

// Transfers returns transfers at or after since, oldest first. It follows
// the response cursor until a short page comes back.
func (c *Client) Transfers(ctx context.Context, since time.Time) ([]*domain.WhaleTransfer, error) {
	var (
		out    []*domain.WhaleTransfer
		cursor string
	)
	for page := 0; page < maxPages; page++ {
		payload, err := c.fetchPage(ctx, since, cursor)
		if err != nil {
			return nil, err
		}
		for _, tx := range payload.Transactions {
			if tx.Hash == "" {
				continue
			}
			out = append(out, &domain.WhaleTransfer{
				Hash:       tx.Hash,
				Blockchain: tx.Blockchain,
				Symbol:     tx.Symbol,
				Amount:     tx.Amount,
				AmountUSD:  tx.AmountUSD,
				From:       label(tx.From),
				To:         label(tx.To),
				Timestamp:  time.Unix(tx.Timestamp, 0).UTC(),
			})
		}
		if len(payload.Transactions) < pageSize || payload.Cursor == "" || payload.Cursor == cursor {
			c.logger.Debug(ctx, "Fetched whale transfers", map[string]interface{}{"count": len(out), "pages": page + 1, "since": since.Unix()})
			return out, nil
		}
		cursor = payload.Cursor
	}
	return nil, fmt.Errorf("whale alert: %w: more than %d pages since %d", ports.ErrUnexpectedUpstreamRes, maxPages, since.Unix())
}

func (c *Client) fetchPage(ctx context.Context, since time.Time, cursor string) (*transactionsResponse, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("min_value", strconv.FormatInt(c.minUSD, 10))
	q.Set("start", strconv.FormatInt(since.Unix(), 10))
	q.Set("limit", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building whale alert request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrWhaleFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ports.ErrWhaleFeedUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("whale alert: %w", ports.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("whale alert: %w", ports.ErrAuthenticationFailed)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ports.ErrWhaleFeedUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("whale alert: %w: status %d: %s", ports.ErrUnexpectedUpstreamRes, resp.StatusCode, body)
	}

	var payload transactionsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("whale alert: %w: decoding response: %w", ports.ErrUnexpectedUpstreamRes, err)
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, fmt.Errorf("whale alert: %w: %s", ports.ErrUnexpectedUpstreamRes, payload.Message)
	}
	return &payload, nil
}

// label prefers the known owner name over the raw address.
func label(o owner) string {
	switch {
	case o.Owner != "" && o.Owner != "unknown":
		return o.Owner
	case o.Address != "":
		return o.Address
	default:
		return "unknown wallet"
	}
}
