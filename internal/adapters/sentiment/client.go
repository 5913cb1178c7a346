// Package sentiment reads the crypto Fear & Greed index from alternative.me.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// DefaultURL is the public Fear & Greed endpoint returning the latest value.
const DefaultURL = "https://api.alternative.me/fng/?limit=1"

// Client implements ports.SentimentClient.
type Client struct {
	url        string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the sentiment client.
type Config struct {
	URL     string        // Defaults to DefaultURL
	Timeout time.Duration // Defaults to 10s
	Logger  ports.Logger
}

// fngResponse mirrors the alternative.me payload.
type fngResponse struct {
	Name string `json:"name"`
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// New creates a Fear & Greed client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for sentiment client")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}, nil
}

// Current returns the latest index reading. Every failure wraps
// ports.ErrSentimentUnavailable.
func (c *Client) Current(ctx context.Context) (*domain.Sentiment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ports.ErrSentimentUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrSentimentUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ports.ErrSentimentUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ports.ErrSentimentUnavailable, resp.StatusCode)
	}

	var payload fngResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ports.ErrSentimentUnavailable, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ports.ErrSentimentUnavailable)
	}

	d := payload.Data[0]
	value, err := strconv.Atoi(d.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing value '%s': %w", ports.ErrSentimentUnavailable, d.Value, err)
	}
	s := &domain.Sentiment{Value: value, Classification: d.ValueClassification}
	if ts, err := strconv.ParseInt(d.Timestamp, 10, 64); err == nil {
		s.Timestamp = time.Unix(ts, 0).UTC()
	}

	c.logger.Debug(ctx, "Fetched fear and greed index", map[string]interface{}{"value": value, "classification": s.Classification})
	return s, nil
}
