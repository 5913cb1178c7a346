package app

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"cryptoPulseBot/config"
	"cryptoPulseBot/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	mu        sync.Mutex
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockMarket struct {
	mu         sync.Mutex
	klines     []*domain.Kline
	klinesErr  error
	ticker     *domain.Ticker24h
	tickerErr  error
	klineCalls int
	lastLimit  int
}

func (m *mockMarket) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.klineCalls++
	m.lastLimit = limit
	if m.klinesErr != nil {
		return nil, m.klinesErr
	}
	out := make([]*domain.Kline, len(m.klines))
	for i, k := range m.klines {
		c := *k
		c.Symbol = symbol
		c.Interval = interval
		out[i] = &c
	}
	return out, nil
}

func (m *mockMarket) Get24hTicker(ctx context.Context, symbol string) (*domain.Ticker24h, error) {
	return m.ticker, m.tickerErr
}

func (m *mockMarket) Ping(ctx context.Context) error { return nil }

type mockSentiment struct {
	value *domain.Sentiment
	err   error
}

func (m *mockSentiment) Current(ctx context.Context) (*domain.Sentiment, error) {
	return m.value, m.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type mockMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   map[int]string
	sendErr error
	nextID  int
}

func (m *mockMessenger) Send(ctx context.Context, chatID int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	m.nextID++
	return m.nextID, nil
}

func (m *mockMessenger) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edits == nil {
		m.edits = make(map[int]string)
	}
	m.edits[messageID] = text
	return nil
}

type mockReports struct {
	saved     []*domain.Report
	saveErr   error
	recentErr error
	limits    []int
}

func (m *mockReports) SaveReport(ctx context.Context, report *domain.Report) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, report)
	return nil
}

func (m *mockReports) RecentReports(ctx context.Context, chatID int64, limit int) ([]*domain.Report, error) {
	m.limits = append(m.limits, limit)
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	var out []*domain.Report
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if m.saved[i].ChatID == chatID {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

type mockSubs struct {
	chats map[int64]bool
	err   error
}

func (m *mockSubs) Subscribe(ctx context.Context, chatID int64) error {
	if m.err != nil {
		return m.err
	}
	if m.chats == nil {
		m.chats = make(map[int64]bool)
	}
	m.chats[chatID] = true
	return nil
}

func (m *mockSubs) Unsubscribe(ctx context.Context, chatID int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.chats, chatID)
	return nil
}

func (m *mockSubs) Subscribers(ctx context.Context) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var ids []int64
	for id := range m.chats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Symbols: []config.Pair{
			{Alias: "btc", Value: "BTCUSDT"},
			{Alias: "eth", Value: "ETHUSDT"},
		},
		Timeframes: []config.Pair{
			{Alias: "1h", Value: "1h"},
			{Alias: "12h", Value: "12h"},
			{Alias: "24h", Value: "1d"},
		},
		CandleLimit:     100,
		RequestCooldown: time.Minute,
		WhaleAPIKey:     "whale-key",
	}
}

// rangingKlines returns n klines oscillating between roughly 95 and 105.
func rangingKlines(n int) []*domain.Kline {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*domain.Kline, n)
	for i := range out {
		v := 100 + 5*math.Sin(float64(i)*math.Pi/6)
		out[i] = &domain.Kline{
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1)*time.Hour - time.Millisecond),
			Open:      v,
			High:      v * 1.002,
			Low:       v * 0.998,
			Close:     v,
			Volume:    10,
			IsFinal:   true,
		}
	}
	return out
}
