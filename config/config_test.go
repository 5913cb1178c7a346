package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoPulseBot/internal/adapters/logger"
	"cryptoPulseBot/internal/levels"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Len(t, cfg.Symbols, 5)
	assert.Equal(t, Pair{Alias: "eth", Value: "ETHUSDT"}, cfg.Symbols[0])
	assert.Equal(t, Pair{Alias: "24h", Value: "1d"}, cfg.Timeframes[len(cfg.Timeframes)-1])
	assert.Equal(t, 100, cfg.CandleLimit)
	assert.Equal(t, levels.DefaultOptions(), cfg.ZoneOptions())
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.HTTPMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.MarketCacheTTL)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.WhaleAPIKey)
	assert.Equal(t, 500000.0, cfg.WhaleMinUSD)
	assert.Equal(t, time.Minute, cfg.WhalePollInterval)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("SYMBOLS", "sol:solusdt")
	t.Setenv("ZONE_CLUSTER_MODE", "union")
	t.Setenv("ZONE_MIN_TOUCHES", "2")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WHALE_SEEN_TTL_MINUTES", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []Pair{{Alias: "sol", Value: "SOLUSDT"}}, cfg.Symbols)
	assert.Equal(t, levels.UnionFind, cfg.ZoneClusterMode)
	assert.Equal(t, 2, cfg.ZoneMinTouches)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.WhaleSeenTTL)
}

func TestLoadConfig_CollectsErrors(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CANDLE_LIMIT", "abc")
	t.Setenv("ZONE_CLUSTER_MODE", "kmeans")
	t.Setenv("ZONE_MIN_TOUCHES", "0")
	t.Setenv("TP1_ATR_MULT", "4")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := LoadConfig()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"TELEGRAM_BOT_TOKEN must be set",
		"invalid CANDLE_LIMIT",
		"invalid ZONE_CLUSTER_MODE",
		"invalid zone options",
		"TP2_ATR_MULT must not be less than TP1_ATR_MULT",
		"LOG_FORMAT must be text or json",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}
}

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Pair
		wantErr bool
	}{
		{name: "ordered", input: "btc:btcusdt, ETH:ethusdt", want: []Pair{{"btc", "BTCUSDT"}, {"eth", "ETHUSDT"}}},
		{name: "trailing comma", input: "btc:btcusdt,", want: []Pair{{"btc", "BTCUSDT"}}},
		{name: "missing value", input: "btc:", wantErr: true},
		{name: "missing separator", input: "btc", wantErr: true},
		{name: "duplicate", input: "btc:a,BTC:b", wantErr: true},
		{name: "empty", input: " , ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePairs(tt.input, strings.ToUpper)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
