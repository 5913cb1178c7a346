package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoPulseBot/internal/adapters/logger"
	"cryptoPulseBot/internal/levels"
)

const (
	defaultSymbols    = "eth:ETHUSDT,btc:BTCUSDT,link:LINKUSDT,trx:TRXUSDT,bnb:BNBUSDT"
	defaultTimeframes = "15m:15m,30m:30m,1h:1h,4h:4h,6h:6h,12h:12h,24h:1d"
)

// Pair maps a user-facing alias to an exchange value (symbol or interval).
type Pair struct {
	Alias string
	Value string
}

// Config holds all application configuration.
type Config struct {
	// Telegram
	TelegramToken string

	// Binance API (public endpoints work without keys)
	APIKey         string
	SecretKey      string
	BinanceBaseURL string

	// Chat commands
	Symbols     []Pair // alias -> symbol, e.g. btc -> BTCUSDT
	Timeframes  []Pair // label -> interval, e.g. 24h -> 1d
	CandleLimit int

	// Zone engine
	ZoneClusterTolerance float64
	ZoneMinTouches       int
	ZoneDedupeTolerance  float64
	ZoneClusterMode      levels.ClusterMode
	ZoneSwingLookback    int

	// Indicators
	SMAPeriod int
	EMAPeriod int
	RSIPeriod int
	ATRPeriod int

	// Targets
	TP1ATRMult float64
	TP2ATRMult float64
	SLATRMult  float64

	// Outbound HTTP
	HTTPTimeout     time.Duration
	HTTPMaxRetries  int
	HTTPRateLimit   float64 // requests per second
	MarketCacheTTL  time.Duration
	RequestCooldown time.Duration
	SentimentURL    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // text or json

	// HTTP API; empty disables it
	HTTPAddr string

	// Whale alerts; empty key disables them
	WhaleAPIKey       string
	WhaleMinUSD       float64
	WhalePollInterval time.Duration
	WhaleSeenTTL      time.Duration
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	if cfg.TelegramToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN must be set")
	}

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceBaseURL = getEnv("BINANCE_BASE_URL", "")

	cfg.Symbols, err = ParsePairs(getEnv("SYMBOLS", defaultSymbols), strings.ToUpper)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SYMBOLS: %v", err))
	}
	cfg.Timeframes, err = ParsePairs(getEnv("TIMEFRAMES", defaultTimeframes), strings.ToLower)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEFRAMES: %v", err))
	}

	cfg.CandleLimit, err = getEnvAsIntRequired("CANDLE_LIMIT", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_LIMIT: %v", err))
	} else if cfg.CandleLimit < 1 || cfg.CandleLimit > 1000 {
		errs = append(errs, "CANDLE_LIMIT must be between 1 and 1000")
	}

	// Zone engine
	defaults := levels.DefaultOptions()
	cfg.ZoneClusterTolerance, err = getEnvAsFloatRequired("ZONE_CLUSTER_TOLERANCE", defaults.ClusterTolerance)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ZONE_CLUSTER_TOLERANCE: %v", err))
	}
	cfg.ZoneMinTouches, err = getEnvAsIntRequired("ZONE_MIN_TOUCHES", defaults.MinTouches)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ZONE_MIN_TOUCHES: %v", err))
	}
	cfg.ZoneDedupeTolerance, err = getEnvAsFloatRequired("ZONE_DEDUPE_TOLERANCE", defaults.DedupeTolerance)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ZONE_DEDUPE_TOLERANCE: %v", err))
	}
	cfg.ZoneClusterMode, err = levels.ParseClusterMode(getEnv("ZONE_CLUSTER_MODE", "seed"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ZONE_CLUSTER_MODE: %v", err))
	}
	cfg.ZoneSwingLookback, err = getEnvAsIntRequired("ZONE_SWING_LOOKBACK", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ZONE_SWING_LOOKBACK: %v", err))
	}
	if err := cfg.ZoneOptions().Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid zone options: %v", err))
	}

	// Indicator periods (using defaults if not set)
	cfg.SMAPeriod = getEnvAsInt("SMA_PERIOD", 14)
	cfg.EMAPeriod = getEnvAsInt("EMA_PERIOD", 14)
	cfg.RSIPeriod = getEnvAsInt("RSI_PERIOD", 14)
	cfg.ATRPeriod = getEnvAsInt("ATR_PERIOD", 14)
	if cfg.SMAPeriod <= 0 || cfg.EMAPeriod <= 0 || cfg.RSIPeriod <= 0 || cfg.ATRPeriod <= 0 {
		errs = append(errs, "indicator periods (SMA, EMA, RSI, ATR) must be positive")
	}

	// Targets
	cfg.TP1ATRMult = getEnvAsFloat("TP1_ATR_MULT", 1.5)
	cfg.TP2ATRMult = getEnvAsFloat("TP2_ATR_MULT", 3.0)
	cfg.SLATRMult = getEnvAsFloat("SL_ATR_MULT", 1.0)
	if cfg.TP1ATRMult <= 0 || cfg.TP2ATRMult <= 0 || cfg.SLATRMult <= 0 {
		errs = append(errs, "ATR multipliers must be positive")
	} else if cfg.TP2ATRMult < cfg.TP1ATRMult {
		errs = append(errs, "TP2_ATR_MULT must not be less than TP1_ATR_MULT")
	}

	// Outbound HTTP
	timeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 10)
	if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.HTTPMaxRetries = getEnvAsInt("HTTP_MAX_RETRIES", 3)
	if cfg.HTTPMaxRetries < 0 {
		errs = append(errs, "HTTP_MAX_RETRIES cannot be negative")
	}
	cfg.HTTPRateLimit = getEnvAsFloat("HTTP_RATE_LIMIT_PER_SECOND", 10)
	if cfg.HTTPRateLimit <= 0 {
		errs = append(errs, "HTTP_RATE_LIMIT_PER_SECOND must be positive")
	}

	cacheSeconds := getEnvAsInt("MARKET_CACHE_TTL_SECONDS", 30)
	if cacheSeconds < 0 {
		errs = append(errs, "MARKET_CACHE_TTL_SECONDS cannot be negative")
	}
	cfg.MarketCacheTTL = time.Duration(cacheSeconds) * time.Second

	cooldownSeconds := getEnvAsInt("REQUEST_COOLDOWN_SECONDS", 5)
	if cooldownSeconds < 0 {
		errs = append(errs, "REQUEST_COOLDOWN_SECONDS cannot be negative")
	}
	cfg.RequestCooldown = time.Duration(cooldownSeconds) * time.Second

	cfg.SentimentURL = getEnv("SENTIMENT_URL", "")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsIntRequired("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REDIS_DB: %v", err))
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/pulse_bot.db")

	// Logging
	cfg.LogLevel, err = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL: %v", err))
	}
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be text or json")
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", "")

	// Whale alerts
	cfg.WhaleAPIKey = getEnv("WHALE_ALERT_API_KEY", "")
	cfg.WhaleMinUSD, err = getEnvAsFloatRequired("WHALE_MIN_USD", 500000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid WHALE_MIN_USD: %v", err))
	} else if cfg.WhaleMinUSD < 0 {
		errs = append(errs, "WHALE_MIN_USD cannot be negative")
	}
	pollSeconds := getEnvAsInt("WHALE_POLL_SECONDS", 60)
	if pollSeconds <= 0 {
		errs = append(errs, "WHALE_POLL_SECONDS must be positive")
	}
	cfg.WhalePollInterval = time.Duration(pollSeconds) * time.Second
	seenMinutes := getEnvAsInt("WHALE_SEEN_TTL_MINUTES", 120)
	if seenMinutes <= 0 {
		errs = append(errs, "WHALE_SEEN_TTL_MINUTES must be positive")
	}
	cfg.WhaleSeenTTL = time.Duration(seenMinutes) * time.Minute

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// ZoneOptions returns the zone engine options described by the config.
func (c *Config) ZoneOptions() levels.Options {
	return levels.Options{
		ClusterTolerance: c.ZoneClusterTolerance,
		MinTouches:       c.ZoneMinTouches,
		DedupeTolerance:  c.ZoneDedupeTolerance,
		Mode:             c.ZoneClusterMode,
		SwingLookback:    c.ZoneSwingLookback,
	}
}

// ParsePairs parses "alias:value,alias:value". Aliases are lowercased and
// values normalised with norm. Order is preserved; duplicate aliases are rejected.
func ParsePairs(s string, norm func(string) string) ([]Pair, error) {
	var pairs []Pair
	seen := make(map[string]bool)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		alias, value, ok := strings.Cut(item, ":")
		alias = strings.ToLower(strings.TrimSpace(alias))
		value = strings.TrimSpace(value)
		if !ok || alias == "" || value == "" {
			return nil, fmt.Errorf("entry %q must look like alias:value", item)
		}
		if seen[alias] {
			return nil, fmt.Errorf("duplicate alias %q", alias)
		}
		seen[alias] = true
		pairs = append(pairs, Pair{Alias: alias, Value: norm(value)})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one entry is required")
	}
	return pairs, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
