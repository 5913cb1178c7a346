package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cryptoPulseBot/config"
	"cryptoPulseBot/internal/adapters/binanceclient"
	"cryptoPulseBot/internal/adapters/httpapi"
	"cryptoPulseBot/internal/adapters/logger"
	"cryptoPulseBot/internal/adapters/marketcache"
	"cryptoPulseBot/internal/adapters/sentiment"
	"cryptoPulseBot/internal/adapters/sqlite"
	"cryptoPulseBot/internal/adapters/telegram"
	"cryptoPulseBot/internal/adapters/whalealert"
	"cryptoPulseBot/internal/analysis"
	"cryptoPulseBot/internal/app"
	"cryptoPulseBot/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zl, err := logger.NewZapLogger(cfg.LogLevel, "json")
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		defer zl.Sync()
		appLogger = zl
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Market Data Client (Binance Adapter + cache)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:            cfg.APIKey,
		SecretKey:         cfg.SecretKey,
		BaseURL:           cfg.BinanceBaseURL,
		Logger:            appLogger,
		HTTPTimeout:       cfg.HTTPTimeout,
		MaxRetries:        cfg.HTTPMaxRetries,
		RequestsPerSecond: cfg.HTTPRateLimit,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	var (
		market      ports.MarketDataClient = binanceClient
		marketCache *marketcache.CachingClient
	)
	if cfg.MarketCacheTTL > 0 {
		rdb := newRedisClient(ctx, cfg, appLogger)
		if rdb != nil {
			defer func() {
				if err := rdb.Close(); err != nil {
					appLogger.Error(context.Background(), err, "Error closing Redis client")
				}
			}()
		}
		marketCache, err = marketcache.NewCachingClient(binanceClient, rdb, cfg.MarketCacheTTL, "pulse", appLogger)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize market cache: %v", err)
		}
		market = marketCache
	}

	// 5. Initialize Sentiment Client
	sentimentClient, err := sentiment.New(sentiment.Config{
		URL:     cfg.SentimentURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize sentiment client: %v", err)
	}

	// 6. Initialize Analyzer
	analyzerCfg := analysis.DefaultConfig()
	analyzerCfg.SMAPeriod = cfg.SMAPeriod
	analyzerCfg.EMAPeriod = cfg.EMAPeriod
	analyzerCfg.RSIPeriod = cfg.RSIPeriod
	analyzerCfg.ATRPeriod = cfg.ATRPeriod
	analyzerCfg.Zones = cfg.ZoneOptions()
	analyzerCfg.Targets.TP1ATRMult = cfg.TP1ATRMult
	analyzerCfg.Targets.TP2ATRMult = cfg.TP2ATRMult
	analyzerCfg.Targets.SLATRMult = cfg.SLATRMult
	analyzer, err := analysis.New(analyzerCfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize analyzer: %v", err)
	}

	// 7. Initialize Telegram Bot and Services
	bot, err := telegram.New(telegram.Config{
		Token:       cfg.TelegramToken,
		HTTPTimeout: cfg.HTTPTimeout,
		Logger:      appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Telegram bot: %v", err)
	}

	reportService, err := app.NewReportService(cfg, appLogger, market, sentimentClient, bot, repo, repo, analyzer)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize report service: %v", err)
	}

	// 8. Start everything and wait for shutdown
	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				appLogger.Error(ctx, err, "Component exited with error", map[string]interface{}{"component": name})
				stop()
			}
		}()
	}

	run("telegram", func(ctx context.Context) error { return bot.Run(ctx, reportService.HandleMessage) })
	run("cooldowns", reportService.Run)
	if marketCache != nil {
		run("market-cache", marketCache.Run)
	}

	if cfg.WhaleAPIKey != "" {
		whaleClient, err := whalealert.New(whalealert.Config{
			APIKey:  cfg.WhaleAPIKey,
			MinUSD:  int64(cfg.WhaleMinUSD),
			Timeout: cfg.HTTPTimeout,
			Logger:  appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Whale Alert client: %v", err)
		}
		whales, err := app.NewWhaleService(appLogger, whaleClient, repo, repo, bot, cfg.WhalePollInterval, cfg.WhaleSeenTTL)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize whale service: %v", err)
		}
		run("whales", whales.Run)
	} else {
		appLogger.Info(ctx, "Whale alerts disabled, WHALE_ALERT_API_KEY not set")
	}

	if cfg.HTTPAddr != "" {
		if cfg.LogLevel != logger.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}
		server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(reportService, market, appLogger), appLogger)
		run("http", server.Run)
	}

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutting down...")
	wg.Wait()
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// newRedisClient connects to Redis when configured. A nil client makes the
// market cache fall back to process memory.
func newRedisClient(ctx context.Context, cfg *config.Config, appLogger ports.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Warn(ctx, "Redis unavailable, using in-memory market cache", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		rdb.Close()
		return nil
	}
	appLogger.Info(ctx, "Redis market cache connected", map[string]interface{}{"addr": cfg.RedisAddr})
	return rdb
}
