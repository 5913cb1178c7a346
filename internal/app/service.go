package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cryptoPulseBot/config"
	"cryptoPulseBot/internal/analysis"
	"cryptoPulseBot/internal/cache"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/levels"
	"cryptoPulseBot/internal/ports"
)

// ZoneSnapshot is the result of a zones-only lookup.
type ZoneSnapshot struct {
	Symbol      string
	Interval    string
	Price       float64
	Candles     int
	Zones       []domain.Zone
	Nearest     domain.NearestZones
	GeneratedAt time.Time
}

// ReportService answers chat commands with market reports.
type ReportService struct {
	cfg       *config.Config
	logger    ports.Logger
	market    ports.MarketDataClient
	sentiment ports.SentimentClient // optional
	messenger ports.Messenger
	reports   ports.ReportRepository       // optional
	subs      ports.SubscriptionRepository // optional
	analyzer  *analysis.Analyzer
	parser    *CommandParser
	formatter *Formatter
	cooldown  *cache.TTL[int64, struct{}]
	newID     func() string
}

// NewReportService creates a new report service instance.
func NewReportService(
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketDataClient,
	sentiment ports.SentimentClient,
	messenger ports.Messenger,
	reports ports.ReportRepository,
	subs ports.SubscriptionRepository,
	analyzer *analysis.Analyzer,
) (*ReportService, error) {
	if cfg == nil || logger == nil || market == nil || messenger == nil || analyzer == nil {
		return nil, fmt.Errorf("missing required dependencies for ReportService")
	}
	if cfg.CandleLimit < analyzer.RequiredDataPoints() {
		return nil, fmt.Errorf("%w: CANDLE_LIMIT %d is below the %d klines the analysis needs",
			ports.ErrConfigurationError, cfg.CandleLimit, analyzer.RequiredDataPoints())
	}
	parser, err := NewCommandParser(cfg.Symbols, cfg.Timeframes)
	if err != nil {
		return nil, err
	}
	return &ReportService{
		cfg:       cfg,
		logger:    logger,
		market:    market,
		sentiment: sentiment,
		messenger: messenger,
		reports:   reports,
		subs:      subs,
		analyzer:  analyzer,
		parser:    parser,
		formatter: NewFormatter(time.UTC),
		cooldown:  cache.NewTTL[int64, struct{}](cfg.RequestCooldown),
		newID:     func() string { return uuid.New().String() },
	}, nil
}

// HandleMessage processes one chat message. Non-command text is ignored.
func (s *ReportService) HandleMessage(ctx context.Context, chatID int64, text string) error {
	cmd, ok, err := s.parser.Parse(text)
	if !ok {
		return nil
	}
	if err != nil {
		s.logger.Debug(ctx, "Unsupported command", map[string]interface{}{"chatID": chatID, "text": text, "reason": err.Error()})
		_, sendErr := s.messenger.Send(ctx, chatID, "🤔 "+errorDetail(err)+"\n\n"+s.parser.Help())
		return sendErr
	}

	switch cmd.Kind {
	case CommandReport, CommandZones:
		if err := s.acquire(chatID); err != nil {
			s.logger.Info(ctx, "Request rejected", map[string]interface{}{"chatID": chatID, "reason": err.Error()})
			_, err := s.messenger.Send(ctx, chatID, cooldownNotice)
			return err
		}
		if cmd.Kind == CommandReport {
			return s.sendReport(ctx, chatID, cmd)
		}
		return s.sendZones(ctx, chatID, cmd)
	case CommandWhales:
		return s.setWhales(ctx, chatID, cmd.Enable)
	case CommandHistory:
		return s.sendHistory(ctx, chatID)
	default:
		_, err := s.messenger.Send(ctx, chatID, s.parser.Help())
		return err
	}
}

// acquire starts a cooldown window for chatID. It fails with
// ports.ErrCooldown while a previous window is still open.
func (s *ReportService) acquire(chatID int64) error {
	if s.cfg.RequestCooldown <= 0 || s.cooldown.SetIfAbsent(chatID, struct{}{}) {
		return nil
	}
	return fmt.Errorf("%w: chat %d", ports.ErrCooldown, chatID)
}

func (s *ReportService) sendReport(ctx context.Context, chatID int64, cmd Command) error {
	id := s.newID()
	ctx = ports.WithRequestID(ctx, id)
	fields := map[string]interface{}{"chatID": chatID, "symbol": cmd.Symbol, "interval": cmd.Interval}

	msgID, err := s.messenger.Send(ctx, chatID, fmt.Sprintf("⏳ Fetching %s (%s)...", cmd.Symbol, cmd.Label))
	if err != nil {
		s.logger.Error(ctx, err, "Failed to send placeholder", fields)
		return err
	}

	report, err := s.BuildReport(ctx, cmd.Symbol, cmd.Interval)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to build report", fields)
		if editErr := s.messenger.Edit(ctx, chatID, msgID, errorMessage); editErr != nil {
			s.logger.Warn(ctx, "Failed to deliver error message", map[string]interface{}{"error": editErr.Error()})
		}
		return err
	}
	report.ID = id
	report.ChatID = chatID
	report.Label = cmd.Label

	if err := s.messenger.Edit(ctx, chatID, msgID, s.formatter.Report(report)); err != nil {
		s.logger.Error(ctx, err, "Failed to deliver report", fields)
		return err
	}
	s.logger.Info(ctx, "Report delivered", fields)

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, report); err != nil {
			s.logger.Warn(ctx, "Failed to persist report", map[string]interface{}{"error": err.Error(), "id": id})
		}
	}
	return nil
}

// BuildReport fetches market data and analyzes it. Ticker and sentiment are
// best effort: their failures leave the matching report field nil.
func (s *ReportService) BuildReport(ctx context.Context, symbol, interval string) (*domain.Report, error) {
	var (
		wg        sync.WaitGroup
		ticker    *domain.Ticker24h
		sentiment *domain.Sentiment
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		t, err := s.market.Get24hTicker(ctx, symbol)
		if err != nil {
			s.logger.Warn(ctx, "24h ticker unavailable", map[string]interface{}{"symbol": symbol, "error": err.Error()})
			return
		}
		ticker = t
	}()
	if s.sentiment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.sentiment.Current(ctx)
			if err != nil {
				s.logger.Warn(ctx, "Sentiment unavailable", map[string]interface{}{"error": err.Error()})
				return
			}
			sentiment = v
		}()
	}

	klines, err := s.market.GetKlines(ctx, symbol, interval, s.cfg.CandleLimit)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s %s: %w", symbol, interval, err)
	}

	report, err := s.analyzer.Analyze(ctx, klines, ticker)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s %s: %w", symbol, interval, err)
	}
	report.Sentiment = sentiment
	return report, nil
}

func (s *ReportService) sendZones(ctx context.Context, chatID int64, cmd Command) error {
	ctx = ports.WithRequestID(ctx, s.newID())
	snap, err := s.Zones(ctx, cmd.Symbol, cmd.Interval, s.cfg.CandleLimit)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to detect zones", map[string]interface{}{"chatID": chatID, "symbol": cmd.Symbol})
		_, sendErr := s.messenger.Send(ctx, chatID, errorMessage)
		return errors.Join(err, sendErr)
	}
	_, err = s.messenger.Send(ctx, chatID, s.formatter.Zones(snap, cmd.Label))
	return err
}

// Zones fetches limit klines and runs zone detection with the analyzer's options.
func (s *ReportService) Zones(ctx context.Context, symbol, interval string, limit int) (*ZoneSnapshot, error) {
	klines, err := s.market.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s %s: %w", symbol, interval, err)
	}
	zones, err := levels.DetectZones(klines, s.analyzer.ZoneOptions())
	if err != nil {
		return nil, fmt.Errorf("detecting zones for %s %s: %w", symbol, interval, err)
	}
	var price float64
	if len(klines) > 0 {
		price = klines[len(klines)-1].Close
	}
	return &ZoneSnapshot{
		Symbol:      symbol,
		Interval:    interval,
		Price:       price,
		Candles:     len(klines),
		Zones:       zones,
		Nearest:     levels.Nearest(zones, price),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// historySize is how many past reports /history lists.
const historySize = 5

func (s *ReportService) sendHistory(ctx context.Context, chatID int64) error {
	if s.reports == nil {
		_, err := s.messenger.Send(ctx, chatID, "🗂 Report history is not enabled on this bot.")
		return err
	}
	reports, err := s.reports.RecentReports(ctx, chatID, historySize)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load report history", map[string]interface{}{"chatID": chatID})
		_, sendErr := s.messenger.Send(ctx, chatID, errorMessage)
		return errors.Join(err, sendErr)
	}
	_, err = s.messenger.Send(ctx, chatID, s.formatter.History(reports))
	return err
}

// Run prunes expired cooldown windows until ctx is canceled.
func (s *ReportService) Run(ctx context.Context) error {
	s.cooldown.PruneEvery(ctx, s.cfg.RequestCooldown)
	return nil
}

func (s *ReportService) setWhales(ctx context.Context, chatID int64, enable bool) error {
	if s.subs == nil || s.cfg.WhaleAPIKey == "" {
		_, err := s.messenger.Send(ctx, chatID, "🐋 Whale alerts are not configured on this bot.")
		return err
	}
	var err error
	reply := "🐋 Whale alerts enabled for this chat."
	if enable {
		err = s.subs.Subscribe(ctx, chatID)
	} else {
		err = s.subs.Unsubscribe(ctx, chatID)
		reply = "🐋 Whale alerts disabled for this chat."
	}
	if err != nil {
		s.logger.Error(ctx, err, "Failed to update whale subscription", map[string]interface{}{"chatID": chatID, "enable": enable})
		reply = "Could not update whale alerts, please try again later."
	}
	if _, sendErr := s.messenger.Send(ctx, chatID, reply); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

// errorDetail strips the sentinel prefix from a command error.
func errorDetail(err error) string {
	return strings.TrimPrefix(err.Error(), ports.ErrUnsupportedCommand.Error()+": ")
}
