package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Repository implements the report, whale and subscription repositories using SQLite.
type Repository struct {
	db     *sqlx.DB
	logger ports.Logger
}

var (
	_ ports.ReportRepository       = (*Repository)(nil)
	_ ports.WhaleRepository        = (*Repository)(nil)
	_ ports.SubscriptionRepository = (*Repository)(nil)
)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/pulse_bot.db"
	}
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}

	// sqlx.Connect opens and pings.
	db, err := sqlx.Connect("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %w", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(ctx); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(ctx, "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		price REAL NOT NULL,
		trend TEXT NOT NULL,
		change_pct REAL NOT NULL,
		support_zones TEXT NOT NULL,
		resistance_zones TEXT NOT NULL,
		accuracy REAL NOT NULL,
		tp1 REAL NOT NULL,
		tp2 REAL NOT NULL,
		sl REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS whale_transfers (
		hash TEXT PRIMARY KEY,
		blockchain TEXT NOT NULL,
		symbol TEXT NOT NULL,
		amount REAL NOT NULL,
		amount_usd REAL NOT NULL,
		seen_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_chat_created ON reports (chat_id, created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrDBConnection, err)
	}
	return nil
}

// --- ReportRepository Implementation ---

type reportRow struct {
	ID              string    `db:"id"`
	ChatID          int64     `db:"chat_id"`
	Symbol          string    `db:"symbol"`
	Interval        string    `db:"interval"`
	Price           float64   `db:"price"`
	Trend           string    `db:"trend"`
	ChangePct       float64   `db:"change_pct"`
	SupportZones    string    `db:"support_zones"`
	ResistanceZones string    `db:"resistance_zones"`
	Accuracy        float64   `db:"accuracy"`
	TP1             float64   `db:"tp1"`
	TP2             float64   `db:"tp2"`
	SL              float64   `db:"sl"`
	CreatedAt       time.Time `db:"created_at"`
}

// SaveReport persists a report summary.
func (r *Repository) SaveReport(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: report must have an ID", ports.ErrInvalidRequest)
	}
	support, err := json.Marshal(report.SupportZones())
	if err != nil {
		return fmt.Errorf("encoding support zones: %w", err)
	}
	resistance, err := json.Marshal(report.ResistanceZones())
	if err != nil {
		return fmt.Errorf("encoding resistance zones: %w", err)
	}
	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := reportRow{
		ID:              report.ID,
		ChatID:          report.ChatID,
		Symbol:          report.Symbol,
		Interval:        report.Interval,
		Price:           report.Price,
		Trend:           string(report.Trend.Direction),
		ChangePct:       report.Trend.ChangePercent,
		SupportZones:    string(support),
		ResistanceZones: string(resistance),
		Accuracy:        report.Accuracy,
		TP1:             report.Targets.TP1,
		TP2:             report.Targets.TP2,
		SL:              report.Targets.SL,
		CreatedAt:       createdAt.UTC(),
	}

	const query = `
	INSERT INTO reports (id, chat_id, symbol, interval, price, trend, change_pct,
		support_zones, resistance_zones, accuracy, tp1, tp2, sl, created_at)
	VALUES (:id, :chat_id, :symbol, :interval, :price, :trend, :change_pct,
		:support_zones, :resistance_zones, :accuracy, :tp1, :tp2, :sl, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		r.logger.Error(ctx, err, "Failed to save report", map[string]interface{}{"id": report.ID})
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: report %s: %w", ports.ErrDuplicateEntry, report.ID, err)
		}
		return fmt.Errorf("%w: saving report %s: %w", ports.ErrQueryFailed, report.ID, err)
	}
	return nil
}

// RecentReports retrieves the latest reports for a chat, newest first.
func (r *Repository) RecentReports(ctx context.Context, chatID int64, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []reportRow
	const query = `
	SELECT id, chat_id, symbol, interval, price, trend, change_pct, support_zones,
		resistance_zones, accuracy, tp1, tp2, sl, created_at
	FROM reports WHERE chat_id = ?
	ORDER BY created_at DESC, rowid DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, chatID, limit); err != nil {
		return nil, fmt.Errorf("%w: loading reports for chat %d: %w", ports.ErrQueryFailed, chatID, err)
	}

	out := make([]*domain.Report, 0, len(rows))
	for _, row := range rows {
		report, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding report %s: %w", ports.ErrQueryFailed, row.ID, err)
		}
		out = append(out, report)
	}
	return out, nil
}

func (row reportRow) toDomain() (*domain.Report, error) {
	var support, resistance []domain.Zone
	if err := json.Unmarshal([]byte(row.SupportZones), &support); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.ResistanceZones), &resistance); err != nil {
		return nil, err
	}
	return &domain.Report{
		ID:          row.ID,
		ChatID:      row.ChatID,
		Symbol:      row.Symbol,
		Interval:    row.Interval,
		Price:       row.Price,
		Trend:       domain.Trend{Direction: domain.TrendDirection(row.Trend), ChangePercent: row.ChangePct},
		Zones:       append(support, resistance...),
		Accuracy:    row.Accuracy,
		Targets:     domain.Targets{Direction: domain.TrendDirection(row.Trend), TP1: row.TP1, TP2: row.TP2, SL: row.SL},
		GeneratedAt: row.CreatedAt,
	}, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// --- WhaleRepository Implementation ---

// MarkTransferSeen records a transfer and reports whether it was new.
func (r *Repository) MarkTransferSeen(ctx context.Context, t *domain.WhaleTransfer) (bool, error) {
	if t == nil || t.Hash == "" {
		return false, fmt.Errorf("%w: transfer must have a hash", ports.ErrInvalidRequest)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO whale_transfers (hash, blockchain, symbol, amount, amount_usd, seen_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Hash, t.Blockchain, t.Symbol, t.Amount, t.AmountUSD, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("%w: recording transfer %s: %w", ports.ErrQueryFailed, t.Hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ports.ErrQueryFailed, err)
	}
	return n == 1, nil
}

// PruneTransfers deletes transfers seen before cutoff and returns how many were removed.
func (r *Repository) PruneTransfers(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM whale_transfers WHERE seen_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: pruning transfers: %w", ports.ErrDeleteFailed, err)
	}
	return res.RowsAffected()
}

// --- SubscriptionRepository Implementation ---

// Subscribe adds a chat to the whale alert list. Subscribing twice is a no-op.
func (r *Repository) Subscribe(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (chat_id, created_at) VALUES (?, ?)`, chatID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: subscribing chat %d: %w", ports.ErrUpdateFailed, chatID, err)
	}
	return nil
}

// Unsubscribe removes a chat from the whale alert list.
func (r *Repository) Unsubscribe(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("%w: unsubscribing chat %d: %w", ports.ErrDeleteFailed, chatID, err)
	}
	return nil
}

// Subscribers returns all subscribed chat IDs in ascending order.
func (r *Repository) Subscribers(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT chat_id FROM subscriptions ORDER BY chat_id`); err != nil {
		return nil, fmt.Errorf("%w: listing subscribers: %w", ports.ErrQueryFailed, err)
	}
	return ids, nil
}
