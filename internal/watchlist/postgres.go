package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"StockTracker/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracked_symbols (
	symbol     TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// PostgresStore keeps the tracked set in a tracked_symbols table.
type PostgresStore struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// NewPostgresStore connects to databaseURL and creates the table if needed.
func NewPostgresStore(ctx context.Context, databaseURL string, log *zap.SugaredLogger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tracked_symbols: %w", err)
	}

	log.Infof("watchlist store connected to postgres")
	return &PostgresStore{db: pool, log: log}, nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]model.TrackedSymbol, error) {
	rows, err := s.db.Query(ctx, `SELECT symbol, name FROM tracked_symbols ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tracked symbols: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TrackedSymbol, error) {
		var t model.TrackedSymbol
		err := row.Scan(&t.Symbol, &t.Name)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tracked symbols: %w", err)
	}
	return out, nil
}

// Save replaces the stored set in one transaction.
func (s *PostgresStore) Save(ctx context.Context, tracked []model.TrackedSymbol) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tracked_symbols`); err != nil {
		return fmt.Errorf("clear tracked symbols: %w", err)
	}
	batch := &pgx.Batch{}
	for i, t := range tracked {
		batch.Queue(`INSERT INTO tracked_symbols (symbol, name, position) VALUES ($1, $2, $3)`, t.Symbol, t.Name, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert tracked symbols: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debugf("saved %d tracked symbols", len(tracked))
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
