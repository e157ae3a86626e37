package recorder

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"StockTracker/internal/model"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	log *zap.SugaredLogger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.SugaredLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query history while the tracker writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			price      REAL,
			price_change REAL,
			direction  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_symbol_ts ON quote_history(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS bar_refreshes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			bars        INTEGER,
			first_bar   INTEGER,
			last_bar    INTEGER,
			last_close  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bar_symbol_ts ON bar_refreshes(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordQuotes writes one row per quote in snap, in symbol order, within a transaction.
func (r *SQLiteRecorder) RecordQuotes(at time.Time, snap model.Snapshot, highlights model.HighlightState) error {
	if len(snap) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	symbols := make([]string, 0, len(snap))
	for sym := range snap {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO quote_history
		(timestamp, symbol, price, price_change, direction)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	ts := at.UnixMilli()
	for _, sym := range symbols {
		q := snap[sym]
		if _, err := stmt.Exec(ts, sym, q.CurrentPrice, q.PriceChange, string(highlights[sym])); err != nil {
			return fmt.Errorf("insert %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordBarRefresh(at time.Time, symbol string, series model.BarSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := NewBarRefresh(at, symbol, series)
	_, err := r.db.Exec(`INSERT INTO bar_refreshes
		(timestamp, symbol, bars, first_bar, last_bar, last_close)
		VALUES (?,?,?,?,?,?)`,
		b.Timestamp.UnixMilli(), b.Symbol, b.Bars, b.FirstBar, b.LastBar, b.LastClose,
	)
	return err
}

// QuoteHistory returns the latest limit recorded quotes for symbol, oldest first.
func (r *SQLiteRecorder) QuoteHistory(symbol string, limit int) ([]QuoteRecord, error) {
	rows, err := r.db.Query(`SELECT timestamp, symbol, price, price_change, direction FROM (
		SELECT id, timestamp, symbol, price, price_change, direction
		FROM quote_history WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?
	) ORDER BY timestamp, id`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query quote history: %w", err)
	}
	defer rows.Close()

	var out []QuoteRecord
	for rows.Next() {
		var (
			rec QuoteRecord
			ts  int64
			dir string
		)
		if err := rows.Scan(&ts, &rec.Symbol, &rec.Price, &rec.Change, &dir); err != nil {
			return nil, err
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		rec.Direction = model.Direction(dir)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Infof("closing sqlite recorder")
	return r.db.Close()
}
