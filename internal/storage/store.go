// Package storage persists the application's state in a flat SQLite-backed
// key-value table. The expense collection lives under a single key as one
// JSON array; every mutation rewrites the whole collection, last write wins.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"outgo/internal/core"

	_ "modernc.org/sqlite"
)

// Storage keys. A fixed set: one for the collection blob, three for settings.
const (
	keyExpenses       = "expenses"
	keyCurrency       = "display_currency"
	keyRates          = "currency_rates"
	keyRatesUpdatedAt = "rates_updated_at"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, runs migrations and returns a
// ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}
	return nil
}

// LoadAll reads the whole expense collection. An absent blob is an empty
// collection, not an error. Entries that fail the schema decode are dropped
// and logged, never surfaced.
func (s *Store) LoadAll(ctx context.Context) ([]core.Expense, error) {
	blob, ok, err := s.get(ctx, keyExpenses)
	if err != nil {
		return nil, err
	}
	if !ok || len(blob) == 0 {
		return []core.Expense{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("decode expense collection: %w", err)
	}

	expenses := make([]core.Expense, 0, len(entries))
	dropped := 0
	for _, entry := range entries {
		e, err := decodeRecord(entry)
		if err != nil {
			dropped++
			slog.WarnContext(ctx, "Dropping undecodable stored record", "error", err)
			continue
		}
		expenses = append(expenses, e)
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Stored records dropped during load",
			"dropped", dropped, "loaded", len(expenses))
	}
	return expenses, nil
}

// SaveAll serializes the full collection and overwrites the stored blob
// unconditionally. There is no merge and no versioning.
func (s *Store) SaveAll(ctx context.Context, expenses []core.Expense) error {
	records := make([]rawRecord, len(expenses))
	for i, e := range expenses {
		records[i] = encodeRecord(e)
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode expense collection: %w", err)
	}
	if err := s.set(ctx, keyExpenses, blob); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Expense collection saved", "count", len(expenses))
	return nil
}

// DisplayCurrency returns the persisted display currency code, or "" when
// none was ever selected.
func (s *Store) DisplayCurrency(ctx context.Context) (string, error) {
	value, _, err := s.get(ctx, keyCurrency)
	return string(value), err
}

func (s *Store) SetDisplayCurrency(ctx context.Context, code string) error {
	return s.set(ctx, keyCurrency, []byte(code))
}

// Rates returns the cached rate table, nil when absent.
func (s *Store) Rates(ctx context.Context) (map[string]float64, error) {
	value, ok, err := s.get(ctx, keyRates)
	if err != nil || !ok {
		return nil, err
	}
	var rates map[string]float64
	if err := json.Unmarshal(value, &rates); err != nil {
		return nil, fmt.Errorf("decode cached rates: %w", err)
	}
	return rates, nil
}

func (s *Store) SetRates(ctx context.Context, rates map[string]float64) error {
	value, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	return s.set(ctx, keyRates, value)
}

// RatesUpdatedAt returns the last rate-table update timestamp, zero when
// never updated.
func (s *Store) RatesUpdatedAt(ctx context.Context) (time.Time, error) {
	value, ok, err := s.get(ctx, keyRatesUpdatedAt)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, string(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("decode rates timestamp: %w", err)
	}
	return t, nil
}

func (s *Store) SetRatesUpdatedAt(ctx context.Context, t time.Time) error {
	return s.set(ctx, keyRatesUpdatedAt, []byte(t.Format(time.RFC3339)))
}
