// Package postgres implements the Tabular Store on a Postgres cells table,
// one row per non-empty (sheet, row, column) cell.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and target grid.
type Config struct {
	DSN             string
	Table           string
	Sheet           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store is a crawler.TabularStore over Postgres.
type Store struct {
	cfg   Config
	table string
	sheet string

	mu   sync.RWMutex
	pool pool
}

// New validates cfg and returns an unopened Store.
func New(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	return newStore(cfg)
}

// NewWithPool constructs an opened-on-demand store from an existing pool (primarily for testing).
func NewWithPool(p pool, cfg Config) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	s, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	s.pool = p
	return s, nil
}

func newStore(cfg Config) (*Store, error) {
	table := cfg.Table
	if table == "" {
		table = "cells"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	sheet := cfg.Sheet
	if sheet == "" {
		sheet = "default"
	}
	return &Store{cfg: cfg, table: table, sheet: sheet}, nil
}

// Open connects (unless a pool was injected), verifies credentials, and ensures the table exists.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		poolCfg, err := pgxpool.ParseConfig(s.cfg.DSN)
		if err != nil {
			return fmt.Errorf("%w: parse postgres dsn: %w", crawler.ErrStoreAuth, err)
		}
		if s.cfg.MaxConns > 0 {
			poolCfg.MaxConns = s.cfg.MaxConns
		}
		if s.cfg.MaxConnLifetime > 0 {
			poolCfg.MaxConnLifetime = s.cfg.MaxConnLifetime
		}
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("%w: connect postgres: %w", crawler.ErrStoreAuth, err)
		}
		s.pool = p
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping postgres: %w", crawler.ErrStoreAuth, err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	sheet TEXT NOT NULL,
	row_idx INTEGER NOT NULL,
	col_idx INTEGER NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (sheet, row_idx, col_idx)
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: ensure table %s: %w", crawler.ErrStore, s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

// ColValues implements crawler.TabularStore.
func (s *Store) ColValues(ctx context.Context, col int) ([]string, error) {
	if err := store.ValidateIndex(1, col); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT row_idx, value FROM %s WHERE sheet = $1 AND col_idx = $2 ORDER BY row_idx`, s.table)
	return s.readLine(ctx, query, col)
}

// RowValues implements crawler.TabularStore.
func (s *Store) RowValues(ctx context.Context, row int) ([]string, error) {
	if err := store.ValidateIndex(row, 1); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT col_idx, value FROM %s WHERE sheet = $1 AND row_idx = $2 ORDER BY col_idx`, s.table)
	return s.readLine(ctx, query, row)
}

// Cell implements crawler.TabularStore. Missing cells read as "".
func (s *Store) Cell(ctx context.Context, row, col int) (string, error) {
	if err := store.ValidateIndex(row, col); err != nil {
		return "", err
	}
	p, err := s.handle()
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE sheet = $1 AND row_idx = $2 AND col_idx = $3`, s.table)
	var value string
	if err := p.QueryRow(ctx, query, s.sheet, row, col).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read cell (%d, %d): %w", crawler.ErrStore, row, col, err)
	}
	return value, nil
}

// UpdateCell implements crawler.TabularStore.
func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := store.ValidateIndex(row, col); err != nil {
		return err
	}
	p, err := s.handle()
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (sheet, row_idx, col_idx, value, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (sheet, row_idx, col_idx) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, s.table)
	if _, err := p.Exec(ctx, query, s.sheet, row, col, value); err != nil {
		return fmt.Errorf("%w: update cell (%d, %d): %w", crawler.ErrStore, row, col, err)
	}
	return nil
}

// readLine turns (index, value) rows into a dense 1-based slice.
func (s *Store) readLine(ctx context.Context, query string, fixed int) ([]string, error) {
	p, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, query, s.sheet, fixed)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", crawler.ErrStore, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var (
			idx   int
			value string
		)
		if err := rows.Scan(&idx, &value); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", crawler.ErrStore, err)
		}
		if idx < 1 {
			continue
		}
		for len(out) < idx {
			out = append(out, "")
		}
		out[idx-1] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", crawler.ErrStore, err)
	}
	return store.TrimTrailingEmpty(out), nil
}

func (s *Store) handle() (pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return nil, store.ErrNotOpen
	}
	return s.pool, nil
}
