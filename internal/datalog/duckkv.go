package datalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DuckKV stores keys in a two-column table of an embedded DuckDB database.
type DuckKV struct {
	db *sql.DB
}

// NewDuckKV creates the kv table if needed and returns the store.
func NewDuckKV(ctx context.Context, db *sql.DB) (*DuckKV, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key   VARCHAR PRIMARY KEY,
		value VARCHAR NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &DuckKV{db: db}, nil
}

func (d *DuckKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (d *DuckKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := d.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, string(value))
	return err
}

func (d *DuckKV) Delete(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
