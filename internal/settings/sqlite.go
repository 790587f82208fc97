package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	secureTable = "secure_settings"
	plainTable  = "preferences"
)

// SQLite stores both settings tiers in one database file with restrictive
// permissions. Secure and Plain return Backend views over each table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the settings database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db %s: %w", path, err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	for _, table := range []string{secureTable, plainTable} {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL)`, table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init settings table %s: %w", table, err)
		}
	}

	if err := os.Chmod(path, 0o600); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chmod settings db: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Secure returns the backend holding credentials and service parameters.
func (s *SQLite) Secure() Backend { return sqliteTable{db: s.db, table: secureTable} }

// Plain returns the backend holding user preferences.
func (s *SQLite) Plain() Backend { return sqliteTable{db: s.db, table: plainTable} }

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

type sqliteTable struct {
	db    *sql.DB
	table string
}

func (t sqliteTable) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := t.db.QueryRowContext(ctx, "SELECT value FROM "+t.table+" WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s.%s: %w", t.table, key, err)
	}
	return value, true, nil
}

func (t sqliteTable) Set(ctx context.Context, key, value string) error {
	_, err := t.db.ExecContext(ctx,
		"INSERT INTO "+t.table+" (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write %s.%s: %w", t.table, key, err)
	}
	return nil
}

func (t sqliteTable) Remove(ctx context.Context, key string) error {
	if _, err := t.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s.%s: %w", t.table, key, err)
	}
	return nil
}
