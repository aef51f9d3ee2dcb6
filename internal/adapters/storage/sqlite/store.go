// Package sqlite provides the SQLite-backed settings store for
// standalone deployments that need settings to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/relaykit/relay/internal/core/ports"
)

// Store is a SQLite implementation of ports.SettingsStore.
type Store struct {
	db *sqlx.DB
}

var _ ports.SettingsStore = (*Store)(nil)

// New opens (or creates) the database at path and initializes the
// schema.
func New(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, stmt := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
section TEXT NOT NULL,
key TEXT NOT NULL,
value TEXT NOT NULL,
updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
PRIMARY KEY (section, key)
)`)
	return err
}

func (s *Store) Get(ctx context.Context, section, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM settings WHERE section = ? AND key = ?`, section, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", section, key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, section, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (section, key, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (section, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		section, key, value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", section, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, section, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE section = ? AND key = ?`, section, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", section, key, err)
	}
	return nil
}

func (s *Store) Section(ctx context.Context, section string) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT key, value FROM settings WHERE section = ? ORDER BY key`, section)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", section, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", section, err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
