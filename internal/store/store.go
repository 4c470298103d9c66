// Package store persists named filter sets per user in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/urbanfabric/building-explorer/internal/model"
)

// ErrNotFound distinguishes a missing (username, filter_name) key from
// storage failures.
var ErrNotFound = errors.New("filter set not found")

const schema = `
CREATE TABLE IF NOT EXISTS saved_filters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	filter_name TEXT NOT NULL,
	filters_data TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(username, filter_name)
);
CREATE INDEX IF NOT EXISTS idx_username ON saved_filters(username);
`

type Store struct {
	logger *slog.Logger
	db     *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(logger *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	logger.Info("filter store ready", "path", path)
	return &Store{logger: logger, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts one filter set. Returns "updated" when the key already
// existed, "saved" when a new row was inserted. Last writer wins.
func (s *Store) Save(ctx context.Context, username, filterName string, filters []model.Predicate) (string, error) {
	payload, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("encode filters: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM saved_filters WHERE username = ? AND filter_name = ?`,
		username, filterName).Scan(&id)

	action := "saved"
	switch {
	case err == nil:
		action = "updated"
		_, err = tx.ExecContext(ctx,
			`UPDATE saved_filters SET filters_data = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE username = ? AND filter_name = ?`,
			string(payload), username, filterName)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO saved_filters (username, filter_name, filters_data) VALUES (?, ?, ?)`,
			username, filterName, string(payload))
	}
	if err != nil {
		return "", fmt.Errorf("save filters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("filters "+action, "username", username, "filter_name", filterName)
	return action, nil
}

// Load returns one filter set by key.
func (s *Store) Load(ctx context.Context, username, filterName string) (model.FilterSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filter_name, filters_data, created_at, updated_at
		 FROM saved_filters WHERE username = ? AND filter_name = ?`,
		username, filterName)
	fs, err := scanFilterSet(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FilterSet{}, ErrNotFound
	}
	if err != nil {
		return model.FilterSet{}, fmt.Errorf("load filters: %w", err)
	}
	return fs, nil
}

// LoadAll returns every filter set for a user, most recently updated first.
func (s *Store) LoadAll(ctx context.Context, username string) ([]model.FilterSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filter_name, filters_data, created_at, updated_at
		 FROM saved_filters WHERE username = ? ORDER BY updated_at DESC`,
		username)
	if err != nil {
		return nil, fmt.Errorf("load filter sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sets := make([]model.FilterSet, 0)
	for rows.Next() {
		fs, err := scanFilterSet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan filter set: %w", err)
		}
		sets = append(sets, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filter sets: %w", err)
	}
	return sets, nil
}

// Delete removes one filter set by key; ErrNotFound when no row matched.
func (s *Store) Delete(ctx context.Context, username, filterName string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_filters WHERE username = ? AND filter_name = ?`,
		username, filterName)
	if err != nil {
		return fmt.Errorf("delete filters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Debug("filters deleted", "username", username, "filter_name", filterName)
	return nil
}

// ListNames returns (name, updated_at) for a user, most recent first.
func (s *Store) ListNames(ctx context.Context, username string) ([]model.FilterName, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filter_name, updated_at FROM saved_filters
		 WHERE username = ? ORDER BY updated_at DESC`,
		username)
	if err != nil {
		return nil, fmt.Errorf("list filter names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]model.FilterName, 0)
	for rows.Next() {
		var fn model.FilterName
		if err := rows.Scan(&fn.Name, &fn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan filter name: %w", err)
		}
		names = append(names, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filter names: %w", err)
	}
	return names, nil
}

func scanFilterSet(scan func(dest ...any) error) (model.FilterSet, error) {
	var fs model.FilterSet
	var data string
	if err := scan(&fs.FilterName, &data, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
		return model.FilterSet{}, err
	}
	if err := json.Unmarshal([]byte(data), &fs.Filters); err != nil {
		return model.FilterSet{}, fmt.Errorf("decode filters payload: %w", err)
	}
	return fs, nil
}
