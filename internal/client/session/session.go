// Package session persists the CLI's login state (username and bearer
// token) in a local sqlite database, so a login survives between runs.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dkruglov/fileshare/internal/client/session/migrations"
	"github.com/dkruglov/fileshare/internal/common"
)

// Store keeps at most one saved session.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the session database and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores the session, replacing any previous one.
func (s *Store) Save(ctx context.Context, username, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, username, token, updated_at)
		VALUES (1, $1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET username = excluded.username, token = excluded.token, updated_at = excluded.updated_at`,
		username, token)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRepository, err)
	}
	return nil
}

// Current returns the saved session, or common.ErrorNotFound when the user
// never logged in (or logged out).
func (s *Store) Current(ctx context.Context) (username, token string, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT username, token FROM session WHERE id = 1`)
	if err := row.Scan(&username, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", common.ErrorNotFound
		}
		return "", "", fmt.Errorf("%w: %v", common.ErrRepository, err)
	}
	return username, token, nil
}

// Clear forgets the saved session. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRepository, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
