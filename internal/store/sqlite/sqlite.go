package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/citychain-server/internal/store"
)

// Schema creates the ban registry table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS bans (
	origin     TEXT PRIMARY KEY,
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.BanStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data alongside the schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddBan inserts or refreshes a ban.
func (s *SQLiteStore) AddBan(ctx context.Context, origin, reason string) error {
	query := `
		INSERT INTO bans (origin, reason)
		VALUES (?, ?)
		ON CONFLICT(origin) DO UPDATE SET reason = excluded.reason
	`
	if _, err := s.db.ExecContext(ctx, query, origin, reason); err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	return nil
}

// IsBanned reports whether origin has a ban row.
func (s *SQLiteStore) IsBanned(ctx context.Context, origin string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bans WHERE origin = ?)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, origin).Scan(&exists); err != nil {
		return false, fmt.Errorf("query ban: %w", err)
	}
	return exists, nil
}

// ListBans returns all bans, oldest first.
func (s *SQLiteStore) ListBans(ctx context.Context) ([]*store.Ban, error) {
	query := `
		SELECT origin, reason, created_at
		FROM bans
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query bans: %w", err)
	}
	defer rows.Close()

	var bans []*store.Ban
	for rows.Next() {
		var ban store.Ban
		if err := rows.Scan(&ban.Origin, &ban.Reason, &ban.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		bans = append(bans, &ban)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bans: %w", err)
	}

	return bans, nil
}
