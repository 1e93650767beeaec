package presence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkeye/SignCall/internal/domain"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS presence (
	user_id   TEXT PRIMARY KEY,
	online    INTEGER NOT NULL DEFAULT 0,
	last_seen TIMESTAMP NULL
)`

// SQLiteStore persists presence so the last-seen table survives restarts.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and resets every user
// to offline, since no connection survives a restart.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open presence db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create presence table: %w", err)
	}
	if _, err := db.ExecContext(ctx, "UPDATE presence SET online = 0 WHERE online = 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("reset presence: %w", err)
	}
	log.Info().Str("module", "presence.sqlite").Str("path", path).Msg("presence store opened")
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) SetOnline(ctx context.Context, user domain.UserID, online bool) error {
	var lastSeen any
	if !online {
		lastSeen = s.now().UTC()
	}
	query := `
		INSERT INTO presence (user_id, online, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			online = excluded.online,
			last_seen = COALESCE(excluded.last_seen, presence.last_seen)
	`
	if _, err := s.db.ExecContext(ctx, query, string(user), online, lastSeen); err != nil {
		return fmt.Errorf("failed to set presence for %s: %w", user, err)
	}
	return nil
}

func (s *SQLiteStore) ListOnline(ctx context.Context) ([]domain.PresenceEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, last_seen FROM presence WHERE online = 1 ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query presence: %w", err)
	}
	defer rows.Close()

	out := []domain.PresenceEntry{}
	for rows.Next() {
		var id string
		var lastSeen sql.NullTime
		if err := rows.Scan(&id, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		e := domain.PresenceEntry{UserID: domain.UserID(id), Online: true}
		if lastSeen.Valid {
			ts := lastSeen.Time
			e.LastSeen = &ts
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presence rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
