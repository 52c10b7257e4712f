package counter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"passgate/internal/ratelimit/models"
)

// PostgresStore persists fixed-window counters in PostgreSQL. The
// increment-and-compare runs inside a transaction with the row locked FOR
// UPDATE, so concurrent gate instances serialize on the window row and the
// limit can never be overshot by a race.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed fixed-window counter store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the rate window table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rate_windows (
    key          TEXT PRIMARY KEY,
    window_start TIMESTAMPTZ NOT NULL,
    count        INTEGER NOT NULL DEFAULT 0
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure rate window schema: %w", err)
	}
	return nil
}

// Incr records one attempt against the key's current window and reports
// whether it fits under the limit. Every attempt mutates the counter,
// admitted or not.
func (s *PostgresStore) Incr(ctx context.Context, key string, limit int, period time.Duration) (*models.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rate window tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	windowStart, count, err := s.loadWindow(ctx, tx, key, now, period)
	if err != nil {
		return nil, err
	}

	count++
	if _, err := tx.ExecContext(ctx,
		`UPDATE rate_windows SET window_start = $2, count = $3 WHERE key = $1`,
		key, windowStart, count,
	); err != nil {
		return nil, fmt.Errorf("update rate window %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rate window tx: %w", err)
	}
	return windowResult(count, limit, windowStart.Add(period), now), nil
}

// Reset clears the counter for a key.
func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rate_windows WHERE key = $1`, key); err != nil {
		return fmt.Errorf("reset rate window %q: %w", key, err)
	}
	return nil
}

// Count returns the attempts recorded against a key in its current window.
// A row whose window already elapsed counts as zero.
func (s *PostgresStore) Count(ctx context.Context, key string) (int, error) {
	var windowStart time.Time
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT window_start, count FROM rate_windows WHERE key = $1`,
		key,
	).Scan(&windowStart, &count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rate window %q: %w", key, err)
	}
	return count, nil
}

func (s *PostgresStore) loadWindow(ctx context.Context, tx *sql.Tx, key string, now time.Time, period time.Duration) (time.Time, int, error) {
	var windowStart time.Time
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT window_start, count FROM rate_windows WHERE key = $1 FOR UPDATE`,
		key,
	).Scan(&windowStart, &count)
	if err == sql.ErrNoRows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rate_windows (key, window_start, count) VALUES ($1, $2, 0)
			 ON CONFLICT (key) DO NOTHING`,
			key, now,
		); err != nil {
			return time.Time{}, 0, fmt.Errorf("insert rate window %q: %w", key, err)
		}
		err = tx.QueryRowContext(ctx,
			`SELECT window_start, count FROM rate_windows WHERE key = $1 FOR UPDATE`,
			key,
		).Scan(&windowStart, &count)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("reload rate window %q: %w", key, err)
		}
	} else if err != nil {
		return time.Time{}, 0, fmt.Errorf("load rate window %q: %w", key, err)
	}

	if !now.Before(windowStart.Add(period)) {
		// Window elapsed; the counter starts over from zero.
		windowStart = now
		count = 0
	}
	return windowStart, count, nil
}
