// Package repository implements the PostgreSQL queries behind browser session state.
// It uses pgx directly, one row per (session, key).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
)

// ErrNoSession is returned when a session id is blank.
var ErrNoSession = errors.New("session id is required")

// ClientStateRepository persists the key/value entries of browser sessions.
type ClientStateRepository struct {
	db *pgxpool.Pool
}

// NewClientStateRepository constructs a ClientStateRepository.
func NewClientStateRepository(db *pgxpool.Pool) *ClientStateRepository {
	return &ClientStateRepository{db: db}
}

// ForSession returns the session.Storage scoped to one browser session id.
func (r *ClientStateRepository) ForSession(id string) session.Storage {
	return &sessionState{repo: r, sessionID: id}
}

// Load returns the entries present for keys under sessionID.
func (r *ClientStateRepository) Load(ctx context.Context, sessionID string, keys ...string) (map[string]string, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	rows, err := r.db.Query(ctx,
		`SELECT key, value
		 FROM client_state
		 WHERE session_id = $1 AND key = ANY($2)`,
		sessionID, keys,
	)
	if err != nil {
		return nil, fmt.Errorf("load client state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan client state: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Save upserts all entries in one transaction so readers see every key or none.
func (r *ClientStateRepository) Save(ctx context.Context, sessionID string, entries map[string]string) (err error) {
	if sessionID == "" {
		return ErrNoSession
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for k, v := range entries {
		batch.Queue(
			`INSERT INTO client_state (session_id, key, value, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (session_id, key)
			 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			sessionID, k, v, now,
		)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert client state: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Remove deletes keys under sessionID in a single statement.
func (r *ClientStateRepository) Remove(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if _, err := r.db.Exec(ctx,
		`DELETE FROM client_state WHERE session_id = $1 AND key = ANY($2)`,
		sessionID, keys,
	); err != nil {
		return fmt.Errorf("remove client state: %w", err)
	}
	return nil
}

// Prune deletes every session whose newest entry is older than cutoff and
// returns the number of rows removed.
func (r *ClientStateRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM client_state
		 WHERE session_id IN (
		   SELECT session_id FROM client_state
		   GROUP BY session_id
		   HAVING max(updated_at) < $1
		 )`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune client state: %w", err)
	}
	return tag.RowsAffected(), nil
}

type sessionState struct {
	repo      *ClientStateRepository
	sessionID string
}

func (s *sessionState) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	return s.repo.Load(ctx, s.sessionID, keys...)
}

func (s *sessionState) Save(ctx context.Context, entries map[string]string) error {
	return s.repo.Save(ctx, s.sessionID, entries)
}

func (s *sessionState) Remove(ctx context.Context, keys ...string) error {
	return s.repo.Remove(ctx, s.sessionID, keys...)
}
