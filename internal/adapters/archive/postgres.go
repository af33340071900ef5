package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record ids are minted by the caller (uuid), not by the database, so the
// queued write path can return a handle before the row exists.
// One statement per Exec: pgx's extended protocol rejects batched DDL strings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_session (
		id uuid PRIMARY KEY,
		session_id text NOT NULL,
		initiator_name text,
		responder_name text,
		initiator_client text,
		responder_client text,
		started_at timestamptz NOT NULL DEFAULT now(),
		ended_at timestamptz
	)`,
	`CREATE TABLE IF NOT EXISTS chat_message (
		id bigserial PRIMARY KEY,
		session_record uuid NOT NULL REFERENCES chat_session(id) ON DELETE CASCADE,
		sender text NOT NULL,
		body text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// Postgres archives chat sessions in two tables. All methods do a single
// statement; retry and backoff belong to the caller (or the task queue).
type Postgres struct {
	pool *pgxpool.Pool
}

var _ core.Archive = (*Postgres)(nil)

// NewPostgres connects, pings and ensures the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: parse dsn: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("archive: ensure schema: %w", err)
		}
	}
	return &Postgres{pool: pool}, nil
}

func (a *Postgres) Close() {
	a.pool.Close()
}

func (a *Postgres) SessionStarted(ctx context.Context, id domain.SessionID, initiator, responder domain.Profile, clientA, clientB string) (core.RecordID, error) {
	rec := core.RecordID(uuid.NewString())
	return rec, a.insertSession(ctx, rec, id, initiator.DisplayName(), responder.DisplayName(), clientA, clientB, time.Now())
}

func (a *Postgres) insertSession(ctx context.Context, rec core.RecordID, id domain.SessionID, initiatorName, responderName, clientA, clientB string, startedAt time.Time) error {
	if a == nil || a.pool == nil {
		return errors.New("archive: nil pool")
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO chat_session (id, session_id, initiator_name, responder_name, initiator_client, responder_client, started_at)
		VALUES ($1::uuid, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING
	`, string(rec), string(id), initiatorName, responderName, clientA, clientB, startedAt)
	return err
}

func (a *Postgres) MessageSent(ctx context.Context, rec core.RecordID, sender domain.ParticipantID, text string) error {
	if a == nil || a.pool == nil {
		return errors.New("archive: nil pool")
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO chat_message (session_record, sender, body)
		VALUES ($1::uuid, $2, $3)
	`, string(rec), string(sender), text)
	return err
}

func (a *Postgres) SessionEnded(ctx context.Context, rec core.RecordID, endedAt time.Time) error {
	if a == nil || a.pool == nil {
		return errors.New("archive: nil pool")
	}
	_, err := a.pool.Exec(ctx, `
		UPDATE chat_session SET ended_at = $2 WHERE id = $1::uuid
	`, string(rec), endedAt)
	return err
}
