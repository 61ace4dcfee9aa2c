package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lurelab/internal/domain/models"
	"lurelab/internal/infrastructure/database"
	"lurelab/pkg/logger"
)

// SessionRepository persists sessions in PostgreSQL. The transcript,
// verdict, intelligence, and metrics travel as JSONB; the columns queried
// by reporting (activity, callback flag) are promoted to real columns.
type SessionRepository struct {
	db  *database.PostgresDB
	log *logger.Logger
}

// NewSessionRepository creates a repository over the given database.
func NewSessionRepository(db *database.PostgresDB, log *logger.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log.WithComponent("session_repository"),
	}
}

// EnsureSchema creates the sessions table when it does not exist.
func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id    TEXT PRIMARY KEY,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    callback_sent BOOLEAN NOT NULL DEFAULT FALSE,
    agent_notes   TEXT NOT NULL DEFAULT '',
    channel       TEXT NOT NULL DEFAULT '',
    language      TEXT NOT NULL DEFAULT '',
    locale        TEXT NOT NULL DEFAULT '',
    messages      JSONB NOT NULL DEFAULT '[]',
    detection     JSONB,
    intelligence  JSONB NOT NULL DEFAULT '{}',
    metrics       JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at DESC);
`
	if err := r.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure sessions schema: %w", err)
	}
	return nil
}

// Load fetches a session by id, returning (nil, nil) when absent.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*models.SessionState, error) {
	const query = `
SELECT session_id, created_at, updated_at, is_active, callback_sent,
       agent_notes, channel, language, locale,
       messages, detection, intelligence, metrics
FROM sessions
WHERE session_id = $1`

	var (
		state            models.SessionState
		messagesJSON     []byte
		detectionJSON    []byte
		intelligenceJSON []byte
		metricsJSON      []byte
	)
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&state.SessionID, &state.CreatedAt, &state.UpdatedAt,
		&state.IsActive, &state.CallbackSent,
		&state.AgentNotes, &state.Channel, &state.Language, &state.Locale,
		&messagesJSON, &detectionJSON, &intelligenceJSON, &metricsJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if err := json.Unmarshal(messagesJSON, &state.Messages); err != nil {
		return nil, fmt.Errorf("decode session %s messages: %w", sessionID, err)
	}
	if len(detectionJSON) > 0 {
		var detection models.DetectionResult
		if err := json.Unmarshal(detectionJSON, &detection); err != nil {
			return nil, fmt.Errorf("decode session %s detection: %w", sessionID, err)
		}
		state.Detection = &detection
	}
	if err := json.Unmarshal(intelligenceJSON, &state.Intelligence); err != nil {
		return nil, fmt.Errorf("decode session %s intelligence: %w", sessionID, err)
	}
	if err := json.Unmarshal(metricsJSON, &state.Metrics); err != nil {
		return nil, fmt.Errorf("decode session %s metrics: %w", sessionID, err)
	}
	return &state, nil
}

// Save upserts the full session state.
func (r *SessionRepository) Save(ctx context.Context, state *models.SessionState) error {
	const query = `
INSERT INTO sessions (
    session_id, created_at, updated_at, is_active, callback_sent,
    agent_notes, channel, language, locale,
    messages, detection, intelligence, metrics
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (session_id) DO UPDATE SET
    updated_at    = EXCLUDED.updated_at,
    is_active     = EXCLUDED.is_active,
    callback_sent = EXCLUDED.callback_sent,
    agent_notes   = EXCLUDED.agent_notes,
    channel       = EXCLUDED.channel,
    language      = EXCLUDED.language,
    locale        = EXCLUDED.locale,
    messages      = EXCLUDED.messages,
    detection     = EXCLUDED.detection,
    intelligence  = EXCLUDED.intelligence,
    metrics       = EXCLUDED.metrics`

	messagesJSON, err := json.Marshal(state.Messages)
	if err != nil {
		return fmt.Errorf("encode session %s messages: %w", state.SessionID, err)
	}
	var detectionJSON []byte
	if state.Detection != nil {
		if detectionJSON, err = json.Marshal(state.Detection); err != nil {
			return fmt.Errorf("encode session %s detection: %w", state.SessionID, err)
		}
	}
	intelligenceJSON, err := json.Marshal(state.Intelligence)
	if err != nil {
		return fmt.Errorf("encode session %s intelligence: %w", state.SessionID, err)
	}
	metricsJSON, err := json.Marshal(state.Metrics)
	if err != nil {
		return fmt.Errorf("encode session %s metrics: %w", state.SessionID, err)
	}

	if err := r.db.Exec(ctx, query,
		state.SessionID, state.CreatedAt, state.UpdatedAt,
		state.IsActive, state.CallbackSent,
		state.AgentNotes, state.Channel, state.Language, state.Locale,
		messagesJSON, detectionJSON, intelligenceJSON, metricsJSON,
	); err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

// MarkCallbackSent latches the callback flag without rewriting the session.
func (r *SessionRepository) MarkCallbackSent(ctx context.Context, sessionID string) error {
	const query = `UPDATE sessions SET callback_sent = TRUE, updated_at = NOW() WHERE session_id = $1`
	if err := r.db.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("mark callback sent for session %s: %w", sessionID, err)
	}
	return nil
}
