package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindhaven/therapy-memory/internal/model"
)

func (s *SQLiteStore) CreateSession(ctx context.Context, p CreateSessionParams) (*model.ConversationSession, error) {
	if p.UserID == 0 {
		return nil, errors.New("user id is required")
	}

	sessionKey := p.SessionKey
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	tone := p.EmotionalTone
	if tone == "" {
		tone = "neutral"
	}

	now := time.Now().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, session_key, title, key_topics, emotional_tone,
		 message_count, is_active, last_activity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 1, ?, ?)`,
		id, p.UserID, sessionKey, nullable(p.Title), marshalList(p.KeyTopics), tone,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &model.ConversationSession{
		ID:            id,
		UserID:        p.UserID,
		SessionKey:    sessionKey,
		Title:         p.Title,
		KeyTopics:     p.KeyTopics,
		EmotionalTone: tone,
		IsActive:      true,
		LastActivity:  now,
		CreatedAt:     now,
	}, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.ConversationSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	c, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActiveSession returns the most-recently-active session flagged active, or
// ErrNotFound. Multiple active rows can exist (e.g. multiple devices); the
// newest wins.
func (s *SQLiteStore) ActiveSession(ctx context.Context, userID int64) (*model.ConversationSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY last_activity DESC, created_at DESC LIMIT 1`, userID)
	c, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateSession applies the non-nil fields and always bumps last_activity.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, p UpdateSessionParams) (*model.ConversationSession, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	set := []string{"last_activity = ?"}
	args := []interface{}{now}

	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, nullable(*p.Title))
	}
	if p.KeyTopics != nil {
		set = append(set, "key_topics = ?")
		args = append(args, marshalList(p.KeyTopics))
	}
	if p.EmotionalTone != nil {
		set = append(set, "emotional_tone = ?")
		args = append(args, *p.EmotionalTone)
	}
	if p.UnresolvedThreads != nil {
		b, _ := json.Marshal(p.UnresolvedThreads)
		set = append(set, "unresolved_threads = ?")
		args = append(args, string(b))
	}
	if p.ContextCarryover != nil {
		b, _ := json.Marshal(p.ContextCarryover)
		set = append(set, "context_carryover = ?")
		args = append(args, string(b))
	}
	if p.MessageCount != nil {
		set = append(set, "message_count = ?")
		args = append(args, *p.MessageCount)
	}
	if p.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, boolToInt(*p.IsActive))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.GetSession(ctx, id)
}

// CloseSession deactivates a session. Closing an already-closed session is a
// no-op; closed is terminal.
func (s *SQLiteStore) CloseSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SessionHistory(ctx context.Context, userID int64, limit int) ([]model.ConversationSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM sessions
		 WHERE user_id = ? ORDER BY last_activity DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ConversationSession
	for rows.Next() {
		c, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, c)
	}
	return sessions, rows.Err()
}

// CloseSessionsInactiveSince closes every active session whose last activity
// is older than the cutoff and returns the count closed.
func (s *SQLiteStore) CloseSessionsInactiveSince(ctx context.Context, userID int64, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = 0
		 WHERE user_id = ? AND is_active = 1 AND last_activity < ?`,
		userID, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
