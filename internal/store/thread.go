package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
)

func (s *SQLiteStore) CreateThread(ctx context.Context, p CreateThreadParams) (*model.ConversationThread, error) {
	if p.SessionID == "" {
		return nil, errors.New("session id is required")
	}

	threadType := p.ThreadType
	if threadType == "" {
		threadType = model.ThreadMain
	}
	if !model.ValidThreadTypes[threadType] {
		return nil, fmt.Errorf("invalid thread type %q", threadType)
	}
	intensity := p.EmotionalIntensity
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}

	now := time.Now().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, session_id, thread_type, topic, emotional_intensity,
		 is_resolved, key_messages, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, p.SessionID, threadType, p.Topic, intensity,
		marshalList(p.KeyMessages), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	return &model.ConversationThread{
		ID:                 id,
		SessionID:          p.SessionID,
		ThreadType:         threadType,
		Topic:              p.Topic,
		EmotionalIntensity: intensity,
		KeyMessages:        p.KeyMessages,
		CreatedAt:          now,
	}, nil
}

// ActiveThreads returns the session's unresolved threads, newest first.
func (s *SQLiteStore) ActiveThreads(ctx context.Context, sessionID string) ([]model.ConversationThread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+threadCols+` FROM threads
		 WHERE session_id = ? AND is_resolved = 0
		 ORDER BY created_at DESC, id DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []model.ConversationThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// ResolveThread marks a thread resolved and, when a resolution is supplied,
// appends it to the insights list. The append happens inside a single UPDATE
// via json_insert, so concurrent resolutions cannot lose entries.
func (s *SQLiteStore) ResolveThread(ctx context.Context, id string, resolution string) error {
	var res sql.Result
	var err error

	if resolution == "" {
		res, err = s.db.ExecContext(ctx,
			`UPDATE threads SET is_resolved = 1 WHERE id = ?`, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE threads SET is_resolved = 1,
			 insights = json_insert(COALESCE(insights, '[]'), '$[#]', ?)
			 WHERE id = ?`, resolution, id)
	}
	if err != nil {
		return fmt.Errorf("resolve thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
