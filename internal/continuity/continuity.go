// Package continuity owns session and thread lifecycle and carries
// emotional tone and topic context across conversation turns.
//
// Session state machine: created -> active (repeated updates) -> closed.
// Closed is terminal; a closed session is superseded by a new one, never
// reopened.
package continuity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
)

// DefaultInactiveDays is the archive cutoff when none is given.
const DefaultInactiveDays = 7

// Service is the conversation continuity service.
type Service struct {
	store store.Store
	log   *zap.Logger
}

// NewService creates the service. A nil logger disables logging.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, log: logger}
}

// CreateSession opens a new session with a fresh session key, seeding topics
// and tone from the initial context when present.
func (s *Service) CreateSession(ctx context.Context, userID int64, initial *model.TurnContext) (*model.ConversationSession, error) {
	p := store.CreateSessionParams{UserID: userID}
	if initial != nil {
		p.KeyTopics = initial.CurrentTopics
		p.EmotionalTone = initial.EmotionalState
	}
	session, err := s.store.CreateSession(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("session created",
		zap.Int64("user_id", userID), zap.String("session_id", session.ID))
	return session, nil
}

// ActiveSession returns the user's most-recently-active open session, or nil
// when none exists.
func (s *Service) ActiveSession(ctx context.Context, userID int64) (*model.ConversationSession, error) {
	session, err := s.store.ActiveSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return session, err
}

// UpdateSession applies a partial update; last activity is always bumped.
func (s *Service) UpdateSession(ctx context.Context, id string, p store.UpdateSessionParams) (*model.ConversationSession, error) {
	return s.store.UpdateSession(ctx, id, p)
}

// CloseSession deactivates a session. Closing twice is a no-op.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	return s.store.CloseSession(ctx, id)
}

// Context is the composite continuity bundle for a turn.
type Context struct {
	Session           *model.ConversationSession `json:"session"`
	Threads           []model.ConversationThread `json:"threads,omitempty"`
	Topics            []string                   `json:"topics,omitempty"`
	EmotionalTone     string                     `json:"emotional_tone"`
	UnresolvedThreads map[string]string          `json:"unresolved_threads,omitempty"`
	Carryover         map[string]any             `json:"carryover,omitempty"`
	MessageCount      int                        `json:"message_count"`
	SessionMinutes    int                        `json:"session_minutes"`
	ActiveThreadCount int                        `json:"active_thread_count"`
}

// LoadContext resolves the target session (specific id, else the active one,
// else a new one) and assembles the continuity bundle with derived stats.
func (s *Service) LoadContext(ctx context.Context, userID int64, sessionID string) (*Context, error) {
	var session *model.ConversationSession
	var err error

	if sessionID != "" {
		session, err = s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", sessionID, err)
		}
		if session.UserID != userID {
			// Another user's session is indistinguishable from a missing one.
			return nil, fmt.Errorf("load session %s: %w", sessionID, store.ErrNotFound)
		}
	} else {
		session, err = s.ActiveSession(ctx, userID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			session, err = s.CreateSession(ctx, userID, nil)
			if err != nil {
				return nil, err
			}
		}
	}

	threads, err := s.store.ActiveThreads(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load threads: %w", err)
	}

	return &Context{
		Session:           session,
		Threads:           threads,
		Topics:            session.KeyTopics,
		EmotionalTone:     session.EmotionalTone,
		UnresolvedThreads: session.UnresolvedThreads,
		Carryover:         session.ContextCarryover,
		MessageCount:      session.MessageCount,
		SessionMinutes:    int(time.Since(session.CreatedAt).Minutes()),
		ActiveThreadCount: len(threads),
	}, nil
}

// ContextUpdate carries the per-turn continuity state to persist.
type ContextUpdate struct {
	Topics         []string       `json:"topics,omitempty"`
	EmotionalState string         `json:"emotional_state,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// UpdateContext writes the turn's topics and tone onto the session and
// stashes the whole update as carryover for the next turn.
func (s *Service) UpdateContext(ctx context.Context, sessionID string, u ContextUpdate) error {
	carryover := map[string]any{
		"topics":          u.Topics,
		"emotional_state": u.EmotionalState,
	}
	for k, v := range u.Extra {
		carryover[k] = v
	}

	p := store.UpdateSessionParams{ContextCarryover: carryover}
	if u.Topics != nil {
		p.KeyTopics = u.Topics
	}
	if u.EmotionalState != "" {
		p.EmotionalTone = &u.EmotionalState
	}
	_, err := s.store.UpdateSession(ctx, sessionID, p)
	return err
}

// SessionHistory returns the user's sessions, most recent first.
func (s *Service) SessionHistory(ctx context.Context, userID int64, limit int) ([]model.ConversationSession, error) {
	return s.store.SessionHistory(ctx, userID, limit)
}

// CreateThread opens a sub-topic thread within a session.
func (s *Service) CreateThread(ctx context.Context, p store.CreateThreadParams) (*model.ConversationThread, error) {
	return s.store.CreateThread(ctx, p)
}

// ActiveThreads returns a session's unresolved threads, most recent first.
func (s *Service) ActiveThreads(ctx context.Context, sessionID string) ([]model.ConversationThread, error) {
	return s.store.ActiveThreads(ctx, sessionID)
}

// ResolveThread marks a thread resolved, appending the resolution to its
// insights when supplied.
func (s *Service) ResolveThread(ctx context.Context, id string, resolution string) error {
	return s.store.ResolveThread(ctx, id, resolution)
}

// ArchiveInactiveSessions closes every active session idle beyond the cutoff
// and returns the count closed. There is no scheduler here; callers trigger
// this periodically.
func (s *Service) ArchiveInactiveSessions(ctx context.Context, userID int64, inactiveDays int) (int, error) {
	if inactiveDays <= 0 {
		inactiveDays = DefaultInactiveDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -inactiveDays)
	closed, err := s.store.CloseSessionsInactiveSince(ctx, userID, cutoff)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		s.log.Info("archived inactive sessions",
			zap.Int64("user_id", userID), zap.Int("closed", closed))
	}
	return closed, nil
}
