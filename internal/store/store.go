// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CreateMemoryParams holds parameters for storing a memory.
type CreateMemoryParams struct {
	UserID               int64
	MemoryType           string
	Content              string
	SemanticTags         []string
	EmotionalContext     string
	TemporalContext      string
	RelatedTopics        []string
	Confidence           float64
	SourceConversationID string
}

// UpdateMemoryParams holds optional fields for updating a memory.
// Nil fields are left unchanged.
type UpdateMemoryParams struct {
	Content          *string
	SemanticTags     []string
	EmotionalContext *string
	TemporalContext  *string
	RelatedTopics    []string
	Confidence       *float64
	IsActiveMemory   *bool
	AccessCount      *int
}

// SearchMemoryParams holds parameters for term-based memory search.
type SearchMemoryParams struct {
	UserID int64
	Terms  []string
	Limit  int
}

// CreateConnectionParams holds parameters for creating an edge. Edges are
// automatic unless Manual is set; only automatic edges are deduplicated per
// unordered pair.
type CreateConnectionParams struct {
	UserID         int64
	FromMemoryID   string
	ToMemoryID     string
	ConnectionType string
	Strength       float64
	Manual         bool
}

// CreateSessionParams holds parameters for creating a session.
type CreateSessionParams struct {
	UserID        int64
	SessionKey    string
	Title         string
	KeyTopics     []string
	EmotionalTone string
}

// UpdateSessionParams holds optional fields for updating a session.
type UpdateSessionParams struct {
	Title             *string
	KeyTopics         []string
	EmotionalTone     *string
	UnresolvedThreads map[string]string
	ContextCarryover  map[string]any
	MessageCount      *int
	IsActive          *bool
}

// CreateThreadParams holds parameters for creating a thread.
type CreateThreadParams struct {
	SessionID          string
	ThreadType         string
	Topic              string
	EmotionalIntensity int
	KeyMessages        []string
}

// Store defines the persistence contract for the memory engine.
// Every query is scoped by the owning user; cross-tenant reads are a
// correctness bug.
type Store interface {
	// Memories.
	CreateMemory(ctx context.Context, p CreateMemoryParams) (*model.SemanticMemory, error)
	UpdateMemory(ctx context.Context, id string, p UpdateMemoryParams) (*model.SemanticMemory, error)
	GetMemory(ctx context.Context, id string) (*model.SemanticMemory, error)
	RecentMemories(ctx context.Context, userID int64, limit int) ([]model.SemanticMemory, error)
	ActiveMemories(ctx context.Context, userID int64) ([]model.SemanticMemory, error)
	MemoriesByType(ctx context.Context, userID int64, memoryType string) ([]model.SemanticMemory, error)
	SearchMemories(ctx context.Context, p SearchMemoryParams) ([]model.SemanticMemory, error)
	RelatedMemories(ctx context.Context, src *model.SemanticMemory, limit int) ([]model.SemanticMemory, error)
	TouchMemories(ctx context.Context, ids []string) error
	DeactivateMemories(ctx context.Context, userID int64, ids []string) error

	// Connections.
	CreateConnection(ctx context.Context, p CreateConnectionParams) (*model.MemoryConnection, bool, error)
	ConnectionsFor(ctx context.Context, memoryID string) ([]model.MemoryConnection, error)
	ConnectionsByUser(ctx context.Context, userID int64) ([]model.MemoryConnection, error)
	StrongestConnections(ctx context.Context, userID int64, limit int) ([]model.MemoryConnection, error)

	// Sessions.
	CreateSession(ctx context.Context, p CreateSessionParams) (*model.ConversationSession, error)
	GetSession(ctx context.Context, id string) (*model.ConversationSession, error)
	ActiveSession(ctx context.Context, userID int64) (*model.ConversationSession, error)
	UpdateSession(ctx context.Context, id string, p UpdateSessionParams) (*model.ConversationSession, error)
	CloseSession(ctx context.Context, id string) error
	SessionHistory(ctx context.Context, userID int64, limit int) ([]model.ConversationSession, error)
	CloseSessionsInactiveSince(ctx context.Context, userID int64, cutoff time.Time) (int, error)

	// Threads.
	CreateThread(ctx context.Context, p CreateThreadParams) (*model.ConversationThread, error)
	ActiveThreads(ctx context.Context, sessionID string) ([]model.ConversationThread, error)
	ResolveThread(ctx context.Context, id string, resolution string) error

	// Close closes the store.
	Close() error
}
