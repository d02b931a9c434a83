// Package engine is the memory manager: the façade orchestrating extraction,
// retrieval, connection suggestion and session continuity for each
// conversation turn, plus the out-of-band maintenance operations.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/continuity"
	"github.com/mindhaven/therapy-memory/internal/graph"
	"github.com/mindhaven/therapy-memory/internal/insight"
	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/retrieval"
	"github.com/mindhaven/therapy-memory/internal/semantic"
	"github.com/mindhaven/therapy-memory/internal/store"
)

const (
	relevantHistoryLimit = 10
	turnInsightLimit     = 3
	contextInsightLimit  = 5

	// Maintenance defaults.
	DefaultArchiveDays = 30

	// Consolidated content is bounded to keep prompt bundles sane.
	maxConsolidatedContent = 2000
)

// Manager orchestrates the memory subsystem. Construct one at startup with
// store handles and share it; it holds no per-request state.
type Manager struct {
	store      store.Store
	semantic   *semantic.Service
	graph      *graph.Service
	continuity *continuity.Service
	retrieval  *retrieval.Service
	insight    *insight.Service
	log        *zap.Logger
}

// NewManager wires the sub-services over one store. A nil logger disables
// logging.
func NewManager(st store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := retrieval.NewService(st, logger)
	return &Manager{
		store:      st,
		semantic:   semantic.NewService(st, logger),
		graph:      graph.NewService(st, logger),
		continuity: continuity.NewService(st, logger),
		retrieval:  r,
		insight:    insight.NewService(r, logger),
		log:        logger,
	}
}

// Semantic exposes the semantic memory service for administrative tooling.
func (m *Manager) Semantic() *semantic.Service { return m.semantic }

// Graph exposes the connection service for administrative tooling.
func (m *Manager) Graph() *graph.Service { return m.graph }

// Continuity exposes the continuity service for administrative tooling.
func (m *Manager) Continuity() *continuity.Service { return m.continuity }

// Retrieval exposes the retrieval service for administrative tooling.
func (m *Manager) Retrieval() *retrieval.Service { return m.retrieval }

// TurnResult is the bundle returned to the chat-facing caller for one turn.
type TurnResult struct {
	Memories        []model.SemanticMemory     `json:"memories,omitempty"`
	Insights        []model.MemoryInsight      `json:"insights,omitempty"`
	RelevantHistory []model.SemanticMemory     `json:"relevant_history,omitempty"`
	NewConnections  []model.MemoryConnection   `json:"new_connections,omitempty"`
	SessionUpdate   *model.ConversationSession `json:"session_update"`
}

// ProcessMessage handles one user turn. Session failures are surfaced: a
// conversation cannot proceed without session identity. Every other step
// degrades gracefully — a partial bundle beats a blocked conversation.
func (m *Manager) ProcessMessage(ctx context.Context, userID int64, message string, turn *model.TurnContext) (*TurnResult, error) {
	session, err := m.continuity.ActiveSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		session, err = m.continuity.CreateSession(ctx, userID, turn)
		if err != nil {
			return nil, err
		}
	}

	emotionalState := ""
	if turn != nil {
		emotionalState = turn.EmotionalState
	}

	memories := m.semantic.ExtractAndStore(ctx, userID, message, emotionalState, session.ID)

	history := m.retrieval.ConversationRelevantMemories(ctx, userID, message, relevantHistoryLimit+len(memories))
	history = excludeIDs(history, memories, relevantHistoryLimit)

	insights := m.insight.GenerateInsights(ctx, userID, turnInsightLimit)

	var newConnections []model.MemoryConnection
	for _, mem := range memories {
		created, err := m.graph.SuggestConnections(ctx, mem.ID)
		if err != nil {
			m.log.Warn("connection suggestion failed",
				zap.Int64("user_id", userID), zap.String("memory_id", mem.ID), zap.Error(err))
			continue
		}
		newConnections = append(newConnections, created...)
	}

	topics := session.KeyTopics
	if turn != nil {
		topics = unionTopics(topics, turn.CurrentTopics)
	}
	messageCount := session.MessageCount + 1
	update := store.UpdateSessionParams{MessageCount: &messageCount}
	if topics != nil {
		update.KeyTopics = topics
	}
	if emotionalState != "" {
		update.EmotionalTone = &emotionalState
	}
	session, err = m.continuity.UpdateSession(ctx, session.ID, update)
	if err != nil {
		// Losing session state silently is worse than losing a memory.
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &TurnResult{
		Memories:        memories,
		Insights:        insights,
		RelevantHistory: history,
		NewConnections:  newConnections,
		SessionUpdate:   session,
	}, nil
}

// EmotionalBlock is the emotional slice of the comprehensive context.
type EmotionalBlock struct {
	CurrentTone      string                     `json:"current_tone"`
	RelevantMemories []model.SemanticMemory     `json:"relevant_memories,omitempty"`
	Trends           []retrieval.EmotionalTrend `json:"trends,omitempty"`
}

// ComprehensiveContext is a prompt-ready assembly of everything the model
// should remember about the user.
type ComprehensiveContext struct {
	Session   *model.ConversationSession `json:"session,omitempty"`
	Memories  []model.SemanticMemory     `json:"memories,omitempty"`
	Insights  []model.MemoryInsight      `json:"insights,omitempty"`
	Emotional EmotionalBlock             `json:"emotional"`
}

// GetComprehensiveContext assembles the prompt bundle: active session,
// deduplicated union of recent and contextually relevant memories, top
// insights, and the emotional context block.
func (m *Manager) GetComprehensiveContext(ctx context.Context, userID int64, currentMessage string) (*ComprehensiveContext, error) {
	session, err := m.continuity.ActiveSession(ctx, userID)
	if err != nil {
		m.log.Warn("comprehensive context: session lookup failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	recent := m.semantic.RecentMemories(ctx, userID, relevantHistoryLimit)
	var contextual []model.SemanticMemory
	if currentMessage != "" {
		contextual = m.retrieval.ConversationRelevantMemories(ctx, userID, currentMessage, relevantHistoryLimit)
	}

	seen := make(map[string]bool, len(recent))
	memories := make([]model.SemanticMemory, 0, len(recent)+len(contextual))
	for _, mem := range append(recent, contextual...) {
		if seen[mem.ID] {
			continue
		}
		seen[mem.ID] = true
		memories = append(memories, mem)
	}

	tone := "neutral"
	if session != nil {
		tone = session.EmotionalTone
	}

	return &ComprehensiveContext{
		Session:  session,
		Memories: memories,
		Insights: m.insight.GenerateInsights(ctx, userID, contextInsightLimit),
		Emotional: EmotionalBlock{
			CurrentTone:      tone,
			RelevantMemories: m.retrieval.EmotionallyRelevantMemories(ctx, userID, tone, relevantHistoryLimit),
			Trends:           m.insight.TrendAnalysis(ctx, userID),
		},
	}, nil
}

// ArchiveOldSessions closes sessions inactive beyond the cutoff and returns
// the count closed.
func (m *Manager) ArchiveOldSessions(ctx context.Context, userID int64, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultArchiveDays
	}
	return m.continuity.ArchiveInactiveSessions(ctx, userID, olderThanDays)
}

func excludeIDs(memories, exclude []model.SemanticMemory, limit int) []model.SemanticMemory {
	skip := make(map[string]bool, len(exclude))
	for _, m := range exclude {
		skip[m.ID] = true
	}
	var out []model.SemanticMemory
	for _, m := range memories {
		if skip[m.ID] {
			continue
		}
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func unionTopics(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, t := range append(append([]string{}, a...), b...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
