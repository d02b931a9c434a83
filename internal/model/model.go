// Package model defines the therapeutic memory data types.
package model

import "time"

// SemanticMemory is a durable fact extracted from conversation text.
type SemanticMemory struct {
	ID                   string     `json:"id"`
	UserID               int64      `json:"user_id"`
	MemoryType           string     `json:"memory_type"`
	Content              string     `json:"content"`
	SemanticTags         []string   `json:"semantic_tags,omitempty"`
	EmotionalContext     string     `json:"emotional_context,omitempty"`
	TemporalContext      string     `json:"temporal_context,omitempty"`
	RelatedTopics        []string   `json:"related_topics,omitempty"`
	Confidence           float64    `json:"confidence"`
	AccessCount          int        `json:"access_count"`
	SourceConversationID string     `json:"source_conversation_id,omitempty"`
	IsActiveMemory       bool       `json:"is_active_memory"`
	LastAccessedAt       *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// MemoryConnection is a typed, weighted edge between two memories of the
// same user. Stored directed; traversed as undirected.
type MemoryConnection struct {
	ID                  string    `json:"id"`
	UserID              int64     `json:"user_id"`
	FromMemoryID        string    `json:"from_memory_id"`
	ToMemoryID          string    `json:"to_memory_id"`
	ConnectionType      string    `json:"connection_type"`
	Strength            float64   `json:"strength"`
	AutomaticConnection bool      `json:"automatic_connection"`
	CreatedAt           time.Time `json:"created_at"`
}

// ConversationSession is a bounded window of therapeutic dialogue.
type ConversationSession struct {
	ID                string            `json:"id"`
	UserID            int64             `json:"user_id"`
	SessionKey        string            `json:"session_key"`
	Title             string            `json:"title,omitempty"`
	KeyTopics         []string          `json:"key_topics,omitempty"`
	EmotionalTone     string            `json:"emotional_tone"`
	UnresolvedThreads map[string]string `json:"unresolved_threads,omitempty"`
	ContextCarryover  map[string]any    `json:"context_carryover,omitempty"`
	MessageCount      int               `json:"message_count"`
	IsActive          bool              `json:"is_active"`
	LastActivity      time.Time         `json:"last_activity"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ConversationThread is a sub-topic within a session, resolvable
// independently of the session as a whole.
type ConversationThread struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	ThreadType         string    `json:"thread_type"`
	Topic              string    `json:"topic"`
	EmotionalIntensity int       `json:"emotional_intensity"`
	IsResolved         bool      `json:"is_resolved"`
	KeyMessages        []string  `json:"key_messages,omitempty"`
	Insights           []string  `json:"insights,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// MemoryInsight is a derived artifact recomputed by the analytics service.
// It is never edited in place.
type MemoryInsight struct {
	UserID      int64     `json:"user_id"`
	InsightType string    `json:"insight_type"`
	Summary     string    `json:"summary"`
	MemoryIDs   []string  `json:"memory_ids,omitempty"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
}

// TurnContext is the caller-supplied context accompanying a conversation
// turn.
type TurnContext struct {
	EmotionalState   string   `json:"emotional_state,omitempty"`
	TherapeuticGoals []string `json:"therapeutic_goals,omitempty"`
	CurrentTopics    []string `json:"current_topics,omitempty"`
}

// Memory types.
const (
	TypeConversation = "conversation"
	TypeInsight      = "insight"
	TypePattern      = "pattern"
	TypeGoal         = "goal"
	TypeBreakthrough = "breakthrough"
)

// Connection types.
const (
	RelRelatesTo   = "relates_to"
	RelContradicts = "contradicts"
	RelBuildsOn    = "builds_on"
	RelResolves    = "resolves"
	RelTriggers    = "triggers"
)

// Thread types.
const (
	ThreadMain                = "main"
	ThreadTangent             = "tangent"
	ThreadEmotionalProcessing = "emotional_processing"
	ThreadGoalSetting         = "goal_setting"
)

// ValidMemoryTypes are the allowed memory classifications.
var ValidMemoryTypes = map[string]bool{
	TypeConversation: true,
	TypeInsight:      true,
	TypePattern:      true,
	TypeGoal:         true,
	TypeBreakthrough: true,
}

// ValidConnectionTypes are the allowed edge relations.
var ValidConnectionTypes = map[string]bool{
	RelRelatesTo:   true,
	RelContradicts: true,
	RelBuildsOn:    true,
	RelResolves:    true,
	RelTriggers:    true,
}

// ValidThreadTypes are the allowed thread classifications.
var ValidThreadTypes = map[string]bool{
	ThreadMain:                true,
	ThreadTangent:             true,
	ThreadEmotionalProcessing: true,
	ThreadGoalSetting:         true,
}
