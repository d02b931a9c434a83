package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/mindhaven/therapy-memory/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id                     TEXT PRIMARY KEY,
		user_id                INTEGER NOT NULL,
		memory_type            TEXT NOT NULL DEFAULT 'conversation',
		content                TEXT NOT NULL,
		semantic_tags          TEXT,
		emotional_context      TEXT,
		temporal_context       TEXT,
		related_topics         TEXT,
		confidence             REAL NOT NULL DEFAULT 0.8,
		access_count           INTEGER NOT NULL DEFAULT 0,
		source_conversation_id TEXT,
		is_active              INTEGER NOT NULL DEFAULT 1,
		last_accessed_at       TEXT,
		created_at             TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_memories_user_type ON memories(user_id, memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

	CREATE TABLE IF NOT EXISTS memory_connections (
		id              TEXT PRIMARY KEY,
		user_id         INTEGER NOT NULL,
		from_memory_id  TEXT NOT NULL REFERENCES memories(id),
		to_memory_id    TEXT NOT NULL REFERENCES memories(id),
		connection_type TEXT NOT NULL DEFAULT 'relates_to',
		strength        REAL NOT NULL DEFAULT 0.5,
		automatic       INTEGER NOT NULL DEFAULT 1,
		pair_lo         TEXT NOT NULL,
		pair_hi         TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_connections_user ON memory_connections(user_id);
	CREATE INDEX IF NOT EXISTS idx_connections_from ON memory_connections(from_memory_id);
	CREATE INDEX IF NOT EXISTS idx_connections_to ON memory_connections(to_memory_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_auto_pair
		ON memory_connections(user_id, pair_lo, pair_hi) WHERE automatic = 1;

	CREATE TABLE IF NOT EXISTS sessions (
		id                 TEXT PRIMARY KEY,
		user_id            INTEGER NOT NULL,
		session_key        TEXT NOT NULL UNIQUE,
		title              TEXT,
		key_topics         TEXT,
		emotional_tone     TEXT NOT NULL DEFAULT 'neutral',
		unresolved_threads TEXT,
		context_carryover  TEXT,
		message_count      INTEGER NOT NULL DEFAULT 0,
		is_active          INTEGER NOT NULL DEFAULT 1,
		last_activity      TEXT NOT NULL,
		created_at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_active ON sessions(user_id, is_active, last_activity DESC);

	CREATE TABLE IF NOT EXISTS threads (
		id                  TEXT PRIMARY KEY,
		session_id          TEXT NOT NULL REFERENCES sessions(id),
		thread_type         TEXT NOT NULL DEFAULT 'main',
		topic               TEXT NOT NULL,
		emotional_intensity INTEGER NOT NULL DEFAULT 0,
		is_resolved         INTEGER NOT NULL DEFAULT 0,
		key_messages        TEXT,
		insights            TEXT,
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_threads_session ON threads(session_id, is_resolved);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const memoryCols = `id, user_id, memory_type, content, semantic_tags, emotional_context,
	temporal_context, related_topics, confidence, access_count,
	source_conversation_id, is_active, last_accessed_at, created_at`

func scanMemory(row scanner) (model.SemanticMemory, error) {
	var m model.SemanticMemory
	var tagsJSON, emotional, temporal, topicsJSON, sourceID, lastAccessed sql.NullString
	var createdAt string
	var active int

	err := row.Scan(
		&m.ID, &m.UserID, &m.MemoryType, &m.Content, &tagsJSON, &emotional,
		&temporal, &topicsJSON, &m.Confidence, &m.AccessCount,
		&sourceID, &active, &lastAccessed, &createdAt,
	)
	if err != nil {
		return m, err
	}

	m.IsActiveMemory = active != 0
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.SemanticTags)
	}
	if topicsJSON.Valid {
		json.Unmarshal([]byte(topicsJSON.String), &m.RelatedTopics)
	}
	if emotional.Valid {
		m.EmotionalContext = emotional.String
	}
	if temporal.Valid {
		m.TemporalContext = temporal.String
	}
	if sourceID.Valid {
		m.SourceConversationID = sourceID.String
	}
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339, lastAccessed.String)
		m.LastAccessedAt = &t
	}

	return m, nil
}

const sessionCols = `id, user_id, session_key, title, key_topics, emotional_tone,
	unresolved_threads, context_carryover, message_count, is_active, last_activity, created_at`

func scanSession(row scanner) (model.ConversationSession, error) {
	var c model.ConversationSession
	var title, topicsJSON, unresolvedJSON, carryoverJSON sql.NullString
	var lastActivity, createdAt string
	var active int

	err := row.Scan(
		&c.ID, &c.UserID, &c.SessionKey, &title, &topicsJSON, &c.EmotionalTone,
		&unresolvedJSON, &carryoverJSON, &c.MessageCount, &active, &lastActivity, &createdAt,
	)
	if err != nil {
		return c, err
	}

	c.IsActive = active != 0
	c.LastActivity, _ = time.Parse(time.RFC3339, lastActivity)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if title.Valid {
		c.Title = title.String
	}
	if topicsJSON.Valid {
		json.Unmarshal([]byte(topicsJSON.String), &c.KeyTopics)
	}
	if unresolvedJSON.Valid {
		json.Unmarshal([]byte(unresolvedJSON.String), &c.UnresolvedThreads)
	}
	if carryoverJSON.Valid {
		json.Unmarshal([]byte(carryoverJSON.String), &c.ContextCarryover)
	}

	return c, nil
}

const threadCols = `id, session_id, thread_type, topic, emotional_intensity,
	is_resolved, key_messages, insights, created_at`

func scanThread(row scanner) (model.ConversationThread, error) {
	var t model.ConversationThread
	var messagesJSON, insightsJSON sql.NullString
	var createdAt string
	var resolved int

	err := row.Scan(
		&t.ID, &t.SessionID, &t.ThreadType, &t.Topic, &t.EmotionalIntensity,
		&resolved, &messagesJSON, &insightsJSON, &createdAt,
	)
	if err != nil {
		return t, err
	}

	t.IsResolved = resolved != 0
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if messagesJSON.Valid {
		json.Unmarshal([]byte(messagesJSON.String), &t.KeyMessages)
	}
	if insightsJSON.Valid {
		json.Unmarshal([]byte(insightsJSON.String), &t.Insights)
	}

	return t, nil
}

const connectionCols = `id, user_id, from_memory_id, to_memory_id, connection_type,
	strength, automatic, created_at`

func scanConnection(row scanner) (model.MemoryConnection, error) {
	var c model.MemoryConnection
	var createdAt string
	var automatic int

	err := row.Scan(
		&c.ID, &c.UserID, &c.FromMemoryID, &c.ToMemoryID, &c.ConnectionType,
		&c.Strength, &automatic, &createdAt,
	)
	if err != nil {
		return c, err
	}

	c.AutomaticConnection = automatic != 0
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return c, nil
}

// marshalList serializes a string slice for storage, nil for empty.
func marshalList(items []string) *string {
	if len(items) == 0 {
		return nil
	}
	b, _ := json.Marshal(items)
	s := string(b)
	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
