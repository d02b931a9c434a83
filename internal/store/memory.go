package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
)

func (s *SQLiteStore) CreateMemory(ctx context.Context, p CreateMemoryParams) (*model.SemanticMemory, error) {
	if p.UserID == 0 {
		return nil, errors.New("user id is required")
	}
	if p.Content == "" {
		return nil, errors.New("content is required")
	}

	memoryType := p.MemoryType
	if memoryType == "" {
		memoryType = model.TypeConversation
	}
	if !model.ValidMemoryTypes[memoryType] {
		return nil, fmt.Errorf("invalid memory type %q", memoryType)
	}
	confidence := p.Confidence
	if confidence == 0 {
		confidence = 0.80
	}

	now := time.Now().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, memory_type, content, semantic_tags, emotional_context,
		 temporal_context, related_topics, confidence, access_count, source_conversation_id, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 1, ?)`,
		id, p.UserID, memoryType, p.Content, marshalList(p.SemanticTags), nullable(p.EmotionalContext),
		nullable(p.TemporalContext), marshalList(p.RelatedTopics), confidence,
		nullable(p.SourceConversationID), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	return &model.SemanticMemory{
		ID:                   id,
		UserID:               p.UserID,
		MemoryType:           memoryType,
		Content:              p.Content,
		SemanticTags:         p.SemanticTags,
		EmotionalContext:     p.EmotionalContext,
		TemporalContext:      p.TemporalContext,
		RelatedTopics:        p.RelatedTopics,
		Confidence:           confidence,
		SourceConversationID: p.SourceConversationID,
		IsActiveMemory:       true,
		CreatedAt:            now,
	}, nil
}

// UpdateMemory applies the non-nil fields and always refreshes last_accessed_at.
func (s *SQLiteStore) UpdateMemory(ctx context.Context, id string, p UpdateMemoryParams) (*model.SemanticMemory, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	set := []string{"last_accessed_at = ?"}
	args := []interface{}{now}

	if p.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *p.Content)
	}
	if p.SemanticTags != nil {
		set = append(set, "semantic_tags = ?")
		args = append(args, marshalList(p.SemanticTags))
	}
	if p.EmotionalContext != nil {
		set = append(set, "emotional_context = ?")
		args = append(args, nullable(*p.EmotionalContext))
	}
	if p.TemporalContext != nil {
		set = append(set, "temporal_context = ?")
		args = append(args, nullable(*p.TemporalContext))
	}
	if p.RelatedTopics != nil {
		set = append(set, "related_topics = ?")
		args = append(args, marshalList(p.RelatedTopics))
	}
	if p.Confidence != nil {
		set = append(set, "confidence = ?")
		args = append(args, *p.Confidence)
	}
	if p.IsActiveMemory != nil {
		set = append(set, "is_active = ?")
		args = append(args, boolToInt(*p.IsActiveMemory))
	}
	if p.AccessCount != nil {
		set = append(set, "access_count = ?")
		args = append(args, *p.AccessCount)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.GetMemory(ctx, id)
}

func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*model.SemanticMemory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryCols+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecentMemories returns active memories newest-first. Callers that treat a
// read as a touch must follow up with TouchMemories.
func (s *SQLiteStore) RecentMemories(ctx context.Context, userID int64, limit int) ([]model.SemanticMemory, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

// ActiveMemories returns every active memory for the user, newest-first.
func (s *SQLiteStore) ActiveMemories(ctx context.Context, userID int64) ([]model.SemanticMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

func (s *SQLiteStore) MemoriesByType(ctx context.Context, userID int64, memoryType string) ([]model.SemanticMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories
		 WHERE user_id = ? AND memory_type = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC`, userID, memoryType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

// SearchMemories matches any term as a substring of content or emotional
// context, ranked by last access then creation time.
func (s *SQLiteStore) SearchMemories(ctx context.Context, p SearchMemoryParams) ([]model.SemanticMemory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(p.Terms) == 0 {
		return nil, nil
	}

	var match []string
	args := []interface{}{p.UserID}
	for _, term := range p.Terms {
		match = append(match, `(content LIKE ? ESCAPE '\' OR emotional_context LIKE ? ESCAPE '\')`)
		like := "%" + likeEscaper.Replace(term) + "%"
		args = append(args, like, like)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories
		 WHERE user_id = ? AND is_active = 1 AND (`+strings.Join(match, " OR ")+`)
		 ORDER BY last_accessed_at DESC, created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

// RelatedMemories finds active memories of the same user sharing at least one
// semantic tag or related topic with the source, excluding the source itself.
func (s *SQLiteStore) RelatedMemories(ctx context.Context, src *model.SemanticMemory, limit int) ([]model.SemanticMemory, error) {
	if limit <= 0 {
		limit = 10
	}

	keys := append(append([]string{}, src.SemanticTags...), src.RelatedTopics...)
	if len(keys) == 0 {
		return nil, nil
	}

	var match []string
	args := []interface{}{src.UserID, src.ID}
	for _, k := range keys {
		match = append(match, `(semantic_tags LIKE ? ESCAPE '\' OR related_topics LIKE ? ESCAPE '\')`)
		like := `%"` + likeEscaper.Replace(k) + `"%`
		args = append(args, like, like)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories
		 WHERE user_id = ? AND is_active = 1 AND id != ? AND (`+strings.Join(match, " OR ")+`)
		 ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

// TouchMemories bumps access counts atomically at the store, one increment
// per id per call.
func (s *SQLiteStore) TouchMemories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := []interface{}{now}
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed_at = ?
		 WHERE id IN (`+placeholders+`)`, args...)
	return err
}

// DeactivateMemories soft-retires memories. They stay on disk for audit but
// drop out of every retrieval path.
func (s *SQLiteStore) DeactivateMemories(ctx context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := []interface{}{userID}
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET is_active = 0 WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
	return err
}

// likeEscaper neutralizes LIKE metacharacters so terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func collectMemories(rows *sql.Rows) ([]model.SemanticMemory, error) {
	var memories []model.SemanticMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
