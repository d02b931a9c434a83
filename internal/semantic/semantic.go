// Package semantic extracts durable memories from conversation text and
// provides access to them.
package semantic

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
	"github.com/mindhaven/therapy-memory/internal/textscan"
)

// Keyword triggers for each extracted category. Lexical by design; see the
// pluggable scorer in the graph package for the similarity side.
var (
	insightTriggers = []string{
		"i realize", "i understand now", "i see that", "i discovered",
		"breakthrough", "epiphany", "aha moment", "clarity", "perspective",
	}
	patternTriggers = []string{
		"always", "never", "usually", "often", "repeatedly",
		"pattern", "habit", "tendency", "every time", "whenever",
	}
	goalTriggers = []string{
		"want to", "hope to", "goal", "aspire", "aim to",
		"plan to", "working towards", "trying to",
	}
)

// conversationMinLength is the text length above which a conversation memory
// is always recorded.
const conversationMinLength = 50

// Service is the semantic memory service.
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

// ExtractAndStore analyzes text, persists one memory per triggered category
// plus a conversation memory for substantive turns, and returns whatever was
// stored. Persistence failures are logged and skipped; memory loss must not
// block the chat path.
func (s *Service) ExtractAndStore(ctx context.Context, userID int64, text, emotionalState, sessionID string) []model.SemanticMemory {
	candidates := extract(text)

	var stored []model.SemanticMemory
	for _, c := range candidates {
		emotional := emotionalState
		if emotional == "" {
			emotional = strings.Join(c.emotions, ", ")
		}
		mem, err := s.store.CreateMemory(ctx, store.CreateMemoryParams{
			UserID:               userID,
			MemoryType:           c.memoryType,
			Content:              c.content,
			SemanticTags:         c.tags,
			EmotionalContext:     emotional,
			RelatedTopics:        c.topics,
			SourceConversationID: sessionID,
		})
		if err != nil {
			s.log.Warn("dropping extracted memory",
				zap.Int64("user_id", userID),
				zap.String("memory_type", c.memoryType),
				zap.Error(err))
			continue
		}
		stored = append(stored, *mem)
	}
	return stored
}

// CreateMemory stores a memory directly. UserID and Content are required;
// type defaults to conversation and confidence to 0.80.
func (s *Service) CreateMemory(ctx context.Context, p store.CreateMemoryParams) (*model.SemanticMemory, error) {
	return s.store.CreateMemory(ctx, p)
}

// UpdateMemory applies a partial update and refreshes the access timestamp.
func (s *Service) UpdateMemory(ctx context.Context, id string, p store.UpdateMemoryParams) (*model.SemanticMemory, error) {
	return s.store.UpdateMemory(ctx, id, p)
}

// RecentMemories returns the newest active memories. A read is a touch:
// every returned memory's access count is bumped once, so frequently
// surfaced memories rank as hotter over time.
func (s *Service) RecentMemories(ctx context.Context, userID int64, limit int) []model.SemanticMemory {
	memories, err := s.store.RecentMemories(ctx, userID, limit)
	if err != nil {
		s.log.Warn("recent memories failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	s.touch(ctx, memories)
	return memories
}

// MemoriesByType returns active memories of one classification.
func (s *Service) MemoriesByType(ctx context.Context, userID int64, memoryType string) []model.SemanticMemory {
	memories, err := s.store.MemoriesByType(ctx, userID, memoryType)
	if err != nil {
		s.log.Warn("memories by type failed",
			zap.Int64("user_id", userID), zap.String("memory_type", memoryType), zap.Error(err))
		return nil
	}
	return memories
}

// SearchMemories matches query terms (length > 2) against content and
// emotional context, ranked by last access then creation time. Results are
// touched.
func (s *Service) SearchMemories(ctx context.Context, userID int64, query string, limit int) []model.SemanticMemory {
	terms := textscan.QueryTerms(query)
	if len(terms) == 0 {
		return nil
	}
	memories, err := s.store.SearchMemories(ctx, store.SearchMemoryParams{
		UserID: userID,
		Terms:  terms,
		Limit:  limit,
	})
	if err != nil {
		s.log.Warn("memory search failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	s.touch(ctx, memories)
	return memories
}

// RelatedMemories finds up to 10 active memories sharing a tag or topic with
// the source.
func (s *Service) RelatedMemories(ctx context.Context, memoryID string) []model.SemanticMemory {
	src, err := s.store.GetMemory(ctx, memoryID)
	if err != nil {
		s.log.Warn("related memories: source lookup failed",
			zap.String("memory_id", memoryID), zap.Error(err))
		return nil
	}
	memories, err := s.store.RelatedMemories(ctx, src, 10)
	if err != nil {
		s.log.Warn("related memories failed", zap.String("memory_id", memoryID), zap.Error(err))
		return nil
	}
	return memories
}

func (s *Service) touch(ctx context.Context, memories []model.SemanticMemory) {
	if len(memories) == 0 {
		return
	}
	ids := make([]string, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	if err := s.store.TouchMemories(ctx, ids); err != nil {
		s.log.Warn("access touch failed", zap.Error(err))
	}
}

type candidate struct {
	memoryType string
	content    string
	tags       []string
	emotions   []string
	topics     []string
}

// extract runs the independent keyword-trigger rules over the text and
// builds one candidate per triggered category, plus a conversation candidate
// for turns longer than conversationMinLength.
func extract(text string) []candidate {
	sentences := textscan.Sentences(text)
	emotions := textscan.Emotions(text)
	topics := textscan.Topics(text)

	var candidates []candidate
	build := func(memoryType string, triggers []string) {
		var matched []string
		for _, sentence := range sentences {
			if textscan.ContainsAny(sentence, triggers) {
				matched = append(matched, sentence)
			}
		}
		if len(matched) == 0 {
			return
		}
		candidates = append(candidates, candidate{
			memoryType: memoryType,
			content:    strings.TrimSpace(strings.Join(matched, ". ")),
			tags:       textscan.Dedup(append(append([]string{memoryType}, emotions...), topics...)),
			emotions:   emotions,
			topics:     topics,
		})
	}

	build(model.TypeInsight, insightTriggers)
	build(model.TypePattern, patternTriggers)
	build(model.TypeGoal, goalTriggers)

	if len(text) > conversationMinLength {
		candidates = append(candidates, candidate{
			memoryType: model.TypeConversation,
			content:    strings.TrimSpace(text),
			tags:       textscan.Dedup(append(append([]string{model.TypeConversation}, emotions...), topics...)),
			emotions:   emotions,
			topics:     topics,
		})
	}

	return candidates
}
