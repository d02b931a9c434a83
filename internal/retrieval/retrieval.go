// Package retrieval ranks and selects memories relevant to the current turn
// or emotional state. Ranking is deterministic for identical inputs at a
// fixed point in time; ties prefer higher confidence, then recency.
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
	"github.com/mindhaven/therapy-memory/internal/textscan"
)

const candidatePool = 100

// Service is the memory retrieval service.
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

// ContextualMemories ranks the user's active memories against the whole turn
// context: topics, goals, and emotional state.
func (s *Service) ContextualMemories(ctx context.Context, userID int64, turn *model.TurnContext, limit int) []model.SemanticMemory {
	var probe string
	if turn != nil {
		parts := append(append([]string{}, turn.CurrentTopics...), turn.TherapeuticGoals...)
		if turn.EmotionalState != "" {
			parts = append(parts, turn.EmotionalState)
		}
		probe = strings.Join(parts, " ")
	}
	return s.rank(ctx, userID, probe, "", limit)
}

// ConversationRelevantMemories ranks memories against the current message
// text.
func (s *Service) ConversationRelevantMemories(ctx context.Context, userID int64, currentMessage string, limit int) []model.SemanticMemory {
	return s.rank(ctx, userID, currentMessage, "", limit)
}

// EmotionallyRelevantMemories ranks memories against an emotional state,
// weighting emotional-context matches heavily.
func (s *Service) EmotionallyRelevantMemories(ctx context.Context, userID int64, emotionalState string, limit int) []model.SemanticMemory {
	return s.rank(ctx, userID, emotionalState, emotionalState, limit)
}

// rank loads the candidate pool and orders it by a weighted composite of
// term overlap, tag/topic overlap, emotional match, confidence and recency.
func (s *Service) rank(ctx context.Context, userID int64, probe, emotionalState string, limit int) []model.SemanticMemory {
	if limit <= 0 {
		limit = 10
	}
	candidates, err := s.store.RecentMemories(ctx, userID, candidatePool)
	if err != nil {
		s.log.Warn("retrieval failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	probeWords := textscan.Words(probe, 2)
	probeTags := make(map[string]bool)
	for _, t := range textscan.Emotions(probe) {
		probeTags[t] = true
	}
	for _, t := range textscan.Topics(probe) {
		probeTags[t] = true
	}

	now := time.Now()
	type scored struct {
		memory model.SemanticMemory
		score  float64
	}
	ranked := make([]scored, 0, len(candidates))

	for _, m := range candidates {
		overlap := 0.0
		if len(probeWords) > 0 {
			contentWords := textscan.Words(m.Content, 2)
			hits := 0
			for w := range probeWords {
				if contentWords[w] {
					hits++
				}
			}
			overlap = float64(hits) / float64(len(probeWords))
		}

		tagHits := 0.0
		for _, t := range m.SemanticTags {
			if probeTags[t] {
				tagHits++
			}
		}
		for _, t := range m.RelatedTopics {
			if probeTags[t] {
				tagHits++
			}
		}
		tagScore := tagHits * 0.25
		if tagScore > 1 {
			tagScore = 1
		}

		emotional := 0.0
		if emotionalState != "" && m.EmotionalContext != "" &&
			textscan.ContainsAny(m.EmotionalContext, []string{emotionalState}) {
			emotional = 1.0
		}

		// Recency: exponential decay, roughly a week's half-life.
		age := now.Sub(m.CreatedAt).Hours() / 24.0
		recency := math.Exp(-0.1 * age)

		score := overlap*0.35 + tagScore*0.2 + emotional*0.15 + m.Confidence*0.15 + recency*0.15
		ranked = append(ranked, scored{memory: m, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.memory.Confidence != b.memory.Confidence {
			return a.memory.Confidence > b.memory.Confidence
		}
		if !a.memory.CreatedAt.Equal(b.memory.CreatedAt) {
			return a.memory.CreatedAt.After(b.memory.CreatedAt)
		}
		return a.memory.ID > b.memory.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	memories := make([]model.SemanticMemory, len(ranked))
	for i, r := range ranked {
		memories[i] = r.memory
	}
	return memories
}

// RecurringPatterns returns the user's pattern memories ordered by how often
// they resurface (access count, then recency). Feeds the analytics service.
func (s *Service) RecurringPatterns(ctx context.Context, userID int64) []model.SemanticMemory {
	patterns, err := s.store.MemoriesByType(ctx, userID, model.TypePattern)
	if err != nil {
		s.log.Warn("recurring patterns failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].AccessCount != patterns[j].AccessCount {
			return patterns[i].AccessCount > patterns[j].AccessCount
		}
		return patterns[i].CreatedAt.After(patterns[j].CreatedAt)
	})
	return patterns
}

// ProgressMarkers returns goal, insight and breakthrough memories newest
// first. Feeds the analytics service.
func (s *Service) ProgressMarkers(ctx context.Context, userID int64) []model.SemanticMemory {
	var markers []model.SemanticMemory
	for _, memoryType := range []string{model.TypeGoal, model.TypeInsight, model.TypeBreakthrough} {
		memories, err := s.store.MemoriesByType(ctx, userID, memoryType)
		if err != nil {
			s.log.Warn("progress markers failed",
				zap.Int64("user_id", userID), zap.String("memory_type", memoryType), zap.Error(err))
			continue
		}
		markers = append(markers, memories...)
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].CreatedAt.After(markers[j].CreatedAt)
	})
	return markers
}

// EmotionalTrend is an aggregate of one emotion across a user's memories.
type EmotionalTrend struct {
	Emotion   string    `json:"emotion"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// EmotionalTrends tallies emotion tags over the user's active memories,
// most frequent first. Feeds the analytics service.
func (s *Service) EmotionalTrends(ctx context.Context, userID int64) []EmotionalTrend {
	memories, err := s.store.ActiveMemories(ctx, userID)
	if err != nil {
		s.log.Warn("emotional trends failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	byEmotion := make(map[string]*EmotionalTrend)
	for _, m := range memories {
		for _, tag := range m.SemanticTags {
			if !isEmotion(tag) {
				continue
			}
			t, ok := byEmotion[tag]
			if !ok {
				t = &EmotionalTrend{Emotion: tag, FirstSeen: m.CreatedAt, LastSeen: m.CreatedAt}
				byEmotion[tag] = t
			}
			t.Count++
			if m.CreatedAt.Before(t.FirstSeen) {
				t.FirstSeen = m.CreatedAt
			}
			if m.CreatedAt.After(t.LastSeen) {
				t.LastSeen = m.CreatedAt
			}
		}
	}

	trends := make([]EmotionalTrend, 0, len(byEmotion))
	for _, t := range byEmotion {
		trends = append(trends, *t)
	}
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].Count != trends[j].Count {
			return trends[i].Count > trends[j].Count
		}
		return trends[i].Emotion < trends[j].Emotion
	})
	return trends
}

func isEmotion(tag string) bool {
	for _, e := range textscan.EmotionWords {
		if tag == e {
			return true
		}
	}
	return false
}
