// Package insight derives higher-level read-only artifacts from the memory
// set: recurring patterns, progress markers, breakthroughs and emotional
// trends. Insights are recomputed on demand, never persisted or edited.
package insight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/retrieval"
	"github.com/mindhaven/therapy-memory/internal/textscan"
)

const summaryExcerpt = 120

// Insight types.
const (
	InsightRecurringPattern = "recurring_pattern"
	InsightProgressMarker   = "progress_marker"
	InsightBreakthrough     = "breakthrough"
	InsightEmotionalTrend   = "emotional_trend"
)

// Service is the memory analytics service.
type Service struct {
	retrieval *retrieval.Service
	log       *zap.Logger
}

// NewService creates the service. A nil logger disables logging.
func NewService(r *retrieval.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{retrieval: r, log: logger}
}

// GenerateInsights recomputes the user's insights and returns the most
// recent ones up to the limit.
func (s *Service) GenerateInsights(ctx context.Context, userID int64, limit int) []model.MemoryInsight {
	if limit <= 0 {
		limit = 5
	}
	now := time.Now().UTC()
	var insights []model.MemoryInsight

	// Patterns that keep resurfacing.
	for _, p := range s.retrieval.RecurringPatterns(ctx, userID) {
		if p.AccessCount < 1 {
			continue
		}
		insights = append(insights, model.MemoryInsight{
			UserID:      userID,
			InsightType: InsightRecurringPattern,
			Summary:     fmt.Sprintf("A pattern keeps resurfacing: %s", excerpt(p.Content)),
			MemoryIDs:   []string{p.ID},
			Confidence:  p.Confidence,
			GeneratedAt: now,
		})
	}

	// Goals, realizations and breakthroughs as growth markers.
	for _, m := range s.retrieval.ProgressMarkers(ctx, userID) {
		insightType := InsightProgressMarker
		summary := fmt.Sprintf("Progress marker (%s): %s", m.MemoryType, excerpt(m.Content))
		if m.MemoryType == model.TypeBreakthrough {
			insightType = InsightBreakthrough
			summary = fmt.Sprintf("Breakthrough moment: %s", excerpt(m.Content))
		}
		insights = append(insights, model.MemoryInsight{
			UserID:      userID,
			InsightType: insightType,
			Summary:     summary,
			MemoryIDs:   []string{m.ID},
			Confidence:  m.Confidence,
			GeneratedAt: now,
		})
	}

	// Dominant emotional trend, when one stands out.
	trends := s.retrieval.EmotionalTrends(ctx, userID)
	if len(trends) > 0 && trends[0].Count >= 2 {
		t := trends[0]
		insights = append(insights, model.MemoryInsight{
			UserID:      userID,
			InsightType: InsightEmotionalTrend,
			Summary: fmt.Sprintf("Feeling %s has come up %d times since %s",
				t.Emotion, t.Count, t.FirstSeen.Format("Jan 2")),
			Confidence:  0.6,
			GeneratedAt: now,
		})
	}

	// Most confident first; stable order keeps output deterministic.
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Confidence > insights[j].Confidence
	})
	if len(insights) > limit {
		insights = insights[:limit]
	}
	return insights
}

// TrendAnalysis summarizes the user's emotional trajectory for the
// comprehensive context block.
func (s *Service) TrendAnalysis(ctx context.Context, userID int64) []retrieval.EmotionalTrend {
	return s.retrieval.EmotionalTrends(ctx, userID)
}

func excerpt(content string) string {
	if len(content) <= summaryExcerpt {
		return content
	}
	return textscan.Truncate(content, summaryExcerpt) + "..."
}
