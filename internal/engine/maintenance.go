package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
	"github.com/mindhaven/therapy-memory/internal/textscan"
)

const similarityPrefix = 20

// ConsolidateMemories soft-merges near-duplicate memories. Two memories are
// similar when they share at least two semantic tags or one's leading 20
// characters appear inside the other's content. The first member of each
// group absorbs the rest: contents concatenate, tags union, access counts
// sum; absorbed copies are deactivated, never deleted. Returns the number of
// groups merged.
func (m *Manager) ConsolidateMemories(ctx context.Context, userID int64) (int, error) {
	memories, err := m.store.ActiveMemories(ctx, userID)
	if err != nil {
		return 0, err
	}

	grouped := make([]bool, len(memories))
	merged := 0

	for i := range memories {
		if grouped[i] {
			continue
		}
		primary := &memories[i]
		group := []*model.SemanticMemory{primary}
		for j := i + 1; j < len(memories); j++ {
			if grouped[j] {
				continue
			}
			if similarMemories(primary, &memories[j]) {
				group = append(group, &memories[j])
				grouped[j] = true
			}
		}
		if len(group) < 2 {
			continue
		}

		contents := make([]string, len(group))
		tags := primary.SemanticTags
		accessCount := 0
		var absorbed []string
		for k, g := range group {
			contents[k] = g.Content
			accessCount += g.AccessCount
			if k > 0 {
				tags = unionTopics(tags, g.SemanticTags)
				absorbed = append(absorbed, g.ID)
			}
		}
		content := textscan.Truncate(strings.Join(contents, ". "), maxConsolidatedContent)

		if _, err := m.store.UpdateMemory(ctx, primary.ID, store.UpdateMemoryParams{
			Content:      &content,
			SemanticTags: tags,
			AccessCount:  &accessCount,
		}); err != nil {
			m.log.Error("consolidation: primary update failed",
				zap.Int64("user_id", userID), zap.String("memory_id", primary.ID), zap.Error(err))
			continue
		}
		if err := m.store.DeactivateMemories(ctx, userID, absorbed); err != nil {
			m.log.Error("consolidation: deactivation failed",
				zap.Int64("user_id", userID), zap.Strings("memory_ids", absorbed), zap.Error(err))
			continue
		}
		merged++
	}

	if merged > 0 {
		m.log.Info("consolidated memories", zap.Int64("user_id", userID), zap.Int("groups", merged))
	}
	return merged, nil
}

func similarMemories(a, b *model.SemanticMemory) bool {
	shared := 0
	set := make(map[string]bool, len(a.SemanticTags))
	for _, t := range a.SemanticTags {
		set[t] = true
	}
	for _, t := range b.SemanticTags {
		if set[t] {
			shared++
		}
	}
	if shared >= 2 {
		return true
	}
	return prefixContained(a.Content, b.Content) || prefixContained(b.Content, a.Content)
}

func prefixContained(a, b string) bool {
	prefix := a
	if len(prefix) > similarityPrefix {
		prefix = prefix[:similarityPrefix]
	}
	return prefix != "" && strings.Contains(b, prefix)
}

// OptimizeReport summarizes connection maintenance candidates.
type OptimizeReport struct {
	Total               int `json:"total"`
	PruneCandidates     int `json:"prune_candidates"`
	ReinforceCandidates int `json:"reinforce_candidates"`
}

// OptimizeMemoryConnections surveys the user's edges: strength below 0.3
// marks a prune candidate, 0.7 and above a reinforcement candidate. Counting
// only; whether to actually prune is an operator decision.
func (m *Manager) OptimizeMemoryConnections(ctx context.Context, userID int64) (*OptimizeReport, error) {
	connections, err := m.store.ConnectionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := &OptimizeReport{Total: len(connections)}
	for _, c := range connections {
		switch {
		case c.Strength < 0.3:
			report.PruneCandidates++
		case c.Strength >= 0.7:
			report.ReinforceCandidates++
		}
	}
	m.log.Info("connection optimization survey",
		zap.Int64("user_id", userID),
		zap.Int("total", report.Total),
		zap.Int("prune_candidates", report.PruneCandidates),
		zap.Int("reinforce_candidates", report.ReinforceCandidates))
	return report, nil
}
