package graph

import (
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/textscan"
)

// Scorer computes a connection type and strength for a candidate pair.
// The default is lexical; an embedding-based scorer can be swapped in
// without changing the service contract.
type Scorer func(src, cand *model.SemanticMemory) (string, float64)

const suggestThreshold = 0.3

// LexicalScore is the default pair scorer. Bonuses are additive and the
// result is clamped to [0, 1].
func LexicalScore(src, cand *model.SemanticMemory) (string, float64) {
	strength := 0.0

	strength += 0.2 * float64(sharedCount(src.SemanticTags, cand.SemanticTags))
	strength += 0.15 * float64(sharedCount(src.RelatedTopics, cand.RelatedTopics))

	if src.EmotionalContext != "" && src.EmotionalContext == cand.EmotionalContext {
		strength += 0.1
	}

	overlap := 0.05 * float64(textscan.SharedWords(src.Content, cand.Content))
	if overlap > 0.3 {
		overlap = 0.3
	}
	strength += overlap

	connectionType := model.RelRelatesTo
	switch {
	case src.MemoryType == model.TypeGoal && cand.MemoryType == model.TypeInsight:
		connectionType = model.RelBuildsOn
		strength += 0.1
	case src.MemoryType == model.TypePattern && cand.MemoryType == model.TypeInsight:
		connectionType = model.RelResolves
		strength += 0.1
	}

	// Temporal proximity.
	sy, sm, sd := src.CreatedAt.Date()
	cy, cm, cd := cand.CreatedAt.Date()
	if sy == cy && sm == cm && sd == cd {
		strength += 0.1
	} else {
		diff := src.CreatedAt.Sub(cand.CreatedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= 7*24*time.Hour {
			strength += 0.05
		}
	}

	if strength > 1 {
		strength = 1
	}
	if strength < 0 {
		strength = 0
	}
	return connectionType, strength
}

func sharedCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	n := 0
	for _, s := range b {
		if set[s] {
			n++
		}
	}
	return n
}
