package graph

import (
	"math"
	"testing"
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
)

func TestLexicalScoreSharedTagsAndSameDay(t *testing.T) {
	now := time.Now()
	src := &model.SemanticMemory{
		SemanticTags: []string{"anxious", "work", "stress"},
		Content:      "alpha",
		CreatedAt:    now,
	}
	cand := &model.SemanticMemory{
		SemanticTags: []string{"anxious", "work", "stress"},
		Content:      "omega",
		CreatedAt:    now,
	}

	connectionType, strength := LexicalScore(src, cand)
	if connectionType != model.RelRelatesTo {
		t.Errorf("expected relates_to, got %q", connectionType)
	}
	// Three shared tags plus the same-day bonus.
	if strength < 0.7 {
		t.Errorf("expected strength >= 0.7, got %v", strength)
	}
}

func TestLexicalScoreClampedToOne(t *testing.T) {
	now := time.Now()
	tags := []string{"a", "b", "c", "d", "e", "f"}
	src := &model.SemanticMemory{
		SemanticTags: tags, RelatedTopics: tags,
		Content: "same same content words everywhere always matching",
		CreatedAt: now, EmotionalContext: "anxious",
	}
	cand := &model.SemanticMemory{
		SemanticTags: tags, RelatedTopics: tags,
		Content: "same same content words everywhere always matching",
		CreatedAt: now, EmotionalContext: "anxious",
	}

	_, strength := LexicalScore(src, cand)
	if strength != 1.0 {
		t.Errorf("expected strength clamped to 1.0, got %v", strength)
	}
}

func TestLexicalScoreTypedEdges(t *testing.T) {
	now := time.Now()
	goal := &model.SemanticMemory{MemoryType: model.TypeGoal, CreatedAt: now, Content: "x"}
	pattern := &model.SemanticMemory{MemoryType: model.TypePattern, CreatedAt: now, Content: "y"}
	insight := &model.SemanticMemory{MemoryType: model.TypeInsight, CreatedAt: now, Content: "z"}

	if typ, _ := LexicalScore(goal, insight); typ != model.RelBuildsOn {
		t.Errorf("goal->insight should be builds_on, got %q", typ)
	}
	if typ, _ := LexicalScore(pattern, insight); typ != model.RelResolves {
		t.Errorf("pattern->insight should be resolves, got %q", typ)
	}
	if typ, _ := LexicalScore(insight, goal); typ != model.RelRelatesTo {
		t.Errorf("insight->goal should stay relates_to, got %q", typ)
	}
}

func TestLexicalScoreWeekProximity(t *testing.T) {
	now := time.Now()
	src := &model.SemanticMemory{Content: "x", CreatedAt: now}
	within := &model.SemanticMemory{Content: "y", CreatedAt: now.AddDate(0, 0, -3)}
	beyond := &model.SemanticMemory{Content: "y", CreatedAt: now.AddDate(0, 0, -30)}

	_, near := LexicalScore(src, within)
	_, far := LexicalScore(src, beyond)
	if math.Abs(near-0.05) > 1e-9 {
		t.Errorf("expected 0.05 within-week bonus, got %v", near)
	}
	if far != 0 {
		t.Errorf("expected no temporal bonus beyond a week, got %v", far)
	}
}

func TestLexicalScoreContentOverlapCapped(t *testing.T) {
	now := time.Now().AddDate(0, 0, -30) // no temporal bonus
	content := "these particular content words overlap heavily between memories tonight"
	src := &model.SemanticMemory{Content: content, CreatedAt: now}
	cand := &model.SemanticMemory{Content: content, CreatedAt: now}

	_, strength := LexicalScore(src, cand)
	// Nine shared words would be 0.45 uncapped; the overlap bonus caps at
	// 0.3, and same-day creation adds 0.1.
	if math.Abs(strength-0.4) > 1e-9 {
		t.Errorf("expected 0.4 (capped overlap plus same-day), got %v", strength)
	}
}
