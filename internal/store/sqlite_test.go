package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateMemoryDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, err := s.CreateMemory(ctx, CreateMemoryParams{
		UserID: 1, Content: "feeling better about work",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if mem.MemoryType != "conversation" {
		t.Errorf("expected default type conversation, got %q", mem.MemoryType)
	}
	if mem.Confidence != 0.80 {
		t.Errorf("expected default confidence 0.80, got %v", mem.Confidence)
	}
	if mem.AccessCount != 0 {
		t.Errorf("expected access count 0, got %d", mem.AccessCount)
	}
	if !mem.IsActiveMemory {
		t.Error("expected new memory to be active")
	}
	if mem.ID == "" {
		t.Error("expected non-empty ID")
	}
}

func TestCreateMemoryValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateMemory(ctx, CreateMemoryParams{Content: "no user"}); err == nil {
		t.Error("expected error for missing user id")
	}
	if _, err := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1}); err == nil {
		t.Error("expected error for missing content")
	}
	if _, err := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "x", MemoryType: "bogus"}); err == nil {
		t.Error("expected error for invalid memory type")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateMemory(ctx, CreateMemoryParams{
		UserID:       7,
		MemoryType:   "insight",
		Content:      "I finally understand my stress triggers",
		SemanticTags: []string{"insight", "stress"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	recent, err := s.RecentMemories(ctx, 7, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(recent))
	}
	got := recent[0]
	if got.Content != created.Content {
		t.Errorf("content mismatch: %q", got.Content)
	}
	if got.MemoryType != "insight" {
		t.Errorf("type mismatch: %q", got.MemoryType)
	}
	if len(got.SemanticTags) != 2 || got.SemanticTags[0] != "insight" || got.SemanticTags[1] != "stress" {
		t.Errorf("tags mismatch: %v", got.SemanticTags)
	}
}

func TestTouchMemoriesIncrementsOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "anchor memory"})

	if err := s.TouchMemories(ctx, []string{mem.ID}); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ := s.GetMemory(ctx, mem.ID)
	if got.AccessCount != 1 {
		t.Errorf("expected access count 1, got %d", got.AccessCount)
	}
	if got.LastAccessedAt == nil {
		t.Error("expected last accessed timestamp to be set")
	}

	s.TouchMemories(ctx, []string{mem.ID})
	got, _ = s.GetMemory(ctx, mem.ID)
	if got.AccessCount != 2 {
		t.Errorf("expected access count 2, got %d", got.AccessCount)
	}
}

func TestUpdateMemoryRefreshesAccessTime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "before"})
	content := "after"
	updated, err := s.UpdateMemory(ctx, mem.ID, UpdateMemoryParams{Content: &content})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "after" {
		t.Errorf("expected updated content, got %q", updated.Content)
	}
	if updated.LastAccessedAt == nil {
		t.Error("expected last accessed timestamp after update")
	}

	if _, err := s.UpdateMemory(ctx, "missing", UpdateMemoryParams{Content: &content}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivatedMemoriesExcluded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "to retire"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "to keep"})

	if err := s.DeactivateMemories(ctx, 1, []string{mem.ID}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	recent, _ := s.RecentMemories(ctx, 1, 10)
	if len(recent) != 1 {
		t.Fatalf("expected 1 active memory, got %d", len(recent))
	}
	if recent[0].Content != "to keep" {
		t.Errorf("wrong survivor: %q", recent[0].Content)
	}

	// Still on disk for audit.
	got, err := s.GetMemory(ctx, mem.ID)
	if err != nil {
		t.Fatalf("get deactivated: %v", err)
	}
	if got.IsActiveMemory {
		t.Error("expected memory to be inactive")
	}
}

func TestSearchMemories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "argument with my sister"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "good day at the office", EmotionalContext: "calm"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 2, Content: "sister visit planned"})

	results, err := s.SearchMemories(ctx, SearchMemoryParams{UserID: 1, Terms: []string{"sister"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].UserID != 1 {
		t.Error("search leaked another user's memory")
	}

	// Emotional context is searched too.
	results, _ = s.SearchMemories(ctx, SearchMemoryParams{UserID: 1, Terms: []string{"calm"}})
	if len(results) != 1 {
		t.Fatalf("expected 1 emotional-context match, got %d", len(results))
	}
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "gave 50% effort today"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "gave 50x effort today"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "mentioned file_name in passing"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "mentioned filename in passing"})

	results, err := s.SearchMemories(ctx, SearchMemoryParams{UserID: 1, Terms: []string{"50%"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Content != "gave 50% effort today" {
		t.Errorf("expected %% to match literally, got %v", results)
	}

	results, _ = s.SearchMemories(ctx, SearchMemoryParams{UserID: 1, Terms: []string{"file_"}})
	if len(results) != 1 || results[0].Content != "mentioned file_name in passing" {
		t.Errorf("expected _ to match literally, got %v", results)
	}
}

func TestRelatedMemories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	src, _ := s.CreateMemory(ctx, CreateMemoryParams{
		UserID: 1, Content: "work stress", SemanticTags: []string{"stress"}, RelatedTopics: []string{"work"},
	})
	s.CreateMemory(ctx, CreateMemoryParams{
		UserID: 1, Content: "deadline pressure", SemanticTags: []string{"stress"},
	})
	s.CreateMemory(ctx, CreateMemoryParams{
		UserID: 1, Content: "weekend hike", SemanticTags: []string{"calm"},
	})
	s.CreateMemory(ctx, CreateMemoryParams{
		UserID: 2, Content: "other user stress", SemanticTags: []string{"stress"},
	})

	related, err := s.RelatedMemories(ctx, src, 10)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("expected 1 related memory, got %d", len(related))
	}
	if related[0].Content != "deadline pressure" {
		t.Errorf("wrong related memory: %q", related[0].Content)
	}
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "mine"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 2, Content: "theirs"})

	for _, userID := range []int64{1, 2} {
		memories, _ := s.RecentMemories(ctx, userID, 10)
		for _, m := range memories {
			if m.UserID != userID {
				t.Fatalf("user %d query returned memory owned by %d", userID, m.UserID)
			}
		}
		if len(memories) != 1 {
			t.Errorf("user %d: expected 1 memory, got %d", userID, len(memories))
		}
	}
}

func TestMemoriesByType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "a goal", MemoryType: "goal"})
	s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "chit chat"})

	goals, err := s.MemoriesByType(ctx, 1, "goal")
	if err != nil {
		t.Fatalf("by type: %v", err)
	}
	if len(goals) != 1 || goals[0].MemoryType != "goal" {
		t.Errorf("expected 1 goal memory, got %v", goals)
	}
}
