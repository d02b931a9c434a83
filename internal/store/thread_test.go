package store

import (
	"context"
	"testing"
)

func seedSession(t *testing.T, s *SQLiteStore) string {
	t.Helper()
	session, err := s.CreateSession(context.Background(), CreateSessionParams{UserID: 1})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session.ID
}

func TestCreateThreadDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sessionID := seedSession(t, s)

	thread, err := s.CreateThread(ctx, CreateThreadParams{
		SessionID: sessionID, Topic: "work boundaries",
	})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if thread.ThreadType != "main" {
		t.Errorf("expected default type main, got %q", thread.ThreadType)
	}
	if thread.IsResolved {
		t.Error("new thread should be unresolved")
	}
}

func TestThreadIntensityClamped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sessionID := seedSession(t, s)

	thread, _ := s.CreateThread(ctx, CreateThreadParams{
		SessionID: sessionID, Topic: "overflow", EmotionalIntensity: 150,
	})
	if thread.EmotionalIntensity != 100 {
		t.Errorf("expected intensity clamped to 100, got %d", thread.EmotionalIntensity)
	}
}

func TestActiveThreadsUnresolvedOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sessionID := seedSession(t, s)

	open, _ := s.CreateThread(ctx, CreateThreadParams{SessionID: sessionID, Topic: "open"})
	done, _ := s.CreateThread(ctx, CreateThreadParams{SessionID: sessionID, Topic: "done"})
	s.ResolveThread(ctx, done.ID, "")

	threads, err := s.ActiveThreads(ctx, sessionID)
	if err != nil {
		t.Fatalf("active threads: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != open.ID {
		t.Errorf("expected only the open thread, got %v", threads)
	}
}

func TestResolveThreadAppendsInsight(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sessionID := seedSession(t, s)

	thread, _ := s.CreateThread(ctx, CreateThreadParams{SessionID: sessionID, Topic: "anger"})

	if err := s.ResolveThread(ctx, thread.ID, "named the trigger"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	row := s.db.QueryRow(`SELECT `+threadCols+` FROM threads WHERE id = ?`, thread.ID)
	got, err := scanThread(row)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !got.IsResolved {
		t.Error("expected thread resolved")
	}
	if len(got.Insights) != 1 || got.Insights[0] != "named the trigger" {
		t.Errorf("expected appended insight, got %v", got.Insights)
	}
}

func TestResolveThreadNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.ResolveThread(ctx, "missing", "x"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
