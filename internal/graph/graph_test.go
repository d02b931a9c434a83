package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(s, nil), s
}

func seedMemory(t *testing.T, s *store.SQLiteStore, userID int64, content string, tags []string) *model.SemanticMemory {
	t.Helper()
	mem, err := s.CreateMemory(context.Background(), store.CreateMemoryParams{
		UserID: userID, Content: content, SemanticTags: tags,
	})
	if err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	return mem
}

func TestSuggestConnectionsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	src := seedMemory(t, s, 1, "boundaries at work", []string{"work", "stress", "anxious"})
	seedMemory(t, s, 1, "deadlines again", []string{"work", "stress", "anxious"})
	seedMemory(t, s, 1, "unrelated gardening note", nil)

	first, err := svc.SuggestConnections(ctx, src.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 suggested edge, got %d", len(first))
	}

	second, err := svc.SuggestConnections(ctx, src.ID)
	if err != nil {
		t.Fatalf("second suggest: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("expected no new edges on repeat, got %d", len(second))
	}

	edges, _ := s.ConnectionsByUser(ctx, 1)
	if len(edges) != 1 {
		t.Errorf("expected exactly 1 stored edge, got %d", len(edges))
	}
	if !edges[0].AutomaticConnection {
		t.Error("suggested edge should be marked automatic")
	}
}

func TestSuggestConnectionsSkipsManuallyConnectedPairs(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	src := seedMemory(t, s, 1, "boundaries at work", []string{"work", "stress", "anxious"})
	cand := seedMemory(t, s, 1, "deadlines again", []string{"work", "stress", "anxious"})

	// A manual edge is not covered by the pair index; the suggest path must
	// still treat the pair as connected.
	_, _, err := s.CreateConnection(ctx, store.CreateConnectionParams{
		UserID: 1, FromMemoryID: cand.ID, ToMemoryID: src.ID, Manual: true,
	})
	if err != nil {
		t.Fatalf("manual edge: %v", err)
	}

	created, err := svc.SuggestConnections(ctx, src.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("expected no edges for an already-connected pair, got %d", len(created))
	}
	edges, _ := s.ConnectionsByUser(ctx, 1)
	if len(edges) != 1 {
		t.Errorf("expected only the manual edge, got %d", len(edges))
	}
}

func TestSuggestConnectionsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	src := seedMemory(t, s, 1, "alpha", nil)
	seedMemory(t, s, 1, "omega", nil)

	created, err := svc.SuggestConnections(ctx, src.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	// Same-day creation alone scores 0.1, under the threshold.
	if len(created) != 0 {
		t.Errorf("expected no edges for dissimilar memories, got %d", len(created))
	}
}

func connect(t *testing.T, s *store.SQLiteStore, from, to *model.SemanticMemory) {
	t.Helper()
	_, _, err := s.CreateConnection(context.Background(), store.CreateConnectionParams{
		UserID: from.UserID, FromMemoryID: from.ID, ToMemoryID: to.ID,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
}

func TestFindPathsWithinEdgeLimit(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	a := seedMemory(t, s, 1, "a", nil)
	b := seedMemory(t, s, 1, "b", nil)
	c := seedMemory(t, s, 1, "c", nil)
	connect(t, s, a, b)
	connect(t, s, b, c)

	paths, err := svc.FindPaths(ctx, a.ID, c.ID)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if len(paths[0]) != 2 {
		t.Errorf("expected 2-edge path, got %d edges", len(paths[0]))
	}
}

func TestFindPathsNoPathReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	// Chain a-b-c-d-e: reaching e from a needs four edges, one past the cap.
	a := seedMemory(t, s, 1, "a", nil)
	b := seedMemory(t, s, 1, "b", nil)
	c := seedMemory(t, s, 1, "c", nil)
	d := seedMemory(t, s, 1, "d", nil)
	e := seedMemory(t, s, 1, "e", nil)
	connect(t, s, a, b)
	connect(t, s, b, c)
	connect(t, s, c, d)
	connect(t, s, d, e)

	paths, err := svc.FindPaths(ctx, a.ID, e.ID)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths past the edge cap, got %d", len(paths))
	}
}

func TestFindPathsTraversesUndirected(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	a := seedMemory(t, s, 1, "a", nil)
	b := seedMemory(t, s, 1, "b", nil)
	connect(t, s, b, a) // edge points the other way

	paths, err := svc.FindPaths(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected reverse edge to be traversable, got %d paths", len(paths))
	}
}

func TestGraphExcludesDanglingEdges(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	a := seedMemory(t, s, 1, "a", nil)
	b := seedMemory(t, s, 1, "b", nil)
	c := seedMemory(t, s, 1, "c", nil)
	connect(t, s, a, b)
	connect(t, s, b, c)

	if err := s.DeactivateMemories(ctx, 1, []string{c.ID}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	g, err := svc.Graph(ctx, 1)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if len(g.Memories) != 2 {
		t.Errorf("expected 2 active memories, got %d", len(g.Memories))
	}
	if len(g.Connections) != 1 {
		t.Fatalf("expected only the edge between active memories, got %d", len(g.Connections))
	}
	if g.Connections[0].FromMemoryID != a.ID || g.Connections[0].ToMemoryID != b.ID {
		t.Errorf("unexpected surviving edge: %+v", g.Connections[0])
	}
}

func TestCreateConnectionDuplicateIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	a := seedMemory(t, s, 1, "a", nil)
	b := seedMemory(t, s, 1, "b", nil)

	conn, err := svc.CreateConnection(ctx, store.CreateConnectionParams{
		UserID: 1, FromMemoryID: a.ID, ToMemoryID: b.ID,
	})
	if err != nil || conn == nil {
		t.Fatalf("first create: conn=%v err=%v", conn, err)
	}
	if !conn.AutomaticConnection {
		t.Error("expected edges to default to automatic")
	}

	dup, err := svc.CreateConnection(ctx, store.CreateConnectionParams{
		UserID: 1, FromMemoryID: b.ID, ToMemoryID: a.ID,
	})
	if err != nil {
		t.Fatalf("duplicate create should not error: %v", err)
	}
	if dup != nil {
		t.Errorf("expected nil connection for duplicate pair, got %+v", dup)
	}
}
