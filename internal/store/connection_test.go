package store

import (
	"context"
	"testing"
)

func seedPair(t *testing.T, s *SQLiteStore, userID int64) (string, string) {
	t.Helper()
	ctx := context.Background()
	a, err := s.CreateMemory(ctx, CreateMemoryParams{UserID: userID, Content: "memory a"})
	if err != nil {
		t.Fatalf("seed a: %v", err)
	}
	b, err := s.CreateMemory(ctx, CreateMemoryParams{UserID: userID, Content: "memory b"})
	if err != nil {
		t.Fatalf("seed b: %v", err)
	}
	return a.ID, b.ID
}

func TestCreateConnectionDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := seedPair(t, s, 1)

	conn, created, err := s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b,
	})
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	if !created {
		t.Fatal("expected connection to be created")
	}
	if conn.ConnectionType != "relates_to" {
		t.Errorf("expected default type relates_to, got %q", conn.ConnectionType)
	}
	if conn.Strength != 0.50 {
		t.Errorf("expected default strength 0.50, got %v", conn.Strength)
	}
	if !conn.AutomaticConnection {
		t.Error("expected connections to default to automatic")
	}
}

func TestManualConnectionOptOut(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := seedPair(t, s, 1)

	conn, created, err := s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b, Manual: true,
	})
	if err != nil || !created {
		t.Fatalf("create manual connection: created=%v err=%v", created, err)
	}
	if conn.AutomaticConnection {
		t.Error("manual connection must not be flagged automatic")
	}
}

func TestDuplicateAutomaticConnectionIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := seedPair(t, s, 1)

	_, created, err := s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b,
	})
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	// Same pair, same direction.
	_, created, err = s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b,
	})
	if err != nil {
		t.Fatalf("duplicate create errored: %v", err)
	}
	if created {
		t.Error("duplicate connection should not be created")
	}

	// Same pair, reversed direction.
	_, created, err = s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: b, ToMemoryID: a,
	})
	if err != nil {
		t.Fatalf("reversed duplicate errored: %v", err)
	}
	if created {
		t.Error("reversed duplicate connection should not be created")
	}

	connections, _ := s.ConnectionsFor(ctx, a)
	if len(connections) != 1 {
		t.Errorf("expected exactly 1 edge, got %d", len(connections))
	}
}

func TestConnectionRejectsCrossUserEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _ := seedPair(t, s, 1)
	other, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 2, Content: "not yours"})

	_, _, err := s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: other.ID,
	})
	if err == nil {
		t.Error("expected error connecting memories of different users")
	}
}

func TestConnectionsForOrderedByStrength(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := seedPair(t, s, 1)
	c, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "memory c"})

	s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b, Strength: 0.4,
	})
	s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: c.ID, ToMemoryID: a, Strength: 0.9,
	})

	connections, err := s.ConnectionsFor(ctx, a)
	if err != nil {
		t.Fatalf("connections for: %v", err)
	}
	if len(connections) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(connections))
	}
	if connections[0].Strength < connections[1].Strength {
		t.Error("expected strongest edge first")
	}
}

func TestStrongestConnectionsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := seedPair(t, s, 1)
	c, _ := s.CreateMemory(ctx, CreateMemoryParams{UserID: 1, Content: "memory c"})

	s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: b, Strength: 0.3,
	})
	s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: b, ToMemoryID: c.ID, Strength: 0.8,
	})

	top, err := s.StrongestConnections(ctx, 1, 1)
	if err != nil {
		t.Fatalf("strongest: %v", err)
	}
	if len(top) != 1 || top[0].Strength != 0.8 {
		t.Errorf("expected single strongest edge, got %v", top)
	}
}

func TestSelfConnectionRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _ := seedPair(t, s, 1)

	_, _, err := s.CreateConnection(ctx, CreateConnectionParams{
		UserID: 1, FromMemoryID: a, ToMemoryID: a,
	})
	if err == nil {
		t.Error("expected error for self connection")
	}
}
