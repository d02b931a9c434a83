// Package graph materializes and traverses the weighted connection graph
// between a user's memories. Edges are stored directed but traversed as
// undirected; the connection type keeps its directional meaning.
package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/model"
	"github.com/mindhaven/therapy-memory/internal/store"
)

const (
	suggestCandidates = 50
	maxPathEdges      = 3
	maxPaths          = 5
)

// Service is the memory connection service.
type Service struct {
	store store.Store
	score Scorer
	log   *zap.Logger
}

// NewService creates the service with the default lexical scorer.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, score: LexicalScore, log: logger}
}

// WithScorer replaces the pair scorer. Used to swap in alternative
// similarity implementations behind the same contract.
func (s *Service) WithScorer(score Scorer) *Service {
	s.score = score
	return s
}

// CreateConnection inserts an edge with defaults relates_to / 0.50 /
// automatic=true. A duplicate automatic edge for the pair is a successful
// no-op returning the nil connection.
func (s *Service) CreateConnection(ctx context.Context, p store.CreateConnectionParams) (*model.MemoryConnection, error) {
	conn, created, err := s.store.CreateConnection(ctx, p)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	return conn, nil
}

// ConnectionsFor returns every edge where the memory is either endpoint,
// strongest first.
func (s *Service) ConnectionsFor(ctx context.Context, memoryID string) ([]model.MemoryConnection, error) {
	return s.store.ConnectionsFor(ctx, memoryID)
}

// SuggestConnections scores the memory against the user's 50 most recent
// active memories and materializes edges scoring above the threshold.
// Pairs already connected (in either direction, manual edges included) are
// skipped, which makes repeated calls against an unchanged candidate set
// idempotent. Returns the newly created edges only.
func (s *Service) SuggestConnections(ctx context.Context, memoryID string) ([]model.MemoryConnection, error) {
	src, err := s.store.GetMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.RecentMemories(ctx, src.UserID, suggestCandidates)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ConnectionsFor(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	connected := make(map[string]bool, len(existing))
	for _, c := range existing {
		connected[c.FromMemoryID] = true
		connected[c.ToMemoryID] = true
	}

	var created []model.MemoryConnection
	for i := range candidates {
		cand := &candidates[i]
		if cand.ID == src.ID || connected[cand.ID] {
			continue
		}
		connectionType, strength := s.score(src, cand)
		if strength <= suggestThreshold {
			continue
		}
		conn, ok, err := s.store.CreateConnection(ctx, store.CreateConnectionParams{
			UserID:         src.UserID,
			FromMemoryID:   src.ID,
			ToMemoryID:     cand.ID,
			ConnectionType: connectionType,
			Strength:       strength,
		})
		if err != nil {
			s.log.Warn("suggest connection failed",
				zap.String("from", src.ID), zap.String("to", cand.ID), zap.Error(err))
			continue
		}
		if !ok {
			// Already connected; a race here is benign.
			continue
		}
		created = append(created, *conn)
	}
	return created, nil
}

// MemoryGraph is a user's active memories with the edges between them.
type MemoryGraph struct {
	Memories    []model.SemanticMemory   `json:"memories"`
	Connections []model.MemoryConnection `json:"connections"`
}

// Graph returns all active memories for the user plus every connection whose
// endpoints are both in that set. Stored user_id on the edge is not trusted
// alone; both endpoints must resolve.
func (s *Service) Graph(ctx context.Context, userID int64) (*MemoryGraph, error) {
	memories, err := s.store.ActiveMemories(ctx, userID)
	if err != nil {
		return nil, err
	}
	connections, err := s.store.ConnectionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(memories))
	for _, m := range memories {
		owned[m.ID] = true
	}
	var filtered []model.MemoryConnection
	for _, c := range connections {
		if owned[c.FromMemoryID] && owned[c.ToMemoryID] {
			filtered = append(filtered, c)
		}
	}

	return &MemoryGraph{Memories: memories, Connections: filtered}, nil
}

// FindPaths runs a breadth-first search from one memory to another over the
// undirected adjacency implied by the user's connections. Paths are capped
// at three edges, five results; a visited set prevents cycles.
func (s *Service) FindPaths(ctx context.Context, fromID, toID string) ([][]model.MemoryConnection, error) {
	src, err := s.store.GetMemory(ctx, fromID)
	if err != nil {
		return nil, err
	}
	connections, err := s.store.ConnectionsByUser(ctx, src.UserID)
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]model.MemoryConnection)
	for _, c := range connections {
		adjacency[c.FromMemoryID] = append(adjacency[c.FromMemoryID], c)
		adjacency[c.ToMemoryID] = append(adjacency[c.ToMemoryID], c)
	}

	type state struct {
		node string
		path []model.MemoryConnection
	}

	var paths [][]model.MemoryConnection
	visited := map[string]bool{fromID: true}
	queue := []state{{node: fromID}}

	for len(queue) > 0 && len(paths) < maxPaths {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path) >= maxPathEdges {
			continue
		}
		for _, edge := range adjacency[cur.node] {
			next := edge.ToMemoryID
			if next == cur.node {
				next = edge.FromMemoryID
			}
			if visited[next] {
				continue
			}
			path := append(append([]model.MemoryConnection{}, cur.path...), edge)
			if next == toID {
				paths = append(paths, path)
				if len(paths) >= maxPaths {
					break
				}
				continue
			}
			visited[next] = true
			queue = append(queue, state{node: next, path: path})
		}
	}

	return paths, nil
}

// StrongestConnections returns the user's top edges by strength.
func (s *Service) StrongestConnections(ctx context.Context, userID int64, limit int) ([]model.MemoryConnection, error) {
	return s.store.StrongestConnections(ctx, userID, limit)
}
