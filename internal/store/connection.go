package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindhaven/therapy-memory/internal/model"
)

// CreateConnection inserts an edge. For automatic connections a partial
// unique index on the unordered (user, pair) tuple guards against duplicate
// edges regardless of direction; hitting it is reported as created=false,
// not an error.
func (s *SQLiteStore) CreateConnection(ctx context.Context, p CreateConnectionParams) (*model.MemoryConnection, bool, error) {
	if p.FromMemoryID == "" || p.ToMemoryID == "" {
		return nil, false, errors.New("both memory ids are required")
	}
	if p.FromMemoryID == p.ToMemoryID {
		return nil, false, errors.New("cannot connect a memory to itself")
	}

	connectionType := p.ConnectionType
	if connectionType == "" {
		connectionType = model.RelRelatesTo
	}
	if !model.ValidConnectionTypes[connectionType] {
		return nil, false, fmt.Errorf("invalid connection type %q", connectionType)
	}
	strength := p.Strength
	if strength == 0 {
		strength = 0.50
	}

	// Both endpoints must exist and belong to the same user.
	for _, id := range []string{p.FromMemoryID, p.ToMemoryID} {
		m, err := s.GetMemory(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("resolve endpoint %s: %w", id, err)
		}
		if m.UserID != p.UserID {
			return nil, false, fmt.Errorf("memory %s does not belong to user %d", id, p.UserID)
		}
	}

	automatic := !p.Manual

	pairLo, pairHi := p.FromMemoryID, p.ToMemoryID
	if pairHi < pairLo {
		pairLo, pairHi = pairHi, pairLo
	}

	now := time.Now().UTC()
	id := s.newID()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_connections
		 (id, user_id, from_memory_id, to_memory_id, connection_type, strength, automatic, pair_lo, pair_hi, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		id, p.UserID, p.FromMemoryID, p.ToMemoryID, connectionType, strength,
		boolToInt(automatic), pairLo, pairHi, now.Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("insert connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Edge already exists between this pair.
		return nil, false, nil
	}

	return &model.MemoryConnection{
		ID:                  id,
		UserID:              p.UserID,
		FromMemoryID:        p.FromMemoryID,
		ToMemoryID:          p.ToMemoryID,
		ConnectionType:      connectionType,
		Strength:            strength,
		AutomaticConnection: automatic,
		CreatedAt:           now,
	}, true, nil
}

// ConnectionsFor returns all edges touching the memory on either end,
// strongest first.
func (s *SQLiteStore) ConnectionsFor(ctx context.Context, memoryID string) ([]model.MemoryConnection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionCols+` FROM memory_connections
		 WHERE from_memory_id = ? OR to_memory_id = ?
		 ORDER BY strength DESC, created_at DESC`, memoryID, memoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConnections(rows)
}

func (s *SQLiteStore) ConnectionsByUser(ctx context.Context, userID int64) ([]model.MemoryConnection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionCols+` FROM memory_connections
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConnections(rows)
}

func (s *SQLiteStore) StrongestConnections(ctx context.Context, userID int64, limit int) ([]model.MemoryConnection, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionCols+` FROM memory_connections
		 WHERE user_id = ? ORDER BY strength DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConnections(rows)
}

func collectConnections(rows *sql.Rows) ([]model.MemoryConnection, error) {
	var connections []model.MemoryConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}
