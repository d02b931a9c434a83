package store

import (
	"context"

	"github.com/mindhaven/therapy-memory/internal/model"
)

// UserExport is a full audit dump of one user's therapeutic record,
// including deactivated memories and closed sessions.
type UserExport struct {
	UserID      int64                       `json:"user_id"`
	Memories    []model.SemanticMemory      `json:"memories"`
	Connections []model.MemoryConnection    `json:"connections"`
	Sessions    []model.ConversationSession `json:"sessions"`
	Threads     []model.ConversationThread  `json:"threads"`
}

// ExportUser returns everything stored for a user. Inactive rows are
// included; the audit trail is the point.
func (s *SQLiteStore) ExportUser(ctx context.Context, userID int64) (*UserExport, error) {
	export := &UserExport{UserID: userID}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	export.Memories, err = collectMemories(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT `+connectionCols+` FROM memory_connections WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	export.Connections, err = collectConnections(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		c, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		export.Sessions = append(export.Sessions, c)
	}
	rows.Close()

	for _, sess := range export.Sessions {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+threadCols+` FROM threads WHERE session_id = ? ORDER BY created_at, id`, sess.ID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			t, err := scanThread(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			export.Threads = append(export.Threads, t)
		}
		rows.Close()
	}

	return export, nil
}
