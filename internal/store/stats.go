package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath            string      `json:"db_path"`
	DBSizeBytes       int64       `json:"db_size_bytes"`
	TotalMemories     int         `json:"total_memories"`
	ActiveMemories    int         `json:"active_memories"`
	TotalConnections  int         `json:"total_connections"`
	TotalSessions     int         `json:"total_sessions"`
	ActiveSessions    int         `json:"active_sessions"`
	UnresolvedThreads int         `json:"unresolved_threads"`
	Users             []UserStats `json:"users,omitempty"`
}

// UserStats holds per-user entity counts.
type UserStats struct {
	UserID      int64 `json:"user_id"`
	Memories    int   `json:"memories"`
	Connections int   `json:"connections"`
	Sessions    int   `json:"sessions"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE is_active = 1`).Scan(&st.ActiveMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_connections`).Scan(&st.TotalConnections)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.TotalSessions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE is_active = 1`).Scan(&st.ActiveSessions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads WHERE is_resolved = 0`).Scan(&st.UnresolvedThreads)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.user_id,
		       COUNT(*),
		       (SELECT COUNT(*) FROM memory_connections c WHERE c.user_id = m.user_id),
		       (SELECT COUNT(*) FROM sessions s WHERE s.user_id = m.user_id)
		FROM memories m WHERE m.is_active = 1
		GROUP BY m.user_id ORDER BY COUNT(*) DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserStats
		rows.Scan(&u.UserID, &u.Memories, &u.Connections, &u.Sessions)
		st.Users = append(st.Users, u)
	}

	return st, nil
}
