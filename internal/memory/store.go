// Package memory keeps the per-session conversation log in SQLite.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"askfolio/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
  turn_id    TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  question   TEXT NOT NULL,
  answer     TEXT NOT NULL,
  topic      TEXT NOT NULL,
  provider   TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_session_idx ON turns(session_id, created_at);
`

type Store struct {
	conn *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping memory db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init memory schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Append stores t, filling TurnID and CreatedAt when unset.
func (s *Store) Append(ctx context.Context, t models.Turn) error {
	if t.SessionID == "" {
		return fmt.Errorf("append turn: session id is required")
	}
	if t.TurnID == "" {
		t.TurnID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO turns(turn_id, session_id, question, answer, topic, provider, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TurnID, t.SessionID, t.Question, t.Answer, string(t.Topic), t.Provider, t.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// Recent returns up to n of the session's latest turns, oldest first.
// n <= 0 returns the whole session.
func (s *Store) Recent(ctx context.Context, sessionID string, n int) ([]models.Turn, error) {
	limit := n
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx, `
SELECT turn_id, session_id, question, answer, topic, provider, created_at
FROM turns
WHERE session_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()
	var out []models.Turn
	for rows.Next() {
		var (
			t     models.Turn
			topic string
			ts    int64
		)
		if err := rows.Scan(&t.TurnID, &t.SessionID, &t.Question, &t.Answer, &topic, &t.Provider, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Topic = models.Topic(topic)
		t.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
