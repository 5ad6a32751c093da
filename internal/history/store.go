package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT NOT NULL,
	role TEXT NOT NULL,
	agent TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_turns_thread ON turns(thread_id, id);
`

// Store persists finished conversation turns per thread.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTurn records one finished turn.
func (s *Store) AppendTurn(threadID, role, agent, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (thread_id, role, agent, content) VALUES (?, ?, ?, ?)`,
		threadID, role, agent, content,
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Turns returns up to limit most recent turns for a thread, oldest first.
// limit <= 0 returns all turns.
func (s *Store) Turns(threadID string, limit int) ([]Turn, error) {
	query := `SELECT role, content FROM turns WHERE thread_id = ? ORDER BY id`
	args := []any{threadID}
	if limit > 0 {
		query = `SELECT role, content FROM (
			SELECT id, role, content FROM turns WHERE thread_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ThreadInfo summarizes one stored thread.
type ThreadInfo struct {
	ThreadID  string
	Turns     int
	UpdatedAt time.Time
}

// Threads lists stored threads, most recently active first.
func (s *Store) Threads() ([]ThreadInfo, error) {
	rows, err := s.db.Query(`
		SELECT thread_id, COUNT(*), MAX(created_at)
		FROM turns GROUP BY thread_id ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var infos []ThreadInfo
	for rows.Next() {
		var info ThreadInfo
		var updated string
		if err := rows.Scan(&info.ThreadID, &info.Turns, &updated); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		info.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
