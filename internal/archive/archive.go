package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/thefailures/jarvis/internal/types"
)

// Archive mirrors the message log into sqlite for offline inspection. The
// JSON stores remain authoritative: the archive is a best-effort side effect
// and may lag or be rebuilt at any time.
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive database
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &Archive{db: db, path: path}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			is_search INTEGER NOT NULL DEFAULT 0,
			tags TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role);
	`)
	return err
}

// Mirror upserts one message
func (a *Archive) Mirror(msg types.Message) error {
	isSearch := 0
	if msg.IsSearch {
		isSearch = 1
	}
	_, err := a.db.Exec(
		`INSERT OR REPLACE INTO messages (id, role, message, timestamp, is_search, tags) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, string(msg.Role), msg.Text, msg.Timestamp, isSearch, strings.Join(msg.Tags, ","),
	)
	return err
}

// Rebuild replaces the archive contents with the given messages
func (a *Archive) Rebuild(msgs []types.Message) error {
	if _, err := a.db.Exec(`DELETE FROM messages`); err != nil {
		return err
	}
	for _, m := range msgs {
		if err := a.Mirror(m); err != nil {
			return err
		}
	}
	return nil
}

// Search finds messages containing the query substring, newest first
func (a *Archive) Search(query string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Query(
		`SELECT id, role, message, timestamp, is_search, tags
		 FROM messages WHERE message LIKE ? ORDER BY id DESC LIMIT ?`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Message
	for rows.Next() {
		var (
			msg      types.Message
			role     string
			isSearch int
			tags     string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &msg.Timestamp, &isSearch, &tags); err != nil {
			return nil, err
		}
		// Rows written by other tools may carry arbitrary role strings
		msg.Role, _ = types.ParseRole(role)
		msg.IsSearch = isSearch != 0
		if tags != "" {
			msg.Tags = strings.Split(tags, ",")
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Counts returns the message count per role
func (a *Archive) Counts() (map[types.Role]int, error) {
	rows, err := a.db.Query(`SELECT role, COUNT(*) FROM messages GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[types.Role(role)] = n
	}
	return counts, rows.Err()
}

// Close releases the database handle
func (a *Archive) Close() error {
	return a.db.Close()
}
