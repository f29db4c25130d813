package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thefailures/jarvis/internal/types"
)

// EntryType identifies what kind of journal entry this is
type EntryType string

const (
	EntryRecorded   EntryType = "recorded"   // Turn appended to the stores
	EntryRemembered EntryType = "remembered" // Profile absorbed a message
	EntryForgotten  EntryType = "forgotten"  // Profile dropped a message
	EntryContext    EntryType = "context"    // Context assembled for a query
)

// Entry represents a single journal entry
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      EntryType      `json:"type"`
	Summary   string         `json:"summary,omitempty"` // Brief description
	Context   string         `json:"context,omitempty"` // What prompted this
	Outcome   string         `json:"outcome,omitempty"` // What resulted
	Data      map[string]any `json:"data,omitempty"`    // Flexible extra data
}

// Journal writes observability entries to journal.jsonl in the state
// directory
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal writer
func New(statePath string) *Journal {
	return &Journal{
		path: filepath.Join(statePath, "journal.jsonl"),
	}
}

// Log writes an entry to the journal
func (j *Journal) Log(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LogRecorded logs a turn appended to the vector store and message log
func (j *Journal) LogRecorded(role types.Role, text string, id int) {
	j.Log(Entry{
		Type:    EntryRecorded,
		Summary: text,
		Context: string(role),
		Data:    map[string]any{"id": id},
	})
}

// LogRemembered logs a message absorbed into the user profile
func (j *Journal) LogRemembered(text string, category types.Category, confidence float64) {
	j.Log(Entry{
		Type:    EntryRemembered,
		Summary: text,
		Outcome: string(category),
		Data:    map[string]any{"confidence": confidence},
	})
}

// LogForgotten logs a message removed from the user profile
func (j *Journal) LogForgotten(text string) {
	j.Log(Entry{
		Type:    EntryForgotten,
		Summary: text,
	})
}

// LogContext logs a context assembly for a query
func (j *Journal) LogContext(query string, chars int) {
	j.Log(Entry{
		Type:    EntryContext,
		Context: query,
		Data:    map[string]any{"chars": chars},
	})
}

// Recent returns the last n entries from the journal
func (j *Journal) Recent(n int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	lines := splitLines(data)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}

	if n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Today returns entries from today
func (j *Journal) Today() ([]Entry, error) {
	entries, err := j.Recent(1000) // reasonable limit
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var todayEntries []Entry
	for _, e := range entries {
		if e.Timestamp.After(today) || e.Timestamp.Equal(today) {
			todayEntries = append(todayEntries, e)
		}
	}
	return todayEntries, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
