package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thefailures/jarvis/internal/types"
)

func TestLogAndRecent(t *testing.T) {
	j := New(t.TempDir())

	j.LogRecorded(types.RoleUser, "I love pizza", 0)
	j.LogRemembered("I love pizza", types.CategoryPreference, 0.9)
	j.LogForgotten("I love pizza")
	j.LogContext("dinner ideas?", 512)

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	wantTypes := []EntryType{EntryRecorded, EntryRemembered, EntryForgotten, EntryContext}
	for i, want := range wantTypes {
		if entries[i].Type != want {
			t.Errorf("entry %d type = %q, want %q", i, entries[i].Type, want)
		}
		if entries[i].Timestamp.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}

	if entries[1].Outcome != string(types.CategoryPreference) {
		t.Errorf("remembered outcome = %q", entries[1].Outcome)
	}
	if entries[3].Data["chars"].(float64) != 512 {
		t.Errorf("context data = %v", entries[3].Data)
	}
}

func TestRecentWindow(t *testing.T) {
	j := New(t.TempDir())
	for i := 0; i < 8; i++ {
		j.LogForgotten("entry")
	}

	entries, err := j.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestRecentMissingFile(t *testing.T) {
	j := New(t.TempDir())
	entries, err := j.Recent(5)
	if err != nil {
		t.Fatalf("missing journal should not error: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v", entries)
	}
}

func TestRecentSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	j.LogForgotten("good entry")

	f, err := os.OpenFile(filepath.Join(dir, "journal.jsonl"), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{broken json\n")
	f.Close()
	j.LogForgotten("another good entry")

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2 (malformed line skipped)", len(entries))
	}
}

func TestToday(t *testing.T) {
	j := New(t.TempDir())
	j.Log(Entry{Type: EntryForgotten, Summary: "yesterday", Timestamp: time.Now().Add(-36 * time.Hour)})
	j.LogForgotten("today")

	entries, err := j.Today()
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(entries) != 1 || entries[0].Summary != "today" {
		t.Errorf("entries = %+v", entries)
	}
}
