package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/thefailures/jarvis/internal/archive"
	"github.com/thefailures/jarvis/internal/journal"
	"github.com/thefailures/jarvis/internal/memory"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/types"
)

func main() {
	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "summary":
		handleSummary(statePath)
	case "profile":
		handleProfile(statePath)
	case "messages":
		handleMessages(statePath, os.Args[2:])
	case "search":
		handleSearch(os.Args[2:])
	case "journal":
		handleJournal(statePath, os.Args[2:])
	case "health":
		handleHealth(statePath)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`jarvis-state - inspect jarvis memory state

Usage: jarvis-state <command> [flags]

Commands:
  summary              store sizes at a glance
  profile              dump the user profile
  messages [-n N]      show the last N recorded messages (default 10)
  search -q <text>     search the sqlite archive (needs ARCHIVE_PATH)
  journal [-n N]       show the last N journal entries (default 20)
  journal -today       show only today's journal entries
  health               process and state-file health

Environment:
  STATE_PATH     state directory (default "state")
  ARCHIVE_PATH   sqlite archive path (search command)`)
}

func handleSummary(statePath string) {
	vectors := memory.NewVectorStore(filepath.Join(statePath, "vectors.json"))
	messages := memory.NewMessageLog(filepath.Join(statePath, "messages.json"))
	cache := memory.NewEmbeddingCache(filepath.Join(statePath, "embedding_cache.json"))
	prof := profile.NewStore(filepath.Join(statePath, "user_profile.json"))

	vectors.Load()
	messages.Load()
	cache.Load()
	prof.Load()

	p := prof.Snapshot()
	fmt.Printf("vectors:      %d\n", vectors.Len())
	fmt.Printf("messages:     %d\n", messages.Len())
	fmt.Printf("cached texts: %d\n", cache.Len())
	fmt.Printf("preferences:  %d\n", len(p.Preferences))
	fmt.Printf("facts:        %d\n", len(p.Facts))
	fmt.Printf("goals:        %d\n", len(p.Goals))
	fmt.Printf("avoidances:   %d\n", len(p.NegativePrefs))
	fmt.Printf("mood entries: %d\n", len(p.MoodHistory))
	fmt.Printf("last updated: %s\n", p.LastUpdated)
}

func handleProfile(statePath string) {
	prof := profile.NewStore(filepath.Join(statePath, "user_profile.json"))
	if err := prof.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "load profile: %v\n", err)
		os.Exit(1)
	}
	data, _ := json.MarshalIndent(prof.Snapshot(), "", "  ")
	fmt.Println(string(data))
}

func handleMessages(statePath string, args []string) {
	fs := flag.NewFlagSet("messages", flag.ExitOnError)
	n := fs.Int("n", 10, "number of messages")
	fs.Parse(args)

	messages := memory.NewMessageLog(filepath.Join(statePath, "messages.json"))
	if err := messages.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "load messages: %v\n", err)
		os.Exit(1)
	}

	all := messages.All()
	start := len(all) - *n
	if start < 0 {
		start = 0
	}
	for _, m := range all[start:] {
		printMessage(m)
	}
}

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("q", "", "substring to search for")
	limit := fs.Int("n", 20, "max results")
	fs.Parse(args)

	if *query == "" {
		fmt.Fprintln(os.Stderr, "search requires -q <text>")
		os.Exit(1)
	}
	archivePath := os.Getenv("ARCHIVE_PATH")
	if archivePath == "" {
		fmt.Fprintln(os.Stderr, "search requires ARCHIVE_PATH")
		os.Exit(1)
	}

	arc, err := archive.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		os.Exit(1)
	}
	defer arc.Close()

	results, err := arc.Search(*query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		os.Exit(1)
	}
	for _, m := range results {
		printMessage(m)
	}
	fmt.Printf("%d match(es)\n", len(results))
}

func handleJournal(statePath string, args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	n := fs.Int("n", 20, "number of entries")
	today := fs.Bool("today", false, "only today's entries")
	fs.Parse(args)

	jrnl := journal.New(statePath)
	var entries []journal.Entry
	var err error
	if *today {
		entries, err = jrnl.Today()
	} else {
		entries, err = jrnl.Recent(*n)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read journal: %v\n", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10s  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Summary)
	}
}

func handleHealth(statePath string) {
	// State files
	for _, name := range []string{"vectors.json", "messages.json", "user_profile.json", "embedding_cache.json"} {
		path := filepath.Join(statePath, name)
		info, err := os.Stat(path)
		if err != nil {
			fmt.Printf("%-22s missing\n", name)
			continue
		}
		fmt.Printf("%-22s %d bytes, modified %s\n", name, info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
	}

	// Lockstep invariant
	vectors := memory.NewVectorStore(filepath.Join(statePath, "vectors.json"))
	messages := memory.NewMessageLog(filepath.Join(statePath, "messages.json"))
	vectors.Load()
	messages.Load()
	if vectors.Len() != messages.Len() {
		fmt.Printf("INVARIANT VIOLATION: %d vectors vs %d messages\n", vectors.Len(), messages.Len())
	} else {
		fmt.Printf("stores in lockstep:    %d entries\n", vectors.Len())
	}

	// Process resources
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		fmt.Printf("process RSS:           %.1f MB\n", float64(mem.RSS)/(1024*1024))
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		fmt.Printf("process CPU:           %.1f%%\n", cpu)
	}
}

func printMessage(m types.Message) {
	fmt.Printf("[%4d] %-9s %s  %s\n", m.ID, m.Role, m.Timestamp, m.Text)
}
