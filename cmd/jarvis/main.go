package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thefailures/jarvis/internal/archive"
	"github.com/thefailures/jarvis/internal/assemble"
	"github.com/thefailures/jarvis/internal/classify"
	"github.com/thefailures/jarvis/internal/cohere"
	"github.com/thefailures/jarvis/internal/config"
	"github.com/thefailures/jarvis/internal/extract"
	"github.com/thefailures/jarvis/internal/journal"
	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/memory"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/session"
)

func main() {
	log.Println("jarvis - semantic memory assistant")
	log.Println("==================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.StatePath, 0755); err != nil {
		log.Fatalf("state directory: %v", err)
	}
	logging.SetDebug(cfg.Debug)

	client := cohere.NewClient(cfg.CohereAPIKey, cfg.RequestTimeout)
	client.SetModels(cfg.EmbedModel, cfg.ChatModel)

	// Stores
	cache := memory.NewEmbeddingCache(cfg.StateFile("embedding_cache.json"))
	vectors := memory.NewVectorStore(cfg.StateFile("vectors.json"))
	messages := memory.NewMessageLog(cfg.StateFile("messages.json"))
	prof := profile.NewStore(cfg.StateFile("user_profile.json"))

	// A failed load falls back to empty stores; the session still runs
	if err := cache.Load(); err != nil {
		log.Printf("Warning: failed to load embedding cache: %v", err)
	}
	if err := vectors.Load(); err != nil {
		log.Printf("Warning: failed to load vectors: %v", err)
	}
	if err := messages.Load(); err != nil {
		log.Printf("Warning: failed to load messages: %v", err)
	}
	if err := prof.Load(); err != nil {
		log.Printf("Warning: failed to load profile: %v", err)
	}

	embedder := memory.NewCachedEmbedder(cache, client)
	classifier := classify.New(client)
	jrnl := journal.New(cfg.StatePath)

	recorder := memory.NewRecorder(embedder, vectors, messages, prof, classifier, cfg.StateFile("user_summary.json"))
	recorder.SetEventLog(jrnl)
	recorder.SetDebugDump(cfg.Debug)
	if cfg.EntityTags {
		recorder.SetEntityTagger(extract.NewEntityTagger())
	}
	if cfg.ArchivePath != "" {
		arc, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			log.Printf("Warning: archive unavailable: %v", err)
		} else {
			defer arc.Close()
			recorder.SetMirror(arc)
		}
	}

	builder := assemble.NewBuilder(prof, vectors, messages, embedder, classifier)
	builder.SetFallbackLocation(cfg.UserLocation)

	sess := session.New(cfg, recorder, builder, classifier, classifier, client, prof, jrnl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	sess.Start(ctx)

	fmt.Printf("Ready. Talk to me, %s (Ctrl-D to quit).\n", cfg.UserName)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		reply := sess.Chat(ctx, scanner.Text())
		fmt.Println(reply)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("input error: %v", err)
	}
	log.Println("Goodbye")
}
