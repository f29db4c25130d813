package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/types"
)

// Classifier categorizes a remembered message. Implemented by
// classify.Classifier; faked in tests.
type Classifier interface {
	Classify(ctx context.Context, message string) (types.Category, types.Sentiment, []string)
}

// EntityTagger enriches a message with locally extracted entity tags.
// Optional: nil disables enrichment.
type EntityTagger interface {
	Tags(text string) []string
}

// Mirrorer receives a best-effort copy of every recorded message.
// Optional: nil disables mirroring.
type Mirrorer interface {
	Mirror(msg types.Message) error
}

// EventLog receives memory lifecycle events. Optional.
type EventLog interface {
	LogRecorded(role types.Role, text string, id int)
	LogRemembered(text string, category types.Category, confidence float64)
}

// RecordOptions control how a turn is recorded
type RecordOptions struct {
	IsSearch       bool
	ShouldRemember bool
	Confidence     float64
	Tags           []string
}

// Recorder appends conversational turns to the vector store and message log
// in lockstep, feeding the user profile for remembered USER turns.
type Recorder struct {
	embedder    *CachedEmbedder
	vectors     *VectorStore
	messages    *MessageLog
	profile     *profile.Store
	classifier  Classifier
	tagger      EntityTagger
	mirror      Mirrorer
	events      EventLog
	summaryPath string
	debugDump   bool
	clock       func() time.Time
}

// NewRecorder wires the recording pipeline
func NewRecorder(embedder *CachedEmbedder, vectors *VectorStore, messages *MessageLog, prof *profile.Store, classifier Classifier, summaryPath string) *Recorder {
	return &Recorder{
		embedder:    embedder,
		vectors:     vectors,
		messages:    messages,
		profile:     prof,
		classifier:  classifier,
		summaryPath: summaryPath,
		clock:       time.Now,
	}
}

// SetClock overrides the time source (tests)
func (r *Recorder) SetClock(clock func() time.Time) {
	r.clock = clock
}

// SetEntityTagger enables local entity-tag enrichment of remembered turns
func (r *Recorder) SetEntityTagger(t EntityTagger) {
	r.tagger = t
}

// SetMirror enables best-effort message mirroring (archive)
func (r *Recorder) SetMirror(m Mirrorer) {
	r.mirror = m
}

// SetEventLog enables journaling of memory events
func (r *Recorder) SetEventLog(e EventLog) {
	r.events = e
}

// SetDebugDump enables a debug-level profile dump after every remembered turn
func (r *Recorder) SetDebugDump(enabled bool) {
	r.debugDump = enabled
}

// Record appends a turn to both stores. Turns whose embedding cannot be
// obtained are silently dropped — without a vector they would be
// unsearchable. Remembered USER turns are classified and fed into the
// profile. Failures never propagate: the id and true are returned when the
// turn was indexed.
func (r *Recorder) Record(ctx context.Context, role types.Role, text string, opts RecordOptions) (int, bool) {
	vector, ok := r.embedder.GetEmbedding(ctx, text)
	if !ok {
		logging.Debug("recorder", "no embedding, dropping turn %q", logging.Truncate(text, 50))
		return 0, false
	}

	id := r.messages.Len()
	timestamp := types.Timestamp(r.clock())
	tags := append([]string(nil), opts.Tags...)

	r.vectors.Append(types.MemoryEntry{
		ID:             id,
		Vector:         vector,
		Timestamp:      timestamp,
		IsSearch:       opts.IsSearch,
		Tags:           tags,
		RelevanceScore: opts.Confidence,
	})
	msg := types.Message{
		ID:             id,
		Role:           role,
		Text:           text,
		Timestamp:      timestamp,
		IsSearch:       opts.IsSearch,
		Tags:           tags,
		RelevanceScore: opts.Confidence,
	}
	r.messages.Append(msg)

	if role == types.RoleUser && opts.ShouldRemember {
		category, sentiment, ctags := r.classifier.Classify(ctx, text)
		if r.tagger != nil {
			ctags = mergeTags(ctags, r.tagger.Tags(text))
		}
		r.profile.Update(text, category, timestamp, opts.Confidence, ctags, sentiment)
		if r.events != nil {
			r.events.LogRemembered(text, category, opts.Confidence)
		}
		if r.debugDump {
			if data, err := json.MarshalIndent(r.profile.Snapshot(), "", "  "); err == nil {
				logging.Debug("recorder", "profile after update:\n%s", data)
			}
		}
	}

	if err := r.vectors.Save(); err != nil {
		logging.Warn("recorder", "failed to persist vectors: %v", err)
	}
	if err := r.messages.Save(); err != nil {
		logging.Warn("recorder", "failed to persist messages: %v", err)
	}

	if r.mirror != nil {
		if err := r.mirror.Mirror(msg); err != nil {
			logging.Warn("recorder", "archive mirror failed: %v", err)
		}
	}
	if r.events != nil {
		r.events.LogRecorded(role, text, id)
	}

	if r.profile.HasAnyData() {
		r.profile.WriteSummary(r.summaryPath)
	}
	return id, true
}

// Embedder exposes the cached embedder for read-only consumers (context
// assembly shares the cache so a query is embedded at most once)
func (r *Recorder) Embedder() *CachedEmbedder {
	return r.embedder
}

func mergeTags(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, t := range base {
		seen[t] = true
	}
	for _, t := range extra {
		if !seen[t] {
			seen[t] = true
			base = append(base, t)
		}
	}
	return base
}
