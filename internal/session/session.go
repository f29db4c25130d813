package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thefailures/jarvis/internal/assemble"
	"github.com/thefailures/jarvis/internal/cohere"
	"github.com/thefailures/jarvis/internal/config"
	"github.com/thefailures/jarvis/internal/journal"
	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/memory"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/types"
)

// historyLimit is how many turns are kept besides the system turn
const historyLimit = 20

// suggestionInterval is how often a proactive goal reminder is appended
const suggestionInterval = 5

// MessageClassifier categorizes a message for profile routing
type MessageClassifier interface {
	Classify(ctx context.Context, message string) (types.Category, types.Sentiment, []string)
}

// Gate decides whether a message should be absorbed into the profile
type Gate interface {
	ShouldRemember(ctx context.Context, message string) (bool, float64, []string)
}

// Session is one conversation with injected collaborators and persistence.
// Constructed once per process; multiple sessions with separate state
// directories are fully isolated.
type Session struct {
	cfg        *config.Config
	recorder   *memory.Recorder
	builder    *assemble.Builder
	classifier MessageClassifier
	gate       Gate
	chat       cohere.Chatter
	profile    *profile.Store
	journal    *journal.Journal

	history      []cohere.Turn
	canned       map[string]cannedReply
	interactions int
	clock        func() time.Time
	systemPrompt string
}

// New builds a session from its collaborators
func New(cfg *config.Config, recorder *memory.Recorder, builder *assemble.Builder, classifier MessageClassifier, gate Gate, chat cohere.Chatter, prof *profile.Store, jrnl *journal.Journal) *Session {
	s := &Session{
		cfg:        cfg,
		recorder:   recorder,
		builder:    builder,
		classifier: classifier,
		gate:       gate,
		chat:       chat,
		profile:    prof,
		journal:    jrnl,
		canned:     cannedReplies(cfg.UserName),
		clock:      time.Now,
	}
	s.systemPrompt = s.buildSystemPrompt()
	s.history = []cohere.Turn{{Role: string(types.RoleAssistant), Text: s.systemPrompt}}
	return s
}

// SetClock overrides the time source (tests)
func (s *Session) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Start seeds session state: the configured location fact and the system
// prompt turn
func (s *Session) Start(ctx context.Context) {
	s.profile.BootstrapLocation(s.cfg.UserLocation)
	s.recorder.Record(ctx, types.RoleAssistant, s.systemPrompt, memory.RecordOptions{
		Confidence: 0.8,
		Tags:       []string{"system"},
	})
}

// Chat handles one user query and returns the reply. Any failure in the
// memory core degrades to "no context" or "not remembered", never to an
// error reaching the conversation.
func (s *Session) Chat(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Sprintf("Hey %s, how can I assist you today?", s.cfg.UserName)
	}

	normalized := strings.ToLower(query)

	if strings.HasPrefix(normalized, "remember ") {
		return s.handleRemember(ctx, query, strings.TrimSpace(query[len("remember "):]))
	}
	if strings.HasPrefix(normalized, "forget ") {
		return s.handleForget(query, strings.TrimSpace(query[len("forget "):]))
	}
	if reply, ok := s.canned[normalized]; ok {
		return s.handleCanned(ctx, query, reply)
	}
	return s.handleGeneral(ctx, query)
}

// handleRemember stores a message with full confidence on explicit request
func (s *Session) handleRemember(ctx context.Context, query, text string) string {
	category, sentiment, tags := s.classifier.Classify(ctx, text)
	s.profile.Update(text, category, types.Timestamp(s.clock()), 1.0, tags, sentiment)
	if s.journal != nil {
		s.journal.LogRemembered(text, category, 1.0)
	}

	reply := fmt.Sprintf("Got it, %s. I'll remember: %s", s.cfg.UserName, text)
	s.appendHistory(query, reply)
	return reply
}

// handleForget removes a message from every profile category
func (s *Session) handleForget(query, text string) string {
	s.profile.Forget(text)
	if s.journal != nil {
		s.journal.LogForgotten(text)
	}

	reply := fmt.Sprintf("Okay, %s, I've forgotten: %s", s.cfg.UserName, text)
	s.appendHistory(query, reply)
	return reply
}

// handleCanned resolves a canned reply; the exchange is still recorded
func (s *Session) handleCanned(ctx context.Context, query string, canned cannedReply) string {
	reply := canned.resolve(s.clock())
	s.appendHistory(query, reply)

	remember, confidence, tags := s.gate.ShouldRemember(ctx, query)
	s.recorder.Record(ctx, types.RoleUser, query, memory.RecordOptions{
		ShouldRemember: remember,
		Confidence:     confidence,
		Tags:           tags,
	})
	s.recorder.Record(ctx, types.RoleAssistant, reply, memory.RecordOptions{
		Confidence: 0.8,
		Tags:       []string{"canned_reply"},
	})
	return reply
}

// handleGeneral assembles context and asks the chat collaborator
func (s *Session) handleGeneral(ctx context.Context, query string) string {
	relevantContext := s.builder.BuildContext(ctx, query, 5)
	if s.journal != nil {
		s.journal.LogContext(query, len(relevantContext))
	}

	reply, failed := s.generateReply(ctx, query, relevantContext)

	remember, confidence, tags := s.gate.ShouldRemember(ctx, query)
	s.appendHistory(query, reply)
	s.recorder.Record(ctx, types.RoleUser, query, memory.RecordOptions{
		ShouldRemember: remember,
		Confidence:     confidence,
		Tags:           tags,
	})
	replyTags := []string{"response"}
	if failed {
		replyTags = []string{"error"}
	}
	s.recorder.Record(ctx, types.RoleAssistant, reply, memory.RecordOptions{
		Confidence: 0.8,
		Tags:       replyTags,
	})

	s.interactions++
	if s.interactions%suggestionInterval == 0 {
		if suggestion := s.proactiveSuggestion(); suggestion != "" {
			reply += "\n\n" + suggestion
		}
	}
	return reply
}

func (s *Session) generateReply(ctx context.Context, query, relevantContext string) (string, bool) {
	now := s.clock()
	if relevantContext == "" {
		relevantContext = "No additional context available."
	}

	enhanced := fmt.Sprintf(`You are Jarvis, an AI assistant. The current time is %s. The user is %s.

The user has asked: %q

Here is some relevant context from the user's profile and previous interactions:
%s

Please provide a response that is accurate, logical, and fully addresses the user's query. Keep the response concise but complete. If the query involves time, use the provided current time.`,
		now.Format("2006-01-02 15:04:05"), s.cfg.UserName, query, relevantContext)

	reply, err := s.chat.Chat(ctx, enhanced, s.recentHistory(10))
	if err != nil {
		logging.Warn("session", "chat collaborator failed: %v", err)
		return fmt.Sprintf("Oops, hit a snag. Try again, %s?", s.cfg.UserName), true
	}
	return reply, false
}

// proactiveSuggestion reminds the user of their top goal
func (s *Session) proactiveSuggestion() string {
	goals := s.profile.Snapshot().Goals
	if len(goals) == 0 {
		return ""
	}
	return fmt.Sprintf("Just a reminder, %s: %s", s.cfg.UserName, goals[0].Text)
}

func (s *Session) appendHistory(query, reply string) {
	s.history = append(s.history,
		cohere.Turn{Role: string(types.RoleUser), Text: query},
		cohere.Turn{Role: string(types.RoleAssistant), Text: reply},
	)
	s.trimHistory()
}

// trimHistory keeps the system turn plus the most recent turns
func (s *Session) trimHistory() {
	if len(s.history) > historyLimit+1 {
		trimmed := []cohere.Turn{s.history[0]}
		s.history = append(trimmed, s.history[len(s.history)-historyLimit:]...)
	}
}

func (s *Session) recentHistory(n int) []cohere.Turn {
	if len(s.history) <= n {
		return s.history
	}
	return s.history[len(s.history)-n:]
}

func (s *Session) buildSystemPrompt() string {
	return fmt.Sprintf(`You are Jarvis, a context-aware personal assistant for %s.

You maintain a structured profile of the user (facts, goals, preferences,
negative preferences, mood history, frequent topics) with confidence scores
and dynamic pruning. Use the provided context to personalize responses:
reference profile data, blend conversation history and tags, adapt tone to
the user's recent mood, and keep replies concise but complete. When a reply
involves the current time, use the time given in the context.`, s.cfg.UserName)
}
