package types

import "time"

// Role identifies who produced a conversational turn
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// ParseRole maps free-form input to a Role. Unrecognized input returns
// RoleUser and false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), true
	}
	return RoleUser, false
}

// Category routes a remembered message into the user profile
type Category string

const (
	CategoryPreference         Category = "preference"
	CategoryGoal               Category = "goal"
	CategoryNegativePreference Category = "negative_preference"
	CategoryFact               Category = "fact"
)

// ParseCategory maps free-form model output to a Category.
// Unrecognized input returns CategoryFact (the documented fallback) and false.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryPreference, CategoryGoal, CategoryNegativePreference, CategoryFact:
		return Category(s), true
	}
	return CategoryFact, false
}

// Sentiment is the detected emotional tone of a message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps free-form model output to a Sentiment.
// Unrecognized input returns SentimentNeutral and false.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s), true
	}
	return SentimentNeutral, false
}

// Priority marks how fresh a profile entry was at write time.
// Computed once when the entry is created, never re-evaluated.
type Priority string

const (
	PriorityRecent   Priority = "recent"
	PriorityStandard Priority = "standard"
)

// recentWindow is the age under which a new entry is tagged recent
const recentWindow = 48 * time.Hour

// PriorityFor computes the write-time priority for an entry timestamp
func PriorityFor(now, created time.Time) Priority {
	if now.Sub(created) < recentWindow {
		return PriorityRecent
	}
	return PriorityStandard
}

// Timestamp formats a time as the stored ISO-8601 string
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp reads a stored ISO-8601 string. Zero time on failure.
func ParseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// MemoryEntry is one vector-store record. Immutable after creation;
// the relevance score is fixed at write time.
type MemoryEntry struct {
	ID             int       `json:"id"`
	Vector         []float64 `json:"vector"`
	Timestamp      string    `json:"timestamp"`
	IsSearch       bool      `json:"is_search"`
	Tags           []string  `json:"tags"`
	RelevanceScore float64   `json:"relevance_score"`
}

// Message is one message-log record. Shares its id space with MemoryEntry:
// entry i of both stores always carries id i.
type Message struct {
	ID             int      `json:"id"`
	Role           Role     `json:"role"`
	Text           string   `json:"message"`
	Timestamp      string   `json:"timestamp"`
	IsSearch       bool     `json:"is_search"`
	Tags           []string `json:"tags"`
	RelevanceScore float64  `json:"relevance_score"`
}

// ProfileEntry is a stored unit of durable knowledge about the user:
// a fact, goal, preference, or negative preference.
type ProfileEntry struct {
	Text       string    `json:"message"`
	Timestamp  string    `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Tags       []string  `json:"tags"`
	Sentiment  Sentiment `json:"sentiment"`
	Priority   Priority  `json:"priority"`
}

// Age returns how old the entry was at the given moment
func (e ProfileEntry) Age(now time.Time) time.Duration {
	return now.Sub(ParseTimestamp(e.Timestamp))
}

// HasTag reports whether the entry carries the given tag
func (e ProfileEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MoodEntry is one sentiment observation in the mood history
type MoodEntry struct {
	Timestamp string    `json:"timestamp"`
	Sentiment Sentiment `json:"sentiment"`
	Text      string    `json:"message"`
}

// UserProfile is the categorized, mutable user model
type UserProfile struct {
	Preferences      map[string]ProfileEntry `json:"preferences"`
	Facts            []ProfileEntry          `json:"facts"`
	Goals            []ProfileEntry          `json:"goals"`
	NegativePrefs    []ProfileEntry          `json:"negative_prefs"`
	MoodHistory      []MoodEntry             `json:"mood_history"`
	ConfidenceScores map[string]float64      `json:"confidence_scores"`
	ContextTags      map[string][]string     `json:"context_tags"`
	TagFrequencies   map[string]int          `json:"tag_frequencies"`
	LastUpdated      string                  `json:"last_updated"`
}

// NewUserProfile returns an empty profile with all maps initialized
func NewUserProfile() UserProfile {
	return UserProfile{
		Preferences:      make(map[string]ProfileEntry),
		ConfidenceScores: make(map[string]float64),
		ContextTags:      make(map[string][]string),
		TagFrequencies:   make(map[string]int),
	}
}
