package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/thefailures/jarvis/internal/cohere"
	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/types"
)

// Classifier routes messages through the chat-completion collaborator with
// structured-output prompts. Every method has a documented local fallback:
// classification failure must never block recording a turn.
type Classifier struct {
	gen   cohere.Generator
	clock func() time.Time
}

// New creates a classifier backed by the given generator
func New(gen cohere.Generator) *Classifier {
	return &Classifier{gen: gen, clock: time.Now}
}

// SetClock overrides the time source (tests)
func (c *Classifier) SetClock(clock func() time.Time) {
	c.clock = clock
}

// TimeOfDay buckets an hour into morning/afternoon/evening
func TimeOfDay(t time.Time) string {
	switch {
	case t.Hour() < 12:
		return "morning"
	case t.Hour() < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// DayOfWeek returns the lowercase weekday name
func DayOfWeek(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// classifyReply is the structured reply expected from the collaborator
type classifyReply struct {
	Category  string   `json:"category"`
	Sentiment string   `json:"sentiment"`
	Tags      []string `json:"tags"`
}

// Classify returns (category, sentiment, tags) for a message. The current
// time-of-day and day-of-week are always appended to the tags. On any
// transport or parse failure it falls back to (fact, neutral, [timeOfDay,
// dayOfWeek]).
func (c *Classifier) Classify(ctx context.Context, message string) (types.Category, types.Sentiment, []string) {
	now := c.clock()
	tod := TimeOfDay(now)
	dow := DayOfWeek(now)

	prompt := fmt.Sprintf(`Classify the following user message into one of these categories:
- preference
- fact
- goal
- negative_preference
Also, detect the sentiment (positive, negative, neutral) and generate relevant tags.
Current context:
- Time: %s
- Time of Day: %s
- Day of Week: %s
Message: %q
Respond with JSON in this exact format:
{
  "category": "preference|fact|goal|negative_preference",
  "sentiment": "positive|negative|neutral",
  "tags": ["tag1", "tag2", ...]
}`, now.Format("2006-01-02 15:04:05"), tod, dow, message)

	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Debug("classify", "collaborator failed, using fallback: %v", err)
		return types.CategoryFact, types.SentimentNeutral, []string{tod, dow}
	}

	var reply classifyReply
	if err := decodeJSON(raw, &reply); err != nil {
		logging.Debug("classify", "unparseable reply %q, using fallback", logging.Truncate(raw, 80))
		return types.CategoryFact, types.SentimentNeutral, []string{tod, dow}
	}

	category, _ := types.ParseCategory(reply.Category)
	sentiment, _ := types.ParseSentiment(reply.Sentiment)
	tags := append(append([]string(nil), reply.Tags...), tod, dow)
	return category, sentiment, tags
}

// tagsReply is the structured reply for tag generation
type tagsReply struct {
	Tags []string `json:"tags"`
}

// GenerateTags tags a fresh query before search. Falls back to an empty set.
func (c *Classifier) GenerateTags(ctx context.Context, message string) []string {
	now := c.clock()
	prompt := fmt.Sprintf(`Generate relevant tags for the following message: %q
Current context:
- Time: %s
- Time of Day: %s
- Day of Week: %s
Respond with JSON:
{"tags": ["tag1", "tag2", ...]}`, message, now.Format("2006-01-02 15:04:05"), TimeOfDay(now), DayOfWeek(now))

	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Debug("classify", "tag generation failed: %v", err)
		return nil
	}

	var reply tagsReply
	if err := decodeJSON(raw, &reply); err != nil {
		logging.Debug("classify", "unparseable tags reply %q", logging.Truncate(raw, 80))
		return nil
	}
	return reply.Tags
}

// rememberReply is the structured reply for the should-remember gate
type rememberReply struct {
	ShouldRemember bool     `json:"should_remember"`
	Confidence     float64  `json:"confidence"`
	Tags           []string `json:"tags"`
}

// ShouldRemember decides whether a message is worth adding to the user
// profile. Falls back to (false, 0.5, nil).
func (c *Classifier) ShouldRemember(ctx context.Context, message string) (bool, float64, []string) {
	prompt := fmt.Sprintf(`Analyze the user message: %q
Decide if it expresses a preference, goal, fact, or negative preference worth adding to the user profile.
Consider if the message contains important information about the user's likes, dislikes, objectives, or personal details.
Return JSON in this format:
{
  "should_remember": true or false,
  "confidence": a float between 0.0 and 1.0,
  "tags": ["tag1", "tag2", ...]
}`, message)

	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Debug("classify", "should-remember failed: %v", err)
		return false, 0.5, nil
	}

	var reply rememberReply
	if err := decodeJSON(raw, &reply); err != nil {
		logging.Debug("classify", "unparseable should-remember reply %q", logging.Truncate(raw, 80))
		return false, 0.5, nil
	}
	return reply.ShouldRemember, reply.Confidence, reply.Tags
}

// decodeJSON extracts the first JSON object from model output. Models wrap
// replies in prose or code fences often enough that strict decoding of the
// raw string is useless.
func decodeJSON(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in reply")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), out)
}
