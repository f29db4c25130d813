package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thefailures/jarvis/internal/types"
)

// fakeGenerator serves a fixed reply or a fixed error
type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

// tuesdayMorning is a fixed clock for predictable context tags
func tuesdayMorning() time.Time {
	return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
}

func TestClassifyParsesStructuredReply(t *testing.T) {
	c := New(&fakeGenerator{reply: `{"category": "preference", "sentiment": "positive", "tags": ["food"]}`})
	c.SetClock(tuesdayMorning)

	category, sentiment, tags := c.Classify(context.Background(), "I love pizza")
	if category != types.CategoryPreference {
		t.Errorf("category = %v", category)
	}
	if sentiment != types.SentimentPositive {
		t.Errorf("sentiment = %v", sentiment)
	}
	want := []string{"food", "morning", "tuesday"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestClassifyCollaboratorErrorFallsBack(t *testing.T) {
	c := New(&fakeGenerator{err: errors.New("timeout")})
	c.SetClock(tuesdayMorning)

	category, sentiment, tags := c.Classify(context.Background(), "I love pizza")
	if category != types.CategoryFact || sentiment != types.SentimentNeutral {
		t.Errorf("fallback = (%v, %v)", category, sentiment)
	}
	if len(tags) != 2 || tags[0] != "morning" || tags[1] != "tuesday" {
		t.Errorf("fallback tags = %v", tags)
	}
}

func TestClassifyGarbageReplyFallsBack(t *testing.T) {
	c := New(&fakeGenerator{reply: "Sure! The message looks like a preference to me."})
	c.SetClock(tuesdayMorning)

	category, sentiment, tags := c.Classify(context.Background(), "I love pizza")
	if category != types.CategoryFact || sentiment != types.SentimentNeutral {
		t.Errorf("fallback = (%v, %v)", category, sentiment)
	}
	if len(tags) != 2 {
		t.Errorf("fallback tags = %v", tags)
	}
}

func TestClassifyUnknownEnumValuesFallBack(t *testing.T) {
	c := New(&fakeGenerator{reply: `{"category": "opinion", "sentiment": "thrilled", "tags": []}`})
	c.SetClock(tuesdayMorning)

	category, sentiment, _ := c.Classify(context.Background(), "olives are fine I guess")
	if category != types.CategoryFact {
		t.Errorf("unknown category decoded to %v, want fact", category)
	}
	if sentiment != types.SentimentNeutral {
		t.Errorf("unknown sentiment decoded to %v, want neutral", sentiment)
	}
}

func TestClassifyFencedJSON(t *testing.T) {
	c := New(&fakeGenerator{reply: "```json\n{\"category\": \"goal\", \"sentiment\": \"positive\", \"tags\": [\"learning\"]}\n```"})
	c.SetClock(tuesdayMorning)

	category, _, tags := c.Classify(context.Background(), "I want to learn Go")
	if category != types.CategoryGoal {
		t.Errorf("category = %v", category)
	}
	if len(tags) == 0 || tags[0] != "learning" {
		t.Errorf("tags = %v", tags)
	}
}

func TestGenerateTags(t *testing.T) {
	c := New(&fakeGenerator{reply: `{"tags": ["food", "dinner"]}`})
	c.SetClock(tuesdayMorning)

	tags := c.GenerateTags(context.Background(), "what should I cook tonight?")
	if len(tags) != 2 || tags[0] != "food" {
		t.Errorf("tags = %v", tags)
	}
}

func TestGenerateTagsFailureReturnsNil(t *testing.T) {
	c := New(&fakeGenerator{err: errors.New("down")})
	if tags := c.GenerateTags(context.Background(), "anything"); tags != nil {
		t.Errorf("tags = %v, want nil", tags)
	}
}

func TestShouldRemember(t *testing.T) {
	c := New(&fakeGenerator{reply: `{"should_remember": true, "confidence": 0.85, "tags": ["food"]}`})

	remember, confidence, tags := c.ShouldRemember(context.Background(), "I love pizza")
	if !remember || confidence != 0.85 {
		t.Errorf("got (%v, %v)", remember, confidence)
	}
	if len(tags) != 1 || tags[0] != "food" {
		t.Errorf("tags = %v", tags)
	}
}

func TestShouldRememberFallback(t *testing.T) {
	for _, gen := range []*fakeGenerator{
		{err: errors.New("down")},
		{reply: "not json at all"},
	} {
		remember, confidence, tags := New(gen).ShouldRemember(context.Background(), "hi")
		if remember || confidence != 0.5 || tags != nil {
			t.Errorf("fallback = (%v, %v, %v)", remember, confidence, tags)
		}
	}
}

func TestTimeOfDayBuckets(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{0, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{17, "afternoon"},
		{18, "evening"},
		{23, "evening"},
	}
	for _, tc := range cases {
		got := TimeOfDay(time.Date(2026, 3, 10, tc.hour, 0, 0, 0, time.UTC))
		if got != tc.want {
			t.Errorf("hour %d = %q, want %q", tc.hour, got, tc.want)
		}
	}
}
