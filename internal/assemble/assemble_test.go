package assemble

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thefailures/jarvis/internal/memory"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/types"
)

// countingEmbedder maps text length to a vector, counting calls
type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	c.calls++
	return []float64{float64(len(text)), 1, 0.5}, nil
}

// staticTagger returns fixed query tags
type staticTagger struct {
	tags []string
}

func (s staticTagger) GenerateTags(ctx context.Context, message string) []string {
	return s.tags
}

type fixture struct {
	builder  *Builder
	profile  *profile.Store
	vectors  *memory.VectorStore
	messages *memory.MessageLog
	embedder *countingEmbedder
}

func newFixture(t *testing.T, tags []string) *fixture {
	t.Helper()
	dir := t.TempDir()

	prof := profile.NewStore(filepath.Join(dir, "user_profile.json"))
	vectors := memory.NewVectorStore(filepath.Join(dir, "vectors.json"))
	messages := memory.NewMessageLog(filepath.Join(dir, "messages.json"))
	remote := &countingEmbedder{}
	cached := memory.NewCachedEmbedder(memory.NewEmbeddingCache(filepath.Join(dir, "embedding_cache.json")), remote)

	b := NewBuilder(prof, vectors, messages, cached, staticTagger{tags: tags})
	return &fixture{builder: b, profile: prof, vectors: vectors, messages: messages, embedder: remote}
}

func (f *fixture) addTurn(id int, role types.Role, text, timestamp string, tags []string) {
	f.vectors.Append(types.MemoryEntry{
		ID:        id,
		Vector:    []float64{float64(len(text)), 1, 0.5},
		Timestamp: timestamp,
		Tags:      tags,
	})
	f.messages.Append(types.Message{
		ID:        id,
		Role:      role,
		Text:      text,
		Timestamp: timestamp,
		Tags:      tags,
	})
}

func TestBuildContextSectionOrder(t *testing.T) {
	f := newFixture(t, []string{"food"})
	now := time.Now()
	ts := types.Timestamp(now)

	f.profile.Update("I love pizza", types.CategoryPreference, ts, 0.9, []string{"food"}, types.SentimentPositive)
	f.profile.Update("I hate olives", types.CategoryNegativePreference, ts, 0.8, []string{"food"}, types.SentimentNegative)
	f.profile.Update("I live in Lisbon", types.CategoryFact, types.Timestamp(now.Add(-72*time.Hour)), 0.9, []string{"location"}, types.SentimentNeutral)
	f.profile.Update("book a table for Friday", types.CategoryGoal, ts, 0.8, []string{"date", "food"}, types.SentimentNeutral)
	f.addTurn(0, types.RoleUser, "where should I eat tonight?", ts, []string{"food"})

	got := f.builder.BuildContext(context.Background(), "dinner ideas?", 5)

	headers := []string{
		"### System Context:",
		"### Time-Relevant Goals:",
		"### Relevant User Facts:",
		"### Relevant User Preferences:",
		"### Relevant Avoidances:",
		"### Recent Mood:",
		"### User's Frequent Topics:",
		"### Related Previous Conversation:",
	}
	pos := -1
	for _, h := range headers {
		i := strings.Index(got, h)
		if i < 0 {
			t.Fatalf("missing section %q in:\n%s", h, got)
		}
		if i < pos {
			t.Errorf("section %q out of order", h)
		}
		pos = i
	}
}

func TestBuildContextRecentFactsSection(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Now()

	f.profile.Update("just started a pottery class", types.CategoryFact, types.Timestamp(now.Add(-2*time.Hour)), 0.8, []string{"hobby"}, types.SentimentPositive)
	f.profile.Update("I live in Lisbon", types.CategoryFact, types.Timestamp(now.Add(-72*time.Hour)), 0.9, []string{"city"}, types.SentimentNeutral)

	got := f.builder.BuildContext(context.Background(), "what's new with me?", 5)

	recentIdx := strings.Index(got, "### Most Recent Interactions:")
	if recentIdx < 0 {
		t.Fatalf("recent facts section missing:\n%s", got)
	}
	recentSection := got[recentIdx:]
	if next := strings.Index(recentSection[4:], "### "); next > 0 {
		recentSection = recentSection[:next+4]
	}
	if !strings.Contains(recentSection, "just started a pottery class") {
		t.Errorf("fresh fact missing from recent section:\n%s", recentSection)
	}
	if strings.Contains(recentSection, "I live in Lisbon") {
		t.Error("standard-priority fact listed as recent")
	}
	if !strings.Contains(got, "### Relevant User Facts:") {
		t.Errorf("standard facts section missing:\n%s", got)
	}
}

func TestBuildContextOmitsEmptySections(t *testing.T) {
	f := newFixture(t, nil)

	got := f.builder.BuildContext(context.Background(), "hello", 5)

	if !strings.Contains(got, "### System Context:") {
		t.Error("system context should always be present")
	}
	for _, h := range []string{
		"### Most Recent Interactions:",
		"### Time-Relevant Goals:",
		"### Relevant User Facts:",
		"### Relevant User Preferences:",
		"### Relevant Avoidances:",
		"### Recent Mood:",
		"### User's Frequent Topics:",
		"### Related Previous Conversation:",
	} {
		if strings.Contains(got, h) {
			t.Errorf("empty profile should omit %q", h)
		}
	}
}

func TestBuildContextDeterministic(t *testing.T) {
	f := newFixture(t, []string{"food"})
	now := time.Now()
	ts := types.Timestamp(now)
	f.profile.Update("I love pizza", types.CategoryPreference, ts, 0.9, []string{"food"}, types.SentimentPositive)
	f.profile.Update("I love sushi", types.CategoryPreference, ts, 0.9, []string{"food"}, types.SentimentPositive)
	f.addTurn(0, types.RoleUser, "pizza night?", ts, []string{"food"})
	f.addTurn(1, types.RoleUser, "sushi night?", ts, []string{"food"})

	first := f.builder.BuildContext(context.Background(), "dinner?", 5)
	for i := 0; i < 5; i++ {
		if got := f.builder.BuildContext(context.Background(), "dinner?", 5); got != first {
			t.Fatalf("run %d differed:\n%s\n---\n%s", i, first, got)
		}
	}
}

func TestBuildContextDoesNotMutateStores(t *testing.T) {
	f := newFixture(t, nil)
	ts := types.Timestamp(time.Now())
	f.profile.Update("I love pizza", types.CategoryPreference, ts, 0.9, []string{"food"}, types.SentimentPositive)
	f.addTurn(0, types.RoleUser, "pizza?", ts, []string{"food"})

	before := f.profile.Snapshot()
	vecLen, msgLen := f.vectors.Len(), f.messages.Len()

	f.builder.BuildContext(context.Background(), "dinner?", 5)

	if f.vectors.Len() != vecLen || f.messages.Len() != msgLen {
		t.Error("context assembly appended to the stores")
	}
	after := f.profile.Snapshot()
	if len(after.Preferences) != len(before.Preferences) || len(after.MoodHistory) != len(before.MoodHistory) {
		t.Error("context assembly mutated the profile")
	}
}

func TestBuildContextEmbedsQueryOnce(t *testing.T) {
	f := newFixture(t, nil)
	ts := types.Timestamp(time.Now())
	f.addTurn(0, types.RoleUser, "pizza?", ts, nil)

	f.builder.BuildContext(context.Background(), "dinner?", 5)
	f.builder.BuildContext(context.Background(), "dinner?", 5)

	if f.embedder.calls != 1 {
		t.Errorf("repeated identical query hit the collaborator %d times", f.embedder.calls)
	}
}

func TestBuildContextFiltersToUserTurns(t *testing.T) {
	f := newFixture(t, nil)
	ts := types.Timestamp(time.Now())
	f.addTurn(0, types.RoleUser, "pizza?", ts, nil)
	f.addTurn(1, types.RoleAssistant, "How about margherita?", ts, nil)

	got := f.builder.BuildContext(context.Background(), "dinner?", 5)
	if strings.Contains(got, "margherita") {
		t.Errorf("assistant turn surfaced in related conversation:\n%s", got)
	}
	if !strings.Contains(got, "pizza?") {
		t.Errorf("user turn missing from related conversation:\n%s", got)
	}
}

func TestUserLocationPrefersStoredFact(t *testing.T) {
	f := newFixture(t, nil)
	f.builder.SetFallbackLocation("Nowhere")

	got := f.builder.BuildContext(context.Background(), "hi", 5)
	if !strings.Contains(got, "- User Location: Nowhere") {
		t.Errorf("fallback location missing:\n%s", got)
	}

	f.profile.BootstrapLocation("Lisbon")
	got = f.builder.BuildContext(context.Background(), "hi", 5)
	if !strings.Contains(got, "- User Location: User is located in Lisbon") {
		t.Errorf("stored location fact not preferred:\n%s", got)
	}
}

func TestTimeRelevantGoalsWindow(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Now()

	f.profile.Update("book dentist for Tuesday", types.CategoryGoal, types.Timestamp(now.Add(-2*24*time.Hour)), 0.8, []string{"date"}, types.SentimentNeutral)
	f.profile.Update("someday visit Japan", types.CategoryGoal, types.Timestamp(now.Add(-2*24*time.Hour)), 0.9, []string{"travel"}, types.SentimentPositive)
	f.profile.Update("old deadline", types.CategoryGoal, types.Timestamp(now.Add(-10*24*time.Hour)), 0.9, []string{"date"}, types.SentimentNeutral)

	got := f.builder.BuildContext(context.Background(), "what's coming up?", 5)
	if !strings.Contains(got, "book dentist for Tuesday") {
		t.Errorf("recent dated goal missing:\n%s", got)
	}
	goalSection := got[strings.Index(got, "### Time-Relevant Goals:"):]
	if next := strings.Index(goalSection[4:], "### "); next > 0 {
		goalSection = goalSection[:next+4]
	}
	if strings.Contains(goalSection, "someday visit Japan") {
		t.Error("undated goal listed as time-relevant")
	}
	if strings.Contains(goalSection, "old deadline") {
		t.Error("goal outside the window listed as time-relevant")
	}
}
