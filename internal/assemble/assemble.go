package assemble

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thefailures/jarvis/internal/classify"
	"github.com/thefailures/jarvis/internal/memory"
	"github.com/thefailures/jarvis/internal/profile"
	"github.com/thefailures/jarvis/internal/rank"
	"github.com/thefailures/jarvis/internal/types"
)

// goalWindow is how far back time-relevant goals are considered
const goalWindow = 7 * 24 * time.Hour

// TagGenerator tags a fresh query before search
type TagGenerator interface {
	GenerateTags(ctx context.Context, message string) []string
}

// Builder assembles the context blob handed to the chat collaborator.
// Read-only over the vector store, message log, and profile: it never
// mutates any of them.
type Builder struct {
	profile  *profile.Store
	vectors  *memory.VectorStore
	messages *memory.MessageLog
	embedder *memory.CachedEmbedder
	tagger   TagGenerator
	location string
	clock    func() time.Time
}

// NewBuilder wires a context builder
func NewBuilder(prof *profile.Store, vectors *memory.VectorStore, messages *memory.MessageLog, embedder *memory.CachedEmbedder, tagger TagGenerator) *Builder {
	return &Builder{
		profile:  prof,
		vectors:  vectors,
		messages: messages,
		embedder: embedder,
		tagger:   tagger,
		clock:    time.Now,
	}
}

// SetClock overrides the time source (tests)
func (b *Builder) SetClock(clock func() time.Time) {
	b.clock = clock
}

// SetFallbackLocation sets the location reported when no location fact is
// stored
func (b *Builder) SetFallbackLocation(location string) {
	b.location = location
}

// BuildContext produces the section-labeled context text for a query.
// Sections appear in a fixed order and are omitted when their source
// collection is empty. Deterministic for identical inputs.
func (b *Builder) BuildContext(ctx context.Context, query string, limit int) string {
	if limit <= 0 {
		limit = 5
	}

	queryTags := b.tagger.GenerateTags(ctx, query)
	similar := b.searchSimilar(ctx, query, queryTags, limit)

	now := b.clock()
	p := b.profile.Snapshot()

	var out []string
	out = append(out,
		"### System Context:",
		"- Current Time: "+now.Format("2006-01-02 15:04:05"),
		"- Time of Day: "+classify.TimeOfDay(now),
		"- Day of Week: "+dayName(now),
	)
	if loc := b.userLocation(p); loc != "" {
		out = append(out, "- User Location: "+loc)
	}

	recent, standard := splitByPriority(p.Facts)
	if section := entrySection("### Most Recent Interactions:", rank.SelectProfileEntries(recent, queryTags, 3, now)); section != nil {
		out = append(out, section...)
	}

	if section := entrySection("### Time-Relevant Goals:", timeRelevantGoals(p.Goals, now)); section != nil {
		out = append(out, section...)
	}

	if section := entrySection("### Relevant User Facts:", rank.SelectProfileEntries(standard, queryTags, 3, now)); section != nil {
		out = append(out, section...)
	}

	prefs := preferenceEntries(p.Preferences)
	if section := entrySection("### Relevant User Preferences:", rank.SelectProfileEntries(prefs, queryTags, 2, now)); section != nil {
		out = append(out, section...)
	}

	if section := entrySection("### Relevant Avoidances:", rank.SelectProfileEntries(p.NegativePrefs, queryTags, 2, now)); section != nil {
		out = append(out, section...)
	}

	if moods := recentMoods(p.MoodHistory, 2); len(moods) > 0 {
		out = append(out, "### Recent Mood:")
		for _, m := range moods {
			out = append(out, fmt.Sprintf("- %s mood: %s (Timestamp: %s)", capitalize(string(m.Sentiment)), m.Text, dateOnly(m.Timestamp)))
		}
	}

	if len(p.TagFrequencies) > 0 {
		out = append(out, "### User's Frequent Topics:")
		out = append(out, strings.Join(profile.TopTags(p.TagFrequencies, 5), ", "))
	}

	if len(similar) > 0 {
		out = append(out, "### Related Previous Conversation:")
		for _, s := range similar {
			out = append(out, fmt.Sprintf("%s: %s (Similarity: %.2f, Tags: %s)", s.Message.Role, s.Message.Text, s.Score, tagList(s.Message.Tags)))
		}
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// searchSimilar ranks prior USER turns against the query
func (b *Builder) searchSimilar(ctx context.Context, query string, queryTags []string, limit int) []rank.Scored {
	if b.vectors.Len() == 0 {
		return nil
	}
	queryVec, ok := b.embedder.GetEmbedding(ctx, query)
	if !ok {
		return nil
	}
	return rank.RankSimilar(queryVec, queryTags, b.vectors.All(), b.messages.All(), types.RoleUser, limit)
}

// userLocation prefers a stored location fact over the configured fallback
func (b *Builder) userLocation(p types.UserProfile) string {
	for _, f := range p.Facts {
		if f.HasTag("location") {
			return f.Text
		}
	}
	return b.location
}

func splitByPriority(facts []types.ProfileEntry) (recent, standard []types.ProfileEntry) {
	for _, f := range facts {
		if f.Priority == types.PriorityRecent {
			recent = append(recent, f)
		} else {
			standard = append(standard, f)
		}
	}
	return recent, standard
}

// timeRelevantGoals keeps goals tagged "date" from the last 7 days, best two
// first
func timeRelevantGoals(goals []types.ProfileEntry, now time.Time) []types.ProfileEntry {
	var relevant []types.ProfileEntry
	for _, g := range goals {
		if g.HasTag("date") && g.Age(now) < goalWindow {
			relevant = append(relevant, g)
		}
	}
	if len(relevant) == 0 {
		return nil
	}
	return rank.SelectProfileEntries(relevant, nil, 2, now)
}

func preferenceEntries(prefs map[string]types.ProfileEntry) []types.ProfileEntry {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	// Map order is random; fix it so assembly stays deterministic
	sort.Strings(keys)
	entries := make([]types.ProfileEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, prefs[k])
	}
	return entries
}

func recentMoods(moods []types.MoodEntry, n int) []types.MoodEntry {
	sorted := append([]types.MoodEntry(nil), moods...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func entrySection(header string, entries []types.ProfileEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, header)
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- %s (Confidence: %.2f, Tags: %s)", e.Text, e.Confidence, tagList(e.Tags)))
	}
	return lines
}

func tagList(tags []string) string {
	return "[" + strings.Join(tags, ", ") + "]"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func dayName(t time.Time) string {
	return t.Weekday().String()
}

func dateOnly(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}
