package profile

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/types"
)

// summaryDoc is the user_summary.json document
type summaryDoc struct {
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// Summary renders a short natural-language digest of the profile. Empty when
// the profile holds nothing worth summarizing.
func (s *Store) Summary() string {
	p := s.Snapshot()
	var lines []string

	if len(p.Preferences) > 0 {
		keys := make([]string, 0, len(p.Preferences))
		for k := range p.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, "You seem to prefer: "+strings.Join(firstN(keys, 3), ", "))
	}
	if len(p.Goals) > 0 {
		lines = append(lines, "Your main goals are: "+strings.Join(entryTexts(p.Goals, 3), ", "))
	}
	if len(p.Facts) > 0 {
		lines = append(lines, "Here's what you've told me about yourself: "+strings.Join(entryTexts(p.Facts, 3), ", "))
	}
	if len(p.MoodHistory) > 0 {
		moods := make([]string, 0, 3)
		for i, m := range p.MoodHistory {
			if i == 3 {
				break
			}
			moods = append(moods, string(m.Sentiment))
		}
		lines = append(lines, "Recent mood trends: "+strings.Join(moods, ", "))
	}
	if len(p.TagFrequencies) > 0 {
		lines = append(lines, "You often talk about: "+strings.Join(TopTags(p.TagFrequencies, 3), ", "))
	}

	return strings.Join(lines, "\n")
}

// WriteSummary regenerates the user_summary.json side file when the profile
// has anything to say. Best-effort: failures are logged, never raised.
func (s *Store) WriteSummary(path string) {
	text := s.Summary()
	if text == "" {
		return
	}
	doc := summaryDoc{
		Summary:   text,
		Timestamp: types.Timestamp(s.clock()),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logging.Warn("profile", "failed to encode summary: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logging.Warn("profile", "failed to write summary: %v", err)
	}
}

// TopTags returns the n most frequent tags, ties broken alphabetically for
// deterministic output
func TopTags(freq map[string]int, n int) []string {
	type tagCount struct {
		tag   string
		count int
	}
	counts := make([]tagCount, 0, len(freq))
	for t, c := range freq {
		counts = append(counts, tagCount{t, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].tag < counts[j].tag
	})
	tags := make([]string, 0, n)
	for i, tc := range counts {
		if i == n {
			break
		}
		tags = append(tags, tc.tag)
	}
	return tags
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func entryTexts(entries []types.ProfileEntry, n int) []string {
	texts := make([]string, 0, n)
	for i, e := range entries {
		if i == n {
			break
		}
		texts = append(texts, e.Text)
	}
	return texts
}
