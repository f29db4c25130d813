package extract

import (
	"strings"

	"github.com/tsawler/prose/v3"
)

// EntityTagger derives tags from named entities found in a message, without
// a collaborator call. Used to enrich remembered turns when enabled.
type EntityTagger struct{}

// NewEntityTagger creates a prose-backed entity tagger
func NewEntityTagger() *EntityTagger {
	return &EntityTagger{}
}

// Tags extracts entity names from text as lowercase deduplicated tags.
// Returns nil when nothing is found or the text cannot be parsed.
func (e *EntityTagger) Tags(text string) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil
	}

	var tags []string
	seen := make(map[string]bool)
	for _, ent := range doc.Entities() {
		tag := normalizeTag(ent.Text)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func normalizeTag(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.Trim(s, ".,!?;:'\"()[]{}@#")
	// Single characters are noise, not topics
	if len(s) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}
