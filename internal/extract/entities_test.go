package extract

import "testing"

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"London", "london"},
		{"  New   York  ", "new york"},
		{"Sarah,", "sarah"},
		{"(Acme)", "acme"},
		{"a", ""},
		{"!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeTag(tc.in); got != tc.want {
			t.Errorf("normalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTagsDeduplicates(t *testing.T) {
	tagger := NewEntityTagger()

	tags := tagger.Tags("I met Sarah in London. Sarah showed me around London all day.")
	seen := make(map[string]int)
	for _, tag := range tags {
		seen[tag]++
		if seen[tag] > 1 {
			t.Errorf("tag %q appears %d times", tag, seen[tag])
		}
	}
}

func TestTagsEmptyText(t *testing.T) {
	tagger := NewEntityTagger()
	if tags := tagger.Tags(""); len(tags) != 0 {
		t.Errorf("tags for empty text = %v", tags)
	}
}
