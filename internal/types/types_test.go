package types

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	for _, valid := range []string{"preference", "goal", "negative_preference", "fact"} {
		c, ok := ParseCategory(valid)
		if !ok || string(c) != valid {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, true)", valid, c, ok, valid)
		}
	}

	c, ok := ParseCategory("opinion")
	if ok {
		t.Error("unknown category should not parse")
	}
	if c != CategoryFact {
		t.Errorf("unknown category fallback = %q, want fact", c)
	}
}

func TestParseSentiment(t *testing.T) {
	s, ok := ParseSentiment("positive")
	if !ok || s != SentimentPositive {
		t.Errorf("ParseSentiment(positive) = (%q, %v)", s, ok)
	}

	s, ok = ParseSentiment("ecstatic")
	if ok {
		t.Error("unknown sentiment should not parse")
	}
	if s != SentimentNeutral {
		t.Errorf("unknown sentiment fallback = %q, want neutral", s)
	}
}

func TestPriorityFor(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if p := PriorityFor(now, now.Add(-time.Hour)); p != PriorityRecent {
		t.Errorf("1h old entry priority = %q, want recent", p)
	}
	if p := PriorityFor(now, now.Add(-47*time.Hour)); p != PriorityRecent {
		t.Errorf("47h old entry priority = %q, want recent", p)
	}
	if p := PriorityFor(now, now.Add(-49*time.Hour)); p != PriorityStandard {
		t.Errorf("49h old entry priority = %q, want standard", p)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 30, 45, 123456789, time.UTC)
	got := ParseTimestamp(Timestamp(now))
	if !got.Equal(now) {
		t.Errorf("round trip = %v, want %v", got, now)
	}

	// Plain RFC 3339 without fractional seconds also parses
	if got := ParseTimestamp("2026-03-10T12:30:45Z"); got.IsZero() {
		t.Error("plain RFC 3339 should parse")
	}
	if got := ParseTimestamp("not a time"); !got.IsZero() {
		t.Errorf("garbage should parse to zero time, got %v", got)
	}
}

func TestProfileEntryHasTag(t *testing.T) {
	e := ProfileEntry{Tags: []string{"food", "dinner"}}
	if !e.HasTag("food") {
		t.Error("expected tag food")
	}
	if e.HasTag("music") {
		t.Error("unexpected tag music")
	}
}
