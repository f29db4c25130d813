package profile

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/thefailures/jarvis/internal/logging"
	"github.com/thefailures/jarvis/internal/types"
)

const (
	// retentionAge is how long low-confidence entries survive
	retentionAge = 30 * 24 * time.Hour
	// retentionConfidence keeps older entries alive past retentionAge
	retentionConfidence = 0.7
	// retentionCap bounds each pruned list to the most recent entries
	retentionCap = 50
)

// Store holds the categorized user model and persists it as a single JSON
// document. All mutations prune and recompute the derived tag-frequency
// aggregate before persisting.
type Store struct {
	mu      sync.RWMutex
	profile types.UserProfile
	path    string
	clock   func() time.Time
}

// NewStore creates a profile store persisted at path
func NewStore(path string) *Store {
	return &Store{
		profile: types.NewUserProfile(),
		path:    path,
		clock:   time.Now,
	}
}

// SetClock overrides the time source (tests)
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// Load reads the profile from disk. A missing or unreadable file falls back
// to an empty default profile rather than failing startup.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.profile = types.NewUserProfile()
		return err
	}

	var p types.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		s.profile = types.NewUserProfile()
		return err
	}
	if p.Preferences == nil {
		p.Preferences = make(map[string]types.ProfileEntry)
	}
	if p.ConfidenceScores == nil {
		p.ConfidenceScores = make(map[string]float64)
	}
	if p.ContextTags == nil {
		p.ContextTags = make(map[string][]string)
	}
	if p.TagFrequencies == nil {
		p.TagFrequencies = make(map[string]int)
	}
	s.profile = p
	return nil
}

// Save writes the profile to disk. Failures are surfaced for logging only;
// the in-memory profile remains authoritative for the session.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Update routes a remembered message into the profile. The entry's priority
// is computed once, from its timestamp, at write time. Repeating the same
// preference text overwrites; list-backed categories append, so distinct
// timestamps are distinct events.
func (s *Store) Update(text string, category types.Category, timestamp string, confidence float64, tags []string, sentiment types.Sentiment) {
	s.mu.Lock()
	now := s.clock()

	entry := types.ProfileEntry{
		Text:       text,
		Timestamp:  timestamp,
		Confidence: confidence,
		Tags:       append([]string(nil), tags...),
		Sentiment:  sentiment,
		Priority:   types.PriorityFor(now, types.ParseTimestamp(timestamp)),
	}

	switch category {
	case types.CategoryPreference:
		s.profile.Preferences[text] = entry
	case types.CategoryGoal:
		s.profile.Goals = append(s.profile.Goals, entry)
	case types.CategoryNegativePreference:
		s.profile.NegativePrefs = append(s.profile.NegativePrefs, entry)
	default:
		s.profile.Facts = append(s.profile.Facts, entry)
	}

	s.profile.MoodHistory = append(s.profile.MoodHistory, types.MoodEntry{
		Timestamp: timestamp,
		Sentiment: sentiment,
		Text:      text,
	})
	s.profile.ConfidenceScores[text] = confidence
	s.profile.ContextTags[text] = append([]string(nil), tags...)

	s.pruneLocked(now)
	s.recomputeTagFrequenciesLocked()
	s.profile.LastUpdated = types.Timestamp(now)

	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		logging.Warn("profile", "failed to persist profile: %v", err)
	}
}

// Forget removes a remembered text from every category
func (s *Store) Forget(text string) {
	s.mu.Lock()
	delete(s.profile.Preferences, text)
	s.profile.Facts = dropByText(s.profile.Facts, text)
	s.profile.Goals = dropByText(s.profile.Goals, text)
	s.profile.NegativePrefs = dropByText(s.profile.NegativePrefs, text)
	delete(s.profile.ConfidenceScores, text)
	delete(s.profile.ContextTags, text)

	s.recomputeTagFrequenciesLocked()
	s.profile.LastUpdated = types.Timestamp(s.clock())

	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		logging.Warn("profile", "failed to persist profile: %v", err)
	}
}

func dropByText(entries []types.ProfileEntry, text string) []types.ProfileEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Text != text {
			out = append(out, e)
		}
	}
	return out
}

// Prune applies the retention policy to every list-backed category:
// entries older than 30 days are dropped unless confidence > 0.7, then only
// the most recent 50 survive. Idempotent.
func (s *Store) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.clock())
	s.recomputeTagFrequenciesLocked()
}

func (s *Store) pruneLocked(now time.Time) {
	s.profile.Facts = pruneEntries(s.profile.Facts, now)
	s.profile.Goals = pruneEntries(s.profile.Goals, now)
	s.profile.NegativePrefs = pruneEntries(s.profile.NegativePrefs, now)
	s.profile.MoodHistory = pruneMood(s.profile.MoodHistory, now)
}

func pruneEntries(entries []types.ProfileEntry, now time.Time) []types.ProfileEntry {
	kept := make([]types.ProfileEntry, 0, len(entries))
	for _, e := range entries {
		if e.Age(now) < retentionAge || e.Confidence > retentionConfidence {
			kept = append(kept, e)
		}
	}
	if len(kept) > retentionCap {
		kept = kept[len(kept)-retentionCap:]
	}
	return kept
}

// pruneMood applies the same policy to mood history. Mood entries carry no
// confidence, so age alone decides.
func pruneMood(entries []types.MoodEntry, now time.Time) []types.MoodEntry {
	kept := make([]types.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if now.Sub(types.ParseTimestamp(e.Timestamp)) < retentionAge {
			kept = append(kept, e)
		}
	}
	if len(kept) > retentionCap {
		kept = kept[len(kept)-retentionCap:]
	}
	return kept
}

// recomputeTagFrequenciesLocked rebuilds the derived tag-count aggregate from
// scratch over the current facts, goals, negative preferences, and
// preference values. Never incrementally maintained.
func (s *Store) recomputeTagFrequenciesLocked() {
	freq := make(map[string]int)
	for _, e := range s.profile.Facts {
		countTags(freq, e.Tags)
	}
	for _, e := range s.profile.Goals {
		countTags(freq, e.Tags)
	}
	for _, e := range s.profile.NegativePrefs {
		countTags(freq, e.Tags)
	}
	for _, e := range s.profile.Preferences {
		countTags(freq, e.Tags)
	}
	s.profile.TagFrequencies = freq
}

func countTags(freq map[string]int, tags []string) {
	for _, t := range tags {
		freq[t]++
	}
}

// BootstrapLocation seeds a location fact from configuration (skipped when a
// location fact is already present)
func (s *Store) BootstrapLocation(location string) {
	if location == "" {
		return
	}
	s.mu.Lock()
	for _, f := range s.profile.Facts {
		if f.HasTag("location") {
			s.mu.Unlock()
			return
		}
	}
	now := s.clock()
	s.profile.Facts = append(s.profile.Facts, types.ProfileEntry{
		Text:       "User is located in " + location,
		Timestamp:  types.Timestamp(now),
		Confidence: 0.9,
		Tags:       []string{"location"},
		Sentiment:  types.SentimentNeutral,
		Priority:   types.PriorityStandard,
	})
	s.recomputeTagFrequenciesLocked()
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		logging.Warn("profile", "failed to persist profile: %v", err)
	}
}

// Snapshot returns a copy of the current profile for read-only use
func (s *Store) Snapshot() types.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.profile
	p.Facts = append([]types.ProfileEntry(nil), s.profile.Facts...)
	p.Goals = append([]types.ProfileEntry(nil), s.profile.Goals...)
	p.NegativePrefs = append([]types.ProfileEntry(nil), s.profile.NegativePrefs...)
	p.MoodHistory = append([]types.MoodEntry(nil), s.profile.MoodHistory...)
	p.Preferences = make(map[string]types.ProfileEntry, len(s.profile.Preferences))
	for k, v := range s.profile.Preferences {
		p.Preferences[k] = v
	}
	p.ConfidenceScores = make(map[string]float64, len(s.profile.ConfidenceScores))
	for k, v := range s.profile.ConfidenceScores {
		p.ConfidenceScores[k] = v
	}
	p.ContextTags = make(map[string][]string, len(s.profile.ContextTags))
	for k, v := range s.profile.ContextTags {
		p.ContextTags[k] = append([]string(nil), v...)
	}
	p.TagFrequencies = make(map[string]int, len(s.profile.TagFrequencies))
	for k, v := range s.profile.TagFrequencies {
		p.TagFrequencies[k] = v
	}
	return p
}

// HasAnyData reports whether any profile category holds entries
func (s *Store) HasAnyData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profile.Preferences) > 0 ||
		len(s.profile.Facts) > 0 ||
		len(s.profile.Goals) > 0 ||
		len(s.profile.NegativePrefs) > 0 ||
		len(s.profile.MoodHistory) > 0
}
