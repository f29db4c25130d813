package rank

import (
	"math"
	"sort"
	"time"

	"github.com/thefailures/jarvis/internal/types"
)

// Blend weights for similar-message ranking
const (
	embeddingWeight = 0.5
	tagWeight       = 0.3
	relevanceWeight = 0.2
)

// Priority bonuses for profile-entry selection
const (
	recentBonus   = 1.0
	standardBonus = 0.5
)

// CosineSimilarity computes normalized dot-product similarity between two
// equal-length vectors. Zero-norm or mismatched inputs score 0 — never
// divides by zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TagJaccard computes intersection-over-union similarity of two tag sets.
// Two empty sets score 0.
func TagJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	union := len(set)
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Scored is a ranked message with its blended similarity score
type Scored struct {
	Message types.Message
	Score   float64
}

// RankSimilar scores every candidate against the query and returns the top
// limit matches, highest score first. Candidates are vector entries paired
// positionally with their messages. A non-empty roleFilter restricts
// candidates to that role. The sort is stable: tie scores keep insertion
// order, so identical inputs always rank identically.
func RankSimilar(queryVec []float64, queryTags []string, entries []types.MemoryEntry, messages []types.Message, roleFilter types.Role, limit int) []Scored {
	scored := make([]Scored, 0, len(entries))
	for _, entry := range entries {
		if entry.ID < 0 || entry.ID >= len(messages) {
			continue
		}
		msg := messages[entry.ID]
		if roleFilter != "" && msg.Role != roleFilter {
			continue
		}

		score := embeddingWeight*CosineSimilarity(queryVec, entry.Vector) +
			tagWeight*TagJaccard(msg.Tags, queryTags) +
			relevanceWeight*entry.RelevanceScore
		scored = append(scored, Scored{Message: msg, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// SelectProfileEntries picks the n best entries for a query. Entries whose
// tag set intersects the query tags are preferred: if at least one matches,
// only matches are ranked; otherwise the whole set is. Ranking is by
// (confidence + priority bonus) descending, then by age ascending.
func SelectProfileEntries(entries []types.ProfileEntry, queryTags []string, n int, now time.Time) []types.ProfileEntry {
	tagSet := make(map[string]bool, len(queryTags))
	for _, t := range queryTags {
		tagSet[t] = true
	}

	matching := make([]types.ProfileEntry, 0, len(entries))
	for _, e := range entries {
		for _, t := range e.Tags {
			if tagSet[t] {
				matching = append(matching, e)
				break
			}
		}
	}

	pool := matching
	if len(pool) == 0 {
		pool = append([]types.ProfileEntry(nil), entries...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		si, sj := selectionScore(pool[i]), selectionScore(pool[j])
		if si != sj {
			return si > sj
		}
		return pool[i].Age(now) < pool[j].Age(now)
	})

	if n > 0 && len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

func selectionScore(e types.ProfileEntry) float64 {
	bonus := standardBonus
	if e.Priority == types.PriorityRecent {
		bonus = recentBonus
	}
	return e.Confidence + bonus
}
