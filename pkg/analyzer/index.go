package analyzer

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// similarityThreshold is the minimum normalized edit-distance similarity
// for two names to count as fuzzy candidates when neither contains the
// other.
const similarityThreshold = 0.8

// Index maps normalized player names to the owned cards sharing that name,
// and supports an approximate lookup for names with no exact bucket. Build
// it once per library snapshot; it is read-only afterwards and safe for
// concurrent lookups.
type Index struct {
	buckets map[string][]*Card
	// order keeps every card in library insertion order for fuzzy scans.
	order []*Card
}

// BuildIndex constructs an index over a library snapshot. Bucket order
// preserves library insertion order.
func BuildIndex(library []Card) *Index {
	idx := &Index{buckets: make(map[string][]*Card, len(library))}
	for i := range library {
		card := &library[i]
		key := NormalizeKey(card.PlayerName)
		idx.buckets[key] = append(idx.buckets[key], card)
		idx.order = append(idx.order, card)
	}
	return idx
}

// NormalizeKey lowercases a name and strips everything outside [a-z0-9],
// so "De'Aaron Fox" and "deaaron fox" collide on the same bucket.
func NormalizeKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup returns the exact bucket for a (non-normalized) name. A missing
// key is not an error; the result is simply empty.
func (idx *Index) Lookup(name string) []*Card {
	return idx.buckets[NormalizeKey(name)]
}

// FuzzyCandidates scans the entire library for cards whose player name is
// approximately the given name: substring containment either way, or
// normalized Levenshtein similarity above the threshold.
func (idx *Index) FuzzyCandidates(name string) []*Card {
	key := NormalizeKey(name)
	if key == "" {
		return nil
	}
	var out []*Card
	for _, card := range idx.order {
		if fuzzyMatches(key, NormalizeKey(card.PlayerName)) {
			out = append(out, card)
		}
	}
	return out
}

func fuzzyMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return Similarity(a, b) > similarityThreshold
}

// Similarity is (maxLen - levenshtein) / maxLen over two normalized
// strings: 1.0 for identical strings, 0.0 for entirely different ones.
func Similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := matchr.Levenshtein(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}
