// Package matcher picks which homework sentence a recording was most likely
// reading. Matching is deliberately lenient: grading never refuses to run, it
// runs against the best guess, falling back to the first candidate.
package matcher

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the minimum similarity (0-1) a candidate must reach to
// be preferred over the first-candidate fallback. Kept intentionally low so
// even rough transcriptions resolve to a sentence.
const DefaultThreshold = 0.1

// Matcher scores transcribed text against candidate sentences.
type Matcher struct {
	threshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides the similarity threshold.
func WithThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

// New creates a Matcher with the default threshold.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the candidate most similar to transcribed, or candidates[0]
// when transcribed is empty or no candidate clears the threshold. An empty
// candidate list yields "".
func (m *Matcher) Match(transcribed string, candidates []string) string {
	best, _, _ := m.BestMatch(transcribed, candidates)
	return best
}

// BestMatch is Match plus the winning similarity score and whether the
// threshold was actually cleared (false means the fallback was used).
func (m *Matcher) BestMatch(transcribed string, candidates []string) (string, float64, bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}
	transcribed = strings.TrimSpace(transcribed)
	if transcribed == "" {
		return candidates[0], 0, false
	}

	bestIdx := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := Similarity(transcribed, c)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < m.threshold {
		return candidates[0], bestScore, false
	}
	return candidates[bestIdx], bestScore, true
}

// Similarity is a normalized Levenshtein ratio in [0,1]: 1 for identical
// strings, 0 for completely different ones. Comparison is rune-based so
// Hangul syllables count as single units.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(max)
}
