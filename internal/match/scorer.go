package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scorer scores the similarity of two normalized names in [0, 1].
// Implementations must be deterministic and symmetric.
type Scorer interface {
	Name() string
	Score(a, b string) float64
}

// LevenshteinScorer scores by edit-distance ratio:
// 1 - distance/len(longer). Equal strings score 1.
type LevenshteinScorer struct{}

// Name returns the scorer identifier
func (LevenshteinScorer) Name() string { return "levenshtein" }

// Score returns the edit-distance similarity ratio
func (LevenshteinScorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longer)
}

// TokenSetScorer scores by Jaccard overlap of the word sets. Useful
// when sources reorder words ("ROYAL CAFE" vs "CAFE ROYAL").
type TokenSetScorer struct{}

// Name returns the scorer identifier
func (TokenSetScorer) Name() string { return "token-set" }

// Score returns the Jaccard similarity of the token sets
func (TokenSetScorer) Score(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

// CompositeScorer takes the maximum score across its parts, letting an
// edit-distance scorer and a token scorer cover each other's blind
// spots.
type CompositeScorer struct {
	Scorers []Scorer
}

// NewDefaultScorer returns the scorer used when none is configured
func NewDefaultScorer() Scorer {
	return CompositeScorer{Scorers: []Scorer{LevenshteinScorer{}, TokenSetScorer{}}}
}

// ScorerByName resolves a configured scorer name. Unknown names fall
// back to the default composite.
func ScorerByName(name string) Scorer {
	switch name {
	case "levenshtein":
		return LevenshteinScorer{}
	case "token-set":
		return TokenSetScorer{}
	default:
		return NewDefaultScorer()
	}
}

// Name returns the scorer identifier
func (c CompositeScorer) Name() string { return "composite" }

// Score returns the highest score any part assigns
func (c CompositeScorer) Score(a, b string) float64 {
	best := 0.0
	for _, scorer := range c.Scorers {
		if s := scorer.Score(a, b); s > best {
			best = s
		}
	}
	return best
}
