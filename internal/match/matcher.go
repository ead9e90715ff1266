package match

import (
	"fmt"

	"github.com/yourusername/value-scanner/internal/models"
)

// Result is a successful reconciliation of a raw name to a candidate
type Result struct {
	Candidate string  // the candidate exactly as supplied by the caller
	Score     float64 // 1.0 for exact/variant matches
}

// Matcher maps raw runner names to canonical candidates. A match is
// accepted only when its score clears SimilarityThreshold and beats the
// runner-up by at least AmbiguityMargin; ambiguity is surfaced as an
// error so the caller decides, never resolved by an arbitrary pick.
type Matcher struct {
	scorer              Scorer
	similarityThreshold float64
	ambiguityMargin     float64
}

// NewMatcher creates a matcher. A nil scorer selects the default
// composite scorer.
func NewMatcher(scorer Scorer, similarityThreshold, ambiguityMargin float64) *Matcher {
	if scorer == nil {
		scorer = NewDefaultScorer()
	}
	return &Matcher{
		scorer:              scorer,
		similarityThreshold: similarityThreshold,
		ambiguityMargin:     ambiguityMargin,
	}
}

// Match reconciles rawName against candidates. Exact matches on
// normalized forms or variants win immediately at score 1.0. Otherwise
// every candidate is scored against every variant of the raw name and
// the best must clear the threshold unambiguously.
func (m *Matcher) Match(rawName string, candidates []string) (Result, error) {
	variants := Variants(rawName)
	if len(variants) == 0 || len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: %q has no candidates", models.ErrNoMatch, rawName)
	}

	type candidateForm struct {
		original string
		forms    []string
	}
	normalized := make([]candidateForm, 0, len(candidates))
	for _, c := range candidates {
		normalized = append(normalized, candidateForm{original: c, forms: Variants(c)})
	}

	// Exact match on any (variant, candidate form) pair
	for _, v := range variants {
		for _, c := range normalized {
			for _, form := range c.forms {
				if v == form {
					return Result{Candidate: c.original, Score: 1.0}, nil
				}
			}
		}
	}

	// Similarity scoring: candidates keep their best score across the
	// raw name's variants. Strict inequality keeps the first candidate
	// on ties, so the ambiguity check below sees the tie as a zero gap.
	bestIdx, secondIdx := -1, -1
	scores := make([]float64, len(normalized))
	for i, c := range normalized {
		for _, v := range variants {
			for _, form := range c.forms {
				if s := m.scorer.Score(v, form); s > scores[i] {
					scores[i] = s
				}
			}
		}
		if bestIdx == -1 || scores[i] > scores[bestIdx] {
			secondIdx = bestIdx
			bestIdx = i
		} else if secondIdx == -1 || scores[i] > scores[secondIdx] {
			secondIdx = i
		}
	}

	best := scores[bestIdx]
	if best < m.similarityThreshold {
		return Result{}, fmt.Errorf("%w: %q best score %.3f below threshold %.3f",
			models.ErrNoMatch, rawName, best, m.similarityThreshold)
	}
	if secondIdx >= 0 {
		if gap := best - scores[secondIdx]; gap < m.ambiguityMargin {
			return Result{}, fmt.Errorf("%w: %q scores %.3f vs %.3f for %q and %q",
				models.ErrAmbiguousMatch, rawName,
				best, scores[secondIdx],
				normalized[bestIdx].original, normalized[secondIdx].original)
		}
	}

	return Result{Candidate: normalized[bestIdx].original, Score: best}, nil
}
