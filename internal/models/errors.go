package models

import "errors"

// Custom errors
var (
	ErrInvalidOdds      = errors.New("invalid odds: decimal odds must be greater than 1.0")
	ErrNoMatch          = errors.New("no runner matched above the similarity threshold")
	ErrAmbiguousMatch   = errors.New("ambiguous match: top candidates within ambiguity margin")
	ErrInsufficientEdge = errors.New("insufficient edge: combined implied probability is 1.0 or higher")
	ErrEmptyRace        = errors.New("snapshot contains no runners")
	ErrNoSelections     = errors.New("stake plan requires at least one selection")
	ErrUnknownRunner    = errors.New("runner not found in race")
)
