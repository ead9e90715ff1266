package models

import (
	"github.com/google/uuid"
)

// SignalKind classifies a value signal
type SignalKind string

const (
	SignalValuePick    SignalKind = "value-pick"
	SignalDudFavourite SignalKind = "dud-favourite"
)

// ValueSignal flags a runner whose market price disagrees with the
// model. Magnitude is the probability delta that triggered the signal:
// model - implied for value picks, implied - model for dud favourites.
type ValueSignal struct {
	SnapshotID  uuid.UUID  `json:"snapshot_id"`
	RunnerID    uuid.UUID  `json:"runner_id"`
	RunnerName  string     `json:"runner_name"`
	Kind        SignalKind `json:"kind"`
	Bookmaker   string     `json:"bookmaker"`
	Odds        float64    `json:"odds"`
	ModelProb   float64    `json:"model_prob"`
	ImpliedProb float64    `json:"implied_prob"`
	Magnitude   float64    `json:"magnitude"`
}

// Rating returns a 1-5 star value rating derived from the magnitude
func (v *ValueSignal) Rating() int {
	rating := int(v.Magnitude*50) + 1
	if rating > 5 {
		return 5
	}
	if rating < 1 {
		return 1
	}
	return rating
}

// FairOdds returns the decimal odds implied by the model probability
func (v *ValueSignal) FairOdds() float64 {
	if v.ModelProb <= 0 {
		return 999
	}
	return 1.0 / v.ModelProb
}

// EdgeLeg is one (runner, bookmaker, odds) component of an edge opportunity
type EdgeLeg struct {
	RunnerID   uuid.UUID `json:"runner_id"`
	RunnerName string    `json:"runner_name"`
	Bookmaker  string    `json:"bookmaker"`
	Odds       float64   `json:"odds"`
}

// EdgeOpportunity records a race where the combined best prices across
// bookmakers imply a dutching edge. DutchBook is the sum of implied
// probabilities at best prices; Edge = 1 - DutchBook.
type EdgeOpportunity struct {
	RaceID     uuid.UUID `json:"race_id"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
	Legs       []EdgeLeg `json:"legs"`
	DutchBook  float64   `json:"dutch_book"`
	Edge       float64   `json:"edge"`
}

// ProfitPercent returns the guaranteed profit as a percentage of outlay
// when dutching every leg at its quoted price.
func (e *EdgeOpportunity) ProfitPercent() float64 {
	if e.DutchBook <= 0 {
		return 0
	}
	return (1.0/e.DutchBook - 1.0) * 100
}
