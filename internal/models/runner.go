package models

import (
	"github.com/google/uuid"
)

// Runner represents a runner (horse) in a race.
// Name is the canonical identity; raw names from odds sources are
// reconciled against it by the name matcher.
type Runner struct {
	ID        uuid.UUID `json:"id" validate:"required,uuid4"`
	RaceID    uuid.UUID `json:"race_id" validate:"required,uuid4"`
	Number    int       `json:"number" validate:"required,gt=0"`
	Barrier   int       `json:"barrier"`
	Name      string    `json:"name" validate:"required"`
	Form      string    `json:"form"`
	FormScore *float64  `json:"form_score"`
	ModelProb *float64  `json:"model_prob"`
}

// GetFormScore returns the form score or 0 if nil
func (r *Runner) GetFormScore() float64 {
	if r.FormScore == nil {
		return 0
	}
	return *r.FormScore
}

// GetModelProb returns the model probability or 0 if nil
func (r *Runner) GetModelProb() float64 {
	if r.ModelProb == nil {
		return 0
	}
	return *r.ModelProb
}

// HasModelProb reports whether a model probability has been assigned
func (r *Runner) HasModelProb() bool {
	return r.ModelProb != nil
}
