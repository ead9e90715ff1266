package models

import (
	"time"

	"github.com/google/uuid"
)

// Race represents a single race with its roster of runners
type Race struct {
	ID             uuid.UUID `json:"id" validate:"required,uuid4"`
	Venue          string    `json:"venue" validate:"required"`
	Number         int       `json:"number" validate:"required,gt=0"`
	Name           string    `json:"name"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	Runners        []*Runner `json:"runners"`
}

// FieldSize returns the number of runners in the race
func (r *Race) FieldSize() int {
	return len(r.Runners)
}

// RunnerByName returns the runner with the given canonical name, or nil
func (r *Race) RunnerByName(name string) *Runner {
	for _, runner := range r.Runners {
		if runner.Name == name {
			return runner
		}
	}
	return nil
}

// RunnerNames returns the canonical names of all runners in roster order
func (r *Race) RunnerNames() []string {
	names := make([]string, len(r.Runners))
	for i, runner := range r.Runners {
		names[i] = runner.Name
	}
	return names
}

// IsUpcoming checks if the race hasn't started yet
func (r *Race) IsUpcoming() bool {
	return time.Now().Before(r.ScheduledStart)
}

// TimeToStart returns the duration until race start
func (r *Race) TimeToStart() time.Duration {
	return time.Until(r.ScheduledStart)
}
