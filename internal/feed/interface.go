// Package feed acquires race rosters and odds snapshots from external
// sources and hands them to the engine as immutable value objects. It
// owns all I/O; the engine itself never blocks.
package feed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/value-scanner/internal/models"
)

// RaceCard couples a race roster with its latest odds snapshot
type RaceCard struct {
	Race     *models.Race
	Snapshot *models.OddsSnapshot
}

// Source defines the interface for fetching race cards from a provider
type Source interface {
	// FetchCards retrieves the current set of races with fresh odds snapshots
	FetchCards(ctx context.Context) ([]RaceCard, error)

	// Name returns the name of the source
	Name() string
}

// raceDocument is the wire format shared by the HTTP feed and file
// sources: one race with per-runner bookmaker prices.
type raceDocument struct {
	Venue          string           `json:"venue"`
	RaceNumber     int              `json:"race_number"`
	RaceName       string           `json:"race_name"`
	ScheduledStart time.Time        `json:"scheduled_start"`
	TakenAt        time.Time        `json:"taken_at"`
	Runners        []runnerDocument `json:"runners"`
}

type runnerDocument struct {
	Number    int                `json:"number"`
	Barrier   int                `json:"barrier"`
	Name      string             `json:"name"`
	Form      string             `json:"form"`
	FormScore *float64           `json:"form_score"`
	ModelProb *float64           `json:"model_prob"`
	Odds      map[string]float64 `json:"odds"`
}

// toCard converts a wire document into domain objects. The snapshot's
// price map is keyed by the raw runner names exactly as the source
// spelled them; reconciliation against the roster happens downstream.
func (d *raceDocument) toCard() RaceCard {
	race := &models.Race{
		ID:             uuid.New(),
		Venue:          d.Venue,
		Number:         d.RaceNumber,
		Name:           d.RaceName,
		ScheduledStart: d.ScheduledStart,
	}

	prices := make(map[string]map[string]float64, len(d.Runners))
	for _, r := range d.Runners {
		runner := &models.Runner{
			ID:        uuid.New(),
			RaceID:    race.ID,
			Number:    r.Number,
			Barrier:   r.Barrier,
			Name:      r.Name,
			Form:      r.Form,
			FormScore: r.FormScore,
			ModelProb: r.ModelProb,
		}
		race.Runners = append(race.Runners, runner)
		if len(r.Odds) > 0 {
			prices[r.Name] = r.Odds
		}
	}

	takenAt := d.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	return RaceCard{
		Race:     race,
		Snapshot: models.NewOddsSnapshot(race.ID, takenAt, prices),
	}
}
