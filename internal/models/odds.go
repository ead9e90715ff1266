package models

import (
	"time"

	"github.com/google/uuid"
)

// OddsSnapshot is an immutable point-in-time record of bookmaker odds
// for one race: raw runner name -> bookmaker -> decimal odds.
// Snapshots are never mutated after creation; a scrape/update cycle
// produces a new snapshot that supersedes the previous one.
type OddsSnapshot struct {
	id      uuid.UUID
	raceID  uuid.UUID
	takenAt time.Time
	prices  map[string]map[string]float64
}

// NewOddsSnapshot creates a snapshot, deep-copying the supplied prices
// so later changes by the caller cannot leak into the record.
func NewOddsSnapshot(raceID uuid.UUID, takenAt time.Time, prices map[string]map[string]float64) *OddsSnapshot {
	copied := make(map[string]map[string]float64, len(prices))
	for runner, books := range prices {
		inner := make(map[string]float64, len(books))
		for book, odds := range books {
			inner[book] = odds
		}
		copied[runner] = inner
	}
	return &OddsSnapshot{
		id:      uuid.New(),
		raceID:  raceID,
		takenAt: takenAt,
		prices:  copied,
	}
}

// ID returns the snapshot identifier
func (s *OddsSnapshot) ID() uuid.UUID {
	return s.id
}

// RaceID returns the identifier of the race the snapshot belongs to
func (s *OddsSnapshot) RaceID() uuid.UUID {
	return s.raceID
}

// TakenAt returns the capture time of the snapshot
func (s *OddsSnapshot) TakenAt() time.Time {
	return s.takenAt
}

// RunnerCount returns the number of runners with at least one price
func (s *OddsSnapshot) RunnerCount() int {
	return len(s.prices)
}

// RunnerNames returns the raw runner names present in the snapshot
func (s *OddsSnapshot) RunnerNames() []string {
	names := make([]string, 0, len(s.prices))
	for name := range s.prices {
		names = append(names, name)
	}
	return names
}

// PricesFor returns a copy of the bookmaker odds for a raw runner name
func (s *OddsSnapshot) PricesFor(runner string) map[string]float64 {
	books, ok := s.prices[runner]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(books))
	for book, odds := range books {
		out[book] = odds
	}
	return out
}

// Bookmakers returns the set of bookmakers quoting at least one runner
func (s *OddsSnapshot) Bookmakers() []string {
	seen := make(map[string]struct{})
	for _, books := range s.prices {
		for book := range books {
			seen[book] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for book := range seen {
		out = append(out, book)
	}
	return out
}

// BookPrices returns a copy of runner -> odds for a single bookmaker,
// including only runners that bookmaker has priced.
func (s *OddsSnapshot) BookPrices(bookmaker string) map[string]float64 {
	out := make(map[string]float64)
	for runner, books := range s.prices {
		if odds, ok := books[bookmaker]; ok {
			out[runner] = odds
		}
	}
	return out
}
