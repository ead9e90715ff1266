package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSnapshotIsolatedFromInput(t *testing.T) {
	prices := map[string]map[string]float64{
		"Golden Dawn": {"bookx": 2.5},
	}
	snapshot := NewOddsSnapshot(uuid.New(), time.Now(), prices)

	// Mutating the caller's map after construction must not leak in
	prices["Golden Dawn"]["bookx"] = 99.0
	prices["Intruder"] = map[string]float64{"bookx": 1.5}

	if got := snapshot.PricesFor("Golden Dawn")["bookx"]; got != 2.5 {
		t.Fatalf("snapshot mutated through input map: %v", got)
	}
	if snapshot.RunnerCount() != 1 {
		t.Fatalf("snapshot gained a runner: %d", snapshot.RunnerCount())
	}
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	snapshot := NewOddsSnapshot(uuid.New(), time.Now(), map[string]map[string]float64{
		"Golden Dawn": {"bookx": 2.5, "booky": 2.6},
		"Red Sea":     {"bookx": 4.0},
	})

	out := snapshot.PricesFor("Golden Dawn")
	out["bookx"] = 1.01
	if snapshot.PricesFor("Golden Dawn")["bookx"] != 2.5 {
		t.Fatalf("PricesFor leaked internal state")
	}

	book := snapshot.BookPrices("bookx")
	book["Golden Dawn"] = 1.01
	if snapshot.BookPrices("bookx")["Golden Dawn"] != 2.5 {
		t.Fatalf("BookPrices leaked internal state")
	}
}

func TestSnapshotIdentity(t *testing.T) {
	raceID := uuid.New()
	takenAt := time.Now()

	a := NewOddsSnapshot(raceID, takenAt, nil)
	b := NewOddsSnapshot(raceID, takenAt, nil)

	if a.ID() == b.ID() {
		t.Fatalf("snapshots must get unique IDs")
	}
	if a.RaceID() != raceID {
		t.Fatalf("race ID lost")
	}
	if !a.TakenAt().Equal(takenAt) {
		t.Fatalf("timestamp lost")
	}
}

func TestRaceHelpers(t *testing.T) {
	race := &Race{
		ID:             uuid.New(),
		ScheduledStart: time.Now().Add(time.Hour),
		Runners: []*Runner{
			{Name: "Golden Dawn"},
			{Name: "Red Sea"},
		},
	}

	if race.FieldSize() != 2 {
		t.Fatalf("FieldSize = %d", race.FieldSize())
	}
	if race.RunnerByName("Red Sea") == nil {
		t.Fatalf("RunnerByName failed")
	}
	if race.RunnerByName("Nobody") != nil {
		t.Fatalf("RunnerByName should return nil for unknown runner")
	}
	if !race.IsUpcoming() {
		t.Fatalf("race an hour out should be upcoming")
	}
}

func TestValueSignalRating(t *testing.T) {
	cases := []struct {
		magnitude float64
		want      int
	}{
		{0.0, 1},
		{0.03, 2},
		{0.05, 3},
		{0.10, 5},
		{0.50, 5},
	}
	for _, tc := range cases {
		s := ValueSignal{Magnitude: tc.magnitude}
		if got := s.Rating(); got != tc.want {
			t.Errorf("Rating(%v) = %d, want %d", tc.magnitude, got, tc.want)
		}
	}
}
