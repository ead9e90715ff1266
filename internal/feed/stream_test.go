package feed

import (
	"testing"

	"github.com/google/uuid"
)

func TestApplyUpdateBuildsSnapshot(t *testing.T) {
	client := NewStreamClient("ws://example.com/stream", "", testLogger())
	raceID := uuid.New()

	snapshot, err := client.applyUpdate(&priceUpdate{
		Op:     "ocm",
		RaceID: raceID.String(),
		Changes: []priceChange{
			{Runner: "Golden Dawn", Bookmaker: "bookx", Odds: 2.4},
			{Runner: "Red Sea", Bookmaker: "bookx", Odds: 4.2},
		},
	})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}
	if snapshot.RaceID() != raceID {
		t.Fatalf("snapshot bound to wrong race")
	}
	if snapshot.RunnerCount() != 2 {
		t.Fatalf("expected 2 runners, got %d", snapshot.RunnerCount())
	}
}

func TestApplyUpdateMergesIncrementals(t *testing.T) {
	client := NewStreamClient("ws://example.com/stream", "", testLogger())
	raceID := uuid.New()

	first, err := client.applyUpdate(&priceUpdate{
		RaceID:  raceID.String(),
		Changes: []priceChange{{Runner: "Golden Dawn", Bookmaker: "bookx", Odds: 2.4}},
	})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}

	second, err := client.applyUpdate(&priceUpdate{
		RaceID:  raceID.String(),
		Changes: []priceChange{{Runner: "Golden Dawn", Bookmaker: "bookx", Odds: 2.6}},
	})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}

	// Later moves land in new snapshots only
	if got := second.PricesFor("Golden Dawn")["bookx"]; got != 2.6 {
		t.Fatalf("expected merged price 2.6, got %v", got)
	}
	if got := first.PricesFor("Golden Dawn")["bookx"]; got != 2.4 {
		t.Fatalf("earlier snapshot mutated: %v", got)
	}
	if first.ID() == second.ID() {
		t.Fatalf("each update must yield a distinct snapshot")
	}
}

func TestApplyUpdateFullImageReplaces(t *testing.T) {
	client := NewStreamClient("ws://example.com/stream", "", testLogger())
	raceID := uuid.New()

	_, err := client.applyUpdate(&priceUpdate{
		RaceID:  raceID.String(),
		Changes: []priceChange{{Runner: "Golden Dawn", Bookmaker: "bookx", Odds: 2.4}},
	})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}

	replaced, err := client.applyUpdate(&priceUpdate{
		RaceID:    raceID.String(),
		FullImage: true,
		Changes:   []priceChange{{Runner: "Red Sea", Bookmaker: "bookx", Odds: 4.2}},
	})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}
	if replaced.RunnerCount() != 1 {
		t.Fatalf("full image must replace prior state, got %d runners", replaced.RunnerCount())
	}
}

func TestApplyUpdateRejectsBadRaceID(t *testing.T) {
	client := NewStreamClient("ws://example.com/stream", "", testLogger())

	if _, err := client.applyUpdate(&priceUpdate{RaceID: "not-a-uuid", FullImage: true}); err == nil {
		t.Fatalf("expected error for malformed race id")
	}
}

func TestApplyUpdateEmptyIsNoop(t *testing.T) {
	client := NewStreamClient("ws://example.com/stream", "", testLogger())

	snapshot, err := client.applyUpdate(&priceUpdate{RaceID: uuid.New().String()})
	if err != nil {
		t.Fatalf("applyUpdate failed: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("empty update must not emit a snapshot")
	}
}
