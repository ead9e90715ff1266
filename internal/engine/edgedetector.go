package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/value-scanner/internal/models"
)

// EdgeDetector scans a race's best available prices for dutching
// edges: when the implied probabilities at each runner's best price
// sum below 1.0, backing every runner in proportion locks in a profit.
type EdgeDetector struct {
	minEdge float64 // emit only when edge exceeds this (0 = any genuine edge)
}

// NewEdgeDetector creates a detector with the given minimum edge
func NewEdgeDetector(minEdge float64) *EdgeDetector {
	return &EdgeDetector{minEdge: minEdge}
}

// Detect computes the dutch book over the full runner set and returns
// an opportunity when the edge (1 - book) exceeds the minimum. The
// determination is atomic per snapshot: if any runner lacks a usable
// best price the sum is meaningless and no opportunity is reported,
// because removing one runner's implied probability understates the
// book.
func (d *EdgeDetector) Detect(raceID, snapshotID uuid.UUID, markets []*RunnerMarket) (*models.EdgeOpportunity, bool) {
	if len(markets) == 0 {
		return nil, false
	}

	legs := make([]models.EdgeLeg, 0, len(markets))
	book := 0.0
	for _, market := range markets {
		if market.Best.Odds <= 1.0 {
			return nil, false
		}
		book += 1.0 / market.Best.Odds
		legs = append(legs, models.EdgeLeg{
			RunnerID:   market.Runner.ID,
			RunnerName: market.Runner.Name,
			Bookmaker:  market.Best.Bookmaker,
			Odds:       market.Best.Odds,
		})
	}

	edge := 1.0 - book
	if edge <= d.minEdge {
		return nil, false
	}

	sort.Slice(legs, func(i, j int) bool { return legs[i].RunnerName < legs[j].RunnerName })
	return &models.EdgeOpportunity{
		RaceID:     raceID,
		SnapshotID: snapshotID,
		Legs:       legs,
		DutchBook:  book,
		Edge:       edge,
	}, true
}
