package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/value-scanner/internal/models"
	"github.com/yourusername/value-scanner/internal/odds"
)

// ValueConfig holds the thresholds for value and dud-favourite
// detection. Zero values are replaced by DefaultValueConfig at
// construction; the defaults are calibration starting points, not
// policy.
type ValueConfig struct {
	ValueThreshold float64 // min (model - implied) for a value pick
	DudMargin      float64 // min (implied - model) to flag the favourite
	FavOddsMax     float64 // only favourites shorter than this are dud candidates
	MinModelProb   float64 // ignore no-hopers regardless of edge
	OddsMin        float64 // ignore prices below this
	OddsMax        float64 // ignore prices above this
}

// DefaultValueConfig returns the standard detection thresholds
func DefaultValueConfig() ValueConfig {
	return ValueConfig{
		ValueThreshold: 0.03,
		DudMargin:      0.05,
		FavOddsMax:     5.0,
		MinModelProb:   0.10,
		OddsMin:        1.5,
		OddsMax:        30.0,
	}
}

// RunnerMarket is one runner's reconciled market view within a
// snapshot: its decimal odds and overround-removed implied probability
// per bookmaker, the best available price, and the model probability.
type RunnerMarket struct {
	Runner    *models.Runner
	ModelProb float64
	Consensus float64
	Best      odds.BestPrice
	Odds      map[string]float64 // bookmaker -> decimal odds
	Implied   map[string]float64 // bookmaker -> implied probability, overround removed
}

// ValueFinder flags value picks and dud favourites. It holds no state
// between calls and never mutates its inputs, so running it twice on
// the same snapshot yields the same signals.
type ValueFinder struct {
	cfg ValueConfig
}

// NewValueFinder creates a value finder with the given thresholds
func NewValueFinder(cfg ValueConfig) *ValueFinder {
	return &ValueFinder{cfg: cfg}
}

// Find evaluates every runner against every bookmaker. A runner can be
// a value pick at one bookmaker and neutral at another; favourites tied
// on shortest price are all evaluated for the dud condition. Signals
// are ordered by magnitude descending, then runner name, then
// bookmaker, so output is reproducible.
func (f *ValueFinder) Find(snapshotID uuid.UUID, markets []*RunnerMarket) []models.ValueSignal {
	var signals []models.ValueSignal

	for _, market := range markets {
		for _, book := range sortedBookmakers(market.Implied) {
			implied := market.Implied[book]
			price := market.Odds[book]

			delta := market.ModelProb - implied
			if delta < f.cfg.ValueThreshold {
				continue
			}
			if market.ModelProb < f.cfg.MinModelProb {
				continue
			}
			if price < f.cfg.OddsMin || price > f.cfg.OddsMax {
				continue
			}
			signals = append(signals, models.ValueSignal{
				SnapshotID:  snapshotID,
				RunnerID:    market.Runner.ID,
				RunnerName:  market.Runner.Name,
				Kind:        models.SignalValuePick,
				Bookmaker:   book,
				Odds:        price,
				ModelProb:   market.ModelProb,
				ImpliedProb: implied,
				Magnitude:   delta,
			})
		}
	}

	for _, favourite := range Favourites(markets) {
		signals = append(signals, f.dudSignals(snapshotID, favourite)...)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Magnitude != signals[j].Magnitude {
			return signals[i].Magnitude > signals[j].Magnitude
		}
		if signals[i].RunnerName != signals[j].RunnerName {
			return signals[i].RunnerName < signals[j].RunnerName
		}
		return signals[i].Bookmaker < signals[j].Bookmaker
	})
	return signals
}

// dudSignals checks one favourite for the dud condition at each
// bookmaker quoting it.
func (f *ValueFinder) dudSignals(snapshotID uuid.UUID, market *RunnerMarket) []models.ValueSignal {
	var signals []models.ValueSignal
	for _, book := range sortedBookmakers(market.Implied) {
		price := market.Odds[book]
		if f.cfg.FavOddsMax > 0 && price > f.cfg.FavOddsMax {
			continue
		}
		gap := market.Implied[book] - market.ModelProb
		if gap < f.cfg.DudMargin {
			continue
		}
		signals = append(signals, models.ValueSignal{
			SnapshotID:  snapshotID,
			RunnerID:    market.Runner.ID,
			RunnerName:  market.Runner.Name,
			Kind:        models.SignalDudFavourite,
			Bookmaker:   book,
			Odds:        price,
			ModelProb:   market.ModelProb,
			ImpliedProb: market.Implied[book],
			Magnitude:   gap,
		})
	}
	return signals
}

// Favourites returns the shortest-priced runners by best available
// odds. Ties all count as favourites and are evaluated independently.
func Favourites(markets []*RunnerMarket) []*RunnerMarket {
	shortest := 0.0
	for _, market := range markets {
		if market.Best.Odds <= 1.0 {
			continue
		}
		if shortest == 0 || market.Best.Odds < shortest {
			shortest = market.Best.Odds
		}
	}
	if shortest == 0 {
		return nil
	}

	var favourites []*RunnerMarket
	for _, market := range markets {
		if market.Best.Odds == shortest {
			favourites = append(favourites, market)
		}
	}
	return favourites
}

func sortedBookmakers(m map[string]float64) []string {
	books := make([]string, 0, len(m))
	for book := range m {
		books = append(books, book)
	}
	sort.Strings(books)
	return books
}
