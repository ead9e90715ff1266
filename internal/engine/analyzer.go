package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/value-scanner/internal/match"
	"github.com/yourusername/value-scanner/internal/models"
	"github.com/yourusername/value-scanner/internal/odds"
)

// SkippedRunner records a raw snapshot name the analyzer could not
// reconcile, so the caller can review or drop it.
type SkippedRunner struct {
	RawName string `json:"raw_name"`
	Reason  string `json:"reason"`
}

// RaceAnalysis is the engine's full output for one race snapshot
type RaceAnalysis struct {
	Race              *models.Race
	SnapshotID        uuid.UUID
	TakenAt           time.Time
	Markets           []*RunnerMarket
	Favourites        []*RunnerMarket
	Signals           []models.ValueSignal
	Opportunities     []models.EdgeOpportunity
	Skipped           []SkippedRunner
	SkippedBookmakers []string
}

// Analyzer runs the full pipeline for a snapshot: name reconciliation,
// per-bookmaker normalization, probability modeling, value and edge
// detection. It keeps no mutable state besides a result cache keyed by
// snapshot ID; snapshots are immutable, so a cached analysis never goes
// stale, and concurrent Analyze calls are safe.
type Analyzer struct {
	matcher  *match.Matcher
	model    *ProbabilityModel
	finder   *ValueFinder
	detector *EdgeDetector
	results  *cache.Cache
	logger   *logrus.Logger
}

// NewAnalyzer wires the pipeline. cacheTTL <= 0 disables caching.
func NewAnalyzer(matcher *match.Matcher, model *ProbabilityModel, finder *ValueFinder, detector *EdgeDetector, cacheTTL time.Duration, logger *logrus.Logger) *Analyzer {
	var results *cache.Cache
	if cacheTTL > 0 {
		results = cache.New(cacheTTL, 2*cacheTTL)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{
		matcher:  matcher,
		model:    model,
		finder:   finder,
		detector: detector,
		results:  results,
		logger:   logger,
	}
}

// Analyze runs the engine over one race snapshot. Unresolvable runner
// names and invalid bookmaker price sets degrade the analysis rather
// than failing it; only an empty snapshot is an error.
func (a *Analyzer) Analyze(race *models.Race, snapshot *models.OddsSnapshot) (*RaceAnalysis, error) {
	if race == nil || snapshot == nil {
		return nil, fmt.Errorf("race and snapshot are required")
	}
	if snapshot.RunnerCount() == 0 {
		return nil, fmt.Errorf("race %s: %w", race.ID, models.ErrEmptyRace)
	}

	if a.results != nil {
		if cached, ok := a.results.Get(snapshot.ID().String()); ok {
			return cached.(*RaceAnalysis), nil
		}
	}

	analysis := &RaceAnalysis{
		Race:       race,
		SnapshotID: snapshot.ID(),
		TakenAt:    snapshot.TakenAt(),
	}

	prices, best := a.reconcile(race, snapshot, analysis)
	a.buildMarkets(race, prices, best, analysis)
	a.assignModelProbabilities(analysis)

	analysis.Favourites = Favourites(analysis.Markets)
	analysis.Signals = a.finder.Find(snapshot.ID(), analysis.Markets)

	// Edge determination needs every roster runner priced; a partial
	// sum understates the book and manufactures phantom edges.
	if len(analysis.Markets) == race.FieldSize() {
		if opp, ok := a.detector.Detect(race.ID, snapshot.ID(), analysis.Markets); ok {
			analysis.Opportunities = append(analysis.Opportunities, *opp)
		}
	}

	if a.results != nil {
		a.results.Set(snapshot.ID().String(), analysis, cache.DefaultExpiration)
	}
	return analysis, nil
}

// CachedCount returns the number of cached analyses
func (a *Analyzer) CachedCount() int {
	if a.results == nil {
		return 0
	}
	return a.results.ItemCount()
}

// reconcile maps raw snapshot names onto the race roster, recording
// skips for names the matcher rejects. It returns canonical-name price
// maps and best prices.
func (a *Analyzer) reconcile(race *models.Race, snapshot *models.OddsSnapshot, analysis *RaceAnalysis) (map[string]map[string]float64, map[string]odds.BestPrice) {
	candidates := race.RunnerNames()
	rawBest := odds.BestPrices(snapshot)

	prices := make(map[string]map[string]float64)
	best := make(map[string]odds.BestPrice)

	rawNames := snapshot.RunnerNames()
	sort.Strings(rawNames)
	for _, raw := range rawNames {
		result, err := a.matcher.Match(raw, candidates)
		if err != nil {
			analysis.Skipped = append(analysis.Skipped, SkippedRunner{RawName: raw, Reason: err.Error()})
			a.logger.WithFields(logrus.Fields{
				"race":   race.Venue,
				"number": race.Number,
				"runner": raw,
			}).WithError(err).Debug("Skipping unmatched runner")
			continue
		}
		if _, dup := prices[result.Candidate]; dup {
			analysis.Skipped = append(analysis.Skipped, SkippedRunner{
				RawName: raw,
				Reason:  fmt.Sprintf("duplicate match: %q already claimed by another source name", result.Candidate),
			})
			continue
		}
		prices[result.Candidate] = snapshot.PricesFor(raw)
		if bp, ok := rawBest[raw]; ok {
			best[result.Candidate] = bp
		}
	}
	return prices, best
}

// buildMarkets normalizes each bookmaker's price set over the matched
// runners and assembles per-runner market views. A bookmaker with an
// invalid price aborts only that bookmaker.
func (a *Analyzer) buildMarkets(race *models.Race, prices map[string]map[string]float64, best map[string]odds.BestPrice, analysis *RaceAnalysis) {
	bookPrices := make(map[string]map[string]float64)
	for runner, books := range prices {
		for book, price := range books {
			if bookPrices[book] == nil {
				bookPrices[book] = make(map[string]float64)
			}
			bookPrices[book][runner] = price
		}
	}

	implied := make(map[string]map[string]float64) // runner -> book -> prob
	consensusSum := make(map[string]float64)
	consensusCount := make(map[string]int)

	books := make([]string, 0, len(bookPrices))
	for book := range bookPrices {
		books = append(books, book)
	}
	sort.Strings(books)
	for _, book := range books {
		normalized, err := odds.Normalize(bookPrices[book])
		if err != nil {
			analysis.SkippedBookmakers = append(analysis.SkippedBookmakers, book)
			a.logger.WithFields(logrus.Fields{
				"race":      race.Venue,
				"number":    race.Number,
				"bookmaker": book,
			}).WithError(err).Warn("Skipping bookmaker with invalid prices")
			continue
		}
		for runner, prob := range normalized {
			if implied[runner] == nil {
				implied[runner] = make(map[string]float64)
			}
			implied[runner][book] = prob
			consensusSum[runner] += prob
			consensusCount[runner]++
		}
	}

	for _, runner := range race.Runners {
		runnerPrices, ok := prices[runner.Name]
		if !ok || consensusCount[runner.Name] == 0 {
			continue
		}
		market := &RunnerMarket{
			Runner:    runner,
			Consensus: consensusSum[runner.Name] / float64(consensusCount[runner.Name]),
			Best:      best[runner.Name],
			Odds:      runnerPrices,
			Implied:   implied[runner.Name],
		}
		// Drop prices from bookmakers whose whole set was rejected
		for book := range market.Odds {
			if _, ok := market.Implied[book]; !ok {
				delete(market.Odds, book)
			}
		}
		analysis.Markets = append(analysis.Markets, market)
	}
}

// assignModelProbabilities picks the probability source in priority
// order: explicit model probability when the roster carries one, a
// softmax over form scores when any runner has form, and market
// consensus as the fallback.
func (a *Analyzer) assignModelProbabilities(analysis *RaceAnalysis) {
	hasForm := false
	for _, market := range analysis.Markets {
		if market.Runner.GetFormScore() > 0 {
			hasForm = true
			break
		}
	}

	if hasForm {
		scores := make([]float64, len(analysis.Markets))
		for i, market := range analysis.Markets {
			scores[i] = market.Runner.GetFormScore()
		}
		probs := a.model.Probabilities(scores)
		if favIdx := a.favouriteIndex(analysis.Markets); favIdx >= 0 {
			probs = a.model.ApplyFavouriteCorrection(probs, favIdx)
		}
		for i, market := range analysis.Markets {
			market.ModelProb = probs[i]
		}
	} else {
		for _, market := range analysis.Markets {
			market.ModelProb = market.Consensus
		}
	}

	for _, market := range analysis.Markets {
		if market.Runner.HasModelProb() {
			market.ModelProb = market.Runner.GetModelProb()
		}
	}
}

// favouriteIndex returns the index of the single shortest-priced
// market, or -1 when there is none or the favourite is tied.
func (a *Analyzer) favouriteIndex(markets []*RunnerMarket) int {
	favourites := Favourites(markets)
	if len(favourites) != 1 {
		return -1
	}
	for i, market := range markets {
		if market == favourites[0] {
			return i
		}
	}
	return -1
}
