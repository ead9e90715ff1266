// Package service orchestrates one full scan cycle: fetch race cards,
// run the analysis pipeline over each, recommend stakes, and assemble
// the report.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/value-scanner/internal/dutching"
	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/feed"
	"github.com/yourusername/value-scanner/internal/metrics"
	"github.com/yourusername/value-scanner/internal/models"
	"github.com/yourusername/value-scanner/internal/report"
)

// ScanConfig narrows the scan to fields worth betting into
type ScanConfig struct {
	FieldMin     int
	FieldMax     int
	UpcomingOnly bool
}

// ScanResult is the outcome of one scan cycle
type ScanResult struct {
	StartedAt     time.Time
	Duration      time.Duration
	RacesFetched  int
	RacesScanned  int
	RacesFiltered int
	Summaries     []report.RaceSummary
	Digest        string
}

// ScanService runs the fetch-analyze-stake-report cycle
type ScanService struct {
	source     feed.Source
	analyzer   *engine.Analyzer
	calculator *dutching.Calculator
	assembler  *report.Assembler
	cfg        ScanConfig
	logger     *logrus.Logger

	// rosters from the latest poll, so stream snapshots can be
	// matched back to their race between cycles
	mu    sync.RWMutex
	races map[uuid.UUID]*models.Race
}

// NewScanService wires a scan service
func NewScanService(
	source feed.Source,
	analyzer *engine.Analyzer,
	calculator *dutching.Calculator,
	assembler *report.Assembler,
	cfg ScanConfig,
	logger *logrus.Logger,
) *ScanService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScanService{
		source:     source,
		analyzer:   analyzer,
		calculator: calculator,
		assembler:  assembler,
		cfg:        cfg,
		logger:     logger,
		races:      make(map[uuid.UUID]*models.Race),
	}
}

// Scan runs one full cycle. Per-race failures degrade the result
// rather than aborting it; only a feed failure is an error.
func (s *ScanService) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()

	cards, err := s.source.FetchCards(ctx)
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FeedFetchesTotal.WithLabelValues("success").Inc()

	result := &ScanResult{
		StartedAt:    start,
		RacesFetched: len(cards),
	}

	s.indexRaces(cards)

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.inScope(card.Race) {
			result.RacesFiltered++
			continue
		}

		summary, err := s.scanRace(card)
		if err != nil {
			if errors.Is(err, models.ErrEmptyRace) {
				result.RacesFiltered++
				continue
			}
			s.logger.WithFields(logrus.Fields{
				"venue":  card.Race.Venue,
				"number": card.Race.Number,
			}).WithError(err).Warn("Race scan failed")
			continue
		}

		result.RacesScanned++
		result.Summaries = append(result.Summaries, summary)
	}

	result.Duration = time.Since(start)
	result.Digest = s.assembler.Digest(result.Summaries)

	metrics.RacesTracked.Set(float64(result.RacesScanned))
	metrics.CachedAnalyses.Set(float64(s.analyzer.CachedCount()))
	metrics.LastScanUnixTime.Set(float64(time.Now().Unix()))
	metrics.ScanDuration.Observe(result.Duration.Seconds())

	s.logger.WithFields(logrus.Fields{
		"fetched":  result.RacesFetched,
		"scanned":  result.RacesScanned,
		"filtered": result.RacesFiltered,
		"duration": result.Duration.String(),
	}).Info("Scan cycle complete")

	return result, nil
}

// ScanSnapshot re-analyzes a single race when a stream update delivers
// fresh prices between poll cycles. Snapshots for races the latest
// poll never fetched, or that fall outside the scan filters, are
// dropped with a nil summary.
func (s *ScanService) ScanSnapshot(snapshot *models.OddsSnapshot) (*report.RaceSummary, error) {
	s.mu.RLock()
	race := s.races[snapshot.RaceID()]
	s.mu.RUnlock()

	if race == nil {
		s.logger.WithField("race_id", snapshot.RaceID()).
			Debug("Stream snapshot for unknown race dropped")
		return nil, nil
	}
	if !s.inScope(race) {
		return nil, nil
	}

	summary, err := s.scanRace(feed.RaceCard{Race: race, Snapshot: snapshot})
	if err != nil {
		if errors.Is(err, models.ErrEmptyRace) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// indexRaces records the fetched rosters for stream lookups
func (s *ScanService) indexRaces(cards []feed.RaceCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range cards {
		s.races[card.Race.ID] = card.Race
	}
}

// scanRace analyzes one race card and builds its summary
func (s *ScanService) scanRace(card feed.RaceCard) (report.RaceSummary, error) {
	analysisStart := time.Now()
	analysis, err := s.analyzer.Analyze(card.Race, card.Snapshot)
	if err != nil {
		return report.RaceSummary{}, err
	}
	metrics.AnalysisDuration.Observe(time.Since(analysisStart).Seconds())
	metrics.SnapshotsAnalyzedTotal.Inc()
	metrics.RunnersSkippedTotal.Add(float64(len(analysis.Skipped)))
	metrics.BookmakersSkippedTotal.Add(float64(len(analysis.SkippedBookmakers)))

	hasDud := false
	for _, signal := range analysis.Signals {
		metrics.ValueSignalsTotal.WithLabelValues(string(signal.Kind)).Inc()
		if signal.Kind == models.SignalDudFavourite {
			hasDud = true
		}
	}
	metrics.EdgeOpportunitiesTotal.Add(float64(len(analysis.Opportunities)))

	// A dud favourite is the strongest dutching setup: spread stakes
	// across everything else in the field.
	var plan *models.StakePlan
	if hasDud {
		plan = s.calculator.DudFavouriteCombination(analysis)
	}
	if plan == nil {
		plan = s.calculator.BestCombination(analysis, false)
	}
	if plan != nil {
		metrics.StakePlansTotal.Inc()
	}

	return s.assembler.Summarize(analysis, plan), nil
}

// inScope applies the field-size and start-time filters
func (s *ScanService) inScope(race *models.Race) bool {
	if s.cfg.UpcomingOnly && !race.IsUpcoming() {
		return false
	}
	size := race.FieldSize()
	if s.cfg.FieldMin > 0 && size < s.cfg.FieldMin {
		return false
	}
	if s.cfg.FieldMax > 0 && size > s.cfg.FieldMax {
		return false
	}
	return true
}
