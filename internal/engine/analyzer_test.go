package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/value-scanner/internal/match"
	"github.com/yourusername/value-scanner/internal/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func newTestAnalyzer(cacheTTL time.Duration) *Analyzer {
	matcher := match.NewMatcher(nil, 0.85, 0.05)
	return NewAnalyzer(matcher, NewProbabilityModel(), NewValueFinder(DefaultValueConfig()), NewEdgeDetector(0), cacheTTL, nil)
}

func testRace() *models.Race {
	raceID := uuid.New()
	race := &models.Race{
		ID:             raceID,
		Venue:          "Ascot",
		Number:         3,
		Name:           "Test Handicap",
		ScheduledStart: time.Now().Add(30 * time.Minute),
	}
	for i, name := range []string{"Golden Dawn", "Red Sea", "Obriens Star", "Cafe Royal"} {
		race.Runners = append(race.Runners, &models.Runner{
			ID:        uuid.New(),
			RaceID:    raceID,
			Number:    i + 1,
			Name:      name,
			FormScore: floatPtr(float64(80 - i*15)),
		})
	}
	return race
}

func testSnapshot(race *models.Race) *models.OddsSnapshot {
	return models.NewOddsSnapshot(race.ID, time.Now(), map[string]map[string]float64{
		"Golden Dawn":         {"bookx": 2.2, "booky": 2.4},
		"Red Sea":             {"bookx": 4.0, "booky": 3.8},
		"O'Brien's Star (IRE)": {"bookx": 6.0, "booky": 6.5},
		"Café Royal":          {"bookx": 9.0, "booky": 8.0},
	})
}

func TestAnalyzeReconcilesRawNames(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()

	analysis, err := analyzer.Analyze(race, testSnapshot(race))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(analysis.Markets) != 4 {
		t.Fatalf("expected 4 markets, got %d (skipped: %v)", len(analysis.Markets), analysis.Skipped)
	}
	if len(analysis.Skipped) != 0 {
		t.Fatalf("expected no skips, got %v", analysis.Skipped)
	}

	// Markets carry roster names, not raw source spellings
	names := make(map[string]bool)
	for _, m := range analysis.Markets {
		names[m.Runner.Name] = true
	}
	if !names["Obriens Star"] || !names["Cafe Royal"] {
		t.Fatalf("markets should use roster names: %v", names)
	}
}

func TestAnalyzeModelProbabilities(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()

	analysis, err := analyzer.Analyze(race, testSnapshot(race))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	sum := 0.0
	byName := make(map[string]float64)
	for _, m := range analysis.Markets {
		sum += m.ModelProb
		byName[m.Runner.Name] = m.ModelProb
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("model probabilities sum to %v", sum)
	}
	if byName["Golden Dawn"] <= byName["Cafe Royal"] {
		t.Fatalf("better form must get higher probability: %v", byName)
	}
}

func TestAnalyzeExplicitModelProbWins(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()
	race.Runners[1].ModelProb = floatPtr(0.77)

	analysis, err := analyzer.Analyze(race, testSnapshot(race))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for _, m := range analysis.Markets {
		if m.Runner.Name == "Red Sea" && m.ModelProb != 0.77 {
			t.Fatalf("explicit model probability must override, got %v", m.ModelProb)
		}
	}
}

func TestAnalyzeConsensusFallback(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()
	for _, r := range race.Runners {
		r.FormScore = nil
	}

	analysis, err := analyzer.Analyze(race, testSnapshot(race))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for _, m := range analysis.Markets {
		if m.ModelProb != m.Consensus {
			t.Fatalf("without form the model must fall back to consensus: %v vs %v", m.ModelProb, m.Consensus)
		}
	}
}

func TestAnalyzeEmptySnapshot(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()
	empty := models.NewOddsSnapshot(race.ID, time.Now(), nil)

	_, err := analyzer.Analyze(race, empty)
	if !errors.Is(err, models.ErrEmptyRace) {
		t.Fatalf("expected ErrEmptyRace, got %v", err)
	}
}

func TestAnalyzeSkipsUnmatchable(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()

	snapshot := models.NewOddsSnapshot(race.ID, time.Now(), map[string]map[string]float64{
		"Golden Dawn":       {"bookx": 2.2},
		"Red Sea":           {"bookx": 4.0},
		"Obriens Star":      {"bookx": 6.0},
		"Cafe Royal":        {"bookx": 9.0},
		"Zebra Crossing XY": {"bookx": 12.0},
	})

	analysis, err := analyzer.Analyze(race, snapshot)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Skipped) != 1 || analysis.Skipped[0].RawName != "Zebra Crossing XY" {
		t.Fatalf("expected one skip for the unknown runner, got %v", analysis.Skipped)
	}
	if len(analysis.Markets) != 4 {
		t.Fatalf("skip must not affect the matched markets, got %d", len(analysis.Markets))
	}
}

func TestAnalyzeSkipsBadBookmaker(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()

	snapshot := models.NewOddsSnapshot(race.ID, time.Now(), map[string]map[string]float64{
		"Golden Dawn":  {"bookx": 2.2, "broken": 0.5},
		"Red Sea":      {"bookx": 4.0, "broken": 4.0},
		"Obriens Star": {"bookx": 6.0},
		"Cafe Royal":   {"bookx": 9.0},
	})

	analysis, err := analyzer.Analyze(race, snapshot)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.SkippedBookmakers) != 1 || analysis.SkippedBookmakers[0] != "broken" {
		t.Fatalf("expected broken bookmaker skipped, got %v", analysis.SkippedBookmakers)
	}
	for _, m := range analysis.Markets {
		if _, ok := m.Odds["broken"]; ok {
			t.Fatalf("rejected bookmaker's prices must not survive in %q", m.Runner.Name)
		}
	}
}

func TestAnalyzeEdgeNeedsFullField(t *testing.T) {
	analyzer := newTestAnalyzer(0)
	race := testRace()

	// Snapshot quoting only 3 of the 4 roster runners, at prices that
	// would look like a huge edge if summed partially.
	snapshot := models.NewOddsSnapshot(race.ID, time.Now(), map[string]map[string]float64{
		"Golden Dawn":  {"bookx": 5.0},
		"Red Sea":      {"bookx": 5.0},
		"Obriens Star": {"bookx": 5.0},
	})

	analysis, err := analyzer.Analyze(race, snapshot)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Opportunities) != 0 {
		t.Fatalf("partial field must not produce an edge opportunity")
	}
}

func TestAnalyzeCaching(t *testing.T) {
	analyzer := newTestAnalyzer(time.Minute)
	race := testRace()
	snapshot := testSnapshot(race)

	first, err := analyzer.Analyze(race, snapshot)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(race, snapshot)
	if err != nil {
		t.Fatalf("Analyze failed on cached call: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached analysis to be returned")
	}
	if analyzer.CachedCount() != 1 {
		t.Fatalf("expected 1 cached analysis, got %d", analyzer.CachedCount())
	}
}
