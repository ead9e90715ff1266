package dutching

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/models"
	"github.com/yourusername/value-scanner/internal/odds"
)

func selections(prices ...float64) []Selection {
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}
	sels := make([]Selection, len(prices))
	for i, p := range prices {
		sels[i] = Selection{
			RunnerID:   uuid.New(),
			RunnerName: names[i],
			Bookmaker:  "bookx",
			Odds:       p,
			ModelProb:  1.0 / p,
		}
	}
	return sels
}

func TestPlanStakesEqualProfit(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// 1/2 + 1/3 + 1/6 = 1.0: stakes split 50 / 33.33 / 16.67
	plan, err := calc.PlanStakes(uuid.New(), selections(2.0, 3.0, 6.0), 100)
	if err != nil {
		t.Fatalf("PlanStakes failed: %v", err)
	}

	total := decimal.Zero
	for _, entry := range plan.Entries {
		total = total.Add(entry.Stake)
	}
	if !total.Equal(decimal.NewFromFloat(100)) {
		t.Fatalf("stakes must sum to the outlay exactly, got %v", total)
	}

	if plan.Entries[0].Stake.String() != "50" {
		t.Fatalf("expected 50 on the 2.0 shot, got %v", plan.Entries[0].Stake)
	}
	if plan.Entries[1].Stake.String() != "33.33" {
		t.Fatalf("expected 33.33 on the 3.0 shot, got %v", plan.Entries[1].Stake)
	}
	if plan.Entries[2].Stake.String() != "16.67" {
		t.Fatalf("expected 16.67 on the 6.0 shot, got %v", plan.Entries[2].Stake)
	}

	// Equal profit up to cent rounding
	if !VerifyEqualProfit(plan, 0.05) {
		t.Fatalf("plan profits differ beyond rounding: %+v", plan.Entries)
	}
}

func TestPlanStakesSingleSelection(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	plan, err := calc.PlanStakes(uuid.New(), selections(4.0), 50)
	if err != nil {
		t.Fatalf("PlanStakes failed: %v", err)
	}
	if !plan.Entries[0].Stake.Equal(decimal.NewFromFloat(50)) {
		t.Fatalf("single selection takes the full outlay, got %v", plan.Entries[0].Stake)
	}
	if !plan.Entries[0].ProfitIfWins.Equal(decimal.NewFromFloat(150)) {
		t.Fatalf("expected profit 150, got %v", plan.Entries[0].ProfitIfWins)
	}
}

func TestPlanStakesErrors(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	if _, err := calc.PlanStakes(uuid.New(), nil, 100); !errors.Is(err, models.ErrNoSelections) {
		t.Fatalf("expected ErrNoSelections, got %v", err)
	}
	if _, err := calc.PlanStakes(uuid.New(), selections(2.0, 1.0), 100); !errors.Is(err, models.ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestPlanStakesStrictMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	calc := NewCalculator(cfg)

	// book = 1.0 exactly: no guaranteed profit
	_, err := calc.PlanStakes(uuid.New(), selections(2.0, 2.0), 100)
	if !errors.Is(err, models.ErrInsufficientEdge) {
		t.Fatalf("strict mode must reject a full book, got %v", err)
	}

	// The same set is allowed when strict mode is off
	loose := NewCalculator(DefaultConfig())
	plan, err := loose.PlanStakes(uuid.New(), selections(2.0, 2.0), 100)
	if err != nil {
		t.Fatalf("non-strict PlanStakes failed: %v", err)
	}
	if plan.IsGuaranteed() {
		t.Fatalf("a full book must not report a guarantee")
	}
}

func TestPlanProfit(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// book = 2/2.2 = 0.9091, so a 10 profit needs a 100 outlay
	plan, err := calc.PlanProfit(uuid.New(), selections(2.2, 2.2), 10)
	if err != nil {
		t.Fatalf("PlanProfit failed: %v", err)
	}

	outlay, _ := plan.TotalOutlay.Float64()
	if math.Abs(outlay-100.0) > 0.01 {
		t.Fatalf("expected outlay ~100, got %v", outlay)
	}
	for _, entry := range plan.Entries {
		profit, _ := entry.ProfitIfWins.Float64()
		if math.Abs(profit-10.0) > 0.05 {
			t.Fatalf("expected ~10 profit on %q, got %v", entry.RunnerName, profit)
		}
	}
}

func TestPlanProfitRequiresEdge(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	_, err := calc.PlanProfit(uuid.New(), selections(1.9, 1.9), 10)
	if !errors.Is(err, models.ErrInsufficientEdge) {
		t.Fatalf("expected ErrInsufficientEdge, got %v", err)
	}
}

func TestLayStake(t *testing.T) {
	stake, profit, err := LayStake(3.0, 100)
	if err != nil {
		t.Fatalf("LayStake failed: %v", err)
	}
	if stake != 50 || profit != 50 {
		t.Fatalf("expected 50/50, got %v/%v", stake, profit)
	}

	if _, _, err := LayStake(1.0, 100); !errors.Is(err, models.ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

func comboMarket(name string, modelProb, bestOdds float64) *engine.RunnerMarket {
	return &engine.RunnerMarket{
		Runner:    &models.Runner{ID: uuid.New(), Name: name},
		ModelProb: modelProb,
		Best:      odds.BestPrice{Bookmaker: "bookx", Odds: bestOdds},
	}
}

func TestBestCombinationPrefersGuaranteed(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	analysis := &engine.RaceAnalysis{
		SnapshotID: uuid.New(),
		Markets: []*engine.RunnerMarket{
			comboMarket("Alpha", 0.45, 2.1),
			comboMarket("Bravo", 0.30, 3.5),
			comboMarket("Charlie", 0.15, 7.0),
		},
	}

	plan := calc.BestCombination(analysis, false)
	if plan == nil {
		t.Fatalf("expected a plan")
	}
	// 1/2.1 + 1/3.5 = 0.762: a guaranteed dutch exists
	if !plan.IsGuaranteed() {
		t.Fatalf("expected a guaranteed plan, book %v", plan.DutchBook)
	}
	if plan.CombinedProb < DefaultConfig().MinCombinedProb {
		t.Fatalf("plan below the combined probability floor: %v", plan.CombinedProb)
	}
}

func TestBestCombinationExcludesFavourite(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	analysis := &engine.RaceAnalysis{
		SnapshotID: uuid.New(),
		Markets: []*engine.RunnerMarket{
			comboMarket("Fav", 0.40, 1.8),
			comboMarket("Alpha", 0.35, 2.8),
			comboMarket("Bravo", 0.25, 4.0),
		},
		Favourites: []*engine.RunnerMarket{},
	}
	analysis.Favourites = engine.Favourites(analysis.Markets)

	plan := calc.DudFavouriteCombination(analysis)
	if plan == nil {
		t.Fatalf("expected a plan excluding the favourite")
	}
	for _, entry := range plan.Entries {
		if entry.RunnerName == "Fav" {
			t.Fatalf("favourite must not appear in a dud-favourite dutch")
		}
	}
}

func TestBestCombinationNothingQualifies(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// Combined model probability far below the floor and no guarantee
	analysis := &engine.RaceAnalysis{
		SnapshotID: uuid.New(),
		Markets: []*engine.RunnerMarket{
			comboMarket("Alpha", 0.10, 2.0),
			comboMarket("Bravo", 0.08, 2.2),
		},
	}

	if plan := calc.BestCombination(analysis, false); plan != nil {
		t.Fatalf("expected no plan, got %+v", plan)
	}
}
