// Package dutching computes stake distributions across a set of
// selections so profit is equal regardless of which selection wins,
// and searches races for the best selection subsets to dutch.
package dutching

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/models"
)

// Selection is one runner the caller wants in the stake plan
type Selection struct {
	RunnerID   uuid.UUID
	RunnerName string
	Bookmaker  string
	Odds       float64
	ModelProb  float64
}

// Config controls the combination search and strict-mode behaviour
type Config struct {
	Bankroll        float64 // default total outlay
	MinRunners      int     // smallest dutch set the search considers
	MaxRunners      int     // largest dutch set the search considers
	MinCombinedProb float64 // search skips sets the model gives too little chance
	Strict          bool    // refuse plans without a guaranteed profit
}

// DefaultConfig returns the standard dutching parameters
func DefaultConfig() Config {
	return Config{
		Bankroll:        100.0,
		MinRunners:      2,
		MaxRunners:      4,
		MinCombinedProb: 0.55,
		Strict:          false,
	}
}

// Calculator produces equal-profit stake plans
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given parameters
func NewCalculator(cfg Config) *Calculator {
	if cfg.Bankroll <= 0 {
		cfg.Bankroll = DefaultConfig().Bankroll
	}
	if cfg.MinRunners < 1 {
		cfg.MinRunners = DefaultConfig().MinRunners
	}
	if cfg.MaxRunners < cfg.MinRunners {
		cfg.MaxRunners = cfg.MinRunners
	}
	return &Calculator{cfg: cfg}
}

// PlanStakes distributes targetOutlay across the selections so the
// return is identical whichever selection wins:
//
//	stake_i = targetOutlay * (1/odds_i) / sum(1/odds_j)
//
// Stakes are non-negative and sum to targetOutlay to the cent. A single
// selection degenerates to a plain bet of the full outlay. In strict
// mode a selection set whose combined implied probability is 1.0 or
// higher fails with ErrInsufficientEdge; otherwise the plan proceeds
// and reports the (possibly negative) realized edge.
func (c *Calculator) PlanStakes(snapshotID uuid.UUID, selections []Selection, targetOutlay float64) (*models.StakePlan, error) {
	if len(selections) == 0 {
		return nil, models.ErrNoSelections
	}
	if targetOutlay <= 0 {
		targetOutlay = c.cfg.Bankroll
	}
	for _, sel := range selections {
		if sel.Odds <= 1.0 {
			return nil, fmt.Errorf("selection %q at %.2f: %w", sel.RunnerName, sel.Odds, models.ErrInvalidOdds)
		}
	}

	book := 0.0
	for _, sel := range selections {
		book += 1.0 / sel.Odds
	}
	if c.cfg.Strict && book >= 1.0 {
		return nil, fmt.Errorf("book %.4f across %d selections: %w", book, len(selections), models.ErrInsufficientEdge)
	}

	total := decimal.NewFromFloat(targetOutlay)
	entries := make([]models.StakeEntry, len(selections))
	allocated := decimal.Zero
	for i, sel := range selections {
		stake := total.Mul(decimal.NewFromFloat(1.0 / sel.Odds)).Div(decimal.NewFromFloat(book))
		if i == len(selections)-1 {
			// put the rounding remainder on the last leg so the
			// column sums to the outlay exactly
			stake = total.Sub(allocated)
		} else {
			stake = stake.Round(2)
			allocated = allocated.Add(stake)
		}
		profit := stake.Mul(decimal.NewFromFloat(sel.Odds)).Sub(total).Round(2)
		entries[i] = models.StakeEntry{
			RunnerID:     sel.RunnerID,
			RunnerName:   sel.RunnerName,
			Bookmaker:    sel.Bookmaker,
			Odds:         sel.Odds,
			Stake:        stake,
			ProfitIfWins: profit,
			ModelProb:    sel.ModelProb,
		}
	}

	combinedProb := 0.0
	ev := 0.0
	for _, entry := range entries {
		combinedProb += entry.ModelProb
		profit, _ := entry.ProfitIfWins.Float64()
		ev += entry.ModelProb * profit
	}
	ev -= (1 - combinedProb) * targetOutlay

	return &models.StakePlan{
		SnapshotID:    snapshotID,
		Entries:       entries,
		TotalOutlay:   total,
		TargetReturn:  total.Div(decimal.NewFromFloat(book)).Round(2),
		DutchBook:     book,
		RealizedEdge:  1.0 - book,
		ExpectedValue: ev,
		CombinedProb:  combinedProb,
	}, nil
}

// PlanProfit sizes the outlay so every winning scenario nets
// targetProfit. Only a genuine edge (book < 1) can guarantee a profit,
// so anything else fails with ErrInsufficientEdge.
func (c *Calculator) PlanProfit(snapshotID uuid.UUID, selections []Selection, targetProfit float64) (*models.StakePlan, error) {
	if len(selections) == 0 {
		return nil, models.ErrNoSelections
	}
	if targetProfit <= 0 {
		return nil, fmt.Errorf("target profit must be positive, got %.2f", targetProfit)
	}

	book := 0.0
	for _, sel := range selections {
		if sel.Odds <= 1.0 {
			return nil, fmt.Errorf("selection %q at %.2f: %w", sel.RunnerName, sel.Odds, models.ErrInvalidOdds)
		}
		book += 1.0 / sel.Odds
	}
	if book >= 1.0 {
		return nil, fmt.Errorf("book %.4f cannot guarantee a profit: %w", book, models.ErrInsufficientEdge)
	}

	outlay := targetProfit * book / (1.0 - book)
	return c.PlanStakes(snapshotID, selections, outlay)
}

// LayStake computes the exchange lay stake for a given liability:
// stake = liability / (odds - 1).
func LayStake(layOdds, liability float64) (stake, profitIfLoses float64, err error) {
	if layOdds <= 1.0 {
		return 0, 0, fmt.Errorf("lay odds %.2f: %w", layOdds, models.ErrInvalidOdds)
	}
	if liability <= 0 {
		return 0, 0, fmt.Errorf("liability must be positive, got %.2f", liability)
	}
	stake = liability / (layOdds - 1.0)
	return stake, stake, nil
}

// BestCombination searches the analyzed race for the most attractive
// dutch set between MinRunners and MaxRunners selections, preferring a
// guaranteed-profit set (book < 1) and falling back to the highest
// expected value above MinCombinedProb. Returns nil when nothing
// qualifies.
func (c *Calculator) BestCombination(analysis *engine.RaceAnalysis, excludeFavourite bool) *models.StakePlan {
	candidates := make([]Selection, 0, len(analysis.Markets))
	favourites := make(map[uuid.UUID]bool)
	if excludeFavourite {
		for _, fav := range analysis.Favourites {
			favourites[fav.Runner.ID] = true
		}
	}
	for _, market := range analysis.Markets {
		if market.Best.Odds <= 1.0 || favourites[market.Runner.ID] {
			continue
		}
		candidates = append(candidates, Selection{
			RunnerID:   market.Runner.ID,
			RunnerName: market.Runner.Name,
			Bookmaker:  market.Best.Bookmaker,
			Odds:       market.Best.Odds,
			ModelProb:  market.ModelProb,
		})
	}
	if len(candidates) < c.cfg.MinRunners {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].RunnerName < candidates[j].RunnerName })

	var bestGuaranteed, bestEV *models.StakePlan
	maxSize := c.cfg.MaxRunners
	if maxSize > len(candidates) {
		maxSize = len(candidates)
	}
	for size := c.cfg.MinRunners; size <= maxSize; size++ {
		forEachCombination(len(candidates), size, func(indexes []int) {
			combo := make([]Selection, len(indexes))
			for i, idx := range indexes {
				combo[i] = candidates[idx]
			}
			plan, err := c.PlanStakes(analysis.SnapshotID, combo, c.cfg.Bankroll)
			if err != nil {
				return
			}
			if plan.CombinedProb < c.cfg.MinCombinedProb {
				return
			}
			if plan.IsGuaranteed() {
				if bestGuaranteed == nil || greaterDecimal(plan.GuaranteedProfit(), bestGuaranteed.GuaranteedProfit()) {
					bestGuaranteed = plan
				}
			}
			if bestEV == nil || plan.ExpectedValue > bestEV.ExpectedValue {
				bestEV = plan
			}
		})
	}

	if bestGuaranteed != nil {
		return bestGuaranteed
	}
	if bestEV != nil && bestEV.ExpectedValue > 0 {
		return bestEV
	}
	return nil
}

// DudFavouriteCombination searches for the best dutch excluding the
// favourite, for races where the favourite looks overbet.
func (c *Calculator) DudFavouriteCombination(analysis *engine.RaceAnalysis) *models.StakePlan {
	if len(analysis.Favourites) == 0 {
		return nil
	}
	return c.BestCombination(analysis, true)
}

func greaterDecimal(a, b decimal.Decimal) bool {
	return a.Cmp(b) > 0
}

// forEachCombination visits every size-k index subset of [0, n) in
// lexicographic order.
func forEachCombination(n, k int, visit func([]int)) {
	if k > n || k <= 0 {
		return
	}
	indexes := make([]int, k)
	for i := range indexes {
		indexes[i] = i
	}
	for {
		visit(indexes)
		i := k - 1
		for i >= 0 && indexes[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		indexes[i]++
		for j := i + 1; j < k; j++ {
			indexes[j] = indexes[j-1] + 1
		}
	}
}

// EpsilonStakeSum is the tolerance for stake-total checks
const EpsilonStakeSum = 1e-6

// VerifyEqualProfit reports whether all winning scenarios in the plan
// pay within tolerance of each other. Useful as a sanity check before
// placing bets.
func VerifyEqualProfit(plan *models.StakePlan, tolerance float64) bool {
	if len(plan.Entries) < 2 {
		return true
	}
	first, _ := plan.Entries[0].ProfitIfWins.Float64()
	for _, entry := range plan.Entries[1:] {
		profit, _ := entry.ProfitIfWins.Float64()
		if math.Abs(profit-first) > tolerance {
			return false
		}
	}
	return true
}
