package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StakeEntry is the stake assigned to a single selection in a plan
type StakeEntry struct {
	RunnerID     uuid.UUID       `json:"runner_id"`
	RunnerName   string          `json:"runner_name"`
	Bookmaker    string          `json:"bookmaker"`
	Odds         float64         `json:"odds" validate:"required,gt=1"`
	Stake        decimal.Decimal `json:"stake"`
	ProfitIfWins decimal.Decimal `json:"profit_if_wins"`
	ModelProb    float64         `json:"model_prob"`
}

// StakePlan is a dutching stake allocation across a selection set.
// When DutchBook < 1 every entry's ProfitIfWins is identical and
// positive regardless of which selection wins.
type StakePlan struct {
	SnapshotID    uuid.UUID       `json:"snapshot_id"`
	Entries       []StakeEntry    `json:"entries"`
	TotalOutlay   decimal.Decimal `json:"total_outlay"`
	TargetReturn  decimal.Decimal `json:"target_return"`
	DutchBook     float64         `json:"dutch_book"`
	RealizedEdge  float64         `json:"realized_edge"`
	ExpectedValue float64         `json:"expected_value"`
	CombinedProb  float64         `json:"combined_prob"`
}

// IsGuaranteed reports whether the plan profits no matter which
// selection wins (a genuine market edge).
func (p *StakePlan) IsGuaranteed() bool {
	return p.DutchBook > 0 && p.DutchBook < 1.0
}

// WorstCase returns the loss if every selection loses
func (p *StakePlan) WorstCase() decimal.Decimal {
	return p.TotalOutlay.Neg()
}

// GuaranteedProfit returns the equal profit across winning scenarios,
// or zero when the plan is not guaranteed.
func (p *StakePlan) GuaranteedProfit() decimal.Decimal {
	if !p.IsGuaranteed() || len(p.Entries) == 0 {
		return decimal.Zero
	}
	return p.Entries[0].ProfitIfWins
}
