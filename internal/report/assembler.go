// Package report packages engine output into race-level summaries for
// the presentation layer: a structured summary per race, a short text
// digest, and CSV exports.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/models"
)

// Options controls digest length and pick counts
type Options struct {
	MaxRaces      int // digest truncates after this many races
	TopValuePicks int // value picks shown per race
}

// DefaultOptions returns the standard report sizing
func DefaultOptions() Options {
	return Options{MaxRaces: 15, TopValuePicks: 3}
}

// ValuePick is a presentation row for one value signal
type ValuePick struct {
	RunnerName  string  `json:"runner_name"`
	Bookmaker   string  `json:"bookmaker"`
	Odds        float64 `json:"odds"`
	FairOdds    float64 `json:"fair_odds"`
	ModelProb   float64 `json:"model_prob"`
	ImpliedProb float64 `json:"implied_prob"`
	Edge        float64 `json:"edge"`
	Rating      int     `json:"rating"`
}

// DudFavourite is a presentation row for an overbet favourite
type DudFavourite struct {
	RunnerName  string   `json:"runner_name"`
	Bookmaker   string   `json:"bookmaker"`
	Odds        float64  `json:"odds"`
	Gap         float64  `json:"gap"`
	BetterPicks []string `json:"better_picks"`
}

// RaceSummary is the race-level view handed to the serving layer
type RaceSummary struct {
	RaceID       uuid.UUID              `json:"race_id"`
	SnapshotID   uuid.UUID              `json:"snapshot_id"`
	Venue        string                 `json:"venue"`
	Number       int                    `json:"number"`
	TakenAt      time.Time              `json:"taken_at"`
	FieldSize    int                    `json:"field_size"`
	PricedCount  int                    `json:"priced_count"`
	Favourites   []string               `json:"favourites"`
	ValuePicks   []ValuePick            `json:"value_picks"`
	DudFavourite *DudFavourite          `json:"dud_favourite,omitempty"`
	Edge         *models.EdgeOpportunity `json:"edge,omitempty"`
	StakePlan    *models.StakePlan      `json:"stake_plan,omitempty"`
	Skipped      []engine.SkippedRunner `json:"skipped,omitempty"`
}

// HasFindings reports whether the summary carries anything worth
// surfacing: a value pick, a dud favourite, or an arb edge.
func (s RaceSummary) HasFindings() bool {
	return len(s.ValuePicks) > 0 || s.DudFavourite != nil || s.Edge != nil
}

// Assembler builds summaries from race analyses
type Assembler struct {
	opts Options
}

// NewAssembler creates an assembler
func NewAssembler(opts Options) *Assembler {
	if opts.MaxRaces <= 0 {
		opts.MaxRaces = DefaultOptions().MaxRaces
	}
	if opts.TopValuePicks <= 0 {
		opts.TopValuePicks = DefaultOptions().TopValuePicks
	}
	return &Assembler{opts: opts}
}

// Summarize converts one analysis into its presentation summary.
// plan may be nil when no dutch was recommended.
func (a *Assembler) Summarize(analysis *engine.RaceAnalysis, plan *models.StakePlan) RaceSummary {
	summary := RaceSummary{
		RaceID:      analysis.Race.ID,
		SnapshotID:  analysis.SnapshotID,
		Venue:       analysis.Race.Venue,
		Number:      analysis.Race.Number,
		TakenAt:     analysis.TakenAt,
		FieldSize:   analysis.Race.FieldSize(),
		PricedCount: len(analysis.Markets),
		StakePlan:   plan,
		Skipped:     analysis.Skipped,
	}

	for _, fav := range analysis.Favourites {
		summary.Favourites = append(summary.Favourites, fav.Runner.Name)
	}

	for _, signal := range analysis.Signals {
		switch signal.Kind {
		case models.SignalValuePick:
			if len(summary.ValuePicks) >= a.opts.TopValuePicks {
				continue
			}
			summary.ValuePicks = append(summary.ValuePicks, ValuePick{
				RunnerName:  signal.RunnerName,
				Bookmaker:   signal.Bookmaker,
				Odds:        signal.Odds,
				FairOdds:    signal.FairOdds(),
				ModelProb:   signal.ModelProb,
				ImpliedProb: signal.ImpliedProb,
				Edge:        signal.Magnitude,
				Rating:      signal.Rating(),
			})
		case models.SignalDudFavourite:
			if summary.DudFavourite == nil || signal.Magnitude > summary.DudFavourite.Gap {
				summary.DudFavourite = &DudFavourite{
					RunnerName:  signal.RunnerName,
					Bookmaker:   signal.Bookmaker,
					Odds:        signal.Odds,
					Gap:         signal.Magnitude,
					BetterPicks: a.betterPicks(analysis, signal.RunnerName),
				}
			}
		}
	}

	if len(analysis.Opportunities) > 0 {
		summary.Edge = &analysis.Opportunities[0]
	}
	return summary
}

// betterPicks lists up to two runners the model rates above the dud
// favourite.
func (a *Assembler) betterPicks(analysis *engine.RaceAnalysis, favourite string) []string {
	markets := make([]*engine.RunnerMarket, len(analysis.Markets))
	copy(markets, analysis.Markets)
	sort.SliceStable(markets, func(i, j int) bool { return markets[i].ModelProb > markets[j].ModelProb })

	var picks []string
	for _, market := range markets {
		if market.Runner.Name == favourite {
			continue
		}
		picks = append(picks, market.Runner.Name)
		if len(picks) == 2 {
			break
		}
	}
	return picks
}

// Digest renders a short text report across races, ordered by best
// value edge first, truncated at MaxRaces. Suited to chat webhooks.
func (a *Assembler) Digest(summaries []RaceSummary) string {
	ordered := make([]RaceSummary, len(summaries))
	copy(ordered, summaries)
	sort.SliceStable(ordered, func(i, j int) bool { return bestEdge(ordered[i]) > bestEdge(ordered[j]) })

	var b strings.Builder
	count := 0
	for _, summary := range ordered {
		if !summary.HasFindings() {
			continue
		}
		if count >= a.opts.MaxRaces {
			b.WriteString(fmt.Sprintf("... and %d more races\n", len(ordered)-count))
			break
		}
		count++

		fmt.Fprintf(&b, "%s R%d (%d runners)\n", summary.Venue, summary.Number, summary.FieldSize)
		for _, pick := range summary.ValuePicks {
			fmt.Fprintf(&b, "  VALUE %s @ %.2f (%s) edge %.1f%% %s\n",
				pick.RunnerName, pick.Odds, pick.Bookmaker, pick.Edge*100, stars(pick.Rating))
		}
		if dud := summary.DudFavourite; dud != nil {
			fmt.Fprintf(&b, "  DUD FAV %s @ %.2f overbet by %.1f%%", dud.RunnerName, dud.Odds, dud.Gap*100)
			if len(dud.BetterPicks) > 0 {
				fmt.Fprintf(&b, " (prefer %s)", strings.Join(dud.BetterPicks, ", "))
			}
			b.WriteString("\n")
		}
		if summary.Edge != nil {
			fmt.Fprintf(&b, "  ARB book %.3f, edge %.2f%%\n", summary.Edge.DutchBook, summary.Edge.Edge*100)
		}
	}
	if count == 0 {
		return "No value found in this scan.\n"
	}
	return b.String()
}

func bestEdge(summary RaceSummary) float64 {
	best := 0.0
	for _, pick := range summary.ValuePicks {
		if pick.Edge > best {
			best = pick.Edge
		}
	}
	if summary.Edge != nil && summary.Edge.Edge > best {
		best = summary.Edge.Edge
	}
	return best
}

func stars(rating int) string {
	return strings.Repeat("*", rating)
}

// WriteValueCSV writes all value picks across summaries as CSV
func WriteValueCSV(w io.Writer, summaries []RaceSummary) error {
	cw := csv.NewWriter(w)
	header := []string{"venue", "race", "runner", "bookmaker", "odds", "fair_odds", "model_prob", "implied_prob", "edge", "rating"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, summary := range summaries {
		for _, pick := range summary.ValuePicks {
			record := []string{
				summary.Venue,
				strconv.Itoa(summary.Number),
				pick.RunnerName,
				pick.Bookmaker,
				formatFloat(pick.Odds),
				formatFloat(pick.FairOdds),
				formatFloat(pick.ModelProb),
				formatFloat(pick.ImpliedProb),
				formatFloat(pick.Edge),
				strconv.Itoa(pick.Rating),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStakeCSV writes a stake plan as CSV
func WriteStakeCSV(w io.Writer, summary RaceSummary) error {
	if summary.StakePlan == nil {
		return nil
	}
	cw := csv.NewWriter(w)
	header := []string{"venue", "race", "runner", "bookmaker", "odds", "stake", "profit_if_wins"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, entry := range summary.StakePlan.Entries {
		record := []string{
			summary.Venue,
			strconv.Itoa(summary.Number),
			entry.RunnerName,
			entry.Bookmaker,
			formatFloat(entry.Odds),
			entry.Stake.StringFixed(2),
			entry.ProfitIfWins.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
