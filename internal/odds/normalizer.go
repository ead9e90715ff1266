// Package odds converts raw bookmaker prices into comparable implied
// probabilities and extracts best available prices across bookmakers.
package odds

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/value-scanner/internal/models"
)

// maxValidOdds filters placeholder prices some feeds publish for
// scratched or unquoted runners.
const maxValidOdds = 500.0

// SumTolerance is the floating-point tolerance for sum-to-one checks.
const SumTolerance = 1e-9

// ImpliedProbability returns 1/odds for a single decimal price
func ImpliedProbability(decimalOdds float64) (float64, error) {
	if decimalOdds <= 1.0 || math.IsNaN(decimalOdds) || math.IsInf(decimalOdds, 0) {
		return 0, fmt.Errorf("%w: got %.4f", models.ErrInvalidOdds, decimalOdds)
	}
	return 1.0 / decimalOdds, nil
}

// Normalize converts one bookmaker's runner -> decimal odds map into
// runner -> implied probability with the overround removed: each raw
// probability (1/odds) is scaled proportionally so the set sums to 1.
// An empty input returns an empty map without error. Any price at or
// below 1.0 fails the whole set with ErrInvalidOdds.
func Normalize(prices map[string]float64) (map[string]float64, error) {
	normalized := make(map[string]float64, len(prices))
	if len(prices) == 0 {
		return normalized, nil
	}

	total := 0.0
	for runner, price := range prices {
		implied, err := ImpliedProbability(price)
		if err != nil {
			return nil, fmt.Errorf("runner %q: %w", runner, err)
		}
		normalized[runner] = implied
		total += implied
	}

	for runner := range normalized {
		normalized[runner] /= total
	}
	return normalized, nil
}

// Overround returns the bookmaker margin: the amount by which the
// summed raw implied probabilities exceed 1.0.
func Overround(prices map[string]float64) (float64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	total := 0.0
	for runner, price := range prices {
		implied, err := ImpliedProbability(price)
		if err != nil {
			return 0, fmt.Errorf("runner %q: %w", runner, err)
		}
		total += implied
	}
	return total - 1.0, nil
}

// BestPrice is the highest odds offered for a runner and where
type BestPrice struct {
	Bookmaker string
	Odds      float64
}

// BestPrices returns, per raw runner name, the maximum odds offered by
// any bookmaker in the snapshot. Prices at or below 1.0 and placeholder
// prices at or above 500 are ignored; runners with no usable price are
// omitted. Bookmaker ties resolve to the lexicographically first name
// so repeated calls on the same snapshot agree.
func BestPrices(snapshot *models.OddsSnapshot) map[string]BestPrice {
	best := make(map[string]BestPrice)
	for _, runner := range snapshot.RunnerNames() {
		books := snapshot.PricesFor(runner)
		names := make([]string, 0, len(books))
		for book := range books {
			names = append(names, book)
		}
		sort.Strings(names)

		for _, book := range names {
			price := books[book]
			if price <= 1.0 || price >= maxValidOdds {
				continue
			}
			if current, ok := best[runner]; !ok || price > current.Odds {
				best[runner] = BestPrice{Bookmaker: book, Odds: price}
			}
		}
	}
	return best
}

// Consensus derives a market probability per raw runner name by
// averaging the normalized implied probabilities across bookmakers.
// Bookmakers whose price set fails validation are skipped and reported
// rather than aborting the snapshot.
func Consensus(snapshot *models.OddsSnapshot) (map[string]float64, []string) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var skipped []string

	books := snapshot.Bookmakers()
	sort.Strings(books)
	for _, book := range books {
		normalized, err := Normalize(snapshot.BookPrices(book))
		if err != nil {
			skipped = append(skipped, book)
			continue
		}
		for runner, prob := range normalized {
			sums[runner] += prob
			counts[runner]++
		}
	}

	consensus := make(map[string]float64, len(sums))
	for runner, sum := range sums {
		consensus[runner] = sum / float64(counts[runner])
	}
	return consensus, skipped
}
