// Package engine implements the value detection core: a probability
// model over runner form, value/dud-favourite signal generation, and
// cross-bookmaker market edge detection, orchestrated per immutable
// odds snapshot.
package engine

import "math"

// ProbabilityModel converts form scores to win probabilities using a
// temperature-scaled softmax.
type ProbabilityModel struct {
	Temperature       float64 // higher spreads probabilities, lower sharpens
	StrengthFloor     float64 // minimum strength added to every runner
	FavBiasCorrection float64 // probability taken off the favourite and redistributed
}

// NewProbabilityModel returns a model with the standard calibration
func NewProbabilityModel() *ProbabilityModel {
	return &ProbabilityModel{
		Temperature:       15.0,
		StrengthFloor:     5.0,
		FavBiasCorrection: 0.02,
	}
}

// Strength converts a form score to a strength value
func (m *ProbabilityModel) Strength(formScore float64) float64 {
	return math.Max(formScore, 0) + m.StrengthFloor
}

// Probabilities maps form scores to win probabilities via softmax.
// The max strength is subtracted before exponentiation for numerical
// stability. An all-zero exponent sum degenerates to a uniform spread.
func (m *ProbabilityModel) Probabilities(formScores []float64) []float64 {
	if len(formScores) == 0 {
		return nil
	}

	temperature := m.Temperature
	if temperature <= 0 {
		temperature = 1
	}

	scaled := make([]float64, len(formScores))
	maxScaled := math.Inf(-1)
	for i, score := range formScores {
		scaled[i] = m.Strength(score) / temperature
		if scaled[i] > maxScaled {
			maxScaled = scaled[i]
		}
	}

	probs := make([]float64, len(scaled))
	total := 0.0
	for i, s := range scaled {
		probs[i] = math.Exp(s - maxScaled)
		total += probs[i]
	}
	if total == 0 {
		uniform := 1.0 / float64(len(probs))
		for i := range probs {
			probs[i] = uniform
		}
		return probs
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// ApplyFavouriteCorrection counteracts public overconfidence in
// favourites: the correction is taken off the favourite (floored at
// 0.01) and redistributed evenly across the rest. probs is modified in
// place and returned.
func (m *ProbabilityModel) ApplyFavouriteCorrection(probs []float64, favouriteIdx int) []float64 {
	if m.FavBiasCorrection <= 0 || favouriteIdx < 0 || favouriteIdx >= len(probs) || len(probs) < 2 {
		return probs
	}

	corrected := math.Max(0.01, probs[favouriteIdx]-m.FavBiasCorrection)
	taken := probs[favouriteIdx] - corrected
	probs[favouriteIdx] = corrected

	share := taken / float64(len(probs)-1)
	for i := range probs {
		if i != favouriteIdx {
			probs[i] += share
		}
	}
	return probs
}
