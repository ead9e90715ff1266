package engine

import (
	"math"
	"testing"
)

func TestProbabilitiesSumToOne(t *testing.T) {
	model := NewProbabilityModel()

	probs := model.Probabilities([]float64{80, 60, 40, 20})
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("probabilities sum to %v, want 1.0", sum)
	}

	// Monotone in form: better form means higher probability
	for i := 1; i < len(probs); i++ {
		if probs[i-1] <= probs[i] {
			t.Fatalf("probabilities not monotone in form: %v", probs)
		}
	}
}

func TestProbabilitiesNegativeFormClamped(t *testing.T) {
	model := NewProbabilityModel()

	probs := model.Probabilities([]float64{-50, -10, 0})
	// Negative scores clamp to zero strength, so all three share the
	// same floor and the spread is uniform.
	for i := 1; i < len(probs); i++ {
		if math.Abs(probs[i]-probs[0]) > 1e-9 {
			t.Fatalf("clamped scores should be uniform: %v", probs)
		}
	}
}

func TestProbabilitiesEmpty(t *testing.T) {
	model := NewProbabilityModel()
	if probs := model.Probabilities(nil); probs != nil {
		t.Fatalf("expected nil for empty input, got %v", probs)
	}
}

func TestApplyFavouriteCorrection(t *testing.T) {
	model := NewProbabilityModel()

	probs := []float64{0.50, 0.30, 0.20}
	corrected := model.ApplyFavouriteCorrection(probs, 0)

	if math.Abs(corrected[0]-0.48) > 1e-9 {
		t.Fatalf("favourite should lose the correction, got %v", corrected[0])
	}

	sum := 0.0
	for _, p := range corrected {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("correction must preserve the sum, got %v", sum)
	}
}

func TestApplyFavouriteCorrectionFloor(t *testing.T) {
	model := NewProbabilityModel()

	probs := []float64{0.02, 0.49, 0.49}
	corrected := model.ApplyFavouriteCorrection(probs, 0)
	if corrected[0] < 0.01 {
		t.Fatalf("favourite probability must not drop below the floor, got %v", corrected[0])
	}
}
