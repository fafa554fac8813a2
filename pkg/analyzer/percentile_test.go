package analyzer

import (
	"math/rand"
	"testing"
)

func TestPercentileNearestRank(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{10, 1},
		{50, 5},
		{95, 10},
		{90, 9},
		{100, 10},
	}

	for _, tt := range tests {
		if got := Percentile(values, tt.p); got != tt.want {
			t.Errorf("Percentile(%.0f) = %.2f, want %.2f", tt.p, got, tt.want)
		}
	}
}

func TestPercentileSingleValue(t *testing.T) {
	if got := Percentile([]float64{42}, 95); got != 42 {
		t.Errorf("Expected 42, got %.2f", got)
	}
}

func TestPercentileEmpty(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Expected 0 for empty input, got %.2f", got)
	}
}

func TestPercentileOrderIndependent(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}

	want50 := Percentile(values, 50)
	want95 := Percentile(values, 95)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]float64, len(values))
		copy(shuffled, values)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if got := Percentile(shuffled, 50); got != want50 {
			t.Errorf("P50 changed under shuffle: %.2f != %.2f", got, want50)
		}
		if got := Percentile(shuffled, 95); got != want95 {
			t.Errorf("P95 changed under shuffle: %.2f != %.2f", got, want95)
		}
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := []float64{5, 1, 3}
	Percentile(values, 50)

	if values[0] != 5 || values[1] != 1 || values[2] != 3 {
		t.Errorf("Input slice was mutated: %v", values)
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("Expected mean 2.5, got %.2f", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %.2f", got)
	}
}
