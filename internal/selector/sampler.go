package selector

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/engine"
)

// WeightedChoice implements the §4.13 weighted sampler: returns an index
// with probability weights[i] / sum(weights), rejecting with
// engine.ErrNoCandidate when the weights sum to zero.
func WeightedChoice(rng *rand.Rand, weights []float64) (int, error) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return -1, engine.ErrNoCandidate
	}
	u := rng.Float64() * sum
	var cum float64
	for i, w := range weights {
		cum += w
		if u < cum {
			return i, nil
		}
	}
	// Floating point drift: fall back to the last nonzero-weight index.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, nil
		}
	}
	return -1, engine.ErrNoCandidate
}
