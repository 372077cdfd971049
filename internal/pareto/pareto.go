// Package pareto implements the copy-count allocator (spec §4.12,
// component C13): splitting a total into at most groupCount Pareto-shaped
// groups, used both for the rule distribution and the flow distribution of
// the trace generator (spec §4.14).
package pareto

import (
	"math"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/selector"
)

// Allocate distributes total units into at most groupCount groups. Each
// group's initial size is drawn as ceil(beta / (1-u)^(1/alpha)) with
// u ~ U[0, 1-1e-9), clamped to the remaining total, until either the total
// is drained or groupCount groups exist. Any remainder is then distributed
// one unit at a time across the already-formed groups by weighted sampling
// proportional to their current sizes.
func Allocate(rng *rand.Rand, total, groupCount int, alpha, beta float64) []int {
	if total <= 0 || groupCount <= 0 {
		return nil
	}
	var groups []int
	remaining := total
	for remaining > 0 && len(groups) < groupCount {
		u := rng.Float64() * (1 - 1e-9)
		count := int(math.Ceil(beta / math.Pow(1-u, 1/alpha)))
		if count < 1 {
			count = 1
		}
		if count > remaining {
			count = remaining
		}
		groups = append(groups, count)
		remaining -= count
	}
	for remaining > 0 {
		weights := make([]float64, len(groups))
		for i, g := range groups {
			weights[i] = float64(g)
		}
		idx, err := selector.WeightedChoice(rng, weights)
		if err != nil {
			idx = 0
		}
		groups[idx]++
		remaining--
	}
	return groups
}
