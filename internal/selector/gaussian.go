package selector

import "math"

// gaussianDensity evaluates the Gaussian PDF at x for the given mean and
// variance (spec §4.3's φ, a closed-form density evaluation — no sampling
// involved, so the standard library's math.Exp/math.Sqrt is the right tool,
// not a domain dependency; see DESIGN.md).
func gaussianDensity(x, mean, variance float64) float64 {
	d := x - mean
	return math.Exp(-(d*d)/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}
