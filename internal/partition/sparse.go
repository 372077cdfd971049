package partition

import (
	"math/bits"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/splitter"
)

// NextSparsePartCount returns the partCount to try given the previous
// attempt (0 meaning "no previous attempt"). Reproduces the reference
// generator's doubling-before-first-use off-by-one (SPEC_FULL.md Open
// Question 1): the first attempted partCount is 2, not 1.
func NextSparsePartCount(prev int) int {
	if prev == 0 {
		return 2
	}
	return prev * 2
}

// SparseAdmissible reports whether partCount is admissible for (n, p) given
// the user rule type's total bit width (spec §4.8): partCount must not
// exceed n, must fit in totalBitWidth bits, and the best achievable
// parameter across partCount equally-sized buckets must reach p.
func SparseAdmissible(calc *paramcalc.Calculator, n, p, partCount, totalBitWidth int) bool {
	if partCount > n {
		return false
	}
	if partCount > 1 && bits.Len(uint(partCount-1)) > totalBitWidth {
		return false
	}
	base := n / partCount
	rem := n % partCount
	small := partCount - rem
	large := rem
	max := small*calc.MaxParameter(base) + large*calc.MaxParameter(base+1)
	return max >= p
}

// BuildSparse splits partCount disjoint origin rules out of a wildcard rule
// of userType, then balances (n, p) across them so the totals equal n and p
// (spec §4.8 "On export").
func BuildSparse(rng *rand.Rand, calc *paramcalc.Calculator, userType *rule.Type, weights []float64, n, p, partCount int) ([]Origin, error) {
	rules := []*rule.Rule{rule.NewWildcard(userType)}
	for len(rules) < partCount {
		target := rules[0]
		left, right, err := splitter.Split(rng, target, weights)
		if err != nil {
			return nil, err
		}
		next := make([]*rule.Rule, 0, len(rules)+1)
		next = append(next, rules[1:]...)
		next = append(next, left, right)
		rules = next
	}

	base := n / partCount
	rem := n % partCount
	sizes := make([]int, partCount)
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	params := calc.AllocateByCapacity(sizes, p)

	origins := make([]Origin, partCount)
	for i, r := range rules {
		origins[i] = Origin{Rule: r, N: sizes[i], P: params[i], AllowWildcard: true}
	}
	return origins, nil
}
