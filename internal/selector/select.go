package selector

import (
	"math"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
)

// SelectProfile performs the QuadDag selection of spec §4.3: the remainder
// path for n<=4, the union path for n>4. k bounds the bucket query to
// profiles that use at most that many distinct fields (see
// UsableFieldCount); callers without a tighter bound should pass
// MaxUsedFields. Returns a pool index (profile id).
func (ix *Indexes) SelectProfile(rng *rand.Rand, calc *paramcalc.Calculator, n, k, p int, allowWildcard bool) (int, error) {
	if n <= 4 {
		return ix.selectRemainder(rng, n, k, p, allowWildcard)
	}
	return ix.selectUnion(rng, calc, n, k, p, allowWildcard)
}

func (ix *Indexes) selectRemainder(rng *rand.Rand, n, k, p int, allowWildcard bool) (int, error) {
	key := remainderKey{n, k, p}
	bucket := ix.remainder[key]
	if !allowWildcard {
		bucket = ix.remainderNW[key]
	}
	if len(bucket) == 0 {
		return -1, engine.ErrNoCandidate
	}
	return bucket[rng.IntN(len(bucket))], nil
}

func (ix *Indexes) selectUnion(rng *rand.Rand, calc *paramcalc.Calculator, n, k, p int, allowWildcard bool) (int, error) {
	rem := n - 4
	d := paramcalc.Divide(rem)
	s := 0
	for _, di := range d {
		s += calc.MaxParameter(di)
	}

	loP1 := p - (4*rem + s)
	if loP1 < 0 {
		loP1 = 0
	}
	hiP1 := p
	if hiP1 > 6 {
		hiP1 = 6
	}
	if loP1 > hiP1 {
		return -1, engine.ErrNoCandidate
	}

	alpha1 := 6 * float64(p) / float64(calc.MaxParameter(n))

	type candidate struct {
		bucket []int
	}
	var cands []candidate
	var weights []float64
	for p1 := loP1; p1 <= hiP1; p1++ {
		minMaxP2 := int(math.Ceil(float64(p-p1-s) / float64(rem)))
		if minMaxP2 < 1 {
			minMaxP2 = 1
		}
		maxMinP2 := int(math.Floor(float64(p-p1) / float64(rem)))
		if maxMinP2 > 3 {
			maxMinP2 = 3
		}
		if maxMinP2 < 0 {
			maxMinP2 = 0
		}

		key := unionKey{k, p1, minMaxP2, maxMinP2}
		bucket := ix.union[key]
		if !allowWildcard {
			bucket = ix.unionNW[key]
		}

		w := 0.0
		if len(bucket) > 0 {
			w = gaussianDensity(float64(p1)-alpha1, 0, 9)
		}
		cands = append(cands, candidate{bucket})
		weights = append(weights, w)
	}

	idx, err := WeightedChoice(rng, weights)
	if err != nil {
		return -1, err
	}
	bucket := cands[idx].bucket
	if len(bucket) == 0 {
		return -1, engine.ErrNoCandidate
	}
	return bucket[rng.IntN(len(bucket))], nil
}
