package instantiate

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Perturb nudges every RM field of every rule by a bounded random offset,
// accepting the first perturbation whose overlap-signature against every
// other rule in the set is unchanged (spec §4.5 step 4, component C9).
// A local neighborhood walk under an invariant-preservation check, not a
// global re-optimization: rules that find no acceptable perturbation keep
// their original range.
func Perturb(rng *rand.Rand, rules []*rule.Rule) {
	if len(rules) < 2 {
		return
	}
	for ri := range rules {
		for fi, f := range rules[ri].Fields {
			if f.Kind != field.RM {
				continue
			}
			perturbOne(rng, rules, ri, fi)
		}
	}
}

func perturbOne(rng *rand.Rand, rules []*rule.Rule, ri, fi int) {
	original := rules[ri].Fields[fi]
	sig := overlapSignature(rules, ri, fi)
	rangeSize := original.End.Sub(original.Start).Uint64() + 1

	for div := uint64(4); div <= rangeSize; div *= 2 {
		bound := rangeSize / div
		if bound == 0 {
			continue
		}
		for attempt := 0; attempt < 4; attempt++ {
			startDelta := int64(rng.Uint64N(2*bound+1)) - int64(bound)
			endDelta := int64(rng.Uint64N(2*bound+1)) - int64(bound)
			cand, ok := perturbField(original, startDelta, endDelta)
			if !ok {
				continue
			}
			rules[ri].Fields[fi] = cand
			if overlapSignature(rules, ri, fi) == sig {
				return
			}
		}
	}
	rules[ri].Fields[fi] = original
}

func perturbField(f field.Field, startDelta, endDelta int64) (field.Field, bool) {
	start := applyDelta(f.Start, startDelta, f.Width)
	end := applyDelta(f.End, endDelta, f.Width)
	if end.Less(start) {
		return field.Field{}, false
	}
	return field.NewRM(f.Width, start, end), true
}

func applyDelta(v bitint.Int, delta int64, w bitint.Width) bitint.Int {
	if delta == 0 {
		return v
	}
	if delta > 0 {
		return v.AddSmall(uint32(delta))
	}
	dec := bitint.FromUint64(w, uint64(-delta))
	if v.Less(dec) {
		return bitint.Zero(w)
	}
	return v.Sub(dec)
}

// overlapSignature encodes, as a compact string, which other rules' field
// fi currently overlaps rules[ri]'s field fi — the invariant a perturbation
// must preserve.
func overlapSignature(rules []*rule.Rule, ri, fi int) string {
	self := rules[ri].Fields[fi]
	b := make([]byte, 0, len(rules))
	for j, r := range rules {
		if j == ri {
			continue
		}
		if field.Overlap(self, r.Fields[fi]) {
			b = append(b, '1')
		} else {
			b = append(b, '0')
		}
	}
	return string(b)
}
