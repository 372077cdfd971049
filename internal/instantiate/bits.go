// Package instantiate implements the per-subproblem instantiation pipeline
// (spec §4.5, components C8 "Field/Bit/Rule instantiaters" and C9 "Random
// perturbator"): turning a mixed set of candidate LPM rules into a
// user-defined rule set.
package instantiate

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// ApplyBitMasks draws one random 32-bit mask per candidate field index and
// XORs it into every rule's prefix (masking off the mask's own free-bit
// tail so the prefix length is preserved). Spec §4.5 step 1: avoids every
// synthesized prefix starting from zero.
func ApplyBitMasks(rng *rand.Rand, rules []*rule.Rule) {
	if len(rules) == 0 {
		return
	}
	nFields := len(rules[0].Fields)
	masks := make([]bitint.Int, nFields)
	for i := range masks {
		masks[i] = bitint.FromUint64(bitint.Width32, uint64(rng.Uint32()))
	}
	for _, r := range rules {
		for i, f := range r.Fields {
			if f.Kind != field.LPM {
				continue
			}
			freeLow := int(f.Width) - f.PrefixLen
			mask := clearLowBits(masks[i], f.Width, freeLow)
			r.Fields[i] = field.NewLPM(f.Width, f.Prefix.Xor(mask), f.PrefixLen)
		}
	}
}

// clearLowBits zeroes the low lowBits bits of v, so XOR-ing it into a
// prefix never disturbs the field's don't-care tail.
func clearLowBits(v bitint.Int, w bitint.Width, lowBits int) bitint.Int {
	if lowBits <= 0 {
		return v
	}
	if lowBits >= int(w) {
		return bitint.Zero(w)
	}
	return v.Shr(uint(lowBits)).Shl(uint(lowBits))
}
