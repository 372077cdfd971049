package selector

import (
	"math"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// SelectVirtualParents picks up to four virtual-rule parents for the next
// recursion layer (spec §4.4), one per nonempty entry of d, and returns a
// per-parent target parameter whose sum accounts for p.
func SelectVirtualParents(rng *rand.Rand, calc *paramcalc.Calculator, prof *quaddag.Profile, d [4]int, p, nTotal int) ([]*quaddag.RuleStat, [4]int, error) {
	s := 0
	for _, di := range d {
		s += calc.MaxParameter(di)
	}
	alpha2 := 4 * float64(p) / float64(calc.MaxParameter(nTotal))

	chosen := make([]*quaddag.RuleStat, 4)
	pRem := p

	for i := 0; i < 4; i++ {
		if d[i] == 0 {
			continue
		}
		maxP2 := int(math.Floor(float64(pRem) / float64(d[i])))
		if maxP2 > perRuleParamBound {
			maxP2 = perRuleParamBound
		}
		minP2 := int(math.Ceil(float64(pRem-s) / float64(d[i])))
		if minP2 < 0 {
			minP2 = 0
		}
		if minP2 > maxP2 {
			minP2 = maxP2
		}

		var weights []float64
		var cands []*quaddag.RuleStat
		for idx := range prof.VirtualRules {
			vr := &prof.VirtualRules[idx]
			v := vr.EdgeCount
			if calc.Kind() == paramcalc.KindDependencyLength {
				v = vr.DependencyLength
			}
			if v < minP2 || v > maxP2 {
				continue
			}
			weights = append(weights, gaussianDensity(float64(v)-alpha2, 0, 4))
			cands = append(cands, vr)
		}
		if len(cands) == 0 {
			return nil, [4]int{}, engine.ErrNoCandidate
		}
		pick, err := WeightedChoice(rng, weights)
		if err != nil {
			return nil, [4]int{}, err
		}
		chosen[i] = cands[pick]
		v := cands[pick].EdgeCount
		if calc.Kind() == paramcalc.KindDependencyLength {
			v = cands[pick].DependencyLength
		}
		pRem -= d[i] * v
	}

	params := allocateChildParams(d, pRem, s, calc)
	return chosen, params, nil
}

// allocateChildParams distributes the remaining budget pRem across the four
// children proportionally to their MaxParameter capacity, then repairs
// rounding drift by +1/-1 passes under per-child caps (spec §4.4).
func allocateChildParams(d [4]int, pRem, s int, calc *paramcalc.Calculator) [4]int {
	var params [4]int
	if s == 0 {
		return params
	}
	ratio := float64(pRem) / float64(s)
	var caps [4]int
	total := 0
	for i, di := range d {
		if di == 0 {
			continue
		}
		caps[i] = calc.MaxParameter(di)
		v := int(math.Round(float64(caps[i]) * ratio))
		if v < 0 {
			v = 0
		}
		if v > caps[i] {
			v = caps[i]
		}
		params[i] = v
		total += v
	}
	drift := pRem - total
	for drift != 0 {
		progressed := false
		for i := 0; i < 4 && drift != 0; i++ {
			if d[i] == 0 {
				continue
			}
			if drift > 0 && params[i] < caps[i] {
				params[i]++
				drift--
				progressed = true
			} else if drift < 0 && params[i] > 0 {
				params[i]--
				drift++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return params
}

// SplitChild is one uniquified virtual-rule parent ready to seed a child
// ProblemState.
type SplitChild struct {
	Rule          *rule.Rule
	AllowWildcard bool
}

// Uniquify de-duplicates repeated virtual-rule choices (spec §4.4
// "Splitting"): rules chosen more than once have one shared field extended
// by ceil(log2(multiplicity)) bits of the occurrence index, so each
// occurrence becomes a distinct recursion anchor.
//
// Newly-split children of a "solid" virtual rule (one that equals one of
// the profile's 4 solids) disallow wildcard-root DAGs downstream; children
// that were never split, or were split from a genuinely virtual (non-solid)
// rule, allow them.
func Uniquify(rng *rand.Rand, chosen []*quaddag.RuleStat) ([]SplitChild, error) {
	n := len(chosen)
	assigned := make([]int, n)
	for i := range assigned {
		assigned[i] = -1
	}
	next := 0
	for i := 0; i < n; i++ {
		if chosen[i] == nil || assigned[i] != -1 {
			continue
		}
		assigned[i] = next
		for j := i + 1; j < n; j++ {
			if chosen[j] != nil && assigned[j] == -1 && rule.Equal(chosen[i].Rule, chosen[j].Rule) {
				assigned[j] = next
			}
		}
		next++
	}
	groups := make(map[int][]int)
	for i, g := range assigned {
		if g == -1 {
			continue
		}
		groups[g] = append(groups[g], i)
	}

	out := make([]SplitChild, n)
	for _, members := range groups {
		if len(members) == 1 {
			idx := members[0]
			out[idx] = SplitChild{Rule: chosen[idx].Rule.Clone(), AllowWildcard: true}
			continue
		}
		w := int(math.Ceil(math.Log2(float64(len(members)))))
		active := activeFieldIndices(chosen[members[0]].Rule)
		if len(active) == 0 {
			return nil, engine.ErrBitWidth
		}
		fieldIdx := active[rng.IntN(len(active))]
		for occ, idx := range members {
			clone := chosen[idx].Rule.Clone()
			if clone.Fields[fieldIdx].AvailableWidth() < w {
				return nil, engine.ErrBitWidth
			}
			clone.Fields[fieldIdx] = field.AddSuffix(clone.Fields[fieldIdx], uint32(occ), w)
			out[idx] = SplitChild{Rule: clone, AllowWildcard: !chosen[idx].Solid}
		}
	}
	return out, nil
}

func activeFieldIndices(r *rule.Rule) []int {
	var out []int
	for i, f := range r.Fields {
		if f.AvailableWidth() > 0 {
			out = append(out, i)
		}
	}
	return out
}
