// Package selector implements the remainder and union selector indexes
// (spec §4.2, component C6), the QuadDag selection logic over those indexes
// (spec §4.3), the §4.13 weighted sampler, and the virtual-rule selection
// and splitting logic of §4.4 (component C7).
package selector

import (
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rule"
)

type remainderKey struct{ n, k, p int }
type unionKey struct{ k, p1, minMaxP2, maxMinP2 int }

// MaxUsedFields is the candidate rule type's field count (Candidate is
// fixed at exactly three 32-bit LPM fields) — the hard ceiling on how many
// distinct user fields any profile can ever need.
const MaxUsedFields = 3

// perRuleParamBound bounds the per-virtual-rule parameter value used as a
// union-index key: a virtual rule's in-degree against 4 solids is at most 4,
// and its dependency-chain length through those solids is bounded the same
// way, so bucket keys never need to range further than this.
const perRuleParamBound = 4

// UsableFieldCount bounds how many distinct user fields a subproblem can
// actually spread a profile's matches across (spec §3's ProblemState
// available_widths/field_weights): a field with no selection weight or no
// free bits left can never receive a candidate assignment, so it cannot
// count toward k. The result is floored at 1 (the k=0 bucket only holds
// profiles that are all-wildcard on every field, a strict subset of what a
// k=1 query also returns) and capped at MaxUsedFields.
func UsableFieldCount(availableWidths []int, fieldWeights []float64) int {
	n := 0
	for i := range availableWidths {
		if availableWidths[i] > 0 && fieldWeights[i] > 0 {
			n++
		}
	}
	if n < 1 {
		n = 1
	}
	if n > MaxUsedFields {
		n = MaxUsedFields
	}
	return n
}

// Indexes holds the remainder and union selector tables (spec §4.2), built
// once from a QuadDag pool for one target Kind, plus their
// wildcard-forbidden twins.
type Indexes struct {
	kind paramcalc.Kind
	pool *quaddag.Pool

	remainder   map[remainderKey][]int
	remainderNW map[remainderKey][]int
	union       map[unionKey][]int
	unionNW     map[unionKey][]int
}

// Build constructs both indexes from pool for the given target Kind.
func Build(pool *quaddag.Pool, kind paramcalc.Kind) *Indexes {
	ix := &Indexes{
		kind:        kind,
		pool:        pool,
		remainder:   make(map[remainderKey][]int),
		remainderNW: make(map[remainderKey][]int),
		union:       make(map[unionKey][]int),
		unionNW:     make(map[unionKey][]int),
	}
	for id, prof := range pool.Profiles {
		ix.indexRemainder(id, prof)
		ix.indexUnion(id, prof)
	}
	return ix
}

func isWildcardRule(r *rule.Rule) bool {
	for _, f := range r.Fields {
		if !f.IsWildcard() {
			return false
		}
	}
	return true
}

func subsetHasWildcard(rules []*rule.Rule) bool {
	for _, r := range rules {
		if isWildcardRule(r) {
			return true
		}
	}
	return false
}

// indexRemainder files profile id under every (n, k, p) bucket its first-n
// solid-rule prefix satisfies, for n in 1..4 (spec §4.2 "Remainder index").
func (ix *Indexes) indexRemainder(id int, prof *quaddag.Profile) {
	for n := 1; n <= 4; n++ {
		subset := prof.SolidRules[:n]
		k0 := rule.UsedFieldCount(subset)
		p := rule.Parameter(subset, ix.kind)
		wc := subsetHasWildcard(subset)
		for k := k0; k <= MaxUsedFields; k++ {
			key := remainderKey{n, k, p}
			ix.remainder[key] = append(ix.remainder[key], id)
			if !wc {
				ix.remainderNW[key] = append(ix.remainderNW[key], id)
			}
		}
	}
}

// indexUnion files profile id under every (k, p1, minMaxP2, maxMinP2)
// bucket its 4 solids and virtual rules satisfy (spec §4.2 "Union index").
func (ix *Indexes) indexUnion(id int, prof *quaddag.Profile) {
	solids := prof.SolidRules[:4]
	k0 := rule.UsedFieldCount(solids)
	p1 := rule.Parameter(solids, ix.kind)
	wc := subsetHasWildcard(solids)

	maxP2, minP2 := 0, perRuleParamBound
	for _, vr := range prof.VirtualRules {
		v := vr.EdgeCount
		if ix.kind == paramcalc.KindDependencyLength {
			v = vr.DependencyLength
		}
		if v > maxP2 {
			maxP2 = v
		}
		if v < minP2 {
			minP2 = v
		}
	}
	if len(prof.VirtualRules) == 0 {
		minP2 = 0
	}

	for k := k0; k <= MaxUsedFields; k++ {
		for minMaxP2 := 1; minMaxP2 <= maxP2; minMaxP2++ {
			for maxMinP2 := minP2; maxMinP2 <= perRuleParamBound; maxMinP2++ {
				key := unionKey{k, p1, minMaxP2, maxMinP2}
				ix.union[key] = append(ix.union[key], id)
				if !wc {
					ix.unionNW[key] = append(ix.unionNW[key], id)
				}
			}
		}
	}
}
