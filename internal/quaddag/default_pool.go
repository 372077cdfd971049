package quaddag

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// BuildDefaultPool bootstraps a QuadDag profile library by random
// construction, for use when no precomputed profile file (spec §6,
// "Profile file") is supplied. It is a convenience default, not a
// replacement for the precomputation step spec.md treats as an external,
// deterministic input (spec §1 Explicitly out of scope).
//
// It asks rng for up to attempts candidate quadruples of solid rules,
// deduplicates by the resulting 6-character edge string, and stops once
// count distinct profiles have been found or attempts is exhausted.
func BuildDefaultPool(rng *rand.Rand, count, attempts int) *Pool {
	ct := rule.NewCandidateType()
	pool := &Pool{}
	seen := make(map[string]bool)

	for a := 0; a < attempts && len(pool.Profiles) < count; a++ {
		solids := randomSolids(rng, ct)
		dag := FromRules(solids)
		key := dag.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		pool.Profiles = append(pool.Profiles, buildProfile(ct, solids, dag))
	}
	return pool
}

func randomSolids(rng *rand.Rand, ct *rule.Type) [4]*rule.Rule {
	var out [4]*rule.Rule
	out[0] = rule.NewWildcard(ct)
	for i := 1; i < 4; i++ {
		switch rng.IntN(3) {
		case 0:
			// Child of an earlier rule: covered by it (Cover edge parent->i).
			parent := out[rng.IntN(i)]
			out[i] = childOf(rng, ct, parent)
		case 1:
			// Fresh, likely-independent rule.
			out[i] = randomRule(rng, ct)
		default:
			// Sibling sharing one field's prefix with an earlier rule; the
			// other fields are random, so the two may overlap, nest or be
			// disjoint.
			sibling := out[rng.IntN(i)]
			out[i] = siblingOf(rng, ct, sibling)
		}
	}
	return out
}

func childOf(rng *rand.Rand, ct *rule.Type, parent *rule.Rule) *rule.Rule {
	r := parent.Clone()
	// Split one available field by one random bit to shrink the match space.
	candidates := make([]int, 0, len(r.Fields))
	for i, f := range r.Fields {
		if f.AvailableWidth() > 0 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return r
	}
	idx := candidates[rng.IntN(len(candidates))]
	bit := uint32(rng.IntN(2))
	r.Fields[idx] = field.AddSuffix(r.Fields[idx], bit, 1)
	return r
}

func randomRule(rng *rand.Rand, ct *rule.Type) *rule.Rule {
	r := &rule.Rule{Type: ct, Fields: make([]field.Field, len(ct.Fields))}
	for i, fs := range ct.Fields {
		length := rng.IntN(int(fs.Width) + 1)
		var val uint64
		if length > 0 {
			val = rng.Uint64N(uint64(1) << uint(length))
		}
		prefix := bitint.FromUint64(fs.Width, val<<uint(int(fs.Width)-length))
		r.Fields[i] = field.NewLPM(fs.Width, prefix, length)
	}
	return r
}

func siblingOf(rng *rand.Rand, ct *rule.Type, other *rule.Rule) *rule.Rule {
	r := randomRule(rng, ct)
	// Force exactly one field to match other's field, giving at least one
	// shared coordinate while the remaining fields stay independently random.
	idx := rng.IntN(len(r.Fields))
	r.Fields[idx] = other.Fields[idx]
	return r
}

func buildProfile(ct *rule.Type, solids [4]*rule.Rule, dag QuadDag) *Profile {
	prof := &Profile{Dag: dag, SolidRules: solids}
	for i := 0; i < 4; i++ {
		d, e, s := computeStats(solids[i], solids)
		prof.SolidStats[i] = RuleStat{Rule: solids[i], DependencyLength: d, EdgeCount: e, Solid: s}
	}

	virtuals := virtualProduct(solids, ct)
	fieldSeen := make([]bool, len(ct.Fields))
	for _, v := range virtuals {
		d, e, s := computeStats(v, solids)
		prof.VirtualRules = append(prof.VirtualRules, RuleStat{Rule: v, DependencyLength: d, EdgeCount: e, Solid: s})
		if d > prof.TotalDependencyLength {
			prof.TotalDependencyLength = d
		}
		prof.TotalEdgeCount += e
		for i, f := range v.Fields {
			if f.AvailableWidth() < int(ct.Fields[i].Width) {
				fieldSeen[i] = true
			}
		}
	}
	for i, seen := range fieldSeen {
		if seen {
			prof.ActualFieldCount++
		}
		prof.TotalBitWidth += int(ct.Fields[i].Width)
		prof.FieldWidths = append(prof.FieldWidths, int(ct.Fields[i].Width))
	}
	prof.ExistWildcard = rule.Equal(solids[0], rule.NewWildcard(ct))
	return prof
}

// virtualProduct returns the LPM-product over the distinct per-field values
// present across the 4 solid rules (spec §4.1 profile invariant).
func virtualProduct(solids [4]*rule.Rule, ct *rule.Type) []*rule.Rule {
	n := len(ct.Fields)
	choices := make([][]field.Field, n)
	for i := 0; i < n; i++ {
		choices[i] = distinctFieldValues(solids, i)
	}

	var out []*rule.Rule
	idxs := make([]int, n)
	var rec func(pos int)
	rec = func(pos int) {
		if pos == n {
			r := &rule.Rule{Type: ct, Fields: make([]field.Field, n)}
			for i := 0; i < n; i++ {
				r.Fields[i] = choices[i][idxs[i]]
			}
			out = append(out, r)
			return
		}
		for i := range choices[pos] {
			idxs[pos] = i
			rec(pos + 1)
		}
	}
	rec(0)
	return out
}

func distinctFieldValues(solids [4]*rule.Rule, idx int) []field.Field {
	var out []field.Field
	for _, s := range solids {
		f := s.Fields[idx]
		dup := false
		for _, o := range out {
			if field.Equal(f, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}
