package instantiate

import (
	"math/rand/v2"
	"sort"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/selector"
)

// FieldMapping records which user-defined field each candidate field index
// was assigned to, and which user fields turned out EM-typed along the way.
type FieldMapping struct {
	CandToUser []int
	EMFields   map[int]bool
}

// MapFields builds the candidate-to-user field mapping (spec §4.5 step 2).
// Candidate fields are processed in decreasing required prefix length (the
// widest prefix that any candidate rule in the set actually uses for that
// slot); each step draws a user field weighted by its configured selection
// weight, zeroing the weight once drawn. An EM draw can never satisfy a
// prefix-length requirement, so it is remembered for later EM assignment
// and the draw repeats; a too-narrow non-EM draw is simply skipped the same
// way. Any candidate slot still unmapped once the draws are exhausted is
// filled with the next unused user-field index.
func MapFields(rng *rand.Rand, candidates []*rule.Rule, userType *rule.Type) (FieldMapping, error) {
	mapping := FieldMapping{EMFields: make(map[int]bool)}
	if len(candidates) == 0 {
		return mapping, nil
	}
	nCand := len(candidates[0].Fields)
	nUser := len(userType.Fields)
	mapping.CandToUser = make([]int, nCand)
	for i := range mapping.CandToUser {
		mapping.CandToUser[i] = -1
	}

	required := make([]int, nCand)
	for _, c := range candidates {
		for i, f := range c.Fields {
			if f.PrefixLen > required[i] {
				required[i] = f.PrefixLen
			}
		}
	}
	order := make([]int, nCand)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return required[order[a]] > required[order[b]] })

	weights := make([]float64, nUser)
	for i, fs := range userType.Fields {
		weights[i] = fs.Weight
	}
	used := make([]bool, nUser)

	for _, cIdx := range order {
		need := required[cIdx]
		for {
			pick, err := selector.WeightedChoice(rng, weights)
			if err != nil {
				break // exhausted: leave unmapped, filled below
			}
			weights[pick] = 0
			used[pick] = true
			uf := userType.Fields[pick]
			if uf.Kind == field.EM {
				mapping.EMFields[pick] = true
				continue
			}
			if int(uf.Width) < need {
				continue
			}
			mapping.CandToUser[cIdx] = pick
			break
		}
	}

	nextFree := 0
	for _, cIdx := range order {
		if mapping.CandToUser[cIdx] != -1 {
			continue
		}
		for nextFree < nUser && used[nextFree] {
			nextFree++
		}
		if nextFree >= nUser {
			return mapping, engine.ErrBitWidth
		}
		mapping.CandToUser[cIdx] = nextFree
		used[nextFree] = true
		if userType.Fields[nextFree].Kind == field.EM {
			mapping.EMFields[nextFree] = true
		}
		nextFree++
	}

	return mapping, nil
}

// Instantiate turns candidates (the layer's solid + uniquified virtual
// rules) into user-defined rules composed inside parent's match space (spec
// §4.5 step 3). EM user fields draw one shared random value for the whole
// subproblem, per spec.
func Instantiate(rng *rand.Rand, candidates []*rule.Rule, userType *rule.Type, parent *rule.Rule) ([]*rule.Rule, FieldMapping, error) {
	mapping, err := MapFields(rng, candidates, userType)
	if err != nil {
		return nil, mapping, err
	}

	emValues := make(map[int]bitint.Int, len(mapping.EMFields))
	for uf := range mapping.EMFields {
		w := userType.Fields[uf].Width
		wildcard := field.NewEM(w, bitint.Zero(w), true)
		emValues[uf] = field.Hit(wildcard, rng)
	}

	out := make([]*rule.Rule, len(candidates))
	for ci, cand := range candidates {
		r := rule.NewWildcard(userType)
		for cIdx, uIdx := range mapping.CandToUser {
			if uIdx < 0 || mapping.EMFields[uIdx] {
				continue
			}
			r.Fields[uIdx] = cand.Fields[cIdx]
		}
		// EM fields are assigned here directly, not through CandToUser: an EM
		// draw during MapFields' search loop never claims a candidate slot
		// (it redraws instead), so uIdx may not appear anywhere in
		// CandToUser even though it was discovered as a user field to fill.
		for uIdx := range mapping.EMFields {
			r.Fields[uIdx] = field.NewEM(userType.Fields[uIdx].Width, emValues[uIdx], false)
		}
		if parent != nil {
			for i := range r.Fields {
				if mapping.EMFields[i] {
					continue
				}
				r.Fields[i] = field.SetParent(r.Fields[i], parent.Fields[i])
			}
		}
		out[ci] = r
	}
	return out, mapping, nil
}
