// Package splitter implements the rule splitter (spec §4.7): dividing one
// user-defined rule's match space into two disjoint children by extending a
// weighted-chosen field by one suffix bit. Shared by the sparse/dense
// partitioners (component C10) and the trace flow-queue growth step (§4.14),
// both of which need to carve a rule's space into smaller disjoint pieces.
package splitter

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/selector"
)

// Split picks a field of r weighted by weights (skipping any field with no
// available width left) and extends it by one suffix bit, returning the two
// resulting disjoint children. Fails with engine.ErrBitWidth if every field
// is already exhausted or the drawn field is EM (non-decomposable).
func Split(rng *rand.Rand, r *rule.Rule, weights []float64) (left, right *rule.Rule, err error) {
	w := make([]float64, len(weights))
	copy(w, weights)
	for i, f := range r.Fields {
		if f.AvailableWidth() == 0 {
			w[i] = 0
		}
	}
	idx, err := selector.WeightedChoice(rng, w)
	if err != nil {
		return nil, nil, engine.ErrBitWidth
	}
	f := r.Fields[idx]
	if f.Kind == field.EM || f.AvailableWidth() == 0 {
		return nil, nil, engine.ErrBitWidth
	}

	left = r.Clone()
	right = r.Clone()
	left.Fields[idx] = field.AddSuffix(f, 0, 1)
	right.Fields[idx] = field.AddSuffix(f, 1, 1)
	return left, right, nil
}
