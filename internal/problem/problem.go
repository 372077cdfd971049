// Package problem implements the recursive rule-set synthesizer's driver
// (spec §4.6 "Local Problem", §4.10 "Global Problem", component C11): the
// ProblemState recursion node, the local solver that turns one state tree
// into emitted rules via the QuadDag selection and instantiation pipeline,
// and the global loop that retries with a coarser partition on failure.
package problem

import (
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/instantiate"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/selector"
)

// ProblemState is one recursion node (spec §3 "ProblemState"): how many
// rules it must produce, the target D/E parameter, whether a wildcard-root
// DAG is admissible here, and the user-defined rule whose match space this
// subproblem refines. Created by the partitioners (as roots) and by the
// virtual-rule splitter (as children); consumed exactly once by the local
// solver.
type ProblemState struct {
	N             int
	P             int
	AllowWildcard bool
	Parent        *rule.Rule

	// AvailableWidths and FieldWeights record, per user field index, how
	// many still-free bits that field has left in Parent's match space and
	// its configured selection weight. Both are nil for a state that hasn't
	// had any field narrowed yet (e.g. tests that build a bare ProblemState
	// directly); fieldAvailability fills in the full-width default in that
	// case.
	AvailableWidths []int
	FieldWeights    []float64
}

// fieldAvailability returns state's recorded per-field availability, or the
// full-width/full-weight default derived from userType when state was built
// without it.
func fieldAvailability(state ProblemState, userType *rule.Type) ([]int, []float64) {
	if state.AvailableWidths != nil && state.FieldWeights != nil {
		return state.AvailableWidths, state.FieldWeights
	}
	widths := make([]int, len(userType.Fields))
	weights := make([]float64, len(userType.Fields))
	for i, fs := range userType.Fields {
		widths[i] = int(fs.Width)
		weights[i] = fs.Weight
	}
	return widths, weights
}

// deriveFieldState computes the AvailableWidths/FieldWeights a child state
// inherits from the rule it refines: each field's still-free bit count after
// parent narrows it, with the user type's fixed per-field selection weight.
func deriveFieldState(parent *rule.Rule, userType *rule.Type) ([]int, []float64) {
	widths := make([]int, len(userType.Fields))
	weights := make([]float64, len(userType.Fields))
	for i, fs := range userType.Fields {
		weights[i] = fs.Weight
		widths[i] = parent.Fields[i].AvailableWidth()
	}
	return widths, weights
}

// LocalProblem drives the recursion for one run's worth of ProblemStates
// (spec §4.6, component C11).
type LocalProblem struct {
	Ctx     *engine.Context
	Indexes *selector.Indexes
}

// Solve processes roots and every child state they produce to completion,
// appending every emitted rule into finalSet. A plain slice stands in for
// the queue: states are pushed at the back and popped from the front, so
// the call stack never grows with n (spec §9 "recursion through a queue").
func (lp *LocalProblem) Solve(roots []ProblemState, finalSet *rule.Set) error {
	queue := append([]ProblemState(nil), roots...)
	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]
		children, err := lp.solveOne(state, finalSet)
		if err != nil {
			return err
		}
		queue = append(queue, children...)
	}
	return nil
}

// solveOne implements spec §4.6 steps 1-3 for a single state.
func (lp *LocalProblem) solveOne(state ProblemState, finalSet *rule.Set) ([]ProblemState, error) {
	rng := lp.Ctx.Rng.Rand()
	userType := lp.Ctx.Config.UserRuleType()
	widths, weights := fieldAvailability(state, userType)
	k := selector.UsableFieldCount(widths, weights)
	profileID, err := lp.Indexes.SelectProfile(rng, lp.Ctx.Calc, state.N, k, state.P, state.AllowWildcard)
	if err != nil {
		return nil, err
	}
	prof := lp.Ctx.Pool.Profiles[profileID]

	if state.N <= 4 {
		candidates := make([]*rule.Rule, state.N)
		for i := 0; i < state.N; i++ {
			candidates[i] = prof.SolidRules[i]
		}
		out, err := lp.instantiateLayer(rng, candidates, userType, state.Parent)
		if err != nil {
			return nil, err
		}
		for _, r := range out {
			finalSet.Add(r)
		}
		return nil, nil
	}

	d := paramcalc.Divide(state.N - 4)
	chosen, childParams, err := selector.SelectVirtualParents(rng, lp.Ctx.Calc, prof, d, state.P, state.N)
	if err != nil {
		return nil, err
	}
	split, err := selector.Uniquify(rng, chosen)
	if err != nil {
		return nil, err
	}

	candidates := make([]*rule.Rule, 0, 4+len(split))
	for i := 0; i < 4; i++ {
		candidates = append(candidates, prof.SolidRules[i])
	}
	for _, sc := range split {
		if sc.Rule != nil {
			candidates = append(candidates, sc.Rule)
		}
	}

	out, err := lp.instantiateLayer(rng, candidates, userType, state.Parent)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 4; i++ {
		finalSet.Add(out[i])
	}

	var children []ProblemState
	childIdx := 4
	for i := 0; i < 4; i++ {
		if d[i] == 0 {
			continue
		}
		childWidths, childWeights := deriveFieldState(out[childIdx], userType)
		children = append(children, ProblemState{
			N:               d[i],
			P:               childParams[i],
			AllowWildcard:   split[i].AllowWildcard,
			Parent:          out[childIdx],
			AvailableWidths: childWidths,
			FieldWeights:    childWeights,
		})
		childIdx++
	}
	return children, nil
}

func (lp *LocalProblem) instantiateLayer(rng *rand.Rand, candidates []*rule.Rule, userType *rule.Type, parent *rule.Rule) ([]*rule.Rule, error) {
	instantiate.ApplyBitMasks(rng, candidates)
	out, _, err := instantiate.Instantiate(rng, candidates, userType, parent)
	if err != nil {
		return nil, err
	}
	if lp.Ctx.Config.ArbitraryRange {
		instantiate.Perturb(rng, out)
	}
	return out, nil
}
