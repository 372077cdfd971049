package problem

import (
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/partition"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/selector"
)

// GlobalProblem owns the run's parameter target and drives the
// partition-then-solve retry loop (spec §4.10, component C11).
type GlobalProblem struct {
	Ctx     *engine.Context
	Indexes *selector.Indexes
}

// NewGlobalProblem builds the selector indexes once from ctx's pool and
// target kind and returns a ready-to-run GlobalProblem.
func NewGlobalProblem(ctx *engine.Context) *GlobalProblem {
	return &GlobalProblem{
		Ctx:     ctx,
		Indexes: selector.Build(ctx.Pool, ctx.Config.TargetKind),
	}
}

// fieldWeights extracts the configured per-field selection weights in
// user-field order (spec §4.7/§4.8's splitter input).
func (gp *GlobalProblem) fieldWeights() []float64 {
	w := make([]float64, len(gp.Ctx.Config.Fields))
	for i, f := range gp.Ctx.Config.Fields {
		w[i] = f.Weight
	}
	return w
}

// Run executes spec §4.10: pick dense vs sparse partitioning depending on
// whether the target exceeds a single root subproblem's reach, then loop,
// reinitializing finalSet and the state queue on every retry, doubling
// (sparse) or deepening (dense) the partition until the local solve
// succeeds or the partitioner itself refuses further subdivision.
func (gp *GlobalProblem) Run(n, p int) (*rule.Set, error) {
	calc := gp.Ctx.Calc
	userType := gp.Ctx.Config.UserRuleType()
	weights := gp.fieldWeights()
	totalBitWidth := 0
	for _, f := range gp.Ctx.Config.Fields {
		totalBitWidth += int(f.Width)
	}

	if p > calc.MaxParameter(n) {
		return gp.runDense(n, p, userType, weights, totalBitWidth)
	}
	return gp.runSparse(n, p, userType, weights, totalBitWidth)
}

func (gp *GlobalProblem) runSparse(n, p int, userType *rule.Type, weights []float64, totalBitWidth int) (*rule.Set, error) {
	partCount := 0
	for {
		partCount = partition.NextSparsePartCount(partCount)
		if !partition.SparseAdmissible(gp.Ctx.Calc, n, p, partCount, totalBitWidth) {
			return nil, engine.ErrNoCandidate
		}

		finalSet := rule.New()
		origins, err := partition.BuildSparse(gp.Ctx.Rng.Rand(), gp.Ctx.Calc, userType, weights, n, p, partCount)
		if err != nil {
			continue
		}

		roots := make([]ProblemState, len(origins))
		for i, o := range origins {
			w, fw := deriveFieldState(o.Rule, userType)
			roots[i] = ProblemState{N: o.N, P: o.P, AllowWildcard: o.AllowWildcard, Parent: o.Rule, AvailableWidths: w, FieldWeights: fw}
		}

		lp := &LocalProblem{Ctx: gp.Ctx, Indexes: gp.Indexes}
		if err := lp.Solve(roots, finalSet); err == nil {
			return finalSet, nil
		}
	}
}

func (gp *GlobalProblem) runDense(n, p int, userType *rule.Type, weights []float64, totalBitWidth int) (*rule.Set, error) {
	h := 0
	for {
		h = partition.NextDenseDepth(h)
		if !partition.DenseFeasible(n, h, totalBitWidth) {
			return nil, engine.ErrNoCandidate
		}

		finalSet := rule.New()
		root, err := partition.BuildDense(gp.Ctx.Rng.Rand(), userType, weights, n, h, totalBitWidth)
		if err != nil {
			continue
		}
		committed, origins := partition.ExportDense(gp.Ctx.Calc, root, p)
		for _, r := range committed {
			finalSet.Add(r)
		}

		roots := make([]ProblemState, len(origins))
		for i, o := range origins {
			w, fw := deriveFieldState(o.Rule, userType)
			roots[i] = ProblemState{N: o.N, P: o.P, AllowWildcard: o.AllowWildcard, Parent: o.Rule, AvailableWidths: w, FieldWeights: fw}
		}

		lp := &LocalProblem{Ctx: gp.Ctx, Indexes: gp.Indexes}
		if err := lp.Solve(roots, finalSet); err == nil {
			return finalSet, nil
		}
	}
}
