package problem

import (
	"math/rand/v2"
	"testing"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/selector"
	"github.com/stretchr/testify/require"
)

func testConfig() *engine.Config {
	return &engine.Config{
		RuleCount:       8,
		TargetKind:      paramcalc.KindEdgeCount,
		TargetParameter: 2,
		Fields: []engine.FieldConfig{
			{Name: "src", Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Name: "dst", Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Name: "srcport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "dstport", Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Name: "proto", Kind: field.EM, Width: bitint.Width32, Weight: 0.2},
		},
		AllowWildcardRoot: true,
		Seed:              42,
	}
}

func buildPool() *quaddag.Pool {
	return quaddag.BuildDefaultPool(rand.New(rand.NewPCG(7, 7)), 64, 200)
}

func TestLocalProblemSolvesSmallState(t *testing.T) {
	cfg := testConfig()
	pool := buildPool()
	ctx := engine.NewContext(cfg, pool)

	lp := &LocalProblem{Ctx: ctx, Indexes: selector.Build(pool, ctx.Config.TargetKind)}
	finalSet := rule.New()
	roots := []ProblemState{{N: 4, P: 1, AllowWildcard: true, Parent: nil}}

	err := lp.Solve(roots, finalSet)
	require.NoError(t, err)
	require.Equal(t, 4, finalSet.Len())
}

func TestGlobalProblemProducesRequestedRuleCount(t *testing.T) {
	cfg := testConfig()
	pool := buildPool()
	ctx := engine.NewContext(cfg, pool)

	gp := NewGlobalProblem(ctx)
	set, err := gp.Run(8, 2)
	require.NoError(t, err)
	require.Equal(t, 8, set.Len())
}
