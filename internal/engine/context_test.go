package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rule"
)

func TestResolveTargetScalesByFraction(t *testing.T) {
	calc := paramcalc.New(paramcalc.KindEdgeCount)
	max := calc.MaxParameter(10)
	got := ResolveTarget(calc, 10, 0.5)
	require.Equal(t, int(0.5*float64(max)), got)
}

func TestUserRuleTypeMirrorsFieldConfigs(t *testing.T) {
	cfg := &Config{
		Fields: []FieldConfig{
			{Name: "src", Kind: field.LPM, Width: bitint.Width32, Weight: 1, Address: true},
			{Name: "sport", Kind: field.RM, Width: bitint.Width32, Weight: 0.5},
		},
	}
	typ := cfg.UserRuleType()
	require.Equal(t, rule.UserDefined, typ.Kind)
	require.Len(t, typ.Fields, 2)
	require.Equal(t, field.LPM, typ.Fields[0].Kind)
	require.Equal(t, bitint.Width32, typ.Fields[0].Width)
	require.Equal(t, 0.5, typ.Fields[1].Weight)
}

func TestNewContextSeedsRngAndCalculator(t *testing.T) {
	cfg := &Config{RuleCount: 5, TargetKind: paramcalc.KindDependencyLength, Seed: 42}
	pool := &quaddag.Pool{}
	ctx := NewContext(cfg, pool)

	require.Same(t, cfg, ctx.Config)
	require.Same(t, pool, ctx.Pool)
	require.NotNil(t, ctx.Rng)
	require.Equal(t, paramcalc.KindDependencyLength, ctx.Calc.Kind())
}
