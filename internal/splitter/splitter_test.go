package splitter

import (
	"math/rand/v2"
	"testing"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/stretchr/testify/require"
)

func ipv4Type() *rule.Type {
	return &rule.Type{
		Kind: rule.UserDefined,
		Fields: []rule.FieldSpec{
			{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Kind: field.RM, Width: bitint.Width32, Weight: 1},
			{Kind: field.EM, Width: bitint.Width32, Weight: 1},
		},
	}
}

func TestSplitProducesDisjointChildren(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := rule.NewWildcard(ipv4Type())
	weights := []float64{1, 1, 1, 1, 0} // EM field never selectable

	left, right, err := Split(rng, r, weights)
	require.NoError(t, err)
	require.False(t, rule.Overlap(left, right), "split children must be disjoint")
	require.True(t, rule.Cover(r, left))
	require.True(t, rule.Cover(r, right))
}

func TestSplitFailsWhenOnlyEMAvailable(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	r := rule.NewWildcard(ipv4Type())
	weights := []float64{0, 0, 0, 0, 1}

	_, _, err := Split(rng, r, weights)
	require.Error(t, err)
}
