package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/trace"
)

func testRule() *rule.Rule {
	typ := &rule.Type{Kind: rule.UserDefined, Fields: []rule.FieldSpec{
		{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
		{Kind: field.RM, Width: bitint.Width32, Weight: 1},
	}}
	r := rule.NewWildcard(typ)
	r.Fields[0] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 24) // 192.168.0.0/24
	r.Fields[1] = field.NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 10), bitint.FromUint64(bitint.Width32, 200))
	return r
}

func TestRunDetectsNoMismatchesForValidFlows(t *testing.T) {
	rules := []*rule.Rule{testRule()}
	flows := []trace.Flow{
		{
			Values:    []bitint.Int{bitint.FromUint64(bitint.Width32, 0xC0A80042), bitint.FromUint64(bitint.Width32, 50)},
			RuleIndex: 0,
		},
	}

	pool := NewPool(1)
	pool.Run(flows, rules, false)

	checked, failed := pool.Stats()
	require.Equal(t, int64(1), checked)
	require.Equal(t, int64(0), failed)
	require.Empty(t, pool.Mismatches())
}

func TestRunDetectsMismatchOutsideFieldRange(t *testing.T) {
	rules := []*rule.Rule{testRule()}
	flows := []trace.Flow{
		{
			// second field value (500) is outside the RM range [10, 200]
			Values:    []bitint.Int{bitint.FromUint64(bitint.Width32, 0xC0A80042), bitint.FromUint64(bitint.Width32, 500)},
			RuleIndex: 0,
		},
	}

	pool := NewPool(1)
	pool.Run(flows, rules, false)

	checked, failed := pool.Stats()
	require.Equal(t, int64(1), checked)
	require.Equal(t, int64(1), failed)
	require.Equal(t, []Mismatch{{FlowIndex: 0, RuleIndex: 0}}, pool.Mismatches())
}

func TestRunDetectsOutOfRangeRuleIndex(t *testing.T) {
	rules := []*rule.Rule{testRule()}
	flows := []trace.Flow{
		{Values: []bitint.Int{bitint.FromUint64(bitint.Width32, 1), bitint.FromUint64(bitint.Width32, 1)}, RuleIndex: 5},
	}

	pool := NewPool(1)
	pool.Run(flows, rules, false)

	_, failed := pool.Stats()
	require.Equal(t, int64(1), failed)
}

func TestRunWithMultipleWorkersAggregatesCorrectly(t *testing.T) {
	rules := []*rule.Rule{testRule()}
	flows := make([]trace.Flow, 0, 100)
	for i := 0; i < 100; i++ {
		flows = append(flows, trace.Flow{
			Values:    []bitint.Int{bitint.FromUint64(bitint.Width32, 0xC0A80000+uint64(i)), bitint.FromUint64(bitint.Width32, 50)},
			RuleIndex: 0,
		})
	}

	pool := NewPool(4)
	pool.Run(flows, rules, false)

	checked, failed := pool.Stats()
	require.Equal(t, int64(100), checked)
	require.Equal(t, int64(0), failed)
}
