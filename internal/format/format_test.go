package format

import (
	"testing"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRuleRoundTripsFlowBench(t *testing.T) {
	cfgs, ok := Preset("ipv4")
	require.True(t, ok)

	typ := &rule.Type{Kind: rule.UserDefined}
	for _, c := range cfgs {
		typ.Fields = append(typ.Fields, rule.FieldSpec{Kind: c.Kind, Width: c.Width, Weight: c.Weight})
	}
	r := rule.NewWildcard(typ)
	r.Fields[0] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)
	r.Fields[2] = field.NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 10), bitint.FromUint64(bitint.Width32, 20))
	r.Fields[4] = field.NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 6), false)

	line := EncodeRule(r, cfgs, FlowBench)
	require.Contains(t, line, "192.168.0.0/16")

	decoded, err := DecodeRuleLine(line, cfgs, FlowBench)
	require.NoError(t, err)
	require.True(t, rule.Equal(r, decoded))
}

func TestEncodeDecodeRuleRoundTripsClassBench(t *testing.T) {
	cfgs, ok := Preset("ipv4")
	require.True(t, ok)

	typ := &rule.Type{Kind: rule.UserDefined}
	for _, c := range cfgs {
		typ.Fields = append(typ.Fields, rule.FieldSpec{Kind: c.Kind, Width: c.Width, Weight: c.Weight})
	}
	r := rule.NewWildcard(typ)
	r.Fields[1] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0x0A000000), 8)

	line := EncodeRule(r, cfgs, ClassBench)
	require.Contains(t, line, "@")
	require.Contains(t, line, "10.0.0.0/8")

	decoded, err := DecodeRuleLine(line, cfgs, ClassBench)
	require.NoError(t, err)
	require.True(t, rule.Equal(r, decoded))
}

func TestEncodeDecodeFlowLine(t *testing.T) {
	cfgs, ok := Preset("ipv4")
	require.True(t, ok)
	values := []bitint.Int{
		bitint.FromUint64(bitint.Width32, 0xC0A80101),
		bitint.FromUint64(bitint.Width32, 0x08080808),
		bitint.FromUint64(bitint.Width32, 443),
		bitint.FromUint64(bitint.Width32, 12345),
		bitint.FromUint64(bitint.Width32, 6),
	}
	line := EncodeFlow(values, 7, cfgs, FlowBench)

	decodedValues, ruleIdx, err := DecodeFlowLine(line, cfgs, FlowBench)
	require.NoError(t, err)
	require.Equal(t, 7, ruleIdx)
	for i, v := range values {
		require.True(t, v.Equal(decodedValues[i]))
	}
}

func TestPresetUnknownNameFails(t *testing.T) {
	_, ok := Preset("not-a-real-protocol")
	require.False(t, ok)
}

var _ = engine.FieldConfig{}
