package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
)

func sampleRule() *rule.Rule {
	typ := &rule.Type{Kind: rule.UserDefined, Fields: []rule.FieldSpec{
		{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
		{Kind: field.RM, Width: bitint.Width32, Weight: 1},
	}}
	r := rule.NewWildcard(typ)
	r.Fields[0] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)
	r.Fields[1] = field.NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 10), bitint.FromUint64(bitint.Width32, 200))
	return r
}

func TestSaveLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.gob")

	ckpt := &Checkpoint{
		Rules:           []*rule.Rule{sampleRule(), sampleRule()},
		RuleCount:       2,
		TargetKind:      paramcalc.KindEdgeCount,
		TargetParameter: 3,
	}
	require.NoError(t, Save(path, ckpt))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ckpt.RuleCount, loaded.RuleCount)
	require.Equal(t, ckpt.TargetKind, loaded.TargetKind)
	require.Equal(t, ckpt.TargetParameter, loaded.TargetParameter)
	require.Len(t, loaded.Rules, 2)
	require.True(t, rule.Equal(ckpt.Rules[0], loaded.Rules[0]))
	require.True(t, rule.Equal(ckpt.Rules[1], loaded.Rules[1]))
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/path/ckpt.gob")
	require.Error(t, err)
}
