package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/format"
	"github.com/flowsynth/corpusgen/internal/logging"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
)

func TestParseKindAcceptsAllThreeSpellingsCaseInsensitively(t *testing.T) {
	for in, want := range map[string]field.Kind{"em": field.EM, "LPM": field.LPM, "Rm": field.RM} {
		got, err := parseKind(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	_, err := parseKind("bogus")
	require.Error(t, err)
}

func TestBuildFieldsRequiresMatchingSliceLengths(t *testing.T) {
	_, err := buildFields(2, []string{"32"}, []string{"LPM", "EM"}, nil)
	require.Error(t, err)
}

func TestBuildFieldsDefaultsWeightToOne(t *testing.T) {
	fields, err := buildFields(2, []string{"32", "32"}, []string{"LPM", "EM"}, []float64{5})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, 5.0, fields[0].Weight)
	require.Equal(t, 1.0, fields[1].Weight, "a field with no configured weight defaults to 1")
	require.Equal(t, field.LPM, fields[0].Kind)
	require.Equal(t, bitint.Width32, fields[0].Width)
}

func TestBuildFieldsRejectsBadWidth(t *testing.T) {
	_, err := buildFields(1, []string{"notanumber"}, []string{"LPM"}, nil)
	require.Error(t, err)
}

func TestTargetKindName(t *testing.T) {
	require.Equal(t, "D", targetKindName(paramcalc.KindDependencyLength))
	require.Equal(t, "E", targetKindName(paramcalc.KindEdgeCount))
}

func TestApplyRulegenFlagsUsesProtocolPreset(t *testing.T) {
	cfg := &engine.Config{}
	err := applyRulegenFlags(cfg, 100, 0, nil, nil, nil, 0, 0, 0, 0, 42, false, false, "ipv4")
	require.NoError(t, err)
	require.Equal(t, 100, cfg.RuleCount)
	require.Equal(t, uint64(42), cfg.Seed)
	require.NotEmpty(t, cfg.Fields)
	require.Equal(t, "src", cfg.Fields[0].Name)
}

func TestApplyRulegenFlagsRejectsUnknownProtocol(t *testing.T) {
	cfg := &engine.Config{}
	err := applyRulegenFlags(cfg, 10, 0, nil, nil, nil, 0, 0, 0, 0, 1, false, false, "not-a-protocol")
	require.Error(t, err)
}

func TestApplyRulegenFlagsAbsoluteTargetsTakePriority(t *testing.T) {
	cfg := &engine.Config{}
	err := applyRulegenFlags(cfg, 10, 0, nil, nil, nil, 5, 0, 0, 0, 1, false, false, "ipv4")
	require.NoError(t, err)
	require.Equal(t, paramcalc.KindDependencyLength, cfg.TargetKind)
	require.Equal(t, 5, cfg.TargetParameter)

	cfg2 := &engine.Config{}
	err = applyRulegenFlags(cfg2, 10, 0, nil, nil, nil, 0, 7, 0, 0, 1, false, false, "ipv4")
	require.NoError(t, err)
	require.Equal(t, paramcalc.KindEdgeCount, cfg2.TargetKind)
	require.Equal(t, 7, cfg2.TargetParameter)
}

func TestApplyRulegenFlagsResolvesFractionalTargets(t *testing.T) {
	cfg := &engine.Config{RuleCount: 10}
	err := applyRulegenFlags(cfg, 10, 0, nil, nil, nil, 0, 0, 0, 0.5, 1, false, false, "ipv4")
	require.NoError(t, err)
	require.Equal(t, paramcalc.KindEdgeCount, cfg.TargetKind)
	require.Greater(t, cfg.TargetParameter, 0)
}

func TestApplyRulegenFlagsPreservesExistingArbitraryRangeAndDense(t *testing.T) {
	cfg := &engine.Config{ArbitraryRange: true, DenseProfiles: true}
	err := applyRulegenFlags(cfg, 10, 0, nil, nil, nil, 0, 0, 0, 0, 1, false, false, "ipv4")
	require.NoError(t, err)
	require.True(t, cfg.ArbitraryRange, "flag false must not clobber a config-loaded true")
	require.True(t, cfg.DenseProfiles)
}

func TestWriteManifestIfRequestedNoopWhenPathEmpty(t *testing.T) {
	err := writeManifestIfRequested("", &engine.Config{}, 0, "", "", 0, time.Now())
	require.NoError(t, err)
}

func TestWriteManifestIfRequestedWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	cfg := &engine.Config{RuleCount: 50, Seed: 7}
	err := writeManifestIfRequested(path, cfg, 3, "ipv4", "out.rules", 50, time.Now())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"rule_count": 50`)
}

func TestWriteRulesWritesEncodedLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rules")
	cfgs := []engine.FieldConfig{
		{Name: "f0", Kind: field.LPM, Width: bitint.Width32, Weight: 1},
	}
	userType := &rule.Type{Kind: rule.UserDefined, Fields: []rule.FieldSpec{{Kind: field.LPM, Width: bitint.Width32, Weight: 1}}}
	set := &rule.Set{Rules: []*rule.Rule{rule.NewWildcard(userType)}}
	logger := logging.New(logging.Config{Level: logging.LevelError, Output: io.Discard})

	err := writeRules(path, set, cfgs, format.FlowBench, logger)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}
