package format

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
)

// yamlField mirrors engine.FieldConfig in a YAML-friendly shape (string
// enums instead of the internal Kind/Width types).
type yamlField struct {
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind"`
	Width   int     `yaml:"width"`
	Weight  float64 `yaml:"weight"`
	Address bool    `yaml:"address"`
}

// yamlConfig is the on-disk shape of a "-c/--config" preset file.
type yamlConfig struct {
	RuleCount         int         `yaml:"rule_count"`
	TraceCount        int         `yaml:"trace_count"`
	TargetKind        string      `yaml:"target_kind"`
	TargetParameter   int         `yaml:"target_parameter"`
	TargetFraction    float64     `yaml:"target_fraction"`
	Fields            []yamlField `yaml:"fields"`
	Protocol          string      `yaml:"protocol"`
	AllowWildcardRoot bool        `yaml:"allow_wildcard_root"`
	ArbitraryRange    bool        `yaml:"arbitrary_range"`
	DenseProfiles     bool        `yaml:"dense_profiles"`
	Seed              uint64      `yaml:"seed"`
}

// LoadConfig reads a YAML run-configuration file (spec §6 "-c/--config")
// into an engine.Config. If Protocol names a known preset, its fields
// override the YAML's own Fields list.
func LoadConfig(path string) (*engine.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("format: parsing config %s: %w", path, err)
	}

	cfg := &engine.Config{
		RuleCount:         y.RuleCount,
		TargetParameter:   y.TargetParameter,
		AllowWildcardRoot: y.AllowWildcardRoot,
		ArbitraryRange:    y.ArbitraryRange,
		DenseProfiles:     y.DenseProfiles,
		Seed:              y.Seed,
	}
	if y.TargetKind == "D" {
		cfg.TargetKind = paramcalc.KindDependencyLength
	} else {
		cfg.TargetKind = paramcalc.KindEdgeCount
	}

	if y.Protocol != "" {
		fields, ok := Preset(y.Protocol)
		if !ok {
			return nil, fmt.Errorf("format: unknown protocol preset %q", y.Protocol)
		}
		cfg.Fields = fields
	} else {
		for _, f := range y.Fields {
			kind, err := parseFieldKind(f.Kind)
			if err != nil {
				return nil, err
			}
			cfg.Fields = append(cfg.Fields, engine.FieldConfig{
				Name:    f.Name,
				Kind:    kind,
				Width:   bitint.Width(f.Width),
				Weight:  f.Weight,
				Address: f.Address,
			})
		}
	}
	return cfg, nil
}

func parseFieldKind(s string) (field.Kind, error) {
	switch s {
	case "EM":
		return field.EM, nil
	case "LPM":
		return field.LPM, nil
	case "RM":
		return field.RM, nil
	}
	return 0, fmt.Errorf("format: unknown field kind %q", s)
}
