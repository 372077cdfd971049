// Command rulegen synthesizes a packet-classification rule set whose
// dependency-graph parameter (total edge count or longest dependency
// chain) matches a requested target (spec §6 "CLI (rule-set generator)").
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/checkpoint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/format"
	"github.com/flowsynth/corpusgen/internal/logging"
	"github.com/flowsynth/corpusgen/internal/metrics"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/problem"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rng"
	"github.com/flowsynth/corpusgen/internal/rule"
)

func main() {
	var (
		ruleCount      int
		output         string
		fieldCount     int
		fieldWidths    []string
		fieldTypes     []string
		fieldWeights   []float64
		targetD        int
		targetE        int
		targetDFrac    float64
		targetEFrac    float64
		seed           uint64
		flowbench      bool
		classbench     bool
		arbitraryRange bool
		dense          bool
		protocol       string
		configPath     string
		profilePath    string
		checkpointPath string
		resume         bool
		manifestPath   string
		metricsAddr    string
		logLevel       string
		logFormat      string
	)

	root := &cobra.Command{
		Use:   "rulegen",
		Short: "Generate a packet-classification rule set with a target dependency-graph parameter",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			logger := logging.New(logging.Config{Level: logging.Level(logLevel), Format: logging.Format(logFormat)})

			var cfg *engine.Config
			if configPath != "" {
				loaded, err := format.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("rulegen: loading config: %w", err)
				}
				cfg = loaded
			} else {
				cfg = &engine.Config{}
			}
			if err := applyRulegenFlags(cfg, ruleCount, fieldCount, fieldWidths, fieldTypes, fieldWeights,
				targetD, targetE, targetDFrac, targetEFrac, seed, arbitraryRange, dense, protocol); err != nil {
				return err
			}
			if cfg.RuleCount <= 0 {
				return fmt.Errorf("rulegen: rule count (-n) must be positive")
			}
			if len(cfg.Fields) == 0 {
				return fmt.Errorf("rulegen: no fields configured (use -f/-fw/-ft or -p)")
			}

			target := cfg.TargetParameter

			if resume && checkpointPath != "" {
				if set, ok := tryResume(checkpointPath, cfg, target, logger); ok {
					style := format.FlowBench
					if classbench {
						style = format.ClassBench
					}
					if err := writeRules(output, set, cfg.Fields, style, logger); err != nil {
						return err
					}
					return writeManifestIfRequested(manifestPath, cfg, target, protocol, output, set.Len(), start)
				}
			}

			pool, err := loadPool(profilePath, cfg.Seed, logger)
			if err != nil {
				return err
			}

			var reg *metrics.Registry
			if metricsAddr != "" {
				reg = metrics.NewRegistry()
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				go func() {
					if err := reg.Serve(ctx, metricsAddr); err != nil {
						logger.Error().Err(err).Msg("metrics server stopped")
					}
				}()
			}

			ctx := engine.NewContext(cfg, pool)
			gp := problem.NewGlobalProblem(ctx)

			logger.Info().Int("rule_count", cfg.RuleCount).Int("target", target).
				Str("kind", targetKindName(cfg.TargetKind)).Msg("starting rule generation")

			set, err := gp.Run(cfg.RuleCount, target)
			if err != nil {
				return fmt.Errorf("rulegen: generation failed: %w", err)
			}
			if reg != nil {
				reg.RulesGenerated.Add(float64(set.Len()))
			}

			if checkpointPath != "" {
				ckpt := &checkpoint.Checkpoint{
					Rules:           set.Rules,
					RuleCount:       cfg.RuleCount,
					TargetKind:      cfg.TargetKind,
					TargetParameter: target,
				}
				if err := checkpoint.Save(checkpointPath, ckpt); err != nil {
					logger.Warn().Err(err).Msg("failed to write checkpoint")
				}
			}

			style := format.FlowBench
			if classbench {
				style = format.ClassBench
			}
			if err := writeRules(output, set, cfg.Fields, style, logger); err != nil {
				return err
			}
			return writeManifestIfRequested(manifestPath, cfg, target, protocol, output, set.Len(), start)
		},
	}

	flags := root.Flags()
	flags.IntVarP(&ruleCount, "rule-count", "n", 0, "number of rules to generate")
	flags.StringVarP(&output, "output", "o", "", "output path (default stdout)")
	flags.IntVarP(&fieldCount, "field-count", "f", 0, "number of user-defined fields")
	flags.StringArrayVar(&fieldWidths, "field-width", nil, "per-field bit width, repeatable (alias --fw)")
	flags.StringArrayVar(&fieldWidths, "fw", nil, "")
	flags.MarkHidden("fw")
	flags.StringArrayVar(&fieldTypes, "field-type", nil, "per-field kind: EM, LPM or RM, repeatable (alias --ft)")
	flags.StringArrayVar(&fieldTypes, "ft", nil, "")
	flags.MarkHidden("ft")
	flags.Float64SliceVar(&fieldWeights, "field-weight", nil, "per-field selection weight, repeatable (alias --fwt)")
	flags.Float64SliceVar(&fieldWeights, "fwt", nil, "")
	flags.MarkHidden("fwt")
	flags.IntVarP(&targetD, "D", "D", 0, "absolute dependency-length target")
	flags.IntVarP(&targetE, "E", "E", 0, "absolute edge-count target")
	flags.Float64VarP(&targetDFrac, "d", "d", 0, "relative dependency-length target (fraction of max)")
	flags.Float64VarP(&targetEFrac, "e", "e", 0, "relative edge-count target (fraction of max)")
	flags.Uint64VarP(&seed, "random-seed", "r", rng.DefaultSeed, "PRNG seed")
	flags.BoolVar(&flowbench, "flowbench", true, "FlowBench output style (default)")
	flags.BoolVar(&classbench, "classbench", false, "ClassBench output style")
	flags.BoolVarP(&arbitraryRange, "arbitrary-range", "a", false, "enable post-instantiation RM-field perturbation")
	flags.BoolVar(&dense, "dense", false, "prefer the dense-profile pool variant")
	flags.StringVarP(&protocol, "protocol", "p", "", "field preset: ipv4, ipv6, or openflow1.0")
	flags.StringVarP(&configPath, "config", "c", "", "YAML run-configuration file")
	flags.StringVar(&profilePath, "profile", "", "QuadDag profile file (default: bootstrap a pool)")
	flags.StringVar(&checkpointPath, "checkpoint", "", "save (or, with --resume, load) a gob checkpoint of the generated rule set")
	flags.BoolVar(&resume, "resume", false, "skip generation and load --checkpoint if it matches this run's target")
	flags.StringVar(&manifestPath, "manifest", "", "write a JSON run summary to this path")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "text", "text or json")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyRulegenFlags(cfg *engine.Config, ruleCount, fieldCount int, widths, kinds []string, weights []float64,
	targetD, targetE int, targetDFrac, targetEFrac float64, seed uint64, arbitraryRange, dense bool, protocol string) error {
	if ruleCount > 0 {
		cfg.RuleCount = ruleCount
	}
	cfg.Seed = seed
	cfg.ArbitraryRange = cfg.ArbitraryRange || arbitraryRange
	cfg.DenseProfiles = cfg.DenseProfiles || dense

	if protocol != "" {
		fields, ok := format.Preset(protocol)
		if !ok {
			return fmt.Errorf("rulegen: unknown protocol preset %q", protocol)
		}
		cfg.Fields = fields
	} else if fieldCount > 0 {
		fields, err := buildFields(fieldCount, widths, kinds, weights)
		if err != nil {
			return err
		}
		cfg.Fields = fields
	}

	switch {
	case targetD > 0:
		cfg.TargetKind = paramcalc.KindDependencyLength
		cfg.TargetParameter = targetD
	case targetE > 0:
		cfg.TargetKind = paramcalc.KindEdgeCount
		cfg.TargetParameter = targetE
	case targetDFrac > 0:
		cfg.TargetKind = paramcalc.KindDependencyLength
		cfg.TargetParameter = engine.ResolveTarget(paramcalc.New(paramcalc.KindDependencyLength), cfg.RuleCount, targetDFrac)
	case targetEFrac > 0:
		cfg.TargetKind = paramcalc.KindEdgeCount
		cfg.TargetParameter = engine.ResolveTarget(paramcalc.New(paramcalc.KindEdgeCount), cfg.RuleCount, targetEFrac)
	}
	return nil
}

func buildFields(count int, widths, kinds []string, weights []float64) ([]engine.FieldConfig, error) {
	if len(widths) != count || len(kinds) != count {
		return nil, fmt.Errorf("rulegen: need exactly %d -fw and %d -ft values for -f %d", count, count, count)
	}
	out := make([]engine.FieldConfig, count)
	for i := 0; i < count; i++ {
		w, err := strconv.Atoi(widths[i])
		if err != nil {
			return nil, fmt.Errorf("rulegen: invalid -fw value %q: %w", widths[i], err)
		}
		kind, err := parseKind(kinds[i])
		if err != nil {
			return nil, err
		}
		weight := 1.0
		if i < len(weights) {
			weight = weights[i]
		}
		out[i] = engine.FieldConfig{Name: fmt.Sprintf("f%d", i), Kind: kind, Width: bitint.Width(w), Weight: weight}
	}
	return out, nil
}

func parseKind(s string) (field.Kind, error) {
	switch strings.ToUpper(s) {
	case "EM":
		return field.EM, nil
	case "LPM":
		return field.LPM, nil
	case "RM":
		return field.RM, nil
	}
	return 0, fmt.Errorf("rulegen: unknown field type %q (want EM, LPM or RM)", s)
}

// tryResume loads checkpointPath and reuses it verbatim if its run
// parameters match the current invocation's, avoiding a full regeneration.
func tryResume(path string, cfg *engine.Config, target int, logger zerolog.Logger) (*rule.Set, bool) {
	ckpt, err := checkpoint.Load(path)
	if err != nil {
		logger.Warn().Err(err).Msg("--resume requested but checkpoint could not be loaded, regenerating")
		return nil, false
	}
	if ckpt.RuleCount != cfg.RuleCount || ckpt.TargetKind != cfg.TargetKind || ckpt.TargetParameter != target {
		logger.Warn().Msg("checkpoint parameters don't match this run, regenerating")
		return nil, false
	}
	logger.Info().Int("rules", len(ckpt.Rules)).Msg("resumed rule set from checkpoint")
	return &rule.Set{Rules: ckpt.Rules}, true
}

// writeManifestIfRequested writes the run's JSON summary when --manifest was
// given; it is a no-op otherwise.
func writeManifestIfRequested(path string, cfg *engine.Config, target int, protocol, output string, rulesWritten int, start time.Time) error {
	if path == "" {
		return nil
	}
	return format.WriteManifest(path, format.RunManifest{
		RuleCount:       cfg.RuleCount,
		TargetKind:      targetKindName(cfg.TargetKind),
		TargetParameter: target,
		Seed:            cfg.Seed,
		Protocol:        protocol,
		ArbitraryRange:  cfg.ArbitraryRange,
		DenseProfiles:   cfg.DenseProfiles,
		OutputPath:      output,
		RulesWritten:    rulesWritten,
		Duration:        time.Since(start),
	})
}

func targetKindName(k paramcalc.Kind) string {
	if k == paramcalc.KindDependencyLength {
		return "D"
	}
	return "E"
}

func loadPool(path string, seed uint64, logger zerolog.Logger) (*quaddag.Pool, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("rulegen: opening profile file: %w", err)
		}
		defer f.Close()
		pool, err := quaddag.Load(f)
		if err != nil {
			return nil, fmt.Errorf("rulegen: loading profile file: %w", err)
		}
		return pool, nil
	}
	logger.Warn().Msg("no --profile given, bootstrapping a default QuadDag pool")
	bootstrapRng := rng.New(seed ^ 0xD1B54A32D192ED03)
	return quaddag.BuildDefaultPool(bootstrapRng.Rand(), 512, 20000), nil
}

func writeRules(path string, set *rule.Set, cfgs []engine.FieldConfig, style format.Style, logger zerolog.Logger) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("rulegen: creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	for _, r := range set.Rules {
		if _, err := fmt.Fprintln(out, format.EncodeRule(r, cfgs, style)); err != nil {
			return err
		}
	}
	logger.Info().Int("rules_written", set.Len()).Msg("rule generation complete")
	return nil
}
