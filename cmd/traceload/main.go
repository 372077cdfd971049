// Command traceload synthesizes a flow trace against a previously generated
// rule set, with a matched-rule distribution approximating a Pareto shape
// (spec §6 "CLI (trace generator)").
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/format"
	"github.com/flowsynth/corpusgen/internal/logging"
	"github.com/flowsynth/corpusgen/internal/metrics"
	"github.com/flowsynth/corpusgen/internal/rng"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/trace"
	"github.com/flowsynth/corpusgen/internal/verify"
)

func main() {
	var (
		traceCount   int
		density      float64
		input        string
		output       string
		fieldCount   int
		fieldWidths  []string
		fieldTypes   []string
		protocol     string
		ruleAlpha    float64
		ruleBeta     float64
		flowAlpha    float64
		flowBeta     float64
		seed         uint64
		fastMode     bool
		flowbench    bool
		classbench   bool
		verifyWorkers int
		metricsAddr  string
		logLevel     string
		logFormat    string
	)

	root := &cobra.Command{
		Use:   "traceload",
		Short: "Generate a flow trace against a rule set with a Pareto-shaped match distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.Config{Level: logging.Level(logLevel), Format: logging.Format(logFormat)})

			cfgs, err := resolveFields(protocol, fieldCount, fieldWidths, fieldTypes)
			if err != nil {
				return err
			}
			style := format.FlowBench
			if classbench {
				style = format.ClassBench
			}

			rules, err := readRules(input, cfgs, style)
			if err != nil {
				return err
			}
			if traceCount <= 0 {
				if density <= 0 {
					return fmt.Errorf("traceload: need -n trace count or -d density")
				}
				traceCount = int(density * float64(len(rules)))
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

			st := rng.New(seed)
			weights := fieldWeightsOf(cfgs)

			var flows []trace.Flow
			if fastMode {
				flows = trace.GenerateFastMode(st.Rand(), rules, traceCount, ruleAlpha, ruleBeta)
			} else {
				flows, err = trace.Generate(st.Rand(), rules, traceCount, ruleAlpha, ruleBeta, flowAlpha, flowBeta, weights)
				if err != nil {
					logger.Warn().Err(err).Msg("full-mode trace generation failed, falling back to fast mode")
					flows = trace.GenerateFastMode(st.Rand(), rules, traceCount, ruleAlpha, ruleBeta)
				}
			}
			if reg != nil {
				reg.FlowsGenerated.Add(float64(len(flows)))
			}

			if verifyWorkers != 0 {
				pool := verify.NewPool(verifyWorkers)
				pool.Run(flows, rules, len(flows) > 100000)
				checked, failed := pool.Stats()
				if failed > 0 {
					logger.Warn().Int64("checked", checked).Int64("failed", failed).Msg("some flows did not match their declared rule")
				} else {
					logger.Info().Int64("checked", checked).Msg("all flows verified against their declared rule")
				}
			}

			return writeFlows(output, flows, cfgs, style, logger)
		},
	}

	flags := root.Flags()
	flags.IntVarP(&traceCount, "trace-count", "n", 0, "number of flows to generate")
	flags.Float64VarP(&density, "density", "d", 0, "trace count as a multiplier of rule count")
	flags.StringVarP(&input, "input", "i", "", "input rule-set file (required)")
	flags.StringVarP(&output, "output", "o", "", "output path (default stdout)")
	flags.IntVarP(&fieldCount, "field-count", "f", 0, "number of user-defined fields")
	flags.StringArrayVar(&fieldWidths, "field-width", nil, "per-field bit width, repeatable (alias --fw)")
	flags.StringArrayVar(&fieldWidths, "fw", nil, "")
	flags.MarkHidden("fw")
	flags.StringArrayVar(&fieldTypes, "field-type", nil, "per-field kind: EM, LPM or RM, repeatable (alias --ft)")
	flags.StringArrayVar(&fieldTypes, "ft", nil, "")
	flags.MarkHidden("ft")
	flags.StringVarP(&protocol, "protocol", "p", "", "field preset: ipv4, ipv6, or openflow1.0")
	flags.Float64Var(&ruleAlpha, "rule-alpha", 1.5, "Pareto shape for the rule-level distribution")
	flags.Float64Var(&ruleBeta, "rule-beta", 1.0, "Pareto scale for the rule-level distribution")
	flags.Float64Var(&flowAlpha, "flow-alpha", 1.5, "Pareto shape for the flow-level distribution")
	flags.Float64Var(&flowBeta, "flow-beta", 1.0, "Pareto scale for the flow-level distribution")
	flags.Uint64VarP(&seed, "seed", "s", rng.DefaultSeed, "PRNG seed")
	flags.BoolVar(&fastMode, "fast", false, "enable §4.11 fast-mode fallback (skip isolation)")
	flags.BoolVar(&flowbench, "flowbench", true, "FlowBench output style (default)")
	flags.BoolVar(&classbench, "classbench", false, "ClassBench output style")
	flags.IntVar(&verifyWorkers, "verify-workers", 1, "verify each flow against its declared rule using this many goroutines (1 = sequential, 0 = disabled)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "text", "text or json")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveFields(protocol string, count int, widths, kinds []string) ([]engine.FieldConfig, error) {
	if protocol != "" {
		cfgs, ok := format.Preset(protocol)
		if !ok {
			return nil, fmt.Errorf("traceload: unknown protocol preset %q", protocol)
		}
		return cfgs, nil
	}
	if count == 0 {
		return nil, fmt.Errorf("traceload: need -p protocol or -f/-fw/-ft fields")
	}
	if len(widths) != count || len(kinds) != count {
		return nil, fmt.Errorf("traceload: need exactly %d -fw and %d -ft values for -f %d", count, count, count)
	}
	out := make([]engine.FieldConfig, count)
	for i := 0; i < count; i++ {
		w, err := strconv.Atoi(widths[i])
		if err != nil {
			return nil, fmt.Errorf("traceload: invalid -fw value %q: %w", widths[i], err)
		}
		kind, err := parseFieldKind(kinds[i])
		if err != nil {
			return nil, err
		}
		out[i] = engine.FieldConfig{Name: fmt.Sprintf("f%d", i), Kind: kind, Width: bitint.Width(w), Weight: 1}
	}
	return out, nil
}

func parseFieldKind(s string) (field.Kind, error) {
	switch strings.ToUpper(s) {
	case "EM":
		return field.EM, nil
	case "LPM":
		return field.LPM, nil
	case "RM":
		return field.RM, nil
	}
	return 0, fmt.Errorf("traceload: unknown field type %q (want EM, LPM or RM)", s)
}

func fieldWeightsOf(cfgs []engine.FieldConfig) []float64 {
	w := make([]float64, len(cfgs))
	for i, c := range cfgs {
		w[i] = c.Weight
	}
	return w
}

func readRules(path string, cfgs []engine.FieldConfig, style format.Style) ([]*rule.Rule, error) {
	if path == "" {
		return nil, fmt.Errorf("traceload: -i/--input is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traceload: opening input: %w", err)
	}
	defer f.Close()

	var rules []*rule.Rule
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		r, err := format.DecodeRuleLine(line, cfgs, style)
		if err != nil {
			return nil, fmt.Errorf("traceload: parsing rule line: %w", err)
		}
		rules = append(rules, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("traceload: no rules read from %s", path)
	}
	return rules, nil
}

func writeFlows(path string, flows []trace.Flow, cfgs []engine.FieldConfig, style format.Style, logger zerolog.Logger) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("traceload: creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	for _, fl := range flows {
		if _, err := fmt.Fprintln(out, format.EncodeFlow(fl.Values, fl.RuleIndex, cfgs, style)); err != nil {
			return err
		}
	}
	logger.Info().Int("flows_written", len(flows)).Msg("trace generation complete")
	return nil
}
