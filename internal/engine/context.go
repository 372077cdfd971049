package engine

import (
	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/quaddag"
	"github.com/flowsynth/corpusgen/internal/rng"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// FieldConfig describes one user-defined field slot (spec §6 CLI flags
// -f/-fw/-ft/-fwt).
type FieldConfig struct {
	Name   string
	Kind   field.Kind
	Width  bitint.Width
	Weight float64

	// Address marks a 32-bit LPM field as a dotted-decimal IPv4 address for
	// formatting purposes (spec §6 "dotted decimal for IPv4"), rather than
	// the generic binary-prefix LPM rendering.
	Address bool
}

// Config is the engine's immutable run configuration, assembled once from
// CLI flags or a YAML preset (spec §9: replace the original's singleton
// Configuration with an explicit value threaded through the pipeline).
type Config struct {
	RuleCount int

	TargetKind      paramcalc.Kind
	TargetParameter int // absolute target; see ResolveTarget for fraction inputs

	Fields []FieldConfig

	AllowWildcardRoot bool
	ArbitraryRange    bool // enable the §4.5.4 random perturbator
	DenseProfiles     bool // prefer the dense-profile pool variant
	Seed              uint64
}

// ResolveTarget turns a fractional target (spec §6 "-d F / -e F") into an
// absolute parameter against MaxParameter(RuleCount).
func ResolveTarget(calc *paramcalc.Calculator, ruleCount int, fraction float64) int {
	max := calc.MaxParameter(ruleCount)
	return int(fraction * float64(max))
}

// UserRuleType builds the rule.Type implied by Config.Fields.
func (c *Config) UserRuleType() *rule.Type {
	t := &rule.Type{Kind: rule.UserDefined}
	for _, f := range c.Fields {
		t.Fields = append(t.Fields, rule.FieldSpec{Kind: f.Kind, Width: f.Width, Weight: f.Weight})
	}
	return t
}

// Context is the mutable-by-reference state threaded through one run: the
// single seeded RNG (spec §5/§6), the QuadDag pool (read-only for the run's
// lifetime), and the memoized parameter calculator for Config.TargetKind.
//
// This is the non-singleton reimplementation spec.md §9 calls for: no
// package-level globals, one value passed by argument through every
// component (C5-C14).
type Context struct {
	Config *Config
	Rng    *rng.State
	Pool   *quaddag.Pool
	Calc   *paramcalc.Calculator
}

// NewContext builds a Context for one run. pool is the precomputed QuadDag
// profile library (spec §1: "treated as a read-only, deterministic input
// file"); callers without one may synthesize a bootstrap pool via
// quaddag.BuildDefaultPool.
func NewContext(cfg *Config, pool *quaddag.Pool) *Context {
	return &Context{
		Config: cfg,
		Rng:    rng.New(cfg.Seed),
		Pool:   pool,
		Calc:   paramcalc.New(cfg.TargetKind),
	}
}
