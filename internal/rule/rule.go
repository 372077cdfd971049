// Package rule implements Rule and RuleSet (spec §3, component C3): the
// aggregate of match fields plus the cover/overlap/equal relations used
// throughout the synthesis engine.
package rule

import (
	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
)

// TypeKind distinguishes the two RuleType variants.
type TypeKind uint8

const (
	// Candidate is the internal 3x32-bit-LPM shape used by the recursion.
	Candidate TypeKind = iota
	// UserDefined is the configuration-driven shape the CLI exposes.
	UserDefined
)

// FieldSpec describes one field slot of a RuleType.
type FieldSpec struct {
	Kind   field.Kind
	Width  bitint.Width
	Weight float64 // selection weight (user-defined fields only)
}

// Type dictates a rule's shape: field count, per-index widths and kinds.
type Type struct {
	Kind   TypeKind
	Fields []FieldSpec
}

// NewCandidateType returns the fixed 3-field candidate shape. Each field is
// a full 32-bit LPM field; prefixes are not limited to 8 bits.
func NewCandidateType() *Type {
	return &Type{
		Kind: Candidate,
		Fields: []FieldSpec{
			{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
			{Kind: field.LPM, Width: bitint.Width32, Weight: 1},
		},
	}
}

// Rule is an ordered sequence of fields whose shape is dictated by Type.
type Rule struct {
	Type   *Type
	Fields []field.Field
}

// NewWildcard builds a rule whose every field is a wildcard of Type t.
func NewWildcard(t *Type) *Rule {
	r := &Rule{Type: t, Fields: make([]field.Field, len(t.Fields))}
	for i, fs := range t.Fields {
		switch fs.Kind {
		case field.EM:
			r.Fields[i] = field.NewEM(fs.Width, bitint.Zero(fs.Width), true)
		case field.LPM:
			r.Fields[i] = field.NewLPM(fs.Width, bitint.Zero(fs.Width), 0)
		case field.RM:
			r.Fields[i] = field.NewRM(fs.Width, bitint.Zero(fs.Width), bitint.MaxOf(fs.Width))
		}
	}
	return r
}

// Clone returns a deep-enough copy (Field values are themselves immutable
// value types, so copying the slice suffices).
func (r *Rule) Clone() *Rule {
	c := &Rule{Type: r.Type, Fields: make([]field.Field, len(r.Fields))}
	copy(c.Fields, r.Fields)
	return c
}

// Overlap reports whether every field of a overlaps the corresponding field of b.
func Overlap(a, b *Rule) bool {
	for i := range a.Fields {
		if !field.Overlap(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

// Cover reports whether every field of a covers the corresponding field of b.
func Cover(a, b *Rule) bool {
	for i := range a.Fields {
		if !field.Cover(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are field-wise equal.
func Equal(a, b *Rule) bool {
	for i := range a.Fields {
		if !field.Equal(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

// EdgeType tags the relation from one rule to another.
type EdgeType uint8

const (
	EdgeNone EdgeType = iota
	EdgeOverlap
	EdgeCover
)

// EdgeTypeTo classifies the relation from a to b: Cover takes priority over
// plain Overlap (cover implies overlap).
func EdgeTypeTo(a, b *Rule) EdgeType {
	if Cover(a, b) {
		return EdgeCover
	}
	if Overlap(a, b) {
		return EdgeOverlap
	}
	return EdgeNone
}

// AvailableWidth sums the still-free bits across a rule's fields (used by
// the rule isolator's output ordering, spec §4.11).
func (r *Rule) AvailableWidth() int {
	total := 0
	for _, f := range r.Fields {
		total += f.AvailableWidth()
	}
	return total
}

// UsedFieldCount counts the field indices where at least one rule in rules
// is non-wildcard (the selector indexes' "uses at most k fields" key).
func UsedFieldCount(rules []*Rule) int {
	if len(rules) == 0 {
		return 0
	}
	n := len(rules[0].Fields)
	count := 0
	for i := 0; i < n; i++ {
		for _, r := range rules {
			if !r.Fields[i].IsWildcard() {
				count++
				break
			}
		}
	}
	return count
}

// Parameter computes the combined D or E parameter of a bare rule slice
// (a profile's solid-rule prefix or subset), using index order as the
// topological order the way profiles' solid rules are already ordered.
func Parameter(rules []*Rule, kind paramcalc.Kind) int {
	n := len(rules)
	if kind == paramcalc.KindEdgeCount {
		count := 0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				if EdgeTypeTo(rules[i], rules[j]) != EdgeNone {
					count++
				}
			}
		}
		return count
	}
	longest := make([]int, n)
	best := 0
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			if EdgeTypeTo(rules[i], rules[j]) != EdgeNone && longest[i]+1 > longest[j] {
				longest[j] = longest[i] + 1
			}
		}
		if longest[j] > best {
			best = longest[j]
		}
	}
	return best
}

// Set is an ordered collection of rules. The "sorted form" invariant:
// if rule i covers rule j (i != j), then i < j.
type Set struct {
	Rules []*Rule
}

// New creates an empty rule set.
func New() *Set { return &Set{} }

// Add appends a rule.
func (s *Set) Add(r *Rule) { s.Rules = append(s.Rules, r) }

// Len returns the rule count.
func (s *Set) Len() int { return len(s.Rules) }

// IsSorted verifies that no rule at index >= i covers a rule at a smaller
// index, for all pairs within the first k rules.
func (s *Set) IsSorted(k int) bool {
	if k > len(s.Rules) {
		k = len(s.Rules)
	}
	for j := 0; j < k; j++ {
		for i := 0; i < j; i++ {
			if Cover(s.Rules[j], s.Rules[i]) {
				return false
			}
		}
	}
	return true
}

// DependencyLength returns the length (in edges) of the longest chain of
// non-None edges in the set, computed over the rule-index order which the
// sorted-form invariant guarantees is a valid topological order.
func (s *Set) DependencyLength() int {
	n := len(s.Rules)
	longest := make([]int, n)
	best := 0
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			if EdgeTypeTo(s.Rules[i], s.Rules[j]) != EdgeNone {
				if longest[i]+1 > longest[j] {
					longest[j] = longest[i] + 1
				}
			}
		}
		if longest[j] > best {
			best = longest[j]
		}
	}
	return best
}

// EdgeCount returns the number of non-None ordered pairs in the set.
func (s *Set) EdgeCount() int {
	n := len(s.Rules)
	count := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if EdgeTypeTo(s.Rules[i], s.Rules[j]) != EdgeNone {
				count++
			}
		}
	}
	return count
}
