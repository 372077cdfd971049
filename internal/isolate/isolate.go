// Package isolate implements the rule isolator (spec §4.11, component
// C12): the trace pipeline's pre-pass that turns a possibly-overlapping
// rule set into a pairwise non-overlapping one covering the same match
// space, with a fast-mode fallback when an EM field can't be decomposed.
package isolate

import (
	"sort"

	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Set is one flat list of pairwise non-overlapping rules.
type Set struct {
	Rules []*rule.Rule
}

// SplitBy replaces every rule in the set that overlaps r with the
// axis-aligned pieces of itself lying outside r. Returns ok=false on an
// EM-field difference failure (two EM fields overlap without being equal,
// which can't be decomposed into "outside r" pieces) so the caller can fall
// back to fast mode.
func (s *Set) SplitBy(r *rule.Rule) ([]*rule.Rule, bool) {
	var next []*rule.Rule
	for _, cur := range s.Rules {
		if !rule.Overlap(cur, r) {
			next = append(next, cur)
			continue
		}
		pieces, ok := boxDifference(cur, r)
		if !ok {
			return nil, false
		}
		next = append(next, pieces...)
	}
	return next, true
}

// boxDifference decomposes s \ r into disjoint axis-aligned rules, one
// field at a time: for every field where s and r differ, every piece of
// field.Difference becomes a new output rule (holding s's value in every
// other not-yet-narrowed field), and the working rule's own copy of that
// field narrows to its intersection with r's value before moving to the
// next differing field —
// the standard hyperrectangle-subtraction construction.
func boxDifference(s, r *rule.Rule) ([]*rule.Rule, bool) {
	var out []*rule.Rule
	current := s.Clone()
	for i := range s.Fields {
		sf, rf := current.Fields[i], r.Fields[i]
		if field.Equal(sf, rf) {
			continue
		}
		if sf.Kind == field.EM && field.Overlap(sf, rf) {
			return nil, false
		}
		for _, p := range field.Difference(sf, rf) {
			piece := current.Clone()
			piece.Fields[i] = p
			out = append(out, piece)
		}
		switch {
		case field.Cover(rf, sf):
			// sf already lies inside rf.
		case field.Cover(sf, rf):
			current.Fields[i] = rf
		default:
			lo, hi := sf.Start, sf.End
			if rf.Start.Greater(lo) {
				lo = rf.Start
			}
			if rf.End.Less(hi) {
				hi = rf.End
			}
			current.Fields[i] = field.NewRM(sf.Width, lo, hi)
		}
	}
	return out, true
}

// Isolate runs spec §4.11 to completion: for each input rule, split every
// existing isolate set by it, then add it as its own new singleton set. On
// any EM-field difference failure, abandon isolation and return the input
// set unchanged (fast mode). Output is sorted by AvailableWidth ascending,
// as spec §4.14's rule mapping binary search requires.
func Isolate(rules []*rule.Rule) []*rule.Rule {
	var sets []*Set
	for _, r := range rules {
		next := make([]*Set, 0, len(sets)+1)
		failed := false
		for _, s := range sets {
			pieces, ok := s.SplitBy(r)
			if !ok {
				failed = true
				break
			}
			next = append(next, &Set{Rules: pieces})
		}
		if failed {
			return fastMode(rules)
		}
		next = append(next, &Set{Rules: []*rule.Rule{r}})
		sets = next
	}

	var out []*rule.Rule
	for _, s := range sets {
		out = append(out, s.Rules...)
	}
	sortByAvailableWidth(out)
	return out
}

func fastMode(rules []*rule.Rule) []*rule.Rule {
	out := append([]*rule.Rule(nil), rules...)
	sortByAvailableWidth(out)
	return out
}

func sortByAvailableWidth(rules []*rule.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].AvailableWidth() < rules[j].AvailableWidth()
	})
}
