// Package quaddag implements the QuadDag fragment type and the profile
// library that the recursive rule-set synthesizer draws from (spec §3,
// §4.1, component C4). The library itself is treated as a read-only,
// deterministic input file (spec §1); this package only deserializes it
// and, for bootstrapping a corpus without an external file, can construct
// a modest default pool by brute-force search over small candidate rules.
package quaddag

import (
	"github.com/flowsynth/corpusgen/internal/rule"
)

// edgeOrder is the fixed 6-edge enumeration order for a 4-vertex DAG.
var edgeOrder = [6][2]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}}

// QuadDag is a 4-vertex DAG encoded as 6 tagged edges.
type QuadDag struct {
	Edges [6]rule.EdgeType
}

const edgeChars = "NOC" // None, Overlap, Cover

// String renders the DAG as its 6-character edge string.
func (d QuadDag) String() string {
	b := make([]byte, 6)
	for i, e := range d.Edges {
		b[i] = edgeChars[e]
	}
	return string(b)
}

// Parse decodes a 6-character edge string into a QuadDag.
func Parse(s string) (QuadDag, error) {
	var d QuadDag
	if len(s) != 6 {
		return d, errInvalidEdgeString(s)
	}
	for i := 0; i < 6; i++ {
		switch s[i] {
		case 'N':
			d.Edges[i] = rule.EdgeNone
		case 'O':
			d.Edges[i] = rule.EdgeOverlap
		case 'C':
			d.Edges[i] = rule.EdgeCover
		default:
			return d, errInvalidEdgeString(s)
		}
	}
	return d, nil
}

type errInvalidEdgeString string

func (e errInvalidEdgeString) Error() string {
	return "quaddag: invalid edge string " + string(e)
}

// FromRules reconstructs the QuadDag implied by 4 solid rules' pairwise
// EdgeTypeTo relations, in the fixed edgeOrder.
func FromRules(solids [4]*rule.Rule) QuadDag {
	var d QuadDag
	for i, pair := range edgeOrder {
		d.Edges[i] = rule.EdgeTypeTo(solids[pair[0]], solids[pair[1]])
	}
	return d
}

// RuleStat is the per-rule aggregate a profile carries: how deep its
// dependency chain runs, its in-degree, and whether it equals a solid rule.
type RuleStat struct {
	Rule             *rule.Rule
	DependencyLength int
	EdgeCount        int
	Solid            bool
}

// Profile describes every derived property of one fixed QuadDag.
type Profile struct {
	Dag          QuadDag
	SolidRules   [4]*rule.Rule
	SolidStats   [4]RuleStat
	VirtualRules []RuleStat

	TotalDependencyLength int
	TotalEdgeCount        int
	ExistWildcard         bool
	ActualFieldCount      int
	TotalBitWidth         int
	FieldWidths           []int
}

// Pool holds every profile for the program's lifetime, indexed by position.
type Pool struct {
	Profiles []*Profile
}

// Len returns the number of profiles in the pool.
func (p *Pool) Len() int { return len(p.Profiles) }

// computeStats fills in DependencyLength/EdgeCount/Solid for a candidate
// rule against the 4 solid rules of a profile (used when synthesizing the
// default pool; a loaded profile file carries these values itself).
func computeStats(candidate *rule.Rule, solids [4]*rule.Rule) (depLen, edges int, isSolid bool) {
	longest := make([]int, 4)
	for j := 0; j < 4; j++ {
		for i := 0; i < j; i++ {
			if rule.EdgeTypeTo(solids[i], solids[j]) != rule.EdgeNone {
				if longest[i]+1 > longest[j] {
					longest[j] = longest[i] + 1
				}
			}
		}
	}
	for i := 0; i < 4; i++ {
		et := rule.EdgeTypeTo(solids[i], candidate)
		if et != rule.EdgeNone {
			edges++
			if longest[i]+1 > depLen {
				depLen = longest[i] + 1
			}
		}
		if rule.Equal(solids[i], candidate) {
			isSolid = true
		}
	}
	return
}
