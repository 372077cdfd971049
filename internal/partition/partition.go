// Package partition implements the two global-problem partitioners (spec
// §4.8 "Sparse partition", §4.9 "Dense partition", component C10): splitting
// a target (n, p) that a single QuadDag-rooted recursion cannot reach into
// several smaller root subproblems whose combined output covers it.
package partition

import (
	"github.com/flowsynth/corpusgen/internal/rule"
)

// Origin is one root subproblem handed back by a partitioner: the
// user-defined rule carving out its share of the match space, how many
// output rules it must produce, and the parameter budget it must hit.
type Origin struct {
	Rule          *rule.Rule
	N             int
	P             int
	AllowWildcard bool
}
