package partition

import (
	"math"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/paramcalc"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/splitter"
)

// NextDenseDepth returns the trie depth to try given the previous attempt
// (0 meaning "no previous attempt"): depth starts at 1 and grows by 1 each
// retry (spec §4.9: "if the partition still can't be placed, increment h").
func NextDenseDepth(prev int) int {
	return prev + 1
}

// DenseLeafCap computes the per-leaf subproblem size cap N for a trie of
// depth h over a rule type with the given total bit width (spec §4.9):
// log2(N) <= 0.4*(totalBitWidth - h).
func DenseLeafCap(h, totalBitWidth int) int {
	maxLog2N := 0.4 * float64(totalBitWidth-h)
	if maxLog2N < 0 {
		return 1
	}
	n := int(math.Pow(2, maxLog2N))
	if n < 1 {
		n = 1
	}
	return n
}

// DenseFeasible reports whether depth h can cover n rules, given the leaf
// cap it implies and the rule type's total bit width (spec §4.9
// "Feasibility"): N*2^h >= n-(2^h-1), and h must fit within totalBitWidth.
func DenseFeasible(n, h, totalBitWidth int) bool {
	if h > totalBitWidth || h < 0 {
		return false
	}
	leaves := 1 << uint(h)
	N := DenseLeafCap(h, totalBitWidth)
	return N*leaves >= n-(leaves-1)
}

// denseNode is one node of the binary trie built over a rule type's match
// space. Internal nodes hold the committed split rule; leaves hold the
// assigned subproblem size. No parent pointers (spec §9): every traversal
// below walks top-down with an explicit stack.
type denseNode struct {
	rule     *rule.Rule
	children [2]*denseNode
	isLeaf   bool
	leafSize int
}

// BuildDense builds a depth-h binary trie over userType's match space
// (splitting a field at each internal node, weighted by weights) and
// assigns n rules across its leaves left to right: each leaf takes
// DenseLeafCap(h, totalBitWidth) rules ("large") until the remainder fits in
// one final leaf ("small"); any leaves beyond that stay empty.
func BuildDense(rng *rand.Rand, userType *rule.Type, weights []float64, n, h, totalBitWidth int) (*denseNode, error) {
	leafCap := DenseLeafCap(h, totalBitWidth)
	root := &denseNode{}

	type frame struct {
		node  *denseNode
		depth int
		carve *rule.Rule
	}
	stack := []frame{{root, 0, rule.NewWildcard(userType)}}
	remaining := n

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth >= h {
			size := 0
			if remaining > 0 {
				size = leafCap
				if size > remaining {
					size = remaining
				}
				remaining -= size
			}
			f.node.isLeaf = true
			f.node.leafSize = size
			f.node.rule = f.carve
			continue
		}

		left, right, err := splitter.Split(rng, f.carve, weights)
		if err != nil {
			return nil, err
		}
		f.node.rule = f.carve
		f.node.children[0] = &denseNode{}
		f.node.children[1] = &denseNode{}
		// Push right first so left is popped (and thus assigned) first,
		// preserving left-to-right leaf order under the stack.
		stack = append(stack,
			frame{f.node.children[1], f.depth + 1, right},
			frame{f.node.children[0], f.depth + 1, left},
		)
	}

	return root, nil
}

// DenseInternalParameter returns how much of the global parameter budget p
// the trie's internal (committed) rules consume on their own (spec §4.9):
// one unit per internal node for edge-count targets (each contributes
// exactly one Cover edge into the budget), or the trie's depth for
// dependency-length targets (the root-to-leaf path is itself a chain of h
// Cover edges, regardless of how many internal nodes it passes through).
func DenseInternalParameter(root *denseNode, kind paramcalc.Kind) int {
	if kind == paramcalc.KindDependencyLength {
		return denseDepth(root)
	}
	return denseInternalCount(root)
}

func denseInternalCount(n *denseNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	return 1 + denseInternalCount(n.children[0]) + denseInternalCount(n.children[1])
}

func denseDepth(n *denseNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	l := denseDepth(n.children[0])
	r := denseDepth(n.children[1])
	if l > r {
		return 1 + l
	}
	return 1 + r
}

// ExportDense walks the trie collecting the committed internal rules (to
// place directly in the output set) and the nonempty leaves as Origins, with
// a parameter budget allocated proportionally to MaxParameter(leafSize)
// across p minus the internal nodes' own contribution (spec §4.9 "On
// export").
func ExportDense(calc *paramcalc.Calculator, root *denseNode, p int) (committed []*rule.Rule, origins []Origin) {
	internalP := DenseInternalParameter(root, calc.Kind())
	budget := p - internalP
	if budget < 0 {
		budget = 0
	}

	var sizes []int
	var leaves []*denseNode
	stack := []*denseNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.isLeaf {
			if n.leafSize > 0 {
				sizes = append(sizes, n.leafSize)
				leaves = append(leaves, n)
			}
			continue
		}
		committed = append(committed, n.rule)
		stack = append(stack, n.children[1], n.children[0])
	}

	params := calc.AllocateByCapacity(sizes, budget)
	origins = make([]Origin, len(leaves))
	for i, lf := range leaves {
		origins[i] = Origin{Rule: lf.rule, N: lf.leafSize, P: params[i], AllowWildcard: true}
	}
	return committed, origins
}
