// Package trace implements the trace allocator and mapping pipeline (spec
// §4.14, component C14): turning a rule set into a traceCount-sized flow
// set whose matched-rule distribution approximates the configured Pareto
// shapes, in either fast mode (flows mapped directly to uniformly-picked
// rules) or full mode (isolated rules first, then a rule-level Pareto
// allocation, then a per-rule flow-level Pareto allocation).
package trace

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/engine"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/isolate"
	"github.com/flowsynth/corpusgen/internal/pareto"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/splitter"
)

// Flow is one generated trace entry: a concrete value per field, plus the
// index (into the rule set passed to Generate/GenerateFastMode) of the rule
// it is declared to match.
type Flow struct {
	Values    []bitint.Int
	RuleIndex int
}

// unboundedGroupCount stands in for UINT32_MAX (spec §4.14 fast mode): in
// practice traceCount is always far smaller, so this just means "never cap
// group formation on count".
const unboundedGroupCount = math.MaxInt32

// GenerateFastMode implements spec §4.14's fast-mode branch: allocate
// traceCount directly over flow groups (Pareto, effectively unbounded group
// count), then assign each group to a uniformly-chosen rule and replicate
// one hit() draw by the group's copy count.
func GenerateFastMode(rng *rand.Rand, rules []*rule.Rule, traceCount int, alpha, beta float64) []Flow {
	groups := pareto.Allocate(rng, traceCount, unboundedGroupCount, alpha, beta)
	sort.Sort(sort.Reverse(sort.IntSlice(groups)))

	var out []Flow
	for _, k := range groups {
		ruleIdx := rng.IntN(len(rules))
		values := hitRule(rng, rules[ruleIdx])
		for i := 0; i < k; i++ {
			out = append(out, Flow{Values: values, RuleIndex: ruleIdx})
		}
	}
	shuffle(rng, out)
	return out
}

// Generate implements spec §4.14's full-mode branch: isolate the rule set,
// allocate traceCount over rules via Pareto, map each resulting group to an
// isolated rule wide enough to host log2(groupSize) distinct flows (merging
// into a single flow and retrying on failure), then for each mapped rule
// grow a queue of sub-rules via the splitter until it has one leaf per
// flow, allocate that rule's share over its leaves via a second Pareto
// pass, and draw one exact-match flow per leaf.
func Generate(rng *rand.Rand, rules []*rule.Rule, traceCount int, ruleAlpha, ruleBeta, flowAlpha, flowBeta float64, weights []float64) ([]Flow, error) {
	isolated := isolate.Isolate(rules)
	ruleGroups := pareto.Allocate(rng, traceCount, len(isolated), ruleAlpha, ruleBeta)

	order := make([]int, len(ruleGroups))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ruleGroups[order[a]] > ruleGroups[order[b]] })

	visited := make([]bool, len(isolated))
	var out []Flow
	for _, gi := range order {
		k := ruleGroups[gi]
		ruleIdx, err := mapRule(rng, isolated, visited, k)
		if err != nil {
			return nil, err
		}
		root := isolated[ruleIdx]
		declared := -1
		for j := len(rules) - 1; j >= 0; j-- {
			if rule.Cover(rules[j], root) {
				declared = j
				break
			}
		}

		need := 0
		if k > 1 {
			need = int(math.Ceil(math.Log2(float64(k))))
		}
		leaves := []*rule.Rule{root}
		flowGroups := []int{k}
		if root.AvailableWidth() >= need {
			leaves = growQueue(rng, root, k, weights)
			flowGroups = pareto.Allocate(rng, k, len(leaves), flowAlpha, flowBeta)
		}
		for li, leaf := range leaves {
			if li >= len(flowGroups) {
				break
			}
			values := hitRule(rng, leaf)
			for c := 0; c < flowGroups[li]; c++ {
				out = append(out, Flow{Values: values, RuleIndex: declared})
			}
		}
	}
	shuffle(rng, out)
	return out, nil
}

// mapRule implements spec §4.14's "Rule mapping": binary-search the
// ascending-available_width isolated set for the first rule wide enough for
// k distinct flows, draw uniformly from the qualifying tail, and resolve
// collisions via findNearestUnvisited. On failure it retries against any
// still-unvisited rule (Generate then emits the allocation as a single flow
// if that rule is too narrow), failing with engine.ErrNoRule only once no
// rule remains at all.
func mapRule(rng *rand.Rand, isolated []*rule.Rule, visited []bool, k int) (int, error) {
	need := 0
	if k > 1 {
		need = int(math.Ceil(math.Log2(float64(k))))
	}
	lower := sort.Search(len(isolated), func(i int) bool {
		return isolated[i].AvailableWidth() >= need
	})
	if lower < len(isolated) {
		idx := lower + rng.IntN(len(isolated)-lower)
		if found, ok := findNearestUnvisited(visited, idx); ok {
			visited[found] = true
			return found, nil
		}
	}

	var avail []int
	for i, v := range visited {
		if !v {
			avail = append(avail, i)
		}
	}
	if len(avail) == 0 {
		return -1, engine.ErrNoRule
	}
	idx := avail[rng.IntN(len(avail))]
	visited[idx] = true
	return idx, nil
}

func findNearestUnvisited(visited []bool, start int) (int, bool) {
	n := len(visited)
	for d := 0; d < n; d++ {
		if start+d < n && !visited[start+d] {
			return start + d, true
		}
		if start-d >= 0 && !visited[start-d] {
			return start - d, true
		}
	}
	return -1, false
}

// growQueue grows a queue of rules rooted at root via the §4.7 splitter
// until it has count leaves (or splitting is exhausted, in which case it
// returns as many as could be produced).
func growQueue(rng *rand.Rand, root *rule.Rule, count int, weights []float64) []*rule.Rule {
	if count < 1 {
		count = 1
	}
	queue := []*rule.Rule{root}
	for len(queue) < count {
		target := queue[0]
		left, right, err := splitter.Split(rng, target, weights)
		if err != nil {
			break
		}
		next := make([]*rule.Rule, 0, len(queue)+1)
		next = append(next, queue[1:]...)
		next = append(next, left, right)
		queue = next
	}
	return queue
}

func hitRule(rng *rand.Rand, r *rule.Rule) []bitint.Int {
	values := make([]bitint.Int, len(r.Fields))
	for i, f := range r.Fields {
		values[i] = field.Hit(f, rng)
	}
	return values
}

func shuffle(rng *rand.Rand, flows []Flow) {
	for i := len(flows) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		flows[i], flows[j] = flows[j], flows[i]
	}
}
