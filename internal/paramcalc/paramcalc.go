// Package paramcalc implements the Divider and the memoized parameter
// calculator (spec §4.2 "Divider", §8 "Parameter calculator law",
// component C5).
package paramcalc

import "math"

// Kind selects which quantity "parameter" denotes: the total edge count
// (E) or the longest dependency chain (D). The recursive shape of
// MaxParameter is identical for both, and so is the n<=4 base case (spec
// §8's law MP(0..4) = {0, 0, 1, 3, 6} is stated without a kind distinction,
// matching the single shared `remainder` table the original implementation
// uses for both TaskType::DependencyLength and TaskType::EdgeCount).
type Kind uint8

const (
	KindEdgeCount Kind = iota
	KindDependencyLength
)

var base = [5]int{0, 0, 1, 3, 6}

// Calculator memoizes MaxParameter(n) for one Kind.
type Calculator struct {
	kind Kind
	memo map[int]int
}

// New creates a calculator for the given target kind.
func New(kind Kind) *Calculator {
	return &Calculator{kind: kind, memo: make(map[int]int)}
}

// Kind reports which target parameter this calculator was built for.
func (c *Calculator) Kind() Kind { return c.kind }

// MaxParameter returns the maximum achievable parameter value for n rules:
//
//	MP(n) = 4(n-4) + MP(4) + sum_{i=0..3} MP(d_i(n-4))   for n > 4
//
// with MP(0..4) fixed by the base table shared by both Kinds.
func (c *Calculator) MaxParameter(n int) int {
	if n <= 4 {
		if n < 0 {
			return 0
		}
		return base[n]
	}
	if v, ok := c.memo[n]; ok {
		return v
	}
	d := Divide(n - 4)
	sum := 0
	for _, di := range d {
		sum += c.MaxParameter(di)
	}
	result := 4*(n-4) + c.MaxParameter(4) + sum
	c.memo[n] = result
	return result
}

// Divide partitions n into four pieces d_0..d_3 summing to n, using the
// intentionally last-piece-biased rounding rule from spec §4.2/§9:
//
//	u_i = round(i*n/4), d_i = u_{i+1} - u_i, u_0 = 0
func Divide(n int) [4]int {
	var u [5]int
	for i := 1; i <= 4; i++ {
		u[i] = roundDiv(i*n, 4)
	}
	var d [4]int
	for i := 0; i < 4; i++ {
		d[i] = u[i+1] - u[i]
	}
	return d
}

func roundDiv(a, b int) int {
	return int(math.Round(float64(a) / float64(b)))
}

// AllocateByCapacity distributes target across len(sizes) buckets
// proportionally to each bucket's MaxParameter(sizes[i]) capacity, then
// repairs rounding drift with +1/-1 passes under each bucket's cap. Shared
// by the sparse/dense partitioners (§4.8, §4.9) and the virtual-rule child
// allocator (§4.4), all of which need the same "split a budget across
// capacitated buckets" shape.
func (c *Calculator) AllocateByCapacity(sizes []int, target int) []int {
	caps := make([]int, len(sizes))
	total := 0
	for i, n := range sizes {
		caps[i] = c.MaxParameter(n)
		total += caps[i]
	}
	out := make([]int, len(sizes))
	if total == 0 {
		return out
	}
	ratio := float64(target) / float64(total)
	sum := 0
	for i := range out {
		v := int(math.Round(float64(caps[i]) * ratio))
		if v < 0 {
			v = 0
		}
		if v > caps[i] {
			v = caps[i]
		}
		out[i] = v
		sum += v
	}
	drift := target - sum
	for drift != 0 {
		progressed := false
		for i := range out {
			if drift == 0 {
				break
			}
			if drift > 0 && out[i] < caps[i] {
				out[i]++
				drift--
				progressed = true
			} else if drift < 0 && out[i] > 0 {
				out[i]--
				drift++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}
