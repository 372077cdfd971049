package rule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/paramcalc"
)

func candidateRule(t *testing.T, prefixLens [3]int, values [3]uint64) *Rule {
	t.Helper()
	typ := NewCandidateType()
	r := NewWildcard(typ)
	for i := 0; i < 3; i++ {
		r.Fields[i] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, values[i]), prefixLens[i])
	}
	return r
}

func TestNewWildcardIsWildcardInEveryField(t *testing.T) {
	r := NewWildcard(NewCandidateType())
	for _, f := range r.Fields {
		require.True(t, f.IsWildcard())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := candidateRule(t, [3]int{8, 8, 8}, [3]uint64{1 << 24, 2 << 24, 3 << 24})
	c := r.Clone()
	require.True(t, Equal(r, c))

	c.Fields[0] = field.NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0), 0)
	require.False(t, Equal(r, c), "mutating the clone must not affect the original")
}

func TestOverlapCoverEqual(t *testing.T) {
	wide := candidateRule(t, [3]int{8, 8, 8}, [3]uint64{0, 0, 0})
	narrow := candidateRule(t, [3]int{16, 16, 16}, [3]uint64{0, 0, 0})
	disjoint := candidateRule(t, [3]int{8, 8, 8}, [3]uint64{1 << 24, 1 << 24, 1 << 24})

	require.True(t, Overlap(wide, narrow))
	require.True(t, Cover(wide, narrow))
	require.False(t, Cover(narrow, wide))
	require.False(t, Overlap(wide, disjoint))
	require.True(t, Equal(wide, wide.Clone()))
}

func TestEdgeTypeToPrioritizesCover(t *testing.T) {
	wide := candidateRule(t, [3]int{8, 8, 8}, [3]uint64{0, 0, 0})
	narrow := candidateRule(t, [3]int{16, 16, 16}, [3]uint64{0, 0, 0})
	require.Equal(t, EdgeCover, EdgeTypeTo(wide, narrow))

	disjoint := candidateRule(t, [3]int{8, 8, 8}, [3]uint64{1 << 24, 1 << 24, 1 << 24})
	require.Equal(t, EdgeNone, EdgeTypeTo(wide, disjoint))
}

func TestUsedFieldCount(t *testing.T) {
	a := candidateRule(t, [3]int{8, 0, 0}, [3]uint64{1 << 24, 0, 0})
	b := candidateRule(t, [3]int{0, 8, 0}, [3]uint64{0, 1 << 24, 0})
	require.Equal(t, 2, UsedFieldCount([]*Rule{a, b}))
	require.Equal(t, 0, UsedFieldCount(nil))
}

func TestParameterEdgeCountAndDependencyLength(t *testing.T) {
	root := candidateRule(t, [3]int{0, 0, 0}, [3]uint64{0, 0, 0})
	mid := candidateRule(t, [3]int{8, 0, 0}, [3]uint64{1 << 24, 0, 0})
	leaf := candidateRule(t, [3]int{16, 0, 0}, [3]uint64{1 << 24, 0, 0})

	rules := []*Rule{root, mid, leaf}
	require.Greater(t, Parameter(rules, paramcalc.KindEdgeCount), 0)
	require.Equal(t, 2, Parameter(rules, paramcalc.KindDependencyLength))
}

func TestSetIsSortedDetectsViolation(t *testing.T) {
	root := candidateRule(t, [3]int{0, 0, 0}, [3]uint64{0, 0, 0})
	mid := candidateRule(t, [3]int{8, 0, 0}, [3]uint64{1 << 24, 0, 0})

	sorted := &Set{Rules: []*Rule{root, mid}}
	require.True(t, sorted.IsSorted(2))

	unsorted := &Set{Rules: []*Rule{mid, root}}
	require.False(t, unsorted.IsSorted(2))
}

func TestSetDependencyLengthAndEdgeCount(t *testing.T) {
	root := candidateRule(t, [3]int{0, 0, 0}, [3]uint64{0, 0, 0})
	mid := candidateRule(t, [3]int{8, 0, 0}, [3]uint64{1 << 24, 0, 0})
	leaf := candidateRule(t, [3]int{16, 0, 0}, [3]uint64{1 << 24, 0, 0})
	s := &Set{Rules: []*Rule{root, mid, leaf}}

	require.Equal(t, 2, s.DependencyLength())
	require.Equal(t, s.EdgeCount(), Parameter(s.Rules, paramcalc.KindEdgeCount))
}

func TestSetAddAndLen(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.Len())
	s.Add(NewWildcard(NewCandidateType()))
	require.Equal(t, 1, s.Len())
}
