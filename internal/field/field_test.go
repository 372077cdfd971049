package field

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsynth/corpusgen/internal/bitint"
)

func TestEMRange(t *testing.T) {
	exact := NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 7), false)
	lo, hi := exact.Range()
	require.True(t, lo.Equal(bitint.FromUint64(bitint.Width32, 7)))
	require.True(t, hi.Equal(bitint.FromUint64(bitint.Width32, 7)))

	wild := NewEM(bitint.Width32, bitint.Zero(bitint.Width32), true)
	lo, hi = wild.Range()
	require.True(t, lo.IsZero())
	require.True(t, hi.IsMax())
	require.True(t, wild.IsWildcard())
}

func TestLPMRange(t *testing.T) {
	f := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 24)
	lo, hi := f.Range()
	require.Equal(t, uint64(0xC0A80000), lo.Uint64())
	require.Equal(t, uint64(0xC0A800FF), hi.Uint64())
}

func TestLPMWildcardIsFullWidth(t *testing.T) {
	f := NewLPM(bitint.Width32, bitint.Zero(bitint.Width32), 0)
	require.True(t, f.IsWildcard())
	lo, hi := f.Range()
	require.True(t, lo.IsZero())
	require.True(t, hi.IsMax())
}

func TestRMRange(t *testing.T) {
	f := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 10), bitint.FromUint64(bitint.Width32, 200))
	lo, hi := f.Range()
	require.Equal(t, uint64(10), lo.Uint64())
	require.Equal(t, uint64(200), hi.Uint64())
}

func TestOverlapAndCover(t *testing.T) {
	a := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16) // 192.168.0.0/16
	b := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80100), 24) // 192.168.1.0/24
	c := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0x0A000000), 8)  // 10.0.0.0/8

	require.True(t, Overlap(a, b))
	require.True(t, Cover(a, b))
	require.False(t, Overlap(a, c))
	require.False(t, Cover(a, c))
}

func TestEqual(t *testing.T) {
	a := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), bitint.FromUint64(bitint.Width32, 5))
	b := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), bitint.FromUint64(bitint.Width32, 5))
	c := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), bitint.FromUint64(bitint.Width32, 6))
	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))

	em1 := NewEM(bitint.Width32, bitint.Zero(bitint.Width32), true)
	em2 := NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 99), true)
	require.True(t, Equal(em1, em2), "two wildcard EM fields are equal regardless of stored Value")
}

func TestDifferenceNoOverlapReturnsSelf(t *testing.T) {
	a := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)
	b := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0x0A000000), 8)
	diff := Difference(a, b)
	require.Len(t, diff, 1)
	require.True(t, Equal(a, diff[0]))
}

func TestDifferenceEMIsNonDecomposable(t *testing.T) {
	a := NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), true)
	b := NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), false)
	diff := Difference(a, b)
	require.Len(t, diff, 1)
	require.True(t, Equal(a, diff[0]))
}

func TestDifferenceLPMCoveredYieldsEmpty(t *testing.T) {
	self := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80100), 24)
	other := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)
	require.Empty(t, Difference(self, other))
}

func TestDifferenceLPMPartitionsSpaceExcludingOther(t *testing.T) {
	self := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)  // /16
	other := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80100), 24) // /24 inside self

	pieces := Difference(self, other)
	require.NotEmpty(t, pieces)
	for _, p := range pieces {
		require.False(t, Overlap(p, other))
		require.True(t, Cover(self, p))
	}
}

func TestDifferenceRMSplitsAroundOther(t *testing.T) {
	self := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0), bitint.FromUint64(bitint.Width32, 100))
	other := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 40), bitint.FromUint64(bitint.Width32, 60))

	pieces := Difference(self, other)
	require.Len(t, pieces, 2)
	require.Equal(t, uint64(0), pieces[0].Start.Uint64())
	require.Equal(t, uint64(39), pieces[0].End.Uint64())
	require.Equal(t, uint64(61), pieces[1].Start.Uint64())
	require.Equal(t, uint64(100), pieces[1].End.Uint64())
}

func TestAddSuffixLPMExtendsPrefix(t *testing.T) {
	f := NewLPM(bitint.Width32, bitint.FromUint64(bitint.Width32, 0xC0A80000), 16)
	left := AddSuffix(f, 0, 1)
	right := AddSuffix(f, 1, 1)
	require.Equal(t, 17, left.PrefixLen)
	require.Equal(t, 17, right.PrefixLen)
	require.False(t, Overlap(left, right))
	require.True(t, Cover(f, left))
	require.True(t, Cover(f, right))
}

func TestAddSuffixRMSlotSizeOneIsNoOp(t *testing.T) {
	f := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 5), bitint.FromUint64(bitint.Width32, 5))
	got := AddSuffix(f, 0, 1)
	require.False(t, got.End.Less(got.Start), "slot size 1 must not invert into start>end")
	require.Equal(t, got.Start.Uint64(), got.End.Uint64())
}

func TestHitStaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	f := NewRM(bitint.Width32, bitint.FromUint64(bitint.Width32, 10), bitint.FromUint64(bitint.Width32, 20))
	for i := 0; i < 500; i++ {
		v := Hit(f, r)
		require.True(t, v.GreaterEqual(f.Start))
		require.True(t, v.LessEqual(f.End))
	}
}

func TestAvailableWidth(t *testing.T) {
	em := NewEM(bitint.Width32, bitint.FromUint64(bitint.Width32, 1), false)
	require.Equal(t, 0, em.AvailableWidth())

	lpm := NewLPM(bitint.Width32, bitint.Zero(bitint.Width32), 24)
	require.Equal(t, 8, lpm.AvailableWidth())

	full := NewLPM(bitint.Width32, bitint.Zero(bitint.Width32), 32)
	require.Equal(t, 0, full.AvailableWidth())
}
