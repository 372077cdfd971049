package bitint

import (
	"bytes"
	"encoding/gob"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromUint64MasksToWidth(t *testing.T) {
	v := FromUint64(Width32, 0x1_0000_0001)
	require.Equal(t, uint64(1), v.Uint64())
}

func TestMaxOfIsMax(t *testing.T) {
	require.True(t, MaxOf(Width32).IsMax())
	require.False(t, MaxOf(Width32).IsZero())
}

func TestZeroIsZero(t *testing.T) {
	require.True(t, Zero(Width64).IsZero())
}

func TestComparisons(t *testing.T) {
	a := FromUint64(Width32, 5)
	b := FromUint64(Width32, 10)
	require.True(t, a.Less(b))
	require.True(t, a.LessEqual(b))
	require.True(t, a.LessEqual(a))
	require.True(t, b.Greater(a))
	require.True(t, b.GreaterEqual(a))
	require.True(t, a.Equal(a))
	require.False(t, a.Equal(b))
}

func TestArithmeticWrapsAtWidth(t *testing.T) {
	max := MaxOf(Width32)
	require.True(t, max.AddSmall(1).IsZero())

	zero := Zero(Width32)
	require.True(t, zero.Sub(FromUint64(Width32, 1)).IsMax())
}

func TestBitwiseOps(t *testing.T) {
	a := FromUint64(Width32, 0b1010)
	b := FromUint64(Width32, 0b0110)
	require.Equal(t, uint64(0b0010), a.And(b).Uint64())
	require.Equal(t, uint64(0b1110), a.Or(b).Uint64())
	require.Equal(t, uint64(0b1100), a.Xor(b).Uint64())
	require.True(t, a.Not().Not().Equal(a))
}

func TestShifts(t *testing.T) {
	a := FromUint64(Width32, 1)
	require.Equal(t, uint64(8), a.Shl(3).Uint64())
	require.Equal(t, uint64(1), a.Shl(3).Shr(3).Uint64())
	// Shl masks at the width boundary
	require.True(t, FromUint64(Width32, 1).Shl(32).IsZero())
}

func TestTopBits(t *testing.T) {
	a := FromUint64(Width32, 0b1100_0000_0000_0000_0000_0000_0000_0000)
	require.Equal(t, uint64(0b11), a.TopBits(2).Uint64())
	require.True(t, a.TopBits(0).IsZero())
	require.True(t, a.TopBits(64).Equal(a))
}

func TestTextBinaryLeftPads(t *testing.T) {
	a := FromUint64(Width32, 0b10<<30) // top two bits = 10
	require.Equal(t, "10", a.Text(2, 2))

	b := FromUint64(Width32, 0) // top bits all zero
	require.Equal(t, "0000", b.Text(2, 4))
}

func TestStringRendersDecimal(t *testing.T) {
	require.Equal(t, "42", FromUint64(Width32, 42).String())
}

func TestRandomBelowStaysInBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	bound := FromUint64(Width32, 100)
	for i := 0; i < 1000; i++ {
		v := RandomBelow(r, Width32, bound)
		require.True(t, v.Less(bound))
	}
}

func TestRandomBelowZeroBoundReturnsZero(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	require.True(t, RandomBelow(r, Width32, Zero(Width32)).IsZero())
}

func TestRandomFullRespectsWidth(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		v := RandomFull(r, Width32)
		require.LessOrEqual(t, v.Uint64(), uint64(0xFFFFFFFF))
	}
}

func TestGobRoundTrip(t *testing.T) {
	for _, w := range []Width{Width32, Width64, Width128} {
		original := FromUint64(w, 0xDEADBEEF)
		var buf bytes.Buffer
		require.NoError(t, gob.NewEncoder(&buf).Encode(original))

		var decoded Int
		require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
		require.Equal(t, w, decoded.Width())
		require.True(t, original.Equal(decoded))
	}
}

func TestGobDecodeRejectsShortPayload(t *testing.T) {
	var decoded Int
	require.Error(t, decoded.GobDecode([]byte{1, 2, 3}))
}
