// Package bitint implements bit-exact fixed-width unsigned integers at the
// three widths the corpus generator cares about: 32, 64 and 128 bits.
package bitint

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"math/rand/v2"
	"strings"
)

// Width is a supported integer bit width.
type Width int

const (
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
)

// Int is an unsigned integer of a fixed bit Width. The zero value is not
// usable; construct with Zero, MaxOf or FromUint64.
//
// The backing store is a masked math/big.Int: no pack library in the
// example corpus offers a fixed-width big-integer type, so the standard
// library carries this one purely arithmetic concern (see DESIGN.md).
type Int struct {
	w Width
	v big.Int
}

func mask(w Width) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(w))
	return m.Sub(m, big.NewInt(1))
}

// Zero returns the zero value at width w.
func Zero(w Width) Int {
	return Int{w: w}
}

// MaxOf returns the all-ones value at width w.
func MaxOf(w Width) Int {
	var i Int
	i.w = w
	i.v.Set(mask(w))
	return i
}

// FromUint64 builds an Int from a uint64, masked to width w.
func FromUint64(w Width, val uint64) Int {
	var i Int
	i.w = w
	i.v.SetUint64(val)
	i.v.And(&i.v, mask(w))
	return i
}

// Width reports the bit width of a.
func (a Int) Width() Width { return a.w }

// Uint64 returns the low 64 bits of a.
func (a Int) Uint64() uint64 { return a.v.Uint64() }

func (a Int) clone() Int {
	var b Int
	b.w = a.w
	b.v.Set(&a.v)
	return b
}

func (a Int) normalized() Int {
	a.v.And(&a.v, mask(a.w))
	return a
}

// Equal reports a == b (widths must match).
func (a Int) Equal(b Int) bool { return a.v.Cmp(&b.v) == 0 }

// Less reports a < b.
func (a Int) Less(b Int) bool { return a.v.Cmp(&b.v) < 0 }

// LessEqual reports a <= b.
func (a Int) LessEqual(b Int) bool { return a.v.Cmp(&b.v) <= 0 }

// Greater reports a > b.
func (a Int) Greater(b Int) bool { return a.v.Cmp(&b.v) > 0 }

// GreaterEqual reports a >= b.
func (a Int) GreaterEqual(b Int) bool { return a.v.Cmp(&b.v) >= 0 }

// Not returns the bitwise complement of a within its width.
func (a Int) Not() Int {
	r := a.clone()
	r.v.Xor(&r.v, mask(a.w))
	return r
}

// And returns the bitwise AND of a and b.
func (a Int) And(b Int) Int {
	r := a.clone()
	r.v.And(&r.v, &b.v)
	return r
}

// Or returns the bitwise OR of a and b.
func (a Int) Or(b Int) Int {
	r := a.clone()
	r.v.Or(&r.v, &b.v)
	return r
}

// Xor returns the bitwise XOR of a and b.
func (a Int) Xor(b Int) Int {
	r := a.clone()
	r.v.Xor(&r.v, &b.v)
	return r
}

// Shl shifts a left by n bits (0..w), masking the result to width.
func (a Int) Shl(n uint) Int {
	r := a.clone()
	r.v.Lsh(&r.v, n)
	return r.normalized()
}

// Shr shifts a right by n bits (0..w). Logical shift, no sign extension.
func (a Int) Shr(n uint) Int {
	r := a.clone()
	r.v.Rsh(&r.v, n)
	return r
}

// IsZero reports whether a is the zero value.
func (a Int) IsZero() bool { return a.v.Sign() == 0 }

// IsMax reports whether a holds all ones within its width.
func (a Int) IsMax() bool { return a.v.Cmp(mask(a.w)) == 0 }

// MulSmall multiplies a by a small uint32 multiplier, masked to width.
// Used only by decimal-string parsing helpers, never by the core algebra.
func (a Int) MulSmall(m uint32) Int {
	r := a.clone()
	r.v.Mul(&r.v, big.NewInt(int64(m)))
	return r.normalized()
}

// AddSmall adds a small uint32 to a, masked to width.
func (a Int) AddSmall(m uint32) Int {
	r := a.clone()
	r.v.Add(&r.v, big.NewInt(int64(m)))
	return r.normalized()
}

// Sub returns a - b, masked to width (wraps on underflow, as for ranges
// where callers have already checked a >= b).
func (a Int) Sub(b Int) Int {
	r := a.clone()
	r.v.Sub(&r.v, &b.v)
	return r.normalized()
}

// Add returns a + b, masked to width.
func (a Int) Add(b Int) Int {
	r := a.clone()
	r.v.Add(&r.v, &b.v)
	return r.normalized()
}

// TopBits returns the value formed by the top k bits of a, right-justified
// (i.e. a >> (w-k)). k == 0 yields zero; k >= width(a) returns a unchanged.
func (a Int) TopBits(k int) Int {
	if k <= 0 {
		return Zero(a.w)
	}
	if k >= int(a.w) {
		return a
	}
	return a.Shr(uint(int(a.w) - k))
}

// Text renders the top k bits of a in the given base (2, 10 or 16).
// Semantics: the value is left-aligned — the low w-k bits are conceptually
// absent, not zero-padded into the rendering.
func (a Int) Text(base int, k int) string {
	top := a.TopBits(k)
	s := top.v.Text(base)
	if base == 2 {
		// left-pad to k bits so binary renderings like LPM prefixes are
		// a fixed, comparable width ("10*" style callers trim manually).
		if len(s) < k {
			s = strings.Repeat("0", k-len(s)) + s
		}
	}
	return s
}

// String renders a in decimal.
func (a Int) String() string {
	return a.v.String()
}

// RandomBelow draws a uniform value in [0, bound) at width w, using rng.
// Combines enough 64-bit draws from rng to cover w bits so widths above 64
// (the 128-bit header fields) are not truncated the way a single Uint64N
// draw would be.
func RandomBelow(rng *rand.Rand, w Width, bound Int) Int {
	if bound.IsZero() {
		return Zero(w)
	}
	words := (int(w) + 63) / 64
	var v big.Int
	for i := 0; i < words; i++ {
		v.Lsh(&v, 64)
		var word big.Int
		word.SetUint64(rng.Uint64())
		v.Or(&v, &word)
	}
	v.Mod(&v, &bound.v)
	return Int{w: w, v: v}
}

// RandomFull draws a uniform value over the entire width w (used when the
// caller's span wraps to zero, i.e. a full-width wildcard range).
func RandomFull(rng *rand.Rand, w Width) Int {
	words := (int(w) + 63) / 64
	var v big.Int
	for i := 0; i < words; i++ {
		v.Lsh(&v, 64)
		var word big.Int
		word.SetUint64(rng.Uint64())
		v.Or(&v, &word)
	}
	v.And(&v, mask(w))
	return Int{w: w, v: v}
}

// GoString supports %#v-style debug printing.
func (a Int) GoString() string {
	return fmt.Sprintf("bitint.Int{w:%d, v:%s}", a.w, a.v.String())
}

// GobEncode satisfies gob.GobEncoder so checkpoint files (internal/checkpoint)
// can round-trip rule sets without exposing w/v: width, then big.Int's own
// gob encoding.
func (a Int) GobEncode() ([]byte, error) {
	vb, err := a.v.GobEncode()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8+len(vb))
	binary.BigEndian.PutUint64(buf[:8], uint64(a.w))
	copy(buf[8:], vb)
	return buf, nil
}

// GobDecode satisfies gob.GobDecoder, the inverse of GobEncode.
func (a *Int) GobDecode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("bitint: short gob payload (%d bytes)", len(data))
	}
	a.w = Width(binary.BigEndian.Uint64(data[:8]))
	return a.v.GobDecode(data[8:])
}
