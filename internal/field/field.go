// Package field implements the three match-field kinds (EM, LPM, RM) and
// their pairwise relations (overlap, cover, equal, difference, add_suffix,
// set_parent, hit, available_width).
package field

import (
	"math/bits"
	"math/rand/v2"

	"github.com/flowsynth/corpusgen/internal/bitint"
)

// Kind is the match-field variant.
type Kind uint8

const (
	EM Kind = iota
	LPM
	RM
)

// Field is a tagged union over EM/LPM/RM. Only the members relevant to Kind
// are meaningful; this mirrors the teacher's compact-enum style rather than
// a class hierarchy with downcasts (see DESIGN.md / spec §9).
type Field struct {
	Kind  Kind
	Width bitint.Width

	// EM
	Value    bitint.Int
	Wildcard bool

	// LPM
	Prefix    bitint.Int
	PrefixLen int

	// RM
	Start, End bitint.Int
}

// NewEM builds an exact-match field.
func NewEM(w bitint.Width, value bitint.Int, wildcard bool) Field {
	return Field{Kind: EM, Width: w, Value: value, Wildcard: wildcard}
}

// NewLPM builds a longest-prefix-match field. len == 0 is a wildcard.
func NewLPM(w bitint.Width, prefix bitint.Int, length int) Field {
	return Field{Kind: LPM, Width: w, Prefix: prefix, PrefixLen: length}
}

// NewRM builds a range-match field.
func NewRM(w bitint.Width, start, end bitint.Int) Field {
	return Field{Kind: RM, Width: w, Start: start, End: end}
}

// lpmMaskLow returns the low (w-len) bits set to 1 (the "don't care" tail).
func lpmMaskLow(w bitint.Width, length int) bitint.Int {
	free := int(w) - length
	if free <= 0 {
		return bitint.Zero(w)
	}
	return bitint.MaxOf(w).Shr(uint(length))
}

// Range returns the inclusive [min, max] match space of f.
func (f Field) Range() (lo, hi bitint.Int) {
	switch f.Kind {
	case EM:
		if f.Wildcard {
			return bitint.Zero(f.Width), bitint.MaxOf(f.Width)
		}
		return f.Value, f.Value
	case LPM:
		lo = f.Prefix
		hi = f.Prefix.Or(lpmMaskLow(f.Width, f.PrefixLen))
		return lo, hi
	case RM:
		return f.Start, f.End
	}
	return bitint.Zero(f.Width), bitint.Zero(f.Width)
}

// Overlap reports whether a and b's match spaces intersect.
func Overlap(a, b Field) bool {
	aLo, aHi := a.Range()
	bLo, bHi := b.Range()
	return aLo.LessEqual(bHi) && bLo.LessEqual(aHi)
}

// Cover reports whether a's match space contains b's entirely.
func Cover(a, b Field) bool {
	aLo, aHi := a.Range()
	bLo, bHi := b.Range()
	return aLo.LessEqual(bLo) && bHi.LessEqual(aHi)
}

// Equal reports kind-specific canonical equality.
func Equal(a, b Field) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case EM:
		if a.Wildcard != b.Wildcard {
			return false
		}
		return a.Wildcard || a.Value.Equal(b.Value)
	case LPM:
		return a.PrefixLen == b.PrefixLen && a.Prefix.Equal(b.Prefix)
	case RM:
		return a.Start.Equal(b.Start) && a.End.Equal(b.End)
	}
	return false
}

// IsWildcard reports whether f matches every value of its width.
func (f Field) IsWildcard() bool {
	switch f.Kind {
	case EM:
		return f.Wildcard
	case LPM:
		return f.PrefixLen == 0
	case RM:
		return f.Start.IsZero() && f.End.IsMax()
	}
	return false
}

// Difference partitions self \ other into homogeneous same-kind pieces.
// EM fields are non-decomposable and yield self unchanged (spec §3).
func Difference(self, other Field) []Field {
	if !Overlap(self, other) {
		return []Field{self}
	}
	switch self.Kind {
	case EM:
		return []Field{self}
	case LPM:
		return lpmDifference(self, other)
	case RM:
		return rmDifference(self, other)
	}
	return []Field{self}
}

// lpmDifference recursively subdivides self along the prefix trie until
// each leaf either avoids other entirely or is swallowed by it.
func lpmDifference(self, other Field) []Field {
	if Cover(other, self) {
		return nil
	}
	if self.PrefixLen >= int(self.Width) {
		// self is a single point and it overlaps but isn't covered: impossible
		// given the overlap check above unless other is also a single point
		// equal to self, which Cover would have caught. Defensive return.
		return []Field{self}
	}
	left, right := splitLPM(self)
	var out []Field
	if Overlap(left, other) {
		out = append(out, lpmDifference(left, other)...)
	} else {
		out = append(out, left)
	}
	if Overlap(right, other) {
		out = append(out, lpmDifference(right, other)...)
	} else {
		out = append(out, right)
	}
	return out
}

func splitLPM(self Field) (left, right Field) {
	left = AddSuffix(self, 0, 1)
	right = AddSuffix(self, 1, 1)
	return
}

// rmDifference returns at most two subranges adjacent to other.
func rmDifference(self, other Field) []Field {
	var out []Field
	if self.Start.Less(other.Start) {
		out = append(out, NewRM(self.Width, self.Start, other.Start.Sub(bitint.FromUint64(self.Width, 1))))
	}
	if other.End.Less(self.End) {
		out = append(out, NewRM(self.Width, other.End.AddSmall(1), self.End))
	}
	return out
}

// AddSuffix extends f by k new low-order bits of value s.
// For LPM this lengthens the prefix; for RM it selects the s-th of 2^k
// equal sub-slots of the current [start,end] range.
func AddSuffix(f Field, s uint32, k int) Field {
	switch f.Kind {
	case LPM:
		shift := int(f.Width) - f.PrefixLen - k
		if shift < 0 {
			shift = 0
		}
		newPrefix := f.Prefix.Or(bitint.FromUint64(f.Width, uint64(s)).Shl(uint(shift)))
		return NewLPM(f.Width, newPrefix, f.PrefixLen+k)
	case RM:
		slotSize := f.Start.Xor(f.End).Shr(uint(k)).AddSmall(1)
		offset := slotSize.MulSmall(s)
		newStart := f.Start.Add(offset)
		newEnd := newStart.Add(slotSize).Sub(bitint.FromUint64(f.Width, 1))
		if newEnd.Less(newStart) {
			// Open question #2 (SPEC_FULL.md): slot size 1 with s=0 must not
			// invert the range; treat as a no-op single-point slot instead.
			newEnd = newStart
		}
		return NewRM(f.Width, newStart, newEnd)
	default:
		return f
	}
}

// SetParent composes self inside the range carved out by p.
func SetParent(self, p Field) Field {
	switch self.Kind {
	case LPM:
		newLen := p.PrefixLen + self.PrefixLen
		if newLen > int(self.Width) {
			newLen = int(self.Width)
		}
		newPrefix := p.Prefix.Or(self.Prefix.Shr(uint(p.PrefixLen)))
		return NewLPM(self.Width, newPrefix, newLen)
	case RM:
		if self.Width != bitint.Width32 {
			return self
		}
		pLo, pHi := p.Range()
		span := pHi.Sub(pLo).AddSmall(1).Uint64()
		mapVal := func(x bitint.Int) bitint.Int {
			prod := x.Uint64() * span
			return bitint.FromUint64(bitint.Width32, pLo.Uint64()+(prod>>32))
		}
		return NewRM(self.Width, mapVal(self.Start), mapVal(self.End))
	default:
		return self
	}
}

// Hit draws a single in-range value uniformly.
func Hit(f Field, rng *rand.Rand) bitint.Int {
	lo, hi := f.Range()
	span := hi.Sub(lo).AddSmall(1)
	if span.IsZero() {
		return lo.Add(bitint.RandomFull(rng, f.Width))
	}
	offset := bitint.RandomBelow(rng, f.Width, span)
	return lo.Add(offset)
}

// AvailableWidth returns the number of still-free bits in f.
func (f Field) AvailableWidth() int {
	switch f.Kind {
	case EM:
		return 0
	case LPM:
		free := int(f.Width) - f.PrefixLen
		if free < 0 {
			return 0
		}
		return free
	case RM:
		rangeSize := f.End.Sub(f.Start).AddSmall(1)
		w := int(f.Width)
		shiftAmt := 32 - w
		var shifted uint64
		if shiftAmt <= 0 {
			shifted = rangeSize.Uint64()
		} else {
			shifted = rangeSize.Shr(uint(shiftAmt)).Uint64()
		}
		if shifted <= 1 {
			return 0
		}
		return bits.Len64(shifted) - 1 // floor(log2(shifted))
	}
	return 0
}
