// Package bitvec implements fixed-width bit vectors of up to 256 bits.
//
// A Vec carries its width. All arithmetic is modulo 2^width and all
// results are truncated to the width. Mixing widths in a binary
// operation is a programming error and panics.
package bitvec

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/holiman/uint256"
)

// MaxWidth is the widest supported vector.
const MaxWidth = 256

type Vec struct {
	width int
	bits  uint256.Int
}

// New returns the all-zero vector of the given width.
func New(width int) Vec {
	if width < 1 || width > MaxWidth {
		panic(fmt.Sprintf("bitvec: invalid width %d", width))
	}
	return Vec{width: width}
}

// FromUint64 returns v truncated to width bits.
func FromUint64(width int, v uint64) Vec {
	out := New(width)
	out.bits.SetUint64(v)
	out.truncate()
	return out
}

// FromInt64 returns v sign-extended or truncated to width bits.
func FromInt64(width int, v int64) Vec {
	if v >= 0 {
		return FromUint64(width, uint64(v))
	}
	out := FromUint64(width, uint64(v))
	if width > 64 {
		out = out.Or(HighOnes(width, width-64))
	}
	return out
}

// One returns the vector with value 1.
func One(width int) Vec { return FromUint64(width, 1) }

// Parse converts a decimal or 0x-prefixed hexadecimal literal, with an
// optional leading minus sign, to a vector of the given width. The
// magnitude is truncated to the width before negation.
func Parse(width int, s string) (Vec, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	out := New(width)
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		err = out.bits.SetFromHex("0x" + s[2:])
	} else {
		err = out.bits.SetFromDecimal(s)
	}
	if err != nil {
		return Vec{}, fmt.Errorf("bitvec: parsing %q: %w", s, err)
	}
	out.truncate()
	if neg {
		out = out.Neg()
	}
	return out, nil
}

// AllOnes returns the vector with every bit set.
func AllOnes(width int) Vec {
	out := New(width)
	out.bits.SetAllOne()
	out.truncate()
	return out
}

// SignMask returns the vector with only the sign (top) bit set.
func SignMask(width int) Vec {
	out := New(width)
	out.bits.Lsh(uint256.NewInt(1), uint(width-1))
	return out
}

// LowOnes returns the vector with the n lowest bits set.
func LowOnes(width, n int) Vec {
	if n <= 0 {
		return New(width)
	}
	if n >= width {
		return AllOnes(width)
	}
	out := New(width)
	out.bits.Lsh(uint256.NewInt(1), uint(n))
	out.bits.SubUint64(&out.bits, 1)
	return out
}

// HighOnes returns the vector with the n highest bits set.
func HighOnes(width, n int) Vec {
	if n <= 0 {
		return New(width)
	}
	if n >= width {
		return AllOnes(width)
	}
	return LowOnes(width, n).Shl(uint(width - n))
}

// Width reports the vector's width in bits.
func (v Vec) Width() int { return v.width }

func (v Vec) check(o Vec) {
	if v.width == 0 || o.width == 0 {
		panic("bitvec: use of zero Vec")
	}
	if v.width != o.width {
		panic(fmt.Sprintf("bitvec: mismatched widths %d and %d", v.width, o.width))
	}
}

// truncate clears any bits above the width. Operations that can carry
// past the top bit call it before returning.
func (v *Vec) truncate() {
	if v.width == MaxWidth {
		return
	}
	var m uint256.Int
	m.Lsh(uint256.NewInt(1), uint(v.width))
	m.SubUint64(&m, 1)
	v.bits.And(&v.bits, &m)
}

func (v Vec) And(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.And(&v.bits, &o.bits)
	return out
}

func (v Vec) Or(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Or(&v.bits, &o.bits)
	return out
}

func (v Vec) Xor(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Xor(&v.bits, &o.bits)
	return out
}

func (v Vec) Not() Vec {
	out := New(v.width)
	out.bits.Not(&v.bits)
	out.truncate()
	return out
}

// AndNot returns v &^ o.
func (v Vec) AndNot(o Vec) Vec { return v.And(o.Not()) }

func (v Vec) Add(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Add(&v.bits, &o.bits)
	out.truncate()
	return out
}

func (v Vec) Sub(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Sub(&v.bits, &o.bits)
	out.truncate()
	return out
}

func (v Vec) Mul(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Mul(&v.bits, &o.bits)
	out.truncate()
	return out
}

// Udiv returns the unsigned quotient v / o. Division by zero yields
// zero.
func (v Vec) Udiv(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Div(&v.bits, &o.bits)
	return out
}

// Urem returns the unsigned remainder v % o. Remainder by zero yields
// zero.
func (v Vec) Urem(o Vec) Vec {
	v.check(o)
	out := New(v.width)
	out.bits.Mod(&v.bits, &o.bits)
	return out
}

// Sdiv returns the signed quotient v / o, truncating toward zero.
// Division by zero yields zero.
func (v Vec) Sdiv(o Vec) Vec {
	q := v.Abs().Udiv(o.Abs())
	if v.Sign() != o.Sign() {
		return q.Neg()
	}
	return q
}

// Srem returns the signed remainder v % o, with the sign of the
// dividend. Remainder by zero yields zero.
func (v Vec) Srem(o Vec) Vec {
	r := v.Abs().Urem(o.Abs())
	if v.Sign() {
		return r.Neg()
	}
	return r
}

func (v Vec) Neg() Vec {
	return New(v.width).Sub(v)
}

// Abs returns the two's complement absolute value. The minimum value
// maps to itself.
func (v Vec) Abs() Vec {
	if v.Sign() {
		return v.Neg()
	}
	return v
}

// Shl returns v shifted left by n. Shifts of n >= width yield zero.
func (v Vec) Shl(n uint) Vec {
	out := New(v.width)
	if n >= uint(v.width) {
		return out
	}
	out.bits.Lsh(&v.bits, n)
	out.truncate()
	return out
}

// Lshr returns v logically shifted right by n. Shifts of n >= width
// yield zero.
func (v Vec) Lshr(n uint) Vec {
	out := New(v.width)
	if n >= uint(v.width) {
		return out
	}
	out.bits.Rsh(&v.bits, n)
	return out
}

// Ashr returns v arithmetically shifted right by n, replicating the
// sign bit. Shifts of n >= width yield all sign bits.
func (v Vec) Ashr(n uint) Vec {
	neg := v.Sign()
	if n >= uint(v.width) {
		if neg {
			return AllOnes(v.width)
		}
		return New(v.width)
	}
	out := v.Lshr(n)
	if neg {
		out = out.Or(HighOnes(v.width, int(n)))
	}
	return out
}

// ZExt zero-extends to newWidth, which must not be narrower.
func (v Vec) ZExt(newWidth int) Vec {
	if newWidth < v.width {
		panic(fmt.Sprintf("bitvec: zext from %d to %d bits", v.width, newWidth))
	}
	out := New(newWidth)
	out.bits = v.bits
	return out
}

// SExt sign-extends to newWidth, which must not be narrower.
func (v Vec) SExt(newWidth int) Vec {
	out := v.ZExt(newWidth)
	if v.Sign() {
		out = out.Or(HighOnes(newWidth, newWidth-v.width))
	}
	return out
}

// Trunc truncates to newWidth, which must not be wider.
func (v Vec) Trunc(newWidth int) Vec {
	if newWidth > v.width {
		panic(fmt.Sprintf("bitvec: trunc from %d to %d bits", v.width, newWidth))
	}
	out := New(newWidth)
	out.bits = v.bits
	out.truncate()
	return out
}

// ZExtOrTrunc adjusts to newWidth by zero extension or truncation.
func (v Vec) ZExtOrTrunc(newWidth int) Vec {
	if newWidth >= v.width {
		return v.ZExt(newWidth)
	}
	return v.Trunc(newWidth)
}

func (v Vec) IsZero() bool { return v.bits.IsZero() }

func (v Vec) IsAllOnes() bool { return v.Eq(AllOnes(v.width)) }

func (v Vec) Eq(o Vec) bool {
	v.check(o)
	return v.bits.Eq(&o.bits)
}

// Ult reports whether v < o as unsigned integers.
func (v Vec) Ult(o Vec) bool {
	v.check(o)
	return v.bits.Lt(&o.bits)
}

// Intersects reports whether v and o share a set bit.
func (v Vec) Intersects(o Vec) bool { return !v.And(o).IsZero() }

// Bit reports whether bit i is set. Bits at or above the width read as
// false.
func (v Vec) Bit(i int) bool {
	if i < 0 || i >= v.width {
		return false
	}
	return v.bits[i/64]>>(uint(i)%64)&1 == 1
}

// Sign reports whether the top bit is set.
func (v Vec) Sign() bool { return v.Bit(v.width - 1) }

// IsPow2 reports whether exactly one bit is set.
func (v Vec) IsPow2() bool {
	return !v.IsZero() && v.And(v.Sub(One(v.width))).IsZero()
}

// BitLen returns the position of the highest set bit plus one, or 0
// for the zero vector.
func (v Vec) BitLen() int { return v.bits.BitLen() }

// TrailingZeros counts consecutive clear bits from the bottom. The
// zero vector reports the full width.
func (v Vec) TrailingZeros() int {
	for i := range v.bits {
		if v.bits[i] != 0 {
			return i*64 + bits.TrailingZeros64(v.bits[i])
		}
	}
	return v.width
}

// LeadingZeros counts consecutive clear bits from the top.
func (v Vec) LeadingZeros() int { return v.width - v.bits.BitLen() }

// TrailingOnes counts consecutive set bits from the bottom.
func (v Vec) TrailingOnes() int { return v.Not().TrailingZeros() }

// LeadingOnes counts consecutive set bits from the top.
func (v Vec) LeadingOnes() int { return v.Not().LeadingZeros() }

// PopCount returns the number of set bits.
func (v Vec) PopCount() int {
	n := 0
	for i := range v.bits {
		n += bits.OnesCount64(v.bits[i])
	}
	return n
}

// Uint64 returns the low 64 bits.
func (v Vec) Uint64() uint64 { return v.bits.Uint64() }

// FitsUint64 reports whether the value is representable in 64 bits.
func (v Vec) FitsUint64() bool { return v.bits.IsUint64() }

// LimitedValue returns the value clamped to at most limit.
func (v Vec) LimitedValue(limit uint64) uint64 {
	if !v.FitsUint64() || v.Uint64() > limit {
		return limit
	}
	return v.Uint64()
}

// Int64 returns the value as a signed integer. Meaningful only when
// the value sign-extends from 64 or fewer bits.
func (v Vec) Int64() int64 {
	if v.width <= 64 {
		u := v.Uint64()
		if v.Sign() && v.width < 64 {
			u |= ^uint64(0) << uint(v.width)
		}
		return int64(u)
	}
	return int64(v.Uint64())
}

// Dec returns the value as an unsigned decimal string.
func (v Vec) Dec() string { return v.bits.Dec() }

func (v Vec) String() string {
	return fmt.Sprintf("i%d %s", v.width, v.bits.Hex())
}
