// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

import (
	"math/big"

	"github.com/pkg/errors"
)

// ZeroExtend returns v extended to the given width with 0 bits.
// It fails with ErrWidth if width < v.Width().
//
func (v Value) ZeroExtend(width int) (Value, error) {
	if width < v.width {
		return Value{}, errors.Wrapf(ErrWidth, "zero extend %d to %d", v.width, width)
	}
	b, z, x := v.planes()
	return norm(width, b, z, x), nil
}

// SignExtend returns v extended to the given width, replicating the most
// significant bit state. It fails with ErrWidth if width < v.Width(), or
// if v has width 0 and width > 0 (there is no sign bit to replicate).
//
func (v Value) SignExtend(width int) (Value, error) {
	if width < v.width {
		return Value{}, errors.Wrapf(ErrWidth, "sign extend %d to %d", v.width, width)
	}
	if v.width == 0 {
		if width > 0 {
			return Value{}, errors.Wrap(ErrWidth, "sign extend of empty value")
		}
		return v, nil
	}
	b, z, x := v.planes()
	fill := bigMask(width)
	fill.AndNot(fill, bigMask(v.width))
	switch v.Bit(v.width - 1) {
	case Hi:
		b.Or(b, fill)
	case HiZ:
		z.Or(z, fill)
	case Undefined:
		x.Or(x, fill)
	}
	return norm(width, b, z, x), nil
}

// Slice returns bits hi down to lo of v, inclusive, as a value of width
// hi-lo+1. It fails with ErrWidth if the range is invalid or out of
// bounds.
//
func (v Value) Slice(hi, lo int) (Value, error) {
	if lo < 0 || hi < lo || hi >= v.width {
		return Value{}, errors.Wrapf(ErrWidth, "slice [%d:%d] of %d bit value", hi, lo, v.width)
	}
	b, z, x := v.planes()
	b.Rsh(b, uint(lo))
	z.Rsh(z, uint(lo))
	x.Rsh(x, uint(lo))
	return norm(hi-lo+1, b, z, x), nil
}

// Replicate returns v concatenated with itself k times, a value of width
// k*v.Width(). Replicate panics if k is negative; k == 0 yields the empty
// value.
//
func (v Value) Replicate(k int) Value {
	if k < 0 {
		panic("logic: negative replication count")
	}
	vs := make([]Value, k)
	for i := range vs {
		vs[i] = v
	}
	return Concat(vs...)
}

// Reversed returns v with its bit order reversed.
//
func (v Value) Reversed() Value {
	b, z, x := new(big.Int), new(big.Int), new(big.Int)
	for i := 0; i < v.width; i++ {
		pos := v.width - 1 - i
		switch v.Bit(i) {
		case Hi:
			b.SetBit(b, pos, 1)
		case HiZ:
			z.SetBit(z, pos, 1)
		case Undefined:
			x.SetBit(x, pos, 1)
		}
	}
	return norm(v.width, b, z, x)
}

// WithSet returns a copy of v with o written at the given bit offset.
// It fails with ErrWidth if offset is negative or offset+o.Width()
// exceeds the width of v.
//
func (v Value) WithSet(offset int, o Value) (Value, error) {
	if offset < 0 || offset+o.width > v.width {
		return Value{}, errors.Wrapf(ErrWidth, "set %d bits at offset %d in %d bit value", o.width, offset, v.width)
	}
	b, z, x := v.planes()
	region := bigMask(o.width)
	region.Lsh(region, uint(offset))
	b.AndNot(b, region)
	z.AndNot(z, region)
	x.AndNot(x, region)
	ob, oz, ox := o.planes()
	b.Or(b, ob.Lsh(ob, uint(offset)))
	z.Or(z, oz.Lsh(oz, uint(offset)))
	x.Or(x, ox.Lsh(ox, uint(offset)))
	return norm(v.width, b, z, x), nil
}

// Concat concatenates the given values into one, first value most
// significant. The result width is the sum of the input widths; zero-width
// inputs are legal no-ops.
//
func Concat(vs ...Value) Value {
	w := 0
	for _, v := range vs {
		w += v.width
	}
	b, z, x := new(big.Int), new(big.Int), new(big.Int)
	for _, v := range vs {
		vb, vz, vx := v.planes()
		b.Lsh(b, uint(v.width)).Or(b, vb)
		z.Lsh(z, uint(v.width)).Or(z, vz)
		x.Lsh(x, uint(v.width)).Or(x, vx)
	}
	return norm(w, b, z, x)
}

// RConcat is Concat with the argument order reversed: the first value ends
// up least significant.
//
func RConcat(vs ...Value) Value {
	rs := make([]Value, len(vs))
	for i, v := range vs {
		rs[len(vs)-1-i] = v
	}
	return Concat(rs...)
}

// Clog2 returns the ceiling of the base 2 logarithm of v interpreted as an
// unsigned magnitude. Clog2 of zero is 0, and of an all-ones value of
// width w is w. ok is false if v has floating or unknown bits.
//
func (v Value) Clog2() (n int, ok bool) {
	b, ok := v.Big()
	if !ok {
		return 0, false
	}
	if b.Sign() == 0 {
		return 0, true
	}
	b.Sub(b, big.NewInt(1))
	return b.BitLen(), true
}

// bitValue returns a 1-bit value holding b.
//
func bitValue(b Bit) Value {
	switch b {
	case Hi:
		return small(1, 1, 0, 0)
	case HiZ:
		return small(1, 0, 1, 0)
	case Undefined:
		return small(1, 0, 0, 1)
	}
	return small(1, 0, 0, 0)
}

// AndR returns the single-bit AND reduction of v: 0 if any bit is a
// definite 0, 1 if all bits are 1, X otherwise. The empty value reduces
// to 1.
//
func (v Value) AndR() Value {
	r := Hi
	for i := 0; i < v.width; i++ {
		r = r.And(v.Bit(i))
		if r == Lo {
			break
		}
	}
	return bitValue(r)
}

// OrR returns the single-bit OR reduction of v: 1 if any bit is a definite
// 1, 0 if all bits are 0, X otherwise. The empty value reduces to 0.
//
func (v Value) OrR() Value {
	r := Lo
	for i := 0; i < v.width; i++ {
		r = r.Or(v.Bit(i))
		if r == Hi {
			break
		}
	}
	return bitValue(r)
}

// XorR returns the single-bit XOR (parity) reduction of v, or X if any bit
// is floating or unknown. The empty value reduces to 0.
//
func (v Value) XorR() Value {
	r := Lo
	for i := 0; i < v.width; i++ {
		r = r.Xor(v.Bit(i))
		if r == Undefined {
			break
		}
	}
	return bitValue(r)
}
