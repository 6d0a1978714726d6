// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

import (
	"math/big"

	"github.com/pkg/errors"
)

// Arithmetic follows the hardware convention: operands must have the same
// width, the result has the operand width and wraps around, and any
// floating or unknown operand bit poisons the whole result to all-X.
// Values are interpreted as unsigned unless the explicitly signed variant
// is used; signed variants use two's complement.

// checkArith validates widths for a two operand arithmetic operation and
// reports whether the numeric fast path applies (both operands fully
// defined).
//
func (v Value) checkArith(o Value, op string) (defined bool, err error) {
	if v.width != o.width {
		return false, errors.Wrapf(ErrWidthMismatch, "%s: %d != %d", op, v.width, o.width)
	}
	return v.IsDefined() && o.IsDefined(), nil
}

// Add returns v + o truncated to the operand width.
//
func (v Value) Add(o Value) (Value, error) {
	def, err := v.checkArith(o, "add")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	if !v.isWide() {
		return small(v.width, v.bits+o.bits, 0, 0), nil
	}
	a, _, _ := v.planes()
	b, _, _ := o.planes()
	return wide(v.width, a.Add(a, b), new(big.Int), new(big.Int)), nil
}

// Sub returns v - o truncated to the operand width.
//
func (v Value) Sub(o Value) (Value, error) {
	def, err := v.checkArith(o, "sub")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	if !v.isWide() {
		return small(v.width, v.bits-o.bits, 0, 0), nil
	}
	a, _, _ := v.planes()
	b, _, _ := o.planes()
	return wide(v.width, a.Sub(a, b), new(big.Int), new(big.Int)), nil
}

// Mul returns v * o truncated to the operand width.
//
func (v Value) Mul(o Value) (Value, error) {
	def, err := v.checkArith(o, "mul")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	// the packed product can overflow 64 bits, go through big planes
	a, _, _ := v.planes()
	b, _, _ := o.planes()
	return norm(v.width, a.Mul(a, b), new(big.Int), new(big.Int)), nil
}

// Div returns the unsigned quotient v / o. Division by an all-zero divisor
// yields all-X rather than failing.
//
func (v Value) Div(o Value) (Value, error) {
	def, err := v.checkArith(o, "div")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	if !v.isWide() {
		if o.bits == 0 {
			return X(v.width), nil
		}
		return small(v.width, v.bits/o.bits, 0, 0), nil
	}
	a, _, _ := v.planes()
	b, _, _ := o.planes()
	if b.Sign() == 0 {
		return X(v.width), nil
	}
	return wide(v.width, a.Quo(a, b), new(big.Int), new(big.Int)), nil
}

// Mod returns the unsigned remainder v % o. An all-zero divisor yields
// all-X rather than failing.
//
func (v Value) Mod(o Value) (Value, error) {
	def, err := v.checkArith(o, "mod")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	if !v.isWide() {
		if o.bits == 0 {
			return X(v.width), nil
		}
		return small(v.width, v.bits%o.bits, 0, 0), nil
	}
	a, _, _ := v.planes()
	b, _, _ := o.planes()
	if b.Sign() == 0 {
		return X(v.width), nil
	}
	return wide(v.width, a.Rem(a, b), new(big.Int), new(big.Int)), nil
}

// signedBig returns the two's complement interpretation of v.
// v must be fully defined.
//
func (v Value) signedBig() *big.Int {
	b, _, _ := v.planes()
	if v.width > 0 && v.Bit(v.width-1) == Hi {
		m := new(big.Int).Lsh(big.NewInt(1), uint(v.width))
		b.Sub(b, m)
	}
	return b
}

// encodeWrap encodes x modulo 2^width into a value.
//
func encodeWrap(width int, x *big.Int) Value {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	x.Mod(x, m) // Mod is Euclidean, result is always >= 0
	return norm(width, x, new(big.Int), new(big.Int))
}

// DivS returns the signed (two's complement) quotient v / o, truncated
// toward zero. An all-zero divisor yields all-X.
//
func (v Value) DivS(o Value) (Value, error) {
	def, err := v.checkArith(o, "divs")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	a, b := v.signedBig(), o.signedBig()
	if b.Sign() == 0 {
		return X(v.width), nil
	}
	return encodeWrap(v.width, a.Quo(a, b)), nil
}

// ModS returns the signed remainder v % o, with the sign of the dividend
// (truncated division). An all-zero divisor yields all-X.
//
func (v Value) ModS(o Value) (Value, error) {
	def, err := v.checkArith(o, "mods")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(v.width), nil
	}
	a, b := v.signedBig(), o.signedBig()
	if b.Sign() == 0 {
		return X(v.width), nil
	}
	return encodeWrap(v.width, a.Rem(a, b)), nil
}

// shiftAmount extracts a usable shift amount from amt. ok is false if amt
// has floating or unknown bits or exceeds the operand width (shifting by
// exactly the width is legal and clears the value).
//
func shiftAmount(width int, amt Value) (n int, ok bool) {
	x, ok := amt.Uint64()
	if !ok || x > uint64(width) {
		return 0, false
	}
	return int(x), true
}

// Shl returns v logically shifted left. Bit states move with the shift, so
// unknown and floating bits are preserved at their new positions; vacated
// positions fill with 0. If amt has floating or unknown bits, or exceeds
// the width of v, the result is all-X.
//
func (v Value) Shl(amt Value) Value {
	n, ok := shiftAmount(v.width, amt)
	if !ok {
		return X(v.width)
	}
	return v.ShlN(n)
}

// Shr is like Shl but shifts right.
//
func (v Value) Shr(amt Value) Value {
	n, ok := shiftAmount(v.width, amt)
	if !ok {
		return X(v.width)
	}
	return v.ShrN(n)
}

// Sra is like Shr but replicates the most significant bit into vacated
// positions (arithmetic shift).
//
func (v Value) Sra(amt Value) Value {
	n, ok := shiftAmount(v.width, amt)
	if !ok {
		return X(v.width)
	}
	return v.SraN(n)
}

// ShlN returns v logically shifted left by n. ShlN panics if n is
// negative; the result is all-X if n exceeds the width of v.
//
func (v Value) ShlN(n int) Value {
	if n < 0 {
		panic("logic: negative shift amount")
	}
	if n > v.width {
		return X(v.width)
	}
	b, z, x := v.planes()
	b.Lsh(b, uint(n))
	z.Lsh(z, uint(n))
	x.Lsh(x, uint(n))
	return norm(v.width, b, z, x)
}

// ShrN returns v logically shifted right by n. ShrN panics if n is
// negative; the result is all-X if n exceeds the width of v.
//
func (v Value) ShrN(n int) Value {
	if n < 0 {
		panic("logic: negative shift amount")
	}
	if n > v.width {
		return X(v.width)
	}
	b, z, x := v.planes()
	b.Rsh(b, uint(n))
	z.Rsh(z, uint(n))
	x.Rsh(x, uint(n))
	return norm(v.width, b, z, x)
}

// SraN returns v arithmetically shifted right by n: vacated positions take
// the state of the most significant bit. SraN panics if n is negative; the
// result is all-X if n exceeds the width of v.
//
func (v Value) SraN(n int) Value {
	if n < 0 {
		panic("logic: negative shift amount")
	}
	if n > v.width {
		return X(v.width)
	}
	if v.width == 0 || n == 0 {
		return v
	}
	b, z, x := v.planes()
	b.Rsh(b, uint(n))
	z.Rsh(z, uint(n))
	x.Rsh(x, uint(n))
	// fill the top n positions with the sign bit state
	fill := bigMask(v.width)
	fill.AndNot(fill, bigMask(v.width-n))
	switch v.Bit(v.width - 1) {
	case Hi:
		b.Or(b, fill)
	case HiZ:
		z.Or(z, fill)
	case Undefined:
		x.Or(x, fill)
	}
	return norm(v.width, b, z, x)
}

// cmpDefined compares v and o numerically. It must only be called on fully
// defined values of equal width.
//
func (v Value) cmpDefined(o Value, signed bool) int {
	if signed {
		return v.signedBig().Cmp(o.signedBig())
	}
	if !v.isWide() {
		switch {
		case v.bits < o.bits:
			return -1
		case v.bits > o.bits:
			return 1
		}
		return 0
	}
	return v.wbits.Cmp(o.wbits)
}

func boolBit(b bool) Value {
	if b {
		return small(1, 1, 0, 0)
	}
	return small(1, 0, 0, 0)
}

// Eq returns a single-bit value: 1 if v equals o numerically, 0 if not,
// and X if either operand has floating or unknown bits.
//
func (v Value) Eq(o Value) (Value, error) {
	def, err := v.checkArith(o, "eq")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(1), nil
	}
	return boolBit(v.cmpDefined(o, false) == 0), nil
}

// Lt returns a single-bit value: 1 if v < o as unsigned numbers, 0 if not,
// and X if either operand has floating or unknown bits.
//
func (v Value) Lt(o Value) (Value, error) {
	def, err := v.checkArith(o, "lt")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(1), nil
	}
	return boolBit(v.cmpDefined(o, false) < 0), nil
}

// Gt returns a single-bit value: 1 if v > o as unsigned numbers, 0 if not,
// and X if either operand has floating or unknown bits.
//
func (v Value) Gt(o Value) (Value, error) {
	def, err := v.checkArith(o, "gt")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(1), nil
	}
	return boolBit(v.cmpDefined(o, false) > 0), nil
}

// LtS is like Lt with two's complement comparison.
//
func (v Value) LtS(o Value) (Value, error) {
	def, err := v.checkArith(o, "lts")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(1), nil
	}
	return boolBit(v.cmpDefined(o, true) < 0), nil
}

// GtS is like Gt with two's complement comparison.
//
func (v Value) GtS(o Value) (Value, error) {
	def, err := v.checkArith(o, "gts")
	if err != nil {
		return Value{}, err
	}
	if !def {
		return X(1), nil
	}
	return boolBit(v.cmpDefined(o, true) > 0), nil
}
