// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds reported by Value operations.
//
var (
	// ErrWidth reports an impossible width request: negative width, a
	// constructor magnitude that does not fit the requested width, or an
	// extension to a smaller width.
	ErrWidth = errors.New("width error")
	// ErrWidthMismatch reports an operation on two values of incompatible
	// widths.
	ErrWidthMismatch = errors.New("width mismatch")
)

// wordWidth is the widest value held in packed uint64 planes. Wider values
// use big.Int planes. The representation is keyed on width only, so equal
// width values always share a representation.
const wordWidth = 64

// A Value is an immutable four-valued bit vector of fixed width.
//
// Each bit position holds one of the four Bit states. Operations never
// mutate their operands; they return fresh values. The zero Value is the
// empty (width 0) vector.
//
// Internally a Value keeps three bit planes (value, floating, unknown),
// packed in single machine words up to width 64 and in big.Int planes
// beyond. Both representations behave identically.
//
type Value struct {
	width int

	// packed planes, valid when width <= wordWidth
	bits  uint64
	hiz   uint64
	undef uint64

	// wide planes, valid when width > wordWidth
	wbits  *big.Int
	whiz   *big.Int
	wundef *big.Int
}

func (v Value) isWide() bool { return v.width > wordWidth }

func mask64(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

func bigMask(w int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(w))
	return m.Sub(m, big.NewInt(1))
}

// small builds a canonical packed value: planes are masked to the width and
// the value plane is cleared wherever the bit is floating or unknown.
//
func small(w int, bits, hiz, undef uint64) Value {
	m := mask64(w)
	hiz &= m
	undef &= m
	// unknown wins over floating
	hiz &^= undef
	bits &= m &^ (hiz | undef)
	return Value{width: w, bits: bits, hiz: hiz, undef: undef}
}

// wide builds a canonical wide value. It takes ownership of its plane
// arguments.
//
func wide(w int, bits, hiz, undef *big.Int) Value {
	m := bigMask(w)
	hiz.And(hiz, m)
	undef.And(undef, m)
	hiz.AndNot(hiz, undef)
	bits.And(bits, m)
	bits.AndNot(bits, hiz)
	bits.AndNot(bits, undef)
	return Value{width: w, wbits: bits, whiz: hiz, wundef: undef}
}

// norm builds a canonical value of width w from big.Int planes, picking the
// packed representation when the width allows it. It takes ownership of its
// plane arguments.
//
func norm(w int, bits, hiz, undef *big.Int) Value {
	if w > wordWidth {
		return wide(w, bits, hiz, undef)
	}
	return small(w, bits.Uint64(), hiz.Uint64(), undef.Uint64())
}

// planes returns copies of the three bit planes of v as big integers,
// regardless of representation.
//
func (v Value) planes() (bits, hiz, undef *big.Int) {
	if v.isWide() {
		return new(big.Int).Set(v.wbits), new(big.Int).Set(v.whiz), new(big.Int).Set(v.wundef)
	}
	return new(big.Int).SetUint64(v.bits), new(big.Int).SetUint64(v.hiz), new(big.Int).SetUint64(v.undef)
}

// New returns a fully defined value of the given width holding x.
// It fails with ErrWidth if x does not fit in width bits.
//
func New(width int, x uint64) (Value, error) {
	if width < 0 {
		return Value{}, errors.Wrapf(ErrWidth, "negative width %d", width)
	}
	if width < 64 && x > mask64(width) {
		return Value{}, errors.Wrapf(ErrWidth, "value %d does not fit in %d bits", x, width)
	}
	if width > wordWidth {
		return wide(width, new(big.Int).SetUint64(x), new(big.Int), new(big.Int)), nil
	}
	return small(width, x, 0, 0), nil
}

// FromBig returns a fully defined value of the given width holding x.
// Negative x is encoded in two's complement. It fails with ErrWidth if x
// does not fit in width bits (signed fit for negative x).
//
func FromBig(width int, x *big.Int) (Value, error) {
	if width < 0 {
		return Value{}, errors.Wrapf(ErrWidth, "negative width %d", width)
	}
	if x.Sign() >= 0 {
		if x.BitLen() > width {
			return Value{}, errors.Wrapf(ErrWidth, "value %s does not fit in %d bits", x, width)
		}
		return norm(width, new(big.Int).Set(x), new(big.Int), new(big.Int)), nil
	}
	if width == 0 {
		return Value{}, errors.Wrapf(ErrWidth, "value %s does not fit in 0 bits", x)
	}
	// two's complement: need -2^(width-1) <= x
	min := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	min.Neg(min)
	if x.Cmp(min) < 0 {
		return Value{}, errors.Wrapf(ErrWidth, "value %s does not fit in %d bits", x, width)
	}
	enc := new(big.Int).Lsh(big.NewInt(1), uint(width))
	enc.Add(enc, x)
	return norm(width, enc, new(big.Int), new(big.Int)), nil
}

// MustNew is like New but panics on error. Intended for constants and
// tests.
//
func MustNew(width int, x uint64) Value {
	v, err := New(width, x)
	if err != nil {
		panic(err)
	}
	return v
}

// Filled returns a value of the given width with every bit set to b.
// Filled panics if width is negative.
//
func Filled(width int, b Bit) Value {
	if width < 0 {
		panic("logic: negative width")
	}
	var bits, hiz, undef uint64
	switch b {
	case Hi:
		bits = ^uint64(0)
	case HiZ:
		hiz = ^uint64(0)
	case Undefined:
		undef = ^uint64(0)
	}
	if width <= wordWidth {
		return small(width, bits, hiz, undef)
	}
	m := bigMask(width)
	w := Value{width: width, wbits: new(big.Int), whiz: new(big.Int), wundef: new(big.Int)}
	switch b {
	case Hi:
		w.wbits.Set(m)
	case HiZ:
		w.whiz.Set(m)
	case Undefined:
		w.wundef.Set(m)
	}
	return w
}

// Zero returns an all-0 value of the given width.
//
func Zero(width int) Value { return Filled(width, Lo) }

// Ones returns an all-1 value of the given width.
//
func Ones(width int) Value { return Filled(width, Hi) }

// X returns an all-unknown value of the given width.
//
func X(width int) Value { return Filled(width, Undefined) }

// Z returns an all-floating value of the given width.
//
func Z(width int) Value { return Filled(width, HiZ) }

// Parse parses a string of the characters '0', '1', 'x' and 'z', most
// significant bit first, into a value of width len(s). The empty string
// parses to the width 0 value. Underscores are ignored.
//
func Parse(s string) (Value, error) {
	rs := make([]Bit, 0, len(s))
	for _, r := range s {
		if r == '_' {
			continue
		}
		b, ok := BitFromRune(r)
		if !ok {
			return Value{}, errors.Errorf("invalid bit character %q in %q", r, s)
		}
		rs = append(rs, b)
	}
	w := len(rs)
	bits, hiz, undef := new(big.Int), new(big.Int), new(big.Int)
	for i, b := range rs {
		pos := w - 1 - i
		switch b {
		case Hi:
			bits.SetBit(bits, pos, 1)
		case HiZ:
			hiz.SetBit(hiz, pos, 1)
		case Undefined:
			undef.SetBit(undef, pos, 1)
		}
	}
	return norm(w, bits, hiz, undef), nil
}

// MustParse is like Parse but panics on error. Intended for constants and
// tests.
//
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Width returns the number of bits in v.
//
func (v Value) Width() int { return v.width }

// Bit returns the state of bit i (bit 0 is the least significant).
// Bit panics if i is out of range.
//
func (v Value) Bit(i int) Bit {
	if i < 0 || i >= v.width {
		panic("logic: bit index out of range")
	}
	if v.isWide() {
		switch {
		case v.wundef.Bit(i) != 0:
			return Undefined
		case v.whiz.Bit(i) != 0:
			return HiZ
		case v.wbits.Bit(i) != 0:
			return Hi
		}
		return Lo
	}
	m := uint64(1) << uint(i)
	switch {
	case v.undef&m != 0:
		return Undefined
	case v.hiz&m != 0:
		return HiZ
	case v.bits&m != 0:
		return Hi
	}
	return Lo
}

// IsDefined returns true if no bit of v is floating or unknown.
//
func (v Value) IsDefined() bool {
	if v.isWide() {
		return v.whiz.Sign() == 0 && v.wundef.Sign() == 0
	}
	return v.hiz == 0 && v.undef == 0
}

// Uint64 returns the numeric value of v. ok is false if v has floating or
// unknown bits, or if the value does not fit in 64 bits.
//
func (v Value) Uint64() (x uint64, ok bool) {
	if !v.IsDefined() {
		return 0, false
	}
	if v.isWide() {
		if v.wbits.BitLen() > 64 {
			return 0, false
		}
		return v.wbits.Uint64(), true
	}
	return v.bits, true
}

// Big returns the numeric value of v as a big integer. ok is false if v has
// floating or unknown bits.
//
func (v Value) Big() (x *big.Int, ok bool) {
	if !v.IsDefined() {
		return nil, false
	}
	if v.isWide() {
		return new(big.Int).Set(v.wbits), true
	}
	return new(big.Int).SetUint64(v.bits), true
}

// Equal reports exact four-state equality of v and o, including width.
// Unlike Eq, unknown compares equal to unknown.
//
func (v Value) Equal(o Value) bool {
	if v.width != o.width {
		return false
	}
	if v.isWide() {
		return v.wbits.Cmp(o.wbits) == 0 && v.whiz.Cmp(o.whiz) == 0 && v.wundef.Cmp(o.wundef) == 0
	}
	return v.bits == o.bits && v.hiz == o.hiz && v.undef == o.undef
}

// String returns v as a string of the characters '0', '1', 'x' and 'z',
// most significant bit first. It round-trips with Parse.
//
func (v Value) String() string {
	var b strings.Builder
	b.Grow(v.width)
	for i := v.width - 1; i >= 0; i-- {
		b.WriteRune(v.Bit(i).Rune())
	}
	return b.String()
}

// Resolve combines v and o per-bit as two drivers of the same net: a
// floating bit yields to a definite one, agreeing bits win, disagreeing
// definite bits resolve to Undefined (contention).
// It fails with ErrWidthMismatch unless widths match exactly.
//
func (v Value) Resolve(o Value) (Value, error) {
	if v.width != o.width {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "resolve: %d != %d", v.width, o.width)
	}
	bits, hiz, undef := new(big.Int), new(big.Int), new(big.Int)
	for i := 0; i < v.width; i++ {
		switch v.Bit(i).Combine(o.Bit(i)) {
		case Hi:
			bits.SetBit(bits, i, 1)
		case HiZ:
			hiz.SetBit(hiz, i, 1)
		case Undefined:
			undef.SetBit(undef, i, 1)
		}
	}
	return norm(v.width, bits, hiz, undef), nil
}

// And returns the per-bit four-valued conjunction of v and o.
// It fails with ErrWidthMismatch unless widths match exactly.
//
func (v Value) And(o Value) (Value, error) {
	if v.width != o.width {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "and: %d != %d", v.width, o.width)
	}
	m := mask64(v.width)
	if !v.isWide() {
		a0 := m &^ (v.bits | v.hiz | v.undef) // definite 0
		b0 := m &^ (o.bits | o.hiz | o.undef)
		r0 := a0 | b0
		r1 := v.bits & o.bits
		return small(v.width, r1, 0, m&^(r0|r1)), nil
	}
	vb, vz, vx := v.planes()
	ob, oz, ox := o.planes()
	bm := bigMask(v.width)
	a0 := new(big.Int).Or(vb, vz)
	a0.Or(a0, vx)
	a0.AndNot(bm, a0)
	b0 := new(big.Int).Or(ob, oz)
	b0.Or(b0, ox)
	b0.AndNot(bm, b0)
	r0 := a0.Or(a0, b0)
	r1 := vb.And(vb, ob)
	rx := new(big.Int).Or(r0, r1)
	rx.AndNot(bm, rx)
	return wide(v.width, r1, new(big.Int), rx), nil
}

// Or returns the per-bit four-valued disjunction of v and o.
// It fails with ErrWidthMismatch unless widths match exactly.
//
func (v Value) Or(o Value) (Value, error) {
	if v.width != o.width {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "or: %d != %d", v.width, o.width)
	}
	m := mask64(v.width)
	if !v.isWide() {
		a0 := m &^ (v.bits | v.hiz | v.undef)
		b0 := m &^ (o.bits | o.hiz | o.undef)
		r1 := v.bits | o.bits
		r0 := a0 & b0
		return small(v.width, r1, 0, m&^(r0|r1)), nil
	}
	vb, vz, vx := v.planes()
	ob, oz, ox := o.planes()
	bm := bigMask(v.width)
	a0 := new(big.Int).Or(vz, vx)
	a0.Or(a0, vb)
	a0.AndNot(bm, a0)
	b0 := new(big.Int).Or(oz, ox)
	b0.Or(b0, ob)
	b0.AndNot(bm, b0)
	r1 := vb.Or(vb, ob)
	r0 := a0.And(a0, b0)
	rx := new(big.Int).Or(r0, r1)
	rx.AndNot(bm, rx)
	return wide(v.width, r1, new(big.Int), rx), nil
}

// Xor returns the per-bit four-valued exclusive or of v and o. Any
// floating or unknown operand bit yields an unknown result bit.
// It fails with ErrWidthMismatch unless widths match exactly.
//
func (v Value) Xor(o Value) (Value, error) {
	if v.width != o.width {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "xor: %d != %d", v.width, o.width)
	}
	m := mask64(v.width)
	if !v.isWide() {
		def := m &^ (v.hiz | v.undef | o.hiz | o.undef)
		return small(v.width, (v.bits^o.bits)&def, 0, m&^def), nil
	}
	vb, vz, vx := v.planes()
	ob, oz, ox := o.planes()
	bm := bigMask(v.width)
	bad := new(big.Int).Or(vz, vx)
	bad.Or(bad, oz)
	bad.Or(bad, ox)
	def := new(big.Int).AndNot(bm, bad)
	r1 := vb.Xor(vb, ob)
	r1.And(r1, def)
	return wide(v.width, r1, new(big.Int), bad), nil
}

// Not returns the per-bit complement of v. Floating and unknown bits
// complement to unknown.
//
func (v Value) Not() Value {
	m := mask64(v.width)
	if !v.isWide() {
		def := m &^ (v.hiz | v.undef)
		return small(v.width, ^v.bits&def, 0, m&^def)
	}
	vb, vz, vx := v.planes()
	bm := bigMask(v.width)
	bad := vz.Or(vz, vx)
	def := new(big.Int).AndNot(bm, bad)
	r1 := vb.Not(vb)
	r1.And(r1, def)
	return wide(v.width, r1, new(big.Int), bad)
}
