// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logic implements four-valued bit and bit-vector values.
//
// A bit is one of Lo, Hi, HiZ (floating) or Undefined (unknown). A Value is
// an immutable vector of such bits of fixed width. Values round-trip with
// strings of the characters '0', '1', 'z' and 'x', most significant bit
// first.
//
package logic

// A Bit is a single four-valued logic state.
//
type Bit uint8

// Bit states.
//
const (
	Lo Bit = iota
	Hi
	HiZ
	Undefined
)

// Rune returns the character representation of b: '0', '1', 'z' or 'x'.
//
func (b Bit) Rune() rune {
	switch b {
	case Lo:
		return '0'
	case Hi:
		return '1'
	case HiZ:
		return 'z'
	}
	return 'x'
}

// BitFromRune returns the Bit for the characters '0', '1', 'z', 'Z', 'x'
// and 'X'. ok is false for any other character.
//
func BitFromRune(r rune) (b Bit, ok bool) {
	switch r {
	case '0':
		return Lo, true
	case '1':
		return Hi, true
	case 'z', 'Z':
		return HiZ, true
	case 'x', 'X':
		return Undefined, true
	}
	return Undefined, false
}

// IsDefined returns true if b is Lo or Hi.
//
func (b Bit) IsDefined() bool {
	return b == Lo || b == Hi
}

// Invert returns the logical complement of b. HiZ and Undefined invert to
// Undefined.
//
func (b Bit) Invert() Bit {
	switch b {
	case Lo:
		return Hi
	case Hi:
		return Lo
	}
	return Undefined
}

// Combine resolves b and o as two drivers of the same net bit: a floating
// driver yields to a definite one, agreeing drivers win, and anything else
// is contention, i.e. Undefined.
//
func (b Bit) Combine(o Bit) Bit {
	switch {
	case b == o:
		return b
	case b == Undefined || o == Undefined:
		return Undefined
	case b == HiZ:
		return o
	case o == HiZ:
		return b
	}
	// two definite drivers disagreeing
	return Undefined
}

// And returns the four-valued conjunction of b and o. A definite Lo forces
// the result Lo even when the other operand is HiZ or Undefined.
//
func (b Bit) And(o Bit) Bit {
	if b == Lo || o == Lo {
		return Lo
	}
	if b == Hi && o == Hi {
		return Hi
	}
	return Undefined
}

// Or returns the four-valued disjunction of b and o. A definite Hi forces
// the result Hi.
//
func (b Bit) Or(o Bit) Bit {
	if b == Hi || o == Hi {
		return Hi
	}
	if b == Lo && o == Lo {
		return Lo
	}
	return Undefined
}

// Xor returns the four-valued exclusive or of b and o. The result is
// Undefined unless both operands are definite.
//
func (b Bit) Xor(o Bit) Bit {
	if !b.IsDefined() || !o.IsDefined() {
		return Undefined
	}
	if b == o {
		return Lo
	}
	return Hi
}
