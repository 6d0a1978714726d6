// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/db47h/fvsim/internal/lit"
)

// ParseLit parses a Verilog-style literal into a value:
//
//	8'hff     // 8 bits, hex
//	4'b1_0xz  // 4 bits, binary, with unknown and floating digits
//	16'd42    // 16 bits, decimal
//	13        // unsized decimal, minimal width
//
// An 'x' or 'z' digit expands to a full group of unknown or floating bits
// in bases 8 and 16. A sized literal narrower than its digits fails with
// ErrWidth (no silent truncation); a wider size zero-extends, or extends
// with the leading digit's state when that digit is x or z.
//
func ParseLit(s string) (Value, error) {
	l, err := lit.Scan(s)
	if err != nil {
		return Value{}, err
	}

	if l.Base == 10 {
		n, ok := new(big.Int).SetString(l.Digits, 10)
		if !ok {
			return Value{}, errors.Errorf("literal %q: bad decimal", s)
		}
		w := l.Width
		if w < 0 {
			w = n.BitLen()
		} else if n.BitLen() > w {
			return Value{}, errors.Wrapf(ErrWidth, "literal %q: value needs %d bits", s, n.BitLen())
		}
		return norm(w, n, new(big.Int), new(big.Int)), nil
	}

	var group int
	switch l.Base {
	case 2:
		group = 1
	case 8:
		group = 3
	case 16:
		group = 4
	}

	bits, hiz, undef := new(big.Int), new(big.Int), new(big.Int)
	shift := func(n uint) {
		bits.Lsh(bits, n)
		hiz.Lsh(hiz, n)
		undef.Lsh(undef, n)
	}
	gm := big.NewInt(1<<uint(group) - 1)
	for _, r := range l.Digits {
		shift(uint(group))
		switch r {
		case 'x':
			undef.Or(undef, gm)
		case 'z':
			hiz.Or(hiz, gm)
		default:
			var d int64
			if r <= '9' {
				d = int64(r - '0')
			} else {
				d = int64(r-'a') + 10
			}
			bits.Or(bits, big.NewInt(d))
		}
	}

	nw := len(l.Digits) * group
	w := l.Width
	if w < 0 {
		w = nw
	}
	if w < nw {
		// allow a narrower size as long as only zeros are dropped
		drop := new(big.Int).Rsh(bits, uint(w))
		dropz := new(big.Int).Rsh(hiz, uint(w))
		dropx := new(big.Int).Rsh(undef, uint(w))
		if drop.Sign() != 0 || dropz.Sign() != 0 || dropx.Sign() != 0 {
			return Value{}, errors.Wrapf(ErrWidth, "literal %q: value needs %d bits", s, nw)
		}
	} else if w > nw && nw > 0 {
		// x/z leading digit extends
		fill := bigMask(w)
		fill.AndNot(fill, bigMask(nw))
		switch {
		case undef.Bit(nw-1) != 0:
			undef.Or(undef, fill)
		case hiz.Bit(nw-1) != 0:
			hiz.Or(hiz, fill)
		}
	}
	return norm(w, bits, hiz, undef), nil
}

// MustParseLit is like ParseLit but panics on error.
//
func MustParseLit(s string) Value {
	v, err := ParseLit(s)
	if err != nil {
		panic(err)
	}
	return v
}
