// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lit scans Verilog-style sized literals like 8'hff, 4'b1_0xz or
// 16'd42 into their size, base and digit parts.
//
package lit

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// A Lit is a scanned literal. Width is -1 when the literal carries no size
// prefix. Digits is the cleaned digit string (lower case, underscores
// removed) and may contain 'x' and 'z' digits for bases 2, 8 and 16.
//
type Lit struct {
	Width  int
	Base   int
	Digits string
}

// Scan scans a literal of the form [size]'[base]digits, or a plain
// unsized decimal number.
//
func Scan(s string) (Lit, error) {
	in := s
	q := strings.IndexRune(s, '\'')
	if q < 0 {
		d, err := digits(s, 10, in)
		if err != nil {
			return Lit{}, err
		}
		return Lit{Width: -1, Base: 10, Digits: d}, nil
	}

	width := -1
	if q > 0 {
		w := 0
		for _, r := range s[:q] {
			if r < '0' || r > '9' {
				return Lit{}, errors.Errorf("literal %q: invalid size", in)
			}
			w = w*10 + int(r-'0')
		}
		width = w
	}
	s = s[q+1:]
	if s == "" {
		return Lit{}, errors.Errorf("literal %q: missing base", in)
	}
	var base int
	switch unicode.ToLower(rune(s[0])) {
	case 'b':
		base = 2
	case 'o':
		base = 8
	case 'd':
		base = 10
	case 'h':
		base = 16
	default:
		return Lit{}, errors.Errorf("literal %q: invalid base %q", in, s[0])
	}
	d, err := digits(s[1:], base, in)
	if err != nil {
		return Lit{}, err
	}
	return Lit{Width: width, Base: base, Digits: d}, nil
}

func digits(s string, base int, in string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r == '_' {
			continue
		}
		r = unicode.ToLower(r)
		if !digitOK(r, base) {
			return "", errors.Errorf("literal %q: invalid digit %q for base %d", in, r, base)
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "", errors.Errorf("literal %q: missing digits", in)
	}
	return b.String(), nil
}

func digitOK(r rune, base int) bool {
	if (r == 'x' || r == 'z') && base != 10 {
		return true
	}
	switch {
	case '0' <= r && r <= '9':
		return int(r-'0') < base
	case 'a' <= r && r <= 'f':
		return base == 16
	}
	return false
}
