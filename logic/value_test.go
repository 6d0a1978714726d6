// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/db47h/fvsim/logic"
)

func TestParse_roundTrip(t *testing.T) {
	td := []string{
		"",
		"0",
		"1",
		"x",
		"z",
		"01xz",
		"1100",
		"zzzz",
		"xxxx",
		"10x1z01x",
		strings.Repeat("10xz", 18), // 72 bits, wide representation
		strings.Repeat("1", 64),
		strings.Repeat("z", 65),
	}
	for _, s := range td {
		v, err := logic.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if v.Width() != len(s) {
			t.Errorf("Parse(%q).Width() = %d", s, v.Width())
		}
		if got := v.String(); got != s {
			t.Errorf("Parse(%q).String() = %q", s, got)
		}
	}
}

func TestParse_invalid(t *testing.T) {
	if _, err := logic.Parse("01a0"); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestNew_widthCheck(t *testing.T) {
	if _, err := logic.New(4, 16); errors.Cause(err) != logic.ErrWidth {
		t.Errorf("New(4, 16): got %v, want ErrWidth", err)
	}
	if _, err := logic.New(-1, 0); errors.Cause(err) != logic.ErrWidth {
		t.Error("New(-1, 0): want ErrWidth")
	}
	v, err := logic.New(4, 15)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "1111" {
		t.Errorf("New(4, 15) = %s", v)
	}
	// 64-bit boundary
	if _, err = logic.New(64, ^uint64(0)); err != nil {
		t.Errorf("New(64, max): %v", err)
	}
}

func TestFromBig(t *testing.T) {
	big1 := new(big.Int).Lsh(big.NewInt(1), 80)
	v, err := logic.FromBig(81, big1)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.Big(); !ok || got.Cmp(big1) != 0 {
		t.Errorf("FromBig(81, 2^80) round-trip = %v, %v", got, ok)
	}
	if _, err = logic.FromBig(80, big1); errors.Cause(err) != logic.ErrWidth {
		t.Error("FromBig(80, 2^80): want ErrWidth")
	}
	// negative values encode as two's complement
	v, err = logic.FromBig(4, big.NewInt(-1))
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "1111" {
		t.Errorf("FromBig(4, -1) = %s", v)
	}
	if _, err = logic.FromBig(4, big.NewInt(-9)); errors.Cause(err) != logic.ErrWidth {
		t.Error("FromBig(4, -9): want ErrWidth")
	}
}

func TestFilled(t *testing.T) {
	td := []struct {
		w    int
		b    logic.Bit
		want string
	}{
		{0, logic.Hi, ""},
		{3, logic.Lo, "000"},
		{3, logic.Hi, "111"},
		{2, logic.HiZ, "zz"},
		{4, logic.Undefined, "xxxx"},
		{66, logic.Undefined, strings.Repeat("x", 66)},
	}
	for _, tt := range td {
		if got := logic.Filled(tt.w, tt.b).String(); got != tt.want {
			t.Errorf("Filled(%d, %v) = %q, want %q", tt.w, tt.b, got, tt.want)
		}
	}
}

func TestValue_Bit(t *testing.T) {
	v := logic.MustParse("01xz")
	td := []struct {
		i    int
		want logic.Bit
	}{
		{0, logic.HiZ},
		{1, logic.Undefined},
		{2, logic.Hi},
		{3, logic.Lo},
	}
	for _, tt := range td {
		if got := v.Bit(tt.i); got != tt.want {
			t.Errorf("Bit(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestValue_bitwise(t *testing.T) {
	td := []struct {
		op      string
		a, b, z string
	}{
		{"and", "01xz01xz", "00001111", "0000" + "01xx"},
		{"and", "0x", "00", "00"},
		{"or", "01xz01xz", "00001111", "01xx" + "1111"},
		{"xor", "01xz01xz", "00001111", "01xx" + "10xx"},
	}
	for _, tt := range td {
		a, b := logic.MustParse(tt.a), logic.MustParse(tt.b)
		var (
			got logic.Value
			err error
		)
		switch tt.op {
		case "and":
			got, err = a.And(b)
		case "or":
			got, err = a.Or(b)
		case "xor":
			got, err = a.Xor(b)
		}
		if err != nil {
			t.Fatalf("%s(%q, %q): %v", tt.op, tt.a, tt.b, err)
		}
		if got.String() != tt.z {
			t.Errorf("%s(%q, %q) = %q, want %q", tt.op, tt.a, tt.b, got, tt.z)
		}
	}
}

func TestValue_bitwise_wide(t *testing.T) {
	a := logic.MustParse(strings.Repeat("01xz01xz", 10)) // 80 bits
	b := logic.MustParse(strings.Repeat("00001111", 10))
	and, err := a.And(b)
	if err != nil {
		t.Fatal(err)
	}
	if want := strings.Repeat("000001xx", 10); and.String() != want {
		t.Errorf("wide and = %q, want %q", and, want)
	}
	not := a.Not()
	if want := strings.Repeat("10xx10xx", 10); not.String() != want {
		t.Errorf("wide not = %q, want %q", not, want)
	}
}

func TestValue_widthMismatch(t *testing.T) {
	a, b := logic.MustParse("0101"), logic.MustParse("01")
	if _, err := a.And(b); errors.Cause(err) != logic.ErrWidthMismatch {
		t.Errorf("And width mismatch: got %v", err)
	}
	if _, err := a.Add(b); errors.Cause(err) != logic.ErrWidthMismatch {
		t.Errorf("Add width mismatch: got %v", err)
	}
	if _, err := a.Eq(b); errors.Cause(err) != logic.ErrWidthMismatch {
		t.Errorf("Eq width mismatch: got %v", err)
	}
}

func TestValue_Not(t *testing.T) {
	v := logic.MustParse("01xz")
	if got := v.Not().String(); got != "10xx" {
		t.Errorf("Not(01xz) = %q", got)
	}
}

func TestValue_Resolve(t *testing.T) {
	td := []struct {
		a, b, want string
	}{
		{"1100", "0011", "xxxx"}, // contention on every bit
		{"1100", "zzzz", "1100"}, // floating driver yields
		{"11zz", "zz00", "1100"},
		{"1111", "1111", "1111"},
		{"zzzz", "zzzz", "zzzz"},
		{"x10z", "z10z", "x10z"},
		{"110z", "z00z", "1x0z"},
	}
	for _, tt := range td {
		a, b := logic.MustParse(tt.a), logic.MustParse(tt.b)
		got, err := a.Resolve(b)
		if err != nil {
			t.Fatal(err)
		}
		if got.String() != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	a := logic.MustParse("01xz")
	if !a.Equal(logic.MustParse("01xz")) {
		t.Error("Equal: identical values differ")
	}
	if a.Equal(logic.MustParse("01xx")) {
		t.Error("Equal: x == z")
	}
	if a.Equal(logic.MustParse("1xz")) {
		t.Error("Equal: width ignored")
	}
}

func TestValue_Uint64(t *testing.T) {
	if x, ok := logic.MustParse("1010").Uint64(); !ok || x != 10 {
		t.Errorf("Uint64(1010) = %d, %v", x, ok)
	}
	if _, ok := logic.MustParse("10x0").Uint64(); ok {
		t.Error("Uint64 defined for x value")
	}
	wideOne, err := logic.MustNew(64, 1).ZeroExtend(100)
	if err != nil {
		t.Fatal(err)
	}
	if x, ok := wideOne.Uint64(); !ok || x != 1 {
		t.Errorf("Uint64(wide 1) = %d, %v", x, ok)
	}
}
