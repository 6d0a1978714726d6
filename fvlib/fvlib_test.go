// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvlib_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/fvlib"
	"github.com/db47h/fvsim/logic"
)

func put(t *testing.T, sig *fvsim.Signal, s string) {
	t.Helper()
	require.NoError(t, sig.Put(logic.MustParse(s)))
}

func TestGates(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 4)
	b := s.Signal("b", 4)

	and, err := fvlib.And(s, "and", a, b)
	require.NoError(t, err)
	or, err := fvlib.Or(s, "or", a, b)
	require.NoError(t, err)
	xor, err := fvlib.Xor(s, "xor", a, b)
	require.NoError(t, err)
	nand, err := fvlib.Nand(s, "nand", a, b)
	require.NoError(t, err)
	not := fvlib.Not(s, "not", a)

	put(t, a, "1100")
	put(t, b, "1010")
	assert.Equal(t, "1000", and.Value().String())
	assert.Equal(t, "1110", or.Value().String())
	assert.Equal(t, "0110", xor.Value().String())
	assert.Equal(t, "0111", nand.Value().String())
	assert.Equal(t, "0011", not.Value().String())

	// x & 0 = 0, x & 1 = x
	put(t, b, "xx00")
	assert.Equal(t, "1x00", and.Value().String())
}

func TestGates_width_mismatch(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 4)
	b := s.Signal("b", 8)
	_, err := fvlib.And(s, "and", a, b)
	assert.Equal(t, fvsim.ErrWidthMismatch, errors.Cause(err))
}

func TestAdder(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 8)
	b := s.Signal("b", 8)
	sum, err := fvlib.Add(s, "sum", a, b)
	require.NoError(t, err)

	require.NoError(t, a.Put(logic.MustNew(8, 200)))
	require.NoError(t, b.Put(logic.MustNew(8, 100)))
	u, ok := sum.Value().Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(44), u) // wraps mod 256

	put(t, b, "0000x000")
	assert.Equal(t, "xxxxxxxx", sum.Value().String())
}

func TestMux(t *testing.T) {
	s := fvsim.New()
	sel := s.Signal("sel", 1)
	a := s.Signal("a", 4)
	b := s.Signal("b", 4)
	y, err := fvlib.Mux(s, "y", sel, a, b)
	require.NoError(t, err)

	put(t, a, "1111")
	put(t, b, "0000")
	put(t, sel, "1")
	assert.Equal(t, "1111", y.Value().String())
	put(t, sel, "0")
	assert.Equal(t, "0000", y.Value().String())
	put(t, sel, "x")
	assert.Equal(t, "xxxx", y.Value().String())
}

func TestConcat(t *testing.T) {
	s := fvsim.New()
	hi := s.Signal("hi", 2)
	lo := s.Signal("lo", 2)
	y := fvlib.Concat(s, "y", hi, lo)

	put(t, hi, "10")
	put(t, lo, "0z")
	assert.Equal(t, "100z", y.Value().String())
}

func TestRegister(t *testing.T) {
	s := fvsim.New()
	clk, err := fvlib.Clock(s, "clk", 10, 10, 5)
	require.NoError(t, err)
	d := s.Signal("d", 4)
	rst := s.Signal("rst", 1)
	q := fvlib.Register(s, "q", clk, d, rst)

	put(t, rst, "0")
	put(t, d, "0101")
	assert.Equal(t, "xxxx", q.Value().String()) // powers up undefined

	// capture at the first edge, reset at the third
	_, err = s.RegisterAction(12, func() { d.Put(logic.MustParse("1110")) })
	require.NoError(t, err)
	_, err = s.RegisterAction(22, func() { rst.Put(logic.MustParse("1")) })
	require.NoError(t, err)
	var at10, at20, at30 string
	_, err = s.RegisterAction(11, func() { at10 = q.Value().String() })
	require.NoError(t, err)
	_, err = s.RegisterAction(21, func() { at20 = q.Value().String() })
	require.NoError(t, err)
	_, err = s.RegisterAction(31, func() { at30 = q.Value().String() })
	require.NoError(t, err)

	s.SetMaxTime(40)
	require.NoError(t, s.Run())
	assert.Equal(t, "0101", at10)
	assert.Equal(t, "1110", at20)
	assert.Equal(t, "0000", at30)
}

func TestRegister_ignores_same_edge_injection(t *testing.T) {
	s := fvsim.New()
	clk := s.Signal("clk", 1)
	d := s.Signal("d", 4)
	q := fvlib.Register(s, "q", clk, d, nil)
	put(t, clk, "0")
	put(t, d, "0011")

	_, err := s.RegisterAction(10, func() {
		clk.Put(logic.MustNew(1, 1)) //nolint:errcheck
		d.Inject(logic.MustParse("1100")) //nolint:errcheck
	})
	require.NoError(t, err)
	require.NoError(t, s.Run())
	assert.Equal(t, "0011", q.Value().String())
}

func TestClock_period(t *testing.T) {
	s := fvsim.New(fvsim.WithMaxTime(100))
	clk, err := fvlib.Clock(s, "clk", 0, 20, 10)
	require.NoError(t, err)

	var edges []uint64
	clk.OnChanged(func(e fvsim.Event) {
		if e.Posedge() {
			edges = append(edges, e.Time)
		}
	})
	require.NoError(t, s.Run())
	assert.Equal(t, []uint64{0, 20, 40, 60, 80, 100}, edges)

	_, err = fvlib.Clock(s, "bad", 0, 10, 10)
	assert.Error(t, err)
}
