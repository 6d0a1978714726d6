// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fvlib provides reusable signal operators: gates, arithmetic,
// multiplexers, registers and clock generation, built on the simulator's
// derived-signal primitive. Each constructor creates and returns a new
// output signal wired to recompute whenever an input changes.
//
package fvlib

import (
	"github.com/pkg/errors"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/logic"
)

func checkWidths(a, b *fvsim.Signal) error {
	if a.Width() != b.Width() {
		return errors.Wrapf(fvsim.ErrWidthMismatch,
			"%q (%d bits) and %q (%d bits)", a.Name(), a.Width(), b.Name(), b.Width())
	}
	return nil
}

func binary(s *fvsim.Sim, name string, a, b *fvsim.Signal, op func(x, y logic.Value) (logic.Value, error)) (*fvsim.Signal, error) {
	if err := checkWidths(a, b); err != nil {
		return nil, err
	}
	return s.Func(name, a.Width(), func() logic.Value {
		v, _ := op(a.Value(), b.Value()) // widths checked above
		return v
	}, a, b), nil
}

// Not drives a new signal with the per-bit inversion of a.
//
func Not(s *fvsim.Sim, name string, a *fvsim.Signal) *fvsim.Signal {
	return s.Func(name, a.Width(), func() logic.Value { return a.Value().Not() }, a)
}

// And drives a new signal with a & b.
//
func And(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, logic.Value.And)
}

// Or drives a new signal with a | b.
//
func Or(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, logic.Value.Or)
}

// Xor drives a new signal with a ^ b.
//
func Xor(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, logic.Value.Xor)
}

// Nand drives a new signal with ~(a & b).
//
func Nand(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, func(x, y logic.Value) (logic.Value, error) {
		v, err := x.And(y)
		return v.Not(), err
	})
}

// Nor drives a new signal with ~(a | b).
//
func Nor(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, func(x, y logic.Value) (logic.Value, error) {
		v, err := x.Or(y)
		return v.Not(), err
	})
}

// Xnor drives a new signal with ~(a ^ b).
//
func Xnor(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, func(x, y logic.Value) (logic.Value, error) {
		v, err := x.Xor(y)
		return v.Not(), err
	})
}

// Add drives a new signal with the wrapping unsigned sum a + b.
//
func Add(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, logic.Value.Add)
}

// Sub drives a new signal with the wrapping unsigned difference a - b.
//
func Sub(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	return binary(s, name, a, b, logic.Value.Sub)
}

// Eq drives a new 1-bit signal with the four-state equality of a and b.
//
func Eq(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	if err := checkWidths(a, b); err != nil {
		return nil, err
	}
	return s.Func(name, 1, func() logic.Value {
		v, _ := a.Value().Eq(b.Value())
		return v
	}, a, b), nil
}

// Lt drives a new 1-bit signal with the unsigned comparison a < b.
//
func Lt(s *fvsim.Sim, name string, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	if err := checkWidths(a, b); err != nil {
		return nil, err
	}
	return s.Func(name, 1, func() logic.Value {
		v, _ := a.Value().Lt(b.Value())
		return v
	}, a, b), nil
}

// Mux drives a new signal with a when sel is Hi and b when sel is Lo.
// An undefined select yields all-X. sel must be 1 bit wide.
//
func Mux(s *fvsim.Sim, name string, sel, a, b *fvsim.Signal) (*fvsim.Signal, error) {
	if sel.Width() != 1 {
		return nil, errors.Wrapf(fvsim.ErrWidthMismatch, "select %q is %d bits", sel.Name(), sel.Width())
	}
	if err := checkWidths(a, b); err != nil {
		return nil, err
	}
	return s.Func(name, a.Width(), func() logic.Value {
		switch sel.Value().Bit(0) {
		case logic.Hi:
			return a.Value()
		case logic.Lo:
			return b.Value()
		}
		return logic.X(a.Width())
	}, sel, a, b), nil
}

// Concat drives a new signal with the concatenation of the inputs, first
// input most significant.
//
func Concat(s *fvsim.Sim, name string, inputs ...*fvsim.Signal) *fvsim.Signal {
	w := 0
	for _, in := range inputs {
		w += in.Width()
	}
	return s.Func(name, w, func() logic.Value {
		vs := make([]logic.Value, len(inputs))
		for i, in := range inputs {
			vs[i] = in.Value()
		}
		return logic.Concat(vs...)
	}, inputs...)
}

// Register drives a new signal as a D flip-flop: on every positive edge
// of clk it captures d as it stood immediately before the edge. A
// non-nil rst is a synchronous active-high reset, also sampled pre-edge,
// loading all zeros. The register powers up all-X.
//
func Register(s *fvsim.Sim, name string, clk, d, rst *fvsim.Signal) *fvsim.Signal {
	q := s.Signal(name, d.Width())
	clk.OnChanged(func(e fvsim.Event) {
		if !e.Posedge() {
			return
		}
		if rst != nil && rst.Prev().Bit(0) == logic.Hi {
			q.Put(logic.Zero(d.Width())) //nolint:errcheck
			return
		}
		q.Put(d.Prev()) //nolint:errcheck
	})
	return q
}

// Clock drives a new 1-bit signal as a free-running clock: low at time 0,
// rising at phase and every period thereafter, with highTime units spent
// high per cycle. The generator reschedules itself forever; bound the run
// with a maximum simulated time or EndSimulation.
//
func Clock(s *fvsim.Sim, name string, phase, period, highTime uint64) (*fvsim.Signal, error) {
	if period == 0 || highTime == 0 || highTime >= period {
		return nil, errors.Errorf("clock %q: bad period %d/high %d", name, period, highTime)
	}
	clk := s.Signal(name, 1)
	if err := clk.Put(logic.Zero(1)); err != nil {
		return nil, err
	}
	var rise, fall func()
	rise = func() {
		clk.Put(logic.MustNew(1, 1)) //nolint:errcheck
		s.RegisterAction(s.Time()+highTime, fall) //nolint:errcheck
	}
	fall = func() {
		clk.Put(logic.MustNew(1, 0)) //nolint:errcheck
		s.RegisterAction(s.Time()+period-highTime, rise) //nolint:errcheck
	}
	if _, err := s.RegisterAction(phase, rise); err != nil {
		return nil, err
	}
	return clk, nil
}
