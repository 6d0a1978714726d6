// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvsim

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/fvsim/logic"
)

// signal kinds. A closed set: plain wire, resolved net, structured bundle
// and homogeneous array.
//
type kind uint8

const (
	kindWire kind = iota
	kindNet
	kindBundle
	kindArray
)

// A drive computes one driving value for a signal. Plain wires have at
// most one, nets any number.
//
type drive struct {
	fn func() logic.Value
}

// A Signal is a named carrier of a four-valued value in a simulator's
// signal graph. Signals are created through the Sim construction API and
// are never destroyed; the graph topology is static once built.
//
// The graph may contain cycles (combinational feedback). Propagation stops
// when values stop changing; a combinational loop that does not converge
// is forced to all-X after a bounded number of recomputations within one
// settlement window.
//
type Signal struct {
	sim    *Sim
	id     int
	name   string
	locked bool
	width  int
	kind   kind

	val logic.Value // current value, updated through the propagation protocol

	// settlement bookkeeping
	settled   logic.Value // value at the start of the current settlement window
	prev      logic.Value // value before the most recent settlement that changed it
	prevSeq   uint64      // window sequence of that settlement
	inWindow  bool
	recomputes int // per-window recompute count, bounds combinational loops

	drives []*drive  // driving sources (resolved for nets)
	deps   []*Signal // downstream signals to recompute on change

	parent   *Signal
	offset   int // bit offset of this signal within parent
	children []*Signal

	glitch  subList
	changed subList
}

// ID returns the signal's stable arena index within its simulator.
//
func (sig *Signal) ID() int { return sig.id }

// Name returns the signal's name.
//
func (sig *Signal) Name() string { return sig.name }

// SetName renames the signal. It fails with ErrLocked once the graph has
// been locked.
//
func (sig *Signal) SetName(name string) error {
	if sig.locked {
		return errors.Wrap(ErrLocked, sig.name)
	}
	sig.name = name
	return nil
}

// Width returns the signal's width in bits.
//
func (sig *Signal) Width() int { return sig.width }

// IsNet reports whether the signal is a resolved multi-driver net.
//
func (sig *Signal) IsNet() bool { return sig.kind == kindNet }

// Value returns the signal's current value.
//
func (sig *Signal) Value() logic.Value { return sig.val }

// Prev returns the value the signal held immediately before the current
// settlement window: during a changed handler, the pre-settlement value;
// outside of one, the current value. Clocked elements use Prev to sample
// their data inputs as they stood just before a clock edge.
//
func (sig *Signal) Prev() logic.Value {
	if sig.prevSeq == sig.sim.windowSeq {
		return sig.prev
	}
	return sig.val
}

// Elem returns child i of a bundle or array signal.
// Elem panics if the signal has no children or i is out of range.
//
func (sig *Signal) Elem(i int) *Signal {
	if i < 0 || i >= len(sig.children) {
		panic("fvsim: element index out of range")
	}
	return sig.children[i]
}

// Elems returns the signal's children, least significant first, or nil
// for scalar signals.
//
func (sig *Signal) Elems() []*Signal {
	return append([]*Signal(nil), sig.children...)
}

// Put sets the signal's value. The update propagates synchronously through
// the dependency graph as part of the current evaluation context: called
// from within a scheduled action or event handler it extends the current
// delta cycle; called while the simulator is idle it propagates and
// settles immediately. It fails with ErrWidthMismatch if the value width
// differs from the signal width.
//
func (sig *Signal) Put(v logic.Value) error {
	if v.Width() != sig.width {
		return errors.Wrapf(ErrWidthMismatch, "put %d bits on %q (%d bits)", v.Width(), sig.name, sig.width)
	}
	sig.sim.put(sig, v)
	return nil
}

// Inject sets the signal's value out of band, as testbench stimulus. The
// update is applied in the next delta cycle at the current simulated time,
// after all actions already queued for this cycle, so that an injection
// can race a clock edge deterministically. While the simulator is idle,
// Inject is equivalent to Put.
// It fails with ErrWidthMismatch if the value width differs.
//
func (sig *Signal) Inject(v logic.Value) error {
	if v.Width() != sig.width {
		return errors.Wrapf(ErrWidthMismatch, "inject %d bits on %q (%d bits)", v.Width(), sig.name, sig.width)
	}
	s := sig.sim
	if !s.dispatching() {
		s.put(sig, v)
		return nil
	}
	s.nextDelta = append(s.nextDelta, func() { s.put(sig, v) })
	return nil
}

// Gets establishes a continuous assignment: the signal permanently follows
// src, recomputing whenever src changes. Chains of assignments propagate
// transitively in one pass. A plain wire accepts a single driver; nets
// accept any number, resolved per-bit.
//
func (sig *Signal) Gets(src *Signal) error {
	if src.width != sig.width {
		return errors.Wrapf(ErrWidthMismatch, "%q (%d bits) gets %q (%d bits)", sig.name, sig.width, src.name, src.width)
	}
	return sig.drive(&drive{fn: func() logic.Value { return src.val }}, src)
}

// Drive connects a derived driver: sig recomputes fn whenever any of the
// input signals changes. fn must return a value of sig's width. A plain
// wire accepts a single driver; nets accept any number, resolved per-bit.
//
func (sig *Signal) Drive(fn func() logic.Value, inputs ...*Signal) error {
	return sig.drive(&drive{fn: fn}, inputs...)
}

// drive connects d as a driving source of sig, depending on the given
// input signals, and computes the initial value.
//
func (sig *Signal) drive(d *drive, inputs ...*Signal) error {
	switch sig.kind {
	case kindBundle, kindArray:
		return errors.Wrapf(ErrDriven, "%q: aggregate signals are driven through their elements", sig.name)
	case kindWire:
		if len(sig.drives) > 0 {
			return errors.Wrap(ErrDriven, sig.name)
		}
	}
	sig.drives = append(sig.drives, d)
	for _, in := range inputs {
		in.deps = append(in.deps, sig)
	}
	sig.sim.recompute(sig)
	sig.sim.settleIdle()
	return nil
}

// resolveValue recomputes the signal's value from its driving sources.
//
func (sig *Signal) resolveValue() logic.Value {
	switch sig.kind {
	case kindNet:
		v := logic.Z(sig.width)
		for _, d := range sig.drives {
			v, _ = v.Resolve(d.fn()) // widths checked at connection time
		}
		return v
	case kindBundle, kindArray:
		vs := make([]logic.Value, len(sig.children))
		for i, c := range sig.children {
			// children are stored least significant first
			vs[len(vs)-1-i] = c.val
		}
		return logic.Concat(vs...)
	default:
		if len(sig.drives) > 0 {
			return sig.drives[0].fn()
		}
		return sig.val
	}
}

// busName returns the conventional name of element i of a bus.
//
func busName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}
