// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package cond evaluates ordered lists of conditional assignment
// statements (if/case trees) against a snapshot of a signal graph, the
// way a synthesizer reads an always block.
//
// A Block evaluates in one of two modes. In Direct mode, statements
// execute in order against a mutable working set and reading a signal
// that an earlier statement in the same pass has written fails with a
// HazardError: the block is using a value before all writes to it are
// meant to be visible. In Staged mode, every read is explicit about
// whether it means the value before the block (Read) or the most recent
// in-block write (StagedRead), so the same data flow evaluates without
// ambiguity.
//
package cond

import (
	"github.com/pkg/errors"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/logic"
)

// Mode selects how a Block resolves in-block reads.
//
type Mode uint8

const (
	// Direct: reads see pre-block values; reading an in-block-written
	// signal is a hazard.
	Direct Mode = iota
	// Staged: Read means pre-block value, StagedRead means the most
	// recent in-block write.
	Staged
)

// A HazardError reports a direct-mode read of a signal already written
// by an earlier statement in the same evaluation pass.
//
type HazardError struct {
	Signal string
}

func (e *HazardError) Error() string {
	return "write-after-read hazard on signal " + e.Signal
}

// env is one evaluation pass: a read snapshot plus the working set of
// in-block writes.
//
type env struct {
	mode Mode
	read func(*fvsim.Signal) logic.Value
	vals map[*fvsim.Signal]logic.Value // in-block writes
}

func (ev *env) written(sig *fvsim.Signal) bool {
	_, ok := ev.vals[sig]
	return ok
}

// An Expr computes a value from the evaluation pass.
//
type Expr interface {
	eval(*env) (logic.Value, error)
	// walk visits every signal the expression reads
	walk(func(*fvsim.Signal))
}

type constExpr struct{ v logic.Value }

func (e constExpr) eval(*env) (logic.Value, error) { return e.v, nil }
func (e constExpr) walk(func(*fvsim.Signal))       {}

// Const is a constant expression.
//
func Const(v logic.Value) Expr { return constExpr{v} }

type readExpr struct{ sig *fvsim.Signal }

func (e readExpr) eval(ev *env) (logic.Value, error) {
	if ev.mode == Direct && ev.written(e.sig) {
		return logic.Value{}, &HazardError{Signal: e.sig.Name()}
	}
	return ev.read(e.sig), nil
}
func (e readExpr) walk(fn func(*fvsim.Signal)) { fn(e.sig) }

// Read is the value sig held before the block began.
//
func Read(sig *fvsim.Signal) Expr { return readExpr{sig} }

type stagedExpr struct{ sig *fvsim.Signal }

func (e stagedExpr) eval(ev *env) (logic.Value, error) {
	if ev.mode == Direct && ev.written(e.sig) {
		return logic.Value{}, &HazardError{Signal: e.sig.Name()}
	}
	if v, ok := ev.vals[e.sig]; ok {
		return v, nil
	}
	return ev.read(e.sig), nil
}
func (e stagedExpr) walk(fn func(*fvsim.Signal)) { fn(e.sig) }

// StagedRead is the most recent in-block write to sig, or its pre-block
// value if the block has not written it yet. Meaningful in Staged mode;
// in Direct mode it hazards exactly like Read.
//
func StagedRead(sig *fvsim.Signal) Expr { return stagedExpr{sig} }

type unaryExpr struct {
	x  Expr
	op func(logic.Value) logic.Value
}

func (e unaryExpr) eval(ev *env) (logic.Value, error) {
	x, err := e.x.eval(ev)
	if err != nil {
		return logic.Value{}, err
	}
	return e.op(x), nil
}
func (e unaryExpr) walk(fn func(*fvsim.Signal)) { e.x.walk(fn) }

type binExpr struct {
	x, y Expr
	op   func(a, b logic.Value) (logic.Value, error)
}

func (e binExpr) eval(ev *env) (logic.Value, error) {
	x, err := e.x.eval(ev)
	if err != nil {
		return logic.Value{}, err
	}
	y, err := e.y.eval(ev)
	if err != nil {
		return logic.Value{}, err
	}
	v, err := e.op(x, y)
	return v, errors.WithStack(err)
}
func (e binExpr) walk(fn func(*fvsim.Signal)) { e.x.walk(fn); e.y.walk(fn) }

// Not inverts x per-bit.
//
func Not(x Expr) Expr {
	return unaryExpr{x: x, op: logic.Value.Not}
}

// And is the per-bit four-state conjunction of a and b.
//
func And(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.And} }

// Or is the per-bit four-state disjunction of a and b.
//
func Or(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Or} }

// Xor is the per-bit four-state exclusive or of a and b.
//
func Xor(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Xor} }

// Add is the wrapping unsigned sum of a and b.
//
func Add(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Add} }

// Sub is the wrapping unsigned difference of a and b.
//
func Sub(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Sub} }

// Eq yields a 1-bit comparison of a and b.
//
func Eq(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Eq} }

// Lt yields a 1-bit unsigned less-than of a and b.
//
func Lt(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Lt} }

// Gt yields a 1-bit unsigned greater-than of a and b.
//
func Gt(a, b Expr) Expr { return binExpr{x: a, y: b, op: logic.Value.Gt} }
