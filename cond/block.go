// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cond

import (
	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/logic"
)

// loopLimit bounds re-evaluations of one binding within a single
// evaluation burst. A feedback path that has not converged by then is
// forced to all-X on the binding's outputs.
const loopLimit = 1024

// A Block is an ordered list of conditional statements evaluated as one
// pass, in the given Mode.
//
type Block struct {
	Mode  Mode
	Stmts []Stmt
}

// Eval runs one evaluation pass and returns the final written values,
// without committing anything to the signal graph. A nil read function
// snapshots current signal values.
// It fails with a HazardError on a direct-mode write-after-read, leaving
// no visible effect.
//
func (b *Block) Eval(read func(*fvsim.Signal) logic.Value) (map[*fvsim.Signal]logic.Value, error) {
	if read == nil {
		read = (*fvsim.Signal).Value
	}
	ev := &env{
		mode: b.Mode,
		read: read,
		vals: make(map[*fvsim.Signal]logic.Value),
	}
	if err := execAll(b.Stmts, ev); err != nil {
		return nil, err
	}
	return ev.vals, nil
}

// inputs returns the distinct signals the block reads.
//
func (b *Block) inputs() []*fvsim.Signal {
	seen := make(map[*fvsim.Signal]bool)
	var ins []*fvsim.Signal
	walkAll(b.Stmts, func(sig *fvsim.Signal) {
		if !seen[sig] {
			seen[sig] = true
			ins = append(ins, sig)
		}
	})
	return ins
}

// A Binding ties a Block to the signal graph and keeps it evaluating.
// Evaluation errors (hazards, width mismatches) surface through Err:
// the first error latches and stops further evaluation.
//
type Binding struct {
	block *Block
	outs  []*fvsim.Signal

	cancels []func()
	err     error

	evaluating bool
	pending    bool
	rounds     int
}

// Err returns the first evaluation error, if any.
//
func (bd *Binding) Err() error { return bd.err }

// Unbind cancels the binding's subscriptions. Output signals keep their
// last committed value.
//
func (bd *Binding) Unbind() {
	for _, c := range bd.cancels {
		c()
	}
	bd.cancels = nil
}

// Comb binds block combinationally: it re-evaluates on every glitch of
// any signal the block reads and commits the written values to outs.
// Outputs the pass did not assign go all-X — a combinational block with
// incomplete branch coverage does not infer a latch. The block is
// evaluated once at bind time.
//
func Comb(block *Block, outs ...*fvsim.Signal) *Binding {
	bd := &Binding{block: block, outs: outs}
	for _, in := range block.inputs() {
		bd.cancels = append(bd.cancels, in.OnGlitch(func(fvsim.Event) {
			bd.evalComb()
		}))
	}
	bd.evalComb()
	return bd
}

// evalComb evaluates to a local fixpoint: glitches caused by our own
// commits re-enter here and are folded into a re-evaluation loop instead
// of unbounded recursion.
//
func (bd *Binding) evalComb() {
	if bd.err != nil {
		return
	}
	if bd.evaluating {
		bd.pending = true
		return
	}
	bd.evaluating = true
	bd.rounds = 0
	for {
		bd.pending = false
		if bd.rounds++; bd.rounds > loopLimit {
			// unbroken feedback: force outputs to all-X
			for _, out := range bd.outs {
				out.Put(logic.X(out.Width())) //nolint:errcheck
			}
			break
		}
		vals, err := bd.block.Eval(nil)
		if err != nil {
			bd.err = err
			break
		}
		for _, out := range bd.outs {
			v, ok := vals[out]
			if !ok {
				v = logic.X(out.Width())
			}
			if err := out.Put(v); err != nil {
				bd.err = err
				break
			}
		}
		if bd.err != nil || !bd.pending {
			break
		}
	}
	bd.evaluating = false
}

// Seq binds block sequentially: it evaluates once per positive edge of
// clk, reading every signal as it stood immediately before the edge, and
// commits the written values to outs. Outputs the pass did not assign
// retain their value, the way a register holds state.
//
func Seq(clk *fvsim.Signal, block *Block, outs ...*fvsim.Signal) *Binding {
	bd := &Binding{block: block, outs: outs}
	bd.cancels = append(bd.cancels, clk.OnChanged(func(e fvsim.Event) {
		if bd.err != nil || !e.Posedge() {
			return
		}
		vals, err := bd.block.Eval((*fvsim.Signal).Prev)
		if err != nil {
			bd.err = err
			return
		}
		for _, out := range bd.outs {
			if v, ok := vals[out]; ok {
				if err := out.Put(v); err != nil {
					bd.err = err
					return
				}
			}
		}
	}))
	return bd
}
