// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvsim

import "github.com/db47h/fvsim/logic"

// An Event describes a value transition on a signal.
//
type Event struct {
	Signal *Signal
	Old    logic.Value
	New    logic.Value
	Time   uint64
}

// Posedge reports whether the event is a rising edge of bit 0: a definite
// Lo to Hi transition. Transitions through X or Z are not edges.
//
func (e Event) Posedge() bool {
	return e.Old.Width() > 0 && e.New.Width() > 0 &&
		e.Old.Bit(0) == logic.Lo && e.New.Bit(0) == logic.Hi
}

// Negedge reports whether the event is a falling edge of bit 0.
//
func (e Event) Negedge() bool {
	return e.Old.Width() > 0 && e.New.Width() > 0 &&
		e.Old.Bit(0) == logic.Hi && e.New.Bit(0) == logic.Lo
}

// A Handler receives signal events. Handlers run synchronously in the
// simulator's execution context and may put or inject values; effects
// land in the current timestamp per the delta cycle rules.
//
type Handler func(Event)

// subscription list with self-removing one-shot entries. Cancellation
// handles survive list mutation: each entry is matched by identity.
//
type sub struct {
	fn   Handler
	once bool
	// for one-shot entries, fire only when the event matches
	match func(Event) bool
}

type subList struct {
	subs []*sub
}

func (l *subList) add(s *sub) func() {
	l.subs = append(l.subs, s)
	return func() { l.remove(s) }
}

func (l *subList) remove(s *sub) {
	for i, e := range l.subs {
		if e == s {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return
		}
	}
}

// clearOnce drops one-shot entries. Used on simulator reset: a pending
// one-shot wait belongs to the run that armed it.
//
func (l *subList) clearOnce() {
	subs := l.subs[:0]
	for _, s := range l.subs {
		if !s.once {
			subs = append(subs, s)
		}
	}
	l.subs = subs
}

// fire dispatches e to all subscribers. One-shot subscribers are removed
// before their handler runs, so a handler can resubscribe. The list is
// snapshotted so that handlers can subscribe and unsubscribe freely.
//
func (l *subList) fire(e Event) {
	snap := append([]*sub(nil), l.subs...)
	for _, s := range snap {
		if s.match != nil && !s.match(e) {
			continue
		}
		if s.once {
			l.remove(s)
		}
		s.fn(e)
	}
}

// OnGlitch subscribes fn to every recomputation of the signal, including
// ones that leave the value unchanged within a delta cycle. The returned
// function cancels the subscription.
//
func (sig *Signal) OnGlitch(fn Handler) (cancel func()) {
	return sig.glitch.add(&sub{fn: fn})
}

// OnChanged subscribes fn to settled value changes: fn runs at most once
// per delta-cycle settlement, when the signal's settled value differs from
// its value at the start of the settlement window. The returned function
// cancels the subscription.
//
func (sig *Signal) OnChanged(fn Handler) (cancel func()) {
	return sig.changed.add(&sub{fn: fn})
}

// NextChanged subscribes fn to the next settled change only.
//
func (sig *Signal) NextChanged(fn Handler) (cancel func()) {
	return sig.changed.add(&sub{fn: fn, once: true})
}

// NextPosedge subscribes fn to the next rising edge of bit 0 only.
//
func (sig *Signal) NextPosedge(fn Handler) (cancel func()) {
	return sig.changed.add(&sub{fn: fn, once: true, match: Event.Posedge})
}

// NextNegedge subscribes fn to the next falling edge of bit 0 only.
//
func (sig *Signal) NextNegedge(fn Handler) (cancel func()) {
	return sig.changed.add(&sub{fn: fn, once: true, match: Event.Negedge})
}
