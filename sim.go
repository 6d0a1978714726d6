// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvsim

import (
	"container/heap"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db47h/fvsim/logic"
)

// State of a simulator.
//
type State uint8

// Simulator states.
//
const (
	Idle State = iota
	Running
	Ending
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Ending:
		return "ending"
	case Ended:
		return "ended"
	}
	return "invalid"
}

// NoMaxTime disables the simulated time limit.
//
const NoMaxTime = ^uint64(0)

// defaultLoopLimit bounds recomputations of a single signal within one
// settlement window. A combinational loop that has not converged by then
// is forced to all-X.
const defaultLoopLimit = 1024

// A Token identifies a registered action for cancellation.
//
type Token = uuid.UUID

type action struct {
	tok       Token
	fn        func()
	cancelled bool
}

type slot struct {
	actions []*action
}

// take removes and returns the currently queued batch. Actions queued
// while the batch executes form the next batch (next delta cycle).
//
func (sl *slot) take() []*action {
	b := sl.actions
	sl.actions = nil
	return b
}

// timeHeap is a min-heap of pending timestamps.
//
type timeHeap []uint64

func (h timeHeap) Len() int            { return len(h) }
func (h timeHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h timeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *timeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// A Sim is a discrete-event simulator over a signal graph. It owns the
// signals created through its construction API and advances a logical
// clock, executing registered actions and signal-driven reactions in delta
// cycles within each timestamp.
//
// Execution is single-threaded and cooperative: all signal recomputation,
// event dispatch and process resumption happen synchronously within the
// Run loop. Spawned processes run on their own goroutines but are strictly
// interleaved with the scheduler through a channel handshake, so no two
// updates are ever concurrent with respect to the signal graph.
//
type Sim struct {
	log     zerolog.Logger
	maxTime uint64
	loopLim int

	state     State
	now       uint64
	windowSeq uint64

	sigs []*Signal // arena, indexed by Signal.ID

	pending map[uint64]*slot
	times   timeHeap

	nextDelta []func() // injected work for the next delta cycle at the current time
	touched   []*Signal

	procs    []*Proc
	endHooks []func()
	settling bool
}

// An Option configures a Sim.
//
type Option func(*Sim)

// WithLogger sets a structured logger for simulator tracing. Tracing is
// disabled by default.
//
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sim) { s.log = l }
}

// WithMaxTime bounds the simulated time: Run never executes an action
// scheduled beyond t and returns with Time() <= t.
//
func WithMaxTime(t uint64) Option {
	return func(s *Sim) { s.maxTime = t }
}

// New returns a new idle simulator.
//
func New(opts ...Option) *Sim {
	s := &Sim{
		log:     zerolog.Nop(),
		maxTime: NoMaxTime,
		loopLim: defaultLoopLimit,
		pending: make(map[uint64]*slot),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Time returns the current simulated time.
//
func (s *Sim) Time() uint64 { return s.now }

// State returns the simulator state.
//
func (s *Sim) State() State { return s.state }

// SetMaxTime bounds the simulated time for subsequent runs.
//
func (s *Sim) SetMaxTime(t uint64) { s.maxTime = t }

// OnEnd registers an end-of-simulation hook, run before Run returns.
//
func (s *Sim) OnEnd(fn func()) { s.endHooks = append(s.endHooks, fn) }

// newSignal allocates a signal in the arena.
//
func (s *Sim) newSignal(name string, width int, k kind) *Signal {
	if width < 0 {
		panic("fvsim: negative signal width")
	}
	init := logic.X(width)
	if k == kindNet {
		init = logic.Z(width) // an undriven net floats
	}
	sig := &Signal{
		sim:     s,
		id:      len(s.sigs),
		name:    name,
		width:   width,
		kind:    k,
		val:     init,
		settled: init,
		prev:    init,
	}
	s.sigs = append(s.sigs, sig)
	return sig
}

// Signal creates a scalar signal of the given width. Its initial value is
// all-X.
//
func (s *Sim) Signal(name string, width int) *Signal {
	return s.newSignal(name, width, kindWire)
}

// Net creates a resolved net of the given width: it accepts any number of
// simultaneous drivers, combined per-bit with wired resolution. Its
// initial value is all-Z.
//
func (s *Sim) Net(name string, width int) *Signal {
	return s.newSignal(name, width, kindNet)
}

// Bundle creates a structured signal whose bits are the concatenation of
// the given children, first child most significant. A write to a child is
// observable as a bit-range change on the bundle and vice versa. Children
// must not already belong to another aggregate.
//
func (s *Sim) Bundle(name string, children ...*Signal) (*Signal, error) {
	w := 0
	for _, c := range children {
		if c.parent != nil {
			return nil, errors.Errorf("signal %q already belongs to %q", c.name, c.parent.name)
		}
		w += c.width
	}
	b := s.newSignal(name, w, kindBundle)
	// store least significant first
	off := 0
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		c.parent = b
		c.offset = off
		off += c.width
		b.children = append(b.children, c)
	}
	b.val = b.resolveValue()
	b.settled = b.val
	b.prev = b.val
	return b, nil
}

// Array creates a homogeneous aggregate of n elements of the given width.
// Element i is named name[i] and occupies bits [i*width, (i+1)*width) of
// the parent, element 0 least significant.
//
func (s *Sim) Array(name string, n, width int) *Signal {
	a := s.newSignal(name, n*width, kindArray)
	for i := 0; i < n; i++ {
		c := s.newSignal(busName(name, i), width, kindWire)
		c.parent = a
		c.offset = i * width
		a.children = append(a.children, c)
	}
	return a
}

// Func creates a signal driven by a pure function of the given input
// signals: it recomputes whenever any input changes.
//
func (s *Sim) Func(name string, width int, fn func() logic.Value, inputs ...*Signal) *Signal {
	sig := s.newSignal(name, width, kindWire)
	// cannot fail: fresh wire, no prior driver
	_ = sig.drive(&drive{fn: fn}, inputs...)
	return sig
}

// Lock freezes the names of all signals, reserving them for downstream
// consumers (code generation, waveform dumping).
//
func (s *Sim) Lock() {
	for _, sig := range s.sigs {
		sig.locked = true
	}
}

// Signals returns the signal arena, indexed by signal ID.
//
func (s *Sim) Signals() []*Signal {
	return append([]*Signal(nil), s.sigs...)
}

// RegisterAction schedules fn to run at simulated time t and returns a
// token for cancellation. Actions at the same timestamp run in
// registration order; an action registered for the current timestamp
// while that timestamp executes runs in the next delta cycle.
// It fails with ErrScheduling if t is before the current time or the
// simulator has ended.
//
func (s *Sim) RegisterAction(t uint64, fn func()) (Token, error) {
	if s.state == Ended {
		return uuid.Nil, errors.Wrap(ErrScheduling, "simulator ended")
	}
	if t < s.now {
		return uuid.Nil, errors.Wrapf(ErrScheduling, "time %d before current time %d", t, s.now)
	}
	a := &action{tok: uuid.New(), fn: fn}
	sl := s.pending[t]
	if sl == nil {
		sl = &slot{}
		s.pending[t] = sl
		heap.Push(&s.times, t)
	}
	sl.actions = append(sl.actions, a)
	return a.tok, nil
}

// CancelAction removes a not yet executed action registered at time t.
// It is a no-op if the action already executed or is unknown.
//
func (s *Sim) CancelAction(t uint64, tok Token) {
	sl := s.pending[t]
	if sl == nil {
		return
	}
	for _, a := range sl.actions {
		if a.tok == tok {
			a.cancelled = true
			return
		}
	}
}

// InjectAction schedules fn to run at the current simulated time in the
// next delta cycle, after all work already queued for the current cycle.
// Use it to respond to a just-observed change without being part of the
// cycle that produced it.
//
func (s *Sim) InjectAction(fn func()) {
	s.nextDelta = append(s.nextDelta, fn)
}

// Run executes pending actions in time order until none remain, the
// maximum simulated time is reached, or EndSimulation is called. Within a
// timestamp, queued actions and injected delta-cycle work are drained to
// quiescence before time advances. Run returns with the simulator in the
// Ended state; Reset returns it to Idle for a fresh run over the same
// graph.
//
func (s *Sim) Run() error {
	switch s.state {
	case Ended:
		return errors.Wrap(ErrScheduling, "run on ended simulator")
	case Running, Ending:
		return errors.Wrap(ErrScheduling, "already running")
	}
	s.state = Running
	s.log.Debug().Uint64("time", s.now).Msg("run")
	s.drainCurrent()
	for s.state == Running {
		t, ok := s.nextTime()
		if !ok {
			break
		}
		if t > s.maxTime {
			s.log.Debug().Uint64("time", s.now).Uint64("next", t).Msg("max time reached")
			break
		}
		s.now = t
		s.log.Trace().Uint64("time", t).Msg("advance")
		s.drainCurrent()
	}
	for _, fn := range s.endHooks {
		fn()
	}
	s.stopProcs()
	s.state = Ended
	s.log.Debug().Uint64("time", s.now).Msg("ended")
	return nil
}

// EndSimulation requests termination. If the simulator is running, the
// run loop finishes draining the current timestamp, waits for any
// resumed process to park, runs end-of-simulation hooks and returns.
//
func (s *Sim) EndSimulation() {
	switch s.state {
	case Running:
		s.state = Ending
	case Idle:
		for _, fn := range s.endHooks {
			fn()
		}
		s.stopProcs()
		s.state = Ended
	}
}

// Reset returns an ended (or idle) simulator to the idle state: pending
// actions, injected work and signal history are cleared and simulated
// time returns to 0, but the signal graph topology is preserved. Signal
// values return to their initial state and re-resolve from their drivers;
// one-shot subscriptions are dropped, persistent ones are kept.
// It fails with ErrScheduling if the simulator is running.
//
func (s *Sim) Reset() error {
	if s.state == Running || s.state == Ending {
		return errors.Wrap(ErrScheduling, "reset while running")
	}
	s.stopProcs()
	s.state = Idle
	s.now = 0
	s.windowSeq = 0
	s.pending = make(map[uint64]*slot)
	s.times = nil
	s.nextDelta = nil
	s.touched = nil
	s.endHooks = nil

	for _, sig := range s.sigs {
		if sig.kind == kindNet {
			sig.val = logic.Z(sig.width)
		} else {
			sig.val = logic.X(sig.width)
		}
		sig.inWindow = false
		sig.recomputes = 0
		sig.glitch.clearOnce()
		sig.changed.clearOnce()
	}
	// quietly re-resolve driven and aggregate signals to a fixpoint
	for i := 0; i <= len(s.sigs); i++ {
		dirty := false
		for _, sig := range s.sigs {
			if len(sig.drives) == 0 && len(sig.children) == 0 {
				continue
			}
			if nv := sig.resolveValue(); !nv.Equal(sig.val) {
				sig.val = nv
				dirty = true
			}
		}
		if !dirty {
			break
		}
	}
	for _, sig := range s.sigs {
		sig.settled = sig.val
		sig.prev = sig.val
		sig.prevSeq = 0
	}
	return nil
}

// nextTime pops the earliest timestamp that still has pending work.
//
func (s *Sim) nextTime() (uint64, bool) {
	for len(s.times) > 0 {
		t := s.times[0]
		sl := s.pending[t]
		if sl == nil || len(sl.actions) == 0 {
			heap.Pop(&s.times)
			delete(s.pending, t)
			continue
		}
		heap.Pop(&s.times)
		return t, true
	}
	return 0, false
}

// drainCurrent drains the current timestamp: delta cycles run until no
// queued or injected work remains, then the settlement window closes and
// changed events fire. Work queued by changed handlers reopens the loop
// at the same timestamp.
//
func (s *Sim) drainCurrent() {
	delta := 0
	for {
		var batch []*action
		if sl := s.pending[s.now]; sl != nil {
			batch = sl.take()
		}
		inj := s.nextDelta
		s.nextDelta = nil
		if len(batch) > 0 || len(inj) > 0 {
			delta++
			s.log.Trace().Uint64("time", s.now).Int("delta", delta).
				Int("actions", len(batch)).Int("injected", len(inj)).Msg("delta cycle")
			for _, a := range batch {
				if !a.cancelled {
					a.fn()
				}
			}
			for _, fn := range inj {
				fn()
			}
			continue
		}
		if s.settle() {
			continue
		}
		break
	}
	delete(s.pending, s.now)
}

// settle closes the current settlement window: signals whose value
// differs from their value at the start of the window fire their changed
// event exactly once. It reports whether any changed event fired.
//
func (s *Sim) settle() bool {
	if len(s.touched) == 0 {
		return false
	}
	touched := s.touched
	s.touched = nil
	s.windowSeq++
	var evs []Event
	for _, sig := range touched {
		sig.inWindow = false
		sig.recomputes = 0
		if !sig.val.Equal(sig.settled) {
			evs = append(evs, Event{Signal: sig, Old: sig.settled, New: sig.val, Time: s.now})
			sig.prev = sig.settled
			sig.prevSeq = s.windowSeq
			sig.settled = sig.val
		}
	}
	if len(evs) == 0 {
		return false
	}
	s.log.Trace().Uint64("time", s.now).Int("changed", len(evs)).Msg("settle")
	for _, e := range evs {
		e.Signal.changed.fire(e)
	}
	return true
}

// dispatching reports whether the run loop is executing: Ending counts,
// the current timestamp is still draining.
//
func (s *Sim) dispatching() bool {
	return s.state == Running || s.state == Ending
}

// settleIdle settles immediately after updates made while the simulator
// is not running, so that purely combinational use does not require a
// scheduler run.
//
func (s *Sim) settleIdle() {
	if s.dispatching() || s.settling {
		return
	}
	s.settling = true
	for s.settle() {
	}
	s.settling = false
}

// put applies an externally supplied value to sig.
//
func (s *Sim) put(sig *Signal, v logic.Value) {
	s.apply(sig, v)
	s.settleIdle()
}

// apply is the propagation step: it sets sig's value, fires its glitch
// event, and on an actual change syncs aggregate ancestors and children
// and recomputes downstream dependents, recursing until values stop
// changing.
//
func (s *Sim) apply(sig *Signal, v logic.Value) {
	old := sig.val
	sig.val = v
	if !sig.inWindow {
		sig.inWindow = true
		s.touched = append(s.touched, sig)
	}
	sig.glitch.fire(Event{Signal: sig, Old: old, New: v, Time: s.now})
	if old.Equal(v) {
		return
	}
	if p := sig.parent; p != nil {
		if pv, err := p.val.WithSet(sig.offset, v); err == nil && !pv.Equal(p.val) {
			s.apply(p, pv)
		}
	}
	for _, c := range sig.children {
		if cv, err := v.Slice(c.offset+c.width-1, c.offset); err == nil && !cv.Equal(c.val) {
			s.apply(c, cv)
		}
	}
	for _, d := range sig.deps {
		s.recompute(d)
	}
}

// recompute re-resolves sig from its driving sources. A signal that keeps
// changing past the loop limit within one settlement window is forced to
// all-X, so unbroken combinational cycles converge instead of hanging.
//
func (s *Sim) recompute(sig *Signal) {
	sig.recomputes++
	if sig.recomputes > s.loopLim {
		if !sig.val.Equal(logic.X(sig.width)) {
			s.apply(sig, logic.X(sig.width))
		}
		return
	}
	s.apply(sig, sig.resolveValue())
}
