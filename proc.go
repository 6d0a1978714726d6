// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvsim

import (
	"runtime"

	"github.com/petermattis/goid"
)

type procState uint8

const (
	procParked procState = iota
	procDone
)

// A Proc is a testbench process: a function running on its own goroutine,
// strictly interleaved with the scheduler. A process executes until it
// waits (on an edge, a change, or a delay); the scheduler resumes it when
// the awaited condition occurs and blocks until it parks again, so process
// code observes the signal graph at well-defined points and never runs
// concurrently with propagation.
//
// Wait methods must be called from the process's own goroutine; calling
// them from anywhere else panics.
//
type Proc struct {
	sim    *Sim
	gid    int64
	resume chan struct{}
	parked chan procState
	quit   chan struct{}
	ev     Event
	done   bool
}

// Spawn starts fn as a process. The process begins executing in the next
// delta cycle at the current simulated time (at the start of the run if
// the simulator is idle).
//
func (s *Sim) Spawn(fn func(p *Proc)) *Proc {
	p := &Proc{
		sim:    s,
		resume: make(chan struct{}),
		parked: make(chan procState),
		quit:   make(chan struct{}),
	}
	s.procs = append(s.procs, p)
	go p.run(fn)
	s.nextDelta = append(s.nextDelta, func() { s.step(p) })
	return p
}

// step resumes p and blocks until it parks again or finishes. Called only
// from the scheduler's execution context.
//
func (s *Sim) step(p *Proc) {
	if p.done {
		return
	}
	p.resume <- struct{}{}
	if <-p.parked == procDone {
		p.done = true
	}
}

// stopProcs tears down all live processes at end of run or reset.
//
func (s *Sim) stopProcs() {
	for _, p := range s.procs {
		if !p.done {
			close(p.quit)
			p.done = true
		}
	}
	s.procs = nil
}

func (p *Proc) run(fn func(*Proc)) {
	p.gid = goid.Get()
	select {
	case <-p.resume:
	case <-p.quit:
		return
	}
	fn(p)
	p.parked <- procDone
}

// yield parks the process until the scheduler resumes it. On teardown the
// goroutine exits here.
//
func (p *Proc) yield() {
	p.checkSelf()
	p.parked <- procParked
	select {
	case <-p.resume:
	case <-p.quit:
		runtime.Goexit()
	}
}

func (p *Proc) checkSelf() {
	if goid.Get() != p.gid {
		panic("fvsim: Proc wait called from outside the process goroutine")
	}
}

// Time returns the current simulated time.
//
func (p *Proc) Time() uint64 { return p.sim.Time() }

// Finish terminates the process immediately. It does not return.
//
func (p *Proc) Finish() {
	p.checkSelf()
	p.parked <- procDone
	runtime.Goexit()
}

// wait parks until the subscription armed by arm fires, then returns the
// triggering event.
//
func (p *Proc) wait(arm func(Handler) func()) Event {
	p.checkSelf()
	arm(func(e Event) {
		p.ev = e
		p.sim.step(p)
	})
	p.yield()
	return p.ev
}

// WaitChanged parks the process until sig's settled value changes and
// returns the change event.
//
func (p *Proc) WaitChanged(sig *Signal) Event {
	return p.wait(sig.NextChanged)
}

// WaitPosedge parks the process until the next rising edge of bit 0 of
// sig.
//
func (p *Proc) WaitPosedge(sig *Signal) Event {
	return p.wait(sig.NextPosedge)
}

// WaitNegedge parks the process until the next falling edge of bit 0 of
// sig.
//
func (p *Proc) WaitNegedge(sig *Signal) Event {
	return p.wait(sig.NextNegedge)
}

// Delay parks the process for d time units. Delay(0) parks until the next
// delta cycle at the current time.
//
func (p *Proc) Delay(d uint64) error {
	p.checkSelf()
	_, err := p.sim.RegisterAction(p.sim.Time()+d, func() { p.sim.step(p) })
	if err != nil {
		return err
	}
	p.yield()
	return nil
}
