// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cond

import (
	"github.com/pkg/errors"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/logic"
)

// A Stmt executes against an evaluation pass, recording writes in the
// working set.
//
type Stmt interface {
	exec(*env) error
	// walk visits every signal the statement reads
	walk(func(*fvsim.Signal))
}

// An Assign writes the value of Src to Dst. Writes land in the working
// set; committing them to the signal graph is the block binding's job.
// Writing the same signal twice is legal: the last write before the next
// read wins.
//
type Assign struct {
	Dst *fvsim.Signal
	Src Expr
}

func (a *Assign) exec(ev *env) error {
	v, err := a.Src.eval(ev)
	if err != nil {
		return err
	}
	if v.Width() != a.Dst.Width() {
		return errors.Wrapf(fvsim.ErrWidthMismatch,
			"assign %d bits to %q (%d bits)", v.Width(), a.Dst.Name(), a.Dst.Width())
	}
	ev.vals[a.Dst] = v
	return nil
}

func (a *Assign) walk(fn func(*fvsim.Signal)) { a.Src.walk(fn) }

// An If executes Then when Cond's bit 0 is Hi and Else when it is Lo.
// An undefined (X or Z) condition selects neither branch, leaving the
// branch's outputs unassigned for this statement.
//
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (s *If) exec(ev *env) error {
	c, err := s.Cond.eval(ev)
	if err != nil {
		return err
	}
	var body []Stmt
	if c.Width() > 0 {
		switch c.Bit(0) {
		case logic.Hi:
			body = s.Then
		case logic.Lo:
			body = s.Else
		}
	}
	return execAll(body, ev)
}

func (s *If) walk(fn func(*fvsim.Signal)) {
	s.Cond.walk(fn)
	walkAll(s.Then, fn)
	walkAll(s.Else, fn)
}

// A Branch of a Case: Body executes when the subject equals Match
// exactly, four-state bits included.
//
type Branch struct {
	Match logic.Value
	Body  []Stmt
}

// A Case evaluates Subject once and executes the first Branch whose
// Match equals it, or Default when none matches. With no matching branch
// and no default, referenced outputs are left unassigned for this
// statement; whether that means "retain" or "X" is decided by the
// binding context (sequential vs combinational).
//
type Case struct {
	Subject  Expr
	Branches []Branch
	Default  []Stmt
}

func (s *Case) exec(ev *env) error {
	subj, err := s.Subject.eval(ev)
	if err != nil {
		return err
	}
	for _, b := range s.Branches {
		if subj.Equal(b.Match) {
			return execAll(b.Body, ev)
		}
	}
	return execAll(s.Default, ev)
}

func (s *Case) walk(fn func(*fvsim.Signal)) {
	s.Subject.walk(fn)
	for _, b := range s.Branches {
		walkAll(b.Body, fn)
	}
	walkAll(s.Default, fn)
}

func execAll(stmts []Stmt, ev *env) error {
	for _, s := range stmts {
		if err := s.exec(ev); err != nil {
			return err
		}
	}
	return nil
}

func walkAll(stmts []Stmt, fn func(*fvsim.Signal)) {
	for _, s := range stmts {
		s.walk(fn)
	}
}
