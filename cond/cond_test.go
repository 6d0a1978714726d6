// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cond_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/cond"
	"github.com/db47h/fvsim/logic"
)

func put(t *testing.T, sig *fvsim.Signal, s string) {
	t.Helper()
	require.NoError(t, sig.Put(logic.MustParse(s)))
}

func TestBlock_direct_hazard(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 4)
	b := s.Signal("b", 4)
	c := s.Signal("c", 4)
	tmp := s.Signal("tmp", 4)
	out := s.Signal("out", 4)
	put(t, a, "0001")
	put(t, b, "0010")
	put(t, c, "0100")

	// tmp = a + b; out = tmp + c -- reads tmp after writing it
	blk := &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.Assign{Dst: tmp, Src: cond.Add(cond.Read(a), cond.Read(b))},
			&cond.Assign{Dst: out, Src: cond.Add(cond.Read(tmp), cond.Read(c))},
		},
	}
	_, err := blk.Eval(nil)
	var hz *cond.HazardError
	require.ErrorAs(t, err, &hz)
	assert.Equal(t, "tmp", hz.Signal)
}

func TestBlock_staged_resolves_hazard(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 4)
	b := s.Signal("b", 4)
	c := s.Signal("c", 4)
	tmp := s.Signal("tmp", 4)
	out := s.Signal("out", 4)
	put(t, a, "0001")
	put(t, b, "0010")
	put(t, c, "0100")

	blk := &cond.Block{
		Mode: cond.Staged,
		Stmts: []cond.Stmt{
			&cond.Assign{Dst: tmp, Src: cond.Add(cond.Read(a), cond.Read(b))},
			&cond.Assign{Dst: out, Src: cond.Add(cond.StagedRead(tmp), cond.Read(c))},
		},
	}
	vals, err := blk.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, "0011", vals[tmp].String())
	assert.Equal(t, "0111", vals[out].String())
}

func TestBlock_multiple_writes_last_wins(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 1)
	out := s.Signal("out", 4)
	put(t, a, "1")

	// two unconditional writes and a conditional override: no reads of
	// out, so no hazard even in direct mode
	blk := &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("0000"))},
			&cond.If{
				Cond: cond.Read(a),
				Then: []cond.Stmt{
					&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("1111"))},
				},
			},
		},
	}
	vals, err := blk.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, "1111", vals[out].String())
}

func TestBlock_if_undefined_cond_assigns_nothing(t *testing.T) {
	s := fvsim.New()
	sel := s.Signal("sel", 1)
	out := s.Signal("out", 1)
	// sel is X
	blk := &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.If{
				Cond: cond.Read(sel),
				Then: []cond.Stmt{&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("1"))}},
				Else: []cond.Stmt{&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("0"))}},
			},
		},
	}
	vals, err := blk.Eval(nil)
	require.NoError(t, err)
	_, written := vals[out]
	assert.False(t, written)
}

func TestBlock_case(t *testing.T) {
	s := fvsim.New()
	op := s.Signal("op", 2)
	out := s.Signal("out", 4)
	blk := &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.Case{
				Subject: cond.Read(op),
				Branches: []cond.Branch{
					{Match: logic.MustParse("00"), Body: []cond.Stmt{
						&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("0001"))}}},
					{Match: logic.MustParse("01"), Body: []cond.Stmt{
						&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("0010"))}}},
				},
				Default: []cond.Stmt{
					&cond.Assign{Dst: out, Src: cond.Const(logic.MustParse("1111"))}},
			},
		},
	}

	put(t, op, "01")
	vals, err := blk.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, "0010", vals[out].String())

	put(t, op, "11")
	vals, err = blk.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, "1111", vals[out].String())

	// four-state exact matching: an X subject matches nothing but the
	// default
	put(t, op, "1x")
	vals, err = blk.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, "1111", vals[out].String())
}

func TestComb_mux(t *testing.T) {
	s := fvsim.New()
	sel := s.Signal("sel", 1)
	a := s.Signal("a", 4)
	b := s.Signal("b", 4)
	y := s.Signal("y", 4)
	put(t, sel, "0")
	put(t, a, "1010")
	put(t, b, "0101")

	bd := cond.Comb(&cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.If{
				Cond: cond.Read(sel),
				Then: []cond.Stmt{&cond.Assign{Dst: y, Src: cond.Read(a)}},
				Else: []cond.Stmt{&cond.Assign{Dst: y, Src: cond.Read(b)}},
			},
		},
	}, y)
	require.NoError(t, bd.Err())
	assert.Equal(t, "0101", y.Value().String())

	put(t, sel, "1")
	assert.Equal(t, "1010", y.Value().String())

	put(t, a, "1100")
	assert.Equal(t, "1100", y.Value().String())
	require.NoError(t, bd.Err())
}

func TestComb_incomplete_coverage_goes_x(t *testing.T) {
	s := fvsim.New()
	en := s.Signal("en", 1)
	y := s.Signal("y", 4)
	put(t, en, "1")

	// no else branch: a combinational block does not infer a latch
	cond.Comb(&cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.If{
				Cond: cond.Read(en),
				Then: []cond.Stmt{&cond.Assign{Dst: y, Src: cond.Const(logic.MustParse("1010"))}},
			},
		},
	}, y)
	assert.Equal(t, "1010", y.Value().String())

	put(t, en, "0")
	assert.Equal(t, "xxxx", y.Value().String())
}

func TestSeq_register_with_sync_reset(t *testing.T) {
	s := fvsim.New()
	clk := s.Signal("clk", 1)
	rst := s.Signal("rst", 1)
	d := s.Signal("d", 4)
	q := s.Signal("q", 4)
	put(t, clk, "0")
	put(t, rst, "0")
	put(t, d, "1001")

	bd := cond.Seq(clk, &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.If{
				Cond: cond.Read(rst),
				Then: []cond.Stmt{&cond.Assign{Dst: q, Src: cond.Const(logic.MustParse("0000"))}},
				Else: []cond.Stmt{&cond.Assign{Dst: q, Src: cond.Read(d)}},
			},
		},
	}, q)

	tick := func(at uint64) {
		_, err := s.RegisterAction(at, func() { clk.Put(logic.MustNew(1, 1)) })
		require.NoError(t, err)
		_, err = s.RegisterAction(at+5, func() { clk.Put(logic.MustNew(1, 0)) })
		require.NoError(t, err)
	}
	tick(10)
	_, err := s.RegisterAction(20, func() { d.Put(logic.MustParse("0110")) })
	require.NoError(t, err)
	tick(30)
	_, err = s.RegisterAction(40, func() { rst.Put(logic.MustParse("1")) })
	require.NoError(t, err)
	tick(50)

	require.NoError(t, s.Run())
	require.NoError(t, bd.Err())
	assert.Equal(t, "0000", q.Value().String())
}

func TestSeq_samples_pre_edge_value(t *testing.T) {
	// d changes in the same delta cycle as the clock edge; the register
	// must capture d as it stood before the edge.
	s := fvsim.New()
	clk := s.Signal("clk", 1)
	d := s.Signal("d", 4)
	q := s.Signal("q", 4)
	put(t, clk, "0")
	put(t, d, "0001")

	bd := cond.Seq(clk, &cond.Block{
		Mode:  cond.Direct,
		Stmts: []cond.Stmt{&cond.Assign{Dst: q, Src: cond.Read(d)}},
	}, q)

	_, err := s.RegisterAction(10, func() {
		clk.Put(logic.MustNew(1, 1))
		d.Inject(logic.MustParse("1110"))
	})
	require.NoError(t, err)
	require.NoError(t, s.Run())
	require.NoError(t, bd.Err())
	assert.Equal(t, "0001", q.Value().String())
	assert.Equal(t, "1110", d.Value().String())
}

func TestSeq_unassigned_retains(t *testing.T) {
	s := fvsim.New()
	clk := s.Signal("clk", 1)
	en := s.Signal("en", 1)
	d := s.Signal("d", 4)
	q := s.Signal("q", 4)
	put(t, clk, "0")
	put(t, en, "1")
	put(t, d, "0111")
	put(t, q, "0000")

	cond.Seq(clk, &cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.If{
				Cond: cond.Read(en),
				Then: []cond.Stmt{&cond.Assign{Dst: q, Src: cond.Read(d)}},
			},
		},
	}, q)

	step := func(at uint64, fn func()) {
		_, err := s.RegisterAction(at, fn)
		require.NoError(t, err)
	}
	step(10, func() { clk.Put(logic.MustNew(1, 1)) })
	step(15, func() { clk.Put(logic.MustNew(1, 0)) })
	step(20, func() { en.Put(logic.MustNew(1, 0)) })
	step(25, func() { d.Put(logic.MustParse("1111")) })
	step(30, func() { clk.Put(logic.MustNew(1, 1)) })
	require.NoError(t, s.Run())
	// enabled edge loaded d, disabled edge held it
	assert.Equal(t, "0111", q.Value().String())
}

func TestComb_hazard_latches_in_binding(t *testing.T) {
	s := fvsim.New()
	a := s.Signal("a", 1)
	tmp := s.Signal("tmp", 1)
	out := s.Signal("out", 1)
	put(t, a, "1")

	bd := cond.Comb(&cond.Block{
		Mode: cond.Direct,
		Stmts: []cond.Stmt{
			&cond.Assign{Dst: tmp, Src: cond.Read(a)},
			&cond.Assign{Dst: out, Src: cond.Read(tmp)},
		},
	}, tmp, out)
	var hz *cond.HazardError
	require.ErrorAs(t, bd.Err(), &hz)
	assert.Equal(t, "tmp", hz.Signal)
}
