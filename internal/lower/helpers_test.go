package lower

import (
	"context"
	"testing"

	"irlower/internal/ir"
)

func program(t *testing.T, opts Options, globals []*ir.Global, funcs ...*ir.Func) *Program {
	t.Helper()
	p, err := NewProgram(&ir.Module{Name: "test", Funcs: funcs, Globals: globals}, opts)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return p
}

func run(t *testing.T, p *Program, entry string, args ...int64) int64 {
	t.Helper()
	v, err := p.Run(context.Background(), entry, args...)
	if err != nil {
		t.Fatalf("run @%s: %v", entry, err)
	}
	return v.Int()
}

// factorial builds
//
//	entry: br loop
//	loop:  %i = phi [1, entry], [%i1, body]
//	       %acc = phi [1, entry], [%acc1, body]
//	       %c = icmp sgt %i, %n
//	       condbr %c, exit, body
//	body:  %acc1 = mul %acc, %i
//	       %i1 = add %i, 1
//	       br loop
//	exit:  ret %acc
func factorial() *ir.Func {
	b := ir.NewBuilder("fact", ir.I64, &ir.Param{Name: "n", Type: ir.I64})
	entry := b.Block("entry")
	loop := b.Block("loop")
	body := b.Block("body")
	exit := b.Block("exit")

	b.SetBlock(entry)
	b.Br(loop)

	b.SetBlock(loop)
	i := b.Phi("i", ir.I64,
		ir.PhiIncoming{Pred: entry, Value: ir.Const(ir.I64, 1)},
		ir.PhiIncoming{Pred: body, Value: ir.Value(ir.I64, "i1")})
	acc := b.Phi("acc", ir.I64,
		ir.PhiIncoming{Pred: entry, Value: ir.Const(ir.I64, 1)},
		ir.PhiIncoming{Pred: body, Value: ir.Value(ir.I64, "acc1")})
	c := b.ICmp("c", ir.PredSGT, i, ir.Value(ir.I64, "n"))
	b.CondBr(c, exit, body)

	b.SetBlock(body)
	b.BinOp("acc1", ir.OpMul, acc, i)
	b.BinOp("i1", ir.OpAdd, i, ir.Const(ir.I64, 1))
	b.Br(loop)

	b.SetBlock(exit)
	b.Ret(acc)
	return b.Func()
}

// pairs counts i, j with 0 <= j < i < n using two nested while loops; the
// inner loop leaves from its header.
//
//	outer: %i = phi [0, entry], [%i1, latch]; %acc = phi [0, entry], [%a, latch]
//	       condbr (%i < %n), inner, exit
//	inner: %j = phi [0, outer], [%j1, ibody]; %a = phi [%acc, outer], [%a1, ibody]
//	       condbr (%j < %i), ibody, latch
//	ibody: %a1 = %a + 1; %j1 = %j + 1; br inner
//	latch: %i1 = %i + 1; br outer
func pairs() *ir.Func {
	b := ir.NewBuilder("pairs", ir.I64, &ir.Param{Name: "n", Type: ir.I64})
	entry := b.Block("entry")
	outer := b.Block("outer")
	inner := b.Block("inner")
	ibody := b.Block("ibody")
	latch := b.Block("latch")
	exit := b.Block("exit")

	b.SetBlock(entry)
	b.Br(outer)

	b.SetBlock(outer)
	i := b.Phi("i", ir.I64,
		ir.PhiIncoming{Pred: entry, Value: ir.Const(ir.I64, 0)},
		ir.PhiIncoming{Pred: latch, Value: ir.Value(ir.I64, "i1")})
	acc := b.Phi("acc", ir.I64,
		ir.PhiIncoming{Pred: entry, Value: ir.Const(ir.I64, 0)},
		ir.PhiIncoming{Pred: latch, Value: ir.Value(ir.I64, "a")})
	c := b.ICmp("c", ir.PredSLT, i, ir.Value(ir.I64, "n"))
	b.CondBr(c, inner, exit)

	b.SetBlock(inner)
	j := b.Phi("j", ir.I64,
		ir.PhiIncoming{Pred: outer, Value: ir.Const(ir.I64, 0)},
		ir.PhiIncoming{Pred: ibody, Value: ir.Value(ir.I64, "j1")})
	a := b.Phi("a", ir.I64,
		ir.PhiIncoming{Pred: outer, Value: acc},
		ir.PhiIncoming{Pred: ibody, Value: ir.Value(ir.I64, "a1")})
	d := b.ICmp("d", ir.PredSLT, j, i)
	b.CondBr(d, ibody, latch)

	b.SetBlock(ibody)
	b.BinOp("a1", ir.OpAdd, a, ir.Const(ir.I64, 1))
	b.BinOp("j1", ir.OpAdd, j, ir.Const(ir.I64, 1))
	b.Br(inner)

	b.SetBlock(latch)
	b.BinOp("i1", ir.OpAdd, i, ir.Const(ir.I64, 1))
	b.Br(outer)

	b.SetBlock(exit)
	b.Ret(acc)
	return b.Func()
}
