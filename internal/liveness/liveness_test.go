package liveness

import (
	"reflect"
	"testing"

	"irlower/internal/ir"
)

// countdown builds
//
//	entry: br loop
//	loop:  %i = phi [%n, entry], [%next, loop]
//	       %next = sub %i, 1
//	       %done = icmp eq %next, 0
//	       condbr %done, exit, loop
//	exit:  ret %next
func countdown() *ir.Func {
	n := &ir.Param{Name: "n", Type: ir.I32}
	b := ir.NewBuilder("countdown", ir.I32, n)
	entry := b.Block("entry")
	loop := b.Block("loop")
	exit := b.Block("exit")

	b.SetBlock(entry)
	b.Br(loop)

	b.SetBlock(loop)
	i := b.Phi("i", ir.I32,
		ir.PhiIncoming{Pred: entry, Value: ir.Value(ir.I32, "n")},
		ir.PhiIncoming{Pred: loop, Value: ir.Value(ir.I32, "next")})
	next := b.BinOp("next", ir.OpSub, i, ir.Const(ir.I32, 1))
	done := b.ICmp("done", ir.PredEQ, next, ir.Const(ir.I32, 0))
	b.CondBr(done, exit, loop)

	b.SetBlock(exit)
	b.Ret(next)
	return b.Func()
}

func TestCompute_Countdown(t *testing.T) {
	res := Compute(countdown())

	if got := res.LiveIn(0); !reflect.DeepEqual(got, []string{"n"}) {
		t.Errorf("live-in entry = %v", got)
	}
	if got := res.LiveIn(1); !reflect.DeepEqual(got, []string{"i"}) {
		t.Errorf("live-in loop = %v", got)
	}
	if got := res.LiveOut(1); !reflect.DeepEqual(got, []string{"i", "next"}) {
		t.Errorf("live-out loop = %v", got)
	}
	// n is dead once entry has written the phi.
	if got := res.NullableAfter(0); !reflect.DeepEqual(got, []string{"n"}) {
		t.Errorf("nullable after entry = %v", got)
	}
	// done never leaves the loop block.
	if got := res.NullableAfter(1); !reflect.DeepEqual(got, []string{"done"}) {
		t.Errorf("nullable after loop = %v", got)
	}
	// i is live out of the loop only toward the back edge.
	if got := res.NullableBefore(2); !reflect.DeepEqual(got, []string{"i"}) {
		t.Errorf("nullable before exit = %v", got)
	}
	if got := res.NullableAfter(2); !reflect.DeepEqual(got, []string{"next"}) {
		t.Errorf("nullable after exit = %v", got)
	}
}

func TestCompute_StraightLine(t *testing.T) {
	b := ir.NewBuilder("f", ir.I32, &ir.Param{Name: "a", Type: ir.I32})
	b.Block("entry")
	x := b.BinOp("x", ir.OpAdd, ir.Value(ir.I32, "a"), ir.Const(ir.I32, 1))
	b.Ret(x)

	res := Compute(b.Func())
	if got := res.NullableBefore(0); len(got) != 0 {
		t.Errorf("entry has no predecessors, got %v", got)
	}
	if got := res.NullableAfter(0); !reflect.DeepEqual(got, []string{"a", "x"}) {
		t.Errorf("nullable after = %v", got)
	}
}
