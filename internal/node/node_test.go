package node

import (
	"errors"
	"testing"

	"irlower/internal/eh"
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

func TestEdges_ParallelCopy(t *testing.T) {
	d := frame.NewDescriptor()
	a, _ := d.Add("a", frame.KindI32)
	b, _ := d.Add("b", frame.KindI32)
	fr := d.NewFrame(memory.New(), nil)
	fr.Set(a, frame.I32(1))
	fr.Set(b, frame.I32(2))

	br := &Br{Target: 7, Edges: Edges{7: {
		{Slot: a, Value: &Read{Slot: b}},
		{Slot: b, Value: &Read{Slot: a}},
	}}}
	next, err := br.Next(fr)
	if err != nil || next != 7 {
		t.Fatalf("Next = %d, %v", next, err)
	}
	if fr.Get(a).Int() != 2 || fr.Get(b).Int() != 1 {
		t.Errorf("swap produced a=%d b=%d", fr.Get(a).Int(), fr.Get(b).Int())
	}
}

// counter builds: bb0: i=0 -> bb1; bb1: i<limit ? bb2 : bb3; bb2: i++ -> bb1;
// bb3: ret i. The loop {1,2} is patched over bb1.
func counter(limit int64) *Callable {
	d := frame.NewDescriptor()
	sp, _ := d.Add(frame.StackPointerSlot, frame.KindAddress)
	i, _ := d.Add("i", frame.KindI64)
	c, _ := d.Add("c", frame.KindI1)
	d.Freeze()

	blocks := []*BasicBlock{
		{Func: "counter", Index: 0, Stmts: []Stmt{&FrameWrite{Slot: i, Value: &Const{V: frame.I64(0)}}}, Term: &Br{Target: 1}},
		{Func: "counter", Index: 1, Stmts: []Stmt{&ICmp{Slot: c, Pred: ir.PredSLT, X: &Read{Slot: i}, Y: &Const{V: frame.I64(limit)}}},
			Term: &CondBr{Cond: &Read{Slot: c}, Then: 2, Else: 3, Profile: &BranchProfile{}}, NullAfter: []*frame.Slot{c}},
		{Func: "counter", Index: 2, Stmts: []Stmt{&BinOp{Slot: i, Op: ir.OpAdd, X: &Read{Slot: i}, Y: &Const{V: frame.I64(1)}}}, Term: &Br{Target: 1}},
		{Func: "counter", Index: 3, Term: &Ret{Value: &Read{Slot: i}}},
	}
	loop := &Loop{Header: 1, Body: []int{1, 2}, Dispatch: map[int]Runner{1: blocks[1], 2: blocks[2]}}
	body := &FunctionBlock{Blocks: blocks, Loops: []*Loop{loop}, Dispatch: []Runner{blocks[0], loop, blocks[2], blocks[3]}}
	return &Callable{
		Label:    "counter",
		Layout:   d,
		Prologue: []Stmt{&FrameWrite{Slot: sp, Value: &ArgRead{Index: 0, Kind: frame.KindAddress}}},
		Body:     body,
		Mem:      memory.New(),
	}
}

func TestCallable_LoopRegion(t *testing.T) {
	c := counter(5)
	v, err := c.Call(frame.Addr(0x100))
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 5 {
		t.Errorf("result = %d, want 5", v.Int())
	}
	prof := c.Body.Blocks[1].Term.(*CondBr).Profile
	if prof.Taken.Load() != 5 || prof.NotTaken.Load() != 1 {
		t.Errorf("profile = %d/%d", prof.Taken.Load(), prof.NotTaken.Load())
	}
	if c.Calls() != 1 {
		t.Errorf("calls = %d", c.Calls())
	}
}

func TestCallable_FaultIsLocated(t *testing.T) {
	c := counter(1)
	c.Body.Blocks[3].Term = Unreachable{}
	c.Body.Dispatch[3] = c.Body.Blocks[3]
	_, err := c.Call(frame.Addr(0x100))
	f, ok := fault.As(err)
	if !ok || f.Code != fault.Unreachable || f.Func != "counter" || f.Block != 3 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCallable_MissingArgumentFaults(t *testing.T) {
	_, err := counter(1).Call()
	if f, ok := fault.As(err); !ok || f.Code != fault.Malformed {
		t.Fatalf("expected malformed fault, got %v", err)
	}
}

func TestResume_RaisesStoredException(t *testing.T) {
	d := frame.NewDescriptor()
	exc, _ := d.Add(frame.ExceptionSlot, frame.KindObject)
	fr := d.NewFrame(memory.New(), nil)
	want := &eh.Exception{Info: 0x2000}
	fr.Set(exc, frame.Object(want))

	_, err := (&Resume{Exception: exc}).Next(fr)
	var got *eh.Exception
	if !errors.As(err, &got) || got != want {
		t.Fatalf("resume raised %v", err)
	}
}
