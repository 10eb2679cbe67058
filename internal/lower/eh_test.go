package lower

import (
	"context"
	"errors"
	"testing"

	"irlower/internal/eh"
	"irlower/internal/ir"
)

func typeInfos() []*ir.Global {
	return []*ir.Global{
		{Name: "TypeA", Type: ir.Ptr, TypeInfo: true},
		{Name: "TypeB", Type: ir.Ptr, TypeInfo: true},
		{Name: "Sub", Type: ir.Ptr, TypeInfo: true, Bases: []string{"TypeA"}},
	}
}

// guarded throws thrown inside an invoke and returns the selector its
// landing pad computes, or 99 when nothing is thrown.
func guarded(name, thrown string, cleanup bool, clauses ...ir.LandingpadClause) *ir.Func {
	b := ir.NewBuilder(name, ir.I32)
	entry, normal, pad := b.Block("entry"), b.Block("normal"), b.Block("pad")
	b.SetBlock(entry)
	if thrown == "" {
		b.Invoke("", ir.Void, "nothrow", normal, pad)
	} else {
		b.Invoke("", ir.Void, BuiltinThrow, normal, pad, ir.GlobalAddr(thrown))
	}
	b.SetBlock(normal)
	b.Ret(ir.Const(ir.I32, 99))
	b.SetBlock(pad)
	lp := b.Landingpad("lp", cleanup, clauses...)
	b.Ret(b.ExtractValue("sel", lp, 1))
	return b.Func()
}

func nothrow() *ir.Func {
	b := ir.NewBuilder("nothrow", ir.Void)
	b.Block("entry")
	b.RetVoid()
	return b.Func()
}

func TestLandingpad_Selectors(t *testing.T) {
	p := program(t, DefaultOptions(), typeInfos(),
		nothrow(),
		guarded("catchA", "TypeA", false, ir.CatchClause(ir.GlobalAddr("TypeA"))),
		guarded("catchSub", "Sub", false, ir.CatchClause(ir.GlobalAddr("TypeB")), ir.CatchClause(ir.GlobalAddr("TypeA"))),
		guarded("catchAll", "TypeB", false, ir.CatchClause(ir.Null())),
		guarded("emptyFilter", "TypeA", false, ir.FilterClause()),
		guarded("allowedFilter", "Sub", true, ir.FilterClause(ir.GlobalAddr("TypeA"))),
		guarded("cleanupOnly", "TypeB", true, ir.CatchClause(ir.GlobalAddr("TypeA"))),
		guarded("noThrow", "", true),
	)
	addrA, _ := p.Context.GlobalAddr("TypeA")

	cases := []struct {
		fn   string
		want int64
	}{
		{"catchA", int64(addrA)},
		{"catchSub", int64(addrA)},
		{"catchAll", 1},
		{"emptyFilter", -1},
		{"allowedFilter", 0},
		{"cleanupOnly", 0},
		{"noThrow", 99},
	}
	for _, tc := range cases {
		t.Run(tc.fn, func(t *testing.T) {
			if got := run(t, p, tc.fn); got != tc.want {
				t.Errorf("%s() = %d, want %d", tc.fn, got, tc.want)
			}
		})
	}
}

func TestLandingpad_UnmatchedExceptionPropagates(t *testing.T) {
	p := program(t, DefaultOptions(), typeInfos(),
		guarded("miss", "TypeA", false, ir.CatchClause(ir.GlobalAddr("TypeB"))))

	_, err := p.Run(context.Background(), "miss")
	var exc *eh.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected exception, got %v", err)
	}
	if exc.Name != "TypeA" {
		t.Errorf("exception type = %s, want TypeA", exc.Name)
	}
}

func TestLandingpad_CleanupResumes(t *testing.T) {
	b := ir.NewBuilder("cleanup", ir.I32)
	entry, normal, pad := b.Block("entry"), b.Block("normal"), b.Block("pad")
	b.SetBlock(entry)
	b.Invoke("", ir.Void, BuiltinThrow, normal, pad, ir.GlobalAddr("TypeB"))
	b.SetBlock(normal)
	b.Ret(ir.Const(ir.I32, 0))
	b.SetBlock(pad)
	b.Resume(b.Landingpad("lp", true))

	// The caller catches what the cleanup pad resumed.
	c := ir.NewBuilder("outer", ir.I32)
	ce, cn, cp := c.Block("entry"), c.Block("normal"), c.Block("pad")
	c.SetBlock(ce)
	v := c.Invoke("v", ir.I32, "cleanup", cn, cp)
	c.SetBlock(cn)
	c.Ret(v)
	c.SetBlock(cp)
	lp := c.Landingpad("lp", false, ir.CatchClause(ir.GlobalAddr("TypeB")))
	c.Ret(c.ExtractValue("sel", lp, 1))

	p := program(t, DefaultOptions(), typeInfos(), b.Func(), c.Func())
	_, err := p.Run(context.Background(), "cleanup")
	var exc *eh.Exception
	if !errors.As(err, &exc) || exc.Name != "TypeB" {
		t.Fatalf("resume raised %v", err)
	}
	addrB, _ := p.Context.GlobalAddr("TypeB")
	if got := run(t, p, "outer"); got != int64(addrB) {
		t.Errorf("outer() = %d, want %d", got, addrB)
	}
}

func TestLandingpad_ItaniumThrowAndCatch(t *testing.T) {
	// Throws an i32 object of type Sub, catches it as TypeA and returns
	// the payload plus whether the thrown type is Sub.
	b := ir.NewBuilder("cxx", ir.I32)
	entry, normal, pad := b.Block("entry"), b.Block("normal"), b.Block("pad")
	b.SetBlock(entry)
	obj := b.Call("obj", ir.Ptr, "__cxa_allocate_exception", ir.Const(ir.I64, 4))
	b.Store(ir.Const(ir.I32, 7), obj)
	b.Invoke("", ir.Void, "__cxa_throw", normal, pad, obj, ir.GlobalAddr("Sub"), ir.Null())
	b.SetBlock(normal)
	b.Ret(ir.Const(ir.I32, 0))
	b.SetBlock(pad)
	lp := b.Landingpad("lp", false, ir.CatchClause(ir.GlobalAddr("TypeA")))
	hdr := b.ExtractValue("hdr", lp, 0)
	sel := b.ExtractValue("sel", lp, 1)
	want := b.Call("want", ir.I32, "llvm.eh.typeid.for", ir.GlobalAddr("TypeA"))
	matched := b.ICmp("matched", ir.PredEQ, sel, want)
	caught := b.Call("caught", ir.Ptr, "__cxa_begin_catch", hdr)
	payload := b.Load("payload", ir.I32, caught)
	typ := b.Call("typ", ir.Ptr, BuiltinExceptionType, caught)
	isSub := b.ICmp("isSub", ir.PredEQ, typ, ir.GlobalAddr("Sub"))
	b.Call("", ir.Void, "__cxa_end_catch")
	sum := b.BinOp("sum", ir.OpAdd, payload, b.Call("m", ir.I32, "widen", matched))
	b.Ret(b.BinOp("r", ir.OpAdd, sum, b.Call("s", ir.I32, "widen", isSub)))

	// widen(i1) returns 10 for true.
	w := ir.NewBuilder("widen", ir.I32, &ir.Param{Name: "b", Type: ir.I1})
	we, wt, wf := w.Block("entry"), w.Block("yes"), w.Block("no")
	w.SetBlock(we)
	w.CondBr(ir.Value(ir.I1, "b"), wt, wf)
	w.SetBlock(wt)
	w.Ret(ir.Const(ir.I32, 10))
	w.SetBlock(wf)
	w.Ret(ir.Const(ir.I32, 0))

	p := program(t, DefaultOptions(), typeInfos(), b.Func(), w.Func())
	if got := run(t, p, "cxx"); got != 27 {
		t.Errorf("cxx() = %d, want 27", got)
	}
}
