package ir_test

import (
	"slices"
	"testing"

	"irlower/internal/ir"
)

// cfg builds a function whose block i branches to edges[i].
func cfg(edges ...[]int) *ir.Func {
	f := &ir.Func{Name: "cfg", Result: ir.Void}
	for i, succ := range edges {
		bb := ir.Block{Index: i}
		switch len(succ) {
		case 0:
			bb.Term = ir.Terminator{Kind: ir.TermRet}
		case 1:
			bb.Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: succ[0]}}
		case 2:
			bb.Term = ir.Terminator{Kind: ir.TermCondBr, CondBr: ir.CondBrTerm{Cond: ir.Const(ir.I1, 1), Then: succ[0], Else: succ[1]}}
		default:
			sw := ir.SwitchTerm{Value: ir.Const(ir.I32, 0), Default: succ[0]}
			for j, t := range succ[1:] {
				sw.Cases = append(sw.Cases, ir.SwitchCase{Value: int64(j), Target: t})
			}
			bb.Term = ir.Terminator{Kind: ir.TermSwitch, Switch: sw}
		}
		f.Blocks = append(f.Blocks, bb)
	}
	return f
}

func TestFindLoops_Acyclic(t *testing.T) {
	// Diamond with a forward edge that looks backward by index: 0->2, 2->1, 1->3.
	f := cfg([]int{2}, []int{3}, []int{1}, nil)
	if loops := ir.FindLoops(f); len(loops) != 0 {
		t.Fatalf("expected no loops, got %v", loops)
	}

	diamond := cfg([]int{1, 2}, []int{3}, []int{3}, nil)
	if loops := ir.FindLoops(diamond); len(loops) != 0 {
		t.Fatalf("expected no loops in diamond, got %v", loops)
	}
}

func TestFindLoops_SelfEdge(t *testing.T) {
	f := cfg([]int{1}, []int{1, 2}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %v", loops)
	}
	if loops[0].Header != 1 || !slices.Equal(loops[0].Body, []int{1}) {
		t.Errorf("expected loop {1}, got %+v", loops[0])
	}
}

func TestFindLoops_TwoBlockCycle(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, 2 -> 3
	f := cfg([]int{1}, []int{2}, []int{1, 3}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %v", loops)
	}
	l := loops[0]
	if l.Header != 1 {
		t.Errorf("expected header 1, got %d", l.Header)
	}
	if !slices.Equal(l.Body, []int{1, 2}) {
		t.Errorf("expected body [1 2], got %v", l.Body)
	}
}

func TestFindLoops_MultipleBackEdgesOneHeader(t *testing.T) {
	// 1 is entered back from both 3 and 4.
	f := cfg([]int{1}, []int{2}, []int{3, 4}, []int{1}, []int{1, 5}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %v", loops)
	}
	got := slices.Clone(loops[0].Body)
	slices.Sort(got)
	if loops[0].Header != 1 || !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("unexpected loop %+v", loops[0])
	}
}

func TestFindLoops_Nested(t *testing.T) {
	// outer: 1..4, inner: 2..3
	f := cfg([]int{1}, []int{2}, []int{3}, []int{2, 4}, []int{1, 5}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 2 {
		t.Fatalf("expected 2 loops, got %v", loops)
	}
	if loops[0].Header != 1 || loops[1].Header != 2 {
		t.Fatalf("unexpected headers: %+v", loops)
	}
	inner := slices.Clone(loops[1].Body)
	slices.Sort(inner)
	if !slices.Equal(inner, []int{2, 3}) {
		t.Errorf("inner body = %v", loops[1].Body)
	}
	// The outer body keeps the inner blocks; nesting is not separated.
	for _, b := range []int{1, 2, 3, 4} {
		if !loops[0].Contains(b) {
			t.Errorf("outer loop missing bb%d: %v", b, loops[0].Body)
		}
	}
}

func TestFindLoops_NestedHeaderExit(t *testing.T) {
	// for/while nesting: the inner loop 2..3 leaves from its header.
	// 0 -> 1; 1 -> 2|5; 2 -> 3|4; 3 -> 2; 4 -> 1
	f := cfg([]int{1}, []int{2, 5}, []int{3, 4}, []int{2}, []int{1}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 2 || loops[0].Header != 1 || loops[1].Header != 2 {
		t.Fatalf("unexpected loops: %+v", loops)
	}
	outer := slices.Clone(loops[0].Body)
	slices.Sort(outer)
	if !slices.Equal(outer, []int{1, 2, 3, 4}) {
		t.Errorf("outer body = %v, want the inner blocks included", loops[0].Body)
	}
	if loops[0].Body[0] != 1 {
		t.Errorf("outer body does not start with its header: %v", loops[0].Body)
	}
	inner := slices.Clone(loops[1].Body)
	slices.Sort(inner)
	if !slices.Equal(inner, []int{2, 3}) {
		t.Errorf("inner body = %v", loops[1].Body)
	}
}

func TestFindLoops_UnreachableCycle(t *testing.T) {
	// 2 <-> 3 is never reached from the entry block.
	f := cfg(nil, nil, []int{3}, []int{2})
	loops := ir.FindLoops(f)
	if len(loops) != 1 || loops[0].Header != 2 {
		t.Fatalf("expected loop headed at 2, got %v", loops)
	}
}

func TestFindLoops_IrreducibleEntry(t *testing.T) {
	// 0 enters the 1<->2 cycle at both blocks.
	f := cfg([]int{1, 2}, []int{2}, []int{1, 3}, nil)
	loops := ir.FindLoops(f)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %v", loops)
	}
	if loops[0].Header != 1 || len(loops[0].Body) != 2 {
		t.Errorf("unexpected loop %+v", loops[0])
	}
}

func TestFuncLoops_Cached(t *testing.T) {
	f := cfg([]int{1}, []int{1, 2}, nil)
	first := f.Loops()
	first[0].Body[0] = 99
	second := f.Loops()
	if second[0].Body[0] != 1 {
		t.Fatalf("cached loops were mutated through a returned copy: %v", second)
	}
}

func TestFindLoops_LargeChainDoesNotRecurse(t *testing.T) {
	const n = 200000
	edges := make([][]int, n)
	for i := 0; i < n-1; i++ {
		edges[i] = []int{i + 1}
	}
	edges[n-1] = []int{0}
	loops := ir.FindLoops(cfg(edges...))
	if len(loops) != 1 || len(loops[0].Body) != n {
		t.Fatalf("expected one loop over all %d blocks", n)
	}
	if loops[0].Header != 0 {
		t.Errorf("header = %d", loops[0].Header)
	}
}
