package eh

import (
	"errors"
	"testing"

	"irlower/internal/fault"
	"irlower/internal/memory"
)

type fixture struct {
	mem  *memory.Memory
	reg  *Registry
	base memory.Address
	sub  memory.Address
	othr memory.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	reg := NewRegistry(mem)
	base := reg.Define("Base")
	sub := reg.Define("Sub", base)
	othr := reg.Define("Other")
	return &fixture{mem: mem, reg: reg, base: base, sub: sub, othr: othr}
}

func (f *fixture) throw(t *testing.T, typ memory.Address) *Exception {
	t.Helper()
	exc, err := f.reg.Throw(typ)
	if err != nil {
		t.Fatal(err)
	}
	return exc
}

func (f *fixture) storage() memory.Address { return f.mem.Alloc(16, 8, "lp") }

func readPair(t *testing.T, mem *memory.Memory, at memory.Address) (memory.Address, int32) {
	t.Helper()
	hdr, err := mem.GetAddress(at)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := mem.GetI32(at.Add(8))
	if err != nil {
		t.Fatal(err)
	}
	return hdr, sel
}

func TestCatchAll_AlwaysSelectsOne(t *testing.T) {
	f := newFixture(t)
	for _, typ := range []memory.Address{f.base, f.sub, f.othr} {
		if sel := Catch(memory.Null).Evaluate(f.reg, typ); sel != 1 {
			t.Errorf("catch-all for %s = %d, want 1", f.reg.Name(typ), sel)
		}
	}
}

func TestCatch_MatchYieldsTypeAddress(t *testing.T) {
	f := newFixture(t)
	if sel := Catch(f.base).Evaluate(f.reg, f.sub); sel != int32(f.base) {
		t.Errorf("catch Base for Sub = %d, want %d", sel, f.base)
	}
	if sel := Catch(f.sub).Evaluate(f.reg, f.base); sel != 0 {
		t.Errorf("catch Sub for Base = %d, want 0", sel)
	}
}

func TestFilter_Selectors(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		clause Clause
		want   int32
	}{
		{"empty", Filter(), -1},
		{"wildcard", Filter(f.othr, memory.Null), 0},
		{"matching", Filter(f.base), 0},
		{"excluded", Filter(f.othr), -1},
	}
	for _, tc := range cases {
		if got := tc.clause.Evaluate(f.reg, f.sub); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDispatch_FirstNonZeroWins(t *testing.T) {
	f := newFixture(t)
	exc := f.throw(t, f.sub)
	at := f.storage()
	clauses := []Clause{Catch(f.othr), Filter(), Catch(memory.Null)}
	res, err := Dispatch(f.reg, f.mem, exc, clauses, false, at)
	if err != nil {
		t.Fatal(err)
	}
	hdr, sel := readPair(t, f.mem, res)
	if res != at || sel != -1 || hdr != exc.Info.Add(-HeaderSize) {
		t.Errorf("got %s (%s, %d)", res, hdr, sel)
	}
}

func TestDispatch_NoMatchRethrowsSameException(t *testing.T) {
	f := newFixture(t)
	exc := f.throw(t, f.othr)
	_, err := Dispatch(f.reg, f.mem, exc, []Clause{Catch(f.base), Filter(memory.Null)}, false, f.storage())
	var got *Exception
	if !errors.As(err, &got) || got != exc {
		t.Fatalf("expected the original exception, got %v", err)
	}
}

func TestDispatch_CleanupReturnsZeroSelector(t *testing.T) {
	f := newFixture(t)
	exc := f.throw(t, f.othr)
	at := f.storage()
	res, err := Dispatch(f.reg, f.mem, exc, []Clause{Catch(f.base)}, true, at)
	if err != nil {
		t.Fatal(err)
	}
	hdr, sel := readPair(t, f.mem, res)
	if hdr != exc.Info.Add(-HeaderSize) || sel != 0 {
		t.Errorf("cleanup pair = (%s, %d)", hdr, sel)
	}
	if thrown, _ := f.reg.ThrownType(hdr); thrown != f.othr {
		t.Errorf("header does not name the thrown type: %s", thrown)
	}
}

func TestDispatch_UnknownCatchTypeFaults(t *testing.T) {
	f := newFixture(t)
	exc := f.throw(t, f.sub)
	defer func() {
		r, ok := recover().(*fault.Fault)
		if !ok || r.Code != fault.TypeInfo {
			t.Fatalf("expected type info fault, got %v", r)
		}
	}()
	_, _ = Dispatch(f.reg, f.mem, exc, []Clause{Catch(0x42)}, false, f.storage())
}

func TestRegistry_DefineIsIdempotent(t *testing.T) {
	f := newFixture(t)
	if again := f.reg.Define("Base"); again != f.base {
		t.Errorf("redefinition allocated %s, want %s", again, f.base)
	}
	if _, err := f.reg.Throw(0x10); err == nil {
		t.Error("expected error throwing an unknown type")
	}
	if _, err := f.reg.UnwindHeader(0x10); err == nil {
		t.Error("expected error for a non-exception info pointer")
	}
}
