package frame

import (
	"testing"

	"irlower/internal/fault"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

func expectSlotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		f, ok := r.(*fault.Fault)
		if !ok || f.Code != fault.SlotAccess {
			t.Fatalf("expected slot access fault, got %v", r)
		}
	}()
	fn()
}

func TestDescriptor_AddAndFreeze(t *testing.T) {
	d := NewDescriptor()
	a, err := d.Add("a", KindI32)
	if err != nil {
		t.Fatal(err)
	}
	again, err := d.Add("a", KindI32)
	if err != nil || again != a {
		t.Fatalf("re-adding same slot: %v, %v", again, err)
	}
	if _, err := d.Add("a", KindI64); err == nil {
		t.Error("expected kind conflict error")
	}
	d.Freeze()
	if _, err := d.Add("b", KindI64); err == nil {
		t.Error("expected frozen layout error")
	}
	if d.Len() != 1 || d.Find("a") != a {
		t.Errorf("unexpected layout %v", d.Slots())
	}
}

func TestFrame_TypedAccess(t *testing.T) {
	d := NewDescriptor()
	s, _ := d.Add("x", KindOf(ir.I32))
	f := d.NewFrame(nil, nil)

	expectSlotPanic(t, func() { f.Get(s) })
	f.Set(s, I32(-5))
	if got := f.GetAs(s, KindI32).Int(); got != -5 {
		t.Errorf("got %d", got)
	}
	expectSlotPanic(t, func() { f.GetAs(s, KindI64) })
	expectSlotPanic(t, func() { f.Set(s, I64(1)) })

	f.Clear(s)
	expectSlotPanic(t, func() { f.Get(s) })
}

func TestValue_IntTruncation(t *testing.T) {
	if v := Int(KindI8, 255); v.Int() != -1 {
		t.Errorf("i8 255 = %d", v.Int())
	}
	if v := Int(KindI1, 3); v.Int() != 1 {
		t.Errorf("i1 3 = %d", v.Int())
	}
	if v := I32(-1); v.Uint() != 0xffffffff {
		t.Errorf("i32 -1 bits = %x", v.Uint())
	}
}

func TestKindOf(t *testing.T) {
	cases := map[*ir.Type]Kind{
		ir.I1:                  KindI1,
		ir.I32:                 KindI32,
		ir.I64:                 KindI64,
		ir.Ptr:                 KindAddress,
		ir.LandingpadType:      KindAddress,
		ir.ArrayOf(4, ir.I8):   KindAddress,
		ir.Void:                KindIllegal,
		ir.IntType(24):         KindI32,
	}
	for typ, want := range cases {
		if got := KindOf(typ); got != want {
			t.Errorf("KindOf(%s) = %s, want %s", typ, got, want)
		}
	}
}

func TestFrame_ReleaseFreesAllocations(t *testing.T) {
	mem := memory.New()
	f := NewDescriptor().NewFrame(mem, nil)
	a := f.Alloc(8, 8, "local")
	if err := mem.PutI64(a, 1); err != nil {
		t.Fatal(err)
	}
	if err := f.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := mem.GetI64(a); err == nil {
		t.Error("expected use after free once the frame is released")
	}
}
