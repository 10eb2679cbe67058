package memory

import (
	"errors"
	"testing"
)

func TestMemory_PutGet(t *testing.T) {
	m := New()
	a := m.Alloc(16, 8, "pair")
	if a%8 != 0 {
		t.Fatalf("allocation %s not 8-aligned", a)
	}
	if err := m.PutAddress(a, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if err := m.PutI32(a.Add(8), -1); err != nil {
		t.Fatal(err)
	}
	p, err := m.GetAddress(a)
	if err != nil || p != 0xdeadbeef {
		t.Fatalf("GetAddress = %s, %v", p, err)
	}
	sel, err := m.GetI32(a.Add(8))
	if err != nil || sel != -1 {
		t.Fatalf("GetI32 = %d, %v", sel, err)
	}
}

func TestMemory_Faults(t *testing.T) {
	m := New()
	a := m.Alloc(4, 4, "word")

	var merr *Error
	if _, err := m.GetI64(a); !errors.As(err, &merr) {
		t.Errorf("expected out of bounds error, got %v", err)
	}
	if _, err := m.GetI32(Null); !errors.As(err, &merr) {
		t.Errorf("expected null pointer error, got %v", err)
	}
	if err := m.Free(a); err != nil {
		t.Fatal(err)
	}
	if err := m.Free(a); err == nil {
		t.Error("expected double free error")
	}
	if _, err := m.GetI32(a); err == nil {
		t.Error("expected use after free error")
	}
	allocs, frees := m.Stats()
	if allocs != 1 || frees != 1 {
		t.Errorf("stats = %d/%d", allocs, frees)
	}
}

func TestMemory_Copy(t *testing.T) {
	m := New()
	src := m.Alloc(8, 8, "src")
	dst := m.Alloc(8, 8, "dst")
	if err := m.PutI64(src, 42); err != nil {
		t.Fatal(err)
	}
	if err := m.Copy(dst, src, 8); err != nil {
		t.Fatal(err)
	}
	if err := m.PutI64(src, 7); err != nil {
		t.Fatal(err)
	}
	v, err := m.GetI64(dst)
	if err != nil || v != 42 {
		t.Fatalf("copy not independent: %d, %v", v, err)
	}
}
