package node

import (
	"irlower/internal/frame"
	"irlower/internal/ir"
)

// Alloca reserves activation-local storage for one value of Type.
type Alloca struct {
	Slot *frame.Slot
	Type *ir.Type
}

func (a *Alloca) Exec(fr *frame.Frame) error {
	addr := fr.Alloc(a.Type.Size(), a.Type.Align(), "alloca %"+a.Slot.Name)
	fr.Set(a.Slot, frame.Addr(addr))
	return nil
}

// Load reads a value of Type. Aggregates are copied into fresh storage and
// yielded by address.
type Load struct {
	Slot *frame.Slot
	Addr Expr
	Type *ir.Type
}

func (l *Load) Exec(fr *frame.Frame) error {
	src := l.Addr.Eval(fr).Addr()
	if l.Type.IsAggregate() {
		dst := fr.Alloc(l.Type.Size(), l.Type.Align(), "load %"+l.Slot.Name)
		mustMem(fr.Mem.Copy(dst, src, l.Type.Size()))
		fr.Set(l.Slot, frame.Addr(dst))
		return nil
	}
	fr.Set(l.Slot, readTyped(fr.Mem, src, l.Slot.Kind, l.Type.Size()))
	return nil
}

// Store writes a value of Type.
type Store struct {
	Value Expr
	Addr  Expr
	Type  *ir.Type
}

func (s *Store) Exec(fr *frame.Frame) error {
	v := s.Value.Eval(fr)
	dst := s.Addr.Eval(fr).Addr()
	if s.Type.IsAggregate() {
		mustMem(fr.Mem.Copy(dst, v.Addr(), s.Type.Size()))
		return nil
	}
	writeTyped(fr.Mem, dst, v, s.Type.Size())
	return nil
}

// ExtractValue reads one element of an aggregate held by address.
type ExtractValue struct {
	Slot   *frame.Slot
	Agg    Expr
	Offset int
	Type   *ir.Type // element type
}

func (e *ExtractValue) Exec(fr *frame.Frame) error {
	at := e.Agg.Eval(fr).Addr().Add(e.Offset)
	if e.Type.IsAggregate() {
		fr.Set(e.Slot, frame.Addr(at))
		return nil
	}
	fr.Set(e.Slot, readTyped(fr.Mem, at, e.Slot.Kind, e.Type.Size()))
	return nil
}

// CopyStructByValue gives a byval parameter its own copy of the caller's
// struct.
type CopyStructByValue struct {
	Slot *frame.Slot
	Arg  Expr
	Type *ir.Type
}

func (c *CopyStructByValue) Exec(fr *frame.Frame) error {
	src := c.Arg.Eval(fr).Addr()
	dst := fr.Alloc(c.Type.Size(), c.Type.Align(), "byval %"+c.Slot.Name)
	mustMem(fr.Mem.Copy(dst, src, c.Type.Size()))
	fr.Set(c.Slot, frame.Addr(dst))
	return nil
}
