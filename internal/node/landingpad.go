package node

import (
	"irlower/internal/eh"
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

// Clause is a landing pad clause whose type operands are evaluated on
// each dispatch.
type Clause struct {
	Kind  eh.ClauseKind
	Types []Expr
}

// Landingpad evaluates clauses against the exception held in the
// exception slot. On a match, or always for cleanup pads, Slot receives
// the address of the (unwind header, selector) pair. Otherwise the
// exception keeps unwinding.
type Landingpad struct {
	Slot      *frame.Slot
	Exception *frame.Slot
	Clauses   []Clause
	Cleanup   bool
	Runtime   eh.Runtime
}

func (l *Landingpad) Exec(fr *frame.Frame) error {
	exc, ok := fr.GetAs(l.Exception, frame.KindObject).Obj.(*eh.Exception)
	if !ok {
		fault.Raise(fault.Malformed, "landing pad reached without an exception")
	}
	clauses := make([]eh.Clause, len(l.Clauses))
	for i, c := range l.Clauses {
		clauses[i].Kind = c.Kind
		clauses[i].Types = make([]memory.Address, len(c.Types))
		for j, t := range c.Types {
			clauses[i].Types[j] = t.Eval(fr).Addr()
		}
	}
	storage := fr.Alloc(ir.LandingpadType.Size(), ir.LandingpadType.Align(), "landingpad %"+l.Slot.Name)
	res, err := eh.Dispatch(l.Runtime, fr.Mem, exc, clauses, l.Cleanup, storage)
	if err != nil {
		return err
	}
	fr.Set(l.Slot, frame.Addr(res))
	return nil
}
