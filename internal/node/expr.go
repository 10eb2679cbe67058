package node

import (
	"fmt"

	"irlower/internal/fault"
	"irlower/internal/frame"
)

// Const yields a fixed value.
type Const struct {
	V frame.Value
}

func (c *Const) Eval(*frame.Frame) frame.Value { return c.V }
func (c *Const) String() string                { return c.V.String() }

// Read yields the value of a frame slot.
type Read struct {
	Slot *frame.Slot
}

func (r *Read) Eval(fr *frame.Frame) frame.Value { return fr.Get(r.Slot) }
func (r *Read) String() string                   { return "%" + r.Slot.Name }

// ArgRead yields incoming argument Index.
type ArgRead struct {
	Index int
	Kind  frame.Kind
}

func (a *ArgRead) Eval(fr *frame.Frame) frame.Value {
	if a.Index >= len(fr.Args) {
		fault.Raise(fault.Malformed, "argument %d read, %d passed", a.Index, len(fr.Args))
	}
	v := fr.Args[a.Index]
	if v.Kind != a.Kind {
		fault.Raise(fault.SlotAccess, "argument %d is %s, declared %s", a.Index, v.Kind, a.Kind)
	}
	return v
}

func (a *ArgRead) String() string { return fmt.Sprintf("arg%d", a.Index) }
