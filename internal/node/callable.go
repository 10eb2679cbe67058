package node

import (
	"sync/atomic"

	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

// Callable is a lowered function. Every call gets its own frame over the
// shared, immutable slot layout. Arguments are the caller's stack pointer
// followed by the hidden result pointer, if any, and the parameters.
type Callable struct {
	Label    string
	Layout   *frame.Descriptor
	Prologue []Stmt
	Body     *FunctionBlock
	Result   *ir.Type
	Source   *ir.SourceLocation
	Mem      *memory.Memory

	calls atomic.Uint64
}

func (c *Callable) Name() string { return c.Label }

// Calls returns how many activations were started.
func (c *Callable) Calls() uint64 { return c.calls.Load() }

// Invoke runs one activation. Faults propagate as panics.
func (c *Callable) Invoke(args []frame.Value) (frame.Value, error) {
	c.calls.Add(1)
	fr := c.Layout.NewFrame(c.Mem, args)
	defer func() {
		mustMem(fr.Release())
	}()
	for _, s := range c.Prologue {
		if err := s.Exec(fr); err != nil {
			return frame.Value{}, err
		}
	}
	if err := c.Body.Run(fr); err != nil {
		return frame.Value{}, err
	}
	return fr.Result, nil
}

// Call runs one activation and reports faults as errors. The error is
// either an *eh.Exception that escaped the function or a *fault.Fault.
func (c *Callable) Call(args ...frame.Value) (ret frame.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*fault.Fault)
			if !ok {
				panic(r)
			}
			if f.Func == "" {
				f.Func = c.Label
			}
			ret, err = frame.Value{}, f
		}
	}()
	return c.Invoke(args)
}
