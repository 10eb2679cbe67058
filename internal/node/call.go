package node

import (
	"errors"
	"sync"

	"irlower/internal/eh"
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/ir"
)

// Builtin is a host-implemented call target. It does not see the stack
// pointer.
type Builtin struct {
	Label string
	Fn    func(fr *frame.Frame, args []frame.Value) (frame.Value, error)
}

func (b *Builtin) Name() string { return b.Label }

// Invoke runs the builtin without a caller frame.
func (b *Builtin) Invoke(args []frame.Value) (frame.Value, error) {
	return b.Fn(nil, args[1:])
}

// Target resolves a callee on first use and remembers the answer.
type Target struct {
	Callee  string
	resolve func() (Function, error)
}

// NewTarget returns a lazily resolved call target.
func NewTarget(r Resolver, callee string) *Target {
	return &Target{
		Callee: callee,
		resolve: sync.OnceValues(func() (Function, error) {
			return r.Resolve(callee)
		}),
	}
}

// call evaluates args and calls the target. When out is an aggregate the
// caller allocates the result, passes it as the hidden first argument and
// yields its address.
func (t *Target) call(fr *frame.Frame, sp *frame.Slot, out *ir.Type, args []Expr) (frame.Value, error) {
	fn, err := t.resolve()
	if err != nil {
		if f, ok := fault.As(err); ok {
			panic(f)
		}
		panic(fault.Wrap(fault.Unresolved, err))
	}
	vals := make([]frame.Value, 0, len(args)+2)
	vals = append(vals, fr.Get(sp))
	var ret frame.Value
	if out.IsAggregate() {
		ret = frame.Addr(fr.Alloc(out.Size(), out.Align(), "result of @"+t.Callee))
		vals = append(vals, ret)
	}
	for _, a := range args {
		vals = append(vals, a.Eval(fr))
	}
	var v frame.Value
	if b, ok := fn.(*Builtin); ok {
		v, err = b.Fn(fr, vals[1:])
	} else {
		v, err = fn.Invoke(vals)
	}
	if err != nil || !out.IsAggregate() {
		return v, err
	}
	return ret, nil
}

// exception separates program exceptions from faults reported by a
// callee. Faults are re-raised in the caller.
func exception(err error) *eh.Exception {
	var exc *eh.Exception
	if errors.As(err, &exc) {
		return exc
	}
	if f, ok := fault.As(err); ok {
		panic(f)
	}
	panic(fault.Wrap(fault.Malformed, err))
}

// Call calls a function and stores its result in Slot when non-nil.
type Call struct {
	Slot   *frame.Slot
	Target *Target
	SP     *frame.Slot
	Result *ir.Type
	Args   []Expr
}

func (c *Call) Exec(fr *frame.Frame) error {
	v, err := c.Target.call(fr, c.SP, c.Result, c.Args)
	if err != nil {
		return exception(err)
	}
	if c.Slot != nil {
		fr.Set(c.Slot, v)
	}
	return nil
}

// Invoke calls a function and continues at Normal, or stores the raised
// exception in the exception slot and continues at Unwind.
type Invoke struct {
	Slot      *frame.Slot
	Target    *Target
	SP        *frame.Slot
	Result    *ir.Type
	Args      []Expr
	Exception *frame.Slot
	Normal    int
	Unwind    int
	Edges
}

func (i *Invoke) Next(fr *frame.Frame) (int, error) {
	v, err := i.Target.call(fr, i.SP, i.Result, i.Args)
	if err != nil {
		fr.Set(i.Exception, frame.Object(exception(err)))
		return i.jump(fr, i.Unwind), nil
	}
	if i.Slot != nil {
		fr.Set(i.Slot, v)
	}
	return i.jump(fr, i.Normal), nil
}
