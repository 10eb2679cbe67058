package lower

import (
	"fortio.org/safecast"

	"irlower/internal/eh"
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/memory"
	"irlower/internal/node"
)

// Builtin names understood by every module.
const (
	BuiltinThrow         = "__irl_throw"
	BuiltinExceptionType = "__irl_exception_type"
)

func (c *Context) addBuiltin(name string, fn func(fr *frame.Frame, args []frame.Value) (frame.Value, error)) {
	c.builtins[name] = &node.Builtin{Label: name, Fn: fn}
}

func argc(name string, args []frame.Value, n int) {
	if len(args) < n {
		fault.Raise(fault.Malformed, "@%s needs %d arguments, got %d", name, n, len(args))
	}
}

func (c *Context) registerBuiltins() {
	reg := c.Types

	// __irl_throw(ptr typeinfo) raises a fresh exception of that type.
	c.addBuiltin(BuiltinThrow, func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc(BuiltinThrow, args, 1)
		exc, err := reg.Throw(args[0].Addr())
		if err != nil {
			return frame.Value{}, fault.Wrap(fault.TypeInfo, err)
		}
		return frame.Value{}, exc
	})

	// __irl_exception_type(ptr info) returns the thrown type info.
	c.addBuiltin(BuiltinExceptionType, func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc(BuiltinExceptionType, args, 1)
		thrown, err := thrownType(reg, args[0])
		if err != nil {
			return frame.Value{}, fault.Wrap(fault.TypeInfo, err)
		}
		return frame.Addr(thrown), nil
	})

	// Itanium C++ ABI entry points emitted by clang.
	c.addBuiltin("__cxa_allocate_exception", func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc("__cxa_allocate_exception", args, 1)
		return frame.Addr(reg.Allocate(int(args[0].Int()))), nil
	})
	c.addBuiltin("__cxa_throw", func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc("__cxa_throw", args, 2)
		exc, err := reg.Raise(args[0].Addr(), args[1].Addr())
		if err != nil {
			return frame.Value{}, fault.Wrap(fault.TypeInfo, err)
		}
		return frame.Value{}, exc
	})
	c.addBuiltin("__cxa_begin_catch", func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc("__cxa_begin_catch", args, 1)
		return frame.Addr(args[0].Addr().Add(eh.HeaderSize)), nil
	})
	c.addBuiltin("__cxa_end_catch", func(*frame.Frame, []frame.Value) (frame.Value, error) {
		return frame.Value{}, nil
	})

	// The selector of a matched catch clause is the type info address.
	typeid := func(_ *frame.Frame, args []frame.Value) (frame.Value, error) {
		argc("llvm.eh.typeid.for", args, 1)
		sel, err := safecast.Conv[int32](uint64(args[0].Addr()))
		if err != nil {
			return frame.Value{}, fault.Wrap(fault.TypeInfo, err)
		}
		return frame.I32(sel), nil
	}
	c.addBuiltin("llvm.eh.typeid.for", typeid)
	c.addBuiltin("llvm.eh.typeid.for.p0", typeid)
}

func thrownType(reg *eh.Registry, info frame.Value) (memory.Address, error) {
	header, err := reg.UnwindHeader(info.Addr())
	if err != nil {
		return memory.Null, err
	}
	return reg.ThrownType(header)
}
