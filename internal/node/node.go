// Package node holds the executable form of a lowered function: blocks of
// statement nodes ending in control nodes, loop regions, and the callable
// that binds them to a frame layout.
//
// Internal-consistency violations panic with a *fault.Fault; exceptions
// raised by the program travel as *eh.Exception errors.
package node

import (
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/memory"
)

// Return is the successor index a control node yields when the function
// returns.
const Return = -1

// Expr computes a value from the frame.
type Expr interface {
	Eval(fr *frame.Frame) frame.Value
}

// Stmt executes one instruction. The only error it returns is an in-flight
// exception.
type Stmt interface {
	Exec(fr *frame.Frame) error
}

// Control ends a block. It performs the edge copies for the chosen
// successor and returns its index, or Return.
type Control interface {
	Next(fr *frame.Frame) (int, error)
}

// Runner is anything the block dispatcher can execute at a block index.
type Runner interface {
	Run(fr *frame.Frame) (int, error)
}

// Function is a call target. args[0] is the caller's stack pointer.
type Function interface {
	Name() string
	Invoke(args []frame.Value) (frame.Value, error)
}

// Resolver finds call targets by name.
type Resolver interface {
	Resolve(name string) (Function, error)
}

func mustMem(err error) {
	if err != nil {
		panic(fault.Wrap(fault.MemoryAccess, err))
	}
}

// readTyped loads a scalar of kind k and byte size n from a.
func readTyped(mem *memory.Memory, a memory.Address, k frame.Kind, n int) frame.Value {
	if k == frame.KindAddress {
		p, err := mem.GetAddress(a)
		mustMem(err)
		return frame.Addr(p)
	}
	bits, err := mem.GetUint(a, n)
	mustMem(err)
	return frame.Int(k, int64(bits))
}

func writeTyped(mem *memory.Memory, a memory.Address, v frame.Value, n int) {
	mustMem(mem.PutUint(a, n, v.Uint()))
}
