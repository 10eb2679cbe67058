package fault

import (
	"errors"
	"fmt"
)

// Code identifies the kind of internal-consistency fault.
type Code int

// Stable fault codes - do not change values.
const (
	SlotAccess    Code = 1001 // LW1001: frame slot read/written at the wrong kind or while empty
	MemoryAccess  Code = 1002 // LW1002: invalid memory access
	Unreachable   Code = 1003 // LW1003: unreachable executed
	TypeInfo      Code = 1004 // LW1004: exception type query failed
	Malformed     Code = 1005 // LW1005: malformed IR reached execution
	Unresolved    Code = 1006 // LW1006: call to an unknown function
	Arithmetic    Code = 1007 // LW1007: integer division by zero
	Unimplemented Code = 1999 // LW1999: unimplemented operation
)

// String returns the code as "LW1001".
func (c Code) String() string {
	return fmt.Sprintf("LW%d", int(c))
}

// Fault is an unrecoverable violation of an invariant the IR producer or
// the lowering must uphold.
type Fault struct {
	Code    Code
	Message string
	Func    string
	Block   int
	Cause   error
}

func (f *Fault) Error() string {
	where := ""
	if f.Func != "" {
		where = fmt.Sprintf(" in @%s bb%d", f.Func, f.Block)
	}
	return fmt.Sprintf("fault %s%s: %s", f.Code, where, f.Message)
}

func (f *Fault) Unwrap() error { return f.Cause }

// New builds a fault.
func New(code Code, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...), Block: -1}
}

// Wrap builds a fault around err.
func Wrap(code Code, err error) *Fault {
	return &Fault{Code: code, Message: err.Error(), Cause: err, Block: -1}
}

// Raise panics with a new fault.
func Raise(code Code, format string, args ...any) {
	panic(New(code, format, args...))
}

// Recover converts a panicking fault into *errp. Other panics are re-raised.
// It must be called directly by a deferred function.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(*Fault); ok {
		*errp = f
		return
	}
	panic(r)
}

// As returns the fault inside err, if any.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
