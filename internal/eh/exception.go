package eh

import (
	"fmt"

	"irlower/internal/memory"
)

// HeaderSize is the size of the unwind header placed before the exception
// info. The thrown type is stored in its first word.
const HeaderSize = 16

// Exception is an in-flight exception. It travels up the Go call stack as
// an error value; re-raising returns the same pointer.
type Exception struct {
	Info memory.Address
	Type memory.Address
	Name string // type name, for messages
}

func (e *Exception) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("uncaught exception of type %s (info %s)", e.Name, e.Info)
	}
	return fmt.Sprintf("uncaught exception (info %s)", e.Info)
}
