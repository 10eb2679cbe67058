package eh

import (
	"fmt"
	"sync"

	"irlower/internal/memory"
)

// Runtime answers the type queries a landing pad needs.
type Runtime interface {
	// UnwindHeader returns the unwind header of the exception with the
	// given info pointer.
	UnwindHeader(info memory.Address) (memory.Address, error)
	// ThrownType reads the thrown type identifier from an unwind header.
	ThrownType(header memory.Address) (memory.Address, error)
	// CanCatch reports whether a handler for catch accepts thrown.
	CanCatch(thrown, catch memory.Address) (bool, error)
}

type typeInfo struct {
	name  string
	bases []memory.Address
}

// Registry owns type-info descriptors and thrown exceptions in one memory.
type Registry struct {
	mem *memory.Memory

	mu     sync.RWMutex
	types  map[memory.Address]*typeInfo
	byName map[string]memory.Address
	live   map[memory.Address]struct{} // unwind headers
}

var _ Runtime = (*Registry)(nil)

// NewRegistry creates a registry allocating in mem.
func NewRegistry(mem *memory.Memory) *Registry {
	return &Registry{
		mem:    mem,
		types:  make(map[memory.Address]*typeInfo),
		byName: make(map[string]memory.Address),
		live:   make(map[memory.Address]struct{}),
	}
}

// Define allocates a type-info descriptor named name. A thrown value of
// this type is also caught by handlers of any of bases. Defining the same
// name twice returns the first descriptor.
func (r *Registry) Define(name string, bases ...memory.Address) memory.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addr, ok := r.byName[name]; ok {
		return addr
	}
	addr := r.mem.Alloc(8, 8, "typeinfo "+name)
	r.types[addr] = &typeInfo{name: name, bases: append([]memory.Address(nil), bases...)}
	r.byName[name] = addr
	return addr
}

// AddBase records an extra base of an already defined type.
func (r *Registry) AddBase(typ, base memory.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.types[typ]
	if !ok {
		return fmt.Errorf("type info %s is not defined", typ)
	}
	ti.bases = append(ti.bases, base)
	return nil
}

// Lookup returns the descriptor address of the named type.
func (r *Registry) Lookup(name string) (memory.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.byName[name]
	return addr, ok
}

// Name returns the name of the type at addr, or "".
func (r *Registry) Name(addr memory.Address) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ti, ok := r.types[addr]; ok {
		return ti.name
	}
	return ""
}

// Allocate reserves an exception object of size bytes preceded by its
// unwind header and returns the info pointer. The thrown type is set by
// Raise.
func (r *Registry) Allocate(size int) memory.Address {
	if size < 8 {
		size = 8
	}
	header := r.mem.Alloc(HeaderSize+size, 16, "exception")
	r.mu.Lock()
	r.live[header] = struct{}{}
	r.mu.Unlock()
	return header.Add(HeaderSize)
}

// Raise records typ as the thrown type of the exception at info.
func (r *Registry) Raise(info, typ memory.Address) (*Exception, error) {
	name := r.Name(typ)
	if name == "" {
		return nil, fmt.Errorf("throw of unknown type info %s", typ)
	}
	header, err := r.UnwindHeader(info)
	if err != nil {
		return nil, err
	}
	if err := r.mem.PutAddress(header, typ); err != nil {
		return nil, err
	}
	return &Exception{Info: info, Type: typ, Name: name}, nil
}

// Throw creates an exception of type typ with an 8-byte info object.
func (r *Registry) Throw(typ memory.Address) (*Exception, error) {
	if r.Name(typ) == "" {
		return nil, fmt.Errorf("throw of unknown type info %s", typ)
	}
	return r.Raise(r.Allocate(8), typ)
}

// UnwindHeader implements Runtime.
func (r *Registry) UnwindHeader(info memory.Address) (memory.Address, error) {
	header := info.Add(-HeaderSize)
	r.mu.RLock()
	_, ok := r.live[header]
	r.mu.RUnlock()
	if !ok {
		return memory.Null, fmt.Errorf("%s is not the info of a thrown exception", info)
	}
	return header, nil
}

// ThrownType implements Runtime.
func (r *Registry) ThrownType(header memory.Address) (memory.Address, error) {
	return r.mem.GetAddress(header)
}

// CanCatch implements Runtime. A type is caught by a handler of its own
// type or of any transitive base.
func (r *Registry) CanCatch(thrown, catch memory.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.types[catch]; !ok {
		return false, fmt.Errorf("catch type %s is not a type info", catch)
	}
	if _, ok := r.types[thrown]; !ok {
		return false, fmt.Errorf("thrown type %s is not a type info", thrown)
	}
	seen := map[memory.Address]bool{thrown: true}
	work := []memory.Address{thrown}
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]
		if t == catch {
			return true, nil
		}
		if ti, ok := r.types[t]; ok {
			for _, b := range ti.bases {
				if !seen[b] {
					seen[b] = true
					work = append(work, b)
				}
			}
		}
	}
	return false, nil
}
