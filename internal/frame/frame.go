package frame

import (
	"errors"
	"fmt"
	"sync"

	"irlower/internal/fault"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

// Reserved slot names.
const (
	StackPointerSlot = "<stackpointer>"
	ExceptionSlot    = "<exception>"
)

// Kind is the declared storage kind of a slot.
type Kind uint8

const (
	KindIllegal Kind = iota
	KindI1
	KindI8
	KindI16
	KindI32
	KindI64
	KindAddress
	KindObject
)

var kindNames = [...]string{"illegal", "i1", "i8", "i16", "i32", "i64", "address", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind?"
}

// KindOf maps an IR type to its slot kind. Aggregates live in memory and
// are held by address.
func KindOf(t *ir.Type) Kind {
	if t == nil {
		return KindIllegal
	}
	switch t.Kind {
	case ir.TypeInt:
		switch {
		case t.Bits == 1:
			return KindI1
		case t.Bits <= 8:
			return KindI8
		case t.Bits <= 16:
			return KindI16
		case t.Bits <= 32:
			return KindI32
		default:
			return KindI64
		}
	case ir.TypePointer, ir.TypeStruct, ir.TypeArray:
		return KindAddress
	}
	return KindIllegal
}

// Slot is a named storage location of an activation record.
type Slot struct {
	Index int
	Name  string
	Kind  Kind
}

func (s *Slot) String() string { return fmt.Sprintf("%s:%s#%d", s.Name, s.Kind, s.Index) }

// Descriptor is the slot layout shared by every activation of one lowered
// function. It is built once and frozen before the first activation.
type Descriptor struct {
	mu     sync.RWMutex
	slots  []*Slot
	byName map[string]*Slot
	frozen bool
}

// NewDescriptor returns an empty layout.
func NewDescriptor() *Descriptor {
	return &Descriptor{byName: make(map[string]*Slot)}
}

// Add allocates a slot, or returns the existing slot of that name when the
// kinds agree.
func (d *Descriptor) Add(name string, kind Kind) (*Slot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.byName[name]; ok {
		if s.Kind != kind {
			return nil, fmt.Errorf("slot %q redeclared as %s, was %s", name, kind, s.Kind)
		}
		return s, nil
	}
	if d.frozen {
		return nil, fmt.Errorf("slot %q added to a frozen frame layout", name)
	}
	if kind == KindIllegal {
		return nil, fmt.Errorf("slot %q has no storage kind", name)
	}
	s := &Slot{Index: len(d.slots), Name: name, Kind: kind}
	d.slots = append(d.slots, s)
	d.byName[name] = s
	return s, nil
}

// Find returns the slot named name, or nil.
func (d *Descriptor) Find(name string) *Slot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byName[name]
}

// Slots returns the slots in allocation order.
func (d *Descriptor) Slots() []*Slot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Slot(nil), d.slots...)
}

// Len returns the number of slots.
func (d *Descriptor) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slots)
}

// Freeze forbids further slot allocation.
func (d *Descriptor) Freeze() {
	d.mu.Lock()
	d.frozen = true
	d.mu.Unlock()
}

// Frame holds the slot values of one activation. Invalid slot access raises
// a fault.SlotAccess panic.
type Frame struct {
	desc   *Descriptor
	vals   []Value
	set    []bool
	Args   []Value
	Result Value
	Mem    *memory.Memory

	allocs []memory.Address
}

// NewFrame creates an activation with the given incoming arguments.
func (d *Descriptor) NewFrame(mem *memory.Memory, args []Value) *Frame {
	n := d.Len()
	return &Frame{
		desc: d,
		vals: make([]Value, n),
		set:  make([]bool, n),
		Args: args,
		Mem:  mem,
	}
}

// Descriptor returns the layout of f.
func (f *Frame) Descriptor() *Descriptor { return f.desc }

func (f *Frame) check(s *Slot) {
	if s == nil || s.Index < 0 || s.Index >= len(f.vals) {
		fault.Raise(fault.SlotAccess, "slot %v is not part of this frame", s)
	}
}

// Get reads an initialized slot.
func (f *Frame) Get(s *Slot) Value {
	f.check(s)
	if !f.set[s.Index] {
		fault.Raise(fault.SlotAccess, "slot %s read before write or after being nulled", s.Name)
	}
	return f.vals[s.Index]
}

// GetAs reads a slot that must have the given kind.
func (f *Frame) GetAs(s *Slot, kind Kind) Value {
	f.check(s)
	if s.Kind != kind {
		fault.Raise(fault.SlotAccess, "slot %s read as %s, declared %s", s.Name, kind, s.Kind)
	}
	return f.Get(s)
}

// Set writes a slot; the value kind must match the slot kind.
func (f *Frame) Set(s *Slot, v Value) {
	f.check(s)
	if v.Kind != s.Kind {
		fault.Raise(fault.SlotAccess, "slot %s written with %s, declared %s", s.Name, v.Kind, s.Kind)
	}
	f.vals[s.Index] = v
	f.set[s.Index] = true
}

// IsSet reports whether s currently holds a value.
func (f *Frame) IsSet(s *Slot) bool {
	f.check(s)
	return f.set[s.Index]
}

// Clear drops the value of s so it can no longer be read.
func (f *Frame) Clear(s *Slot) {
	f.check(s)
	f.vals[s.Index] = Value{}
	f.set[s.Index] = false
}

// Alloc reserves activation-local memory. It is released by Release.
func (f *Frame) Alloc(size, align int, label string) memory.Address {
	a := f.Mem.Alloc(size, align, label)
	f.allocs = append(f.allocs, a)
	return a
}

// Release frees every allocation made through Alloc.
func (f *Frame) Release() error {
	var errs []error
	for _, a := range f.allocs {
		if err := f.Mem.Free(a); err != nil {
			errs = append(errs, err)
		}
	}
	f.allocs = nil
	return errors.Join(errs...)
}
