package memory

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// Address is a byte address in a Memory. Zero is the null pointer.
type Address uint64

// Null is the null address.
const Null Address = 0

const firstAddress Address = 0x1000

func (a Address) String() string { return fmt.Sprintf("0x%x", uint64(a)) }

// Add returns a offset by n bytes.
func (a Address) Add(n int) Address { return Address(int64(a) + int64(n)) }

// Error describes an invalid memory access.
type Error struct {
	Op   string
	Addr Address
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("memory %s at %s: %s", e.Op, e.Addr, e.Msg)
}

type region struct {
	start Address
	data  []byte
	freed bool
	label string
}

func (r *region) end() Address { return r.start.Add(len(r.data)) }

// Memory is a little-endian, byte-addressed store made of separately
// allocated regions. Addresses are never reused. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	next    Address
	regions []*region
	allocs  int
	frees   int
}

// New creates an empty memory.
func New() *Memory {
	return &Memory{next: firstAddress, regions: make([]*region, 0, 64)}
}

// Alloc reserves size zeroed bytes aligned to align.
func (m *Memory) Alloc(size, align int, label string) Address {
	if size < 0 {
		size = 0
	}
	if align <= 0 {
		align = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	start := Address((uint64(m.next) + uint64(align) - 1) &^ (uint64(align) - 1))
	r := &region{start: start, data: make([]byte, size), label: label}
	m.regions = append(m.regions, r)
	// Keep one byte of gap so zero-sized regions get distinct addresses.
	m.next = r.end().Add(1)
	m.allocs++
	return start
}

// Free releases the region starting at a.
func (m *Memory) Free(a Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(a)
	if r == nil || r.start != a {
		return &Error{Op: "free", Addr: a, Msg: "not the start of an allocation"}
	}
	if r.freed {
		return &Error{Op: "free", Addr: a, Msg: "double free"}
	}
	r.freed = true
	r.data = nil
	m.frees++
	return nil
}

// Stats returns the number of allocations and frees performed.
func (m *Memory) Stats() (allocs, frees int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allocs, m.frees
}

func (m *Memory) find(a Address) *region {
	i := sort.Search(len(m.regions), func(i int) bool { return m.regions[i].start > a }) - 1
	if i < 0 {
		return nil
	}
	return m.regions[i]
}

func (m *Memory) slice(op string, a Address, n int) ([]byte, error) {
	if a == Null {
		return nil, &Error{Op: op, Addr: a, Msg: "null pointer"}
	}
	r := m.find(a)
	if r == nil {
		return nil, &Error{Op: op, Addr: a, Msg: "unallocated address"}
	}
	if r.freed {
		return nil, &Error{Op: op, Addr: a, Msg: "use after free of " + r.label}
	}
	off := int(a - r.start)
	if off+n > len(r.data) {
		return nil, &Error{Op: op, Addr: a, Msg: fmt.Sprintf("%d-byte access out of bounds of %d-byte %s", n, len(r.data), r.label)}
	}
	return r.data[off : off+n], nil
}

// Read copies n bytes starting at a.
func (m *Memory) Read(a Address, n int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := m.slice("read", a, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Write stores data starting at a.
func (m *Memory) Write(a Address, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.slice("write", a, len(data))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// Copy moves n bytes from src to dst.
func (m *Memory) Copy(dst, src Address, n int) error {
	data, err := m.Read(src, n)
	if err != nil {
		return err
	}
	return m.Write(dst, data)
}

// PutUint writes the low size bytes of v.
func (m *Memory) PutUint(a Address, size int, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if size > 8 {
		size = 8
	}
	return m.Write(a, buf[:size])
}

// GetUint reads size bytes as an unsigned integer.
func (m *Memory) GetUint(a Address, size int) (uint64, error) {
	if size > 8 {
		size = 8
	}
	b, err := m.Read(a, size)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// PutAddress writes a pointer-sized value.
func (m *Memory) PutAddress(a, v Address) error { return m.PutUint(a, 8, uint64(v)) }

// GetAddress reads a pointer-sized value.
func (m *Memory) GetAddress(a Address) (Address, error) {
	v, err := m.GetUint(a, 8)
	return Address(v), err
}

// PutI32 writes a 4-byte integer.
func (m *Memory) PutI32(a Address, v int32) error { return m.PutUint(a, 4, uint64(uint32(v))) }

// GetI32 reads a 4-byte integer.
func (m *Memory) GetI32(a Address) (int32, error) {
	v, err := m.GetUint(a, 4)
	return int32(uint32(v)), err
}

// PutI64 writes an 8-byte integer.
func (m *Memory) PutI64(a Address, v int64) error { return m.PutUint(a, 8, uint64(v)) }

// GetI64 reads an 8-byte integer.
func (m *Memory) GetI64(a Address) (int64, error) {
	v, err := m.GetUint(a, 8)
	return int64(v), err
}
