package ir

import (
	"fmt"
	"strings"
)

// PointerSize is the byte width of a pointer on the modelled 64-bit target.
const PointerSize = 8

// TypeKind distinguishes IR types.
type TypeKind uint8

const (
	// TypeVoid is the empty result type.
	TypeVoid TypeKind = iota
	// TypeInt is an integer of Bits width.
	TypeInt
	// TypePointer is an address of an Elem value.
	TypePointer
	// TypeStruct is an aggregate of Fields laid out with natural alignment.
	TypeStruct
	// TypeArray is Len consecutive Elem values.
	TypeArray
)

// Type describes the shape of an IR value.
type Type struct {
	Kind   TypeKind
	Bits   int
	Elem   *Type
	Fields []*Type
	Len    int
	Name   string
}

var (
	Void = &Type{Kind: TypeVoid}
	I1   = &Type{Kind: TypeInt, Bits: 1}
	I8   = &Type{Kind: TypeInt, Bits: 8}
	I16  = &Type{Kind: TypeInt, Bits: 16}
	I32  = &Type{Kind: TypeInt, Bits: 32}
	I64  = &Type{Kind: TypeInt, Bits: 64}
	// Ptr is an opaque pointer.
	Ptr = &Type{Kind: TypePointer, Elem: I8}
)

// IntType returns an integer type of the given width.
func IntType(bits int) *Type {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	}
	return &Type{Kind: TypeInt, Bits: bits}
}

// PointerTo returns a pointer to elem.
func PointerTo(elem *Type) *Type {
	if elem == nil {
		return Ptr
	}
	return &Type{Kind: TypePointer, Elem: elem}
}

// StructOf returns an anonymous struct type.
func StructOf(fields ...*Type) *Type {
	return &Type{Kind: TypeStruct, Fields: fields}
}

// ArrayOf returns an array type.
func ArrayOf(n int, elem *Type) *Type {
	return &Type{Kind: TypeArray, Len: n, Elem: elem}
}

// LandingpadType is the {ptr, i32} pair produced by a landing pad.
var LandingpadType = StructOf(Ptr, I32)

func (t *Type) IsVoid() bool      { return t == nil || t.Kind == TypeVoid }
func (t *Type) IsPointer() bool   { return t != nil && t.Kind == TypePointer }
func (t *Type) IsInt() bool       { return t != nil && t.Kind == TypeInt }
func (t *Type) IsAggregate() bool { return t != nil && (t.Kind == TypeStruct || t.Kind == TypeArray) }

// Size returns the allocation size in bytes.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case TypeInt:
		return (t.Bits + 7) / 8
	case TypePointer:
		return PointerSize
	case TypeArray:
		return t.Len * alignUp(t.Elem.Size(), t.Elem.Align())
	case TypeStruct:
		off := 0
		for _, f := range t.Fields {
			off = alignUp(off, f.Align()) + f.Size()
		}
		return alignUp(off, t.Align())
	}
	return 0
}

// Align returns the natural alignment in bytes.
func (t *Type) Align() int {
	if t == nil {
		return 1
	}
	switch t.Kind {
	case TypeInt:
		sz := t.Size()
		if sz <= 1 {
			return 1
		}
		if sz > 8 {
			return 8
		}
		return sz
	case TypePointer:
		return PointerSize
	case TypeArray:
		return t.Elem.Align()
	case TypeStruct:
		a := 1
		for _, f := range t.Fields {
			if fa := f.Align(); fa > a {
				a = fa
			}
		}
		return a
	}
	return 1
}

// Offset returns the byte offset of element i of an aggregate.
func (t *Type) Offset(i int) int {
	switch t.Kind {
	case TypeStruct:
		off := 0
		for j, f := range t.Fields {
			off = alignUp(off, f.Align())
			if j == i {
				return off
			}
			off += f.Size()
		}
	case TypeArray:
		return i * alignUp(t.Elem.Size(), t.Elem.Align())
	}
	return 0
}

// Element returns the type of element i of an aggregate.
func (t *Type) Element(i int) *Type {
	switch t.Kind {
	case TypeStruct:
		if i >= 0 && i < len(t.Fields) {
			return t.Fields[i]
		}
	case TypeArray:
		return t.Elem
	}
	return nil
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	if t.Name != "" {
		return "%" + t.Name
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return fmt.Sprintf("i%d", t.Bits)
	case TypePointer:
		return "ptr"
	case TypeArray:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case TypeStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return "?"
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}
