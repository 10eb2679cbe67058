package frame

import (
	"fmt"

	"irlower/internal/memory"
)

// Value is a slot value. Integers are stored truncated to their kind's
// width in Bits; objects are carried in Obj.
type Value struct {
	Kind Kind
	Bits uint64
	Obj  any
}

func widthOf(k Kind) uint {
	switch k {
	case KindI1:
		return 1
	case KindI8:
		return 8
	case KindI16:
		return 16
	case KindI32:
		return 32
	}
	return 64
}

// Int builds an integer value of the given kind, truncating v.
func Int(k Kind, v int64) Value {
	w := widthOf(k)
	bits := uint64(v)
	if w < 64 {
		bits &= (uint64(1) << w) - 1
	}
	return Value{Kind: k, Bits: bits}
}

func I1(b bool) Value {
	if b {
		return Value{Kind: KindI1, Bits: 1}
	}
	return Value{Kind: KindI1}
}

func I32(v int32) Value { return Int(KindI32, int64(v)) }
func I64(v int64) Value { return Int(KindI64, v) }

// Addr builds an address value.
func Addr(a memory.Address) Value { return Value{Kind: KindAddress, Bits: uint64(a)} }

// Object builds an object value.
func Object(o any) Value { return Value{Kind: KindObject, Obj: o} }

// Int returns the value sign-extended from its kind's width. i1 is
// zero-extended.
func (v Value) Int() int64 {
	w := widthOf(v.Kind)
	if v.Kind == KindI1 || w == 64 {
		return int64(v.Bits)
	}
	shift := 64 - w
	return int64(v.Bits<<shift) >> shift
}

// Uint returns the raw zero-extended bits.
func (v Value) Uint() uint64 { return v.Bits }

// Bool reports whether the value is non-zero.
func (v Value) Bool() bool { return v.Bits != 0 }

// Addr returns the value as an address.
func (v Value) Addr() memory.Address { return memory.Address(v.Bits) }

func (v Value) String() string {
	switch v.Kind {
	case KindIllegal:
		return "<none>"
	case KindAddress:
		return v.Addr().String()
	case KindObject:
		return fmt.Sprintf("object(%v)", v.Obj)
	}
	return fmt.Sprintf("%s %d", v.Kind, v.Int())
}
