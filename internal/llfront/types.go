package llfront

import (
	"fmt"
	"sync"

	"github.com/llir/llvm/ir/types"

	"irlower/internal/ir"
)

// typeMap converts LLVM types, sharing one ir.Type per named struct so
// recursive types terminate.
type typeMap struct {
	mu   sync.Mutex
	memo map[types.Type]*ir.Type
}

func newTypeMap() *typeMap {
	return &typeMap{memo: make(map[types.Type]*ir.Type)}
}

func (m *typeMap) convert(t types.Type) (*ir.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv(t)
}

func (m *typeMap) conv(t types.Type) (*ir.Type, error) {
	if t == nil {
		return ir.Void, nil
	}
	if it, ok := m.memo[t]; ok {
		return it, nil
	}
	switch t := t.(type) {
	case *types.VoidType:
		return ir.Void, nil
	case *types.IntType:
		if t.BitSize == 0 || t.BitSize > 64 {
			return nil, fmt.Errorf("unsupported integer width %d", t.BitSize)
		}
		return ir.IntType(int(t.BitSize)), nil
	case *types.PointerType:
		if t.ElemType == nil {
			return ir.Ptr, nil
		}
		out := &ir.Type{Kind: ir.TypePointer}
		m.memo[t] = out
		elem, err := m.conv(t.ElemType)
		if err != nil {
			// Pointers to types we cannot execute are still addresses.
			elem = ir.I8
		}
		out.Elem = elem
		return out, nil
	case *types.StructType:
		if t.Packed {
			return nil, fmt.Errorf("packed struct %s", t)
		}
		out := &ir.Type{Kind: ir.TypeStruct, Name: t.TypeName}
		m.memo[t] = out
		for _, f := range t.Fields {
			ft, err := m.conv(f)
			if err != nil {
				delete(m.memo, t)
				return nil, fmt.Errorf("struct %s: %w", t, err)
			}
			out.Fields = append(out.Fields, ft)
		}
		return out, nil
	case *types.ArrayType:
		elem, err := m.conv(t.ElemType)
		if err != nil {
			return nil, err
		}
		return ir.ArrayOf(int(t.Len), elem), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}
