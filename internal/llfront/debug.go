package llfront

import (
	"strings"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/value"

	"irlower/internal/ir"
)

// dbgValue is the intrinsic that binds a source variable to a value.
const dbgValue = "llvm.dbg.value"

// sourceFunction reads the DISubprogram attached to f with !dbg.
func sourceFunction(name string, f *llir.Func) *ir.SourceFunction {
	for _, md := range f.Metadata {
		if md == nil || strings.TrimPrefix(md.Name, "!") != "dbg" {
			continue
		}
		sp, ok := any(md.Node).(*metadata.DISubprogram)
		if !ok || sp == nil {
			continue
		}
		loc := &ir.SourceLocation{Name: ident(sp.Name), Line: int(sp.Line)}
		if file, ok := any(sp.File).(*metadata.DIFile); ok && file != nil {
			loc.File = file.Filename
		}
		if loc.Name == "" {
			loc.Name = name
		}
		return &ir.SourceFunction{
			Name:      loc.Name,
			Scope:     loc,
			StartLine: int(sp.Line),
		}
	}
	return nil
}

// unwrapMetadata returns the value carried by a metadata operand such as
// "metadata i32 7", or v itself.
func unwrapMetadata(v any) any {
	if mv, ok := v.(*metadata.Value); ok && mv != nil {
		return any(mv.Value)
	}
	return v
}

// debugValue records the variable of a llvm.dbg.value call. A variable
// bound to one integer constant everywhere is static; any other binding
// makes it dynamic.
func (b *body) debugValue(args []value.Value) error {
	if len(args) < 2 {
		return nil
	}
	dv, ok := unwrapMetadata(args[1]).(*metadata.DILocalVariable)
	if !ok || dv == nil {
		return nil
	}
	v := ir.SourceVariable{Name: ident(dv.Name), Line: int(dv.Line)}
	if c, ok := unwrapMetadata(args[0]).(*constant.Int); ok {
		t, err := b.typ(c.Typ)
		if err != nil {
			return err
		}
		static := ir.Const(t, c.X.Int64())
		v.Type, v.Static = t, &static
	}

	if b.fn.Source == nil {
		b.fn.Source = &ir.SourceFunction{Name: b.fn.Name}
	}
	vars := b.fn.Source.Variables
	for i := range vars {
		if vars[i].Name != v.Name || vars[i].Line != v.Line {
			continue
		}
		if vars[i].Static != nil && (v.Static == nil || *vars[i].Static != *v.Static) {
			vars[i].Static = nil
		}
		return nil
	}
	b.fn.Source.Variables = append(vars, v)
	return nil
}
