// Package llfront reads LLVM textual IR into the lowering IR. Function
// bodies are converted on first use.
package llfront

import (
	"errors"
	"fmt"
	"strings"

	"github.com/llir/llvm/asm"
	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"golang.org/x/text/unicode/norm"

	"irlower/internal/ir"
)

// TypeInfoPrefix marks Itanium type-info globals.
const TypeInfoPrefix = "_ZTI"

// Load parses the .ll file at path.
func Load(path string) (*ir.Module, error) {
	m, err := asm.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Convert(path, m)
}

// Parse parses LLVM IR held in src; name is used in messages.
func Parse(name, src string) (*ir.Module, error) {
	m, err := asm.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return Convert(name, m)
}

// Convert maps the globals and function signatures of m. Bodies are
// converted when a function is first lowered.
func Convert(name string, m *llir.Module) (*ir.Module, error) {
	c := &converter{types: newTypeMap()}
	out := &ir.Module{Name: name}
	var errs []error
	for _, g := range m.Globals {
		ig, err := c.global(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Globals = append(out.Globals, ig)
	}
	for _, f := range m.Funcs {
		fn, err := c.signature(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(f.Blocks) > 0 {
			fn.SetBodyParser(&body{c: c, src: f})
		}
		out.Funcs = append(out.Funcs, fn)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

type converter struct {
	types *typeMap
}

// ident normalizes a symbol name so that canonically equivalent spellings
// name the same value.
func ident(s string) string {
	return norm.NFC.String(s)
}

type named interface{ Name() string }

func nameOf(v any) string {
	if n, ok := v.(named); ok {
		return ident(n.Name())
	}
	return ""
}

func (c *converter) global(g *llir.Global) (*ir.Global, error) {
	name := nameOf(g)
	out := &ir.Global{Name: name}
	if strings.HasPrefix(name, TypeInfoPrefix) {
		out.TypeInfo = true
		out.Type = ir.Ptr
		out.Bases = bases(name, g.Init)
		return out, nil
	}
	t, err := c.types.convert(g.ContentType)
	if err != nil {
		return nil, fmt.Errorf("global @%s: %w", name, err)
	}
	out.Type = t
	if g.Init == nil {
		return out, nil
	}
	switch init := g.Init.(type) {
	case *constant.Int:
		op := ir.Const(t, init.X.Int64())
		out.Init = &op
	case *constant.Null:
		op := ir.Null()
		out.Init = &op
	case *constant.ZeroInitializer, *constant.Undef:
		// Fresh global storage is zeroed.
	default:
		if ref := refGlobal(init); ref != "" {
			op := ir.GlobalAddr(ref)
			out.Init = &op
			break
		}
		return nil, fmt.Errorf("global @%s: unsupported initializer %s", name, g.Init.Ident())
	}
	return out, nil
}

// bases lists the type-info globals referenced by the initializer of a
// class type info, such as the base field of __si_class_type_info.
func bases(self string, init constant.Constant) []string {
	st, ok := init.(*constant.Struct)
	if !ok {
		return nil
	}
	var out []string
	for _, f := range st.Fields {
		ref := refGlobal(f)
		if ref != "" && ref != self && strings.HasPrefix(ref, TypeInfoPrefix) {
			out = append(out, ref)
		}
	}
	return out
}

// refGlobal returns the global a constant denotes, looking through
// bitcasts.
func refGlobal(c constant.Constant) string {
	switch c := c.(type) {
	case *llir.Global:
		return nameOf(c)
	case *constant.ExprBitCast:
		return refGlobal(c.From)
	}
	return ""
}

func (c *converter) signature(f *llir.Func) (*ir.Func, error) {
	name := nameOf(f)
	res, err := c.types.convert(f.Sig.RetType)
	if err != nil {
		return nil, fmt.Errorf("@%s: result: %w", name, err)
	}
	fn := &ir.Func{Name: name, Result: res, Source: sourceFunction(name, f)}
	fn.Linkage, _ = ir.ParseLinkage(f.Linkage.String())
	for i, p := range f.Params {
		t, err := c.types.convert(p.Typ)
		if err != nil {
			return nil, fmt.Errorf("@%s: parameter %d: %w", name, i, err)
		}
		param := &ir.Param{Name: nameOf(p), Type: t}
		for _, a := range p.Attrs {
			if attr, ok := paramAttr(a.String()); ok {
				param.Attrs = append(param.Attrs, attr)
			}
		}
		fn.Params = append(fn.Params, param)
	}
	return fn, nil
}

func paramAttr(s string) (ir.Attr, bool) {
	switch {
	case strings.HasPrefix(s, "byval"):
		return ir.AttrByVal, true
	case strings.HasPrefix(s, "sret"):
		return ir.AttrSRet, true
	case s == "noalias":
		return ir.AttrNoAlias, true
	case s == "nonnull":
		return ir.AttrNonNull, true
	case s == "zeroext":
		return ir.AttrZExt, true
	case s == "signext":
		return ir.AttrSExt, true
	}
	return 0, false
}
