package lower

import (
	"errors"
	"fmt"

	"irlower/internal/debuginfo"
	"irlower/internal/eh"
	"irlower/internal/ir"
	"irlower/internal/memory"
	"irlower/internal/node"
)

// Context is the module-level state shared by every lowering of one
// module: memory, global addresses, type-info descriptors, host builtins
// and the debug symbol table.
type Context struct {
	Module *ir.Module
	Mem    *memory.Memory
	Types  *eh.Registry
	Debug  *debuginfo.Processor

	globals  map[string]memory.Address
	builtins map[string]*node.Builtin
}

// NewContext allocates the globals of m in mem. Type-info globals become
// exception type descriptors.
func NewContext(m *ir.Module, mem *memory.Memory, debug bool) (*Context, error) {
	c := &Context{
		Module:   m,
		Mem:      mem,
		Types:    eh.NewRegistry(mem),
		Debug:    debuginfo.NewProcessor(debug),
		globals:  make(map[string]memory.Address, len(m.Globals)),
		builtins: make(map[string]*node.Builtin),
	}
	for _, g := range m.Globals {
		if g.TypeInfo {
			c.globals[g.Name] = c.Types.Define(g.Name)
			continue
		}
		size, align := 8, 8
		if g.Type != nil && !g.Type.IsVoid() {
			size, align = g.Type.Size(), g.Type.Align()
		}
		c.globals[g.Name] = mem.Alloc(size, align, "@"+g.Name)
	}

	var errs []error
	for _, g := range m.Globals {
		for _, base := range g.Bases {
			b, ok := c.globals[base]
			if !ok {
				errs = append(errs, fmt.Errorf("@%s: unknown base type info @%s", g.Name, base))
				continue
			}
			if err := c.Types.AddBase(c.globals[g.Name], b); err != nil {
				errs = append(errs, err)
			}
		}
		if g.Init != nil && !g.TypeInfo {
			if err := c.initGlobal(g); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	c.registerBuiltins()
	return c, nil
}

func (c *Context) initGlobal(g *ir.Global) error {
	addr := c.globals[g.Name]
	switch g.Init.Kind {
	case ir.OperandConst:
		return c.Mem.PutUint(addr, g.Type.Size(), uint64(g.Init.Int))
	case ir.OperandGlobal:
		target, ok := c.globals[g.Init.Name]
		if !ok {
			return fmt.Errorf("@%s: initializer names unknown global @%s", g.Name, g.Init.Name)
		}
		return c.Mem.PutAddress(addr, target)
	case ir.OperandNull, ir.OperandUndef:
		return nil
	}
	return fmt.Errorf("@%s: unsupported initializer", g.Name)
}

// GlobalAddr returns the address of the named global.
func (c *Context) GlobalAddr(name string) (memory.Address, bool) {
	a, ok := c.globals[name]
	return a, ok
}

// Builtin returns the host builtin of that name, or nil.
func (c *Context) Builtin(name string) *node.Builtin {
	return c.builtins[name]
}
