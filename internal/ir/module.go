package ir

// Global is a module-level variable. TypeInfo globals describe exception
// types; Bases lists the type-info globals a thrown value of this type can
// also be caught as.
type Global struct {
	Name     string
	Type     *Type
	TypeInfo bool
	Bases    []string
	Init     *Operand
}

type Module struct {
	Name    string
	Funcs   []*Func
	Globals []*Global
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	if m == nil {
		return nil
	}
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global with the given name, or nil.
func (m *Module) Global(name string) *Global {
	if m == nil {
		return nil
	}
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Definitions returns the functions that have a body.
func (m *Module) Definitions() []*Func {
	out := make([]*Func, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		if !f.IsDeclaration() {
			out = append(out, f)
		}
	}
	return out
}
