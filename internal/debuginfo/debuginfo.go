// Package debuginfo derives frame initializers from a function's source
// variables and keeps the module-wide table of registered symbols.
package debuginfo

import (
	"sort"
	"strconv"
	"sync"

	"irlower/internal/ir"
)

// SlotPrefix marks frame slots that mirror source variables. Such slots are
// never cleared by liveness.
const SlotPrefix = "dbg:"

// SlotName returns the frame slot name of source variable v. The line
// keeps shadowed variables of one function apart.
func SlotName(v ir.SourceVariable) string {
	return SlotPrefix + v.Name + "@" + strconv.Itoa(v.Line)
}

// slotNames names the slot of every variable of fn, appending "#n" when a
// name repeats on the same line.
func slotNames(vars []ir.SourceVariable) []string {
	out := make([]string, len(vars))
	seen := make(map[string]int, len(vars))
	for i, v := range vars {
		name := SlotName(v)
		if n := seen[name]; n > 0 {
			out[i] = name + "#" + strconv.Itoa(n+1)
		} else {
			out[i] = name
		}
		seen[name]++
	}
	return out
}

// Initializer writes the statically known value of a source variable into
// its slot when the function is entered.
type Initializer struct {
	Slot  string
	Var   ir.SourceVariable
	Value ir.Operand
}

// Symbol is a registered source variable.
type Symbol struct {
	Func string
	Var  string
	Line int
}

type symbolKey struct{ fn, slot string }

// Processor is shared by all lowerings of one module. When Enabled is
// false it produces nothing.
type Processor struct {
	Enabled bool

	mu      sync.Mutex
	symbols map[symbolKey]Symbol
}

// NewProcessor returns a processor.
func NewProcessor(enabled bool) *Processor {
	return &Processor{Enabled: enabled, symbols: make(map[symbolKey]Symbol)}
}

// Initializers returns the initializers of fn's statically valued source
// variables in declaration order and registers their symbols. Registering
// an already known symbol has no effect, so lowering a function again
// leaves the table unchanged.
func (p *Processor) Initializers(fn *ir.Func) []Initializer {
	if p == nil || !p.Enabled || fn.Source == nil {
		return nil
	}
	var out []Initializer
	p.mu.Lock()
	defer p.mu.Unlock()
	slots := slotNames(fn.Source.Variables)
	for i, v := range fn.Source.Variables {
		if v.Static == nil {
			continue
		}
		k := symbolKey{fn: fn.Name, slot: slots[i]}
		if _, ok := p.symbols[k]; !ok {
			p.symbols[k] = Symbol{Func: fn.Name, Var: v.Name, Line: v.Line}
		}
		out = append(out, Initializer{Slot: slots[i], Var: v, Value: *v.Static})
	}
	return out
}

// NotNullable returns the slot names liveness must never clear in fn.
func (p *Processor) NotNullable(fn *ir.Func) []string {
	if p == nil || !p.Enabled || fn.Source == nil {
		return nil
	}
	var out []string
	slots := slotNames(fn.Source.Variables)
	for i, v := range fn.Source.Variables {
		if v.Static != nil {
			out = append(out, slots[i])
		}
	}
	return out
}

// Symbols returns the registered symbols ordered by function, name and
// line.
func (p *Processor) Symbols() []Symbol {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Symbol, 0, len(p.symbols))
	for _, s := range p.symbols {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Func != out[j].Func {
			return out[i].Func < out[j].Func
		}
		if out[i].Var != out[j].Var {
			return out[i].Var < out[j].Var
		}
		return out[i].Line < out[j].Line
	})
	return out
}
