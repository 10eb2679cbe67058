package lower

import (
	"context"
	"fmt"

	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/memory"
	"irlower/internal/node"
	"irlower/internal/trace"
)

// StackSize is the size of the region whose address is passed as the
// stack pointer of an entry call.
const StackSize = 64 << 10

// Program is a module prepared for lazy lowering: each function is lowered
// on its first call.
type Program struct {
	Module  *ir.Module
	Context *Context
	Lowerer *Lowerer
	Cache   *Cache
	// Tracer receives the spans of functions lowered lazily on call.
	Tracer trace.Tracer
}

// NewProgram prepares m for execution in a fresh memory.
func NewProgram(m *ir.Module, opts Options) (*Program, error) {
	c, err := NewContext(m, memory.New(), opts.DebugInfo)
	if err != nil {
		return nil, err
	}
	p := &Program{Module: m, Context: c}
	p.Lowerer = NewLowerer(c, p, opts)
	p.Cache = NewCache(p.Lowerer)
	return p, nil
}

// Resolve implements node.Resolver: builtins first, then module functions
// lowered through the cache.
func (p *Program) Resolve(name string) (node.Function, error) {
	if b := p.Context.Builtin(name); b != nil {
		return b, nil
	}
	fn := p.Module.Func(name)
	if fn == nil {
		return nil, fmt.Errorf("no function @%s", name)
	}
	if fn.IsDeclaration() {
		return nil, fmt.Errorf("@%s is declared but not defined", name)
	}
	return p.Cache.Get(trace.WithTracer(context.Background(), p.Tracer), fn)
}

// Callable returns the lowered function named name.
func (p *Program) Callable(ctx context.Context, name string) (*node.Callable, error) {
	fn := p.Module.Func(name)
	if fn == nil {
		return nil, fmt.Errorf("no function @%s", name)
	}
	return p.Cache.Get(ctx, fn)
}

// Run calls the function named entry with integer arguments, supplying a
// fresh stack region and, for aggregate results, the result storage.
func (p *Program) Run(ctx context.Context, entry string, args ...int64) (frame.Value, error) {
	c, err := p.Callable(ctx, entry)
	if err != nil {
		return frame.Value{}, err
	}
	fn := p.Module.Func(entry)
	if len(args) != len(fn.Params) {
		return frame.Value{}, fmt.Errorf("@%s takes %d arguments, got %d", entry, len(fn.Params), len(args))
	}
	mem := p.Context.Mem
	stack := mem.Alloc(StackSize, 16, "stack")
	defer func() { _ = mem.Free(stack) }()

	vals := []frame.Value{frame.Addr(stack)}
	if fn.ReturnsAggregate() {
		vals = append(vals, frame.Addr(mem.Alloc(fn.Result.Size(), fn.Result.Align(), "result of @"+entry)))
	}
	for i, a := range args {
		k := frame.KindOf(fn.Params[i].Type)
		switch k {
		case frame.KindAddress:
			vals = append(vals, frame.Addr(memory.Address(a)))
		case frame.KindIllegal, frame.KindObject:
			return frame.Value{}, fmt.Errorf("@%s: parameter %d of type %s cannot be passed", entry, i, fn.Params[i].Type)
		default:
			vals = append(vals, frame.Int(k, a))
		}
	}
	return c.Call(vals...)
}
