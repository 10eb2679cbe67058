// Package lower turns IR functions into executable node graphs.
package lower

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"irlower/internal/debuginfo"
	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/liveness"
	"irlower/internal/node"
	"irlower/internal/trace"
)

// Lowerer lowers functions of one module. It is safe for concurrent use;
// use a Cache to lower each function at most once.
type Lowerer struct {
	ctx      *Context
	resolver node.Resolver
	opts     Options
	builds   atomic.Int64
}

// NewLowerer returns a lowerer for functions of c's module. Call targets
// are looked up through resolver when first executed.
func NewLowerer(c *Context, resolver node.Resolver, opts Options) *Lowerer {
	return &Lowerer{ctx: c, resolver: resolver, opts: opts}
}

// Builds returns how many lowerings completed.
func (l *Lowerer) Builds() int64 { return l.builds.Load() }

// Options returns the options l was created with.
func (l *Lowerer) Options() Options { return l.opts }

// funcState is the state of one lowering.
type funcState struct {
	l      *Lowerer
	fn     *ir.Func
	phis   PhiEdges
	layout *frame.Descriptor
	slots  map[string]*frame.Slot
	sp     *frame.Slot
	exc    *frame.Slot
	inits  []debuginfo.Initializer
	pinned map[string]bool

	tr   trace.Tracer
	pass uint64

	before   [][]*frame.Slot
	after    [][]*frame.Slot
	blocks   []*node.BasicBlock
	body     *node.FunctionBlock
	prologue []node.Stmt
}

// Lower builds the callable of fn. Lowering the same function again
// yields an equivalent callable and leaves the debug symbol table as it
// was.
func (l *Lowerer) Lower(ctx context.Context, fn *ir.Func) (*node.Callable, error) {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeFunction, "lower:@"+fn.Name, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	c, err := l.lower(ctx, fn)
	if err != nil {
		span.End("error")
		return nil, fmt.Errorf("lower @%s: %w", fn.Name, err)
	}
	span.WithExtra("blocks", strconv.Itoa(len(fn.Blocks))).
		WithExtra("slots", strconv.Itoa(c.Layout.Len())).
		WithExtra("loops", strconv.Itoa(len(c.Body.Loops))).
		End("")
	l.builds.Add(1)
	return c, nil
}

func (l *Lowerer) lower(ctx context.Context, fn *ir.Func) (*node.Callable, error) {
	if fn.IsDeclaration() {
		return nil, fmt.Errorf("function has no body")
	}
	st := &funcState{l: l, fn: fn}
	steps := []struct {
		name string
		run  func() error
	}{
		{"parse", st.parse},
		{"phis", st.resolvePhis},
		{"frame", st.buildFrame},
		{"liveness", st.computeLiveness},
		{"blocks", st.lowerBlocks},
		{"loops", st.patchLoops},
		{"prologue", st.copyArguments},
	}
	parent := trace.CurrentSpan(ctx)
	st.tr = trace.FromContext(ctx)
	for _, step := range steps {
		span := trace.Begin(st.tr, trace.ScopePass, step.name, parent)
		st.pass = span.ID()
		err := step.run()
		if err != nil {
			span.End(err.Error())
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
		span.End("")
	}
	return st.assemble(), nil
}

// parse completes deferred body decoding.
func (st *funcState) parse() error {
	if err := st.fn.EnsureParsed(); err != nil {
		return err
	}
	return ir.ValidateFunc(st.fn)
}

func (st *funcState) resolvePhis() error {
	phis, err := ResolvePhis(st.fn)
	st.phis = phis
	return err
}

// buildFrame allocates one slot per named value plus the stack pointer,
// exception and debug variable slots, then freezes the layout.
func (st *funcState) buildFrame() error {
	st.layout = frame.NewDescriptor()
	st.slots = make(map[string]*frame.Slot)
	st.pinned = make(map[string]bool)

	var err error
	if st.sp, err = st.layout.Add(frame.StackPointerSlot, frame.KindAddress); err != nil {
		return err
	}
	if st.exc, err = st.layout.Add(frame.ExceptionSlot, frame.KindObject); err != nil {
		return err
	}
	st.pinned[frame.StackPointerSlot] = true
	st.pinned[frame.ExceptionSlot] = true

	def := func(name string, t *ir.Type) error {
		if _, dup := st.slots[name]; dup {
			return fmt.Errorf("value %%%s defined twice", name)
		}
		s, err := st.layout.Add(name, frame.KindOf(t))
		if err != nil {
			return err
		}
		st.slots[name] = s
		return nil
	}
	for _, p := range st.fn.Params {
		if err := def(p.Name, p.Type); err != nil {
			return err
		}
	}
	for i := range st.fn.Blocks {
		bb := &st.fn.Blocks[i]
		for j := range bb.Instrs {
			if ins := &bb.Instrs[j]; ins.HasValue() {
				if err := def(ins.Name, ins.Type); err != nil {
					return err
				}
			}
		}
		if bb.Term.HasValue() {
			if err := def(bb.Term.Invoke.Name, bb.Term.Invoke.Type); err != nil {
				return err
			}
		}
	}

	if st.l.opts.DebugInfo {
		st.inits = st.l.ctx.Debug.Initializers(st.fn)
		for _, name := range st.l.ctx.Debug.NotNullable(st.fn) {
			st.pinned[name] = true
		}
		for _, in := range st.inits {
			s, err := st.layout.Add(in.Slot, frame.KindOf(in.Var.Type))
			if err != nil {
				return err
			}
			st.slots[in.Slot] = s
		}
	}
	st.layout.Freeze()
	return nil
}

// computeLiveness maps the nullable value sets onto slots, dropping slots
// that must survive the whole activation.
func (st *funcState) computeLiveness() error {
	res := liveness.Compute(st.fn)
	n := len(st.fn.Blocks)
	st.before = make([][]*frame.Slot, n)
	st.after = make([][]*frame.Slot, n)
	toSlots := func(names []string) ([]*frame.Slot, error) {
		var out []*frame.Slot
		for _, name := range names {
			if st.pinned[name] {
				continue
			}
			s, ok := st.slots[name]
			if !ok {
				return nil, fmt.Errorf("value %%%s is used but never defined", name)
			}
			out = append(out, s)
		}
		return out, nil
	}
	for i := 0; i < n; i++ {
		var err error
		if st.before[i], err = toSlots(res.NullableBefore(i)); err != nil {
			return err
		}
		if st.after[i], err = toSlots(res.NullableAfter(i)); err != nil {
			return err
		}
	}
	return nil
}

// lowerBlocks converts every block; debug initializers go to the first
// block only.
func (st *funcState) lowerBlocks() error {
	st.blocks = make([]*node.BasicBlock, len(st.fn.Blocks))
	for i := range st.fn.Blocks {
		span := trace.Begin(st.tr, trace.ScopeBlock, "bb"+strconv.Itoa(i), st.pass)
		bl := blockLowerer{st: st, bb: &st.fn.Blocks[i], withDebugInit: i == 0}
		nb, err := bl.lower()
		if err != nil {
			span.End(err.Error())
			return fmt.Errorf("bb%d %%%s: %w", i, st.fn.Blocks[i].Name, err)
		}
		span.WithExtra("stmts", strconv.Itoa(len(nb.Stmts))).End("")
		st.blocks[i] = nb
	}
	st.body = &node.FunctionBlock{Blocks: st.blocks, Exception: st.exc, Dispatch: make([]node.Runner, len(st.blocks))}
	for i, b := range st.blocks {
		st.body.Dispatch[i] = b
	}
	return nil
}

// patchLoops places a loop region over each loop header. A loop whose
// body lies strictly inside another's runs as a nested region there.
func (st *funcState) patchLoops() error {
	if !st.l.opts.PatchLoops {
		return nil
	}
	loops := st.fn.Loops()
	regions := make([]*node.Loop, len(loops))
	for i, lp := range loops {
		regions[i] = &node.Loop{Header: lp.Header, Body: lp.Body, Dispatch: make(map[int]node.Runner, len(lp.Body))}
	}
	for i, lp := range loops {
		for _, b := range lp.Body {
			regions[i].Dispatch[b] = st.blocks[b]
		}
		for j, inner := range loops {
			if i != j && strictlyInside(inner, lp) {
				regions[i].Dispatch[inner.Header] = regions[j]
			}
		}
	}
	for i, lp := range loops {
		st.body.Dispatch[lp.Header] = regions[i]
	}
	st.body.Loops = regions
	return nil
}

func strictlyInside(inner, outer ir.Loop) bool {
	if len(inner.Body) >= len(outer.Body) {
		return false
	}
	for _, b := range inner.Body {
		if !outer.Contains(b) {
			return false
		}
	}
	return true
}

// copyArguments builds the prologue: argument 0 is the stack pointer,
// parameters follow, after the hidden result pointer when the function
// returns an aggregate.
func (st *funcState) copyArguments() error {
	st.prologue = append(st.prologue, &node.FrameWrite{
		Slot:  st.sp,
		Value: &node.ArgRead{Index: 0, Kind: frame.KindAddress},
	})
	idx := 1
	if st.fn.ReturnsAggregate() {
		idx++
	}
	for _, p := range st.fn.Params {
		slot := st.slots[p.Name]
		if p.IsStructByValue() {
			pointee := p.ByValPointee()
			if pointee == nil || pointee.IsVoid() {
				return fmt.Errorf("byval parameter %%%s has no pointee type", p.Name)
			}
			st.prologue = append(st.prologue, &node.CopyStructByValue{
				Slot: slot,
				Arg:  &node.ArgRead{Index: idx, Kind: frame.KindAddress},
				Type: pointee,
			})
		} else {
			st.prologue = append(st.prologue, &node.FrameWrite{
				Slot:  slot,
				Value: &node.ArgRead{Index: idx, Kind: slot.Kind},
			})
		}
		idx++
	}
	return nil
}

func (st *funcState) assemble() *node.Callable {
	var loc *ir.SourceLocation
	if st.fn.Source != nil {
		loc = st.fn.Source.Scope
	}
	return &node.Callable{
		Label:    st.fn.Name,
		Layout:   st.layout,
		Prologue: st.prologue,
		Body:     st.body,
		Result:   st.fn.Result,
		Source:   loc,
		Mem:      st.l.ctx.Mem,
	}
}
