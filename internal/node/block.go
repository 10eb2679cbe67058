package node

import (
	"irlower/internal/fault"
	"irlower/internal/frame"
)

// BasicBlock runs its statements and its control node. Slots in
// NullBefore are cleared on entry and those in NullAfter once the control
// node has chosen a successor.
type BasicBlock struct {
	Func       string
	Index      int
	Name       string
	Stmts      []Stmt
	Term       Control
	NullBefore []*frame.Slot
	NullAfter  []*frame.Slot
}

func (b *BasicBlock) Run(fr *frame.Frame) (next int, err error) {
	defer b.locate()
	for _, s := range b.NullBefore {
		fr.Clear(s)
	}
	for _, s := range b.Stmts {
		if err := s.Exec(fr); err != nil {
			return Return, err
		}
	}
	next, err = b.Term.Next(fr)
	if err != nil {
		return Return, err
	}
	for _, s := range b.NullAfter {
		fr.Clear(s)
	}
	return next, nil
}

// locate tags a fault raised in this block with its position.
func (b *BasicBlock) locate() {
	if r := recover(); r != nil {
		if f, ok := r.(*fault.Fault); ok && f.Func == "" {
			f.Func = b.Func
			f.Block = b.Index
		}
		panic(r)
	}
}

// Loop runs the blocks of one loop region until control leaves it, and
// yields the successor outside the region.
type Loop struct {
	Header int
	Body   []int
	// Dispatch maps body block indices to what runs there: the block
	// itself, or a nested loop headed at it.
	Dispatch map[int]Runner
}

// Contains reports whether idx belongs to the loop body.
func (l *Loop) Contains(idx int) bool {
	_, ok := l.Dispatch[idx]
	return ok
}

func (l *Loop) Run(fr *frame.Frame) (int, error) {
	cur := l.Header
	for {
		next, err := l.Dispatch[cur].Run(fr)
		if err != nil || next == Return || !l.Contains(next) {
			return next, err
		}
		cur = next
	}
}

// FunctionBlock is the body of a function: every block plus the loop
// regions patched over their headers.
type FunctionBlock struct {
	Blocks    []*BasicBlock
	Loops     []*Loop
	Exception *frame.Slot
	// Dispatch maps every block index to what runs there.
	Dispatch []Runner
}

// Run executes from block 0 until a block returns.
func (f *FunctionBlock) Run(fr *frame.Frame) error {
	cur := 0
	for {
		next, err := f.Dispatch[cur].Run(fr)
		if err != nil {
			return err
		}
		if next == Return {
			return nil
		}
		cur = next
	}
}
