package node

import (
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/ir"
)

// FrameWrite stores the value of an expression into a slot.
type FrameWrite struct {
	Slot  *frame.Slot
	Value Expr
}

func (w *FrameWrite) Exec(fr *frame.Frame) error {
	fr.Set(w.Slot, w.Value.Eval(fr))
	return nil
}

// DebugInit writes the known value of a source variable on function entry.
type DebugInit struct {
	FrameWrite
	Var string
}

// Nop stands for instructions whose effect happens elsewhere, such as phis.
type Nop struct{}

func (Nop) Exec(*frame.Frame) error { return nil }

// BinOp computes a wrapping integer operation.
type BinOp struct {
	Slot *frame.Slot
	Op   ir.BinOp
	X, Y Expr
}

func (b *BinOp) Exec(fr *frame.Frame) error {
	x, y := b.X.Eval(fr), b.Y.Eval(fr)
	var r int64
	switch b.Op {
	case ir.OpAdd:
		r = x.Int() + y.Int()
	case ir.OpSub:
		r = x.Int() - y.Int()
	case ir.OpMul:
		r = x.Int() * y.Int()
	case ir.OpSDiv, ir.OpSRem:
		if y.Int() == 0 {
			fault.Raise(fault.Arithmetic, "%s by zero", b.Op)
		}
		// MinInt / -1 wraps instead of trapping.
		if y.Int() == -1 {
			if b.Op == ir.OpSDiv {
				r = -x.Int()
			}
			break
		}
		if b.Op == ir.OpSDiv {
			r = x.Int() / y.Int()
		} else {
			r = x.Int() % y.Int()
		}
	case ir.OpAnd:
		r = x.Int() & y.Int()
	case ir.OpOr:
		r = x.Int() | y.Int()
	case ir.OpXor:
		r = x.Int() ^ y.Int()
	case ir.OpShl:
		r = x.Int() << y.Uint()
	case ir.OpAShr:
		r = x.Int() >> y.Uint()
	default:
		fault.Raise(fault.Unimplemented, "binary operator %s", b.Op)
	}
	fr.Set(b.Slot, frame.Int(b.Slot.Kind, r))
	return nil
}

// ICmp compares two integers.
type ICmp struct {
	Slot *frame.Slot
	Pred ir.Pred
	X, Y Expr
}

func (c *ICmp) Exec(fr *frame.Frame) error {
	x, y := c.X.Eval(fr), c.Y.Eval(fr)
	var r bool
	switch c.Pred {
	case ir.PredEQ:
		r = x.Uint() == y.Uint()
	case ir.PredNE:
		r = x.Uint() != y.Uint()
	case ir.PredSLT:
		r = x.Int() < y.Int()
	case ir.PredSLE:
		r = x.Int() <= y.Int()
	case ir.PredSGT:
		r = x.Int() > y.Int()
	case ir.PredSGE:
		r = x.Int() >= y.Int()
	case ir.PredULT:
		r = x.Uint() < y.Uint()
	case ir.PredUGT:
		r = x.Uint() > y.Uint()
	default:
		fault.Raise(fault.Unimplemented, "predicate %s", c.Pred)
	}
	fr.Set(c.Slot, frame.I1(r))
	return nil
}
