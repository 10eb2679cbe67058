package llfront

import (
	"fmt"
	"strings"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"irlower/internal/ir"
)

// body converts one function body on demand.
type body struct {
	c   *converter
	src *llir.Func

	fn     *ir.Func
	blocks map[*llir.Block]int
	cur    *ir.Block
}

// ParseBody implements ir.BodyParser.
func (b *body) ParseBody(f *ir.Func) error {
	b.fn = f
	b.blocks = make(map[*llir.Block]int, len(b.src.Blocks))
	f.Blocks = make([]ir.Block, len(b.src.Blocks))
	for i, bb := range b.src.Blocks {
		b.blocks[bb] = i
		f.Blocks[i] = ir.Block{Index: i, Name: nameOf(bb)}
	}
	for i, bb := range b.src.Blocks {
		b.cur = &f.Blocks[i]
		for _, inst := range bb.Insts {
			if err := b.inst(inst); err != nil {
				return fmt.Errorf("%%%s: %w", b.cur.Name, err)
			}
		}
		t, err := b.term(bb.Term)
		if err != nil {
			return fmt.Errorf("%%%s: %w", b.cur.Name, err)
		}
		b.cur.Term = t
	}
	return nil
}

func (b *body) emit(in ir.Instr) ir.Operand {
	b.cur.Instrs = append(b.cur.Instrs, in)
	return ir.Value(in.Type, in.Name)
}

func (b *body) typ(t types.Type) (*ir.Type, error) {
	return b.c.types.convert(t)
}

// block maps a branch target to its index.
func (b *body) block(v any) (int, error) {
	bb, ok := v.(*llir.Block)
	if !ok {
		return 0, fmt.Errorf("branch target %v is not a block", v)
	}
	idx, ok := b.blocks[bb]
	if !ok {
		return 0, fmt.Errorf("branch to block %%%s of another function", nameOf(bb))
	}
	return idx, nil
}

func (b *body) operand(v value.Value) (ir.Operand, error) {
	t, err := b.typ(v.Type())
	if err != nil {
		return ir.Operand{}, err
	}
	switch v := v.(type) {
	case *constant.Int:
		return ir.Const(t, v.X.Int64()), nil
	case *constant.Null:
		return ir.Null(), nil
	case *constant.Undef:
		return ir.Operand{Kind: ir.OperandUndef, Type: t}, nil
	case *constant.ZeroInitializer:
		if t.IsPointer() {
			return ir.Null(), nil
		}
		if t.IsInt() {
			return ir.Const(t, 0), nil
		}
		return ir.Operand{}, fmt.Errorf("zeroinitializer of %s", t)
	case *constant.ExprBitCast:
		return b.operand(v.From)
	case *constant.BlockAddress:
		idx, err := b.block(v.Block)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.BlockAddr(idx), nil
	case *llir.Global:
		return ir.GlobalAddr(nameOf(v)), nil
	case *llir.Func:
		return ir.Operand{}, fmt.Errorf("function pointer @%s", nameOf(v))
	case *llir.Param, llir.Instruction, *llir.TermInvoke:
		return ir.Value(t, nameOf(v)), nil
	}
	return ir.Operand{}, fmt.Errorf("unsupported operand %s", v.Ident())
}

func (b *body) operands(vs []value.Value) ([]ir.Operand, error) {
	out := make([]ir.Operand, len(vs))
	for i, v := range vs {
		op, err := b.operand(v)
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

func (b *body) binop(name string, op ir.BinOp, x, y value.Value) error {
	xs, err := b.operands([]value.Value{x, y})
	if err != nil {
		return err
	}
	b.emit(ir.Instr{Kind: ir.InstrBinOp, Name: name, Type: xs[0].Type, BinOp: ir.BinOpInstr{Op: op, X: xs[0], Y: xs[1]}})
	return nil
}

// cast converts from to type to. Zero extension masks the source bits;
// every other cast is an add of zero truncated to the result width.
func (b *body) cast(name string, from value.Value, to types.Type, zext bool) error {
	x, err := b.operand(from)
	if err != nil {
		return err
	}
	t, err := b.typ(to)
	if err != nil {
		return err
	}
	in := ir.Instr{Kind: ir.InstrBinOp, Name: name, Type: t, BinOp: ir.BinOpInstr{Op: ir.OpAdd, X: x, Y: ir.Const(ir.I64, 0)}}
	if zext && x.Type.IsInt() && x.Type.Bits < 64 {
		in.BinOp = ir.BinOpInstr{Op: ir.OpAnd, X: x, Y: ir.Const(ir.I64, int64(1)<<x.Type.Bits-1)}
	}
	b.emit(in)
	return nil
}

var ipreds = map[enum.IPred]ir.Pred{
	enum.IPredEQ:  ir.PredEQ,
	enum.IPredNE:  ir.PredNE,
	enum.IPredSLT: ir.PredSLT,
	enum.IPredSLE: ir.PredSLE,
	enum.IPredSGT: ir.PredSGT,
	enum.IPredSGE: ir.PredSGE,
	enum.IPredULT: ir.PredULT,
	enum.IPredUGT: ir.PredUGT,
}

// ignoredCalls have no effect on execution.
var ignoredCalls = []string{"llvm.dbg.", "llvm.lifetime.", "llvm.assume"}

func (b *body) inst(inst llir.Instruction) error {
	name := nameOf(inst)
	switch in := inst.(type) {
	case *llir.InstAdd:
		return b.binop(name, ir.OpAdd, in.X, in.Y)
	case *llir.InstSub:
		return b.binop(name, ir.OpSub, in.X, in.Y)
	case *llir.InstMul:
		return b.binop(name, ir.OpMul, in.X, in.Y)
	case *llir.InstSDiv:
		return b.binop(name, ir.OpSDiv, in.X, in.Y)
	case *llir.InstSRem:
		return b.binop(name, ir.OpSRem, in.X, in.Y)
	case *llir.InstAnd:
		return b.binop(name, ir.OpAnd, in.X, in.Y)
	case *llir.InstOr:
		return b.binop(name, ir.OpOr, in.X, in.Y)
	case *llir.InstXor:
		return b.binop(name, ir.OpXor, in.X, in.Y)
	case *llir.InstShl:
		return b.binop(name, ir.OpShl, in.X, in.Y)
	case *llir.InstAShr:
		return b.binop(name, ir.OpAShr, in.X, in.Y)
	case *llir.InstTrunc:
		return b.cast(name, in.From, in.To, false)
	case *llir.InstSExt:
		return b.cast(name, in.From, in.To, false)
	case *llir.InstZExt:
		return b.cast(name, in.From, in.To, true)
	case *llir.InstBitCast:
		return b.cast(name, in.From, in.To, false)
	case *llir.InstPtrToInt:
		return b.cast(name, in.From, in.To, false)
	case *llir.InstIntToPtr:
		return b.cast(name, in.From, in.To, false)
	case *llir.InstICmp:
		pred, ok := ipreds[in.Pred]
		if !ok {
			return fmt.Errorf("icmp %s is not supported", in.Pred)
		}
		xs, err := b.operands([]value.Value{in.X, in.Y})
		if err != nil {
			return err
		}
		b.emit(ir.Instr{Kind: ir.InstrICmp, Name: name, Type: ir.I1, ICmp: ir.ICmpInstr{Pred: pred, X: xs[0], Y: xs[1]}})
		return nil
	case *llir.InstPhi:
		t, err := b.typ(in.Type())
		if err != nil {
			return err
		}
		phi := ir.PhiInstr{Incoming: make([]ir.PhiIncoming, len(in.Incs))}
		for i, inc := range in.Incs {
			pred, err := b.block(inc.Pred)
			if err != nil {
				return err
			}
			v, err := b.operand(inc.X)
			if err != nil {
				return err
			}
			phi.Incoming[i] = ir.PhiIncoming{Pred: pred, Value: v}
		}
		b.emit(ir.Instr{Kind: ir.InstrPhi, Name: name, Type: t, Phi: phi})
		return nil
	case *llir.InstAlloca:
		elem, err := b.typ(in.ElemType)
		if err != nil {
			return err
		}
		b.emit(ir.Instr{Kind: ir.InstrAlloca, Name: name, Type: ir.PointerTo(elem), Alloca: ir.AllocaInstr{Elem: elem}})
		return nil
	case *llir.InstLoad:
		t, err := b.typ(in.ElemType)
		if err != nil {
			return err
		}
		addr, err := b.operand(in.Src)
		if err != nil {
			return err
		}
		b.emit(ir.Instr{Kind: ir.InstrLoad, Name: name, Type: t, Load: ir.LoadInstr{Addr: addr}})
		return nil
	case *llir.InstStore:
		xs, err := b.operands([]value.Value{in.Src, in.Dst})
		if err != nil {
			return err
		}
		b.emit(ir.Instr{Kind: ir.InstrStore, Type: ir.Void, Store: ir.StoreInstr{Value: xs[0], Addr: xs[1]}})
		return nil
	case *llir.InstGetElementPtr:
		return b.gep(name, in)
	case *llir.InstExtractValue:
		agg, err := b.operand(in.X)
		if err != nil {
			return err
		}
		if len(in.Indices) != 1 {
			return fmt.Errorf("extractvalue with %d indices", len(in.Indices))
		}
		idx := int(in.Indices[0])
		b.emit(ir.Instr{Kind: ir.InstrExtractValue, Name: name, Type: agg.Type.Element(idx), ExtractValue: ir.ExtractValueInstr{Agg: agg, Index: idx}})
		return nil
	case *llir.InstCall:
		callee, ok := in.Callee.(*llir.Func)
		if !ok {
			return fmt.Errorf("indirect call through %s", in.Callee.Ident())
		}
		target := nameOf(callee)
		if target == dbgValue {
			return b.debugValue(in.Args)
		}
		for _, p := range ignoredCalls {
			if strings.HasPrefix(target, p) {
				return nil
			}
		}
		t, err := b.typ(in.Type())
		if err != nil {
			return err
		}
		args, err := b.operands(in.Args)
		if err != nil {
			return fmt.Errorf("call @%s: %w", target, err)
		}
		if t.IsVoid() {
			name = ""
		}
		b.emit(ir.Instr{Kind: ir.InstrCall, Name: name, Type: t, Call: ir.CallInstr{Callee: target, Args: args}})
		return nil
	case *llir.InstLandingPad:
		lp := ir.LandingpadInstr{Cleanup: in.Cleanup}
		for _, cl := range in.Clauses {
			clause, err := b.clause(cl)
			if err != nil {
				return err
			}
			lp.Clauses = append(lp.Clauses, clause)
		}
		b.emit(ir.Instr{Kind: ir.InstrLandingpad, Name: name, Type: ir.LandingpadType, Landingpad: lp})
		return nil
	}
	return fmt.Errorf("unsupported instruction %T", inst)
}

// clause converts a landing pad clause. A filter names an array of type
// infos; an empty filter is a zero-length array.
func (b *body) clause(cl *llir.Clause) (ir.LandingpadClause, error) {
	if cl.Type == enum.ClauseTypeCatch {
		op, err := b.operand(cl.X)
		if err != nil {
			return ir.LandingpadClause{}, err
		}
		return ir.CatchClause(op), nil
	}
	var elems []constant.Constant
	switch x := cl.X.(type) {
	case *constant.Array:
		elems = x.Elems
	case *constant.ZeroInitializer:
	default:
		return ir.LandingpadClause{}, fmt.Errorf("filter over %s", cl.X.Ident())
	}
	tys := make([]ir.Operand, len(elems))
	for i, e := range elems {
		op, err := b.operand(e)
		if err != nil {
			return ir.LandingpadClause{}, err
		}
		tys[i] = op
	}
	return ir.FilterClause(tys...), nil
}

// gep computes the element address as base plus a constant offset plus a
// scaled term per variable index.
func (b *body) gep(name string, in *llir.InstGetElementPtr) error {
	base, err := b.operand(in.Src)
	if err != nil {
		return err
	}
	cur, err := b.typ(in.ElemType)
	if err != nil {
		return err
	}
	var offset int64
	var terms []ir.Operand
	for i, idxv := range in.Indices {
		idx, err := b.operand(idxv)
		if err != nil {
			return err
		}
		var scale int
		if i == 0 {
			scale = cur.Size()
		} else {
			switch cur.Kind {
			case ir.TypeStruct:
				if idx.Kind != ir.OperandConst {
					return fmt.Errorf("getelementptr: variable struct index")
				}
				offset += int64(cur.Offset(int(idx.Int)))
				cur = cur.Element(int(idx.Int))
				continue
			case ir.TypeArray:
				cur = cur.Elem
				scale = cur.Size()
			default:
				return fmt.Errorf("getelementptr into %s", cur)
			}
		}
		if idx.Kind == ir.OperandConst {
			offset += idx.Int * int64(scale)
			continue
		}
		scaled := fmt.Sprintf("%s.idx%d", name, i)
		terms = append(terms, b.emit(ir.Instr{Kind: ir.InstrBinOp, Name: scaled, Type: ir.I64,
			BinOp: ir.BinOpInstr{Op: ir.OpMul, X: idx, Y: ir.Const(ir.I64, int64(scale))}}))
	}
	for i, term := range terms {
		part := fmt.Sprintf("%s.part%d", name, i)
		base = b.emit(ir.Instr{Kind: ir.InstrBinOp, Name: part, Type: ir.Ptr,
			BinOp: ir.BinOpInstr{Op: ir.OpAdd, X: base, Y: term}})
	}
	b.emit(ir.Instr{Kind: ir.InstrBinOp, Name: name, Type: ir.PointerTo(cur),
		BinOp: ir.BinOpInstr{Op: ir.OpAdd, X: base, Y: ir.Const(ir.I64, offset)}})
	return nil
}

func (b *body) term(t llir.Terminator) (ir.Terminator, error) {
	switch t := t.(type) {
	case *llir.TermRet:
		if t.X == nil {
			return ir.Terminator{Kind: ir.TermRet}, nil
		}
		v, err := b.operand(t.X)
		if err != nil {
			return ir.Terminator{}, err
		}
		return ir.Terminator{Kind: ir.TermRet, Ret: ir.RetTerm{HasValue: true, Value: v}}, nil
	case *llir.TermBr:
		target, err := b.block(t.Target)
		if err != nil {
			return ir.Terminator{}, err
		}
		return ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: target}}, nil
	case *llir.TermCondBr:
		cond, err := b.operand(t.Cond)
		if err != nil {
			return ir.Terminator{}, err
		}
		then, err := b.block(t.TargetTrue)
		if err != nil {
			return ir.Terminator{}, err
		}
		els, err := b.block(t.TargetFalse)
		if err != nil {
			return ir.Terminator{}, err
		}
		return ir.Terminator{Kind: ir.TermCondBr, CondBr: ir.CondBrTerm{Cond: cond, Then: then, Else: els}}, nil
	case *llir.TermSwitch:
		v, err := b.operand(t.X)
		if err != nil {
			return ir.Terminator{}, err
		}
		def, err := b.block(t.TargetDefault)
		if err != nil {
			return ir.Terminator{}, err
		}
		sw := ir.SwitchTerm{Value: v, Default: def}
		for _, c := range t.Cases {
			cv, err := b.operand(c.X)
			if err != nil {
				return ir.Terminator{}, err
			}
			if cv.Kind != ir.OperandConst {
				return ir.Terminator{}, fmt.Errorf("switch case %s is not an integer", c.X.Ident())
			}
			target, err := b.block(c.Target)
			if err != nil {
				return ir.Terminator{}, err
			}
			sw.Cases = append(sw.Cases, ir.SwitchCase{Value: cv.Int, Target: target})
		}
		return ir.Terminator{Kind: ir.TermSwitch, Switch: sw}, nil
	case *llir.TermIndirectBr:
		addr, err := b.operand(t.Addr)
		if err != nil {
			return ir.Terminator{}, err
		}
		ib := ir.IndirectBrTerm{Addr: addr}
		for _, v := range t.ValidTargets {
			idx, err := b.block(v)
			if err != nil {
				return ir.Terminator{}, err
			}
			ib.Targets = append(ib.Targets, idx)
		}
		return ir.Terminator{Kind: ir.TermIndirectBr, IndirectBr: ib}, nil
	case *llir.TermInvoke:
		callee, ok := t.Invokee.(*llir.Func)
		if !ok {
			return ir.Terminator{}, fmt.Errorf("indirect invoke through %s", t.Invokee.Ident())
		}
		res, err := b.typ(t.Type())
		if err != nil {
			return ir.Terminator{}, err
		}
		args, err := b.operands(t.Args)
		if err != nil {
			return ir.Terminator{}, err
		}
		normal, err := b.block(t.NormalRetTarget)
		if err != nil {
			return ir.Terminator{}, err
		}
		unwind, err := b.block(t.ExceptionRetTarget)
		if err != nil {
			return ir.Terminator{}, err
		}
		inv := ir.InvokeTerm{Type: res, Callee: nameOf(callee), Args: args, Normal: normal, Unwind: unwind}
		if !res.IsVoid() {
			inv.Name = nameOf(t)
		}
		return ir.Terminator{Kind: ir.TermInvoke, Invoke: inv}, nil
	case *llir.TermResume:
		v, err := b.operand(t.X)
		if err != nil {
			return ir.Terminator{}, err
		}
		return ir.Terminator{Kind: ir.TermResume, Resume: ir.ResumeTerm{Value: v}}, nil
	case *llir.TermUnreachable:
		return ir.Terminator{Kind: ir.TermUnreachable}, nil
	}
	return ir.Terminator{}, fmt.Errorf("unsupported terminator %T", t)
}
