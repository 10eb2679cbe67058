package lower

import (
	"fmt"

	"irlower/internal/eh"
	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/memory"
	"irlower/internal/node"
)

// blockLowerer converts one block into a node.BasicBlock whose statements
// correspond one-to-one with the block's instructions, after any debug
// initializers.
type blockLowerer struct {
	st            *funcState
	bb            *ir.Block
	withDebugInit bool
}

func (bl *blockLowerer) lower() (*node.BasicBlock, error) {
	st := bl.st
	out := &node.BasicBlock{
		Func:       st.fn.Name,
		Index:      bl.bb.Index,
		Name:       bl.bb.Name,
		NullBefore: st.before[bl.bb.Index],
		NullAfter:  st.after[bl.bb.Index],
	}
	if bl.withDebugInit {
		for _, in := range st.inits {
			v, err := bl.operand(in.Value)
			if err != nil {
				return nil, fmt.Errorf("debug variable %s: %w", in.Var.Name, err)
			}
			out.Stmts = append(out.Stmts, &node.DebugInit{
				FrameWrite: node.FrameWrite{Slot: st.slots[in.Slot], Value: v},
				Var:        in.Var.Name,
			})
		}
	}
	for i := range bl.bb.Instrs {
		ins := &bl.bb.Instrs[i]
		s, err := bl.instr(ins)
		if err != nil {
			return nil, fmt.Errorf("%s %%%s: %w", instrName(ins.Kind), ins.Name, err)
		}
		out.Stmts = append(out.Stmts, s)
	}
	term, err := bl.terminator(&bl.bb.Term)
	if err != nil {
		return nil, err
	}
	out.Term = term
	return out, nil
}

func instrName(k ir.InstrKind) string {
	names := [...]string{"binop", "icmp", "phi", "alloca", "load", "store", "call", "extractvalue", "landingpad"}
	if int(k) < len(names) {
		return names[k]
	}
	return "instruction"
}

// operand converts an IR operand into an expression.
func (bl *blockLowerer) operand(op ir.Operand) (node.Expr, error) {
	switch op.Kind {
	case ir.OperandConst:
		k := frame.KindOf(op.Type)
		if k == frame.KindIllegal || k == frame.KindObject {
			return nil, fmt.Errorf("constant of type %s", op.Type)
		}
		return &node.Const{V: frame.Int(k, op.Int)}, nil
	case ir.OperandValue:
		s, ok := bl.st.slots[op.Name]
		if !ok {
			return nil, fmt.Errorf("undefined value %%%s", op.Name)
		}
		return &node.Read{Slot: s}, nil
	case ir.OperandNull:
		return &node.Const{V: frame.Addr(memory.Null)}, nil
	case ir.OperandGlobal:
		a, ok := bl.st.l.ctx.GlobalAddr(op.Name)
		if !ok {
			return nil, fmt.Errorf("undefined global @%s", op.Name)
		}
		return &node.Const{V: frame.Addr(a)}, nil
	case ir.OperandUndef:
		k := frame.KindOf(op.Type)
		if k == frame.KindIllegal {
			return nil, fmt.Errorf("undef of type %s", op.Type)
		}
		return &node.Const{V: frame.Value{Kind: k}}, nil
	case ir.OperandBlockAddr:
		if bl.st.fn.Block(op.Block) == nil {
			return nil, fmt.Errorf("blockaddress of missing bb%d", op.Block)
		}
		return &node.Const{V: frame.Addr(memory.Address(op.Block))}, nil
	}
	return nil, fmt.Errorf("operand kind %d", op.Kind)
}

func (bl *blockLowerer) operands(ops []ir.Operand) ([]node.Expr, error) {
	out := make([]node.Expr, len(ops))
	for i, op := range ops {
		e, err := bl.operand(op)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (bl *blockLowerer) result(ins *ir.Instr) *frame.Slot {
	if !ins.HasValue() {
		return nil
	}
	return bl.st.slots[ins.Name]
}

func (bl *blockLowerer) instr(ins *ir.Instr) (node.Stmt, error) {
	switch ins.Kind {
	case ir.InstrPhi:
		// Written by the predecessor's control node.
		return node.Nop{}, nil
	case ir.InstrBinOp:
		if !ins.Type.IsInt() && !ins.Type.IsPointer() {
			return nil, fmt.Errorf("arithmetic on %s", ins.Type)
		}
		xs, err := bl.operands([]ir.Operand{ins.BinOp.X, ins.BinOp.Y})
		if err != nil {
			return nil, err
		}
		return &node.BinOp{Slot: bl.result(ins), Op: ins.BinOp.Op, X: xs[0], Y: xs[1]}, nil
	case ir.InstrICmp:
		xs, err := bl.operands([]ir.Operand{ins.ICmp.X, ins.ICmp.Y})
		if err != nil {
			return nil, err
		}
		return &node.ICmp{Slot: bl.result(ins), Pred: ins.ICmp.Pred, X: xs[0], Y: xs[1]}, nil
	case ir.InstrAlloca:
		if ins.Alloca.Elem.IsVoid() {
			return nil, fmt.Errorf("alloca of void")
		}
		return &node.Alloca{Slot: bl.result(ins), Type: ins.Alloca.Elem}, nil
	case ir.InstrLoad:
		if ins.Type.IsVoid() {
			return nil, fmt.Errorf("load of void")
		}
		addr, err := bl.operand(ins.Load.Addr)
		if err != nil {
			return nil, err
		}
		return &node.Load{Slot: bl.result(ins), Addr: addr, Type: ins.Type}, nil
	case ir.InstrStore:
		xs, err := bl.operands([]ir.Operand{ins.Store.Value, ins.Store.Addr})
		if err != nil {
			return nil, err
		}
		if ins.Store.Value.Type.IsVoid() {
			return nil, fmt.Errorf("store of void")
		}
		return &node.Store{Value: xs[0], Addr: xs[1], Type: ins.Store.Value.Type}, nil
	case ir.InstrCall:
		target, err := bl.target(ins.Call.Callee)
		if err != nil {
			return nil, err
		}
		args, err := bl.operands(ins.Call.Args)
		if err != nil {
			return nil, err
		}
		return &node.Call{Slot: bl.result(ins), Target: target, SP: bl.st.sp, Result: ins.Type, Args: args}, nil
	case ir.InstrExtractValue:
		agg := ins.ExtractValue.Agg
		if !agg.Type.IsAggregate() || agg.Type.Element(ins.ExtractValue.Index) == nil {
			return nil, fmt.Errorf("no element %d in %s", ins.ExtractValue.Index, agg.Type)
		}
		x, err := bl.operand(agg)
		if err != nil {
			return nil, err
		}
		return &node.ExtractValue{
			Slot:   bl.result(ins),
			Agg:    x,
			Offset: agg.Type.Offset(ins.ExtractValue.Index),
			Type:   agg.Type.Element(ins.ExtractValue.Index),
		}, nil
	case ir.InstrLandingpad:
		clauses := make([]node.Clause, len(ins.Landingpad.Clauses))
		for i, c := range ins.Landingpad.Clauses {
			if c.Kind == ir.ClauseCatch && len(c.Types) != 1 {
				return nil, fmt.Errorf("catch clause with %d types", len(c.Types))
			}
			types, err := bl.operands(c.Types)
			if err != nil {
				return nil, err
			}
			clauses[i] = node.Clause{Kind: eh.ClauseKind(c.Kind), Types: types}
		}
		return &node.Landingpad{
			Slot:      bl.result(ins),
			Exception: bl.st.exc,
			Clauses:   clauses,
			Cleanup:   ins.Landingpad.Cleanup,
			Runtime:   bl.st.l.ctx.Types,
		}, nil
	}
	return nil, fmt.Errorf("cannot lower instruction kind %d", ins.Kind)
}

// target checks that callee exists and returns its lazily resolved
// call target.
func (bl *blockLowerer) target(callee string) (*node.Target, error) {
	ctx := bl.st.l.ctx
	if ctx.Builtin(callee) == nil && ctx.Module.Func(callee) == nil {
		return nil, fmt.Errorf("call to unknown function @%s", callee)
	}
	return node.NewTarget(bl.st.l.resolver, callee), nil
}

// edges builds the phi copies of every outgoing edge.
func (bl *blockLowerer) edges() (node.Edges, error) {
	srcs := bl.st.phis[bl.bb.Index]
	if len(srcs) == 0 {
		return nil, nil
	}
	out := make(node.Edges, len(srcs))
	for succ, list := range srcs {
		copies := make([]node.PhiCopy, len(list))
		for i, src := range list {
			v, err := bl.operand(src.Value)
			if err != nil {
				return nil, fmt.Errorf("phi %%%s: %w", src.Phi, err)
			}
			copies[i] = node.PhiCopy{Slot: bl.st.slots[src.Phi], Value: v}
		}
		out[succ] = copies
	}
	return out, nil
}

func (bl *blockLowerer) terminator(t *ir.Terminator) (node.Control, error) {
	edges, err := bl.edges()
	if err != nil {
		return nil, err
	}
	st := bl.st
	switch t.Kind {
	case ir.TermRet:
		if t.Ret.HasValue == st.fn.Result.IsVoid() {
			return nil, fmt.Errorf("ret does not match result type %s", st.fn.Result)
		}
		if !t.Ret.HasValue {
			return &node.Ret{}, nil
		}
		v, err := bl.operand(t.Ret.Value)
		if err != nil {
			return nil, err
		}
		if st.fn.ReturnsAggregate() {
			return &node.RetAggregate{
				Value: v,
				Out:   &node.ArgRead{Index: 1, Kind: frame.KindAddress},
				Size:  st.fn.Result.Size(),
			}, nil
		}
		return &node.Ret{Value: v}, nil
	case ir.TermBr:
		return &node.Br{Target: t.Br.Target, Edges: edges}, nil
	case ir.TermCondBr:
		cond, err := bl.operand(t.CondBr.Cond)
		if err != nil {
			return nil, err
		}
		br := &node.CondBr{Cond: cond, Then: t.CondBr.Then, Else: t.CondBr.Else, Edges: edges}
		if st.l.opts.BranchProfiles {
			br.Profile = &node.BranchProfile{}
		}
		return br, nil
	case ir.TermSwitch:
		v, err := bl.operand(t.Switch.Value)
		if err != nil {
			return nil, err
		}
		cases := make([]node.SwitchCase, len(t.Switch.Cases))
		for i, c := range t.Switch.Cases {
			cases[i] = node.SwitchCase{Value: c.Value, Target: c.Target}
		}
		return &node.Switch{Value: v, Cases: cases, Default: t.Switch.Default, Edges: edges}, nil
	case ir.TermIndirectBr:
		addr, err := bl.operand(t.IndirectBr.Addr)
		if err != nil {
			return nil, err
		}
		return &node.IndirectBr{Addr: addr, Targets: append([]int(nil), t.IndirectBr.Targets...), Edges: edges}, nil
	case ir.TermInvoke:
		target, err := bl.target(t.Invoke.Callee)
		if err != nil {
			return nil, err
		}
		args, err := bl.operands(t.Invoke.Args)
		if err != nil {
			return nil, err
		}
		var slot *frame.Slot
		if t.HasValue() {
			slot = st.slots[t.Invoke.Name]
		}
		return &node.Invoke{
			Slot:      slot,
			Target:    target,
			SP:        st.sp,
			Result:    t.Invoke.Type,
			Args:      args,
			Exception: st.exc,
			Normal:    t.Invoke.Normal,
			Unwind:    t.Invoke.Unwind,
			Edges:     edges,
		}, nil
	case ir.TermResume:
		return &node.Resume{Exception: st.exc}, nil
	case ir.TermUnreachable:
		return node.Unreachable{}, nil
	}
	return nil, fmt.Errorf("block has no terminator")
}
