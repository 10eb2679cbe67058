package ir

// Operands returns the inputs of the instruction in evaluation order.
// Phi incoming values are not included: they are read on the edge, not in
// the block holding the phi.
func (in *Instr) Operands() []Operand {
	switch in.Kind {
	case InstrBinOp:
		return []Operand{in.BinOp.X, in.BinOp.Y}
	case InstrICmp:
		return []Operand{in.ICmp.X, in.ICmp.Y}
	case InstrLoad:
		return []Operand{in.Load.Addr}
	case InstrStore:
		return []Operand{in.Store.Value, in.Store.Addr}
	case InstrCall:
		return append([]Operand(nil), in.Call.Args...)
	case InstrExtractValue:
		return []Operand{in.ExtractValue.Agg}
	case InstrLandingpad:
		var out []Operand
		for _, c := range in.Landingpad.Clauses {
			out = append(out, c.Types...)
		}
		return out
	}
	return nil
}

// Operands returns the inputs of the terminator.
func (t *Terminator) Operands() []Operand {
	switch t.Kind {
	case TermRet:
		if t.Ret.HasValue {
			return []Operand{t.Ret.Value}
		}
	case TermCondBr:
		return []Operand{t.CondBr.Cond}
	case TermSwitch:
		return []Operand{t.Switch.Value}
	case TermIndirectBr:
		return []Operand{t.IndirectBr.Addr}
	case TermInvoke:
		return append([]Operand(nil), t.Invoke.Args...)
	case TermResume:
		return []Operand{t.Resume.Value}
	}
	return nil
}

// Predecessors returns, for every block, the indices of blocks that branch
// to it, each listed once in ascending order.
func (f *Func) Predecessors() [][]int {
	preds := make([][]int, len(f.Blocks))
	for i := range f.Blocks {
		seen := make(map[int]bool, 2)
		for _, s := range f.Blocks[i].Term.Successors() {
			if s < 0 || s >= len(f.Blocks) || seen[s] {
				continue
			}
			seen[s] = true
			preds[s] = append(preds[s], i)
		}
	}
	return preds
}
