package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes a human-readable representation of a module.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	for _, g := range m.Globals {
		kind := "global"
		if g.TypeInfo {
			kind = "typeinfo"
		}
		if len(g.Bases) > 0 {
			fmt.Fprintf(w, "@%s = %s %s bases=%s\n", g.Name, kind, g.Type, strings.Join(g.Bases, ","))
		} else {
			fmt.Fprintf(w, "@%s = %s %s\n", g.Name, kind, g.Type)
		}
	}
	for _, f := range m.Funcs {
		if err := DumpFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, f *Func) error {
	if w == nil || f == nil {
		return nil
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		s := fmt.Sprintf("%s %%%s", p.Type, p.Name)
		if p.IsStructByValue() {
			s = fmt.Sprintf("%s byval(%s) %%%s", p.Type, p.ByValPointee(), p.Name)
		}
		params[i] = s
	}
	if f.IsDeclaration() {
		_, err := fmt.Fprintf(w, "\ndeclare %s @%s(%s)\n", f.Result, f.Name, strings.Join(params, ", "))
		return err
	}
	fmt.Fprintf(w, "\ndefine %s %s @%s(%s) {\n", f.Linkage, f.Result, f.Name, strings.Join(params, ", "))
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "%s: ; bb%d\n", bb.Name, bb.Index)
		for j := range bb.Instrs {
			fmt.Fprintf(w, "  %s\n", formatInstr(f, &bb.Instrs[j]))
		}
		fmt.Fprintf(w, "  %s\n", formatTerm(f, &bb.Term))
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func blockLabel(f *Func, idx int) string {
	if bb := f.Block(idx); bb != nil && bb.Name != "" {
		return "%" + bb.Name
	}
	return fmt.Sprintf("bb%d", idx)
}

func formatOperand(f *Func, op Operand) string {
	switch op.Kind {
	case OperandConst:
		return fmt.Sprintf("%s %d", op.Type, op.Int)
	case OperandValue:
		return fmt.Sprintf("%s %%%s", op.Type, op.Name)
	case OperandNull:
		return "ptr null"
	case OperandGlobal:
		return "ptr @" + op.Name
	case OperandUndef:
		return fmt.Sprintf("%s undef", op.Type)
	case OperandBlockAddr:
		return fmt.Sprintf("blockaddress(@%s, %s)", f.Name, blockLabel(f, op.Block))
	}
	return "<operand?>"
}

func formatOperands(f *Func, ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = formatOperand(f, op)
	}
	return strings.Join(parts, ", ")
}

func formatInstr(f *Func, ins *Instr) string {
	dst := ""
	if ins.HasValue() {
		dst = "%" + ins.Name + " = "
	}
	switch ins.Kind {
	case InstrBinOp:
		return fmt.Sprintf("%s%s %s, %s", dst, ins.BinOp.Op, formatOperand(f, ins.BinOp.X), formatOperand(f, ins.BinOp.Y))
	case InstrICmp:
		return fmt.Sprintf("%sicmp %s %s, %s", dst, ins.ICmp.Pred, formatOperand(f, ins.ICmp.X), formatOperand(f, ins.ICmp.Y))
	case InstrPhi:
		parts := make([]string, len(ins.Phi.Incoming))
		for i, inc := range ins.Phi.Incoming {
			parts[i] = fmt.Sprintf("[ %s, %s ]", formatOperand(f, inc.Value), blockLabel(f, inc.Pred))
		}
		return fmt.Sprintf("%sphi %s %s", dst, ins.Type, strings.Join(parts, ", "))
	case InstrAlloca:
		return fmt.Sprintf("%salloca %s", dst, ins.Alloca.Elem)
	case InstrLoad:
		return fmt.Sprintf("%sload %s, %s", dst, ins.Type, formatOperand(f, ins.Load.Addr))
	case InstrStore:
		return fmt.Sprintf("store %s, %s", formatOperand(f, ins.Store.Value), formatOperand(f, ins.Store.Addr))
	case InstrCall:
		return fmt.Sprintf("%scall %s @%s(%s)", dst, ins.Type, ins.Call.Callee, formatOperands(f, ins.Call.Args))
	case InstrExtractValue:
		return fmt.Sprintf("%sextractvalue %s, %d", dst, formatOperand(f, ins.ExtractValue.Agg), ins.ExtractValue.Index)
	case InstrLandingpad:
		var sb strings.Builder
		sb.WriteString(dst)
		sb.WriteString("landingpad ")
		sb.WriteString(ins.Type.String())
		if ins.Landingpad.Cleanup {
			sb.WriteString(" cleanup")
		}
		for _, c := range ins.Landingpad.Clauses {
			sb.WriteString(" ")
			sb.WriteString(c.Kind.String())
			sb.WriteString(" [")
			sb.WriteString(formatOperands(f, c.Types))
			sb.WriteString("]")
		}
		return sb.String()
	}
	return "<instr?>"
}

func formatTerm(f *Func, t *Terminator) string {
	switch t.Kind {
	case TermRet:
		if t.Ret.HasValue {
			return "ret " + formatOperand(f, t.Ret.Value)
		}
		return "ret void"
	case TermBr:
		return "br label " + blockLabel(f, t.Br.Target)
	case TermCondBr:
		return fmt.Sprintf("br %s, label %s, label %s", formatOperand(f, t.CondBr.Cond), blockLabel(f, t.CondBr.Then), blockLabel(f, t.CondBr.Else))
	case TermSwitch:
		parts := make([]string, len(t.Switch.Cases))
		for i, c := range t.Switch.Cases {
			parts[i] = fmt.Sprintf("%d: %s", c.Value, blockLabel(f, c.Target))
		}
		return fmt.Sprintf("switch %s, label %s [%s]", formatOperand(f, t.Switch.Value), blockLabel(f, t.Switch.Default), strings.Join(parts, " "))
	case TermIndirectBr:
		parts := make([]string, len(t.IndirectBr.Targets))
		for i, target := range t.IndirectBr.Targets {
			parts[i] = blockLabel(f, target)
		}
		return fmt.Sprintf("indirectbr %s, [%s]", formatOperand(f, t.IndirectBr.Addr), strings.Join(parts, ", "))
	case TermInvoke:
		dst := ""
		if t.HasValue() {
			dst = "%" + t.Invoke.Name + " = "
		}
		return fmt.Sprintf("%sinvoke %s @%s(%s) to label %s unwind label %s", dst, t.Invoke.Type, t.Invoke.Callee,
			formatOperands(f, t.Invoke.Args), blockLabel(f, t.Invoke.Normal), blockLabel(f, t.Invoke.Unwind))
	case TermResume:
		return "resume " + formatOperand(f, t.Resume.Value)
	case TermUnreachable:
		return "unreachable"
	}
	return "<term?>"
}
