package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermRet
	TermBr
	TermCondBr
	TermSwitch
	TermIndirectBr
	TermInvoke
	TermResume
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Ret        RetTerm
	Br         BrTerm
	CondBr     CondBrTerm
	Switch     SwitchTerm
	IndirectBr IndirectBrTerm
	Invoke     InvokeTerm
	Resume     ResumeTerm
}

type RetTerm struct {
	HasValue bool
	Value    Operand
}

type BrTerm struct {
	Target int
}

type CondBrTerm struct {
	Cond Operand
	Then int
	Else int
}

type SwitchCase struct {
	Value  int64
	Target int
}

type SwitchTerm struct {
	Value   Operand
	Cases   []SwitchCase
	Default int
}

type IndirectBrTerm struct {
	Addr    Operand
	Targets []int
}

// InvokeTerm calls Callee and continues at Normal, or at Unwind when the
// callee raises an exception. Name is empty when the result is unused.
type InvokeTerm struct {
	Name   string
	Type   *Type
	Callee string
	Args   []Operand
	Normal int
	Unwind int
}

type ResumeTerm struct {
	Value Operand
}

// Successors returns the successor block indices in terminator order.
// Duplicate targets are kept.
func (t *Terminator) Successors() []int {
	switch t.Kind {
	case TermBr:
		return []int{t.Br.Target}
	case TermCondBr:
		return []int{t.CondBr.Then, t.CondBr.Else}
	case TermSwitch:
		out := make([]int, 0, len(t.Switch.Cases)+1)
		out = append(out, t.Switch.Default)
		for _, c := range t.Switch.Cases {
			out = append(out, c.Target)
		}
		return out
	case TermIndirectBr:
		return append([]int(nil), t.IndirectBr.Targets...)
	case TermInvoke:
		return []int{t.Invoke.Normal, t.Invoke.Unwind}
	}
	return nil
}

// HasValue reports whether the terminator defines a named value.
func (t *Terminator) HasValue() bool {
	return t.Kind == TermInvoke && t.Invoke.Name != "" && !t.Invoke.Type.IsVoid()
}
