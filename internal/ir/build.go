package ir

// Builder assembles a Func block by block. It is used by front ends and
// tests; blocks are appended in index order.
type Builder struct {
	f   *Func
	cur *Block
}

// NewBuilder starts a function definition.
func NewBuilder(name string, result *Type, params ...*Param) *Builder {
	if result == nil {
		result = Void
	}
	return &Builder{f: &Func{Name: name, Result: result, Params: params}}
}

// Func returns the function under construction.
func (b *Builder) Func() *Func { return b.f }

// Block appends a new block and makes it current.
func (b *Builder) Block(name string) int {
	idx := len(b.f.Blocks)
	b.f.Blocks = append(b.f.Blocks, Block{Index: idx, Name: name})
	b.cur = &b.f.Blocks[idx]
	return idx
}

// SetBlock makes block idx current.
func (b *Builder) SetBlock(idx int) {
	b.cur = &b.f.Blocks[idx]
}

// Add appends an instruction to the current block.
func (b *Builder) Add(in Instr) Operand {
	b.cur.Instrs = append(b.cur.Instrs, in)
	return Value(in.Type, in.Name)
}

// Term sets the terminator of the current block.
func (b *Builder) Term(t Terminator) {
	b.cur.Term = t
}

func (b *Builder) BinOp(name string, op BinOp, x, y Operand) Operand {
	return b.Add(Instr{Kind: InstrBinOp, Name: name, Type: x.Type, BinOp: BinOpInstr{Op: op, X: x, Y: y}})
}

func (b *Builder) ICmp(name string, p Pred, x, y Operand) Operand {
	return b.Add(Instr{Kind: InstrICmp, Name: name, Type: I1, ICmp: ICmpInstr{Pred: p, X: x, Y: y}})
}

func (b *Builder) Phi(name string, t *Type, inc ...PhiIncoming) Operand {
	return b.Add(Instr{Kind: InstrPhi, Name: name, Type: t, Phi: PhiInstr{Incoming: inc}})
}

func (b *Builder) Call(name string, result *Type, callee string, args ...Operand) Operand {
	return b.Add(Instr{Kind: InstrCall, Name: name, Type: result, Call: CallInstr{Callee: callee, Args: args}})
}

func (b *Builder) Ret(v Operand) {
	b.Term(Terminator{Kind: TermRet, Ret: RetTerm{HasValue: true, Value: v}})
}

func (b *Builder) RetVoid() {
	b.Term(Terminator{Kind: TermRet})
}

func (b *Builder) Br(target int) {
	b.Term(Terminator{Kind: TermBr, Br: BrTerm{Target: target}})
}

func (b *Builder) CondBr(cond Operand, then, els int) {
	b.Term(Terminator{Kind: TermCondBr, CondBr: CondBrTerm{Cond: cond, Then: then, Else: els}})
}

func (b *Builder) Alloca(name string, elem *Type) Operand {
	return b.Add(Instr{Kind: InstrAlloca, Name: name, Type: PointerTo(elem), Alloca: AllocaInstr{Elem: elem}})
}

func (b *Builder) Load(name string, t *Type, addr Operand) Operand {
	return b.Add(Instr{Kind: InstrLoad, Name: name, Type: t, Load: LoadInstr{Addr: addr}})
}

func (b *Builder) Store(v, addr Operand) {
	b.Add(Instr{Kind: InstrStore, Type: Void, Store: StoreInstr{Value: v, Addr: addr}})
}

func (b *Builder) ExtractValue(name string, agg Operand, index int) Operand {
	return b.Add(Instr{Kind: InstrExtractValue, Name: name, Type: agg.Type.Element(index), ExtractValue: ExtractValueInstr{Agg: agg, Index: index}})
}

func (b *Builder) Landingpad(name string, cleanup bool, clauses ...LandingpadClause) Operand {
	return b.Add(Instr{Kind: InstrLandingpad, Name: name, Type: LandingpadType, Landingpad: LandingpadInstr{Cleanup: cleanup, Clauses: clauses}})
}

func (b *Builder) Switch(v Operand, def int, cases ...SwitchCase) {
	b.Term(Terminator{Kind: TermSwitch, Switch: SwitchTerm{Value: v, Default: def, Cases: cases}})
}

func (b *Builder) IndirectBr(addr Operand, targets ...int) {
	b.Term(Terminator{Kind: TermIndirectBr, IndirectBr: IndirectBrTerm{Addr: addr, Targets: targets}})
}

// Invoke ends the current block with a call that unwinds to unwind.
func (b *Builder) Invoke(name string, result *Type, callee string, normal, unwind int, args ...Operand) Operand {
	b.Term(Terminator{Kind: TermInvoke, Invoke: InvokeTerm{
		Name: name, Type: result, Callee: callee, Args: args, Normal: normal, Unwind: unwind,
	}})
	return Value(result, name)
}

func (b *Builder) Resume(v Operand) {
	b.Term(Terminator{Kind: TermResume, Resume: ResumeTerm{Value: v}})
}

func (b *Builder) Unreachable() {
	b.Term(Terminator{Kind: TermUnreachable})
}

// CatchClause and FilterClause build landing pad clauses.
func CatchClause(typ Operand) LandingpadClause {
	return LandingpadClause{Kind: ClauseCatch, Types: []Operand{typ}}
}

func FilterClause(types ...Operand) LandingpadClause {
	return LandingpadClause{Kind: ClauseFilter, Types: types}
}
