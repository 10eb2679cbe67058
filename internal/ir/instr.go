package ir

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandConst is an integer constant.
	OperandConst OperandKind = iota
	// OperandValue reads a named local value (parameter or instruction result).
	OperandValue
	// OperandNull is the null pointer.
	OperandNull
	// OperandGlobal is the address of a module global.
	OperandGlobal
	// OperandUndef is an undefined value of Type.
	OperandUndef
	// OperandBlockAddr is the address of a block inside the current function.
	OperandBlockAddr
)

// Operand is an instruction input.
type Operand struct {
	Kind  OperandKind
	Type  *Type
	Int   int64
	Name  string
	Block int
}

// Const returns an integer constant operand.
func Const(t *Type, v int64) Operand { return Operand{Kind: OperandConst, Type: t, Int: v} }

// Value returns an operand reading the named local value.
func Value(t *Type, name string) Operand { return Operand{Kind: OperandValue, Type: t, Name: name} }

// Null returns the null pointer operand.
func Null() Operand { return Operand{Kind: OperandNull, Type: Ptr} }

// GlobalAddr returns the address of the named global.
func GlobalAddr(name string) Operand { return Operand{Kind: OperandGlobal, Type: Ptr, Name: name} }

// BlockAddr returns the address of block idx.
func BlockAddr(idx int) Operand { return Operand{Kind: OperandBlockAddr, Type: Ptr, Block: idx} }

// IsNull reports whether the operand is a null or zero constant.
func (o Operand) IsNull() bool {
	return o.Kind == OperandNull || (o.Kind == OperandConst && o.Int == 0)
}

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrBinOp is a two-operand integer arithmetic instruction.
	InstrBinOp InstrKind = iota
	// InstrICmp is an integer comparison.
	InstrICmp
	// InstrPhi selects a value by predecessor.
	InstrPhi
	// InstrAlloca reserves stack storage.
	InstrAlloca
	// InstrLoad reads memory.
	InstrLoad
	// InstrStore writes memory.
	InstrStore
	// InstrCall calls a function or host builtin.
	InstrCall
	// InstrExtractValue reads an aggregate element.
	InstrExtractValue
	// InstrLandingpad evaluates exception clauses.
	InstrLandingpad
)

// Instr is a non-terminating instruction. Name is empty for instructions
// without a result.
type Instr struct {
	Kind InstrKind
	Name string
	Type *Type

	BinOp        BinOpInstr
	ICmp         ICmpInstr
	Phi          PhiInstr
	Alloca       AllocaInstr
	Load         LoadInstr
	Store        StoreInstr
	Call         CallInstr
	ExtractValue ExtractValueInstr
	Landingpad   LandingpadInstr
}

// HasValue reports whether the instruction defines a named value.
func (in *Instr) HasValue() bool {
	if in.Kind == InstrStore {
		return false
	}
	return !in.Type.IsVoid()
}

// BinOp is an arithmetic operator.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpSDiv
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpAShr
)

var binOpNames = [...]string{"add", "sub", "mul", "sdiv", "srem", "and", "or", "xor", "shl", "ashr"}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "binop?"
}

// BinOpInstr computes X op Y.
type BinOpInstr struct {
	Op BinOp
	X  Operand
	Y  Operand
}

// Pred is an integer comparison predicate.
type Pred uint8

const (
	PredEQ Pred = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	PredULT
	PredUGT
)

var predNames = [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ugt"}

func (p Pred) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return "pred?"
}

// ICmpInstr compares X and Y.
type ICmpInstr struct {
	Pred Pred
	X    Operand
	Y    Operand
}

// PhiIncoming is one (predecessor, value) pair of a phi.
type PhiIncoming struct {
	Pred  int
	Value Operand
}

// PhiInstr selects the incoming value of the predecessor control came from.
type PhiInstr struct {
	Incoming []PhiIncoming
}

// AllocaInstr reserves storage for Elem.
type AllocaInstr struct {
	Elem *Type
}

// LoadInstr reads a value of the instruction type from Addr.
type LoadInstr struct {
	Addr Operand
}

// StoreInstr writes Value to Addr.
type StoreInstr struct {
	Value Operand
	Addr  Operand
}

// CallInstr calls Callee by name.
type CallInstr struct {
	Callee string
	Args   []Operand
}

// ExtractValueInstr reads element Index of Agg.
type ExtractValueInstr struct {
	Agg   Operand
	Index int
}

// ClauseKind distinguishes landing pad clauses.
type ClauseKind uint8

const (
	// ClauseCatch matches a single type.
	ClauseCatch ClauseKind = iota
	// ClauseFilter matches when the thrown type is in none of Types.
	ClauseFilter
)

func (k ClauseKind) String() string {
	if k == ClauseFilter {
		return "filter"
	}
	return "catch"
}

// LandingpadClause is one clause of a landing pad. Catch clauses carry
// exactly one type operand.
type LandingpadClause struct {
	Kind  ClauseKind
	Types []Operand
}

// LandingpadInstr is the first instruction of an unwind destination.
type LandingpadInstr struct {
	Cleanup bool
	Clauses []LandingpadClause
}
