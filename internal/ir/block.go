package ir

type Block struct {
	Index  int
	Name   string
	Instrs []Instr
	Term   Terminator
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}

// Phis returns the leading phi instructions of the block.
func (b *Block) Phis() []Instr {
	n := 0
	for n < len(b.Instrs) && b.Instrs[n].Kind == InstrPhi {
		n++
	}
	return b.Instrs[:n]
}
