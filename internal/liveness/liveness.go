// Package liveness computes which named values of a function are dead
// around each block, so their frame slots can be cleared.
package liveness

import (
	"sort"

	"irlower/internal/ir"
)

type nameSet map[string]struct{}

func (s nameSet) add(name string)      { s[name] = struct{}{} }
func (s nameSet) has(name string) bool { _, ok := s[name]; return ok }

func (s nameSet) union(o nameSet) nameSet {
	out := make(nameSet, len(s)+len(o))
	for k := range s {
		out.add(k)
	}
	for k := range o {
		out.add(k)
	}
	return out
}

func (s nameSet) minus(o nameSet) nameSet {
	out := make(nameSet, len(s))
	for k := range s {
		if !o.has(k) {
			out.add(k)
		}
	}
	return out
}

func (s nameSet) equal(o nameSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o.has(k) {
			return false
		}
	}
	return true
}

func (s nameSet) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type blockLiveness struct {
	use nameSet
	def nameSet
	in  nameSet
	out nameSet
}

// Result holds per-block liveness of named values. Phi values count as
// written by the predecessor's terminator, so an edge copy is a use of
// its source and a definition of the phi in the predecessor.
type Result struct {
	blocks []blockLiveness
	before [][]string
	after  [][]string
}

// NullableBefore returns the values that may hold a stale value on entry
// to block idx but are not live there.
func (r *Result) NullableBefore(idx int) []string { return r.before[idx] }

// NullableAfter returns the values read or written in block idx that are
// dead once it has finished.
func (r *Result) NullableAfter(idx int) []string { return r.after[idx] }

// LiveIn returns the values live on entry to block idx.
func (r *Result) LiveIn(idx int) []string { return r.blocks[idx].in.sorted() }

// LiveOut returns the values live on exit from block idx.
func (r *Result) LiveOut(idx int) []string { return r.blocks[idx].out.sorted() }

// Compute runs a backward dataflow to a fixpoint over f's blocks.
func Compute(f *ir.Func) *Result {
	n := len(f.Blocks)
	info := make([]blockLiveness, n)
	for i := range f.Blocks {
		use, def := blockUseDef(f, i)
		info[i] = blockLiveness{use: use, def: def, in: nameSet{}, out: nameSet{}}
	}

	succs := make([][]int, n)
	for i := range f.Blocks {
		succs[i] = f.Blocks[i].Term.Successors()
	}

	changed := true
	for changed {
		changed = false
		for i := n - 1; i >= 0; i-- {
			out := nameSet{}
			for _, s := range succs[i] {
				if s >= 0 && s < n {
					out = out.union(info[s].in)
				}
			}
			in := info[i].use.union(out.minus(info[i].def))
			if !out.equal(info[i].out) || !in.equal(info[i].in) {
				info[i].out = out
				info[i].in = in
				changed = true
			}
		}
	}

	res := &Result{blocks: info, before: make([][]string, n), after: make([][]string, n)}
	preds := f.Predecessors()
	for i := range info {
		incoming := nameSet{}
		for _, p := range preds[i] {
			incoming = incoming.union(info[p].out)
		}
		res.before[i] = incoming.minus(info[i].in).sorted()
		res.after[i] = info[i].in.union(info[i].def).minus(info[i].out).sorted()
	}
	return res
}

func blockUseDef(f *ir.Func, idx int) (use, def nameSet) {
	use, def = nameSet{}, nameSet{}
	addUse := func(op ir.Operand) {
		if op.Kind == ir.OperandValue && !def.has(op.Name) {
			use.add(op.Name)
		}
	}

	bb := &f.Blocks[idx]
	for i := range bb.Instrs {
		ins := &bb.Instrs[i]
		if ins.Kind == ir.InstrPhi {
			continue
		}
		for _, op := range ins.Operands() {
			addUse(op)
		}
		if ins.HasValue() {
			def.add(ins.Name)
		}
	}
	for _, op := range bb.Term.Operands() {
		addUse(op)
	}
	if bb.Term.HasValue() {
		def.add(bb.Term.Invoke.Name)
	}

	// Edge copies: all sources are read before any phi is written.
	var phiDefs []string
	seen := make(map[int]bool, 2)
	for _, s := range bb.Term.Successors() {
		succ := f.Block(s)
		if succ == nil || seen[s] {
			continue
		}
		seen[s] = true
		for _, phi := range succ.Phis() {
			for _, inc := range phi.Phi.Incoming {
				if inc.Pred == idx {
					addUse(inc.Value)
				}
			}
			phiDefs = append(phiDefs, phi.Name)
		}
	}
	for _, name := range phiDefs {
		def.add(name)
	}
	return use, def
}
