package eh

import (
	"fortio.org/safecast"

	"irlower/internal/fault"
	"irlower/internal/ir"
	"irlower/internal/memory"
)

// ClauseKind tags a landing-pad clause.
type ClauseKind uint8

const (
	ClauseCatch ClauseKind = iota
	ClauseFilter
)

func (k ClauseKind) String() string {
	if k == ClauseFilter {
		return "filter"
	}
	return "catch"
}

// Clause is one resolved landing-pad clause. Type address 0 is the
// catch-all sentinel. A catch clause uses Types[0].
type Clause struct {
	Kind  ClauseKind
	Types []memory.Address
}

// Catch returns a catch clause for typ.
func Catch(typ memory.Address) Clause {
	return Clause{Kind: ClauseCatch, Types: []memory.Address{typ}}
}

// Filter returns a filter clause over types.
func Filter(types ...memory.Address) Clause {
	return Clause{Kind: ClauseFilter, Types: types}
}

// Evaluate returns the clause's selector contribution for an exception of
// type thrown. A failing type query is a fault.
func (c Clause) Evaluate(rt Runtime, thrown memory.Address) int32 {
	switch c.Kind {
	case ClauseCatch:
		if len(c.Types) != 1 {
			fault.Raise(fault.Malformed, "catch clause with %d types", len(c.Types))
		}
		catch := c.Types[0]
		if catch == memory.Null {
			return 1
		}
		if canCatch(rt, thrown, catch) {
			sel, err := safecast.Conv[int32](uint64(catch))
			if err != nil {
				panic(fault.Wrap(fault.TypeInfo, err))
			}
			return sel
		}
		return 0
	case ClauseFilter:
		for _, t := range c.Types {
			if t == memory.Null || canCatch(rt, thrown, t) {
				return 0
			}
		}
		return -1
	}
	fault.Raise(fault.Malformed, "unknown clause kind %d", c.Kind)
	return 0
}

func canCatch(rt Runtime, thrown, catch memory.Address) bool {
	ok, err := rt.CanCatch(thrown, catch)
	if err != nil {
		panic(fault.Wrap(fault.TypeInfo, err))
	}
	return ok
}

// Selector scans clauses in order and returns the first non-zero result,
// or 0.
func Selector(rt Runtime, thrown memory.Address, clauses []Clause) int32 {
	for _, c := range clauses {
		if sel := c.Evaluate(rt, thrown); sel != 0 {
			return sel
		}
	}
	return 0
}

// Dispatch evaluates a landing pad for exc. When a clause matches, or the
// pad is a cleanup, it writes the unwind header pointer and the selector
// into storage and returns storage. Otherwise it returns exc itself as the
// error so unwinding continues with the identical exception.
func Dispatch(rt Runtime, mem *memory.Memory, exc *Exception, clauses []Clause, cleanup bool, storage memory.Address) (memory.Address, error) {
	header, err := rt.UnwindHeader(exc.Info)
	if err != nil {
		panic(fault.Wrap(fault.TypeInfo, err))
	}
	thrown, err := rt.ThrownType(header)
	if err != nil {
		panic(fault.Wrap(fault.TypeInfo, err))
	}
	sel := Selector(rt, thrown, clauses)
	if sel == 0 && !cleanup {
		return memory.Null, exc
	}
	if err := mem.PutAddress(storage, header); err != nil {
		panic(fault.Wrap(fault.MemoryAccess, err))
	}
	if err := mem.PutI32(storage.Add(ir.LandingpadType.Offset(1)), sel); err != nil {
		panic(fault.Wrap(fault.MemoryAccess, err))
	}
	return storage, nil
}
