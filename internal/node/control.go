package node

import (
	"sync/atomic"

	"irlower/internal/eh"
	"irlower/internal/fault"
	"irlower/internal/frame"
	"irlower/internal/memory"
)

// PhiCopy moves one incoming value into a successor's phi slot.
type PhiCopy struct {
	Slot  *frame.Slot
	Value Expr
}

// Edges holds the phi copies of each outgoing edge, keyed by successor.
type Edges map[int][]PhiCopy

// jump performs the copies for target as a parallel assignment and
// returns target.
func (e Edges) jump(fr *frame.Frame, target int) int {
	copies := e[target]
	switch len(copies) {
	case 0:
	case 1:
		fr.Set(copies[0].Slot, copies[0].Value.Eval(fr))
	default:
		vals := make([]frame.Value, len(copies))
		for i, c := range copies {
			vals[i] = c.Value.Eval(fr)
		}
		for i, c := range copies {
			fr.Set(c.Slot, vals[i])
		}
	}
	return target
}

// Ret stores the result, if any, and leaves the function.
type Ret struct {
	Value Expr
}

func (r *Ret) Next(fr *frame.Frame) (int, error) {
	if r.Value != nil {
		fr.Result = r.Value.Eval(fr)
	}
	return Return, nil
}

// RetAggregate copies an aggregate result into the caller's storage.
type RetAggregate struct {
	Value Expr
	Out   Expr
	Size  int
}

func (r *RetAggregate) Next(fr *frame.Frame) (int, error) {
	dst := r.Out.Eval(fr)
	mustMem(fr.Mem.Copy(dst.Addr(), r.Value.Eval(fr).Addr(), r.Size))
	fr.Result = dst
	return Return, nil
}

// Br jumps unconditionally.
type Br struct {
	Target int
	Edges
}

func (b *Br) Next(fr *frame.Frame) (int, error) { return b.jump(fr, b.Target), nil }

// BranchProfile counts the outcomes of one conditional branch.
type BranchProfile struct {
	Taken    atomic.Uint64
	NotTaken atomic.Uint64
}

// CondBr jumps on an i1 condition. Profile is optional.
type CondBr struct {
	Cond       Expr
	Then, Else int
	Profile    *BranchProfile
	Edges
}

func (c *CondBr) Next(fr *frame.Frame) (int, error) {
	if c.Cond.Eval(fr).Bool() {
		if c.Profile != nil {
			c.Profile.Taken.Add(1)
		}
		return c.jump(fr, c.Then), nil
	}
	if c.Profile != nil {
		c.Profile.NotTaken.Add(1)
	}
	return c.jump(fr, c.Else), nil
}

// SwitchCase is one value/target pair.
type SwitchCase struct {
	Value  int64
	Target int
}

// Switch selects a target by integer value.
type Switch struct {
	Value   Expr
	Cases   []SwitchCase
	Default int
	Edges
}

func (s *Switch) Next(fr *frame.Frame) (int, error) {
	v := s.Value.Eval(fr)
	for _, c := range s.Cases {
		if frame.Int(v.Kind, c.Value).Uint() == v.Uint() {
			return s.jump(fr, c.Target), nil
		}
	}
	return s.jump(fr, s.Default), nil
}

// IndirectBr jumps to a block address. Block addresses are block indices.
type IndirectBr struct {
	Addr    Expr
	Targets []int
	Edges
}

func (b *IndirectBr) Next(fr *frame.Frame) (int, error) {
	target := b.Addr.Eval(fr).Addr()
	for _, t := range b.Targets {
		if memory.Address(t) == target {
			return b.jump(fr, t), nil
		}
	}
	fault.Raise(fault.Malformed, "indirectbr to %s, not among its %d targets", target, len(b.Targets))
	return Return, nil
}

// Resume continues unwinding with the exception the landing pad received.
type Resume struct {
	Exception *frame.Slot
}

func (r *Resume) Next(fr *frame.Frame) (int, error) {
	exc, ok := fr.GetAs(r.Exception, frame.KindObject).Obj.(*eh.Exception)
	if !ok {
		fault.Raise(fault.Malformed, "resume without an exception")
	}
	return Return, exc
}

// Unreachable faults when executed.
type Unreachable struct{}

func (Unreachable) Next(*frame.Frame) (int, error) {
	fault.Raise(fault.Unreachable, "unreachable executed")
	return Return, nil
}
