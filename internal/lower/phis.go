package lower

import (
	"errors"
	"fmt"

	"irlower/internal/ir"
)

// PhiSource is one edge copy: the phi receiving a value and the operand
// the predecessor supplies.
type PhiSource struct {
	Phi   string
	Type  *ir.Type
	Value ir.Operand
}

// PhiEdges lists, per predecessor block, the copies to perform on each
// outgoing edge, keyed by successor.
type PhiEdges []map[int][]PhiSource

// ResolvePhis turns the phis of fn into per-edge copies. Every phi must
// name each predecessor of its block exactly once.
func ResolvePhis(fn *ir.Func) (PhiEdges, error) {
	edges := make(PhiEdges, len(fn.Blocks))
	preds := fn.Predecessors()
	var errs []error
	for b := range fn.Blocks {
		bb := &fn.Blocks[b]
		isPred := make(map[int]bool, len(preds[b]))
		for _, p := range preds[b] {
			isPred[p] = true
		}
		for _, phi := range bb.Phis() {
			seen := make(map[int]ir.Operand, len(phi.Phi.Incoming))
			for _, inc := range phi.Phi.Incoming {
				if !isPred[inc.Pred] {
					errs = append(errs, fmt.Errorf("bb%d: phi %%%s lists bb%d, which does not branch here", b, phi.Name, inc.Pred))
					continue
				}
				if prev, dup := seen[inc.Pred]; dup {
					if prev != inc.Value {
						errs = append(errs, fmt.Errorf("bb%d: phi %%%s has conflicting values for bb%d", b, phi.Name, inc.Pred))
					}
					continue
				}
				seen[inc.Pred] = inc.Value
				if edges[inc.Pred] == nil {
					edges[inc.Pred] = make(map[int][]PhiSource)
				}
				edges[inc.Pred][b] = append(edges[inc.Pred][b], PhiSource{Phi: phi.Name, Type: phi.Type, Value: inc.Value})
			}
			for _, p := range preds[b] {
				if _, ok := seen[p]; !ok {
					errs = append(errs, fmt.Errorf("bb%d: phi %%%s has no value for predecessor bb%d", b, phi.Name, p))
				}
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return edges, nil
}
