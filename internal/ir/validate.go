package ir

import (
	"errors"
	"fmt"
)

// Validate checks module invariants.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil || f.IsDeclaration() {
			continue
		}
		if err := ValidateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks that block indices are dense, every block is
// terminated and every successor names an existing block.
func ValidateFunc(f *Func) error {
	if f == nil {
		return nil
	}
	var errs []error
	if err := validateBlockIndices(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validatePhis(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateBlockIndices(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Index != i {
			errs = append(errs, fmt.Errorf("block at position %d has index %d", i, f.Blocks[i].Index))
		}
	}
	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

func validateBlockTargets(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		for _, s := range f.Blocks[i].Term.Successors() {
			if f.Block(s) == nil {
				errs = append(errs, fmt.Errorf("bb%d: successor bb%d does not exist", i, s))
			}
		}
	}
	return errors.Join(errs...)
}

func validatePhis(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		leading := len(bb.Phis())
		for j := leading; j < len(bb.Instrs); j++ {
			if bb.Instrs[j].Kind == InstrPhi {
				errs = append(errs, fmt.Errorf("bb%d: phi %%%s after non-phi instruction", i, bb.Instrs[j].Name))
			}
		}
		for _, phi := range bb.Phis() {
			for _, inc := range phi.Phi.Incoming {
				if f.Block(inc.Pred) == nil {
					errs = append(errs, fmt.Errorf("bb%d: phi %%%s names missing predecessor bb%d", i, phi.Name, inc.Pred))
				}
			}
		}
	}
	return errors.Join(errs...)
}
