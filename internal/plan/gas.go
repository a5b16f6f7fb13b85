package plan

import (
	"fmt"
	"math"

	"github.com/alexshd/xrayprep"
)

// initialSumTolerance is how far the initial fill may be from Σ = 1.
const initialSumTolerance = 1e-6

// Gas edit operations.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpUndo   = "undo"
	OpRedo   = "redo"
)

// Mixture returns the initial gas fill as an xrayprep.GasMixture.
func (g GasSpec) Mixture() xrayprep.GasMixture {
	m := make(xrayprep.GasMixture, 0, len(g.Initial))
	for _, c := range g.Initial {
		m = append(m, xrayprep.GasEntry{Name: c.Name, Fraction: c.Fraction})
	}
	return m
}

// Apply pushes the initial fill onto h, then applies every edit in order,
// recording each result. Undo and redo with nothing to step to are errors.
// The returned mixture is h.Current() after the last edit.
func (g GasSpec) Apply(h *xrayprep.MixtureHistory) (xrayprep.GasMixture, error) {
	initial := g.Mixture()
	if len(initial) > 0 && math.Abs(initial.Sum()-1) > initialSumTolerance {
		return nil, fmt.Errorf("%w: initial gas fractions sum to %g, want 1", ErrInvalidPlan, initial.Sum())
	}
	h.Push(initial)

	for i, e := range g.Edits {
		cur := h.Current()
		switch e.Op {
		case OpAdd:
			h.Push(xrayprep.AddGas(cur, e.Name, e.Fraction))
		case OpRemove:
			h.Push(xrayprep.RemoveGas(cur, e.Index))
		case OpUpdate:
			h.Push(xrayprep.UpdateGas(cur, e.Index, e.Fraction))
		case OpUndo:
			if _, ok := h.Undo(); !ok {
				return nil, fmt.Errorf("%w: edit %d: nothing to undo", ErrInvalidPlan, i+1)
			}
		case OpRedo:
			if _, ok := h.Redo(); !ok {
				return nil, fmt.Errorf("%w: edit %d: nothing to redo", ErrInvalidPlan, i+1)
			}
		default:
			return nil, fmt.Errorf("%w: edit %d: unknown op %q", ErrInvalidPlan, i+1, e.Op)
		}
	}
	return h.Current(), nil
}
