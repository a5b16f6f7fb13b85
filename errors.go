package xrayprep

import "errors"

// Sentinel errors returned by the solvers. Callers match them with errors.Is;
// solvers may wrap them with context via fmt.Errorf("...: %w", err).
//
// None of these signal physical infeasibility of a threshold search: an
// unreachable fluorescence constraint is reported as FeasibilityResult data.
var (
	// ErrInvalidInput is returned for non-positive masses, areas or targets
	// and for non-finite parameters.
	ErrInvalidInput = errors.New("xrayprep: invalid input")

	// ErrDegenerateSystem is returned when sample and diluent edge steps are
	// equal (within 1e-12) and the mixing system has no unique solution.
	ErrDegenerateSystem = errors.New("xrayprep: degenerate mixing system")

	// ErrNonFinite is returned when a computed quantity is NaN or ±Inf.
	ErrNonFinite = errors.New("xrayprep: non-finite result")

	// ErrTargetUnreachable is returned when no edge step inside the physical
	// domain produces the requested absorption.
	ErrTargetUnreachable = errors.New("xrayprep: target absorption unreachable")

	// ErrInvalidQuery is returned by SolveMaxFeasible for malformed queries.
	ErrInvalidQuery = errors.New("xrayprep: invalid feasibility query")

	// ErrEvaluator wraps failures reported by an external evaluator callback.
	ErrEvaluator = errors.New("xrayprep: evaluator failed")
)
