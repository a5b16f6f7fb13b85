// Package xrayprep plans X-ray absorption samples: how much sample to mix
// with how much diluent, how thick or dilute a pellet may be before
// fluorescence self-absorption eats the signal, and whether a candidate is
// fit for transmission or fluorescence measurement.
//
// # Overview
//
// The package does no X-ray physics of its own. Attenuation coefficients and
// self-absorption suppression ratios come from an external engine through
// plain function values (AttenuationFunc, SuppressionFunc, Evaluator). What
// lives here is the numerical work around them:
//
//   - mix.go        - closed-form two-component mixing solve, absorption metrics
//   - edgestep.go   - bisection for the edge step that hits a target μt
//   - threshold.go  - robust largest-feasible-value search over a noisy evaluator
//   - classifier.go - transmission / fluorescence verdicts
//   - gas.go        - gas fractions kept on the simplex (Σ = 1)
//   - evaluator.go  - adapters from engine callbacks to evaluators
//   - assess.go     - classify a batch of candidates concurrently
//   - history.go    - undo/redo trail for gas mixtures
//   - assertions.go - test helpers for the invariants above
//
// # Mixing
//
// For sample and diluent edge steps Δμ_s, Δμ_d, total mass M and area A, the
// masses hitting a target edge step Δμ·t are
//
//	m_s = (Δμt·A − Δμ_d·M) / (Δμ_s − Δμ_d)
//	m_d = M − m_s
//
//	mix, err := xrayprep.SolveMix(xrayprep.MixInputs{
//	    SampleEdgeStep:  100, // cm²/g
//	    DiluentEdgeStep: 0,
//	    TotalMass:       0.1, // g
//	    Area:            1,   // cm²
//	    TargetEdgeStep:  1.0,
//	})
//	if err != nil {
//	    return err // ErrInvalidInput or ErrDegenerateSystem
//	}
//	if !mix.Physical() {
//	    // target edge step not reachable with this total mass
//	}
//
// Negative masses are returned as-is; whether that is an error is the
// caller's decision.
//
// # Suggested edge step
//
// SuggestTargetEdgeStep finds the edge step whose pellet has μt = 4 above the
// edge (or any other target) and returns the matching mixture. It fails with
// ErrTargetUnreachable instead of guessing when the target lies outside what
// the two components can produce.
//
// # Maximum safe dilution or thickness
//
//	res, err := xrayprep.SolveMaxFeasible(xrayprep.FeasibilityQuery{
//	    Min:      0,
//	    Max:      1,
//	    Evaluate: retained, // x -> retained signal %
//	    FeasibilityConfig: xrayprep.DefaultFeasibilityConfig(),
//	})
//	switch {
//	case err != nil:
//	    // malformed query
//	case !res.Feasible:
//	    log.Println(res.Reason)
//	case !res.Converged:
//	    log.Printf("approximate: %.4g (%s)", res.Value, res.Note)
//	default:
//	    log.Printf("max safe value: %.4g", res.Value)
//	}
//
// The evaluator may fail, panic or return NaN at individual points; those
// points are skipped. The result never reports convergence it did not reach.
//
// # Gas mixtures
//
//	m := xrayprep.GasMixture{{Name: "N2", Fraction: 1}}
//	m = xrayprep.AddGas(m, "Ar", 0.2)    // N2 0.8, Ar 0.2
//	m = xrayprep.UpdateGas(m, 1, 0.5)    // N2 0.5, Ar 0.5
//	m = xrayprep.RemoveGas(m, 0)         // Ar 1
//
// Every call returns a new slice.
//
// # Concurrency
//
// All solvers are pure functions of their arguments and may be called from
// any number of goroutines. MixtureHistory is the only stateful type and is
// guarded by a mutex.
package xrayprep
