package xrayprep

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// AssertionConfig contains tolerances for the solver invariants.
type AssertionConfig struct {
	// Relative tolerance for sampleMass + diluentMass == totalMass
	MassTolerance float64

	// Absolute tolerance for achievedEdgeStep == targetEdgeStep
	EdgeStepTolerance float64

	// Absolute tolerance for Σfraction == 1
	FractionTolerance float64
}

// DefaultAssertionConfig returns tight numerical tolerances.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		MassTolerance:     1e-9,
		EdgeStepTolerance: 1e-9,
		FractionTolerance: 1e-9,
	}
}

// AssertMassConserved verifies sampleMass + diluentMass == totalMass.
//
// Mathematical property:
//
//	|m_s + m_d − M| <= tol·max(1, M)
func AssertMassConserved(t testing.TB, in MixInputs, r MixResult, cfg AssertionConfig) {
	t.Helper()

	total := r.SampleMass + r.DiluentMass
	if diff := math.Abs(total - in.TotalMass); diff > cfg.MassTolerance*math.Max(1, in.TotalMass) {
		t.Errorf("Mass not conserved: %.12g + %.12g = %.12g, want %.12g (diff %.3e)",
			r.SampleMass, r.DiluentMass, total, in.TotalMass, diff)
		return
	}
	t.Logf("✓ Mass conserved: %.6g + %.6g = %.6g", r.SampleMass, r.DiluentMass, in.TotalMass)
}

// AssertEdgeStepRoundTrip verifies that the edge step recomputed from the
// solved masses equals the requested target.
func AssertEdgeStepRoundTrip(t testing.TB, in MixInputs, r MixResult, cfg AssertionConfig) {
	t.Helper()

	if diff := math.Abs(r.AchievedEdgeStep - in.TargetEdgeStep); diff > cfg.EdgeStepTolerance {
		t.Errorf("Edge step round trip failed: achieved %.12g, target %.12g (diff %.3e)",
			r.AchievedEdgeStep, in.TargetEdgeStep, diff)
		return
	}
	t.Logf("✓ Edge step round trip: %.6g", r.AchievedEdgeStep)
}

// AssertMixtureNormalized verifies Σfraction == 1 and no negative fraction.
func AssertMixtureNormalized(t testing.TB, m GasMixture, cfg AssertionConfig) {
	t.Helper()

	var negatives []string
	for _, e := range m {
		if e.Fraction < 0 {
			negatives = append(negatives, fmt.Sprintf("  %s: %.6g", e.Name, e.Fraction))
		}
	}
	if len(negatives) > 0 {
		t.Errorf("Negative fractions:\n%s", strings.Join(negatives, "\n"))
	}

	if len(m) == 0 {
		return
	}
	if sum := m.Sum(); math.Abs(sum-1) > cfg.FractionTolerance {
		t.Errorf("Mixture not normalized: Σfraction = %.12g", sum)
	}
}

// AssertFeasibilityHonest verifies a FeasibilityResult never claims more
// than it observed: the value lies in the query domain, the achieved value
// meets the target, and notes are only attached to unrefined results.
func AssertFeasibilityHonest(t testing.TB, q FeasibilityQuery, r FeasibilityResult) {
	t.Helper()

	if !r.Feasible {
		if r.Reason == "" {
			t.Errorf("Infeasible result without a reason")
		}
		t.Logf("✓ Infeasible: %s", r.Reason)
		return
	}

	if r.Value < q.Min || r.Value > q.Max {
		t.Errorf("Value %.6g outside domain [%.6g, %.6g]", r.Value, q.Min, q.Max)
	}

	target := q.TargetMinRetainedPercent
	if target == 0 {
		target = DefaultFeasibilityConfig().TargetMinRetainedPercent
	}
	if r.AchievedValue < target {
		t.Errorf("Achieved value %.4f below target %.4f", r.AchievedValue, target)
	}

	if r.Note == NoteNonBracketed && r.Converged {
		t.Errorf("Fallback result claims convergence")
	}

	t.Logf("✓ Feasible: value=%.6g achieved=%.4f iterations=%d converged=%v",
		r.Value, r.AchievedValue, r.Iterations, r.Converged)
}

// PrintFeasibility outputs a FeasibilityResult to the test log.
func PrintFeasibility(t testing.TB, r FeasibilityResult) {
	t.Helper()

	t.Logf("\n=== Feasibility ===")
	if !r.Feasible {
		t.Logf("  Infeasible: %s", r.Reason)
		t.Logf("  Best value: %.6g (achieved %.4f)", r.BestValue, r.BestAchievedValue)
		return
	}
	t.Logf("  Value:      %.6g", r.Value)
	t.Logf("  Achieved:   %.4f", r.AchievedValue)
	t.Logf("  Iterations: %d", r.Iterations)
	t.Logf("  Converged:  %v", r.Converged)
	if r.Note != "" {
		t.Logf("  Note:       %s", r.Note)
	}
}
