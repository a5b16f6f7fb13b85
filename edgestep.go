package xrayprep

import (
	"fmt"
	"math"
)

// DefaultTargetAbsorption is the total above-edge absorption (μt) a
// transmission pellet is usually designed for.
const DefaultTargetAbsorption = 4.0

const (
	bisectMaxIterations = 80
	bisectTolerance     = 1e-9
)

// TargetAbsorptionInput describes the search for the edge step at which a
// sample/diluent pellet reaches a target total absorption above the edge.
type TargetAbsorptionInput struct {
	Sample           Attenuation // sample coefficients around the edge
	Diluent          Attenuation // diluent coefficients around the edge
	TotalMass        float64
	Area             float64
	TargetAbsorption float64 // μt above the edge; 0 means DefaultTargetAbsorption
}

// TargetPlan is the mixture that realises a suggested edge step.
type TargetPlan struct {
	EdgeStep float64
	Mix      MixResult
	Metrics  AbsorptionMetrics
}

// FindTargetEdgeStep bisects the physically reachable edge-step domain for
// the edge step whose mixture has AbsorptionAbove == TargetAbsorption.
//
// Domain: loading·[min(ES_s, ES_d), max(ES_s, ES_d)] with loading =
// TotalMass/Area, restricted to positive edge steps (a diluent without an
// edge nearby has a slightly negative one). Trial edge steps whose solved
// masses go negative are rejected. Returns ErrTargetUnreachable when the domain endpoints do not
// bracket the target; callers should report that, never substitute a value.
func FindTargetEdgeStep(in TargetAbsorptionInput) (float64, error) {
	target := in.TargetAbsorption
	if !allFinite(in.Sample.Below, in.Sample.Above, in.Diluent.Below, in.Diluent.Above,
		in.TotalMass, in.Area, target) {
		return 0, fmt.Errorf("%w: non-finite parameter", ErrInvalidInput)
	}
	if in.TotalMass <= 0 || in.Area <= 0 || target <= 0 {
		return 0, fmt.Errorf("%w: total mass, area and target absorption must be > 0", ErrInvalidInput)
	}

	sampleES, diluentES := in.Sample.EdgeStep(), in.Diluent.EdgeStep()
	loading := in.TotalMass / in.Area
	lo := loading * math.Min(sampleES, diluentES)
	hi := loading * math.Max(sampleES, diluentES)
	if math.Abs(hi-lo) < degenerateEpsilon {
		return 0, ErrDegenerateSystem
	}

	f := func(edgeStep float64) (float64, bool) {
		mix, err := SolveMix(MixInputs{
			SampleEdgeStep:  sampleES,
			DiluentEdgeStep: diluentES,
			TotalMass:       in.TotalMass,
			Area:            in.Area,
			TargetEdgeStep:  edgeStep,
		})
		if err != nil || !mix.Physical() {
			return 0, false
		}
		m, err := EvaluateAbsorption(in.Sample, in.Diluent, mix.SampleMass, mix.DiluentMass, in.Area)
		if err != nil {
			return 0, false
		}
		return m.AbsorptionAbove - target, true
	}

	// SolveMix only accepts a positive target edge step. A diluent without an
	// edge in the window has a slightly negative edge step, so the left bound
	// is clamped to the smallest positive edge step, moved in by a
	// magnitude-scaled epsilon so noise around zero cannot fake a sign change.
	scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	left, right := math.Max(lo, 0)+degenerateEpsilon*scale, hi
	if left >= right {
		return 0, fmt.Errorf("%w: no positive edge step in [%.3e, %.3e]", ErrTargetUnreachable, lo, hi)
	}

	fl, okL := f(left)
	fr, okR := f(right)
	if !okL || !okR {
		return 0, fmt.Errorf("%w: domain endpoints [%.3e, %.3e] not physical", ErrTargetUnreachable, left, right)
	}
	if math.Abs(fl) <= bisectTolerance {
		return left, nil
	}
	if math.Abs(fr) <= bisectTolerance {
		return right, nil
	}
	if math.Signbit(fl) == math.Signbit(fr) {
		return 0, fmt.Errorf("%w: absorption %.4g not within [%.4g, %.4g]",
			ErrTargetUnreachable, target, fl+target, fr+target)
	}

	mid := 0.5 * (left + right)
	for i := 0; i < bisectMaxIterations; i++ {
		mid = 0.5 * (left + right)
		fm, ok := f(mid)
		if !ok {
			return 0, fmt.Errorf("%w: unphysical mixture at edge step %.6e", ErrTargetUnreachable, mid)
		}
		if math.Abs(fm) <= bisectTolerance || 0.5*(right-left) <= bisectTolerance {
			return mid, nil
		}
		if math.Signbit(fm) == math.Signbit(fl) {
			left, fl = mid, fm
		} else {
			right = mid
		}
	}

	return mid, nil
}

// SuggestTargetEdgeStep runs FindTargetEdgeStep and returns the resulting
// mixture together with its absorption metrics. A zero TargetAbsorption
// defaults to DefaultTargetAbsorption.
func SuggestTargetEdgeStep(in TargetAbsorptionInput) (TargetPlan, error) {
	if in.TargetAbsorption == 0 {
		in.TargetAbsorption = DefaultTargetAbsorption
	}

	edgeStep, err := FindTargetEdgeStep(in)
	if err != nil {
		return TargetPlan{}, err
	}

	mix, err := SolveMix(MixInputs{
		SampleEdgeStep:  in.Sample.EdgeStep(),
		DiluentEdgeStep: in.Diluent.EdgeStep(),
		TotalMass:       in.TotalMass,
		Area:            in.Area,
		TargetEdgeStep:  edgeStep,
	})
	if err != nil {
		return TargetPlan{}, fmt.Errorf("solve mix at edge step %.6e: %w", edgeStep, err)
	}

	metrics, err := EvaluateAbsorption(in.Sample, in.Diluent, mix.SampleMass, mix.DiluentMass, in.Area)
	if err != nil {
		return TargetPlan{}, fmt.Errorf("evaluate absorption: %w", err)
	}

	return TargetPlan{EdgeStep: edgeStep, Mix: mix, Metrics: metrics}, nil
}
