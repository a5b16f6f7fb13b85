package xrayprep

import (
	"fmt"
	"math"
)

const (
	// degenerateEpsilon is the smallest edge-step separation the 2×2 mixing
	// system accepts.
	degenerateEpsilon = 1e-12

	// massTolerance is how far below zero a solved mass may fall and still be
	// treated as physical (floating noise around an empty component).
	massTolerance = 1e-6
)

// MixInputs describes a two-component pellet: sample plus diluent pressed to
// a fixed total mass over an illuminated area.
//
// Edge steps are attenuation-coefficient differences (area/mass). Units are
// the caller's choice as long as they are consistent, e.g. cm²/g, g and cm²
// so that mass/area is an areal density in g/cm².
type MixInputs struct {
	SampleEdgeStep  float64
	DiluentEdgeStep float64
	TotalMass       float64
	Area            float64
	TargetEdgeStep  float64
}

// MixResult is the solution of the mixing system.
//
// SampleMass + DiluentMass always equals TotalMass. Masses may be negative:
// that means the target edge step is outside what the two components can
// produce. SolveMix does not reject that case; use Physical to check.
type MixResult struct {
	SampleMass        float64
	DiluentMass       float64
	SampleFractionPct float64 // SampleMass / TotalMass × 100
	AchievedEdgeStep  float64 // recomputed from the solved masses
}

// Physical reports whether both masses are non-negative (within 1e-6).
func (r MixResult) Physical() bool {
	return r.SampleMass >= -massTolerance && r.DiluentMass >= -massTolerance
}

// SolveMix solves
//
//	sampleMass + diluentMass = totalMass
//	sampleES·sampleMass/area + diluentES·diluentMass/area = targetEdgeStep
//
// in closed form:
//
//	sampleMass = (target·area − diluentES·totalMass) / (sampleES − diluentES)
//
// Returns ErrInvalidInput for non-positive mass, area or target and
// ErrDegenerateSystem when the two edge steps coincide.
func SolveMix(in MixInputs) (MixResult, error) {
	if !allFinite(in.SampleEdgeStep, in.DiluentEdgeStep, in.TotalMass, in.Area, in.TargetEdgeStep) {
		return MixResult{}, fmt.Errorf("%w: non-finite mix parameter", ErrInvalidInput)
	}
	if in.TotalMass <= 0 || in.Area <= 0 || in.TargetEdgeStep <= 0 {
		return MixResult{}, fmt.Errorf("%w: total mass, area and target edge step must be > 0", ErrInvalidInput)
	}

	denom := in.SampleEdgeStep - in.DiluentEdgeStep
	if math.Abs(denom) < degenerateEpsilon {
		return MixResult{}, ErrDegenerateSystem
	}

	sampleMass := (in.TargetEdgeStep*in.Area - in.DiluentEdgeStep*in.TotalMass) / denom
	diluentMass := in.TotalMass - sampleMass

	return MixResult{
		SampleMass:        sampleMass,
		DiluentMass:       diluentMass,
		SampleFractionPct: sampleMass / in.TotalMass * 100,
		AchievedEdgeStep:  arealSum(in.SampleEdgeStep, in.DiluentEdgeStep, sampleMass, diluentMass, in.Area),
	}, nil
}

// Attenuation holds a mass attenuation coefficient evaluated just below and
// just above an absorption edge.
type Attenuation struct {
	Below float64
	Above float64
}

// EdgeStep returns Above − Below.
func (a Attenuation) EdgeStep() float64 {
	return a.Above - a.Below
}

// AbsorptionMetrics holds the total absorption (μt) of a mixture on both
// sides of the edge and the matching transmissions exp(−μt).
type AbsorptionMetrics struct {
	AbsorptionBelow   float64
	AbsorptionAbove   float64
	TransmissionBelow float64
	TransmissionAbove float64
}

// EvaluateAbsorption computes the absorption of a sample/diluent pellet:
//
//	absorptionX = sample.X·sampleMass/area + diluent.X·diluentMass/area
func EvaluateAbsorption(sample, diluent Attenuation, sampleMass, diluentMass, area float64) (AbsorptionMetrics, error) {
	if !(area > 0) || math.IsInf(area, 0) {
		return AbsorptionMetrics{}, fmt.Errorf("%w: area must be > 0", ErrInvalidInput)
	}

	below := arealSum(sample.Below, diluent.Below, sampleMass, diluentMass, area)
	above := arealSum(sample.Above, diluent.Above, sampleMass, diluentMass, area)
	if !allFinite(below, above) {
		return AbsorptionMetrics{}, fmt.Errorf("%w: absorption below=%g above=%g", ErrNonFinite, below, above)
	}

	return AbsorptionMetrics{
		AbsorptionBelow:   below,
		AbsorptionAbove:   above,
		TransmissionBelow: math.Exp(-below),
		TransmissionAbove: math.Exp(-above),
	}, nil
}

func arealSum(sampleCoeff, diluentCoeff, sampleMass, diluentMass, area float64) float64 {
	return sampleCoeff*(sampleMass/area) + diluentCoeff*(diluentMass/area)
}

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
