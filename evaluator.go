package xrayprep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// AttenuationFunc is supplied by the physics engine: the mass (or linear)
// attenuation coefficient of a material at one energy. channel selects the
// cross-section kind (e.g. "total", "photo").
type AttenuationFunc func(material string, density, energy float64, channel string) (float64, error)

// SuppressionFunc is supplied by the physics engine: the self-absorption
// suppression ratio (retained fraction, 1 = no suppression) of a sample
// geometry at each energy of the grid, for an assumed EXAFS amplitude chi.
type SuppressionFunc func(g Geometry, energies []float64, chi float64) ([]float64, error)

// Geometry is a fluorescence sample geometry passed to a SuppressionFunc.
// Thickness is in the caller's length unit, angles in degrees.
type Geometry struct {
	Thickness        float64
	Density          float64
	DilutionFraction float64 // mass fraction of sample in the pellet, 0..1
	IncidentAngle    float64
	ExitAngle        float64
}

// DefaultGeometry is a 45°/45° geometry of undiluted sample.
func DefaultGeometry() Geometry {
	return Geometry{DilutionFraction: 1, IncidentAngle: 45, ExitAngle: 45}
}

// GeometryAxis selects which Geometry field a threshold search varies.
type GeometryAxis int

const (
	AxisThickness GeometryAxis = iota
	AxisDilution
)

func (a GeometryAxis) String() string {
	switch a {
	case AxisThickness:
		return "thickness"
	case AxisDilution:
		return "dilution"
	default:
		return fmt.Sprintf("GeometryAxis(%d)", int(a))
	}
}

func (a GeometryAxis) apply(g Geometry, x float64) Geometry {
	switch a {
	case AxisDilution:
		g.DilutionFraction = x
	default:
		g.Thickness = x
	}
	return g
}

// EdgeProbe gives the energy offsets (from the edge energy) at which the
// below- and above-edge coefficients are sampled.
type EdgeProbe struct {
	Below float64
	Above float64
}

// DefaultEdgeProbe samples 10 eV either side of the edge.
func DefaultEdgeProbe() EdgeProbe {
	return EdgeProbe{Below: 10, Above: 10}
}

// ProbeEdge evaluates fn just below and just above edgeEnergy.
func ProbeEdge(fn AttenuationFunc, material string, density, edgeEnergy float64, p EdgeProbe, channel string) (Attenuation, error) {
	if fn == nil {
		return Attenuation{}, fmt.Errorf("%w: nil attenuation function", ErrInvalidInput)
	}
	below, err := fn(material, density, edgeEnergy-p.Below, channel)
	if err != nil {
		return Attenuation{}, fmt.Errorf("%w: %s below edge: %v", ErrEvaluator, material, err)
	}
	above, err := fn(material, density, edgeEnergy+p.Above, channel)
	if err != nil {
		return Attenuation{}, fmt.Errorf("%w: %s above edge: %v", ErrEvaluator, material, err)
	}
	if !allFinite(below, above) {
		return Attenuation{}, fmt.Errorf("%w: %s attenuation below=%g above=%g", ErrNonFinite, material, below, above)
	}
	return Attenuation{Below: below, Above: above}, nil
}

// RetainedSignal adapts a SuppressionFunc into an Evaluator over one
// geometry axis. The evaluator returns the minimum suppression ratio over
// energies, as a percentage.
func RetainedSignal(fn SuppressionFunc, base Geometry, axis GeometryAxis, energies []float64, chi float64) Evaluator {
	grid := append([]float64(nil), energies...)
	return func(x float64) (float64, error) {
		if fn == nil {
			return 0, fmt.Errorf("%w: nil suppression function", ErrInvalidInput)
		}
		if len(grid) == 0 {
			return 0, fmt.Errorf("%w: empty energy grid", ErrInvalidInput)
		}
		ratios, err := fn(axis.apply(base, x), grid, chi)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEvaluator, err)
		}
		if len(ratios) == 0 {
			return 0, fmt.Errorf("%w: empty suppression result", ErrEvaluator)
		}
		// floats.Min skips NaN past the first element.
		if !allFinite(ratios...) {
			return 0, fmt.Errorf("%w: suppression ratios %v", ErrNonFinite, ratios)
		}
		return floats.Min(ratios) * 100, nil
	}
}

// MaxSafeDilution returns the largest sample fraction in [minFraction,
// maxFraction] that still retains cfg.TargetMinRetainedPercent of the signal.
func MaxSafeDilution(fn SuppressionFunc, base Geometry, energies []float64, chi, minFraction, maxFraction float64, cfg FeasibilityConfig) (FeasibilityResult, error) {
	return SolveMaxFeasible(FeasibilityQuery{
		Min:               minFraction,
		Max:               maxFraction,
		Evaluate:          RetainedSignal(fn, base, AxisDilution, energies, chi),
		FeasibilityConfig: cfg,
	})
}

// MaxSafeThickness returns the largest thickness in [minThickness,
// maxThickness] that still retains cfg.TargetMinRetainedPercent of the signal.
func MaxSafeThickness(fn SuppressionFunc, base Geometry, energies []float64, chi, minThickness, maxThickness float64, cfg FeasibilityConfig) (FeasibilityResult, error) {
	return SolveMaxFeasible(FeasibilityQuery{
		Min:               minThickness,
		Max:               maxThickness,
		Evaluate:          RetainedSignal(fn, base, AxisThickness, energies, chi),
		FeasibilityConfig: cfg,
	})
}

// PelletThickness converts a pressed pellet of the given mass and diameter
// into a thickness: d = m / (ρ·π·(D/2)²).
func PelletThickness(mass, diameter, density float64) (float64, error) {
	if !allFinite(mass, diameter, density) || mass <= 0 || diameter <= 0 || density <= 0 {
		return 0, fmt.Errorf("%w: pellet mass, diameter and density must be finite and > 0", ErrInvalidInput)
	}
	r := 0.5 * diameter
	return mass / (density * math.Pi * r * r), nil
}

// TabulatedEvaluator interpolates linearly between (xs[i], ys[i]). xs must be
// strictly increasing with at least two points. Values outside [xs[0],
// xs[n-1]] are reported as errors rather than extrapolated.
func TabulatedEvaluator(xs, ys []float64) (Evaluator, error) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return nil, fmt.Errorf("%w: table needs at least two matching points, got %d xs and %d ys",
			ErrInvalidInput, len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: table xs not strictly increasing at index %d", ErrInvalidInput, i)
		}
	}
	if !allFinite(xs...) || !allFinite(ys...) {
		return nil, fmt.Errorf("%w: non-finite table value", ErrInvalidInput)
	}

	// Fit panics on mismatched or unsorted input, hence the checks above.
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	lo, hi := xs[0], xs[len(xs)-1]
	return func(x float64) (float64, error) {
		if x < lo || x > hi {
			return math.NaN(), fmt.Errorf("%w: %g outside table [%g, %g]", ErrEvaluator, x, lo, hi)
		}
		return pl.Predict(x), nil
	}, nil
}

// LinearEvaluator returns intercept + slope·x.
func LinearEvaluator(intercept, slope float64) Evaluator {
	return func(x float64) (float64, error) {
		return intercept + slope*x, nil
	}
}
