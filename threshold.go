package xrayprep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Evaluator maps an in-domain value (dilution fraction, thickness, ...) to a
// retained-signal percentage. It is not trusted point by point: an error, a
// panic or a non-finite return all mean "no data at this point".
type Evaluator func(x float64) (float64, error)

// Notes attached to feasible results that were not refined by bisection.
const (
	NoteUpperBound     = "feasible at upper bound"
	NoteNoFailingPoint = "no failing point found above sampled feasible values"
	NoteNonBracketed   = "fell back to sampled feasible point due to non-bracketed evaluations"
	NoteUnstable       = "fell back to sampled feasible point due to unstable evaluation"
)

// FeasibilityConfig controls the coarse scan and the bisection refinement.
type FeasibilityConfig struct {
	TargetMinRetainedPercent float64 // pass when evaluate(x) >= this
	TargetTolerance          float64 // stop once |evaluate(x) − target| <= this
	ValueTolerance           float64 // stop once the bracket is narrower than this
	MaxIterations            int     // bisection cap (at most MaxSearchIterations)
	SamplePoints             int     // coarse-scan grid size (8 to MaxSamplePoints)
}

// DefaultFeasibilityConfig returns the standard fluorescence-retention search:
// 90% retained signal, 64 scan points, up to 80 bisection steps.
func DefaultFeasibilityConfig() FeasibilityConfig {
	return FeasibilityConfig{
		TargetMinRetainedPercent: 90,
		TargetTolerance:          0.1,
		ValueTolerance:           1e-6,
		MaxIterations:            80,
		SamplePoints:             64,
	}
}

// Ceilings on the search size. Configs above them are rejected so one
// request cannot demand an unbounded grid or loop.
const (
	MaxSamplePoints     = 4096
	MaxSearchIterations = 1000
)

const minSamplePoints = 8

// FeasibilityQuery asks for the largest x in [Min, Max] whose evaluated
// retained signal is still at or above the target. Zero config fields take
// the DefaultFeasibilityConfig value.
type FeasibilityQuery struct {
	Min      float64
	Max      float64
	Evaluate Evaluator
	FeasibilityConfig
}

// FeasibilityResult is a tagged result. When Feasible is true, Value,
// AchievedValue, Iterations, Converged and Note are set. When it is false,
// Reason, BestValue and BestAchievedValue are set.
type FeasibilityResult struct {
	Feasible bool

	Value         float64
	AchievedValue float64
	Iterations    int
	Converged     bool
	Note          string

	Reason            string
	BestValue         float64
	BestAchievedValue float64
}

// withDefaults fills zero fields and validates the rest.
func (q FeasibilityQuery) withDefaults() (FeasibilityQuery, error) {
	if q.Evaluate == nil {
		return q, fmt.Errorf("%w: nil evaluator", ErrInvalidQuery)
	}
	if !allFinite(q.Min, q.Max) || !(q.Max > q.Min) {
		return q, fmt.Errorf("%w: domain [%g, %g]", ErrInvalidQuery, q.Min, q.Max)
	}

	def := DefaultFeasibilityConfig()
	if q.TargetMinRetainedPercent == 0 {
		q.TargetMinRetainedPercent = def.TargetMinRetainedPercent
	}
	if q.TargetTolerance == 0 {
		q.TargetTolerance = def.TargetTolerance
	}
	if q.ValueTolerance == 0 {
		q.ValueTolerance = def.ValueTolerance
	}
	if q.MaxIterations == 0 {
		q.MaxIterations = def.MaxIterations
	}
	if q.SamplePoints == 0 {
		q.SamplePoints = def.SamplePoints
	}

	if !allFinite(q.TargetMinRetainedPercent, q.TargetTolerance, q.ValueTolerance) ||
		q.TargetMinRetainedPercent <= 0 || q.TargetTolerance <= 0 || q.ValueTolerance <= 0 ||
		q.MaxIterations <= 0 || q.SamplePoints <= 0 {
		return q, fmt.Errorf("%w: target, tolerances and iteration caps must be finite and > 0", ErrInvalidQuery)
	}
	if q.SamplePoints > MaxSamplePoints || q.MaxIterations > MaxSearchIterations {
		return q, fmt.Errorf("%w: %d sample points and %d iterations exceed the limits %d and %d",
			ErrInvalidQuery, q.SamplePoints, q.MaxIterations, MaxSamplePoints, MaxSearchIterations)
	}
	if q.SamplePoints < minSamplePoints {
		q.SamplePoints = minSamplePoints
	}
	return q, nil
}

// probe evaluates the callback once, turning errors, panics and non-finite
// values into ok == false.
func probe(eval Evaluator, x float64) (v float64, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = 0, false
		}
	}()
	v, err := eval(x)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type scanPoint struct {
	x, v float64
	ok   bool
}

// SolveMaxFeasible finds the largest value in [Min, Max] whose retained
// signal meets TargetMinRetainedPercent. The evaluator is expected to be
// non-increasing but may be noisy or fail at individual points.
//
// Phase 1 scans SamplePoints evenly spaced values and keeps the largest
// passing one (bestX) and the first failing one above it. Phase 2 bisects
// that bracket. The returned Value is always a point that was observed to
// pass; Converged is true only when a tolerance was actually met.
//
// Malformed queries return ErrInvalidQuery. An unreachable target is not an
// error: it returns Feasible == false with a Reason.
func SolveMaxFeasible(query FeasibilityQuery) (FeasibilityResult, error) {
	q, err := query.withDefaults()
	if err != nil {
		return FeasibilityResult{}, err
	}
	target := q.TargetMinRetainedPercent

	// Phase 1: coarse scan.
	grid := floats.Span(make([]float64, q.SamplePoints), q.Min, q.Max)
	grid[len(grid)-1] = q.Max
	points := make([]scanPoint, len(grid))
	best := -1
	bestSeen := math.NaN()
	for i, x := range grid {
		v, ok := probe(q.Evaluate, x)
		points[i] = scanPoint{x: x, v: v, ok: ok}
		if !ok {
			continue
		}
		if math.IsNaN(bestSeen) || v > bestSeen {
			bestSeen = v
		}
		if v >= target {
			best = i
		}
	}

	if best < 0 {
		return FeasibilityResult{
			Feasible: false,
			Reason: fmt.Sprintf("no sampled value in [%.3e, %.3e] retains at least %.1f%% signal",
				q.Min, q.Max, target),
			BestValue:         q.Min,
			BestAchievedValue: bestSeen,
		}, nil
	}

	bestX, bestV := points[best].x, points[best].v
	if bestX >= q.Max-q.ValueTolerance {
		return feasibleAt(bestX, bestV, 0, true, NoteUpperBound), nil
	}

	fail := -1
	for i := best + 1; i < len(points); i++ {
		if points[i].ok && points[i].v < target {
			fail = i
			break
		}
	}
	if fail < 0 {
		return feasibleAt(bestX, bestV, 0, false, NoteNoFailingPoint), nil
	}

	// Phase 2: refine. Re-evaluating the endpoints guards against a noisy
	// evaluator that passed or failed by chance during the scan.
	lo, hi := bestX, points[fail].x
	loV, okLo := probe(q.Evaluate, lo)
	hiV, okHi := probe(q.Evaluate, hi)
	if !okLo || !okHi || loV < target || hiV >= target {
		return feasibleAt(bestX, bestV, 0, false, NoteNonBracketed), nil
	}

	iterations := 0
	converged := false
	evaluated := false
	for iterations < q.MaxIterations && hi-lo > q.ValueTolerance {
		mid := 0.5 * (lo + hi)
		v, ok := probe(q.Evaluate, mid)
		iterations++
		if !ok {
			hi = mid
			continue
		}
		evaluated = true
		if v >= target {
			lo, loV = mid, v
		} else {
			hi = mid
		}
		if math.Abs(v-target) <= q.TargetTolerance {
			converged = true
			break
		}
	}
	if hi-lo <= q.ValueTolerance {
		converged = true
	}

	note := ""
	if iterations > 0 && !evaluated {
		// Only failed probes narrowed the bracket; the width says nothing.
		note = NoteUnstable
		converged = false
	}
	return feasibleAt(lo, loV, iterations, converged, note), nil
}

func feasibleAt(x, v float64, iterations int, converged bool, note string) FeasibilityResult {
	return FeasibilityResult{
		Feasible:      true,
		Value:         x,
		AchievedValue: v,
		Iterations:    iterations,
		Converged:     converged,
		Note:          note,
	}
}
