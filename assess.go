package xrayprep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
)

// Candidate is one proposed transmission/fluorescence sample.
type Candidate struct {
	Name    string
	Mix     MixInputs
	Sample  Attenuation
	Diluent Attenuation

	// Fluorescence maps the sample mass fraction (0..1) to the minimum
	// retained signal in percent. Nil leaves fluorescence unevaluated.
	Fluorescence Evaluator
}

// Assessment is the classified outcome for one Candidate.
type Assessment struct {
	Candidate    Candidate
	Mix          MixResult
	Metrics      AbsorptionMetrics
	Retained     float64 // minimum retained signal in percent, NaN if not evaluated
	Transmission Verdict
	Fluorescence Verdict
	Summary      string
	Err          error // set when the candidate could not be solved
}

// Suitable reports whether the candidate passed every check.
func (a Assessment) Suitable() bool {
	return a.Err == nil && a.Transmission.Suitable && a.Fluorescence.Suitable
}

// AssessConfig controls candidate assessment.
type AssessConfig struct {
	Workers    int // concurrent workers (0 = GOMAXPROCS)
	Thresholds SuitabilityThresholds
}

// DefaultAssessConfig returns GOMAXPROCS workers and the default thresholds.
func DefaultAssessConfig() AssessConfig {
	return AssessConfig{
		Workers:    0,
		Thresholds: DefaultSuitabilityThresholds(),
	}
}

// Assess solves, evaluates and classifies a single candidate.
func Assess(c Candidate, th SuitabilityThresholds) Assessment {
	a := Assessment{Candidate: c, Retained: math.NaN()}

	mix, err := SolveMix(c.Mix)
	if err != nil {
		a.Err = fmt.Errorf("candidate %q: %w", c.Name, err)
		return a.unsuitable()
	}
	a.Mix = mix
	if !mix.Physical() {
		a.Err = fmt.Errorf("candidate %q: %w: sample mass %.4g, diluent mass %.4g",
			c.Name, ErrTargetUnreachable, mix.SampleMass, mix.DiluentMass)
		return a.unsuitable()
	}

	metrics, err := EvaluateAbsorption(c.Sample, c.Diluent, mix.SampleMass, mix.DiluentMass, c.Mix.Area)
	if err != nil {
		a.Err = fmt.Errorf("candidate %q: %w", c.Name, err)
		return a.unsuitable()
	}
	a.Metrics = metrics
	a.Transmission = th.ClassifyTransmission(mix.AchievedEdgeStep, metrics.AbsorptionAbove)

	a.Fluorescence = Verdict{Suitable: false, Label: LabelNotEvaluated}
	if c.Fluorescence != nil {
		if v, ok := probe(c.Fluorescence, mix.SampleFractionPct/100); ok {
			a.Retained = v
			a.Fluorescence = th.ClassifyFluorescence(v)
		}
	}

	a.Summary = SummarizeSuitability(a.Transmission.Suitable, a.Fluorescence.Suitable)
	return a
}

func (a Assessment) unsuitable() Assessment {
	a.Transmission = Verdict{Suitable: false, Label: LabelInvalidMetrics}
	a.Fluorescence = Verdict{Suitable: false, Label: LabelNotEvaluated}
	a.Summary = SummarizeSuitability(false, false)
	return a
}

// AssessCandidates assesses every candidate on a pool of workers and returns
// the assessments in input order. Per-candidate failures are reported in
// Assessment.Err. The only error returned is ctx.Err() when the context is
// cancelled before all candidates were dispatched.
func AssessCandidates(ctx context.Context, candidates []Candidate, cfg AssessConfig) ([]Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	results := make([]Assessment, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = Assess(candidates[i], cfg.Thresholds)
			}
		}()
	}

	var err error
dispatch:
	for i := range candidates {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}
