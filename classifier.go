package xrayprep

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of one suitability check.
type Verdict struct {
	Suitable bool
	Label    string
}

// Labels that do not carry numbers. Failing checks build their label from
// the offending value and the threshold, e.g. "edge step 0.1999 below 0.2".
const (
	LabelSuitable       = "suitable"
	LabelInvalidMetrics = "invalid metrics"
	LabelNotEvaluated   = "not evaluated"
)

// SuitabilityThresholds are the experiment-design limits a candidate sample
// is classified against.
//
// Transmission: MinEdgeStep <= edge step <= MaxEdgeStep and
// absorption above the edge <= MaxAbsorption.
// Fluorescence: minimum retained signal >= MinRetainedPercent.
type SuitabilityThresholds struct {
	MinEdgeStep        float64
	MaxEdgeStep        float64
	MaxAbsorption      float64
	MinRetainedPercent float64
}

// DefaultSuitabilityThresholds returns the usual transmission XAS window
// (edge step 0.2–2.0, μt ≤ 4) and a 90% fluorescence retention floor.
func DefaultSuitabilityThresholds() SuitabilityThresholds {
	return SuitabilityThresholds{
		MinEdgeStep:        0.2,
		MaxEdgeStep:        2.0,
		MaxAbsorption:      4.0,
		MinRetainedPercent: 90.0,
	}
}

// ClassifyTransmission checks the edge step window and the absorption ceiling.
// The label lists every failed constraint.
func (th SuitabilityThresholds) ClassifyTransmission(achievedEdgeStep, absorptionAbove float64) Verdict {
	if !allFinite(achievedEdgeStep, absorptionAbove) {
		return Verdict{Suitable: false, Label: LabelInvalidMetrics}
	}

	var failures []string
	switch {
	case achievedEdgeStep < th.MinEdgeStep:
		failures = append(failures, fmt.Sprintf("edge step %.4g below %.4g", achievedEdgeStep, th.MinEdgeStep))
	case achievedEdgeStep > th.MaxEdgeStep:
		failures = append(failures, fmt.Sprintf("edge step %.4g above %.4g", achievedEdgeStep, th.MaxEdgeStep))
	}
	if absorptionAbove > th.MaxAbsorption {
		failures = append(failures, fmt.Sprintf("absorption %.4g above %.4g", absorptionAbove, th.MaxAbsorption))
	}

	if len(failures) > 0 {
		return Verdict{Suitable: false, Label: strings.Join(failures, "; ")}
	}
	return Verdict{Suitable: true, Label: LabelSuitable}
}

// ClassifyFluorescence checks the minimum retained fluorescence signal.
func (th SuitabilityThresholds) ClassifyFluorescence(minRetainedPercent float64) Verdict {
	if !allFinite(minRetainedPercent) {
		return Verdict{Suitable: false, Label: LabelInvalidMetrics}
	}
	if minRetainedPercent < th.MinRetainedPercent {
		return Verdict{
			Suitable: false,
			Label: fmt.Sprintf("retained signal %.4g%% below %.4g%%",
				minRetainedPercent, th.MinRetainedPercent),
		}
	}
	return Verdict{Suitable: true, Label: LabelSuitable}
}

// ClassifyTransmission classifies with DefaultSuitabilityThresholds.
func ClassifyTransmission(achievedEdgeStep, absorptionAbove float64) Verdict {
	return DefaultSuitabilityThresholds().ClassifyTransmission(achievedEdgeStep, absorptionAbove)
}

// ClassifyFluorescence classifies with DefaultSuitabilityThresholds.
func ClassifyFluorescence(minRetainedPercent float64) Verdict {
	return DefaultSuitabilityThresholds().ClassifyFluorescence(minRetainedPercent)
}

// SummarizeSuitability renders
// "Transmission {suitable|not suitable} / Fluorescence {suitable|not suitable}".
func SummarizeSuitability(transmissionOK, fluorescenceOK bool) string {
	return fmt.Sprintf("Transmission %s / Fluorescence %s",
		suitabilityWord(transmissionOK), suitabilityWord(fluorescenceOK))
}

func suitabilityWord(ok bool) string {
	if ok {
		return "suitable"
	}
	return "not suitable"
}
