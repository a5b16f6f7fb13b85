package plan

import (
	"fmt"
	"strings"

	"github.com/alexshd/xrayprep"
	"github.com/mitchellh/mapstructure"
)

// Evaluator kinds understood by BuildEvaluator.
const (
	KindLinear    = "linear"    // params: intercept, slope
	KindConstant  = "constant"  // params: value
	KindTabulated = "tabulated" // params: x, y (piecewise linear, no extrapolation)
)

type linearParams struct {
	Intercept float64 `mapstructure:"intercept"`
	Slope     float64 `mapstructure:"slope"`
}

type constantParams struct {
	Value float64 `mapstructure:"value"`
}

type tabulatedParams struct {
	X []float64 `mapstructure:"x"`
	Y []float64 `mapstructure:"y"`
}

// BuildEvaluator turns an evaluator spec into an xrayprep.Evaluator.
// Unknown parameter names are rejected so typos do not silently become
// zero values.
func BuildEvaluator(spec EvaluatorSpec) (xrayprep.Evaluator, error) {
	switch strings.ToLower(spec.Kind) {
	case KindLinear:
		var p linearParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		return xrayprep.LinearEvaluator(p.Intercept, p.Slope), nil

	case KindConstant:
		var p constantParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		return xrayprep.LinearEvaluator(p.Value, 0), nil

	case KindTabulated:
		var p tabulatedParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		eval, err := xrayprep.TabulatedEvaluator(p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("tabulated evaluator: %w", err)
		}
		return eval, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, spec.Kind)
	}
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: evaluator params: %v", ErrInvalidPlan, err)
	}
	return nil
}
