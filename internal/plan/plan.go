// Package plan reads sample-preparation plan files: candidate samples to
// assess, threshold searches to run and gas-fill edits to apply.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexshd/xrayprep"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidPlan is returned for plan files that parse but cannot be used.
	ErrInvalidPlan = errors.New("plan: invalid plan")

	// ErrUnknownEvaluator is returned for an evaluator kind BuildEvaluator
	// does not know.
	ErrUnknownEvaluator = errors.New("plan: unknown evaluator kind")
)

// Plan is the top-level plan file.
type Plan struct {
	Workers     int             `yaml:"workers" json:"workers"`
	Thresholds  Thresholds      `yaml:"thresholds" json:"thresholds"`
	Feasibility Feasibility     `yaml:"feasibility" json:"feasibility"`
	Candidates  []CandidateSpec `yaml:"candidates" json:"candidates"`
	Searches    []SearchSpec    `yaml:"searches" json:"searches"`
	Gas         GasSpec         `yaml:"gas" json:"gas"`
}

// Thresholds overrides DefaultSuitabilityThresholds field by field. Zero
// fields keep the default.
type Thresholds struct {
	MinEdgeStep        float64 `yaml:"min_edge_step" json:"min_edge_step"`
	MaxEdgeStep        float64 `yaml:"max_edge_step" json:"max_edge_step"`
	MaxAbsorption      float64 `yaml:"max_absorption" json:"max_absorption"`
	MinRetainedPercent float64 `yaml:"min_retained_percent" json:"min_retained_percent"`
}

// Feasibility overrides DefaultFeasibilityConfig field by field.
type Feasibility struct {
	TargetMinRetainedPercent float64 `yaml:"target_min_retained_percent" json:"target_min_retained_percent"`
	TargetTolerance          float64 `yaml:"target_tolerance" json:"target_tolerance"`
	ValueTolerance           float64 `yaml:"value_tolerance" json:"value_tolerance"`
	MaxIterations            int     `yaml:"max_iterations" json:"max_iterations"`
	SamplePoints             int     `yaml:"sample_points" json:"sample_points"`
}

// Coefficients are attenuation coefficients below and above the edge.
type Coefficients struct {
	Below float64 `yaml:"below" json:"below"`
	Above float64 `yaml:"above" json:"above"`
}

// CandidateSpec describes one candidate pellet.
type CandidateSpec struct {
	Name           string         `yaml:"name" json:"name"`
	Sample         Coefficients   `yaml:"sample" json:"sample"`
	Diluent        Coefficients   `yaml:"diluent" json:"diluent"`
	TotalMass      float64        `yaml:"total_mass" json:"total_mass"`
	Area           float64        `yaml:"area" json:"area"`
	TargetEdgeStep float64        `yaml:"target_edge_step" json:"target_edge_step"`
	Fluorescence   *EvaluatorSpec `yaml:"fluorescence" json:"fluorescence"`
}

// EvaluatorSpec selects an evaluator by kind. Params are decoded according
// to the kind, see BuildEvaluator.
type EvaluatorSpec struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params" json:"params"`
}

// SearchSpec is a largest-feasible-value search over [Min, Max].
type SearchSpec struct {
	Name      string        `yaml:"name" json:"name"`
	Min       float64       `yaml:"min" json:"min"`
	Max       float64       `yaml:"max" json:"max"`
	Evaluator EvaluatorSpec `yaml:"evaluator" json:"evaluator"`
}

// GasSpec is an initial gas fill and a list of edits applied in order.
type GasSpec struct {
	Initial []GasComponent `yaml:"initial" json:"initial"`
	Edits   []GasEdit      `yaml:"edits" json:"edits"`
}

// GasComponent is one named fraction of a gas fill.
type GasComponent struct {
	Name     string  `yaml:"name" json:"name"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// GasEdit is one of add, remove, update, undo or redo.
type GasEdit struct {
	Op       string  `yaml:"op" json:"op"`
	Name     string  `yaml:"name" json:"name"`
	Index    int     `yaml:"index" json:"index"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// Load reads a plan file. Files ending in .json are parsed as JSON,
// everything else as YAML.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a plan in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Plan, error) {
	var p Plan
	switch format {
	case "json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse plan json: %w", err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse plan yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidPlan, format)
	}
	return &p, nil
}

// Apply returns base with the non-zero fields of t applied.
func (t Thresholds) Apply(base xrayprep.SuitabilityThresholds) xrayprep.SuitabilityThresholds {
	overlay(&base.MinEdgeStep, t.MinEdgeStep)
	overlay(&base.MaxEdgeStep, t.MaxEdgeStep)
	overlay(&base.MaxAbsorption, t.MaxAbsorption)
	overlay(&base.MinRetainedPercent, t.MinRetainedPercent)
	return base
}

// Apply returns base with the non-zero fields of f applied.
func (f Feasibility) Apply(base xrayprep.FeasibilityConfig) xrayprep.FeasibilityConfig {
	overlay(&base.TargetMinRetainedPercent, f.TargetMinRetainedPercent)
	overlay(&base.TargetTolerance, f.TargetTolerance)
	overlay(&base.ValueTolerance, f.ValueTolerance)
	overlay(&base.MaxIterations, f.MaxIterations)
	overlay(&base.SamplePoints, f.SamplePoints)
	return base
}

// SuitabilityThresholds returns the default thresholds with the plan's
// overrides applied.
func (p *Plan) SuitabilityThresholds() xrayprep.SuitabilityThresholds {
	return p.Thresholds.Apply(xrayprep.DefaultSuitabilityThresholds())
}

// FeasibilityConfig returns the default search configuration with the
// plan's overrides applied.
func (p *Plan) FeasibilityConfig() xrayprep.FeasibilityConfig {
	return p.Feasibility.Apply(xrayprep.DefaultFeasibilityConfig())
}

// AssessConfig returns the assessment configuration for the plan.
func (p *Plan) AssessConfig() xrayprep.AssessConfig {
	cfg := xrayprep.DefaultAssessConfig()
	cfg.Workers = p.Workers
	cfg.Thresholds = p.SuitabilityThresholds()
	return cfg
}

// BuildCandidates converts the candidate specs, building their
// fluorescence evaluators.
func (p *Plan) BuildCandidates() ([]xrayprep.Candidate, error) {
	out := make([]xrayprep.Candidate, 0, len(p.Candidates))
	for i, cs := range p.Candidates {
		name := cs.Name
		if name == "" {
			name = fmt.Sprintf("candidate-%d", i+1)
		}
		c := xrayprep.Candidate{
			Name: name,
			Mix: xrayprep.MixInputs{
				SampleEdgeStep:  cs.Sample.Above - cs.Sample.Below,
				DiluentEdgeStep: cs.Diluent.Above - cs.Diluent.Below,
				TotalMass:       cs.TotalMass,
				Area:            cs.Area,
				TargetEdgeStep:  cs.TargetEdgeStep,
			},
			Sample:  xrayprep.Attenuation{Below: cs.Sample.Below, Above: cs.Sample.Above},
			Diluent: xrayprep.Attenuation{Below: cs.Diluent.Below, Above: cs.Diluent.Above},
		}
		if cs.Fluorescence != nil {
			eval, err := BuildEvaluator(*cs.Fluorescence)
			if err != nil {
				return nil, fmt.Errorf("candidate %q: %w", name, err)
			}
			c.Fluorescence = eval
		}
		out = append(out, c)
	}
	return out, nil
}

// NamedQuery is a feasibility query with the name it was given in the plan.
type NamedQuery struct {
	Name  string
	Query xrayprep.FeasibilityQuery
}

// BuildQueries converts the search specs using the plan's feasibility
// configuration.
func (p *Plan) BuildQueries() ([]NamedQuery, error) {
	cfg := p.FeasibilityConfig()
	out := make([]NamedQuery, 0, len(p.Searches))
	for i, s := range p.Searches {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("search-%d", i+1)
		}
		eval, err := BuildEvaluator(s.Evaluator)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", name, err)
		}
		out = append(out, NamedQuery{
			Name: name,
			Query: xrayprep.FeasibilityQuery{
				Min:               s.Min,
				Max:               s.Max,
				Evaluate:          eval,
				FeasibilityConfig: cfg,
			},
		})
	}
	return out, nil
}

func overlay[T float64 | int](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
