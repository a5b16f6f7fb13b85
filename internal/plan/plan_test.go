package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexshd/xrayprep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
workers: 2
thresholds:
  max_absorption: 3.0
feasibility:
  target_min_retained_percent: 95
  sample_points: 32
candidates:
  - name: Fe2O3 in BN
    sample: {below: 20, above: 120}
    diluent: {below: 1, above: 1}
    total_mass: 0.1
    area: 1
    target_edge_step: 1.0
    fluorescence:
      kind: linear
      params: {intercept: 100, slope: -20}
  - sample: {below: 20, above: 120}
    diluent: {below: 1, above: 1}
    total_mass: 0.1
    area: 1
    target_edge_step: 0.5
searches:
  - name: dilution
    min: 0
    max: 1
    evaluator:
      kind: tabulated
      params:
        x: [0, 0.5, 1]
        y: [100, 96, 80]
gas:
  initial:
    - {name: N2, fraction: 1}
  edits:
    - {op: add, name: Ar, fraction: 0.2}
    - {op: update, index: 0, fraction: 0.5}
    - {op: undo}
`

func TestParse_YAML(t *testing.T) {
	p, err := Parse([]byte(samplePlan), "yaml")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Workers)
	require.Len(t, p.Candidates, 2)
	require.Len(t, p.Searches, 1)
	assert.Len(t, p.Gas.Edits, 3)

	th := p.SuitabilityThresholds()
	assert.Equal(t, 3.0, th.MaxAbsorption)
	assert.Equal(t, 0.2, th.MinEdgeStep, "zero override keeps the default")

	cfg := p.FeasibilityConfig()
	assert.Equal(t, 95.0, cfg.TargetMinRetainedPercent)
	assert.Equal(t, 32, cfg.SamplePoints)
	assert.Equal(t, 80, cfg.MaxIterations)

	assert.Equal(t, 2, p.AssessConfig().Workers)
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`{
		"candidates": [{
			"name": "json",
			"sample": {"below": 20, "above": 120},
			"diluent": {"below": 1, "above": 1},
			"total_mass": 0.1, "area": 1, "target_edge_step": 1,
			"fluorescence": {"kind": "constant", "params": {"value": 92}}
		}]
	}`)
	p, err := Parse(data, "json")
	require.NoError(t, err)

	cs, err := p.BuildCandidates()
	require.NoError(t, err)
	require.Len(t, cs, 1)

	v, err := cs[0].Fluorescence(0.3)
	require.NoError(t, err)
	assert.Equal(t, 92.0, v)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("x"), "toml")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = Parse([]byte("candidates: [unclosed"), "yaml")
	assert.Error(t, err)
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(samplePlan), 0o644))
	p, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, p.Candidates, 2)

	jsonPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"workers": 3}`), 0o644))
	p, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Workers)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildCandidates(t *testing.T) {
	p, err := Parse([]byte(samplePlan), "yaml")
	require.NoError(t, err)

	cs, err := p.BuildCandidates()
	require.NoError(t, err)
	require.Len(t, cs, 2)

	assert.Equal(t, "Fe2O3 in BN", cs[0].Name)
	assert.Equal(t, 100.0, cs[0].Mix.SampleEdgeStep)
	assert.Equal(t, 0.0, cs[0].Mix.DiluentEdgeStep)
	assert.NotNil(t, cs[0].Fluorescence)

	assert.Equal(t, "candidate-2", cs[1].Name)
	assert.Nil(t, cs[1].Fluorescence)

	a := xrayprep.Assess(cs[0], p.SuitabilityThresholds())
	require.NoError(t, a.Err)
	assert.True(t, a.Suitable())
}

func TestBuildQueries(t *testing.T) {
	p, err := Parse([]byte(samplePlan), "yaml")
	require.NoError(t, err)

	qs, err := p.BuildQueries()
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "dilution", qs[0].Name)
	assert.Equal(t, 95.0, qs[0].Query.TargetMinRetainedPercent)

	r, err := xrayprep.SolveMaxFeasible(qs[0].Query)
	require.NoError(t, err)
	assert.True(t, r.Feasible)
	// 96 − 32·(x − 0.5) = 95  →  x = 0.53125
	assert.InDelta(t, 0.53125, r.Value, 0.01)
}

func TestBuildEvaluator_Errors(t *testing.T) {
	_, err := BuildEvaluator(EvaluatorSpec{Kind: "spline"})
	assert.ErrorIs(t, err, ErrUnknownEvaluator)

	_, err = BuildEvaluator(EvaluatorSpec{Kind: "linear", Params: map[string]any{"slop": -20}})
	assert.ErrorIs(t, err, ErrInvalidPlan, "typo in params must be rejected")

	_, err = BuildEvaluator(EvaluatorSpec{Kind: "tabulated", Params: map[string]any{
		"x": []any{0, 1, 0.5},
		"y": []any{100, 90, 95},
	}})
	assert.ErrorIs(t, err, xrayprep.ErrInvalidInput)

	p, err := Parse([]byte(`searches: [{name: bad, min: 0, max: 1, evaluator: {kind: nope}}]`), "yaml")
	require.NoError(t, err)
	_, err = p.BuildQueries()
	assert.ErrorIs(t, err, ErrUnknownEvaluator)
}

func TestGasSpec_Apply(t *testing.T) {
	p, err := Parse([]byte(samplePlan), "yaml")
	require.NoError(t, err)

	h := xrayprep.NewMixtureHistory(0)
	m, err := p.Gas.Apply(h)
	require.NoError(t, err)

	// add Ar 0.2 → N2 0.8 / Ar 0.2; update N2 0.5; undo → back to 0.8 / 0.2
	require.Len(t, m, 2)
	assert.InDelta(t, 0.8, m[0].Fraction, 1e-12)
	assert.InDelta(t, 0.2, m[1].Fraction, 1e-12)
	assert.Equal(t, 3, h.Len())

	redone, ok := h.Redo()
	require.True(t, ok)
	assert.InDelta(t, 0.5, redone[0].Fraction, 1e-12)
}

func TestGasSpec_ApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		spec GasSpec
	}{
		{"unnormalized fill", GasSpec{Initial: []GasComponent{{Name: "N2", Fraction: 0.7}}}},
		{"undo at start", GasSpec{Initial: []GasComponent{{Name: "N2", Fraction: 1}}, Edits: []GasEdit{{Op: OpUndo}}}},
		{"redo at end", GasSpec{Initial: []GasComponent{{Name: "N2", Fraction: 1}}, Edits: []GasEdit{{Op: OpRedo}}}},
		{"unknown op", GasSpec{Edits: []GasEdit{{Op: "mix"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Apply(xrayprep.NewMixtureHistory(0))
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}
