package xrayprep

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitQuery(eval Evaluator) FeasibilityQuery {
	return FeasibilityQuery{
		Min:               0,
		Max:               1,
		Evaluate:          eval,
		FeasibilityConfig: DefaultFeasibilityConfig(),
	}
}

func TestSolveMaxFeasible_Monotone(t *testing.T) {
	q := unitQuery(LinearEvaluator(100, -20))

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	PrintFeasibility(t, r)
	AssertFeasibilityHonest(t, q, r)

	assert.True(t, r.Feasible)
	assert.True(t, r.Converged)
	assert.Empty(t, r.Note)
	assert.InDelta(t, 0.5, r.Value, 0.01)
	assert.InDelta(t, 90.0, r.AchievedValue, 0.2)
	assert.GreaterOrEqual(t, r.AchievedValue, 90.0)
	assert.Greater(t, r.Iterations, 0)
}

func TestSolveMaxFeasible_Infeasible(t *testing.T) {
	q := unitQuery(LinearEvaluator(85, 0))

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	AssertFeasibilityHonest(t, q, r)

	assert.False(t, r.Feasible)
	assert.Contains(t, r.Reason, "90.0%")
	assert.Equal(t, 0.0, r.BestValue)
	assert.Equal(t, 85.0, r.BestAchievedValue)
}

func TestSolveMaxFeasible_AllPointsFail(t *testing.T) {
	q := unitQuery(func(float64) (float64, error) { return math.NaN(), nil })

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)

	assert.False(t, r.Feasible)
	assert.NotEmpty(t, r.Reason)
	assert.True(t, math.IsNaN(r.BestAchievedValue))
}

// TestSolveMaxFeasible_SurvivesPanics checks that a callback panicking or
// erroring over part of the domain is treated as missing data.
func TestSolveMaxFeasible_SurvivesPanics(t *testing.T) {
	q := unitQuery(func(x float64) (float64, error) {
		switch {
		case x > 0.2 && x < 0.3:
			panic("engine blew up")
		case x > 0.7 && x < 0.8:
			return 0, errors.New("no cross-section data")
		}
		return 100 - 20*x, nil
	})

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	AssertFeasibilityHonest(t, q, r)

	assert.True(t, r.Feasible)
	assert.True(t, r.Converged)
	assert.InDelta(t, 0.5, r.Value, 0.01)
}

func TestSolveMaxFeasible_UpperBound(t *testing.T) {
	calls := 0
	q := unitQuery(func(float64) (float64, error) {
		calls++
		return 95, nil
	})

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)

	assert.True(t, r.Feasible)
	assert.True(t, r.Converged)
	assert.Equal(t, NoteUpperBound, r.Note)
	assert.Equal(t, 1.0, r.Value)
	assert.Equal(t, 0, r.Iterations)
	assert.Equal(t, q.SamplePoints, calls)
}

func TestSolveMaxFeasible_NoFailingPoint(t *testing.T) {
	q := unitQuery(func(x float64) (float64, error) {
		if x > 0.5 {
			return 0, errors.New("outside table")
		}
		return 95, nil
	})

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	AssertFeasibilityHonest(t, q, r)

	assert.True(t, r.Feasible)
	assert.False(t, r.Converged)
	assert.Equal(t, NoteNoFailingPoint, r.Note)
	assert.InDelta(t, 31.0/63.0, r.Value, 1e-12)
}

// TestSolveMaxFeasible_NonBracketed uses an evaluator whose failures vanish
// after the coarse scan, so the bracket does not survive re-evaluation.
func TestSolveMaxFeasible_NonBracketed(t *testing.T) {
	scanned := false
	q := unitQuery(func(x float64) (float64, error) {
		if scanned {
			return 95, nil
		}
		if x == 1 {
			scanned = true
		}
		return 100 - 20*x, nil
	})

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	AssertFeasibilityHonest(t, q, r)

	assert.True(t, r.Feasible)
	assert.False(t, r.Converged)
	assert.Equal(t, NoteNonBracketed, r.Note)
	assert.Equal(t, 0, r.Iterations)
	assert.InDelta(t, 31.0/63.0, r.Value, 1e-12)
}

// TestSolveMaxFeasible_Unstable uses an evaluator that stops answering once
// bisection starts.
func TestSolveMaxFeasible_Unstable(t *testing.T) {
	calls := 0
	q := unitQuery(func(x float64) (float64, error) {
		calls++
		if calls > 64+2 {
			return 0, errors.New("engine unavailable")
		}
		return 100 - 20*x, nil
	})

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	AssertFeasibilityHonest(t, q, r)

	assert.True(t, r.Feasible)
	assert.False(t, r.Converged)
	assert.Equal(t, NoteUnstable, r.Note)
	assert.Greater(t, r.Iterations, 0)
	assert.InDelta(t, 31.0/63.0, r.Value, 1e-12)
}

func TestSolveMaxFeasible_MinimumSamplePoints(t *testing.T) {
	calls := 0
	q := unitQuery(func(float64) (float64, error) {
		calls++
		return 95, nil
	})
	q.SamplePoints = 2

	_, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	assert.Equal(t, minSamplePoints, calls)
}

func TestSolveMaxFeasible_ZeroConfigTakesDefaults(t *testing.T) {
	q := FeasibilityQuery{Min: 0, Max: 1, Evaluate: LinearEvaluator(100, -20)}

	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	assert.True(t, r.Feasible)
	assert.InDelta(t, 0.5, r.Value, 0.01)
}

func TestSolveMaxFeasible_InvalidQuery(t *testing.T) {
	eval := LinearEvaluator(100, -20)

	tests := []struct {
		name string
		q    FeasibilityQuery
	}{
		{"nil evaluator", FeasibilityQuery{Min: 0, Max: 1}},
		{"empty domain", FeasibilityQuery{Min: 1, Max: 1, Evaluate: eval}},
		{"reversed domain", FeasibilityQuery{Min: 1, Max: 0, Evaluate: eval}},
		{"NaN bound", FeasibilityQuery{Min: math.NaN(), Max: 1, Evaluate: eval}},
		{"negative tolerance", FeasibilityQuery{Min: 0, Max: 1, Evaluate: eval,
			FeasibilityConfig: FeasibilityConfig{ValueTolerance: -1}}},
		{"negative iterations", FeasibilityQuery{Min: 0, Max: 1, Evaluate: eval,
			FeasibilityConfig: FeasibilityConfig{MaxIterations: -3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveMaxFeasible(tt.q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestSolveMaxFeasible_SearchSizeLimits(t *testing.T) {
	tests := []struct {
		name string
		cfg  FeasibilityConfig
	}{
		{"too many sample points", FeasibilityConfig{SamplePoints: 2_000_000}},
		{"too many iterations", FeasibilityConfig{MaxIterations: MaxSearchIterations + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			q := FeasibilityQuery{Min: 0, Max: 1, FeasibilityConfig: tt.cfg,
				Evaluate: func(x float64) (float64, error) {
					calls++
					return 100 - 20*x, nil
				}}

			_, err := SolveMaxFeasible(q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Zero(t, calls)
		})
	}

	q := unitQuery(LinearEvaluator(100, -20))
	q.SamplePoints = MaxSamplePoints
	q.MaxIterations = MaxSearchIterations
	r, err := SolveMaxFeasible(q)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.Value, 1e-3)
	t.Logf("✓ Limits accepted: %d points, %d iterations", MaxSamplePoints, MaxSearchIterations)
}
