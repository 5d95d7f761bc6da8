package surrogate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noisyoracle/internal/stats"
)

func newTestNoisy(t *testing.T, oracle Oracle, ss float64, seed int64) *Surrogate {
	t.Helper()
	s, err := NewNoisy(oracle, Options{SignalStrength: ss, Seed: seed, Logger: quietLogger()})
	require.NoError(t, err)
	return s
}

func TestNewNoisyValidation(t *testing.T) {
	_, err := NewNoisy(nil, Options{SignalStrength: 0.5})
	assert.ErrorIs(t, err, ErrOracleRequired)

	oracle := newFakeOracle(landscape())
	for _, ss := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := NewNoisy(oracle, Options{SignalStrength: ss})
		assert.Error(t, err, "ss=%v", ss)
	}

	s, err := NewNoisy(oracle, Options{SignalStrength: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "NAMb_ss0.9", s.ModelType())
	assert.InDelta(t, 0.81, s.R2(), 1e-12)
	assert.True(t, s.CacheEnabled())
}

func TestNoisyModelTypeFormatting(t *testing.T) {
	oracle := newFakeOracle(landscape())
	cases := map[float64]string{
		0:      "NAMb_ss0",
		0.25:   "NAMb_ss0.25",
		1:      "NAMb_ss1",
		0.0001: "NAMb_ss0.0001",
		1e-5:   "NAMb_ss1e-05",
	}
	for ss, want := range cases {
		s, err := NewNoisy(oracle, Options{SignalStrength: ss})
		require.NoError(t, err)
		assert.Equal(t, want, s.ModelType(), "ss=%v", ss)
	}
}

func TestGetFitnessMeasuredReturnsTruth(t *testing.T) {
	ctx := context.Background()
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA", "AAAT"}))

	for i := 0; i < 3; i++ {
		got, err := s.GetFitness(ctx, "AAAT")
		require.NoError(t, err)
		assert.Equal(t, 0.8, got)
	}
	assert.Equal(t, 2, s.Cost())
	assert.Equal(t, 0, s.Evals())
}

func TestUpdateModelCountsDistinctSequences(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle(landscape())
	s := newTestNoisy(t, oracle, 0.5, 1)

	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA", "AAAA", "AAAT"}))
	assert.Equal(t, 2, s.Cost())

	require.NoError(t, s.UpdateModel(ctx, []string{"AAAT", "TTTT"}))
	assert.Equal(t, 3, s.Cost())
	assert.Equal(t, 1, oracle.calls["AAAT"])
	assert.Equal(t, []float64{1.0, 0.8, 0.1}, s.FitnessHistory())

	measured := s.Measured()
	require.Len(t, measured, 3)
	assert.Equal(t, "AAAA", measured[0].Sequence)
	assert.Equal(t, "TTTT", measured[2].Sequence)
}

func TestFullSignalStrengthIsPassthrough(t *testing.T) {
	ctx := context.Background()
	s := newTestNoisy(t, newFakeOracle(landscape()), 1, 1)

	got, err := s.GetFitness(ctx, "AATT")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
	assert.Equal(t, 1, s.Evals())
	assert.Equal(t, 0, s.Cost())
}

func TestZeroSignalStrengthIsPureNoise(t *testing.T) {
	ctx := context.Background()
	values := landscape()
	values["AAAA"] = 0
	values["AAAT"] = 42
	s := newTestNoisy(t, newFakeOracle(values), 0, 1)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

	// Noise is exponential with scale 0, so the true signal never leaks through.
	got, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestNoisyScenario(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle(map[string]float64{"AAAA": 1.0, "AAAT": 0.8})
	s := newTestNoisy(t, oracle, 0.5, 42)

	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))
	assert.Equal(t, 1, s.Cost())

	dist, neighbor, ok := s.MinDistance("AAAT")
	require.True(t, ok)
	assert.Equal(t, 1, dist)
	assert.Equal(t, "AAAA", neighbor)

	got, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	want := 0.8*0.5 + firstExp(42)*1.0*0.5
	assert.InDelta(t, want, got, 1e-12)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.Equal(t, 1, s.Evals())

	again, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, s.Evals())
}

func TestCacheDisabledRecomputes(t *testing.T) {
	ctx := context.Background()
	s, err := NewNoisy(newFakeOracle(landscape()), Options{
		SignalStrength: 0.5,
		DisableCache:   true,
		Seed:           3,
		Logger:         quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

	_, err = s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	_, err = s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Evals())
}

func TestGetFitnessDistribution(t *testing.T) {
	ctx := context.Background()

	t.Run("measured sequence has no spread", func(t *testing.T) {
		s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)
		require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

		got, err := s.GetFitnessDistribution(ctx, "AAAA")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1, 1, 1}, got)
		assert.Equal(t, 0, s.Evals())
	})

	t.Run("unmeasured sequence counts one eval and skips the cache", func(t *testing.T) {
		s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)
		require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

		got, err := s.GetFitnessDistribution(ctx, "AAAT")
		require.NoError(t, err)
		require.Len(t, got, distributionSize)
		assert.Equal(t, 1, s.Evals())
		assert.NotEqual(t, got[0], got[1], "samples should be independent draws")

		_, err = s.GetFitness(ctx, "AAAT")
		require.NoError(t, err)
		assert.Equal(t, 2, s.Evals(), "distribution must not populate the cache")
	})
}

func TestUpdateModelRecomputesQuality(t *testing.T) {
	ctx := context.Background()
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 9)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

	queried := []string{"AAAT", "AATT", "ATTT", "TTTT"}
	predictions := make([]float64, 0, len(queried))
	truths := make([]float64, 0, len(queried))
	for _, seq := range queried {
		got, err := s.GetFitness(ctx, seq)
		require.NoError(t, err)
		predictions = append(predictions, got)
		truths = append(truths, landscape()[seq])
	}

	require.NoError(t, s.UpdateModel(ctx, queried))
	r, err := stats.Pearson(truths, predictions)
	require.NoError(t, err)
	assert.InDelta(t, r*r, s.R2(), 1e-12)

	// Cache is gone: a fresh query is computed again.
	evals := s.Evals()
	_, err = s.GetFitness(ctx, "CCCC")
	require.NoError(t, err)
	assert.Equal(t, evals+1, s.Evals())
}

func TestQualityUnchangedOnDegenerateInput(t *testing.T) {
	ctx := context.Background()
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 9)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

	_, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAT"}))
	assert.Equal(t, 0.25, s.R2(), "a single pair must not move r2")
}

func TestUpdateModelOracleFailure(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle(landscape())
	oracle.fail["AATT"] = true
	s := newTestNoisy(t, oracle, 0.5, 1)
	require.NoError(t, s.UpdateModel(ctx, []string{"CCCC"}))
	_, err := s.GetFitness(ctx, "AAAA")
	require.NoError(t, err)

	err = s.UpdateModel(ctx, []string{"AAAA", "AATT", "TTTT"})
	require.Error(t, err)
	assert.Equal(t, 2, s.Cost())
	assert.True(t, s.IsMeasured("AAAA"))
	assert.False(t, s.IsMeasured("TTTT"))
	assert.Len(t, s.FitnessHistory(), 2)
	assert.Empty(t, s.modelCache)
}

func TestNeighborOracleFailureFallsBackToHistory(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle(landscape())
	s := newTestNoisy(t, oracle, 0, 5)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA", "CCCC"}))

	oracle.fail["AAAA"] = true
	got, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	assert.Contains(t, []float64{1.0, 2.0}, got)
}

func TestNegativeNeighborFitnessFallsBackToHistory(t *testing.T) {
	ctx := context.Background()
	values := landscape()
	values["AAAA"] = -1
	s := newTestNoisy(t, newFakeOracle(values), 0, 5)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))

	got, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)
	assert.Equal(t, -1.0, got)
}

func TestEmptyHistoryIsAnError(t *testing.T) {
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)

	_, err := s.GetFitness(context.Background(), "AAAA")
	assert.True(t, errors.Is(err, ErrNoMeasurements))
	assert.Equal(t, 0, s.Evals())
}

func TestCancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))
	cancel()

	_, err := s.GetFitness(ctx, "AAAT")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestNoisy(t, newFakeOracle(landscape()), 0.5, 1)
	require.NoError(t, s.UpdateModel(ctx, []string{"AAAA"}))
	_, err := s.GetFitness(ctx, "AAAT")
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, nil))
	assert.Equal(t, 0, s.Cost())
	assert.Equal(t, 0, s.Evals())
	assert.Equal(t, 0.25, s.R2())
	assert.Empty(t, s.Measured())
	assert.Empty(t, s.FitnessHistory())
	assert.Empty(t, s.modelCache)

	require.NoError(t, s.Reset(ctx, []string{"AAAA", "TTTT"}))
	assert.Equal(t, 2, s.Cost())
}
