package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeightTriple(t *testing.T) {
	t.Run("valid triple", func(t *testing.T) {
		triple, err := NewWeightTriple(2024, [3]float64{0.348, 0.262, 0.390})
		require.NoError(t, err)
		assert.Equal(t, 2024, triple.Year)
		assert.InDelta(t, 1.0, triple.W[0]+triple.W[1]+triple.W[2], SumTolerance)
	})

	t.Run("renormalizes to exactly one", func(t *testing.T) {
		// Within tolerance of 1 but not exactly 1.
		triple, err := NewWeightTriple(2023, [3]float64{1.0 / 3, 1.0 / 3, 1.0/3 + 4e-10})
		require.NoError(t, err)
		assert.Equal(t, 1.0, triple.W[0]+triple.W[1]+triple.W[2])
	})

	t.Run("negative component", func(t *testing.T) {
		_, err := NewWeightTriple(2023, [3]float64{-0.1, 0.6, 0.5})
		var mt *MalformedTripleError
		require.ErrorAs(t, err, &mt)
		assert.Equal(t, 2023, mt.Year)
	})

	t.Run("sum off by more than tolerance", func(t *testing.T) {
		_, err := NewWeightTriple(2023, [3]float64{0.5, 0.3, 0.3})
		var mt *MalformedTripleError
		require.ErrorAs(t, err, &mt)
		assert.InDelta(t, 1.1, mt.Sum, 1e-12)
	})

	t.Run("NaN component", func(t *testing.T) {
		_, err := NewWeightTriple(2023, [3]float64{math.NaN(), 0.5, 0.5})
		require.Error(t, err)
	})
}

func TestWeightTripleApply(t *testing.T) {
	triple, err := NewWeightTriple(2024, [3]float64{0.348, 0.262, 0.390})
	require.NoError(t, err)

	out := triple.Apply(0.5)
	assert.InDelta(t, 0.174, out[0], 1e-12)
	assert.InDelta(t, 0.131, out[1], 1e-12)
	assert.InDelta(t, 0.195, out[2], 1e-12)
	assert.InDelta(t, 0.5, out[0]+out[1]+out[2], SumTolerance)
}

func TestWeightKey(t *testing.T) {
	fine := WeightKey{CellID: 42007, Month: 1, HourBucket: 6}
	assert.Equal(t, "cell=42007 month=1 hour=06", fine.String())
	assert.False(t, fine.IsCoarse())

	coarse := fine.Coarse()
	assert.True(t, coarse.IsCoarse())
	assert.Equal(t, "cell=42007 month=1 hour=*", coarse.String())
	assert.Equal(t, fine.CellID, coarse.CellID)
	assert.Equal(t, fine.Month, coarse.Month)
}
