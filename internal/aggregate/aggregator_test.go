package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

const testCell = int64(42007)

func obsAt(t time.Time, value float64) domain.Observation {
	return domain.Observation{Time: t, CellID: testCell, Var: domain.VarPrecipitation, Value: value}
}

func TestHourly_SumsWithinHour(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	obs := []domain.Observation{
		obsAt(from.Add(0*time.Minute), 0.2),
		obsAt(from.Add(15*time.Minute), 0.3),
		obsAt(from.Add(45*time.Minute), 0.1),
		obsAt(from.Add(60*time.Minute), 1.0), // next hour
	}

	res, err := Hourly(testCell, obs, from, to, domain.GapExclude)
	require.NoError(t, err)
	require.Len(t, res.Totals, 2)

	assert.InDelta(t, 0.6, res.Totals[0].Value, 1e-12)
	assert.Equal(t, from, res.Totals[0].Hour)
	assert.InDelta(t, 1.0, res.Totals[1].Value, 1e-12)
	assert.Empty(t, res.Gaps)
}

func TestHourly_NoDoubleCounting(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	// An observation exactly on the hour boundary belongs to the later hour only.
	obs := []domain.Observation{
		obsAt(from.Add(59*time.Minute), 0.5),
		obsAt(from.Add(time.Hour), 0.5),
	}

	res, err := Hourly(testCell, obs, from, to, domain.GapExclude)
	require.NoError(t, err)
	require.Len(t, res.Totals, 2)
	assert.InDelta(t, 0.5, res.Totals[0].Value, 1e-12)
	assert.InDelta(t, 0.5, res.Totals[1].Value, 1e-12)
}

func TestHourly_GapPolicies(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	to := from.Add(3 * time.Hour)

	obs := []domain.Observation{
		obsAt(from.Add(10*time.Minute), 0.4),
		// hour 7 has no observations, hour 8 has data
		obsAt(from.Add(2*time.Hour+10*time.Minute), 0.2),
	}

	t.Run("exclude marks missing", func(t *testing.T) {
		res, err := Hourly(testCell, obs, from, to, domain.GapExclude)
		require.NoError(t, err)
		require.Len(t, res.Totals, 3)
		assert.False(t, res.Totals[0].Missing)
		assert.True(t, res.Totals[1].Missing)
		assert.False(t, res.Totals[2].Missing)
		require.Len(t, res.Gaps, 1)
		assert.Equal(t, from.Add(time.Hour), res.Gaps[0].Hour)
		assert.Equal(t, testCell, res.Gaps[0].CellID)
	})

	t.Run("zero-fill records zero", func(t *testing.T) {
		res, err := Hourly(testCell, obs, from, to, domain.GapZeroFill)
		require.NoError(t, err)
		require.Len(t, res.Totals, 3)
		assert.False(t, res.Totals[1].Missing)
		assert.Zero(t, res.Totals[1].Value)
		// The gap is still recorded even when zero-filled.
		require.Len(t, res.Gaps, 1)
	})
}

func TestHourly_UnusableValuesTaintHour(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	tests := []struct {
		name string
		bad  float64
	}{
		{"negative", -1.5},
		{"NaN", math.NaN()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obs := []domain.Observation{
				obsAt(from.Add(5*time.Minute), 0.3),
				obsAt(from.Add(20*time.Minute), tc.bad),
			}
			res, err := Hourly(testCell, obs, from, to, domain.GapExclude)
			require.NoError(t, err)
			require.Len(t, res.Totals, 1)
			assert.True(t, res.Totals[0].Missing)
			assert.Len(t, res.Gaps, 1)
		})
	}
}

func TestHourly_IgnoresOtherCellsAndVariables(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	obs := []domain.Observation{
		obsAt(from.Add(5*time.Minute), 0.3),
		{Time: from.Add(10 * time.Minute), CellID: testCell + 1, Var: domain.VarPrecipitation, Value: 9.9},
		{Time: from.Add(15 * time.Minute), CellID: testCell, Var: domain.VarTemperature, Value: 21.5},
	}

	res, err := Hourly(testCell, obs, from, to, domain.GapExclude)
	require.NoError(t, err)
	require.Len(t, res.Totals, 1)
	assert.InDelta(t, 0.3, res.Totals[0].Value, 1e-12)
}

func TestHourly_InvalidArguments(t *testing.T) {
	from := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)

	_, err := Hourly(testCell, nil, from, from, domain.GapExclude)
	require.Error(t, err)

	_, err = Hourly(testCell, nil, from, from.Add(time.Hour), domain.GapPolicy("interpolate"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap policy")
}
