package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignBlockStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"already aligned", time.Date(2035, 1, 7, 6, 0, 0, 0, time.UTC), time.Date(2035, 1, 7, 6, 0, 0, 0, time.UTC)},
		{"mid block", time.Date(2035, 1, 7, 7, 0, 0, 0, time.UTC), time.Date(2035, 1, 7, 6, 0, 0, 0, time.UTC)},
		{"last hour of block", time.Date(2035, 1, 7, 8, 45, 12, 0, time.UTC), time.Date(2035, 1, 7, 6, 0, 0, 0, time.UTC)},
		{"midnight", time.Date(2035, 1, 7, 0, 30, 0, 0, time.UTC), time.Date(2035, 1, 7, 0, 0, 0, 0, time.UTC)},
		{"last block of day", time.Date(2035, 1, 7, 23, 59, 59, 0, time.UTC), time.Date(2035, 1, 7, 21, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AlignBlockStart(tc.in))
		})
	}
}

func TestIsBlockAligned(t *testing.T) {
	assert.True(t, IsBlockAligned(time.Date(2035, 6, 1, 15, 0, 0, 0, time.UTC)))
	assert.False(t, IsBlockAligned(time.Date(2035, 6, 1, 16, 0, 0, 0, time.UTC)))
	assert.False(t, IsBlockAligned(time.Date(2035, 6, 1, 15, 30, 0, 0, time.UTC)))
}

func TestBlockHours(t *testing.T) {
	start := time.Date(2035, 1, 7, 6, 0, 0, 0, time.UTC)
	hours := BlockHours(start)

	assert.Equal(t, start, hours[0])
	assert.Equal(t, start.Add(time.Hour), hours[1])
	assert.Equal(t, start.Add(2*time.Hour), hours[2])
}

func TestHourBucketOf(t *testing.T) {
	assert.Equal(t, 6, HourBucketOf(time.Date(2035, 1, 7, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, 21, HourBucketOf(time.Date(2035, 1, 7, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, HourBucketOf(time.Date(2035, 1, 7, 2, 59, 0, 0, time.UTC)))
}
