package domain

import "time"

// BlockDuration is the width of one disaggregation block.
const BlockDuration = 3 * time.Hour

// AlignBlockStart floors t to the start of its containing 3-hour block on
// the fixed 0/3/6/…/21 schedule.
func AlignBlockStart(t time.Time) time.Time {
	t = t.UTC().Truncate(time.Hour)
	return t.Add(-time.Duration(t.Hour()%3) * time.Hour)
}

// IsBlockAligned reports whether t sits exactly on a block boundary.
func IsBlockAligned(t time.Time) bool {
	return t.Equal(AlignBlockStart(t))
}

// BlockHours returns the three hourly timestamps covered by the block
// starting at start.
func BlockHours(start time.Time) [3]time.Time {
	return [3]time.Time{
		start,
		start.Add(time.Hour),
		start.Add(2 * time.Hour),
	}
}

// HourBucketOf returns the hour-of-day bucket (0, 3, …, 21) of the block
// containing t.
func HourBucketOf(t time.Time) int {
	return AlignBlockStart(t).Hour()
}
