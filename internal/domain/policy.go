package domain

// Granularity selects the weight-table keying scheme.
type Granularity string

const (
	GranularityMonthHour Granularity = "month-hour" // (cell, month, 3-hour bucket)
	GranularityMonth     Granularity = "month"      // (cell, month)
)

// GapPolicy controls how the aggregator treats hours with no usable
// observations. The choice is explicit configuration and is recorded in the
// run report; it is never decided silently.
type GapPolicy string

const (
	// GapExclude marks the hour as missing so it is excluded from weight
	// computation downstream.
	GapExclude GapPolicy = "exclude"
	// GapZeroFill records the hour as a zero total, letting it participate
	// in weight computation as observed dryness.
	GapZeroFill GapPolicy = "zero-fill"
)
