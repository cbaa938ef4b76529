package export

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"labeller/internal/labelstore"
)

// Timing summarises per-image labelling time in seconds.
type Timing struct {
	Count  int     `yaml:"count"`
	Mean   float64 `yaml:"mean_sec"`
	Min    float64 `yaml:"min_sec"`
	Max    float64 `yaml:"max_sec"`
	Median float64 `yaml:"median_sec"`
	P90    float64 `yaml:"p90_sec"`
	Total  float64 `yaml:"total_sec"`
}

// timingOf derives timing statistics from the records' own durations. It
// reports false when there are no records.
func timingOf(records []labelstore.Record) (Timing, bool) {
	if len(records) == 0 {
		return Timing{}, false
	}
	secs := make([]float64, 0, len(records))
	for _, rec := range records {
		secs = append(secs, rec.TimeSpent.Seconds())
	}
	slices.Sort(secs)
	return Timing{
		Count:  len(secs),
		Mean:   stat.Mean(secs, nil),
		Min:    floats.Min(secs),
		Max:    floats.Max(secs),
		Median: stat.Quantile(0.5, stat.Empirical, secs, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, secs, nil),
		Total:  floats.Sum(secs),
	}, true
}
