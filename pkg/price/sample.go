package price

import (
	"math"
	"sort"
	"time"
)

// Sample is a single raw price observation from the provider.
// Value is in provider units (per MWh) or +Inf when the provider had no valid price.
type Sample struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

// Invalid reports if the value is the provider sentinel.
func (s Sample) Invalid() bool {
	return math.IsInf(s.Value, 0) || math.IsNaN(s.Value)
}

// ZeroLength is true for periods produced by a DST change where start and end are the same instant.
func (s Sample) ZeroLength() bool {
	return s.Start.Equal(s.End)
}

func (s Sample) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Contains reports if t is inside [Start, End).
func (s Sample) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

type Series []Sample

// Sorted returns a copy ordered by start. Sorting an already sorted series is a no-op.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (s Series) ValidCount() int {
	n := 0
	for _, v := range s {
		if !v.Invalid() {
			n++
		}
	}
	return n
}

// PeriodsPerHour is 4 for quarter-hourly series and 1 otherwise.
func (s Series) PeriodsPerHour() int {
	for _, v := range s {
		if v.ZeroLength() {
			continue
		}
		if v.Duration() <= 15*time.Minute {
			return 4
		}
		return 1
	}
	return 1
}

// Valid is true when the day has enough valid periods to be relied upon.
// A short DST day has 23 hours so anything below that is incomplete.
func (s Series) Valid() bool {
	if len(s) == 0 {
		return false
	}
	return s.ValidCount() >= 23*s.PeriodsPerHour()
}
