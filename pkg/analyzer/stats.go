package analyzer

import (
	"math"
	"sort"

	"github.com/nergy-se/priceanalyzer/pkg/price"
)

// minPrice is the floor used when dividing by a price.
const minPrice = 0.00001

type DayStatistics struct {
	Average          float64 `json:"average"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	Median           float64 `json:"median"`
	Peak             float64 `json:"peak"`
	OffPeak1         float64 `json:"off_peak_1"`
	OffPeak2         float64 `json:"off_peak_2"`
	PercentThreshold float64 `json:"percent_threshold"`
	SpreadRatio      float64 `json:"spread_ratio"`
	IsSmallSpread    bool    `json:"is_small_spread"`

	// Degenerate is set when max is not positive. No period of such a day is gaining or falling.
	Degenerate bool `json:"degenerate"`
}

// ComputeStatistics computes the statistics of converted prices in chronological order.
// The peak and off peak buckets are positional: [0:8], [9:17] and [20:] scaled by periodsPerHour.
// Index 8 and 17-19 belong to no bucket.
func ComputeStatistics(prices []float64, periodsPerHour int, percentDifference float64) (DayStatistics, error) {
	st := DayStatistics{}
	if len(prices) == 0 {
		return st, price.ErrEmptySeries
	}
	if periodsPerHour < 1 {
		periodsPerHour = 1
	}

	st.Min = prices[0]
	st.Max = prices[0]
	sum := 0.0
	for _, p := range prices {
		sum += p
		st.Min = math.Min(st.Min, p)
		st.Max = math.Max(st.Max, p)
	}
	st.Average = sum / float64(len(prices))
	st.Median = median(prices)

	st.OffPeak1 = mean(bucket(prices, 0, 8*periodsPerHour))
	st.Peak = mean(bucket(prices, 9*periodsPerHour, 17*periodsPerHour))
	st.OffPeak2 = mean(bucket(prices, 20*periodsPerHour, len(prices)))

	if st.Max > 0 {
		st.PercentThreshold = -((st.Min/st.Max - 1) / 4)
	} else {
		st.Degenerate = true
	}

	st.SpreadRatio = st.Max / math.Max(st.Min, minPrice)
	st.IsSmallSpread = st.SpreadRatio < SpreadLimit(percentDifference)
	return st, nil
}

// SpreadLimit converts a percent difference such as 20 into the ratio 1.2.
func SpreadLimit(percentDifference float64) float64 {
	return (percentDifference + 100) / 100
}

func bucket(prices []float64, from, to int) []float64 {
	if to > len(prices) {
		to = len(prices)
	}
	if from >= to {
		return nil
	}
	return prices[from:to]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
