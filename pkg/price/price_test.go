package price

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(start time.Time, n int) Series {
	s := make(Series, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, Sample{
			Start: start.Add(time.Duration(i) * time.Hour),
			End:   start.Add(time.Duration(i+1) * time.Hour),
			Value: float64(i),
		})
	}
	return s
}

func TestLookupArea(t *testing.T) {
	info, ok := LookupArea("no1")
	require.True(t, ok)
	assert.Equal(t, "NO1", info.Code)
	assert.Equal(t, Currency("NOK"), info.Currency)
	loc, err := info.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Oslo", loc.String())

	_, ok = LookupArea("XX9")
	assert.False(t, ok)
}

func TestAllAreasHaveLocation(t *testing.T) {
	for _, code := range AreaCodes() {
		info, _ := LookupArea(code)
		_, err := info.Location()
		assert.NoError(t, err, code)
	}
}

func TestSeriesValid(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	var tests = []struct {
		name     string
		series   Series
		expected bool
	}{
		{name: "empty", series: nil, expected: false},
		{name: "full day", series: hourly(start, 24), expected: true},
		{name: "dst day", series: hourly(start, 23), expected: true},
		{name: "partial", series: hourly(start, 22), expected: false},
		{name: "sentinel", series: func() Series {
			s := hourly(start, 23)
			s[3].Value = math.Inf(1)
			return s
		}(), expected: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.series.Valid())
		})
	}
}

func TestSeriesQuarterValid(t *testing.T) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	s := Series{}
	for i := 0; i < 92; i++ {
		s = append(s, Sample{
			Start: start.Add(time.Duration(i) * 15 * time.Minute),
			End:   start.Add(time.Duration(i+1) * 15 * time.Minute),
		})
	}
	assert.Equal(t, 4, s.PeriodsPerHour())
	assert.True(t, s.Valid())
	assert.False(t, s[:91].Valid())
}

func TestSortedIsIdempotent(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	s := hourly(start, 5)
	shuffled := Series{s[3], s[0], s[4], s[1], s[2]}
	once := shuffled.Sorted()
	assert.Equal(t, s, once)
	assert.Equal(t, once, once.Sorted())
	assert.Equal(t, s[3], shuffled[0], "input is not mutated")
}

func TestDayBoundsDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	ref := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	start, end := DayBounds(ref, loc)
	assert.Equal(t, time.Date(2025, 3, 29, 23, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, 23*time.Hour, end.Sub(start).Round(time.Hour))
}

func TestInvalidPeriodDataError(t *testing.T) {
	err := fmt.Errorf("merge: %w", &InvalidPeriodDataError{Area: "NO1", Value: math.Inf(1)})
	assert.True(t, errors.Is(err, ErrInvalidPeriodData))
	var ipd *InvalidPeriodDataError
	require.True(t, errors.As(err, &ipd))
	assert.Equal(t, "NO1", ipd.Area)
	assert.Contains(t, err.Error(), "'NO1'")
}
