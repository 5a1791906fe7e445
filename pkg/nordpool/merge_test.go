package nordpool

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cetDay builds a provider response for one CET delivery day with 24 hourly samples per area.
func cetDay(t *testing.T, date string, areas ...string) *DayResult {
	start, err := time.ParseInLocation("2006-01-02", date, stockholm)
	require.NoError(t, err)
	res := &DayResult{
		Start:    start.UTC(),
		End:      start.AddDate(0, 0, 1).UTC(),
		Currency: "NOK",
		Areas:    map[string]price.Series{},
	}
	for _, area := range areas {
		for i := 0; i < 24; i++ {
			res.Areas[area] = append(res.Areas[area], price.Sample{
				Start: start.Add(time.Duration(i) * time.Hour).UTC(),
				End:   start.Add(time.Duration(i+1) * time.Hour).UTC(),
				Value: float64(100 + i),
			})
		}
	}
	return res
}

func TestMergeWindowInvariant(t *testing.T) {
	results := []*DayResult{
		cetDay(t, "2025-01-01", "NO1", "FI"),
		cetDay(t, "2025-01-02", "NO1", "FI"),
		cetDay(t, "2025-01-03", "NO1", "FI"),
	}
	ref := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	merged, err := Merge(results, ref)
	require.NoError(t, err)
	require.Contains(t, merged, "NO1")
	require.Contains(t, merged, "FI")

	for area, res := range merged {
		info, _ := price.LookupArea(area)
		loc, err := info.Location()
		require.NoError(t, err)
		start, end := price.DayBounds(ref, loc)

		assert.Len(t, res.Values, 24, area)
		for _, v := range res.Values {
			assert.False(t, v.Start.Before(start), "%s %s before local day", area, v.Start)
			assert.False(t, v.Start.After(end), "%s %s after local day", area, v.Start)
			assert.Equal(t, loc.String(), v.Start.Location().String())
		}
	}

	// Helsinki is one hour ahead so its day starts with the last CET hour of the day before.
	fi := merged["FI"].Values.Sorted()
	assert.Equal(t, 123.0, fi[0].Value)
	assert.Equal(t, 0, fi[0].Start.Hour())
}

func TestMergeInvalidValue(t *testing.T) {
	today := cetDay(t, "2025-01-02", "NO1")
	today.Areas["NO1"][23].Value = math.Inf(1)
	results := []*DayResult{
		cetDay(t, "2025-01-01", "NO1"),
		today,
		cetDay(t, "2025-01-03", "NO1"),
	}

	merged, err := Merge(results, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	assert.Nil(t, merged)
	require.Error(t, err)
	assert.True(t, errors.Is(err, price.ErrInvalidPeriodData))
	var ipd *price.InvalidPeriodDataError
	require.True(t, errors.As(err, &ipd))
	assert.Equal(t, "NO1", ipd.Area)
}

func TestMergeInvalidValueOutsideWindowIsIgnored(t *testing.T) {
	tomorrow := cetDay(t, "2025-01-03", "NO1")
	tomorrow.Areas["NO1"][5].Value = math.Inf(1)
	results := []*DayResult{
		cetDay(t, "2025-01-01", "NO1"),
		cetDay(t, "2025-01-02", "NO1"),
		tomorrow,
	}

	merged, err := Merge(results, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, merged["NO1"].Values, 24)
}

func TestMergeSkipsZeroLengthPeriod(t *testing.T) {
	today := cetDay(t, "2025-01-02", "SE3")
	today.Areas["SE3"][4].End = today.Areas["SE3"][4].Start
	today.Areas["SE3"][4].Value = math.Inf(1)

	merged, err := Merge([]*DayResult{today}, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, merged["SE3"].Values, 23)
}

func TestMergeSkipsUnknownArea(t *testing.T) {
	merged, err := Merge([]*DayResult{nil, cetDay(t, "2025-01-02", "XX1", "SE3"), nil}, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotContains(t, merged, "XX1")
	assert.Contains(t, merged, "SE3")
}

func TestMergeDoesNotSort(t *testing.T) {
	today := cetDay(t, "2025-01-02", "SE3")
	s := today.Areas["SE3"]
	s[0], s[1] = s[1], s[0]

	merged, err := Merge([]*DayResult{today}, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 101.0, merged["SE3"].Values[0].Value)
	assert.Equal(t, 100.0, merged["SE3"].Values.Sorted()[0].Value)
}
