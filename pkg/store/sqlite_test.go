package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func period(start time.Time, value float64, reason analyzer.Reason) analyzer.ClassifiedPeriod {
	return analyzer.ClassifiedPeriod{
		Start:              start,
		End:                start.Add(time.Hour),
		Value:              value,
		AdjustedCorrection: 1,
		Reason:             reason,
		HotWater:           analyzer.HotWater{Setpoint: 50},
	}
}

func TestNotifyAndHistory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	tomorrow := period(day.Add(24*time.Hour), 3, analyzer.ReasonNoNeed)
	tomorrow.IsTomorrow = true
	snap := &driver.Snapshot{
		Area:     "SE3",
		Computed: day,
		Today: []analyzer.ClassifiedPeriod{
			period(day, 1, analyzer.ReasonIsMax),
			period(day.Add(time.Hour), 2, analyzer.ReasonNoNeed),
		},
		Tomorrow: []analyzer.ClassifiedPeriod{tomorrow},
	}
	require.NoError(t, s.Notify(ctx, snap))

	// a recomputation replaces the stored period
	snap.Today[0].Value = 1.25
	require.NoError(t, s.Notify(ctx, snap))

	got, err := s.History(ctx, "SE3", day, day.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.25, got[0].Price)
	assert.Equal(t, string(analyzer.ReasonIsMax), got[0].Reason)
	assert.True(t, got[0].Start.Equal(day))
	assert.Equal(t, 50.0, got[1].HotWater)
	assert.True(t, got[2].IsTomorrow)

	got, err = s.History(ctx, "SE3", day, day.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.History(ctx, "NO1", day, day.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}
