package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify(t *testing.T) {
	m := New()
	snap := &driver.Snapshot{
		Area:          "SE3",
		Trigger:       driver.TriggerNewHour,
		TomorrowValid: true,
		TodayStats:    &analyzer.DayStatistics{Average: 1.5, Max: 3},
		Current: &analyzer.ClassifiedPeriod{
			Value:              2.5,
			AdjustedCorrection: -1,
			HotWater:           analyzer.HotWater{Setpoint: 40},
		},
	}
	require.NoError(t, m.Notify(context.Background(), snap))
	require.NoError(t, m.Notify(context.Background(), snap))

	assert.Equal(t, 2.5, testutil.ToFloat64(m.price.WithLabelValues("SE3")))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.correction.WithLabelValues("SE3")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.hotWater.WithLabelValues("SE3")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stats.WithLabelValues("SE3", "max")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tomorrowValid.WithLabelValues("SE3")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recomputations.WithLabelValues("SE3", "new_hour")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `priceanalyzer_price{area="SE3"} 2.5`)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&price.InvalidPeriodDataError{Area: "NO1"}, "invalid_data"},
		{fmt.Errorf("wrapped: %w", price.ErrCurrencyMismatch), "currency_mismatch"},
		{price.ErrStaleResult, "stale"},
		{fmt.Errorf("x: %w", driver.ErrNotPublished), "not_published"},
		{driver.ErrIncompleteDay, "incomplete"},
		{errors.New("connection refused"), "fetch"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}

	m := New()
	m.Failed("NO1", price.ErrStaleResult)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("NO1", "stale")))
}
