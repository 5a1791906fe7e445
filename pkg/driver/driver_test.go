package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockholm, _ = time.LoadLocation("Europe/Stockholm")

type fakeFetcher struct {
	mu     sync.Mutex
	days   map[string]price.Series
	errs   map[string]error
	calls  []string
	during func()
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		days: map[string]price.Series{},
		errs: map[string]error{},
	}
}

func (f *fakeFetcher) FetchArea(ctx context.Context, area string, day time.Time) (price.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := day.Format("2006-01-02")
	f.calls = append(f.calls, key)
	if f.during != nil {
		f.during()
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.days[key], nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func day(date string, values ...float64) price.Series {
	start, _ := time.ParseInLocation("2006-01-02", date, stockholm)
	s := make(price.Series, 0, len(values))
	for i, v := range values {
		st := start.Add(time.Duration(i) * time.Hour)
		s = append(s, price.Sample{Start: st, End: st.Add(time.Hour), Value: v})
	}
	return s
}

func curve(base float64) []float64 {
	v := make([]float64, 24)
	for i := range v {
		v[i] = base + float64((i*7)%11)*10
	}
	return v
}

type recorder struct {
	snaps []*Snapshot
}

func (r *recorder) Notify(ctx context.Context, s *Snapshot) error {
	r.snaps = append(r.snaps, s)
	return nil
}

func setup(t *testing.T, now time.Time) (*Area, *fakeFetcher, *clock, *recorder) {
	t.Helper()
	c := &clock{now: now}
	f := newFakeFetcher()
	r := &recorder{}
	a := analyzer.New(analyzer.NewConverter(analyzer.UnitMWh, 0, false, 3, nil), analyzer.DefaultOptions())
	area := New(Config{
		Area:              "SE3",
		Location:          stockholm,
		Currency:          "SEK",
		TomorrowAfterHour: 13,
		Now:               c.Now,
	}, f, a, r)
	return area, f, c, r
}

func TestOnNewHourFetchesToday(t *testing.T) {
	area, f, _, r := setup(t, time.Date(2025, 1, 2, 10, 30, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)

	require.NoError(t, area.OnNewHour(context.Background()))
	require.Len(t, r.snaps, 1)
	assert.Equal(t, []string{"2025-01-02"}, f.calls)

	snap := area.Snapshot()
	assert.Equal(t, TriggerNewHour, snap.Trigger)
	assert.Len(t, area.Today(), 24)
	assert.Empty(t, area.Tomorrow())
	assert.False(t, snap.TomorrowValid)
	require.NotNil(t, area.Current())
	assert.Equal(t, 10, area.Current().Start.Hour())
	assert.Len(t, area.Cheapest(3, false), 3)
	assert.Nil(t, area.Cheapest(3, true))

	// Second hour does not refetch a valid today and does not fetch tomorrow before 13.
	require.NoError(t, area.OnNewHour(context.Background()))
	assert.Len(t, f.calls, 1)
	assert.Len(t, r.snaps, 2)
	assert.NotEqual(t, r.snaps[0].ID, r.snaps[1].ID)
}

func TestOnNewHourFetchesTomorrowAfterConfiguredHour(t *testing.T) {
	area, f, _, r := setup(t, time.Date(2025, 1, 2, 14, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	f.days["2025-01-03"] = day("2025-01-03", curve(50)...)

	require.NoError(t, area.OnNewHour(context.Background()))
	assert.Equal(t, []string{"2025-01-02", "2025-01-03"}, f.calls)
	snap := r.snaps[0]
	assert.True(t, snap.TomorrowValid)
	assert.Len(t, snap.Tomorrow, 24)
	require.NotNil(t, snap.TomorrowStats)
	assert.Len(t, area.Cheapest(5, true), 5)
	for _, p := range snap.Tomorrow {
		assert.True(t, p.IsTomorrow)
	}
	// Lookahead from the last period of today crosses into tomorrow.
	require.NotNil(t, snap.Today[23].PriceNextHour)
	assert.Equal(t, snap.Tomorrow[0].Value, *snap.Today[23].PriceNextHour)
}

func TestOnNewPricePublishedNotPublished(t *testing.T) {
	area, f, _, r := setup(t, time.Date(2025, 1, 2, 13, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)

	require.NoError(t, area.OnNewHour(context.Background()))
	err := area.OnNewPricePublished(context.Background())
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.Len(t, r.snaps, 1)
	assert.NotNil(t, area.Snapshot())
}

func TestInvalidDataKeepsLastKnownGood(t *testing.T) {
	area, f, c, r := setup(t, time.Date(2025, 1, 2, 13, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	require.NoError(t, area.OnNewHour(context.Background()))
	before := area.Snapshot()

	invalid := &price.InvalidPeriodDataError{Area: "SE3", Start: c.Now()}
	f.errs["2025-01-03"] = invalid
	err := area.OnNewPricePublished(context.Background())
	assert.ErrorIs(t, err, price.ErrInvalidPeriodData)
	assert.Same(t, before, area.Snapshot())
	assert.Len(t, r.snaps, 1)

	// An incomplete day is not accepted either.
	delete(f.errs, "2025-01-03")
	f.days["2025-01-03"] = day("2025-01-03", curve(100)[:20]...)
	err = area.OnNewPricePublished(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteDay)
	assert.Same(t, before, area.Snapshot())
}

func TestOnNewDayPromotesTomorrow(t *testing.T) {
	area, f, c, r := setup(t, time.Date(2025, 1, 2, 14, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	f.days["2025-01-03"] = day("2025-01-03", curve(50)...)
	require.NoError(t, area.OnNewPricePublished(context.Background()))
	tomorrowValues := r.snaps[0].Tomorrow

	c.Set(time.Date(2025, 1, 3, 0, 0, 5, 0, stockholm))
	calls := len(f.calls)
	require.NoError(t, area.OnNewDay(context.Background()))
	assert.Len(t, f.calls, calls, "promotion must not refetch")

	snap := area.Snapshot()
	assert.Equal(t, TriggerNewDay, snap.Trigger)
	assert.False(t, snap.TomorrowValid)
	assert.Empty(t, snap.Tomorrow)
	assert.Nil(t, snap.TomorrowStats)
	require.Len(t, snap.Today, 24)
	for i := range snap.Today {
		assert.Equal(t, tomorrowValues[i].Start, snap.Today[i].Start)
		assert.Equal(t, tomorrowValues[i].Value, snap.Today[i].Value)
		assert.False(t, snap.Today[i].IsTomorrow)
	}
	assert.NotNil(t, area.tomorrow)
	assert.Empty(t, area.tomorrow)
}

func TestOnNewDayWithoutTomorrowRefetches(t *testing.T) {
	area, f, c, _ := setup(t, time.Date(2025, 1, 2, 10, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	require.NoError(t, area.OnNewHour(context.Background()))

	c.Set(time.Date(2025, 1, 3, 0, 0, 5, 0, stockholm))
	err := area.OnNewDay(context.Background())
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.Equal(t, "2025-01-03", f.calls[len(f.calls)-1])

	f.days["2025-01-03"] = day("2025-01-03", curve(70)...)
	require.NoError(t, area.OnNewHour(context.Background()))
	assert.Equal(t, 2025, area.Snapshot().Today[0].Start.Year())
	assert.Equal(t, 3, area.Snapshot().Today[0].Start.Day())
}

func TestMissedNewDayIgnoresOldTomorrow(t *testing.T) {
	area, f, c, r := setup(t, time.Date(2025, 1, 2, 14, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	f.days["2025-01-03"] = day("2025-01-03", curve(50)...)
	require.NoError(t, area.OnNewHour(context.Background()))
	require.True(t, r.snaps[0].TomorrowValid)

	// no new day trigger before the next period
	c.Set(time.Date(2025, 1, 3, 10, 0, 0, 0, stockholm))
	require.NoError(t, area.OnNewHour(context.Background()))

	snap := area.Snapshot()
	assert.Equal(t, 3, snap.Today[0].Start.Day())
	assert.False(t, snap.TomorrowValid)
	assert.Empty(t, snap.Tomorrow)
	assert.Nil(t, snap.TomorrowStats)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	area, f, c, _ := setup(t, time.Date(2025, 1, 2, 23, 59, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	require.NoError(t, area.OnNewHour(context.Background()))

	f.days["2025-01-03"] = day("2025-01-03", curve(50)...)
	f.during = func() {
		c.now = time.Date(2025, 1, 3, 0, 1, 0, 0, stockholm)
	}
	err := area.OnNewPricePublished(context.Background())
	assert.ErrorIs(t, err, price.ErrStaleResult)
	assert.Empty(t, area.tomorrow)
	assert.True(t, area.tomorrowDate.IsZero())
}

func TestRecomputeIsIdempotent(t *testing.T) {
	area, f, _, r := setup(t, time.Date(2025, 1, 2, 14, 0, 0, 0, stockholm))
	f.days["2025-01-02"] = day("2025-01-02", curve(100)...)
	f.days["2025-01-03"] = day("2025-01-03", curve(50)...)
	require.NoError(t, area.OnNewHour(context.Background()))
	require.NoError(t, area.OnNewHour(context.Background()))

	require.Len(t, r.snaps, 2)
	assert.Equal(t, r.snaps[0].Today, r.snaps[1].Today)
	assert.Equal(t, r.snaps[0].Tomorrow, r.snaps[1].Tomorrow)
}

func TestNotifiersJoinErrors(t *testing.T) {
	called := 0
	n := Notifiers{
		NotifierFunc(func(ctx context.Context, s *Snapshot) error {
			called++
			return errors.New("first")
		}),
		NotifierFunc(func(ctx context.Context, s *Snapshot) error {
			called++
			return nil
		}),
	}
	err := n.Notify(context.Background(), &Snapshot{})
	assert.EqualError(t, err, "first")
	assert.Equal(t, 2, called)
}
