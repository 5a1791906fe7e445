package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotPublished  = errors.New("prices not published yet")
	ErrIncompleteDay = errors.New("day has too few valid periods")
)

type Fetcher interface {
	// FetchArea returns the local day containing day. A nil series means the day is not published.
	FetchArea(ctx context.Context, area string, day time.Time) (price.Series, error)
}

type Notifier interface {
	Notify(ctx context.Context, s *Snapshot) error
}

type NotifierFunc func(ctx context.Context, s *Snapshot) error

func (f NotifierFunc) Notify(ctx context.Context, s *Snapshot) error {
	return f(ctx, s)
}

// Notifiers calls every notifier and joins their errors.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, s *Snapshot) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Config struct {
	Area     string
	Location *time.Location
	Currency price.Currency

	// TomorrowAfterHour is the local hour from which tomorrow is fetched when it is missing.
	TomorrowAfterHour int

	Now func() time.Time
}

// Area owns the today and tomorrow series of one price area.
// OnNewHour, OnNewDay and OnNewPricePublished must not be called concurrently.
// The read accessors are safe to use from any goroutine.
type Area struct {
	name     string
	loc      *time.Location
	currency price.Currency

	fetcher  Fetcher
	analyzer *analyzer.Analyzer
	notifier Notifier

	tomorrowAfterHour int
	now               func() time.Time

	today        price.Series
	todayDate    time.Time
	tomorrow     price.Series
	tomorrowDate time.Time

	snapshot *Snapshot
	sync.RWMutex
}

func New(cfg Config, fetcher Fetcher, a *analyzer.Analyzer, notifier Notifier) *Area {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if notifier == nil {
		notifier = Notifiers{}
	}
	return &Area{
		name:              cfg.Area,
		loc:               cfg.Location,
		currency:          cfg.Currency,
		fetcher:           fetcher,
		analyzer:          a,
		notifier:          notifier,
		tomorrowAfterHour: cfg.TomorrowAfterHour,
		now:               cfg.Now,
		tomorrow:          price.Series{},
	}
}

func (a *Area) Name() string {
	return a.name
}

func (a *Area) Location() *time.Location {
	return a.loc
}

// OnNewHour fetches what is missing and recomputes.
func (a *Area) OnNewHour(ctx context.Context) error {
	err := a.ensureToday(ctx)
	if err != nil {
		return err
	}

	now := a.now().In(a.loc)
	if !a.hasTomorrow() && now.Hour() >= a.tomorrowAfterHour {
		if err := a.fetchTomorrow(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"area": a.name,
			}).Debugf("driver: tomorrow not available: %s", err)
		}
	}
	return a.recompute(ctx, TriggerNewHour)
}

// OnNewDay promotes a valid tomorrow to today. Without a valid tomorrow today is fetched again.
func (a *Area) OnNewDay(ctx context.Context) error {
	newToday := localDate(a.now(), a.loc)

	if a.tomorrow.Valid() && a.tomorrowDate.Equal(newToday) {
		a.today = a.tomorrow
		a.todayDate = a.tomorrowDate
		logrus.WithFields(logrus.Fields{
			"area": a.name,
			"date": newToday.Format("2006-01-02"),
		}).Info("driver: promoted tomorrow to today")
	} else if !a.todayDate.Equal(newToday) {
		a.today = nil
		a.todayDate = time.Time{}
	}
	a.tomorrow = price.Series{}
	a.tomorrowDate = time.Time{}

	err := a.ensureToday(ctx)
	if err != nil {
		return err
	}
	return a.recompute(ctx, TriggerNewDay)
}

// OnNewPricePublished fetches tomorrow unless it is already valid and recomputes.
func (a *Area) OnNewPricePublished(ctx context.Context) error {
	err := a.ensureToday(ctx)
	if err != nil {
		return err
	}
	if !a.hasTomorrow() {
		err = a.fetchTomorrow(ctx)
		if err != nil {
			return err
		}
	}
	return a.recompute(ctx, TriggerNewPrice)
}

func (a *Area) ensureToday(ctx context.Context) error {
	today := localDate(a.now(), a.loc)
	if a.today.Valid() && a.todayDate.Equal(today) {
		return nil
	}

	series, err := a.fetch(ctx, today, func() time.Time { return localDate(a.now(), a.loc) })
	if err != nil {
		return err
	}
	a.today = series
	a.todayDate = today
	return nil
}

func (a *Area) fetchTomorrow(ctx context.Context) error {
	pending := func() time.Time { return localDate(a.now(), a.loc).AddDate(0, 0, 1) }
	day := pending()
	series, err := a.fetch(ctx, day, pending)
	if err != nil {
		return err
	}
	a.tomorrow = series
	a.tomorrowDate = day
	logrus.WithFields(logrus.Fields{
		"area": a.name,
		"date": day.Format("2006-01-02"),
	}).Info("driver: tomorrow prices received")
	return nil
}

// hasTomorrow reports whether tomorrow is valid and follows the current today.
func (a *Area) hasTomorrow() bool {
	return a.tomorrow.Valid() && a.tomorrowDate.Equal(a.todayDate.AddDate(0, 0, 1))
}

// fetch fetches day and verifies that day is still the pending day once the result arrives.
func (a *Area) fetch(ctx context.Context, day time.Time, pending func() time.Time) (price.Series, error) {
	series, err := a.fetcher.FetchArea(ctx, a.name, day.Add(12*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("error fetching %s for %s: %w", day.Format("2006-01-02"), a.name, err)
	}

	if p := pending(); !p.Equal(day) {
		logrus.WithFields(logrus.Fields{
			"area":    a.name,
			"date":    day.Format("2006-01-02"),
			"pending": p.Format("2006-01-02"),
		}).Warn("driver: discarding stale result")
		return nil, price.ErrStaleResult
	}

	if series == nil {
		return nil, fmt.Errorf("%s for %s: %w", day.Format("2006-01-02"), a.name, ErrNotPublished)
	}
	if !series.Valid() {
		return nil, fmt.Errorf("%s for %s has %d valid periods: %w", day.Format("2006-01-02"), a.name, series.ValidCount(), ErrIncompleteDay)
	}
	return series.Sorted(), nil
}

func (a *Area) recompute(ctx context.Context, trigger Trigger) error {
	now := a.now()

	today, err := a.analyzer.PrepareDay(a.today)
	if err != nil {
		return fmt.Errorf("error preparing today for %s: %w", a.name, err)
	}

	var tomorrow *analyzer.Day
	tomorrowValid := a.hasTomorrow()
	if tomorrowValid {
		tomorrow, err = a.analyzer.PrepareDay(a.tomorrow)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"area": a.name,
			}).Warnf("driver: ignoring tomorrow: %s", err)
			tomorrow = nil
			tomorrowValid = false
		}
	}

	var tomorrowPrices []analyzer.Price
	if tomorrow != nil {
		tomorrowPrices = tomorrow.Prices
	}
	future := analyzer.FutureSorted(today.Prices, tomorrowPrices, now)

	snap := &Snapshot{
		ID:            uuid.New(),
		Area:          a.name,
		Currency:      a.currency,
		Computed:      now,
		Trigger:       trigger,
		TodayStats:    &today.Stats,
		TomorrowValid: tomorrowValid,
		today:         today,
		tomorrow:      tomorrow,
	}
	snap.Today = a.analyzer.Classify(analyzer.ClassifyInput{
		Day:           today,
		Next:          tomorrow,
		TomorrowValid: tomorrowValid,
		Future:        future,
		Now:           now,
	})
	if tomorrow != nil {
		snap.TomorrowStats = &tomorrow.Stats
		snap.Tomorrow = a.analyzer.Classify(analyzer.ClassifyInput{
			Day:           tomorrow,
			IsTomorrow:    true,
			TomorrowValid: tomorrowValid,
			Future:        future,
			Now:           now,
		})
	}
	snap.Current = snap.Period(now)

	a.Lock()
	a.snapshot = snap
	a.Unlock()

	logrus.WithFields(logrus.Fields{
		"area":    a.name,
		"trigger": trigger,
		"id":      snap.ID,
	}).Debug("driver: recomputed")

	if err := a.notifier.Notify(ctx, snap); err != nil {
		logrus.WithFields(logrus.Fields{
			"area": a.name,
		}).Errorf("driver: notify failed: %s", err)
	}
	return nil
}

// Snapshot returns the last successful recomputation or nil.
func (a *Area) Snapshot() *Snapshot {
	a.RLock()
	defer a.RUnlock()
	return a.snapshot
}

// Current returns the classified period containing now from the last snapshot.
func (a *Area) Current() *analyzer.ClassifiedPeriod {
	s := a.Snapshot()
	if s == nil {
		return nil
	}
	return s.Period(a.now())
}

func (a *Area) Today() []analyzer.ClassifiedPeriod {
	s := a.Snapshot()
	if s == nil {
		return nil
	}
	return s.Today
}

func (a *Area) Tomorrow() []analyzer.ClassifiedPeriod {
	s := a.Snapshot()
	if s == nil {
		return nil
	}
	return s.Tomorrow
}

func (a *Area) Cheapest(n int, tomorrow bool) []analyzer.Price {
	s := a.Snapshot()
	if s == nil {
		return nil
	}
	return s.Cheapest(n, tomorrow)
}

func localDate(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}
