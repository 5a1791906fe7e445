package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/alarm"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/sirupsen/logrus"
)

const (
	AlarmCurrencyMismatch = "currency_mismatch"
	AlarmInvalidData      = "invalid_data"
	AlarmFetch            = "fetch"
)

type Area interface {
	OnNewHour(ctx context.Context) error
	OnNewDay(ctx context.Context) error
	OnNewPricePublished(ctx context.Context) error
}

type FailureRecorder interface {
	Failed(area string, err error)
}

type event struct {
	area    string
	trigger driver.Trigger

	// first failed attempt of a retried event
	first time.Time
}

func (e event) key() string {
	return e.area + "/" + string(e.trigger)
}

// scheduler runs every trigger on a single goroutine so the callbacks of an area never overlap.
type scheduler struct {
	areas    map[string]Area
	alarms   *alarm.ActiveAlarms
	failures FailureRecorder

	retryInterval time.Duration
	retryMax      time.Duration
	now           func() time.Time

	events  chan event
	pending map[string]bool
	mu      sync.Mutex
}

func newScheduler(areas map[string]Area, alarms *alarm.ActiveAlarms, failures FailureRecorder, retryInterval, retryMax time.Duration) *scheduler {
	return &scheduler{
		areas:         areas,
		alarms:        alarms,
		failures:      failures,
		retryInterval: retryInterval,
		retryMax:      retryMax,
		now:           time.Now,
		events:        make(chan event, 64),
		pending:       make(map[string]bool),
	}
}

// trigger queues a trigger for area. It does not block after ctx is done.
func (s *scheduler) trigger(ctx context.Context, e event) {
	select {
	case s.events <- e:
	case <-ctx.Done():
	}
}

func (s *scheduler) run(ctx context.Context) {
	for {
		select {
		case e := <-s.events:
			s.handle(ctx, e)
		case <-ctx.Done():
			return
		}
	}
}

func (s *scheduler) handle(ctx context.Context, e event) {
	a, ok := s.areas[e.area]
	if !ok {
		logrus.Errorf("app: unknown area %s", e.area)
		return
	}

	var err error
	switch e.trigger {
	case driver.TriggerNewHour:
		err = a.OnNewHour(ctx)
	case driver.TriggerNewDay:
		err = a.OnNewDay(ctx)
	case driver.TriggerNewPrice:
		err = a.OnNewPricePublished(ctx)
	}

	if err == nil {
		for _, kind := range []string{AlarmCurrencyMismatch, AlarmInvalidData, AlarmFetch} {
			if s.alarms.Clear(e.area, kind) {
				logrus.WithFields(logrus.Fields{"area": e.area, "kind": kind}).Info("app: alarm cleared")
			}
		}
		return
	}

	logger := logrus.WithFields(logrus.Fields{
		"area":    e.area,
		"trigger": e.trigger,
	})
	if s.failures != nil {
		s.failures.Failed(e.area, err)
	}

	switch {
	case errors.Is(err, price.ErrStaleResult):
		logger.Infof("app: %s", err)
		return
	case errors.Is(err, price.ErrCurrencyMismatch):
		s.raise(e.area, AlarmCurrencyMismatch, err)
		logger.Errorf("app: not retrying: %s", err)
		return
	case errors.Is(err, price.ErrInvalidPeriodData):
		s.raise(e.area, AlarmInvalidData, err)
	case errors.Is(err, driver.ErrNotPublished):
	default:
		s.raise(e.area, AlarmFetch, err)
	}

	s.retry(ctx, e, err)
}

func (s *scheduler) raise(area, kind string, err error) {
	s.alarms.Add(alarm.Alarm{
		Area:    area,
		Kind:    kind,
		Message: err.Error(),
		Since:   s.now(),
	})
}

// retry queues e again after the retry interval until retryMax has passed since the first failure.
func (s *scheduler) retry(ctx context.Context, e event, err error) {
	now := s.now()
	if e.first.IsZero() {
		e.first = now
	}
	logger := logrus.WithFields(logrus.Fields{
		"area":    e.area,
		"trigger": e.trigger,
	})
	if now.Sub(e.first)+s.retryInterval > s.retryMax {
		logger.Errorf("app: giving up after %s: %s", now.Sub(e.first), err)
		return
	}

	s.mu.Lock()
	if s.pending[e.key()] {
		s.mu.Unlock()
		return
	}
	s.pending[e.key()] = true
	s.mu.Unlock()

	logger.Warnf("app: retrying in %s: %s", s.retryInterval, err)
	time.AfterFunc(s.retryInterval, func() {
		s.mu.Lock()
		delete(s.pending, e.key())
		s.mu.Unlock()
		s.trigger(ctx, e)
	})
}
