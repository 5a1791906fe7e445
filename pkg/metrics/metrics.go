package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	price          *prometheus.GaugeVec
	correction     *prometheus.GaugeVec
	hotWater       *prometheus.GaugeVec
	stats          *prometheus.GaugeVec
	tomorrowValid  *prometheus.GaugeVec
	recomputations *prometheus.CounterVec
	failures       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceanalyzer_price",
			Help: "Converted price of the current period.",
		}, []string{"area"}),
		correction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceanalyzer_correction",
			Help: "Adjusted price correction of the current period.",
		}, []string{"area"}),
		hotWater: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceanalyzer_hot_water_setpoint",
			Help: "Hot water temperature setpoint of the current period.",
		}, []string{"area"}),
		stats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceanalyzer_day_statistic",
			Help: "Statistics of today's prices.",
		}, []string{"area", "stat"}),
		tomorrowValid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceanalyzer_tomorrow_valid",
			Help: "1 when tomorrow's prices are known.",
		}, []string{"area"}),
		recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceanalyzer_recomputations_total",
			Help: "Total recomputations by trigger.",
		}, []string{"area", "trigger"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceanalyzer_failures_total",
			Help: "Total failed updates by reason.",
		}, []string{"area", "reason"}),
	}

	m.registry.MustRegister(
		m.price,
		m.correction,
		m.hotWater,
		m.stats,
		m.tomorrowValid,
		m.recomputations,
		m.failures,
	)
	return m
}

func (m *Metrics) Notify(ctx context.Context, s *driver.Snapshot) error {
	m.recomputations.WithLabelValues(s.Area, string(s.Trigger)).Inc()
	m.tomorrowValid.WithLabelValues(s.Area).Set(boolToFloat(s.TomorrowValid))

	if st := s.TodayStats; st != nil {
		m.stats.WithLabelValues(s.Area, "average").Set(st.Average)
		m.stats.WithLabelValues(s.Area, "min").Set(st.Min)
		m.stats.WithLabelValues(s.Area, "max").Set(st.Max)
		m.stats.WithLabelValues(s.Area, "peak").Set(st.Peak)
		m.stats.WithLabelValues(s.Area, "off_peak_1").Set(st.OffPeak1)
		m.stats.WithLabelValues(s.Area, "off_peak_2").Set(st.OffPeak2)
		m.stats.WithLabelValues(s.Area, "spread_ratio").Set(st.SpreadRatio)
	}

	if c := s.Current; c != nil {
		m.price.WithLabelValues(s.Area).Set(c.Value)
		m.correction.WithLabelValues(s.Area).Set(c.AdjustedCorrection)
		m.hotWater.WithLabelValues(s.Area).Set(c.HotWater.Setpoint)
	}
	return nil
}

// Failed counts a failed update of area.
func (m *Metrics) Failed(area string, err error) {
	m.failures.WithLabelValues(area, Reason(err)).Inc()
}

// Reason classifies an update error into a metric label.
func Reason(err error) string {
	switch {
	case errors.Is(err, price.ErrInvalidPeriodData):
		return "invalid_data"
	case errors.Is(err, price.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, price.ErrStaleResult):
		return "stale"
	case errors.Is(err, driver.ErrNotPublished):
		return "not_published"
	case errors.Is(err, driver.ErrIncompleteDay):
		return "incomplete"
	case errors.Is(err, price.ErrEmptySeries):
		return "empty"
	}
	return "fetch"
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
