package driver

import (
	"time"

	"github.com/google/uuid"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/price"
)

type Trigger string

const (
	TriggerNewHour  Trigger = "new_hour"
	TriggerNewDay   Trigger = "new_day"
	TriggerNewPrice Trigger = "new_price"
)

// Snapshot is the result of one recomputation. It is never modified after it has been published.
type Snapshot struct {
	ID       uuid.UUID      `json:"id"`
	Area     string         `json:"area"`
	Currency price.Currency `json:"currency"`
	Computed time.Time      `json:"computed"`
	Trigger  Trigger        `json:"trigger"`

	Current       *analyzer.ClassifiedPeriod  `json:"current"`
	Today         []analyzer.ClassifiedPeriod `json:"today"`
	Tomorrow      []analyzer.ClassifiedPeriod `json:"tomorrow"`
	TodayStats    *analyzer.DayStatistics     `json:"today_stats"`
	TomorrowStats *analyzer.DayStatistics     `json:"tomorrow_stats,omitempty"`
	TomorrowValid bool                        `json:"tomorrow_valid"`

	today    *analyzer.Day
	tomorrow *analyzer.Day
}

// Cheapest returns the n cheapest periods of today or tomorrow.
func (s *Snapshot) Cheapest(n int, tomorrow bool) []analyzer.Price {
	day := s.today
	if tomorrow {
		day = s.tomorrow
	}
	if day == nil {
		return nil
	}
	return analyzer.Cheapest(day.Prices, n)
}

// Period returns the classified period containing t.
func (s *Snapshot) Period(t time.Time) *analyzer.ClassifiedPeriod {
	for _, list := range [][]analyzer.ClassifiedPeriod{s.Today, s.Tomorrow} {
		for i := range list {
			if list[i].Contains(t) {
				p := list[i]
				return &p
			}
		}
	}
	return nil
}
