package analyzer

import (
	"fmt"
	"math"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/sirupsen/logrus"
)

// Price is a converted price for one period.
type Price struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

// Day is one local day of converted prices in chronological order with its statistics.
// Periods whose raw value could not be converted are left out.
type Day struct {
	Prices []Price
	Stats  DayStatistics
	Valid  bool
}

type ClassifiedPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`

	PriceNextHour *float64 `json:"price_next_hour"`
	PriceIn2Hours *float64 `json:"price_in_2_hours"`

	IsMax                   bool `json:"is_max"`
	IsMin                   bool `json:"is_min"`
	IsLowPrice              bool `json:"is_low_price"`
	IsOverAverage           bool `json:"is_over_average"`
	IsOverPeak              bool `json:"is_over_peak"`
	IsGaining               bool `json:"is_gaining"`
	IsFalling               bool `json:"is_falling"`
	IsFallingALotNextHour   bool `json:"is_falling_a_lot_next_hour"`
	IsFiveCheapest          bool `json:"is_five_cheapest"`
	IsTenCheapest           bool `json:"is_ten_cheapest"`
	IsFiveMostExpensive     bool `json:"is_five_most_expensive"`
	IsCheapComparedToFuture bool `json:"is_cheap_compared_to_future"`
	IsLowComparedToTomorrow bool `json:"is_low_compared_to_tomorrow"`

	PricePercentToAverage float64 `json:"price_percent_to_average"`
	IsTomorrow            bool    `json:"is_tomorrow"`
	LastOfDay             bool    `json:"last_of_day"`

	Correction         int      `json:"original_correction"`
	AdjustedCorrection float64  `json:"correction"`
	Reason             Reason   `json:"reason"`
	HotWater           HotWater `json:"hot_water"`
}

// Contains reports if t is inside [Start, End).
func (c ClassifiedPeriod) Contains(t time.Time) bool {
	return !t.Before(c.Start) && t.Before(c.End)
}

type Options struct {
	LowPriceCutoff    float64
	HoursToBoost      int
	HoursToSave       int
	PercentDifference float64

	// PriceBeforeActive is the activation threshold. Days with a max price below it are never corrected.
	PriceBeforeActive float64

	Multiplier Multiplier
	HotWater   HotWaterTable
}

func DefaultOptions() Options {
	return Options{
		LowPriceCutoff:    1.0,
		HoursToBoost:      2,
		HoursToSave:       2,
		PercentDifference: 20,
		Multiplier:        Factor(1),
		HotWater:          DefaultHotWaterTable(),
	}
}

type Analyzer struct {
	converter *Converter
	opts      Options
}

func New(converter *Converter, opts Options) *Analyzer {
	if opts.HoursToBoost < 1 {
		opts.HoursToBoost = 2
	}
	if opts.HoursToSave < 1 {
		opts.HoursToSave = 2
	}
	if opts.LowPriceCutoff == 0 {
		opts.LowPriceCutoff = 1.0
	}
	if opts.Multiplier == nil {
		opts.Multiplier = Factor(1)
	}
	if opts.HotWater == (HotWaterTable{}) {
		opts.HotWater = DefaultHotWaterTable()
	}
	return &Analyzer{
		converter: converter,
		opts:      opts,
	}
}

func (a *Analyzer) Options() Options {
	return a.opts
}

func (a *Analyzer) Converter() *Converter {
	return a.converter
}

// PrepareDay sorts and converts a local day series and computes its statistics.
func (a *Analyzer) PrepareDay(series price.Series) (*Day, error) {
	sorted := series.Sorted()
	day := &Day{
		Prices: make([]Price, 0, len(sorted)),
		Valid:  sorted.Valid(),
	}
	values := make([]float64, 0, len(sorted))
	for _, s := range sorted {
		if s.ZeroLength() {
			continue
		}
		v, ok := a.converter.Convert(s.Value, s.Start)
		if !ok {
			logrus.Debugf("analyzer: excluding period %s with invalid value", s.Start)
			continue
		}
		day.Prices = append(day.Prices, Price{Start: s.Start, End: s.End, Value: v})
		values = append(values, v)
	}

	var err error
	day.Stats, err = ComputeStatistics(values, sorted.PeriodsPerHour(), a.opts.PercentDifference)
	if err != nil {
		return nil, fmt.Errorf("error computing statistics: %w", err)
	}
	return day, nil
}

type ClassifyInput struct {
	Day *Day

	// Next is the following day used for lookahead past the last period of Day.
	// Leave it nil when the following day is not valid.
	Next *Day

	IsTomorrow    bool
	TomorrowValid bool

	// Future is the output of FutureSorted.
	Future []Price
	Now    time.Time
}

// Classify annotates every period of the day. The output is chronological and
// only depends on the input so classifying the same input twice gives the same result.
func (a *Analyzer) Classify(in ClassifyInput) []ClassifiedPeriod {
	if in.Day == nil || len(in.Day.Prices) == 0 {
		return nil
	}
	prices := in.Day.Prices
	st := in.Day.Stats

	five := topK(sortedByValue(prices, false), 5)
	ten := topK(sortedByValue(prices, false), 10)
	expensive := topK(sortedByValue(prices, true), 5)
	future := topK(in.Future, 5)

	at := func(i int) (float64, bool) {
		if i < len(prices) {
			return prices[i].Value, true
		}
		if in.Next != nil && i-len(prices) < len(in.Next.Prices) {
			return in.Next.Prices[i-len(prices)].Value, true
		}
		return 0, false
	}

	dc := DayContext{
		SpreadRatio:         st.SpreadRatio,
		IsSmallSpread:       st.IsSmallSpread,
		PercentDifference:   a.opts.PercentDifference,
		ActivationThreshold: a.opts.PriceBeforeActive,
		MaxPrice:            st.Max,
		IsTomorrow:          in.IsTomorrow,
	}

	result := make([]ClassifiedPeriod, 0, len(prices))
	for i, p := range prices {
		c := ClassifiedPeriod{
			Start:         p.Start,
			End:           p.End,
			Value:         p.Value,
			IsMax:         p.Value == st.Max,
			IsMin:         p.Value == st.Min,
			IsLowPrice:    p.Value < st.Average*a.opts.LowPriceCutoff,
			IsOverAverage: p.Value > st.Average,
			IsOverPeak:    p.Value > st.Peak,
			IsTomorrow:    in.IsTomorrow,
			LastOfDay:     i == len(prices)-1,
		}
		if v, ok := at(i + 1); ok {
			c.PriceNextHour = &v
		}
		if v, ok := at(i + 2); ok {
			c.PriceIn2Hours = &v
		}
		if st.Average != 0 {
			c.PricePercentToAverage = math.Round(p.Value/st.Average*1000) / 1000
		}

		if !st.Degenerate {
			c.IsGaining = a.lookahead(p.Value, i, a.opts.HoursToBoost, at, func(ratio float64) bool {
				return ratio < 1-st.PercentThreshold
			})
			c.IsFalling = a.lookahead(p.Value, i, a.opts.HoursToSave, at, func(ratio float64) bool {
				return ratio > 1+st.PercentThreshold
			})
		}
		c.IsFallingALotNextHour = c.PriceNextHour != nil && *c.PriceNextHour/math.Max(p.Value, minPrice) < fallingALotFactor

		c.IsFiveCheapest = five.has(p.Start)
		c.IsTenCheapest = ten.has(p.Start)
		c.IsFiveMostExpensive = expensive.has(p.Start)

		inFuture := future.has(p.Start)
		c.IsCheapComparedToFuture = !in.IsTomorrow && in.TomorrowValid && inFuture
		c.IsLowComparedToTomorrow = in.TomorrowValid && inFuture && sameDate(p.Start, in.Now)

		c.Correction, c.Reason = Decide(c, dc)
		c.AdjustedCorrection = a.opts.Multiplier.Adjust(c.Correction, c)
		c.HotWater = a.opts.HotWater.Select(c, st)

		result = append(result, c)
	}
	return result
}

// lookahead reports if cmp holds for the ratio between now and any of the n following periods.
// Periods that are not known yet are skipped.
func (a *Analyzer) lookahead(now float64, i, n int, at func(int) (float64, bool), cmp func(float64) bool) bool {
	for y := 1; y <= n; y++ {
		next, ok := at(i + y)
		if !ok {
			continue
		}
		if cmp(now / math.Max(next, minPrice)) {
			return true
		}
	}
	return false
}

func sameDate(t, now time.Time) bool {
	n := now.In(t.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := n.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
