package state

import (
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
)

// State is the current price state of one area as exposed to actuators.
type State struct {
	Area     string `json:"area"`
	Currency string `json:"currency,omitempty"`

	Price         *float64 `json:"price,omitempty"`
	PriceNextHour *float64 `json:"priceNextHour,omitempty"`
	Average       *float64 `json:"average,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Peak          *float64 `json:"peak,omitempty"`
	OffPeak1      *float64 `json:"offPeak1,omitempty"`
	OffPeak2      *float64 `json:"offPeak2,omitempty"`

	Correction         *float64 `json:"correction,omitempty"`
	OriginalCorrection *int     `json:"originalCorrection,omitempty"`
	Reason             *string  `json:"reason,omitempty"`

	HotWaterTemperature *float64 `json:"hotWaterTemperature,omitempty"`
	HotWaterReason      *string  `json:"hotWaterReason,omitempty"`
	HotWater            *bool    `json:"hotWater,omitempty"`

	LowPrice          *bool `json:"lowPrice,omitempty"`
	SmallSpread       *bool `json:"smallSpread,omitempty"`
	FiveCheapest      *bool `json:"fiveCheapest,omitempty"`
	FiveMostExpensive *bool `json:"fiveMostExpensive,omitempty"`
	TomorrowValid     *bool `json:"tomorrowValid,omitempty"`
}

// FromSnapshot builds the state of the current period. Fields stay nil when unknown.
func FromSnapshot(s *driver.Snapshot) State {
	st := State{
		Area:          s.Area,
		Currency:      string(s.Currency),
		TomorrowValid: pointer(s.TomorrowValid),
	}
	if s.TodayStats != nil {
		st.Average = pointer(s.TodayStats.Average)
		st.Min = pointer(s.TodayStats.Min)
		st.Max = pointer(s.TodayStats.Max)
		st.Peak = pointer(s.TodayStats.Peak)
		st.OffPeak1 = pointer(s.TodayStats.OffPeak1)
		st.OffPeak2 = pointer(s.TodayStats.OffPeak2)
		st.SmallSpread = pointer(s.TodayStats.IsSmallSpread)
	}
	if s.Current != nil {
		setPeriod(&st, s.Current)
	}
	return st
}

func setPeriod(st *State, p *analyzer.ClassifiedPeriod) {
	st.Price = pointer(p.Value)
	st.PriceNextHour = p.PriceNextHour
	st.Correction = pointer(p.AdjustedCorrection)
	st.OriginalCorrection = pointer(p.Correction)
	st.Reason = pointer(string(p.Reason))
	st.HotWaterTemperature = pointer(p.HotWater.Setpoint)
	st.HotWaterReason = pointer(p.HotWater.Reason)
	st.HotWater = pointer(p.HotWater.On)
	st.LowPrice = pointer(p.IsLowPrice)
	st.FiveCheapest = pointer(p.IsFiveCheapest)
	st.FiveMostExpensive = pointer(p.IsFiveMostExpensive)
}

func (s State) Map() map[string]interface{} {
	m := make(map[string]interface{})
	if s.Price != nil {
		m["price"] = *s.Price
	}
	if s.PriceNextHour != nil {
		m["priceNextHour"] = *s.PriceNextHour
	}
	if s.Average != nil {
		m["average"] = *s.Average
	}
	if s.Min != nil {
		m["min"] = *s.Min
	}
	if s.Max != nil {
		m["max"] = *s.Max
	}
	if s.Peak != nil {
		m["peak"] = *s.Peak
	}
	if s.OffPeak1 != nil {
		m["offPeak1"] = *s.OffPeak1
	}
	if s.OffPeak2 != nil {
		m["offPeak2"] = *s.OffPeak2
	}
	if s.Correction != nil {
		m["correction"] = *s.Correction
	}
	if s.OriginalCorrection != nil {
		m["originalCorrection"] = *s.OriginalCorrection
	}
	if s.Reason != nil {
		m["reason"] = *s.Reason
	}
	if s.HotWaterTemperature != nil {
		m["hotWaterTemperature"] = *s.HotWaterTemperature
	}
	if s.HotWaterReason != nil {
		m["hotWaterReason"] = *s.HotWaterReason
	}
	if s.HotWater != nil {
		m["hotWater"] = boolToInt(*s.HotWater)
	}
	if s.LowPrice != nil {
		m["lowPrice"] = boolToInt(*s.LowPrice)
	}
	if s.SmallSpread != nil {
		m["smallSpread"] = boolToInt(*s.SmallSpread)
	}
	if s.FiveCheapest != nil {
		m["fiveCheapest"] = boolToInt(*s.FiveCheapest)
	}
	if s.FiveMostExpensive != nil {
		m["fiveMostExpensive"] = boolToInt(*s.FiveMostExpensive)
	}
	if s.TomorrowValid != nil {
		m["tomorrowValid"] = boolToInt(*s.TomorrowValid)
	}

	return m
}

func pointer[K any](val K) *K {
	return &val
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
