package analyzer

// HotWaterTable maps a classified period to a hot water temperature setpoint.
type HotWaterTable struct {
	Default           float64 `yaml:"default" json:"default"`
	FiveMostExpensive float64 `yaml:"five_most_expensive" json:"five_most_expensive"`
	Falling           float64 `yaml:"falling" json:"falling"`
	Minimum           float64 `yaml:"minimum" json:"minimum"`
	FiveCheapest      float64 `yaml:"five_cheapest" json:"five_cheapest"`
	TenCheapest       float64 `yaml:"ten_cheapest" json:"ten_cheapest"`
	LowPrice          float64 `yaml:"low_price" json:"low_price"`
	Neutral           float64 `yaml:"neutral" json:"neutral"`

	PercentDifference   float64 `yaml:"percent_difference" json:"percent_difference"`
	ActivationThreshold float64 `yaml:"price_before_active" json:"price_before_active"`

	// BinaryThreshold is the setpoint above which the binary output is on.
	BinaryThreshold float64 `yaml:"binary_threshold" json:"binary_threshold"`
}

func DefaultHotWaterTable() HotWaterTable {
	return HotWaterTable{
		Default:           75,
		FiveMostExpensive: 40,
		Falling:           50,
		Minimum:           75,
		FiveCheapest:      70,
		TenCheapest:       65,
		LowPrice:          60,
		Neutral:           50,
		PercentDifference: 20,
		BinaryThreshold:   50,
	}
}

type HotWater struct {
	Setpoint float64 `json:"temp"`
	Reason   string  `json:"reason"`
	On       bool    `json:"binary"`
}

// Select picks the setpoint for p. The checks are evaluated in order and the first match wins.
func (t HotWaterTable) Select(p ClassifiedPeriod, st DayStatistics) HotWater {
	temp, reason := t.pick(p, st)
	return HotWater{
		Setpoint: temp,
		Reason:   reason,
		On:       temp > t.BinaryThreshold,
	}
}

func (t HotWaterTable) pick(p ClassifiedPeriod, st DayStatistics) (float64, string) {
	switch {
	case st.SpreadRatio < SpreadLimit(t.PercentDifference) || st.Max < t.ActivationThreshold:
		return t.Default, "small price difference"
	case p.IsLowComparedToTomorrow:
		return t.Minimum, "low compared to tomorrow"
	case p.IsCheapComparedToFuture:
		return t.FiveCheapest, "cheap compared to future"
	case p.IsFiveMostExpensive:
		return t.FiveMostExpensive, "five most expensive"
	case p.IsFiveCheapest:
		return t.FiveCheapest, "five cheapest"
	case p.IsTenCheapest:
		return t.TenCheapest, "ten cheapest"
	case p.Correction < 0:
		return t.Falling, "falling"
	case p.IsLowPrice:
		return t.LowPrice, "low price"
	}
	return t.Neutral, "not cheap, not expensive"
}
