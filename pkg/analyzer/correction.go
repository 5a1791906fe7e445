package analyzer

import "math"

type Reason string

const (
	ReasonBelowThreshold   Reason = "max-price below threshold"
	ReasonSmallDifference  Reason = "small price difference"
	ReasonDroppingTomorrow Reason = "price dropping tomorrow"
	ReasonIsMax            Reason = "is max"
	ReasonFallingALot      Reason = "falling a lot next hour"
	ReasonGaining          Reason = "gaining, not in five most expensive"
	ReasonFallingNotLow    Reason = "falling and not low price"
	ReasonNoNeed           Reason = "no need to correct"
	ReasonFallthrough      Reason = "no need to correct (fallthrough)"
)

const (
	prettyCheap       = 0.05
	droppingTomorrow  = 0.80
	fallingALotFactor = 0.60
)

// DayContext is the day level input of Decide.
type DayContext struct {
	SpreadRatio         float64
	IsSmallSpread       bool
	PercentDifference   float64
	ActivationThreshold float64
	MaxPrice            float64
	IsTomorrow          bool
}

// Decide maps a classified period to a correction. The rules are evaluated in order and the first match wins.
func Decide(p ClassifiedPeriod, dc DayContext) (int, Reason) {
	if dc.MaxPrice < dc.ActivationThreshold {
		return 0, ReasonBelowThreshold
	}
	if dc.IsSmallSpread {
		return 0, ReasonSmallDifference
	}

	now := math.Max(p.Value, minPrice)
	next := now
	if p.PriceNextHour != nil {
		next = math.Max(*p.PriceNextHour, minPrice)
	}
	cheap := now < prettyCheap

	switch {
	case !dc.IsTomorrow && p.LastOfDay && p.PriceNextHour != nil && next/now < droppingTomorrow && !cheap:
		return -1, ReasonDroppingTomorrow
	case p.IsMax:
		return -1, ReasonIsMax
	case p.IsFallingALotNextHour && !cheap:
		return -1, ReasonFallingALot
	case p.IsGaining && now < next && !p.IsFiveMostExpensive:
		return 1, ReasonGaining
	case p.IsFalling && !p.IsLowPrice:
		return -1, ReasonFallingNotLow
	case p.IsLowPrice && (!p.IsGaining || p.IsFalling):
		return 0, ReasonNoNeed
	}
	return 0, ReasonFallthrough
}
