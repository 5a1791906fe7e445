package analyzer

import (
	"fmt"
	"strings"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitMWh Unit = "MWh"
	UnitKWh Unit = "kWh"
	UnitWh  Unit = "Wh"
)

// ParseUnit is case insensitive.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "mwh":
		return UnitMWh, nil
	case "kwh", "":
		return UnitKWh, nil
	case "wh":
		return UnitWh, nil
	}
	return "", fmt.Errorf("unknown price unit %q", s)
}

// Divisor converts a provider price per MWh into a price per unit.
func (u Unit) Divisor() float64 {
	switch u {
	case UnitMWh:
		return 1
	case UnitWh:
		return 1000 * 1000
	default:
		return 1000
	}
}

// AdditionalCost returns the extra cost on top of a price at the given instant,
// for example grid fees that depend on the time of day.
type AdditionalCost interface {
	Cost(price float64, at time.Time) float64
}

type AdditionalCostFunc func(price float64, at time.Time) float64

func (f AdditionalCostFunc) Cost(price float64, at time.Time) float64 {
	return f(price, at)
}

var NoAdditionalCost = AdditionalCostFunc(func(float64, time.Time) float64 { return 0 })

type FixedCost float64

func (f FixedCost) Cost(float64, time.Time) float64 {
	return float64(f)
}

// DayTariffCost charges Day between DayStart and DayEnd local hour and Night otherwise.
type DayTariffCost struct {
	Day      float64
	Night    float64
	DayStart int
	DayEnd   int
}

func (d DayTariffCost) Cost(_ float64, at time.Time) float64 {
	h := at.Hour()
	if h >= d.DayStart && h < d.DayEnd {
		return d.Day
	}
	return d.Night
}

// CombinedCost sums several costs.
type CombinedCost []AdditionalCost

func (c CombinedCost) Cost(p float64, at time.Time) float64 {
	sum := 0.0
	for _, cost := range c {
		sum += cost.Cost(p, at)
	}
	return sum
}

// Converter turns raw provider prices into the final display price.
type Converter struct {
	Unit           Unit
	VAT            float64
	Cents          bool
	Precision      int32
	AdditionalCost AdditionalCost
}

func NewConverter(unit Unit, vat float64, cents bool, precision int32, cost AdditionalCost) *Converter {
	if cost == nil {
		cost = NoAdditionalCost
	}
	return &Converter{
		Unit:           unit,
		VAT:            vat,
		Cents:          cents,
		Precision:      precision,
		AdditionalCost: cost,
	}
}

// Convert returns false for the invalid sentinel. at must be the start of the period
// so time dependent costs are evaluated for the right period.
func (c *Converter) Convert(raw float64, at time.Time) (float64, bool) {
	if (price.Sample{Value: raw}).Invalid() {
		return 0, false
	}

	p := raw / c.Unit.Divisor() * (1 + c.VAT)

	cost := 0.0
	if c.AdditionalCost != nil {
		cost = c.AdditionalCost.Cost(p, at)
	}
	if p < 0 && cost < 0 {
		cost = -cost
	}
	p += cost

	if c.Cents {
		p *= 100
	}

	v, _ := decimal.NewFromFloat(p).Round(c.Precision).Float64()
	return v, true
}

// Multiplier scales a correction into the value the actuator consumes.
type Multiplier interface {
	Adjust(correction int, p ClassifiedPeriod) float64
}

type Factor float64

func (f Factor) Adjust(correction int, _ ClassifiedPeriod) float64 {
	return float64(f) * float64(correction)
}
