package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/price"
)

type CliConfig struct {
	// Areas is a comma separated list of price areas.
	Areas string `default:"SE3"`
	// Currency overrides the currency of the areas.
	Currency string

	PriceUnit string `default:"kWh"`
	VAT       bool   `default:"true"`
	Precision int    `default:"3"`
	Cents     bool

	LowPriceCutoff    float64 `default:"1.0"`
	HoursToBoost      int     `default:"2"`
	HoursToSave       int     `default:"2"`
	PercentDifference float64 `default:"20"`
	PriceBeforeActive float64
	Multiplier        float64 `default:"1"`

	AdditionalCost float64
	DayTariff      float64
	NightTariff    float64
	DayTariffStart int `default:"6"`
	DayTariffEnd   int `default:"22"`

	// HotWater is the hot water temperature table as JSON or YAML. Missing keys use defaults.
	HotWater string

	QuarterHourly bool

	// Tomorrow's prices are expected at this Stockholm time.
	PublishHour   int `default:"13"`
	PublishMinute int `default:"0"`
	PublishSecond int `default:"0"`

	// TomorrowAfterHour is the local hour from which a missing tomorrow is fetched on every new period.
	TomorrowAfterHour int `default:"13"`

	RetryIntervalMinutes int `default:"10"`
	RetryMaxMinutes      int `default:"120"`

	ProviderURL string `default:"https://dataportal-api.nordpoolgroup.com/api"`

	MQTTAddress  string `default:":1883"`
	HTTPAddress  string `default:":8080"`
	DatabasePath string `default:"priceanalyzer.db"`

	ControllerType string `default:"dummy"`
	Address        string
	ControllerArea string

	HotWaterHysteresis float64 `default:"5"`

	LogLevel string `default:"info"`
}

func (c *CliConfig) AreaList() ([]string, error) {
	var areas []string
	for _, a := range strings.Split(c.Areas, ",") {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, ok := price.LookupArea(a); !ok {
			return nil, fmt.Errorf("unsupported area %s", a)
		}
		areas = append(areas, a)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("no areas configured")
	}
	return areas, nil
}

func (c *CliConfig) CurrencyFor(info price.AreaInfo) price.Currency {
	if c.Currency != "" {
		return price.Currency(strings.ToUpper(c.Currency))
	}
	return info.Currency
}

func (c *CliConfig) AdditionalCosts() analyzer.AdditionalCost {
	costs := analyzer.CombinedCost{}
	if c.AdditionalCost != 0 {
		costs = append(costs, analyzer.FixedCost(c.AdditionalCost))
	}
	if c.DayTariff != 0 || c.NightTariff != 0 {
		costs = append(costs, analyzer.DayTariffCost{
			Day:      c.DayTariff,
			Night:    c.NightTariff,
			DayStart: c.DayTariffStart,
			DayEnd:   c.DayTariffEnd,
		})
	}
	if len(costs) == 0 {
		return analyzer.NoAdditionalCost
	}
	return costs
}

func (c *CliConfig) Converter(info price.AreaInfo) (*analyzer.Converter, error) {
	unit, err := analyzer.ParseUnit(c.PriceUnit)
	if err != nil {
		return nil, err
	}
	vat := 0.0
	if c.VAT {
		vat = info.VAT
	}
	return analyzer.NewConverter(unit, vat, c.Cents, int32(c.Precision), c.AdditionalCosts()), nil
}

func (c *CliConfig) AnalyzerOptions() (analyzer.Options, error) {
	table, err := ParseHotWaterTable(c.HotWater)
	if err != nil {
		return analyzer.Options{}, err
	}
	return analyzer.Options{
		LowPriceCutoff:    c.LowPriceCutoff,
		HoursToBoost:      c.periods(c.HoursToBoost),
		HoursToSave:       c.periods(c.HoursToSave),
		PercentDifference: c.PercentDifference,
		PriceBeforeActive: c.PriceBeforeActive,
		Multiplier:        analyzer.Factor(c.Multiplier),
		HotWater:          table,
	}, nil
}

// periods converts hours to periods of the configured resolution.
func (c *CliConfig) periods(hours int) int {
	if c.QuarterHourly {
		return hours * 4
	}
	return hours
}

func (c *CliConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMinutes) * time.Minute
}

func (c *CliConfig) RetryMax() time.Duration {
	return time.Duration(c.RetryMaxMinutes) * time.Minute
}
