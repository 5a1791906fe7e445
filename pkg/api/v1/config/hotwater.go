package config

import (
	"fmt"
	"strings"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"gopkg.in/yaml.v3"
)

// ParseHotWaterTable parses a partial hot water table. JSON is accepted since it is valid YAML.
// The older key names default_temp, is_falling, min_price_for_day and not_cheap_not_expensive are also accepted.
func ParseHotWaterTable(s string) (analyzer.HotWaterTable, error) {
	table := analyzer.DefaultHotWaterTable()
	if strings.TrimSpace(s) == "" {
		return table, nil
	}

	values := map[string]float64{}
	err := yaml.Unmarshal([]byte(s), &values)
	if err != nil {
		return table, fmt.Errorf("error parsing hot water table: %w", err)
	}

	for key, v := range values {
		switch key {
		case "default", "default_temp":
			table.Default = v
		case "five_most_expensive":
			table.FiveMostExpensive = v
		case "falling", "is_falling":
			table.Falling = v
		case "minimum", "min_price_for_day":
			table.Minimum = v
		case "five_cheapest":
			table.FiveCheapest = v
		case "ten_cheapest":
			table.TenCheapest = v
		case "low_price":
			table.LowPrice = v
		case "neutral", "not_cheap_not_expensive":
			table.Neutral = v
		case "percent_difference":
			table.PercentDifference = v
		case "price_before_active":
			table.ActivationThreshold = v
		case "binary_threshold":
			table.BinaryThreshold = v
		default:
			return table, fmt.Errorf("unknown hot water table key %q", key)
		}
	}
	return table, nil
}
