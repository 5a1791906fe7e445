package config

import (
	"fmt"
	"strings"

	"github.com/nergy-se/priceanalyzer/pkg/api/v1/types"
)

type ControllerConfig struct {
	HeatControlType types.HeatControlType `json:"heatControlType"`
	Address         string                `json:"address"`

	// Area whose hot water setpoint is written to the controller.
	Area string `json:"area"`

	// HotWaterHysteresis is the distance between the start and the stop temperature.
	HotWaterHysteresis float64 `json:"hotWaterHysteresis"`
}

// Controller returns the actuator configuration. The area defaults to the first configured area.
func (c *CliConfig) Controller(areas []string) ControllerConfig {
	area := strings.ToUpper(strings.TrimSpace(c.ControllerArea))
	if area == "" && len(areas) > 0 {
		area = areas[0]
	}
	return ControllerConfig{
		HeatControlType:    types.HeatControlType(strings.ToLower(c.ControllerType)),
		Address:            c.Address,
		Area:               area,
		HotWaterHysteresis: c.HotWaterHysteresis,
	}
}

// Validate checks that the controller can be created for the configured areas.
func (c ControllerConfig) Validate(areas []string) error {
	switch c.HeatControlType {
	case types.HeatControlTypeNone, "":
		return nil
	case types.HeatControlTypeDummy:
	case types.HeatControlTypeThermiaGenesis:
		if c.Address == "" {
			return fmt.Errorf("controller %s needs an address", c.HeatControlType)
		}
	default:
		return fmt.Errorf("unsupported controller type %s", c.HeatControlType)
	}
	for _, a := range areas {
		if a == c.Area {
			return nil
		}
	}
	return fmt.Errorf("controller area %s is not one of the configured areas", c.Area)
}
