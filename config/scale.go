package config

import (
	"go.viam.com/utils"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/scales"
	"go.viam.com/daqmx/status"
)

// LinearScaleConfig describes a linear custom scale, y = slope*x + intercept.
type LinearScaleConfig struct {
	Name           string  `json:"name"`
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept,omitempty"`
	PreScaledUnits string  `json:"pre_scaled_units,omitempty"`
	ScaledUnits    string  `json:"scaled_units,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *LinearScaleConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := status.ValidateName("name", config.Name); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if err := status.ValidateName("scaled_units", config.ScaledUnits); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := config.preScaled(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

func (config *LinearScaleConfig) preScaled() (scales.PreScaledUnits, error) {
	if config.PreScaledUnits == "" {
		return scales.Volts, nil
	}
	return scales.PreScaledUnitsFromString(config.PreScaledUnits)
}

// Create registers the scale with the driver.
func (config *LinearScaleConfig) Create(drv driver.Driver, logger logging.Logger) (*scales.LinearScale, error) {
	units, err := config.preScaled()
	if err != nil {
		return nil, err
	}
	return scales.NewLinear(drv, config.Name, config.Slope, config.Intercept, units, config.ScaledUnits, logger)
}
