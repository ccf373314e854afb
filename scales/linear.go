// Package scales registers custom scales with the driver. A scale is registered once, under a
// name unique on the device, and channels refer to it by that name afterwards.
package scales

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/status"
)

// A LinearScale maps a pre-scaled value x to slope*x + intercept.
type LinearScale struct {
	name        string
	slope       float64
	intercept   float64
	preScaled   PreScaledUnits
	scaledUnits string
}

// NewLinear registers a linear scale named name on drv.
func NewLinear(
	drv driver.Driver,
	name string,
	slope, intercept float64,
	preScaled PreScaledUnits,
	scaledUnits string,
	logger logging.Logger,
) (*LinearScale, error) {
	if err := status.ValidateName("scale name", name); err != nil {
		return nil, err
	}
	if err := status.ValidateName("scaled units", scaledUnits); err != nil {
		return nil, err
	}
	c := status.NewClassifier(drv, logger)
	err := c.Call(func() int32 {
		return drv.CreateLinScale(name, slope, intercept, int32(preScaled), scaledUnits)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create linear scale %q", name)
	}
	logger.Debugw("linear scale created", "scale", name, "slope", slope, "intercept", intercept)
	return &LinearScale{
		name:        name,
		slope:       slope,
		intercept:   intercept,
		preScaled:   preScaled,
		scaledUnits: scaledUnits,
	}, nil
}

// Name is the name channels use to refer to the scale.
func (s *LinearScale) Name() string { return s.name }

// Slope of the scale.
func (s *LinearScale) Slope() float64 { return s.slope }

// Intercept of the scale.
func (s *LinearScale) Intercept() float64 { return s.intercept }

// PreScaledUnits is the unit of the scale's input.
func (s *LinearScale) PreScaledUnits() PreScaledUnits { return s.preScaled }

// ScaledUnits is the label of the scale's output unit.
func (s *LinearScale) ScaledUnits() string { return s.scaledUnits }

// Apply scales one pre-scaled value.
func (s *LinearScale) Apply(x float64) float64 {
	return s.slope*x + s.intercept
}
