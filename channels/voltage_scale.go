package channels

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/scales"
	"go.viam.com/daqmx/status"
)

// ScaleKind says which units a voltage channel reports in.
type ScaleKind int

// Scale kinds.
const (
	ScaleVolts ScaleKind = iota
	ScaleCustom
	ScaleFromTEDS
)

// A VoltageScale selects the units of a voltage channel. A custom scale read back from a channel
// starts without a name; Resolved reports whether the name has been fetched.
type VoltageScale struct {
	kind ScaleKind
	name string
}

var (
	// VoltsScale reports plain volts.
	VoltsScale = VoltageScale{kind: ScaleVolts}
	// FromTEDSScale uses the scaling stored in the sensor's TEDS.
	FromTEDSScale = VoltageScale{kind: ScaleFromTEDS}
)

// CustomScale selects the custom scale registered under name.
func CustomScale(name string) VoltageScale {
	return VoltageScale{kind: ScaleCustom, name: name}
}

// FromScale selects a registered linear scale.
func FromScale(s *scales.LinearScale) VoltageScale {
	return CustomScale(s.Name())
}

// VoltageScaleFromCode decodes a unit code read from the driver. A custom scale comes back
// unresolved.
func VoltageScaleFromCode(code int32) (VoltageScale, error) {
	switch code {
	case driver.ValVolts:
		return VoltsScale, nil
	case driver.ValFromCustomScale:
		return VoltageScale{kind: ScaleCustom}, nil
	case driver.ValFromTEDS:
		return FromTEDSScale, nil
	}
	return VoltageScale{}, status.NewUnexpectedValueError("VoltageScale", code)
}

// Kind returns which units the scale selects.
func (s VoltageScale) Kind() ScaleKind {
	return s.kind
}

// Name returns the custom scale name, and false if the scale is not custom or not yet resolved.
func (s VoltageScale) Name() (string, bool) {
	return s.name, s.kind == ScaleCustom && s.name != ""
}

// Resolved reports whether nothing is left to fetch about the scale.
func (s VoltageScale) Resolved() bool {
	return s.kind != ScaleCustom || s.name != ""
}

// withName returns a copy of the custom scale s naming name.
func (s VoltageScale) withName(name string) VoltageScale {
	s.name = name
	return s
}

// units returns the driver unit code and custom scale name for the scale.
func (s VoltageScale) units() (int32, string, error) {
	switch s.kind {
	case ScaleVolts:
		return driver.ValVolts, "", nil
	case ScaleFromTEDS:
		return driver.ValFromTEDS, "", nil
	case ScaleCustom:
		if s.name == "" {
			return 0, "", errors.New("custom scale has no name")
		}
		return driver.ValFromCustomScale, s.name, nil
	}
	return 0, "", errors.Errorf("unknown scale kind %d", s.kind)
}

func (s VoltageScale) String() string {
	switch s.kind {
	case ScaleVolts:
		return "volts"
	case ScaleFromTEDS:
		return "from_teds"
	case ScaleCustom:
		if s.name == "" {
			return "custom(?)"
		}
		return fmt.Sprintf("custom(%s)", s.name)
	}
	return "unknown"
}
