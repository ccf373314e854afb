package scales

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/status"
)

// PreScaledUnits is the unit of the values a custom scale is applied to.
type PreScaledUnits int32

// Units a linear scale can take as input.
const (
	Volts                  = PreScaledUnits(driver.ValVolts)
	Amps                   = PreScaledUnits(driver.ValAmps)
	DegF                   = PreScaledUnits(driver.ValDegF)
	DegC                   = PreScaledUnits(driver.ValDegC)
	DegR                   = PreScaledUnits(driver.ValDegR)
	Kelvins                = PreScaledUnits(driver.ValKelvins)
	Strain                 = PreScaledUnits(driver.ValStrain)
	Ohms                   = PreScaledUnits(driver.ValOhms)
	Hz                     = PreScaledUnits(driver.ValHz)
	Seconds                = PreScaledUnits(driver.ValSeconds)
	Meters                 = PreScaledUnits(driver.ValMeters)
	Inches                 = PreScaledUnits(driver.ValInches)
	Degrees                = PreScaledUnits(driver.ValDegrees)
	Radians                = PreScaledUnits(driver.ValRadians)
	G                      = PreScaledUnits(driver.ValG)
	MetersPerSecondSquared = PreScaledUnits(driver.ValMetersPerSecondSquared)
	Newtons                = PreScaledUnits(driver.ValNewtons)
	Pounds                 = PreScaledUnits(driver.ValPounds)
	PoundsPerSquareInch    = PreScaledUnits(driver.ValPoundsPerSquareInch)
	Bar                    = PreScaledUnits(driver.ValBar)
	Pascals                = PreScaledUnits(driver.ValPascals)
	VoltsPerVolt           = PreScaledUnits(driver.ValVoltsPerVolt)
	MilliVoltsPerVolt      = PreScaledUnits(driver.ValMilliVoltsPerVolt)
	NewtonMeters           = PreScaledUnits(driver.ValNewtonMeters)
	InchOunces             = PreScaledUnits(driver.ValInchOunces)
	InchPounds             = PreScaledUnits(driver.ValInchPounds)
	FootPounds             = PreScaledUnits(driver.ValFootPounds)
	FromTEDS               = PreScaledUnits(driver.ValFromTEDS)
)

var unitNames = map[PreScaledUnits]string{
	Volts:                  "volts",
	Amps:                   "amps",
	DegF:                   "deg_f",
	DegC:                   "deg_c",
	DegR:                   "deg_r",
	Kelvins:                "kelvins",
	Strain:                 "strain",
	Ohms:                   "ohms",
	Hz:                     "hz",
	Seconds:                "seconds",
	Meters:                 "meters",
	Inches:                 "inches",
	Degrees:                "degrees",
	Radians:                "radians",
	G:                      "g",
	MetersPerSecondSquared: "meters_per_second_squared",
	Newtons:                "newtons",
	Pounds:                 "pounds",
	PoundsPerSquareInch:    "pounds_per_square_inch",
	Bar:                    "bar",
	Pascals:                "pascals",
	VoltsPerVolt:           "volts_per_volt",
	MilliVoltsPerVolt:      "millivolts_per_volt",
	NewtonMeters:           "newton_meters",
	InchOunces:             "inch_ounces",
	InchPounds:             "inch_pounds",
	FootPounds:             "foot_pounds",
	FromTEDS:               "from_teds",
}

func (u PreScaledUnits) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return "unknown"
}

// PreScaledUnitsFromCode decodes a unit code read from the driver.
func PreScaledUnitsFromCode(code int32) (PreScaledUnits, error) {
	u := PreScaledUnits(code)
	if _, ok := unitNames[u]; !ok {
		return 0, status.NewUnexpectedValueError("PreScaledUnits", code)
	}
	return u, nil
}

// PreScaledUnitsFromString parses the names returned by PreScaledUnits.String.
func PreScaledUnitsFromString(s string) (PreScaledUnits, error) {
	for u, name := range unitNames {
		if name == s {
			return u, nil
		}
	}
	return 0, errors.Errorf("unknown pre-scaled unit %q", s)
}
