package channels

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/status"
)

// TerminalConfig is the input terminal configuration of an analog input channel.
type TerminalConfig int32

// Terminal configurations.
const (
	TerminalDefault            = TerminalConfig(driver.ValCfgDefault)
	TerminalRSE                = TerminalConfig(driver.ValRSE)
	TerminalNRSE               = TerminalConfig(driver.ValNRSE)
	TerminalDifferential       = TerminalConfig(driver.ValDiff)
	TerminalPseudoDifferential = TerminalConfig(driver.ValPseudoDiff)
)

var terminalNames = map[TerminalConfig]string{
	TerminalDefault:            "default",
	TerminalRSE:                "rse",
	TerminalNRSE:               "nrse",
	TerminalDifferential:       "differential",
	TerminalPseudoDifferential: "pseudo_differential",
}

func (c TerminalConfig) String() string {
	if name, ok := terminalNames[c]; ok {
		return name
	}
	return "unknown"
}

// TerminalConfigFromCode decodes a terminal configuration code read from the driver.
func TerminalConfigFromCode(code int32) (TerminalConfig, error) {
	c := TerminalConfig(code)
	if _, ok := terminalNames[c]; !ok {
		return 0, status.NewUnexpectedValueError("TerminalConfig", code)
	}
	return c, nil
}

// TerminalConfigFromString parses the names returned by TerminalConfig.String. The empty string
// is the default configuration.
func TerminalConfigFromString(s string) (TerminalConfig, error) {
	if s == "" {
		return TerminalDefault, nil
	}
	s = strings.ToLower(s)
	for c, name := range terminalNames {
		if name == s {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown terminal configuration %q", s)
}
