//go:build !(nidaqmx && cgo)

// Package nidaqmx binds driver.Driver to the vendor NI-DAQmx C library. Build with the nidaqmx tag
// on a machine that has the library and headers installed.
package nidaqmx

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
)

// ErrUnsupported is returned by New when the binary was built without the native library.
var ErrUnsupported = errors.New("NI-DAQmx support not compiled in; rebuild with -tags nidaqmx and cgo enabled")

// Driver is unavailable in this build.
type Driver struct {
	driver.Driver
}

// New always fails in this build.
func New() (*Driver, error) {
	return nil, ErrUnsupported
}
