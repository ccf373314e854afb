package status

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidName is returned when a string bound for the driver contains a null byte.
	ErrInvalidName = errors.New("string value not valid for DAQmx, probably contains a null byte")

	// ErrStringPropertyRace is returned when a string property changed size between the size
	// probe and the fill. The read is not retried; see channels.RetryOnRace.
	ErrStringPropertyRace = errors.New("string property changed length between size probe and read")
)

// DriverError is a hard failure reported by the driver. Code is the negative status and Message
// the driver's extended error description.
type DriverError struct {
	Code    int32
	Message string
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("DAQmx error %d: %s", e.Code, e.Message)
}

// CorruptTextError means the driver returned text that is not valid UTF-8. The driver only ever
// produces text, so this is an internal consistency failure rather than a user error.
type CorruptTextError struct {
	Raw []byte
}

func (e *CorruptTextError) Error() string {
	return fmt.Sprintf("DAQmx returned text that is not valid UTF-8: %q", e.Raw)
}

// UnexpectedValueError means an integer read from the driver is not a member of the closed
// enumeration it should decode into.
type UnexpectedValueError struct {
	Enum  string
	Value int32
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("unexpected value %d for %s", e.Value, e.Enum)
}

// NewUnexpectedValueError returns an UnexpectedValueError for the named enumeration.
func NewUnexpectedValueError(enum string, value int32) error {
	return &UnexpectedValueError{Enum: enum, Value: value}
}

// Code returns the driver status carried by err, if err wraps a DriverError.
func Code(err error) (int32, bool) {
	var driverErr *DriverError
	if errors.As(err, &driverErr) {
		return driverErr.Code, true
	}
	return 0, false
}

// IsCode reports whether err wraps a DriverError with the given status.
func IsCode(err error, code int32) bool {
	got, ok := Code(err)
	return ok && got == code
}
