// Package status classifies the int32 status codes returned by every DAQmx entry point.
//
// A status of zero is success, negative statuses are hard errors described by the driver's
// extended error info, and positive statuses are warnings. Warnings are logged and otherwise
// treated as success; the vendor documents them as non-blocking.
//
// DAQmx keeps the extended error info of the last failure per OS thread, so a failing call and the
// lookup of its description must happen on the same thread. Call and ReadString lock the calling
// goroutine to its thread for that span.
package status

import (
	"bytes"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
)

// Kind is the classification of a single status code.
type Kind int

const (
	// KindOK is a zero status.
	KindOK Kind = iota
	// KindError is a negative status.
	KindError
	// KindWarning is a positive status.
	KindWarning
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	}
	return "unknown"
}

// Outcome is a classified status code along with the driver's description of it.
type Outcome struct {
	Kind    Kind
	Code    int32
	Message string
}

const unknownMessage = "no description available from DAQmx"

// A Classifier turns raw statuses from one driver into Go errors.
type Classifier struct {
	drv    driver.Driver
	logger logging.Logger
}

// NewClassifier returns a classifier that fetches error text from drv and logs warnings to logger.
func NewClassifier(drv driver.Driver, logger logging.Logger) *Classifier {
	return &Classifier{drv: drv, logger: logger}
}

// Driver returns the driver this classifier fetches error text from.
func (c *Classifier) Driver() driver.Driver {
	return c.drv
}

// Classify looks up the description of code. The only error it returns is a CorruptTextError when
// the driver's description is not valid UTF-8.
func (c *Classifier) Classify(code int32) (Outcome, error) {
	switch {
	case code == driver.Success:
		return Outcome{Kind: KindOK}, nil
	case code < 0:
		buf := make([]byte, driver.ErrorBufferSize)
		// The status of the lookup itself is ignored; an empty buffer falls back to unknownMessage.
		c.drv.GetExtendedErrorInfo(buf)
		msg, err := DecodeText(buf)
		if err != nil {
			return Outcome{}, err
		}
		if msg == "" {
			msg = unknownMessage
		}
		return Outcome{Kind: KindError, Code: code, Message: msg}, nil
	default:
		buf := make([]byte, driver.ErrorBufferSize)
		c.drv.GetErrorString(code, buf)
		msg, err := DecodeText(buf)
		if err != nil {
			return Outcome{}, err
		}
		if msg == "" {
			msg = unknownMessage
		}
		return Outcome{Kind: KindWarning, Code: code, Message: msg}, nil
	}
}

// Check converts code into an error. Errors become a *DriverError; warnings are logged and nil is
// returned.
func (c *Classifier) Check(code int32) error {
	if code == driver.Success {
		return nil
	}
	outcome, err := c.Classify(code)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case KindError:
		return errors.WithStack(&DriverError{Code: outcome.Code, Message: outcome.Message})
	case KindWarning:
		c.logger.Warnw("DAQmx warning", "code", outcome.Code, "message", outcome.Message)
	case KindOK:
	}
	return nil
}

// Call runs one driver call and classifies its status on the same OS thread.
func (c *Classifier) Call(call func() int32) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return c.Check(call())
}

// CheckStringProbe classifies the status of a string fetch. It returns true for the two statuses
// that mean the buffer was too small, false for success, and otherwise defers to Check.
func (c *Classifier) CheckStringProbe(code int32) (bool, error) {
	switch code {
	case driver.ErrorBufferTooSmallForString, driver.WarningStringTruncatedToFitBuffer:
		return true, nil
	case driver.Success:
		return false, nil
	}
	return false, c.Check(code)
}

// ReadString runs the two-phase string protocol against fetch: a nil buffer asks for the required
// size, then a buffer of exactly that size is filled. If the fill reports the buffer is too small,
// the value changed between the two calls and ErrStringPropertyRace is returned.
func (c *Classifier) ReadString(fetch func(buf []byte) int32) (string, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	size := fetch(nil)
	if size < 0 {
		return "", c.Check(size)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, size)
	tooSmall, err := c.CheckStringProbe(fetch(buf))
	if err != nil {
		return "", err
	}
	if tooSmall {
		return "", errors.WithStack(ErrStringPropertyRace)
	}
	return DecodeText(buf)
}

// DecodeText truncates buf at its first null byte and decodes the rest as UTF-8.
func DecodeText(buf []byte) (string, error) {
	if idx := bytes.IndexByte(buf, 0); idx >= 0 {
		buf = buf[:idx]
	}
	if !utf8.Valid(buf) {
		raw := make([]byte, len(buf))
		copy(raw, buf)
		return "", errors.WithStack(&CorruptTextError{Raw: raw})
	}
	return string(buf), nil
}

// ValidateName returns ErrInvalidName if value cannot cross the driver boundary as a C string.
func ValidateName(field, value string) error {
	if strings.IndexByte(value, 0) >= 0 {
		return errors.Wrapf(ErrInvalidName, "%s %q", field, value)
	}
	return nil
}
