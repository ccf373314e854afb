package channels

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/session"
	"go.viam.com/daqmx/status"
)

// readProperty reads one fixed-size property of a channel through get.
func readProperty[T any](s *session.Handle, channel string, get driver.ScalarGetter[T]) (T, error) {
	var value T
	if err := s.Do(func(raw driver.TaskHandle) int32 {
		return get(raw, channel, &value)
	}); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// writeProperty sets one fixed-size property of a channel through set.
func writeProperty[T any](s *session.Handle, channel string, set driver.ScalarSetter[T], value T) error {
	return s.Do(func(raw driver.TaskHandle) int32 {
		return set(raw, channel, value)
	})
}

// readStringProperty reads one variable-length property of a channel through get, using the
// two-phase size-then-fill protocol. It does not retry if the value changes size in between.
func readStringProperty(s *session.Handle, channel string, get driver.StringGetter) (string, error) {
	return s.ReadString(func(raw driver.TaskHandle, buf []byte) int32 {
		return get(raw, channel, buf)
	})
}

// RetryOnRace calls read up to attempts times for as long as it fails with
// status.ErrStringPropertyRace. Any other result is returned immediately.
//
//	name, err := channels.RetryOnRace(3, ch.PhysicalChannel)
func RetryOnRace(attempts int, read func() (string, error)) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var s string
		s, err = read()
		if !errors.Is(err, status.ErrStringPropertyRace) {
			return s, err
		}
	}
	return "", errors.Wrapf(err, "gave up after %d attempts", attempts)
}
