// Package task wraps one native DAQmx task behind a type parameter naming the family of channels
// it holds. Builders and accessors carry the same family, so a channel built for one family cannot
// be added to, or looked up on, a task of another; the compiler rejects it before any driver call.
package task

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/session"
)

// AnalogInput tags tasks, builders and accessors for analog input channels.
type AnalogInput struct{}

// Family is the set of channel family markers.
type Family interface {
	AnalogInput
}

// A ChannelBuilder registers one channel of family F on a task.
type ChannelBuilder[F Family] interface {
	// AddToTask registers the channel. It may only succeed once.
	AddToTask(s *session.Handle) error
	ChannelFamily() F
}

// A Channel is an accessor for an already registered channel of family F.
type Channel[F Family] interface {
	// Bind points the accessor at the channel named name on s.
	Bind(s *session.Handle, name string) error
	ChannelFamily() F
}

// A Task is one native task whose channels are of family F. Tasks are safe for concurrent reads,
// start and stop; configuration must not race an acquisition.
//
// The native task lives until Close has been called on the Task and on every Clone of it. A Task
// dropped without Close is not cleared and leaks the native task for the life of the driver.
type Task[F Family] struct {
	h *session.Handle
}

// AnalogInputTask is the task type for analog input channels.
type AnalogInputTask = Task[AnalogInput]

// New creates a task named name. An empty name lets the driver choose one.
func New[F Family](drv driver.Driver, name string, logger logging.Logger) (*Task[F], error) {
	h, err := session.New(drv, name, logger)
	if err != nil {
		return nil, err
	}
	return &Task[F]{h: h}, nil
}

// NewAnalogInput creates an analog input task.
func NewAnalogInput(drv driver.Driver, name string, logger logging.Logger) (*AnalogInputTask, error) {
	return New[AnalogInput](drv, name, logger)
}

// Session returns the task's session handle.
func (t *Task[F]) Session() *session.Handle {
	return t.h
}

// Clone returns another reference to the same native task, for use from another goroutine. Each
// clone must be closed; the native task is cleared when the last one is.
func (t *Task[F]) Clone() (*Task[F], error) {
	h, err := t.h.Clone()
	if err != nil {
		return nil, err
	}
	return &Task[F]{h: h}, nil
}

// Close releases this reference to the native task, clearing it if no other clone is open.
func (t *Task[F]) Close() error {
	return t.h.Close()
}

// Name returns the task's name as the driver knows it.
func (t *Task[F]) Name() (string, error) {
	return t.h.ReadString(t.h.Driver().GetTaskName)
}

// ChannelNames returns the names of the task's channels in creation order.
func (t *Task[F]) ChannelNames() ([]string, error) {
	list, err := t.h.ReadString(t.h.Driver().GetTaskChannels)
	if err != nil {
		return nil, err
	}
	if list == "" {
		return nil, nil
	}
	names := strings.Split(list, ",")
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
	}
	return names, nil
}

// NumChannels returns how many channels the task holds.
func (t *Task[F]) NumChannels() (int, error) {
	var n uint32
	if err := t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().GetTaskNumChans(raw, &n)
	}); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CreateChannel registers the channel described by b.
func (t *Task[F]) CreateChannel(b ChannelBuilder[F]) error {
	if t.h.Closed() {
		return session.ErrClosed
	}
	return b.AddToTask(t.h)
}

// GetChannel returns an accessor of type *C for the channel named name on t. The channel's existence
// is only checked by the accessor's first property read.
//
//	ch, err := task.GetChannel[channels.VoltageInputChannel](t, "ai0")
func GetChannel[C any, F Family, PC interface {
	*C
	Channel[F]
}](t *Task[F], name string) (PC, error) {
	if t.h.Closed() {
		return nil, session.ErrClosed
	}
	ch := PC(new(C))
	if err := ch.Bind(t.h, name); err != nil {
		return nil, err
	}
	return ch, nil
}

// ConfigureSampleClockTiming makes the task hardware timed. An empty source uses the onboard
// clock. samplesPerChannel is the acquisition length in finite mode and a buffer size hint
// otherwise. Call before Start.
func (t *Task[F]) ConfigureSampleClockTiming(
	source string,
	rate float64,
	edge ClockEdge,
	mode SampleMode,
	samplesPerChannel uint64,
) error {
	if source == "" {
		source = driver.OnboardClock
	}
	return t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().CfgSampClkTiming(raw, source, rate, int32(edge), int32(mode), samplesPerChannel)
	})
}

// SampleClockRate returns the configured sample clock rate in samples per second per channel.
func (t *Task[F]) SampleClockRate() (float64, error) {
	var rate float64
	if err := t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().GetSampClkRate(raw, &rate)
	}); err != nil {
		return 0, err
	}
	return rate, nil
}

// Start begins the acquisition.
func (t *Task[F]) Start() error {
	if err := t.h.Do(t.h.Driver().StartTask); err != nil {
		return err
	}
	t.h.Logger().Debug("task started")
	return nil
}

// Stop ends the acquisition. Reads blocked in other goroutines return an error.
func (t *Task[F]) Stop() error {
	if err := t.h.Do(t.h.Driver().StopTask); err != nil {
		return err
	}
	t.h.Logger().Debug("task stopped")
	return nil
}

// WaitUntilDone blocks until a finite acquisition completes.
func (t *Task[F]) WaitUntilDone(timeout Timeout) error {
	return t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().WaitUntilTaskDone(raw, timeout.Value())
	})
}

// ReadAutoStart reports whether a read starts a task that has not been started.
func (t *Task[F]) ReadAutoStart() (bool, error) {
	var autoStart bool
	if err := t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().GetReadAutoStart(raw, &autoStart)
	}); err != nil {
		return false, err
	}
	return autoStart, nil
}

// SetReadAutoStart sets whether a read starts a task that has not been started.
func (t *Task[F]) SetReadAutoStart(autoStart bool) error {
	return t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().SetReadAutoStart(raw, autoStart)
	})
}

// ReadScalar reads one sample from a task with a single channel.
func (t *Task[F]) ReadScalar(timeout Timeout) (float64, error) {
	var value float64
	if err := t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().ReadAnalogScalarF64(raw, timeout.Value(), &value)
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// Read reads up to samplesPerChannel samples of every channel into buf and returns how many
// samples per channel were read. Pass ReadAll to read everything available. If buf cannot hold
// the request, only what fits is read.
func (t *Task[F]) Read(timeout Timeout, fill DataFillMode, samplesPerChannel int, buf []float64) (int, error) {
	if samplesPerChannel < ReadAll || samplesPerChannel > math.MaxInt32 {
		return 0, errors.Errorf("invalid samples per channel %d", samplesPerChannel)
	}
	var read int32
	if err := t.h.Do(func(raw driver.TaskHandle) int32 {
		return t.h.Driver().ReadAnalogF64(raw, int32(samplesPerChannel), timeout.Value(), int32(fill), buf, &read)
	}); err != nil {
		return 0, err
	}
	return int(read), nil
}
