// Package channels builds channels on tasks and reads their configuration back.
//
// Builders describe a channel and register it with one driver call. Accessors name a channel that
// already exists in a task and read or change its properties. Both carry the channel family of
// the task they work with.
package channels

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/scales"
	"go.viam.com/daqmx/session"
	"go.viam.com/daqmx/status"
	"go.viam.com/daqmx/task"
)

// ErrBuilderConsumed is returned when a builder is added to a task a second time.
var ErrBuilderConsumed = errors.New("channel builder has already been added to a task")

// Default input range of a voltage channel, in volts.
const (
	DefaultVoltageMin = -5.0
	DefaultVoltageMax = 5.0
)

// A VoltageChannelBuilder describes an analog voltage input channel.
type VoltageChannelBuilder struct {
	physicalChannel string
	name            string
	minVal, maxVal  float64
	scale           VoltageScale
	terminalConfig  TerminalConfig
	consumed        bool
}

var _ task.ChannelBuilder[task.AnalogInput] = (*VoltageChannelBuilder)(nil)

// NewVoltageChannelBuilder describes a channel on the physical channel identifier physicalChannel,
// such as "Dev1/ai0", reading -5 to 5 volts with the device's default terminal configuration.
func NewVoltageChannelBuilder(physicalChannel string) (*VoltageChannelBuilder, error) {
	if physicalChannel == "" {
		return nil, errors.New("physical channel is required")
	}
	if err := status.ValidateName("physical channel", physicalChannel); err != nil {
		return nil, err
	}
	return &VoltageChannelBuilder{
		physicalChannel: physicalChannel,
		minVal:          DefaultVoltageMin,
		maxVal:          DefaultVoltageMax,
		scale:           VoltsScale,
		terminalConfig:  TerminalDefault,
	}, nil
}

// SetName sets the channel's name in the task. Without one the channel is named after its
// physical channel.
func (b *VoltageChannelBuilder) SetName(name string) error {
	if err := status.ValidateName("channel name", name); err != nil {
		return err
	}
	b.name = name
	return nil
}

// SetRange sets the expected input range, in the units of the channel's scale.
func (b *VoltageChannelBuilder) SetRange(minVal, maxVal float64) error {
	if !(minVal < maxVal) {
		return errors.Errorf("min (%g) must be less than max (%g)", minVal, maxVal)
	}
	b.minVal, b.maxVal = minVal, maxVal
	return nil
}

// SetScale sets the units the channel reports in.
func (b *VoltageChannelBuilder) SetScale(scale VoltageScale) error {
	_, name, err := scale.units()
	if err != nil {
		return err
	}
	if err := status.ValidateName("scale name", name); err != nil {
		return err
	}
	b.scale = scale
	return nil
}

// UseCustomScale makes the channel report through a registered linear scale.
func (b *VoltageChannelBuilder) UseCustomScale(s *scales.LinearScale) error {
	return b.SetScale(FromScale(s))
}

// SetTerminalConfig sets the input terminal configuration.
func (b *VoltageChannelBuilder) SetTerminalConfig(c TerminalConfig) {
	b.terminalConfig = c
}

// PhysicalChannel returns the physical channel identifier.
func (b *VoltageChannelBuilder) PhysicalChannel() string { return b.physicalChannel }

// ChannelName returns the name the channel will have in the task.
func (b *VoltageChannelBuilder) ChannelName() string {
	if b.name == "" {
		return b.physicalChannel
	}
	return b.name
}

// Range returns the expected input range.
func (b *VoltageChannelBuilder) Range() (minVal, maxVal float64) { return b.minVal, b.maxVal }

// Scale returns the units the channel reports in.
func (b *VoltageChannelBuilder) Scale() VoltageScale { return b.scale }

// TerminalConfig returns the input terminal configuration.
func (b *VoltageChannelBuilder) TerminalConfig() TerminalConfig { return b.terminalConfig }

// ChannelFamily marks voltage channels as analog inputs.
func (b *VoltageChannelBuilder) ChannelFamily() task.AnalogInput { return task.AnalogInput{} }

// AddToTask registers the channel on s. A builder can only be added once, whether or not the
// driver accepted it; later calls return ErrBuilderConsumed.
func (b *VoltageChannelBuilder) AddToTask(s *session.Handle) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.consumed = true

	units, scaleName, err := b.scale.units()
	if err != nil {
		return err
	}
	if err := s.Do(func(raw driver.TaskHandle) int32 {
		return s.Driver().CreateAIVoltageChan(
			raw, b.physicalChannel, b.name, int32(b.terminalConfig), b.minVal, b.maxVal, units, scaleName)
	}); err != nil {
		return errors.Wrapf(err, "cannot add voltage channel %q", b.physicalChannel)
	}
	s.Logger().Debugw("voltage channel added",
		"physical_channel", b.physicalChannel,
		"channel", b.ChannelName(),
		"scale", b.scale.String(),
		"terminal_config", b.terminalConfig.String())
	return nil
}
