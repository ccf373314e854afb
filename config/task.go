package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/daqmx/channels"
	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/status"
	"go.viam.com/daqmx/task"
)

// TaskConfig describes an analog input task.
type TaskConfig struct {
	Name          string                 `json:"name,omitempty"`
	Channels      []VoltageChannelConfig `json:"channels"`
	Timing        *TimingConfig          `json:"timing,omitempty"`
	ReadAutoStart *bool                  `json:"read_auto_start,omitempty"`
}

// VoltageChannelConfig describes one voltage input channel. Min and Max default to the builder's
// range.
type VoltageChannelConfig struct {
	PhysicalChannel string   `json:"physical_channel"`
	Name            string   `json:"name,omitempty"`
	Min             *float64 `json:"min,omitempty"`
	Max             *float64 `json:"max,omitempty"`
	TerminalConfig  string   `json:"terminal_config,omitempty"`
	CustomScale     string   `json:"custom_scale,omitempty"`
}

// TimingConfig makes a task hardware timed.
type TimingConfig struct {
	Source            string  `json:"source,omitempty"`
	RateHz            float64 `json:"rate_hz"`
	Edge              string  `json:"edge,omitempty"`
	Mode              string  `json:"mode"`
	SamplesPerChannel uint64  `json:"samples_per_channel"`
}

// Validate ensures all parts of the config are valid.
func (config *TaskConfig) Validate(path string) error {
	if err := status.ValidateName("name", config.Name); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if len(config.Channels) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "channels")
	}
	for idx := range config.Channels {
		if err := config.Channels[idx].Validate(fmt.Sprintf("%s.channels.%d", path, idx)); err != nil {
			return err
		}
	}
	if config.Timing != nil {
		if err := config.Timing.Validate(path + ".timing"); err != nil {
			return err
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (config *VoltageChannelConfig) Validate(path string) error {
	if config.PhysicalChannel == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "physical_channel")
	}
	_, err := config.Builder()
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Builder returns a builder for the channel. A custom scale is referenced by name and must be
// registered with the driver before the builder is added to a task.
func (config *VoltageChannelConfig) Builder() (*channels.VoltageChannelBuilder, error) {
	b, err := channels.NewVoltageChannelBuilder(config.PhysicalChannel)
	if err != nil {
		return nil, err
	}
	if err := b.SetName(config.Name); err != nil {
		return nil, err
	}
	minVal, maxVal := b.Range()
	if config.Min != nil {
		minVal = *config.Min
	}
	if config.Max != nil {
		maxVal = *config.Max
	}
	if err := b.SetRange(minVal, maxVal); err != nil {
		return nil, err
	}
	terminal, err := channels.TerminalConfigFromString(config.TerminalConfig)
	if err != nil {
		return nil, err
	}
	b.SetTerminalConfig(terminal)
	if config.CustomScale != "" {
		if err := b.SetScale(channels.CustomScale(config.CustomScale)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Validate ensures all parts of the config are valid.
func (config *TimingConfig) Validate(path string) error {
	if config.Mode == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "mode")
	}
	if !(config.RateHz > 0) {
		return utils.NewConfigValidationError(path, errors.Errorf("rate_hz must be positive, got %g", config.RateHz))
	}
	if _, _, err := config.parse(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

func (config *TimingConfig) parse() (task.ClockEdge, task.SampleMode, error) {
	edge, err := task.ClockEdgeFromString(config.Edge)
	if err != nil {
		return 0, 0, err
	}
	mode, err := task.SampleModeFromString(config.Mode)
	if err != nil {
		return 0, 0, err
	}
	if mode == task.FiniteSamples && config.SamplesPerChannel == 0 {
		return 0, 0, errors.New("finite acquisitions need samples_per_channel")
	}
	return edge, mode, nil
}

// NewTask creates the task with its channels, timing and read auto start applied. If any step
// fails the task is cleared again.
func (config *TaskConfig) NewTask(drv driver.Driver, logger logging.Logger) (_ *task.AnalogInputTask, err error) {
	t, err := task.NewAnalogInput(drv, config.Name, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, t.Close())
		}
	}()

	for idx := range config.Channels {
		b, err := config.Channels[idx].Builder()
		if err != nil {
			return nil, err
		}
		if err := t.CreateChannel(b); err != nil {
			return nil, err
		}
	}
	if tc := config.Timing; tc != nil {
		edge, mode, err := tc.parse()
		if err != nil {
			return nil, err
		}
		if err := t.ConfigureSampleClockTiming(tc.Source, tc.RateHz, edge, mode, tc.SamplesPerChannel); err != nil {
			return nil, err
		}
	}
	if config.ReadAutoStart != nil {
		if err := t.SetReadAutoStart(*config.ReadAutoStart); err != nil {
			return nil, err
		}
	}
	return t, nil
}
