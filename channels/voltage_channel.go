package channels

import (
	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/session"
	"go.viam.com/daqmx/status"
	"go.viam.com/daqmx/task"
)

// A VoltageInputChannel reads and changes the properties of a voltage channel already in a task.
// It borrows the task's session: once the task is closed every call fails.
type VoltageInputChannel struct {
	s    *session.Handle
	name string
}

var _ task.Channel[task.AnalogInput] = (*VoltageInputChannel)(nil)

// Bind points the accessor at the channel named name on s. Whether the channel exists is only
// known on the first property read.
func (c *VoltageInputChannel) Bind(s *session.Handle, name string) error {
	if err := status.ValidateName("channel name", name); err != nil {
		return err
	}
	c.s = s
	c.name = name
	return nil
}

// ChannelFamily marks voltage channels as analog inputs.
func (c *VoltageInputChannel) ChannelFamily() task.AnalogInput { return task.AnalogInput{} }

// Name returns the channel's name in the task.
func (c *VoltageInputChannel) Name() string {
	return c.name
}

// AIMax returns the top of the channel's expected input range.
func (c *VoltageInputChannel) AIMax() (float64, error) {
	return readProperty(c.s, c.name, c.s.Driver().GetAIMax)
}

// SetAIMax changes the top of the channel's expected input range.
func (c *VoltageInputChannel) SetAIMax(v float64) error {
	return writeProperty(c.s, c.name, c.s.Driver().SetAIMax, v)
}

// AIMin returns the bottom of the channel's expected input range.
func (c *VoltageInputChannel) AIMin() (float64, error) {
	return readProperty(c.s, c.name, c.s.Driver().GetAIMin)
}

// SetAIMin changes the bottom of the channel's expected input range.
func (c *VoltageInputChannel) SetAIMin(v float64) error {
	return writeProperty(c.s, c.name, c.s.Driver().SetAIMin, v)
}

// PhysicalChannel returns the identifier of the terminal the channel reads from.
func (c *VoltageInputChannel) PhysicalChannel() (string, error) {
	return readStringProperty(c.s, c.name, c.s.Driver().GetPhysicalChanName)
}

// AITerminalConfig returns the channel's input terminal configuration.
func (c *VoltageInputChannel) AITerminalConfig() (TerminalConfig, error) {
	code, err := readProperty(c.s, c.name, c.s.Driver().GetAITermCfg)
	if err != nil {
		return 0, err
	}
	return TerminalConfigFromCode(code)
}

// SetAITerminalConfig changes the channel's input terminal configuration.
func (c *VoltageInputChannel) SetAITerminalConfig(cfg TerminalConfig) error {
	return writeProperty(c.s, c.name, c.s.Driver().SetAITermCfg, int32(cfg))
}

// CustomScaleName returns the name of the channel's custom scale, or "" if it has none.
func (c *VoltageInputChannel) CustomScaleName() (string, error) {
	return readStringProperty(c.s, c.name, c.s.Driver().GetAICustomScaleName)
}

// Scale returns the units the channel reports in. A custom scale is returned resolved.
func (c *VoltageInputChannel) Scale() (VoltageScale, error) {
	code, err := readProperty(c.s, c.name, c.s.Driver().GetAIVoltageUnits)
	if err != nil {
		return VoltageScale{}, err
	}
	scale, err := VoltageScaleFromCode(code)
	if err != nil {
		return VoltageScale{}, err
	}
	return c.resolve(scale)
}

// resolve fetches the name of an unresolved custom scale.
func (c *VoltageInputChannel) resolve(scale VoltageScale) (VoltageScale, error) {
	if scale.Resolved() {
		return scale, nil
	}
	name, err := c.CustomScaleName()
	if err != nil {
		return VoltageScale{}, err
	}
	if name == "" {
		return VoltageScale{}, errors.Wrapf(
			status.NewUnexpectedValueError("VoltageScale", driver.ValFromCustomScale),
			"channel %q uses a custom scale with no name", c.name)
	}
	return scale.withName(name), nil
}
