// Package fake implements a simulated DAQmx device. It behaves like the vendor driver closely
// enough to exercise everything above the call boundary without hardware: task naming, voltage
// channels, custom scales, sample clock timing, blocking buffered reads and error text.
package fake

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/daqmx/driver"
)

// DefaultPhysicalChannelPattern matches identifiers such as "Dev1/ai0" or "PXI1Slot2/ai7".
var DefaultPhysicalChannelPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+/ai[0-9]+$`)

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock driving the simulated sample clock.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) {
		d.clock = c
	}
}

// WithPhysicalChannels restricts which physical channel identifiers exist on the device.
func WithPhysicalChannels(pattern *regexp.Regexp) Option {
	return func(d *Driver) {
		d.physicalChannels = pattern
	}
}

// Driver is an in-memory driver.Driver. The zero value is not usable; call New.
type Driver struct {
	mu               sync.Mutex
	clock            clock.Clock
	physicalChannels *regexp.Regexp
	nextHandle       driver.TaskHandle
	unnamed          int
	tasks            map[driver.TaskHandle]*task
	names            map[string]driver.TaskHandle
	scales           map[string]*linearScale
	cleared          map[driver.TaskHandle]int
	injected         map[string][]int32
	waiters          int

	// error text is kept per OS thread, as DAQmx does
	errMu         sync.Mutex
	lastError     map[int]string
	nextErrorText []byte
}

var _ driver.Driver = (*Driver)(nil)

type linearScale struct {
	slope, intercept float64
	preScaledUnits   int32
	scaledUnits      string
}

// New returns a simulated device using the wall clock.
func New(opts ...Option) *Driver {
	d := &Driver{
		clock:            clock.New(),
		physicalChannels: DefaultPhysicalChannelPattern,
		nextHandle:       1,
		tasks:            map[driver.TaskHandle]*task{},
		names:            map[string]driver.TaskHandle{},
		scales:           map[string]*linearScale{},
		cleared:          map[driver.TaskHandle]int{},
		injected:         map[string][]int32{},
		lastError:        map[int]string{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FailNext queues statuses for the next calls of the named entry point, e.g. "GetAIMax". A zero
// status lets that call through untouched. A negative status fails the call without running it. A
// positive status runs the call and reports the warning if the call itself succeeded.
func (d *Driver) FailNext(entryPoint string, codes ...int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.injected[entryPoint] = append(d.injected[entryPoint], codes...)
}

// SetNextErrorText makes the next error text lookup return raw verbatim.
func (d *Driver) SetNextErrorText(raw []byte) {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	d.nextErrorText = append([]byte{}, raw...)
}

// Cleared returns how many times the task behind h was cleared.
func (d *Driver) Cleared(h driver.TaskHandle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cleared[h]
}

// NumTasks returns the number of live tasks.
func (d *Driver) NumTasks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// ScaleNames returns the names of every registered custom scale.
func (d *Driver) ScaleNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.scales))
	for name := range d.scales {
		names = append(names, name)
	}
	return names
}

func (d *Driver) popInjected(entryPoint string) (int32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	queue := d.injected[entryPoint]
	if len(queue) == 0 {
		return 0, false
	}
	d.injected[entryPoint] = queue[1:]
	return queue[0], true
}

// call runs op unless a status was injected for entryPoint.
func (d *Driver) call(entryPoint string, op func() int32) int32 {
	code, injected := d.popInjected(entryPoint)
	if injected && code < 0 {
		return d.fail(code, "Injected failure in %s.", entryPoint)
	}
	ret := op()
	if injected && code > 0 && ret == driver.Success {
		return code
	}
	return ret
}

// fail records the extended error info for code on the calling thread and returns it.
func (d *Driver) fail(code int32, format string, args ...interface{}) int32 {
	msg := fmt.Sprintf(format, args...)
	d.errMu.Lock()
	d.lastError[threadID()] = fmt.Sprintf("%s\n\nStatus Code: %d", msg, code)
	d.errMu.Unlock()
	return code
}

func (d *Driver) lookupLocked(h driver.TaskHandle) (*task, int32) {
	t, ok := d.tasks[h]
	if !ok {
		return nil, d.fail(driver.ErrorInvalidTask, "Task specified is invalid or does not exist.")
	}
	return t, driver.Success
}

// CreateTask creates a named task. An empty name gets an "_unnamedTask<N>" name.
func (d *Driver) CreateTask(name string, h *driver.TaskHandle) int32 {
	return d.call("CreateTask", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		if name == "" {
			name = fmt.Sprintf("_unnamedTask<%d>", d.unnamed)
			d.unnamed++
		}
		if _, exists := d.names[name]; exists {
			return d.fail(driver.ErrorDuplicateTask, "Task cannot be created because a task with this name already exists.\nTask Name: %s", name)
		}
		handle := d.nextHandle
		d.nextHandle++
		d.tasks[handle] = newTask(name)
		d.names[name] = handle
		*h = handle
		return driver.Success
	})
}

// ClearTask aborts and removes a task.
func (d *Driver) ClearTask(h driver.TaskHandle) int32 {
	return d.call("ClearTask", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		t.stopLocked()
		delete(d.tasks, h)
		delete(d.names, t.name)
		d.cleared[h]++
		return driver.Success
	})
}

// GetTaskName copies the task's name.
func (d *Driver) GetTaskName(h driver.TaskHandle, buf []byte) int32 {
	return d.call("GetTaskName", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		return d.writeString(buf, t.name)
	})
}

// GetTaskChannels copies the comma separated list of channel names.
func (d *Driver) GetTaskChannels(h driver.TaskHandle, buf []byte) int32 {
	return d.call("GetTaskChannels", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		names := make([]string, 0, len(t.channels))
		for _, ch := range t.channels {
			names = append(names, ch.name)
		}
		return d.writeString(buf, strings.Join(names, ", "))
	})
}

// GetTaskNumChans returns the number of channels in the task.
func (d *Driver) GetTaskNumChans(h driver.TaskHandle, count *uint32) int32 {
	return d.call("GetTaskNumChans", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		*count = uint32(len(t.channels))
		return driver.Success
	})
}

// CreateAIVoltageChan adds a voltage input channel to the task.
func (d *Driver) CreateAIVoltageChan(
	h driver.TaskHandle,
	physicalChannel, nameToAssign string,
	terminalConfig int32,
	minVal, maxVal float64,
	units int32,
	customScaleName string,
) int32 {
	return d.call("CreateAIVoltageChan", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		if t.running {
			return d.fail(driver.ErrorInvalidWhileTaskRunning,
				"Specified operation cannot be performed while the task is running.\nTask Name: %s", t.name)
		}
		if !d.physicalChannels.MatchString(physicalChannel) {
			return d.fail(driver.ErrorPhysicalChanDoesNotExist,
				"Physical channel specified does not exist on this device.\nPhysical Channel Name: %s", physicalChannel)
		}
		if !validTerminalConfig(terminalConfig) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: AI.TermCfg\nRequested Value: %d", terminalConfig)
		}
		if !(minVal < maxVal) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Minimum must be less than maximum.\nMinimum: %g\nMaximum: %g", minVal, maxVal)
		}
		switch units {
		case driver.ValVolts:
			customScaleName = ""
		case driver.ValFromCustomScale:
			if _, ok := d.scales[customScaleName]; !ok {
				return d.fail(driver.ErrorCustomScaleDoesNotExist,
					"Custom scale specified does not exist.\nCustom Scale Name: %s", customScaleName)
			}
		default:
			// TEDS units need a TEDS sensor, which the simulated device does not have.
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: AI.Voltage.Units\nRequested Value: %d", units)
		}
		name := nameToAssign
		if name == "" {
			name = physicalChannel
		}
		if t.channelNamed(name) != nil {
			return d.fail(driver.ErrorDuplicatedChannel,
				"Channel name specified is already used in the task.\nChannel Name: %s", name)
		}
		t.channels = append(t.channels, &channel{
			name:           name,
			physical:       physicalChannel,
			terminalConfig: terminalConfig,
			min:            minVal,
			max:            maxVal,
			units:          units,
			scaleName:      customScaleName,
		})
		return driver.Success
	})
}

// CreateLinScale registers a linear custom scale.
func (d *Driver) CreateLinScale(name string, slope, yIntercept float64, preScaledUnits int32, scaledUnits string) int32 {
	return d.call("CreateLinScale", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		if name == "" {
			return d.fail(driver.ErrorInvalidAttributeValue, "Custom scale name cannot be empty.")
		}
		if _, exists := d.scales[name]; exists {
			return d.fail(driver.ErrorScaleNameAlreadyExists,
				"Custom scale cannot be created because a scale with this name already exists.\nCustom Scale Name: %s", name)
		}
		if !validUnit(preScaledUnits) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: Scale.PreScaledUnits\nRequested Value: %d",
				preScaledUnits)
		}
		d.scales[name] = &linearScale{slope: slope, intercept: yIntercept, preScaledUnits: preScaledUnits, scaledUnits: scaledUnits}
		return driver.Success
	})
}

func (d *Driver) channelLocked(h driver.TaskHandle, name string) (*channel, int32) {
	t, code := d.lookupLocked(h)
	if code != driver.Success {
		return nil, code
	}
	ch := t.channelNamed(name)
	if ch == nil {
		return nil, d.fail(driver.ErrorChanNotInTask,
			"Channel specified is not in the task.\nChannel Name: %s\nTask Name: %s", name, t.name)
	}
	return ch, driver.Success
}

func (d *Driver) readChannel(entryPoint string, h driver.TaskHandle, name string, read func(ch *channel)) int32 {
	return d.call(entryPoint, func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		ch, code := d.channelLocked(h, name)
		if code != driver.Success {
			return code
		}
		read(ch)
		return driver.Success
	})
}

func (d *Driver) readChannelString(entryPoint string, h driver.TaskHandle, name string, buf []byte, read func(ch *channel) string) int32 {
	return d.call(entryPoint, func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		ch, code := d.channelLocked(h, name)
		if code != driver.Success {
			return code
		}
		return d.writeString(buf, read(ch))
	})
}

func (d *Driver) writeChannel(entryPoint string, h driver.TaskHandle, name string, write func(ch *channel) int32) int32 {
	return d.call(entryPoint, func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		if t.running {
			return d.fail(driver.ErrorInvalidWhileTaskRunning,
				"Specified operation cannot be performed while the task is running.\nTask Name: %s", t.name)
		}
		ch, code := d.channelLocked(h, name)
		if code != driver.Success {
			return code
		}
		return write(ch)
	})
}

// GetAIMax returns the channel's maximum expected value.
func (d *Driver) GetAIMax(h driver.TaskHandle, name string, value *float64) int32 {
	return d.readChannel("GetAIMax", h, name, func(ch *channel) { *value = ch.max })
}

// SetAIMax changes the channel's maximum expected value.
func (d *Driver) SetAIMax(h driver.TaskHandle, name string, value float64) int32 {
	return d.writeChannel("SetAIMax", h, name, func(ch *channel) int32 {
		if !(ch.min < value) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Minimum must be less than maximum.\nMinimum: %g\nMaximum: %g", ch.min, value)
		}
		ch.max = value
		return driver.Success
	})
}

// GetAIMin returns the channel's minimum expected value.
func (d *Driver) GetAIMin(h driver.TaskHandle, name string, value *float64) int32 {
	return d.readChannel("GetAIMin", h, name, func(ch *channel) { *value = ch.min })
}

// SetAIMin changes the channel's minimum expected value.
func (d *Driver) SetAIMin(h driver.TaskHandle, name string, value float64) int32 {
	return d.writeChannel("SetAIMin", h, name, func(ch *channel) int32 {
		if !(value < ch.max) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Minimum must be less than maximum.\nMinimum: %g\nMaximum: %g", value, ch.max)
		}
		ch.min = value
		return driver.Success
	})
}

// GetAITermCfg returns the channel's terminal configuration code.
func (d *Driver) GetAITermCfg(h driver.TaskHandle, name string, value *int32) int32 {
	return d.readChannel("GetAITermCfg", h, name, func(ch *channel) { *value = ch.terminalConfig })
}

// SetAITermCfg changes the channel's terminal configuration code.
func (d *Driver) SetAITermCfg(h driver.TaskHandle, name string, value int32) int32 {
	return d.writeChannel("SetAITermCfg", h, name, func(ch *channel) int32 {
		if !validTerminalConfig(value) {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: AI.TermCfg\nRequested Value: %d", value)
		}
		ch.terminalConfig = value
		return driver.Success
	})
}

// GetAIVoltageUnits returns the channel's unit code.
func (d *Driver) GetAIVoltageUnits(h driver.TaskHandle, name string, value *int32) int32 {
	return d.readChannel("GetAIVoltageUnits", h, name, func(ch *channel) { *value = ch.units })
}

// GetAICustomScaleName copies the name of the channel's custom scale.
func (d *Driver) GetAICustomScaleName(h driver.TaskHandle, name string, buf []byte) int32 {
	return d.readChannelString("GetAICustomScaleName", h, name, buf, func(ch *channel) string { return ch.scaleName })
}

// GetPhysicalChanName copies the channel's physical channel identifier.
func (d *Driver) GetPhysicalChanName(h driver.TaskHandle, name string, buf []byte) int32 {
	return d.readChannelString("GetPhysicalChanName", h, name, buf, func(ch *channel) string { return ch.physical })
}

// CfgSampClkTiming configures hardware timing for the task.
func (d *Driver) CfgSampClkTiming(h driver.TaskHandle, source string, rate float64, activeEdge, sampleMode int32, sampsPerChan uint64) int32 {
	return d.call("CfgSampClkTiming", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		if t.running {
			return d.fail(driver.ErrorInvalidWhileTaskRunning,
				"Specified operation cannot be performed while the task is running.\nTask Name: %s", t.name)
		}
		if source != "" && source != driver.OnboardClock {
			return d.fail(driver.ErrorInvalidTiming, "Sample clock source is not available on this device.\nSource: %s", source)
		}
		if !(rate > 0) || math.IsInf(rate, 0) {
			return d.fail(driver.ErrorInvalidTiming, "Sample clock rate must be positive.\nRate: %g", rate)
		}
		if activeEdge != driver.ValRising && activeEdge != driver.ValFalling {
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: SampClk.ActiveEdge\nRequested Value: %d", activeEdge)
		}
		switch sampleMode {
		case driver.ValFiniteSamps:
			if sampsPerChan == 0 {
				return d.fail(driver.ErrorInvalidTiming, "Finite acquisitions need at least one sample per channel.")
			}
		case driver.ValContSamps, driver.ValHWTimedSinglePoint:
		default:
			return d.fail(driver.ErrorInvalidAttributeValue,
				"Requested value is not a supported value for this property.\nProperty: SampQuant.SampMode\nRequested Value: %d", sampleMode)
		}
		t.timing = &timing{rate: rate, edge: activeEdge, mode: sampleMode, sampsPerChan: sampsPerChan}
		return driver.Success
	})
}

// GetSampClkRate returns the configured sample clock rate, or zero for software timing.
func (d *Driver) GetSampClkRate(h driver.TaskHandle, rate *float64) int32 {
	return d.call("GetSampClkRate", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		*rate = 0
		if t.timing != nil {
			*rate = t.timing.rate
		}
		return driver.Success
	})
}

// StartTask starts the acquisition. Starting a running task is a no-op.
func (d *Driver) StartTask(h driver.TaskHandle) int32 {
	return d.call("StartTask", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		if len(t.channels) == 0 {
			return d.fail(driver.ErrorNoChansInTask, "Task contains no channels.\nTask Name: %s", t.name)
		}
		t.explicit = true
		if !t.running {
			t.startLocked(d.clock.Now())
		}
		return driver.Success
	})
}

// StopTask stops the acquisition and aborts any read in flight.
func (d *Driver) StopTask(h driver.TaskHandle) int32 {
	return d.call("StopTask", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		t.stopLocked()
		return driver.Success
	})
}

// GetReadAutoStart reports whether reads start a stopped task.
func (d *Driver) GetReadAutoStart(h driver.TaskHandle, autoStart *bool) int32 {
	return d.call("GetReadAutoStart", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		*autoStart = t.autoStart
		return driver.Success
	})
}

// SetReadAutoStart sets whether reads start a stopped task.
func (d *Driver) SetReadAutoStart(h driver.TaskHandle, autoStart bool) int32 {
	return d.call("SetReadAutoStart", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		t.autoStart = autoStart
		return driver.Success
	})
}

// GetExtendedErrorInfo copies the description of the last error on the calling thread.
func (d *Driver) GetExtendedErrorInfo(buf []byte) int32 {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if d.nextErrorText != nil {
		raw := d.nextErrorText
		d.nextErrorText = nil
		return copyTruncated(buf, raw)
	}
	return copyTruncated(buf, []byte(d.lastError[threadID()]))
}

// GetErrorString copies the short description of code.
func (d *Driver) GetErrorString(code int32, buf []byte) int32 {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if d.nextErrorText != nil {
		raw := d.nextErrorText
		d.nextErrorText = nil
		return copyTruncated(buf, raw)
	}
	return copyTruncated(buf, []byte(ErrorString(code)))
}

// writeString implements the size-then-fill protocol of DAQmx string properties.
func (d *Driver) writeString(buf []byte, value string) int32 {
	required := int32(len(value) + 1)
	if len(buf) == 0 {
		return required
	}
	if len(buf) < len(value)+1 {
		return d.fail(driver.ErrorBufferTooSmallForString,
			"Buffer is too small to fit the string.\nRequired Size: %d\nBuffer Size: %d", required, len(buf))
	}
	copy(buf, value)
	buf[len(value)] = 0
	return driver.Success
}

// copyTruncated copies as much of src as fits in buf, always leaving a null terminator.
func copyTruncated(buf, src []byte) int32 {
	if len(buf) == 0 {
		return int32(len(src) + 1)
	}
	n := copy(buf[:len(buf)-1], src)
	buf[n] = 0
	return driver.Success
}

func validTerminalConfig(code int32) bool {
	switch code {
	case driver.ValCfgDefault, driver.ValRSE, driver.ValNRSE, driver.ValDiff, driver.ValPseudoDiff:
		return true
	}
	return false
}

func validUnit(code int32) bool {
	switch code {
	case driver.ValVolts, driver.ValAmps, driver.ValDegF, driver.ValDegC, driver.ValDegR, driver.ValKelvins,
		driver.ValStrain, driver.ValOhms, driver.ValHz, driver.ValSeconds, driver.ValMeters, driver.ValInches,
		driver.ValDegrees, driver.ValRadians, driver.ValG, driver.ValMetersPerSecondSquared, driver.ValNewtons,
		driver.ValPounds, driver.ValPoundsPerSquareInch, driver.ValBar, driver.ValPascals, driver.ValVoltsPerVolt,
		driver.ValMilliVoltsPerVolt, driver.ValNewtonMeters, driver.ValInchOunces, driver.ValInchPounds,
		driver.ValFootPounds, driver.ValFromTEDS:
		return true
	}
	return false
}

// timeToAcquire returns how long after start n samples per channel have been acquired.
func timeToAcquire(n uint64, rate float64) time.Duration {
	return time.Duration(math.Ceil(float64(n) / rate * float64(time.Second)))
}
