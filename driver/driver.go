// Package driver defines the native call boundary of the NI-DAQmx C API.
//
// Every method mirrors one vendor entry point and returns its raw int32 status: 0 for success, a
// negative value for an error and a positive value for a warning. Nothing in this package
// interprets status codes; that is the job of the status package. String outputs follow the C
// convention of a caller-provided buffer: passing a nil/empty buffer asks the driver for the
// required size (including the trailing null) as a positive return value.
package driver

// TaskHandle is the opaque native identifier of one DAQmx task. It is only meaningful for the
// Driver that returned it.
type TaskHandle uintptr

// ScalarGetter is the shape shared by every fixed-size channel property getter.
type ScalarGetter[T any] func(task TaskHandle, channel string, value *T) int32

// ScalarSetter is the shape shared by every fixed-size channel property setter.
type ScalarSetter[T any] func(task TaskHandle, channel string, value T) int32

// StringGetter is the shape shared by every variable-length channel property getter.
type StringGetter func(task TaskHandle, channel string, buf []byte) int32

// Driver is the set of native entry points this module consumes.
type Driver interface {
	// Task lifecycle.
	CreateTask(name string, task *TaskHandle) int32
	ClearTask(task TaskHandle) int32
	GetTaskName(task TaskHandle, buf []byte) int32
	GetTaskChannels(task TaskHandle, buf []byte) int32
	GetTaskNumChans(task TaskHandle, count *uint32) int32

	// Channel and scale creation.
	CreateAIVoltageChan(
		task TaskHandle,
		physicalChannel, nameToAssign string,
		terminalConfig int32,
		minVal, maxVal float64,
		units int32,
		customScaleName string,
	) int32
	CreateLinScale(name string, slope, yIntercept float64, preScaledUnits int32, scaledUnits string) int32

	// Channel properties.
	GetAIMax(task TaskHandle, channel string, value *float64) int32
	SetAIMax(task TaskHandle, channel string, value float64) int32
	GetAIMin(task TaskHandle, channel string, value *float64) int32
	SetAIMin(task TaskHandle, channel string, value float64) int32
	GetAITermCfg(task TaskHandle, channel string, value *int32) int32
	SetAITermCfg(task TaskHandle, channel string, value int32) int32
	GetAIVoltageUnits(task TaskHandle, channel string, value *int32) int32
	GetAICustomScaleName(task TaskHandle, channel string, buf []byte) int32
	GetPhysicalChanName(task TaskHandle, channel string, buf []byte) int32

	// Timing.
	CfgSampClkTiming(task TaskHandle, source string, rate float64, activeEdge, sampleMode int32, sampsPerChan uint64) int32
	GetSampClkRate(task TaskHandle, rate *float64) int32

	// Acquisition state machine.
	StartTask(task TaskHandle) int32
	StopTask(task TaskHandle) int32
	WaitUntilTaskDone(task TaskHandle, timeToWait float64) int32

	// Reading.
	GetReadAutoStart(task TaskHandle, autoStart *bool) int32
	SetReadAutoStart(task TaskHandle, autoStart bool) int32
	ReadAnalogScalarF64(task TaskHandle, timeout float64, value *float64) int32
	ReadAnalogF64(
		task TaskHandle,
		numSampsPerChan int32,
		timeout float64,
		fillMode int32,
		readArray []float64,
		sampsPerChanRead *int32,
	) int32

	// Error text. GetExtendedErrorInfo describes the last failure on the calling OS thread.
	GetExtendedErrorInfo(buf []byte) int32
	GetErrorString(code int32, buf []byte) int32
}
