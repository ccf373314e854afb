//go:build nidaqmx && cgo

// Package nidaqmx binds driver.Driver to the vendor NI-DAQmx C library. Build with the nidaqmx tag
// on a machine that has the library and headers installed.
package nidaqmx

// #include <stdlib.h>
// #include <NIDAQmx.h>
// #cgo LDFLAGS: -lnidaqmx
import "C"

import (
	"sync"
	"unsafe"

	"go.viam.com/daqmx/driver"
)

// Driver calls into the native library. Native task handles never leave this package; callers see
// small integers that map to them.
type Driver struct {
	mu      sync.Mutex
	next    driver.TaskHandle
	handles map[driver.TaskHandle]C.TaskHandle
}

var _ driver.Driver = (*Driver)(nil)

// New returns a Driver for the installed NI-DAQmx library.
func New() (*Driver, error) {
	return &Driver{next: 1, handles: map[driver.TaskHandle]C.TaskHandle{}}, nil
}

func (d *Driver) native(h driver.TaskHandle) C.TaskHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	// an unknown handle becomes a null task, which the library rejects as invalid
	return d.handles[h]
}

func cString(s string) (*C.char, func()) {
	cs := C.CString(s)
	return cs, func() { C.free(unsafe.Pointer(cs)) }
}

// cBuffer returns the pointer and size to pass for a caller-provided string buffer. A nil pointer
// with size zero asks the library for the required size.
func cBuffer(buf []byte) (*C.char, C.uInt32) {
	if len(buf) == 0 {
		return nil, 0
	}
	return (*C.char)(unsafe.Pointer(&buf[0])), C.uInt32(len(buf))
}

func cBool(b bool) C.bool32 {
	if b {
		return 1
	}
	return 0
}

// CreateTask wraps DAQmxCreateTask.
func (d *Driver) CreateTask(name string, task *driver.TaskHandle) int32 {
	cname, free := cString(name)
	defer free()
	var native C.TaskHandle
	code := int32(C.DAQmxCreateTask(cname, &native))
	if code < 0 {
		return code
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.next
	d.next++
	d.handles[h] = native
	*task = h
	return code
}

// ClearTask wraps DAQmxClearTask.
func (d *Driver) ClearTask(task driver.TaskHandle) int32 {
	code := int32(C.DAQmxClearTask(d.native(task)))
	if code >= 0 {
		d.mu.Lock()
		delete(d.handles, task)
		d.mu.Unlock()
	}
	return code
}

// GetTaskName wraps DAQmxGetTaskName.
func (d *Driver) GetTaskName(task driver.TaskHandle, buf []byte) int32 {
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetTaskName(d.native(task), p, n))
}

// GetTaskChannels wraps DAQmxGetTaskChannels.
func (d *Driver) GetTaskChannels(task driver.TaskHandle, buf []byte) int32 {
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetTaskChannels(d.native(task), p, n))
}

// GetTaskNumChans wraps DAQmxGetTaskNumChans.
func (d *Driver) GetTaskNumChans(task driver.TaskHandle, count *uint32) int32 {
	var n C.uInt32
	code := int32(C.DAQmxGetTaskNumChans(d.native(task), &n))
	*count = uint32(n)
	return code
}

// CreateAIVoltageChan wraps DAQmxCreateAIVoltageChan.
func (d *Driver) CreateAIVoltageChan(
	task driver.TaskHandle,
	physicalChannel, nameToAssign string,
	terminalConfig int32,
	minVal, maxVal float64,
	units int32,
	customScaleName string,
) int32 {
	cphys, freePhys := cString(physicalChannel)
	defer freePhys()
	cname, freeName := cString(nameToAssign)
	defer freeName()
	// the library expects a null scale name unless units select a custom scale
	var cscale *C.char
	if customScaleName != "" {
		var freeScale func()
		cscale, freeScale = cString(customScaleName)
		defer freeScale()
	}
	return int32(C.DAQmxCreateAIVoltageChan(d.native(task), cphys, cname,
		C.int32(terminalConfig), C.float64(minVal), C.float64(maxVal), C.int32(units), cscale))
}

// CreateLinScale wraps DAQmxCreateLinScale.
func (d *Driver) CreateLinScale(name string, slope, yIntercept float64, preScaledUnits int32, scaledUnits string) int32 {
	cname, freeName := cString(name)
	defer freeName()
	cunits, freeUnits := cString(scaledUnits)
	defer freeUnits()
	return int32(C.DAQmxCreateLinScale(cname, C.float64(slope), C.float64(yIntercept), C.int32(preScaledUnits), cunits))
}

// GetAIMax wraps DAQmxGetAIMax.
func (d *Driver) GetAIMax(task driver.TaskHandle, channel string, value *float64) int32 {
	cch, free := cString(channel)
	defer free()
	var v C.float64
	code := int32(C.DAQmxGetAIMax(d.native(task), cch, &v))
	*value = float64(v)
	return code
}

// SetAIMax wraps DAQmxSetAIMax.
func (d *Driver) SetAIMax(task driver.TaskHandle, channel string, value float64) int32 {
	cch, free := cString(channel)
	defer free()
	return int32(C.DAQmxSetAIMax(d.native(task), cch, C.float64(value)))
}

// GetAIMin wraps DAQmxGetAIMin.
func (d *Driver) GetAIMin(task driver.TaskHandle, channel string, value *float64) int32 {
	cch, free := cString(channel)
	defer free()
	var v C.float64
	code := int32(C.DAQmxGetAIMin(d.native(task), cch, &v))
	*value = float64(v)
	return code
}

// SetAIMin wraps DAQmxSetAIMin.
func (d *Driver) SetAIMin(task driver.TaskHandle, channel string, value float64) int32 {
	cch, free := cString(channel)
	defer free()
	return int32(C.DAQmxSetAIMin(d.native(task), cch, C.float64(value)))
}

// GetAITermCfg wraps DAQmxGetAITermCfg.
func (d *Driver) GetAITermCfg(task driver.TaskHandle, channel string, value *int32) int32 {
	cch, free := cString(channel)
	defer free()
	var v C.int32
	code := int32(C.DAQmxGetAITermCfg(d.native(task), cch, &v))
	*value = int32(v)
	return code
}

// SetAITermCfg wraps DAQmxSetAITermCfg.
func (d *Driver) SetAITermCfg(task driver.TaskHandle, channel string, value int32) int32 {
	cch, free := cString(channel)
	defer free()
	return int32(C.DAQmxSetAITermCfg(d.native(task), cch, C.int32(value)))
}

// GetAIVoltageUnits wraps DAQmxGetAIVoltageUnits.
func (d *Driver) GetAIVoltageUnits(task driver.TaskHandle, channel string, value *int32) int32 {
	cch, free := cString(channel)
	defer free()
	var v C.int32
	code := int32(C.DAQmxGetAIVoltageUnits(d.native(task), cch, &v))
	*value = int32(v)
	return code
}

// GetAICustomScaleName wraps DAQmxGetAICustomScaleName.
func (d *Driver) GetAICustomScaleName(task driver.TaskHandle, channel string, buf []byte) int32 {
	cch, free := cString(channel)
	defer free()
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetAICustomScaleName(d.native(task), cch, p, n))
}

// GetPhysicalChanName wraps DAQmxGetPhysicalChanName.
func (d *Driver) GetPhysicalChanName(task driver.TaskHandle, channel string, buf []byte) int32 {
	cch, free := cString(channel)
	defer free()
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetPhysicalChanName(d.native(task), cch, p, n))
}

// CfgSampClkTiming wraps DAQmxCfgSampClkTiming.
func (d *Driver) CfgSampClkTiming(
	task driver.TaskHandle,
	source string,
	rate float64,
	activeEdge, sampleMode int32,
	sampsPerChan uint64,
) int32 {
	csrc, free := cString(source)
	defer free()
	return int32(C.DAQmxCfgSampClkTiming(d.native(task), csrc, C.float64(rate),
		C.int32(activeEdge), C.int32(sampleMode), C.uInt64(sampsPerChan)))
}

// GetSampClkRate wraps DAQmxGetSampClkRate.
func (d *Driver) GetSampClkRate(task driver.TaskHandle, rate *float64) int32 {
	var v C.float64
	code := int32(C.DAQmxGetSampClkRate(d.native(task), &v))
	*rate = float64(v)
	return code
}

// StartTask wraps DAQmxStartTask.
func (d *Driver) StartTask(task driver.TaskHandle) int32 {
	return int32(C.DAQmxStartTask(d.native(task)))
}

// StopTask wraps DAQmxStopTask.
func (d *Driver) StopTask(task driver.TaskHandle) int32 {
	return int32(C.DAQmxStopTask(d.native(task)))
}

// WaitUntilTaskDone wraps DAQmxWaitUntilTaskDone.
func (d *Driver) WaitUntilTaskDone(task driver.TaskHandle, timeToWait float64) int32 {
	return int32(C.DAQmxWaitUntilTaskDone(d.native(task), C.float64(timeToWait)))
}

// GetReadAutoStart wraps DAQmxGetReadAutoStart.
func (d *Driver) GetReadAutoStart(task driver.TaskHandle, autoStart *bool) int32 {
	var v C.bool32
	code := int32(C.DAQmxGetReadAutoStart(d.native(task), &v))
	*autoStart = v != 0
	return code
}

// SetReadAutoStart wraps DAQmxSetReadAutoStart.
func (d *Driver) SetReadAutoStart(task driver.TaskHandle, autoStart bool) int32 {
	return int32(C.DAQmxSetReadAutoStart(d.native(task), cBool(autoStart)))
}

// ReadAnalogScalarF64 wraps DAQmxReadAnalogScalarF64.
func (d *Driver) ReadAnalogScalarF64(task driver.TaskHandle, timeout float64, value *float64) int32 {
	var v C.float64
	code := int32(C.DAQmxReadAnalogScalarF64(d.native(task), C.float64(timeout), &v, nil))
	*value = float64(v)
	return code
}

// ReadAnalogF64 wraps DAQmxReadAnalogF64.
func (d *Driver) ReadAnalogF64(
	task driver.TaskHandle,
	numSampsPerChan int32,
	timeout float64,
	fillMode int32,
	readArray []float64,
	sampsPerChanRead *int32,
) int32 {
	var p *C.float64
	if len(readArray) > 0 {
		p = (*C.float64)(unsafe.Pointer(&readArray[0]))
	}
	var n C.int32
	code := int32(C.DAQmxReadAnalogF64(d.native(task), C.int32(numSampsPerChan), C.float64(timeout),
		C.bool32(fillMode), p, C.uInt32(len(readArray)), &n, nil))
	if sampsPerChanRead != nil {
		*sampsPerChanRead = int32(n)
	}
	return code
}

// GetExtendedErrorInfo wraps DAQmxGetExtendedErrorInfo.
func (d *Driver) GetExtendedErrorInfo(buf []byte) int32 {
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetExtendedErrorInfo(p, n))
}

// GetErrorString wraps DAQmxGetErrorString.
func (d *Driver) GetErrorString(code int32, buf []byte) int32 {
	p, n := cBuffer(buf)
	return int32(C.DAQmxGetErrorString(C.int32(code), p, n))
}
