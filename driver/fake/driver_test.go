package fake

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/daqmx/driver"
)

func newTaskWithChannel(t *testing.T, d *Driver, name string, chans ...string) driver.TaskHandle {
	t.Helper()
	var h driver.TaskHandle
	test.That(t, d.CreateTask(name, &h), test.ShouldEqual, driver.Success)
	for _, ch := range chans {
		code := d.CreateAIVoltageChan(h, ch, "", driver.ValCfgDefault, -10, 10, driver.ValVolts, "")
		test.That(t, code, test.ShouldEqual, driver.Success)
	}
	return h
}

func readString(t *testing.T, fetch func([]byte) int32) string {
	t.Helper()
	size := fetch(nil)
	test.That(t, size, test.ShouldBeGreaterThan, 0)
	buf := make([]byte, size)
	test.That(t, fetch(buf), test.ShouldEqual, driver.Success)
	return string(bytes.TrimRight(buf, "\x00"))
}

func TestCreateTask(t *testing.T) {
	d := New()

	h := newTaskWithChannel(t, d, "")
	test.That(t, readString(t, func(b []byte) int32 { return d.GetTaskName(h, b) }), test.ShouldEqual, "_unnamedTask<0>")

	h2 := newTaskWithChannel(t, d, "")
	test.That(t, h2, test.ShouldNotEqual, h)
	test.That(t, readString(t, func(b []byte) int32 { return d.GetTaskName(h2, b) }), test.ShouldEqual, "_unnamedTask<1>")

	var h3 driver.TaskHandle
	test.That(t, d.CreateTask("bench", &h3), test.ShouldEqual, driver.Success)
	test.That(t, d.CreateTask("bench", &h3), test.ShouldEqual, driver.ErrorDuplicateTask)
	test.That(t, d.NumTasks(), test.ShouldEqual, 3)

	test.That(t, d.ClearTask(h3), test.ShouldEqual, driver.Success)
	test.That(t, d.ClearTask(h3), test.ShouldEqual, driver.ErrorInvalidTask)
	test.That(t, d.Cleared(h3), test.ShouldEqual, 1)
	test.That(t, d.NumTasks(), test.ShouldEqual, 2)

	// name is free again once the task is cleared
	test.That(t, d.CreateTask("bench", &h3), test.ShouldEqual, driver.Success)
}

func TestCreateAIVoltageChan(t *testing.T) {
	d := New()
	h := newTaskWithChannel(t, d, "t")

	code := d.CreateAIVoltageChan(h, "Dev1/ai0", "ai0", driver.ValRSE, -5, 5, driver.ValVolts, "")
	test.That(t, code, test.ShouldEqual, driver.Success)
	code = d.CreateAIVoltageChan(h, "Dev1/ai1", "ai0", driver.ValRSE, -5, 5, driver.ValVolts, "")
	test.That(t, code, test.ShouldEqual, driver.ErrorDuplicatedChannel)
	code = d.CreateAIVoltageChan(h, "Dev1/ao0", "", driver.ValRSE, -5, 5, driver.ValVolts, "")
	test.That(t, code, test.ShouldEqual, driver.ErrorPhysicalChanDoesNotExist)
	code = d.CreateAIVoltageChan(h, "Dev1/ai1", "", driver.ValRSE, 5, -5, driver.ValVolts, "")
	test.That(t, code, test.ShouldEqual, driver.ErrorInvalidAttributeValue)
	code = d.CreateAIVoltageChan(h, "Dev1/ai1", "", 42, -5, 5, driver.ValVolts, "")
	test.That(t, code, test.ShouldEqual, driver.ErrorInvalidAttributeValue)
	code = d.CreateAIVoltageChan(h, "Dev1/ai1", "", driver.ValRSE, -5, 5, driver.ValFromCustomScale, "missing")
	test.That(t, code, test.ShouldEqual, driver.ErrorCustomScaleDoesNotExist)

	test.That(t, d.CreateLinScale("double", 2, 0, driver.ValVolts, "V2"), test.ShouldEqual, driver.Success)
	test.That(t, d.CreateLinScale("double", 2, 0, driver.ValVolts, "V2"), test.ShouldEqual, driver.ErrorScaleNameAlreadyExists)
	code = d.CreateAIVoltageChan(h, "Dev1/ai1", "", driver.ValRSE, -5, 5, driver.ValFromCustomScale, "double")
	test.That(t, code, test.ShouldEqual, driver.Success)

	var count uint32
	test.That(t, d.GetTaskNumChans(h, &count), test.ShouldEqual, driver.Success)
	test.That(t, count, test.ShouldEqual, 2)
	test.That(t, readString(t, func(b []byte) int32 { return d.GetTaskChannels(h, b) }), test.ShouldEqual, "ai0, Dev1/ai1")
	test.That(t,
		readString(t, func(b []byte) int32 { return d.GetAICustomScaleName(h, "Dev1/ai1", b) }),
		test.ShouldEqual, "double")
	test.That(t,
		readString(t, func(b []byte) int32 { return d.GetPhysicalChanName(h, "ai0", b) }),
		test.ShouldEqual, "Dev1/ai0")
}

func TestChannelProperties(t *testing.T) {
	d := New()
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")

	var v float64
	test.That(t, d.GetAIMax(h, "Dev1/ai0", &v), test.ShouldEqual, driver.Success)
	test.That(t, v, test.ShouldEqual, 10)
	test.That(t, d.SetAIMax(h, "Dev1/ai0", 2.5), test.ShouldEqual, driver.Success)
	test.That(t, d.GetAIMax(h, "Dev1/ai0", &v), test.ShouldEqual, driver.Success)
	test.That(t, v, test.ShouldEqual, 2.5)
	test.That(t, d.SetAIMin(h, "Dev1/ai0", 3), test.ShouldEqual, driver.ErrorInvalidAttributeValue)
	test.That(t, d.GetAIMin(h, "nope", &v), test.ShouldEqual, driver.ErrorChanNotInTask)

	var cfg int32
	test.That(t, d.SetAITermCfg(h, "Dev1/ai0", driver.ValDiff), test.ShouldEqual, driver.Success)
	test.That(t, d.GetAITermCfg(h, "Dev1/ai0", &cfg), test.ShouldEqual, driver.Success)
	test.That(t, cfg, test.ShouldEqual, driver.ValDiff)

	// an empty scale name still has room for the terminator
	test.That(t, d.GetAICustomScaleName(h, "Dev1/ai0", nil), test.ShouldEqual, 1)
	// a non-empty buffer that is too small is an error
	test.That(t, d.GetPhysicalChanName(h, "Dev1/ai0", make([]byte, 3)), test.ShouldEqual, driver.ErrorBufferTooSmallForString)
}

func TestFailNext(t *testing.T) {
	d := New()
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")

	d.FailNext("SetAIMax", driver.ErrorInvalidAttributeValue)
	test.That(t, d.SetAIMax(h, "Dev1/ai0", 1), test.ShouldEqual, driver.ErrorInvalidAttributeValue)
	var v float64
	test.That(t, d.GetAIMax(h, "Dev1/ai0", &v), test.ShouldEqual, driver.Success)
	test.That(t, v, test.ShouldEqual, 10)

	d.FailNext("SetAIMax", 0, driver.WarningStringTruncatedToFitBuffer)
	test.That(t, d.SetAIMax(h, "Dev1/ai0", 1), test.ShouldEqual, driver.Success)
	test.That(t, d.SetAIMax(h, "Dev1/ai0", 2), test.ShouldEqual, driver.WarningStringTruncatedToFitBuffer)
	test.That(t, d.GetAIMax(h, "Dev1/ai0", &v), test.ShouldEqual, driver.Success)
	test.That(t, v, test.ShouldEqual, 2)

	buf := make([]byte, driver.ErrorBufferSize)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	d.FailNext("StartTask", driver.ErrorInvalidTiming)
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.ErrorInvalidTiming)
	test.That(t, d.GetExtendedErrorInfo(buf), test.ShouldEqual, driver.Success)
	test.That(t, string(bytes.TrimRight(buf, "\x00")), test.ShouldContainSubstring, "StartTask")

	d.SetNextErrorText([]byte{0xff, 0xfe})
	test.That(t, d.GetErrorString(driver.ErrorInvalidTask, buf), test.ShouldEqual, driver.Success)
	test.That(t, buf[:3], test.ShouldResemble, []byte{0xff, 0xfe, 0})
	test.That(t, d.GetErrorString(driver.ErrorInvalidTask, buf), test.ShouldEqual, driver.Success)
	test.That(t, string(bytes.TrimRight(buf, "\x00")), test.ShouldEqual, ErrorString(driver.ErrorInvalidTask))
}

func TestOnDemandRead(t *testing.T) {
	d := New()
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")

	var v float64
	test.That(t, d.ReadAnalogScalarF64(h, 10, &v), test.ShouldEqual, driver.Success)
	test.That(t, v, test.ShouldBeBetweenOrEqual, -10, 10)

	buf := make([]float64, 4)
	var n int32
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 10, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 1)

	test.That(t, d.CreateAIVoltageChan(h, "Dev1/ai1", "", driver.ValCfgDefault, -1, 1, driver.ValVolts, ""),
		test.ShouldEqual, driver.Success)
	test.That(t, d.ReadAnalogScalarF64(h, 10, &v), test.ShouldEqual, driver.ErrorScalarReadMultipleChans)

	empty := newTaskWithChannel(t, d, "empty")
	test.That(t, d.ReadAnalogScalarF64(empty, 10, &v), test.ShouldEqual, driver.ErrorNoChansInTask)
	test.That(t, d.StartTask(empty), test.ShouldEqual, driver.ErrorNoChansInTask)
}

func TestFiniteRead(t *testing.T) {
	mock := clock.NewMock()
	d := New(WithClock(mock))
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0", "Dev1/ai1")

	test.That(t, d.CfgSampClkTiming(h, "", 0, driver.ValRising, driver.ValFiniteSamps, 100), test.ShouldEqual, driver.ErrorInvalidTiming)
	test.That(t, d.CfgSampClkTiming(h, "PFI0", 1000, driver.ValRising, driver.ValFiniteSamps, 100), test.ShouldEqual, driver.ErrorInvalidTiming)
	test.That(t, d.CfgSampClkTiming(h, driver.OnboardClock, 1000, driver.ValRising, driver.ValFiniteSamps, 100),
		test.ShouldEqual, driver.Success)
	var rate float64
	test.That(t, d.GetSampClkRate(h, &rate), test.ShouldEqual, driver.Success)
	test.That(t, rate, test.ShouldEqual, 1000)

	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)
	test.That(t, d.CfgSampClkTiming(h, "", 10, driver.ValRising, driver.ValFiniteSamps, 100), test.ShouldEqual, driver.ErrorInvalidWhileTaskRunning)
	test.That(t, d.WaitUntilTaskDone(h, 0), test.ShouldEqual, driver.ErrorWaitUntilDoneDoesNotIndicateDone)

	buf := make([]float64, 200)
	var n int32
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByScanNumber, buf, &n), test.ShouldEqual, driver.ErrorSamplesNotYetAvailable)
	test.That(t, n, test.ShouldEqual, 0)

	mock.Add(time.Second)
	test.That(t, d.WaitUntilTaskDone(h, 0), test.ShouldEqual, driver.Success)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByScanNumber, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 100)
	ch0 := &channel{min: -10, max: 10}
	test.That(t, buf[0], test.ShouldAlmostEqual, ch0.sample(0, 0))
	test.That(t, buf[1], test.ShouldAlmostEqual, ch0.sample(1, 0))
	test.That(t, buf[2], test.ShouldAlmostEqual, ch0.sample(0, 1))

	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByScanNumber, buf, &n), test.ShouldEqual, driver.ErrorReadBeyondFinalSample)
	test.That(t, d.StopTask(h), test.ShouldEqual, driver.Success)
}

func TestGroupByChannel(t *testing.T) {
	mock := clock.NewMock()
	d := New(WithClock(mock))
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0", "Dev1/ai1")
	test.That(t, d.CfgSampClkTiming(h, "", 100, driver.ValRising, driver.ValContSamps, 10), test.ShouldEqual, driver.Success)
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)
	mock.Add(100 * time.Millisecond)

	buf := make([]float64, 6)
	var n int32
	test.That(t, d.ReadAnalogF64(h, 3, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 3)
	ch := &channel{min: -10, max: 10}
	test.That(t, buf[1], test.ShouldAlmostEqual, ch.sample(0, 1))
	test.That(t, buf[3], test.ShouldAlmostEqual, ch.sample(1, 0))

	test.That(t, d.ReadAnalogF64(h, 3, 0, 7, buf, &n), test.ShouldEqual, driver.ErrorInvalidAttributeValue)

	// only what fits is read
	test.That(t, d.ReadAnalogF64(h, 4, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 3)

	// continuous read-all returns only what has been acquired and not yet read
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 3)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 1)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 0)
}

func TestReadAutoStart(t *testing.T) {
	mock := clock.NewMock()
	d := New(WithClock(mock))
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")
	test.That(t, d.CfgSampClkTiming(h, "", 1000, driver.ValRising, driver.ValFiniteSamps, 10), test.ShouldEqual, driver.Success)

	var autoStart bool
	test.That(t, d.GetReadAutoStart(h, &autoStart), test.ShouldEqual, driver.Success)
	test.That(t, autoStart, test.ShouldBeTrue)
	test.That(t, d.SetReadAutoStart(h, false), test.ShouldEqual, driver.Success)

	buf := make([]float64, 10)
	var n int32
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 1, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.ErrorReadNotRunningNoAutoStart)

	// an implicit start runs the acquisition for the read and stops it again
	test.That(t, d.SetReadAutoStart(h, true), test.ShouldEqual, driver.Success)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.ErrorSamplesNotYetAvailable)
	test.That(t, d.WaitUntilTaskDone(h, 0), test.ShouldEqual, driver.Success)

	// auto start never restarts a task that was started explicitly
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)
	mock.Add(time.Second)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 0, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.Success)
	test.That(t, n, test.ShouldEqual, 10)
	test.That(t, d.StopTask(h), test.ShouldEqual, driver.Success)
	test.That(t, d.ReadAnalogF64(h, driver.ValReadAll, 1, driver.ValGroupByChannel, buf, &n), test.ShouldEqual, driver.ErrorReadNotRunningNoAutoStart)
}

func TestStopAbortsRead(t *testing.T) {
	mock := clock.NewMock()
	d := New(WithClock(mock))
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")
	test.That(t, d.CfgSampClkTiming(h, "", 10, driver.ValRising, driver.ValContSamps, 1000), test.ShouldEqual, driver.Success)
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)

	result := make(chan int32, 1)
	go func() {
		buf := make([]float64, 1000)
		var n int32
		result <- d.ReadAnalogF64(h, 1000, driver.ValWaitInfinitely, driver.ValGroupByChannel, buf, &n)
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, d.Waiters(), test.ShouldEqual, 1)
	})
	mock.Add(time.Second)
	test.That(t, len(result), test.ShouldEqual, 0)

	test.That(t, d.StopTask(h), test.ShouldEqual, driver.Success)
	select {
	case code := <-result:
		test.That(t, code, test.ShouldEqual, driver.ErrorOperationAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("read did not return after stop")
	}
}

func TestWaitUntilTaskDone(t *testing.T) {
	mock := clock.NewMock()
	d := New(WithClock(mock))
	h := newTaskWithChannel(t, d, "t", "Dev1/ai0")

	// software timed tasks are always done
	test.That(t, d.WaitUntilTaskDone(h, 0), test.ShouldEqual, driver.Success)

	test.That(t, d.CfgSampClkTiming(h, "", 1000, driver.ValFalling, driver.ValFiniteSamps, 500), test.ShouldEqual, driver.Success)
	test.That(t, d.StartTask(h), test.ShouldEqual, driver.Success)

	done := make(chan int32, 1)
	go func() {
		done <- d.WaitUntilTaskDone(h, driver.ValWaitInfinitely)
	}()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mock.Add(100 * time.Millisecond)
		test.That(tb, len(done), test.ShouldEqual, 1)
	})
	test.That(t, <-done, test.ShouldEqual, driver.Success)
}

func TestErrorTextPerThread(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("thread ids are only tracked on linux")
	}
	d := New()
	h := newTaskWithChannel(t, d, "", "Dev1/ai0")
	var empty driver.TaskHandle
	test.That(t, d.CreateTask("empty", &empty), test.ShouldEqual, driver.Success)

	failed := make(chan struct{})
	other := make(chan string)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		var v float64
		d.GetAIMax(h, "nope", &v)
		close(failed)
		buf := make([]byte, driver.ErrorBufferSize)
		<-other
		d.GetExtendedErrorInfo(buf)
		other <- string(bytes.TrimRight(buf, "\x00"))
	}()

	<-failed
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	test.That(t, d.StartTask(empty), test.ShouldEqual, driver.ErrorNoChansInTask)
	other <- ""
	text := <-other
	test.That(t, text, test.ShouldContainSubstring, "Channel specified is not in the task")

	buf := make([]byte, driver.ErrorBufferSize)
	test.That(t, d.GetExtendedErrorInfo(buf), test.ShouldEqual, driver.Success)
	test.That(t, string(bytes.TrimRight(buf, "\x00")), test.ShouldContainSubstring, "Task contains no channels")
}
