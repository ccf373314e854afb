package fake

import (
	"math"
	"time"

	"go.viam.com/daqmx/driver"
)

// samplesPerPeriod is the period of the simulated waveform, in samples.
const samplesPerPeriod = 50

type channel struct {
	name           string
	physical       string
	terminalConfig int32
	min, max       float64
	units          int32
	scaleName      string
}

// sample returns the simulated value of the channel at index k. Channels are phase shifted by
// their position in the task so that interleaving mistakes show up in tests.
func (ch *channel) sample(position int, k uint64) float64 {
	mid := (ch.min + ch.max) / 2
	amp := (ch.max - ch.min) / 4
	return mid + amp*math.Sin(2*math.Pi*float64(k)/samplesPerPeriod+float64(position))
}

type timing struct {
	rate         float64
	edge         int32
	mode         int32
	sampsPerChan uint64
}

type task struct {
	name      string
	channels  []*channel
	timing    *timing
	autoStart bool

	// explicit is set once StartTask has been called. Read auto start only applies to tasks
	// that were never started explicitly.
	explicit  bool
	running   bool
	startedAt time.Time
	consumed  uint64
	abort     chan struct{}
}

func newTask(name string) *task {
	return &task{name: name, autoStart: true}
}

func (t *task) channelNamed(name string) *channel {
	for _, ch := range t.channels {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

func (t *task) startLocked(now time.Time) {
	t.running = true
	t.startedAt = now
	t.consumed = 0
	t.abort = make(chan struct{})
}

func (t *task) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	close(t.abort)
	t.abort = nil
}

func (t *task) finite() bool {
	return t.timing != nil && t.timing.mode == driver.ValFiniteSamps
}

// acquiredLocked returns the samples per channel the hardware has acquired since the task started.
func (t *task) acquiredLocked(now time.Time) uint64 {
	elapsed := now.Sub(t.startedAt).Seconds()
	if elapsed < 0 {
		return 0
	}
	n := uint64(math.Floor(elapsed*t.timing.rate + 1e-9))
	if t.finite() && n > t.timing.sampsPerChan {
		n = t.timing.sampsPerChan
	}
	return n
}

// arrivalLocked returns when the n-th sample per channel will have been acquired.
func (t *task) arrivalLocked(n uint64) time.Time {
	return t.startedAt.Add(timeToAcquire(n, t.timing.rate))
}

// doneAtLocked returns when a finite acquisition completes.
func (t *task) doneAtLocked() time.Time {
	return t.arrivalLocked(t.timing.sampsPerChan)
}

// requestLocked resolves how many samples per channel a read must return.
func (d *Driver) requestLocked(t *task, numSampsPerChan int32, capacity int, now time.Time) (uint64, int32) {
	var requested uint64
	readAll := numSampsPerChan == driver.ValReadAll
	switch {
	case !readAll && numSampsPerChan < 0:
		return 0, d.fail(driver.ErrorInvalidAttributeValue,
			"Requested value is not a supported value for this property.\nProperty: Read.NumSampsPerChan\nRequested Value: %d",
			numSampsPerChan)
	case t.timing == nil:
		requested = 1
		if !readAll {
			requested = uint64(numSampsPerChan)
		}
	case t.finite():
		remaining := t.timing.sampsPerChan - t.consumed
		if remaining == 0 {
			return 0, d.fail(driver.ErrorReadBeyondFinalSample,
				"Attempted to read beyond the final sample acquired.\nTask Name: %s", t.name)
		}
		requested = remaining
		if !readAll {
			if uint64(numSampsPerChan) > remaining {
				return 0, d.fail(driver.ErrorReadBeyondFinalSample,
					"Attempted to read beyond the final sample acquired.\nTask Name: %s\nSamples Remaining: %d", t.name, remaining)
			}
			requested = uint64(numSampsPerChan)
		}
	default:
		requested = t.acquiredLocked(now) - t.consumed
		if !readAll {
			requested = uint64(numSampsPerChan)
		}
	}
	// only what fits in the read array is read
	if requested > uint64(capacity) {
		requested = uint64(capacity)
	}
	return requested, driver.Success
}

// ReadAnalogScalarF64 reads one sample from a task with exactly one channel.
func (d *Driver) ReadAnalogScalarF64(h driver.TaskHandle, timeout float64, value *float64) int32 {
	return d.call("ReadAnalogScalarF64", func() int32 {
		var buf [1]float64
		_, code := d.read(h, 1, timeout, driver.ValGroupByChannel, buf[:], true)
		if code == driver.Success {
			*value = buf[0]
		}
		return code
	})
}

// ReadAnalogF64 reads samples into readArray, blocking up to timeout seconds for them to arrive.
func (d *Driver) ReadAnalogF64(
	h driver.TaskHandle,
	numSampsPerChan int32,
	timeout float64,
	fillMode int32,
	readArray []float64,
	sampsPerChanRead *int32,
) int32 {
	return d.call("ReadAnalogF64", func() int32 {
		n, code := d.read(h, numSampsPerChan, timeout, fillMode, readArray, false)
		if sampsPerChanRead != nil {
			*sampsPerChanRead = int32(n)
		}
		return code
	})
}

func (d *Driver) read(h driver.TaskHandle, numSampsPerChan int32, timeout float64, fillMode int32, buf []float64, scalar bool) (int, int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, code := d.lookupLocked(h)
	if code != driver.Success {
		return 0, code
	}
	if fillMode != driver.ValGroupByChannel && fillMode != driver.ValGroupByScanNumber {
		return 0, d.fail(driver.ErrorInvalidAttributeValue,
			"Requested value is not a supported value for this property.\nProperty: FillMode\nRequested Value: %d", fillMode)
	}
	nChans := len(t.channels)
	if nChans == 0 {
		return 0, d.fail(driver.ErrorNoChansInTask, "Task contains no channels.\nTask Name: %s", t.name)
	}
	if scalar && nChans > 1 {
		return 0, d.fail(driver.ErrorScalarReadMultipleChans,
			"Scalar reads require exactly one channel in the task.\nTask Name: %s\nNumber of Channels: %d", t.name, nChans)
	}

	implicit := false
	if !t.running {
		if t.timing != nil && (!t.autoStart || t.explicit) {
			return 0, d.fail(driver.ErrorReadNotRunningNoAutoStart,
				"Read cannot be performed because the task is not running and read auto start does not apply.\nTask Name: %s", t.name)
		}
		t.startLocked(d.clock.Now())
		implicit = true
	}

	now := d.clock.Now()
	requested, code := d.requestLocked(t, numSampsPerChan, len(buf)/nChans, now)
	if code != driver.Success {
		if implicit {
			t.stopLocked()
		}
		return 0, code
	}

	if t.timing != nil {
		deadline := now.Add(secondsToDuration(timeout))
		for t.acquiredLocked(now) < t.consumed+requested {
			if timeout == 0 || (timeout > 0 && !now.Before(deadline)) {
				if implicit {
					t.stopLocked()
				}
				return 0, d.fail(driver.ErrorSamplesNotYetAvailable,
					"Some or all of the samples requested have not yet been acquired.\nTask Name: %s\nTimeout: %g", t.name, timeout)
			}
			wait := t.arrivalLocked(t.consumed + requested).Sub(now)
			if timeout > 0 && deadline.Sub(now) < wait {
				wait = deadline.Sub(now)
			}
			if !d.sleepLocked(wait, t.abort) {
				return 0, d.fail(driver.ErrorOperationAborted,
					"Application has requested abort of the operation.\nTask Name: %s", t.name)
			}
			now = d.clock.Now()
		}
	}

	for s := uint64(0); s < requested; s++ {
		for i, ch := range t.channels {
			v := ch.sample(i, t.consumed+s)
			if fillMode == driver.ValGroupByChannel {
				buf[uint64(i)*requested+s] = v
			} else {
				buf[s*uint64(nChans)+uint64(i)] = v
			}
		}
	}
	t.consumed += requested
	if implicit {
		t.stopLocked()
	}
	return int(requested), driver.Success
}

// sleepLocked releases the driver lock for wait, or forever when wait is negative. It returns
// false when abort closed in the meantime.
func (d *Driver) sleepLocked(wait time.Duration, abort chan struct{}) bool {
	if wait == 0 {
		wait = time.Nanosecond
	}
	d.waiters++
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.waiters--
	}()
	if wait < 0 {
		<-abort
		return false
	}
	select {
	case <-d.clock.After(wait):
	case <-abort:
		return false
	}
	select {
	case <-abort:
		return false
	default:
		return true
	}
}

// WaitUntilTaskDone blocks until a finite acquisition completes or timeToWait seconds pass.
// Software timed and stopped tasks are always done; continuous ones never are.
func (d *Driver) WaitUntilTaskDone(h driver.TaskHandle, timeToWait float64) int32 {
	return d.call("WaitUntilTaskDone", func() int32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		t, code := d.lookupLocked(h)
		if code != driver.Success {
			return code
		}
		if !t.running || t.timing == nil {
			return driver.Success
		}
		now := d.clock.Now()
		deadline := now.Add(secondsToDuration(timeToWait))
		for {
			if t.finite() && !now.Before(t.doneAtLocked()) {
				return driver.Success
			}
			if timeToWait == 0 || (timeToWait > 0 && !now.Before(deadline)) {
				return d.fail(driver.ErrorWaitUntilDoneDoesNotIndicateDone,
					"Wait Until Done did not indicate all samples were acquired in the time allotted.\nTask Name: %s", t.name)
			}
			wait := time.Duration(-1)
			if t.finite() {
				wait = t.doneAtLocked().Sub(now)
			}
			if timeToWait > 0 && (wait < 0 || deadline.Sub(now) < wait) {
				wait = deadline.Sub(now)
			}
			if !d.sleepLocked(wait, t.abort) {
				// stopped or cleared while waiting
				return driver.Success
			}
			now = d.clock.Now()
		}
	})
}

// Waiters returns how many reads and waits are currently blocked.
func (d *Driver) Waiters() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiters
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
