package task

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/driver"
)

// ReadAll as a sample count reads everything available. For a finite acquisition that means
// blocking until the whole acquisition is in; for a continuous one it drains whatever is buffered.
const ReadAll = -1

// Timeout bounds how long a blocking call may wait.
type Timeout struct {
	seconds float64
}

var (
	// WaitForever blocks until the operation completes or the task is stopped.
	WaitForever = Timeout{seconds: driver.ValWaitInfinitely}
	// NoWait returns immediately.
	NoWait = Timeout{}
)

// Seconds waits up to s seconds. Negative and NaN values mean NoWait; +Inf means WaitForever.
func Seconds(s float64) Timeout {
	switch {
	case math.IsInf(s, 1):
		return WaitForever
	case math.IsNaN(s) || s < 0:
		return NoWait
	}
	return Timeout{seconds: s}
}

// FromDuration waits up to d.
func FromDuration(d time.Duration) Timeout {
	return Seconds(d.Seconds())
}

// Value is the timeout as the driver expects it.
func (t Timeout) Value() float64 {
	return t.seconds
}

func (t Timeout) String() string {
	switch t {
	case WaitForever:
		return "forever"
	case NoWait:
		return "no wait"
	}
	return fmt.Sprintf("%gs", t.seconds)
}

// ClockEdge selects which edge of the sample clock acquires a sample.
type ClockEdge int32

// Clock edges.
const (
	Rising  = ClockEdge(driver.ValRising)
	Falling = ClockEdge(driver.ValFalling)
)

func (e ClockEdge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return fmt.Sprintf("ClockEdge(%d)", int32(e))
}

// ClockEdgeFromString parses "rising" or "falling".
func ClockEdgeFromString(s string) (ClockEdge, error) {
	switch strings.ToLower(s) {
	case "rising", "":
		return Rising, nil
	case "falling":
		return Falling, nil
	}
	return 0, errors.Errorf("unknown clock edge %q", s)
}

// SampleMode selects how many samples a hardware-timed task acquires.
type SampleMode int32

// Sample modes.
const (
	FiniteSamples            = SampleMode(driver.ValFiniteSamps)
	ContinuousSamples        = SampleMode(driver.ValContSamps)
	HardwareTimedSinglePoint = SampleMode(driver.ValHWTimedSinglePoint)
)

func (m SampleMode) String() string {
	switch m {
	case FiniteSamples:
		return "finite"
	case ContinuousSamples:
		return "continuous"
	case HardwareTimedSinglePoint:
		return "hw_timed_single_point"
	}
	return fmt.Sprintf("SampleMode(%d)", int32(m))
}

// SampleModeFromString parses the names returned by SampleMode.String.
func SampleModeFromString(s string) (SampleMode, error) {
	switch strings.ToLower(s) {
	case "finite":
		return FiniteSamples, nil
	case "continuous":
		return ContinuousSamples, nil
	case "hw_timed_single_point":
		return HardwareTimedSinglePoint, nil
	}
	return 0, errors.Errorf("unknown sample mode %q", s)
}

// DataFillMode selects how samples from several channels are laid out in a read buffer.
type DataFillMode int32

// Fill modes. GroupByChannel stores all samples of the first channel, then all of the second;
// GroupByScanNumber interleaves one sample of every channel per scan.
const (
	GroupByChannel    = DataFillMode(driver.ValGroupByChannel)
	GroupByScanNumber = DataFillMode(driver.ValGroupByScanNumber)
)

func (m DataFillMode) String() string {
	switch m {
	case GroupByChannel:
		return "by_channel"
	case GroupByScanNumber:
		return "by_scan_number"
	}
	return fmt.Sprintf("DataFillMode(%d)", int32(m))
}

// DataFillModeFromString parses the names returned by DataFillMode.String.
func DataFillModeFromString(s string) (DataFillMode, error) {
	switch strings.ToLower(s) {
	case "by_channel", "":
		return GroupByChannel, nil
	case "by_scan_number":
		return GroupByScanNumber, nil
	}
	return 0, errors.Errorf("unknown fill mode %q", s)
}
