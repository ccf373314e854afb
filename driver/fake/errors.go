package fake

import (
	"fmt"

	"go.viam.com/daqmx/driver"
)

var errorStrings = map[int32]string{
	driver.ErrorBufferTooSmallForString:          "Buffer is too small to fit the string.",
	driver.WarningStringTruncatedToFitBuffer:     "String has been truncated to fit into the buffer.",
	driver.ErrorInvalidTask:                      "Task specified is invalid or does not exist.",
	driver.ErrorDuplicateTask:                    "Task cannot be created because a task with this name already exists.",
	driver.ErrorPhysicalChanDoesNotExist:         "Physical channel specified does not exist on this device.",
	driver.ErrorInvalidAttributeValue:            "Requested value is not a supported value for this property.",
	driver.ErrorChanNotInTask:                    "Channel specified is not in the task.",
	driver.ErrorCustomScaleDoesNotExist:          "Custom scale specified does not exist.",
	driver.ErrorDuplicatedChannel:                "Channel name specified is already used in the task.",
	driver.ErrorScaleNameAlreadyExists:           "Custom scale cannot be created because a scale with this name already exists.",
	driver.ErrorSamplesNotYetAvailable:           "Some or all of the samples requested have not yet been acquired.",
	driver.ErrorWaitUntilDoneDoesNotIndicateDone: "Wait Until Done did not indicate all samples were acquired in the time allotted.",
	driver.ErrorReadNotRunningNoAutoStart:        "Read cannot be performed because the task is not running and read auto start does not apply.",
	driver.ErrorOperationAborted:                 "Application has requested abort of the operation.",
	driver.ErrorNoChansInTask:                    "Task contains no channels.",
	driver.ErrorInvalidTiming:                    "Timing configuration is invalid for this device.",
	driver.ErrorInvalidWhileTaskRunning:          "Specified operation cannot be performed while the task is running.",
	driver.ErrorReadBeyondFinalSample:            "Attempted to read beyond the final sample acquired.",
	driver.ErrorScalarReadMultipleChans:          "Scalar reads require exactly one channel in the task.",
}

// ErrorString returns the short description the simulated device reports for code.
func ErrorString(code int32) string {
	if s, ok := errorStrings[code]; ok {
		return s
	}
	if code == driver.Success {
		return ""
	}
	return fmt.Sprintf("Unknown status code %d.", code)
}
