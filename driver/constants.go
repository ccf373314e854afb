package driver

// Status codes the module treats specially. The values match NIDAQmx.h.
const (
	// Success is the status of every call that neither failed nor warned.
	Success int32 = 0

	// ErrorBufferTooSmallForString is returned when a string buffer cannot hold the value.
	ErrorBufferTooSmallForString int32 = -200228
	// WarningStringTruncatedToFitBuffer is returned when a string was cut to fit the buffer.
	WarningStringTruncatedToFitBuffer int32 = 200026

	// ErrorInvalidTask means the handle does not refer to a live task.
	ErrorInvalidTask int32 = -200088
	// ErrorDuplicateTask means a task with the requested name already exists.
	ErrorDuplicateTask int32 = -200089
	// ErrorPhysicalChanDoesNotExist means the physical channel identifier is unknown.
	ErrorPhysicalChanDoesNotExist int32 = -200170
	// ErrorInvalidAttributeValue means a property value is out of range.
	ErrorInvalidAttributeValue int32 = -200077
	// ErrorChanNotInTask means the named channel is not part of the task.
	ErrorChanNotInTask int32 = -200486
	// ErrorCustomScaleDoesNotExist means no scale is registered under the name.
	ErrorCustomScaleDoesNotExist int32 = -200447
	// ErrorDuplicatedChannel means a channel of the same name already exists in the task.
	ErrorDuplicatedChannel int32 = -200489
	// ErrorScaleNameAlreadyExists means a custom scale of the same name is already registered.
	ErrorScaleNameAlreadyExists int32 = -200356
	// ErrorSamplesNotYetAvailable is returned by reads that time out.
	ErrorSamplesNotYetAvailable int32 = -200284
	// ErrorWaitUntilDoneDoesNotIndicateDone is returned when WaitUntilTaskDone times out.
	ErrorWaitUntilDoneDoesNotIndicateDone int32 = -200560
	// ErrorReadNotRunningNoAutoStart is returned by reads on a stopped, hardware-timed task that
	// read auto start does not apply to: it is disabled, or the task was started explicitly.
	ErrorReadNotRunningNoAutoStart int32 = -200473
	// ErrorOperationAborted is returned by a read in flight when another thread stops the task.
	ErrorOperationAborted int32 = -88709
	// ErrorNoChansInTask is returned when reading or starting a task with no channels.
	ErrorNoChansInTask int32 = -200477
	// ErrorInvalidTiming is returned for impossible timing configurations.
	ErrorInvalidTiming int32 = -200081
	// ErrorInvalidWhileTaskRunning is returned for configuration calls on a running task.
	ErrorInvalidWhileTaskRunning int32 = -200479
	// ErrorReadBeyondFinalSample is returned when a finite acquisition has no samples left.
	ErrorReadBeyondFinalSample int32 = -200278
	// ErrorScalarReadMultipleChans is returned by scalar reads on a task with several channels.
	ErrorScalarReadMultipleChans int32 = -200523
)

// Terminal configuration codes.
const (
	ValCfgDefault int32 = -1
	ValRSE        int32 = 10083
	ValNRSE       int32 = 10078
	ValDiff       int32 = 10106
	ValPseudoDiff int32 = 12529
)

// Unit codes shared by channels and scales.
const (
	ValVolts                  int32 = 10348
	ValAmps                   int32 = 10342
	ValDegF                   int32 = 10144
	ValDegC                   int32 = 10143
	ValDegR                   int32 = 10145
	ValKelvins                int32 = 10325
	ValStrain                 int32 = 10299
	ValOhms                   int32 = 10384
	ValHz                     int32 = 10373
	ValSeconds                int32 = 10364
	ValMeters                 int32 = 10219
	ValInches                 int32 = 10379
	ValDegrees                int32 = 10146
	ValRadians                int32 = 10273
	ValG                      int32 = 10186
	ValMetersPerSecondSquared int32 = 12470
	ValNewtons                int32 = 15875
	ValPounds                 int32 = 15876
	ValPoundsPerSquareInch    int32 = 15879
	ValBar                    int32 = 15880
	ValPascals                int32 = 10081
	ValVoltsPerVolt           int32 = 15896
	ValMilliVoltsPerVolt      int32 = 15897
	ValNewtonMeters           int32 = 15881
	ValInchOunces             int32 = 15882
	ValInchPounds             int32 = 15883
	ValFootPounds             int32 = 15884
	ValFromTEDS               int32 = 12516
	ValFromCustomScale        int32 = 10065
)

// Sample clock edges and modes.
const (
	ValRising  int32 = 10280
	ValFalling int32 = 10171

	ValFiniteSamps        int32 = 10178
	ValContSamps          int32 = 10123
	ValHWTimedSinglePoint int32 = 12522
)

// Read fill modes.
const (
	ValGroupByChannel    int32 = 0
	ValGroupByScanNumber int32 = 1
)

// Sentinels.
const (
	// ValWaitInfinitely as a timeout blocks until the operation completes.
	ValWaitInfinitely float64 = -1.0
	// ValReadAll as samples per channel reads everything available.
	ValReadAll int32 = -1
	// OnboardClock names the device's internal sample clock.
	OnboardClock = "OnboardClock"
	// ErrorBufferSize is the fixed buffer size for error text.
	ErrorBufferSize = 2048
)
