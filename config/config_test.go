package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/daqmx/channels"
	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/driver/fake"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/scales"
	"go.viam.com/daqmx/status"
	"go.viam.com/daqmx/task"
)

const exampleConfig = `
// bench setup
{
	scales: [
		{name: "psi", slope: 25, intercept: -12.5, scaled_units: "psi"},
	],
	tasks: [
		{
			name: "pressure",
			channels: [
				{physical_channel: "Dev1/ai0", name: "inlet", min: -10, max: 10, custom_scale: "psi"},
				{physical_channel: "Dev1/ai1", terminal_config: "rse"},
			],
			timing: {rate_hz: 1000, mode: "finite", samples_per_channel: 100},
			read_auto_start: false,
		},
		{name: "single", channels: [{physical_channel: "Dev1/ai2"}]},
	],
	log: [{pattern: "bench.task.*", level: "warn"}],
}
`

func TestFromReader(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(exampleConfig))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Scales, test.ShouldHaveLength, 1)
	test.That(t, cfg.Scales[0].Slope, test.ShouldEqual, 25)
	test.That(t, cfg.Tasks, test.ShouldHaveLength, 2)
	test.That(t, cfg.Tasks[0].Channels[0].CustomScale, test.ShouldEqual, "psi")
	test.That(t, *cfg.Tasks[0].Channels[0].Min, test.ShouldEqual, -10)
	test.That(t, cfg.Tasks[0].Channels[1].Min, test.ShouldBeNil)
	test.That(t, *cfg.Tasks[0].ReadAutoStart, test.ShouldBeFalse)
	test.That(t, cfg.Tasks[1].Timing, test.ShouldBeNil)
	test.That(t, cfg.Log, test.ShouldResemble, []logging.LoggerPatternConfig{{Pattern: "bench.task.*", Level: "warn"}})

	single, err := cfg.Task("single")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, single, test.ShouldEqual, &cfg.Tasks[1])
	_, err = cfg.Task("missing")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader(strings.NewReader(`{tasks: [`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRead(t *testing.T) {
	t.Setenv("DAQMX_TEST_CHANNEL", "Dev3/ai7")
	path := filepath.Join(t.TempDir(), "daq.json5")
	contents := `{tasks: [{name: "env", channels: [{physical_channel: "${DAQMX_TEST_CHANNEL}"}]}]}`
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Tasks[0].Channels[0].PhysicalChannel, test.ShouldEqual, "Dev3/ai7")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json5"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	channel := VoltageChannelConfig{PhysicalChannel: "Dev1/ai0"}

	for _, tc := range []struct {
		name     string
		cfg      Config
		contains string
	}{
		{
			"missing physical channel",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{{}}}}},
			"physical_channel",
		},
		{
			"no channels",
			Config{Tasks: []TaskConfig{{Name: "empty"}}},
			"channels",
		},
		{
			"inverted range",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0", Min: f(5), Max: f(-5)}}}}},
			"tasks.0.channels.0",
		},
		{
			"unknown terminal config",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0", TerminalConfig: "floating"}}}}},
			"floating",
		},
		{
			"undeclared scale",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0", CustomScale: "psi"}}}}},
			"psi",
		},
		{
			"duplicate task",
			Config{Tasks: []TaskConfig{
				{Name: "a", Channels: []VoltageChannelConfig{channel}},
				{Name: "a", Channels: []VoltageChannelConfig{channel}},
			}},
			"duplicate task name",
		},
		{
			"null byte in name",
			Config{Tasks: []TaskConfig{{Name: "a\x00b", Channels: []VoltageChannelConfig{channel}}}},
			"tasks.0",
		},
		{
			"zero rate",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{channel}, Timing: &TimingConfig{Mode: "continuous"}}}},
			"rate_hz",
		},
		{
			"missing mode",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{channel}, Timing: &TimingConfig{RateHz: 10}}}},
			"mode",
		},
		{
			"unknown edge",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{channel}, Timing: &TimingConfig{RateHz: 10, Mode: "continuous", Edge: "both"}}}},
			"both",
		},
		{
			"finite without samples",
			Config{Tasks: []TaskConfig{{Channels: []VoltageChannelConfig{channel}, Timing: &TimingConfig{RateHz: 10, Mode: "finite"}}}},
			"samples_per_channel",
		},
		{
			"scale without name",
			Config{Scales: []LinearScaleConfig{{Slope: 1}}},
			"name",
		},
		{
			"unknown pre-scaled units",
			Config{Scales: []LinearScaleConfig{{Name: "s", Slope: 1, PreScaledUnits: "furlongs"}}},
			"furlongs",
		},
		{
			"duplicate scale",
			Config{Scales: []LinearScaleConfig{{Name: "s", Slope: 1}, {Name: "s", Slope: 2}}},
			"duplicate scale name",
		},
		{
			"bad log pattern",
			Config{Log: []logging.LoggerPatternConfig{{Pattern: "a..b", Level: "info"}}},
			"a..b",
		},
		{
			"bad log level",
			Config{Log: []logging.LoggerPatternConfig{{Pattern: "a.b", Level: "loud"}}},
			"loud",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.contains)
		})
	}

	valid := Config{
		Scales: []LinearScaleConfig{{Name: "psi", Slope: 2}},
		Tasks: []TaskConfig{
			{Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0", CustomScale: "psi"}}},
			{Channels: []VoltageChannelConfig{channel}},
		},
	}
	test.That(t, valid.Validate(), test.ShouldBeNil)
}

func TestCreateScales(t *testing.T) {
	drv := fake.New()
	cfg := Config{Scales: []LinearScaleConfig{
		{Name: "psi", Slope: 25, Intercept: -12.5, ScaledUnits: "psi"},
		{Name: "amps", Slope: 0.1, PreScaledUnits: "amps"},
	}}
	created, err := cfg.CreateScales(drv, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, created, test.ShouldHaveLength, 2)
	test.That(t, created["psi"].Apply(1), test.ShouldEqual, 12.5)
	test.That(t, created["amps"].PreScaledUnits(), test.ShouldEqual, scales.Amps)
	test.That(t, drv.ScaleNames(), test.ShouldHaveLength, 2)

	// scales are registered with the driver, so a second pass collides
	_, err = cfg.CreateScales(drv, logging.NewTestLogger(t))
	test.That(t, status.IsCode(err, driver.ErrorScaleNameAlreadyExists), test.ShouldBeTrue)
}

func TestNewTask(t *testing.T) {
	drv := fake.New()
	logger := logging.NewTestLogger(t)
	cfg, err := FromReader(strings.NewReader(exampleConfig))
	test.That(t, err, test.ShouldBeNil)
	_, err = cfg.CreateScales(drv, logger)
	test.That(t, err, test.ShouldBeNil)

	tsk, err := cfg.Tasks[0].NewTask(drv, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, tsk.Close(), test.ShouldBeNil)
	}()

	names, err := tsk.ChannelNames()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldResemble, []string{"inlet", "Dev1/ai1"})

	inlet, err := task.GetChannel[channels.VoltageInputChannel](tsk, "inlet")
	test.That(t, err, test.ShouldBeNil)
	scale, err := inlet.Scale()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scale, test.ShouldResemble, channels.CustomScale("psi"))
	maxVal, err := inlet.AIMax()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxVal, test.ShouldEqual, 10)

	second, err := task.GetChannel[channels.VoltageInputChannel](tsk, "Dev1/ai1")
	test.That(t, err, test.ShouldBeNil)
	terminal, err := second.AITerminalConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, terminal, test.ShouldEqual, channels.TerminalRSE)

	rate, err := tsk.SampleClockRate()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rate, test.ShouldEqual, 1000)
	autoStart, err := tsk.ReadAutoStart()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, autoStart, test.ShouldBeFalse)
}

func TestNewTaskClearsOnFailure(t *testing.T) {
	drv := fake.New()
	logger := logging.NewTestLogger(t)

	tc := TaskConfig{
		Name: "broken",
		Channels: []VoltageChannelConfig{
			{PhysicalChannel: "Dev1/ai0"},
			{PhysicalChannel: "Dev1/port0"},
		},
	}
	_, err := tc.NewTask(drv, logger)
	test.That(t, status.IsCode(err, driver.ErrorPhysicalChanDoesNotExist), test.ShouldBeTrue)
	test.That(t, drv.NumTasks(), test.ShouldEqual, 0)

	// the clear failing too is reported alongside the build error
	drv.FailNext("ClearTask", driver.ErrorInvalidTask)
	_, err = tc.NewTask(drv, logger)
	test.That(t, status.IsCode(err, driver.ErrorPhysicalChanDoesNotExist), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot clear task")

	cfg := Config{Tasks: []TaskConfig{
		{Name: "good", Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0"}}},
		{Name: "bad", Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0", CustomScale: "missing"}}},
	}}
	_, err = cfg.NewTasks(fake.New(), logger)
	var driverErr *status.DriverError
	test.That(t, errors.As(err, &driverErr), test.ShouldBeTrue)
	test.That(t, driverErr.Code, test.ShouldEqual, driver.ErrorCustomScaleDoesNotExist)
}

func TestNewTasks(t *testing.T) {
	drv := fake.New()
	cfg := Config{Tasks: []TaskConfig{
		{Name: "one", Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai0"}}},
		{Channels: []VoltageChannelConfig{{PhysicalChannel: "Dev1/ai1"}}},
	}}
	tasks, err := cfg.NewTasks(drv, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tasks, test.ShouldHaveLength, 2)
	test.That(t, drv.NumTasks(), test.ShouldEqual, 2)
	for _, tsk := range tasks {
		test.That(t, tsk.Close(), test.ShouldBeNil)
	}
	test.That(t, drv.NumTasks(), test.ShouldEqual, 0)
}

func TestApplyLogConfig(t *testing.T) {
	drv := fake.New()
	logger := logging.NewBlankLogger("bench")
	cfg, err := FromReader(strings.NewReader(exampleConfig))
	test.That(t, err, test.ShouldBeNil)

	tsk, err := cfg.Tasks[1].NewTask(drv, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, tsk.Close(), test.ShouldBeNil)
	}()

	test.That(t, cfg.ApplyLogConfig(logging.NewTestLogger(t)), test.ShouldBeNil)
	defer func() {
		test.That(t, (&Config{}).ApplyLogConfig(logging.NewTestLogger(t)), test.ShouldBeNil)
	}()

	taskLogger, ok := logging.LoggerNamed("bench.task.single")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, taskLogger, test.ShouldEqual, tsk.Session().Logger())
	test.That(t, taskLogger.GetLevel(), test.ShouldEqual, logging.WARN)
}
