package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"go.viam.com/daqmx/config"
	"go.viam.com/daqmx/data"
	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/driver/fake"
	"go.viam.com/daqmx/driver/nidaqmx"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/task"
)

const (
	defaultInterval = 100 * time.Millisecond
	defaultDuration = 10 * time.Second
	defaultTimeout  = time.Second
)

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger(logging.RootName)
	// the collector logs from its own goroutine
	logger.AddAppender(logging.NewWriterAppender(zapcore.Lock(zapcore.AddSync(c.App.ErrWriter))))
	if !c.Bool(flagDebug) {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

func newDriver(c *cli.Context) (driver.Driver, error) {
	if c.Bool(flagSimulate) {
		return fake.New(), nil
	}
	drv, err := nidaqmx.New()
	if err != nil {
		return nil, errors.Wrap(err, "pass --simulate to run without the DAQmx library")
	}
	return drv, nil
}

// ValidateAction reads and validates a configuration file.
func ValidateAction(c *cli.Context) error {
	path := c.String(flagConfig)
	cfg, err := config.Read(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %d scale(s), %d task(s)\n", path, len(cfg.Scales), len(cfg.Tasks))
	return nil
}

// CaptureAction captures from a configured task into a file.
func CaptureAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	tc, err := cfg.Task(c.String(flagTask))
	if err != nil {
		return err
	}
	fill, err := task.DataFillModeFromString(c.String(flagFill))
	if err != nil {
		return err
	}
	drv, err := newDriver(c)
	if err != nil {
		return err
	}
	if err := cfg.ApplyLogConfig(logger); err != nil {
		return err
	}
	if _, err := cfg.CreateScales(drv, logger); err != nil {
		return err
	}

	tsk, err := tc.NewTask(drv, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, tsk.Close())
	}()

	timeout := task.FromDuration(c.Duration(flagTimeout))
	var capture data.CaptureFunc
	switch {
	case tc.Timing != nil:
		if err := tsk.Start(); err != nil {
			return err
		}
		defer func() {
			err = multierr.Combine(err, tsk.Stop())
		}()
		capture, err = data.NewBufferedCapture(tsk, timeout, fill, c.Int(flagSamples))
	case len(tc.Channels) == 1:
		capture, err = data.NewScalarCapture(tsk, timeout)
	default:
		capture, err = data.NewBufferedCapture(tsk, timeout, fill, 1)
	}
	if err != nil {
		return err
	}

	out, err := os.Create(c.String(flagOutput))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, out.Close())
	}()

	collector, err := data.NewCollector(capture, data.CollectorParams{
		Interval: c.Duration(flagInterval),
		Target:   bufio.NewWriter(out),
		Logger:   logger.Sublogger("collector"),
	})
	if err != nil {
		return err
	}
	collector.Collect()
	select {
	case <-c.Context.Done():
	case <-time.After(c.Duration(flagDuration)):
	}
	if err := collector.Close(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "wrote %d reading(s) to %s, %d capture(s) failed\n",
		collector.Written(), out.Name(), collector.Failed())
	return nil
}

// SummarizeAction prints per channel statistics of a capture file.
func SummarizeAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("usage: daqmx summarize <file>")
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer f.Close()

	readings, err := data.ReadCaptures(bufio.NewReader(f))
	if err != nil {
		return err
	}
	summaries, err := data.SummarizeChannels(readings)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Channel", "Samples", "Mean", "StdDev", "Min", "Max"})
	for _, name := range names {
		s := summaries[name]
		t.AppendRow(table.Row{
			name,
			s.Count,
			fmt.Sprintf("%.6g", s.Mean),
			fmt.Sprintf("%.6g", s.StdDev),
			fmt.Sprintf("%.6g", s.Min),
			fmt.Sprintf("%.6g", s.Max),
		})
	}
	fmt.Fprintf(c.App.Writer, "%d reading(s)\n%s\n", len(readings), t.Render())
	return nil
}
