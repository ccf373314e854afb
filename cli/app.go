// Package cli contains the daqmx command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagSimulate = "simulate"
	flagTask     = "task"
	flagInterval = "interval"
	flagDuration = "duration"
	flagTimeout  = "timeout"
	flagSamples  = "samples"
	flagFill     = "fill"
	flagOutput   = "output"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "daqmx",
		Usage:           "configure and capture from DAQmx analog input tasks",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagSimulate,
				Usage: "use a simulated device instead of the DAQmx library",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check a configuration file",
				UsageText: "daqmx validate --config <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      flagConfig,
						Aliases:   []string{"c"},
						Usage:     "load configuration from `FILE`",
						Required:  true,
						TakesFile: true,
					},
				},
				Action: ValidateAction,
			},
			{
				Name:  "capture",
				Usage: "capture readings from a configured task into a CBOR file",
				Description: `Creates every scale in the configuration and the named task, then reads it on
every interval until the duration has passed. Tasks without timing are read one
sample at a time; hardware timed tasks are started and drained on every tick.`,
				UsageText: "daqmx [--simulate] capture --config <file> --task <name> --output <file> [other options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      flagConfig,
						Aliases:   []string{"c"},
						Usage:     "load configuration from `FILE`",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:     flagTask,
						Usage:    "name of the configured task to capture from",
						Required: true,
					},
					&cli.StringFlag{
						Name:      flagOutput,
						Aliases:   []string{"o"},
						Usage:     "write readings to `FILE`",
						Required:  true,
						TakesFile: true,
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Usage: "time between captures",
						Value: defaultInterval,
					},
					&cli.DurationFlag{
						Name:  flagDuration,
						Usage: "how long to capture for",
						Value: defaultDuration,
					},
					&cli.DurationFlag{
						Name:  flagTimeout,
						Usage: "how long a single read may wait for samples",
						Value: defaultTimeout,
					},
					&cli.IntFlag{
						Name:        flagSamples,
						Usage:       "samples per channel per capture of a hardware timed task, -1 for all available",
						Value:       -1,
						DefaultText: "all available",
					},
					&cli.StringFlag{
						Name:  flagFill,
						Usage: "sample layout of a hardware timed capture, by_channel or by_scan_number",
						Value: "by_channel",
					},
				},
				Action: CaptureAction,
			},
			{
				Name:      "summarize",
				Usage:     "print per channel statistics of a capture file",
				UsageText: "daqmx summarize <file>",
				Action:    SummarizeAction,
			},
		},
	}
}
