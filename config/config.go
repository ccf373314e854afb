// Package config reads the JSON5 description of the scales, tasks and log levels of an
// acquisition setup and turns it into live driver objects.
package config

import (
	"bytes"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/scales"
	"go.viam.com/daqmx/task"
)

// Config describes an acquisition setup.
type Config struct {
	Scales []LinearScaleConfig           `json:"scales,omitempty"`
	Tasks  []TaskConfig                  `json:"tasks,omitempty"`
	Log    []logging.LoggerPatternConfig `json:"log,omitempty"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// Read reads a config from the given file. Environment variables in the file are expanded first.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg, err := FromReader(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}
	cfg.ConfigFilePath = filePath
	return cfg, nil
}

// FromReader decodes and validates a config.
func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json5.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json5")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole config, including that every custom scale a channel refers to is
// declared in Scales.
func (c *Config) Validate() error {
	declared := make(map[string]struct{}, len(c.Scales))
	for idx := range c.Scales {
		path := fmt.Sprintf("%s.%d", "scales", idx)
		if err := c.Scales[idx].Validate(path); err != nil {
			return err
		}
		if _, ok := declared[c.Scales[idx].Name]; ok {
			return utils.NewConfigValidationError(path, errors.Errorf("duplicate scale name %q", c.Scales[idx].Name))
		}
		declared[c.Scales[idx].Name] = struct{}{}
	}

	taskNames := make(map[string]struct{}, len(c.Tasks))
	for idx := range c.Tasks {
		path := fmt.Sprintf("%s.%d", "tasks", idx)
		tc := &c.Tasks[idx]
		if err := tc.Validate(path); err != nil {
			return err
		}
		if tc.Name != "" {
			if _, ok := taskNames[tc.Name]; ok {
				return utils.NewConfigValidationError(path, errors.Errorf("duplicate task name %q", tc.Name))
			}
			taskNames[tc.Name] = struct{}{}
		}
		for chIdx, ch := range tc.Channels {
			if ch.CustomScale == "" {
				continue
			}
			if _, ok := declared[ch.CustomScale]; !ok {
				return utils.NewConfigValidationError(
					fmt.Sprintf("%s.channels.%d", path, chIdx),
					errors.Errorf("custom scale %q is not declared", ch.CustomScale))
			}
		}
	}

	for idx, lc := range c.Log {
		path := fmt.Sprintf("%s.%d", "log", idx)
		if !logging.ValidatePattern(lc.Pattern) {
			return utils.NewConfigValidationError(path, errors.Errorf("invalid logger pattern %q", lc.Pattern))
		}
		if _, err := logging.LevelFromString(lc.Level); err != nil {
			return utils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

// Task returns the task config named name.
func (c *Config) Task(name string) (*TaskConfig, error) {
	for idx := range c.Tasks {
		if c.Tasks[idx].Name == name {
			return &c.Tasks[idx], nil
		}
	}
	return nil, errors.Errorf("no task named %q in config", name)
}

// CreateScales registers every scale with the driver, keyed by name. Scales live as long as the
// driver does.
func (c *Config) CreateScales(drv driver.Driver, logger logging.Logger) (map[string]*scales.LinearScale, error) {
	created := make(map[string]*scales.LinearScale, len(c.Scales))
	for _, sc := range c.Scales {
		s, err := sc.Create(drv, logger)
		if err != nil {
			return created, err
		}
		created[s.Name()] = s
	}
	return created, nil
}

// NewTasks builds every configured task. On failure the tasks already built are closed.
func (c *Config) NewTasks(drv driver.Driver, logger logging.Logger) (_ []*task.AnalogInputTask, err error) {
	tasks := make([]*task.AnalogInputTask, 0, len(c.Tasks))
	defer func() {
		if err != nil {
			for _, t := range tasks {
				err = multierr.Combine(err, t.Close())
			}
		}
	}()
	for idx := range c.Tasks {
		t, err := c.Tasks[idx].NewTask(drv, logger)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ApplyLogConfig sets the level of every registered logger matching a configured pattern.
func (c *Config) ApplyLogConfig(logger logging.Logger) error {
	return logging.UpdateLoggerRegistryConfig(c.Log, logger)
}
