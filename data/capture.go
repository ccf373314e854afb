package data

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/daqmx/task"
)

// CaptureFunc takes one reading. The collector fills in Sequence and Timestamp.
type CaptureFunc func(ctx context.Context) (Reading, error)

// ReadAllCapacity is how many samples per channel a ReadAll capture can return at most.
const ReadAllCapacity = 1024

type taskInfo struct {
	name     string
	channels []string
}

func describe(t *task.AnalogInputTask) (taskInfo, error) {
	name, err := t.Name()
	if err != nil {
		return taskInfo{}, err
	}
	channels, err := t.ChannelNames()
	if err != nil {
		return taskInfo{}, err
	}
	if len(channels) == 0 {
		return taskInfo{}, errors.Errorf("task %q has no channels", name)
	}
	return taskInfo{name: name, channels: channels}, nil
}

// NewScalarCapture captures one sample per tick from a task with a single channel.
func NewScalarCapture(t *task.AnalogInputTask, timeout task.Timeout) (CaptureFunc, error) {
	info, err := describe(t)
	if err != nil {
		return nil, err
	}
	if len(info.channels) != 1 {
		return nil, errors.Errorf("scalar capture needs exactly one channel, task %q has %d", info.name, len(info.channels))
	}
	return func(ctx context.Context) (Reading, error) {
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		v, err := t.ReadScalar(timeout)
		if err != nil {
			return Reading{}, err
		}
		return Reading{
			Task:              info.name,
			Channels:          info.channels,
			SamplesPerChannel: 1,
			Fill:              task.GroupByChannel,
			Values:            []float64{v},
		}, nil
	}, nil
}

// NewBufferedCapture captures up to samplesPerChannel samples of every channel per tick. With
// task.ReadAll each tick drains what the task has buffered, up to ReadAllCapacity.
func NewBufferedCapture(
	t *task.AnalogInputTask,
	timeout task.Timeout,
	fill task.DataFillMode,
	samplesPerChannel int,
) (CaptureFunc, error) {
	if samplesPerChannel != task.ReadAll && samplesPerChannel < 1 {
		return nil, errors.Errorf("samples per channel must be positive or ReadAll, got %d", samplesPerChannel)
	}
	info, err := describe(t)
	if err != nil {
		return nil, err
	}
	capacity := samplesPerChannel
	if capacity == task.ReadAll {
		capacity = ReadAllCapacity
	}
	buf := make([]float64, capacity*len(info.channels))
	return func(ctx context.Context) (Reading, error) {
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		n, err := t.Read(timeout, fill, samplesPerChannel, buf)
		if err != nil {
			return Reading{}, err
		}
		values := make([]float64, n*len(info.channels))
		copy(values, buf)
		return Reading{
			Task:              info.name,
			Channels:          info.channels,
			SamplesPerChannel: n,
			Fill:              fill,
			Values:            values,
		}, nil
	}, nil
}
