// Package session owns the lifetime of native DAQmx tasks.
//
// A Handle wraps one native task. Handles are reference counted: Clone returns another handle to
// the same task and the task is cleared exactly once, when the last handle is closed. Every handle
// is safe to use from multiple goroutines for reads, start and stop. Configuration calls must not
// race an acquisition on the same task; that ordering is the caller's job.
package session

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/daqmx/driver"
	"go.viam.com/daqmx/logging"
	"go.viam.com/daqmx/status"
)

// ErrClosed is returned by every operation on a handle after Close.
var ErrClosed = errors.New("session handle is closed")

// state is shared by every clone of one handle.
type state struct {
	id         uuid.UUID
	drv        driver.Driver
	raw        driver.TaskHandle
	refs       atomic.Int64
	classifier *status.Classifier
	logger     logging.Logger
}

// A Handle is one reference to a native task.
type Handle struct {
	s      *state
	closed atomic.Bool
}

// New creates a native task named name on drv. An empty name lets the driver pick one. If the
// driver refuses, no handle exists and there is nothing to clean up.
func New(drv driver.Driver, name string, logger logging.Logger) (*Handle, error) {
	if err := status.ValidateName("task name", name); err != nil {
		return nil, err
	}
	logger = logger.Sublogger("task").Sublogger(logging.SectionName(name))
	classifier := status.NewClassifier(drv, logger)

	var raw driver.TaskHandle
	if err := classifier.Call(func() int32 { return drv.CreateTask(name, &raw) }); err != nil {
		return nil, errors.Wrapf(err, "cannot create task %q", name)
	}

	s := &state{
		id:         uuid.New(),
		drv:        drv,
		raw:        raw,
		classifier: classifier,
		logger:     logger,
	}
	s.refs.Store(1)
	logger.Debugw("task created", "session_id", s.id.String())
	return &Handle{s: s}, nil
}

// ID identifies the native task in logs. Clones share it.
func (h *Handle) ID() uuid.UUID {
	return h.s.id
}

// Driver returns the driver the task lives on.
func (h *Handle) Driver() driver.Driver {
	return h.s.drv
}

// Classifier returns the classifier for statuses from this task's driver.
func (h *Handle) Classifier() *status.Classifier {
	return h.s.classifier
}

// Logger returns the task's logger.
func (h *Handle) Logger() logging.Logger {
	return h.s.logger
}

// Raw returns the native task handle. It is only valid for the duration of the driver call it is
// passed to and must never be stored.
func (h *Handle) Raw() (driver.TaskHandle, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	return h.s.raw, nil
}

// Do runs one driver call against the native task and classifies its status.
func (h *Handle) Do(call func(raw driver.TaskHandle) int32) error {
	raw, err := h.Raw()
	if err != nil {
		return err
	}
	return h.s.classifier.Call(func() int32 { return call(raw) })
}

// ReadString runs the two-phase string protocol for a string property of the native task.
func (h *Handle) ReadString(fetch func(raw driver.TaskHandle, buf []byte) int32) (string, error) {
	raw, err := h.Raw()
	if err != nil {
		return "", err
	}
	return h.s.classifier.ReadString(func(buf []byte) int32 {
		return fetch(raw, buf)
	})
}

// Clone returns a new handle to the same native task.
func (h *Handle) Clone() (*Handle, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}
	for {
		n := h.s.refs.Load()
		if n <= 0 {
			return nil, ErrClosed
		}
		if h.s.refs.CompareAndSwap(n, n+1) {
			return &Handle{s: h.s}, nil
		}
	}
}

// Refs returns how many open handles share the native task.
func (h *Handle) Refs() int64 {
	return h.s.refs.Load()
}

// Closed reports whether Close has been called on this handle.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Close drops this handle's reference. Closing the last handle clears the native task. Closing a
// handle twice is a no-op.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.s.refs.Dec() > 0 {
		return nil
	}
	h.s.logger.Debugw("clearing task", "session_id", h.s.id.String())
	if err := h.s.classifier.Call(func() int32 { return h.s.drv.ClearTask(h.s.raw) }); err != nil {
		return errors.Wrap(err, "cannot clear task")
	}
	return nil
}
