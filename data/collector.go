package data

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/daqmx/logging"
)

// DefaultQueueSize is how many readings may wait for the writer before capturing blocks.
const DefaultQueueSize = 64

// CollectorParams contain the parameters needed to construct a Collector.
type CollectorParams struct {
	Interval  time.Duration
	Target    io.Writer
	QueueSize int
	Logger    logging.Logger
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Validate validates that p contains all required parameters.
func (p CollectorParams) Validate() error {
	if p.Target == nil {
		return errors.New("missing required parameter target")
	}
	if p.Logger == nil {
		return errors.New("missing required parameter logger")
	}
	if p.Interval <= 0 {
		return errors.Errorf("interval must be positive, got %s", p.Interval)
	}
	return nil
}

type flusher interface {
	Flush() error
}

// A Collector calls a CaptureFunc on every tick and encodes the readings to its target. Capture
// errors are logged and counted; a write error stops the collector and is returned by Close.
type Collector struct {
	capture  CaptureFunc
	interval time.Duration
	target   io.Writer
	logger   logging.Logger
	clock    clock.Clock
	queue    chan Reading

	cancelCtx context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	group    *errgroup.Group
	closed   bool
	closeErr error

	sequence uint64
	captured atomic.Uint64
	failed   atomic.Uint64
	written  atomic.Uint64
}

// NewCollector returns a collector that is not yet running.
func NewCollector(capture CaptureFunc, params CollectorParams) (*Collector, error) {
	if capture == nil {
		return nil, errors.New("missing required parameter capture")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	queueSize := params.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.New()
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &Collector{
		capture:   capture,
		interval:  params.Interval,
		target:    params.Target,
		logger:    params.Logger,
		clock:     clk,
		queue:     make(chan Reading, queueSize),
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}, nil
}

// Collect starts capturing. The ticker is running when Collect returns. Calls after the first, or
// after Close, do nothing.
func (c *Collector) Collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.group != nil || c.closed {
		return
	}

	ticker := c.clock.Ticker(c.interval)
	group, ctx := errgroup.WithContext(c.cancelCtx)
	c.group = group
	group.Go(func() error {
		defer close(c.queue)
		defer ticker.Stop()
		return c.captureLoop(ctx, ticker)
	})
	group.Go(c.write)
	c.logger.Debugw("collector started", "interval", c.interval)
}

func (c *Collector) captureLoop(ctx context.Context, ticker *clock.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		reading, err := c.capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.failed.Inc()
			c.logger.Errorw("capture failed", "error", err)
			continue
		}
		c.sequence++
		reading.Sequence = c.sequence
		reading.Timestamp = c.clock.Now()

		select {
		case c.queue <- reading:
			c.captured.Inc()
		case <-ctx.Done():
			return nil
		}
	}
}

// write drains the queue until the capture loop closes it.
func (c *Collector) write() error {
	enc := NewEncoder(c.target)
	for reading := range c.queue {
		if err := enc.Encode(reading); err != nil {
			// unblock the capture loop; it will close the queue
			c.cancel()
			for range c.queue {
			}
			return errors.Wrapf(err, "cannot write reading %d", reading.Sequence)
		}
		c.written.Inc()
	}
	return nil
}

// Captured returns how many readings have been queued for writing.
func (c *Collector) Captured() uint64 {
	return c.captured.Load()
}

// Failed returns how many captures returned an error.
func (c *Collector) Failed() uint64 {
	return c.failed.Load()
}

// Written returns how many readings have been encoded to the target.
func (c *Collector) Written() uint64 {
	return c.written.Load()
}

// Close stops capturing, writes out every queued reading and flushes the target if it can be
// flushed. It returns the write and flush errors, if any.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.closeErr
	}
	c.closed = true
	c.cancel()

	var err error
	if c.group != nil {
		err = c.group.Wait()
	}
	if f, ok := c.target.(flusher); ok {
		err = multierr.Combine(err, f.Flush())
	}
	c.closeErr = err
	c.logger.Debugw("collector closed", "captured", c.Captured(), "failed", c.Failed(), "written", c.Written())
	return err
}
