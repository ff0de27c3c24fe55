// Package kinect runs the depth acquisition loop and the taps that consume
// each depth frame.
package kinect

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DepthFunc receives a depth frame. The slice is only valid for the
// duration of the call.
type DepthFunc = func(depth []uint16, timestamp uint32)

// Sensor is a source of depth frames driven by an event loop.
type Sensor interface {
	io.Closer

	SetDepthCallback(f func(depth []uint16, timestamp uint32))
	StartDepthStream() error
	StopDepthStream() error

	// ProcessEvents handles pending sensor events, invoking the depth
	// callback synchronously for every completed frame.
	ProcessEvents(timeout time.Duration) error
}

type Driver struct {
	sensor   Sensor
	handlers []DepthFunc
	poll     time.Duration
	logger   *zap.SugaredLogger

	frames atomic.Uint64
}

func NewDriver(sensor Sensor, poll time.Duration, logger *zap.SugaredLogger, handlers ...DepthFunc) *Driver {
	return &Driver{
		sensor:   sensor,
		handlers: handlers,
		poll:     poll,
		logger:   logger,
	}
}

// Frames returns the number of depth frames dispatched so far.
func (d *Driver) Frames() uint64 {
	return d.frames.Load()
}

// Run streams depth frames until ctx is done or the sensor fails. The
// context is checked once per event loop iteration, never mid-frame. The
// stream is stopped and the sensor closed on every exit path.
func (d *Driver) Run(ctx context.Context) (err error) {
	d.sensor.SetDepthCallback(d.dispatch)

	if err := d.sensor.StartDepthStream(); err != nil {
		return multierr.Append(
			fmt.Errorf("could not start depth stream: %w", err),
			d.sensor.Close(),
		)
	}
	d.logger.Infow("depth stream started")

	defer func() {
		err = multierr.Combine(err, d.sensor.StopDepthStream(), d.sensor.Close())
		d.logger.Infow("depth stream stopped", "frames", d.frames.Load())
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := d.sensor.ProcessEvents(d.poll); err != nil {
				return fmt.Errorf("could not process events: %w", err)
			}
		}
	}
}

func (d *Driver) dispatch(depth []uint16, timestamp uint32) {
	d.frames.Add(1)

	for _, h := range d.handlers {
		h(depth, timestamp)
	}
}
