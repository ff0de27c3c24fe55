package freenect

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Sensor streams 11-bit depth at 640x480 from a single device. It satisfies
// kinect.Sensor.
type Sensor struct {
	ctx  *Context
	dev  *Device
	tilt float64
}

func OpenSensor(index int, tilt float64) (*Sensor, error) {
	fctx, err := NewContext()
	if err != nil {
		return nil, fmt.Errorf("could not create freenect context: %w", err)
	}

	dev, err := fctx.OpenDevice(index)
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("could not open device %d: %w", index, err),
			fctx.Destroy(),
		)
	}

	if err := dev.SetLED(LEDColorBlinkGreen); err != nil {
		return nil, multierr.Combine(
			fmt.Errorf("could not set kinect led: %w", err),
			dev.Destroy(),
			fctx.Destroy(),
		)
	}

	return &Sensor{
		ctx:  fctx,
		dev:  dev,
		tilt: tilt,
	}, nil
}

// Context exposes the underlying context, mostly to route its logs.
func (s *Sensor) Context() *Context {
	return s.ctx
}

func (s *Sensor) SetDepthCallback(f func(depth []uint16, timestamp uint32)) {
	s.dev.SetDepthCallback(func(_ *Device, depth []uint16, timestamp uint32) {
		f(depth, timestamp)
	})
}

func (s *Sensor) StartDepthStream() error {
	if err := s.dev.SetTiltDegrees(s.tilt); err != nil {
		return fmt.Errorf("could not tilt kinect: %w", err)
	}

	if err := s.dev.SetLED(LEDColorGreen); err != nil {
		return fmt.Errorf("could not set kinect led: %w", err)
	}

	if err := s.dev.StartDepthStream(ResolutionMedium, DepthFormat11Bit); err != nil {
		return fmt.Errorf("could not start kinect depth stream: %w", err)
	}

	return nil
}

func (s *Sensor) StopDepthStream() error {
	return s.dev.StopDepthStream()
}

func (s *Sensor) ProcessEvents(timeout time.Duration) error {
	return s.ctx.ProcessEvents(timeout)
}

func (s *Sensor) Close() error {
	return multierr.Combine(
		s.dev.SetLED(LEDColorRed),
		s.dev.Destroy(),
		s.ctx.Destroy(),
	)
}
