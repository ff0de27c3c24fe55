// Package display shows colorized depth frames in a shiny window.
package display

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"essaim.dev/topography/colorize"
	"essaim.dev/topography/exchange"
)

type Options struct {
	Title   string
	Width   int
	Height  int
	Refresh time.Duration

	// Flip mirrors the image vertically, for a sensor mounted upside down
	// above the sandbox.
	Flip bool
}

// SnapshotFunc receives the image on screen when a snapshot is requested.
// It may be nil if no frame has been shown yet.
type SnapshotFunc func(img image.Image)

type Display struct {
	exchange  *exchange.Exchange
	colorizer *colorize.Colorizer
	snapshot  SnapshotFunc
	opts      Options
	logger    *zap.SugaredLogger

	refreshImage chan *image.RGBA
	current      atomic.Pointer[image.RGBA]

	stopOnce sync.Once
	stopped  chan struct{}
	err      error
}

func New(ex *exchange.Exchange, c *colorize.Colorizer, snapshot SnapshotFunc, opts Options, logger *zap.SugaredLogger) *Display {
	return &Display{
		exchange:     ex,
		colorizer:    c,
		snapshot:     snapshot,
		opts:         opts,
		logger:       logger,
		refreshImage: make(chan *image.RGBA),
		stopped:      make(chan struct{}),
	}
}

// Done is closed once the window has been closed.
func (d *Display) Done() <-chan struct{} {
	return d.stopped
}

func (d *Display) stop(err error) {
	d.stopOnce.Do(func() {
		d.err = err
		close(d.stopped)
	})
}

// Run pulls a frame from the exchange on every refresh tick and hands it to
// the window. Ticks without a new frame leave the window as it is. In
// blocking mode Acquire waits for the next frame, so the exchange must be
// closed to release Run on shutdown.
func (d *Display) Run(ctx context.Context) error {
	refresh := time.NewTicker(d.opts.Refresh)
	defer refresh.Stop()

	for {
		select {
		case <-d.stopped:
			if d.err != nil {
				return fmt.Errorf("display stopped with error: %w", d.err)
			}
			return nil

		case <-ctx.Done():
			return nil

		case <-refresh.C:
			buf, fresh := d.exchange.Acquire()
			if !fresh {
				continue
			}

			img := buf.RGBA(d.opts.Flip)
			d.current.Store(img)

			select {
			case d.refreshImage <- img:
			case <-d.stopped:
			case <-ctx.Done():
			}
		}
	}
}

// Main runs the window event loop. It must be called from driver.Main.
func (d *Display) Main(s screen.Screen) {
	dims := image.Pt(d.opts.Width, d.opts.Height)

	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  d.opts.Title,
		Width:  dims.X,
		Height: dims.Y,
	})
	if err != nil {
		d.stop(fmt.Errorf("could not create window: %w", err))
		return
	}
	defer w.Release()

	tex, err := s.NewTexture(dims)
	if err != nil {
		d.stop(fmt.Errorf("could not create texture: %w", err))
		return
	}
	defer tex.Release()

	buf, err := s.NewBuffer(dims)
	if err != nil {
		d.stop(fmt.Errorf("could not create buffer: %w", err))
		return
	}
	defer buf.Release()

	go publishRefreshEvent(w, d.refreshImage, d.stopped)

	sizeEvent := sizeEventFor(dims)
	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				d.stop(nil)
				return
			}

		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if d.handleKey(e) {
				d.stop(nil)
				return
			}

		case size.Event:
			sizeEvent = e

		case paint.Event:

		case uploadEvent:
			copy(buf.RGBA().Pix, e.Pixels)
			tex.Upload(image.Point{}, buf, buf.Bounds())

		default:
			continue
		}

		w.Scale(sizeEvent.Bounds(), tex, tex.Bounds(), draw.Src, nil)
		w.Publish()
	}
}

// handleKey applies a key press and reports whether the window should
// close.
func (d *Display) handleKey(e key.Event) bool {
	switch {
	case e.Code == key.CodeEscape:
		return true

	case e.Code == key.CodeC:
		enabled := !d.colorizer.Contour()
		d.colorizer.SetContour(enabled)
		d.logger.Infow("contour mode toggled", "enabled", enabled)

	case e.Code == key.CodeS:
		if d.snapshot == nil {
			return false
		}
		var img image.Image
		if cur := d.current.Load(); cur != nil {
			img = cur
		}
		go d.snapshot(img)
	}

	return false
}

func sizeEventFor(p image.Point) size.Event {
	return size.Event{WidthPx: p.X, HeightPx: p.Y}
}

func publishRefreshEvent(q screen.EventDeque, refreshImage chan *image.RGBA, stopped chan struct{}) {
	for {
		select {
		case i := <-refreshImage:
			q.Send(uploadEvent{
				Pixels: i.Pix,
			})
		case <-stopped:
			return
		}
	}
}

type uploadEvent struct {
	Pixels []uint8
}
