package display

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/mobile/event/key"

	"essaim.dev/topography/colorize"
	"essaim.dev/topography/exchange"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/spectrum"
)

func newTestDisplay(t *testing.T, blocking bool, snapshot SnapshotFunc) (*Display, *exchange.Exchange, *colorize.Colorizer) {
	t.Helper()

	ex, err := exchange.New(4, 2, blocking)
	require.NoError(t, err)

	c, err := colorize.New(spectrum.Gamma(), colorize.Options{})
	require.NoError(t, err)

	d := New(ex, c, snapshot, Options{
		Title:   "test",
		Width:   4,
		Height:  2,
		Refresh: time.Millisecond,
		Flip:    true,
	}, zaptest.NewLogger(t).Sugar())

	return d, ex, c
}

func TestRunForwardsFreshFrames(t *testing.T) {
	d, ex, _ := newTestDisplay(t, false, nil)

	require.NoError(t, ex.Fill(func(buf *frame.Buffer) error {
		// Top-left pixel red.
		buf.Pix[0] = 255
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- d.Run(ctx)
	}()

	var img *image.RGBA
	select {
	case img = <-d.refreshImage:
	case <-time.After(time.Second):
		t.Fatal("no frame forwarded")
	}

	// Flipped: row 0 lands on the last row.
	assert.Equal(t, uint8(255), img.Pix[img.PixOffset(0, 1)])
	assert.Equal(t, uint8(0), img.Pix[img.PixOffset(0, 0)])
	assert.Same(t, img, d.current.Load())

	// No new frame: nothing else is forwarded.
	select {
	case <-d.refreshImage:
		t.Fatal("stale frame forwarded")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, <-stopped)
}

func TestRunReturnsWhenWindowCloses(t *testing.T) {
	d, _, _ := newTestDisplay(t, false, nil)

	stopped := make(chan error, 1)
	go func() {
		stopped <- d.Run(context.Background())
	}()

	d.stop(nil)
	assert.NoError(t, <-stopped)
}

func TestRunBlockingReleasedByClose(t *testing.T) {
	d, ex, _ := newTestDisplay(t, true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- d.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	ex.Close()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run still blocked after Close")
	}
}

func TestHandleKey(t *testing.T) {
	snapshots := make(chan image.Image, 1)
	d, _, c := newTestDisplay(t, false, func(img image.Image) {
		snapshots <- img
	})

	press := func(code key.Code) bool {
		return d.handleKey(key.Event{Code: code, Direction: key.DirPress})
	}

	assert.False(t, press(key.CodeC))
	assert.True(t, c.Contour())
	assert.False(t, press(key.CodeC))
	assert.False(t, c.Contour())

	assert.False(t, press(key.CodeS))
	select {
	case img := <-snapshots:
		assert.Nil(t, img, "nothing displayed yet")
	case <-time.After(time.Second):
		t.Fatal("snapshot not taken")
	}

	assert.True(t, press(key.CodeEscape))
}
