package kinect

import (
	"sync"

	"go.uber.org/zap"

	"essaim.dev/topography/colorize"
	"essaim.dev/topography/exchange"
	"essaim.dev/topography/frame"
)

// Renderer colorizes every depth frame into the exchange's acquisition
// buffer.
type Renderer struct {
	exchange  *exchange.Exchange
	colorizer *colorize.Colorizer
	logger    *zap.SugaredLogger
}

func NewRenderer(ex *exchange.Exchange, c *colorize.Colorizer, logger *zap.SugaredLogger) *Renderer {
	return &Renderer{
		exchange:  ex,
		colorizer: c,
		logger:    logger,
	}
}

func (r *Renderer) Depth(depth []uint16, timestamp uint32) {
	err := r.exchange.Fill(func(buf *frame.Buffer) error {
		return r.colorizer.Colorize(buf, depth)
	})
	if err != nil {
		r.logger.Warnw("could not colorize depth frame", "timestamp", timestamp, "error", err)
	}
}

// Recorder keeps a copy of the most recent depth frame.
type Recorder struct {
	mu        sync.Mutex
	depth     []uint16
	timestamp uint32
}

func (r *Recorder) Depth(depth []uint16, timestamp uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.depth) < len(depth) {
		r.depth = make([]uint16, len(depth))
	}
	r.depth = r.depth[:len(depth)]
	copy(r.depth, depth)
	r.timestamp = timestamp
}

// Latest returns a copy of the last recorded frame, or false if no frame
// has been seen.
func (r *Recorder) Latest() ([]uint16, uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.depth == nil {
		return nil, 0, false
	}

	depth := make([]uint16, len(r.depth))
	copy(depth, r.depth)

	return depth, r.timestamp, true
}
