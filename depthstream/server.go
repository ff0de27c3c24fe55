package depthstream

import (
	"fmt"
	"math"
	"net"
	"net/netip"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server publishes depth frames to a multicast group.
type Server struct {
	conn *net.UDPConn

	encoder *zstd.Encoder
	limiter *rate.Limiter
	logger  *zap.SugaredLogger

	width  int
	height int
	chunks int

	// Publish runs on the acquisition goroutine only, so the sequence
	// number and scratch buffers need no locking.
	seq    uint32
	packet []byte
	raw    []byte

	sent    atomic.Uint64
	skipped atomic.Uint64
}

// NewServer dials addr and prepares to send width x height frames split in
// chunks row bands, at most maxFPS frames per second. A zero maxFPS removes
// the limit.
func NewServer(addr netip.AddrPort, width, height int, maxFPS float64, chunks int, logger *zap.SugaredLogger) (*Server, error) {
	if width <= 0 || height <= 0 || width > math.MaxUint16 || height > math.MaxUint16 {
		return nil, ErrInvalidGeometry
	}
	if chunks < 1 || chunks > math.MaxUint8 || chunks > height {
		return nil, fmt.Errorf("%w: %d chunks for %d rows", ErrBadChunk, chunks, height)
	}

	per := (height + chunks - 1) / chunks
	if per*width*2 > maxChunkBytes {
		return nil, fmt.Errorf("%w: %d rows of %d samples", ErrChunkTooLarge, per, width)
	}
	// Drop trailing bands that would carry no rows.
	chunks = (height + per - 1) / per

	conn, err := net.DialUDP("udp4", nil, net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("could not dial udp address: %w", err)
	}
	conn.SetWriteBuffer(width * height * 2)

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not create encoder: %w", err)
	}

	limit := rate.Inf
	if maxFPS > 0 {
		limit = rate.Limit(maxFPS)
	}

	return &Server{
		conn:    conn,
		encoder: encoder,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		width:   width,
		height:  height,
		chunks:  chunks,
		packet:  make([]byte, 0, headerSize+maxChunkBytes),
		raw:     make([]byte, 0, per*width*2),
	}, nil
}

func (s *Server) Close() error {
	s.encoder.Close()
	return s.conn.Close()
}

// Publish sends one frame. Frames over the rate limit are skipped whole.
func (s *Server) Publish(depth []uint16, timestamp uint32) {
	if len(depth) != s.width*s.height {
		s.logger.Warnw("dropping depth frame with unexpected size", "samples", len(depth))
		return
	}

	if !s.limiter.Allow() {
		s.skipped.Add(1)
		return
	}

	s.seq++

	h := header{
		Chunks:    uint8(s.chunks),
		Seq:       s.seq,
		Timestamp: timestamp,
		Width:     uint16(s.width),
		Height:    uint16(s.height),
	}

	for i := 0; i < s.chunks; i++ {
		h.Chunk = uint8(i)
		s.packet, s.raw = encodeChunk(s.encoder, s.packet, s.raw, h, depth)

		if _, err := s.conn.Write(s.packet); err != nil {
			s.logger.Warnw("could not send depth chunk", "seq", s.seq, "chunk", i, "error", err)
			return
		}
	}

	s.sent.Add(1)
}

// Sent returns the number of frames fully written to the network.
func (s *Server) Sent() uint64 {
	return s.sent.Load()
}

// Skipped returns the number of frames dropped by the rate limit.
func (s *Server) Skipped() uint64 {
	return s.skipped.Load()
}
