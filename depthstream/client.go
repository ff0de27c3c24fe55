package depthstream

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const readBufferSize = 1 << 20

// Client receives depth frames from a Server. It satisfies kinect.Sensor, so
// a remote sensor can stand in for a local one.
type Client struct {
	conn    *net.UDPConn
	decoder *zstd.Decoder
	logger  *zap.SugaredLogger

	width  int
	height int

	packet    []byte
	assembler assembler

	callback  func(depth []uint16, timestamp uint32)
	streaming bool
}

// NewClient joins the multicast group addr on iface, or on the system
// default interface when iface is nil. Frames of any other geometry than
// width x height are dropped.
func NewClient(addr netip.AddrPort, iface *net.Interface, width, height int, logger *zap.SugaredLogger) (*Client, error) {
	if width <= 0 || height <= 0 || width > math.MaxUint16 || height > math.MaxUint16 {
		return nil, ErrInvalidGeometry
	}

	conn, err := net.ListenMulticastUDP("udp4", iface, net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("could not listen on multicast address: %w", err)
	}
	conn.SetReadBuffer(readBufferSize)

	c, err := newClient(conn, width, height, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return c, nil
}

func newClient(conn *net.UDPConn, width, height int, logger *zap.SugaredLogger) (*Client, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("could not create decoder: %w", err)
	}

	return &Client{
		conn:    conn,
		decoder: decoder,
		logger:  logger,
		width:   width,
		height:  height,
		packet:  make([]byte, headerSize+maxChunkBytes+1024),
	}, nil
}

func (c *Client) Close() error {
	c.decoder.Close()
	return c.conn.Close()
}

func (c *Client) SetDepthCallback(f func(depth []uint16, timestamp uint32)) {
	c.callback = f
}

func (c *Client) StartDepthStream() error {
	c.streaming = true
	return nil
}

func (c *Client) StopDepthStream() error {
	c.streaming = false
	return nil
}

// ProcessEvents reads one datagram, waiting at most timeout. Running out of
// time is not an error.
func (c *Client) ProcessEvents(timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("could not set read deadline: %w", err)
	}

	n, err := c.conn.Read(c.packet)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("error while reading from udp: %w", err)
	}

	c.handlePacket(c.packet[:n])

	return nil
}

// handlePacket feeds one datagram to the assembler and delivers the frame
// it completes, if any. Malformed datagrams are dropped.
func (c *Client) handlePacket(b []byte) {
	h, payload, err := parsePacket(b)
	if err != nil {
		c.logger.Debugw("dropping malformed datagram", "error", err)
		return
	}

	if int(h.Width) != c.width || int(h.Height) != c.height {
		c.logger.Debugw("dropping datagram with foreign geometry", "width", h.Width, "height", h.Height)
		return
	}

	complete, err := c.assembler.add(c.decoder, h, payload)
	if err != nil {
		c.logger.Debugw("dropping depth chunk", "seq", h.Seq, "chunk", h.Chunk, "error", err)
		return
	}

	if complete && c.streaming && c.callback != nil {
		c.callback(c.assembler.depth, c.assembler.timestamp)
	}
}
