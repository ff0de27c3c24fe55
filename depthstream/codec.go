// Package depthstream relays raw depth frames over UDP multicast.
//
// A frame is split into row bands, one datagram each. Every datagram starts
// with a fixed header followed by the zstd-compressed little-endian samples
// of its band:
//
//	0  2  magic "DS"
//	2  1  chunk index
//	3  1  chunk count
//	4  4  frame sequence number
//	8  4  sensor timestamp
//	12 2  frame width
//	14 2  frame height
package depthstream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	headerSize = 16
	magic      = "DS"

	// maxChunkBytes keeps an uncompressed band, and therefore a datagram in
	// the worst case, under the UDP payload limit.
	maxChunkBytes = 60000
)

var (
	ErrShortPacket     = errors.New("packet shorter than header")
	ErrBadMagic        = errors.New("packet does not start with stream magic")
	ErrBadChunk        = errors.New("invalid chunk layout")
	ErrChunkTooLarge   = errors.New("chunk does not fit in a datagram")
	ErrPayloadSize     = errors.New("chunk payload does not match its rows")
	ErrInvalidGeometry = errors.New("frame dimensions must be positive")
)

type header struct {
	Chunk     uint8
	Chunks    uint8
	Seq       uint32
	Timestamp uint32
	Width     uint16
	Height    uint16
}

func (h header) append(b []byte) []byte {
	b = append(b, magic...)
	b = append(b, h.Chunk, h.Chunks)
	b = binary.BigEndian.AppendUint32(b, h.Seq)
	b = binary.BigEndian.AppendUint32(b, h.Timestamp)
	b = binary.BigEndian.AppendUint16(b, h.Width)
	b = binary.BigEndian.AppendUint16(b, h.Height)
	return b
}

// parsePacket splits a datagram into its header and compressed payload.
func parsePacket(b []byte) (header, []byte, error) {
	if len(b) < headerSize {
		return header{}, nil, ErrShortPacket
	}
	if string(b[:2]) != magic {
		return header{}, nil, ErrBadMagic
	}

	h := header{
		Chunk:     b[2],
		Chunks:    b[3],
		Seq:       binary.BigEndian.Uint32(b[4:]),
		Timestamp: binary.BigEndian.Uint32(b[8:]),
		Width:     binary.BigEndian.Uint16(b[12:]),
		Height:    binary.BigEndian.Uint16(b[14:]),
	}

	if h.Chunks == 0 || h.Chunk >= h.Chunks || h.Width == 0 || h.Height == 0 || int(h.Chunks) > int(h.Height) {
		return header{}, nil, ErrBadChunk
	}

	return h, b[headerSize:], nil
}

// bandRows returns the first row and row count of a chunk.
func bandRows(chunk, chunks, height int) (int, int) {
	per := (height + chunks - 1) / chunks
	start := chunk * per
	if start >= height {
		return height, 0
	}
	return start, min(per, height-start)
}

// encodeChunk appends the datagram for one band of depth to dst. raw is
// scratch space for the uncompressed samples.
func encodeChunk(enc *zstd.Encoder, dst, raw []byte, h header, depth []uint16) ([]byte, []byte) {
	start, rows := bandRows(int(h.Chunk), int(h.Chunks), int(h.Height))
	width := int(h.Width)
	band := depth[start*width : (start+rows)*width]

	raw = raw[:0]
	for _, v := range band {
		raw = binary.LittleEndian.AppendUint16(raw, v)
	}

	dst = h.append(dst[:0])
	dst = enc.EncodeAll(raw, dst)

	return dst, raw
}

// assembler rebuilds frames from chunks. Only the newest sequence number is
// kept: a chunk from a newer frame discards an incomplete older one, and
// chunks from older frames are ignored.
type assembler struct {
	seq       uint32
	started   bool
	done      bool
	timestamp uint32

	width, height, chunks int

	received []bool
	count    int
	depth    []uint16

	raw []byte
}

func (a *assembler) reset(h header) {
	a.seq = h.Seq
	a.started = true
	a.done = false
	a.timestamp = h.Timestamp
	a.count = 0

	if a.width != int(h.Width) || a.height != int(h.Height) {
		a.width, a.height = int(h.Width), int(h.Height)
		a.depth = make([]uint16, a.width*a.height)
	}

	if a.chunks != int(h.Chunks) {
		a.chunks = int(h.Chunks)
		a.received = make([]bool, a.chunks)
	} else {
		clear(a.received)
	}
}

// add decodes one chunk into the pending frame and reports whether the frame
// is now complete. A complete frame is reported once.
func (a *assembler) add(dec *zstd.Decoder, h header, payload []byte) (bool, error) {
	switch {
	case !a.started || int32(h.Seq-a.seq) > 0:
		a.reset(h)
	case h.Seq != a.seq:
		return false, nil
	case int(h.Width) != a.width || int(h.Height) != a.height || int(h.Chunks) != a.chunks:
		return false, ErrBadChunk
	}

	if a.done || a.received[h.Chunk] {
		return false, nil
	}

	start, rows := bandRows(int(h.Chunk), a.chunks, a.height)

	raw, err := dec.DecodeAll(payload, a.raw[:0])
	if err != nil {
		return false, fmt.Errorf("could not decode chunk: %w", err)
	}
	a.raw = raw

	if len(raw) != rows*a.width*2 {
		return false, ErrPayloadSize
	}

	band := a.depth[start*a.width : (start+rows)*a.width]
	for i := range band {
		band[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}

	a.received[h.Chunk] = true
	a.count++

	if a.count == a.chunks {
		a.done = true
		return true, nil
	}

	return false, nil
}
