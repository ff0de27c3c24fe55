// Package snapshot writes the current depth frame to disk, as a FITS image
// of the raw samples and a PNG of what is on screen.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/astrogo/fitsio"
	"go.uber.org/multierr"
)

var ErrSizeMismatch = errors.New("depth sample count does not match dimensions")

// WriteFITS writes depth as a single 16-bit image. FITS has no unsigned
// integers, so samples are shifted by BZERO.
func WriteFITS(w io.Writer, depth []uint16, width, height int, cards ...fitsio.Card) error {
	if width <= 0 || height <= 0 || len(depth) != width*height {
		return ErrSizeMismatch
	}

	cards = append(cards,
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0},
	)

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("could not create fits file: %w", err)
	}
	defer f.Close()

	im := fitsio.NewImage(16, []int{width, height})
	defer im.Close()

	if err := im.Header().Append(cards...); err != nil {
		return fmt.Errorf("could not write fits header: %w", err)
	}

	ints := make([]int16, len(depth))
	for i, v := range depth {
		ints[i] = int16(int32(v) - 32768)
	}

	if err := im.Write(ints); err != nil {
		return fmt.Errorf("could not write fits data: %w", err)
	}

	return f.Write(im)
}

func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// Saver names and writes snapshot files in a directory.
type Saver struct {
	dir string
	now func() time.Time
}

func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create snapshot directory: %w", err)
	}

	return &Saver{
		dir: dir,
		now: time.Now,
	}, nil
}

// Save writes <stem>.fits from depth and <stem>.png from img, and returns
// the common path stem. img may be nil when nothing has been displayed yet.
func (s *Saver) Save(img image.Image, depth []uint16, width, height int, timestamp uint32) (string, error) {
	now := s.now()
	stem := filepath.Join(s.dir, "topography-"+now.Format("20060102-150405.000"))

	err := writeFile(stem+".fits", func(w io.Writer) error {
		return WriteFITS(w, depth, width, height,
			fitsio.Card{Name: "DATE-OBS", Value: now.UTC().Format(time.RFC3339Nano)},
			fitsio.Card{Name: "TSTAMP", Value: int(timestamp), Comment: "sensor timestamp"},
		)
	})
	if err != nil {
		return "", err
	}

	if img != nil {
		if err := writeFile(stem+".png", func(w io.Writer) error { return WritePNG(w, img) }); err != nil {
			return "", err
		}
	}

	return stem, nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
