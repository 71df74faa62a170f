package renderer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// ErrCheckpointFormat is returned when a checkpoint stream cannot be decoded
var ErrCheckpointFormat = errors.New("invalid accumulator checkpoint")

// Checkpoint layout: the magic bytes followed by a zlib stream holding
// width and height as uint32, then per pixel N as uint32 and the mean as three
// float64, row-major, little-endian.
var checkpointMagic = []byte("PTACC\x01")

const (
	checkpointPixelSize = 4 + 3*8
	maxCheckpointEdge   = 1 << 15
	maxCheckpointPixels = 1 << 26
)

// Save writes the accumulator so a progressive render can be resumed later
func (a *Accumulator) Save(w io.Writer) error {
	if _, err := w.Write(checkpointMagic); err != nil {
		return fmt.Errorf("failed to write checkpoint header: %w", err)
	}

	zw, err := zlib.NewWriterLevel(w, zlib.BestSpeed)
	if err != nil {
		return err
	}

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(a.width))
	binary.LittleEndian.PutUint32(header[4:], uint32(a.height))
	if _, err := zw.Write(header[:]); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	row := make([]byte, a.width*checkpointPixelSize)
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			p := a.At(x, y)
			b := row[x*checkpointPixelSize:]
			binary.LittleEndian.PutUint32(b[0:], p.N)
			binary.LittleEndian.PutUint64(b[4:], math.Float64bits(p.Mean.X))
			binary.LittleEndian.PutUint64(b[12:], math.Float64bits(p.Mean.Y))
			binary.LittleEndian.PutUint64(b[20:], math.Float64bits(p.Mean.Z))
		}
		if _, err := zw.Write(row); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}

	return zw.Close()
}

// LoadAccumulator reads an accumulator written by Save
func LoadAccumulator(r io.Reader) (*Accumulator, error) {
	magic := make([]byte, len(checkpointMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckpointFormat, err)
	}
	if !bytes.Equal(magic, checkpointMagic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCheckpointFormat, magic)
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckpointFormat, err)
	}
	defer zr.Close()

	var header [8]byte
	if _, err := io.ReadFull(zr, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckpointFormat, err)
	}
	width := int(binary.LittleEndian.Uint32(header[0:]))
	height := int(binary.LittleEndian.Uint32(header[4:]))
	if width <= 0 || height <= 0 || width > maxCheckpointEdge || height > maxCheckpointEdge ||
		width*height > maxCheckpointPixels {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrCheckpointFormat, width, height)
	}

	// Pixels grow with the rows actually present, so a header alone cannot
	// force a large allocation.
	var pixels []Pixel
	row := make([]byte, width*checkpointPixelSize)
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(zr, row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCheckpointFormat, y, err)
		}
		for x := 0; x < width; x++ {
			b := row[x*checkpointPixelSize:]
			pixels = append(pixels, Pixel{
				N: binary.LittleEndian.Uint32(b[0:]),
				Mean: core.Vec3{
					X: math.Float64frombits(binary.LittleEndian.Uint64(b[4:])),
					Y: math.Float64frombits(binary.LittleEndian.Uint64(b[12:])),
					Z: math.Float64frombits(binary.LittleEndian.Uint64(b[20:])),
				},
			})
		}
	}

	// Reading to the end verifies the stream checksum
	var trailing [1]byte
	if _, err := io.ReadFull(zr, trailing[:]); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data")
		}
		return nil, fmt.Errorf("%w: %w", ErrCheckpointFormat, err)
	}

	return &Accumulator{width: width, height: height, pixels: pixels}, nil
}
