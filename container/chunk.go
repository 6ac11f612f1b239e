package container

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultChunkSize is the default amount of raw row data (64KB) a table
	// buffers before writing a chunk record.
	DefaultChunkSize = 64 * 1024

	timeSize = 8
)

var errChunkFull = errors.New("not enough space in chunk")

// chunk is a size-bounded run of consecutive rows of one table.
type chunk struct {
	size    int // Maximum raw size of the chunk, in bytes.
	rowSize int // Size of one packed value.
	times   []float64
	values  []byte
}

func newChunk(rowSize, size int) *chunk {
	return &chunk{
		size:    size,
		rowSize: rowSize,
	}
}

// append adds a row to the chunk. If the row does not fit in the remaining
// capacity, errChunkFull is returned; a row always fits into an empty chunk.
func (c *chunk) append(t float64, value []byte) error {
	if len(value) != c.rowSize {
		return errors.Errorf("row value is %d bytes, want %d", len(value), c.rowSize)
	}
	if len(c.times) > 0 && c.rawSize()+timeSize+c.rowSize > c.size {
		return errChunkFull
	}
	c.times = append(c.times, t)
	c.values = append(c.values, value...)
	return nil
}

func (c *chunk) rows() int { return len(c.times) }

func (c *chunk) rawSize() int {
	return len(c.times)*timeSize + len(c.values)
}

func (c *chunk) time(i int) float64 { return c.times[i] }

func (c *chunk) value(i int) []byte {
	return c.values[i*c.rowSize : (i+1)*c.rowSize]
}

func (c *chunk) reset() {
	c.times = c.times[:0]
	c.values = c.values[:0]
}

// MarshalBinary implements the encoding.BinaryMarshaler interface. The
// encoding is columnar: all times, then all values.
func (c *chunk) MarshalBinary() ([]byte, error) {
	p := make([]byte, c.rawSize())
	for i, t := range c.times {
		binary.LittleEndian.PutUint64(p[i*timeSize:], math.Float64bits(t))
	}
	copy(p[len(c.times)*timeSize:], c.values)
	return p, nil
}

// unmarshal loads rows encoded by MarshalBinary. Calling unmarshal on a
// non-empty chunk returns an error.
func (c *chunk) unmarshal(p []byte, rows int) error {
	if len(c.times) != 0 {
		return errors.New("will not load into populated chunk")
	}
	if want := rows * (timeSize + c.rowSize); len(p) != want {
		return errors.Wrapf(ErrCorrupt, "chunk holds %d bytes, %d rows need %d", len(p), rows, want)
	}
	c.times = make([]float64, rows)
	for i := range c.times {
		c.times[i] = math.Float64frombits(binary.LittleEndian.Uint64(p[i*timeSize:]))
	}
	c.values = append([]byte{}, p[rows*timeSize:]...)
	return nil
}
