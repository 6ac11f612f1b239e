package container

import (
	"sort"

	"github.com/nesv/siglog/array"
	"github.com/pkg/errors"
)

// Table is an append-only sequence of (time, value) rows, where every value
// matches the table's schema.
type Table struct {
	file    *File
	id      uint32
	group   string
	name    string
	schema  Schema
	filters Filters
	rows    int

	// Used when writing.
	buf *chunk

	// Used when reading.
	chunks []chunkRef
	starts []int // index of the first row of each chunk
	cached int   // index of the chunk held in loaded, or -1
	loaded *chunk
}

func (t *Table) Name() string { return t.name }

func (t *Table) Group() string { return t.group }

func (t *Table) Schema() Schema { return t.schema }

func (t *Table) Filters() Filters { return t.filters }

// NumRows returns the number of rows in the table, including rows that are
// still buffered when writing.
func (t *Table) NumRows() int { return t.rows }

func (t *Table) addChunk(ref chunkRef) {
	t.chunks = append(t.chunks, ref)
	t.starts = append(t.starts, t.rows)
	t.rows += ref.rows
}

// Append adds a row to the table. The value must match the table's schema,
// otherwise ErrSchemaMismatch is returned and the table is left unchanged.
func (t *Table) Append(time float64, value *array.Array) error {
	if err := t.file.checkWritable(); err != nil {
		return err
	}
	if got := SchemaOf(value); !got.Equal(t.schema) {
		return errors.Wrapf(ErrSchemaMismatch, "table %s is %s, value is %s", t.name, t.schema, got)
	}

AppendRow:
	err := t.buf.append(time, value.Bytes())
	if err == errChunkFull {
		if err := t.flush(); err != nil {
			return err
		}
		goto AppendRow
	} else if err != nil {
		return errors.Wrapf(err, "append to %s", t.name)
	}
	t.rows++
	return nil
}

// flush writes the buffered rows as a chunk record, and empties the buffer.
func (t *Table) flush() error {
	if t.buf.rows() == 0 {
		return nil
	}
	raw, err := t.buf.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal chunk")
	}

	data, flags := raw, uint8(0)
	if t.filters.active() {
		c, err := codecFor(t.filters.Lib)
		if err != nil {
			return err
		}
		packed, err := c.encode(raw, t.filters.Level, t.schema.DType.Size)
		switch {
		case err == errIncompressible:
		case err != nil:
			return errors.Wrapf(err, "compress chunk of %s", t.name)
		case len(packed) < len(raw):
			data, flags = packed, flagCompressed
		}
	}

	e := new(encoder)
	e.Grow(chunkHeaderSize + len(data))
	e.putUint32(t.id)
	e.putUint32(uint32(t.buf.rows()))
	e.putUint32(uint32(len(raw)))
	e.putUint8(flags)
	e.Write(data)
	if err := t.file.writeRecord(recChunk, e.Bytes()); err != nil {
		return err
	}
	t.buf.reset()
	return nil
}

// Row returns the time and value of row i.
func (t *Table) Row(i int) (float64, *array.Array, error) {
	c, j, err := t.locate(i)
	if err != nil {
		return 0, nil, err
	}
	v, err := array.New(t.schema.DType, t.schema.Shape, c.value(j))
	if err != nil {
		return 0, nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return c.time(j), v, nil
}

// Time returns the time of row i.
func (t *Table) Time(i int) (float64, error) {
	c, j, err := t.locate(i)
	if err != nil {
		return 0, err
	}
	return c.time(j), nil
}

// locate loads the chunk holding row i, and returns it along with the index
// of the row within the chunk.
func (t *Table) locate(i int) (*chunk, int, error) {
	if t.file.writable {
		return nil, 0, ErrWriteOnly
	}
	if t.file.closed {
		return nil, 0, ErrClosed
	}
	if i < 0 || i >= t.rows {
		return nil, 0, errors.Errorf("row %d out of range [0,%d) in table %s", i, t.rows, t.name)
	}
	if t.cached >= 0 {
		if start := t.starts[t.cached]; i >= start && i < start+t.chunks[t.cached].rows {
			return t.loaded, i - start, nil
		}
	}
	ci := sort.Search(len(t.starts), func(k int) bool { return t.starts[k] > i }) - 1
	c, err := t.loadChunk(ci)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "table %s", t.name)
	}
	t.cached, t.loaded = ci, c
	return c, i - t.starts[ci], nil
}

func (t *Table) loadChunk(ci int) (*chunk, error) {
	ref := t.chunks[ci]
	p := make([]byte, ref.length)
	if _, err := t.file.osf.ReadAt(p, ref.offset); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "read chunk %d: %v", ci, err)
	}
	if checksum(recChunk, p) != ref.sum {
		return nil, errors.Wrapf(ErrCorrupt, "checksum mismatch in chunk %d", ci)
	}

	raw := p[chunkHeaderSize:]
	if ref.flags&flagCompressed != 0 {
		c, err := codecFor(t.filters.Lib)
		if err != nil {
			return nil, errors.Wrap(ErrCorrupt, err.Error())
		}
		raw, err = c.decode(raw, int(ref.rawLen), t.schema.DType.Size)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "chunk %d: %v", ci, err)
		}
	}
	c := newChunk(t.schema.RowSize(), 0)
	if err := c.unmarshal(raw, ref.rows); err != nil {
		return nil, errors.Wrapf(err, "chunk %d", ci)
	}
	return c, nil
}
