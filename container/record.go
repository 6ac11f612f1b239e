package container

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

const (
	// recordHeaderSize is the size of a record header: type (uint8),
	// length (uint32) and checksum (uint64).
	recordHeaderSize = 1 + 4 + 8

	// chunkHeaderSize is the size of the fixed part of a chunk payload.
	chunkHeaderSize = 4 + 4 + 4 + 1

	// maxRecordSize bounds the payload of a single record.
	maxRecordSize = math.MaxUint32
)

type recordType uint8

const (
	_ recordType = iota
	recGroup
	recTable
	recChunk
)

func (rt recordType) String() string {
	switch rt {
	case recGroup:
		return "group"
	case recTable:
		return "table"
	case recChunk:
		return "chunk"
	}
	return "unknown"
}

type header []byte

func newHeader() header {
	return make([]byte, recordHeaderSize)
}

func (h header) SetType(rt recordType) { h[0] = byte(rt) }

func (h header) Type() recordType { return recordType(h[0]) }

func (h header) SetLength(n uint32) { binary.LittleEndian.PutUint32(h[1:5], n) }

func (h header) Length() uint32 { return binary.LittleEndian.Uint32(h[1:5]) }

func (h header) SetChecksum(sum uint64) { binary.LittleEndian.PutUint64(h[5:13], sum) }

func (h header) Checksum() uint64 { return binary.LittleEndian.Uint64(h[5:13]) }

func checksum(rt recordType, payload []byte) uint64 {
	d := xxhash.New()
	d.Write([]byte{byte(rt)})
	d.Write(payload)
	return d.Sum64()
}

// writeRecord frames payload as a record of type rt, and writes it to w.
// It returns the total number of bytes written, header included.
func writeRecord(w io.Writer, rt recordType, payload []byte) (int, error) {
	if uint64(len(payload)) > maxRecordSize {
		return 0, errors.Errorf("%s record too large (%d bytes)", rt, len(payload))
	}
	h := newHeader()
	h.SetType(rt)
	h.SetLength(uint32(len(payload)))
	h.SetChecksum(checksum(rt, payload))
	n, err := w.Write(h)
	if err != nil {
		return n, errors.Wrap(err, "write record header")
	}
	m, err := w.Write(payload)
	n += m
	if err != nil {
		return n, errors.Wrap(err, "write record payload")
	}
	return n, nil
}

// encoder builds record payloads.
type encoder struct {
	bytes.Buffer
}

func (e *encoder) putUint8(v uint8) { e.WriteByte(v) }

func (e *encoder) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

func (e *encoder) putString(s string) {
	e.putUint32(uint32(len(s)))
	e.WriteString(s)
}

// decoder reads record payloads. The first error is sticky; subsequent
// reads return zero values.
type decoder struct {
	p   []byte
	err error
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if len(d.p) < n {
		d.err = errors.Wrap(ErrCorrupt, "short payload")
		return false
	}
	return true
}

func (d *decoder) uint8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.p[0]
	d.p = d.p[1:]
	return v
}

func (d *decoder) uint32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.p)
	d.p = d.p[4:]
	return v
}

func (d *decoder) string() string {
	n := d.uint32()
	if !d.need(int(n)) {
		return ""
	}
	s := string(d.p[:n])
	d.p = d.p[n:]
	return s
}

// chunkRef locates a chunk record within a file opened for reading.
type chunkRef struct {
	offset int64 // offset of the payload
	length uint32
	sum    uint64
	rows   int
	rawLen uint32
	flags  uint8
}

const flagCompressed = 1 << 0
