package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const fileHeaderSize = 8 + 16 + 8

var magic = []byte("SIGLOG\x00\x01")

var (
	ErrNotContainer   = errors.New("container: not a container file")
	ErrCorrupt        = errors.New("container: corrupt file")
	ErrReadOnly       = errors.New("container: file is read-only")
	ErrWriteOnly      = errors.New("container: file is write-only")
	ErrClosed         = errors.New("container: file closed")
	ErrExists         = errors.New("container: already exists")
	ErrNoGroup        = errors.New("container: no such group")
	ErrSchemaMismatch = errors.New("container: value does not match table schema")
)

// Option configures a *File created with Create.
type Option func(*File) error

// ChunkSize sets the amount of raw row data a table buffers before writing
// it out as a chunk.
func ChunkSize(n int) Option {
	return func(f *File) error {
		if n <= 0 {
			return errors.Errorf("invalid chunk size %d", n)
		}
		f.chunkSize = n
		return nil
	}
}

// File is a container file, opened either for writing (Create) or for
// reading (Open), never both.
//
// A File is not safe for concurrent use.
type File struct {
	path      string
	id        uuid.UUID
	created   time.Time
	chunkSize int

	osf      *os.File
	w        *bufio.Writer // nil when reading
	size     int64
	writable bool
	closed   bool

	groups []string
	tables []*Table
	byName map[string]*Table // keyed by group + "/" + name
}

func tableKey(group, name string) string {
	return group + "/" + name
}

// Create creates the container file at path, truncating any existing file.
func Create(path string, options ...Option) (*File, error) {
	f := &File{
		path:      path,
		id:        uuid.New(),
		created:   time.Now(),
		chunkSize: DefaultChunkSize,
		writable:  true,
		byName:    make(map[string]*Table),
	}
	for _, option := range options {
		if err := option(f); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}

	osf, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "create container")
	}
	f.osf = osf
	f.w = bufio.NewWriterSize(osf, 256<<10)

	hdr := make([]byte, fileHeaderSize)
	copy(hdr, magic)
	copy(hdr[8:24], f.id[:])
	binary.LittleEndian.PutUint64(hdr[24:], uint64(f.created.UnixNano()))
	if _, err := f.w.Write(hdr); err != nil {
		osf.Close()
		return nil, errors.Wrap(err, "write file header")
	}
	f.size = fileHeaderSize
	return f, nil
}

// Open opens the container file at path for reading, and indexes its
// groups, tables and chunks.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open container")
	}
	fi, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, errors.Wrap(err, "stat container")
	}
	f := &File{
		path:   path,
		osf:    osf,
		size:   fi.Size(),
		byName: make(map[string]*Table),
	}
	if err := f.scan(); err != nil {
		osf.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}

// scan reads the file header, then walks every record.
func (f *File) scan() error {
	hdr := make([]byte, fileHeaderSize)
	if _, err := f.osf.ReadAt(hdr, 0); err != nil {
		if err == io.EOF {
			return ErrNotContainer
		}
		return errors.Wrap(err, "read file header")
	}
	if !bytes.Equal(hdr[:8], magic) {
		return ErrNotContainer
	}
	copy(f.id[:], hdr[8:24])
	f.created = time.Unix(0, int64(binary.LittleEndian.Uint64(hdr[24:])))

	h := newHeader()
	for pos := int64(fileHeaderSize); pos < f.size; {
		if f.size-pos < recordHeaderSize {
			return errors.Wrapf(ErrCorrupt, "truncated record header at offset %d", pos)
		}
		if _, err := f.osf.ReadAt(h, pos); err != nil {
			return errors.Wrapf(err, "read record header at offset %d", pos)
		}
		length := int64(h.Length())
		payloadOff := pos + recordHeaderSize
		if payloadOff+length > f.size {
			return errors.Wrapf(ErrCorrupt, "truncated %s record at offset %d", h.Type(), pos)
		}

		switch h.Type() {
		case recGroup, recTable:
			payload := make([]byte, length)
			if _, err := f.osf.ReadAt(payload, payloadOff); err != nil {
				return errors.Wrapf(err, "read %s record at offset %d", h.Type(), pos)
			}
			if checksum(h.Type(), payload) != h.Checksum() {
				return errors.Wrapf(ErrCorrupt, "checksum mismatch in %s record at offset %d", h.Type(), pos)
			}
			if err := f.load(h.Type(), payload); err != nil {
				return errors.Wrapf(err, "%s record at offset %d", h.Type(), pos)
			}
		case recChunk:
			if err := f.indexChunk(h, payloadOff); err != nil {
				return errors.Wrapf(err, "chunk record at offset %d", pos)
			}
		default:
			return errors.Wrapf(ErrCorrupt, "unknown record type %d at offset %d", h.Type(), pos)
		}
		pos = payloadOff + length
	}
	return nil
}

func (f *File) load(rt recordType, payload []byte) error {
	d := &decoder{p: payload}
	switch rt {
	case recGroup:
		name := d.string()
		if d.err != nil {
			return d.err
		}
		f.groups = append(f.groups, name)
	case recTable:
		group, name := d.string(), d.string()
		schema := decodeSchema(d)
		filters := Filters{
			Enabled: d.uint8() != 0,
			Lib:     Complib(d.uint8()),
			Level:   int(d.uint8()),
		}
		if d.err != nil {
			return d.err
		}
		if !f.HasGroup(group) {
			return errors.Wrapf(ErrCorrupt, "table %s declared before its group", tableKey(group, name))
		}
		if err := schema.validate(); err != nil {
			return errors.Wrap(ErrCorrupt, err.Error())
		}
		if err := filters.Validate(); err != nil {
			return errors.Wrap(ErrCorrupt, err.Error())
		}
		f.addTable(group, name, schema, filters)
	}
	return nil
}

func (f *File) indexChunk(h header, payloadOff int64) error {
	if h.Length() < chunkHeaderSize {
		return errors.Wrap(ErrCorrupt, "short chunk header")
	}
	p := make([]byte, chunkHeaderSize)
	if _, err := f.osf.ReadAt(p, payloadOff); err != nil {
		return errors.Wrap(err, "read chunk header")
	}
	d := &decoder{p: p}
	id := d.uint32()
	ref := chunkRef{
		offset: payloadOff,
		length: h.Length(),
		sum:    h.Checksum(),
		rows:   int(d.uint32()),
		rawLen: d.uint32(),
		flags:  d.uint8(),
	}
	if int(id) >= len(f.tables) {
		return errors.Wrapf(ErrCorrupt, "chunk for undeclared table %d", id)
	}
	f.tables[id].addChunk(ref)
	return nil
}

func (f *File) addTable(group, name string, schema Schema, filters Filters) *Table {
	t := &Table{
		file:    f,
		id:      uint32(len(f.tables)),
		group:   group,
		name:    name,
		schema:  schema,
		filters: filters,
		cached:  -1,
	}
	if f.writable {
		t.buf = newChunk(schema.RowSize(), f.chunkSize)
	}
	f.tables = append(f.tables, t)
	f.byName[tableKey(group, name)] = t
	return t
}

// ID returns the unique identifier assigned to the file when it was created.
func (f *File) ID() uuid.UUID { return f.id }

// Created returns the time the file was created.
func (f *File) Created() time.Time { return f.created }

// Path returns the path the file was created or opened with.
func (f *File) Path() string { return f.path }

// HasGroup reports whether the file has a group called name.
func (f *File) HasGroup(name string) bool {
	for _, g := range f.groups {
		if g == name {
			return true
		}
	}
	return false
}

// Groups returns the names of all groups, in declaration order.
func (f *File) Groups() []string {
	return append([]string{}, f.groups...)
}

// CreateGroup declares a new group.
func (f *File) CreateGroup(name string) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("empty group name")
	}
	if f.HasGroup(name) {
		return errors.Wrapf(ErrExists, "group %s", name)
	}
	e := new(encoder)
	e.putString(name)
	if err := f.writeRecord(recGroup, e.Bytes()); err != nil {
		return err
	}
	f.groups = append(f.groups, name)
	return nil
}

// CreateTable declares a new table in group, whose rows will all carry
// values of the given schema, compressed with filters.
func (f *File) CreateTable(group, name string, schema Schema, filters Filters) (*Table, error) {
	if err := f.checkWritable(); err != nil {
		return nil, err
	}
	if !f.HasGroup(group) {
		return nil, errors.Wrapf(ErrNoGroup, "%s", group)
	}
	if name == "" {
		return nil, errors.New("empty table name")
	}
	if _, ok := f.byName[tableKey(group, name)]; ok {
		return nil, errors.Wrapf(ErrExists, "table %s", tableKey(group, name))
	}
	if err := schema.validate(); err != nil {
		return nil, errors.Wrap(err, "create table")
	}
	if err := filters.Validate(); err != nil {
		return nil, errors.Wrap(err, "create table")
	}

	e := new(encoder)
	e.putString(group)
	e.putString(name)
	schema.encode(e)
	var enabled uint8
	if filters.Enabled {
		enabled = 1
	}
	e.putUint8(enabled)
	e.putUint8(uint8(filters.Lib))
	e.putUint8(uint8(filters.Level))
	if err := f.writeRecord(recTable, e.Bytes()); err != nil {
		return nil, err
	}

	schema.Shape = append([]int{}, schema.Shape...)
	return f.addTable(group, name, schema, filters), nil
}

// Table returns the table called name in group.
func (f *File) Table(group, name string) (*Table, bool) {
	t, ok := f.byName[tableKey(group, name)]
	return t, ok
}

// Tables returns the tables of group, in declaration order.
func (f *File) Tables(group string) []*Table {
	var out []*Table
	for _, t := range f.tables {
		if t.group == group {
			out = append(out, t)
		}
	}
	return out
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

func (f *File) writeRecord(rt recordType, payload []byte) error {
	n, err := writeRecord(f.w, rt, payload)
	f.size += int64(n)
	if err != nil {
		return errors.Wrapf(err, "write %s", f.path)
	}
	return nil
}

// Size returns the number of bytes in the file, including data that is
// still buffered when writing.
func (f *File) Size() int64 { return f.size }

// Flush writes every table's buffered rows out as chunks, and commits the
// file's contents to stable storage.
func (f *File) Flush() error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	for _, t := range f.tables {
		if err := t.flush(); err != nil {
			return err
		}
	}
	if err := f.w.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	if err := f.osf.Sync(); err != nil {
		return errors.Wrap(err, "sync")
	}
	return nil
}

// Close flushes a file opened for writing, and releases the underlying
// file. Calling Close more than once is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	if f.writable {
		if err := f.Flush(); err != nil {
			f.osf.Close()
			f.closed = true
			return errors.Wrap(err, "close")
		}
	}
	f.closed = true
	if err := f.osf.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	return nil
}
