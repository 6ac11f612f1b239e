package siglog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/nesv/siglog/array"
	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

// Namespace is the group under which every signal table of a log lives.
// Its presence is what identifies a container file as a log.
const Namespace = "procgraph"

// NewWriter returns a Writer that will store signals in the log file at
// path.
//
// The file itself is created on the first successful Append, truncating
// any file already at path; a Writer that is closed without ever appending
// leaves the filesystem untouched. If the parent directory exists, it must
// be writable; if it does not, it is created along with the file.
func NewWriter(path string, options ...Option) (*Writer, error) {
	if path == "" {
		return nil, errors.Wrap(ErrConfig, "empty log path")
	}
	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}
	if err := checkDirPerms(filepath.Dir(path)); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "new writer")
	}
	return &Writer{
		path:   path,
		cfg:    cfg,
		tables: make(map[string]*container.Table),
	}, nil
}

// Writer appends timestamped values of named signals to a log file.
//
// Every signal is stored in its own table, created on the signal's first
// Append with the dtype and shape of that first value; every later value
// of the signal must have the same dtype and shape. Values are appended in
// call order, and are only guaranteed to be durable once Close returns.
type Writer struct {
	path string
	cfg  config

	mu      sync.Mutex
	file    *container.File // nil until the first Append
	tables  map[string]*container.Table
	signals []string // in creation order
	closed  bool
}

// lock runs the given function fn, while holding the *Writer's mutex.
func (w *Writer) lock(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn()
}

// Path returns the path of the log file.
func (w *Writer) Path() string { return w.path }

// Signals returns the names of the signals written so far, in the order
// they were first appended.
func (w *Writer) Signals() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string{}, w.signals...)
}

// Append stores value as the next event of signal, at time t.
//
// A nil value is ignored. Any other value is coerced with array.From;
// values that cannot be coerced yield ErrInvalidValue. If signal was
// already written with a different dtype or shape, ErrDtypeMismatch is
// returned and nothing is stored.
//
// A failed Append leaves the Writer usable. Any attempt to Append after
// Close yields ErrWriterClosed.
func (w *Writer) Append(t float64, signal string, value interface{}) error {
	return w.cfg.metrics.failed(w.lock(func() error {
		if w.closed {
			return ErrWriterClosed
		}
		if !validSignalName(signal) {
			return &Error{File: w.path, Signal: signal, Err: ErrInvalidSignalName}
		}
		a, err := array.From(value)
		if err != nil {
			return &Error{File: w.path, Signal: signal, Err: ErrInvalidValue, cause: err}
		}
		if a == nil {
			return nil
		}

		tbl, err := w.table(signal, a)
		if err != nil {
			return err
		}
		if err := tbl.Append(t, a); err != nil {
			if errors.Cause(err) == container.ErrSchemaMismatch {
				return &Error{File: w.path, Signal: signal, Err: ErrDtypeMismatch, cause: err}
			}
			return errors.Wrapf(err, "append %s to %s", signal, w.path)
		}
		w.cfg.metrics.eventWritten()
		return nil
	}))
}

// table returns the table of signal, creating the file and the table as
// needed.
func (w *Writer) table(signal string, first *array.Array) (*container.Table, error) {
	if tbl, ok := w.tables[signal]; ok {
		return tbl, nil
	}
	if w.file == nil {
		if err := w.create(); err != nil {
			return nil, err
		}
	}
	schema := container.SchemaOf(first)
	tbl, err := w.file.CreateTable(Namespace, signal, schema, w.cfg.filters)
	if err != nil {
		return nil, errors.Wrapf(err, "create signal %s", signal)
	}
	w.cfg.log.Debugf("%s: created signal %s %s (compression %s)", w.path, signal, schema, w.cfg.filters)
	w.tables[signal] = tbl
	w.signals = append(w.signals, signal)
	w.cfg.metrics.signalCreated()
	return tbl, nil
}

func (w *Writer) create() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0777); err != nil {
		return errors.Wrap(err, "mkdir all")
	}
	f, err := container.Create(w.path, container.ChunkSize(w.cfg.chunkSize))
	if err != nil {
		return errors.Wrap(err, "create log")
	}
	if err := f.CreateGroup(Namespace); err != nil {
		f.Close()
		return errors.Wrap(err, "create log")
	}
	w.cfg.log.Debugf("created log %s (%s)", w.path, f.ID())
	w.cfg.metrics.fileCreated()
	w.file = f
	return nil
}

// Flush writes all buffered events to the log file, and commits them to
// stable storage.
//
// Attempting to call Flush after Close will return ErrWriterClosed.
func (w *Writer) Flush() error {
	return w.lock(func() error {
		if w.closed {
			return ErrWriterClosed
		}
		if w.file == nil {
			return nil
		}
		return errors.Wrap(w.file.Flush(), "flush")
	})
}

// Close flushes and closes the log file. Calling Close more than once is a
// no-op.
//
// Close implements the io.Closer interface.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return errors.Wrap(err, "close log")
	}
	return nil
}
