package siglog

import (
	"io"

	"github.com/nesv/siglog/array"
	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

// Event is one value of a signal, as yielded by a Reader.
type Event struct {
	Signal string
	Time   float64
	Value  *array.Array
}

// Reader replays the events of a single log file, across all of its
// signals, in order of time. Events with equal times are yielded in signal
// order: the order given with the Signals option, or else the order in
// which the signals were created.
//
// It is not safe to call a Reader from multiple goroutines.
//
// Example:
//
//	r, err := siglog.Open("run1.log")
//	if err != nil {
//		...
//	}
//	defer r.Close()
//
//	for r.HasNext() {
//		ev, err := r.Next()
//		if err != nil {
//			...
//		}
//		fmt.Println(ev.Signal, ev.Time, ev.Value)
//	}
//
//	if err := r.Err(); err != nil {
//		log.Println("error:", err)
//	}
type Reader struct {
	path     string
	cfg      config
	file     *container.File
	cursors  []*cursor // in signal order
	progress *progress
	err      error // sticky; set when iteration fails
	closed   bool
}

// Open opens the log file at path for reading.
//
// Open fails with ErrNotALog if the file is not a log, and with
// ErrUnknownSignal if the Signals option names a signal the file does not
// have.
func Open(path string, options ...Option) (*Reader, error) {
	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}
	r, err := open(path, cfg)
	return r, cfg.metrics.failed(err)
}

func open(path string, cfg config) (*Reader, error) {
	f, err := container.Open(path)
	if err != nil {
		return nil, fileError(path, "", err)
	}
	if !f.HasGroup(Namespace) {
		f.Close()
		return nil, &Error{File: path, Err: ErrNotALog}
	}

	r := &Reader{
		path: path,
		cfg:  cfg,
		file: f,
	}
	if cfg.signals == nil {
		for _, t := range f.Tables(Namespace) {
			r.cursors = append(r.cursors, newCursor(t.Name(), t))
		}
	} else {
		for _, name := range cfg.signals {
			t, ok := f.Table(Namespace, name)
			if !ok {
				f.Close()
				return nil, &Error{File: path, Signal: name, Err: ErrUnknownSignal}
			}
			r.cursors = append(r.cursors, newCursor(name, t))
		}
	}

	if len(r.cursors) > 0 && !cfg.quiet {
		primary := r.cursors[0]
		r.progress = newProgress(cfg.log, path, primary.signal, primary.rows)
	}
	cfg.metrics.fileOpened()
	return r, nil
}

// Path returns the path of the log file.
func (r *Reader) Path() string { return r.path }

// Signals returns the names of the signals the Reader yields, in
// tie-breaking order.
func (r *Reader) Signals() []string {
	names := make([]string, len(r.cursors))
	for i, c := range r.cursors {
		names[i] = c.signal
	}
	return names
}

// NumEvents returns the number of events stored for signal, or -1 if the
// Reader does not yield signal.
func (r *Reader) NumEvents(signal string) int {
	for _, c := range r.cursors {
		if c.signal == signal {
			return c.rows
		}
	}
	return -1
}

// earliest returns the cursor holding the next event, or nil when every
// cursor is exhausted or the Reader has failed.
func (r *Reader) earliest() *cursor {
	if r.err != nil || r.closed {
		return nil
	}
	var (
		next *cursor
		min  float64
	)
	for _, c := range r.cursors {
		if c.exhausted() {
			continue
		}
		t, err := c.peek()
		if err != nil {
			r.fail(c.signal, err)
			return nil
		}
		// Strictly less: on ties, the earlier signal wins.
		if next == nil || t < min {
			next, min = c, t
		}
	}
	return next
}

// HasNext reports whether another event can be read with Next.
func (r *Reader) HasNext() bool {
	return r.earliest() != nil
}

// PeekTime returns the time of the next event. The boolean is false if
// there are no more events.
func (r *Reader) PeekTime() (float64, bool) {
	c := r.earliest()
	if c == nil {
		return 0, false
	}
	return c.next, true
}

// Next returns the earliest event not yet read, and advances past it.
//
// Next returns io.EOF when all events have been read. If reading from the
// file fails, Next returns an error wrapping ErrCorruptLog, and every later
// call returns the same error.
func (r *Reader) Next() (Event, error) {
	if r.closed {
		return Event{}, ErrReaderClosed
	}
	c := r.earliest()
	if r.err != nil {
		return Event{}, r.err
	}
	if c == nil {
		return Event{}, io.EOF
	}

	row := c.row
	t, v, err := c.read()
	if err != nil {
		r.fail(c.signal, err)
		return Event{}, r.err
	}
	if c == r.cursors[0] {
		r.progress.read(row)
	}
	r.cfg.metrics.eventRead()
	return Event{Signal: c.signal, Time: t, Value: v}, nil
}

// fail records err as the Reader's sticky error, and releases the file.
func (r *Reader) fail(signal string, err error) {
	r.err = r.cfg.metrics.failed(&Error{File: r.path, Signal: signal, Err: ErrCorruptLog, cause: err})
	r.file.Close()
}

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the log file. Calling Close more than once is a no-op.
//
// Close implements the io.Closer interface.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.file.Close(); err != nil {
		return errors.Wrapf(err, "close %s", r.path)
	}
	return nil
}
