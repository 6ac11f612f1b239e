package siglog

import (
	"io"
	"math"
	"path/filepath"
	"sort"

	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

// MultiReader plays back every log file matching a glob pattern, one file
// after the other, as a single stream of events.
//
// Files are not merged: each file is played to its end before the next one
// is started. The playback order is that of each file's sort key, the time
// of the first event of the last required signal; files whose key signal
// is empty sort last, and files with equal keys keep the order in which
// the glob matched them.
//
// It is not safe to call a MultiReader from multiple goroutines.
type MultiReader struct {
	pattern string
	signals []string
	cfg     config
	files   []string // in playback order

	next   int     // index in files of the next file to start
	active *Reader // nil between files
	err    error
	closed bool
}

// OpenGlob opens every log file matching pattern, as understood by
// filepath.Match, for reading the given signals.
//
// Every matched file is checked before OpenGlob returns: it must be a log,
// and it must hold every one of signals. OpenGlob fails with
// ErrNoFilesMatched if pattern matches nothing, with ErrNotALog or
// ErrMissingSignal naming the offending file, and with ErrConfig if signals
// is empty or names a signal twice.
//
// Any Signals option is overridden by signals.
func OpenGlob(pattern string, signals []string, options ...Option) (*MultiReader, error) {
	cfg, err := newConfig(append(options, Signals(signals...)))
	if err != nil {
		return nil, err
	}
	m, err := openGlob(pattern, signals, cfg)
	return m, cfg.metrics.failed(err)
}

func openGlob(pattern string, signals []string, cfg config) (*MultiReader, error) {
	if len(signals) == 0 {
		return nil, errors.Wrap(ErrConfig, "no signals to read")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrConfig, "bad pattern %q: %v", pattern, err)
	}
	if len(matches) == 0 {
		return nil, errors.Wrapf(ErrNoFilesMatched, "%q", pattern)
	}

	keys := make(map[string]float64, len(matches))
	for _, name := range matches {
		key, err := preflight(name, signals)
		if err != nil {
			return nil, err
		}
		keys[name] = key
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return keys[matches[i]] < keys[matches[j]]
	})

	if !cfg.quiet {
		cfg.log.Infof("reading %d file(s) matching %s", len(matches), pattern)
	}
	return &MultiReader{
		pattern: pattern,
		signals: append([]string{}, signals...),
		cfg:     cfg,
		files:   matches,
	}, nil
}

// preflight checks that the file at name is a log holding every one of
// signals, and returns the file's sort key.
func preflight(name string, signals []string) (float64, error) {
	f, err := container.Open(name)
	if err != nil {
		return 0, fileError(name, "", err)
	}
	defer f.Close()

	if !f.HasGroup(Namespace) {
		return 0, &Error{File: name, Err: ErrNotALog}
	}
	var last *container.Table
	for _, signal := range signals {
		t, ok := f.Table(Namespace, signal)
		if !ok {
			return 0, &Error{File: name, Signal: signal, Err: ErrMissingSignal}
		}
		last = t
	}
	if last.NumRows() == 0 {
		return math.Inf(1), nil
	}
	key, err := last.Time(0)
	if err != nil {
		return 0, &Error{File: name, Signal: last.Name(), Err: ErrCorruptLog, cause: err}
	}
	return key, nil
}

// Files returns the matched files, in playback order.
func (m *MultiReader) Files() []string {
	return append([]string{}, m.files...)
}

// Signals returns the names of the signals the MultiReader yields.
func (m *MultiReader) Signals() []string {
	return append([]string{}, m.signals...)
}

// advance makes sure the active file has an event left to read, rolling
// over to the next files as they are exhausted. It returns false once
// every file has been played, or when playback has failed.
func (m *MultiReader) advance() bool {
	for m.err == nil && !m.closed {
		if m.active != nil {
			if m.active.HasNext() {
				return true
			}
			if err := m.active.Err(); err != nil {
				m.err = err
			}
			m.finish()
			continue
		}
		if m.next >= len(m.files) {
			return false
		}
		if err := m.start(m.files[m.next]); err != nil {
			m.err = m.cfg.metrics.failed(err)
		}
		m.next++
	}
	return false
}

func (m *MultiReader) start(name string) error {
	if !m.cfg.quiet {
		m.cfg.log.Infof("now starting %s", name)
	}
	r, err := open(name, m.cfg)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return err
		}
		return &Error{File: name, Err: ErrCorruptLog, cause: err}
	}
	m.active = r
	return nil
}

// finish closes the active file.
func (m *MultiReader) finish() {
	if m.active == nil {
		return
	}
	if err := m.active.Close(); err != nil {
		m.cfg.log.Warnf("%v", err)
	}
	if !m.cfg.quiet && m.err == nil {
		m.cfg.log.Infof("finished %s", m.active.Path())
	}
	m.active = nil
}

// HasNext reports whether another event can be read with Next.
func (m *MultiReader) HasNext() bool {
	return m.advance()
}

// PeekTime returns the time of the next event. The boolean is false if
// there are no more events.
func (m *MultiReader) PeekTime() (float64, bool) {
	if !m.advance() {
		return 0, false
	}
	return m.active.PeekTime()
}

// Next returns the next event, and advances past it.
//
// Next returns io.EOF once every file has been played. If reading a file
// fails, Next returns an error wrapping ErrCorruptLog and naming the file,
// and every later call returns the same error.
func (m *MultiReader) Next() (Event, error) {
	if m.closed {
		return Event{}, ErrReaderClosed
	}
	if !m.advance() {
		if m.err != nil {
			return Event{}, m.err
		}
		return Event{}, io.EOF
	}
	ev, err := m.active.Next()
	if err != nil {
		m.err = err
		m.finish()
		return Event{}, err
	}
	return ev, nil
}

// Err returns the error that stopped playback, if any.
func (m *MultiReader) Err() error {
	return m.err
}

// Close releases the file being played, if any. Calling Close more than
// once is a no-op.
func (m *MultiReader) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.active == nil {
		return nil
	}
	err := m.active.Close()
	m.active = nil
	return err
}
