package siglog

import (
	"strconv"
	"strings"

	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

var (
	ErrConfig            = errors.New("siglog: invalid configuration")
	ErrNoFilesMatched    = errors.New("siglog: no files matched")
	ErrNotALog           = errors.New("siglog: not a log file")
	ErrUnknownSignal     = errors.New("siglog: unknown signal")
	ErrMissingSignal     = errors.New("siglog: missing signal")
	ErrInvalidValue      = errors.New("siglog: value is not a numeric array")
	ErrInvalidSignalName = errors.New("siglog: invalid signal name")
	ErrDtypeMismatch     = errors.New("siglog: dtype mismatch")
	ErrWriterClosed      = errors.New("siglog: writer closed")
	ErrReaderClosed      = errors.New("siglog: reader closed")
	ErrCorruptLog        = errors.New("siglog: corrupt log")
)

// Error is the error returned when an operation fails on a particular log
// file or signal. Err is one of the package's Err* values; errors.Cause
// and errors.Is both see through an *Error to it.
type Error struct {
	File   string // empty if not tied to a file
	Signal string // empty if not tied to a signal
	Err    error

	cause error // underlying failure, if any
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.File != "" {
		sb.WriteString(": ")
		sb.WriteString(e.File)
	}
	if e.Signal != "" {
		sb.WriteString(": signal ")
		sb.WriteString(strconv.Quote(e.Signal))
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Detail returns the underlying failure that triggered the error, if any.
func (e *Error) Detail() error { return e.cause }

// fileError translates an error from the container package, raised while
// opening or reading file, into the package's taxonomy.
func fileError(file, signal string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	switch errors.Cause(err) {
	case container.ErrNotContainer:
		return &Error{File: file, Signal: signal, Err: ErrNotALog}
	case container.ErrCorrupt:
		return &Error{File: file, Signal: signal, Err: ErrCorruptLog, cause: err}
	}
	return errors.Wrapf(err, "%s", file)
}

// validSignalName reports whether name can be used as a file path
// component.
func validSignalName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
