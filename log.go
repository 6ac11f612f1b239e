package siglog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger receives the human-readable messages emitted by writers and
// readers: progress lines, file rollovers, and diagnostics.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type stdLogger struct {
	info  *log.Logger
	warn  *log.Logger
	debug *log.Logger // nil when debugging is off
}

// NewLogger returns a Logger writing level-prefixed lines to w, or to
// os.Stderr if w is nil. Debug messages are dropped unless debug is true.
func NewLogger(w io.Writer, debug bool) Logger {
	if w == nil {
		w = os.Stderr
	}
	l := &stdLogger{
		info: log.New(w, "[INFO] ", log.LstdFlags),
		warn: log.New(w, "[WARN] ", log.LstdFlags),
	}
	if debug {
		l.debug = log.New(w, "[DEBUG] ", log.LstdFlags|log.Lshortfile)
	}
	return l
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l *stdLogger) Warnf(format string, args ...interface{}) {
	l.warn.Output(2, fmt.Sprintf(format, args...))
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	if l.debug != nil {
		l.debug.Output(2, fmt.Sprintf(format, args...))
	}
}
