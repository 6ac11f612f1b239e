package siglog

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/nesv/siglog/array"
)

// event is an (time, signal, value) triple, as passed to Writer.Append.
type event struct {
	t      float64
	signal string
	value  interface{}
}

// writeLog writes events to a new log at path.
func writeLog(t *testing.T, path string, events []event, options ...Option) {
	t.Helper()
	w, err := NewWriter(path, options...)
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range events {
		if err := w.Append(ev.t, ev.signal, ev.value); err != nil {
			t.Fatalf("append %s@%v: %v", ev.signal, ev.t, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

// readAll drains src, failing the test on any error.
func readAll(t *testing.T, src Source) []Event {
	t.Helper()
	var out []Event
	for src.HasNext() {
		ev, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, ev)
	}
	if err := src.Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after the last event, got %v", err)
	}
	return out
}

// checkEvents compares got with want, where the values of want are coerced
// with array.From.
func checkEvents(t *testing.T, got []Event, want []event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("wrong number of events: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i, w := range want {
		g := got[i]
		wv, err := array.From(w.value)
		if err != nil {
			t.Fatal(err)
		}
		if g.Signal != w.signal || g.Time != w.t || !g.Value.Equal(wv) {
			t.Errorf("event %d: want=%s@%v %v got=%s@%v %v", i, w.signal, w.t, wv, g.Signal, g.Time, g.Value)
		}
	}
}

// recordingLogger keeps every message it receives.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.record("INFO", format, args...)
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.record("WARN", format, args...)
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {
	l.record("DEBUG", format, args...)
}

// matching returns the recorded lines containing substr.
func (l *recordingLogger) matching(substr string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			out = append(out, line)
		}
	}
	return out
}
