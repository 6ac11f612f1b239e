package siglog

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/siglog/array"
	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

func TestReader(t *testing.T) {
	tests := []struct {
		name    string
		events  []event
		options []Option
		want    []event
	}{
		{
			name: "SingleSignal",
			events: []event{
				{1, "x", []float64{1}},
				{2, "x", []float64{2}},
				{3, "x", []float64{3}},
			},
			want: []event{
				{1, "x", []float64{1}},
				{2, "x", []float64{2}},
				{3, "x", []float64{3}},
			},
		},
		{
			name: "Interleave",
			events: []event{
				{1, "a", []int{10}},
				{1.5, "b", []int{20}},
				{2, "a", []int{11}},
				{3, "b", []int{21}},
			},
			want: []event{
				{1, "a", []int{10}},
				{1.5, "b", []int{20}},
				{2, "a", []int{11}},
				{3, "b", []int{21}},
			},
		},
		{
			// Signals are stored separately, so the interleaving is
			// recovered from the timestamps alone.
			name: "OutOfOrderAcrossSignals",
			events: []event{
				{1, "a", 1.0},
				{4, "a", 4.0},
				{2, "b", 2.0},
				{3, "b", 3.0},
			},
			want: []event{
				{1, "a", 1.0},
				{2, "b", 2.0},
				{3, "b", 3.0},
				{4, "a", 4.0},
			},
		},
		{
			name: "DuplicateTimestamps",
			events: []event{
				{1, "x", []float64{1}},
				{1, "x", []float64{2}},
				{2, "x", []float64{3}},
			},
			want: []event{
				{1, "x", []float64{1}},
				{1, "x", []float64{2}},
				{2, "x", []float64{3}},
			},
		},
		{
			name: "TieBreakDeclarationOrder",
			events: []event{
				{1, "b", 20.0},
				{1, "a", 10.0},
				{2, "a", 11.0},
				{2, "b", 21.0},
			},
			want: []event{
				{1, "b", 20.0},
				{1, "a", 10.0},
				{2, "b", 21.0},
				{2, "a", 11.0},
			},
		},
		{
			name: "TieBreakSignalsOption",
			events: []event{
				{1, "b", 20.0},
				{1, "a", 10.0},
				{2, "a", 11.0},
				{2, "b", 21.0},
			},
			options: []Option{Signals("a", "b")},
			want: []event{
				{1, "a", 10.0},
				{1, "b", 20.0},
				{2, "a", 11.0},
				{2, "b", 21.0},
			},
		},
		{
			name: "Filtered",
			events: []event{
				{1, "a", 1.0},
				{2, "b", 2.0},
				{3, "c", 3.0},
				{4, "a", 4.0},
			},
			options: []Option{Signals("a", "c")},
			want: []event{
				{1, "a", 1.0},
				{3, "c", 3.0},
				{4, "a", 4.0},
			},
		},
		{
			name: "NilValuesSkipped",
			events: []event{
				{1, "x", 1.0},
				{2, "x", nil},
				{3, "x", 3.0},
			},
			want: []event{
				{1, "x", 1.0},
				{3, "x", 3.0},
			},
		},
		{
			name: "Strings",
			events: []event{
				{1, "s", []string{"ab", "c"}},
				{2, "s", []string{"de", "f"}},
			},
			want: []event{
				{1, "s", []string{"ab", "c"}},
				{2, "s", []string{"de", "f"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log1.log")
			writeLog(t, path, tt.events)

			r, err := Open(path, append(tt.options, Quiet(true))...)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			checkEvents(t, readAll(t, r), tt.want)

			if r.HasNext() {
				t.Error("HasNext should be false after the last event")
			}
			if _, ok := r.PeekTime(); ok {
				t.Error("PeekTime should report no more events")
			}
		})
	}
}

func TestReaderPeekTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log1.log")
	writeLog(t, path, []event{{1, "a", 1.0}, {0.5, "b", 2.0}, {2, "a", 3.0}})

	r, err := Open(path, Quiet(true))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for _, want := range []float64{0.5, 1, 2} {
		got, ok := r.PeekTime()
		if !ok || got != want {
			t.Errorf("wrong peeked time: want=%v got=%v (ok=%v)", want, got, ok)
		}
		// Peeking must not consume.
		if again, _ := r.PeekTime(); again != got {
			t.Errorf("second peek moved: want=%v got=%v", got, again)
		}
		ev, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if ev.Time != want {
			t.Errorf("Next disagrees with PeekTime: want=%v got=%v", want, ev.Time)
		}
	}
}

func TestReaderSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.log")
	writeLog(t, path, []event{{1, "a", 1.0}, {2, "b", 2.0}, {3, "c", 3.0}})

	t.Run("All", func(t *testing.T) {
		r, err := Open(path, Quiet(true))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		if got := r.Signals(); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
			t.Errorf("wrong signals: want=[a b c] got=%v", got)
		}
	})

	t.Run("Subset", func(t *testing.T) {
		r, err := Open(path, Signals("c", "a"), Quiet(true))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		if got := r.Signals(); len(got) != 2 || got[0] != "c" || got[1] != "a" {
			t.Errorf("wrong signals: want=[c a] got=%v", got)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Open(path, Signals("a", "z"), Quiet(true))
		if errors.Cause(err) != ErrUnknownSignal {
			t.Fatalf("wrong error: want=%v got=%v", ErrUnknownSignal, err)
		}
		if e := err.(*Error); e.Signal != "z" || e.File != path {
			t.Errorf("error does not name the signal and file: %v", err)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		if _, err := Open(path, Signals("a", "a")); errors.Cause(err) != ErrConfig {
			t.Errorf("wrong error: want=%v got=%v", ErrConfig, err)
		}
	})
}

func TestReaderEmptyTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	f, err := container.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.CreateGroup(Namespace); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b"} {
		if _, err := f.CreateTable(Namespace, name, container.Schema{DType: array.Float64, Shape: []int{1}}, container.DefaultFilters); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.HasNext() {
		t.Error("HasNext should be false for a log with only empty signals")
	}
	if n := r.NumEvents("a"); n != 0 {
		t.Errorf("wrong number of events: want=0 got=%d", n)
	}
}

func TestReaderNotALog(t *testing.T) {
	dir := t.TempDir()

	foreign := filepath.Join(dir, "foreign.h5")
	f, err := container.Create(foreign)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.CreateGroup("images"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	garbage := filepath.Join(dir, "garbage.txt")
	if err := ioutil.WriteFile(garbage, []byte("this is not a log file, only some text\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{foreign, garbage} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := Open(path)
			if errors.Cause(err) != ErrNotALog {
				t.Fatalf("wrong error: want=%v got=%v", ErrNotALog, err)
			}
			if e := err.(*Error); e.File != path {
				t.Errorf("error does not name the file: %v", err)
			}
		})
	}

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope.log"))
		if err == nil {
			t.Fatal("expected an error opening a missing file")
		}
		if !os.IsNotExist(errors.Cause(err)) {
			t.Errorf("expected a not-exist error, got %v", err)
		}
	})
}

func TestReaderCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.log")
	var events []event
	for i := 0; i < 100; i++ {
		events = append(events, event{float64(i), "x", []float64{float64(i)}})
	}
	writeLog(t, path, events, Compression(false, "zlib", 0), ChunkSize(128))

	// Flip the last byte, which belongs to the last chunk written.
	p, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p[len(p)-1] ^= 0xff
	if err := ioutil.WriteFile(path, p, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path, Quiet(true))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var (
		n       int
		nextErr error
	)
	for r.HasNext() {
		if _, nextErr = r.Next(); nextErr != nil {
			break
		}
		n++
	}
	if nextErr == nil {
		nextErr = r.Err()
	}
	if errors.Cause(nextErr) != ErrCorruptLog {
		t.Fatalf("wrong error: want=%v got=%v", ErrCorruptLog, nextErr)
	}
	if e := nextErr.(*Error); e.File != path || e.Signal != "x" || e.Detail() == nil {
		t.Errorf("error lacks details: %#v", e)
	}
	if n == 0 || n >= len(events) {
		t.Errorf("expected the rows before the corrupt chunk to be read, got %d", n)
	}

	if _, err := r.Next(); err != nextErr {
		t.Errorf("error is not sticky: want=%v got=%v", nextErr, err)
	}
	if r.HasNext() {
		t.Error("HasNext should be false after a failure")
	}
}

func TestReaderClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log1.log")
	writeLog(t, path, []event{{1, "x", 1.0}})

	r, err := Open(path, Quiet(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error("second close should be a no-op:", err)
	}
	if r.HasNext() {
		t.Error("HasNext should be false after close")
	}
	if _, err := r.Next(); err != ErrReaderClosed {
		t.Errorf("wrong error: want=%v got=%v", ErrReaderClosed, err)
	}
}

func TestReaderProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.log")
	var events []event
	for i := 0; i < 100; i++ {
		events = append(events, event{float64(i), "x", float64(i)}, event{float64(i) + 0.5, "y", float64(i)})
	}
	writeLog(t, path, events)

	t.Run("Verbose", func(t *testing.T) {
		log := new(recordingLogger)
		r, err := Open(path, WithLogger(log))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		readAll(t, r)

		lines := log.matching("tracking signal x")
		if len(lines) != 10 {
			t.Fatalf("wrong number of progress lines: want=10 got=%d (%v)", len(lines), lines)
		}
		if want := "INFO read 0% (0/100) of " + path + " (tracking signal x)"; lines[0] != want {
			t.Errorf("wrong first progress line:\nwant=%s\n got=%s", want, lines[0])
		}
		if want := "INFO read 90% (90/100) of " + path + " (tracking signal x)"; lines[9] != want {
			t.Errorf("wrong last progress line:\nwant=%s\n got=%s", want, lines[9])
		}
	})

	t.Run("Primary", func(t *testing.T) {
		log := new(recordingLogger)
		r, err := Open(path, WithLogger(log), Signals("y", "x"))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		readAll(t, r)
		if n := len(log.matching("tracking signal y")); n != 10 {
			t.Errorf("wrong number of progress lines for y: want=10 got=%d", n)
		}
	})

	t.Run("Quiet", func(t *testing.T) {
		log := new(recordingLogger)
		r, err := Open(path, WithLogger(log), Quiet(true))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		readAll(t, r)
		if n := len(log.matching("read")); n != 0 {
			t.Errorf("quiet reader logged %d progress lines", n)
		}
	})
}
