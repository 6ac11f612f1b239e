package siglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "log1.log")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Lazy", func(t *testing.T) {
		if err := w.Append(0, "x", nil); err != nil {
			t.Error("nil value should be ignored:", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("log file exists before the first value was appended (err=%v)", err)
		}
	})

	t.Run("Append", func(t *testing.T) {
		for i, v := range []float64{1, 2, 3} {
			if err := w.Append(float64(i+1), "x", []float64{v}); err != nil {
				t.Error(err)
			}
		}
		if err := w.Append(1.5, "y", [][]int{{1, 2}, {3, 4}}); err != nil {
			t.Error(err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Error("log file not created:", err)
		}
	})

	t.Run("DtypeMismatch", func(t *testing.T) {
		err := w.Append(4, "x", "abc")
		if errors.Cause(err) != ErrDtypeMismatch {
			t.Errorf("wrong error for a string value: want=%v got=%v", ErrDtypeMismatch, err)
		}
		if e, ok := err.(*Error); !ok || e.Signal != "x" || e.File != path {
			t.Errorf("error does not name the signal and file: %#v", err)
		}

		err = w.Append(4, "x", []float64{1, 2})
		if errors.Cause(err) != ErrDtypeMismatch {
			t.Errorf("wrong error for a shape change: want=%v got=%v", ErrDtypeMismatch, err)
		}
	})

	t.Run("InvalidValue", func(t *testing.T) {
		for _, v := range []interface{}{
			map[string]int{"a": 1},
			[][]float64{{1}, {2, 3}},
			struct{}{},
		} {
			if err := w.Append(5, "z", v); errors.Cause(err) != ErrInvalidValue {
				t.Errorf("wrong error for %#v: want=%v got=%v", v, ErrInvalidValue, err)
			}
		}
	})

	t.Run("InvalidSignalName", func(t *testing.T) {
		for _, name := range []string{"", "a/b", ".."} {
			if err := w.Append(5, name, 1.0); errors.Cause(err) != ErrInvalidSignalName {
				t.Errorf("wrong error for signal %q: want=%v got=%v", name, ErrInvalidSignalName, err)
			}
		}
	})

	t.Run("Signals", func(t *testing.T) {
		got := w.Signals()
		if len(got) != 2 || got[0] != "x" || got[1] != "y" {
			t.Errorf("wrong signals: want=[x y] got=%v", got)
		}
	})

	t.Run("Flush", func(t *testing.T) {
		if err := w.Flush(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		if err := w.Close(); err != nil {
			t.Error(err)
		}
		if err := w.Close(); err != nil {
			t.Error("second close should be a no-op:", err)
		}
		if err := w.Append(6, "x", []float64{6}); err != ErrWriterClosed {
			t.Errorf("wrong error appending after close: want=%v got=%v", ErrWriterClosed, err)
		}
		if err := w.Flush(); err != ErrWriterClosed {
			t.Errorf("wrong error flushing after close: want=%v got=%v", ErrWriterClosed, err)
		}
	})

	// The failed appends must have left the stored rows untouched.
	t.Run("Contents", func(t *testing.T) {
		r, err := Open(path, Quiet(true))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()

		if n := r.NumEvents("x"); n != 3 {
			t.Errorf("wrong number of events for x: want=3 got=%d", n)
		}
		if n := r.NumEvents("y"); n != 1 {
			t.Errorf("wrong number of events for y: want=1 got=%d", n)
		}
		if n := r.NumEvents("z"); n != -1 {
			t.Errorf("signal z should not exist, got %d events", n)
		}
	})
}

func TestWriterEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	writeLog(t, path, []event{{1, "e", []float64{}}, {2, "e", []float64{}}})

	r, err := Open(path, Quiet(true))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	events := readAll(t, r)
	if len(events) != 2 {
		t.Fatalf("wrong number of events: want=2 got=%d", len(events))
	}
	for _, ev := range events {
		if shape := ev.Value.Shape(); len(shape) != 1 || shape[0] != 0 {
			t.Errorf("wrong shape: want=[0] got=%v", shape)
		}
	}
}

func TestWriterNoAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.log")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("closing an unused writer should not create a file (err=%v)", err)
	}
}

func TestWriterCompression(t *testing.T) {
	for _, lib := range []string{"zlib", "bzip2", "blosc", "lzo"} {
		t.Run(lib, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), lib+".log")
			var events []event
			for i := 0; i < 500; i++ {
				events = append(events, event{float64(i), "x", []float64{float64(i % 10), 0, 1}})
			}
			writeLog(t, path, events, Compression(true, lib, 5), ChunkSize(1024))

			f, err := container.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			tbl, ok := f.Table(Namespace, "x")
			if !ok {
				t.Fatal("no table for signal x")
			}
			if got := tbl.Filters().Lib.String(); got != lib {
				t.Errorf("wrong compression library: want=%s got=%s", lib, got)
			}
			f.Close()

			r, err := Open(path, Quiet(true))
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			checkEvents(t, readAll(t, r), events)
		})
	}
}

func TestWriterOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.log")
	tests := map[string]Option{
		"UnknownLibrary": Compression(true, "gzip", 5),
		"LevelTooHigh":   Compression(true, "zlib", 10),
		"ZeroChunkSize":  ChunkSize(0),
		"NilLogger":      WithLogger(nil),
	}
	for name, option := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewWriter(path, option); errors.Cause(err) != ErrConfig {
				t.Errorf("wrong error: want=%v got=%v", ErrConfig, err)
			}
		})
	}
}
