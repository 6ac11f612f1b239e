package container

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/siglog/array"
	"github.com/pkg/errors"
)

func writeTestFile(t *testing.T, path string, filters Filters, rows int, options ...Option) {
	t.Helper()
	f, err := Create(path, options...)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.CreateGroup("procgraph"); err != nil {
		t.Fatal(err)
	}
	tbl, err := f.CreateTable("procgraph", "x", Schema{DType: array.Float64, Shape: []int{2}}, filters)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < rows; i++ {
		if err := tbl.Append(float64(i), array.Float64s(float64(i), float64(i%7))); err != nil {
			t.Fatal(err)
		}
	}
	if got := tbl.NumRows(); got != rows {
		t.Errorf("wrong number of rows while writing: want=%d got=%d", rows, got)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRoundTrip(t *testing.T) {
	filters := map[string]Filters{
		"none":    {},
		"level0":  {Enabled: true, Lib: Zlib, Level: 0},
		"zlib":    {Enabled: true, Lib: Zlib, Level: 9},
		"bzip2":   {Enabled: true, Lib: Bzip2, Level: 5},
		"blosc":   {Enabled: true, Lib: Blosc, Level: 3},
		"bloscHC": {Enabled: true, Lib: Blosc, Level: 9},
		"lzo":     {Enabled: true, Lib: LZO, Level: 1},
	}
	const rows = 1000

	for name, flt := range filters {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.h5")
			writeTestFile(t, path, flt, rows, ChunkSize(1024))

			f, err := Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			tbl, ok := f.Table("procgraph", "x")
			if !ok {
				t.Fatal("table x not found")
			}
			if tbl.Filters() != flt {
				t.Errorf("wrong filters: want=%v got=%v", flt, tbl.Filters())
			}
			if n := tbl.NumRows(); n != rows {
				t.Fatalf("wrong number of rows: want=%d got=%d", rows, n)
			}
			if len(tbl.chunks) < 2 {
				t.Errorf("expected rows to span several chunks, got %d", len(tbl.chunks))
			}
			for i := 0; i < rows; i++ {
				ts, v, err := tbl.Row(i)
				if err != nil {
					t.Fatalf("row %d: %v", i, err)
				}
				if ts != float64(i) {
					t.Errorf("row %d: wrong time %v", i, ts)
				}
				if want := array.Float64s(float64(i), float64(i%7)); !v.Equal(want) {
					t.Errorf("row %d: want=%v got=%v", i, want, v)
				}
			}
		})
	}
}

func TestRandomAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.h5")
	writeTestFile(t, path, DefaultFilters, 500, ChunkSize(512))

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tbl, _ := f.Table("procgraph", "x")
	for _, i := range []int{499, 0, 250, 251, 3, 498} {
		ts, err := tbl.Time(i)
		if err != nil {
			t.Fatal(err)
		}
		if ts != float64(i) {
			t.Errorf("row %d: wrong time %v", i, ts)
		}
	}
	if _, err := tbl.Time(500); err == nil {
		t.Error("expected an error reading past the last row")
	}
}

func TestOpenNotContainer(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string][]byte{
		"empty": nil,
		"short": []byte("SIG"),
		"text":  bytes.Repeat([]byte("not a container file\n"), 10),
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); errors.Cause(err) != ErrNotContainer {
			t.Errorf("%s: want ErrNotContainer, got %v", name, err)
		}
	}
}

func TestOpenTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.h5")
	writeTestFile(t, path, DefaultFilters, 100)

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, fi.Size()-3); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); errors.Cause(err) != ErrCorrupt {
		t.Errorf("want ErrCorrupt, got %v", err)
	}
}

func TestCorruptChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.h5")
	writeTestFile(t, path, Filters{}, 10)

	// Flip the last byte, which belongs to the only chunk's data.
	p, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p[len(p)-1] ^= 0xff
	if err := os.WriteFile(path, p, 0644); err != nil {
		t.Fatal(err)
	}

	// Chunks are only verified when loaded.
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tbl, _ := f.Table("procgraph", "x")
	if _, _, err := tbl.Row(0); errors.Cause(err) != ErrCorrupt {
		t.Errorf("want ErrCorrupt, got %v", err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "log.h5"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.CreateGroup("g"); err != nil {
		t.Fatal(err)
	}
	tbl, err := f.CreateTable("g", "x", Schema{DType: array.Float64, Shape: []int{1}}, DefaultFilters)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.Append(1, array.Float64s(1, 2)); errors.Cause(err) != ErrSchemaMismatch {
		t.Errorf("want ErrSchemaMismatch, got %v", err)
	}
	if err := tbl.Append(1, array.Int64s(1)); errors.Cause(err) != ErrSchemaMismatch {
		t.Errorf("want ErrSchemaMismatch, got %v", err)
	}
	if n := tbl.NumRows(); n != 0 {
		t.Errorf("rejected rows were counted: %d", n)
	}
}

func TestGroupsAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.h5")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	schema := Schema{DType: array.Int32}

	t.Run("CreateTableWithoutGroup", func(t *testing.T) {
		if _, err := f.CreateTable("g", "a", schema, DefaultFilters); errors.Cause(err) != ErrNoGroup {
			t.Errorf("want ErrNoGroup, got %v", err)
		}
	})

	for _, g := range []string{"g", "other"} {
		if err := f.CreateGroup(g); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"b", "a"} {
		if _, err := f.CreateTable("g", name, schema, DefaultFilters); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.CreateTable("other", "a", schema, DefaultFilters); err != nil {
		t.Fatal(err)
	}

	t.Run("Duplicates", func(t *testing.T) {
		if err := f.CreateGroup("g"); errors.Cause(err) != ErrExists {
			t.Errorf("want ErrExists, got %v", err)
		}
		if _, err := f.CreateTable("g", "a", schema, DefaultFilters); errors.Cause(err) != ErrExists {
			t.Errorf("want ErrExists, got %v", err)
		}
	})

	t.Run("BadFilters", func(t *testing.T) {
		if _, err := f.CreateTable("g", "c", schema, Filters{Enabled: true, Lib: Zlib, Level: 10}); err == nil {
			t.Error("expected an error for level 10")
		}
	})

	id := f.ID()
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := f.CreateGroup("late"); errors.Cause(err) != ErrClosed {
		t.Errorf("want ErrClosed, got %v", err)
	}

	t.Run("Reopen", func(t *testing.T) {
		r, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		if r.ID() != id {
			t.Errorf("wrong file id: want=%s got=%s", id, r.ID())
		}
		if !r.HasGroup("g") || !r.HasGroup("other") || r.HasGroup("missing") {
			t.Errorf("wrong groups: %v", r.Groups())
		}
		var names []string
		for _, tbl := range r.Tables("g") {
			names = append(names, tbl.Name())
			if tbl.NumRows() != 0 {
				t.Errorf("table %s should be empty", tbl.Name())
			}
		}
		if len(names) != 2 || names[0] != "b" || names[1] != "a" {
			t.Errorf("tables not in declaration order: %v", names)
		}
		if err := r.CreateGroup("x"); errors.Cause(err) != ErrReadOnly {
			t.Errorf("want ErrReadOnly, got %v", err)
		}
	})
}

func TestShuffle(t *testing.T) {
	src := []byte("0123456789abcdefXYZ")
	for _, size := range []int{1, 2, 4, 8, 16, 32} {
		got := unshuffle(shuffle(src, size), size)
		if !bytes.Equal(got, src) {
			t.Errorf("typesize %d: want=%q got=%q", size, src, got)
		}
	}
}

func TestParseComplib(t *testing.T) {
	for _, c := range []Complib{Zlib, Bzip2, Blosc, LZO} {
		got, err := ParseComplib(c.String())
		if err != nil {
			t.Error(err)
		}
		if got != c {
			t.Errorf("want=%v got=%v", c, got)
		}
	}
	if _, err := ParseComplib("gzip"); err == nil {
		t.Error("expected an error for gzip")
	}
}
