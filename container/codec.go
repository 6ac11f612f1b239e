package container

import (
	"bytes"
	"io"
	"io/ioutil"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	lzo "github.com/rasky/go-lzo"
)

// Complib identifies a compression library.
type Complib uint8

const (
	Zlib Complib = iota + 1
	Bzip2
	Blosc
	LZO
)

var complibNames = map[Complib]string{
	Zlib:  "zlib",
	Bzip2: "bzip2",
	Blosc: "blosc",
	LZO:   "lzo",
}

func (c Complib) String() string {
	if s, ok := complibNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseComplib returns the Complib named s.
func ParseComplib(s string) (Complib, error) {
	for c, name := range complibNames {
		if name == s {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown compression library %q (want zlib, bzip2, blosc or lzo)", s)
}

// Filters are the compression settings applied to a table's chunks.
// A level of 0 disables compression, as does Enabled=false.
type Filters struct {
	Enabled bool
	Lib     Complib
	Level   int
}

// DefaultFilters are zlib at level 9.
var DefaultFilters = Filters{Enabled: true, Lib: Zlib, Level: 9}

// Validate checks the library is known and the level is within 0..9.
func (f Filters) Validate() error {
	if f.Level < 0 || f.Level > 9 {
		return errors.Errorf("compression level %d out of range 0..9", f.Level)
	}
	if _, ok := complibNames[f.Lib]; !ok && f.Enabled {
		return errors.Errorf("unknown compression library %d", f.Lib)
	}
	return nil
}

func (f Filters) active() bool {
	return f.Enabled && f.Level > 0
}

func (f Filters) String() string {
	if !f.active() {
		return "none"
	}
	return f.Lib.String() + "/" + strconv.Itoa(f.Level)
}

// errIncompressible is returned by a codec whose output would not be
// smaller than its input; the chunk is then stored uncompressed.
var errIncompressible = errors.New("incompressible")

type codec interface {
	// encode compresses src. typesize is the width of the table's
	// elements, used by shuffling codecs.
	encode(src []byte, level, typesize int) ([]byte, error)
	decode(src []byte, rawLen, typesize int) ([]byte, error)
}

func codecFor(lib Complib) (codec, error) {
	switch lib {
	case Zlib:
		return zlibCodec{}, nil
	case Bzip2:
		return bzip2Codec{}, nil
	case Blosc:
		return bloscCodec{}, nil
	case LZO:
		return lzoCodec{}, nil
	}
	return nil, errors.Errorf("no codec for compression library %d", lib)
}

func readAllSized(r io.Reader, rawLen int) ([]byte, error) {
	out := make([]byte, rawLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	// Anything past rawLen means the stored length is wrong.
	if n, _ := io.Copy(ioutil.Discard, r); n != 0 {
		return nil, errors.Errorf("%d trailing bytes after decompression", n)
	}
	return out, nil
}

type zlibCodec struct{}

func (zlibCodec) encode(src []byte, level, _ int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "zlib writer")
	}
	if _, err := w.Write(src); err != nil {
		return nil, errors.Wrap(err, "zlib compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "zlib close")
	}
	return buf.Bytes(), nil
}

func (zlibCodec) decode(src []byte, rawLen, _ int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, errors.Wrap(err, "zlib reader")
	}
	defer r.Close()
	out, err := readAllSized(r, rawLen)
	return out, errors.Wrap(err, "zlib decompress")
}

type bzip2Codec struct{}

func (bzip2Codec) encode(src []byte, level, _ int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, errors.Wrap(err, "bzip2 writer")
	}
	if _, err := w.Write(src); err != nil {
		return nil, errors.Wrap(err, "bzip2 compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "bzip2 close")
	}
	return buf.Bytes(), nil
}

func (bzip2Codec) decode(src []byte, rawLen, _ int) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(src), nil)
	if err != nil {
		return nil, errors.Wrap(err, "bzip2 reader")
	}
	defer r.Close()
	out, err := readAllSized(r, rawLen)
	return out, errors.Wrap(err, "bzip2 decompress")
}

// bloscCodec byte-shuffles the data by element width, then compresses it
// as a single LZ4 block; high levels use the LZ4 HC compressor.
type bloscCodec struct{}

var lz4Levels = []lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func (bloscCodec) encode(src []byte, level, typesize int) ([]byte, error) {
	shuffled := shuffle(src, typesize)
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var (
		n   int
		err error
	)
	if level < 6 {
		n, err = lz4.CompressBlock(shuffled, dst, nil)
	} else {
		n, err = lz4.CompressBlockHC(shuffled, dst, lz4Levels[level-1], nil, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func (bloscCodec) decode(src []byte, rawLen, typesize int) ([]byte, error) {
	out := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != rawLen {
		return nil, errors.Errorf("lz4 decompressed %d bytes, want %d", n, rawLen)
	}
	return unshuffle(out, typesize), nil
}

// shuffle regroups the bytes of src so that byte k of every element is
// stored together. Trailing bytes that do not form a whole element are
// copied unchanged.
func shuffle(src []byte, typesize int) []byte {
	out := make([]byte, len(src))
	n := len(src) / typesize
	for i := 0; i < n; i++ {
		for k := 0; k < typesize; k++ {
			out[k*n+i] = src[i*typesize+k]
		}
	}
	copy(out[n*typesize:], src[n*typesize:])
	return out
}

// unshuffle reverses shuffle.
func unshuffle(src []byte, typesize int) []byte {
	out := make([]byte, len(src))
	n := len(src) / typesize
	for i := 0; i < n; i++ {
		for k := 0; k < typesize; k++ {
			out[i*typesize+k] = src[k*n+i]
		}
	}
	copy(out[n*typesize:], src[n*typesize:])
	return out
}

// lzoCodec uses LZO1X-1; the level only matters in that 0 disables it.
type lzoCodec struct{}

func (lzoCodec) encode(src []byte, _, _ int) ([]byte, error) {
	return lzo.Compress1X(src), nil
}

func (lzoCodec) decode(src []byte, rawLen, _ int) ([]byte, error) {
	out, err := lzo.Decompress1X(bytes.NewReader(src), len(src), rawLen)
	if err != nil {
		return nil, errors.Wrap(err, "lzo decompress")
	}
	if len(out) != rawLen {
		return nil, errors.Errorf("lzo decompressed %d bytes, want %d", len(out), rawLen)
	}
	return out, nil
}
