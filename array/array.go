// Package array provides the typed, n-dimensional values carried by signals.
//
// An Array has a fixed element type (DType) and shape, and stores its
// elements packed in row-major, little-endian order. Arrays are immutable
// once built; use From to coerce ordinary Go values (scalars, slices,
// nested slices, strings) into one.
package array

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Array is an immutable n-dimensional array of a single element type.
// A zero-dimensional array (empty shape) holds exactly one element.
type Array struct {
	dtype DType
	shape []int
	data  []byte
}

// New returns an Array of the given dtype and shape, backed by a copy of
// data. The length of data must equal the element count times dtype.Size.
func New(dtype DType, shape []int, data []byte) (*Array, error) {
	if !dtype.Valid() {
		return nil, errors.Errorf("invalid dtype %v", dtype)
	}
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n*dtype.Size {
		return nil, errors.Errorf("data is %d bytes, %s%v needs %d", len(data), dtype, shape, n*dtype.Size)
	}
	return &Array{
		dtype: dtype,
		shape: append([]int{}, shape...),
		data:  append([]byte{}, data...),
	}, nil
}

func numElements(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, errors.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	return n, nil
}

// Float64s returns a one-dimensional float64 Array holding v.
func Float64s(v ...float64) *Array {
	a := &Array{
		dtype: Float64,
		shape: []int{len(v)},
		data:  make([]byte, 8*len(v)),
	}
	for i, f := range v {
		binary.LittleEndian.PutUint64(a.data[8*i:], math.Float64bits(f))
	}
	return a
}

// Int64s returns a one-dimensional int64 Array holding v.
func Int64s(v ...int64) *Array {
	a := &Array{
		dtype: Int64,
		shape: []int{len(v)},
		data:  make([]byte, 8*len(v)),
	}
	for i, n := range v {
		binary.LittleEndian.PutUint64(a.data[8*i:], uint64(n))
	}
	return a
}

func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Len returns the number of elements in the array.
func (a *Array) Len() int {
	if a.dtype.Size == 0 {
		return 0
	}
	return len(a.data) / a.dtype.Size
}

// Bytes returns the packed element data. The returned slice must not be
// modified.
func (a *Array) Bytes() []byte { return a.data }

// Equal reports whether a and b have the same dtype, shape, and elements.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.dtype == b.dtype && SameShape(a.shape, b.shape) && bytes.Equal(a.data, b.data)
}

// SameShape reports whether two shapes have identical dimensions.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// At returns element i (in row-major order) as a bool, int64, uint64,
// float64, complex128, or string, depending on the array's kind.
func (a *Array) At(i int) interface{} {
	sz := a.dtype.Size
	b := a.data[i*sz : (i+1)*sz]
	switch a.dtype.Kind {
	case KindBool:
		return b[0] != 0
	case KindInt:
		switch sz {
		case 1:
			return int64(int8(b[0]))
		case 2:
			return int64(int16(binary.LittleEndian.Uint16(b)))
		case 4:
			return int64(int32(binary.LittleEndian.Uint32(b)))
		}
		return int64(binary.LittleEndian.Uint64(b))
	case KindUint:
		switch sz {
		case 1:
			return uint64(b[0])
		case 2:
			return uint64(binary.LittleEndian.Uint16(b))
		case 4:
			return uint64(binary.LittleEndian.Uint32(b))
		}
		return binary.LittleEndian.Uint64(b)
	case KindFloat:
		if sz == 4 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case KindComplex:
		if sz == 8 {
			re := math.Float32frombits(binary.LittleEndian.Uint32(b))
			im := math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
			return complex(float64(re), float64(im))
		}
		re := math.Float64frombits(binary.LittleEndian.Uint64(b))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[8:]))
		return complex(re, im)
	case KindBytes:
		return string(bytes.TrimRight(b, "\x00"))
	}
	return nil
}

// Float64s returns the elements converted to float64. Booleans become 0 or
// 1. Complex and byte-string arrays cannot be converted.
func (a *Array) Float64s() ([]float64, error) {
	out := make([]float64, a.Len())
	for i := range out {
		switch v := a.At(i).(type) {
		case bool:
			if v {
				out[i] = 1
			}
		case int64:
			out[i] = float64(v)
		case uint64:
			out[i] = float64(v)
		case float64:
			out[i] = v
		default:
			return nil, errors.Errorf("cannot convert %s to float64", a.dtype)
		}
	}
	return out, nil
}

// String formats the array with nested brackets, one level per dimension.
func (a *Array) String() string {
	if a == nil {
		return "<nil>"
	}
	var sb strings.Builder
	idx := 0
	a.format(&sb, 0, &idx)
	return sb.String()
}

func (a *Array) format(sb *strings.Builder, dim int, idx *int) {
	if dim == len(a.shape) {
		switch v := a.At(*idx).(type) {
		case string:
			fmt.Fprintf(sb, "%q", v)
		default:
			fmt.Fprint(sb, v)
		}
		*idx++
		return
	}
	sb.WriteByte('[')
	for i := 0; i < a.shape[dim]; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		a.format(sb, dim+1, idx)
	}
	sb.WriteByte(']')
}
