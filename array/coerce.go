package array

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// ErrNotCoercible is returned by From when a value cannot be represented as
// an Array.
var ErrNotCoercible = errors.New("value is not coercible to an array")

// From coerces v into an Array.
//
// Accepted values are *Array and Array (returned as-is), booleans, integers,
// floats and complex numbers (zero-dimensional arrays), strings (byte
// strings), and slices or Go arrays of any of these, nested to any depth as
// long as they are rectangular. Elements of mixed numeric types are promoted
// to the widest kind (bool < int < float < complex); an empty slice with no
// static element type becomes an empty float64 array.
//
// A nil v yields a nil *Array and a nil error.
func From(v interface{}) (*Array, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Array:
		return x, nil
	case Array:
		return &x, nil
	case []byte:
		return New(Uint8, []int{len(x)}, x)
	case string:
		return fromStrings(nil, []string{x})
	}

	rv := reflect.ValueOf(v)
	shape, err := shapeOf(rv)
	if err != nil {
		return nil, err
	}
	var leaves []reflect.Value
	flatten(rv, &leaves)

	dtype, err := promote(leaves)
	if err != nil {
		return nil, err
	}
	if dtype == Invalid {
		// No elements: fall back on the static element type, if any.
		dtype = staticDType(rv.Type())
	}
	if dtype.Kind == KindBytes {
		strs := make([]string, len(leaves))
		for i, l := range leaves {
			strs[i] = l.String()
		}
		return fromStrings(shape, strs)
	}

	a := &Array{
		dtype: dtype,
		shape: shape,
		data:  make([]byte, len(leaves)*dtype.Size),
	}
	for i, l := range leaves {
		putElem(a.data[i*dtype.Size:], dtype, l)
	}
	return a, nil
}

func fromStrings(shape []int, strs []string) (*Array, error) {
	width := 1
	for _, s := range strs {
		if len(s) > width {
			width = len(s)
		}
	}
	data := make([]byte, width*len(strs))
	for i, s := range strs {
		copy(data[i*width:], s)
	}
	return &Array{dtype: Bytes(width), shape: shape, data: data}, nil
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isSequence(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// shapeOf returns the dimensions of a (possibly nested) sequence, failing
// if the nesting is ragged.
func shapeOf(rv reflect.Value) ([]int, error) {
	rv = indirect(rv)
	if !rv.IsValid() {
		return nil, errors.Wrap(ErrNotCoercible, "nil element")
	}
	if !isSequence(rv) {
		return []int{}, nil
	}
	n := rv.Len()
	if n == 0 {
		return []int{0}, nil
	}
	inner, err := shapeOf(rv.Index(0))
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		s, err := shapeOf(rv.Index(i))
		if err != nil {
			return nil, err
		}
		if !SameShape(s, inner) {
			return nil, errors.Wrapf(ErrNotCoercible, "ragged sequence: element %d has shape %v, want %v", i, s, inner)
		}
	}
	return append([]int{n}, inner...), nil
}

func flatten(rv reflect.Value, out *[]reflect.Value) {
	rv = indirect(rv)
	if !isSequence(rv) {
		*out = append(*out, rv)
		return
	}
	for i := 0; i < rv.Len(); i++ {
		flatten(rv.Index(i), out)
	}
}

func scalarDType(k reflect.Kind) DType {
	switch k {
	case reflect.Bool:
		return Bool
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int, reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint, reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Complex64:
		return Complex64
	case reflect.Complex128:
		return Complex128
	case reflect.String:
		return Bytes(1)
	}
	return Invalid
}

func staticDType(t reflect.Type) DType {
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if d := scalarDType(t.Kind()); d != Invalid {
		return d
	}
	return Float64
}

// promote picks a single dtype able to hold every leaf.
func promote(leaves []reflect.Value) (DType, error) {
	out := Invalid
	for _, l := range leaves {
		d := scalarDType(l.Kind())
		if d == Invalid {
			return Invalid, errors.Wrapf(ErrNotCoercible, "unsupported element type %s", l.Type())
		}
		switch {
		case out == Invalid || out == d:
			out = d
		case out.Kind == KindBytes || d.Kind == KindBytes:
			if out.Kind != d.Kind {
				return Invalid, errors.Wrap(ErrNotCoercible, "strings mixed with numbers")
			}
		case d.Kind > out.Kind:
			out = widest(d.Kind)
		case d.Kind < out.Kind:
			out = widest(out.Kind)
		default:
			// Same kind, different widths.
			if d.Size > out.Size {
				out = d
			}
		}
	}
	return out, nil
}

func widest(k Kind) DType {
	switch k {
	case KindInt, KindUint:
		return Int64
	case KindFloat:
		return Float64
	case KindComplex:
		return Complex128
	}
	return Bool
}

func putElem(b []byte, d DType, v reflect.Value) {
	switch d.Kind {
	case KindBool:
		if v.Bool() {
			b[0] = 1
		}
	case KindInt:
		putUint(b, d.Size, uint64(asInt64(v)))
	case KindUint:
		putUint(b, d.Size, asUint64(v))
	case KindFloat:
		f := asFloat64(v)
		if d.Size == 4 {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
			return
		}
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
	case KindComplex:
		c := asComplex(v)
		if d.Size == 8 {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(real(c))))
			binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(imag(c))))
			return
		}
		binary.LittleEndian.PutUint64(b, math.Float64bits(real(c)))
		binary.LittleEndian.PutUint64(b[8:], math.Float64bits(imag(c)))
	}
}

func putUint(b []byte, size int, u uint64) {
	switch size {
	case 1:
		b[0] = byte(u)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(u))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(u))
	default:
		binary.LittleEndian.PutUint64(b, u)
	}
}

func asInt64(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	}
	return v.Int()
}

func asUint64(v reflect.Value) uint64 {
	if v.Kind() == reflect.Bool {
		return uint64(asInt64(v))
	}
	return v.Uint()
}

func asFloat64(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	}
	return float64(asInt64(v))
}

func asComplex(v reflect.Value) complex128 {
	if v.Kind() == reflect.Complex64 || v.Kind() == reflect.Complex128 {
		return v.Complex()
	}
	return complex(asFloat64(v), 0)
}
