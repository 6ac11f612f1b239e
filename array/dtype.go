package array

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the family of an element type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindComplex
	KindBytes // fixed-width byte strings
)

// DType describes the element type of an Array: its kind, and the number of
// bytes each element occupies when packed.
type DType struct {
	Kind Kind
	Size int
}

var (
	Invalid    = DType{}
	Bool       = DType{KindBool, 1}
	Int8       = DType{KindInt, 1}
	Int16      = DType{KindInt, 2}
	Int32      = DType{KindInt, 4}
	Int64      = DType{KindInt, 8}
	Uint8      = DType{KindUint, 1}
	Uint16     = DType{KindUint, 2}
	Uint32     = DType{KindUint, 4}
	Uint64     = DType{KindUint, 8}
	Float32    = DType{KindFloat, 4}
	Float64    = DType{KindFloat, 8}
	Complex64  = DType{KindComplex, 8}
	Complex128 = DType{KindComplex, 16}
)

// Bytes returns the dtype of fixed-width byte strings of n bytes.
func Bytes(n int) DType {
	return DType{KindBytes, n}
}

// Valid reports whether d is one of the supported element types.
func (d DType) Valid() bool {
	switch d.Kind {
	case KindBool:
		return d.Size == 1
	case KindInt, KindUint:
		return d.Size == 1 || d.Size == 2 || d.Size == 4 || d.Size == 8
	case KindFloat:
		return d.Size == 4 || d.Size == 8
	case KindComplex:
		return d.Size == 8 || d.Size == 16
	case KindBytes:
		return d.Size > 0
	}
	return false
}

// String returns the canonical name of the dtype, which ParseDType accepts.
func (d DType) String() string {
	bits := strconv.Itoa(d.Size * 8)
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int" + bits
	case KindUint:
		return "uint" + bits
	case KindFloat:
		return "float" + bits
	case KindComplex:
		return "complex" + bits
	case KindBytes:
		return "S" + strconv.Itoa(d.Size)
	}
	return "invalid"
}

// ParseDType parses a dtype name, as returned by DType.String.
func ParseDType(s string) (DType, error) {
	if s == "bool" {
		return Bool, nil
	}
	if strings.HasPrefix(s, "S") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n <= 0 {
			return Invalid, errors.Errorf("invalid byte string dtype %q", s)
		}
		return Bytes(n), nil
	}
	for _, p := range []struct {
		prefix string
		kind   Kind
	}{
		{"uint", KindUint},
		{"int", KindInt},
		{"float", KindFloat},
		{"complex", KindComplex},
	} {
		if !strings.HasPrefix(s, p.prefix) {
			continue
		}
		bits, err := strconv.Atoi(s[len(p.prefix):])
		if err != nil || bits%8 != 0 {
			break
		}
		d := DType{p.kind, bits / 8}
		if d.Valid() {
			return d, nil
		}
		break
	}
	return Invalid, errors.Errorf("unknown dtype %q", s)
}
