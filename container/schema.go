package container

import (
	"fmt"
	"strings"

	"github.com/nesv/siglog/array"
	"github.com/pkg/errors"
)

// Schema is the fixed type of a table's values.
type Schema struct {
	DType array.DType
	Shape []int
}

// SchemaOf returns the schema describing a.
func SchemaOf(a *array.Array) Schema {
	return Schema{DType: a.DType(), Shape: a.Shape()}
}

// Equal reports whether s and o describe the same values.
func (s Schema) Equal(o Schema) bool {
	return s.DType == o.DType && array.SameShape(s.Shape, o.Shape)
}

// RowSize returns the number of bytes one packed value occupies.
func (s Schema) RowSize() int {
	n := s.DType.Size
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

func (s Schema) validate() error {
	if !s.DType.Valid() {
		return errors.Errorf("invalid dtype %v", s.DType)
	}
	if len(s.Shape) > 255 {
		return errors.Errorf("too many dimensions (%d)", len(s.Shape))
	}
	for _, d := range s.Shape {
		if d < 0 {
			return errors.Errorf("negative dimension in shape %v", s.Shape)
		}
	}
	return nil
}

// String formats the schema as dtype(shape), e.g. "float64(3,)".
func (s Schema) String() string {
	dims := make([]string, len(s.Shape))
	for i, d := range s.Shape {
		dims[i] = fmt.Sprint(d)
	}
	shape := strings.Join(dims, ",")
	if len(s.Shape) == 1 {
		shape += ","
	}
	return s.DType.String() + "(" + shape + ")"
}

func (s Schema) encode(e *encoder) {
	e.putUint8(uint8(s.DType.Kind))
	e.putUint32(uint32(s.DType.Size))
	e.putUint8(uint8(len(s.Shape)))
	for _, d := range s.Shape {
		e.putUint32(uint32(d))
	}
}

func decodeSchema(d *decoder) Schema {
	var s Schema
	s.DType.Kind = array.Kind(d.uint8())
	s.DType.Size = int(d.uint32())
	ndim := int(d.uint8())
	s.Shape = make([]int, ndim)
	for i := range s.Shape {
		s.Shape[i] = int(d.uint32())
	}
	return s
}
