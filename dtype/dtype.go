// Package dtype provides the element data types of the Zarr V3 data model
// and their fill values.
package dtype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupported is returned when metadata names a data type this
// implementation does not provide.
var ErrUnsupported = errors.New("unsupported data type")

// Kind enumerates the supported element type families.
type Kind int

// Supported kinds.
const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindBFloat16
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindRawBits
)

// DataType is an element data type with a fixed size known at construction.
type DataType struct {
	kind Kind
	size int // element size in bytes
}

// Fixed-size data types.
var (
	Bool       = DataType{KindBool, 1}
	Int8       = DataType{KindInt8, 1}
	Int16      = DataType{KindInt16, 2}
	Int32      = DataType{KindInt32, 4}
	Int64      = DataType{KindInt64, 8}
	Uint8      = DataType{KindUint8, 1}
	Uint16     = DataType{KindUint16, 2}
	Uint32     = DataType{KindUint32, 4}
	Uint64     = DataType{KindUint64, 8}
	Float16    = DataType{KindFloat16, 2}
	BFloat16   = DataType{KindBFloat16, 2}
	Float32    = DataType{KindFloat32, 4}
	Float64    = DataType{KindFloat64, 8}
	Complex64  = DataType{KindComplex64, 8}
	Complex128 = DataType{KindComplex128, 16}
)

// RawBits returns the raw binary data type holding size opaque bytes per
// element.
func RawBits(size int) DataType {
	return DataType{KindRawBits, size}
}

// Kind returns the type family.
func (d DataType) Kind() Kind { return d.kind }

// ElementSize returns the size in bytes of one element.
func (d DataType) ElementSize() int { return d.size }

// IsFloat reports whether the type is a floating point family member.
func (d DataType) IsFloat() bool {
	switch d.kind {
	case KindFloat16, KindBFloat16, KindFloat32, KindFloat64:
		return true
	}
	return false
}

// Name returns the Zarr V3 metadata name of the type. Raw binary types are
// named by their width in bits, e.g. "r16".
func (d DataType) Name() string {
	switch d.kind {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat16:
		return "float16"
	case KindBFloat16:
		return "bfloat16"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindComplex64:
		return "complex64"
	case KindComplex128:
		return "complex128"
	case KindRawBits:
		return "r" + strconv.Itoa(d.size*8)
	}
	return "unknown"
}

func (d DataType) String() string { return d.Name() }

// FromName resolves a Zarr V3 metadata name to a data type.
func FromName(name string) (DataType, error) {
	switch name {
	case "bool":
		return Bool, nil
	case "int8":
		return Int8, nil
	case "int16":
		return Int16, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "uint8":
		return Uint8, nil
	case "uint16":
		return Uint16, nil
	case "uint32":
		return Uint32, nil
	case "uint64":
		return Uint64, nil
	case "float16":
		return Float16, nil
	case "bfloat16":
		return BFloat16, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "complex64":
		return Complex64, nil
	case "complex128":
		return Complex128, nil
	}
	if bits, ok := strings.CutPrefix(name, "r"); ok {
		n, err := strconv.Atoi(bits)
		if err == nil && n > 0 && n%8 == 0 {
			return RawBits(n / 8), nil
		}
	}
	return DataType{}, fmt.Errorf("%w: %q", ErrUnsupported, name)
}
