package dtype

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/x448/float16"
)

// FillValue is the byte pattern of one element, used for chunks absent from
// storage. Its length always equals the data type's element size. The bytes
// are in the in-memory (native) element representation.
type FillValue struct {
	data []byte
}

// NewFillValue creates a fill value from raw element bytes.
func NewFillValue(data []byte) FillValue {
	d := make([]byte, len(data))
	copy(d, data)
	return FillValue{data: d}
}

// Bytes returns the element bytes. The slice must not be modified.
func (f FillValue) Bytes() []byte { return f.data }

// Size returns the element size in bytes.
func (f FillValue) Size() int { return len(f.data) }

// EqualsAll reports whether data consists entirely of repetitions of the
// fill value. Element sizes 1, 2, 4, 8 and 16 take a fast path.
func (f FillValue) EqualsAll(data []byte) bool {
	n := len(f.data)
	if n == 0 || len(data)%n != 0 {
		return false
	}
	if len(data) == 0 {
		return true
	}
	switch n {
	case 1:
		v := f.data[0]
		for _, b := range data {
			if b != v {
				return false
			}
		}
		return true
	case 2:
		v := binary.NativeEndian.Uint16(f.data)
		for i := 0; i < len(data); i += 2 {
			if binary.NativeEndian.Uint16(data[i:]) != v {
				return false
			}
		}
		return true
	case 4:
		v := binary.NativeEndian.Uint32(f.data)
		for i := 0; i < len(data); i += 4 {
			if binary.NativeEndian.Uint32(data[i:]) != v {
				return false
			}
		}
		return true
	case 8:
		v := binary.NativeEndian.Uint64(f.data)
		for i := 0; i < len(data); i += 8 {
			if binary.NativeEndian.Uint64(data[i:]) != v {
				return false
			}
		}
		return true
	case 16:
		lo := binary.NativeEndian.Uint64(f.data)
		hi := binary.NativeEndian.Uint64(f.data[8:])
		for i := 0; i < len(data); i += 16 {
			if binary.NativeEndian.Uint64(data[i:]) != lo || binary.NativeEndian.Uint64(data[i+8:]) != hi {
				return false
			}
		}
		return true
	default:
		for i := 0; i < len(data); i += n {
			if !bytes.Equal(data[i:i+n], f.data) {
				return false
			}
		}
		return true
	}
}

// Repeat returns a buffer of n elements, each the fill value.
func (f FillValue) Repeat(n uint64) []byte {
	out := make([]byte, n*uint64(len(f.data)))
	if len(f.data) == 0 || n == 0 {
		return out
	}
	copy(out, f.data)
	// Doubling copy.
	for written := len(f.data); written < len(out); written *= 2 {
		copy(out[written:], out[:written])
	}
	return out
}

// Equal reports whether two fill values have identical bytes.
func (f FillValue) Equal(other FillValue) bool {
	return bytes.Equal(f.data, other.data)
}

// ParseFillValue interprets a JSON fill value per the Zarr V3 metadata
// rules for the given data type.
func ParseFillValue(dt DataType, raw json.RawMessage) (FillValue, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return FillValue{}, fmt.Errorf("parsing fill value: %w", err)
	}
	return fillValueFromJSON(dt, v)
}

func fillValueFromJSON(dt DataType, v any) (FillValue, error) {
	size := dt.ElementSize()
	buf := make([]byte, size)

	switch dt.kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return FillValue{}, fmt.Errorf("fill value %v is not a bool", v)
		}
		if b {
			buf[0] = 1
		}
		return FillValue{buf}, nil

	case KindInt8, KindInt16, KindInt32, KindInt64:
		i, err := intFromJSON(v)
		if err != nil {
			return FillValue{}, err
		}
		putInt(buf, i)
		return FillValue{buf}, nil

	case KindUint8, KindUint16, KindUint32, KindUint64:
		i, err := uintFromJSON(v)
		if err != nil {
			return FillValue{}, err
		}
		putUint(buf, i)
		return FillValue{buf}, nil

	case KindFloat16, KindBFloat16, KindFloat32, KindFloat64:
		if hex, ok := hexBytes(v, size); ok {
			return FillValue{hex}, nil
		}
		f, err := floatFromJSON(v)
		if err != nil {
			return FillValue{}, err
		}
		putFloat(dt, buf, f)
		return FillValue{buf}, nil

	case KindComplex64, KindComplex128:
		pair, ok := v.([]any)
		if !ok || len(pair) != 2 {
			return FillValue{}, fmt.Errorf("complex fill value %v is not a [re, im] pair", v)
		}
		re, err := floatFromJSON(pair[0])
		if err != nil {
			return FillValue{}, err
		}
		im, err := floatFromJSON(pair[1])
		if err != nil {
			return FillValue{}, err
		}
		half := size / 2
		if dt.kind == KindComplex64 {
			putFloat(Float32, buf[:half], re)
			putFloat(Float32, buf[half:], im)
		} else {
			putFloat(Float64, buf[:half], re)
			putFloat(Float64, buf[half:], im)
		}
		return FillValue{buf}, nil

	case KindRawBits:
		arr, ok := v.([]any)
		if !ok {
			return FillValue{}, fmt.Errorf("raw bits fill value %v is not a byte array", v)
		}
		if len(arr) != size {
			return FillValue{}, fmt.Errorf("raw bits fill value has %d bytes, expected %d", len(arr), size)
		}
		for i, e := range arr {
			b, err := uintFromJSON(e)
			if err != nil || b > 255 {
				return FillValue{}, fmt.Errorf("raw bits fill value byte %d is invalid", i)
			}
			buf[i] = byte(b)
		}
		return FillValue{buf}, nil
	}
	return FillValue{}, fmt.Errorf("%w: %s", ErrUnsupported, dt)
}

// hexBytes decodes a "0x…" hex string to size bytes, most significant first.
func hexBytes(v any, size int) ([]byte, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "0x") || len(s) != 2+2*size {
		return nil, false
	}
	bits, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return nil, false
	}
	buf := make([]byte, size)
	switch size {
	case 2:
		binary.NativeEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.NativeEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.NativeEndian.PutUint64(buf, bits)
	default:
		return nil, false
	}
	return buf, true
}

func intFromJSON(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("fill value %v is not an integer", v)
	}
	return n.Int64()
}

func uintFromJSON(v any) (uint64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("fill value %v is not an unsigned integer", v)
	}
	return strconv.ParseUint(n.String(), 10, 64)
}

func floatFromJSON(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		switch x {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
	}
	return 0, fmt.Errorf("fill value %v is not a float", v)
}

func putInt(buf []byte, v int64) {
	switch len(buf) {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.NativeEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.NativeEndian.PutUint32(buf, uint32(v))
	case 8:
		binary.NativeEndian.PutUint64(buf, uint64(v))
	}
}

func putUint(buf []byte, v uint64) {
	switch len(buf) {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.NativeEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.NativeEndian.PutUint32(buf, uint32(v))
	case 8:
		binary.NativeEndian.PutUint64(buf, v)
	}
}

func putFloat(dt DataType, buf []byte, v float64) {
	switch dt.kind {
	case KindFloat16:
		bits := float16.Fromfloat32(float32(v)).Bits()
		if math.IsNaN(v) {
			bits = NaNFloat16
		}
		binary.NativeEndian.PutUint16(buf, bits)
	case KindBFloat16:
		binary.NativeEndian.PutUint16(buf, BFloat16FromFloat64(v))
	case KindFloat32:
		bits := math.Float32bits(float32(v))
		if math.IsNaN(v) {
			bits = NaNFloat32
		}
		binary.NativeEndian.PutUint32(buf, bits)
	case KindFloat64:
		bits := math.Float64bits(v)
		if math.IsNaN(v) {
			bits = NaNFloat64
		}
		binary.NativeEndian.PutUint64(buf, bits)
	}
}

// FillValueJSON serializes a fill value to its canonical JSON form for the
// given data type.
func FillValueJSON(dt DataType, f FillValue) (any, error) {
	if len(f.data) != dt.ElementSize() {
		return nil, fmt.Errorf("fill value has %d bytes, expected %d for %s", len(f.data), dt.ElementSize(), dt)
	}
	buf := f.data
	switch dt.kind {
	case KindBool:
		return buf[0] != 0, nil
	case KindInt8:
		return int64(int8(buf[0])), nil
	case KindInt16:
		return int64(int16(binary.NativeEndian.Uint16(buf))), nil
	case KindInt32:
		return int64(int32(binary.NativeEndian.Uint32(buf))), nil
	case KindInt64:
		return int64(binary.NativeEndian.Uint64(buf)), nil
	case KindUint8:
		return uint64(buf[0]), nil
	case KindUint16:
		return uint64(binary.NativeEndian.Uint16(buf)), nil
	case KindUint32:
		return uint64(binary.NativeEndian.Uint32(buf)), nil
	case KindUint64:
		return binary.NativeEndian.Uint64(buf), nil
	case KindFloat16:
		return float16JSON(binary.NativeEndian.Uint16(buf)), nil
	case KindBFloat16:
		return bfloat16JSON(binary.NativeEndian.Uint16(buf)), nil
	case KindFloat32:
		return float32JSON(binary.NativeEndian.Uint32(buf)), nil
	case KindFloat64:
		return float64JSON(binary.NativeEndian.Uint64(buf)), nil
	case KindComplex64:
		return []any{
			float32JSON(binary.NativeEndian.Uint32(buf)),
			float32JSON(binary.NativeEndian.Uint32(buf[4:])),
		}, nil
	case KindComplex128:
		return []any{
			float64JSON(binary.NativeEndian.Uint64(buf)),
			float64JSON(binary.NativeEndian.Uint64(buf[8:])),
		}, nil
	case KindRawBits:
		arr := make([]any, len(buf))
		for i, b := range buf {
			arr[i] = uint64(b)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, dt)
}

func float16JSON(bits uint16) any {
	if IsNaNFloat16(bits) {
		if bits == NaNFloat16 {
			return "NaN"
		}
		return hexString(bits, 2)
	}
	v := float64(float16.Frombits(bits).Float32())
	return nonFiniteJSON(v)
}

func bfloat16JSON(bits uint16) any {
	if IsNaNBFloat16(bits) {
		if bits == NaNBFloat16 {
			return "NaN"
		}
		return hexString(bits, 2)
	}
	return nonFiniteJSON(BFloat16ToFloat64(bits))
}

func float32JSON(bits uint32) any {
	if IsNaNFloat32(bits) {
		if bits == NaNFloat32 {
			return "NaN"
		}
		return hexString(uint64(bits), 4)
	}
	return nonFiniteJSON(float64(math.Float32frombits(bits)))
}

func float64JSON(bits uint64) any {
	if IsNaNFloat64(bits) {
		if bits == NaNFloat64 {
			return "NaN"
		}
		return hexString(bits, 8)
	}
	return nonFiniteJSON(math.Float64frombits(bits))
}

func nonFiniteJSON(v float64) any {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	default:
		return v
	}
}

func hexString[T uint16 | uint64](bits T, size int) string {
	return fmt.Sprintf("0x%0*x", 2*size, uint64(bits))
}

// ZeroFill returns the all-zero fill value for a data type.
func ZeroFill(dt DataType) FillValue {
	return FillValue{data: make([]byte, dt.ElementSize())}
}
