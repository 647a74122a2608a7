package dtype

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, dt DataType, raw string) FillValue {
	t.Helper()
	f, err := ParseFillValue(dt, json.RawMessage(raw))
	require.NoError(t, err)
	return f
}

func TestParseInt(t *testing.T) {
	f := parse(t, Int32, "-7")
	var want [4]byte
	neg7 := int32(-7)
	binary.NativeEndian.PutUint32(want[:], uint32(neg7))
	assert.Equal(t, want[:], f.Bytes())
}

func TestParseUint(t *testing.T) {
	f := parse(t, Uint16, "65535")
	var want [2]byte
	binary.NativeEndian.PutUint16(want[:], 65535)
	assert.Equal(t, want[:], f.Bytes())
}

func TestParseBool(t *testing.T) {
	assert.Equal(t, []byte{1}, parse(t, Bool, "true").Bytes())
	assert.Equal(t, []byte{0}, parse(t, Bool, "false").Bytes())
}

func TestParseFloatSpecials(t *testing.T) {
	f := parse(t, Float64, `"NaN"`)
	assert.Equal(t, NaNFloat64, binary.NativeEndian.Uint64(f.Bytes()))

	f = parse(t, Float64, `"Infinity"`)
	assert.Equal(t, math.Float64bits(math.Inf(1)), binary.NativeEndian.Uint64(f.Bytes()))

	f = parse(t, Float32, `"-Infinity"`)
	assert.Equal(t, math.Float32bits(float32(math.Inf(-1))), binary.NativeEndian.Uint32(f.Bytes()))
}

func TestParseFloatHex(t *testing.T) {
	// A non-canonical NaN round-trips exactly through the hex form.
	f := parse(t, Float32, `"0x7fc00001"`)
	assert.Equal(t, uint32(0x7fc00001), binary.NativeEndian.Uint32(f.Bytes()))

	out, err := FillValueJSON(Float32, f)
	require.NoError(t, err)
	assert.Equal(t, "0x7fc00001", out)
}

func TestCanonicalNaNPatterns(t *testing.T) {
	f := parse(t, Float16, `"NaN"`)
	assert.Equal(t, NaNFloat16, binary.NativeEndian.Uint16(f.Bytes()))

	f = parse(t, BFloat16, `"NaN"`)
	assert.Equal(t, NaNBFloat16, binary.NativeEndian.Uint16(f.Bytes()))

	f = parse(t, Float32, `"NaN"`)
	assert.Equal(t, NaNFloat32, binary.NativeEndian.Uint32(f.Bytes()))

	f = parse(t, Float64, `"NaN"`)
	assert.Equal(t, NaNFloat64, binary.NativeEndian.Uint64(f.Bytes()))
}

func TestParseComplex(t *testing.T) {
	f := parse(t, Complex64, `[1.5, -2.0]`)
	assert.Equal(t, math.Float32bits(1.5), binary.NativeEndian.Uint32(f.Bytes()))
	assert.Equal(t, math.Float32bits(-2.0), binary.NativeEndian.Uint32(f.Bytes()[4:]))

	out, err := FillValueJSON(Complex64, f)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1.5), float64(-2.0)}, out)
}

func TestParseRawBits(t *testing.T) {
	f := parse(t, RawBits(3), `[1, 2, 255]`)
	assert.Equal(t, []byte{1, 2, 255}, f.Bytes())

	_, err := ParseFillValue(RawBits(3), json.RawMessage(`[1, 2]`))
	assert.Error(t, err)
}

func TestSerializeInt(t *testing.T) {
	out, err := FillValueJSON(Int32, parse(t, Int32, "-7"))
	require.NoError(t, err)
	assert.Equal(t, int64(-7), out)
}

func TestSerializeNaN(t *testing.T) {
	out, err := FillValueJSON(Float64, parse(t, Float64, `"NaN"`))
	require.NoError(t, err)
	assert.Equal(t, "NaN", out)
}

func TestSerializeInfinity(t *testing.T) {
	out, err := FillValueJSON(Float64, parse(t, Float64, `"Infinity"`))
	require.NoError(t, err)
	assert.Equal(t, "Infinity", out)
}

func TestEqualsAll(t *testing.T) {
	tests := []struct {
		name string
		fill []byte
		data []byte
		want bool
	}{
		{"single byte all equal", []byte{7}, []byte{7, 7, 7, 7}, true},
		{"single byte mismatch", []byte{7}, []byte{7, 7, 8, 7}, false},
		{"two byte all equal", []byte{1, 2}, []byte{1, 2, 1, 2}, true},
		{"two byte mismatch", []byte{1, 2}, []byte{1, 2, 2, 1}, false},
		{"four byte all equal", []byte{0, 0, 0, 1}, []byte{0, 0, 0, 1, 0, 0, 0, 1}, true},
		{"eight byte all equal", make([]byte, 8), make([]byte, 32), true},
		{"sixteen byte all equal", make([]byte, 16), make([]byte, 64), true},
		{"odd element size equal", []byte{1, 2, 3}, []byte{1, 2, 3, 1, 2, 3}, true},
		{"odd element size mismatch", []byte{1, 2, 3}, []byte{1, 2, 3, 1, 2, 4}, false},
		{"misaligned length", []byte{1, 2}, []byte{1, 2, 1}, false},
		{"empty data", []byte{9}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFillValue(tt.fill).EqualsAll(tt.data))
		})
	}
}

func TestRepeat(t *testing.T) {
	f := NewFillValue([]byte{1, 2})
	assert.Equal(t, []byte{1, 2, 1, 2, 1, 2}, f.Repeat(3))
	assert.Empty(t, f.Repeat(0))
}

func TestBFloat16Conversion(t *testing.T) {
	assert.Equal(t, uint16(0x3F80), BFloat16FromFloat64(1.0))
	assert.Equal(t, 1.0, BFloat16ToFloat64(0x3F80))
	assert.Equal(t, NaNBFloat16, BFloat16FromFloat64(math.NaN()))
}
