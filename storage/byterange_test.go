package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteRangeResolution(t *testing.T) {
	const size = 10
	tests := []struct {
		name       string
		r          ByteRange
		start, end uint64
	}{
		{"from start bounded", FromStart(3, 4), 3, 7},
		{"from start to end", FromStart(3, -1), 3, 10},
		{"entire value", EntireValue(), 0, 10},
		{"from end bounded", FromEnd(2, 3), 5, 8},
		{"from end to start", FromEnd(2, -1), 0, 8},
		{"suffix", FromEnd(0, 4), 6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.r.Validate(size))
			assert.Equal(t, tt.start, tt.r.Start(size))
			assert.Equal(t, tt.end, tt.r.End(size))
			assert.Equal(t, tt.end-tt.start, tt.r.Len(size))
		})
	}
}

func TestByteRangeValidate(t *testing.T) {
	var rangeErr *InvalidByteRangeError
	assert.ErrorAs(t, FromStart(11, -1).Validate(10), &rangeErr)
	assert.ErrorAs(t, FromStart(4, 7).Validate(10), &rangeErr)
	assert.ErrorAs(t, FromEnd(8, 3).Validate(10), &rangeErr)
	assert.NoError(t, FromStart(10, 0).Validate(10))
}

func TestExtractByteRanges(t *testing.T) {
	value := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := ExtractByteRanges(value, []ByteRange{
		FromStart(3, 3),
		FromStart(4, 1),
		FromStart(1, 1),
		FromEnd(1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{3, 4, 5}, {4}, {1}, {4, 5, 6, 7, 8}}, out)
}

func TestExtractByteRangesInvalid(t *testing.T) {
	_, err := ExtractByteRanges([]byte{1, 2, 3}, []ByteRange{FromStart(2, 5)})
	var rangeErr *InvalidByteRangeError
	assert.ErrorAs(t, err, &rangeErr)
}
