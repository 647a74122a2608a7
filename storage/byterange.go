package storage

import "fmt"

// ByteRange is a half-open interval of bytes within a stored value. The
// interval is anchored at the start of the value, or at the end when FromEnd
// is set. A negative Length means "to the end of the value" (or, with
// FromEnd, "from the start of the value").
type ByteRange struct {
	Offset  uint64
	Length  int64
	FromEnd bool
}

// FromStart returns the range [offset, offset+length). A negative length
// extends the range to the end of the value.
func FromStart(offset uint64, length int64) ByteRange {
	return ByteRange{Offset: offset, Length: length}
}

// EntireValue returns the range covering a whole value.
func EntireValue() ByteRange {
	return ByteRange{Offset: 0, Length: -1}
}

// FromEnd returns the range ending offset bytes before the end of the value
// and covering length bytes. A negative length extends the range back to the
// start of the value.
func FromEnd(offset uint64, length int64) ByteRange {
	return ByteRange{Offset: offset, Length: length, FromEnd: true}
}

// Start resolves the inclusive start of the range against a value of the
// given size.
func (r ByteRange) Start(size uint64) uint64 {
	if r.FromEnd {
		if r.Length < 0 {
			return 0
		}
		return size - r.Offset - uint64(r.Length)
	}
	return r.Offset
}

// End resolves the exclusive end of the range against a value of the given
// size.
func (r ByteRange) End(size uint64) uint64 {
	if r.FromEnd {
		return size - r.Offset
	}
	if r.Length < 0 {
		return size
	}
	return r.Offset + uint64(r.Length)
}

// Len resolves the length of the range against a value of the given size.
func (r ByteRange) Len(size uint64) uint64 {
	return r.End(size) - r.Start(size)
}

// Validate checks that the range lies within a value of the given size.
func (r ByteRange) Validate(size uint64) error {
	if r.FromEnd {
		fixed := uint64(0)
		if r.Length > 0 {
			fixed = uint64(r.Length)
		}
		if r.Offset+fixed > size {
			return &InvalidByteRangeError{Range: r, Size: size}
		}
		return nil
	}
	if r.Offset > size || r.End(size) > size {
		return &InvalidByteRangeError{Range: r, Size: size}
	}
	return nil
}

func (r ByteRange) String() string {
	anchor := "start"
	if r.FromEnd {
		anchor = "end"
	}
	if r.Length < 0 {
		return fmt.Sprintf("bytes[%s+%d..]", anchor, r.Offset)
	}
	return fmt.Sprintf("bytes[%s+%d, len %d]", anchor, r.Offset, r.Length)
}

// ExtractByteRanges resolves ranges against value, returning one byte slice
// per range. The returned slices are copies.
func ExtractByteRanges(value []byte, ranges []ByteRange) ([][]byte, error) {
	size := uint64(len(value))
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		if err := r.Validate(size); err != nil {
			return nil, err
		}
		start, end := r.Start(size), r.End(size)
		b := make([]byte, end-start)
		copy(b, value[start:end])
		out[i] = b
	}
	return out, nil
}
