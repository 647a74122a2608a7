package subset

import "fmt"

// ExtractBytes gathers the subset's elements from a row-major buffer of an
// array with the given shape. Elements are elementSize bytes wide. The
// result is the subset's elements in row-major order.
func (s ArraySubset) ExtractBytes(src []byte, arrayShape []uint64, elementSize uint64) ([]byte, error) {
	if expected := numElements(arrayShape) * elementSize; uint64(len(src)) != expected {
		return nil, fmt.Errorf("source buffer has %d bytes, expected %d for shape %v", len(src), expected, arrayShape)
	}
	runs, err := s.ContiguousLinearisedIndices(arrayShape)
	if err != nil {
		return nil, err
	}
	out := make([]byte, s.NumElements()*elementSize)
	var outOffset uint64
	for {
		offset, n, ok := runs.Next()
		if !ok {
			break
		}
		length := n * elementSize
		copy(out[outOffset:outOffset+length], src[offset*elementSize:offset*elementSize+length])
		outOffset += length
	}
	return out, nil
}

// OverwriteBytes scatters src, the subset's elements in row-major order,
// into a row-major buffer of an array with the given shape.
func (s ArraySubset) OverwriteBytes(dst []byte, arrayShape []uint64, elementSize uint64, src []byte) error {
	if expected := numElements(arrayShape) * elementSize; uint64(len(dst)) != expected {
		return fmt.Errorf("destination buffer has %d bytes, expected %d for shape %v", len(dst), expected, arrayShape)
	}
	if expected := s.NumElements() * elementSize; uint64(len(src)) != expected {
		return fmt.Errorf("source buffer has %d bytes, expected %d for subset %v", len(src), expected, s)
	}
	runs, err := s.ContiguousLinearisedIndices(arrayShape)
	if err != nil {
		return err
	}
	var srcOffset uint64
	for {
		offset, n, ok := runs.Next()
		if !ok {
			return nil
		}
		length := n * elementSize
		copy(dst[offset*elementSize:offset*elementSize+length], src[srcOffset:srcOffset+length])
		srcOffset += length
	}
}

func numElements(shape []uint64) uint64 {
	n := uint64(1)
	for _, c := range shape {
		n *= c
	}
	return n
}
