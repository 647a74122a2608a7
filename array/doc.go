// Package array provides the Array type: a chunked, N-dimensional array
// stored in a key-value store per the Zarr V3 data model.
//
// An [Array] pairs a store with an immutable description of the array: its
// shape, element data type, fill value, chunk grid, chunk key encoding and
// codec chain. Arrays are obtained by opening existing metadata with [Open]
// or creating new metadata with [Create] (or [NewMetadata] and [New]).
//
// Operations come in chunk granularity ([Array.RetrieveChunk],
// [Array.StoreChunk], ...) and subset granularity
// ([Array.RetrieveArraySubset], [Array.StoreArraySubset], ...). Subset reads
// that reach beyond the array shape yield the fill value; subset writes
// beyond the array shape are errors. Element-typed wrappers
// ([RetrieveArraySubsetElements], [StoreArraySubsetElements], ...) avoid
// manual byte handling for plain-old-data element types.
package array
