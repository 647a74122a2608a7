// Package zarrs provides a pure Go implementation of the Zarr V3 storage
// specification for chunked, compressed, N-dimensional arrays.
//
// Arrays are partitioned into regular rectangular chunks. Each chunk is
// encoded through a chain of codecs and stored as an opaque value in a
// key-value store. The main entry points are in the subpackages:
//
//   - array: the Array type and its chunk/subset read and write operations
//   - node: group hierarchy discovery and group metadata
//   - storage: the store abstraction and the built-in store implementations
//   - codec: the codec chain and the built-in codecs
//   - subset: rectangular index-space subsets and their iterators
//   - dtype: element data types and fill values
//
// This root package holds the process-wide configuration shared by the
// subpackages.
package zarrs
