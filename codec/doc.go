// Package codec implements the Zarr V3 codec model: reversible
// transformations applied to array chunks on their way to and from storage.
//
// A codec is one of three kinds:
//
//   - [ArrayToArray]: element-preserving transforms (e.g. transpose)
//   - [ArrayToBytes]: serialization of array elements to bytes (e.g. bytes,
//     sharding_indexed); exactly one per chain
//   - [BytesToBytes]: byte-stream transforms (e.g. gzip, zstd, crc32c)
//
// A [Chain] owns an ordered sequence of codecs and provides whole-chunk
// encode and decode, plus partial decoding: a [Chain.PartialDecoder] walks
// the chain and builds a stack of decoders that translate array-subset
// requests into byte-range reads terminating at a store via
// [StoragePartialDecoder]. Codecs that cannot serve random reads are fronted
// by a cache that fetches the encoded value once per pipeline invocation.
//
// Codecs are constructed from metadata through a name registry; see
// [Register] and [FromMetadata]. The built-in codecs are registered at
// package initialisation.
package codec
