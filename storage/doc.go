// Package storage defines the key-value store abstraction used to persist
// array chunks and metadata, and the built-in store implementations.
//
// Stores are factored by capability so that read-only back-ends need not
// implement writes:
//
//   - [Readable]: byte and byte-range reads, size queries
//   - [Writable]: whole-value and partial writes, idempotent erasure
//   - [Listable]: sorted key listing and hierarchical directory listing
//
// [ReadableWritable], [ReadableListable] and [ReadableWritableListable]
// combine the capabilities. All operations accept a [context.Context];
// cancellation is observed at the store boundary.
//
// # Keys and prefixes
//
// A [StoreKey] is a non-empty, "/"-separated UTF-8 string that does not start
// with "/". A [StorePrefix] is either empty (the root) or ends in "/". Both
// are value types with parent/child navigation.
//
// # Missing keys
//
// A read of a missing key is not an error: [Readable.Get] and
// [Readable.GetPartialValuesKey] return nil, and [Readable.SizeKey] reports
// the key as absent. Erasing a missing key succeeds.
//
// # Built-in stores
//
// [MemoryStore] keeps values in a mutex-guarded map. [FilesystemStore] maps
// keys to files below a base directory with atomic whole-value writes.
// [BoltStore] keeps all values in a single bucket of a bbolt database file.
//
// # Transformers
//
// A storage transformer wraps an inner store with the same capability set.
// [UsageLogTransformer] emits one structured log record per call and
// [PerformanceMetricsTransformer] counts operations and bytes moved.
//
// # Locking
//
// Non-atomic chunk updates (read-modify-write) are linearized per key through
// a [KeyLocks] registry. [NewDefaultLocks] provides real mutexes;
// [DisabledLocks] is a no-op for read-only or single-goroutine use.
package storage
