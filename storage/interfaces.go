package storage

import "context"

// Readable is the read capability of a store.
//
// Reads of missing keys are not errors: Get and GetPartialValuesKey return
// nil and SizeKey reports the key as absent.
type Readable interface {
	// Get returns the full value at key, or nil if the key does not exist.
	Get(ctx context.Context, key StoreKey) ([]byte, error)

	// GetPartialValues resolves a batch of (key, byte range) requests. The
	// result has one entry per request; a nil entry marks a missing key.
	GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error)

	// GetPartialValuesKey resolves several byte ranges against a single key.
	// It returns nil (and no error) if the key does not exist.
	GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error)

	// SizeKey returns the size of the value at key. ok is false if the key
	// does not exist.
	SizeKey(ctx context.Context, key StoreKey) (size uint64, ok bool, err error)

	// SizePrefix returns the total size of all values under prefix.
	SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error)

	// Size returns the total size of all values in the store.
	Size(ctx context.Context) (uint64, error)
}

// Writable is the write capability of a store. All erase operations are
// idempotent: erasing an absent key or prefix succeeds.
type Writable interface {
	// Set stores value at key, replacing any existing value.
	Set(ctx context.Context, key StoreKey, value []byte) error

	// SetPartialValues applies a batch of partial writes. Writing past the
	// current end of a value extends it; the gap, if any, is zero filled.
	SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error

	// Erase removes the value at key.
	Erase(ctx context.Context, key StoreKey) error

	// EraseValues removes the values at each key.
	EraseValues(ctx context.Context, keys []StoreKey) error

	// ErasePrefix removes every value under prefix.
	ErasePrefix(ctx context.Context, prefix StorePrefix) error
}

// Listable is the listing capability of a store.
type Listable interface {
	// List returns all keys in the store in lexicographical order.
	List(ctx context.Context) ([]StoreKey, error)

	// ListPrefix returns all keys under prefix in lexicographical order.
	ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error)

	// ListDir returns the keys and prefixes immediately below prefix.
	ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error)
}

// ReadableWritable combines the read and write capabilities with the per-key
// locking needed for linearized read-modify-write of a single value.
type ReadableWritable interface {
	Readable
	Writable

	// Locks returns the per-key lock registry of the store.
	Locks() KeyLocks
}

// ReadableListable combines the read and list capabilities.
type ReadableListable interface {
	Readable
	Listable
}

// ReadableWritableListable is the full capability set.
type ReadableWritableListable interface {
	Readable
	Writable
	Listable

	// Locks returns the per-key lock registry of the store.
	Locks() KeyLocks
}
