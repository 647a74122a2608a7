package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory store backed by a map. It is safe for
// concurrent use and implements the full capability set.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[StoreKey][]byte
	locks KeyLocks
}

var _ ReadableWritableListable = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store with a default lock
// registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[StoreKey][]byte),
		locks: NewDefaultLocks(),
	}
}

// Locks returns the store's per-key lock registry.
func (s *MemoryStore) Locks() KeyLocks { return s.locks }

// Get returns the value at key, or nil if absent.
func (s *MemoryStore) Get(ctx context.Context, key StoreKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// GetPartialValues resolves a batch of byte-range reads.
func (s *MemoryStore) GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error) {
	return GetPartialValuesFromGet(ctx, s, requests)
}

// GetPartialValuesKey resolves byte ranges against a single key.
func (s *MemoryStore) GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return ExtractByteRanges(v, ranges)
}

// SizeKey returns the size of the value at key.
func (s *MemoryStore) SizeKey(ctx context.Context, key StoreKey) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return 0, false, nil
	}
	return uint64(len(v)), true, nil
}

// SizePrefix returns the total size of all values under prefix.
func (s *MemoryStore) SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for k, v := range s.data {
		if k.HasPrefix(prefix) {
			total += uint64(len(v))
		}
	}
	return total, nil
}

// Size returns the total size of all values in the store.
func (s *MemoryStore) Size(ctx context.Context) (uint64, error) {
	return s.SizePrefix(ctx, RootPrefix)
}

// Set stores value at key.
func (s *MemoryStore) Set(ctx context.Context, key StoreKey, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	return nil
}

// SetPartialValues applies partial writes by read-modify-write under the
// per-key locks.
func (s *MemoryStore) SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error {
	return SetPartialValuesRMW(ctx, s, values)
}

// Erase removes the value at key. Erasing an absent key succeeds.
func (s *MemoryStore) Erase(ctx context.Context, key StoreKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// EraseValues removes the values at each key.
func (s *MemoryStore) EraseValues(ctx context.Context, keys []StoreKey) error {
	return EraseValuesSeq(ctx, s, keys)
}

// ErasePrefix removes every value under prefix.
func (s *MemoryStore) ErasePrefix(ctx context.Context, prefix StorePrefix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if k.HasPrefix(prefix) {
			delete(s.data, k)
		}
	}
	return nil
}

// List returns all keys in sorted order.
func (s *MemoryStore) List(ctx context.Context) ([]StoreKey, error) {
	return s.ListPrefix(ctx, RootPrefix)
}

// ListPrefix returns all keys under prefix in sorted order.
func (s *MemoryStore) ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]StoreKey, 0)
	for k := range s.data {
		if k.HasPrefix(prefix) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// ListDir returns the keys and prefixes immediately below prefix.
func (s *MemoryStore) ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return StoreKeysPrefixes{}, err
	}
	return listDirFromKeys(keys, prefix), nil
}

// listDirFromKeys partitions the keys under prefix into immediate children
// and immediate child prefixes.
func listDirFromKeys(keys []StoreKey, prefix StorePrefix) StoreKeysPrefixes {
	var out StoreKeysPrefixes
	seen := make(map[StorePrefix]struct{})
	for _, k := range keys {
		rest := strings.TrimPrefix(string(k), string(prefix))
		if i := strings.Index(rest, "/"); i >= 0 {
			child := StorePrefix(string(prefix) + rest[:i+1])
			if _, ok := seen[child]; !ok {
				seen[child] = struct{}{}
				out.Prefixes = append(out.Prefixes, child)
			}
		} else {
			out.Keys = append(out.Keys, k)
		}
	}
	sort.Slice(out.Prefixes, func(i, j int) bool { return out.Prefixes[i] < out.Prefixes[j] })
	return out
}
