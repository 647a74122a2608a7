package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("zarrs")

// BoltStore keeps every value in a single bucket of a bbolt database file.
// It trades the one-file-per-chunk layout of [FilesystemStore] for a single
// file, which suits arrays with many small chunks.
type BoltStore struct {
	db    *bolt.DB
	locks KeyLocks
}

var _ ReadableWritableListable = (*BoltStore)(nil)

// NewBoltStore opens (or creates) a bbolt database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltStore{db: db, locks: NewDefaultLocks()}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Locks returns the store's per-key lock registry.
func (s *BoltStore) Locks() KeyLocks { return s.locks }

// Get returns the value at key, or nil if absent.
func (s *BoltStore) Get(ctx context.Context, key StoreKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return out, nil
}

// GetPartialValues resolves a batch of byte-range reads.
func (s *BoltStore) GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error) {
	return GetPartialValuesFromGet(ctx, s, requests)
}

// GetPartialValuesKey resolves byte ranges against a single key.
func (s *BoltStore) GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		var err error
		out, err = ExtractByteRanges(v, ranges)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SizeKey returns the size of the value at key.
func (s *BoltStore) SizeKey(ctx context.Context, key StoreKey) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var size uint64
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get([]byte(key)); v != nil {
			size, ok = uint64(len(v)), true
		}
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("stat %q: %w", key, err)
	}
	return size, ok, nil
}

// SizePrefix returns the total size of all values under prefix.
func (s *BoltStore) SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			total += uint64(len(v))
		}
		return nil
	})
	return total, err
}

// Size returns the total size of all values in the store.
func (s *BoltStore) Size(ctx context.Context) (uint64, error) {
	return s.SizePrefix(ctx, RootPrefix)
}

// Set stores value at key.
func (s *BoltStore) Set(ctx context.Context, key StoreKey, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// SetPartialValues applies partial writes by read-modify-write under the
// per-key locks.
func (s *BoltStore) SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error {
	return SetPartialValuesRMW(ctx, s, values)
}

// Erase removes the value at key. Erasing an absent key succeeds.
func (s *BoltStore) Erase(ctx context.Context, key StoreKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("erasing %q: %w", key, err)
	}
	return nil
}

// EraseValues removes the values at each key.
func (s *BoltStore) EraseValues(ctx context.Context, keys []StoreKey) error {
	return EraseValuesSeq(ctx, s, keys)
}

// ErasePrefix removes every value under prefix.
func (s *BoltStore) ErasePrefix(ctx context.Context, prefix StorePrefix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		c := b.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("erasing prefix %q: %w", prefix, err)
	}
	return nil
}

// List returns all keys in sorted order.
func (s *BoltStore) List(ctx context.Context) ([]StoreKey, error) {
	return s.ListPrefix(ctx, RootPrefix)
}

// ListPrefix returns all keys under prefix in sorted order. Keys in bbolt
// are already byte ordered, so no sort pass is needed.
func (s *BoltStore) ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []StoreKey
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, StoreKey(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// ListDir returns the keys and prefixes immediately below prefix.
func (s *BoltStore) ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return StoreKeysPrefixes{}, err
	}
	out := listDirFromKeys(keys, prefix)
	sort.Slice(out.Keys, func(i, j int) bool { return out.Keys[i] < out.Keys[j] })
	return out, nil
}
