package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilesystemStore maps store keys to files below a base directory. Key
// segments become path components. Whole-value writes are atomic: the value
// is written to a temporary file and renamed into place.
type FilesystemStore struct {
	base  string
	locks KeyLocks
}

var _ ReadableWritableListable = (*FilesystemStore)(nil)

// NewFilesystemStore creates a store rooted at base, creating the directory
// if needed.
func NewFilesystemStore(base string) (*FilesystemStore, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return &FilesystemStore{base: abs, locks: NewDefaultLocks()}, nil
}

// Locks returns the store's per-key lock registry.
func (s *FilesystemStore) Locks() KeyLocks { return s.locks }

func (s *FilesystemStore) keyPath(key StoreKey) string {
	return filepath.Join(s.base, filepath.FromSlash(string(key)))
}

func (s *FilesystemStore) prefixPath(prefix StorePrefix) string {
	return filepath.Join(s.base, filepath.FromSlash(string(prefix)))
}

// Get returns the value at key, or nil if absent.
func (s *FilesystemStore) Get(ctx context.Context, key StoreKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.keyPath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return b, nil
}

// GetPartialValues resolves a batch of byte-range reads.
func (s *FilesystemStore) GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error) {
	return GetPartialValuesFromGet(ctx, s, requests)
}

// GetPartialValuesKey resolves byte ranges against a single key using
// seeking reads, without loading the whole value.
func (s *FilesystemStore) GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.keyPath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", key, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	size := uint64(info.Size())

	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		if err := r.Validate(size); err != nil {
			return nil, err
		}
		b := make([]byte, r.Len(size))
		if _, err := f.ReadAt(b, int64(r.Start(size))); err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading %q: %w", key, err)
		}
		out[i] = b
	}
	return out, nil
}

// SizeKey returns the size of the value at key.
func (s *FilesystemStore) SizeKey(ctx context.Context, key StoreKey) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	info, err := os.Stat(s.keyPath(key))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stat %q: %w", key, err)
	}
	if info.IsDir() {
		return 0, false, nil
	}
	return uint64(info.Size()), true, nil
}

// SizePrefix returns the total size of all values under prefix.
func (s *FilesystemStore) SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error) {
	return SizePrefixFromList(ctx, s, prefix)
}

// Size returns the total size of all values in the store.
func (s *FilesystemStore) Size(ctx context.Context) (uint64, error) {
	return s.SizePrefix(ctx, RootPrefix)
}

// Set stores value at key, creating parent directories as needed. The write
// is atomic at the key level.
func (s *FilesystemStore) Set(ctx context.Context, key StoreKey, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent of %q: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".zarrs-*")
	if err != nil {
		return fmt.Errorf("creating temporary for %q: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into %q: %w", key, err)
	}
	return nil
}

// SetPartialValues applies partial writes in place with WriteAt, creating or
// extending the file as needed. Each key is updated under its per-key lock.
func (s *FilesystemStore) SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error {
	for _, v := range values {
		if err := s.setPartialValue(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *FilesystemStore) setPartialValue(ctx context.Context, v StoreKeyOffsetValue) error {
	unlock := s.locks.Lock(v.Key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.keyPath(v.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent of %q: %w", v.Key, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %q: %w", v.Key, err)
	}
	defer f.Close()
	if _, err := f.WriteAt(v.Value, int64(v.Offset)); err != nil {
		return fmt.Errorf("partial write of %q: %w", v.Key, err)
	}
	return nil
}

// Erase removes the value at key. Erasing an absent key succeeds.
func (s *FilesystemStore) Erase(ctx context.Context, key StoreKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("erasing %q: %w", key, err)
	}
	return nil
}

// EraseValues removes the values at each key.
func (s *FilesystemStore) EraseValues(ctx context.Context, keys []StoreKey) error {
	return EraseValuesSeq(ctx, s, keys)
}

// ErasePrefix removes every value under prefix.
func (s *FilesystemStore) ErasePrefix(ctx context.Context, prefix StorePrefix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.prefixPath(prefix)
	if prefix == RootPrefix {
		// Keep the base directory itself.
		entries, err := os.ReadDir(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("listing base directory: %w", err)
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(path, e.Name())); err != nil {
				return fmt.Errorf("erasing prefix %q: %w", prefix, err)
			}
		}
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("erasing prefix %q: %w", prefix, err)
	}
	return nil
}

// List returns all keys in sorted order.
func (s *FilesystemStore) List(ctx context.Context) ([]StoreKey, error) {
	return s.ListPrefix(ctx, RootPrefix)
}

// ListPrefix returns all keys under prefix in sorted order.
func (s *FilesystemStore) ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := s.prefixPath(prefix)
	var keys []StoreKey
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			return err
		}
		keys = append(keys, StoreKey(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing prefix %q: %w", prefix, err)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// ListDir returns the keys and prefixes immediately below prefix.
func (s *FilesystemStore) ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error) {
	if err := ctx.Err(); err != nil {
		return StoreKeysPrefixes{}, err
	}
	entries, err := os.ReadDir(s.prefixPath(prefix))
	if os.IsNotExist(err) {
		return StoreKeysPrefixes{}, nil
	}
	if err != nil {
		return StoreKeysPrefixes{}, fmt.Errorf("listing prefix %q: %w", prefix, err)
	}
	var out StoreKeysPrefixes
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".zarrs-") {
			continue // in-flight temporary
		}
		if e.IsDir() {
			out.Prefixes = append(out.Prefixes, StorePrefix(string(prefix)+name+"/"))
		} else {
			out.Keys = append(out.Keys, StoreKey(string(prefix)+name))
		}
	}
	return out, nil
}
