package storage

import (
	"context"
	"fmt"
)

// GetPartialValuesFromGet implements Readable.GetPartialValues in terms of
// per-key GetPartialValuesKey calls. Stores without native batched reads use
// this as their implementation.
func GetPartialValuesFromGet(ctx context.Context, r Readable, requests []StoreKeyRange) ([][]byte, error) {
	out := make([][]byte, len(requests))
	for i, req := range requests {
		values, err := r.GetPartialValuesKey(ctx, req.Key, []ByteRange{req.Range})
		if err != nil {
			return nil, err
		}
		if values == nil {
			continue
		}
		out[i] = values[0]
	}
	return out, nil
}

// SetPartialValuesRMW implements Writable.SetPartialValues by
// read-modify-write under the store's per-key locks. Writes to the same key
// are applied in order; writes past the current end of the value zero fill
// the gap.
func SetPartialValuesRMW(ctx context.Context, store ReadableWritable, values []StoreKeyOffsetValue) error {
	// Group by key so each key is locked and rewritten once.
	byKey := make(map[StoreKey][]StoreKeyOffsetValue)
	order := make([]StoreKey, 0, len(values))
	for _, v := range values {
		if _, seen := byKey[v.Key]; !seen {
			order = append(order, v.Key)
		}
		byKey[v.Key] = append(byKey[v.Key], v)
	}

	for _, key := range order {
		if err := setPartialValuesKey(ctx, store, key, byKey[key]); err != nil {
			return fmt.Errorf("partial write of %q: %w", key, err)
		}
	}
	return nil
}

func setPartialValuesKey(ctx context.Context, store ReadableWritable, key StoreKey, values []StoreKeyOffsetValue) error {
	unlock := store.Locks().Lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	for _, v := range values {
		end := v.Offset + uint64(len(v.Value))
		if end > uint64(len(current)) {
			grown := make([]byte, end)
			copy(grown, current)
			current = grown
		}
		copy(current[v.Offset:end], v.Value)
	}
	return store.Set(ctx, key, current)
}

// EraseValuesSeq implements Writable.EraseValues in terms of Erase.
func EraseValuesSeq(ctx context.Context, w Writable, keys []StoreKey) error {
	for _, key := range keys {
		if err := w.Erase(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// SizePrefixFromList implements Readable.SizePrefix for stores that can list.
func SizePrefixFromList(ctx context.Context, s ReadableListable, prefix StorePrefix) (uint64, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, key := range keys {
		size, ok, err := s.SizeKey(ctx, key)
		if err != nil {
			return 0, err
		}
		if ok {
			total += size
		}
	}
	return total, nil
}
