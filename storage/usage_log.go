package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// UsageLogTransformer wraps a store and emits one structured log record per
// storage call. Records carry the operation name, the key or prefix, byte
// counts where applicable, and a per-transformer handle ID so interleaved
// logs from several handles can be told apart.
type UsageLogTransformer struct {
	inner  ReadableWritableListable
	logger *slog.Logger
	handle string
}

var _ ReadableWritableListable = (*UsageLogTransformer)(nil)

// NewUsageLogTransformer wraps inner, logging to logger.
func NewUsageLogTransformer(inner ReadableWritableListable, logger *slog.Logger) *UsageLogTransformer {
	return &UsageLogTransformer{
		inner:  inner,
		logger: logger,
		handle: uuid.NewString(),
	}
}

// Locks returns the inner store's per-key lock registry.
func (t *UsageLogTransformer) Locks() KeyLocks { return t.inner.Locks() }

func (t *UsageLogTransformer) log(ctx context.Context, op string, attrs ...any) {
	attrs = append(attrs, slog.String("handle", t.handle))
	t.logger.LogAttrs(ctx, slog.LevelInfo, op, toAttrs(attrs)...)
}

func toAttrs(kv []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(kv))
	for _, a := range kv {
		if attr, ok := a.(slog.Attr); ok {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// Get logs and delegates.
func (t *UsageLogTransformer) Get(ctx context.Context, key StoreKey) ([]byte, error) {
	v, err := t.inner.Get(ctx, key)
	t.log(ctx, "get", slog.String("key", key.String()), slog.Int("bytes", len(v)), errAttr(err))
	return v, err
}

// GetPartialValues logs and delegates.
func (t *UsageLogTransformer) GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error) {
	v, err := t.inner.GetPartialValues(ctx, requests)
	t.log(ctx, "get_partial_values", slog.Int("requests", len(requests)), errAttr(err))
	return v, err
}

// GetPartialValuesKey logs and delegates.
func (t *UsageLogTransformer) GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error) {
	v, err := t.inner.GetPartialValuesKey(ctx, key, ranges)
	t.log(ctx, "get_partial_values_key",
		slog.String("key", key.String()), slog.Int("ranges", len(ranges)), errAttr(err))
	return v, err
}

// SizeKey logs and delegates.
func (t *UsageLogTransformer) SizeKey(ctx context.Context, key StoreKey) (uint64, bool, error) {
	size, ok, err := t.inner.SizeKey(ctx, key)
	t.log(ctx, "size_key", slog.String("key", key.String()), slog.Bool("exists", ok), errAttr(err))
	return size, ok, err
}

// SizePrefix logs and delegates.
func (t *UsageLogTransformer) SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error) {
	size, err := t.inner.SizePrefix(ctx, prefix)
	t.log(ctx, "size_prefix", slog.String("prefix", prefix.String()), errAttr(err))
	return size, err
}

// Size logs and delegates.
func (t *UsageLogTransformer) Size(ctx context.Context) (uint64, error) {
	size, err := t.inner.Size(ctx)
	t.log(ctx, "size", errAttr(err))
	return size, err
}

// Set logs and delegates.
func (t *UsageLogTransformer) Set(ctx context.Context, key StoreKey, value []byte) error {
	err := t.inner.Set(ctx, key, value)
	t.log(ctx, "set", slog.String("key", key.String()), slog.Int("bytes", len(value)), errAttr(err))
	return err
}

// SetPartialValues logs and delegates.
func (t *UsageLogTransformer) SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error {
	err := t.inner.SetPartialValues(ctx, values)
	t.log(ctx, "set_partial_values", slog.Int("writes", len(values)), errAttr(err))
	return err
}

// Erase logs and delegates.
func (t *UsageLogTransformer) Erase(ctx context.Context, key StoreKey) error {
	err := t.inner.Erase(ctx, key)
	t.log(ctx, "erase", slog.String("key", key.String()), errAttr(err))
	return err
}

// EraseValues logs and delegates.
func (t *UsageLogTransformer) EraseValues(ctx context.Context, keys []StoreKey) error {
	err := t.inner.EraseValues(ctx, keys)
	t.log(ctx, "erase_values", slog.Int("keys", len(keys)), errAttr(err))
	return err
}

// ErasePrefix logs and delegates.
func (t *UsageLogTransformer) ErasePrefix(ctx context.Context, prefix StorePrefix) error {
	err := t.inner.ErasePrefix(ctx, prefix)
	t.log(ctx, "erase_prefix", slog.String("prefix", prefix.String()), errAttr(err))
	return err
}

// List logs and delegates.
func (t *UsageLogTransformer) List(ctx context.Context) ([]StoreKey, error) {
	keys, err := t.inner.List(ctx)
	t.log(ctx, "list", slog.Int("keys", len(keys)), errAttr(err))
	return keys, err
}

// ListPrefix logs and delegates.
func (t *UsageLogTransformer) ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error) {
	keys, err := t.inner.ListPrefix(ctx, prefix)
	t.log(ctx, "list_prefix", slog.String("prefix", prefix.String()), slog.Int("keys", len(keys)), errAttr(err))
	return keys, err
}

// ListDir logs and delegates.
func (t *UsageLogTransformer) ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error) {
	out, err := t.inner.ListDir(ctx, prefix)
	t.log(ctx, "list_dir", slog.String("prefix", prefix.String()), errAttr(err))
	return out, err
}

func errAttr(err error) slog.Attr {
	if err == nil {
		return slog.Bool("ok", true)
	}
	return slog.String("error", err.Error())
}
