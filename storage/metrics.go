package storage

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// PerformanceMetricsTransformer wraps a store and counts bytes moved and
// operations per kind. Counts are kept in process-local atomics, readable
// through the accessors, and mirrored to prometheus counters when a
// registerer is supplied.
type PerformanceMetricsTransformer struct {
	inner ReadableWritableListable

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	reads        atomic.Uint64
	writes       atomic.Uint64
	erases       atomic.Uint64
	lists        atomic.Uint64

	promBytes *prometheus.CounterVec
	promOps   *prometheus.CounterVec
}

var _ ReadableWritableListable = (*PerformanceMetricsTransformer)(nil)

// NewPerformanceMetricsTransformer wraps inner. If reg is non-nil, counters
// are registered as zarrs_storage_bytes_total and
// zarrs_storage_operations_total, labelled by direction and operation kind.
func NewPerformanceMetricsTransformer(inner ReadableWritableListable, reg prometheus.Registerer) (*PerformanceMetricsTransformer, error) {
	t := &PerformanceMetricsTransformer{inner: inner}
	if reg != nil {
		t.promBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zarrs_storage_bytes_total",
			Help: "Bytes moved through the storage layer.",
		}, []string{"direction"})
		t.promOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zarrs_storage_operations_total",
			Help: "Storage operations by kind.",
		}, []string{"kind"})
		if err := reg.Register(t.promBytes); err != nil {
			return nil, err
		}
		if err := reg.Register(t.promOps); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Locks returns the inner store's per-key lock registry.
func (t *PerformanceMetricsTransformer) Locks() KeyLocks { return t.inner.Locks() }

// BytesRead returns the total bytes read through this transformer.
func (t *PerformanceMetricsTransformer) BytesRead() uint64 { return t.bytesRead.Load() }

// BytesWritten returns the total bytes written through this transformer.
func (t *PerformanceMetricsTransformer) BytesWritten() uint64 { return t.bytesWritten.Load() }

// Reads returns the number of read operations.
func (t *PerformanceMetricsTransformer) Reads() uint64 { return t.reads.Load() }

// Writes returns the number of write operations.
func (t *PerformanceMetricsTransformer) Writes() uint64 { return t.writes.Load() }

// Erases returns the number of erase operations.
func (t *PerformanceMetricsTransformer) Erases() uint64 { return t.erases.Load() }

// Lists returns the number of list operations.
func (t *PerformanceMetricsTransformer) Lists() uint64 { return t.lists.Load() }

func (t *PerformanceMetricsTransformer) countRead(n uint64) {
	t.reads.Add(1)
	t.bytesRead.Add(n)
	if t.promOps != nil {
		t.promOps.WithLabelValues("read").Inc()
		t.promBytes.WithLabelValues("read").Add(float64(n))
	}
}

func (t *PerformanceMetricsTransformer) countWrite(n uint64) {
	t.writes.Add(1)
	t.bytesWritten.Add(n)
	if t.promOps != nil {
		t.promOps.WithLabelValues("write").Inc()
		t.promBytes.WithLabelValues("write").Add(float64(n))
	}
}

func (t *PerformanceMetricsTransformer) countErase() {
	t.erases.Add(1)
	if t.promOps != nil {
		t.promOps.WithLabelValues("erase").Inc()
	}
}

func (t *PerformanceMetricsTransformer) countList() {
	t.lists.Add(1)
	if t.promOps != nil {
		t.promOps.WithLabelValues("list").Inc()
	}
}

// Get counts and delegates.
func (t *PerformanceMetricsTransformer) Get(ctx context.Context, key StoreKey) ([]byte, error) {
	v, err := t.inner.Get(ctx, key)
	t.countRead(uint64(len(v)))
	return v, err
}

// GetPartialValues counts and delegates.
func (t *PerformanceMetricsTransformer) GetPartialValues(ctx context.Context, requests []StoreKeyRange) ([][]byte, error) {
	vs, err := t.inner.GetPartialValues(ctx, requests)
	var n uint64
	for _, v := range vs {
		n += uint64(len(v))
	}
	t.countRead(n)
	return vs, err
}

// GetPartialValuesKey counts and delegates.
func (t *PerformanceMetricsTransformer) GetPartialValuesKey(ctx context.Context, key StoreKey, ranges []ByteRange) ([][]byte, error) {
	vs, err := t.inner.GetPartialValuesKey(ctx, key, ranges)
	var n uint64
	for _, v := range vs {
		n += uint64(len(v))
	}
	t.countRead(n)
	return vs, err
}

// SizeKey delegates without counting; size queries move no value bytes.
func (t *PerformanceMetricsTransformer) SizeKey(ctx context.Context, key StoreKey) (uint64, bool, error) {
	return t.inner.SizeKey(ctx, key)
}

// SizePrefix delegates without counting.
func (t *PerformanceMetricsTransformer) SizePrefix(ctx context.Context, prefix StorePrefix) (uint64, error) {
	return t.inner.SizePrefix(ctx, prefix)
}

// Size delegates without counting.
func (t *PerformanceMetricsTransformer) Size(ctx context.Context) (uint64, error) {
	return t.inner.Size(ctx)
}

// Set counts and delegates.
func (t *PerformanceMetricsTransformer) Set(ctx context.Context, key StoreKey, value []byte) error {
	t.countWrite(uint64(len(value)))
	return t.inner.Set(ctx, key, value)
}

// SetPartialValues counts and delegates.
func (t *PerformanceMetricsTransformer) SetPartialValues(ctx context.Context, values []StoreKeyOffsetValue) error {
	var n uint64
	for _, v := range values {
		n += uint64(len(v.Value))
	}
	t.countWrite(n)
	return t.inner.SetPartialValues(ctx, values)
}

// Erase counts and delegates.
func (t *PerformanceMetricsTransformer) Erase(ctx context.Context, key StoreKey) error {
	t.countErase()
	return t.inner.Erase(ctx, key)
}

// EraseValues counts and delegates.
func (t *PerformanceMetricsTransformer) EraseValues(ctx context.Context, keys []StoreKey) error {
	t.countErase()
	return t.inner.EraseValues(ctx, keys)
}

// ErasePrefix counts and delegates.
func (t *PerformanceMetricsTransformer) ErasePrefix(ctx context.Context, prefix StorePrefix) error {
	t.countErase()
	return t.inner.ErasePrefix(ctx, prefix)
}

// List counts and delegates.
func (t *PerformanceMetricsTransformer) List(ctx context.Context) ([]StoreKey, error) {
	t.countList()
	return t.inner.List(ctx)
}

// ListPrefix counts and delegates.
func (t *PerformanceMetricsTransformer) ListPrefix(ctx context.Context, prefix StorePrefix) ([]StoreKey, error) {
	t.countList()
	return t.inner.ListPrefix(ctx, prefix)
}

// ListDir counts and delegates.
func (t *PerformanceMetricsTransformer) ListDir(ctx context.Context, prefix StorePrefix) (StoreKeysPrefixes, error) {
	t.countList()
	return t.inner.ListDir(ctx, prefix)
}
