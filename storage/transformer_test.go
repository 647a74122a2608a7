package storage

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageLogTransformer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := NewUsageLogTransformer(NewMemoryStore(), logger)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a/b", []byte("abc")))
	_, err := store.Get(ctx, "a/b")
	require.NoError(t, err)
	require.NoError(t, store.Erase(ctx, "a/b"))

	logs := buf.String()
	assert.Contains(t, logs, "msg=set")
	assert.Contains(t, logs, "msg=get")
	assert.Contains(t, logs, "msg=erase")
	assert.Contains(t, logs, "key=a/b")
	assert.Contains(t, logs, "handle=")
}

func TestUsageLogTransformerDelegates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := NewUsageLogTransformer(NewMemoryStore(), logger)
	testStoreContract(t, store)
}

func TestPerformanceMetricsTransformer(t *testing.T) {
	inner := NewMemoryStore()
	store, err := NewPerformanceMetricsTransformer(inner, prometheus.NewRegistry())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("0123456789")))
	_, err = store.Get(ctx, "k")
	require.NoError(t, err)
	_, err = store.GetPartialValuesKey(ctx, "k", []ByteRange{FromStart(0, 4)})
	require.NoError(t, err)
	require.NoError(t, store.Erase(ctx, "k"))
	_, err = store.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), store.BytesWritten())
	assert.Equal(t, uint64(14), store.BytesRead())
	assert.Equal(t, uint64(1), store.Writes())
	assert.Equal(t, uint64(2), store.Reads())
	assert.Equal(t, uint64(1), store.Erases())
	assert.Equal(t, uint64(1), store.Lists())
}

func TestPerformanceMetricsTransformerNoRegistry(t *testing.T) {
	store, err := NewPerformanceMetricsTransformer(NewMemoryStore(), nil)
	require.NoError(t, err)
	testStoreContract(t, store)
}

func TestHandleSharesBackend(t *testing.T) {
	inner := NewMemoryStore()
	h1 := NewHandle(inner)
	h2 := h1 // copying a handle shares the store
	ctx := context.Background()

	require.NoError(t, h1.Set(ctx, "k", []byte("v")))
	got, err := h2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Same(t, inner, h2.Store())
}

func TestDefaultLocksMutualExclusion(t *testing.T) {
	locks := NewDefaultLocks()
	unlock := locks.Lock("k")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("k")
		close(acquired)
		u()
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	default:
	}
	unlock()
	<-acquired
}

func TestDisabledLocks(t *testing.T) {
	var locks DisabledLocks
	unlock := locks.Lock("k")
	second := locks.Lock("k") // reentrant acquisition must not block
	second()
	unlock()
}
