package node

import (
	"context"
	"testing"

	"github.com/lorenzocerrone/zarrs/array"
	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	p, err := NewPath("/a/b")
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name())
	assert.Equal(t, Path("/a"), p.Parent())
	assert.Equal(t, RootPath, p.Parent().Parent())
	assert.Equal(t, RootPath, RootPath.Parent())

	child, err := p.Child("c")
	require.NoError(t, err)
	assert.Equal(t, Path("/a/b/c"), child)

	_, err = p.Child("x/y")
	assert.ErrorIs(t, err, ErrInvalidPath)

	for _, invalid := range []string{"", "a", "/a/", "//a"} {
		_, err := NewPath(invalid)
		assert.ErrorIs(t, err, ErrInvalidPath, invalid)
	}
}

func TestPathStoreMapping(t *testing.T) {
	p := Path("/a/b")
	prefix, err := p.Prefix()
	require.NoError(t, err)
	assert.Equal(t, storage.StorePrefix("a/b/"), prefix)

	key, err := p.MetadataStoreKey()
	require.NoError(t, err)
	assert.Equal(t, storage.StoreKey("a/b/zarr.json"), key)

	rootKey, err := RootPath.MetadataStoreKey()
	require.NoError(t, err)
	assert.Equal(t, storage.StoreKey("zarr.json"), rootKey)
}

func TestGroupRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	g, err := CreateGroup(ctx, store, RootPath, map[string]any{"title": "test"})
	require.NoError(t, err)
	assert.Equal(t, RootPath, g.Path())

	reopened, err := OpenGroup(ctx, store, RootPath)
	require.NoError(t, err)
	assert.Equal(t, "test", reopened.Attributes()["title"])

	_, err = OpenGroup(ctx, store, Path("/missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenGroupRejectsArray(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	_, err := array.Create(ctx, store, "/data", []uint64{4}, dtype.Int32, []uint64{2})
	require.NoError(t, err)

	_, err = OpenGroup(ctx, store, Path("/data"))
	assert.ErrorIs(t, err, ErrNotAGroup)
}

// TestHierarchyDiscovery builds a small tree and checks traversal finds
// every node with the right kind, skipping chunk payload directories.
func TestHierarchyDiscovery(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	_, err := CreateGroup(ctx, store, RootPath, nil)
	require.NoError(t, err)
	_, err = CreateGroup(ctx, store, Path("/measurements"), nil)
	require.NoError(t, err)

	a, err := array.Create(ctx, store, "/measurements/temperature", []uint64{4, 4}, dtype.Float32, []uint64{2, 2})
	require.NoError(t, err)
	_, err = array.Create(ctx, store, "/labels", []uint64{4}, dtype.Int64, []uint64{2})
	require.NoError(t, err)

	// Write a chunk so a non-node directory exists under the array prefix.
	chunk := make([]byte, 16)
	chunk[0] = 1
	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, chunk, codec.DefaultOptions()))

	root, err := Open(ctx, store, RootPath)
	require.NoError(t, err)

	found := map[Path]Kind{}
	require.NoError(t, Walk(root, func(n *Node) error {
		found[n.Path] = n.Kind
		return nil
	}))
	assert.Equal(t, map[Path]Kind{
		RootPath:                    KindGroup,
		"/measurements":             KindGroup,
		"/measurements/temperature": KindArray,
		"/labels":                   KindArray,
	}, found)
}

func TestWalkStopsOnError(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	_, err := CreateGroup(ctx, store, RootPath, nil)
	require.NoError(t, err)
	_, err = CreateGroup(ctx, store, Path("/a"), nil)
	require.NoError(t, err)

	root, err := Open(ctx, store, RootPath)
	require.NoError(t, err)

	visits := 0
	err = Walk(root, func(n *Node) error {
		visits++
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, visits)
}
