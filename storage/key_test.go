package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreKey(t *testing.T) {
	k, err := NewStoreKey("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c", k.String())

	for _, invalid := range []string{"", "/a", "/"} {
		_, err := NewStoreKey(invalid)
		assert.ErrorIs(t, err, ErrInvalidStoreKey, invalid)
	}
}

func TestStoreKeyNavigation(t *testing.T) {
	k := StoreKey("a/b/c")
	assert.Equal(t, StorePrefix("a/b/"), k.Prefix())
	assert.Equal(t, "c", k.Name())
	assert.True(t, k.HasPrefix("a/"))
	assert.True(t, k.HasPrefix(RootPrefix))
	assert.False(t, k.HasPrefix("b/"))

	top := StoreKey("zarr.json")
	assert.Equal(t, RootPrefix, top.Prefix())
	assert.Equal(t, "zarr.json", top.Name())
}

func TestNewStorePrefix(t *testing.T) {
	p, err := NewStorePrefix("a/b/")
	require.NoError(t, err)
	assert.Equal(t, "a/b/", p.String())

	root, err := NewStorePrefix("")
	require.NoError(t, err)
	assert.Equal(t, RootPrefix, root)

	for _, invalid := range []string{"a/b", "/a/", "/"} {
		_, err := NewStorePrefix(invalid)
		assert.ErrorIs(t, err, ErrInvalidStorePrefix, invalid)
	}
}

func TestStorePrefixNavigation(t *testing.T) {
	p := StorePrefix("a/b/")
	assert.Equal(t, StorePrefix("a/"), p.Parent())
	assert.Equal(t, RootPrefix, StorePrefix("a/").Parent())
	assert.Equal(t, RootPrefix, RootPrefix.Parent())

	child, err := p.Child("c")
	require.NoError(t, err)
	assert.Equal(t, StorePrefix("a/b/c/"), child)

	key, err := p.Key("zarr.json")
	require.NoError(t, err)
	assert.Equal(t, StoreKey("a/b/zarr.json"), key)
}
