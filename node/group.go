package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lorenzocerrone/zarrs/storage"
)

// GroupMetadata is the content of a group's zarr.json document.
type GroupMetadata struct {
	Attributes map[string]any
}

type groupMetadataJSON struct {
	ZarrFormat int            `json:"zarr_format"`
	NodeType   string         `json:"node_type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// MarshalJSON serializes the metadata as a Zarr V3 group document.
func (m GroupMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupMetadataJSON{
		ZarrFormat: 3,
		NodeType:   "group",
		Attributes: m.Attributes,
	})
}

// UnmarshalJSON parses and validates a Zarr V3 group document.
func (m *GroupMetadata) UnmarshalJSON(data []byte) error {
	var doc groupMetadataJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.ZarrFormat != 3 {
		return fmt.Errorf("unsupported zarr_format %d", doc.ZarrFormat)
	}
	if doc.NodeType != "group" {
		return fmt.Errorf("%w: node_type %q", ErrNotAGroup, doc.NodeType)
	}
	m.Attributes = doc.Attributes
	return nil
}

// Group is a hierarchy node holding attributes and child nodes. Like an
// array it shares its store and is immutable after creation.
type Group struct {
	store storage.ReadableWritableListable
	path  Path
	meta  GroupMetadata
}

// OpenGroup reads the group metadata at path.
func OpenGroup(ctx context.Context, store storage.ReadableWritableListable, path Path) (*Group, error) {
	key, err := path.MetadataStoreKey()
	if err != nil {
		return nil, err
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	var meta GroupMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("metadata %q: %w", key, err)
	}
	return &Group{store: store, path: path, meta: meta}, nil
}

// CreateGroup writes new group metadata at path.
func CreateGroup(ctx context.Context, store storage.ReadableWritableListable, path Path, attributes map[string]any) (*Group, error) {
	g := &Group{store: store, path: path, meta: GroupMetadata{Attributes: attributes}}
	if err := g.StoreMetadata(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// StoreMetadata serializes the group metadata and writes it to the store.
func (g *Group) StoreMetadata(ctx context.Context) error {
	key, err := g.path.MetadataStoreKey()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(g.meta, "", "    ")
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	if err := g.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

// Path returns the group's node path.
func (g *Group) Path() Path { return g.path }

// Attributes returns the group attributes. The map must not be modified.
func (g *Group) Attributes() map[string]any { return g.meta.Attributes }

// Children opens the group's direct child nodes.
func (g *Group) Children(ctx context.Context) ([]*Node, error) {
	return discoverChildren(ctx, g.store, g.path)
}
