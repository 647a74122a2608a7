// Package node provides discovery and traversal of the group/array
// hierarchy stored below a prefix, and the Group type.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lorenzocerrone/zarrs/storage"
)

// Common errors
var (
	ErrInvalidPath  = errors.New("invalid node path")
	ErrNotFound     = errors.New("node not found")
	ErrNotAGroup    = errors.New("node is not a group")
	ErrUnknownNode  = errors.New("node is neither an array nor a group")
	ErrAlreadyExist = errors.New("node already exists")
)

// MetadataKey is the name of the metadata document below a node's prefix.
const MetadataKey = "zarr.json"

// Path is a node path: "/" for the root, otherwise "/"-separated segments
// with a leading "/" and no trailing "/".
type Path string

// RootPath is the path of the hierarchy root.
const RootPath Path = "/"

// NewPath validates s as a node path.
func NewPath(s string) (Path, error) {
	if s == "/" {
		return RootPath, nil
	}
	if !strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") || strings.Contains(s, "//") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	return Path(s), nil
}

// String returns the path as a plain string.
func (p Path) String() string { return string(p) }

// Name returns the final segment, or "" for the root.
func (p Path) Name() string {
	if p == RootPath {
		return ""
	}
	i := strings.LastIndex(string(p), "/")
	return string(p[i+1:])
}

// Parent returns the path one level up. The root's parent is the root.
func (p Path) Parent() Path {
	if p == RootPath {
		return RootPath
	}
	i := strings.LastIndex(string(p), "/")
	if i == 0 {
		return RootPath
	}
	return Path(p[:i])
}

// Child joins a segment onto the path.
func (p Path) Child(name string) (Path, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: child name %q", ErrInvalidPath, name)
	}
	if p == RootPath {
		return NewPath("/" + name)
	}
	return NewPath(string(p) + "/" + name)
}

// Prefix returns the store prefix of the node.
func (p Path) Prefix() (storage.StorePrefix, error) {
	if p == RootPath {
		return storage.RootPrefix, nil
	}
	return storage.NewStorePrefix(strings.TrimPrefix(string(p), "/") + "/")
}

// MetadataStoreKey returns the zarr.json key of the node.
func (p Path) MetadataStoreKey() (storage.StoreKey, error) {
	prefix, err := p.Prefix()
	if err != nil {
		return "", err
	}
	return prefix.Key(MetadataKey)
}

// Kind distinguishes node types.
type Kind int

// Node kinds.
const (
	KindGroup Kind = iota
	KindArray
)

func (k Kind) String() string {
	if k == KindArray {
		return "array"
	}
	return "group"
}

// Node is a discovered member of the hierarchy: its path, its kind, its raw
// metadata document, and its children (for groups).
type Node struct {
	Path     Path
	Kind     Kind
	Metadata json.RawMessage
	Children []*Node
}

// nodeKind extracts node_type from a metadata document.
func nodeKind(raw json.RawMessage) (Kind, error) {
	var probe struct {
		ZarrFormat int    `json:"zarr_format"`
		NodeType   string `json:"node_type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, err
	}
	if probe.ZarrFormat != 3 {
		return 0, fmt.Errorf("unsupported zarr_format %d", probe.ZarrFormat)
	}
	switch probe.NodeType {
	case "group":
		return KindGroup, nil
	case "array":
		return KindArray, nil
	default:
		return 0, fmt.Errorf("%w: node_type %q", ErrUnknownNode, probe.NodeType)
	}
}

// Open reads the node at path and, for groups, discovers its descendants.
func Open(ctx context.Context, store storage.ReadableListable, path Path) (*Node, error) {
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
	kind, err := nodeKind(raw)
	if err != nil {
		return nil, fmt.Errorf("metadata %q: %w", key, err)
	}
	node := &Node{Path: path, Kind: kind, Metadata: raw}
	if kind == KindGroup {
		children, err := discoverChildren(ctx, store, path)
		if err != nil {
			return nil, err
		}
		node.Children = children
	}
	return node, nil
}

// discoverChildren lists the prefixes directly below path and opens each one
// carrying a metadata document.
func discoverChildren(ctx context.Context, store storage.ReadableListable, path Path) ([]*Node, error) {
	prefix, err := path.Prefix()
	if err != nil {
		return nil, err
	}
	listing, err := store.ListDir(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}
	var children []*Node
	for _, childPrefix := range listing.Prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(string(childPrefix), string(prefix)), "/")
		childPath, err := path.Child(name)
		if err != nil {
			return nil, err
		}
		key, err := childPath.MetadataStoreKey()
		if err != nil {
			return nil, err
		}
		if _, ok, err := store.SizeKey(ctx, key); err != nil {
			return nil, err
		} else if !ok {
			continue // not a zarr node, e.g. a chunk directory
		}
		child, err := Open(ctx, store, childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
	return children, nil
}

// WalkFunc is called for each node during traversal. Returning an error
// stops the walk.
type WalkFunc func(n *Node) error

// Walk visits n and its descendants depth first.
func Walk(n *Node, fn WalkFunc) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
