package treetar

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrNotDir is returned when a child is inserted into a
	// file node.
	ErrNotDir = errors.New("tree node is not a directory")

	// ErrExists is returned when a child key is already taken.
	ErrExists = errors.New("tree node already exists")

	// ErrNilNode is returned when a directory holds a nil
	// child.
	ErrNilNode = errors.New("tree node is nil")
)

// Content is the set of types a file can be created from.
type Content interface {
	~string | ~[]byte
}

// Children maps path segments to subtrees.
type Children[K comparable] map[K]*Tree[K]

// A Tree is an in-memory file tree.
//
// A Tree is either a file holding data or a directory
// holding Children. Each directory owns its children, so a
// Tree built through File, Dir and Insert is acyclic.
type Tree[K comparable] struct {
	dir      bool
	data     []byte
	children Children[K]
}

// File creates a file node.
func File[K comparable, C Content](data C) *Tree[K] {
	return &Tree[K]{data: []byte(data)}
}

// Dir creates a directory node.
// The map is used directly and must not be shared with
// another Tree.
func Dir[K comparable](children Children[K]) *Tree[K] {
	if children == nil {
		children = Children[K]{}
	}
	return &Tree[K]{dir: true, children: children}
}

func (t *Tree[K]) IsDir() bool {
	return t.dir
}

func (t *Tree[K]) IsFile() bool {
	return !t.dir
}

// Data returns the contents of a file, or nil for a
// directory.
func (t *Tree[K]) Data() []byte {
	return t.data
}

// Get returns the child stored under key.
func (t *Tree[K]) Get(key K) (*Tree[K], bool) {
	if !t.dir {
		return nil, false
	}
	c, ok := t.children[key]
	return c, ok
}

// Insert adds a child to a directory.
func (t *Tree[K]) Insert(key K, child *Tree[K]) error {
	if !t.dir {
		return ErrNotDir
	}
	if child == nil {
		return ErrNilNode
	}
	if _, ok := t.children[key]; ok {
		return ErrExists
	}
	if t.children == nil {
		t.children = Children[K]{}
	}
	t.children[key] = child
	return nil
}

// Len returns the number of files in the tree. Nil children
// count as empty.
func (t *Tree[K]) Len() int {
	if !t.dir {
		return 1
	}
	var n int
	for _, c := range t.children {
		if c != nil {
			n += c.Len()
		}
	}
	return n
}

// Keys returns the keys of a directory in the order given
// by paths.Compare.
func (t *Tree[K]) Keys(paths Paths[K]) []K {
	return slices.SortedFunc(maps.Keys(t.children), paths.Compare)
}

// Walk calls fn for every file in the tree, depth-first and
// in key order, with the file's path below path.
//
// Walk stops at the first error returned by fn. Sibling keys
// that paths.Compare considers equal, such as two Pointer keys
// to the same path, fail with ErrExists, and nil children
// fail with ErrNilNode.
func (t *Tree[K]) Walk(paths Paths[K], path K, fn func(path K, data []byte) error) error {
	if !t.dir {
		return fn(path, t.data)
	}
	keys := t.Keys(paths)
	for i, key := range keys {
		childPath := child(paths, path, key)
		if i > 0 && paths.Compare(keys[i-1], key) == 0 {
			return fmt.Errorf("%w: %s", ErrExists, paths.Name(childPath))
		}
		node := t.children[key]
		if node == nil {
			return fmt.Errorf("%w: %s", ErrNilNode, paths.Name(childPath))
		}
		if err := node.Walk(paths, childPath, fn); err != nil {
			return err
		}
	}
	return nil
}
