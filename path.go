package treetar

import (
	"path/filepath"
	"strings"
	"unique"
)

// Paths describes how values of a path representation K
// are created and combined.
//
// Join must be associative for non-root operands, so that
// accumulating a path one branch key at a time gives the
// same result as joining the keys in any grouping.
type Paths[K comparable] interface {
	// Root returns the path denoting the top of an archive.
	Root() K

	// Join appends elem to base with the representation's
	// separator.
	Join(base, elem K) K

	// Name renders a path as a tar entry name.
	Name(p K) string

	// Compare orders branch keys. It must be a total order.
	Compare(a, b K) int
}

// IsRoot reports whether p renders as the archive root,
// i.e. "" or ".".
func IsRoot[K comparable](paths Paths[K], p K) bool {
	switch paths.Name(p) {
	case "", ".":
		return true
	default:
		return false
	}
}

// child computes the path of a branch entry.
// A root base yields the key itself, so that entry names
// never begin with a separator.
func child[K comparable](paths Paths[K], base, key K) K {
	if IsRoot(paths, base) {
		return key
	}
	return paths.Join(base, key)
}

// Slash is the Paths for string-like keys joined with "/".
type Slash[S ~string] struct{}

func (Slash[S]) Root() S {
	return ""
}

func (Slash[S]) Join(base, elem S) S {
	return base + "/" + elem
}

func (Slash[S]) Name(p S) string {
	return string(p)
}

func (Slash[S]) Compare(a, b S) int {
	return strings.Compare(string(a), string(b))
}

// Native is the Paths for host filesystem paths.
// Joining uses filepath.Join, and names are converted to
// forward slashes for the archive.
type Native struct{}

func (Native) Root() string {
	return ""
}

func (Native) Join(base, elem string) string {
	return filepath.Join(base, elem)
}

func (Native) Name(p string) string {
	return filepath.ToSlash(p)
}

func (Native) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Pointer adapts a Paths to keys held by pointer.
//
// Pointer keys are compared by address when used in a
// Children map, so two distinct pointers to equal paths
// are two entries.
type Pointer[K comparable] struct {
	Inner Paths[K]
}

func (p Pointer[K]) Root() *K {
	root := p.Inner.Root()
	return &root
}

func (p Pointer[K]) Join(base, elem *K) *K {
	joined := p.Inner.Join(p.deref(base), p.deref(elem))
	return &joined
}

func (p Pointer[K]) Name(k *K) string {
	return p.Inner.Name(p.deref(k))
}

func (p Pointer[K]) Compare(a, b *K) int {
	return p.Inner.Compare(p.deref(a), p.deref(b))
}

// deref treats nil as the root.
func (p Pointer[K]) deref(k *K) K {
	if k == nil {
		return p.Inner.Root()
	}
	return *k
}

// Interned adapts a Paths to canonical shared handles.
// Equal paths share a single handle, so Interned keys
// compare by value in a Children map.
type Interned[K comparable] struct {
	Inner Paths[K]
}

func (i Interned[K]) Root() unique.Handle[K] {
	return unique.Make(i.Inner.Root())
}

func (i Interned[K]) Join(base, elem unique.Handle[K]) unique.Handle[K] {
	return unique.Make(i.Inner.Join(base.Value(), elem.Value()))
}

func (i Interned[K]) Name(h unique.Handle[K]) string {
	return i.Inner.Name(h.Value())
}

func (i Interned[K]) Compare(a, b unique.Handle[K]) int {
	if a == b {
		return 0
	}
	return i.Inner.Compare(a.Value(), b.Value())
}
