package treetar

import (
	"bytes"
	"io"

	"github.com/unixpickle/essentials"
)

// Build creates a complete tar archive from a tree, rooted
// at the top of the archive.
//
// On error no data is returned.
func Build[K comparable](tree *Tree[K], paths Paths[K], opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := BuildTo(&buf, tree, paths, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTo writes a complete tar archive of a tree to w.
//
// If an error is returned, whatever was already written to
// w is not a valid archive.
func BuildTo[K comparable](w io.Writer, tree *Tree[K], paths Paths[K], opts ...Option) error {
	b := NewBuilder(w, paths, opts...)
	if err := b.AppendTree(tree, paths.Root()); err != nil {
		return essentials.AddCtx("build archive", err)
	}
	if err := b.Finish(); err != nil {
		return essentials.AddCtx("build archive", err)
	}
	return nil
}
