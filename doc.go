// Package treetar turns in-memory file trees into tar
// archives.
//
// A Tree is keyed by any path representation that has a
// Paths implementation. Plain strings, filesystem paths,
// pointers and interned handles are supported out of the
// box. Trees can be appended below a prefix to a Builder
// that is shared with other entries, or turned into a
// complete archive at once.
//
// Example:
//
//	tree := treetar.Dir(treetar.Children[string]{
//	    "README.md": treetar.File[string]("# Example"),
//	    "src": treetar.Dir(treetar.Children[string]{
//	        "main.go": treetar.File[string]("package main"),
//	    }),
//	})
//	data, _ := treetar.Build(tree, treetar.Slash[string]{})
//
// The same entries can also be produced as a seekable
// stream with Pieces, which generates the tar data on
// demand.
package treetar
