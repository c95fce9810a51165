package treetar

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	Name     string
	Contents string
}

// exampleTree is a small project layout used throughout the
// tests.
func exampleTree() *Tree[string] {
	return Dir(Children[string]{
		"README.md": File[string]("# Example"),
		"src": Dir(Children[string]{
			"main.rs": File[string]("fn main() {}"),
		}),
	})
}

// readTar extracts all regular entries of an archive in
// order, checking the fixed header fields on the way.
func readTar(tb testing.TB, data []byte) []tarEntry {
	tb.Helper()

	var entries []tarEntry
	reader := tar.NewReader(bytes.NewReader(data))
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(tb, err)
		require.Equal(tb, byte(tar.TypeReg), header.Typeflag, header.Name)
		require.EqualValues(tb, FileMode, header.Mode, header.Name)

		contents, err := io.ReadAll(reader)
		require.NoError(tb, err)
		require.EqualValues(tb, len(contents), header.Size, header.Name)

		entries = append(entries, tarEntry{Name: header.Name, Contents: string(contents)})
	}
	return entries
}

var errBroken = errors.New("broken pipe")

// failingWriter accepts limit bytes and then fails every
// write.
type failingWriter struct {
	limit int
	n     int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.n+len(p) > f.limit {
		return 0, errBroken
	}
	f.n += len(p)
	return len(p), nil
}
