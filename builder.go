package treetar

import (
	"archive/tar"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/unixpickle/essentials"
)

// FileMode is the permission mode of every file entry.
const FileMode = 0644

var (
	// ErrFinished is returned when a Builder is used after
	// Finish.
	ErrFinished = errors.New("archive already finished")

	// ErrEmptyName is returned for a file whose path is the
	// archive root, such as a file tree appended at "".
	ErrEmptyName = errors.New("entry name has no components")
)

// Option configures a Builder.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger that receives a debug record
// for every appended entry.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// A Builder writes tar entries to an underlying writer.
//
// Entries may come from any number of trees and from direct
// calls to Append. The archive is only valid once Finish has
// been called, exactly once, by the owner of the Builder.
type Builder[K comparable] struct {
	w        io.Writer
	tw       *tar.Writer
	paths    Paths[K]
	logger   *slog.Logger
	finished bool
}

// NewBuilder creates a Builder writing to w, whose trees
// use the path representation paths.
func NewBuilder[K comparable](w io.Writer, paths Paths[K], opts ...Option) *Builder[K] {
	c := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&c)
	}
	return &Builder[K]{
		w:      w,
		tw:     tar.NewWriter(w),
		paths:  paths,
		logger: c.logger,
	}
}

// Paths returns the path representation of the Builder.
func (b *Builder[K]) Paths() Paths[K] {
	return b.paths
}

// Append writes a regular file entry.
func (b *Builder[K]) Append(name string, data []byte) error {
	if b.finished {
		return ErrFinished
	}
	if name == "" || name == "." {
		return essentials.AddCtx("append", ErrEmptyName)
	}
	header := newHeader(name, int64(len(data)))
	if err := b.tw.WriteHeader(header); err != nil {
		return essentials.AddCtx("append "+name, err)
	}
	if _, err := b.tw.Write(data); err != nil {
		return essentials.AddCtx("append "+name, err)
	}
	b.logger.Debug("appended entry", "name", name, "size", len(data))
	return nil
}

// AppendTree writes every file of tree below path.
// It is equivalent to tree.AppendToTar(b, path).
func (b *Builder[K]) AppendTree(tree *Tree[K], path K) error {
	return tree.AppendToTar(b, path)
}

// Finish writes the archive trailer and flushes the
// underlying tar writer. The underlying writer itself is
// not closed.
func (b *Builder[K]) Finish() error {
	if b.finished {
		return ErrFinished
	}
	b.finished = true
	if err := b.tw.Close(); err != nil {
		return essentials.AddCtx("finish archive", err)
	}
	return nil
}

// Into finishes the archive and returns the writer it was
// written to.
func (b *Builder[K]) Into() (io.Writer, error) {
	if err := b.Finish(); err != nil {
		return nil, err
	}
	return b.w, nil
}

// AppendToTar writes every file of the tree to b below path.
//
// Each file becomes one regular entry named by joining path
// with the keys leading to it. Directories produce no entry
// of their own. The first write error is returned and the
// archive must then be discarded.
func (t *Tree[K]) AppendToTar(b *Builder[K], path K) error {
	return t.Walk(b.paths, path, func(p K, data []byte) error {
		return b.Append(b.paths.Name(p), data)
	})
}

func newHeader(name string, size int64) *tar.Header {
	return &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     size,
		Mode:     FileMode,
		ModTime:  time.Unix(0, 0),
		Format:   tar.FormatGNU,
	}
}
