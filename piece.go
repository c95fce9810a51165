package treetar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

type ReadSeekCloser interface {
	io.Closer
	io.ReadSeeker
}

// A Piece represents a piece of a tarball.
type Piece interface {
	Size() int64
	HashID() []byte
	Open() (ReadSeekCloser, error)
}

// A BytePiece is a Piece of pre-defined data.
type BytePiece []byte

func (b BytePiece) Size() int64 {
	return int64(len(b))
}

func (b BytePiece) Open() (ReadSeekCloser, error) {
	return nopCloser{bytes.NewReader(b)}, nil
}

func (b BytePiece) HashID() []byte {
	return b
}

// A ZeroPiece is a Piece of the given number of zero bytes,
// used for block padding and the end-of-archive marker.
type ZeroPiece int64

func (z ZeroPiece) Size() int64 {
	return int64(z)
}

func (z ZeroPiece) Open() (ReadSeekCloser, error) {
	return &zeroReader{size: int64(z)}, nil
}

func (z ZeroPiece) HashID() []byte {
	return []byte(fmt.Sprintf("zero:%d", int64(z)))
}

type zeroReader struct {
	size   int64
	offset int64
}

func (z *zeroReader) Read(b []byte) (int, error) {
	if z.offset >= z.size {
		return 0, io.EOF
	}
	n := int64(len(b))
	if remaining := z.size - z.offset; n > remaining {
		n = remaining
	}
	clear(b[:n])
	z.offset += n
	return int(n), nil
}

func (z *zeroReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		offset += z.offset
	case io.SeekEnd:
		offset += z.size
	}
	if offset < 0 {
		return 0, errors.New("seek zero piece: negative position")
	}
	z.offset = offset
	return offset, nil
}

func (z *zeroReader) Close() error {
	return nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (n nopCloser) Close() error {
	return nil
}
