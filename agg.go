package treetar

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/unixpickle/essentials"
)

// An Agg is a Piece that combines other Pieces.
type Agg []Piece

func (a Agg) Size() int64 {
	var res int64
	for _, p := range a {
		res += p.Size()
	}
	return res
}

// HashID identifies the contents of the Agg. Two Aggs with
// equal HashIDs produce equal bytes.
func (a Agg) HashID() []byte {
	var id []byte
	for _, p := range a {
		id = append(id, []byte(fmt.Sprintf("%d", p.Size()))...)
		id = append(id, p.HashID()...)
	}
	return id
}

func (a Agg) Open() (ReadSeekCloser, error) {
	offsets := make([]int64, len(a)+1)
	for i, p := range a {
		offsets[i+1] = offsets[i] + p.Size()
	}
	return &aggReader{agg: a, offsets: offsets}, nil
}

type aggReader struct {
	agg Agg

	// offsets[i] is where agg[i] starts; the final element
	// is the total size.
	offsets []int64
	offset  int64

	reader ReadSeekCloser
	index  int
}

func (a *aggReader) size() int64 {
	return a.offsets[len(a.agg)]
}

func (a *aggReader) Close() error {
	if a.reader == nil {
		return nil
	}
	err := a.reader.Close()
	a.reader = nil
	return err
}

func (a *aggReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if a.offset >= a.size() {
		return 0, io.EOF
	}
	if a.reader == nil {
		if err := a.openReader(); err != nil {
			return 0, essentials.AddCtx("read from Agg", err)
		}
	}
	amount, err := a.reader.Read(b)
	a.offset += int64(amount)

	if a.offset >= a.offsets[a.index+1] {
		a.reader.Close()
		a.reader = nil
	}

	if err == io.EOF {
		if amount == 0 {
			err = io.ErrUnexpectedEOF
		} else {
			err = nil
		}
	}
	if err != nil {
		err = essentials.AddCtx("read from Agg", err)
	}
	return amount, err
}

func (a *aggReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		offset += a.offset
	case io.SeekEnd:
		offset += a.size()
	}
	if offset < 0 {
		return 0, essentials.AddCtx("seek from Agg", errors.New("negative position"))
	}
	if offset == a.offset {
		return a.offset, nil
	}
	a.offset = offset
	if a.reader != nil {
		if a.offset < a.offsets[a.index] || a.offset >= a.offsets[a.index+1] {
			a.reader.Close()
			a.reader = nil
		} else if _, err := a.reader.Seek(a.offset-a.offsets[a.index], io.SeekStart); err != nil {
			return 0, essentials.AddCtx("seek from Agg", err)
		}
	}
	return a.offset, nil
}

// openReader opens the piece containing the current offset.
func (a *aggReader) openReader() error {
	if a.reader != nil {
		panic("reader should not already be open")
	}
	i := sort.Search(len(a.agg), func(i int) bool {
		return a.offsets[i+1] > a.offset
	})
	if i == len(a.agg) {
		return io.EOF
	}
	reader, err := a.agg[i].Open()
	if err != nil {
		return err
	}
	if rel := a.offset - a.offsets[i]; rel > 0 {
		if _, err := reader.Seek(rel, io.SeekStart); err != nil {
			reader.Close()
			return err
		}
	}
	a.reader = reader
	a.index = i
	return nil
}
