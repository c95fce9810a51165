package treetar

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
)

// BlockSize is the size of a tar header and the unit that
// file contents are padded to.
const BlockSize = 512

const (
	maxNameSize   = 100
	maxPrefixSize = 155
	maxFileSize   = 1<<33 - 1
)

var (
	// ErrNameTooLong is returned by Pieces for entry names
	// that do not fit in a USTAR header.
	ErrNameTooLong = errors.New("entry name too long for ustar header")

	// ErrFileTooLarge is returned by Pieces for files whose
	// size does not fit in a USTAR header.
	ErrFileTooLarge = errors.New("file too large for ustar header")
)

type TarTypeFlag byte

const NormalFile TarTypeFlag = '0'

// Pieces renders the files of a tree below path as a tar
// archive made of Pieces, including the end-of-archive
// marker.
//
// The result holds the same entries, in the same order, as
// the archive written by AppendToTar followed by Finish, but
// uses USTAR headers so that every header is a single
// block. Opening the result yields a seekable stream, which
// can serve byte-range requests without materializing the
// archive.
func Pieces[K comparable](tree *Tree[K], paths Paths[K], path K) (Agg, error) {
	var pieces Agg
	err := tree.Walk(paths, path, func(p K, data []byte) error {
		if IsRoot(paths, p) {
			return ErrEmptyName
		}
		name := paths.Name(p)
		if int64(len(data)) > maxFileSize {
			return essentials.AddCtx(name, ErrFileTooLarge)
		}
		header := &tarHeader{
			Filename: name,
			FileMode: FileMode,
			FileSize: uint64(len(data)),
			Type:     NormalFile,
		}
		encoded, err := header.Encode()
		if err != nil {
			return essentials.AddCtx(name, err)
		}
		pieces = append(pieces, BytePiece(encoded))
		if len(data) > 0 {
			pieces = append(pieces, BytePiece(data))
		}
		if pad := padding(len(data)); pad > 0 {
			pieces = append(pieces, ZeroPiece(pad))
		}
		return nil
	})
	if err != nil {
		return nil, essentials.AddCtx("tar pieces", err)
	}
	pieces = append(pieces, ZeroPiece(2*BlockSize))
	return pieces, nil
}

func padding(size int) int {
	if size%BlockSize == 0 {
		return 0
	}
	return BlockSize - size%BlockSize
}

type tarHeader struct {
	Filename    string
	FileMode    uint
	OwnerID     uint
	GroupID     uint
	FileSize    uint64
	ModTime     uint64
	Type        TarTypeFlag
	LinkedFile  string
	OwnerName   string
	GroupName   string
	DeviceMajor uint
	DeviceMinor uint
}

// Encode produces the 512-byte USTAR header block.
func (t *tarHeader) Encode() ([]byte, error) {
	filenamePrefix, filenameSuffix, err := splitFilename(t.Filename)
	if err != nil {
		return nil, err
	}
	var res bytes.Buffer
	padNull(&res, filenameSuffix, maxNameSize)
	res.WriteString(fmt.Sprintf("%06o \x00", t.FileMode))
	res.WriteString(fmt.Sprintf("%06o \x00", t.OwnerID))
	res.WriteString(fmt.Sprintf("%06o \x00", t.GroupID))
	res.WriteString(fmt.Sprintf("%011o\x00", t.FileSize))
	res.WriteString(fmt.Sprintf("%011o\x00", t.ModTime))
	res.WriteString("        ")
	res.WriteByte(byte(t.Type))
	padNull(&res, []byte(t.LinkedFile), 100)
	res.WriteString("ustar\x0000")
	padNull(&res, []byte(t.OwnerName), 32)
	padNull(&res, []byte(t.GroupName), 32)
	res.WriteString(fmt.Sprintf("%06o \x00", t.DeviceMajor))
	res.WriteString(fmt.Sprintf("%06o \x00", t.DeviceMinor))
	padNull(&res, filenamePrefix, maxPrefixSize)
	for res.Len() < BlockSize {
		res.WriteByte(0)
	}

	resBytes := res.Bytes()
	var sum uint
	for _, b := range resBytes {
		sum += uint(b)
	}
	copy(resBytes[148:], []byte(fmt.Sprintf("%06o\x00 ", sum)))
	return resBytes, nil
}

func padNull(out *bytes.Buffer, data []byte, length int) {
	out.Write(data)
	for i := len(data); i < length; i++ {
		out.WriteByte(0)
	}
}

// splitFilename splits a name into the USTAR prefix and name
// fields at the last '/' that leaves both parts short
// enough.
func splitFilename(filename string) (prefix, suffix []byte, err error) {
	suffix = []byte(filename)
	if len(suffix) <= maxNameSize {
		return nil, suffix, nil
	}
	for i := min(len(suffix)-2, maxPrefixSize); i > 0; i-- {
		if suffix[i] == '/' && len(suffix)-i-1 <= maxNameSize {
			return suffix[:i], suffix[i+1:], nil
		}
	}
	return nil, nil, ErrNameTooLong
}
