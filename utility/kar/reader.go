// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r, which holds size bytes. It will
// also check if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	if size < MagicLength+HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}
	head := make([]byte, MagicLength+HeaderSizeNumberLength)
	if _, err := r.ReadAt(head, 0); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(head[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(head[MagicLength:])
	if err != nil || headerSize <= 0 || headerSize > size-MagicLength-HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}

	ar := &Archive{
		reader:    r,
		dataStart: MagicLength + HeaderSizeNumberLength + headerSize,
	}
	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	dataSize := size - ar.dataStart
	for _, e := range ar.header.Index {
		if e.Offset < 0 || e.CompressedSize < 0 || e.Size < 0 ||
			e.Offset > dataSize || e.CompressedSize > dataSize-e.Offset {
			return nil, ErrFileFormat
		}
	}
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
}

// Header returns the archive header with its file index
func (a *Archive) Header() Header {
	return a.header
}

// Files lists file names in the order they were added
func (a *Archive) Files() []string {
	names := make([]string, len(a.header.Index))
	for i, e := range a.header.Index {
		names[i] = e.Name
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	// the index size is only trusted once the stream agrees with it
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, f.entry.Size+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) != f.entry.Size {
		return nil, ErrFileFormat
	}
	return buf.Bytes(), nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Find(name)
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.dataStart+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:        entry,
		decompressor: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry        IndexEntry
	decompressor io.Reader
}

// Size returns the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.decompressor.Read(p)
}
