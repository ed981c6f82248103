// Package pak reads Quake-style PACK archives and serves them as an fs.FS.
package pak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/Faultbox/brushwork/pkg/encoding"
)

const (
	headerSize = 12
	entrySize  = 64
	nameSize   = 56
)

var magic = [4]byte{'P', 'A', 'C', 'K'}

// Archive errors.
var (
	ErrBadMagic  = errors.New("not a PACK archive")
	ErrTruncated = errors.New("truncated archive")
)

// Header is the fixed archive header.
type Header struct {
	Magic     [4]byte
	DirOffset int32
	DirLength int32
}

// Entry is one directory record.
type Entry struct {
	Name   string
	Offset int64
	Size   int64
}

// Archive is an open PACK archive. Lookups are case-insensitive.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	header  Header
	entries map[string]*Entry
	names   []string
}

// Open opens a PACK archive from disk.
func Open(name string) (*Archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening pak: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat pak: %w", err)
	}
	a, err := NewReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	a.closer = f
	return a, nil
}

// NewReader reads the archive directory from r, which holds size bytes.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	a := &Archive{r: r, entries: make(map[string]*Entry)}
	if err := a.readHeader(size); err != nil {
		return nil, err
	}
	if err := a.readDirectory(size); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader(size int64) error {
	if size < headerSize {
		return fmt.Errorf("%w: %d bytes", ErrTruncated, size)
	}
	buf := make([]byte, headerSize)
	if _, err := a.r.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if a.header.Magic != magic {
		return fmt.Errorf("%w: magic %q", ErrBadMagic, a.header.Magic[:])
	}
	return nil
}

func (a *Archive) readDirectory(size int64) error {
	off, n := int64(a.header.DirOffset), int64(a.header.DirLength)
	if off < headerSize || n < 0 || n%entrySize != 0 || off+n > size {
		return fmt.Errorf("%w: directory at %d+%d of %d", ErrTruncated, off, n, size)
	}

	buf := make([]byte, n)
	if _, err := a.r.ReadAt(buf, off); err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	for i := int64(0); i < n; i += entrySize {
		rec := buf[i : i+entrySize]
		e := &Entry{
			Name:   string(encoding.TrimNull(rec[:nameSize])),
			Offset: int64(int32(binary.LittleEndian.Uint32(rec[nameSize:]))),
			Size:   int64(int32(binary.LittleEndian.Uint32(rec[nameSize+4:]))),
		}
		if e.Offset < 0 || e.Size < 0 || e.Offset+e.Size > size {
			return fmt.Errorf("%w: entry %q at %d+%d", ErrTruncated, e.Name, e.Offset, e.Size)
		}
		key := encoding.FoldPath(e.Name)
		if key == "" {
			continue
		}
		if _, dup := a.entries[key]; !dup {
			a.names = append(a.names, key)
		}
		// Later entries shadow earlier ones.
		a.entries[key] = e
	}
	sort.Strings(a.names)
	return nil
}

// List returns the normalized names of every file, sorted.
func (a *Archive) List() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Contains reports whether the archive has a file with this name.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[encoding.FoldPath(name)]
	return ok
}

// Read returns the contents of a file.
func (a *Archive) Read(name string) ([]byte, error) {
	e, ok := a.entries[encoding.FoldPath(name)]
	if !ok {
		return nil, fmt.Errorf("pak: %s: %w", name, fs.ErrNotExist)
	}
	data := make([]byte, e.Size)
	if _, err := a.r.ReadAt(data, e.Offset); err != nil {
		return nil, fmt.Errorf("pak: reading %s: %w", name, err)
	}
	return data, nil
}

// Open implements fs.FS. Only files can be opened.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := a.entries[encoding.FoldPath(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &file{
		entry:   e,
		section: io.NewSectionReader(a.r, e.Offset, e.Size),
	}, nil
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, err := a.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return data, err
}

type file struct {
	entry   *Entry
	section *io.SectionReader
}

func (f *file) Stat() (fs.FileInfo, error) { return fileInfo{f.entry}, nil }
func (f *file) Read(p []byte) (int, error) { return f.section.Read(p) }
func (f *file) Close() error               { return nil }

type fileInfo struct{ e *Entry }

func (fi fileInfo) Name() string       { return path.Base(encoding.NormalizePath(fi.e.Name)) }
func (fi fileInfo) Size() int64        { return fi.e.Size }
func (fi fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return fi.e }

var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
)
