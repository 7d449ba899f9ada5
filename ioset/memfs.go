package ioset

import (
	"bytes"
	"fmt"
	"io"
)

// MemFS is an in-memory FileSystem, the "fake implementation usable in
// tests" the Design Notes require any IOSystem-shaped abstraction to admit.
type MemFS struct {
	files map[string][]byte
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

// Put seeds a file's contents, for building fixtures in tests.
func (fs *MemFS) Put(path string, data []byte) {
	fs.files[path] = data
}

func (fs *MemFS) Separator() byte { return '/' }

func (fs *MemFS) Exists(path string) bool {
	_, ok := fs.files[path]
	return ok
}

func (fs *MemFS) Open(path string, mode Mode) (Stream, error) {
	switch mode {
	case ReadBinary, ReadText:
		data, ok := fs.files[path]
		if !ok {
			return nil, fmt.Errorf("ioset: no such file: %s", path)
		}
		return &memStream{fs: fs, path: path, buf: bytes.NewReader(append([]byte(nil), data...))}, nil
	case WriteBinary, WriteText:
		return &memWriteStream{fs: fs, path: path}, nil
	default:
		return nil, fmt.Errorf("ioset: unsupported mode %v", mode)
	}
}

// memStream is a read-only view over a byte slice.
type memStream struct {
	fs   *MemFS
	path string
	buf  *bytes.Reader
}

func (s *memStream) Read(p []byte) (int, error)  { return s.buf.Read(p) }
func (s *memStream) Write([]byte) (int, error)   { return 0, fmt.Errorf("ioset: stream opened read-only") }
func (s *memStream) Seek(off int64, whence int) (int64, error) { return s.buf.Seek(off, whence) }
func (s *memStream) Tell() (int64, error)        { return s.buf.Seek(0, io.SeekCurrent) }
func (s *memStream) Size() (int64, error)        { return s.buf.Size(), nil }
func (s *memStream) Flush() error                { return nil }
func (s *memStream) Close() error                { return nil }

// memWriteStream accumulates written bytes and commits them to the
// filesystem map on Close, mirroring how exporters stream output before
// the underlying file is finalized.
type memWriteStream struct {
	fs   *MemFS
	path string
	buf  bytes.Buffer
	pos  int64
}

func (s *memWriteStream) Read([]byte) (int, error) { return 0, fmt.Errorf("ioset: stream opened write-only") }

func (s *memWriteStream) Write(p []byte) (int, error) {
	n, err := s.buf.Write(p)
	s.pos += int64(n)
	return n, err
}

func (s *memWriteStream) Seek(off int64, whence int) (int64, error) {
	return 0, fmt.Errorf("ioset: seeking not supported on write streams")
}

func (s *memWriteStream) Tell() (int64, error) { return s.pos, nil }
func (s *memWriteStream) Size() (int64, error) { return int64(s.buf.Len()), nil }
func (s *memWriteStream) Flush() error {
	s.fs.files[s.path] = append([]byte(nil), s.buf.Bytes()...)
	return nil
}
func (s *memWriteStream) Close() error { return s.Flush() }
