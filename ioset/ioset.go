// Package ioset is the uniform byte-stream and virtual filesystem every
// codec reads and writes through. It generalizes the ad-hoc os.Open/
// filepath.Dir calls scattered through the teacher's individual loaders
// (loader/gltf, loader/collada) into a single seekable stream interface,
// the way gazed-vu's load.Locator fronts disk and zip-bundle resources
// behind one interface.
package ioset

import (
	"io"
	"os"
	"path/filepath"
)

// Mode selects how a Stream is opened.
type Mode int

const (
	ReadBinary Mode = iota
	WriteBinary
	ReadText
	WriteText
)

// Stream is a uniform, seekable byte-stream. Every operation either fully
// succeeds (returning the byte count) or fails.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	Tell() (int64, error)
	Size() (int64, error)
	Flush() error
	Close() error
}

// FileSystem is the virtual filesystem abstraction every codec is handed
// instead of touching the OS directly. This is the interface a fake
// implementation must satisfy to be usable in tests, per the Design Notes'
// "duck-typed IOSystem" callout.
type FileSystem interface {
	Open(path string, mode Mode) (Stream, error)
	Exists(path string) bool
	Separator() byte
}

// osStream adapts *os.File to Stream.
type osStream struct {
	f *os.File
}

func (s *osStream) Read(p []byte) (int, error)              { return s.f.Read(p) }
func (s *osStream) Write(p []byte) (int, error)              { return s.f.Write(p) }
func (s *osStream) Seek(off int64, whence int) (int64, error) { return s.f.Seek(off, whence) }
func (s *osStream) Flush() error                             { return s.f.Sync() }
func (s *osStream) Close() error                             { return s.f.Close() }

func (s *osStream) Tell() (int64, error) {
	return s.f.Seek(0, io.SeekCurrent)
}

func (s *osStream) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// OS is the default FileSystem, backed directly by the local disk.
type OS struct{}

// NewOS returns the default, disk-backed FileSystem.
func NewOS() *OS { return &OS{} }

func (fs *OS) Separator() byte { return filepath.Separator }

func (fs *OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (fs *OS) Open(path string, mode Mode) (Stream, error) {
	var f *os.File
	var err error
	switch mode {
	case ReadBinary, ReadText:
		f, err = os.Open(path)
	case WriteBinary, WriteText:
		f, err = os.Create(path)
	}
	if err != nil {
		return nil, err
	}
	return &osStream{f: f}, nil
}

// ReadAll reads a Stream to exhaustion, the idiom codecs use to pull an
// entire small file (an XML document, a glTF/GLB header) into memory
// before parsing it, mirroring ParseJSONReader/ParseBinReader in the
// teacher's gltf loader.
func ReadAll(s Stream) ([]byte, error) {
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(s)
}

// Dir mirrors filepath.Dir, exposed here so codecs never import path/filepath
// directly and can be pointed at a FileSystem that is not disk-backed.
func Dir(path string) string { return filepath.Dir(path) }

// Ext returns the lowercase extension of path with no leading dot, the
// form the importer registry's extension sets are keyed by.
func Ext(path string) string {
	e := filepath.Ext(path)
	if len(e) > 0 && e[0] == '.' {
		e = e[1:]
	}
	return toLower(e)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
