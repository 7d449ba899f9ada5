package ziparchive

import (
	"archive/zip"
	"io"

	"github.com/assetforge/sceneforge/asserr"
)

// Writer accumulates entries and flushes them as one ZIP archive, the
// write-side counterpart to Archive used by exporters that emit an
// OPC-packaged container (3MF today).
type Writer struct {
	zw *zip.Writer
}

// NewWriter wraps an output stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// WriteEntry adds one deflate-compressed entry with the given contents.
func (w *Writer) WriteEntry(name string, data []byte) error {
	f, err := w.zw.Create(name)
	if err != nil {
		return asserr.Wrap(asserr.IoError, err, "creating zip entry %s", name)
	}
	if _, err := f.Write(data); err != nil {
		return asserr.Wrap(asserr.IoError, err, "writing zip entry %s", name)
	}
	return nil
}

// Close flushes the central directory.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return asserr.Wrap(asserr.IoError, err, "closing zip writer")
	}
	return nil
}
