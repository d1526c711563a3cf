package zio

import (
	"bufio"
	"io"

	"github.com/Schaudge/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Compression selects the codec for a Writer.
type Compression int

const (
	// None writes plain bytes through a buffer.
	None Compression = iota
	// Gzip writes standard gzip members (klauspost).
	Gzip
	// BGZF writes blocked gzip suitable for later virtual-offset seeks.
	BGZF
)

// Writer writes chunk and pass-through outputs through the selected codec and
// owns the underlying sink: Close flushes the codec and then closes w.
type Writer struct {
	bg *bgzf.Writer
	gz *gzip.Writer
	bw *bufio.Writer
	w  io.WriteCloser
}

// NewWriter wraps w in the given codec. A negative level selects the
// codec default; workers only applies to BGZF.
func NewWriter(w io.WriteCloser, c Compression, level, workers int) (*Writer, error) {
	zw := &Writer{w: w}
	switch c {
	case BGZF:
		if level >= 0 {
			bg, err := bgzf.NewWriterLevel(w, level, workers)
			if err != nil {
				return nil, err
			}
			zw.bg = bg
		} else {
			zw.bg = bgzf.NewWriter(w, workers)
		}
	case Gzip:
		if level >= 0 {
			gz, err := gzip.NewWriterLevel(w, level)
			if err != nil {
				return nil, err
			}
			zw.gz = gz
		} else {
			zw.gz = gzip.NewWriter(w)
		}
	default:
		zw.bw = bufio.NewWriter(w)
	}
	return zw, nil
}

// Write implements io.Writer.
func (zw *Writer) Write(p []byte) (int, error) {
	switch {
	case zw.bg != nil:
		return zw.bg.Write(p)
	case zw.gz != nil:
		return zw.gz.Write(p)
	}
	return zw.bw.Write(p)
}

// Close flushes and closes the codec, then the underlying sink.
func (zw *Writer) Close() error {
	var err error
	switch {
	case zw.bg != nil:
		err = zw.bg.Close()
	case zw.gz != nil:
		err = zw.gz.Close()
	default:
		err = zw.bw.Flush()
	}
	if cerr := zw.w.Close(); err == nil {
		err = cerr
	}
	return err
}
