// Package zio reads and writes possibly-compressed read files behind a
// uniform offset model: plain byte offsets for uncompressed streams
// and BGZF virtual positions (compressed block offset << 16 |
// intra-block byte) for compressed ones. Offsets are opaque to
// callers; values from one variant must never be replayed into the
// other.
package zio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/hts/bgzf"
	"github.com/Schaudge/splitreads/seekio"
)

var gzipMagic = [2]byte{0x1f, 0x8b}

// Reader presents a possibly BGZF-compressed stream as a byte reader
// with Tell and Seek. Compression is detected from the first two
// bytes; the sniffed bytes are fused back in front of the stream with
// a seekio.Chain so the codec still sees them.
type Reader struct {
	bg      *bgzf.Reader
	pr      *bufio.Reader
	chain   *seekio.Chain
	pos     uint64 // logical position of the uncompressed variant
	scratch [1]byte
}

// NewReader sniffs rs and wraps it in a BGZF decoder with the given
// worker count, or in a plain buffered reader. An input shorter than
// the magic is treated as uncompressed.
func NewReader(rs io.ReadSeeker, workers int) (*Reader, error) {
	var magic [2]byte
	n, err := io.ReadFull(rs, magic[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	chain, err := seekio.NewChain(bytes.NewReader(magic[:n]), rs)
	if err != nil {
		return nil, err
	}
	if n == 2 && magic == gzipMagic {
		bg, err := bgzf.NewReader(chain, workers)
		if err != nil {
			return nil, errors.E(err, "input is gzip but not seekable bgzf; recompress with bgzip")
		}
		return &Reader{bg: bg, chain: chain}, nil
	}
	return &Reader{pr: bufio.NewReader(chain), chain: chain}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.bg != nil {
		return r.bg.Read(p)
	}
	n, err := r.pr.Read(p)
	r.pos += uint64(n)
	return n, err
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.bg != nil {
		n, err := r.bg.Read(r.scratch[:])
		if n == 0 {
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		return r.scratch[0], nil
	}
	b, err := r.pr.ReadByte()
	if err == nil {
		r.pos++
	}
	return b, err
}

// Tell reports the offset of the next unread byte: the byte position
// for plain input, the virtual position for BGZF input.
func (r *Reader) Tell() uint64 {
	if r.bg != nil {
		end := r.bg.LastChunk().End
		return uint64(end.File)<<16 | uint64(end.Block)
	}
	return r.pos
}

// Seek repositions the reader at an offset previously returned by
// Tell on the same variant.
func (r *Reader) Seek(offset uint64) error {
	if r.bg != nil {
		return r.bg.Seek(bgzf.Offset{File: int64(offset >> 16), Block: uint16(offset & 0xffff)})
	}
	if _, err := r.chain.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	r.pr.Reset(r.chain)
	r.pos = offset
	return nil
}

// Close releases codec resources. The underlying stream is not closed.
func (r *Reader) Close() error {
	if r.bg != nil {
		return r.bg.Close()
	}
	return nil
}
