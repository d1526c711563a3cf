package seekio

import "io"

// Source is the surface Split needs from its input: byte-granular
// reads plus the opaque tell/seek model of the compression-aware
// reader. Offsets returned by Tell are the only values Seek accepts.
type Source interface {
	io.ByteReader
	Tell() uint64
	Seek(offset uint64) error
}

// Split yields successive runs of bytes from src, each ending at (and
// excluding) delim. A final unterminated run is yielded as-is.
type Split struct {
	src   Source
	delim byte
	buf   []byte
}

// NewSplit returns a Split over src using the given delimiter, e.g.
// '\n' for line-oriented records.
func NewSplit(src Source, delim byte) *Split {
	return &Split{src: src, delim: delim}
}

// Next returns the bytes up to the next delimiter. The returned slice
// is only valid until the following call. io.EOF signals a clean end
// of input with no pending bytes.
func (s *Split) Next() ([]byte, error) {
	s.buf = s.buf[:0]
	for {
		b, err := s.src.ReadByte()
		if err == io.EOF {
			if len(s.buf) == 0 {
				return nil, io.EOF
			}
			return s.buf, nil
		}
		if err != nil {
			return nil, err
		}
		if b == s.delim {
			return s.buf, nil
		}
		s.buf = append(s.buf, b)
	}
}

// Tell reports the source offset of the next unread byte.
func (s *Split) Tell() uint64 { return s.src.Tell() }

// Seek forwards to the source. The caller is responsible for the
// target lying on a record boundary.
func (s *Split) Seek(offset uint64) error { return s.src.Seek(offset) }
