package seekio

import (
	"io"
	"testing"

	"github.com/grailbio/testutil/assert"
)

// byteSource is a minimal in-memory Source.
type byteSource struct {
	data []byte
	pos  uint64
}

func (s *byteSource) ReadByte() (byte, error) {
	if s.pos >= uint64(len(s.data)) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *byteSource) Tell() uint64 { return s.pos }

func (s *byteSource) Seek(offset uint64) error {
	s.pos = offset
	return nil
}

func TestSplitTokens(t *testing.T) {
	split := NewSplit(&byteSource{data: []byte("a\nbb\nccc")}, '\n')
	for _, want := range []string{"a", "bb", "ccc"} {
		tok, err := split.Next()
		assert.NoError(t, err)
		assert.EQ(t, string(tok), want)
	}
	_, err := split.Next()
	assert.EQ(t, err, io.EOF)
}

func TestSplitTrailingDelim(t *testing.T) {
	split := NewSplit(&byteSource{data: []byte("a\n")}, '\n')
	tok, err := split.Next()
	assert.NoError(t, err)
	assert.EQ(t, string(tok), "a")
	_, err = split.Next()
	assert.EQ(t, err, io.EOF)
}

func TestSplitEmpty(t *testing.T) {
	split := NewSplit(&byteSource{}, '\n')
	_, err := split.Next()
	assert.EQ(t, err, io.EOF)
}

func TestSplitEmptyTokens(t *testing.T) {
	split := NewSplit(&byteSource{data: []byte("\n\nx")}, '\n')
	for _, want := range []string{"", "", "x"} {
		tok, err := split.Next()
		assert.NoError(t, err)
		assert.EQ(t, string(tok), want)
	}
	_, err := split.Next()
	assert.EQ(t, err, io.EOF)
}

func TestSplitSeek(t *testing.T) {
	src := &byteSource{data: []byte("a\nbb\nccc\n")}
	split := NewSplit(src, '\n')
	tok, err := split.Next()
	assert.NoError(t, err)
	assert.EQ(t, string(tok), "a")
	off := split.Tell()
	tok, err = split.Next()
	assert.NoError(t, err)
	assert.EQ(t, string(tok), "bb")
	assert.NoError(t, split.Seek(off))
	tok, err = split.Next()
	assert.NoError(t, err)
	assert.EQ(t, string(tok), "bb")
}
