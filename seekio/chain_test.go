package seekio

import (
	"bytes"
	"io"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type chainSuite struct{}

var _ = check.Suite(&chainSuite{})

func newTestChain(c *check.C, front, back string) *Chain {
	chain, err := NewChain(bytes.NewReader([]byte(front)), bytes.NewReader([]byte(back)))
	c.Assert(err, check.IsNil)
	return chain
}

func (s *chainSuite) TestReadAll(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	got, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "abcdefg")
}

func (s *chainSuite) TestEmptyFront(c *check.C) {
	chain := newTestChain(c, "", "cdefg")
	got, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "cdefg")
}

func (s *chainSuite) TestSeekStart(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	for _, tc := range []struct {
		offset int64
		want   string
	}{
		{3, "defg"},
		{0, "abcdefg"},
		{1, "bcdefg"},
		{2, "cdefg"},
		{7, ""},
	} {
		pos, err := chain.Seek(tc.offset, io.SeekStart)
		c.Assert(err, check.IsNil)
		c.Check(pos, check.Equals, tc.offset)
		got, err := io.ReadAll(chain)
		c.Assert(err, check.IsNil)
		c.Check(string(got), check.Equals, tc.want)
	}
}

func (s *chainSuite) TestSeekCurrentZeroIsPosition(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	_, err := chain.Seek(4, io.SeekStart)
	c.Assert(err, check.IsNil)
	pos, err := chain.Seek(0, io.SeekCurrent)
	c.Assert(err, check.IsNil)
	c.Check(pos, check.Equals, int64(4))
	buf := make([]byte, 2)
	_, err = io.ReadFull(chain, buf)
	c.Assert(err, check.IsNil)
	pos, err = chain.Seek(0, io.SeekCurrent)
	c.Assert(err, check.IsNil)
	c.Check(pos, check.Equals, int64(6))
}

func (s *chainSuite) TestSeekCurrentRelative(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	_, err := chain.Seek(1, io.SeekStart)
	c.Assert(err, check.IsNil)
	pos, err := chain.Seek(3, io.SeekCurrent)
	c.Assert(err, check.IsNil)
	c.Check(pos, check.Equals, int64(4))
	got, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "efg")
}

func (s *chainSuite) TestSeekEnd(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	pos, err := chain.Seek(-3, io.SeekEnd)
	c.Assert(err, check.IsNil)
	c.Check(pos, check.Equals, int64(4))
	got, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "efg")

	pos, err = chain.Seek(0, io.SeekEnd)
	c.Assert(err, check.IsNil)
	c.Check(pos, check.Equals, int64(7))
}

func (s *chainSuite) TestBackInitialOffset(c *check.C) {
	// A pre-positioned back stream keeps its initial position as origin.
	back := bytes.NewReader([]byte("XXcde"))
	_, err := back.Seek(2, io.SeekStart)
	c.Assert(err, check.IsNil)
	chain, err := NewChain(bytes.NewReader([]byte("ab")), back)
	c.Assert(err, check.IsNil)
	got, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "abcde")
	_, err = chain.Seek(3, io.SeekStart)
	c.Assert(err, check.IsNil)
	got, err = io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "de")
}

func (s *chainSuite) TestSeekNeutrality(c *check.C) {
	chain := newTestChain(c, "ab", "cdefg")
	first, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	_, err = chain.Seek(0, io.SeekStart)
	c.Assert(err, check.IsNil)
	second, err := io.ReadAll(chain)
	c.Assert(err, check.IsNil)
	c.Check(string(second), check.Equals, string(first))
}
