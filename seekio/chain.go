// Package seekio provides the low-level seekable plumbing used by the
// split-index readers: a seekable two-stream chain and a delimiter
// splitter that preserves the source's offset model.
package seekio

import (
	"fmt"
	"io"

	"github.com/Schaudge/grailbase/errors"
)

// Chain fuses two seekable streams into a single seekable stream that
// reads front to exhaustion and then continues with back. The logical
// position p addresses front while p < len(front) and back, shifted by
// back's initial position, thereafter. Both streams keep their initial
// positions as origin: a front already at EOF contributes nothing.
type Chain struct {
	front, back     io.ReadSeeker
	pastFront       bool
	initialFrontPos int64
	frontLen        int64
	initialBackPos  int64
}

// NewChain returns a Chain over front and back. The length of front is
// determined up-front by seeking to its end and back. If back cannot
// report its position (a true pipe), it is assumed to start at zero and
// any later seek will fail with the underlying error.
func NewChain(front, back io.ReadSeeker) (*Chain, error) {
	initialFrontPos, err := front.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	frontEnd, err := front.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	frontLen := frontEnd - initialFrontPos
	if _, err := front.Seek(initialFrontPos, io.SeekStart); err != nil {
		return nil, err
	}
	initialBackPos, err := back.Seek(0, io.SeekCurrent)
	if err != nil {
		initialBackPos = 0
	}
	return &Chain{
		front:           front,
		back:            back,
		pastFront:       frontLen <= 0,
		initialFrontPos: initialFrontPos,
		frontLen:        frontLen,
		initialBackPos:  initialBackPos,
	}, nil
}

func (c *Chain) position() (int64, error) {
	if c.pastFront {
		pos, err := c.back.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		return c.frontLen + pos - c.initialBackPos, nil
	}
	pos, err := c.front.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return pos - c.initialFrontPos, nil
}

// Seek implements io.Seeker over the fused stream. Seek(0,
// io.SeekCurrent) reports the logical position without side effects.
func (c *Chain) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("chain: negative seek position %d", offset))
		}
		if offset >= c.frontLen {
			c.pastFront = true
			if _, err := c.back.Seek(offset-c.frontLen+c.initialBackPos, io.SeekStart); err != nil {
				return 0, err
			}
		} else {
			if _, err := c.back.Seek(c.initialBackPos, io.SeekStart); err != nil {
				return 0, err
			}
			c.pastFront = false
			if _, err := c.front.Seek(offset+c.initialFrontPos, io.SeekStart); err != nil {
				return 0, err
			}
		}
		return offset, nil
	case io.SeekCurrent:
		if offset == 0 {
			return c.position()
		}
		pos, err := c.position()
		if err != nil {
			return 0, err
		}
		return c.Seek(pos+offset, io.SeekStart)
	case io.SeekEnd:
		if offset >= 0 {
			c.pastFront = true
			if _, err := c.front.Seek(0, io.SeekEnd); err != nil {
				return 0, err
			}
			pos, err := c.back.Seek(offset, io.SeekEnd)
			if err != nil {
				return 0, err
			}
			return c.frontLen + pos - c.initialBackPos, nil
		}
		backEnd, err := c.back.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		length := c.frontLen + backEnd - c.initialBackPos
		return c.Seek(length+offset, io.SeekStart)
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("chain: invalid whence %d", whence))
}

// Read reads from front until it is exhausted, then transparently
// continues from back.
func (c *Chain) Read(p []byte) (int, error) {
	if c.pastFront {
		return c.back.Read(p)
	}
	n, err := c.front.Read(p)
	if n == 0 && len(p) > 0 && (err == nil || err == io.EOF) {
		c.pastFront = true
		return c.back.Read(p)
	}
	if err == io.EOF {
		// More may follow from back on the next call.
		err = nil
	}
	return n, err
}
