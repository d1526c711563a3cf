package fastq

import (
	"bytes"
	"io"
	"testing"

	"github.com/Schaudge/splitreads/zio"
	"github.com/grailbio/testutil/assert"
)

const twoRecords = "@r1\nACGT\n+\nIIII\n@r2/1\nTTAA\n+x\nJJJJ\n"

func newTestReader(t *testing.T, data string) *Reader {
	z, err := zio.NewReader(bytes.NewReader([]byte(data)), 1)
	assert.NoError(t, err)
	return NewReader(z)
}

func TestReadRecords(t *testing.T) {
	r := newTestReader(t, twoRecords)
	var rec Record
	assert.NoError(t, r.Read(&rec))
	assert.EQ(t, string(rec.Name), "r1")
	assert.EQ(t, string(rec.Seq), "ACGT")
	assert.EQ(t, string(rec.Sep), "+")
	assert.EQ(t, string(rec.Qual), "IIII")
	assert.NoError(t, r.Read(&rec))
	assert.EQ(t, string(rec.Name), "r2/1")
	assert.EQ(t, string(rec.Sep), "+x")
	assert.EQ(t, r.Read(&rec), io.EOF)
}

func TestTellSeek(t *testing.T) {
	r := newTestReader(t, twoRecords)
	var rec Record
	assert.EQ(t, r.Tell(), uint64(0))
	assert.NoError(t, r.Read(&rec))
	off := r.Tell()
	assert.NoError(t, r.Read(&rec))
	assert.EQ(t, string(rec.Name), "r2/1")
	assert.NoError(t, r.Seek(off))
	assert.NoError(t, r.Read(&rec))
	assert.EQ(t, string(rec.Name), "r2/1")
}

func TestIncompleteRecord(t *testing.T) {
	r := newTestReader(t, "@r1\nACGT\n+\nIIII\n@r2\nTTAA\n")
	var rec Record
	assert.NoError(t, r.Read(&rec))
	assert.NotNil(t, r.Read(&rec))
}

func TestMissingAt(t *testing.T) {
	r := newTestReader(t, "r1\nACGT\n+\nIIII\n")
	var rec Record
	assert.NotNil(t, r.Read(&rec))
}

func TestWriterRoundTrip(t *testing.T) {
	r := newTestReader(t, twoRecords)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var rec Record
	for {
		err := r.Read(&rec)
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		assert.NoError(t, w.Write(&rec))
	}
	assert.EQ(t, buf.String(), twoRecords)
}

func TestWriterDefaultSeparator(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	rec := Record{Name: []byte("r"), Seq: []byte("A"), Qual: []byte("I")}
	assert.NoError(t, w.Write(&rec))
	assert.EQ(t, buf.String(), "@r\nA\n+\nI\n")
}
