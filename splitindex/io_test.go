package splitindex

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/Schaudge/grailbase/vcontext"
	"github.com/grailbio/testutil/assert"
)

// randomSplitIndex builds a nonsensical index with arbitrary 64-bit
// fields, for serialization testing only.
func randomSplitIndex(rng *rand.Rand, numBins int) *Index {
	x := newIndex(numBins)
	for i := 0; i < numBins; i++ {
		x.add(splitRecord{
			offset:     rng.Uint64(),
			numQueries: int(rng.Int63()),
			numReads:   int(rng.Int63()),
		})
	}
	return x
}

func TestSerializeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randomSplitIndex(rng, 10000)
	got, err := Deserialize(x.Serialize())
	assert.NoError(t, err)
	assert.True(t, got.Equal(x))
}

func TestSerializeEmpty(t *testing.T) {
	x := newIndex(0)
	got, err := Deserialize(x.Serialize())
	assert.NoError(t, err)
	assert.EQ(t, got.Len(), 0)
}

func TestWriteReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := randomSplitIndex(rng, 10000)
	path := filepath.Join(t.TempDir(), "index.si")
	assert.NoError(t, x.Write(path))
	got, err := Read(vcontext.Background(), path)
	assert.NoError(t, err)
	assert.True(t, got.Equal(x))
}

func TestDeserializeCorruptVersion(t *testing.T) {
	x := randomSplitIndex(rand.New(rand.NewSource(3)), 10)
	buf := x.Serialize()
	// Flip one byte of the version string.
	buf[len(magicPrefix)] = '9'
	_, err := Deserialize(buf)
	assert.NotNil(t, err)
}

func TestDeserializeCorruptMagic(t *testing.T) {
	x := randomSplitIndex(rand.New(rand.NewSource(4)), 10)
	buf := x.Serialize()
	buf[0] = 'x'
	_, err := Deserialize(buf)
	assert.NotNil(t, err)
}

func TestDeserializeMissingNewline(t *testing.T) {
	buf := []byte("split-index 1.0")
	_, err := Deserialize(buf)
	assert.NotNil(t, err)
}

func TestDeserializeTruncatedRecords(t *testing.T) {
	x := randomSplitIndex(rand.New(rand.NewSource(5)), 10)
	buf := x.Serialize()
	_, err := Deserialize(buf[:len(buf)-1])
	assert.NotNil(t, err)
}

func TestDeserializeOverstatedCount(t *testing.T) {
	x := randomSplitIndex(rand.New(rand.NewSource(6)), 2)
	buf := x.Serialize()
	// The count field claims more records than the buffer holds.
	idx := bytes.IndexByte(buf, '\n') + 1
	buf[idx] = 0xff
	_, err := Deserialize(buf)
	assert.NotNil(t, err)
}
