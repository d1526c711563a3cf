// Package splittestutil generates small random query-grouped read
// files for testing the split index and chunk extraction.
package splittestutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/Schaudge/hts/bam"
	"github.com/Schaudge/hts/sam"
	"github.com/grailbio/testutil/assert"
)

// QueryType selects the query-group structure of generated files.
type QueryType int

const (
	// Single has one record per query group (e.g. PacBio, Nanopore).
	Single QueryType = iota
	// Paired has two records per query group (e.g. Illumina).
	Paired
	// Grouped has 1-4 records per query group.
	Grouped
)

// Label returns a short name for the query type.
func (q QueryType) Label() string {
	switch q {
	case Single:
		return "single"
	case Paired:
		return "paired"
	}
	return "grouped"
}

const (
	readLength  = 150
	baseQuality = 30
)

var bases = []byte("ACGT")

func (q QueryType) groupSize(rng *rand.Rand) int {
	switch q {
	case Single:
		return 1
	case Paired:
		return 2
	}
	return 1 + rng.Intn(4)
}

func randomRecord(t testing.TB, rng *rand.Rand, name string) *sam.Record {
	seq := make([]byte, readLength)
	qual := make([]byte, readLength)
	for i := range seq {
		seq[i] = bases[rng.Intn(len(bases))]
		qual[i] = baseQuality
	}
	rec, err := sam.NewRecord(name, nil, nil, -1, -1, 0, 0xff, nil, seq, qual, nil)
	assert.NoError(t, err)
	rec.Flags = sam.Unmapped
	return rec
}

// RandomBAM writes an unmapped BAM with numQueries query groups into
// dir and returns its path and total record count. Generation is
// deterministic for a given query type and count.
func RandomBAM(t testing.TB, dir string, q QueryType, numQueries int) (string, int) {
	path := filepath.Join(dir, fmt.Sprintf("random-%s-%d.bam", q.Label(), numQueries))
	f, err := os.Create(path)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, nil)
	assert.NoError(t, err)
	bw, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)
	rng := rand.New(rand.NewSource(int64(numQueries)))
	numReads := 0
	for group := 0; group < numQueries; group++ {
		name := fmt.Sprintf("%s%06d", q.Label(), group)
		for i := q.groupSize(rng); i > 0; i-- {
			assert.NoError(t, bw.Write(randomRecord(t, rng, name)))
			numReads++
		}
	}
	assert.NoError(t, bw.Close())
	assert.NoError(t, f.Close())
	return path, numReads
}

// RandomFASTQ writes a plain FASTQ with numQueries query groups into
// dir and returns its path and total record count.
func RandomFASTQ(t testing.TB, dir string, q QueryType, numQueries int) (string, int) {
	path := filepath.Join(dir, fmt.Sprintf("random-%s-%d.fastq", q.Label(), numQueries))
	f, err := os.Create(path)
	assert.NoError(t, err)
	rng := rand.New(rand.NewSource(int64(numQueries)))
	numReads := 0
	for group := 0; group < numQueries; group++ {
		name := fmt.Sprintf("%s%06d", q.Label(), group)
		for i := q.groupSize(rng); i > 0; i-- {
			seq := make([]byte, readLength)
			qual := make([]byte, readLength)
			for j := range seq {
				seq[j] = bases[rng.Intn(len(bases))]
				qual[j] = baseQuality + 33
			}
			_, err := fmt.Fprintf(f, "@%s\n%s\n+\n%s\n", name, seq, qual)
			assert.NoError(t, err)
			numReads++
		}
	}
	assert.NoError(t, f.Close())
	return path, numReads
}
