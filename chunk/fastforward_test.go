package chunk

import (
	"fmt"
	"io"
	"sort"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// memRecord is a minimal in-memory Record.
type memRecord struct {
	name, seq, qual []byte
}

func (r *memRecord) Name() []byte { return r.name }
func (r *memRecord) Seq() []byte  { return r.seq }
func (r *memRecord) Qual() []byte { return r.qual }
func (r *memRecord) Set(name, seq, qual []byte) {
	r.name = append(r.name[:0], name...)
	r.seq = append(r.seq[:0], seq...)
	r.qual = append(r.qual[:0], qual...)
}

// memReader reads from a name list; offsets are record ordinals.
type memReader struct {
	names []string
	next  int
}

func (r *memReader) Tell() (uint64, error) { return uint64(r.next), nil }

func (r *memReader) Seek(offset uint64) error {
	r.next = int(offset)
	return nil
}

func (r *memReader) Read(rec Record) error {
	if r.next >= len(r.names) {
		return io.EOF
	}
	name := r.names[r.next]
	rec.Set([]byte(name), []byte("ACGT"), []byte("IIII"))
	r.next++
	return nil
}

// memWriter collects written names.
type memWriter struct {
	names []string
}

func (w *memWriter) Write(rec Record) error {
	w.names = append(w.names, string(rec.Name()))
	return nil
}

// memIndex is a split index over a name list with a fixed number of
// query groups per bin.
type memIndex struct {
	ranges []SplitRange
}

func groupNames(queryType string, numQueries, groupSize int) []string {
	var names []string
	for g := 0; g < numQueries; g++ {
		for i := 0; i < groupSize; i++ {
			names = append(names, fmt.Sprintf("%s%06d", queryType, g))
		}
	}
	return names
}

func newMemIndex(names []string, groupsPerBin int) *memIndex {
	x := &memIndex{}
	if len(names) == 0 {
		return x
	}
	var (
		prevQueries, prevReads int
		numQueries, numReads   int
		binStart               = 0
		lastName               = ""
	)
	flush := func(end int) {
		x.ranges = append(x.ranges, SplitRange{
			Offset:             uint64(binStart),
			NumPreviousQueries: prevQueries,
			NumEndQueries:      numQueries,
			NumPreviousReads:   prevReads,
			NumEndReads:        numReads,
		})
		prevQueries, prevReads = numQueries, numReads
		binStart = end
	}
	for i, name := range names {
		if name != lastName {
			if numQueries > 0 && (numQueries-prevQueries) == groupsPerBin {
				flush(i)
			}
			numQueries++
			lastName = name
		}
		numReads++
	}
	flush(len(names))
	return x
}

func (x *memIndex) total() int {
	if len(x.ranges) == 0 {
		return 0
	}
	return x.ranges[len(x.ranges)-1].NumEndQueries
}

func (x *memIndex) ChunkQueryStart(chunkIndex, numChunks int) (int, error) {
	if chunkIndex > numChunks {
		return 0, fmt.Errorf("invalid chunk index %d for %d chunks", chunkIndex, numChunks)
	}
	div, mod := x.total()/numChunks, x.total()%numChunks
	return chunkIndex*div + (chunkIndex*mod)/numChunks, nil
}

func (x *memIndex) RangeForNumQueries(n int) (SplitRange, bool) {
	i := sort.Search(len(x.ranges), func(j int) bool {
		return x.ranges[j].NumEndQueries >= n
	})
	if i >= len(x.ranges) {
		return SplitRange{}, false
	}
	return x.ranges[i], true
}

func extractAll(t *testing.T, names []string, index Index, numChunks int) ([]string, []int) {
	var all []string
	var groupsPerChunk []int
	for c := 0; c < numChunks; c++ {
		r := &memReader{names: names}
		w := &memWriter{}
		ff, err := Forward(r, &memRecord{}, index, c, numChunks)
		assert.NoError(t, err)
		if ff == nil {
			groupsPerChunk = append(groupsPerChunk, 0)
			continue
		}
		assert.NoError(t, ff.WriteTo(w))
		groups := 0
		last := ""
		for _, name := range w.names {
			if name != last {
				groups++
				last = name
			}
		}
		if len(all) > 0 && len(w.names) > 0 {
			expect.NEQ(t, all[len(all)-1], w.names[0])
		}
		all = append(all, w.names...)
		groupsPerChunk = append(groupsPerChunk, groups)
	}
	return all, groupsPerChunk
}

func TestChunkPartition(t *testing.T) {
	for _, tc := range []struct {
		label        string
		numQueries   int
		groupSize    int
		groupsPerBin int
		numChunks    int
	}{
		{"even", 100, 1, 5, 5},
		{"paired", 101, 2, 5, 5},
		{"grouped-coarse-bins", 100, 3, 7, 4},
		{"one-group-per-bin", 100, 1, 1, 5},
		{"single-chunk", 100, 2, 5, 1},
		{"too-many-chunks", 100, 1, 5, 211},
	} {
		names := groupNames(tc.label, tc.numQueries, tc.groupSize)
		index := newMemIndex(names, tc.groupsPerBin)
		all, groupsPerChunk := extractAll(t, names, index, tc.numChunks)
		assert.EQ(t, all, names, "case %s", tc.label)
		low := tc.numQueries / tc.numChunks
		high := low + 1
		total := 0
		for i, groups := range groupsPerChunk {
			assert.True(t, groups >= low && groups <= high,
				"case %s: chunk %d has %d groups, want [%d, %d]", tc.label, i, groups, low, high)
			total += groups
		}
		assert.EQ(t, total, tc.numQueries, "case %s", tc.label)
	}
}

func TestEmptyChunk(t *testing.T) {
	names := groupNames("q", 3, 1)
	index := newMemIndex(names, 1)
	// 3 groups into 5 chunks: some chunks must be empty.
	seen := 0
	for c := 0; c < 5; c++ {
		ff, err := Forward(&memReader{names: names}, &memRecord{}, index, c, 5)
		assert.NoError(t, err)
		if ff != nil {
			seen++
		}
	}
	assert.EQ(t, seen, 3)
}

func TestEmptySource(t *testing.T) {
	index := newMemIndex(nil, 1)
	ff, err := Forward(&memReader{}, &memRecord{}, index, 0, 5)
	assert.NoError(t, err)
	assert.True(t, ff == nil)
}

func TestTranslateInvariance(t *testing.T) {
	names := groupNames("q", 20, 2)
	index := newMemIndex(names, 3)
	direct := &memWriter{}
	ff, err := Forward(&memReader{names: names}, &memRecord{}, index, 1, 3)
	assert.NoError(t, err)
	assert.NoError(t, ff.WriteTo(direct))

	translated := &memWriter{}
	ff, err = Forward(&memReader{names: names}, &memRecord{}, index, 1, 3)
	assert.NoError(t, err)
	assert.NoError(t, ff.TranslateTo(translated, &memRecord{}))
	assert.EQ(t, translated.names, direct.names)
}

func TestTruncatedSource(t *testing.T) {
	names := groupNames("q", 10, 1)
	index := newMemIndex(names, 2)
	// Drop the tail of the source: completing the last chunk must fail.
	ff, err := Forward(&memReader{names: names[:8]}, &memRecord{}, index, 4, 5)
	if err != nil {
		return
	}
	assert.NotNil(t, ff.WriteTo(&memWriter{}))
}

func TestInvalidChunkIndex(t *testing.T) {
	names := groupNames("q", 10, 1)
	index := newMemIndex(names, 2)
	_, err := Forward(&memReader{names: names}, &memRecord{}, index, 6, 5)
	assert.NotNil(t, err)
}
