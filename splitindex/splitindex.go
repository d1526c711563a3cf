// Package splitindex builds, shrinks, and serializes the split index:
// a compact list of (offset, cumulative queries, cumulative reads)
// triples over a reads file whose bin boundaries never split a query
// group, so chunk extractors can seek straight to their share.
package splitindex

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/splitreads/chunk"
	"v.io/x/lib/vlog"
)

// splitRecord is one bin boundary: the file offset of the bin's first
// record and the cumulative query-group and record totals at the end
// of the bin. Offsets are opaque (byte positions or BGZF virtual
// positions, whichever the reader's Tell reported during the build).
type splitRecord struct {
	offset     uint64
	numQueries int
	numReads   int
}

// Index is the ordered list of split records for one reads file.
// Records are append-only during Build and never modified afterwards.
type Index struct {
	records []splitRecord
}

func newIndex(capacity int) *Index {
	return &Index{records: make([]splitRecord, 0, capacity)}
}

// Len returns the number of bins.
func (x *Index) Len() int { return len(x.records) }

// NumQueries returns the total number of indexed query groups.
func (x *Index) NumQueries() int {
	if len(x.records) == 0 {
		return 0
	}
	return x.records[len(x.records)-1].numQueries
}

// NumReads returns the total number of indexed records.
func (x *Index) NumReads() int {
	if len(x.records) == 0 {
		return 0
	}
	return x.records[len(x.records)-1].numReads
}

func (x *Index) add(rec splitRecord) {
	x.records = append(x.records, rec)
}

// startNextRecord returns the accumulator for the bin starting at
// offset, seeded with the first record of its first query group.
func (x *Index) startNextRecord(offset uint64) splitRecord {
	return splitRecord{
		offset:     offset,
		numQueries: x.NumQueries() + 1,
		numReads:   x.NumReads() + 1,
	}
}

// rangeAt returns the SplitRange for bin i, or false past the end.
func (x *Index) rangeAt(i int) (chunk.SplitRange, bool) {
	if i >= len(x.records) {
		vlog.Errorf("Requested index %d from %d split records.", i, len(x.records))
		return chunk.SplitRange{}, false
	}
	rec := x.records[i]
	rng := chunk.SplitRange{
		Offset:        rec.offset,
		NumEndQueries: rec.numQueries,
		NumEndReads:   rec.numReads,
	}
	if i > 0 {
		prev := x.records[i-1]
		rng.NumPreviousQueries = prev.numQueries
		rng.NumPreviousReads = prev.numReads
	}
	return rng, true
}

func (x *Index) clone() *Index {
	c := newIndex(len(x.records))
	c.records = append(c.records, x.records...)
	return c
}

// Equal reports whether two indexes hold identical records.
func (x *Index) Equal(other *Index) bool {
	if len(x.records) != len(other.records) {
		return false
	}
	for i, rec := range x.records {
		if rec != other.records[i] {
			return false
		}
	}
	return true
}

// SplitRecordNumQueries returns the cumulative query count of every
// bin, in order. Used by tests and tools inspecting bin spacing.
func (x *Index) SplitRecordNumQueries() []int {
	counts := make([]int, len(x.records))
	for i, rec := range x.records {
		counts[i] = rec.numQueries
	}
	return counts
}

// Build walks reader once and returns an index whose bins never split
// a query group: a bin closes only when a new group starts at or past
// the current spacing goal. The spacing grows as the running query
// total divided by numBins, so the raw bin count grows roughly
// logarithmically with input size; Downsize interpolates it to the
// requested count afterwards. rec supplies the reusable record buffer
// for reader's format. Every record read is forwarded to passthrough
// when it is non-nil. An empty source yields a warning and a valid
// empty index.
func Build(reader chunk.Reader, rec chunk.Record, passthrough chunk.Writer, numBins int, updateInterval time.Duration) (*Index, error) {
	if numBins <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("number of bins must be positive, got %d", numBins))
	}
	index := newIndex(numBins)
	nextQueryBin := 1
	// With a passthrough writer the offsets should strictly come from
	// the writer's tell; when input and output modality match, the
	// reader's tell yields the same values.
	offset, err := reader.Tell()
	if err != nil {
		return nil, err
	}
	lastUpdate := time.Now()
	if err := reader.Read(rec); err != nil {
		if err == io.EOF {
			vlog.Errorf("Empty index: no reads")
			return index, nil
		}
		return nil, err
	}
	if passthrough != nil {
		if err := passthrough.Write(rec); err != nil {
			return nil, err
		}
	}
	lastName := append([]byte(nil), rec.Name()...)
	cur := index.startNextRecord(offset)
	if offset, err = reader.Tell(); err != nil {
		return nil, err
	}
	for {
		err := reader.Read(rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if now := time.Now(); now.Sub(lastUpdate) > updateInterval {
			vlog.Infof("Indexed %d reads and %d queries.", cur.numReads, cur.numQueries)
			lastUpdate = now
		}
		if passthrough != nil {
			if err := passthrough.Write(rec); err != nil {
				return nil, err
			}
		}
		switch {
		case bytes.Equal(rec.Name(), lastName):
			// Inside a query group; the bin cannot close here.
			cur.numReads++
		case cur.numQueries < nextQueryBin:
			// New query group, but not yet time to close the bin.
			lastName = append(lastName[:0], rec.Name()...)
			cur.numReads++
			cur.numQueries++
		default:
			// New query group at or past the spacing goal: close the
			// bin and open the next one at this record's offset.
			lastName = append(lastName[:0], rec.Name()...)
			index.add(cur)
			if width := index.NumQueries() / numBins; width > 1 {
				nextQueryBin += width
			} else {
				nextQueryBin++
			}
			cur = index.startNextRecord(offset)
		}
		if offset, err = reader.Tell(); err != nil {
			return nil, err
		}
	}
	index.add(cur)
	return index, nil
}

// Downsize interpolates the index down to numBins roughly evenly
// spaced bins. The last bin keeps the original totals exactly; the
// other boundaries are chosen nearest to k*total/numBins. If the index
// already has numBins or fewer bins it is returned unchanged with a
// warning; that is normal for files with few records.
func (x *Index) Downsize(numBins int) (*Index, error) {
	if numBins <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("number of bins must be positive, got %d", numBins))
	}
	if numBins >= x.Len() {
		vlog.Errorf("Keeping original split index with no more bins than requested.")
		return x.clone(), nil
	}
	downsized := newIndex(numBins)
	// Carry the offset of the successor of the previously chosen bin,
	// so every downsized record's offset is the exact file position of
	// its first record.
	lastOffset := x.records[0].offset
	lastIndex := -1
	for bin := 1; bin < numBins; bin++ {
		target, err := x.ChunkQueryStart(bin, numBins)
		if err != nil {
			return nil, err
		}
		i := sort.Search(len(x.records), func(j int) bool {
			return x.records[j].numQueries >= target
		})
		if i == len(x.records) {
			i--
		}
		if i > 0 && target-x.records[i-1].numQueries <= x.records[i].numQueries-target {
			// The preceding record is at least as close to the target.
			i--
		}
		if lastIndex >= 0 && i <= lastIndex {
			vlog.Errorf("Original split index has few bins, so down-sizing is sparser than expected.")
			continue
		}
		rec := x.records[i]
		rec.offset = lastOffset
		downsized.add(rec)
		if i+1 < x.Len() {
			lastOffset = x.records[i+1].offset
		} else {
			// Reached the end of the original early.
			vlog.Errorf("Original split index has few bins, so down-sizing is sparser than expected.")
			return downsized, nil
		}
		lastIndex = i
	}
	last := x.records[x.Len()-1]
	last.offset = lastOffset
	downsized.add(last)
	return downsized, nil
}

// RangeForNumQueries returns the bin containing the given cumulative
// query count, or false past the end of the index.
func (x *Index) RangeForNumQueries(n int) (chunk.SplitRange, bool) {
	i := sort.Search(len(x.records), func(j int) bool {
		return x.records[j].numQueries >= n
	})
	return x.rangeAt(i)
}

// ChunkQueryStart returns the number of query groups read before the
// given chunk starts. chunkIndex*total/numChunks is computed in divmod
// form to avoid both overflow and rounding bias.
func (x *Index) ChunkQueryStart(chunkIndex, numChunks int) (int, error) {
	if numChunks <= 0 {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("number of chunks must be positive, got %d", numChunks))
	}
	if chunkIndex > numChunks {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("invalid chunk index %d for %d chunks", chunkIndex, numChunks))
	}
	div, mod := x.NumQueries()/numChunks, x.NumQueries()%numChunks
	return chunkIndex*div + (chunkIndex*mod)/numChunks, nil
}
