package chunk

import (
	"bytes"
	"fmt"

	"github.com/Schaudge/grailbase/errors"
	"v.io/x/lib/vlog"
)

// FastForward is a reader positioned at the first record of one chunk,
// together with the bounds needed to emit exactly that chunk's query
// groups. It owns the reader and the in-flight record for the duration
// of chunk emission.
type FastForward struct {
	numQueries    int // query groups begun so far, counting the in-flight record's group
	stopQueries   int // cumulative query count ending the chunk
	numReads      int // records read so far
	hardStopReads int // records at the end of the bin containing stopQueries
	rec           Record
	r             Reader
}

// Forward seeks r to the start of chunk chunkIndex of numChunks and
// reads the chunk's first record into rec. A nil, nil return means the
// chunk is empty. rec supplies the reusable record buffer for r's
// format and is the same record later streamed by WriteTo.
func Forward(r Reader, rec Record, index Index, chunkIndex, numChunks int) (*FastForward, error) {
	startQueries, err := index.ChunkQueryStart(chunkIndex, numChunks)
	if err != nil {
		return nil, err
	}
	stopQueries, err := index.ChunkQueryStart(chunkIndex+1, numChunks)
	if err != nil {
		return nil, err
	}
	if startQueries >= stopQueries {
		return nil, nil
	}
	rng, ok := index.RangeForNumQueries(startQueries)
	if !ok {
		return nil, errors.E(fmt.Sprintf("requested %d queries is past the end of the index", startQueries))
	}
	vlog.VI(1).Infof("seeking to %d", rng.Offset)
	if err := r.Seek(rng.Offset); err != nil {
		return nil, err
	}
	numReads := rng.NumPreviousReads
	if startQueries > rng.NumPreviousQueries {
		// The bin is coarser than one query group. Skip records until
		// the requested number of groups is complete; the only way to
		// know a group is complete is to read the first record of the
		// group after it.
		numQueries := rng.NumPreviousQueries
		if err := readRequired(r, rec, &numReads); err != nil {
			return nil, err
		}
		lastName := append([]byte(nil), rec.Name()...)
		numQueries++
		for numQueries <= startQueries {
			if err := readRequired(r, rec, &numReads); err != nil {
				return nil, err
			}
			if !bytes.Equal(rec.Name(), lastName) {
				numQueries++
				lastName = append(lastName[:0], rec.Name()...)
			}
		}
		startQueries = numQueries
	} else {
		// The bin boundary coincides with the chunk start. Read the
		// first record anyway; it opens a new group because bin
		// boundaries lie on group boundaries.
		if err := readRequired(r, rec, &numReads); err != nil {
			return nil, err
		}
		startQueries++
	}
	// Bins never split query groups, so the end of the bin holding
	// stopQueries bounds the reads needed to complete the final group
	// without running past the bin or the file.
	stopRange, ok := index.RangeForNumQueries(stopQueries)
	if !ok {
		return nil, errors.E(fmt.Sprintf("requested %d queries is past the end of the index", stopQueries))
	}
	return &FastForward{
		numQueries:    startQueries,
		stopQueries:   stopQueries,
		numReads:      numReads,
		hardStopReads: stopRange.NumEndReads,
		rec:           rec,
		r:             r,
	}, nil
}

// WriteTo streams the chunk's records to w in source order.
func (f *FastForward) WriteTo(w Writer) error {
	lastName := append([]byte(nil), f.rec.Name()...)
	for f.numQueries < f.stopQueries {
		// The in-flight record is the first of a new query group.
		if err := w.Write(f.rec); err != nil {
			return err
		}
		if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
			return err
		}
		for bytes.Equal(f.rec.Name(), lastName) {
			if err := w.Write(f.rec); err != nil {
				return err
			}
			if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
				return err
			}
		}
		f.numQueries++
		lastName = append(lastName[:0], f.rec.Name()...)
	}
	// Emit the final group, bounded by hardStopReads.
	if err := w.Write(f.rec); err != nil {
		return err
	}
	for f.numReads < f.hardStopReads {
		if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
			return err
		}
		if !bytes.Equal(f.rec.Name(), lastName) {
			break
		}
		if err := w.Write(f.rec); err != nil {
			return err
		}
	}
	return nil
}

// TranslateTo streams the chunk like WriteTo, translating each record
// into out before writing, so w may be of a different format than the
// reader.
func (f *FastForward) TranslateTo(w Writer, out Record) error {
	lastName := append([]byte(nil), f.rec.Name()...)
	for f.numQueries < f.stopQueries {
		Translate(out, f.rec)
		if err := w.Write(out); err != nil {
			return err
		}
		if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
			return err
		}
		for bytes.Equal(f.rec.Name(), lastName) {
			Translate(out, f.rec)
			if err := w.Write(out); err != nil {
				return err
			}
			if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
				return err
			}
		}
		f.numQueries++
		lastName = append(lastName[:0], f.rec.Name()...)
	}
	Translate(out, f.rec)
	if err := w.Write(out); err != nil {
		return err
	}
	for f.numReads < f.hardStopReads {
		if err := readRequired(f.r, f.rec, &f.numReads); err != nil {
			return err
		}
		if !bytes.Equal(f.rec.Name(), lastName) {
			break
		}
		Translate(out, f.rec)
		if err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}
