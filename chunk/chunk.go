// Package chunk defines the format-agnostic record surface used by the
// split index and implements the chunk extractor: fast-forwarding an
// indexed reader to one chunk's query groups and streaming them out,
// optionally translating between record formats.
package chunk

import (
	"fmt"
	"io"

	"github.com/Schaudge/grailbase/errors"
)

// Record is the format-agnostic view of one sequencing read. Seq and
// Qual are in FASTQ text encoding (bases as letters, qualities
// phred+33) so that Translate is an exact copy for any format pair;
// format-specific residue stays inside the implementation. The split
// machinery itself only consumes Name.
type Record interface {
	Name() []byte
	Seq() []byte
	Qual() []byte
	// Set replaces the cross-format fields, typically from another
	// format's record during translation.
	Set(name, seq, qual []byte)
}

// Translate copies the cross-format fields of src into dst.
func Translate(dst, src Record) {
	dst.Set(src.Name(), src.Seq(), src.Qual())
}

// Reader reads records of one format into a reusable record buffer.
// Tell reports the opaque offset of the next record; Seek accepts only
// offsets previously returned by Tell on the same reader variant (byte
// offsets for plain streams, BGZF virtual positions for compressed
// ones; no arithmetic may be performed on them). Read returns io.EOF
// at a clean end of stream.
type Reader interface {
	Tell() (uint64, error)
	Seek(offset uint64) error
	Read(rec Record) error
}

// Writer writes records of one format.
type Writer interface {
	Write(rec Record) error
}

// SplitRange describes one bin of a split index together with the
// cumulative totals at the end of the previous bin.
type SplitRange struct {
	// Offset is the file position of the first record in the bin.
	Offset uint64
	// NumPreviousQueries is the cumulative query-group count at the
	// end of the previous bin; zero for the first bin.
	NumPreviousQueries int
	// NumEndQueries is the cumulative query-group count at the end of
	// this bin.
	NumEndQueries int
	// NumPreviousReads is the cumulative record count at the end of
	// the previous bin; zero for the first bin.
	NumPreviousReads int
	// NumEndReads is the cumulative record count at the end of this bin.
	NumEndReads int
}

// Index is the fast-forward capability of a split index.
type Index interface {
	// ChunkQueryStart returns the number of query groups read before
	// the given chunk starts, i.e. the 0-based index of the query
	// group opening the chunk.
	ChunkQueryStart(chunkIndex, numChunks int) (int, error)
	// RangeForNumQueries returns the bin containing the given
	// cumulative query count, or false past the end of the index.
	RangeForNumQueries(n int) (SplitRange, bool)
}

// readRequired reads a record that must exist, counting it and
// promoting a clean EOF to a truncation error.
func readRequired(r Reader, rec Record, numReads *int) error {
	*numReads++
	err := r.Read(rec)
	if err == io.EOF {
		return errors.E(errors.IO, fmt.Sprintf("file truncated at record %d", *numReads))
	}
	if err != nil {
		return errors.E(err, fmt.Sprintf("unable to read record %d", *numReads))
	}
	return nil
}
