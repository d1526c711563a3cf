package chunk

import (
	"fmt"
	"io"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/splitreads/seekio"
)

const samMinFields = 11

// SAMTextRecord is one raw SAM alignment line split on tabs. Only the
// query name, sequence, and quality fields are interpreted; everything
// else is opaque residue written back verbatim. This keeps SAM→SAM
// chunking byte-faithful without a full alignment parser.
type SAMTextRecord struct {
	line   []byte
	fields [][]byte // slices into line
}

// NewSAMTextRecord returns an empty record buffer for SAM text readers.
func NewSAMTextRecord() *SAMTextRecord { return &SAMTextRecord{} }

func (r *SAMTextRecord) setLine(line []byte) error {
	r.line = append(r.line[:0], line...)
	r.reslice()
	if len(r.fields) < samMinFields {
		return errors.E(errors.Invalid, fmt.Sprintf("sam: record has %d fields, need %d", len(r.fields), samMinFields))
	}
	return nil
}

func (r *SAMTextRecord) reslice() {
	r.fields = r.fields[:0]
	start := 0
	for i, b := range r.line {
		if b == '\t' {
			r.fields = append(r.fields, r.line[start:i])
			start = i + 1
		}
	}
	r.fields = append(r.fields, r.line[start:])
}

// Name returns the query name field.
func (r *SAMTextRecord) Name() []byte {
	if len(r.fields) == 0 {
		return nil
	}
	return r.fields[0]
}

// Seq returns the sequence field. SAM text already carries bases as
// letters and qualities phred+33, so no re-encoding happens here.
func (r *SAMTextRecord) Seq() []byte {
	if len(r.fields) < samMinFields {
		return nil
	}
	return r.fields[9]
}

// Qual returns the quality field.
func (r *SAMTextRecord) Qual() []byte {
	if len(r.fields) < samMinFields {
		return nil
	}
	return r.fields[10]
}

// Set builds a minimal unmapped alignment line from FASTQ-encoded
// fields.
func (r *SAMTextRecord) Set(name, seq, qual []byte) {
	r.line = r.line[:0]
	r.line = append(r.line, name...)
	r.line = append(r.line, "\t4\t*\t0\t0\t*\t*\t0\t0\t"...)
	r.line = append(r.line, seq...)
	r.line = append(r.line, '\t')
	r.line = append(r.line, qual...)
	r.reslice()
}

// SAMTextReader reads SAM text records. Header lines ('@'-prefixed)
// are captured at open, so the first Tell reports the offset of the
// first alignment line.
type SAMTextReader struct {
	split      *seekio.Split
	header     [][]byte
	pending    []byte
	pendingOff uint64
	hasPending bool
}

// NewSAMTextReader reads the header from src and positions the reader
// at the first alignment line.
func NewSAMTextReader(src seekio.Source) (*SAMTextReader, error) {
	r := &SAMTextReader{split: seekio.NewSplit(src, '\n')}
	for {
		off := r.split.Tell()
		line, err := r.split.Next()
		if err == io.EOF {
			return r, nil
		}
		if err != nil {
			return nil, err
		}
		if len(line) > 0 && line[0] == '@' {
			r.header = append(r.header, append([]byte(nil), line...))
			continue
		}
		r.pending = append(r.pending[:0], line...)
		r.pendingOff = off
		r.hasPending = true
		return r, nil
	}
}

// Header returns the raw header lines, without trailing newlines.
func (r *SAMTextReader) Header() [][]byte { return r.header }

// Tell reports the offset of the next record.
func (r *SAMTextReader) Tell() (uint64, error) {
	if r.hasPending {
		return r.pendingOff, nil
	}
	return r.split.Tell(), nil
}

// Seek moves to an offset previously returned by Tell.
func (r *SAMTextReader) Seek(offset uint64) error {
	r.hasPending = false
	return r.split.Seek(offset)
}

// Read reads the next alignment line into rec, which must be a
// *SAMTextRecord.
func (r *SAMTextReader) Read(rec Record) error {
	srec, ok := rec.(*SAMTextRecord)
	if !ok {
		return errors.E(errors.Invalid, "sam: reader requires a sam text record")
	}
	if r.hasPending {
		r.hasPending = false
		return srec.setLine(r.pending)
	}
	line, err := r.split.Next()
	if err != nil {
		return err
	}
	return srec.setLine(line)
}

// SAMTextWriter writes SAM text, emitting the given header first.
type SAMTextWriter struct {
	w io.Writer
}

// NewSAMTextWriter writes header to w and returns the record writer.
func NewSAMTextWriter(w io.Writer, header [][]byte) (*SAMTextWriter, error) {
	for _, line := range header {
		if _, err := w.Write(line); err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return nil, err
		}
	}
	return &SAMTextWriter{w: w}, nil
}

// Write writes rec, which must be a *SAMTextRecord.
func (w *SAMTextWriter) Write(rec Record) error {
	srec, ok := rec.(*SAMTextRecord)
	if !ok {
		return errors.E(errors.Invalid, "sam: writer requires a sam text record")
	}
	if _, err := w.w.Write(srec.line); err != nil {
		return err
	}
	_, err := w.w.Write([]byte{'\n'})
	return err
}
