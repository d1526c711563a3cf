// Package fastq implements the 4-line FASTQ codec over a seekable
// delimiter-split source.
package fastq

import (
	"io"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/splitreads/seekio"
)

// Record is one FASTQ record. Name holds the name line without its
// leading '@' (the writer restores it); Sep is the raw separator line,
// typically "+". Buffers are reused across reads.
type Record struct {
	Name []byte
	Seq  []byte
	Sep  []byte
	Qual []byte
}

// Reader reads FASTQ records four lines at a time.
type Reader struct {
	split *seekio.Split
}

// NewReader returns a Reader over src.
func NewReader(src seekio.Source) *Reader {
	return &Reader{split: seekio.NewSplit(src, '\n')}
}

// Read fills rec with the next record, reusing its buffers. It returns
// io.EOF at a clean end of input; a record cut off before its fourth
// line is an error.
func (r *Reader) Read(rec *Record) error {
	line, err := r.split.Next()
	if err != nil {
		return err
	}
	if len(line) == 0 || line[0] != '@' {
		return errors.E(errors.Invalid, "fastq: name line does not start with '@'")
	}
	rec.Name = append(rec.Name[:0], line[1:]...)
	for _, field := range []*[]byte{&rec.Seq, &rec.Sep, &rec.Qual} {
		line, err = r.split.Next()
		if err == io.EOF {
			return errors.E(errors.IO, "incomplete fastq record")
		}
		if err != nil {
			return err
		}
		*field = append((*field)[:0], line...)
	}
	return nil
}

// Tell reports the offset of the next record.
func (r *Reader) Tell() uint64 { return r.split.Tell() }

// Seek forwards to the source. The target must be the first byte of a
// record's name line.
func (r *Reader) Seek(offset uint64) error { return r.split.Seek(offset) }

// Writer writes FASTQ records as four newline-terminated lines.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

var (
	newline = []byte{'\n'}
	at      = []byte{'@'}
	plus    = []byte{'+'}
)

// Write emits rec. An empty separator is written as "+".
func (w *Writer) Write(rec *Record) error {
	sep := rec.Sep
	if len(sep) == 0 {
		sep = plus
	}
	for _, part := range [][]byte{at, rec.Name, newline, rec.Seq, newline, sep, newline, rec.Qual, newline} {
		if _, err := w.w.Write(part); err != nil {
			return err
		}
	}
	return nil
}
