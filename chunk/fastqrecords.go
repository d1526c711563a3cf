package chunk

import (
	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/splitreads/fastq"
)

// FASTQRecord adapts fastq.Record.
type FASTQRecord struct {
	R fastq.Record
}

// NewFASTQRecord returns an empty record buffer for FASTQ readers.
func NewFASTQRecord() *FASTQRecord { return &FASTQRecord{} }

// Name returns the name line without its leading '@'.
func (r *FASTQRecord) Name() []byte { return r.R.Name }

// Seq returns the sequence line.
func (r *FASTQRecord) Seq() []byte { return r.R.Seq }

// Qual returns the quality line.
func (r *FASTQRecord) Qual() []byte { return r.R.Qual }

// Set replaces the record fields; the separator becomes "+".
func (r *FASTQRecord) Set(name, seq, qual []byte) {
	r.R.Name = append(r.R.Name[:0], name...)
	r.R.Seq = append(r.R.Seq[:0], seq...)
	r.R.Sep = append(r.R.Sep[:0], '+')
	r.R.Qual = append(r.R.Qual[:0], qual...)
}

// FASTQReader adapts fastq.Reader.
type FASTQReader struct {
	fr *fastq.Reader
}

// NewFASTQReader wraps fr.
func NewFASTQReader(fr *fastq.Reader) *FASTQReader { return &FASTQReader{fr: fr} }

// Tell reports the offset of the next record.
func (r *FASTQReader) Tell() (uint64, error) { return r.fr.Tell(), nil }

// Seek moves to an offset previously returned by Tell.
func (r *FASTQReader) Seek(offset uint64) error { return r.fr.Seek(offset) }

// Read reads the next record into rec, which must be a *FASTQRecord.
func (r *FASTQReader) Read(rec Record) error {
	frec, ok := rec.(*FASTQRecord)
	if !ok {
		return errors.E(errors.Invalid, "fastq: reader requires a fastq record")
	}
	return r.fr.Read(&frec.R)
}

// FASTQWriter adapts fastq.Writer.
type FASTQWriter struct {
	fw *fastq.Writer
}

// NewFASTQWriter wraps fw.
func NewFASTQWriter(fw *fastq.Writer) *FASTQWriter { return &FASTQWriter{fw: fw} }

// Write writes rec, which must be a *FASTQRecord.
func (w *FASTQWriter) Write(rec Record) error {
	frec, ok := rec.(*FASTQRecord)
	if !ok {
		return errors.E(errors.Invalid, "fastq: writer requires a fastq record")
	}
	return w.fw.Write(&frec.R)
}
