package chunk

import (
	"github.com/Schaudge/grailbase/errors"
	gunsafe "github.com/Schaudge/grailbase/unsafe"
	"github.com/Schaudge/hts/bam"
	"github.com/Schaudge/hts/bgzf"
	"github.com/Schaudge/hts/sam"
)

// BAMRecord adapts *sam.Record for the SAM/BAM family. R is replaced
// wholesale by BAMReader.Read; replaced records go back to the sam
// free pool. Seq and Qual are converted to FASTQ text encoding on
// access, so they are only materialized on the translation path.
type BAMRecord struct {
	R *sam.Record
}

// NewBAMRecord returns an empty record buffer for BAM-family readers.
func NewBAMRecord() *BAMRecord { return &BAMRecord{} }

// Name returns the query name without copying.
func (r *BAMRecord) Name() []byte {
	if r.R == nil {
		return nil
	}
	return gunsafe.StringToBytes(r.R.Name)
}

// Seq returns the bases as letters.
func (r *BAMRecord) Seq() []byte {
	if r.R == nil {
		return nil
	}
	return r.R.Seq.Expand()
}

// Qual returns the qualities phred+33 encoded.
func (r *BAMRecord) Qual() []byte {
	if r.R == nil {
		return nil
	}
	qual := make([]byte, len(r.R.Qual))
	for i, q := range r.R.Qual {
		qual[i] = q + 33
	}
	return qual
}

// Set builds an unmapped record from FASTQ-encoded fields, used when
// translating FASTQ input into SAM/BAM output.
func (r *BAMRecord) Set(name, seq, qual []byte) {
	phred := make([]byte, len(qual))
	for i, q := range qual {
		phred[i] = q - 33
	}
	rec := sam.GetFromFreePool()
	rec.Name = string(name)
	rec.Pos = -1
	rec.MatePos = -1
	rec.MapQ = 0xff
	rec.Flags = sam.Unmapped
	rec.Seq = sam.NewSeq(seq)
	rec.Qual = phred
	if r.R != nil {
		sam.PutInFreePool(r.R)
	}
	r.R = rec
}

func vOffset(o bgzf.Offset) uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

// BAMReader adapts bam.Reader. Offsets are BGZF virtual positions.
type BAMReader struct {
	br *bam.Reader
}

// NewBAMReader wraps br, which must have been opened over a seekable
// stream for Seek to work.
func NewBAMReader(br *bam.Reader) *BAMReader { return &BAMReader{br: br} }

// Tell reports the virtual position of the next record.
func (r *BAMReader) Tell() (uint64, error) {
	return vOffset(r.br.LastChunk().End), nil
}

// Seek moves to a virtual position previously returned by Tell.
func (r *BAMReader) Seek(offset uint64) error {
	return r.br.Seek(bgzf.Offset{File: int64(offset >> 16), Block: uint16(offset & 0xffff)})
}

// Read reads the next alignment into rec, which must be a *BAMRecord.
func (r *BAMReader) Read(rec Record) error {
	brec, ok := rec.(*BAMRecord)
	if !ok {
		return errors.E(errors.Invalid, "bam: reader requires a bam record")
	}
	srec, err := r.br.Read()
	if err != nil {
		return err
	}
	if brec.R != nil {
		sam.PutInFreePool(brec.R)
	}
	brec.R = srec
	return nil
}

// samRecordWriter is satisfied by both bam.Writer and sam.Writer.
type samRecordWriter interface {
	Write(r *sam.Record) error
}

// BAMWriter writes BAM-family records through a bam or sam writer.
type BAMWriter struct {
	w samRecordWriter
}

// NewBAMWriter wraps w.
func NewBAMWriter(w samRecordWriter) *BAMWriter { return &BAMWriter{w: w} }

// Write writes rec, which must be a *BAMRecord.
func (w *BAMWriter) Write(rec Record) error {
	brec, ok := rec.(*BAMRecord)
	if !ok {
		return errors.E(errors.Invalid, "bam: writer requires a bam record")
	}
	return w.w.Write(brec.R)
}
