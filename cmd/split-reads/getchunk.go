package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/grailbase/vcontext"
	"github.com/Schaudge/hts/sam"
	"github.com/Schaudge/splitreads/chunk"
	"github.com/Schaudge/splitreads/fileio"
	"github.com/Schaudge/splitreads/splitindex"
	"github.com/spf13/cobra"
	"v.io/x/lib/vlog"
)

type getChunkCmd struct {
	input        string
	index        string
	refFasta     string
	output       string
	outputFormat string
	compression  int
	chunkIndex   int
	numChunks    int
	threads      int
}

func newGetChunkCmd() *cobra.Command {
	c := &getChunkCmd{}
	cmd := &cobra.Command{
		Use:   "get-chunk",
		Short: "Rapidly extract one chunk from a reads file that has a split-index (.si) file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.input, "input", "i", "", "input reads file to extract from; cannot be stdin, which is not seekable")
	f.StringVarP(&c.index, "index", "I", "", `index built by "split-reads index"; use "-" for stdin; defaults to the input path with an added .si suffix`)
	f.StringVarP(&c.refFasta, "ref-fasta", "R", "", "reference FASTA (reserved for CRAM)")
	f.StringVarP(&c.output, "output", "o", "-", `output path for the chunk; use "-" (or omit) for stdout`)
	f.StringVarP(&c.outputFormat, "output-format", "O", "", "output format (sam, bam, cram, fastq); used when the output path extension does not decide, defaults to the input format")
	f.IntVarP(&c.compression, "compression", "C", -1, "compression level (0-9) for compressed outputs; defaults to 0 when writing to stdout")
	f.IntVarP(&c.chunkIndex, "chunk-index", "c", 0, "index of the chunk to take (0, 1, ..., num-chunks - 1)")
	f.IntVarP(&c.numChunks, "num-chunks", "n", 0, "total number of chunks the input is divided into")
	f.IntVarP(&c.threads, "threads", "t", runtime.NumCPU(), "worker threads for BAM/BGZF codecs")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("chunk-index")
	cmd.MarkFlagRequired("num-chunks")
	return cmd
}

func (c *getChunkCmd) loadIndex(ctx context.Context) (*splitindex.Index, error) {
	if c.index != "" {
		return splitindex.Read(ctx, c.index)
	}
	p, ok := fileio.DefaultIndexPath(c.input, splitindex.Extension)
	if !ok {
		return nil, errors.E(errors.Invalid, "when reading from stdin, must explicitly specify index path")
	}
	return splitindex.Read(ctx, p)
}

// outputRecordType resolves the output family: output path extension,
// then the output-format flag, then the input's own family.
func (c *getChunkCmd) outputRecordType(inputType fileio.RecordType) (fileio.RecordType, error) {
	if t, ok := fileio.RecordTypeFromPath(c.output); ok {
		return t, nil
	}
	if c.outputFormat != "" {
		t, ok := fileio.RecordTypeFromExtension(c.outputFormat)
		if !ok {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown output format %q", c.outputFormat))
		}
		return t, nil
	}
	return inputType, nil
}

func (c *getChunkCmd) run() error {
	vlog.Infof("Using %d thread(s)", c.threads)
	if c.numChunks <= 0 {
		return errors.E(errors.Invalid, "number of chunks must be nonzero")
	}
	if c.chunkIndex < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("invalid chunk index %d", c.chunkIndex))
	}
	ctx := vcontext.Background()
	index, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}
	inputType, ok := fileio.RecordTypeFromPath(c.input)
	if !ok {
		return errors.E(errors.Invalid, "input type must be FASTQ or SAM/BAM/CRAM; cannot read from stdin")
	}
	outputType, err := c.outputRecordType(inputType)
	if err != nil {
		return err
	}
	if inputType == fileio.BAM {
		if ext, _ := fileio.Extension(c.input); ext == "sam" {
			return c.samTextChunk(ctx, index, outputType)
		}
		return c.bamChunk(ctx, index, outputType)
	}
	return c.fastqChunk(ctx, index, outputType)
}

// bamChunk reads from BAM, writing BAM/SAM or translating to FASTQ.
func (c *getChunkCmd) bamChunk(ctx context.Context, index *splitindex.Index, outputType fileio.RecordType) error {
	in, err := fileio.OpenBAMInput(ctx, c.input, c.threads)
	if err != nil {
		return err
	}
	defer in.Close()
	rec := chunk.NewBAMRecord()
	if outputType == fileio.BAM {
		defaultFormat := c.outputFormat
		if defaultFormat == "" {
			ext, ok := fileio.Extension(c.input)
			if !ok {
				return errors.E(errors.Invalid, "input has no extension")
			}
			defaultFormat = ext
		}
		spec := fileio.NewBAMWriterSpec(c.output).
			HeaderFromReader(in.BR).
			Threads(c.threads).
			RefFasta(c.refFasta).
			Compression(c.compression)
		if _, err := spec.FormatFromPathOrDefault(defaultFormat); err != nil {
			return err
		}
		w, closer, err := spec.NewWriter()
		if err != nil {
			return err
		}
		ff, err := chunk.Forward(in.Reader, rec, index, c.chunkIndex, c.numChunks)
		if err == nil {
			if ff == nil {
				vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
			} else {
				err = ff.WriteTo(w)
			}
		}
		return closeAll(err, closer)
	}
	w, closer, err := fileio.OpenFASTQWriter(c.output, c.compression, c.threads)
	if err != nil {
		return err
	}
	ff, err := chunk.Forward(in.Reader, rec, index, c.chunkIndex, c.numChunks)
	if err == nil {
		if ff == nil {
			vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
		} else {
			err = ff.TranslateTo(w, chunk.NewFASTQRecord())
		}
	}
	return closeAll(err, closer)
}

// samTextChunk reads SAM text, writing SAM text or translating to
// FASTQ. Transcoding SAM text into BAM would require a full alignment
// parser and is rejected.
func (c *getChunkCmd) samTextChunk(ctx context.Context, index *splitindex.Index, outputType fileio.RecordType) error {
	in, err := fileio.OpenSAMTextInput(ctx, c.input, c.threads)
	if err != nil {
		return err
	}
	defer in.Close()
	rec := chunk.NewSAMTextRecord()
	if outputType == fileio.BAM {
		target := c.outputFormat
		if ext, ok := fileio.Extension(c.output); ok {
			if _, err := fileio.FormatFromString(ext); err == nil {
				target = ext
			}
		}
		if target == "" {
			target = "sam"
		}
		f, err := fileio.FormatFromString(target)
		if err != nil {
			return err
		}
		if f != fileio.FormatSAM {
			return errors.E(errors.NotSupported, "transcoding sam text to bam or cram is not supported")
		}
		w, closer, err := fileio.OpenSAMTextWriter(c.output, in.Reader.Header(), c.compression, c.threads)
		if err != nil {
			return err
		}
		ff, err := chunk.Forward(in.Reader, rec, index, c.chunkIndex, c.numChunks)
		if err == nil {
			if ff == nil {
				vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
			} else {
				err = ff.WriteTo(w)
			}
		}
		return closeAll(err, closer)
	}
	w, closer, err := fileio.OpenFASTQWriter(c.output, c.compression, c.threads)
	if err != nil {
		return err
	}
	ff, err := chunk.Forward(in.Reader, rec, index, c.chunkIndex, c.numChunks)
	if err == nil {
		if ff == nil {
			vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
		} else {
			err = ff.TranslateTo(w, chunk.NewFASTQRecord())
		}
	}
	return closeAll(err, closer)
}

// fastqChunk reads FASTQ, writing FASTQ or translating to SAM/BAM.
func (c *getChunkCmd) fastqChunk(ctx context.Context, index *splitindex.Index, outputType fileio.RecordType) error {
	in, err := fileio.OpenFASTQInput(ctx, c.input, c.threads)
	if err != nil {
		return err
	}
	defer in.Close()
	rec := chunk.NewFASTQRecord()
	ff, err := chunk.Forward(in.Reader, rec, index, c.chunkIndex, c.numChunks)
	if err != nil {
		return err
	}
	if outputType == fileio.FASTQ {
		w, closer, err := fileio.OpenFASTQWriter(c.output, c.compression, c.threads)
		if err != nil {
			return err
		}
		if ff == nil {
			vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
		} else {
			err = ff.WriteTo(w)
		}
		return closeAll(err, closer)
	}
	defaultFormat := c.outputFormat
	if defaultFormat == "" {
		defaultFormat = "bam"
	}
	// TODO: allow attaching a read group or sample line to the
	// synthesized header.
	header, err := sam.NewHeader(nil, nil)
	if err != nil {
		return err
	}
	spec := fileio.NewBAMWriterSpec(c.output).
		Header(header).
		Threads(c.threads).
		RefFasta(c.refFasta).
		Compression(c.compression)
	if _, err := spec.FormatFromPathOrDefault(defaultFormat); err != nil {
		return err
	}
	w, closer, err := spec.NewWriter()
	if err != nil {
		return err
	}
	if ff == nil {
		vlog.Errorf("Chunk %d is empty.", c.chunkIndex)
	} else {
		err = ff.TranslateTo(w, chunk.NewBAMRecord())
	}
	return closeAll(err, closer)
}
