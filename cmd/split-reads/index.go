package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/grailbase/vcontext"
	"github.com/Schaudge/splitreads/chunk"
	"github.com/Schaudge/splitreads/fileio"
	"github.com/Schaudge/splitreads/splitindex"
	"github.com/spf13/cobra"
	"v.io/x/lib/vlog"
)

type indexCmd struct {
	input          string
	index          string
	refFasta       string
	output         string
	outputFormat   string
	compression    int
	numBins        int
	threads        int
	updateInterval int
}

func newIndexCmd() *cobra.Command {
	c := &indexCmd{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index SAM/BAM or FASTQ reads into a split-index (.si) file for rapid chunk extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.run()
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.input, "input", "i", "", `input reads file to index; use "-" for stdin`)
	f.StringVarP(&c.index, "index", "I", "", `output path for the index; use "-" for stdout; defaults to the input path with an added .si suffix`)
	f.StringVarP(&c.refFasta, "ref-fasta", "R", "", "reference FASTA (reserved for CRAM)")
	f.StringVarP(&c.output, "output", "o", "", "optional pass-through output for the records read")
	f.StringVarP(&c.outputFormat, "output-format", "O", "bam", "pass-through format when the output path has no recognized extension (sam, bam, cram, fastq)")
	f.IntVarP(&c.compression, "compression", "C", -1, "compression level (0-9) for compressed outputs; defaults to 0 when writing to stdout")
	f.IntVarP(&c.numBins, "num-bins", "n", 10000, "number of bins to retain in the final index file")
	f.IntVarP(&c.threads, "threads", "t", runtime.NumCPU(), "worker threads for BAM/BGZF codecs")
	f.IntVar(&c.updateInterval, "update-interval", 30, "seconds between progress log updates")
	cmd.MarkFlagRequired("input")
	return cmd
}

// indexOutPath resolves where the index will be written: the explicit
// path, else derived from the pass-through output, else from the input.
func (c *indexCmd) indexOutPath() (string, error) {
	if c.index != "" {
		return c.index, nil
	}
	if c.output != "" {
		p, ok := fileio.DefaultIndexPath(c.output, splitindex.Extension)
		if !ok {
			return "", errors.E(errors.Invalid, "when writing to stdout, must explicitly specify index path")
		}
		return p, nil
	}
	p, ok := fileio.DefaultIndexPath(c.input, splitindex.Extension)
	if !ok {
		return "", errors.E(errors.Invalid, "when reading from stdin, must explicitly specify index path")
	}
	return p, nil
}

// recordType resolves the record family, checking input and
// pass-through output for consistency.
func (c *indexCmd) recordType() (fileio.RecordType, error) {
	inType, inOK := fileio.RecordTypeFromPath(c.input)
	var outType fileio.RecordType
	outOK := false
	if c.output != "" {
		outType, outOK = fileio.RecordTypeFromPath(c.output)
	}
	switch {
	case inOK && outOK:
		if inType != outType {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("input type (%s) and output type (%s) do not match", inType, outType))
		}
		return inType, nil
	case inOK:
		return inType, nil
	case outOK:
		return outType, nil
	}
	if c.outputFormat == "fastq" {
		return fileio.FASTQ, nil
	}
	return fileio.BAM, nil
}

// run builds and downsizes the index and writes the .si file. It
// returns the index path so tests can feed it to get-chunk.
func (c *indexCmd) run() (string, error) {
	vlog.Infof("Using %d thread(s)", c.threads)
	indexPath, err := c.indexOutPath()
	if err != nil {
		return "", err
	}
	recordType, err := c.recordType()
	if err != nil {
		return "", err
	}
	ctx := vcontext.Background()
	interval := time.Duration(c.updateInterval) * time.Second

	var built *splitindex.Index
	if recordType == fileio.BAM {
		if ext, _ := fileio.Extension(c.input); ext == "sam" {
			built, err = c.buildSAMText(ctx, interval)
		} else {
			built, err = c.buildBAM(ctx, interval)
		}
	} else {
		built, err = c.buildFASTQ(ctx, interval)
	}
	if err != nil {
		return "", err
	}
	vlog.Infof("Indexed %d reads and %d queries into %d raw bins.", built.NumReads(), built.NumQueries(), built.Len())
	downsized, err := built.Downsize(c.numBins)
	if err != nil {
		return "", err
	}
	vlog.Infof("Downsized index to %d bins", downsized.Len())
	if err := downsized.Write(indexPath); err != nil {
		return "", err
	}
	return indexPath, nil
}

func closeAll(err error, cs ...io.Closer) error {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (c *indexCmd) buildBAM(ctx context.Context, interval time.Duration) (*splitindex.Index, error) {
	in, err := fileio.OpenBAMInput(ctx, c.input, c.threads)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var passthrough chunk.Writer
	var wCloser io.Closer
	if c.output != "" {
		spec := fileio.NewBAMWriterSpec(c.output).
			HeaderFromReader(in.BR).
			Threads(c.threads).
			RefFasta(c.refFasta).
			Compression(c.compression)
		if _, err := spec.FormatFromPathOrDefault(c.outputFormat); err != nil {
			return nil, err
		}
		w, closer, err := spec.NewWriter()
		if err != nil {
			return nil, err
		}
		passthrough, wCloser = w, closer
	}
	built, err := splitindex.Build(in.Reader, chunk.NewBAMRecord(), passthrough, c.numBins, interval)
	if err = closeAll(err, wCloser); err != nil {
		return nil, err
	}
	return built, nil
}

func (c *indexCmd) buildSAMText(ctx context.Context, interval time.Duration) (*splitindex.Index, error) {
	in, err := fileio.OpenSAMTextInput(ctx, c.input, c.threads)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var passthrough chunk.Writer
	var wCloser io.Closer
	if c.output != "" {
		if ext, _ := fileio.Extension(c.output); ext != "sam" && fileio.TypeOf(c.output) != fileio.Pipe {
			return nil, errors.E(errors.NotSupported, "pass-through of sam text input must write sam text")
		}
		w, closer, err := fileio.OpenSAMTextWriter(c.output, in.Reader.Header(), c.compression, c.threads)
		if err != nil {
			return nil, err
		}
		passthrough, wCloser = w, closer
	}
	built, err := splitindex.Build(in.Reader, chunk.NewSAMTextRecord(), passthrough, c.numBins, interval)
	if err = closeAll(err, wCloser); err != nil {
		return nil, err
	}
	return built, nil
}

func (c *indexCmd) buildFASTQ(ctx context.Context, interval time.Duration) (*splitindex.Index, error) {
	in, err := fileio.OpenFASTQInput(ctx, c.input, c.threads)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var passthrough chunk.Writer
	var wCloser io.Closer
	if c.output != "" {
		w, closer, err := fileio.OpenFASTQWriter(c.output, c.compression, c.threads)
		if err != nil {
			return nil, err
		}
		passthrough, wCloser = w, closer
	}
	built, err := splitindex.Build(in.Reader, chunk.NewFASTQRecord(), passthrough, c.numBins, interval)
	if err = closeAll(err, wCloser); err != nil {
		return nil, err
	}
	return built, nil
}
