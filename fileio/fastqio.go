package fileio

import (
	"context"
	"io"

	"github.com/Schaudge/splitreads/chunk"
	"github.com/Schaudge/splitreads/fastq"
	"github.com/Schaudge/splitreads/zio"
)

// FASTQInput is an opened FASTQ read path: the chunkable reader over a
// compression-aware source.
type FASTQInput struct {
	Reader *chunk.FASTQReader
	z      *zio.Reader
	in     io.Closer
}

// Close closes the decoder and the underlying stream.
func (f *FASTQInput) Close() error {
	err := f.z.Close()
	if cerr := f.in.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenFASTQInput opens a possibly BGZF-compressed FASTQ (local, URL,
// or stdin) with the given decompression worker count.
func OpenFASTQInput(ctx context.Context, path string, threads int) (*FASTQInput, error) {
	in, err := OpenIn(ctx, path)
	if err != nil {
		return nil, err
	}
	z, err := zio.NewReader(in, threads)
	if err != nil {
		in.Close()
		return nil, err
	}
	return &FASTQInput{Reader: chunk.NewFASTQReader(fastq.NewReader(z)), z: z, in: in}, nil
}

// outputCompression picks the codec for a record output path: a ".gz"
// extension means standard gzip, ".bgz" means BGZF, any other
// extension means plain, and a path with no extension (stdout) is
// BGZF-compressed exactly when a positive level was requested.
func outputCompression(path string, level int) zio.Compression {
	if ext, ok := Extension(path); ok {
		switch ext {
		case "gz":
			return zio.Gzip
		case "bgz":
			return zio.BGZF
		}
		return zio.None
	}
	if level > 0 {
		return zio.BGZF
	}
	return zio.None
}

// OpenFASTQWriter opens a FASTQ output, compressing according to the
// path and level. The returned closer flushes and closes the chain.
func OpenFASTQWriter(path string, compression, threads int) (*chunk.FASTQWriter, io.Closer, error) {
	out, err := OpenOut(path)
	if err != nil {
		return nil, nil, err
	}
	zw, err := zio.NewWriter(out, outputCompression(path, compression), compression, threads)
	if err != nil {
		out.Close()
		return nil, nil, err
	}
	return chunk.NewFASTQWriter(fastq.NewWriter(zw)), zw, nil
}

// SAMTextInput is an opened SAM text read path.
type SAMTextInput struct {
	Reader *chunk.SAMTextReader
	z      *zio.Reader
	in     io.Closer
}

// Close closes the decoder and the underlying stream.
func (s *SAMTextInput) Close() error {
	err := s.z.Close()
	if cerr := s.in.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenSAMTextInput opens a SAM text file for chunked reading. The
// header is consumed up front; Tell starts at the first alignment.
func OpenSAMTextInput(ctx context.Context, path string, threads int) (*SAMTextInput, error) {
	in, err := OpenIn(ctx, path)
	if err != nil {
		return nil, err
	}
	z, err := zio.NewReader(in, threads)
	if err != nil {
		in.Close()
		return nil, err
	}
	r, err := chunk.NewSAMTextReader(z)
	if err != nil {
		z.Close()
		in.Close()
		return nil, err
	}
	return &SAMTextInput{Reader: r, z: z, in: in}, nil
}

// OpenSAMTextWriter opens a SAM text output, emitting header first.
func OpenSAMTextWriter(path string, header [][]byte, compression, threads int) (*chunk.SAMTextWriter, io.Closer, error) {
	out, err := OpenOut(path)
	if err != nil {
		return nil, nil, err
	}
	zw, err := zio.NewWriter(out, outputCompression(path, compression), compression, threads)
	if err != nil {
		out.Close()
		return nil, nil, err
	}
	w, err := chunk.NewSAMTextWriter(zw, header)
	if err != nil {
		zw.Close()
		return nil, nil, err
	}
	return w, zw, nil
}
