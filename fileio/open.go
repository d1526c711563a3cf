package fileio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/grailbase/file"
)

// urlFile adapts a grail file.File to io.ReadSeekCloser.
type urlFile struct {
	io.ReadSeeker
	f   file.File
	ctx context.Context
}

func (u *urlFile) Close() error { return u.f.Close(u.ctx) }

// OpenIn opens path for reading: "-" is stdin, URLs go through the
// grail file package, anything else is a local file. Stdin supports
// Seek only when it is backed by a real file.
func OpenIn(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	switch TypeOf(path) {
	case Pipe:
		return os.Stdin, nil
	case URL:
		f, err := file.Open(ctx, path)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("opening %s", path))
		}
		return &urlFile{ReadSeeker: f.Reader(ctx), f: f, ctx: ctx}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, fmt.Sprintf("opening %s", path))
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// OpenOut opens path for writing, creating parent directories as
// needed. "-" is stdout (never closed); writing to a cloud URL is
// rejected.
func OpenOut(path string) (io.WriteCloser, error) {
	switch TypeOf(path) {
	case Pipe:
		return nopWriteCloser{os.Stdout}, nil
	case URL:
		return nil, errors.E(errors.Invalid, "cannot write directly to a cloud URL")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.E(err, fmt.Sprintf("creating directory for %s", path))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("opening %s", path))
	}
	return f, nil
}
