// Package fileio types paths, infers record formats from extensions,
// and opens the readers and writers the commands wire together. URL
// inputs are read through the grail file package; which schemes work
// depends on the implementations registered by the binary (the CLI
// registers s3).
package fileio

import (
	"net/url"
	"os"
	gopath "path"
	"strings"
)

// PathType classifies an input or output path.
type PathType int

const (
	// Pipe is "-": stdin or stdout.
	Pipe PathType = iota
	// File is a local filesystem path.
	File
	// URL is a remote path with a recognized scheme.
	URL
)

var urlPrefixes = []string{"s3://", "gcs://", "ftp://", "http://", "https://"}

// TypeOf classifies path as a pipe, a URL, or a local file.
func TypeOf(path string) PathType {
	if path == "-" {
		return Pipe
	}
	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(path, prefix) {
			return URL
		}
	}
	return File
}

// DefaultIndexPath derives the sidecar index location for path by
// adding "."+extension. For a URL, a local file named after the URL's
// last segment is preferred when it exists; otherwise the index is a
// sibling URL. There is no default for a pipe: ok is false and the
// caller must require an explicit index path.
func DefaultIndexPath(path, extension string) (indexPath string, ok bool) {
	switch TypeOf(path) {
	case Pipe:
		return "", false
	case URL:
		u, err := url.Parse(path)
		if err != nil {
			return "", false
		}
		local := gopath.Base(u.Path) + "." + extension
		if _, err := os.Stat(local); err == nil {
			return local, true
		}
		return path + "." + extension, true
	default:
		return path + "." + extension, true
	}
}
