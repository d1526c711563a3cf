package splitindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/hts/bgzf"
	"github.com/Schaudge/splitreads/fileio"
	"v.io/x/lib/vlog"
)

const (
	version     = "1.0"
	magicPrefix = "split-index "

	recordSize = 24 // offset + numQueries + numReads, 8 bytes each
)

// Extension is the default extension added to a reads path to name its
// split index file.
const Extension = "si"

var errCorruptHeader = errors.New("unable to parse header; corrupted index or wrong file")

// Serialize encodes the index: the ascii header line, a little-endian
// record count, and one 24-byte little-endian triple per record.
func (x *Index) Serialize() []byte {
	buf := make([]byte, 0, len(magicPrefix)+len(version)+1+8+recordSize*x.Len())
	buf = append(buf, magicPrefix...)
	buf = append(buf, version...)
	buf = append(buf, '\n')
	buf = binary.LittleEndian.AppendUint64(buf, uint64(x.Len()))
	for _, rec := range x.records {
		buf = binary.LittleEndian.AppendUint64(buf, rec.offset)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.numQueries))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.numReads))
	}
	return buf
}

// Deserialize parses a serialized index, validating the magic prefix
// and exact version before trusting the record count.
func Deserialize(buf []byte) (*Index, error) {
	nl := bytes.IndexByte(buf, '\n')
	if nl < 0 {
		return nil, errCorruptHeader
	}
	header := buf[:nl]
	buf = buf[nl+1:]
	if !bytes.HasPrefix(header, []byte(magicPrefix)) {
		return nil, errCorruptHeader
	}
	if v := string(header[len(magicPrefix):]); v != version {
		return nil, errors.E(fmt.Sprintf("unknown split-index version: %s", v))
	}
	if len(buf) < 8 {
		return nil, errors.E("index record truncated")
	}
	n := binary.LittleEndian.Uint64(buf)
	buf = buf[8:]
	vlog.VI(1).Infof("Got %d records in split index", n)
	if n > uint64(len(buf))/recordSize {
		return nil, errors.E("index record truncated")
	}
	index := newIndex(int(n))
	for i := uint64(0); i < n; i++ {
		index.add(splitRecord{
			offset:     binary.LittleEndian.Uint64(buf),
			numQueries: int(binary.LittleEndian.Uint64(buf[8:])),
			numReads:   int(binary.LittleEndian.Uint64(buf[16:])),
		})
		buf = buf[recordSize:]
	}
	return index, nil
}

// Write writes the index to path as a BGZF-compressed blob. path may
// be "-" for stdout; a cloud URL destination is rejected.
func (x *Index) Write(path string) error {
	out, err := fileio.OpenOut(path)
	if err != nil {
		return err
	}
	bg := bgzf.NewWriter(out, 1)
	if _, err := bg.Write(x.Serialize()); err != nil {
		bg.Close()
		out.Close()
		return err
	}
	if err := bg.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Read loads an index from a pipe, local file, or URL.
func Read(ctx context.Context, path string) (*Index, error) {
	in, err := fileio.OpenIn(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	bg, err := bgzf.NewReader(in, 0)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("reading split index %s", path))
	}
	buf, err := io.ReadAll(bg)
	if err != nil {
		return nil, err
	}
	if err := bg.Close(); err != nil {
		return nil, err
	}
	return Deserialize(buf)
}
