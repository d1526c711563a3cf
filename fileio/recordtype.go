package fileio

import (
	"path/filepath"
	"strings"
)

// RecordType distinguishes the two record families handled by the
// split machinery.
type RecordType int

const (
	// FASTQ covers .fq, .fastq, and the compressed .gz/.bgz variants
	// (assumed to hold FASTQ; the sniffed magic decides compression).
	FASTQ RecordType = iota
	// BAM covers .bam, .sam, and .cram.
	BAM
)

func (t RecordType) String() string {
	if t == FASTQ {
		return "FASTQ"
	}
	return "SAM/BAM/CRAM"
}

// Extension returns the final path extension, lowercased and without
// the dot; ok is false when there is none.
func Extension(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(ext, ".")), true
}

// RecordTypeFromPath infers the record family from the final path
// extension.
func RecordTypeFromPath(path string) (RecordType, bool) {
	ext, ok := Extension(path)
	if !ok {
		return 0, false
	}
	return RecordTypeFromExtension(ext)
}

// RecordTypeFromExtension infers the record family from an extension
// string, case-insensitively.
func RecordTypeFromExtension(ext string) (RecordType, bool) {
	switch strings.ToLower(ext) {
	case "fq", "fastq", "gz", "bgz":
		return FASTQ, true
	case "bam", "sam", "cram":
		return BAM, true
	}
	return 0, false
}
