// Command split-reads builds sidecar split indexes (".si") over
// SAM/BAM and FASTQ read files and extracts query-group-aligned chunks
// from them, so parallel workers can each consume a contiguous share
// of a file without scanning its prefix.
package main

import (
	"os"

	"github.com/Schaudge/grailbase/file"
	"github.com/Schaudge/grailbase/file/s3file"
	"github.com/spf13/cobra"
	"v.io/x/lib/vlog"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "split-reads",
		Short:         "Split-index sequencing read files for parallel chunked consumption",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newIndexCmd(), newGetChunkCmd(), newTellCmd())
	return cmd
}

func main() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(), s3file.Options{})
	})
	if err := newRootCmd().Execute(); err != nil {
		vlog.Errorf("%v", err)
		os.Exit(1)
	}
}
