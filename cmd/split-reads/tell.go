package main

import (
	"fmt"

	"github.com/Schaudge/grailbase/errors"
	"github.com/Schaudge/grailbase/vcontext"
	"github.com/Schaudge/splitreads/splitindex"
	"github.com/spf13/cobra"
)

type tellCmd struct {
	index string
	tell  string
}

func newTellCmd() *cobra.Command {
	c := &tellCmd{}
	cmd := &cobra.Command{
		Use:   "tell",
		Short: "Print a basic statistic derived from a split-index file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.index, "index", "I", "", `split-index file to inspect; use "-" for stdin`)
	f.StringVarP(&c.tell, "tell", "t", "num-queries", "statistic to print: num-bins, num-queries, or num-reads")
	cmd.MarkFlagRequired("index")
	return cmd
}

func (c *tellCmd) run() error {
	index, err := splitindex.Read(vcontext.Background(), c.index)
	if err != nil {
		return err
	}
	switch c.tell {
	case "num-bins":
		fmt.Println(index.Len())
	case "num-queries":
		fmt.Println(index.NumQueries())
	case "num-reads":
		fmt.Println(index.NumReads())
	default:
		return errors.E(errors.Invalid, fmt.Sprintf("unknown statistic %q", c.tell))
	}
	return nil
}
