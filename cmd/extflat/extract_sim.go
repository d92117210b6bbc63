package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtimothyedwards/extflat/internal/config"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/session"
)

var simOpts = config.DefaultSimOptions()
var simOutput, simAliasPath, simNodesPath string

func init() {
	cmd := newSimCmd()
	cmd.Flags().BoolVar(&simOpts.Alias, "alias", simOpts.Alias, "Write a .al sidecar listing every non-canonical alias per node")
	cmd.Flags().BoolVar(&simOpts.Labels, "labels", simOpts.Labels, "Write a .nodes sidecar listing each node's recorded location")
	cmd.Flags().StringVar(&simOpts.Format, "format", simOpts.Format, "MIT | SU | LBL")
	cmd.Flags().StringVarP(&simOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&simAliasPath, "alias-file", "", "Path for the .al sidecar (default: <output>.al)")
	cmd.Flags().StringVar(&simNodesPath, "nodes-file", "", "Path for the .nodes sidecar (default: <output>.nodes)")
	extractCmd.AddCommand(cmd)
}

func newSimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sim [cell]",
		Short: "extract to sim: flatten and emit a .sim file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractSim(args)
		},
	}
}

func runExtractSim(args []string) error {
	cell := "top"
	if len(args) == 1 {
		cell = args[0]
	}

	w, cleanup, err := openOutput(simOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	s := session.Open()
	defer s.Close()

	ctx := context.Background()
	id, r, err := s.Read(cell, searchSource())
	if err != nil {
		printError("%v", err)
		return err
	}
	def := s.Reg.Get(id)

	var aliasW, nodesW io.Writer
	if simOpts.Alias {
		path := simAliasPath
		if path == "" && simOutput != "" {
			path = simOutput + ".al"
		}
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				printError("%v", err)
				return err
			}
			defer f.Close()
			aliasW = f
		}
	}
	if simOpts.Labels {
		path := simNodesPath
		if path == "" && simOutput != "" {
			path = simOutput + ".nodes"
		}
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				printError("%v", err)
				return err
			}
			defer f.Close()
			nodesW = f
		}
	}

	scale := config.FormatScale(def.Scale)
	opts, err := simOpts.Resolve(scale, "", aliasW, nodesW)
	if err != nil {
		printError("%v", err)
		return err
	}

	if err := s.EmitSim(ctx, w, r, id, flatten.FlatNodes|flatten.FlatCaps, opts); err != nil {
		printError("%v", err)
		return err
	}

	printSummary(s.Errors.Clean(), s.Errors.Count, "ext2sim finished.")
	return nil
}
