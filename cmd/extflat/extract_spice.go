package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtimothyedwards/extflat/internal/config"
	"github.com/rtimothyedwards/extflat/internal/filelock"
	"github.com/rtimothyedwards/extflat/internal/session"
	"github.com/rtimothyedwards/extflat/internal/spice"
)

var spiceOpts = config.DefaultSpiceOptions()
var spiceOutput string

func init() {
	cmd := newSpiceCmd()
	cmd.Flags().StringVar(&spiceOpts.Format, "format", spiceOpts.Format, "spice2 | spice3 | hspice | ngspice")
	cmd.Flags().Float64Var(&spiceOpts.CapThreshold, "cthresh", spiceOpts.CapThreshold, "Coupling-cap threshold in attofarads (accepted; not applied)")
	cmd.Flags().Float64Var(&spiceOpts.ResistThreshold, "rthresh", spiceOpts.ResistThreshold, "Folded-resistor threshold in milliohms (accepted; not applied)")
	cmd.Flags().StringVar(&spiceOpts.Merge, "merge", spiceOpts.Merge, "none | conservative | aggressive")
	cmd.Flags().BoolVar(&spiceOpts.Descend, "descend", spiceOpts.Descend, "subcircuits descend (false: subcircuits top)")
	cmd.Flags().BoolVar(&spiceOpts.Hierarchy, "hierarchy", spiceOpts.Hierarchy, "Emit one .subckt per Def instead of a single flat deck")
	cmd.Flags().BoolVar(&spiceOpts.Blackbox, "blackbox", spiceOpts.Blackbox, "Blackbox mode (accepted; not applied)")
	cmd.Flags().BoolVar(&spiceOpts.Renumber, "renumber", spiceOpts.Renumber, "Renumber mode (accepted; SPICE2 node integers always start from 0)")
	cmd.Flags().BoolVar(&spiceOpts.Global, "global", spiceOpts.Global, "Emit a .global line")
	cmd.Flags().StringVar(&spiceOpts.Short, "short", spiceOpts.Short, "none | resistor | voltage")
	cmd.Flags().BoolVar(&spiceOpts.ScaleOn, "scale", spiceOpts.ScaleOn, "Emit a .option scale= line")
	cmd.Flags().BoolVar(&spiceOpts.ResistorTee, "resistor-tee", spiceOpts.ResistorTee, "Fold resistors into the output (each stays one R line; no tee split)")
	cmd.Flags().BoolVar(&spiceOpts.Extresist, "extresist", spiceOpts.Extresist, "Fold explicit resistor records too")
	cmd.Flags().BoolVar(&spiceOpts.LVS, "lvs", spiceOpts.LVS, "Set the conventional LVS combo (flat, conservative merge, no globals)")
	cmd.Flags().StringVarP(&spiceOutput, "output", "o", "", "Output file (default: stdout)")
	extractCmd.AddCommand(cmd)
}

func newSpiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spice [cell]",
		Short: "extract to spice: flatten and emit a SPICE deck",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractSpice(args)
		},
	}
}

func runExtractSpice(args []string) error {
	if spiceOpts.LVS {
		lvs := config.LVSSpiceOptions()
		lvs.Format = spiceOpts.Format
		spiceOpts = lvs
	}

	cell := "top"
	if len(args) == 1 {
		cell = args[0]
	}

	w, cleanup, err := openOutput(spiceOutput)
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

	scale := ""
	if spiceOpts.ScaleOn {
		scale = config.FormatScale(s.Reg.Get(id).Scale)
	}

	if spiceOpts.Hierarchy {
		hierOpts, err := spiceOpts.HierOptions(scale)
		if err != nil {
			printError("%v", err)
			return err
		}
		if err := s.EmitSpice(ctx, w, r, id, true, spiceOpts.FlattenFlags(), hierOpts, spice.Options{}); err != nil {
			printError("%v", err)
			return err
		}
	} else {
		flatOpts, err := spiceOpts.FlatOptions(cell, scale, false, nil)
		if err != nil {
			printError("%v", err)
			return err
		}
		if err := s.EmitSpice(ctx, w, r, id, false, spiceOpts.FlattenFlags(), spice.HierOptions{}, flatOpts); err != nil {
			printError("%v", err)
			return err
		}
	}

	printSummary(s.Errors.Clean(), s.Errors.Count, "exttospice finished.")
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	lock, err := filelock.Acquire(path)
	if err != nil {
		return nil, nil, err
	}
	f := lock.File()
	if err := f.Truncate(0); err != nil {
		lock.Release()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		lock.Release()
		return nil, nil, err
	}
	return f, func() { lock.Release() }, nil
}
