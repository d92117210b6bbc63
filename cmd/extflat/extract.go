package main

import (
	"github.com/spf13/cobra"

	"github.com/rtimothyedwards/extflat/internal/extreader"
)

var extractSearchDirs []string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a flattened netlist from an .ext hierarchy",
}

func init() {
	extractCmd.PersistentFlags().StringArrayVar(&extractSearchDirs, "search-dir", nil, "Directory to search for .ext files (repeatable; default: current directory)")
	rootCmd.AddCommand(extractCmd)
}

func searchSource() extreader.Source {
	dirs := extractSearchDirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return extreader.DirSource{Dirs: dirs}
}
