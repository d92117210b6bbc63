package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtimothyedwards/extflat/internal/logx"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	logDir  string
)

var rootCmd = &cobra.Command{
	Use:   "extflat",
	Short: "Flatten hierarchical IC layout extraction and emit netlists",
	Long: `extflat reads a hierarchy of .ext layout-extraction files, flattens
it into a single electrical network, and emits the result as a SPICE
deck or a .sim file. It has no command for checking a network
against a hand-written net list.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return logx.Init(logx.Options{Enabled: verbose, LogDir: logDir, Level: level})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the error summary on success")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write logs to this directory instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printSummary reports a command's non-fatal ErrorSummary the way §7
// specifies: a feedback-area count on a dirty run, plus a finished
// message, both on stderr, unless -quiet was passed.
func printSummary(clean bool, count int, finishedMsg string) {
	if !clean {
		fmt.Fprintf(os.Stderr, "%d feedback areas generated\n", count)
	}
	if !quiet {
		fmt.Fprintln(os.Stderr, finishedMsg)
	}
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
