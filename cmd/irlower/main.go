package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"irlower/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "irlower",
	Short: "Lower LLVM IR functions into executable node graphs",
	Long: `irlower parses textual LLVM IR, lowers each function into a tree of
executable nodes with loop regions and exception dispatch, and runs it.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupCommand,
	PersistentPostRunE: teardownCommand,
}

// main registers the subcommands and persistent flags and executes the
// root command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Colored()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(loopsCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to irlower.toml (default: nearest in the working directory or its parents)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")

	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	flags.String("trace-format", "", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "ring buffer capacity for ring trace mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat trace event at this interval (0 disables)")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime execution trace to this file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails
	_ = teardownCommand(rootCmd, nil)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setupCommand loads the configuration and starts tracing and profiling
// before any subcommand runs.
func setupCommand(cmd *cobra.Command, _ []string) error {
	if err := setupColor(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	state.cfg = cfg

	stopTrace, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	state.cleanups = append(state.cleanups, stopTrace)

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	state.cleanups = append(state.cleanups, stopProf)
	return nil
}

func teardownCommand(*cobra.Command, []string) error {
	for i := len(state.cleanups) - 1; i >= 0; i-- {
		state.cleanups[i]()
	}
	state.cleanups = nil
	return nil
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid color mode %q (expected: auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
