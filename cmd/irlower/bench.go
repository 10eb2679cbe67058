package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"irlower/internal/bench"
	"irlower/internal/driver"
)

var benchCmd = &cobra.Command{
	Use:   "bench <file.ll> [args...]",
	Short: "Run a function repeatedly and record per-iteration times as CSV",
	Long: `bench calls the entry function the configured number of times in one
process. The first iteration includes lowering; later ones run the cached
graph. Each run appends "procID,name,secs..." to the output file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().String("entry", "", "function to call (default: [bench].entry)")
	benchCmd.Flags().Int("iterations", 0, "number of iterations (default: [bench].iterations)")
	benchCmd.Flags().String("output", "", "CSV file to append to (default: [bench].output, - for stdout)")
	benchCmd.Flags().Int("proc-id", os.Getpid(), "identifier written in the first CSV column")
	addLowerFlags(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := state.cfg.Bench
	entry, _ := cmd.Flags().GetString("entry")
	if entry == "" {
		entry = cfg.Entry
	}
	iterations, _ := cmd.Flags().GetInt("iterations")
	if iterations == 0 {
		iterations = cfg.Iterations
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Output
	}
	procID, _ := cmd.Flags().GetInt("proc-id")
	ints, err := parseIntArgs(args[1:])
	if err != nil {
		return err
	}
	opts, err := sessionOptions(cmd)
	if err != nil {
		return err
	}
	s, err := driver.Load(ctx, args[0], opts)
	if err != nil {
		return err
	}

	runner := &bench.Runner{Iterations: iterations, ProcID: procID, Timer: s.Timer}
	res, err := runner.Run(ctx, entry, func(ctx context.Context) error {
		_, err := s.Run(ctx, entry, ints...)
		return err
	})
	if err != nil {
		return err
	}
	if output == "-" {
		err = bench.WriteCSV(cmd.OutOrStdout(), res)
	} else {
		err = bench.AppendCSV(output, res)
	}
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if !quiet(cmd) && output != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "@%s: %d iterations, best %s, appended to %s\n",
			entry, len(res.Times), best(res.Times), output)
	}
	printTimings(cmd, s.Timer)
	return res.Err()
}

func best(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	b := times[0]
	for _, d := range times[1:] {
		b = min(b, d)
	}
	return b
}
