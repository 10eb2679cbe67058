package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"irlower/internal/driver"
	"irlower/internal/eh"
	"irlower/internal/fault"
)

var runCmd = &cobra.Command{
	Use:   "run <file.ll> [args...]",
	Short: "Lower and run a function of an IR module",
	Long: `run loads the module, lowers the entry function on its first call
and calls it with the integer arguments. Callees are lowered lazily.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().String("entry", "", "function to call (default: [bench].entry of irlower.toml, else main)")
	addLowerFlags(runCmd)
}

func runExecution(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return fmt.Errorf("failed to get entry flag: %w", err)
	}
	if entry == "" {
		entry = state.cfg.Bench.Entry
	}
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
	v, err := s.Run(ctx, entry, ints...)
	printTimings(cmd, s.Timer)
	if err != nil {
		reportRunError(cmd, entry, err)
		return err
	}
	if quiet(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), v.Int())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "@%s returned %s\n", entry, color.New(color.Bold).Sprint(v.String()))
	return nil
}

func reportRunError(cmd *cobra.Command, entry string, err error) {
	red := color.New(color.FgRed, color.Bold)
	var exc *eh.Exception
	switch {
	case errors.As(err, &exc):
		fmt.Fprintf(cmd.ErrOrStderr(), "%s @%s: %v\n", red.Sprint("exception"), entry, exc)
	default:
		if f, ok := fault.As(err); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", red.Sprint("fault"), f.Code, f.Error())
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", red.Sprint("error"), err)
	}
}
