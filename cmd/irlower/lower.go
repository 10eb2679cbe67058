package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"irlower/internal/driver"
)

var lowerCmd = &cobra.Command{
	Use:   "lower <file.ll>",
	Short: "Lower every defined function of an IR module",
	Args:  cobra.ExactArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().Int("jobs", 0, "functions lowered in parallel (0: GOMAXPROCS)")
	lowerCmd.Flags().Bool("ui", false, "show an interactive progress view")
	addLowerFlags(lowerCmd)
}

func runLower(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := sessionOptions(cmd)
	if err != nil {
		return err
	}
	useUI, _ := cmd.Flags().GetBool("ui")
	useUI = useUI && isTerminal(stdoutFile(cmd))

	s, err := driver.Load(ctx, args[0], opts)
	if err != nil {
		return err
	}
	var results []driver.Lowered
	if useUI {
		results, err = lowerWithUI(ctx, s)
	} else {
		results, err = s.LowerAll(ctx)
	}
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen).Sprint("ok")
	bad := color.New(color.FgRed, color.Bold).Sprint("error")
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%-5s @%s: %v\n", bad, r.Func, r.Err)
			continue
		}
		if quiet(cmd) {
			continue
		}
		fmt.Fprintf(out, "%-5s @%s  %d slots, %d blocks, %d loops  %s\n",
			ok, r.Func, r.Callable.Layout.Len(), len(r.Callable.Body.Blocks), len(r.Callable.Body.Loops), r.Elapsed)
	}
	printTimings(cmd, s.Timer)
	if failed > 0 {
		return fmt.Errorf("%d of %d functions failed to lower", failed, len(results))
	}
	return nil
}
