package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irlower/internal/driver"
	"irlower/internal/node"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.ll>",
	Short: "Print the lowered node graph of functions",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringSlice("func", nil, "functions to dump (default: all defined functions)")
	addLowerFlags(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := sessionOptions(cmd)
	if err != nil {
		return err
	}
	names, err := cmd.Flags().GetStringSlice("func")
	if err != nil {
		return fmt.Errorf("failed to get func flag: %w", err)
	}
	s, err := driver.Load(ctx, args[0], opts)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = s.Definitions()
	}
	for _, name := range names {
		c, err := s.Program.Callable(ctx, name)
		if err != nil {
			return fmt.Errorf("@%s: %w", name, err)
		}
		if err := node.Dump(cmd.OutOrStdout(), c); err != nil {
			return err
		}
	}
	printTimings(cmd, s.Timer)
	return nil
}
