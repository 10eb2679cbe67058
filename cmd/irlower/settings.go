package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"irlower/internal/config"
	"irlower/internal/driver"
)

// cliState carries what setupCommand prepared to the subcommand.
type cliState struct {
	cfg      config.Config
	cleanups []func()
}

var state cliState

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// sessionOptions builds driver options from the configuration and the
// per-command overrides.
func sessionOptions(cmd *cobra.Command) (driver.Options, error) {
	opts := driver.Options{Lower: state.cfg.Options(), Jobs: state.cfg.Lower.Jobs}
	if f := cmd.Flags().Lookup("jobs"); f != nil && f.Changed {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return opts, err
		}
		if jobs < 0 {
			return opts, fmt.Errorf("--jobs must not be negative")
		}
		opts.Jobs = jobs
	}
	if f := cmd.Flags().Lookup("debug-info"); f != nil && f.Changed {
		opts.Lower.DebugInfo, _ = cmd.Flags().GetBool("debug-info")
	}
	if f := cmd.Flags().Lookup("no-loops"); f != nil && f.Changed {
		noLoops, _ := cmd.Flags().GetBool("no-loops")
		opts.Lower.PatchLoops = !noLoops
	}
	if f := cmd.Flags().Lookup("profile-branches"); f != nil && f.Changed {
		opts.Lower.BranchProfiles, _ = cmd.Flags().GetBool("profile-branches")
	}
	return opts, nil
}

func addLowerFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("debug-info", false, "initialize statically known debug variables on entry")
	cmd.Flags().Bool("no-loops", false, "do not replace loop headers by loop region nodes")
	cmd.Flags().Bool("profile-branches", false, "count conditional branch outcomes")
}

// parseIntArgs converts entry arguments to integers.
func parseIntArgs(args []string) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an integer", i+1, a)
		}
		out[i] = v
	}
	return out, nil
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}
