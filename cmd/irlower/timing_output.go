package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irlower/internal/observ"
)

func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	show, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if !show || timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}
