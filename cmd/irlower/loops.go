package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"irlower/internal/driver"
)

var loopsCmd = &cobra.Command{
	Use:   "loops <file.ll>",
	Short: "Report the natural loops of every defined function",
	Long: `loops lists, per function, the strongly connected regions found in its
control flow graph. Reports are cached on disk keyed by the module source.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoops,
}

func init() {
	loopsCmd.Flags().Bool("cache", true, "read and write the on-disk loop report cache")
	loopsCmd.Flags().Bool("drop-cache", false, "empty the loop report cache before running")
}

func runLoops(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := sessionOptions(cmd)
	if err != nil {
		return err
	}
	useCache, _ := cmd.Flags().GetBool("cache")
	drop, _ := cmd.Flags().GetBool("drop-cache")
	if useCache || drop {
		cache, err := driver.OpenDiskCache("irlower")
		if err != nil {
			return fmt.Errorf("failed to open loop cache: %w", err)
		}
		if drop {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to drop loop cache: %w", err)
			}
		}
		if useCache {
			opts.Cache = cache
		}
	}

	s, err := driver.Load(ctx, args[0], opts)
	if err != nil {
		return err
	}
	report, err := s.Loops(ctx)
	if err != nil {
		return err
	}
	if err := writeLoopTable(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.FromCache && !quiet(cmd) {
		fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.Faint).Sprint("(from cache "+report.Digest.String()[:12]+")"))
	}
	printTimings(cmd, s.Timer)
	return nil
}

// writeLoopTable prints one row per loop, padded by display width so
// that non-ASCII function names stay aligned.
func writeLoopTable(w io.Writer, report *driver.LoopReport) error {
	nameWidth := runewidth.StringWidth("function")
	for _, f := range report.Funcs {
		nameWidth = max(nameWidth, runewidth.StringWidth("@"+f.Name))
	}
	var b strings.Builder
	row := func(name, blocks, header, body string) {
		b.WriteString(runewidth.FillRight(name, nameWidth))
		fmt.Fprintf(&b, "  %6s  %6s  %s\n", blocks, header, body)
	}
	row("function", "blocks", "header", "body")
	for _, f := range report.Funcs {
		if len(f.Loops) == 0 {
			row("@"+f.Name, strconv.Itoa(f.Blocks), "-", "")
			continue
		}
		for i, lp := range f.Loops {
			name, blocks := "", ""
			if i == 0 {
				name, blocks = "@"+f.Name, strconv.Itoa(f.Blocks)
			}
			row(name, blocks, "bb"+strconv.Itoa(lp.Header), blockList(lp.Body))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func blockList(body []int) string {
	parts := make([]string, len(body))
	for i, idx := range body {
		parts[i] = "bb" + strconv.Itoa(idx)
	}
	return strings.Join(parts, " ")
}
