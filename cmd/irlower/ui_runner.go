package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"irlower/internal/driver"
	"irlower/internal/ui"
)

type lowerOutcome struct {
	results []driver.Lowered
	err     error
}

// lowerWithUI runs LowerAll while a progress view consumes its events.
func lowerWithUI(ctx context.Context, s *driver.Session) ([]driver.Lowered, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lowerOutcome, 1)

	s.SetObserver(driver.ChannelObserver(events))
	go func() {
		res, err := s.LowerAll(ctx)
		outcomeCh <- lowerOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("lowering "+s.Path, s.Definitions(), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// keep draining so the lowering goroutines never block on a full channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	s.SetObserver(nil)
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return os.Stdout
}
