package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"irlower/internal/driver"
)

func TestProgressModel_AppliesEvents(t *testing.T) {
	m := NewProgressModel("lowering demo.ll", []string{"fact", "main"}, nil).(*progressModel)
	if got := m.percent(); got != 0 {
		t.Errorf("queued functions count as progress: %v", got)
	}

	m.applyEvent(driver.Event{Stage: driver.StageParse, Status: driver.StatusDone})
	if m.stageLabel != "parse done" {
		t.Errorf("stage label = %q", m.stageLabel)
	}
	m.applyEvent(driver.Event{Func: "fact", Stage: driver.StageLower, Status: driver.StatusWorking})
	if m.items[0].status != "lowering" {
		t.Errorf("fact status = %q", m.items[0].status)
	}
	if got := m.percent(); got != 0.25 {
		t.Errorf("percent = %v, want 0.25", got)
	}
	m.applyEvent(driver.Event{Func: "fact", Stage: driver.StageLower, Status: driver.StatusDone, Elapsed: time.Millisecond})
	m.applyEvent(driver.Event{Func: "main", Stage: driver.StageLower, Status: driver.StatusError, Err: errors.New("unknown function @g")})
	m.applyEvent(driver.Event{Func: "ghost", Stage: driver.StageLower, Status: driver.StatusDone})
	if got := m.percent(); got != 1 {
		t.Errorf("percent = %v, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"@fact  1ms", "@main  unknown function @g", "error"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 6, "abc..."},
		{"abcdef", 2, "ab"},
		{"日本語の関数", 7, "日本..."},
		{"anything", 0, "anything"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}
