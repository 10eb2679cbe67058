package main

import (
	"strings"
	"testing"

	"irlower/internal/driver"
)

func TestParseIntArgs(t *testing.T) {
	got, err := parseIntArgs([]string{"5", "-3", "0x10"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 5 || got[1] != -3 || got[2] != 16 {
		t.Errorf("got %v", got)
	}
	if _, err := parseIntArgs([]string{"1", "two"}); err == nil || !strings.Contains(err.Error(), "argument 2") {
		t.Errorf("expected error naming argument 2, got %v", err)
	}
}

func TestWriteLoopTable(t *testing.T) {
	report := &driver.LoopReport{Funcs: []driver.FuncLoops{
		{Name: "main", Blocks: 1},
		{Name: "素数", Blocks: 5, Loops: []driver.LoopRecord{
			{Header: 1, Body: []int{1, 2}},
			{Header: 3, Body: []int{3}},
		}},
	}}
	var b strings.Builder
	if err := writeLoopTable(&b, report); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	want := []string{
		"function  blocks  header  body",
		"@main          1       -  ",
		"@素数          5     bb1  bb1 bb2",
		"                     bb3  bb3",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), b.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
