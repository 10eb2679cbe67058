package observ

import (
	"strings"
	"testing"
)

func TestTimer_Report(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("parse")
	b := tm.Begin("lower")
	tm.End(b, "3 functions")
	tm.End(a, "")
	tm.End(7, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "parse" || r.Phases[1].Note != "3 functions" {
		t.Fatalf("report = %+v", r)
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Errorf("total %.3f below a phase", r.TotalMS)
	}
	s := tm.Summary()
	if !strings.Contains(s, "lower") || !strings.Contains(s, "// 3 functions") || !strings.Contains(s, "total") {
		t.Errorf("summary:\n%s", s)
	}
	if empty := NewTimer().Report(); len(empty.Phases) != 0 || empty.TotalMS != 0 {
		t.Error("empty timer has phases")
	}
}
