package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"irlower/internal/observ"
)

func TestRunner_RecordsEveryIteration(t *testing.T) {
	calls := 0
	timer := observ.NewTimer()
	r := &Runner{Iterations: 4, ProcID: 2, Timer: timer}
	res, err := r.Run(context.Background(), "fib", func(context.Context) error {
		calls++
		if calls == 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 4 || len(res.Times) != 4 {
		t.Fatalf("calls=%d times=%d", calls, len(res.Times))
	}
	if res.Err() == nil || res.Errs[2] == nil || res.Errs[0] != nil {
		t.Errorf("errors = %v", res.Errs)
	}
	if got := len(timer.Report().Phases); got != 4 {
		t.Errorf("timer phases = %d", got)
	}
	rec := res.Record()
	if len(rec) != 6 || rec[0] != "2" || rec[1] != "fib" {
		t.Errorf("record = %v", rec)
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{Iterations: 10}
	res, err := r.Run(ctx, "x", func(context.Context) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) || len(res.Times) != 1 {
		t.Errorf("err=%v iterations=%d", err, len(res.Times))
	}
	if _, err := (&Runner{}).Run(context.Background(), "x", nil); err == nil {
		t.Error("expected error for zero iterations")
	}
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.csv")
	for proc := 0; proc < 2; proc++ {
		res := Result{ProcID: proc, Name: "loop", Times: make([]time.Duration, 3)}
		if err := AppendCSV(path, res); err != nil {
			t.Fatal(err)
		}
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "1" || len(rows[1]) != 5 || rows[1][2] != "0.000000" {
		t.Errorf("rows = %v", rows)
	}
}
