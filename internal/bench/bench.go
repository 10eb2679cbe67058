// Package bench runs a workload several times in one process and records
// the duration of each iteration as a CSV row.
package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"irlower/internal/observ"
)

// Result is the outcome of one benchmark run.
type Result struct {
	ProcID int
	Name   string
	Times  []time.Duration
	// Errs holds the error of each failed iteration, nil entries for
	// successful ones.
	Errs []error
}

// Record returns the CSV fields "procID,name,secs1,secs2,...".
func (r Result) Record() []string {
	out := make([]string, 0, len(r.Times)+2)
	out = append(out, strconv.Itoa(r.ProcID), r.Name)
	for _, d := range r.Times {
		out = append(out, strconv.FormatFloat(d.Seconds(), 'f', 6, 64))
	}
	return out
}

// Err joins the iteration errors.
func (r Result) Err() error {
	return errors.Join(r.Errs...)
}

// Runner repeats a workload.
type Runner struct {
	Iterations int
	ProcID     int
	Timer      *observ.Timer
}

// Run calls fn Iterations times. A failing iteration is recorded and the
// run continues; only cancellation of ctx stops it early.
func (r *Runner) Run(ctx context.Context, name string, fn func(context.Context) error) (Result, error) {
	if r.Iterations <= 0 {
		return Result{}, fmt.Errorf("bench %s: iterations must be positive, got %d", name, r.Iterations)
	}
	res := Result{ProcID: r.ProcID, Name: name}
	for i := 0; i < r.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		idx := -1
		if r.Timer != nil {
			idx = r.Timer.Begin(fmt.Sprintf("%s#%d", name, i+1))
		}
		start := time.Now()
		err := fn(ctx)
		res.Times = append(res.Times, time.Since(start))
		res.Errs = append(res.Errs, err)
		if r.Timer != nil {
			note := ""
			if err != nil {
				note = err.Error()
			}
			r.Timer.End(idx, note)
		}
	}
	return res, nil
}

// WriteCSV writes the result as one CSV record.
func WriteCSV(w io.Writer, res Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Record()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// AppendCSV appends the result to the file at path, creating it if needed.
func AppendCSV(path string, res Result) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, res)
}
