// Package driver loads LLVM IR modules and runs the lowering pipeline over
// them: parallel lowering, loop reports with a disk cache, and execution.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"irlower/internal/frame"
	"irlower/internal/ir"
	"irlower/internal/llfront"
	"irlower/internal/lower"
	"irlower/internal/node"
	"irlower/internal/observ"
	"irlower/internal/trace"
)

// analysisVersion is mixed into cache keys so reports computed by an
// older loop analysis are not reused.
const analysisVersion = "loops/tarjan-v1"

// Options configure a Session.
type Options struct {
	Lower    lower.Options
	Jobs     int
	Observer Observer
	Cache    *DiskCache
}

// Session is one loaded module ready to be lowered and run.
type Session struct {
	Path    string
	Digest  Digest
	Module  *ir.Module
	Program *lower.Program
	Timer   *observ.Timer

	opts Options
}

// Load reads and parses the .ll file at path.
func Load(ctx context.Context, path string, opts Options) (*Session, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadSource(ctx, path, src, opts)
}

// LoadSource parses src as the module named path.
func LoadSource(ctx context.Context, path string, src []byte, opts Options) (*Session, error) {
	tr := trace.FromContext(ctx)
	timer := observ.NewTimer()
	span := trace.Begin(tr, trace.ScopeDriver, "load", trace.CurrentSpan(ctx)).WithExtra("path", path)
	opts.Observer.emit(Event{Stage: StageParse, Status: StatusWorking})

	idx := timer.Begin("parse")
	m, err := llfront.Parse(path, string(src))
	timer.End(idx, path)
	if err != nil {
		span.End("error")
		opts.Observer.emit(Event{Stage: StageParse, Status: StatusError, Err: err})
		return nil, err
	}

	idx = timer.Begin("context")
	p, err := lower.NewProgram(m, opts.Lower)
	timer.End(idx, fmt.Sprintf("%d globals", len(m.Globals)))
	if err != nil {
		span.End("error")
		opts.Observer.emit(Event{Stage: StageParse, Status: StatusError, Err: err})
		return nil, err
	}
	p.Tracer = tr
	span.End(fmt.Sprintf("%d functions", len(m.Funcs)))
	opts.Observer.emit(Event{Stage: StageParse, Status: StatusDone})

	return &Session{
		Path:    path,
		Digest:  combineDigest(HashBytes(src), HashBytes([]byte(analysisVersion))),
		Module:  m,
		Program: p,
		Timer:   timer,
		opts:    opts,
	}, nil
}

// SetObserver replaces the receiver of progress events.
func (s *Session) SetObserver(o Observer) { s.opts.Observer = o }

// Definitions returns the names of the functions with bodies, sorted.
func (s *Session) Definitions() []string {
	defs := s.Module.Definitions()
	names := make([]string, len(defs))
	for i, f := range defs {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// Lowered is the outcome of lowering one function.
type Lowered struct {
	Func     string
	Callable *node.Callable
	Elapsed  time.Duration
	Err      error
}

// LowerAll lowers every defined function, up to Jobs at a time. Lowering
// errors are reported per function; the returned error is only set when
// ctx is cancelled.
func (s *Session) LowerAll(ctx context.Context) ([]Lowered, error) {
	names := s.Definitions()
	results := make([]Lowered, len(names))
	if len(names) == 0 {
		return results, nil
	}
	for _, name := range names {
		s.opts.Observer.emit(Event{Func: name, Stage: StageLower, Status: StatusQueued})
	}

	jobs := s.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	idx := s.Timer.Begin("lower")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(names)))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			s.opts.Observer.emit(Event{Func: name, Stage: StageLower, Status: StatusWorking})
			start := time.Now()
			c, err := s.Program.Callable(gctx, name)
			// index i is owned by this goroutine
			results[i] = Lowered{Func: name, Callable: c, Elapsed: time.Since(start), Err: err}
			status := StatusDone
			if err != nil {
				status = StatusError
			}
			s.opts.Observer.emit(Event{Func: name, Stage: StageLower, Status: status, Elapsed: results[i].Elapsed, Err: err})
			return nil
		})
	}
	err := g.Wait()
	s.Timer.End(idx, fmt.Sprintf("%d functions, %d jobs", len(names), jobs))
	return results, err
}

// Loops returns the loop report of the module, reading it from the disk
// cache when an entry for the same source exists.
func (s *Session) Loops(ctx context.Context) (*LoopReport, error) {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeDriver, "loops", trace.CurrentSpan(ctx))
	idx := s.Timer.Begin("loops")

	var report LoopReport
	hit, err := s.opts.Cache.Get(s.Digest, &report)
	if err != nil {
		trace.Point(tr, trace.ScopeDriver, "cache", "unreadable entry: "+err.Error(), span.ID())
	}
	if hit {
		s.Timer.End(idx, "cached")
		span.End("cached")
		return &report, nil
	}

	report = LoopReport{Schema: diskCacheSchemaVersion, Module: s.Module.Name, Digest: s.Digest}
	for _, name := range s.Definitions() {
		fn := s.Module.Func(name)
		s.opts.Observer.emit(Event{Func: name, Stage: StageLoops, Status: StatusWorking})
		if err := fn.EnsureParsed(); err != nil {
			s.opts.Observer.emit(Event{Func: name, Stage: StageLoops, Status: StatusError, Err: err})
			s.Timer.End(idx, "error")
			span.End("error")
			return nil, err
		}
		fl := FuncLoops{Name: name, Blocks: len(fn.Blocks)}
		for _, lp := range fn.Loops() {
			fl.Loops = append(fl.Loops, LoopRecord{Header: lp.Header, Body: append([]int(nil), lp.Body...)})
		}
		report.Funcs = append(report.Funcs, fl)
		s.opts.Observer.emit(Event{Func: name, Stage: StageLoops, Status: StatusDone})
	}
	if err := s.opts.Cache.Put(s.Digest, &report); err != nil {
		trace.Point(tr, trace.ScopeDriver, "cache", "write failed: "+err.Error(), span.ID())
	}
	s.Timer.End(idx, fmt.Sprintf("%d functions", len(report.Funcs)))
	span.End("")
	return &report, nil
}

// Run calls entry with integer arguments.
func (s *Session) Run(ctx context.Context, entry string, args ...int64) (frame.Value, error) {
	s.opts.Observer.emit(Event{Func: entry, Stage: StageRun, Status: StatusWorking})
	idx := s.Timer.Begin("run")
	v, err := s.Program.Run(ctx, entry, args...)
	s.Timer.End(idx, "@"+entry)
	status := StatusDone
	if err != nil {
		status = StatusError
	}
	s.opts.Observer.emit(Event{Func: entry, Stage: StageRun, Status: status, Err: err})
	return v, err
}
