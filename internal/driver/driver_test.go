package driver

import (
	"context"
	"sync"
	"testing"

	"irlower/internal/lower"
)

const loopSource = `
define i32 @count(i32 %n) {
entry:
  br label %head

head:
  %i = phi i32 [ 0, %entry ], [ %next, %head ]
  %next = add i32 %i, 1
  %more = icmp slt i32 %next, %n
  br i1 %more, label %head, label %done

done:
  ret i32 %next
}

define i32 @main() {
entry:
  %r = call i32 @count(i32 7)
  ret i32 %r
}
`

const badSource = loopSource + `
define i32 @bad(i32 %a, i32 %b) {
entry:
  %q = udiv i32 %a, %b
  ret i32 %q
}
`

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) final(fn string, stage Stage) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last Status
	seen := false
	for _, ev := range r.events {
		if ev.Func == fn && ev.Stage == stage {
			last, seen = ev.Status, true
		}
	}
	return last, seen
}

func TestSession_LowerAll(t *testing.T) {
	rec := &recorder{}
	s, err := LoadSource(context.Background(), "bad.ll", []byte(badSource), Options{
		Lower:    lower.DefaultOptions(),
		Jobs:     2,
		Observer: rec.observe,
	})
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.LowerAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bad", "count", "main"}
	if len(results) != len(want) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Func != want[i] {
			t.Errorf("result %d is @%s, want @%s", i, r.Func, want[i])
		}
		if (r.Err != nil) != (r.Func == "bad") {
			t.Errorf("@%s: unexpected error state %v", r.Func, r.Err)
		}
	}
	if st, ok := rec.final("bad", StageLower); !ok || st != StatusError {
		t.Errorf("@bad final status %v", st)
	}
	if st, ok := rec.final("count", StageLower); !ok || st != StatusDone {
		t.Errorf("@count final status %v", st)
	}
	if s.Program.Lowerer.Builds() != 2 {
		t.Errorf("builds = %d", s.Program.Lowerer.Builds())
	}

	v, err := s.Run(context.Background(), "main")
	if err != nil || v.Int() != 7 {
		t.Errorf("main() = %v, %v", v, err)
	}
	if s.Program.Lowerer.Builds() != 2 {
		t.Errorf("running lowered a function again")
	}
}

func TestSession_LoopsAreCached(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	load := func() *Session {
		s, err := LoadSource(context.Background(), "loop.ll", []byte(loopSource), Options{Lower: lower.DefaultOptions(), Cache: cache})
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	first, err := load().Loops(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache {
		t.Fatal("first report came from an empty cache")
	}
	if len(first.Funcs) != 2 || first.Funcs[0].Name != "count" {
		t.Fatalf("funcs = %+v", first.Funcs)
	}
	loops := first.Funcs[0].Loops
	if len(loops) != 1 || loops[0].Header != 1 || len(loops[0].Body) != 1 {
		t.Errorf("count loops = %+v", loops)
	}

	second, err := load().Loops(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("second report was recomputed")
	}
	if second.Digest != first.Digest || len(second.Funcs) != len(first.Funcs) || second.Funcs[0].Loops[0].Header != 1 {
		t.Errorf("cached report differs: %+v", second)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	var out LoopReport
	if hit, err := cache.Get(first.Digest, &out); hit || err != nil {
		t.Errorf("entry survived DropAll: %v %v", hit, err)
	}
}

func TestDigest_ChangesWithSource(t *testing.T) {
	a := HashBytes([]byte(loopSource))
	b := HashBytes([]byte(badSource))
	if a == b || a.IsZero() {
		t.Fatal("distinct sources hash equal")
	}
	if combineDigest(a, b) == combineDigest(b, a) {
		t.Error("combineDigest ignores order")
	}
}
