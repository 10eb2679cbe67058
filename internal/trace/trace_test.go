package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevel_ShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeFunction) {
		t.Error("phase level must not emit function events")
	}
	if !LevelDetail.ShouldEmit(ScopeFunction) || LevelDetail.ShouldEmit(ScopeBlock) {
		t.Error("detail level emits up to function scope")
	}
	if !LevelDebug.ShouldEmit(ScopeBlock) {
		t.Error("debug level emits everything")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestStreamTracer_Spans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	ctx := WithTracer(context.Background(), tr)

	span := Begin(FromContext(ctx), ScopeFunction, "lower:@f", 0)
	ctx = WithSpan(ctx, span)
	Begin(FromContext(ctx), ScopeBlock, "bb0", CurrentSpan(ctx)).End("")
	span.WithExtra("blocks", "3").End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ lower:@f") || !strings.Contains(out, "← lower:@f (ok) {blocks=3}") {
		t.Fatalf("unexpected trace output:\n%s", out)
	}
	if strings.Contains(out, "bb0") {
		t.Errorf("block scope leaked at detail level:\n%s", out)
	}
}

func TestRingTracer_Wraps(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopePass, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestNew_Off(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off tracer: %v %v", tr, err)
	}
}
