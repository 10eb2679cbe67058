package llfront

import (
	"context"
	"testing"

	"irlower/internal/lower"
	"irlower/internal/node"
)

func TestLoad_Sample(t *testing.T) {
	m, err := Load("testdata/sample.ll")
	if err != nil {
		t.Fatal(err)
	}
	sub := m.Global("_ZTI3Sub")
	if sub == nil || !sub.TypeInfo {
		t.Fatalf("type info global not recognized: %+v", sub)
	}
	if len(sub.Bases) != 1 || sub.Bases[0] != "_ZTI4Base" {
		t.Errorf("bases of _ZTI3Sub = %v", sub.Bases)
	}
	if g := m.Global("counter"); g == nil || g.TypeInfo || g.Init == nil || g.Init.Int != 5 {
		t.Errorf("counter = %+v", g)
	}

	fact := m.Func("fact")
	if len(fact.Blocks) != 0 {
		t.Fatalf("body converted before first use")
	}
	if err := fact.EnsureParsed(); err != nil {
		t.Fatal(err)
	}
	loops := fact.Loops()
	if len(loops) != 1 || loops[0].Header != 1 {
		t.Errorf("loops = %+v", loops)
	}
	if !m.Func("sum").Params[0].IsStructByValue() {
		t.Errorf("byval attribute lost")
	}
	if !m.Func("__irl_throw").IsDeclaration() {
		t.Errorf("declaration has a body")
	}
}

func TestLoad_RunsConvertedFunctions(t *testing.T) {
	m, err := Load("testdata/sample.ll")
	if err != nil {
		t.Fatal(err)
	}
	p, err := lower.NewProgram(m, lower.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		fn   string
		args []int64
		want int64
	}{
		{"fact", []int64{5}, 120},
		{"callsum", nil, 72},
		{"readcounter", nil, 5},
		{"catcher", nil, 1},
	}
	for _, tc := range cases {
		v, err := p.Run(context.Background(), tc.fn, tc.args...)
		if err != nil {
			t.Errorf("%s: %v", tc.fn, err)
			continue
		}
		if v.Int() != tc.want {
			t.Errorf("%s = %d, want %d", tc.fn, v.Int(), tc.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse("bad.ll", "define i32 @f( {"); err == nil {
		t.Error("expected a syntax error")
	}
	m, err := Parse("float.ll", "define double @f() {\nentry:\n  ret double 1.0\n}\n")
	if err == nil {
		t.Errorf("expected unsupported type error, got module %v", m)
	}
}

func TestIdent_NormalizesToNFC(t *testing.T) {
	if got := ident("cafe\u0301"); got != "caf\u00e9" {
		t.Errorf("ident = %q", got)
	}
}

func TestLoad_DebugMetadata(t *testing.T) {
	m, err := Load("testdata/debug.ll")
	if err != nil {
		t.Fatal(err)
	}
	fn := m.Func("answer")
	if fn.Source == nil || fn.Source.Scope == nil {
		t.Fatalf("subprogram not attached: %+v", fn.Source)
	}
	if loc := fn.Source.Scope; loc.File != "answer.c" || loc.Line != 3 || loc.Name != "answer" {
		t.Errorf("scope = %+v", loc)
	}
	if err := fn.EnsureParsed(); err != nil {
		t.Fatal(err)
	}
	vars := fn.Source.Variables
	if len(vars) != 3 {
		t.Fatalf("variables = %+v", vars)
	}
	if vars[0].Name != "k" || vars[0].Line != 4 || vars[0].Static == nil || vars[0].Static.Int != 42 {
		t.Errorf("k = %+v", vars[0])
	}
	if vars[1].Name != "x" || vars[1].Static != nil {
		t.Errorf("x bound to a parameter is static: %+v", vars[1])
	}
	if vars[2].Name != "n" || vars[2].Static != nil {
		t.Errorf("n bound to two constants is static: %+v", vars[2])
	}
	for _, in := range fn.Blocks[0].Instrs {
		if in.Call.Callee == "llvm.dbg.value" {
			t.Errorf("debug intrinsic left in the body")
		}
	}

	p, err := lower.NewProgram(m, lower.Options{DebugInfo: true, PatchLoops: true})
	if err != nil {
		t.Fatal(err)
	}
	c, err := p.Callable(context.Background(), "answer")
	if err != nil {
		t.Fatal(err)
	}
	if c.Source == nil || c.Source.File != "answer.c" {
		t.Errorf("callable source = %v", c.Source)
	}
	inits := 0
	for _, s := range c.Body.Blocks[0].Stmts {
		if d, ok := s.(*node.DebugInit); ok && d.Var == "k" {
			inits++
		}
	}
	if inits != 1 {
		t.Errorf("entry block has %d initializers for k", inits)
	}
	if syms := p.Context.Debug.Symbols(); len(syms) != 1 || syms[0].Var != "k" {
		t.Errorf("symbols = %+v", syms)
	}
	v, err := p.Run(context.Background(), "answer", 1)
	if err != nil || v.Int() != 43 {
		t.Errorf("answer(1) = %v, %v", v, err)
	}
}
