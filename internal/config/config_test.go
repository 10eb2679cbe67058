package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FindsFileInParent(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[lower]
debug_info = true
jobs = 3

[bench]
entry = "fib"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path {
		t.Errorf("path = %q, want %q", cfg.Path, path)
	}
	opts := cfg.Options()
	if !opts.DebugInfo || !opts.PatchLoops || opts.BranchProfiles {
		t.Errorf("options = %+v", opts)
	}
	if cfg.Lower.Jobs != 3 || cfg.Bench.Entry != "fib" || cfg.Bench.Iterations != 10 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || !cfg.Lower.PatchLoops || cfg.Trace.Level != "off" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFile_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[lower]\npatch_loop = true\n",
		"negative jobs":  "[lower]\njobs = -1\n",
		"bad level":      "[trace]\nlevel = \"loud\"\n",
		"zero iteration": "[bench]\niterations = 0\n",
		"syntax":         "[lower\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), body)
			if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), path) {
				t.Errorf("expected an error naming %s, got %v", path, err)
			}
		})
	}
}
