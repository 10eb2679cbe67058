// Package config loads irlower.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"irlower/internal/lower"
	"irlower/internal/trace"
)

// FileName is the configuration file looked up from the working directory
// upwards.
const FileName = "irlower.toml"

// Config is the contents of irlower.toml.
type Config struct {
	Lower LowerConfig `toml:"lower"`
	Trace TraceConfig `toml:"trace"`
	Bench BenchConfig `toml:"bench"`

	// Path is the file the configuration was read from, empty for
	// defaults.
	Path string `toml:"-"`
}

type LowerConfig struct {
	DebugInfo      bool `toml:"debug_info"`
	PatchLoops     bool `toml:"patch_loops"`
	BranchProfiles bool `toml:"branch_profiles"`
	Jobs           int  `toml:"jobs"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type BenchConfig struct {
	Iterations int    `toml:"iterations"`
	Entry      string `toml:"entry"`
	Output     string `toml:"output"`
}

// Default returns the configuration used without a file.
func Default() Config {
	def := lower.DefaultOptions()
	return Config{
		Lower: LowerConfig{
			DebugInfo:      def.DebugInfo,
			PatchLoops:     def.PatchLoops,
			BranchProfiles: def.BranchProfiles,
		},
		Trace: TraceConfig{Level: "off", Mode: "stream", Format: "auto"},
		Bench: BenchConfig{Iterations: 10, Entry: "main", Output: "bench.csv"},
	}
}

// Options returns the lowering options.
func (c Config) Options() lower.Options {
	return lower.Options{
		DebugInfo:      c.Lower.DebugInfo,
		PatchLoops:     c.Lower.PatchLoops,
		BranchProfiles: c.Lower.BranchProfiles,
	}
}

// TraceLevel parses the configured trace level.
func (c Config) TraceLevel() (trace.Level, error) {
	return trace.ParseLevel(c.Trace.Level)
}

// Find looks for FileName in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the nearest irlower.toml above startDir, or returns the
// defaults when there is none.
func Load(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path. Keys absent from the file keep their defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Lower.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [lower].jobs must not be negative", path)
	}
	if meta.IsDefined("bench", "iterations") && cfg.Bench.Iterations <= 0 {
		return Config{}, fmt.Errorf("%s: [bench].iterations must be positive", path)
	}
	if _, err := cfg.TraceLevel(); err != nil {
		return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}
