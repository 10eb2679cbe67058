package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when LoopReport changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores loop reports keyed by module digest. It is safe for
// concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// LoopRecord is one loop: header and body block indices, header first.
type LoopRecord struct {
	Header int
	Body   []int
}

// FuncLoops is the loop report of one function.
type FuncLoops struct {
	Name   string
	Blocks int
	Loops  []LoopRecord
}

// LoopReport is the cached loop analysis of a module.
type LoopReport struct {
	Schema uint16
	Module string
	Digest Digest
	Funcs  []FuncLoops

	// FromCache is set when the report was read from disk.
	FromCache bool `msgpack:"-"`
}

// OpenDiskCache initializes a cache under the user cache directory.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt initializes a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "loops", key.String()+".mp")
}

// Put serializes and writes a report, replacing any previous one
// atomically.
func (c *DiskCache) Put(key Digest, report *LoopReport) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(report); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a report. A missing entry or one written with another schema
// is a miss.
func (c *DiskCache) Get(key Digest, out *LoopReport) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion || out.Digest != key {
		*out = LoopReport{}
		return false, nil
	}
	out.FromCache = true
	return true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
