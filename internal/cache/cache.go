// Package cache keeps build outputs on disk, keyed by project digest.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"storytell/internal/project"
)

// schemaVersion меняется вместе с форматом Payload
const schemaVersion uint16 = 1

// Payload is one cached build.
type Payload struct {
	Schema uint16
	Format string // wire format of Output
	Output []byte
	Files  []string
	Errors int // error diagnostics in Output
}

// Disk stores payloads as msgpack files. Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open uses dir, creating it when needed.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// OpenUser opens the per-user cache of app under XDG_CACHE_HOME or
// ~/.cache.
func OpenUser(app string) (*Disk, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app))
}

// Dir is the cache directory.
func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "builds", key.String()+".mp")
}

// Put writes a payload atomically.
func (c *Disk) Put(key project.Digest, p *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(target), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	stored := *p
	stored.Schema = schemaVersion
	if err = msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), target)
}

// Get reads a payload. A missing entry or one written by another schema
// is a miss, not an error.
func (c *Disk) Get(key project.Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if p.Schema != schemaVersion {
		return nil, false, nil
	}
	return &p, true, nil
}

// Clear removes every stored build.
func (c *Disk) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "builds"))
}
