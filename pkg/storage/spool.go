package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Spool materializes incoming upload streams as uniquely named files under a
// base directory. Entries live for one request; the orchestrator removes them
// before it returns, and the janitor sweeps anything left over by a crash.
type Spool struct {
	baseDir string
}

// NewSpool ensures the base directory exists and returns a handle.
func NewSpool(baseDir string) (*Spool, error) {
	if baseDir == "" {
		baseDir = "./spool"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &Spool{baseDir: baseDir}, nil
}

// Write streams r into a new spool file. The pattern's "*" is replaced with a
// random suffix so concurrent requests never collide. Returns the absolute
// path and the number of bytes written; the partial file is removed on error.
func (s *Spool) Write(pattern string, r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.baseDir, pattern)
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("write spool file: %w", err)
	}
	return f.Name(), n, nil
}

// Open returns a read-only handle for a spooled file.
func (s *Spool) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spool file: %w", err)
	}
	return f, nil
}

// Remove deletes a spooled file if present.
func (s *Spool) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes spool files older than the provided TTL and
// returns deleted names. Normal requests clean up after themselves; this
// catches files orphaned by process crashes.
func (s *Spool) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup spool: %w", err)
	}
	return deleted, nil
}

// Dir exposes the base directory (useful for tests and debugging).
func (s *Spool) Dir() string {
	return s.baseDir
}
