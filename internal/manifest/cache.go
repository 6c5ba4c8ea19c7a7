package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/choiway/photoguess/internal/photo"
)

// CacheEntry is what was derived from one file the last time it was
// scanned. It is only valid while MTime matches the file.
type CacheEntry struct {
	MTime    float64         `json:"mtime"`
	Date     *photo.Date     `json:"date,omitempty"`
	GPS      *photo.GPS      `json:"gps,omitempty"`
	Location *photo.Location `json:"location,omitempty"`
}

// Cache maps filenames to their entries.
type Cache struct {
	Files map[string]CacheEntry `json:"files"`
}

func newCache() *Cache {
	return &Cache{Files: make(map[string]CacheEntry)}
}

// LoadCache reads the cache at path. A missing, unreadable or corrupted
// cache is an empty cache.
func LoadCache(path string, logger *slog.Logger) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("metadata cache unreadable, starting fresh", "path", path, "error", err)
		}
		return newCache()
	}

	c := newCache()
	if err := json.Unmarshal(data, c); err != nil {
		logger.Warn("metadata cache corrupted, starting fresh", "path", path, "error", err)
		return newCache()
	}
	if c.Files == nil {
		c.Files = make(map[string]CacheEntry)
	}
	return c
}

// Save replaces the cache file at path in one step.
func (c *Cache) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return writeFileAtomic(path, data)
}

// modTime is the file's modification time in fractional milliseconds.
func modTime(info fs.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / float64(time.Millisecond)
}

// writeFileAtomic writes to a temp file beside path and renames it into
// place, so readers see either the old file or the complete new one.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
