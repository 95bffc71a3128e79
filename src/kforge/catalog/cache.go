package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitswalk/kforge/src/common/paths"
	"github.com/spf13/afero"
)

// CacheFileName is the snapshot file name inside the cache directory
const CacheFileName = "versions.json"

// DefaultCachePath returns the per-user snapshot location
func DefaultCachePath() string {
	return filepath.Join(paths.CacheDir(), CacheFileName)
}

// Cache persists catalog snapshots as a JSON document. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so readers never see a partial document.
type Cache struct {
	fs   afero.Fs
	path string

	// rename is fs.Rename outside tests
	rename func(oldname, newname string) error
}

// NewCache creates a snapshot cache at path on fs. A nil fs means the OS filesystem.
func NewCache(fs afero.Fs, path string) *Cache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = DefaultCachePath()
	}
	return &Cache{fs: fs, path: path, rename: fs.Rename}
}

// Path returns the snapshot file location
func (c *Cache) Path() string {
	return c.path
}

// Load reads the snapshot. A missing file returns os.ErrNotExist.
func (c *Cache) Load() (*Snapshot, error) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", c.path, err)
	}
	snap.Versions = normalizeEntries(snap.Versions)
	return &snap, nil
}

// Store replaces the snapshot atomically
func (c *Cache) Store(snap Snapshot) error {
	dir := filepath.Dir(c.path)
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := afero.TempFile(c.fs, dir, ".versions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = c.fs.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}

	if err := c.rename(tmpName, c.path); err != nil {
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	committed = true
	return nil
}

// Clear removes the snapshot. Removing a missing snapshot is not an error.
func (c *Cache) Clear() error {
	if err := c.fs.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	return nil
}
