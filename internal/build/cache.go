package build

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goplus/llink/pkgs/srcset"
	"golang.org/x/mod/sumdb/dirhash"
)

// Output directory layout:
//
//	outDir/
//	  .cache.json          # manifest: archive name → cacheEntry
//	  lib<archive>.a
//	  <archive>.objs/      # objects of one archive
const cacheFile = ".cache.json"

// cacheEntry records one successfully built archive.
type cacheEntry struct {
	Path        string    `json:"path"`
	Units       []string  `json:"units"`
	Fingerprint string    `json:"fingerprint"`
	BuildTime   time.Time `json:"build_time"`
}

// buildCache maps archive names to their entries.
type buildCache struct {
	Archives map[string]*cacheEntry `json:"archives"`
}

func (c *buildCache) get(name string) (*cacheEntry, bool) {
	entry, ok := c.Archives[name]
	return entry, ok
}

func (c *buildCache) set(name string, entry *cacheEntry) {
	if c.Archives == nil {
		c.Archives = make(map[string]*cacheEntry)
	}
	c.Archives[name] = entry
}

// loadCache reads the manifest in dir.
func loadCache(dir string) (*buildCache, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// saveCache writes the manifest to dir.
func saveCache(dir string, cache *buildCache) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}

// fingerprint hashes the content of units, relative to root.
func fingerprint(root string, units srcset.SourceSet) (string, error) {
	files := slices.Compact(slices.Sorted(slices.Values(units.Paths())))
	return dirhash.Hash1(files, func(name string) (io.ReadCloser, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(root, name)
		}
		return os.Open(name)
	})
}
