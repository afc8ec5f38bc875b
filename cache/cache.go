// Package cache implements the disk-backed LRU blob cache the
// retrieval engine consults before falling back to local, upstream,
// or origin tiers. Entries are plain files in a cache directory,
// keyed by sanitized canonical ID; a file's mtime is the cache's only
// record of recency, so the directory itself is the source of truth —
// restarting the process loses nothing.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paperlake/paperlake/diag"
	"github.com/paperlake/paperlake/internal/obslog"
)

// Cache is a fixed-byte-budget LRU blob cache rooted at a directory.
// Reads are lock-free; writes and eviction are serialized through a
// single mutex, per the spec's guidance that eviction races under
// concurrent puts are otherwise possible (two writers both computing
// "current size" before either evicts can together blow the budget).
type Cache struct {
	dir    string
	budget int64
	mu     sync.Mutex
}

// Stats is the snapshot [Cache.Stats] returns.
type Stats struct {
	Budget         int64
	CurrentSize    int64
	NumEntries     int
	UtilizationPct float64
}

// Open returns a [Cache] rooted at dir with the given byte budget,
// creating dir if it does not exist.
func Open(dir string, budgetBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, diag.SystemError(fmt.Errorf("cache: creating %s: %w", dir, err))
	}
	return &Cache{dir: dir, budget: budgetBytes}, nil
}

// SanitizeKey turns a canonical ID into a safe filename: slashes,
// backslashes, and colons (characters legacy arXiv IDs and file paths
// can carry) are replaced with underscores.
func SanitizeKey(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return r.Replace(id)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, SanitizeKey(key))
}

// Get returns the cached blob for key, or nil on a miss. A hit
// touches the file's mtime to "now" before the blob is returned, so
// eviction always sees the latest access time.
func (c *Cache) Get(ctx context.Context, key string) []byte {
	p := c.path(key)
	content, err := os.ReadFile(p)
	if err != nil {
		return nil
	}
	now := time.Now()
	if err := os.Chtimes(p, now, now); err != nil {
		obslog.FromContext(ctx).Warn("cache: touching mtime failed", "key", key, "error", err)
	}
	return content
}

// Put stores blob under key, evicting the least-recently-touched
// entries until it fits within budget. It refuses to cache a blob
// larger than the entire budget.
func (c *Cache) Put(ctx context.Context, key string, blob []byte) bool {
	if int64(len(blob)) > c.budget {
		obslog.FromContext(ctx).Warn("cache: blob exceeds budget, not caching", "key", key, "size", len(blob), "budget", c.budget)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.evictLocked(ctx, int64(len(blob))); err != nil {
		obslog.FromContext(ctx).Warn("cache: eviction failed", "key", key, "error", err)
		return false
	}

	target := c.path(key)
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		obslog.FromContext(ctx).Warn("cache: creating temp file failed", "key", key, "error", err)
		return false
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		obslog.FromContext(ctx).Warn("cache: writing temp file failed", "key", key, "error", err)
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		obslog.FromContext(ctx).Warn("cache: closing temp file failed", "key", key, "error", err)
		return false
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		obslog.FromContext(ctx).Warn("cache: renaming into place failed", "key", key, "error", err)
		return false
	}
	return true
}

type entry struct {
	path  string
	size  int64
	mtime time.Time
}

func (c *Cache) entries() ([]entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".tmp-") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			path:  filepath.Join(c.dir, de.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime.Before(entries[j].mtime) })
	return entries, nil
}

// evictLocked must be called with c.mu held. It evicts oldest-mtime
// entries until incomingSize fits within budget.
func (c *Cache) evictLocked(ctx context.Context, incomingSize int64) error {
	entries, err := c.entries()
	if err != nil {
		return fmt.Errorf("listing cache directory: %w", err)
	}
	var current int64
	for _, e := range entries {
		current += e.size
	}
	target := c.budget - incomingSize

	for _, e := range entries {
		if current <= target {
			break
		}
		if err := os.Remove(e.path); err != nil {
			obslog.FromContext(ctx).Warn("cache: evicting entry failed", "path", e.path, "error", err)
			continue
		}
		current -= e.size
	}
	return nil
}

// Clear removes every entry and returns the count removed.
func (c *Cache) Clear(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.entries()
	if err != nil {
		obslog.FromContext(ctx).Warn("cache: listing directory for clear failed", "error", err)
		return 0
	}
	var removed int
	for _, e := range entries {
		if err := os.Remove(e.path); err != nil {
			obslog.FromContext(ctx).Warn("cache: removing entry failed", "path", e.path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Stats reports the cache's current occupancy.
func (c *Cache) Stats() (Stats, error) {
	entries, err := c.entries()
	if err != nil {
		return Stats{}, diag.SystemError(fmt.Errorf("cache: listing %s: %w", c.dir, err))
	}
	var current int64
	for _, e := range entries {
		current += e.size
	}
	var pct float64
	if c.budget > 0 {
		pct = float64(current) / float64(c.budget) * 100
	}
	return Stats{
		Budget:         c.budget,
		CurrentSize:    current,
		NumEntries:     len(entries),
		UtilizationPct: pct,
	}, nil
}
