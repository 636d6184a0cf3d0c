// Package cache stores analysis results on disk, keyed by a digest of the
// configuration and the content of every analyzed file.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// DefaultDir is where the CLI keeps cached runs, relative to the working
// directory. The scanner excludes it.
const DefaultDir = ".chainlint/cache"

// DefaultTTL bounds how long a cached run is trusted.
const DefaultTTL = 24 * time.Hour

// Cache is a directory of JSON entries. A disabled cache misses every Get
// and ignores every Set.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Entry is the on-disk form of one cached value.
type Entry struct {
	Key       string          `json:"key"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates a cache in dir, creating the directory when enabled.
func New(dir string, ttl time.Duration, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false, now: time.Now}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true, now: time.Now}, nil
}

// Enabled reports whether the cache reads and writes entries. A nil cache
// is disabled.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashBytes returns the hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Keyer accumulates the inputs of a run into a single key.
type Keyer struct {
	h *blake3.Hasher
}

func NewKeyer() *Keyer {
	return &Keyer{h: blake3.New()}
}

// Add mixes strings into the key. Each part is length-prefixed so that
// ("ab", "c") and ("a", "bc") differ.
func (k *Keyer) Add(parts ...string) {
	for _, p := range parts {
		var n [8]byte
		for i := range n {
			n[i] = byte(uint64(len(p)) >> (8 * i))
		}
		_, _ = k.h.Write(n[:])
		_, _ = k.h.Write([]byte(p))
	}
}

// AddFile mixes the content of the file at path into the key.
func (k *Keyer) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	content := blake3.New()
	if _, err := io.Copy(content, f); err != nil {
		return err
	}
	k.Add(hex.EncodeToString(content.Sum(nil)))
	return nil
}

// Sum returns the key.
func (k *Keyer) Sum() string {
	return hex.EncodeToString(k.h.Sum(nil))
}

// Get decodes the entry for key into v. It misses on a disabled cache, an
// absent or unreadable entry, or one older than the TTL.
func (c *Cache) Get(key string, v any) bool {
	if !c.Enabled() {
		return false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		return false
	}
	if c.now().Sub(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return false
	}
	return json.Unmarshal(entry.Data, v) == nil
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entry, err := json.Marshal(Entry{Key: key, Timestamp: c.now(), Data: data})
	if err != nil {
		return err
	}

	// Write then rename so a concurrent reader never sees a partial entry.
	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entry); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(key))
}

// Clear removes all entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, HashBytes([]byte(key))[:32]+".json")
}

// Stats describes the entries on disk.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if oldest.IsZero() || mod.Before(oldest) {
			oldest = mod
		}
		if newest.IsZero() || mod.After(newest) {
			newest = mod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = now.Sub(newest)
	}
	return stats, nil
}
