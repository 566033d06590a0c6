// Package cache keeps rendered diagrams keyed by a digest of their inputs,
// with disk persistence.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// FileName is the cache file inside a cache directory.
const FileName = "diagrams.msgpack"

// DefaultMaxEntries bounds the cache when Options leaves it unset.
const DefaultMaxEntries = 256

// Entry is one cached diagram.
type Entry struct {
	Key       string    `msgpack:"key"`
	Source    string    `msgpack:"source"`
	Diagram   string    `msgpack:"diagram"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Options configures a DiagramCache.
type Options struct {
	MaxEntries int
}

// Stats returns cache statistics.
type Stats struct {
	Length    int   `json:"length"`
	Bytes     int64 `json:"bytes"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// DiagramCache is an LRU of rendered diagrams. It is safe for concurrent use.
type DiagramCache struct {
	entries *lru.Cache[string, Entry]
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates an empty cache.
func New(opts Options) (*DiagramCache, error) {
	size := opts.MaxEntries
	if size <= 0 {
		size = DefaultMaxEntries
	}
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &DiagramCache{entries: entries}, nil
}

// Key digests a source and the settings that shape its diagram.
func Key(src []byte, settings ...string) string {
	h := sha256.New()
	h.Write(src)
	for _, s := range settings {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry for key and marks it recently used.
func (c *DiagramCache) Get(key string) (Entry, bool) {
	e, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Set stores the diagram rendered from source under key.
func (c *DiagramCache) Set(key, source, diagram string) {
	c.entries.Add(key, Entry{Key: key, Source: source, Diagram: diagram, CreatedAt: time.Now()})
}

// Clear removes all entries.
func (c *DiagramCache) Clear() {
	c.entries.Purge()
}

// Len returns the number of entries.
func (c *DiagramCache) Len() int {
	return c.entries.Len()
}

// Bytes is the total size of the cached diagrams.
func (c *DiagramCache) Bytes() int64 {
	var n int64
	for _, e := range c.entries.Values() {
		n += int64(len(e.Diagram))
	}
	return n
}

// Stats returns the current cache statistics.
func (c *DiagramCache) Stats() Stats {
	return Stats{
		Length:    c.Len(),
		Bytes:     c.Bytes(),
		HitCount:  c.hits.Load(),
		MissCount: c.misses.Load(),
	}
}

// HitRate returns the cache hit rate.
func (c *DiagramCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Save writes the entries, oldest first, using msgpack.
func (c *DiagramCache) Save(w io.Writer) error {
	entries := c.entries.Values()
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the contents with entries read by Save. Recency order is
// preserved.
func (c *DiagramCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}
	c.entries.Purge()
	for _, e := range entries {
		c.entries.Add(e.Key, e)
	}
	return nil
}

// PersistToFile saves the cache to a file, creating its directory.
func PersistToFile(c *DiagramCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	return c.Save(f)
}

// LoadFromFile loads the cache from a file.
func LoadFromFile(c *DiagramCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache file is not an error
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}
