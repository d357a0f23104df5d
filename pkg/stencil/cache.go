package stencil

import (
	"container/list"
	"os"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the placeholder scan cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to remember. 0 disables caching.
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`
	// TTL is the time-to-live of a cached scan. 0 means no expiration.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// ScanCache remembers the placeholders of template files. An entry is only
// reused while the file keeps its modification time and size, so editing a
// template invalidates it.
type ScanCache struct {
	mu      sync.Mutex
	entries map[string]*scanEntry
	lru     *list.List
	config  CacheConfig

	scan func(path string) (*TemplateScan, error)
	now  func() time.Time
}

type scanEntry struct {
	path    string
	modTime time.Time
	size    int64
	scan    TemplateScan
	expiry  time.Time
	element *list.Element
}

// NewScanCache creates a cache that scans with InspectTemplate
func NewScanCache(config CacheConfig) *ScanCache {
	return &ScanCache{
		entries: make(map[string]*scanEntry),
		lru:     list.New(),
		config:  config,
		scan:    InspectTemplate,
		now:     time.Now,
	}
}

// Scan returns the distinct placeholders of the template at path, from the
// cache when the file is unchanged.
func (c *ScanCache) Scan(path string) ([]string, error) {
	scan, err := c.Inspect(path)
	if err != nil {
		return nil, err
	}
	return scan.Tokens, nil
}

// Inspect returns the placeholders and body text of the template at path,
// from the cache when the file is unchanged. The result is a copy.
func (c *ScanCache) Inspect(path string) (*TemplateScan, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if c.config.MaxSize <= 0 {
		return c.scan(path)
	}

	c.mu.Lock()
	if entry, ok := c.entries[path]; ok {
		if c.fresh(entry, info) {
			c.lru.MoveToFront(entry.element)
			scan := entry.scan.clone()
			c.mu.Unlock()
			return scan, nil
		}
		c.remove(entry)
	}
	c.mu.Unlock()

	scan, err := c.scan(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(path, info, scan)
	return scan.clone(), nil
}

func (c *ScanCache) fresh(entry *scanEntry, info os.FileInfo) bool {
	if c.config.TTL > 0 && c.now().After(entry.expiry) {
		return false
	}
	return entry.modTime.Equal(info.ModTime()) && entry.size == info.Size()
}

func (c *ScanCache) add(path string, info os.FileInfo, scan *TemplateScan) {
	if existing, ok := c.entries[path]; ok {
		c.remove(existing)
	}
	for c.lru.Len() >= c.config.MaxSize {
		c.remove(c.lru.Back().Value.(*scanEntry))
	}

	entry := &scanEntry{
		path:    path,
		modTime: info.ModTime(),
		size:    info.Size(),
		scan:    *scan.clone(),
	}
	if c.config.TTL > 0 {
		entry.expiry = c.now().Add(c.config.TTL)
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[path] = entry
}

func (c *ScanCache) remove(entry *scanEntry) {
	delete(c.entries, entry.path)
	c.lru.Remove(entry.element)
}

// Remove forgets the scan of path
func (c *ScanCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[path]; ok {
		c.remove(entry)
	}
}

// Clear forgets every scan
func (c *ScanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*scanEntry)
	c.lru = list.New()
}

// Size returns the number of cached scans
func (c *ScanCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
