// Package cache provides in-memory memoization for template detection:
// rendered and preprocessed pages, extracted region sets, and a single
// slot for the loaded signature database.
//
// Entries are keyed by file path, modification time and a purpose tag,
// so editing a PDF in place naturally invalidates its cached data. There
// is no eviction or TTL; callers release memory with Clear. The cache is
// safe for concurrent use.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/docforge/pdfclassify/internal/sigstore"
)

// Page is a rendered, preprocessed first page along with its raster size.
type Page struct {
	Img    *image.Gray
	Width  int
	Height int
}

// DetectionCache memoizes per-file detection intermediates.
type DetectionCache struct {
	mu      sync.RWMutex
	pages   map[string]*Page
	regions map[string]map[string]*image.Gray
	db      *sigstore.Database
}

// New creates an empty detection cache ready for concurrent use.
func New() *DetectionCache {
	return &DetectionCache{
		pages:   make(map[string]*Page),
		regions: make(map[string]map[string]*image.Gray),
	}
}

// Key derives a cache key from the file path, its modification time and a
// purpose tag. If the file cannot be stat'd the key degrades to path+tag,
// which still memoizes correctly within a single process run.
func Key(path, tag string) string {
	data := fmt.Sprintf("%s_%s", path, tag)
	if stat, err := os.Stat(path); err == nil {
		data = fmt.Sprintf("%s_%d_%s", path, stat.ModTime().UnixNano(), tag)
	}
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Page returns the cached rendered page for path, if present.
func (c *DetectionCache) Page(path string) (*Page, bool) {
	key := Key(path, "page")
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pages[key]
	return p, ok
}

// StorePage caches a rendered page for path.
func (c *DetectionCache) StorePage(path string, p *Page) {
	key := Key(path, "page")
	c.mu.Lock()
	c.pages[key] = p
	c.mu.Unlock()
}

// Regions returns the cached extracted region set for path, if present.
func (c *DetectionCache) Regions(path string) (map[string]*image.Gray, bool) {
	key := Key(path, "regions")
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.regions[key]
	return r, ok
}

// StoreRegions caches the extracted region set for path.
func (c *DetectionCache) StoreRegions(path string, regions map[string]*image.Gray) {
	key := Key(path, "regions")
	c.mu.Lock()
	c.regions[key] = regions
	c.mu.Unlock()
}

// Database returns the cached signature database, or nil if unset. The
// slot is independent of any file key: one database per cache.
func (c *DetectionCache) Database() *sigstore.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// StoreDatabase fills the single database slot. Loads are idempotent, so
// concurrent callers racing on a cold slot merely duplicate work.
func (c *DetectionCache) StoreDatabase(db *sigstore.Database) {
	c.mu.Lock()
	c.db = db
	c.mu.Unlock()
}

// Evict removes all cached intermediates derived from path.
func (c *DetectionCache) Evict(path string) {
	pageKey := Key(path, "page")
	regionKey := Key(path, "regions")
	c.mu.Lock()
	delete(c.pages, pageKey)
	delete(c.regions, regionKey)
	c.mu.Unlock()
}

// Clear drops every cached entry, including the database slot.
func (c *DetectionCache) Clear() {
	c.mu.Lock()
	c.pages = make(map[string]*Page)
	c.regions = make(map[string]map[string]*image.Gray)
	c.db = nil
	c.mu.Unlock()
}
