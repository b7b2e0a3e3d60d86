// Package cache stores downloaded terrain tiles on disk so repeated
// generations over the same region skip the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Number of decoded tiles kept in memory in front of the disk store
const memoryTiles = 512

// TileCache is a two-level cache for terrain tiles: a small in-memory LRU
// in front of a size-bounded disk store evicted by access time.
type TileCache struct {
	baseDir  string
	maxSize  int64 // disk budget in bytes
	currSize int64 // atomic

	mu    sync.RWMutex
	index map[string]*entry

	mem *lru.Cache[string, []byte]

	evictChan chan struct{}
}

type entry struct {
	filePath   string
	size       int64
	accessTime time.Time
}

// NewTileCache creates a tile cache rooted at baseDir with the given disk
// budget. The existing on-disk contents are indexed at startup.
func NewTileCache(baseDir string, maxSizeMB int) (*TileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	mem, err := lru.New[string, []byte](memoryTiles)
	if err != nil {
		return nil, err
	}

	c := &TileCache{
		baseDir:   baseDir,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		index:     make(map[string]*entry),
		mem:       mem,
		evictChan: make(chan struct{}, 1),
	}

	if err := c.loadIndex(); err != nil {
		return nil, fmt.Errorf("failed to load cache index: %w", err)
	}

	go c.evictionWorker()

	return c, nil
}

// Get retrieves a tile by key, checking memory before disk
func (c *TileCache) Get(key string) ([]byte, bool) {
	if data, ok := c.mem.Get(hashKey(key)); ok {
		return data, true
	}

	hashed := hashKey(key)
	c.mu.RLock()
	e, exists := c.index[hashed]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	data, err := os.ReadFile(e.filePath)
	if err != nil {
		// Stale index entry, drop it.
		c.mu.Lock()
		delete(c.index, hashed)
		c.mu.Unlock()
		atomic.AddInt64(&c.currSize, -e.size)
		return nil, false
	}

	c.mu.Lock()
	e.accessTime = time.Now()
	c.mu.Unlock()

	c.mem.Add(hashed, data)
	return data, true
}

// Set stores a tile under the given key
func (c *TileCache) Set(key string, data []byte) error {
	hashed := hashKey(key)
	filePath := filepath.Join(c.baseDir, hashed[:2], hashed+".png")

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache subdirectory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	size := int64(len(data))
	e := &entry{filePath: filePath, size: size, accessTime: time.Now()}

	c.mu.Lock()
	if old, exists := c.index[hashed]; exists {
		atomic.AddInt64(&c.currSize, -old.size)
		os.Remove(old.filePath)
	}
	c.index[hashed] = e
	c.mu.Unlock()

	atomic.AddInt64(&c.currSize, size)
	c.mem.Add(hashed, data)

	if atomic.LoadInt64(&c.currSize) > c.maxSize {
		select {
		case c.evictChan <- struct{}{}:
		default:
		}
	}

	return nil
}

func (c *TileCache) evictionWorker() {
	for range c.evictChan {
		c.evict()
	}
}

// evict removes least recently used tiles until the disk store is back
// under 90% of the budget
func (c *TileCache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()

	currSize := atomic.LoadInt64(&c.currSize)
	if currSize <= c.maxSize {
		return
	}
	targetSize := c.maxSize * 9 / 10

	type candidate struct {
		key        string
		accessTime time.Time
		size       int64
	}
	candidates := make([]candidate, 0, len(c.index))
	for key, e := range c.index {
		candidates = append(candidates, candidate{key, e.accessTime, e.size})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].accessTime.Before(candidates[j].accessTime)
	})

	for _, cand := range candidates {
		if currSize <= targetSize {
			break
		}
		e := c.index[cand.key]
		os.Remove(e.filePath)
		delete(c.index, cand.key)
		c.mem.Remove(cand.key)
		atomic.AddInt64(&c.currSize, -e.size)
		currSize -= e.size
	}
}

// loadIndex scans the cache directory and rebuilds the in-memory index
func (c *TileCache) loadIndex() error {
	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".png" {
			return nil
		}

		name := filepath.Base(path)
		hashed := name[:len(name)-len(".png")]

		c.index[hashed] = &entry{
			filePath:   path,
			size:       info.Size(),
			accessTime: info.ModTime(),
		}
		atomic.AddInt64(&c.currSize, info.Size())
		return nil
	})
}

// Stats returns entry count and disk usage
func (c *TileCache) Stats() (entries int, sizeBytes int64, maxBytes int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index), atomic.LoadInt64(&c.currSize), c.maxSize
}

// GetCachePath returns the cache root directory
func (c *TileCache) GetCachePath() string {
	return c.baseDir
}

// Clear removes all cached tiles from both levels
func (c *TileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.index {
		os.Remove(e.filePath)
	}
	c.index = make(map[string]*entry)
	c.mem.Purge()
	atomic.StoreInt64(&c.currSize, 0)
	return nil
}

func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// GetCacheDir returns the OS-specific cache directory for terrain tiles
func GetCacheDir() string {
	homeDir, _ := os.UserHomeDir()

	switch goruntime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "beamng-map-generator", "terrain")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "beamng-map-generator", "cache", "terrain")
	default:
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		return filepath.Join(cacheHome, "beamng-map-generator", "terrain")
	}
}
