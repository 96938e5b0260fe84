package sync

import (
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultHashCacheSize = 16384
	// files modified this recently are always rehashed, a same-size rewrite within
	// one mtime tick would otherwise look unchanged
	racyWindow = 2 * time.Second
)

type cachedHash struct {
	size    int64
	modTime time.Time
	hash    string
}

// HashCache remembers content hashes by path, size and modification time so that
// repeated scans in one process only rehash files that changed on disk.
//
// A rewrite that keeps the size and restores the old mtime (rsync -t, touch -r) is
// not seen as a change until the entry is evicted or the process restarts. Only watch
// mode keeps a cache across rounds; a one-shot sync always hashes every file.
type HashCache struct {
	cache *lru.Cache[string, cachedHash]
	now   func() time.Time
}

func NewHashCache(size int) (*HashCache, error) {
	cache, err := lru.New[string, cachedHash](size)
	if err != nil {
		return nil, err
	}
	return &HashCache{cache: cache, now: time.Now}, nil
}

// Lookup returns the cached hash if the file still has the size and mtime it had when cached
func (c *HashCache) Lookup(path string, info os.FileInfo) (string, bool) {
	entry, ok := c.cache.Get(path)
	if !ok {
		return "", false
	}
	if entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		c.cache.Remove(path)
		return "", false
	}
	return entry.hash, true
}

func (c *HashCache) Store(path string, info os.FileInfo, hash string) {
	if c.now().Sub(info.ModTime()) < racyWindow {
		return
	}
	c.cache.Add(path, cachedHash{size: info.Size(), modTime: info.ModTime(), hash: hash})
}

func (c *HashCache) Len() int {
	return c.cache.Len()
}
