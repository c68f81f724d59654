package fileio

import (
	"sync"

	"github.com/sirupsen/logrus"

	pimg "github.com/ironsheep/plate-preprocess/internal/imaging"
)

// Cache provides thread-safe caching of decoded buffers to avoid redundant disk reads.
//
// Buffers are keyed by the exact path string given to Load. Different paths to
// the same file (relative vs absolute) produce separate entries.
//
// Load hands out clones, so callers may run in-place filters such as
// imaging.Grayscale on the result without corrupting the cached copy.
//
// # Memory Management
//
// Cached buffers stay in memory until removed with Evict or Clear. Long-running
// servers handling many files should evict what they no longer need.
type Cache struct {
	mu      sync.RWMutex
	buffers map[string]*pimg.Buffer
	log     logrus.FieldLogger
}

// NewCache creates an empty cache. A nil logger disables logging.
func NewCache(log logrus.FieldLogger) *Cache {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Cache{
		buffers: make(map[string]*pimg.Buffer),
		log:     log,
	}
}

// Load returns a copy of the buffer for path, decoding it on first use.
func (c *Cache) Load(path string) (*pimg.Buffer, error) {
	c.mu.RLock()
	if b, ok := c.buffers[path]; ok {
		c.mu.RUnlock()
		c.log.WithField("path", path).Debug("cache hit")
		return b.Clone(), nil
	}
	c.mu.RUnlock()

	b, err := Decode(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.buffers[path] = b
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  b.Width,
		"height": b.Height,
	}).Debug("image decoded")

	return b.Clone(), nil
}

// Len returns the number of cached buffers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}

// Clear removes all buffers from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.buffers = make(map[string]*pimg.Buffer)
	c.mu.Unlock()
}

// Evict removes one path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.buffers, path)
	c.mu.Unlock()
}
