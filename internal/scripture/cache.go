package scripture

import (
	"strconv"
	"sync"
)

// Cache holds fetched chapters for the life of the process. Scripture text
// never changes, so nothing is evicted.
type Cache struct {
	mu       sync.RWMutex
	chapters map[string]*Chapter
}

// NewCache creates an empty chapter cache
func NewCache() *Cache {
	return &Cache{chapters: make(map[string]*Chapter)}
}

// Get returns the cached chapter, if any
func (c *Cache) Get(book string, chapter int) (*Chapter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ch, ok := c.chapters[cacheKey(book, chapter)]
	return ch, ok
}

// Put stores ch under its book and chapter
func (c *Cache) Put(ch *Chapter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chapters[cacheKey(ch.Book, ch.Chapter)] = ch
}

// Len returns the number of cached chapters
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chapters)
}

func cacheKey(book string, chapter int) string {
	return book + "-" + strconv.Itoa(chapter)
}
