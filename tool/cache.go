package tool

import (
	"container/list"
	"sync"
)

// embedCache is an LRU of query embeddings; a nil cache is disabled.
type embedCache struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List
	items map[string]*list.Element
}

type embedEntry struct {
	key string
	vec []float32
}

func newEmbedCache(capacity int) *embedCache {
	if capacity <= 0 {
		return nil
	}
	return &embedCache{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *embedCache) Get(key string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return cloneVec(el.Value.(*embedEntry).vec), true
}

func (c *embedCache) Add(key string, vec []float32) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*embedEntry).vec = cloneVec(vec)
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&embedEntry{key: key, vec: cloneVec(vec)})
	if c.ll.Len() > c.cap {
		if back := c.ll.Back(); back != nil {
			c.ll.Remove(back)
			delete(c.items, back.Value.(*embedEntry).key)
		}
	}
}

func (c *embedCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func cloneVec(vec []float32) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
