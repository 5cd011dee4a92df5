package retired

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tracker remembers handles the pool destroyed recently, so a release of an
// already-retired handle can be told apart from a handle the pool never
// issued. Purely diagnostic; eviction loses nothing but log detail.
type Tracker struct {
	cache *lru.Cache[string, int64]
}

func New(size int) *Tracker {
	if size <= 0 {
		size = 128
	}
	cache, _ := lru.New[string, int64](size)
	return &Tracker{cache: cache}
}

func (t *Tracker) Record(id string) {
	t.cache.Add(id, time.Now().UnixNano())
}

func (t *Tracker) Seen(id string) bool {
	_, ok := t.cache.Get(id)
	return ok
}

func (t *Tracker) Len() int {
	return t.cache.Len()
}
