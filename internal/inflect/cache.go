package inflect

import "sync"

// CachedStore memoizes lookups of a wrapped store, including misses.
// Use it in front of stores whose data does not change at runtime;
// entries are never invalidated.
type CachedStore struct {
	store FormStore
	cache sync.Map // lemma+"\x00"+tag -> cached
}

type cached struct {
	form string
	ok   bool
}

// NewCached wraps store with a lookup cache.
func NewCached(store FormStore) *CachedStore {
	return &CachedStore{store: store}
}

// Lookup implements FormStore.
func (c *CachedStore) Lookup(lemma, tag string) (string, bool) {
	key := lemma + "\x00" + tag
	if v, ok := c.cache.Load(key); ok {
		e := v.(cached)
		return e.form, e.ok
	}
	form, ok := c.store.Lookup(lemma, tag)
	c.cache.Store(key, cached{form: form, ok: ok})
	return form, ok
}
