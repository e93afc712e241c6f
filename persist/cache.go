package persist

import lru "github.com/hashicorp/golang-lru"

// Cache holds decoded snapshots by name. It is also used to avoid
// re-storing snapshots, so a Cache should not be shared between
// Snapshots with different stores.
type Cache interface {
	// Add adds a freshly saved or loaded snapshot.
	Add(key, value interface{})
	// Contains indicates the snapshot with the given name has already been persisted.
	Contains(key interface{}) bool
	// Get retrieves the decoded snapshot with the given name, if cached.
	Get(key interface{}) (value interface{}, ok bool)
}

// NewCache creates an ARC cache holding up to size snapshots.
func NewCache(size int) Cache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return cache
}
