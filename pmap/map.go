package pmap

import "iter"

// Entry is a key and value in a Map.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an immutable, insertion-ordered mapping from keys to values.
// The zero value is an empty map using SameValueZero.
type Map[K comparable, V any] struct {
	entries []Entry[K, V]
	index   map[K]int
	equal   func(a, b V) bool
}

// New returns an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// NewWithEqual returns an empty map that compares values with the
// given function instead of SameValueZero.
func NewWithEqual[K comparable, V any](equal func(a, b V) bool) *Map[K, V] {
	return &Map[K, V]{equal: equal}
}

// FromEntries builds a map from the given entries, as if by SetAll on
// an empty map.
func FromEntries[K comparable, V any](entries ...Entry[K, V]) *Map[K, V] {
	return New[K, V]().SetAll(entries...)
}

func (m *Map[K, V]) eq(a, b V) bool {
	if m != nil && m.equal != nil {
		return m.equal(a, b)
	}
	return SameValueZero(a, b)
}

// xcopy copies the map with room for extra more entries; the result
// may be modified freely since nothing else refers to it.
func (m *Map[K, V]) xcopy(extra int) *Map[K, V] {
	n := &Map[K, V]{
		entries: make([]Entry[K, V], len(m.entries), len(m.entries)+extra),
		index:   make(map[K]int, len(m.entries)+extra),
		equal:   m.equal,
	}
	copy(n.entries, m.entries)
	for k, i := range m.index {
		n.index[k] = i
	}
	return n
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value for key, or the zero value if key is absent.
func (m *Map[K, V]) Get(key K) V {
	v, _ := m.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it is present.
func (m *Map[K, V]) Lookup(key K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Set returns a map with key associated with value. If key already
// has an equal value, m itself is returned.
func (m *Map[K, V]) Set(key K, value V) *Map[K, V] {
	if m == nil {
		m = New[K, V]()
	}
	if i, ok := m.index[key]; ok {
		if m.eq(m.entries[i].Value, value) {
			return m
		}
		n := m.xcopy(0)
		n.entries[i].Value = value
		return n
	}
	n := m.xcopy(1)
	n.index[key] = len(n.entries)
	n.entries = append(n.entries, Entry[K, V]{key, value})
	return n
}

// SetAll returns a map with every pair applied. When a key appears more
// than once, the last value wins and the key takes the position of its
// first appearance. If no pair changes anything, m itself is returned.
func (m *Map[K, V]) SetAll(pairs ...Entry[K, V]) *Map[K, V] {
	if m == nil {
		m = New[K, V]()
	}
	var n *Map[K, V]
	for _, p := range dedupe(pairs) {
		cur := m
		if n != nil {
			cur = n
		}
		if i, ok := cur.index[p.Key]; ok {
			if cur.eq(cur.entries[i].Value, p.Value) {
				continue
			}
			if n == nil {
				n = m.xcopy(len(pairs))
			}
			n.entries[i].Value = p.Value
			continue
		}
		if n == nil {
			n = m.xcopy(len(pairs))
		}
		n.index[p.Key] = len(n.entries)
		n.entries = append(n.entries, p)
	}
	if n == nil {
		return m
	}
	return n
}

// Delete returns a map without key. If key is absent, m itself is
// returned.
func (m *Map[K, V]) Delete(key K) *Map[K, V] {
	return m.DeleteAll(key)
}

// DeleteAll returns a map without any of keys. If none are present, m
// itself is returned.
func (m *Map[K, V]) DeleteAll(keys ...K) *Map[K, V] {
	var doomed map[K]struct{}
	for _, k := range keys {
		if !m.Has(k) {
			continue
		}
		if doomed == nil {
			doomed = make(map[K]struct{}, len(keys))
		}
		doomed[k] = struct{}{}
	}
	if doomed == nil {
		return m
	}
	n := &Map[K, V]{
		entries: make([]Entry[K, V], 0, len(m.entries)-len(doomed)),
		index:   make(map[K]int, len(m.entries)-len(doomed)),
		equal:   m.equal,
	}
	for _, e := range m.entries {
		if _, ok := doomed[e.Key]; ok {
			continue
		}
		n.index[e.Key] = len(n.entries)
		n.entries = append(n.entries, e)
	}
	return n
}

// Rekey returns a map where oldKey is replaced by newKey, keeping its
// position and value. If oldKey is absent, newKey is already present,
// or the two are equal, m itself is returned.
func (m *Map[K, V]) Rekey(oldKey, newKey K) *Map[K, V] {
	if m == nil || oldKey == newKey || m.Has(newKey) {
		return m
	}
	i, ok := m.index[oldKey]
	if !ok {
		return m
	}
	n := m.xcopy(0)
	n.entries[i].Key = newKey
	delete(n.index, oldKey)
	n.index[newKey] = i
	return n
}

// All returns an iterator over entries in insertion order. The
// iterator may be used any number of times.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Keys returns an iterator over keys in insertion order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an iterator over values in insertion order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries in insertion order.
func (m *Map[K, V]) Entries() []Entry[K, V] {
	if m == nil {
		return nil
	}
	return append([]Entry[K, V](nil), m.entries...)
}

// dedupe collapses repeated keys so the last value wins, in order of
// first appearance.
func dedupe[K comparable, V any](pairs []Entry[K, V]) []Entry[K, V] {
	if len(pairs) < 2 {
		return pairs
	}
	seen := make(map[K]int, len(pairs))
	out := make([]Entry[K, V], 0, len(pairs))
	for _, p := range pairs {
		if i, ok := seen[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}
		seen[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
