package pmap

import "iter"

// WithDefault is a Map where values equal to a fixed default are never
// stored. They do not count toward Len, and Get of a missing key
// returns the default.
type WithDefault[K comparable, V any] struct {
	m   *Map[K, V]
	def V
}

// NewWithDefault returns an empty map whose missing keys read as def.
func NewWithDefault[K comparable, V any](def V) *WithDefault[K, V] {
	return &WithDefault[K, V]{m: New[K, V](), def: def}
}

// NewWithDefaultEqual is NewWithDefault with a custom value equality,
// which is also used to recognize the default.
func NewWithDefaultEqual[K comparable, V any](def V, equal func(a, b V) bool) *WithDefault[K, V] {
	return &WithDefault[K, V]{m: NewWithEqual[K, V](equal), def: def}
}

func (d *WithDefault[K, V]) wrap(n *Map[K, V]) *WithDefault[K, V] {
	if n == d.m {
		return d
	}
	return &WithDefault[K, V]{m: n, def: d.def}
}

func (d *WithDefault[K, V]) isDefault(v V) bool {
	return d.m.eq(v, d.def)
}

// Default returns the value missing keys read as.
func (d *WithDefault[K, V]) Default() V {
	return d.def
}

// Len returns the number of stored (non-default) entries.
func (d *WithDefault[K, V]) Len() int {
	return d.m.Len()
}

// Get returns the value for key, or the default if key is absent.
func (d *WithDefault[K, V]) Get(key K) V {
	if v, ok := d.m.Lookup(key); ok {
		return v
	}
	return d.def
}

// Has reports whether key has a non-default value.
func (d *WithDefault[K, V]) Has(key K) bool {
	return d.m.Has(key)
}

// Set associates key with value; setting the default deletes key.
func (d *WithDefault[K, V]) Set(key K, value V) *WithDefault[K, V] {
	if d.isDefault(value) {
		return d.wrap(d.m.Delete(key))
	}
	return d.wrap(d.m.Set(key, value))
}

// SetAll applies every pair with the same last-pair-wins rule as
// Map.SetAll; pairs whose value is the default delete their key.
func (d *WithDefault[K, V]) SetAll(pairs ...Entry[K, V]) *WithDefault[K, V] {
	var sets []Entry[K, V]
	var deletes []K
	for _, p := range dedupe(pairs) {
		if d.isDefault(p.Value) {
			deletes = append(deletes, p.Key)
			continue
		}
		sets = append(sets, p)
	}
	n := d.m.SetAll(sets...).DeleteAll(deletes...)
	return d.wrap(n)
}

// Delete removes key. If key is absent, d itself is returned.
func (d *WithDefault[K, V]) Delete(key K) *WithDefault[K, V] {
	return d.wrap(d.m.Delete(key))
}

// DeleteAll removes every given key.
func (d *WithDefault[K, V]) DeleteAll(keys ...K) *WithDefault[K, V] {
	return d.wrap(d.m.DeleteAll(keys...))
}

// Rekey replaces oldKey by newKey in place; see Map.Rekey.
func (d *WithDefault[K, V]) Rekey(oldKey, newKey K) *WithDefault[K, V] {
	return d.wrap(d.m.Rekey(oldKey, newKey))
}

// All iterates over the stored entries in insertion order.
func (d *WithDefault[K, V]) All() iter.Seq2[K, V] {
	return d.m.All()
}

// Keys iterates over the stored keys in insertion order.
func (d *WithDefault[K, V]) Keys() iter.Seq[K] {
	return d.m.Keys()
}

// Values iterates over the stored values in insertion order.
func (d *WithDefault[K, V]) Values() iter.Seq[V] {
	return d.m.Values()
}

// Entries returns a copy of the stored entries.
func (d *WithDefault[K, V]) Entries() []Entry[K, V] {
	return d.m.Entries()
}
