// Package nsmap compresses URIs to short "alias:rest" forms.
//
// A Map associates short aliases with long URI prefixes. It is
// persistent: every edit returns a new Map, or the receiver itself if
// the edit changes nothing or is rejected. Aliases must match
// [a-zA-Z0-9_-]+; edits with an invalid alias are ignored.
//
//	ns := nsmap.Empty().Add("ex", "http://example.com/")
//	ns.Apply("http://example.com/page")  // "ex:page"
//	ns.Expand("ex:page")                  // "http://example.com/page"
//
// Each edit also has a Try form that returns why it was rejected.
package nsmap

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jrhy/statecore/pmap"
)

var (
	// ErrInvalidAlias means the alias does not match [a-zA-Z0-9_-]+.
	ErrInvalidAlias = errors.New("invalid alias")
	// ErrUnknownAlias means the alias is not in the map.
	ErrUnknownAlias = errors.New("unknown alias")
	// ErrAliasTaken means the new alias is already in the map.
	ErrAliasTaken = errors.New("alias already in use")
	// ErrInvalidPrefix means the long prefix is not valid UTF-8.
	ErrInvalidPrefix = errors.New("long prefix is not valid UTF-8")
)

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidAlias reports whether s can be used as an alias.
func ValidAlias(s string) bool {
	return aliasPattern.MatchString(s)
}

// Map is an immutable, ordered mapping from alias to long URI prefix.
// A nil *Map behaves as an empty one.
type Map struct {
	m *pmap.Map[string, string]
}

var empty = &Map{m: pmap.New[string, string]()}

// Empty returns the empty map.
func Empty() *Map {
	return empty
}

// FromMap builds a map from alias, long pairs, skipping pairs whose
// alias is invalid or whose long prefix is not valid UTF-8. A repeated alias keeps its first position and its
// last value.
func FromMap(pairs iter.Seq2[string, string]) *Map {
	var entries []pmap.Entry[string, string]
	for short, long := range pairs {
		if ValidAlias(short) && utf8.ValidString(long) {
			entries = append(entries, pmap.Entry[string, string]{Key: short, Value: long})
		}
	}
	return Empty().wrap(Empty().m.SetAll(entries...))
}

// FromPairs is FromMap over a slice of [alias, long] pairs.
func FromPairs(pairs [][2]string) *Map {
	return FromMap(func(yield func(string, string) bool) {
		for _, p := range pairs {
			if !yield(p[0], p[1]) {
				return
			}
		}
	})
}

func (m *Map) pm() *pmap.Map[string, string] {
	if m == nil {
		return empty.m
	}
	return m.m
}

func (m *Map) wrap(n *pmap.Map[string, string]) *Map {
	if n == m.pm() {
		return m
	}
	return &Map{m: n}
}

// Len returns the number of aliases.
func (m *Map) Len() int {
	return m.pm().Len()
}

// Lookup returns the long prefix for short.
func (m *Map) Lookup(short string) (string, bool) {
	return m.pm().Lookup(short)
}

// All iterates over alias, long pairs in insertion order.
func (m *Map) All() iter.Seq2[string, string] {
	return m.pm().All()
}

// Pairs returns the [alias, long] pairs in insertion order.
func (m *Map) Pairs() [][2]string {
	pairs := make([][2]string, 0, m.Len())
	for short, long := range m.All() {
		pairs = append(pairs, [2]string{short, long})
	}
	return pairs
}

// Equal reports whether m and o have the same pairs in the same order.
func (m *Map) Equal(o *Map) bool {
	if m.pm() == o.pm() {
		return true
	}
	if m.Len() != o.Len() {
		return false
	}
	a, b := m.pm().Entries(), o.pm().Entries()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String returns the pairs as "alias=long" separated by spaces.
func (m *Map) String() string {
	var sb strings.Builder
	for short, long := range m.All() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%s", short, long)
	}
	return sb.String()
}

// Add associates short with long, keeping the position of short if it
// is already present.
func (m *Map) Add(short, long string) *Map {
	n, _ := m.TryAdd(short, long)
	return n
}

// TryAdd is Add that reports ErrInvalidAlias or ErrInvalidPrefix.
func (m *Map) TryAdd(short, long string) (*Map, error) {
	if !ValidAlias(short) {
		return m, fmt.Errorf("add %q: %w", short, ErrInvalidAlias)
	}
	if !utf8.ValidString(long) {
		return m, fmt.Errorf("add %q: %w", short, ErrInvalidPrefix)
	}
	return m.wrap(m.pm().Set(short, long)), nil
}

// Update changes the long prefix of an existing alias.
func (m *Map) Update(short, long string) *Map {
	n, _ := m.TryUpdate(short, long)
	return n
}

// TryUpdate is Update that reports ErrUnknownAlias or ErrInvalidPrefix.
func (m *Map) TryUpdate(short, long string) (*Map, error) {
	if !m.pm().Has(short) {
		return m, fmt.Errorf("update %q: %w", short, ErrUnknownAlias)
	}
	if !utf8.ValidString(long) {
		return m, fmt.Errorf("update %q: %w", short, ErrInvalidPrefix)
	}
	return m.wrap(m.pm().Set(short, long)), nil
}

// Rename replaces alias short by newShort in place.
func (m *Map) Rename(short, newShort string) *Map {
	n, _ := m.TryRename(short, newShort)
	return n
}

// TryRename is Rename that reports ErrUnknownAlias, ErrAliasTaken or
// ErrInvalidAlias. Renaming an alias to itself is not an error.
func (m *Map) TryRename(short, newShort string) (*Map, error) {
	switch {
	case short == newShort:
		return m, nil
	case !m.pm().Has(short):
		return m, fmt.Errorf("rename %q: %w", short, ErrUnknownAlias)
	case m.pm().Has(newShort):
		return m, fmt.Errorf("rename %q to %q: %w", short, newShort, ErrAliasTaken)
	case !ValidAlias(newShort):
		return m, fmt.Errorf("rename %q to %q: %w", short, newShort, ErrInvalidAlias)
	}
	return m.wrap(m.pm().Rekey(short, newShort)), nil
}

// Remove deletes alias short.
func (m *Map) Remove(short string) *Map {
	n, _ := m.TryRemove(short)
	return n
}

// TryRemove is Remove that reports ErrUnknownAlias.
func (m *Map) TryRemove(short string) (*Map, error) {
	if !m.pm().Has(short) {
		return m, fmt.Errorf("remove %q: %w", short, ErrUnknownAlias)
	}
	return m.wrap(m.pm().Delete(short)), nil
}

// Apply abbreviates uri as alias:rest using the stored prefix that is
// greatest in plain string order among those uri starts with; the
// first one seen wins ties. uri is returned unchanged when no prefix
// matches.
func (m *Map) Apply(uri string) string {
	var alias, prefix string
	found := false
	for short, long := range m.All() {
		if !strings.HasPrefix(uri, long) {
			continue
		}
		if !found || long > prefix {
			alias, prefix, found = short, long, true
		}
	}
	if !found {
		return uri
	}
	return alias + ":" + uri[len(prefix):]
}

// Expand turns alias:rest back into long+rest. Input without a colon,
// or whose alias is unknown, is returned unchanged.
func (m *Map) Expand(curie string) string {
	short, rest, ok := strings.Cut(curie, ":")
	if !ok {
		return curie
	}
	long, ok := m.Lookup(short)
	if !ok {
		return curie
	}
	return long + rest
}
