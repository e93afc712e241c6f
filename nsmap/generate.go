package nsmap

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSeparators     = "/#"
	DefaultMaxAliasLength = 30
)

// GenerateOptions controls Generate. The zero value, or a nil pointer,
// means the defaults.
type GenerateOptions struct {
	// Separators are the characters a prefix may end with, default "/#".
	Separators string
	// Specials supplies preferred aliases: a prefix starting with one of
	// its long values gets that entry's alias.
	Specials *Map
	// MaxAliasLength truncates derived aliases, default 30. The "_n"
	// suffix added on collision comes after truncation, so a suffixed
	// alias can be longer.
	MaxAliasLength int
}

var (
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z0-9]+`)
)

// Generate derives a map from a set of URIs. Each URI contributes the
// prefix up to and including its last separator, unless that prefix is
// not valid UTF-8. Prefixes that extend another retained prefix are
// dropped, so no retained long value is a prefix of another. Aliases come from Specials or from the first
// word of the prefix after its scheme, with "_1", "_2", ... appended on
// collision.
func Generate(uris []string, opts *GenerateOptions) *Map {
	o := opts.withDefaults()
	var prefixes []string
	for _, uri := range uris {
		i := strings.LastIndexAny(uri, o.Separators)
		if i < 0 {
			continue
		}
		_, size := utf8.DecodeRuneInString(uri[i:])
		prefix := uri[:i+size]
		if !utf8.ValidString(prefix) {
			continue
		}
		prefixes = addPrefix(prefixes, prefix)
	}

	used := make(map[string]bool, len(prefixes))
	collisions := make(map[string]int)
	entries := make([][2]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		base := o.alias(prefix)
		alias := base
		for used[alias] {
			collisions[base]++
			alias = base + "_" + strconv.Itoa(collisions[base])
		}
		used[alias] = true
		entries = append(entries, [2]string{alias, prefix})
	}
	return FromPairs(entries)
}

func (o *GenerateOptions) withDefaults() GenerateOptions {
	var r GenerateOptions
	if o != nil {
		r = *o
	}
	if r.Separators == "" {
		r.Separators = DefaultSeparators
	}
	if r.MaxAliasLength <= 0 {
		r.MaxAliasLength = DefaultMaxAliasLength
	}
	return r
}

// addPrefix keeps prefixes free of pairs where one is a prefix of the
// other, the shorter one winning.
func addPrefix(prefixes []string, candidate string) []string {
	for _, p := range prefixes {
		if strings.HasPrefix(candidate, p) {
			return prefixes
		}
	}
	kept := prefixes[:0]
	for _, p := range prefixes {
		if !strings.HasPrefix(p, candidate) {
			kept = append(kept, p)
		}
	}
	return append(kept, candidate)
}

func (o GenerateOptions) alias(prefix string) string {
	rest := schemePattern.ReplaceAllString(prefix, "")
	alias := o.special(prefix, rest)
	if alias == "" {
		alias = "prefix"
		for _, w := range wordPattern.FindAllString(rest, -1) {
			if w != "www" {
				alias = w
				break
			}
		}
	}
	if len(alias) > o.MaxAliasLength {
		alias = alias[:o.MaxAliasLength]
	}
	return alias
}

func (o GenerateOptions) special(prefix, rest string) string {
	for short, long := range o.Specials.All() {
		if long == "" {
			continue
		}
		if strings.HasPrefix(rest, long) || strings.HasPrefix(prefix, long) {
			return short
		}
	}
	return ""
}
