// Package interpolate implements the template expander the resolution
// engine calls through Expand and FindReferences: ${VAR},
// ${VAR:-default} and ${VAR:+alternate} substitution, plus reference
// extraction used by the dependency graph to discover what a value
// depends on before any substitution happens.
package interpolate

import (
	"strings"
)

// Features toggles which substitution forms are honored, mirroring the
// interpolation.features configuration block.
type Features struct {
	Defaults   bool
	Alternates bool
	Recursion  bool
	Commands   bool
}

// Reference is one ${...} token found in a value.
type Reference struct {
	Key          string
	Start, End   int // byte range of the whole ${...} token
	DefaultValue *string // set for ${VAR:-default}
	Alternate    *string // set for ${VAR:+alternate}
}

// FindReferences scans value for ${...} tokens without performing any
// substitution. Used by the dependency graph builder to discover edges.
func FindReferences(value string) []Reference {
	var refs []Reference
	i := 0
	for {
		start := strings.Index(value[i:], "${")
		if start < 0 {
			break
		}
		start += i
		end := matchingBrace(value, start+2)
		if end < 0 {
			break
		}
		inner := value[start+2 : end]
		refs = append(refs, parseToken(inner, start, end+1))
		i = end + 1
	}
	return refs
}

func matchingBrace(s string, from int) int {
	depth := 1
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func parseToken(inner string, start, end int) Reference {
	if idx := strings.Index(inner, ":-"); idx >= 0 {
		def := inner[idx+2:]
		return Reference{Key: inner[:idx], Start: start, End: end, DefaultValue: &def}
	}
	if idx := strings.Index(inner, ":+"); idx >= 0 {
		alt := inner[idx+2:]
		return Reference{Key: inner[:idx], Start: start, End: end, Alternate: &alt}
	}
	return Reference{Key: inner, Start: start, End: end}
}

// Lookup resolves a single variable's value. Expand calls it once per
// reference; whether a referenced value's own references are expanded
// is up to the Lookup (the resolution engine's Lookup does so only when
// Features.Recursion is enabled, bounded by its own depth check, not
// this package's).
type Lookup func(key string) (string, bool)

// Expand substitutes every ${...} token in value using lookup. An
// unresolved reference is left as the literal, unexpanded token — this
// package never errors on a missing variable; it is the caller's choice
// whether that's surprising enough to warn about.
func Expand(value string, features Features, lookup Lookup) string {
	refs := FindReferences(value)
	if len(refs) == 0 {
		return value
	}

	var b strings.Builder
	last := 0
	for _, ref := range refs {
		b.WriteString(value[last:ref.Start])

		resolved, ok := lookup(ref.Key)
		switch {
		case ok && resolved != "":
			b.WriteString(resolved)
		case ok && resolved == "" && ref.Alternate != nil && features.Alternates:
			b.WriteString(*ref.Alternate)
		case ok:
			b.WriteString(resolved)
		case !ok && ref.DefaultValue != nil && features.Defaults:
			b.WriteString(*ref.DefaultValue)
		default:
			// Leave the literal token unresolved.
			b.WriteString(value[ref.Start:ref.End])
		}
		last = ref.End
	}
	b.WriteString(value[last:])
	return b.String()
}
