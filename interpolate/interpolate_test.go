package interpolate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/interpolate"
)

func TestFindReferences(t *testing.T) {
	t.Run("Simple Reference", func(t *testing.T) {
		refs := interpolate.FindReferences("${BASE} world")
		require.Len(t, refs, 1)
		assert.Equal(t, "BASE", refs[0].Key)
	})

	t.Run("Default Value Syntax", func(t *testing.T) {
		refs := interpolate.FindReferences("${MISSING:-fallback}")
		require.Len(t, refs, 1)
		require.NotNil(t, refs[0].DefaultValue)
		assert.Equal(t, "fallback", *refs[0].DefaultValue)
	})

	t.Run("Alternate Value Syntax", func(t *testing.T) {
		refs := interpolate.FindReferences("${SET:+alt}")
		require.Len(t, refs, 1)
		require.NotNil(t, refs[0].Alternate)
		assert.Equal(t, "alt", *refs[0].Alternate)
	})

	t.Run("Nested Braces In Default", func(t *testing.T) {
		refs := interpolate.FindReferences("${A:-${B}}")
		require.Len(t, refs, 1)
		assert.Equal(t, "A", refs[0].Key)
	})

	t.Run("No References", func(t *testing.T) {
		refs := interpolate.FindReferences("plain value")
		assert.Empty(t, refs)
	})
}

func TestExpand(t *testing.T) {
	features := interpolate.Features{Defaults: true, Alternates: true, Recursion: true}

	lookup := func(values map[string]string) interpolate.Lookup {
		return func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		}
	}

	t.Run("Basic Substitution", func(t *testing.T) {
		got := interpolate.Expand("${BASE} world", features, lookup(map[string]string{"BASE": "hello"}))
		assert.Equal(t, "hello world", got)
	})

	t.Run("Unresolved Reference Left Literal", func(t *testing.T) {
		got := interpolate.Expand("${MISSING}", features, lookup(map[string]string{}))
		assert.Equal(t, "${MISSING}", got)
	})

	t.Run("Default Applied When Missing", func(t *testing.T) {
		got := interpolate.Expand("${MISSING:-fallback}", features, lookup(map[string]string{}))
		assert.Equal(t, "fallback", got)
	})

	t.Run("Default Ignored When Feature Disabled", func(t *testing.T) {
		off := interpolate.Features{}
		got := interpolate.Expand("${MISSING:-fallback}", off, lookup(map[string]string{}))
		assert.Equal(t, "${MISSING:-fallback}", got)
	})

	t.Run("Alternate Applied When Set But Empty", func(t *testing.T) {
		got := interpolate.Expand("${SET:+alt}", features, lookup(map[string]string{"SET": ""}))
		assert.Equal(t, "alt", got)
	})

	t.Run("Alternate Not Applied When Set Non Empty", func(t *testing.T) {
		got := interpolate.Expand("${SET:+alt}", features, lookup(map[string]string{"SET": "value"}))
		assert.Equal(t, "value", got)
	})
}
