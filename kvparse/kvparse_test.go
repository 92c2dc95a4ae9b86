package kvparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/kvparse"
)

func TestDefaultParser(t *testing.T) {
	p := kvparse.Default{}

	t.Run("Basic KeyValue", func(t *testing.T) {
		entries, err := p.Parse("FOO=bar\nBAZ=qux\n")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "FOO", entries[0].Key)
		assert.Equal(t, "bar", entries[0].Value)
		assert.Equal(t, "BAZ", entries[1].Key)
		assert.Equal(t, "qux", entries[1].Value)
	})

	t.Run("Comments Are Returned As Comment Entries", func(t *testing.T) {
		entries, err := p.Parse("# a comment\nFOO=bar\n")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].IsComment)
		assert.False(t, entries[1].IsComment)
	})

	t.Run("Export Prefix", func(t *testing.T) {
		entries, err := p.Parse("export FOO=bar\n")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "FOO", entries[0].Key)
		assert.Equal(t, "bar", entries[0].Value)
	})

	t.Run("Double Quoted Escapes", func(t *testing.T) {
		entries, err := p.Parse(`FOO="line1\nline2"` + "\n")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "line1\nline2", entries[0].Value)
	})

	t.Run("Single Quoted Verbatim", func(t *testing.T) {
		entries, err := p.Parse(`FOO='raw \n value'` + "\n")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, `raw \n value`, entries[0].Value)
	})

	t.Run("Trailing Inline Comment Stripped On Unquoted", func(t *testing.T) {
		entries, err := p.Parse("FOO=bar # trailing comment\n")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "bar", entries[0].Value)
	})

	t.Run("Offsets Track Byte Position", func(t *testing.T) {
		entries, err := p.Parse("A=1\nB=2\n")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 0, entries[0].Offset)
		assert.Equal(t, 4, entries[1].Offset)
	})
}
