package pathcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/pathcache"
)

func TestCache(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.env")
	require.NoError(t, os.WriteFile(file, []byte("A=1\n"), 0o644))

	t.Run("Canonicalize Resolves Existing Path", func(t *testing.T) {
		c := pathcache.New()
		got := c.Canonicalize(file)
		want, err := filepath.EvalSymlinks(file)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Repeated Lookups Hit Cache", func(t *testing.T) {
		c := pathcache.New()
		c.Canonicalize(file)
		c.Canonicalize(file)
		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.Misses)
		assert.Equal(t, uint64(1), stats.Hits)
	})

	t.Run("Nonexistent Path Falls Back Unchanged", func(t *testing.T) {
		c := pathcache.New()
		missing := filepath.Join(dir, "does-not-exist.env")
		got := c.Canonicalize(missing)
		assert.Equal(t, missing, got)
		assert.Equal(t, uint64(1), c.Stats().Errors)
	})

	t.Run("Invalidate Forces Recompute", func(t *testing.T) {
		c := pathcache.New()
		c.Canonicalize(file)
		c.Invalidate(file)
		c.Canonicalize(file)
		assert.Equal(t, uint64(2), c.Stats().Misses)
	})

	t.Run("Clear Resets Stats And Entries", func(t *testing.T) {
		c := pathcache.New()
		c.Canonicalize(file)
		c.Clear()
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, pathcache.Stats{}, c.Stats())
	})

	t.Run("HitRate Is Zero With No Lookups", func(t *testing.T) {
		c := pathcache.New()
		assert.Equal(t, float64(0), c.HitRate())
	})
}
