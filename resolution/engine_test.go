package resolution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/interpolate"
	"github.com/lixenwraith/envres/resolution"
	"github.com/lixenwraith/envres/source"
)

func newTestEngine(t *testing.T, sources ...source.Source) *resolution.Engine {
	t.Helper()
	return newTestEngineWithOptions(t, resolution.Options{
		Features:     interpolate.Features{Defaults: true, Recursion: true},
		HotCacheSize: 100,
		TTL:          time.Minute,
		Precedence:   []string{"shell", "file"},
		TypeCheck:    true,
	}, sources...)
}

func newTestEngineWithOptions(t *testing.T, opts resolution.Options, sources ...source.Source) *resolution.Engine {
	t.Helper()
	registry := source.NewRegistry()
	for _, s := range sources {
		registry.Register(s)
	}
	return resolution.NewEngine(registry, opts)
}

func TestEngineAllVariables(t *testing.T) {
	mem := source.NewMemorySource()
	mem.Set("GREETING", "hello")
	mem.Set("FULL", "${GREETING} world")
	engine := newTestEngine(t, mem)

	all, err := engine.AllVariables()
	require.NoError(t, err)

	values := make(map[string]string)
	for _, v := range all {
		values[v.Key] = v.Value
	}
	assert.Equal(t, "hello world", values["FULL"])
}

func TestEngineResolveCaches(t *testing.T) {
	mem := source.NewMemorySource()
	mem.Set("FOO", "bar")
	engine := newTestEngine(t, mem)

	hash := resolution.ContextHash("ctx")
	rv1, err := engine.Resolve("FOO", hash)
	require.NoError(t, err)
	assert.Equal(t, "bar", rv1.Value)

	mem.Set("FOO", "changed")
	rv2, err := engine.Resolve("FOO", hash)
	require.NoError(t, err)
	assert.Equal(t, "bar", rv2.Value, "cached value should not reflect the source mutation until invalidated")

	engine.InvalidateCache()
	rv3, err := engine.Resolve("FOO", hash)
	require.NoError(t, err)
	assert.Equal(t, "changed", rv3.Value)
}

func TestEngineResolveUndefined(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Resolve("MISSING", 0)
	assert.Error(t, err)
}

func TestEngineResolveDetectsCycle(t *testing.T) {
	mem := source.NewMemorySource()
	mem.Set("A", "${B}")
	mem.Set("B", "${A}")
	engine := newTestEngine(t, mem)

	_, err := engine.AllVariables()
	assert.Error(t, err)
}

func TestEnginePrecedenceFiltering(t *testing.T) {
	t.Run("Empty Precedence Returns No Variables", func(t *testing.T) {
		mem := source.NewMemorySource()
		mem.Set("FOO", "bar")
		engine := newTestEngineWithOptions(t, resolution.Options{
			Features:     interpolate.Features{Defaults: true, Recursion: true},
			HotCacheSize: 100,
			TTL:          time.Minute,
			TypeCheck:    true,
			// Precedence intentionally left empty.
		}, mem)

		all, err := engine.AllVariables()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Unclassifiable Source Passes Through When Precedence Non Empty", func(t *testing.T) {
		mem := source.NewMemorySource()
		mem.Set("FOO", "bar")
		engine := newTestEngineWithOptions(t, resolution.Options{
			Features:     interpolate.Features{Defaults: true, Recursion: true},
			HotCacheSize: 100,
			TTL:          time.Minute,
			TypeCheck:    true,
			Precedence:   []string{"shell"}, // "memory" is not listed
		}, mem)

		all, err := engine.AllVariables()
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "bar", all[0].Value)
	})
}

func TestEngineTypeCheckGate(t *testing.T) {
	t.Run("Disabled TypeCheck Skips Cycle Detection And Hits MaxDepth", func(t *testing.T) {
		mem := source.NewMemorySource()
		mem.Set("A", "${A}")
		engine := newTestEngineWithOptions(t, resolution.Options{
			Features:     interpolate.Features{Recursion: true},
			HotCacheSize: 100,
			TTL:          time.Minute,
			Precedence:   []string{"shell", "file"},
			TypeCheck:    false,
			MaxDepth:     4,
		}, mem)

		_, err := engine.Resolve("A", 0)
		require.Error(t, err)
		var depthErr *errs.MaxDepthExceededError
		require.ErrorAs(t, err, &depthErr)
		assert.Equal(t, "A", depthErr.Key)
		assert.Equal(t, 4, depthErr.Depth)
	})

	t.Run("Enabled TypeCheck Reports Cycle Instead", func(t *testing.T) {
		mem := source.NewMemorySource()
		mem.Set("A", "${A}")
		engine := newTestEngineWithOptions(t, resolution.Options{
			Features:     interpolate.Features{Recursion: true},
			HotCacheSize: 100,
			TTL:          time.Minute,
			Precedence:   []string{"shell", "file"},
			TypeCheck:    true,
			MaxDepth:     4,
		}, mem)

		_, err := engine.Resolve("A", 0)
		require.Error(t, err)
		var cyc *errs.CircularDependencyError
		assert.ErrorAs(t, err, &cyc)
	})
}

func TestContextHashDeterministic(t *testing.T) {
	h1 := resolution.ContextHash("a", "b")
	h2 := resolution.ContextHash("a", "b")
	h3 := resolution.ContextHash("a", "c")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
