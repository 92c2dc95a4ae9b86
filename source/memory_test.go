package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/source"
)

func TestMemorySource(t *testing.T) {
	t.Run("Set And Load", func(t *testing.T) {
		m := source.NewMemorySource()
		m.Set("FOO", "bar")
		snap, err := m.Load()
		require.NoError(t, err)
		require.Len(t, snap.Variables, 1)
		assert.Equal(t, "FOO", snap.Variables[0].Key)
		assert.Equal(t, "bar", snap.Variables[0].RawValue)
	})

	t.Run("Insertion Order Preserved", func(t *testing.T) {
		m := source.NewMemorySource()
		m.Set("B", "2")
		m.Set("A", "1")
		snap, err := m.Load()
		require.NoError(t, err)
		require.Len(t, snap.Variables, 2)
		assert.Equal(t, "B", snap.Variables[0].Key)
		assert.Equal(t, "A", snap.Variables[1].Key)
	})

	t.Run("Remove Drops Key", func(t *testing.T) {
		m := source.NewMemorySource()
		m.Set("FOO", "bar")
		m.Remove("FOO")
		snap, err := m.Load()
		require.NoError(t, err)
		assert.Empty(t, snap.Variables)
	})

	t.Run("Remove Missing Key Does Not Bump Version", func(t *testing.T) {
		m := source.NewMemorySource()
		before, _ := m.Load()
		m.Remove("NOPE")
		after, _ := m.Load()
		assert.Equal(t, *before.Version, *after.Version)
	})

	t.Run("Clear Empties Store", func(t *testing.T) {
		m := source.NewMemorySource()
		m.Set("FOO", "bar")
		m.Clear()
		snap, err := m.Load()
		require.NoError(t, err)
		assert.Empty(t, snap.Variables)
	})

	t.Run("HasChanged Always True", func(t *testing.T) {
		m := source.NewMemorySource()
		changed, err := m.HasChanged()
		require.NoError(t, err)
		assert.True(t, changed)
	})
}
