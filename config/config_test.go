package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/config"
	"github.com/lixenwraith/envres/errs"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, []string{".env", ".env.local", ".env.development", ".env.production"}, cfg.Workspace.EnvFiles)
	assert.Equal(t, []string{"shell", "file"}, cfg.Resolution.Precedence)
	assert.Equal(t, uint32(64), cfg.Interpolation.MaxDepth)
	assert.Equal(t, 1000, cfg.Cache.HotCacheSize)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Resolution.TypeCheck)
}

func TestLoad(t *testing.T) {
	t.Run("TOML By Extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "envres.toml")
		require.NoError(t, os.WriteFile(p, []byte(`
[cache]
hot_cache_size = 50
ttl = "10s"
`), 0o644))

		cfg, err := config.Load(p)
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Cache.HotCacheSize)
		assert.Equal(t, 10*time.Second, cfg.Cache.TTL)
	})

	t.Run("YAML By Extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "envres.yaml")
		require.NoError(t, os.WriteFile(p, []byte("resolution:\n  type_check: false\n"), 0o644))

		cfg, err := config.Load(p)
		require.NoError(t, err)
		assert.False(t, cfg.Resolution.TypeCheck)
	})

	t.Run("JSON By Extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "envres.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"workspace": {"cascading": true}}`), 0o644))

		cfg, err := config.Load(p)
		require.NoError(t, err)
		assert.True(t, cfg.Workspace.Cascading)
	})

	t.Run("Content Sniffing Without Recognized Extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "envresrc")
		require.NoError(t, os.WriteFile(p, []byte(`{"cache": {"hot_cache_size": 7}}`), 0o644))

		cfg, err := config.Load(p)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Cache.HotCacheSize)
	})

	t.Run("Missing File Returns Sentinel Error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.ErrorIs(t, err, errs.ErrConfigNotFound)
	})

	t.Run("Unparseable File Returns ConfigError", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(p, []byte("not = valid = toml ["), 0o644))

		_, err := config.Load(p)
		assert.Error(t, err)
	})
}
