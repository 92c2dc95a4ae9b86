// Package config defines the resolver's own configuration schema
// (workspace/resolution/interpolation/cache/sources) and loads it from
// TOML, YAML, or JSON, auto-detecting format the same way the rest of
// this family of tools does: by extension, then by content sniffing.
package config

import (
	"time"

	"github.com/lixenwraith/envres/workspace/provider"
)

// WorkspaceConfig configures monorepo discovery.
type WorkspaceConfig struct {
	Root      string         `mapstructure:"root"`
	Provider  *provider.Type `mapstructure:"provider"`
	Roots     []string       `mapstructure:"roots"`
	Cascading bool           `mapstructure:"cascading"`
	EnvFiles  []string       `mapstructure:"env_files"`
	Ignores   []string       `mapstructure:"ignores"`
}

// FilesConfig configures how multiple File sources merge.
type FilesConfig struct {
	Mode  string   `mapstructure:"mode"` // "merge" or "override"
	Order []string `mapstructure:"order"`
}

// ResolutionConfig configures precedence and file merge behavior.
type ResolutionConfig struct {
	Precedence []string    `mapstructure:"precedence"`
	Files      FilesConfig `mapstructure:"files"`
	TypeCheck  bool        `mapstructure:"type_check"`
}

// InterpolationFeatures toggles substitution syntax.
type InterpolationFeatures struct {
	Defaults   bool `mapstructure:"defaults"`
	Alternates bool `mapstructure:"alternates"`
	Recursion  bool `mapstructure:"recursion"`
	Commands   bool `mapstructure:"commands"`
}

// InterpolationConfig configures ${VAR} expansion.
type InterpolationConfig struct {
	Enabled  bool                  `mapstructure:"enabled"`
	MaxDepth uint32                `mapstructure:"max_depth"`
	Features InterpolationFeatures `mapstructure:"features"`
}

// CacheConfig configures the resolution cache.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	HotCacheSize int           `mapstructure:"hot_cache_size"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// SourceDefaults toggles which built-in source types are registered by
// default.
type SourceDefaults struct {
	Shell  bool `mapstructure:"shell"`
	File   bool `mapstructure:"file"`
	Remote bool `mapstructure:"remote"`
}

// SourcesConfig configures source registration defaults.
type SourcesConfig struct {
	Defaults SourceDefaults `mapstructure:"defaults"`
}

// Config is the full configuration tree, deserialized from a user
// supplied TOML/YAML/JSON document.
type Config struct {
	Workspace     WorkspaceConfig     `mapstructure:"workspace"`
	Resolution    ResolutionConfig    `mapstructure:"resolution"`
	Interpolation InterpolationConfig `mapstructure:"interpolation"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Sources       SourcesConfig       `mapstructure:"sources"`
}

// Default returns the configuration defaults specified for this schema.
func Default() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Cascading: false,
			EnvFiles:  []string{".env", ".env.local", ".env.development", ".env.production"},
		},
		Resolution: ResolutionConfig{
			Precedence: []string{"shell", "file"},
			Files:      FilesConfig{Mode: "merge"},
			TypeCheck:  true,
		},
		Interpolation: InterpolationConfig{
			Enabled:  true,
			MaxDepth: 64,
			Features: InterpolationFeatures{Defaults: true, Alternates: true, Recursion: true},
		},
		Cache: CacheConfig{
			Enabled:      true,
			HotCacheSize: 1000,
			TTL:          300 * time.Second,
		},
		Sources: SourcesConfig{
			Defaults: SourceDefaults{Shell: true, File: true, Remote: false},
		},
	}
}
