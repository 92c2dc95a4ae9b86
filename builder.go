package envres

import (
	"fmt"
	"time"

	"github.com/lixenwraith/envres/config"
	"github.com/lixenwraith/envres/events"
	"github.com/lixenwraith/envres/interpolate"
	"github.com/lixenwraith/envres/pathcache"
	"github.com/lixenwraith/envres/resolution"
	"github.com/lixenwraith/envres/selection"
	"github.com/lixenwraith/envres/source"
	"github.com/lixenwraith/envres/watch"
	"github.com/lixenwraith/envres/workspace"
	"github.com/lixenwraith/envres/workspace/provider"
)

// Builder assembles a Resolver via a fluent API, capturing the first
// setter error it sees and returning it from Build rather than failing
// each With* call individually.
type Builder struct {
	root          string
	cfg           config.Config
	customSources []source.Source
	subscribers   []events.Subscriber
	eventBuffer   int
	watchEnabled  bool
	watchOpts     watch.Options
	globalActive  []string
	dirActive     map[string][]string

	err error
}

// NewBuilder starts a Builder with schema defaults.
func NewBuilder() *Builder {
	return &Builder{
		cfg:       config.Default(),
		dirActive: make(map[string][]string),
		watchOpts: watch.DefaultOptions(),
	}
}

// WithRoot sets the workspace root directory.
func (b *Builder) WithRoot(root string) *Builder {
	b.root = root
	return b
}

// WithProvider pins an explicit monorepo provider, skipping
// auto-detection.
func (b *Builder) WithProvider(p provider.Type) *Builder {
	b.cfg.Workspace.Provider = &p
	return b
}

// WithRoots sets the custom provider's root glob patterns.
func (b *Builder) WithRoots(roots []string) *Builder {
	b.cfg.Workspace.Roots = roots
	return b
}

// WithCascading toggles workspace-root-to-package-root env file
// cascading.
func (b *Builder) WithCascading(cascading bool) *Builder {
	b.cfg.Workspace.Cascading = cascading
	return b
}

// WithEnvFiles overrides the candidate env-file pattern list.
func (b *Builder) WithEnvFiles(patterns []string) *Builder {
	b.cfg.Workspace.EnvFiles = patterns
	return b
}

// WithIgnores sets glob patterns pruned from discovered packages.
func (b *Builder) WithIgnores(patterns []string) *Builder {
	b.cfg.Workspace.Ignores = patterns
	return b
}

// WithPrecedence sets which classified source types ("shell", "file",
// "remote") take part in resolution.
func (b *Builder) WithPrecedence(order []string) *Builder {
	b.cfg.Resolution.Precedence = order
	return b
}

// WithInterpolation sets the interpolation feature toggles and max
// depth.
func (b *Builder) WithInterpolation(features interpolate.Features, maxDepth uint32) *Builder {
	b.cfg.Interpolation.Features = config.InterpolationFeatures{
		Defaults:   features.Defaults,
		Alternates: features.Alternates,
		Recursion:  features.Recursion,
		Commands:   features.Commands,
	}
	b.cfg.Interpolation.MaxDepth = maxDepth
	return b
}

// WithCacheSize sets the hot-tier cache capacity.
func (b *Builder) WithCacheSize(size int) *Builder {
	b.cfg.Cache.HotCacheSize = size
	return b
}

// WithCacheTTL sets the TTL-tier expiry.
func (b *Builder) WithCacheTTL(ttl time.Duration) *Builder {
	b.cfg.Cache.TTL = ttl
	return b
}

// WithSourceDefaults toggles which built-in source types are registered.
func (b *Builder) WithSourceDefaults(defaults config.SourceDefaults) *Builder {
	b.cfg.Sources.Defaults = defaults
	return b
}

// WithSource registers a custom, already-constructed Source.
func (b *Builder) WithSource(s source.Source) *Builder {
	b.customSources = append(b.customSources, s)
	return b
}

// Subscribe registers a synchronous event subscriber.
func (b *Builder) Subscribe(s events.Subscriber) *Builder {
	b.subscribers = append(b.subscribers, s)
	return b
}

// WithEventBufferSize sets the channel buffer size used for pull-based
// event consumers.
func (b *Builder) WithEventBufferSize(n int) *Builder {
	b.eventBuffer = n
	return b
}

// WithFileWatch enables the file-watch manager.
func (b *Builder) WithFileWatch(opts watch.Options) *Builder {
	b.watchEnabled = true
	b.watchOpts = opts
	return b
}

// WithActiveFiles sets the global active-file glob patterns.
func (b *Builder) WithActiveFiles(patterns []string) *Builder {
	b.globalActive = patterns
	return b
}

// WithActiveFilesForDirectory sets a directory-scoped active-file
// override.
func (b *Builder) WithActiveFilesForDirectory(dir string, patterns []string) *Builder {
	b.dirActive[dir] = patterns
	return b
}

// Build assembles and returns the Resolver, or the first error recorded
// by a With* call.
func (b *Builder) Build() (*Resolver, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.root == "" {
		return nil, fmt.Errorf("envres: WithRoot is required")
	}

	paths := pathcache.New()
	root := paths.Canonicalize(b.root)

	wsCfg := workspace.Config{
		Provider:  b.cfg.Workspace.Provider,
		Roots:     b.cfg.Workspace.Roots,
		Cascading: b.cfg.Workspace.Cascading,
		EnvFiles:  b.cfg.Workspace.EnvFiles,
		Ignores:   b.cfg.Workspace.Ignores,
	}
	ws, err := workspace.New(root, wsCfg)
	if err != nil {
		return nil, fmt.Errorf("envres: building workspace: %w", err)
	}

	registry := source.NewRegistry()
	if b.cfg.Sources.Defaults.Shell {
		registry.Register(source.NewShellSource())
	}
	for _, s := range b.customSources {
		registry.Register(s)
	}

	bus := events.New(b.eventBuffer)
	for _, s := range b.subscribers {
		bus.Subscribe(s)
	}

	engine := resolution.NewEngine(registry, resolution.Options{
		FileOrder:    b.cfg.Resolution.Files.Order,
		Features:     interpolate.Features(b.cfg.Interpolation.Features),
		HotCacheSize: b.cfg.Cache.HotCacheSize,
		TTL:          b.cfg.Cache.TTL,
		Precedence:   b.cfg.Resolution.Precedence,
		TypeCheck:    b.cfg.Resolution.TypeCheck,
		MaxDepth:     int(b.cfg.Interpolation.MaxDepth),
	})

	var scopes []selection.Scope
	for dir, patterns := range b.dirActive {
		scopes = append(scopes, selection.Scope{Dir: dir, Patterns: patterns})
	}

	r := &Resolver{
		root:         root,
		cfg:          b.cfg,
		registry:     registry,
		ws:           ws,
		selector:     selection.New(),
		engine:       engine,
		bus:          bus,
		paths:        paths,
		scopes:       scopes,
		globalActive: b.globalActive,
	}

	if b.cfg.Sources.Defaults.File {
		if err := r.RediscoverFileSources(); err != nil {
			return nil, fmt.Errorf("envres: discovering file sources: %w", err)
		}
	}

	if b.watchEnabled {
		wm, err := watch.NewManager(registry, bus, b.watchOpts)
		if err != nil {
			return nil, fmt.Errorf("envres: starting file watcher: %w", err)
		}
		r.watchMgr = wm
		if b.cfg.Sources.Defaults.File {
			for _, p := range registry.RegisteredFilePaths() {
				_ = wm.WatchFile(p, source.ID("file:"+p))
			}
		}
	}

	return r, nil
}
