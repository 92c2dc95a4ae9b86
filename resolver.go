// Package envres is the top-level facade: it assembles a source
// registry, workspace manager, active-file selector, resolution engine,
// event bus, and optional file watcher into one Resolver, the single
// entry point external callers use.
package envres

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/lixenwraith/envres/config"
	"github.com/lixenwraith/envres/events"
	"github.com/lixenwraith/envres/pathcache"
	"github.com/lixenwraith/envres/resolution"
	"github.com/lixenwraith/envres/selection"
	"github.com/lixenwraith/envres/source"
	"github.com/lixenwraith/envres/watch"
	"github.com/lixenwraith/envres/workspace"
)

// RefreshOptions controls which source families Refresh reloads. When a
// family's flag is true, each of its sources is refreshed (Refresh if it
// has one, else Invalidate); when false, that family's sources are left
// as they are. Sources of other kinds (memory, custom) are always
// refreshed. PreservePrecedence is not consulted by Refresh.
type RefreshOptions struct {
	PreserveFileConfig   bool
	PreserveShellConfig  bool
	PreserveRemoteConfig bool
	PreservePrecedence   bool
}

// ResolverStats reports point-in-time diagnostics across the Resolver's
// components.
type ResolverStats struct {
	SourceCount      int
	CacheSize        int
	CacheEmpty       bool
	PathCacheHitRate float64
	EventSubscribers int
	PackageCount     int
}

// Resolver is the assembled, queryable system.
type Resolver struct {
	root     string
	cfg      config.Config
	registry *source.Registry
	ws       *workspace.Manager
	selector *selection.Selector
	engine   *resolution.Engine
	bus      *events.Bus
	watchMgr *watch.Manager
	paths    *pathcache.Cache

	scopes       []selection.Scope
	globalActive []string
}

// GetForFile resolves key from the perspective of filePath: the active
// files for that location gate which File sources contribute.
func (r *Resolver) GetForFile(key, filePath string) (*resolution.ResolvedVariable, error) {
	filter, hash, err := r.filterForFile(filePath)
	if err != nil {
		return nil, err
	}
	return r.engine.ResolveWithFilter(key, hash, filter)
}

// AllForFile is GetForFile's all-variables analogue.
func (r *Resolver) AllForFile(filePath string) ([]resolution.ResolvedVariable, error) {
	filter, _, err := r.filterForFile(filePath)
	if err != nil {
		return nil, err
	}
	return r.engine.AllVariablesWithFilter(filter)
}

// GetInContext resolves key directly against contextHash, with no
// per-file active-file filtering.
func (r *Resolver) GetInContext(key string, contextHash uint64) (*resolution.ResolvedVariable, error) {
	return r.engine.Resolve(key, contextHash)
}

// AllInContext is GetInContext's all-variables analogue.
func (r *Resolver) AllInContext() ([]resolution.ResolvedVariable, error) {
	return r.engine.AllVariables()
}

func (r *Resolver) filterForFile(filePath string) (map[source.ID]bool, uint64, error) {
	ctx := r.ws.ContextForFile(filePath)
	if ctx == nil {
		return nil, resolution.ContextHash(filePath), nil
	}

	active := r.selector.ComputeActiveFiles(filePath, r.globalActive, r.scopes, ctx.WorkspaceRoot, ctx.PackageRoot, r.ws.Packages())
	if len(active) == 0 {
		return nil, resolution.ContextHash(filePath), nil
	}

	filter := make(map[source.ID]bool, len(active))
	parts := make([]string, 0, len(active)+1)
	parts = append(parts, filePath)
	for _, p := range active {
		canon := r.paths.Canonicalize(p)
		filter[source.ID("file:"+canon)] = true
		parts = append(parts, canon)
	}
	return filter, resolution.ContextHash(parts...), nil
}

// Refresh reloads every source family per opts, rebuilds the workspace,
// rediscovers file sources, and clears the resolution cache.
func (r *Resolver) Refresh(opts RefreshOptions) error {
	for _, s := range r.registry.All() {
		preserve := true
		switch {
		case s.ID().IsFile():
			preserve = opts.PreserveFileConfig
		case s.ID().IsShell():
			preserve = opts.PreserveShellConfig
		case s.ID().IsRemote():
			preserve = opts.PreserveRemoteConfig
		}
		if !preserve {
			continue
		}
		if refreshable, ok := s.(source.Refreshable); ok {
			_ = refreshable.Refresh()
		} else {
			_ = s.Invalidate()
		}
	}

	if err := r.ws.DiscoverPackages(); err != nil {
		return fmt.Errorf("refresh: rediscovering workspace: %w", err)
	}
	if err := r.RediscoverFileSources(); err != nil {
		return fmt.Errorf("refresh: rediscovering file sources: %w", err)
	}

	r.engine.InvalidateCache()
	r.bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
	return nil
}

// SetActiveFiles sets the global active-file glob patterns, clearing the
// resolution cache.
func (r *Resolver) SetActiveFiles(patterns []string) {
	r.globalActive = patterns
	r.engine.InvalidateCache()
}

// ClearActiveFiles clears the global active-file patterns.
func (r *Resolver) ClearActiveFiles() {
	r.globalActive = nil
	r.engine.InvalidateCache()
}

// SetActiveFilesForDirectory adds or replaces a directory-scoped
// active-file override.
func (r *Resolver) SetActiveFilesForDirectory(dir string, patterns []string) {
	dir = filepath.Clean(dir)
	for i, sc := range r.scopes {
		if sc.Dir == dir {
			r.scopes[i].Patterns = patterns
			r.engine.InvalidateCache()
			return
		}
	}
	r.scopes = append(r.scopes, selection.Scope{Dir: dir, Patterns: patterns})
	r.engine.InvalidateCache()
}

// ClearActiveFilesForDirectory removes a directory-scoped override.
func (r *Resolver) ClearActiveFilesForDirectory(dir string) {
	dir = filepath.Clean(dir)
	for i, sc := range r.scopes {
		if sc.Dir == dir {
			r.scopes = append(r.scopes[:i], r.scopes[i+1:]...)
			break
		}
	}
	r.engine.InvalidateCache()
}

// SetRoot re-roots the workspace at newRoot, re-detecting a provider if
// none was explicitly configured, and rediscovers packages and file
// sources.
func (r *Resolver) SetRoot(newRoot string) error {
	canon := r.paths.Canonicalize(newRoot)

	wsCfg := workspace.Config{
		Provider:  r.cfg.Workspace.Provider,
		Roots:     r.cfg.Workspace.Roots,
		Cascading: r.cfg.Workspace.Cascading,
		EnvFiles:  r.cfg.Workspace.EnvFiles,
		Ignores:   r.cfg.Workspace.Ignores,
	}
	ws, err := workspace.New(canon, wsCfg)
	if err != nil {
		return fmt.Errorf("set root: %w", err)
	}

	r.root = canon
	r.ws = ws
	if err := r.RediscoverFileSources(); err != nil {
		return err
	}
	r.engine.InvalidateCache()
	r.bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
	return nil
}

// RediscoverFileSources globs every workspace.env_files pattern under
// each package root, registering newly found files and unregistering
// file sources whose underlying path no longer exists.
func (r *Resolver) RediscoverFileSources() error {
	seen := make(map[string]bool)

	packages := r.ws.Packages()
	roots := []string{r.ws.Root()}
	for _, p := range packages {
		roots = append(roots, p.Root)
	}
	sort.Strings(roots)

	for _, root := range roots {
		for _, p := range r.selector.ResolvePatterns(root, r.cfg.Workspace.EnvFiles) {
			canon := r.paths.Canonicalize(p)
			seen[canon] = true
			id := source.ID("file:" + canon)
			if r.registry.IsRegistered(id) {
				continue
			}
			fs, err := source.NewFileSource(canon)
			if err != nil {
				slog.Warn("skipping env file", "path", canon, "error", err)
				continue // best effort, per-file
			}
			r.registry.Register(fs)
			r.bus.Publish(events.Event{Kind: events.KindSourceAdded, SourceID: id.String()})
			if r.watchMgr != nil {
				_ = r.watchMgr.WatchFile(canon, id)
			}
		}
	}

	for _, path := range r.registry.RegisteredFilePaths() {
		if !seen[path] {
			id := source.ID("file:" + path)
			r.registry.Unregister(id)
			r.bus.Publish(events.Event{Kind: events.KindSourceRemoved, SourceID: id.String()})
			if r.watchMgr != nil {
				_ = r.watchMgr.UnwatchFile(path)
			}
		}
	}
	return nil
}

// EventBus exposes the resolver's event bus for subscription.
func (r *Resolver) EventBus() *events.Bus { return r.bus }

// Stats reports point-in-time diagnostics.
func (r *Resolver) Stats() ResolverStats {
	size, empty := r.engine.CacheStats()
	return ResolverStats{
		SourceCount:      r.registry.SourceCount(),
		CacheSize:        size,
		CacheEmpty:       empty,
		PathCacheHitRate: r.paths.HitRate(),
		EventSubscribers: r.bus.SubscriberCount(),
		PackageCount:     len(r.ws.Packages()),
	}
}

// Close releases the watch manager, if one was configured.
func (r *Resolver) Close() error {
	if r.watchMgr != nil {
		return r.watchMgr.Close()
	}
	return nil
}
