package resolution

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/interpolate"
	"github.com/lixenwraith/envres/source"
)

// DefaultMaxDepth is used when Options.MaxDepth is left unset (zero).
const DefaultMaxDepth = 64

// ResolvedVariable is one fully interpolated variable together with the
// source it ultimately came from.
type ResolvedVariable struct {
	Key      string
	Value    string
	SourceID source.ID
	Origin   source.VariableOrigin
}

// Options configures one Engine.
type Options struct {
	// FileOrder lists file basenames (or suffixes, e.g. ".local") in the
	// precedence order File-class snapshots should be merged; snapshots
	// matching no entry sort after all matched ones, ordered among
	// themselves by source id.
	FileOrder []string
	// Features toggles which interpolation syntax is honored.
	Features interpolate.Features
	HotCacheSize int
	TTL          time.Duration

	// Precedence lists which classified source types (shell, file,
	// remote) participate at all. A snapshot whose classified type isn't
	// listed is dropped entirely; an empty Precedence drops every
	// snapshot, classified or not. Unclassifiable source ids (memory,
	// custom) always pass through once Precedence is non-empty.
	Precedence []string
	// TypeCheck gates the pre-resolution cycle scan. When false, cycles
	// are not rejected up front; with Features.Recursion enabled, a self-
	// or mutually-referential chain instead runs until MaxDepth and fails
	// with MaxDepthExceededError.
	TypeCheck bool
	// MaxDepth bounds interpolation recursion; exceeding it fails with
	// MaxDepthExceededError rather than looping forever. Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

// Engine turns a registry of sources into resolved, interpolated
// variable values, classifying sources into Shell > Remote > File >
// Memory precedence (highest wins) unless FileOrder narrows File
// ordering further, and caching results keyed by context hash.
type Engine struct {
	registry *source.Registry
	opts     Options
	cache    *Cache
	graph    *Graph

	// mu serializes the graph rebuild, cycle scan and lastRawValues
	// update across concurrent resolutions.
	mu            sync.Mutex
	lastRawValues map[string]string
}

// NewEngine constructs an Engine bound to registry.
func NewEngine(registry *source.Registry, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Engine{
		registry: registry,
		opts:     opts,
		cache:    NewCache(opts.HotCacheSize, opts.TTL),
		graph:    NewGraph(),
	}
}

// ContextHash derives a stable hash for a set of context dimensions
// (active file paths, working directory, whatever the caller considers
// part of the cache key) so resolutions scoped to different contexts
// don't collide in the cache.
func ContextHash(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// classify buckets a source ID into a merge rank: higher sorts later
// (wins). Unknown-prefix IDs (Memory, custom sources) sort lowest,
// matching the original's "everything else passes straight through"
// rule applied as lowest precedence.
func classify(id source.ID) int {
	switch {
	case id.IsShell():
		return 3
	case id.IsRemote():
		return 2
	case id.IsFile():
		return 1
	default:
		return 0
	}
}

// classifyName is classify's string-keyed counterpart, used to compare
// against a configured Precedence list. ok is false for unclassifiable
// ids (Memory, custom sources), which pass through precedence filtering
// unconditionally.
func classifyName(id source.ID) (name string, ok bool) {
	switch {
	case id.IsShell():
		return "shell", true
	case id.IsRemote():
		return "remote", true
	case id.IsFile():
		return "file", true
	default:
		return "", false
	}
}

// filterByPrecedence drops every snapshot whose classified type isn't
// listed in precedence. An empty precedence list drops everything,
// including otherwise-unclassifiable sources (Memory, custom) — per
// spec, there is no participating source family left to pass through.
func filterByPrecedence(snapshots []source.Snapshot, precedence []string) []source.Snapshot {
	if len(precedence) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(precedence))
	for _, p := range precedence {
		allowed[strings.ToLower(p)] = true
	}
	out := make([]source.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		name, classified := classifyName(snap.SourceID)
		if !classified || allowed[name] {
			out = append(out, snap)
		}
	}
	return out
}

// fileRank returns the position of a File source's path within
// FileOrder (by basename or suffix match), or len(FileOrder) if no
// entry matches, so unmatched files sort after every configured entry.
func (e *Engine) fileRank(path string) int {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}
	for i, entry := range e.opts.FileOrder {
		if base == entry || strings.HasSuffix(path, entry) {
			return i
		}
	}
	return len(e.opts.FileOrder)
}

// contribution is one merged key's winning variable together with the
// snapshot it last came from. mergeSnapshots merges every source's raw
// (pre-interpolation) values in ascending precedence order into a map of
// these.
type contribution struct {
	snapshot source.Snapshot
	variable source.Variable
}

func (e *Engine) mergeSnapshots(snapshots []source.Snapshot) map[string]contribution {
	ordered := make([]source.Snapshot, len(snapshots))
	copy(ordered, snapshots)

	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := classify(ordered[i].SourceID), classify(ordered[j].SourceID)
		if ci != cj {
			return ci < cj
		}
		if ci == 1 { // both File: order by configured file rank
			ri := e.fileRank(ordered[i].SourceID.FilePath())
			rj := e.fileRank(ordered[j].SourceID.FilePath())
			if ri != rj {
				return ri < rj
			}
		}
		return ordered[i].SourceID < ordered[j].SourceID
	})

	merged := make(map[string]contribution)
	for _, snap := range ordered {
		for _, v := range snap.Variables {
			if v.IsCommented {
				continue
			}
			merged[v.Key] = contribution{snapshot: snap, variable: v}
		}
	}
	return merged
}

// AllVariables loads every registered source, merges by precedence, and
// interpolates every value. It does not consult or populate the cache;
// callers that want caching should use Resolve for individual keys.
func (e *Engine) AllVariables() ([]ResolvedVariable, error) {
	return e.allVariablesFiltered(nil)
}

// FilterSnapshots applies the facade's active-file filtering rule to a
// set of loaded snapshots: with a non-nil, non-empty filter, retain File
// snapshots whose source id is in the filter plus every non-File
// snapshot; with a non-nil, empty filter, drop every File snapshot;
// with a nil filter, no filtering happens at all.
func FilterSnapshots(snapshots []source.Snapshot, filter map[source.ID]bool) []source.Snapshot {
	if filter == nil {
		return snapshots
	}
	out := make([]source.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if !snap.SourceID.IsFile() || filter[snap.SourceID] {
			out = append(out, snap)
		}
	}
	return out
}

// AllVariablesWithFilter is AllVariables scoped to an active-file id
// filter, built per FilterSnapshots's rule.
func (e *Engine) AllVariablesWithFilter(filter map[source.ID]bool) ([]ResolvedVariable, error) {
	return e.allVariablesFiltered(filter)
}

func (e *Engine) allVariablesFiltered(filter map[source.ID]bool) ([]ResolvedVariable, error) {
	snapshots, err := e.registry.LoadAll()
	if err != nil {
		return nil, err
	}
	snapshots = FilterSnapshots(snapshots, filter)
	snapshots = filterByPrecedence(snapshots, e.opts.Precedence)
	merged := e.mergeSnapshots(snapshots)

	raw := make(map[string]string, len(merged))
	for k, c := range merged {
		raw[k] = c.variable.RawValue
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastRawValues = raw
	if e.opts.TypeCheck {
		e.graph.Build(raw)
	}

	maxDepth := e.opts.MaxDepth

	resolved := make(map[string]string, len(raw))
	var depthErr error
	var resolveKey func(key string, depth int) (string, bool)
	resolveKey = func(key string, depth int) (string, bool) {
		if v, ok := resolved[key]; ok {
			return v, true
		}
		rawVal, ok := raw[key]
		if !ok {
			return "", false
		}
		if depth >= maxDepth {
			if depthErr == nil {
				depthErr = &errs.MaxDepthExceededError{Key: key, Depth: depth}
			}
			return "", false
		}
		lookup := func(k string) (string, bool) {
			if !e.opts.Features.Recursion {
				v, ok := raw[k]
				return v, ok
			}
			return resolveKey(k, depth+1)
		}
		val := interpolate.Expand(rawVal, e.opts.Features, lookup)
		resolved[key] = val
		return val, true
	}

	out := make([]ResolvedVariable, 0, len(merged))
	for k, c := range merged {
		if e.opts.TypeCheck {
			if err := e.graph.DetectCycle(k); err != nil {
				return nil, err
			}
		}
		val, _ := resolveKey(k, 0)
		if depthErr != nil {
			return nil, depthErr
		}
		out = append(out, ResolvedVariable{
			Key:      k,
			Value:    val,
			SourceID: c.snapshot.SourceID,
			Origin:   c.variable.Origin,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Resolve resolves a single key, checking the cache first and inserting
// the result on a cache miss. contextHash scopes the cache entry to a
// particular active-file context.
func (e *Engine) Resolve(key string, contextHash uint64) (*ResolvedVariable, error) {
	return e.ResolveWithFilter(key, contextHash, nil)
}

// ResolveWithFilter is Resolve scoped to an active-file id filter (see
// FilterSnapshots); contextHash should already be derived from the
// filter's contents so distinct filters don't collide in the cache.
func (e *Engine) ResolveWithFilter(key string, contextHash uint64, filter map[source.ID]bool) (*ResolvedVariable, error) {
	cacheKey := CacheKey{Key: key, ContextHash: contextHash}
	if cv, ok := e.cache.Get(cacheKey); ok {
		return cv.Value, nil
	}

	all, err := e.allVariablesFiltered(filter)
	if err != nil {
		return nil, err
	}

	var found *ResolvedVariable
	for i := range all {
		if all[i].Key == key {
			rv := all[i]
			found = &rv
			break
		}
	}

	for i := range all {
		e.cache.Insert(CacheKey{Key: all[i].Key, ContextHash: contextHash}, CachedValue{
			Value:    &all[i],
			CachedAt: time.Now(),
		})
	}

	if found == nil {
		return nil, &errs.UndefinedVariableError{Key: key}
	}
	return found, nil
}

// InvalidateCache clears every cached resolution.
func (e *Engine) InvalidateCache() {
	e.cache.Clear()
}

// InvalidateKey drops a single key's cache entries across all contexts
// it may have been cached under is not possible without tracking
// context hashes per key, so this drops only the given context.
func (e *Engine) InvalidateKey(key string, contextHash uint64) {
	e.cache.Invalidate(CacheKey{Key: key, ContextHash: contextHash})
}

// CacheStats exposes the underlying cache size for diagnostics.
func (e *Engine) CacheStats() (size int, empty bool) {
	return e.cache.Len(), e.cache.IsEmpty()
}
