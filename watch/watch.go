// Package watch bridges OS filesystem events (via fsnotify) to source
// invalidation and event-bus notification: the piece that lets a
// resolver observe an on-disk edit without an explicit refresh.
package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lixenwraith/envres/events"
	"github.com/lixenwraith/envres/source"
)

// DefaultMaxWatchers caps concurrent watched paths to bound resource
// usage, matching the same-purpose cap the ambient config watcher uses.
const DefaultMaxWatchers = 100

// Options configures a Manager.
type Options struct {
	// Debounce coalesces rapid successive writes to the same path into
	// a single reload.
	Debounce time.Duration
	// MaxWatchers limits concurrently watched paths.
	MaxWatchers int
	// VerifyPermissions rejects a reload when a file's world/group
	// permission bits changed since it was last seen, publishing a
	// CacheInvalidated with no reload rather than trusting content that
	// may have been swapped out from under the process.
	VerifyPermissions bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:          100 * time.Millisecond,
		MaxWatchers:       DefaultMaxWatchers,
		VerifyPermissions: true,
	}
}

type watchedPath struct {
	sourceID source.ID
	lastMode os.FileMode
	timer    *time.Timer
}

// Manager owns the fsnotify watcher and the canonical-path-to-source
// index, classifying raw OS events into Created/Modified/Deleted and
// driving source invalidation plus event-bus publication.
type Manager struct {
	opts     Options
	registry *source.Registry
	bus      *events.Bus

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	paths  map[string]*watchedPath
	done   chan struct{}
	closed bool
}

// NewManager constructs a Manager watching on behalf of registry,
// publishing to bus.
func NewManager(registry *source.Registry, bus *events.Bus, opts Options) (*Manager, error) {
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	m := &Manager{
		opts:     opts,
		registry: registry,
		bus:      bus,
		fsw:      fsw,
		paths:    make(map[string]*watchedPath),
		done:     make(chan struct{}),
	}
	go m.loop()
	return m, nil
}

// WatchFile registers path to be watched on behalf of sourceID. Returns
// an error if the manager is already watching MaxWatchers paths.
func (m *Manager) WatchFile(path string, sourceID source.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.paths[path]; exists {
		return nil
	}
	if len(m.paths) >= m.opts.MaxWatchers {
		return fmt.Errorf("watch: max watchers (%d) reached", m.opts.MaxWatchers)
	}
	if err := m.fsw.Add(path); err != nil {
		return fmt.Errorf("watch: adding %q: %w", path, err)
	}

	var mode os.FileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	m.paths[path] = &watchedPath{sourceID: sourceID, lastMode: mode}
	return nil
}

// UnwatchFile stops watching path.
func (m *Manager) UnwatchFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wp, ok := m.paths[path]
	if !ok {
		return nil
	}
	if wp.timer != nil {
		wp.timer.Stop()
	}
	delete(m.paths, path)
	return m.fsw.Remove(path)
}

// WatchedCount reports the number of currently watched paths.
func (m *Manager) WatchedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

// Close stops the watch loop and releases the underlying fsnotify
// watcher. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, wp := range m.paths {
		if wp.timer != nil {
			wp.timer.Stop()
		}
	}
	m.mu.Unlock()

	close(m.done)
	return m.fsw.Close()
}

func (m *Manager) loop() {
	for {
		select {
		case ev, ok := <-m.fsw.Events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		case <-m.fsw.Errors:
			// Surfaced nowhere else; the watcher keeps running on a
			// single path's error since fsnotify errors aren't fatal to
			// the whole watch set.
		case <-m.done:
			return
		}
	}
}

func (m *Manager) handleEvent(ev fsnotify.Event) {
	m.mu.Lock()
	wp, ok := m.paths[ev.Name]
	if !ok {
		m.mu.Unlock()
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		m.mu.Unlock()
		m.debounce(ev.Name, wp, m.handleCreated)
	case ev.Op&fsnotify.Write != 0:
		m.mu.Unlock()
		m.debounce(ev.Name, wp, m.handleModified)
	case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
		m.mu.Unlock()
		m.debounce(ev.Name, wp, m.handleDeleted)
	default:
		// Unknown event kinds are ignored.
		m.mu.Unlock()
	}
}

func (m *Manager) debounce(path string, wp *watchedPath, fn func(path string, wp *watchedPath)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wp.timer != nil {
		wp.timer.Stop()
	}
	wp.timer = time.AfterFunc(m.opts.Debounce, func() { fn(path, wp) })
}

func (m *Manager) handleModified(path string, wp *watchedPath) {
	src, ok := m.registry.Get(wp.sourceID)
	if !ok {
		return
	}

	if m.opts.VerifyPermissions && wp.lastMode != 0 {
		if info, err := os.Stat(path); err == nil {
			if (info.Mode() & 0o077) != (wp.lastMode & 0o077) {
				m.bus.Publish(events.Event{Kind: events.KindCacheInvalidated, Scope: path})
				return
			}
			wp.lastMode = info.Mode()
		}
	}

	before, _ := src.Load()
	_ = src.Invalidate()
	after, err := src.Load()
	if err != nil {
		return
	}

	added, removed := diffKeys(before, after)
	m.bus.Publish(events.Event{
		Kind:     events.KindVariablesChanged,
		SourceID: wp.sourceID.String(),
		Added:    added,
		Removed:  removed,
	})
	m.bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
}

func (m *Manager) handleCreated(path string, wp *watchedPath) {
	src, ok := m.registry.Get(wp.sourceID)
	if !ok {
		return
	}
	snap, err := src.Load()
	if err != nil {
		return
	}
	keys := make([]string, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		keys = append(keys, v.Key)
	}
	m.bus.Publish(events.Event{Kind: events.KindVariablesChanged, SourceID: wp.sourceID.String(), Added: keys})
	m.bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
}

func (m *Manager) handleDeleted(path string, wp *watchedPath) {
	src, ok := m.registry.Get(wp.sourceID)
	if !ok {
		return
	}
	// Load may serve a stale cached snapshot; that's acceptable here,
	// the point is only to know which keys to report removed.
	snap, _ := src.Load()
	keys := make([]string, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		keys = append(keys, v.Key)
	}
	m.bus.Publish(events.Event{Kind: events.KindVariablesChanged, SourceID: wp.sourceID.String(), Removed: keys})
	m.bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
}

func diffKeys(before, after source.Snapshot) (added, removed []string) {
	beforeKeys := make(map[string]bool, len(before.Variables))
	for _, v := range before.Variables {
		beforeKeys[v.Key] = true
	}
	afterKeys := make(map[string]bool, len(after.Variables))
	for _, v := range after.Variables {
		afterKeys[v.Key] = true
	}
	for k := range afterKeys {
		if !beforeKeys[k] {
			added = append(added, k)
		}
	}
	for k := range beforeKeys {
		if !afterKeys[k] {
			removed = append(removed, k)
		}
	}
	return added, removed
}
