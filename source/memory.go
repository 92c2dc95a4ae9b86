package source

import (
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MemorySource is an in-memory, insertion-ordered variable store, used
// for programmatic overrides (register it with Builder.WithSource and
// mutate it through Set/Remove/Clear). Unlike File and Shell it is always considered
// changed — it has no separate on-disk or OS-level cache to compare
// against, so HasChanged is hardcoded true.
type MemorySource struct {
	mu        sync.Mutex
	variables *orderedmap.OrderedMap[string, Variable]
	version   uint64
}

// NewMemorySource constructs an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{variables: orderedmap.New[string, Variable]()}
}

func (m *MemorySource) ID() ID                     { return ID("memory") }
func (m *MemorySource) Priority() Priority         { return PriorityMemory }
func (m *MemorySource) Capabilities() Capabilities { return CapRead | CapWrite | CapCacheable }

// Set inserts or updates key, bumping the source's version.
func (m *MemorySource) Set(key, value string) {
	m.SetWithDescription(key, value, nil)
}

// SetWithDescription is Set with an attached description string.
func (m *MemorySource) SetWithDescription(key, value string, description *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables.Set(key, Variable{
		Key:         key,
		RawValue:    value,
		Origin:      MemoryOrigin{},
		Description: description,
	})
	m.version++
}

// Remove deletes key if present, bumping the version only if something
// was actually removed.
func (m *MemorySource) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.variables.Delete(key); ok {
		m.version++
	}
}

// Clear empties the store unconditionally, always bumping the version.
func (m *MemorySource) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables = orderedmap.New[string, Variable]()
	m.version++
}

func (m *MemorySource) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vars := make([]Variable, 0, m.variables.Len())
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		vars = append(vars, pair.Value)
	}
	v := m.version
	return Snapshot{SourceID: ID("memory"), Variables: vars, Timestamp: time.Now(), Version: &v}, nil
}

func (m *MemorySource) HasChanged() (bool, error) { return true, nil }

// Invalidate is a no-op: the map itself is the source of truth, there is
// nothing cached to drop.
func (m *MemorySource) Invalidate() error { return nil }
