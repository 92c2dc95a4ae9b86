package source

import (
	"os"
	"strings"
	"sync"
	"time"
)

// ShellSource reads the process environment. It has no file to watch
// and is always considered current: HasChanged is hardcoded false, and
// it carries no version (snapshots from it are always taken as the
// freshest available).
type ShellSource struct {
	mu     sync.Mutex
	cached map[string]string
}

// NewShellSource constructs a ShellSource.
func NewShellSource() *ShellSource {
	return &ShellSource{}
}

func (s *ShellSource) ID() ID                     { return shellID }
func (s *ShellSource) Priority() Priority         { return PriorityShell }
func (s *ShellSource) Capabilities() Capabilities { return CapRead | CapCacheable }

func (s *ShellSource) env() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	s.cached = env
	return env
}

func (s *ShellSource) Load() (Snapshot, error) {
	env := s.env()
	vars := make([]Variable, 0, len(env))
	for k, v := range env {
		vars = append(vars, Variable{Key: k, RawValue: v, Origin: ShellOrigin{}})
	}
	return Snapshot{SourceID: shellID, Variables: vars, Timestamp: time.Now()}, nil
}

func (s *ShellSource) HasChanged() (bool, error) { return false, nil }

func (s *ShellSource) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	return nil
}

func (s *ShellSource) Invalidate() error { return s.Refresh() }
