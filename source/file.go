package source

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/kvparse"
)

// FileSource reads variables from a single dotenv-style file, caching
// the parsed result until the file's mtime changes.
type FileSource struct {
	path   string
	id     ID
	parser kvparse.Parser

	mu           sync.Mutex
	lastModified *time.Time
	cached       []Variable
	version      *uint64
	nextVersion  uint64
}

// NewFileSource constructs a FileSource for path. The path must exist at
// construction time.
func NewFileSource(path string) (*FileSource, error) {
	return NewFileSourceWithParser(path, kvparse.Default{})
}

// NewFileSourceWithParser is NewFileSource with an injectable tokenizer.
func NewFileSourceWithParser(path string, parser kvparse.Parser) (*FileSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file source %q: %w", path, err)
	}
	return &FileSource{
		path:        path,
		id:          ID("file:" + path),
		parser:      parser,
		nextVersion: 1,
	}, nil
}

func (f *FileSource) ID() ID                     { return f.id }
func (f *FileSource) Priority() Priority         { return PriorityFile }
func (f *FileSource) Capabilities() Capabilities { return CapRead | CapWatch | CapCacheable }
func (f *FileSource) Path() string                { return f.path }

func (f *FileSource) checkModified() bool {
	info, err := os.Stat(f.path)
	if err != nil {
		return true
	}
	mtime := info.ModTime()
	if f.lastModified == nil {
		return true
	}
	return !mtime.Equal(*f.lastModified)
}

func (f *FileSource) parseFile() ([]Variable, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &errs.SourceError{Kind: errs.SourceRead, Path: f.path, Msg: err.Error(), Source: err}
	}
	if info, err := os.Stat(f.path); err == nil {
		mtime := info.ModTime()
		f.lastModified = &mtime
	}

	entries, err := f.parser.Parse(string(data))
	if err != nil {
		return nil, &errs.SourceError{Kind: errs.SourceParse, Path: f.path, Msg: err.Error(), Source: err}
	}

	vars := make([]Variable, 0, len(entries))
	for _, e := range entries {
		if e.IsComment {
			continue
		}
		vars = append(vars, Variable{
			Key:         e.Key,
			RawValue:    e.Value,
			Origin:      FileOrigin{Path: f.path, Offset: e.Offset},
			IsCommented: false,
		})
	}
	return vars, nil
}

// Load returns the cached snapshot if the file hasn't changed on disk,
// else reparses. The version counter is reserved under the lock before
// parsing runs so a concurrent caller never observes a stale version
// alongside fresh content.
func (f *FileSource) Load() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil && !f.checkModified() {
		return f.snapshotLocked(), nil
	}

	f.nextVersion++
	reserved := f.nextVersion
	vars, err := f.parseFile()
	if err != nil {
		return Snapshot{}, err
	}
	f.cached = vars
	f.version = &reserved

	return f.snapshotLocked(), nil
}

func (f *FileSource) snapshotLocked() Snapshot {
	var v *uint64
	if f.version != nil {
		vv := *f.version
		v = &vv
	}
	return Snapshot{
		SourceID:  f.id,
		Variables: append([]Variable(nil), f.cached...),
		Timestamp: time.Now(),
		Version:   v,
	}
}

func (f *FileSource) HasChanged() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkModified(), nil
}

func (f *FileSource) Invalidate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = nil
	f.lastModified = nil
	return nil
}

// Reload clears the cache and immediately reparses, returning the fresh
// snapshot. Used by the watch pipeline after a Modified event.
func (f *FileSource) Reload() (Snapshot, error) {
	if err := f.Invalidate(); err != nil {
		return Snapshot{}, err
	}
	return f.Load()
}

// SetVariable rewrites the single line defining key, preserving the
// file's other lines verbatim. Errors with SourceUnsupportedOperation if
// key is not present.
func (f *FileSource) SetVariable(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return &errs.SourceError{Kind: errs.SourceRead, Path: f.path, Msg: err.Error(), Source: err}
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		if strings.TrimSpace(line[:eq]) == key {
			lines[i] = line[:eq+1] + value
			found = true
			break
		}
	}
	if !found {
		return &errs.SourceError{Kind: errs.SourceUnsupportedOperation, Path: f.path, Msg: fmt.Sprintf("key %q not found", key)}
	}

	if err := os.WriteFile(f.path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return &errs.SourceError{Kind: errs.SourceRead, Path: f.path, Msg: err.Error(), Source: err}
	}
	f.cached = nil
	f.nextVersion++
	return nil
}

// RemoveVariable deletes the line defining key. Errors with
// SourceUnsupportedOperation if key is not present.
func (f *FileSource) RemoveVariable(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return &errs.SourceError{Kind: errs.SourceRead, Path: f.path, Msg: err.Error(), Source: err}
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	found := false
	for _, line := range lines {
		eq := strings.Index(line, "=")
		if eq >= 0 && strings.TrimSpace(line[:eq]) == key {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		return &errs.SourceError{Kind: errs.SourceUnsupportedOperation, Path: f.path, Msg: fmt.Sprintf("key %q not found", key)}
	}

	if err := os.WriteFile(f.path, []byte(strings.Join(kept, "\n")), 0644); err != nil {
		return &errs.SourceError{Kind: errs.SourceRead, Path: f.path, Msg: err.Error(), Source: err}
	}
	f.cached = nil
	f.nextVersion++
	return nil
}
