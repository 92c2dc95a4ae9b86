package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/workspace/provider"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Config is the subset of facade configuration the workspace layer
// needs: explicit provider selection (nil triggers auto-detection),
// root patterns for the custom provider, whether env files cascade from
// workspace root down to package root, the candidate env-file pattern
// list, and ignore globs pruned from discovered packages.
type Config struct {
	Provider  *provider.Type
	Roots     []string
	Cascading bool
	EnvFiles  []string
	Ignores   []string
}

// Manager discovers and caches the packages of a workspace, and answers
// "what context applies to this file" queries.
type Manager struct {
	root   string
	config Config

	mu       sync.RWMutex
	packages map[string]PackageInfo
	cache    map[string]*Context
	ignore   *gitignore.GitIgnore
}

// New constructs a Manager rooted at root and immediately discovers its
// packages.
func New(root string, config Config) (*Manager, error) {
	m := &Manager{
		root:     root,
		config:   config,
		packages: make(map[string]PackageInfo),
		cache:    make(map[string]*Context),
	}
	if len(config.Ignores) > 0 {
		m.ignore = gitignore.CompileIgnoreLines(config.Ignores...)
	}
	if err := m.DiscoverPackages(); err != nil {
		return nil, err
	}
	return m, nil
}

// Root returns the workspace root.
func (m *Manager) Root() string { return m.root }

// Packages returns a snapshot of the currently discovered packages.
func (m *Manager) Packages() []PackageInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PackageInfo, 0, len(m.packages))
	for _, p := range m.packages {
		out = append(out, p)
	}
	return out
}

// DiscoverPackages (re)runs provider discovery and replaces the package
// set wholesale, clearing the per-file context cache.
func (m *Manager) DiscoverPackages() error {
	var prov provider.Provider
	var ok bool

	if m.config.Provider != nil {
		prov, ok = provider.Create(provider.Config{Provider: m.config.Provider, Roots: m.config.Roots})
		if !ok {
			return &errs.UnknownProviderError{Provider: string(*m.config.Provider)}
		}
	} else {
		prov, ok = provider.Detect(m.root)
		if !ok {
			prov = provider.CustomProvider{Patterns: []string{"."}}
		}
	}

	if prov.ConfigFile() != "" && !prov.Detect(m.root) {
		return &errs.ProviderConfigNotFoundError{ExpectedFile: prov.ConfigFile(), SearchPath: m.root}
	}

	discovered, err := prov.DiscoverPackages(m.root)
	if err != nil {
		return fmt.Errorf("discovering packages: %w", err)
	}

	packages := make(map[string]PackageInfo, len(discovered))
	for _, p := range discovered {
		if m.ignored(p.Root) {
			continue
		}
		packages[p.Root] = PackageInfo{Root: p.Root, Name: p.Name, RelativePath: p.RelativePath}
	}

	m.mu.Lock()
	m.packages = packages
	m.cache = make(map[string]*Context)
	m.mu.Unlock()

	return nil
}

func (m *Manager) ignored(path string) bool {
	if m.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false
	}
	return m.ignore.MatchesPath(rel)
}

// ContextForFile resolves the workspace context for filePath: the
// package whose root is the longest matching prefix (by path-component
// depth). Returns nil if filePath cannot be canonicalized or matches no
// package.
func (m *Manager) ContextForFile(filePath string) *Context {
	m.mu.RLock()
	if cached, ok := m.cache[filePath]; ok {
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	canon, err := filepath.Abs(filePath)
	if err != nil {
		return nil
	}

	m.mu.RLock()
	var best *PackageInfo
	bestDepth := -1
	for root, pkg := range m.packages {
		if !isWithin(canon, root) {
			continue
		}
		depth := len(strings.Split(filepath.Clean(root), string(filepath.Separator)))
		if depth > bestDepth {
			bestDepth = depth
			p := pkg
			best = &p
		}
	}
	m.mu.RUnlock()

	if best == nil {
		return nil
	}

	ctx := m.buildContext(*best)
	m.mu.Lock()
	m.cache[filePath] = ctx
	m.mu.Unlock()
	return ctx
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// buildContext assembles the candidate env-file list for pkg: if
// cascading and pkg is not the workspace root, workspace-root-resolved
// patterns come first, then package-root-resolved ones — root files
// appear before package files, and only files that actually exist are
// included.
func (m *Manager) buildContext(pkg PackageInfo) *Context {
	var envFiles []string

	if m.config.Cascading && pkg.Root != m.root {
		envFiles = append(envFiles, existingFiles(m.root, m.config.EnvFiles)...)
	}
	envFiles = append(envFiles, existingFiles(pkg.Root, m.config.EnvFiles)...)

	return &Context{
		WorkspaceRoot: m.root,
		PackageRoot:   pkg.Root,
		PackageName:   pkg.Name,
		EnvFiles:      envFiles,
	}
}

func existingFiles(dir string, patterns []string) []string {
	var out []string
	for _, pattern := range patterns {
		p := filepath.Join(dir, pattern)
		if _, err := filepath.Abs(p); err == nil {
			if fileExists(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
