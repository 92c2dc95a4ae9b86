// Package selection implements the active-file selector: which dotenv
// files apply at a given location, combining global patterns,
// directory-scoped overrides, and an auto-discovery fallback list.
package selection

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lixenwraith/envres/workspace"
)

// AutoDiscoveryPriority is the fallback file list checked, in order,
// when no explicit pattern yields a match.
var AutoDiscoveryPriority = []string{
	".env.local",
	".env.development",
	".env.dev",
	".env",
	".env.test",
	".env.staging",
	".env.production",
	".env.prod",
}

// Selector resolves active files for a directory scope.
type Selector struct{}

// New constructs a Selector.
func New() *Selector { return &Selector{} }

// ResolvePatterns expands each pattern relative to baseDir into a sorted
// list of matching regular files. Patterns use doublestar glob
// semantics: "**" crosses path separators, a single "*" matches within
// one path segment only, and "*" also matches names with a leading dot.
// A pattern matching nothing is not an error.
func (s *Selector) ResolvePatterns(baseDir string, patterns []string) []string {
	var matches []string
	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(baseDir, strings.TrimPrefix(pattern, "./"))
		}
		found, err := doublestar.FilepathGlob(full)
		if err != nil {
			continue
		}
		for _, f := range found {
			if info, err := os.Stat(f); err == nil && !info.IsDir() {
				matches = append(matches, f)
			}
		}
	}
	sort.Strings(matches)
	return matches
}

// AutoDiscoverFiles yields up to two files: the first existing file (in
// AutoDiscoveryPriority order) at the workspace root, and the first
// existing file at packageRoot, only when the workspace looks like a
// monorepo (more than one package, or packageRoot differs from the
// workspace root). A single-package, single-root workspace only checks
// packageRoot.
func (s *Selector) AutoDiscoverFiles(workspaceRoot, packageRoot string, packages []workspace.PackageInfo) []string {
	var files []string
	isMonorepo := len(packages) > 1 || packageRoot != workspaceRoot

	if isMonorepo {
		if f := firstExisting(workspaceRoot, AutoDiscoveryPriority); f != "" {
			files = append(files, f)
		}
	}
	if f := firstExisting(packageRoot, AutoDiscoveryPriority); f != "" {
		files = append(files, f)
	}
	return files
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Scope is one directory-scoped override: patterns to apply within Dir
// (and, implicitly, below it), keyed by the longest-matching directory.
type Scope struct {
	Dir      string
	Patterns []string
}

// ComputeActiveFiles implements the full selector: global patterns (or
// auto-discovery if empty) concatenated with the deepest-matching
// directory scope's own patterns (or that scope's auto-discovery, if its
// pattern list is explicitly empty). Duplicates are possible; callers
// dedupe.
func (s *Selector) ComputeActiveFiles(
	filePath string,
	globalPatterns []string,
	scopes []Scope,
	workspaceRoot, packageRoot string,
	packages []workspace.PackageInfo,
) []string {
	baseDir := filepath.Dir(filePath)

	var result []string
	if len(globalPatterns) > 0 {
		result = append(result, s.ResolvePatterns(baseDir, globalPatterns)...)
	} else {
		result = append(result, s.AutoDiscoverFiles(workspaceRoot, packageRoot, packages)...)
	}

	scope, ok := s.longestMatchingScope(filePath, scopes)
	if ok {
		if len(scope.Patterns) > 0 {
			result = append(result, s.ResolvePatterns(scope.Dir, scope.Patterns)...)
		} else {
			result = append(result, s.AutoDiscoverFiles(workspaceRoot, scope.Dir, packages)...)
		}
	}

	return result
}

// isWithin reports whether path is root itself or lies below it,
// determined via filepath.Rel rather than a raw string prefix so a
// scope rooted at "/a/b" does not incorrectly match a sibling like
// "/a/bc".
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (s *Selector) longestMatchingScope(filePath string, scopes []Scope) (Scope, bool) {
	var best Scope
	bestLen := -1
	cleanFile := filepath.Clean(filePath)
	for _, sc := range scopes {
		canonicalDir := filepath.Clean(sc.Dir)
		if !isWithin(cleanFile, canonicalDir) {
			continue
		}
		if len(canonicalDir) > bestLen {
			bestLen = len(canonicalDir)
			best = sc
		}
	}
	return best, bestLen >= 0
}
