// Package provider implements per-ecosystem monorepo package discovery:
// npm/yarn, pnpm, lerna, turbo, nx, cargo, and a permissive custom
// fallback. Each Provider is grounded on the matching ecosystem's own
// workspace-declaration file.
package provider

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// PackageInfo describes one discovered package within a workspace. It
// mirrors workspace.PackageInfo exactly; kept as a distinct type here so
// this package does not import workspace (which itself imports
// provider), and workspace.Manager copies the fields across.
type PackageInfo struct {
	Root         string
	Name         *string
	RelativePath string
}

// Type names a provider kind.
type Type string

const (
	TypeNpm    Type = "npm"
	TypeYarn   Type = "yarn"
	TypePnpm   Type = "pnpm"
	TypeLerna  Type = "lerna"
	TypeTurbo  Type = "turbo"
	TypeNx     Type = "nx"
	TypeCargo  Type = "cargo"
	TypeCustom Type = "custom"
)

// Provider discovers packages for one monorepo ecosystem.
type Provider interface {
	Type() Type
	ConfigFile() string
	Detect(root string) bool
	DiscoverPackages(root string) ([]PackageInfo, error)
}

var skipDirNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

func defaultDetect(root, configFile string) bool {
	_, err := os.Stat(filepath.Join(root, configFile))
	return err == nil
}

// walkMatching walks root up to maxDepth levels (skipping common VCS/
// build directories), invoking fn for every directory that matches
// pattern.
func walkMatching(root, pattern string, maxDepth int, fn func(dir string) error) error {
	rootDepth := len(splitPath(root))
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDirNames[d.Name()] {
			return filepath.SkipDir
		}
		depth := len(splitPath(path)) - rootDepth
		if depth > maxDepth {
			return filepath.SkipDir
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, _ := doublestar.Match(pattern, rel)
		if !ok {
			return nil
		}
		return fn(path)
	})
}

func splitPath(p string) []string {
	p = filepath.Clean(p)
	var parts []string
	for {
		dir, file := filepath.Split(p)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		if dir == p || dir == "" {
			break
		}
		p = filepath.Clean(dir)
		if p == string(filepath.Separator) || p == "." {
			break
		}
	}
	return parts
}

func hasPackageJSON(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "package.json"))
	return err == nil
}
