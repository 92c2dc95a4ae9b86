// Package workspace discovers monorepo packages across the npm, yarn,
// pnpm, lerna, turbo, nx, cargo, and custom ecosystems, and builds the
// per-package context (root, name, candidate env files) the resolution
// engine and active-file selector consume.
package workspace

// PackageInfo describes one discovered package within a workspace.
type PackageInfo struct {
	Root         string
	Name         *string
	RelativePath string
}

// Context is the resolved view of "where am I" for a given file: which
// workspace it belongs to, which package within that workspace, and the
// ordered list of candidate env files for that location.
type Context struct {
	WorkspaceRoot string
	PackageRoot   string
	PackageName   *string
	EnvFiles      []string
}
