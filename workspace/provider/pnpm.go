package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages"`
}

// PnpmProvider discovers packages from pnpm-workspace.yaml.
type PnpmProvider struct{}

func (PnpmProvider) Type() Type         { return TypePnpm }
func (PnpmProvider) ConfigFile() string { return "pnpm-workspace.yaml" }
func (p PnpmProvider) Detect(root string) bool { return defaultDetect(root, p.ConfigFile()) }

func (p PnpmProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	patterns := []string{"packages/*"}
	data, err := os.ReadFile(filepath.Join(root, p.ConfigFile()))
	if err == nil {
		var wf pnpmWorkspaceFile
		if yaml.Unmarshal(data, &wf) == nil && len(wf.Packages) > 0 {
			patterns = wf.Packages
		}
	}
	return ExpandPackagePatterns(root, patterns)
}

// ExpandPackagePatterns is the pattern-expansion helper shared by npm,
// pnpm, and lerna: "!"-prefixed patterns are exclusions, checked before
// inclusion; a directory becomes a package only if it matches an
// inclusion pattern, matches no exclusion pattern, and contains a
// package.json.
func ExpandPackagePatterns(root string, patterns []string) ([]PackageInfo, error) {
	var includes, excludes []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, strings.TrimPrefix(p, "!"))
		} else {
			includes = append(includes, p)
		}
	}

	var packages []PackageInfo
	seen := make(map[string]bool)

	for _, inc := range includes {
		err := walkMatching(root, inc, 3, func(dir string) error {
			if seen[dir] {
				return nil
			}
			rel, _ := filepath.Rel(root, dir)
			rel = filepath.ToSlash(rel)
			for _, exc := range excludes {
				if ok, _ := doublestar.Match(exc, rel); ok {
					return nil
				}
			}
			if !hasPackageJSON(dir) {
				return nil
			}
			seen[dir] = true
			packages = append(packages, PackageInfo{
				Root:         dir,
				Name:         readPackageJSONName(dir),
				RelativePath: rel,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return packages, nil
}

func readPackageJSONName(dir string) *string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &pkg) != nil || pkg.Name == "" {
		return nil
	}
	return &pkg.Name
}
