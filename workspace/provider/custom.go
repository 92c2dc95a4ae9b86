package provider

import (
	"path/filepath"
	"strings"
)

// CustomProvider is the unconditional fallback when no ecosystem marker
// file is found: packages are whatever directories match the configured
// root patterns. Unlike npm/pnpm/lerna's shared expander, it does not
// require a package.json in the matched directory — it is deliberately
// permissive, since a caller reaching for "custom" has already opted out
// of any particular ecosystem's conventions.
type CustomProvider struct {
	Patterns []string
}

func (CustomProvider) Type() Type         { return TypeCustom }
func (CustomProvider) ConfigFile() string { return "" }

// Detect always returns true: custom is the provider of last resort.
func (CustomProvider) Detect(string) bool { return true }

func (c CustomProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	patterns := c.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var packages []PackageInfo
	for _, pattern := range patterns {
		if pattern == "." {
			packages = append(packages, PackageInfo{Root: root, RelativePath: "."})
			continue
		}
		err := walkMatching(root, strings.TrimPrefix(pattern, "./"), 4, func(dir string) error {
			rel, _ := filepath.Rel(root, dir)
			packages = append(packages, PackageInfo{Root: dir, RelativePath: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return packages, nil
}
