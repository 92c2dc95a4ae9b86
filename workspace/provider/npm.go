package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// workspacesField mirrors package.json's "workspaces" key, which npm and
// yarn allow as either a bare array or an object with a "packages" key.
// Go has no untagged-enum decode, so this does a two-pass unmarshal:
// try the array shape first, fall back to the object shape.
type workspacesField struct {
	Patterns []string
}

func (w *workspacesField) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		w.Patterns = arr
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		w.Patterns = obj.Packages
		return nil
	}
	return nil
}

type packageJSONWorkspaces struct {
	Workspaces *workspacesField `json:"workspaces"`
}

// NpmProvider discovers packages from package.json's "workspaces" field.
// Yarn uses the identical file and field, so it shares this provider.
type NpmProvider struct{}

func (NpmProvider) Type() Type         { return TypeNpm }
func (NpmProvider) ConfigFile() string { return "package.json" }

// Detect overrides the file-existence default: npm workspaces require a
// "workspaces" key, not merely a package.json file (every npm package
// has one of those). The key is found by a substring match on the raw
// file; the JSON is not parsed here.
func (n NpmProvider) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, n.ConfigFile()))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), `"workspaces"`)
}

func (n NpmProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	data, err := os.ReadFile(filepath.Join(root, n.ConfigFile()))
	if err != nil {
		return nil, err
	}
	var pkg packageJSONWorkspaces
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	var patterns []string
	if pkg.Workspaces != nil {
		patterns = pkg.Workspaces.Patterns
	}
	return ExpandPackagePatterns(root, patterns)
}
