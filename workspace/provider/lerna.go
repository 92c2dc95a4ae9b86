package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LernaProvider discovers packages from lerna.json's "packages" field.
type LernaProvider struct{}

func (LernaProvider) Type() Type         { return TypeLerna }
func (LernaProvider) ConfigFile() string { return "lerna.json" }
func (l LernaProvider) Detect(root string) bool { return defaultDetect(root, l.ConfigFile()) }

func (l LernaProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	patterns := []string{"packages/*"}
	data, err := os.ReadFile(filepath.Join(root, l.ConfigFile()))
	if err == nil {
		var lf struct {
			Packages []string `json:"packages"`
		}
		if json.Unmarshal(data, &lf) == nil && len(lf.Packages) > 0 {
			patterns = lf.Packages
		}
	}
	return ExpandPackagePatterns(root, patterns)
}
