package provider

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type cargoWorkspace struct {
	Workspace struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

type cargoPackage struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// CargoProvider discovers packages from Cargo.toml's [workspace].members.
type CargoProvider struct{}

func (CargoProvider) Type() Type         { return TypeCargo }
func (CargoProvider) ConfigFile() string { return "Cargo.toml" }

// Detect overrides the file-existence default: a Cargo.toml without a
// [workspace] table is an ordinary crate manifest, not a workspace root.
func (c CargoProvider) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, c.ConfigFile()))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "[workspace]")
}

func (c CargoProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	data, err := os.ReadFile(filepath.Join(root, c.ConfigFile()))
	if err != nil {
		return nil, err
	}
	var cw cargoWorkspace
	if err := toml.Unmarshal(data, &cw); err != nil {
		return nil, err
	}

	var packages []PackageInfo
	for _, member := range cw.Workspace.Members {
		if strings.Contains(member, "*") {
			err := walkMatching(root, member, 3, func(dir string) error {
				if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err != nil {
					return nil
				}
				rel, _ := filepath.Rel(root, dir)
				packages = append(packages, PackageInfo{
					Root:         dir,
					Name:         extractCargoName(filepath.Join(dir, "Cargo.toml")),
					RelativePath: filepath.ToSlash(rel),
				})
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		dir := filepath.Join(root, member)
		if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err != nil {
			continue
		}
		packages = append(packages, PackageInfo{
			Root:         dir,
			Name:         extractCargoName(filepath.Join(dir, "Cargo.toml")),
			RelativePath: filepath.ToSlash(member),
		})
	}
	return packages, nil
}

func extractCargoName(path string) *string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cp cargoPackage
	if toml.Unmarshal(data, &cp) != nil || cp.Package.Name == "" {
		return nil
	}
	return &cp.Package.Name
}
