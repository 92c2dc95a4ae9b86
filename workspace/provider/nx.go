package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// NxProvider discovers packages by walking for project.json files; every
// one found defines a package rooted at its parent directory, named by
// its own "name" field — distinct from package.json's schema.
type NxProvider struct{}

func (NxProvider) Type() Type         { return TypeNx }
func (NxProvider) ConfigFile() string { return "nx.json" }
func (n NxProvider) Detect(root string) bool { return defaultDetect(root, n.ConfigFile()) }

func (n NxProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	var packages []PackageInfo

	// walkMatching matches directories, but project.json is a file, so
	// walk directly here instead.
	rootDepth := len(splitPath(root))
	werr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirNames[d.Name()] {
				return filepath.SkipDir
			}
			if len(splitPath(path))-rootDepth > 4 {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "project.json" {
			return nil
		}
		dir := filepath.Dir(path)
		rel, _ := filepath.Rel(root, dir)
		packages = append(packages, PackageInfo{
			Root:         dir,
			Name:         readProjectJSONName(path),
			RelativePath: filepath.ToSlash(rel),
		})
		return nil
	})
	if werr != nil {
		return nil, werr
	}
	return packages, nil
}

func readProjectJSONName(path string) *string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &pj) != nil || pj.Name == "" {
		return nil
	}
	return &pj.Name
}
