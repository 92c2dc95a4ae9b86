package provider

import (
	"os"
	"path/filepath"
)

// TurboProvider never parses turbo.json for package membership — turbo
// itself delegates workspace discovery to whichever package manager the
// repo uses — so it only detects on turbo.json's presence and then
// delegates entirely to pnpm (if pnpm-workspace.yaml exists) or npm.
type TurboProvider struct{}

func (TurboProvider) Type() Type         { return TypeTurbo }
func (TurboProvider) ConfigFile() string { return "turbo.json" }
func (t TurboProvider) Detect(root string) bool { return defaultDetect(root, t.ConfigFile()) }

func (t TurboProvider) DiscoverPackages(root string) ([]PackageInfo, error) {
	if _, err := os.Stat(filepath.Join(root, "pnpm-workspace.yaml")); err == nil {
		return PnpmProvider{}.DiscoverPackages(root)
	}
	return NpmProvider{}.DiscoverPackages(root)
}
