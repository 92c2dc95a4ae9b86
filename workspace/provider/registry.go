package provider

// Config is the subset of workspace configuration a Provider is built
// from: which provider to use (if explicit) and, for custom, its root
// patterns.
type Config struct {
	Provider *Type
	Roots    []string
}

// Create constructs the provider named by cfg.Provider. Returns nil,
// false if cfg.Provider is nil — callers that need auto-detection should
// use Detect instead.
func Create(cfg Config) (Provider, bool) {
	if cfg.Provider == nil {
		return nil, false
	}
	switch *cfg.Provider {
	case TypeNpm, TypeYarn:
		return NpmProvider{}, true
	case TypePnpm:
		return PnpmProvider{}, true
	case TypeLerna:
		return LernaProvider{}, true
	case TypeTurbo:
		return TurboProvider{}, true
	case TypeNx:
		return NxProvider{}, true
	case TypeCargo:
		return CargoProvider{}, true
	case TypeCustom:
		return CustomProvider{Patterns: cfg.Roots}, true
	default:
		return nil, false
	}
}

// Detect auto-selects a provider by checking marker files in priority
// order: turbo, nx, lerna, pnpm, cargo (content-sniffed for
// "[workspace]"), npm (content-sniffed for "workspaces"), else none.
// This is distinct from each provider's own Detect method: it decides
// WHICH provider applies in the first place, given no explicit
// configuration.
func Detect(root string) (Provider, bool) {
	candidates := []Provider{
		TurboProvider{},
		NxProvider{},
		LernaProvider{},
		PnpmProvider{},
		CargoProvider{},
		NpmProvider{},
	}
	for _, p := range candidates {
		if p.Detect(root) {
			return p, true
		}
	}
	return nil, false
}
