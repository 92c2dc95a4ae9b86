package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/envres/errs"
)

// Load reads path, auto-detecting its format by extension and, failing
// that, by content sniffing (JSON first since it's the strictest
// grammar, then YAML, then TOML), and decodes it onto a fresh default
// Config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errs.ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	raw := make(map[string]any)
	format := detectFormatFromExtension(path)
	if format == "" {
		format = detectFormatFromContent(data)
	}

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, &errs.ConfigError{Message: fmt.Sprintf("parsing TOML: %v", err), Path: path}
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, &errs.ConfigError{Message: fmt.Sprintf("parsing YAML: %v", err), Path: path}
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, &errs.ConfigError{Message: fmt.Sprintf("parsing JSON: %v", err), Path: path}
		}
	default:
		return Config{}, &errs.ConfigError{Message: "could not determine file format", Path: path}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, &errs.ConfigError{Message: fmt.Sprintf("decoding: %v", err), Path: path}
	}
	return cfg, nil
}

func detectFormatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

func detectFormatFromContent(data []byte) string {
	var probe any
	if json.Unmarshal(data, &probe) == nil {
		return "json"
	}
	if yaml.Unmarshal(data, &probe) == nil {
		return "yaml"
	}
	if toml.Unmarshal(data, &probe) == nil {
		return "toml"
	}
	return ""
}

// decode maps a generic key/value tree onto cfg using mapstructure, with
// a decode hook for time.Duration fields (ttl accepts "300s" style
// strings, matching the schema's duration notation). provider.Type
// needs no hook of its own: mapstructure assigns a string directly onto
// any string-kinded target, pointer or not.
func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
