package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the optional config file. Only the
// backend selection settings may come from file; everything else is
// env-only.
type fileConfig struct {
	SearxngURL     string `yaml:"searxng_url"`
	TavilyAPIKey   string `yaml:"tavily_api_key"`
	TavilyEndpoint string `yaml:"tavily_endpoint"`
	Mode           string `yaml:"mode"`
	Primary        string `yaml:"primary"`
}

// applyConfigFile overlays values from GATEWAY_CONFIG_FILE onto cfg.
// A field is taken from file only when its environment variable was not
// explicitly set, so env keeps precedence over file over defaults.
func applyConfigFile(cfg *Config) error {
	path := strings.TrimSpace(os.Getenv("GATEWAY_CONFIG_FILE"))
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlay := func(envName, val string, dst *string) {
		if val == "" {
			return
		}
		if _, set := os.LookupEnv(envName); set {
			return
		}
		*dst = val
	}

	overlay("SEARXNG_URL", fc.SearxngURL, &cfg.SearxngURL)
	overlay("TAVILY_API_KEY", fc.TavilyAPIKey, &cfg.TavilyAPIKey)
	overlay("TAVILY_ENDPOINT", fc.TavilyEndpoint, &cfg.TavilyEndpoint)
	overlay("GATEWAY_MODE", fc.Mode, &cfg.Mode)
	overlay("GATEWAY_PRIMARY", fc.Primary, &cfg.Primary)
	return nil
}
