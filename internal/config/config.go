// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles and validates the pipeline configuration from
// the viper-loaded config file, environment overrides, and the secrets
// directory. Validation failures are fatal at startup; nothing downstream
// ever sees a half-valid configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clout-engine/pkg/types"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultDelay         = 1 * time.Second
	defaultUserAgent     = "clout-engine/0.1"
	defaultMaxResults    = 5
	defaultMaxTokens     = 700
	defaultTemperature   = 0.35
	defaultContextBudget = 7000
	defaultOutputPath    = "clout_posts.xlsx"
)

// ConfigError marks a startup configuration problem. The CLI treats it as
// fatal before any pipeline work starts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Load builds the pipeline configuration from v, falling back to the
// secrets map for the search API key. Seeds come from the config file
// ("seeds" list), a separate seeds file ("seeds_file"), or both appended
// in that order.
func Load(v *viper.Viper, loadedSecrets map[string]string) (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Scrape: types.ScrapeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationDefault(v, "scrape.timeout", defaultTimeout),
				UserAgent: stringDefault(v, "scrape.user_agent", defaultUserAgent),
			},
			Delay: durationDefault(v, "scrape.delay", defaultDelay),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationDefault(v, "search.timeout", defaultTimeout),
				UserAgent: stringDefault(v, "search.user_agent", defaultUserAgent),
			},
			APIKey:     v.GetString("search.api_key"),
			MaxResults: intDefault(v, "search.max_results", defaultMaxResults),
		},
		Model: types.ModelConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationDefault(v, "model.timeout", defaultTimeout),
				UserAgent: stringDefault(v, "model.user_agent", defaultUserAgent),
			},
			ModelPath:     v.GetString("model.path"),
			Endpoint:      v.GetString("model.endpoint"),
			MaxTokens:     intDefault(v, "model.max_tokens", defaultMaxTokens),
			Temperature:   floatDefault(v, "model.temperature", defaultTemperature),
			ContextBudget: intDefault(v, "model.context_budget", defaultContextBudget),
		},
		Output: types.OutputConfig{
			Kind: types.OutputKind(stringDefault(v, "output.kind", string(types.OutputXLSX))),
			Path: stringDefault(v, "output.path", defaultOutputPath),
		},
		Seeds: v.GetStringSlice("seeds"),
	}

	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = loadedSecrets["serpapi-api-key"]
	}

	if seedsFile := v.GetString("seeds_file"); seedsFile != "" {
		seeds, err := LoadSeeds(seedsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Seeds = append(cfg.Seeds, seeds...)
	}

	return cfg, nil
}

// seedsFile is the on-disk shape of a seeds file. A bare YAML list is also
// accepted.
type seedsFile struct {
	Seeds []string `yaml:"seeds"`
}

// LoadSeeds reads a YAML seeds file: either a "seeds:" mapping or a bare
// list of URLs.
func LoadSeeds(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seeds file %s: %w", path, err)
	}

	var wrapped seedsFile
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Seeds) > 0 {
		return wrapped.Seeds, nil
	}

	var bare []string
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parsing seeds file %s: %w", path, err)
	}
	return bare, nil
}

// Validate checks the configuration for problems that must stop the run
// before it starts.
func Validate(cfg types.PipelineConfig) error {
	if len(cfg.Seeds) == 0 {
		return &ConfigError{Field: "seeds", Msg: "no seed URLs provided"}
	}
	for _, seed := range cfg.Seeds {
		if err := validateSeedURL(seed); err != nil {
			return err
		}
	}

	if cfg.Search.APIKey == "" {
		return &ConfigError{
			Field: "search.api_key",
			Msg:   "missing; set it in the config file or .secrets/serpapi-api-key",
		}
	}

	if cfg.Model.Endpoint == "" {
		if cfg.Model.ModelPath == "" {
			return &ConfigError{
				Field: "model.path",
				Msg:   "missing; provide a GGUF model file or set model.endpoint",
			}
		}
		if _, err := os.Stat(cfg.Model.ModelPath); err != nil {
			return &ConfigError{
				Field: "model.path",
				Msg:   fmt.Sprintf("model file %s not found", cfg.Model.ModelPath),
			}
		}
	}

	switch cfg.Output.Kind {
	case types.OutputXLSX, types.OutputSQLite:
	default:
		return &ConfigError{
			Field: "output.kind",
			Msg:   fmt.Sprintf("unknown backend %q (want xlsx or sqlite)", cfg.Output.Kind),
		}
	}

	return nil
}

func validateSeedURL(seed string) error {
	u, err := url.Parse(seed)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{
			Field: "seeds",
			Msg:   fmt.Sprintf("seed %q is not an absolute http(s) URL", seed),
		}
	}
	return nil
}

func stringDefault(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}

func intDefault(v *viper.Viper, key string, fallback int) int {
	if n := v.GetInt(key); n != 0 {
		return n
	}
	return fallback
}

func floatDefault(v *viper.Viper, key string, fallback float64) float64 {
	if f := v.GetFloat64(key); f != 0 {
		return f
	}
	return fallback
}

func durationDefault(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if d := v.GetDuration(key); d != 0 {
		return d
	}
	return fallback
}
