// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clout-engine/pkg/types"
)

func validConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	modelPath := filepath.Join(t.TempDir(), "model.gguf")
	require.NoError(t, os.WriteFile(modelPath, []byte("gguf"), 0o644))
	return types.PipelineConfig{
		Seeds: []string{"https://seed.example/post"},
		Search: types.SearchConfig{
			APIKey:     "sk_test",
			MaxResults: 5,
		},
		Model: types.ModelConfig{
			ModelPath: modelPath,
		},
		Output: types.OutputConfig{Kind: types.OutputXLSX, Path: "out.xlsx"},
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("seeds", []string{"https://seed.example/post"})

	cfg, err := Load(v, nil)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, time.Second, cfg.Scrape.Delay)
	assert.Equal(t, "clout-engine/0.1", cfg.Scrape.UserAgent)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 700, cfg.Model.MaxTokens)
	assert.InDelta(t, 0.35, cfg.Model.Temperature, 1e-9)
	assert.Equal(t, 7000, cfg.Model.ContextBudget)
	assert.Equal(t, types.OutputXLSX, cfg.Output.Kind)
	assert.Equal(t, "clout_posts.xlsx", cfg.Output.Path)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("scrape.timeout", "10s")
	v.Set("scrape.delay", "250ms")
	v.Set("search.api_key", "from-config")
	v.Set("search.max_results", 3)
	v.Set("model.endpoint", "http://127.0.0.1:9090")
	v.Set("model.max_tokens", 400)
	v.Set("output.kind", "sqlite")
	v.Set("output.path", "posts.db")

	cfg, err := Load(v, map[string]string{"serpapi-api-key": "from-secrets"})
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Scrape.Delay)
	assert.Equal(t, "from-config", cfg.Search.APIKey, "config file wins over secrets")
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "http://127.0.0.1:9090", cfg.Model.Endpoint)
	assert.Equal(t, 400, cfg.Model.MaxTokens)
	assert.Equal(t, types.OutputSQLite, cfg.Output.Kind)
	assert.Equal(t, "posts.db", cfg.Output.Path)
}

func TestLoadAPIKeyFromSecrets(t *testing.T) {
	v := viper.New()
	cfg, err := Load(v, map[string]string{"serpapi-api-key": "sk_secret"})
	require.NoError(t, err)
	assert.Equal(t, "sk_secret", cfg.Search.APIKey)
}

func TestLoadSeedsFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "seeds mapping",
			content: "seeds:\n  - https://a.example/1\n  - https://b.example/2\n",
			want:    []string{"https://a.example/1", "https://b.example/2"},
		},
		{
			name:    "bare list",
			content: "- https://a.example/1\n- https://b.example/2\n",
			want:    []string{"https://a.example/1", "https://b.example/2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seeds.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := LoadSeeds(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSeedsFileMissing(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadAppendsSeedsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seeds:\n  - https://b.example/2\n"), 0o644))

	v := viper.New()
	v.Set("seeds", []string{"https://a.example/1"})
	v.Set("seeds_file", path)

	cfg, err := Load(v, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, cfg.Seeds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *types.PipelineConfig)
		errMsg string
	}{
		{
			name:   "valid config passes",
			mutate: func(cfg *types.PipelineConfig) {},
		},
		{
			name:   "empty seed list",
			mutate: func(cfg *types.PipelineConfig) { cfg.Seeds = nil },
			errMsg: "no seed URLs",
		},
		{
			name:   "relative seed URL",
			mutate: func(cfg *types.PipelineConfig) { cfg.Seeds = []string{"/just/a/path"} },
			errMsg: "absolute http(s) URL",
		},
		{
			name:   "non-http scheme",
			mutate: func(cfg *types.PipelineConfig) { cfg.Seeds = []string{"ftp://files.example/x"} },
			errMsg: "absolute http(s) URL",
		},
		{
			name:   "missing API key",
			mutate: func(cfg *types.PipelineConfig) { cfg.Search.APIKey = "" },
			errMsg: "search.api_key",
		},
		{
			name: "missing model path without endpoint",
			mutate: func(cfg *types.PipelineConfig) {
				cfg.Model.ModelPath = ""
				cfg.Model.Endpoint = ""
			},
			errMsg: "model.path",
		},
		{
			name: "nonexistent model file",
			mutate: func(cfg *types.PipelineConfig) {
				cfg.Model.ModelPath = "/nonexistent/model.gguf"
			},
			errMsg: "not found",
		},
		{
			name: "endpoint skips model file check",
			mutate: func(cfg *types.PipelineConfig) {
				cfg.Model.ModelPath = ""
				cfg.Model.Endpoint = "http://127.0.0.1:8080"
			},
		},
		{
			name:   "unknown output kind",
			mutate: func(cfg *types.PipelineConfig) { cfg.Output.Kind = "csv" },
			errMsg: "unknown backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := Validate(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}
