/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Vendor names accepted in provider entries.
const (
	VendorAnthropic = "anthropic"
	VendorOpenAI    = "openai"
	VendorGoogle    = "google"
)

// vendorEnv maps a vendor to the environment variable consulted when a
// provider entry carries no api_key.
var vendorEnv = map[string]string{
	VendorAnthropic: "ANTHROPIC_API_KEY",
	VendorOpenAI:    "OPENAI_API_KEY",
	VendorGoogle:    "GEMINI_API_KEY",
}

// Config is the effective configuration for a review run: defaults,
// overlaid by the YAML file, overlaid by environment secrets.
type Config struct {
	GitHub        GitHub           `yaml:"github"`
	Providers     []Provider       `yaml:"providers"`
	Depths        map[string]Depth `yaml:"review_depths"`
	Filters       Filters          `yaml:"filters"`
	Git           Author           `yaml:"git"`
	CheckpointDir string           `yaml:"checkpoint_dir"`
	PromptLibrary string           `yaml:"prompt_library"`
}

// GitHub selects how pushes and API calls authenticate. Token and App
// are alternatives; Token wins when both are set.
type GitHub struct {
	Token string `yaml:"token"`
	App   *App   `yaml:"app"`
}

// App holds GitHub App installation credentials.
type App struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// Provider configures one completion backend. The per-call response cap
// comes from the review depth, not the provider.
type Provider struct {
	Name   string `yaml:"name"`
	Vendor string `yaml:"vendor"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

// Depth bounds one review depth. A depth overridden in the file must be
// complete; partial entries fail validation.
type Depth struct {
	TokenBudget      int `yaml:"token_budget"`
	MaxIterations    int `yaml:"max_iterations"`
	MaxTokensPerCall int `yaml:"max_tokens_per_call"`
}

// Filters bounds which files enter the structure listing.
type Filters struct {
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// Author is the commit identity for review commits.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// secrets is the environment overlay, filled by envconfig.
type secrets struct {
	GitHubToken  string `env:"GITHUB_TOKEN"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	GeminiKey    string `env:"GEMINI_API_KEY"`
}

// Default returns the configuration before any file or environment
// overlay. It carries no providers; those must be configured.
func Default() Config {
	return Config{
		Depths: map[string]Depth{
			"minimum":       {TokenBudget: 60_000, MaxIterations: 6, MaxTokensPerCall: 4096},
			"balanced":      {TokenBudget: 150_000, MaxIterations: 15, MaxTokensPerCall: 8192},
			"comprehensive": {TokenBudget: 400_000, MaxIterations: 40, MaxTokensPerCall: 8192},
		},
		Filters: Filters{
			MaxFileSize: 100 * 1024,
		},
		Git: Author{
			Name:  "AI Code Review",
			Email: "ai-code-review@users.noreply.github.com",
		},
		CheckpointDir: defaultCheckpointDir(),
	}
}

func defaultCheckpointDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "reviewloop", "checkpoints")
	}
	return filepath.Join(".reviewloop", "checkpoints")
}

// Load builds the effective configuration: defaults, overlaid by the
// YAML file at path (skipped when path is empty), overlaid by
// environment secrets, then validated.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	var sec secrets
	if err := envconfig.Process(ctx, &sec); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applySecrets(sec)

	if cfg.CheckpointDir == "" {
		cfg.CheckpointDir = defaultCheckpointDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(sec secrets) {
	if c.GitHub.Token == "" {
		c.GitHub.Token = sec.GitHubToken
	}
	byVendor := map[string]string{
		VendorAnthropic: sec.AnthropicKey,
		VendorOpenAI:    sec.OpenAIKey,
		VendorGoogle:    sec.GeminiKey,
	}
	for i := range c.Providers {
		if c.Providers[i].APIKey == "" {
			c.Providers[i].APIKey = byVendor[c.Providers[i].Vendor]
		}
	}
}

// Validate checks structural soundness. GitHub credentials are not
// required here; pushing without them fails at run time and dry runs
// never need them.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		envKey, ok := vendorEnv[p.Vendor]
		if !ok {
			return fmt.Errorf("provider %d: unknown vendor %q (known: %s, %s, %s)",
				i, p.Vendor, VendorAnthropic, VendorOpenAI, VendorGoogle)
		}
		if p.Model == "" {
			return fmt.Errorf("provider %d (%s): model is required", i, p.Vendor)
		}
		if p.APIKey == "" {
			return fmt.Errorf("provider %d (%s/%s): no API key (set api_key or %s)",
				i, p.Vendor, p.Model, envKey)
		}
		if p.Name != "" {
			if seen[p.Name] {
				return fmt.Errorf("duplicate provider name %q", p.Name)
			}
			seen[p.Name] = true
		}
	}

	for name, d := range c.Depths {
		if d.TokenBudget <= 0 {
			return fmt.Errorf("review depth %q: token_budget must be positive", name)
		}
		if d.MaxIterations <= 0 {
			return fmt.Errorf("review depth %q: max_iterations must be positive", name)
		}
		if d.MaxTokensPerCall <= 0 {
			return fmt.Errorf("review depth %q: max_tokens_per_call must be positive", name)
		}
	}

	if c.Filters.MaxFileSize <= 0 {
		return fmt.Errorf("filters: max_file_size must be positive")
	}

	if app := c.GitHub.App; app != nil {
		if app.AppID == 0 || app.InstallationID == 0 || app.PrivateKeyPath == "" {
			return fmt.Errorf("github.app requires app_id, installation_id, and private_key_path")
		}
	}
	return nil
}

// DepthSettings resolves a depth name against the configured table.
func (c *Config) DepthSettings(name string) (Depth, error) {
	d, ok := c.Depths[name]
	if !ok {
		return Depth{}, fmt.Errorf("unknown review depth %q", name)
	}
	return d, nil
}
