// Package config loads the psymcp.yaml configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the psymcp.yaml configuration.
type Config struct {
	Repo string `yaml:"repo"`
	// Exclude lists directory names skipped during the walk, in addition
	// to the built-in exclusions (virtualenvs, node_modules, VCS dirs).
	Exclude    []string     `yaml:"exclude"`
	Extractors []string     `yaml:"extractors"`
	Renderers  []string     `yaml:"renderers"`
	Output     OutputConfig `yaml:"output"`
}

// OutputConfig controls where output artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Repo:       ".",
		Extractors: []string{"python", "typescript"},
		Renderers:  []string{"dream_report"},
		Output: OutputConfig{
			Dir: ".psymcp",
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".psymcp"
	}

	return cfg, nil
}

// IsExtractorEnabled returns true if the named extractor is enabled.
func (c *Config) IsExtractorEnabled(name string) bool {
	return contains(c.Extractors, name)
}

// IsRendererEnabled returns true if the named renderer is enabled.
func (c *Config) IsRendererEnabled(name string) bool {
	return contains(c.Renderers, name)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
