// Package models defines data structures for configuration and run reports.
package models

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "includer.yaml"

// RenderConfig holds runtime configuration for the render command.
// Values come from an optional YAML file; CLI flags override them.
type RenderConfig struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output,omitempty"`
	Base    string `yaml:"base,omitempty"`
	Format  string `yaml:"format,omitempty"`
	History string `yaml:"history,omitempty"`
	Quiet   bool   `yaml:"quiet,omitempty"`
}

// LoadConfig reads a YAML config file from fsys. A missing file yields an
// empty config.
func LoadConfig(fsys afero.Fs, path string) (*RenderConfig, error) {
	cfg := &RenderConfig{}
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
