// Package config provides configuration for the tag index engine and its
// HTTP surface.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime options.
type Config struct {
	DataFile      string `yaml:"data_file"`      // delimited data file to ingest
	StatusFile    string `yaml:"status_file"`    // holds the last processed byte offset
	CheckpointDir string `yaml:"checkpoint_dir"` // directory for mapping/forward/inverted checkpoint files
	Delimiter     string `yaml:"delimiter"`      // single-byte field delimiter
	ListenAddr    string `yaml:"listen_addr"`    // HTTP listen address
	OptimizeAfter bool   `yaml:"optimize_after_ingest"`
	MaxJobWorkers int    `yaml:"max_job_workers"`
}

// Load reads a YAML config file into a Config with defaults applied.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyDefaults fills in default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.DataFile == "" {
		c.DataFile = "data.csv"
	}
	if c.StatusFile == "" {
		c.StatusFile = "index_status.txt"
	}
	if c.CheckpointDir == "" {
		c.CheckpointDir = "index_data"
	}
	if c.Delimiter == "" {
		c.Delimiter = "|"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MaxJobWorkers == 0 {
		c.MaxJobWorkers = 2
	}
}

// Validate checks the config for inconsistencies.
func (c *Config) Validate() error {
	if len(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single byte, got %q", c.Delimiter)
	}
	if c.Delimiter == "\n" {
		return fmt.Errorf("delimiter cannot be the newline character")
	}
	if c.MaxJobWorkers < 1 {
		return fmt.Errorf("max_job_workers must be at least 1, got %d", c.MaxJobWorkers)
	}
	return nil
}

// DelimiterByte returns the delimiter as a byte.
func (c *Config) DelimiterByte() byte {
	return c.Delimiter[0]
}
