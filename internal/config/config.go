package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/smirkdb/smirk/internal/store"
)

// Config is the server's runtime configuration: defaults, overridden by an
// optional yaml file, overridden by command-line flags.
type Config struct {
	Port                 int    `yaml:"port"`
	NumberOfDBs          int    `yaml:"number_of_dbs"`
	MaxThreads           int    `yaml:"max_threads"`
	DefaultKeySearchType string `yaml:"default_key_search_type"`
	DataDir              string `yaml:"data_dir"`
	HTTPAddr             string `yaml:"http_addr"`
}

func Default() Config {
	return Config{
		Port:                 53173,
		NumberOfDBs:          1,
		MaxThreads:           runtime.NumCPU(),
		DefaultKeySearchType: "glob",
	}
}

// Load reads a yaml file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings outside the supported surface. Only a single
// flat database namespace exists.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.NumberOfDBs != 1 {
		return fmt.Errorf("number_of_dbs must be 1, got %d", c.NumberOfDBs)
	}
	if _, ok := store.ParseSearchMode(c.DefaultKeySearchType); !ok {
		return fmt.Errorf("unknown key search type %q", c.DefaultKeySearchType)
	}
	return nil
}

// SearchMode resolves the configured default KEYS strategy.
func (c Config) SearchMode() store.SearchMode {
	mode, _ := store.ParseSearchMode(c.DefaultKeySearchType)
	return mode
}
