package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SystemConfig identifies the system being documented.
type SystemConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ExtractorConfig selects one extractor and its file scope. Extractors
// run in declaration order; that order is significant because the
// aggregator's first-occurrence-wins rule is order-sensitive.
type ExtractorConfig struct {
	Name       string   `yaml:"name"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	Container  string   `yaml:"container"`
	Technology string   `yaml:"technology"`
}

// Config is the pipeline configuration, usually loaded from
// archipel.config.yaml next to the source tree.
type Config struct {
	System     SystemConfig      `yaml:"system"`
	Extractors []ExtractorConfig `yaml:"extractors"`
}

// DefaultConfig enables every built-in extractor against the whole tree.
func DefaultConfig(systemName string) Config {
	return Config{
		System: SystemConfig{Name: systemName},
		Extractors: []ExtractorConfig{
			{Name: "descriptor"},
			{Name: "source/go"},
			{Name: "source/python"},
			{Name: "source/typescript"},
			{Name: "source/javascript"},
			{Name: "compose"},
		},
	}
}

// LoadConfig reads and parses a pipeline configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.System.Name == "" {
		return Config{}, fmt.Errorf("config requires system.name")
	}
	if len(cfg.Extractors) == 0 {
		cfg.Extractors = DefaultConfig(cfg.System.Name).Extractors
	}
	return cfg, nil
}
