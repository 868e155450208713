// Package config loads the monitor's settings from a YAML file, a .env file
// and UPTIME_* environment variables, in that order of precedence (lowest
// first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Server:  DefaultServerConfig,
		Monitor: DefaultMonitorConfig,
		Storage: DefaultStorageConfig,
		Notify:  DefaultNotifyConfig,
		Logging: DefaultLoggingConfig,
	}
}

// LoadConfig reads path (optional), overlays the environment and validates
// the result. Variables from a .env file in the working directory are loaded
// first unless already set in the process environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := config.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) UnmarshalYAML(unmarshall func(interface{}) error) error {
	type raw Config
	r := raw{
		Server:  DefaultServerConfig,
		Monitor: DefaultMonitorConfig,
		Storage: DefaultStorageConfig,
		Notify:  DefaultNotifyConfig,
		Logging: DefaultLoggingConfig,
	}

	if err := unmarshall(&r); err != nil {
		return err
	}

	*c = Config(r)

	return nil
}
