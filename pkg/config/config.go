// Package config loads a node's startup configuration from a YAML file,
// with ${VAR_NAME} and ${VAR_NAME:-default} environment-variable
// substitution applied to the raw file before parsing.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds everything a rapido node needs to start.
type Config struct {
	ChainID string `yaml:"chain_id"`

	// Storage selects between an in-memory database (the default, fine for
	// development and tests) and a GoLevelDB-backed one rooted at HomeDir.
	Storage StorageConfig `yaml:"storage"`

	// Authenticator selects which auth.Authenticator a node builds.
	// One of "default" (no-op) or "account" (ed25519 + sequential nonce).
	Authenticator string `yaml:"authenticator"`

	// Modules lists the example/application modules to register, by name.
	// Currently only "person_app" exists in this repository.
	Modules []string `yaml:"modules"`

	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// StorageConfig controls the backing database.
type StorageConfig struct {
	Persistent bool   `yaml:"persistent"`
	HomeDir    string `yaml:"home_dir"`
}

// Default returns a Config suitable for local development: in-memory
// storage, no-op authenticator, person_app registered, metrics off.
func Default() *Config {
	return &Config{
		ChainID:       "rapido-dev",
		Authenticator: "default",
		Modules:       []string{"person_app"},
		LogLevel:      "info",
	}
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads and parses a YAML config file at path, substituting
// environment variables first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
