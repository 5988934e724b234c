// Package config loads the contentgraph.json project configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the contentgraph.json configuration file
type Config struct {
	Name        string        `json:"name"`
	Collections string        `json:"collections"`
	Policies    string        `json:"policies"`
	Address     string        `json:"address"`
	GraphQL     GraphQLConfig `json:"graphql"`
}

// GraphQLConfig controls the generated schema surface
type GraphQLConfig struct {
	IgnoreMutations bool  `json:"ignoreMutations"`
	UsefulQueries   *bool `json:"usefulQueries"`
}

// UsefulQueriesEnabled reports the usefulQueries setting, defaulting to true.
func (g GraphQLConfig) UsefulQueriesEnabled() bool {
	return g.UsefulQueries == nil || *g.UsefulQueries
}

// LoadConfig loads the contentgraph.json configuration from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the contentgraph.json configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if config.Collections == "" {
		config.Collections = "./collections"
	}
	if config.Policies == "" {
		config.Policies = "./policies"
	}
	if config.Address == "" {
		config.Address = ":8080"
	}

	return &config, nil
}

// loadConfigFromDir searches for contentgraph.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, "contentgraph.json")
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("no contentgraph.json found in %s or any parent directory", startDir)
}
