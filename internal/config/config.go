// Package config loads codegraph settings from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is looked up in the scan root when no explicit path is given.
const FileName = "codegraph.yaml"

// Neo4j holds the graph database connection settings.
type Neo4j struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// LLM selects the language model provider used for concept extraction,
// annotation and natural-language queries.
type LLM struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
}

// Scan controls source discovery.
type Scan struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Config is the merged view of file, environment and defaults.
type Config struct {
	Neo4j Neo4j `yaml:"neo4j"`
	LLM   LLM   `yaml:"llm"`
	Scan  Scan  `yaml:"scan"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Neo4j: Neo4j{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Password: "password",
		},
		LLM: LLM{
			Provider: "anthropic",
		},
		Scan: Scan{
			Include: []string{
				"**/*.js", "**/*.mjs", "**/*.cjs", "**/*.jsx",
				"**/*.ts", "**/*.tsx", "**/*.html", "**/*.htm",
			},
			Exclude: []string{
				"node_modules", ".git", "dist", "build",
				"coverage", ".codegraph", "__tests__", "fixtures",
			},
		},
	}
}

// Load reads codegraph.yaml from root when present, then applies
// environment overrides on top of the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		c.Neo4j.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}
	if v := os.Getenv("CODEGRAPH_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("CODEGRAPH_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}

	switch c.LLM.Provider {
	case "openai":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}
