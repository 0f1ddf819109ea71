// Package config loads the erdraft YAML configuration file. Everything is
// optional; missing values fall back to shipped defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erdraft/erdraft/internal/diagram"
)

// Config is the top-level erdraft configuration file.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Editor  EditorConfig  `yaml:"editor"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the session HTTP server.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   int      `yaml:"rate_limit"` // requests per minute per client, 0 disables
}

// EditorConfig controls editor behavior.
type EditorConfig struct {
	GridSize             float64              `yaml:"grid_size"`
	UndoDepth            int                  `yaml:"undo_depth"` // 0 = unbounded
	RelationshipDefaults RelationshipDefaults `yaml:"relationship_defaults"`
}

// RelationshipDefaults configures how drag-created relationships are
// initialized. This is a product default, not a structural rule, so it is
// configurable.
type RelationshipDefaults struct {
	Cardinality string `yaml:"cardinality"`
	OnUpdate    string `yaml:"on_update"`
	OnDelete    string `yaml:"on_delete"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        7335,
			CORSOrigins: []string{"*"},
			RateLimit:   0,
		},
		Editor: EditorConfig{
			GridSize:  diagram.DefaultLayout().GridSize,
			UndoDepth: 100,
			RelationshipDefaults: RelationshipDefaults{
				Cardinality: string(diagram.OneToMany),
				OnUpdate:    string(diagram.NoAction),
				OnDelete:    string(diagram.Cascade),
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses a YAML configuration file over the defaults.
// Environment variables referenced as ${VAR_NAME} are expanded before
// parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// Parse validates the configured relationship defaults into their typed
// form.
func (r RelationshipDefaults) Parse() (diagram.Cardinality, diagram.RefAction, diagram.RefAction, error) {
	card, err := diagram.ParseCardinality(r.Cardinality)
	if err != nil {
		return "", "", "", fmt.Errorf("relationship_defaults: %w", err)
	}
	onUpdate, err := diagram.ParseRefAction(r.OnUpdate)
	if err != nil {
		return "", "", "", fmt.Errorf("relationship_defaults: %w", err)
	}
	onDelete, err := diagram.ParseRefAction(r.OnDelete)
	if err != nil {
		return "", "", "", fmt.Errorf("relationship_defaults: %w", err)
	}
	return card, onUpdate, onDelete, nil
}
