package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/erdraft/erdraft/internal/config"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/interaction"
	"github.com/erdraft/erdraft/internal/library"
	"github.com/erdraft/erdraft/internal/session"
	"github.com/erdraft/erdraft/internal/snapshot"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// ERDRAFT_DATA_DIR env var, or ~/.erdraft as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ERDRAFT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.erdraft"
}

// openLibrary opens the SQLite diagram library under the resolved data dir.
func openLibrary() (*library.Store, error) {
	return library.NewStore(resolveDataDir())
}

// loadConfig loads the configuration file named by --config, or the shipped
// defaults when no file is given or found.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	for _, path := range []string{"erdraft.yaml", os.ExpandEnv("$HOME/.erdraft/erdraft.yaml")} {
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		}
	}
	cfg := config.Default()
	return &cfg, nil
}

// newLogger builds an slog.Logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// sessionOptions builds session options from the editor configuration.
func sessionOptions(cfg *config.Config) (session.Options, error) {
	opts := session.DefaultOptions()
	opts.UndoDepth = cfg.Editor.UndoDepth
	if cfg.Editor.GridSize > 0 {
		opts.Layout.GridSize = cfg.Editor.GridSize
	}

	card, onUpdate, onDelete, err := cfg.Editor.RelationshipDefaults.Parse()
	if err != nil {
		return session.Options{}, err
	}
	opts.Defaults = interaction.RelationshipDefaults{
		Cardinality: card,
		OnUpdate:    onUpdate,
		OnDelete:    onDelete,
	}
	return opts, nil
}

// loadSnapshotFile reads and decodes a snapshot document from disk.
func loadSnapshotFile(path string) (*diagram.Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	d, _, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return d, nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
