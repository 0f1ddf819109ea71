package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erdraft/erdraft/internal/diagram"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 7335 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Editor.UndoDepth != 100 {
		t.Errorf("undo depth = %d, want 100", cfg.Editor.UndoDepth)
	}
	if cfg.Editor.GridSize != diagram.DefaultLayout().GridSize {
		t.Errorf("grid size = %v", cfg.Editor.GridSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}

	card, onUpdate, onDelete, err := cfg.Editor.RelationshipDefaults.Parse()
	if err != nil {
		t.Fatalf("default relationship defaults do not parse: %v", err)
	}
	if card != diagram.OneToMany || onUpdate != diagram.NoAction || onDelete != diagram.Cascade {
		t.Errorf("relationship defaults = %v/%v/%v", card, onUpdate, onDelete)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "erdraft.yaml")
	content := `
server:
  port: 9000
editor:
  undo_depth: 25
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, unset value should keep default", cfg.Server.Host)
	}
	if cfg.Editor.UndoDepth != 25 {
		t.Errorf("undo depth = %d, want 25", cfg.Editor.UndoDepth)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ERDRAFT_TEST_HOST", "0.0.0.0")
	path := filepath.Join(t.TempDir(), "erdraft.yaml")
	if err := os.WriteFile(path, []byte("server:\n  host: ${ERDRAFT_TEST_HOST}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want expanded env value", cfg.Server.Host)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestRelationshipDefaultsParseErrors(t *testing.T) {
	tests := []struct {
		name string
		r    RelationshipDefaults
	}{
		{"bad cardinality", RelationshipDefaults{Cardinality: "many_to_many", OnUpdate: "NO ACTION", OnDelete: "CASCADE"}},
		{"bad on_update", RelationshipDefaults{Cardinality: "one_to_many", OnUpdate: "IGNORE", OnDelete: "CASCADE"}},
		{"bad on_delete", RelationshipDefaults{Cardinality: "one_to_many", OnUpdate: "NO ACTION", OnDelete: "EXPLODE"}},
	}
	for _, tt := range tests {
		if _, _, _, err := tt.r.Parse(); err == nil {
			t.Errorf("%s: Parse succeeded", tt.name)
		} else if !strings.Contains(err.Error(), "relationship_defaults") {
			t.Errorf("%s: error %q missing context", tt.name, err)
		}
	}
}
