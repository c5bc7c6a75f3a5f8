package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" || cfg.Server.BasePath != "/api" {
		t.Fatalf("unexpected defaults %+v", cfg.Server)
	}
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
server:
  addr: 0.0.0.0:9000
workspace: /srv/taskline
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("addr not applied: %q", cfg.Server.Addr)
	}
	// Omitted fields keep their defaults.
	if cfg.Server.BasePath != "/api" {
		t.Fatalf("base path default lost: %q", cfg.Server.BasePath)
	}
	if cfg.Workspace != "/srv/taskline" {
		t.Fatalf("workspace not applied: %q", cfg.Workspace)
	}
}

func TestFromYAMLRejectsBadBasePath(t *testing.T) {
	_, err := FromYAML([]byte(`
server:
  addr: 127.0.0.1:8080
  base_path: api
`))
	if err == nil || !strings.Contains(err.Error(), "base_path") {
		t.Fatalf("expected base_path validation error, got %v", err)
	}
}

func TestFromYAMLRejectsGarbage(t *testing.T) {
	if _, err := FromYAML([]byte("server: [not a map")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	// No file: defaults bound to the workspace.
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if cfg.Workspace != dir {
		t.Fatalf("workspace not bound: %q", cfg.Workspace)
	}

	// With a file: its values win.
	yml := "server:\n  addr: 127.0.0.1:7777\nworkspace: " + dir + "\n"
	if err := os.WriteFile(filepath.Join(dir, "taskline.yml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("load with file: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7777" {
		t.Fatalf("file value not applied: %q", cfg.Server.Addr)
	}
}

func TestPath(t *testing.T) {
	if got := Path(""); got != filepath.Join(".", "taskline.yml") {
		t.Fatalf("empty workspace path: %q", got)
	}
	if got := Path("/srv"); got != filepath.Join("/srv", "taskline.yml") {
		t.Fatalf("workspace path: %q", got)
	}
}
