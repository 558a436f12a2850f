package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := getenv
	getenv = func(key string) string { return env[key] }
	t.Cleanup(func() { getenv = prev })
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	withEnv(t, map[string]string{EnvRoot: root})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("max body = %d, want 1 MiB", cfg.Server.MaxBodyBytes)
	}
	if want := filepath.Join(root, "data", "entries.json"); cfg.Store.Path != want {
		t.Errorf("store path = %q, want %q", cfg.Store.Path, want)
	}
	if want := filepath.Join(root, "public"); cfg.Server.StaticDir != want {
		t.Errorf("static dir = %q, want %q", cfg.Server.StaticDir, want)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("addr = %q, want :3000", cfg.Addr())
	}
	if !cfg.Store.Sync {
		t.Error("store sync should default to true")
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, DefaultFileName)
	body := strings.Join([]string{
		`root = "` + filepath.ToSlash(root) + `"`,
		"",
		"[server]",
		"port = 8081",
		`host = "127.0.0.1"`,
		`static_dir = "web"`,
		`metrics_path = "stats"`,
		"",
		"[store]",
		`path = "/var/lib/guestbook/entries.json"`,
		"sync = false",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	withEnv(t, map[string]string{})
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8081" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if cfg.Server.StaticDir != filepath.Join(root, "web") {
		t.Errorf("static dir = %q", cfg.Server.StaticDir)
	}
	if cfg.Store.Path != "/var/lib/guestbook/entries.json" {
		t.Errorf("absolute store path was rewritten: %q", cfg.Store.Path)
	}
	if cfg.Store.Sync {
		t.Error("store sync should be false from file")
	}
	if cfg.Server.MetricsPath != "/stats" {
		t.Errorf("metrics path = %q, want /stats", cfg.Server.MetricsPath)
	}

	withEnv(t, map[string]string{EnvPort: "9090", EnvData: "other.json"})
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("PORT did not override file: %d", cfg.Server.Port)
	}
	if cfg.Store.Path != filepath.Join(root, "other.json") {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-numeric port", env: map[string]string{EnvPort: "http"}},
		{name: "port out of range", env: map[string]string{EnvPort: "70000"}},
		{name: "zero port", env: map[string]string{EnvPort: "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.env[EnvRoot] = t.TempDir()
			withEnv(t, tc.env)
			if _, err := Load(""); err == nil {
				t.Fatal("expected Load to fail")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	withEnv(t, map[string]string{})
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected Load to fail for a missing config file")
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Root = "/srv/guestbook"
	cfg.Store.Verbose = true
	cfg.Resolve()

	opts := cfg.StoreOptions()
	if opts.Path != filepath.Join("/srv/guestbook", "data", "entries.json") {
		t.Errorf("store options path = %q", opts.Path)
	}
	if !opts.Sync || !opts.Verbose {
		t.Errorf("store options flags = %+v", opts)
	}
}
