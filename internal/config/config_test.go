package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.BasePath != "/api" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL.Duration != 12*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.Auth.TokenTTL.Duration)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("server:\n  addr: 0.0.0.0:9000\nlog:\n  level: debug\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Log.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Server.BasePath != "/api" || cfg.Log.MaxBackups != 3 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"driver":        "database:\n  driver: mysql\n",
		"postgres dsn":  "database:\n  driver: postgres\n",
		"level":         "log:\n  level: loud\n",
		"duration":      "auth:\n  token_ttl: soon\n",
		"negative size": "log:\n  max_size_mb: -1\n",
		"empty addr":    "server:\n  addr: \"\"\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromYAML([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil config for missing file, got %v %v", cfg, err)
	}
	cfg, err = Load(dir)
	if err != nil || cfg == nil {
		t.Fatalf("load should fall back to defaults: %v", err)
	}
	body := strings.Replace(GenerateDefault(), "level: info", "level: warn", 1)
	if err := os.WriteFile(filepath.Join(dir, "teamtask.yml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("file not read: %+v", cfg.Log)
	}
}
